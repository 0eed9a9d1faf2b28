// Package service provides the business logic layer for the Sokoban game.
//
// The service package implements:
//   - Multi-session play with one engine per session
//   - Level lookup, listing and saving through a LevelManager
//   - Single and bulk moves with per-step traces and stop codes
//   - Paginated move history
//   - Solver-backed hints from the current position
//
// Core Interfaces:
//
// GameService is the main service interface providing high-level game operations.
// SessionManager handles session creation, retrieval, and lifecycle.
// LevelManager loads level files and picks the default level.
//
// Errors:
//
// ErrSessionNotFound, ErrLevelNotFound, ErrInvalidLevel and ErrInvalidMove are
// shared by every implementation so transports can map them with errors.Is.
//
// Usage:
//
//	sessionMgr := session.NewManager()
//	levelMgr, err := levels.NewManager("levels")
//	if err != nil {
//		log.Fatal(err)
//	}
//	gameService := service.NewGameService(sessionMgr, levelMgr)
//
//	info, err := gameService.CreateSession(ctx, "level1")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	result, err := gameService.Move(ctx, info.ID, "right", false)
//
// Concurrency:
//
// Engines are not safe for concurrent use. The service serializes every call
// that touches an engine, so transports may call it from any goroutine.
// A Notifier set with WithNotifier is called inside that serialized section
// after every move, bulk move and reset.
package service
