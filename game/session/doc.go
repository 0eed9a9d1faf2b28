// Package session provides session management for the Sokoban server.
//
// The session package implements:
//   - Thread-safe session storage and retrieval
//   - Unique session ID generation
//   - Session lifecycle management
//   - Session cleanup and expiration
//
// Core Types:
//
// Manager is the main session manager that handles all session operations.
// Each service.Session owns its own engine.GameEngine built from a shared,
// read-only engine.Level, so moves in one session never affect another.
//
// Session Identifiers:
//
// Sessions use 4-character hex IDs for easy reference. Lookups are
// case-insensitive and generated IDs are retried on collision.
//
// Usage:
//
//	manager := session.NewManager()
//
//	sess, err := manager.Create("", "level1", level)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	sess, err = manager.Get(sessionID)
//
// Sessions live in memory only. Idle sessions are dropped by
// CleanupExpiredSessions, which the server runs on a timer.
package session
