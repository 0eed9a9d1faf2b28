// Package engine provides the core puzzle logic for the Sokoban game.
//
// The engine package implements:
//   - A fixed-capacity grid map of void, floor, wall and goal cells
//   - Level parsing and validation from row text or <Rows> documents
//   - Player and box entities that notify observers when they change
//   - The move-resolution state machine (walk, push, win detection)
//   - A session-facing engine with restart, move history and snapshots
//
// Core Types:
//
// GridMap holds terrain only. Level bundles a GridMap with the player start,
// box starts and goal set and never changes after loading. GameManager owns
// the Player and Box entities of one play session and resolves moves.
// GameEngine wraps a GameManager for services: it restarts sessions, keeps
// history, records entity events and renders GameState snapshots.
//
// Usage:
//
//	level, err := engine.ParseRows([]string{
//		"#####",
//		"#P..#",
//		"#.B.#",
//		"#..G#",
//		"#####",
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	gameEngine, err := engine.NewEngine(level)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	gameEngine.Move("down")
//	state := gameEngine.GetState()
//
// Game Rules:
//
// The player walks on floor and goal cells and pushes a single box one cell
// when the cell behind it is free terrain without another box. Chained
// pushes are not allowed. The level is solved when every box rests on a goal.
// Blocked moves are not errors: they return false and still turn the player.
package engine
