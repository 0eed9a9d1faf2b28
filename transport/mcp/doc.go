// Package mcp exposes the Sokoban REST API as Model Context Protocol tools.
//
// Client is a thin proxy: every tool call becomes one or two REST requests
// against a running API server, and the JSON answers are rendered as text
// an agent can read (board rows, step traces, blocked-move diagnostics).
//
// MCP Tools:
//   - create_session, list_sessions, get_session
//   - game_state, move, bulk_move, reset_game, move_history
//   - list_levels, solve_hint, describe_cell, game_instructions
//
// Transport Modes:
//   - Stdio: server.ServeStdio(client.GetMCPServer()) for local MCP clients
//   - HTTP: Client implements http.Handler and answers one JSON-RPC message
//     per POST, mounted at /mcp next to the REST API
//
// Usage:
//
//	client := mcp.NewClient("http://localhost:8080")
//	mux.Handle("/mcp", client)
//
// Tool failures (unknown session, blocked input validation) are returned as
// error results rather than protocol errors so agents can read and recover.
package mcp
