// Package websocket streams Sokoban session updates to browsers and tools.
//
// Clients connect to /ws?session=<id> and receive the session's current
// state first. After that every REST or MCP action on the session is
// forwarded as one message per entity event ("player_facing", "box_moved",
// "box_state", "player_moved", "victory", "reset") followed by a
// "state_update" carrying the full GameState.
//
// Usage:
//
//	hub := websocket.NewHub()
//	go hub.Run(ctx)
//	gameService := service.NewGameService(sessions, levels, service.WithNotifier(hub))
//
//	hub.ServeWS(w, r, sessionID, state)
//
// The game service calls SessionChanged while it still serializes the change,
// so each session's messages are queued in the order the moves were applied.
// Session IDs are matched without regard to case.
//
// The Hub owns its client registry from the Run goroutine; publishers talk to
// it through channels and never block once Run has returned.
package websocket
