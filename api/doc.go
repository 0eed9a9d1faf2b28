// Package api provides HTTP REST API handlers for the Sokoban game.
//
// Endpoints:
//
// Session Management:
//   - POST /api/sessions - Create a session ({"level_id": "level2"}, empty for the default level)
//   - GET /api/sessions - List sessions (sort=created|accessed, order=asc|desc, limit, level)
//   - GET /api/sessions/{id} - Get a session with its game state
//   - DELETE /api/sessions/{id} - Delete a session
//
// Game Operations:
//   - GET /api/sessions/{id}/state - Current game state
//   - POST /api/sessions/{id}/move - {"direction": "up|down|left|right", "reset": false}
//   - POST /api/sessions/{id}/bulk-move - {"moves": ["up", "left"], "reset": false}
//   - POST /api/sessions/{id}/reset - Restart the level
//   - GET /api/sessions/{id}/history - Move history (page, limit, order)
//   - GET /api/sessions/{id}/hint - Shortest solution from the current position
//
// Levels:
//   - GET /api/levels - List level files
//   - GET /api/levels/{name} - Level rows and metadata
//   - POST /api/levels - Save {"level_id", "name", "description", "rows"}
//
// Live updates are served on /ws?session={id}; see package websocket.
//
// Error Handling:
//
// Errors are returned as JSON with the status code repeated in the body:
//
//	{
//	  "error": "session not found",
//	  "code": 404
//	}
//
// Unknown sessions and levels map to 404, levels that fail validation to 422
// and malformed requests to 400. Blocked moves are not errors: they return
// 200 with success=false and an attempted_to cell.
package api
