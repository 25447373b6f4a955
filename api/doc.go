// Package api provides HTTP REST API handlers for the tile placement game.
//
// The api package implements:
//   - Session management endpoints
//   - Placement by linear index or by row and column
//   - Flat board and full state snapshots
//   - Placement history with pagination
//   - Tile catalog and rule configuration endpoints
//   - WebSocket upgrade handling for live board updates
//
// Endpoints:
//
// Session Management:
//   - POST /api/sessions - Create new session ({"config_id": "standard", "seed": 42})
//   - GET /api/sessions - List sessions (?sort=created|accessed&order=asc|desc&limit=N)
//   - GET /api/sessions/{id} - Get specific session
//   - DELETE /api/sessions/{id} - Delete session
//
// Game Operations:
//   - GET /api/sessions/{id}/state - Full snapshot, pile order included
//   - GET /api/sessions/{id}/board - Flat board (?format=text for the ASCII rendering)
//   - POST /api/sessions/{id}/place - Place a tile
//   - POST /api/sessions/{id}/reset - Deal the game again with the same seed
//   - GET /api/sessions/{id}/history - Placement history (?page=1&limit=20&order=desc)
//
// Catalog and Configuration:
//   - GET /api/tiles - Tile types with edges and faces
//   - GET /api/configs - List rule configurations
//   - GET /api/configs/{name} - Get one configuration
//   - POST /api/configs - Save a configuration (JSON, or YAML by Content-Type)
//
// Placement requests take either a linear index of the current board, which
// places the next tile of the pile:
//
//	{"index": 7, "rotation": 0, "reset": false}
//
// or a row and column, optionally naming the tile type to take out of the
// pile instead of the next one:
//
//	{"row": 0, "col": 1, "tile": "V", "rotation": 1}
//
// A rejected placement still answers 200 with "success": false and the
// reason; unknown sessions answer 404.
//
// Error Handling:
//
// Errors are returned as JSON with an appropriate HTTP status code:
//
//	{"error": "error message"}
package api
