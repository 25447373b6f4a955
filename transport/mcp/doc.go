// Package mcp provides a Model Context Protocol front end for the tile
// placement game.
//
// The Client registers game tools on an MCP server and proxies every tool
// call to the REST API, formatting the JSON answers as text an agent can
// read: the board drawn with tile letters, the eligible cell indices, the
// next tile and what is left in the pile.
//
// MCP Tools:
//   - create_session: Create a game, optionally picking a config and a seed
//   - list_sessions, get_session: Inspect running games
//   - board_state: Board text, eligible indices and pile contents
//   - place_tile: Place by index, or by row and column with an optional tile
//   - reset_game: Deal again with the same seed
//   - placement_history: Paginated placements
//   - list_configs: Rule configurations
//   - tile_catalog: Edges and faces of every tile type
//   - game_instructions: Rules and legend
//
// Transport Modes:
//
// main serves the client either over stdio for local agents or as an HTTP
// POST endpoint mounted next to the REST API.
//
// Usage:
//
//	client := mcp.NewClient("http://localhost:8080")
//	server.ServeStdio(client.GetMCPServer())
package mcp
