// Package websocket pushes board updates to clients watching a session.
//
// The package uses a hub-and-spoke model where a central Hub manages all
// WebSocket connections. Each client connection has a read and a write
// goroutine; the hub loop owns registration and fan-out.
//
// Message Protocol:
//
// Clients connect with ?session=<id> and only receive messages for that
// session. Outgoing messages are JSON:
//
//	{"session_id": "3f2a9c01", "event": "board_update", "board": {...}}
//
// The board is the flat view: width, height, row-major tile ids and
// rotations, remaining counts and eligible indices. Incoming messages are
// ignored.
//
// Usage:
//
//	hub := websocket.NewHub()
//	go hub.Run()
//
//	hub.BroadcastBoard(sessionID, board)
package websocket
