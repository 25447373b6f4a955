// Package service provides the business logic layer for the tile game.
//
// The service package implements:
//   - Multi-session game management
//   - Rule configuration loading and listing
//   - Placement processing and event reporting
//   - Flat board views for renderers and remote clients
//   - Placement history pagination
//
// Core Interfaces:
//
// GameService is the main service interface providing high-level game operations.
// SessionManager handles session creation, retrieval, and lifecycle.
// ConfigManager manages rule configuration loading and validation.
//
// Architecture:
//
// The service layer sits between the transport layer (HTTP/WebSocket/MCP) and
// the game engine. Each session owns one engine; the service serializes every
// call so an engine never sees two callers at once.
//
// Usage:
//
//	sessionMgr := session.NewManager()
//	configMgr, _ := config.NewManager("configs")
//	gameService := service.NewGameService(sessionMgr, configMgr)
//
//	info, err := gameService.CreateSession(ctx, "standard", nil)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	result, err := gameService.Place(ctx, info.ID, info.Board.Eligible[0], 0, false)
//
// Events:
//
// A successful placement reports "placed", followed by "grew_rows" or
// "grew_cols" when the board was extended and "pile_empty" when the last
// tile was drawn. A placement requested with reset starts with "reset".
package service
