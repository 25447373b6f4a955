// Package engine provides the placement rules and game state of the tile game.
//
// The engine package ties the tile catalog, the draw pile and the board
// together:
//   - Dealing a game from a rule configuration and a seed
//   - Drawing the next tile and placing it at a linear board index
//   - Growing the board when a tile lands on its outer ring
//   - Recomputing which empty cells are eligible targets
//   - Remaining-count bookkeeping and placement history
//   - Snapshots for persistence and for the flat binding encoding
//
// Core Types:
//
// The Engine interface defines the main contract for game operations,
// implemented by GameEngine. GameState is a self-contained snapshot, while
// GameConfig defines the deck and setup loaded from JSON or YAML files.
//
// Usage:
//
//	game := engine.NewStandardGame(seed)
//
//	next, _ := game.PeekNextTile()
//	log.Printf("next tile: %s", next)
//
//	if !game.PlaceNext(game.EligibleIndices()[0], 0) {
//		log.Println(game.GetState().Message)
//	}
//	ids, rotations := game.TileIDs(), game.TileRotations()
//
// Game Rules:
//
// A placement must target an eligible cell: an empty cell with at least one
// orthogonal neighbor holding a tile. Edge features of neighboring tiles are
// only compared when the configuration sets enforce_edges. The game is over
// once the pile is empty.
package engine
