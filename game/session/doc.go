// Package session provides session management for the tile game.
//
// The session package implements:
//   - Thread-safe session storage and retrieval
//   - Unique session ID generation
//   - Session lifecycle management
//   - File persistence of running games
//   - Session cleanup and expiration
//
// Core Types:
//
// Manager is the main session manager that handles all session operations.
// Each session owns one game engine dealt from a rule configuration and a
// seed, plus metadata like creation time and last access time.
//
// Session Identifiers:
//
// Generated IDs are the first eight hex characters of a random UUID. Lookups
// are case-insensitive.
//
// Persistence:
//
// FilePersistence stores each session as <id>.json holding the config name
// and a full engine snapshot, including the seed and the remaining pile
// order. A loaded session continues with exactly the draws it would have had.
//
// Usage:
//
//	persistence, err := session.NewFilePersistence("sessions", configManager)
//	manager := session.NewManagerWithPersistence(persistence)
//
//	sess, err := manager.Create("", "standard", configManager.GetDefault(), 42)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	sess, err = manager.Get(sess.ID)
package session
