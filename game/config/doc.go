// Package config provides rule configuration management for the tile game.
//
// The config package handles:
//   - Loading rule configurations from JSON or YAML files
//   - Configuration validation
//   - Default configuration management
//   - Configuration discovery and listing
//
// Configuration Format:
//
// Rule configurations are stored as .json, .yaml or .yml files in the
// configs directory. Each configuration defines:
//   - The deck as a count per tile letter (A through X)
//   - The start tile and its rotation
//   - Whether neighboring edges must match
//   - Player-facing messages
//
// The configuration named "standard" is the default. When no file provides
// it, the built-in 72-tile deck is used.
//
// Usage:
//
//	manager, err := config.NewManager("configs")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	gameConfig, err := manager.LoadConfig("small")
//	defaultConfig := manager.GetDefault()
//	configs, err := manager.ListConfigs()
package config
