package engine

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/wricardo/carcassonne/game/tile"
)

// ValidateGameConfig validates a rule configuration for correctness and playability
func ValidateGameConfig(config *GameConfig) error {
	if config == nil {
		return fmt.Errorf("config validation: config is nil")
	}
	if config.Name == "" {
		return fmt.Errorf("config validation: name is required")
	}
	if config.Description == "" {
		return fmt.Errorf("config validation: description is required")
	}

	total := 0
	for letter, n := range config.Counts {
		if _, err := tile.ParseID(letter); err != nil {
			return fmt.Errorf("config validation: counts: %v", err)
		}
		if n < 0 {
			return fmt.Errorf("config validation: counts[%s] must not be negative, got %d", letter, n)
		}
		total += n
	}
	if total > MaxDeckSize {
		return fmt.Errorf("config validation: deck has %d tiles, at most %d are supported", total, MaxDeckSize)
	}

	start, err := tile.ParseID(config.StartTile)
	if err != nil {
		return fmt.Errorf("config validation: start_tile: %v", err)
	}
	if config.Counts[start.String()] < 1 {
		return fmt.Errorf("config validation: start_tile %s must be part of the deck", start)
	}
	if config.StartRotation < 0 || config.StartRotation > 3 {
		return fmt.Errorf("config validation: start_rotation must be between 0 and 3, got %d", config.StartRotation)
	}

	if config.Messages.Welcome == "" {
		return fmt.Errorf("config validation: messages.welcome is required")
	}
	if config.Messages.PileEmpty == "" {
		return fmt.Errorf("config validation: messages.pile_empty is required")
	}
	if p := config.Messages.Placed; p != "" && (strings.Count(p, "%s") != 1 || strings.Count(p, "%d") != 2) {
		return fmt.Errorf("config validation: messages.placed must contain one %%s for the tile and two %%d for row and col")
	}

	return nil
}

// DeckCounts returns the per-type tile counts of the full deck, start tile included.
func (c *GameConfig) DeckCounts() [tile.NumTypes]int {
	var counts [tile.NumTypes]int
	for letter, n := range c.Counts {
		if id, err := tile.ParseID(letter); err == nil && n > 0 {
			counts[id] = n
		}
	}
	return counts
}

// Start returns the start tile and its rotation.
func (c *GameConfig) Start() (tile.ID, tile.Rotation) {
	id, err := tile.ParseID(c.StartTile)
	if err != nil {
		id = tile.StartTile
	}
	return id, tile.Rotation(c.StartRotation).Normalize()
}

// DecodeGameConfig parses a configuration in the format named by ext
// (".json", ".yaml" or ".yml") and validates it.
func DecodeGameConfig(data []byte, ext string) (*GameConfig, error) {
	var config GameConfig
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse yaml config: %w", err)
		}
	default:
		if err := json.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse json config: %w", err)
		}
	}

	if err := ValidateGameConfig(&config); err != nil {
		return nil, err
	}
	return &config, nil
}

// LoadGameConfig loads a rule configuration from a JSON or YAML file
func LoadGameConfig(filename string) (*GameConfig, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	return DecodeGameConfig(data, filepath.Ext(filename))
}

// DefaultConfig returns the standard 72-tile game.
func DefaultConfig() *GameConfig {
	counts := make(map[string]int, tile.NumTypes)
	for id, n := range tile.StandardCounts {
		counts[tile.ID(id).String()] = n
	}

	return &GameConfig{
		Name:          "standard",
		Description:   "Standard 72-tile deck with tile D face up at the center",
		Counts:        counts,
		StartTile:     tile.StartTile.String(),
		StartRotation: 0,
		EnforceEdges:  false,
		Messages: Messages{
			Welcome:   "Welcome! Place tiles next to the ones already on the board.",
			Placed:    "Placed %s at (%d,%d)",
			PileEmpty: "No tiles left to draw. Game over!",
			Rejected:  "Can't place there!",
		},
	}
}
