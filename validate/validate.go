// Package validate checks rule configuration files. Beyond the checks the
// engine applies when it loads a configuration, it rejects unknown keys so
// that typos do not silently fall back to defaults, and it reports facts
// about the deck that are worth knowing before a game is dealt:
//   - deck size and number of tile types
//   - whether any tile is left to place after the start tile
//   - with edge matching on, tile types that can never touch another tile
//     of the deck and so can never be placed
package validate

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/wricardo/carcassonne/game/engine"
	"github.com/wricardo/carcassonne/game/tile"
)

// ValidationResult captures the outcome of validating a single file.
// Errors are only set when Valid is false; Info holds the deck summary.
type ValidationResult struct {
	File   string
	Valid  bool
	Errors []string
	Info   []string
}

func (r *ValidationResult) fail(format string, args ...any) {
	r.Valid = false
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

// ValidateConfig loads and validates a single configuration file, JSON or
// YAML by extension.
func ValidateConfig(filePath string) ValidationResult {
	result := ValidationResult{
		File:   filepath.Base(filePath),
		Valid:  true,
		Errors: []string{},
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		result.fail("Failed to read file: %v", err)
		return result
	}

	ext := strings.ToLower(filepath.Ext(filePath))
	if err := decodeStrict(data, ext); err != nil {
		result.fail("%v", err)
		return result
	}

	config, err := engine.DecodeGameConfig(data, ext)
	if err != nil {
		result.fail("%v", err)
		return result
	}

	counts := config.DeckCounts()
	size, types := 0, 0
	for _, n := range counts {
		size += n
		if n > 0 {
			types++
		}
	}
	start, _ := config.Start()
	result.Info = append(result.Info,
		fmt.Sprintf("✓ Deck: %d tiles of %d types", size, types),
		fmt.Sprintf("✓ Start tile: %s (rotation %d)", start, config.StartRotation),
	)

	if size <= 1 {
		result.fail("Deck holds only the start tile; there is nothing to place")
	}

	if config.EnforceEdges {
		if stuck := unplaceableTypes(counts); len(stuck) > 0 {
			result.fail("With enforce_edges these tile types can never touch another tile of the deck: %s", strings.Join(stuck, ", "))
		} else {
			result.Info = append(result.Info, "✓ Edge matching: every tile type can meet another tile of the deck")
		}
	}

	return result
}

// ValidateDir validates every .json, .yaml and .yml file in dir, sorted by name.
func ValidateDir(dir string) ([]ValidationResult, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read config directory: %w", err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(entry.Name())) {
		case ".json", ".yaml", ".yml":
			files = append(files, filepath.Join(dir, entry.Name()))
		}
	}
	sort.Strings(files)

	results := make([]ValidationResult, 0, len(files))
	for _, file := range files {
		results = append(results, ValidateConfig(file))
	}
	return results, nil
}

// decodeStrict decodes into GameConfig, rejecting keys it does not know.
func decodeStrict(data []byte, ext string) error {
	var config engine.GameConfig
	switch ext {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&config); err != nil {
			return fmt.Errorf("Invalid YAML: %v", err)
		}
	default:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&config); err != nil {
			return fmt.Errorf("Invalid JSON: %v", err)
		}
	}
	return nil
}

// unplaceableTypes lists the deck letters whose tiles cannot sit next to any
// other tile of the deck in any rotation.
func unplaceableTypes(counts [tile.NumTypes]int) []string {
	var stuck []string
	for a := tile.ID(0); a < tile.NumTypes; a++ {
		if counts[a] == 0 {
			continue
		}
		if !canMeetAny(a, counts) {
			stuck = append(stuck, a.String())
		}
	}
	return stuck
}

func canMeetAny(a tile.ID, counts [tile.NumTypes]int) bool {
	for b := tile.ID(0); b < tile.NumTypes; b++ {
		n := counts[b]
		if a == b {
			n--
		}
		if n <= 0 {
			continue
		}
		for r := tile.Rotation(0); r < 4; r++ {
			ta := tile.Lookup(a).Rotate(r)
			for s := tile.Rotation(0); s < 4; s++ {
				tb := tile.Lookup(b).Rotate(s)
				// a to the left of b, then a above b; rotations cover the rest
				if tile.Compatible(ta.Right(), tb.Left()) || tile.Compatible(ta.Bottom(), tb.Top()) {
					return true
				}
			}
		}
	}
	return false
}
