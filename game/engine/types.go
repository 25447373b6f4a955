package engine

import (
	"encoding/json"
	"fmt"

	"github.com/wricardo/carcassonne/game/board"
	"github.com/wricardo/carcassonne/game/tile"
)

const (
	// EmptyID and EligibleID stand in for tile ids in the flat TileIDs encoding.
	EmptyID    uint8 = 255
	EligibleID uint8 = 254

	// MaxDeckSize keeps every board dimension representable as a uint8:
	// a straight line of n tiles is n+2 cells wide.
	MaxDeckSize = 253
)

// Flat is a row-major array of small values. It marshals as a JSON array of
// numbers rather than a base64 string.
type Flat []uint8

func (f Flat) MarshalJSON() ([]byte, error) {
	if f == nil {
		return []byte("null"), nil
	}
	out := make([]int, len(f))
	for i, v := range f {
		out[i] = int(v)
	}
	return json.Marshal(out)
}

func (f *Flat) UnmarshalJSON(data []byte) error {
	var in []int
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	if in == nil {
		*f = nil
		return nil
	}
	out := make(Flat, len(in))
	for i, v := range in {
		if v < 0 || v > 255 {
			return fmt.Errorf("flat value %d out of range at %d", v, i)
		}
		out[i] = uint8(v)
	}
	*f = out
	return nil
}

// Messages are the player-facing texts of a rule configuration.
type Messages struct {
	Welcome   string `json:"welcome" yaml:"welcome"`
	Placed    string `json:"placed" yaml:"placed"` // tile letter, row, col
	PileEmpty string `json:"pile_empty" yaml:"pile_empty"`
	Rejected  string `json:"rejected" yaml:"rejected"`
}

// GameConfig describes a deck and its setup, loaded from JSON or YAML.
type GameConfig struct {
	Name          string         `json:"name" yaml:"name"`
	Description   string         `json:"description" yaml:"description"`
	Counts        map[string]int `json:"counts" yaml:"counts"` // tile letter -> tiles in the deck
	StartTile     string         `json:"start_tile" yaml:"start_tile"`
	StartRotation int            `json:"start_rotation" yaml:"start_rotation"`
	EnforceEdges  bool           `json:"enforce_edges" yaml:"enforce_edges"`
	Messages      Messages       `json:"messages" yaml:"messages"`
}

// PlacementRecord is one successful placement.
type PlacementRecord struct {
	Number    int           `json:"number"`
	Tile      tile.ID       `json:"tile"`
	TileName  string        `json:"tile_name"`
	Rotation  tile.Rotation `json:"rotation"`
	Coord     board.Coord   `json:"coord"`
	Row       int           `json:"row"` // extent position right after the placement
	Col       int           `json:"col"`
	Index     int           `json:"index"` // linear index in the board as it was before growth
	FromPile  bool          `json:"from_pile"`
	Growth    board.Growth  `json:"growth"`
	Timestamp int64         `json:"timestamp"`
}

// GameState is a self-contained snapshot of a game, used for persistence and
// by the binding layer.
type GameState struct {
	ConfigName    string       `json:"config_name"`
	Seed          int64        `json:"seed"`
	Width         int          `json:"width"`
	Height        int          `json:"height"`
	Origin        board.Coord  `json:"origin"`
	Cells         []board.Cell `json:"cells"`
	TileIDs       Flat         `json:"tile_ids"`
	TileRotations Flat         `json:"tile_rotations"`
	Remaining     Flat         `json:"remaining"`
	Pile          []tile.ID    `json:"pile"`
	NextTile      string       `json:"next_tile,omitempty"`
	Eligible      []int        `json:"eligible"`
	Message       string       `json:"message"`
	GameOver      bool         `json:"game_over"`

	Placements      []PlacementRecord `json:"placements"`
	TotalPlacements int               `json:"total_placements"`
}
