package engine

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/wricardo/carcassonne/game/board"
	"github.com/wricardo/carcassonne/game/pile"
	"github.com/wricardo/carcassonne/game/tile"
)

var (
	ErrPileEmpty        = errors.New("no tiles left in the pile")
	ErrInvalidRotation  = errors.New("rotation must be between 0 and 3")
	ErrUnknownTile      = errors.New("unknown tile type")
	ErrTileUnavailable  = errors.New("no tile of that type left in the pile")
	ErrEdgeMismatch     = errors.New("tile edges do not match the neighboring tiles")
	ErrInconsistentSave = errors.New("remaining counts do not match the pile")
)

// Engine provides the main interface for game operations
type Engine interface {
	// Placement
	PlaceNext(index int, rotation tile.Rotation) bool
	PlaceTile(id tile.ID, row, col int, rotation tile.Rotation) bool
	Place(index int, rotation tile.Rotation) (*PlacementRecord, error)
	PlaceAt(id tile.ID, row, col int, rotation tile.Rotation) (*PlacementRecord, error)

	// Board and pile views
	Width() int
	Height() int
	TileIDs() []uint8
	TileRotations() []uint8
	Cells() []board.Cell
	EligibleIndices() []int
	RemainingCounts() []uint8
	PeekNextTile() (tile.ID, bool)
	PileSize() int
	IsGameOver() bool
	Message() string
	Render() string

	// State management
	GetState() *GameState
	SetState(state *GameState) error
	Reset() *GameState
	GetConfig() *GameConfig
	GetSeed() int64

	// History
	GetPlacementHistory() []PlacementRecord
	GetLastPlacement() *PlacementRecord
}

// GameEngine implements the Engine interface. It owns one game session and is
// not safe for concurrent use; callers serialize access per game.
type GameEngine struct {
	config    *GameConfig
	seed      int64
	board     *board.Board
	pile      *pile.Pile
	remaining [tile.NumTypes]int
	history   []PlacementRecord
	message   string
}

// NewEngine creates a new game from a rule configuration. The seed drives
// the pile shuffle, so equal seeds deal equal games.
func NewEngine(config *GameConfig, seed int64) (*GameEngine, error) {
	if err := ValidateGameConfig(config); err != nil {
		return nil, err
	}

	e := &GameEngine{config: config, seed: seed}
	e.deal()
	return e, nil
}

// NewStandardGame deals the standard deck with tile D at the center.
func NewStandardGame(seed int64) *GameEngine {
	e := &GameEngine{config: DefaultConfig(), seed: seed}
	e.deal()
	return e
}

// deal builds the opening board and the shuffled pile. The start tile is
// taken out of the deck before shuffling.
func (e *GameEngine) deal() {
	start, rotation := e.config.Start()

	counts := e.config.DeckCounts()
	counts[start]--

	e.remaining = counts
	e.pile = pile.New(counts, rand.New(rand.NewSource(e.seed)))
	e.board = board.NewStandard(start, rotation)
	e.history = []PlacementRecord{}
	e.message = e.config.Messages.Welcome
}

// Reset deals the game again from the same configuration and seed.
func (e *GameEngine) Reset() *GameState {
	e.deal()
	return e.GetState()
}

// Width returns the number of columns on the board.
func (e *GameEngine) Width() int { return e.board.Width() }

// Height returns the number of rows on the board.
func (e *GameEngine) Height() int { return e.board.Height() }

// TileIDs flattens the board row-major into tile ids, using EmptyID and
// EligibleID for cells without a tile.
func (e *GameEngine) TileIDs() []uint8 {
	cells := e.board.Cells()
	ids := make([]uint8, len(cells))
	for i, cell := range cells {
		switch cell.State {
		case board.Placed:
			ids[i] = uint8(cell.Tile)
		case board.Eligible:
			ids[i] = EligibleID
		default:
			ids[i] = EmptyID
		}
	}
	return ids
}

// TileRotations flattens the board row-major into rotations, aligned with TileIDs.
func (e *GameEngine) TileRotations() []uint8 {
	cells := e.board.Cells()
	rotations := make([]uint8, len(cells))
	for i, cell := range cells {
		rotations[i] = uint8(cell.Rotation)
	}
	return rotations
}

// Cells returns the board row-major as tagged cells.
func (e *GameEngine) Cells() []board.Cell { return e.board.Cells() }

// EligibleIndices lists the linear indices a tile may be placed at.
func (e *GameEngine) EligibleIndices() []int {
	coords := e.board.EligibleCoords()
	out := make([]int, len(coords))
	for i, c := range coords {
		out[i] = e.board.Index(c)
	}
	return out
}

// RemainingCounts returns how many tiles of each type are left to draw,
// index-aligned with the catalog.
func (e *GameEngine) RemainingCounts() []uint8 {
	out := make([]uint8, tile.NumTypes)
	for i, n := range e.remaining {
		out[i] = uint8(n)
	}
	return out
}

// PeekNextTile returns the type of the tile about to be drawn.
func (e *GameEngine) PeekNextTile() (tile.ID, bool) { return e.pile.Peek() }

// PileSize returns how many tiles are left to draw.
func (e *GameEngine) PileSize() int { return e.pile.Len() }

// IsGameOver reports whether the pile is exhausted.
func (e *GameEngine) IsGameOver() bool { return e.pile.Len() == 0 }

// Message returns the player-facing text of the last action.
func (e *GameEngine) Message() string { return e.message }

// Render draws the board with deck letters, '*' for eligible cells and '.'
// for empty ones.
func (e *GameEngine) Render() string { return e.board.String() }

// GetConfig returns the rule configuration of the game
func (e *GameEngine) GetConfig() *GameConfig { return e.config }

// GetSeed returns the seed the pile was shuffled with
func (e *GameEngine) GetSeed() int64 { return e.seed }

// GetPlacementHistory returns every successful placement in order
func (e *GameEngine) GetPlacementHistory() []PlacementRecord { return e.history }

// GetLastPlacement returns the last placement made, or nil if none
func (e *GameEngine) GetLastPlacement() *PlacementRecord {
	if len(e.history) == 0 {
		return nil
	}
	return &e.history[len(e.history)-1]
}

// GetState builds a snapshot of the game.
func (e *GameEngine) GetState() *GameState {
	state := &GameState{
		ConfigName:      e.config.Name,
		Seed:            e.seed,
		Width:           e.board.Width(),
		Height:          e.board.Height(),
		Origin:          e.board.Origin(),
		Cells:           e.board.Cells(),
		TileIDs:         e.TileIDs(),
		TileRotations:   e.TileRotations(),
		Remaining:       e.RemainingCounts(),
		Pile:            e.pile.Tiles(),
		Eligible:        e.EligibleIndices(),
		Message:         e.message,
		GameOver:        e.IsGameOver(),
		Placements:      append([]PlacementRecord{}, e.history...),
		TotalPlacements: len(e.history),
	}
	if next, ok := e.pile.Peek(); ok {
		state.NextTile = next.String()
	}
	return state
}

// SetState restores a snapshot produced by GetState (used for persistence loading).
func (e *GameEngine) SetState(state *GameState) error {
	if state == nil {
		return fmt.Errorf("state cannot be nil")
	}

	b, err := board.Restore(state.Origin, state.Width, state.Height, state.Cells)
	if err != nil {
		return fmt.Errorf("failed to restore board: %w", err)
	}

	if len(state.Remaining) != tile.NumTypes {
		return fmt.Errorf("%w: expected %d counts, got %d", ErrInconsistentSave, tile.NumTypes, len(state.Remaining))
	}
	for _, id := range state.Pile {
		if !id.Valid() {
			return fmt.Errorf("%w: pile holds %v", ErrUnknownTile, id)
		}
	}
	p := pile.FromTiles(state.Pile)
	var remaining [tile.NumTypes]int
	for i, n := range state.Remaining {
		remaining[i] = int(n)
	}
	if p.Counts() != remaining {
		return ErrInconsistentSave
	}

	e.seed = state.Seed
	e.board = b
	e.pile = p
	e.remaining = remaining
	e.history = append([]PlacementRecord{}, state.Placements...)
	e.message = state.Message
	return nil
}
