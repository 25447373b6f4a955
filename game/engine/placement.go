package engine

import (
	"errors"
	"fmt"
	"time"

	"github.com/wricardo/carcassonne/game/board"
	"github.com/wricardo/carcassonne/game/tile"
)

// PlaceNext draws the next tile and places it at a linear index of the
// current board. It reports false, leaving the game untouched, when the pile
// is empty or the target is not an eligible cell.
func (e *GameEngine) PlaceNext(index int, rotation tile.Rotation) bool {
	_, err := e.Place(index, rotation)
	return err == nil
}

// PlaceTile places a tile of the given type at an extent-relative position,
// bypassing the draw order. One tile of that type leaves the pile.
func (e *GameEngine) PlaceTile(id tile.ID, row, col int, rotation tile.Rotation) bool {
	_, err := e.PlaceAt(id, row, col, rotation)
	return err == nil
}

// Place is PlaceNext with the rejection reason.
func (e *GameEngine) Place(index int, rotation tile.Rotation) (*PlacementRecord, error) {
	next, ok := e.pile.Peek()
	if !ok {
		return nil, e.reject(ErrPileEmpty)
	}

	at, ok := e.board.Coord(index)
	if !ok {
		return nil, e.reject(fmt.Errorf("index %d: %w", index, board.ErrOutOfBounds))
	}
	if err := e.checkTarget(at, next, rotation); err != nil {
		return nil, e.reject(err)
	}

	record, err := e.apply(at, next, rotation, index, true)
	if err != nil {
		return nil, e.reject(err)
	}
	e.pile.Draw()
	e.message = e.placedMessage(record)
	return record, nil
}

// PlaceAt is PlaceTile with the rejection reason.
func (e *GameEngine) PlaceAt(id tile.ID, row, col int, rotation tile.Rotation) (*PlacementRecord, error) {
	if !id.Valid() {
		return nil, e.reject(fmt.Errorf("%w: %d", ErrUnknownTile, id))
	}
	if e.remaining[id] == 0 {
		return nil, e.reject(fmt.Errorf("%w: %s", ErrTileUnavailable, id))
	}

	at, ok := e.board.CoordAt(row, col)
	if !ok {
		return nil, e.reject(fmt.Errorf("position (%d,%d): %w", row, col, board.ErrOutOfBounds))
	}
	if err := e.checkTarget(at, id, rotation); err != nil {
		return nil, e.reject(err)
	}

	record, err := e.apply(at, id, rotation, e.board.Index(at), false)
	if err != nil {
		return nil, e.reject(err)
	}
	if !e.pile.Remove(id) {
		panic(fmt.Sprintf("engine: remaining count for %s is positive but the pile has none", id))
	}
	e.message = e.placedMessage(record)
	return record, nil
}

// checkTarget runs every check that must pass before anything is mutated.
func (e *GameEngine) checkTarget(at board.Coord, id tile.ID, rotation tile.Rotation) error {
	if !rotation.Valid() {
		return ErrInvalidRotation
	}
	switch e.board.At(at).State {
	case board.Placed:
		return board.ErrOccupied
	case board.Empty:
		return board.ErrNotEligible
	}
	if e.config.EnforceEdges && !e.edgesMatch(at, id, rotation) {
		return ErrEdgeMismatch
	}
	return nil
}

// edgesMatch compares the rotated tile with every placed orthogonal neighbor.
func (e *GameEngine) edgesMatch(at board.Coord, id tile.ID, rotation tile.Rotation) bool {
	t := tile.Lookup(id).Rotate(rotation)
	neighbors := board.Neighbors(at)
	for dir, n := range neighbors {
		cell := e.board.At(n)
		if cell.State != board.Placed {
			continue
		}
		other := tile.Lookup(cell.Tile).Rotate(cell.Rotation)

		var mine, theirs tile.Feature
		switch dir {
		case 0:
			mine, theirs = t.Top(), other.Bottom()
		case 1:
			mine, theirs = t.Right(), other.Left()
		case 2:
			mine, theirs = t.Bottom(), other.Top()
		default:
			mine, theirs = t.Left(), other.Right()
		}
		if !tile.Compatible(mine, theirs) {
			return false
		}
	}
	return true
}

// apply writes the tile, grows the board and books the placement. The
// caller takes the tile out of the pile.
func (e *GameEngine) apply(at board.Coord, id tile.ID, rotation tile.Rotation, index int, fromPile bool) (*PlacementRecord, error) {
	if e.remaining[id] <= 0 {
		panic(fmt.Sprintf("engine: remaining count for %s would drop below zero", id))
	}

	growth, err := e.board.Place(at, id, rotation)
	if err != nil {
		return nil, err
	}
	e.remaining[id]--

	row, col := e.board.Position(at)
	record := PlacementRecord{
		Number:    len(e.history) + 1,
		Tile:      id,
		TileName:  id.String(),
		Rotation:  rotation,
		Coord:     at,
		Row:       row,
		Col:       col,
		Index:     index,
		FromPile:  fromPile,
		Growth:    growth,
		Timestamp: time.Now().Unix(),
	}
	e.history = append(e.history, record)
	return &record, nil
}

func (e *GameEngine) placedMessage(record *PlacementRecord) string {
	msg := e.config.Messages.Placed
	if msg == "" {
		msg = "Placed %s at (%d,%d)"
	}
	msg = fmt.Sprintf(msg, record.TileName, record.Row, record.Col)
	if e.pile.Len() == 0 && e.config.Messages.PileEmpty != "" {
		msg += ". " + e.config.Messages.PileEmpty
	}
	return msg
}

// reject records why a placement failed and returns err unchanged.
func (e *GameEngine) reject(err error) error {
	if errors.Is(err, ErrPileEmpty) {
		e.message = e.config.Messages.PileEmpty
		return err
	}
	prefix := e.config.Messages.Rejected
	if prefix == "" {
		prefix = "Can't place there!"
	}
	e.message = fmt.Sprintf("%s [%v]", prefix, err)
	return err
}
