// Package board implements the auto-expanding placement grid.
//
// Cells live in a sparse arena keyed by stable world coordinates. The board
// tracks its extent (the bounding rectangle of placed tiles plus one ring of
// empty or eligible cells) and grows by moving an extent bound whenever a
// tile lands on the outer ring. Growth never copies rows or columns.
//
// Callers address cells either by world Coord or by a linear row-major index
// over the current extent. Linear indices and extent-relative (row, col)
// positions shift when the extent grows up or left; world coordinates never do.
package board

import (
	"errors"
	"strings"

	"github.com/wricardo/carcassonne/game/tile"
)

var (
	ErrOutOfBounds  = errors.New("position outside the board")
	ErrOccupied     = errors.New("cell already holds a tile")
	ErrNotEligible  = errors.New("cell is not adjacent to any placed tile")
	ErrInvalidState = errors.New("invalid board layout")
)

// State tags what a cell holds.
type State uint8

const (
	Empty State = iota
	Eligible
	Placed
)

func (s State) String() string {
	switch s {
	case Eligible:
		return "eligible"
	case Placed:
		return "placed"
	default:
		return "empty"
	}
}

// Cell is one board position. Tile and Rotation are meaningful only when
// State is Placed.
type Cell struct {
	State    State         `json:"state"`
	Tile     tile.ID       `json:"tile,omitempty"`
	Rotation tile.Rotation `json:"rotation,omitempty"`
}

// Coord is a stable world coordinate. The start tile sits at (0, 0).
type Coord struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// Growth records which sides of the extent moved during a placement.
type Growth struct {
	Top    bool `json:"top,omitempty"`
	Bottom bool `json:"bottom,omitempty"`
	Left   bool `json:"left,omitempty"`
	Right  bool `json:"right,omitempty"`
}

// Rows returns how many rows were added.
func (g Growth) Rows() int { return btoi(g.Top) + btoi(g.Bottom) }

// Cols returns how many columns were added.
func (g Growth) Cols() int { return btoi(g.Left) + btoi(g.Right) }

func btoi(b bool) int {
	if b {
		return 1
	}
	return 0
}

// Board is the placement grid. It is not safe for concurrent use.
type Board struct {
	cells                          map[Coord]Cell
	minRow, maxRow, minCol, maxCol int
}

// NewStandard returns the 3x3 opening board: the start tile at the center,
// its four orthogonal neighbors eligible and the diagonal corners empty.
func NewStandard(start tile.ID, rotation tile.Rotation) *Board {
	b := &Board{
		cells:  make(map[Coord]Cell),
		minRow: -1, maxRow: 1,
		minCol: -1, maxCol: 1,
	}
	b.cells[Coord{}] = Cell{State: Placed, Tile: start, Rotation: rotation}
	b.Rescan()
	return b
}

// Width returns the number of columns in the extent.
func (b *Board) Width() int { return b.maxCol - b.minCol + 1 }

// Height returns the number of rows in the extent.
func (b *Board) Height() int { return b.maxRow - b.minRow + 1 }

// Origin returns the world coordinate of the extent's top-left cell.
func (b *Board) Origin() Coord { return Coord{Row: b.minRow, Col: b.minCol} }

// Contains reports whether c lies inside the current extent.
func (b *Board) Contains(c Coord) bool {
	return c.Row >= b.minRow && c.Row <= b.maxRow && c.Col >= b.minCol && c.Col <= b.maxCol
}

// Coord converts a row-major linear index over the current extent.
func (b *Board) Coord(index int) (Coord, bool) {
	if index < 0 || index >= b.Width()*b.Height() {
		return Coord{}, false
	}
	return b.CoordAt(index/b.Width(), index%b.Width())
}

// CoordAt converts an extent-relative (row, col) position.
func (b *Board) CoordAt(row, col int) (Coord, bool) {
	if row < 0 || row >= b.Height() || col < 0 || col >= b.Width() {
		return Coord{}, false
	}
	return Coord{Row: b.minRow + row, Col: b.minCol + col}, true
}

// Position converts a world coordinate to an extent-relative (row, col).
func (b *Board) Position(c Coord) (row, col int) {
	return c.Row - b.minRow, c.Col - b.minCol
}

// Index converts a world coordinate to a linear index, or -1 if outside.
func (b *Board) Index(c Coord) int {
	if !b.Contains(c) {
		return -1
	}
	row, col := b.Position(c)
	return row*b.Width() + col
}

// At returns the cell at c. Anything outside the extent reads as Empty.
func (b *Board) At(c Coord) Cell {
	return b.cells[c]
}

// Place writes a tile into an eligible cell, grows the extent when the cell
// sits on the outer ring and refreshes eligibility. The board is unchanged
// when an error is returned.
func (b *Board) Place(c Coord, id tile.ID, rotation tile.Rotation) (Growth, error) {
	if !b.Contains(c) {
		return Growth{}, ErrOutOfBounds
	}
	switch b.At(c).State {
	case Placed:
		return Growth{}, ErrOccupied
	case Empty:
		return Growth{}, ErrNotEligible
	}

	var g Growth
	if c.Row == b.minRow {
		b.minRow--
		g.Top = true
	}
	if c.Row == b.maxRow {
		b.maxRow++
		g.Bottom = true
	}
	if c.Col == b.minCol {
		b.minCol--
		g.Left = true
	}
	if c.Col == b.maxCol {
		b.maxCol++
		g.Right = true
	}

	b.cells[c] = Cell{State: Placed, Tile: id, Rotation: rotation}
	b.Rescan()
	return g, nil
}

// Rescan recomputes the eligible flag of every unoccupied cell in the extent:
// a cell is eligible exactly when an orthogonal neighbor holds a tile.
func (b *Board) Rescan() {
	for r := b.minRow; r <= b.maxRow; r++ {
		for c := b.minCol; c <= b.maxCol; c++ {
			at := Coord{Row: r, Col: c}
			if b.cells[at].State == Placed {
				continue
			}
			if b.touchesTile(at) {
				b.cells[at] = Cell{State: Eligible}
			} else {
				delete(b.cells, at)
			}
		}
	}
}

// touchesTile checks the in-extent orthogonal neighbors of c.
func (b *Board) touchesTile(c Coord) bool {
	for _, n := range Neighbors(c) {
		if b.Contains(n) && b.cells[n].State == Placed {
			return true
		}
	}
	return false
}

// Neighbors returns the four orthogonal neighbors of c: up, right, down, left.
func Neighbors(c Coord) [4]Coord {
	return [4]Coord{
		{Row: c.Row - 1, Col: c.Col},
		{Row: c.Row, Col: c.Col + 1},
		{Row: c.Row + 1, Col: c.Col},
		{Row: c.Row, Col: c.Col - 1},
	}
}

// Cells flattens the extent row-major.
func (b *Board) Cells() []Cell {
	out := make([]Cell, 0, b.Width()*b.Height())
	for r := b.minRow; r <= b.maxRow; r++ {
		for c := b.minCol; c <= b.maxCol; c++ {
			out = append(out, b.cells[Coord{Row: r, Col: c}])
		}
	}
	return out
}

// EligibleCoords lists eligible cells in row-major order.
func (b *Board) EligibleCoords() []Coord {
	var out []Coord
	for r := b.minRow; r <= b.maxRow; r++ {
		for c := b.minCol; c <= b.maxCol; c++ {
			at := Coord{Row: r, Col: c}
			if b.cells[at].State == Eligible {
				out = append(out, at)
			}
		}
	}
	return out
}

// PlacedCount returns how many tiles are on the board.
func (b *Board) PlacedCount() int {
	n := 0
	for _, cell := range b.cells {
		if cell.State == Placed {
			n++
		}
	}
	return n
}

// Restore rebuilds a board from a row-major snapshot whose top-left cell is
// at origin. Only placed cells are read; eligibility is recomputed. Placed
// tiles must keep the one-cell ring free.
func Restore(origin Coord, width, height int, cells []Cell) (*Board, error) {
	if width < 3 || height < 3 || len(cells) != width*height {
		return nil, ErrInvalidState
	}

	b := &Board{
		cells:  make(map[Coord]Cell),
		minRow: origin.Row, maxRow: origin.Row + height - 1,
		minCol: origin.Col, maxCol: origin.Col + width - 1,
	}
	for i, cell := range cells {
		if cell.State != Placed {
			continue
		}
		row, col := i/width, i%width
		if row == 0 || row == height-1 || col == 0 || col == width-1 {
			return nil, ErrInvalidState
		}
		if !cell.Tile.Valid() || !cell.Rotation.Valid() {
			return nil, ErrInvalidState
		}
		b.cells[Coord{Row: origin.Row + row, Col: origin.Col + col}] = cell
	}
	if b.PlacedCount() == 0 {
		return nil, ErrInvalidState
	}
	b.Rescan()
	return b, nil
}

// String draws the extent with deck letters for tiles, '*' for eligible
// cells and '.' for empty ones.
func (b *Board) String() string {
	var sb strings.Builder
	for r := b.minRow; r <= b.maxRow; r++ {
		for c := b.minCol; c <= b.maxCol; c++ {
			cell := b.cells[Coord{Row: r, Col: c}]
			switch cell.State {
			case Placed:
				sb.WriteString(cell.Tile.String())
			case Eligible:
				sb.WriteByte('*')
			default:
				sb.WriteByte('.')
			}
		}
		if r < b.maxRow {
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}
