// Package tile defines the fixed catalog of 24 standard tile types.
//
// Each tile type carries four edge features and one center feature. Corner
// features are derived on demand from the center and the two adjacent edges.
// The catalog is immutable and shared; tiles are referenced by ID.
package tile

import (
	"fmt"
	"strings"
)

// Feature is what a tile shows on one of its edges or at its center.
type Feature uint8

const (
	Grass Feature = iota
	Road
	Intersection
	City
	CityPennant
	Cloister
)

// Glyph returns the single character used when drawing a tile as text.
func (f Feature) Glyph() byte {
	switch f {
	case Road:
		return 'R'
	case Intersection:
		return 'X'
	case City:
		return 'C'
	case CityPennant:
		return '#'
	case Cloister:
		return '+'
	default:
		return 'O'
	}
}

func (f Feature) String() string {
	switch f {
	case Grass:
		return "grass"
	case Road:
		return "road"
	case Intersection:
		return "intersection"
	case City:
		return "city"
	case CityPennant:
		return "city_pennant"
	case Cloister:
		return "cloister"
	}
	return fmt.Sprintf("feature(%d)", uint8(f))
}

// isCity reports whether a center feature counts as a city for corner derivation.
func (f Feature) isCity() bool {
	return f == City || f == CityPennant
}

// Type is an immutable tile definition.
type Type struct {
	left, top, bottom, right, center Feature
}

func (t Type) Left() Feature   { return t.left }
func (t Type) Top() Feature    { return t.top }
func (t Type) Bottom() Feature { return t.bottom }
func (t Type) Right() Feature  { return t.right }
func (t Type) Center() Feature { return t.center }

// TopLeft shows city only when the center is a city and both the top and
// left edges are city.
func (t Type) TopLeft() Feature { return t.corner(t.top, t.left) }

func (t Type) TopRight() Feature    { return t.corner(t.top, t.right) }
func (t Type) BottomLeft() Feature  { return t.corner(t.bottom, t.left) }
func (t Type) BottomRight() Feature { return t.corner(t.bottom, t.right) }

func (t Type) corner(a, b Feature) Feature {
	if !t.center.isCity() {
		return Grass
	}
	if a == City && b == City {
		return City
	}
	return Grass
}

// Rotate returns the tile turned clockwise by r quarter turns.
func (t Type) Rotate(r Rotation) Type {
	out := t
	for i := 0; i < int(r.Normalize()); i++ {
		out = Type{
			left:   out.bottom,
			top:    out.left,
			right:  out.top,
			bottom: out.right,
			center: out.center,
		}
	}
	return out
}

// String draws the tile as a 3x3 block of glyphs.
func (t Type) String() string {
	var b strings.Builder
	rows := [3][3]Feature{
		{t.TopLeft(), t.top, t.TopRight()},
		{t.left, t.center, t.right},
		{t.BottomLeft(), t.bottom, t.BottomRight()},
	}
	for i, row := range rows {
		for _, f := range row {
			b.WriteByte(f.Glyph())
		}
		if i < len(rows)-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

// Rotation is a number of clockwise quarter turns, 0 through 3.
type Rotation uint8

// Valid reports whether r is one of the four quarter turns.
func (r Rotation) Valid() bool { return r < 4 }

// Normalize folds any value into 0..3.
func (r Rotation) Normalize() Rotation { return r % 4 }

// Compatible reports whether two touching edges may sit next to each other.
// Pennants count as city and intersections as road.
func Compatible(a, b Feature) bool {
	return edgeClass(a) == edgeClass(b)
}

func edgeClass(f Feature) Feature {
	switch f {
	case CityPennant:
		return City
	case Intersection:
		return Road
	}
	return f
}
