package tile

import "fmt"

// ID indexes a tile type in the standard catalog.
type ID uint8

// Catalog indices follow the order of the standard deck.
const (
	A ID = iota
	B
	C
	D
	E
	F
	G
	H
	I
	J
	K
	L
	M
	N
	O
	P
	Q
	R
	S
	T
	U
	V
	W
	X
)

// NumTypes is the size of the catalog.
const NumTypes = 24

var catalog = [NumTypes]Type{
	{Grass, Grass, Grass, Road, Cloister},
	{Grass, Grass, Grass, Grass, Cloister},
	{City, City, City, City, CityPennant},
	{Road, City, Road, Grass, Road},
	{Grass, City, Grass, Grass, Grass},
	{City, Grass, City, Grass, CityPennant},
	{City, Grass, City, Grass, City},
	{City, Grass, City, Grass, Grass},
	{Grass, City, City, Grass, Grass},
	{Grass, City, Road, Road, Road},
	{Road, City, Grass, Road, Road},
	{Road, City, Road, Road, Intersection},
	{Grass, City, City, Grass, CityPennant},
	{Grass, City, City, Grass, City},
	{City, City, Road, Road, CityPennant},
	{City, City, Road, Road, City},
	{City, City, City, Grass, CityPennant},
	{City, City, City, Grass, City},
	{City, City, City, Road, CityPennant},
	{City, City, City, Road, City},
	{Grass, Road, Grass, Road, Road},
	{Road, Grass, Grass, Road, Road},
	{Road, Grass, Road, Road, Intersection},
	{Road, Road, Road, Road, Intersection},
}

// StandardCounts is the number of physical tiles of each type in the
// standard 72-tile deck, including the start tile.
var StandardCounts = [NumTypes]int{
	2, 4, 1, 4, 5, 2, 1, 3, 2, 3, 3, 3, 2, 3, 2, 3, 1, 3, 2, 1, 8, 9, 4, 1,
}

// StartTile is placed face up at the center before the first draw.
const StartTile = D

// Lookup returns the definition of tile type id. An id outside the catalog
// is a programming error and panics.
func Lookup(id ID) Type {
	return catalog[id]
}

// Valid reports whether id names a catalog entry.
func (id ID) Valid() bool {
	return id < NumTypes
}

// String returns the deck letter of the tile type.
func (id ID) String() string {
	if !id.Valid() {
		return fmt.Sprintf("tile(%d)", uint8(id))
	}
	return string(rune('A' + id))
}

// ParseID converts a deck letter back into an ID.
func ParseID(s string) (ID, error) {
	if len(s) != 1 || s[0] < 'A' || s[0] >= 'A'+NumTypes {
		return 0, fmt.Errorf("unknown tile %q", s)
	}
	return ID(s[0] - 'A'), nil
}

// MarshalText encodes the id as its deck letter.
func (id ID) MarshalText() ([]byte, error) {
	if !id.Valid() {
		return nil, fmt.Errorf("unknown tile %d", uint8(id))
	}
	return []byte(id.String()), nil
}

// UnmarshalText decodes a deck letter.
func (id *ID) UnmarshalText(text []byte) error {
	parsed, err := ParseID(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}
