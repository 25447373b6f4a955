// Package pile implements the shuffled draw pile.
//
// The pile is a multiset of tile types expanded from a per-type count table
// and shuffled once with a caller-supplied random source. Tiles are always
// consumed from the same end, so Peek and Draw observe the same element.
package pile

import (
	"math/rand"

	"github.com/wricardo/carcassonne/game/tile"
)

// Pile holds the tiles left to draw. The last element is drawn next.
type Pile struct {
	tiles []tile.ID
}

// New expands counts into one entry per physical tile and shuffles them with
// rng. The counts table is not modified.
func New(counts [tile.NumTypes]int, rng *rand.Rand) *Pile {
	total := 0
	for _, n := range counts {
		total += n
	}

	tiles := make([]tile.ID, 0, total)
	for id, n := range counts {
		for i := 0; i < n; i++ {
			tiles = append(tiles, tile.ID(id))
		}
	}

	// rand.Shuffle is a Fisher-Yates shuffle.
	rng.Shuffle(len(tiles), func(i, j int) { tiles[i], tiles[j] = tiles[j], tiles[i] })

	return &Pile{tiles: tiles}
}

// FromTiles builds a pile with a fixed order, last element drawn first.
func FromTiles(tiles []tile.ID) *Pile {
	out := make([]tile.ID, len(tiles))
	copy(out, tiles)
	return &Pile{tiles: out}
}

// Len returns the number of tiles left.
func (p *Pile) Len() int {
	return len(p.tiles)
}

// Peek returns the tile that Draw would return, without consuming it.
func (p *Pile) Peek() (tile.ID, bool) {
	if len(p.tiles) == 0 {
		return 0, false
	}
	return p.tiles[len(p.tiles)-1], true
}

// Draw removes and returns the next tile.
func (p *Pile) Draw() (tile.ID, bool) {
	id, ok := p.Peek()
	if !ok {
		return 0, false
	}
	p.tiles = p.tiles[:len(p.tiles)-1]
	return id, true
}

// Remove takes the copy of id closest to the drawing end out of the pile,
// keeping the order of everything else. It reports whether one was found.
func (p *Pile) Remove(id tile.ID) bool {
	for i := len(p.tiles) - 1; i >= 0; i-- {
		if p.tiles[i] == id {
			p.tiles = append(p.tiles[:i], p.tiles[i+1:]...)
			return true
		}
	}
	return false
}

// Counts tallies the tiles left per type.
func (p *Pile) Counts() [tile.NumTypes]int {
	var counts [tile.NumTypes]int
	for _, id := range p.tiles {
		counts[id]++
	}
	return counts
}

// Tiles returns a copy of the pile in storage order, last element drawn first.
func (p *Pile) Tiles() []tile.ID {
	out := make([]tile.ID, len(p.tiles))
	copy(out, p.tiles)
	return out
}
