package engine

import "fmt"

// Grid is the rectangle robots operate in, with (0,0) as the lower-left
// corner and (maxX,maxY) as the upper-right one. Bounds are inclusive.
type Grid struct {
	maxX int
	maxY int
}

// NewGrid creates a grid; both bounds must be non-negative
func NewGrid(maxX, maxY int) (*Grid, error) {
	if maxX < 0 || maxY < 0 {
		return nil, fmt.Errorf("%w: grid dimensions must be >= 0, got %dx%d", ErrInvalidValue, maxX, maxY)
	}
	return &Grid{maxX: maxX, maxY: maxY}, nil
}

// MaxX returns the inclusive upper x bound
func (g *Grid) MaxX() int {
	return g.maxX
}

// MaxY returns the inclusive upper y bound
func (g *Grid) MaxY() int {
	return g.maxY
}

// Inside reports whether p lies within the grid
func (g *Grid) Inside(p Position) bool {
	if g == nil {
		return false
	}
	return p.X >= 0 && p.Y >= 0 && p.X <= g.maxX && p.Y <= g.maxY
}

func (g *Grid) String() string {
	return fmt.Sprintf("%dx%d", g.maxX, g.maxY)
}
