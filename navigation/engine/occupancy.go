package engine

import "sort"

// Occupancy tracks cells claimed by robots of the same scenario.
// Claims are never released.
type Occupancy interface {
	IsFree(p Position) bool
	Occupy(p Position)
}

// SetOccupancy is a map-backed Occupancy. It is not safe for concurrent use;
// robots sharing one are processed sequentially. A nil *SetOccupancy has
// every cell free and ignores claims.
type SetOccupancy struct {
	occupied map[Position]struct{}
}

// NewSetOccupancy creates an occupancy with the given cells already claimed
func NewSetOccupancy(initial ...Position) *SetOccupancy {
	o := &SetOccupancy{occupied: make(map[Position]struct{}, len(initial))}
	for _, p := range initial {
		o.occupied[p] = struct{}{}
	}
	return o
}

// IsFree reports whether p is unclaimed
func (o *SetOccupancy) IsFree(p Position) bool {
	if o == nil {
		return true
	}
	_, taken := o.occupied[p]
	return !taken
}

// Occupy claims p
func (o *SetOccupancy) Occupy(p Position) {
	if o == nil {
		return
	}
	if o.occupied == nil {
		o.occupied = make(map[Position]struct{})
	}
	o.occupied[p] = struct{}{}
}

// Claimed returns the claimed cells ordered by x, then y
func (o *SetOccupancy) Claimed() []Position {
	if o == nil {
		return []Position{}
	}
	out := make([]Position, 0, len(o.occupied))
	for p := range o.occupied {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].X != out[j].X {
			return out[i].X < out[j].X
		}
		return out[i].Y < out[j].Y
	})
	return out
}

// Len returns the number of claimed cells
func (o *SetOccupancy) Len() int {
	if o == nil {
		return 0
	}
	return len(o.occupied)
}
