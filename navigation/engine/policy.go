package engine

import (
	"fmt"
	"sort"
	"strings"
)

// OutOfBoundsPolicy decides what happens when a forward move targets a cell
// outside the robot's grid.
type OutOfBoundsPolicy interface {
	Handle(r *Robot, next Position)
}

// SharedPolicy is implemented by policies that can relocate a robot to
// another in-grid cell. When robots share an occupancy the navigator calls
// HandleShared instead of Handle, and the policy must not land on a claimed cell.
type SharedPolicy interface {
	OutOfBoundsPolicy
	HandleShared(r *Robot, next Position, occupancy Occupancy)
}

// PolicyFunc adapts a plain function to OutOfBoundsPolicy
type PolicyFunc func(r *Robot, next Position)

// Handle calls f(r, next)
func (f PolicyFunc) Handle(r *Robot, next Position) {
	f(r, next)
}

// IgnorePolicy drops a move that would leave the grid
type IgnorePolicy struct{}

// Handle moves only when next is inside the grid
func (IgnorePolicy) Handle(r *Robot, next Position) {
	if r.Grid().Inside(next) {
		r.MoveTo(next)
	}
}

// WrapPolicy re-enters the grid from the opposite edge
type WrapPolicy struct{}

// Handle moves the robot to next wrapped onto the grid
func (WrapPolicy) Handle(r *Robot, next Position) {
	r.MoveTo(wrapped(r.Grid(), next))
}

// HandleShared wraps like Handle but leaves the robot in place when the
// wrapped cell is already claimed
func (WrapPolicy) HandleShared(r *Robot, next Position, occupancy Occupancy) {
	target := wrapped(r.Grid(), next)
	if occupancy != nil && !occupancy.IsFree(target) {
		return
	}
	r.MoveTo(target)
}

func wrapped(g *Grid, p Position) Position {
	return Position{
		X: wrap(p.X, g.MaxX()+1),
		Y: wrap(p.Y, g.MaxY()+1),
	}
}

func wrap(v, size int) int {
	v %= size
	if v < 0 {
		v += size
	}
	return v
}

// BouncePolicy keeps the robot in place and turns it around
type BouncePolicy struct{}

// Handle leaves the position unchanged and flips the facing
func (BouncePolicy) Handle(r *Robot, next Position) {
	if r.Grid().Inside(next) {
		r.MoveTo(next)
		return
	}
	r.TurnRight()
	r.TurnRight()
}

const (
	PolicyIgnore = "ignore"
	PolicyWrap   = "wrap"
	PolicyBounce = "bounce"
)

var policies = map[string]OutOfBoundsPolicy{
	PolicyIgnore: IgnorePolicy{},
	PolicyWrap:   WrapPolicy{},
	PolicyBounce: BouncePolicy{},
}

// PolicyByName resolves a policy name; an empty name selects ignore
func PolicyByName(name string) (OutOfBoundsPolicy, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		key = PolicyIgnore
	}
	p, ok := policies[key]
	if !ok {
		return nil, fmt.Errorf("%w: unknown out-of-bounds policy %q (available: %s)",
			ErrInvalidValue, name, strings.Join(PolicyNames(), ", "))
	}
	return p, nil
}

// PolicyNames lists the registered policy names in sorted order
func PolicyNames() []string {
	names := make([]string, 0, len(policies))
	for name := range policies {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
