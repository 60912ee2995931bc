package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIgnorePolicy(t *testing.T) {
	g := mustGrid(t, 1, 1)
	r := mustRobot(t, g, 1, 1, North)

	IgnorePolicy{}.Handle(r, r.PeekNext())
	assert.Equal(t, Position{X: 1, Y: 1}, r.Position())
	assert.Equal(t, North, r.Orientation())

	r.TurnLeft()
	IgnorePolicy{}.Handle(r, r.PeekNext())
	assert.Equal(t, Position{X: 0, Y: 1}, r.Position(), "an in-grid target is accepted")
}

func TestWrapPolicy(t *testing.T) {
	g := mustGrid(t, 4, 2)

	tests := []struct {
		name  string
		start Position
		face  Orientation
		want  Position
	}{
		{"north edge", Position{X: 2, Y: 2}, North, Position{X: 2, Y: 0}},
		{"south edge", Position{X: 3, Y: 0}, South, Position{X: 3, Y: 2}},
		{"east edge", Position{X: 4, Y: 1}, East, Position{X: 0, Y: 1}},
		{"west edge", Position{X: 0, Y: 1}, West, Position{X: 4, Y: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := mustRobot(t, g, tt.start.X, tt.start.Y, tt.face)
			WrapPolicy{}.Handle(r, r.PeekNext())
			assert.Equal(t, tt.want, r.Position())
			assert.Equal(t, tt.face, r.Orientation())
		})
	}
}

func TestWrapPolicy_HandleShared(t *testing.T) {
	var _ SharedPolicy = WrapPolicy{}
	g := mustGrid(t, 2, 2)

	r := mustRobot(t, g, 1, 2, North)
	WrapPolicy{}.HandleShared(r, r.PeekNext(), NewSetOccupancy(Position{X: 1, Y: 0}))
	assert.Equal(t, Position{X: 1, Y: 2}, r.Position())

	WrapPolicy{}.HandleShared(r, r.PeekNext(), NewSetOccupancy())
	assert.Equal(t, Position{X: 1, Y: 0}, r.Position())
}

func TestBouncePolicy(t *testing.T) {
	g := mustGrid(t, 3, 3)
	r := mustRobot(t, g, 0, 3, North)

	BouncePolicy{}.Handle(r, r.PeekNext())
	assert.Equal(t, Position{X: 0, Y: 3}, r.Position())
	assert.Equal(t, South, r.Orientation())
}

func TestPolicyByName(t *testing.T) {
	tests := map[string]OutOfBoundsPolicy{
		"":       IgnorePolicy{},
		"ignore": IgnorePolicy{},
		" Wrap ": WrapPolicy{},
		"BOUNCE": BouncePolicy{},
	}
	for name, want := range tests {
		got, err := PolicyByName(name)
		require.NoError(t, err, "name %q", name)
		assert.Equal(t, want, got, "name %q", name)
	}

	_, err := PolicyByName("teleport")
	require.ErrorIs(t, err, ErrInvalidValue)
	assert.Contains(t, err.Error(), "bounce, ignore, wrap")

	assert.Equal(t, []string{"bounce", "ignore", "wrap"}, PolicyNames())
}

func TestPolicyFunc(t *testing.T) {
	g := mustGrid(t, 1, 1)
	r := mustRobot(t, g, 0, 0, South)

	var seen Position
	var p OutOfBoundsPolicy = PolicyFunc(func(_ *Robot, next Position) { seen = next })
	p.Handle(r, r.PeekNext())
	assert.Equal(t, Position{X: 0, Y: -1}, seen)
}
