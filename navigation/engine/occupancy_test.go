package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSetOccupancy(t *testing.T) {
	occ := NewSetOccupancy(Position{X: 2, Y: 2})
	assert.False(t, occ.IsFree(Position{X: 2, Y: 2}))
	assert.True(t, occ.IsFree(Position{X: 1, Y: 2}))

	occ.Occupy(Position{X: 0, Y: 4})
	occ.Occupy(Position{X: 0, Y: 4})
	occ.Occupy(Position{X: 0, Y: 1})
	assert.Equal(t, 3, occ.Len(), "Occupy is idempotent")

	assert.Equal(t, []Position{{X: 0, Y: 1}, {X: 0, Y: 4}, {X: 2, Y: 2}}, occ.Claimed())
}

func TestSetOccupancy_ZeroValue(t *testing.T) {
	var occ SetOccupancy
	assert.True(t, occ.IsFree(Position{}))
	occ.Occupy(Position{})
	assert.False(t, occ.IsFree(Position{}))
	assert.Equal(t, 1, occ.Len())
}

func TestSetOccupancy_NilReceiver(t *testing.T) {
	var occ *SetOccupancy
	assert.True(t, occ.IsFree(Position{X: 1, Y: 1}))
	occ.Occupy(Position{X: 1, Y: 1})
	assert.True(t, occ.IsFree(Position{X: 1, Y: 1}))
	assert.Equal(t, 0, occ.Len())
	assert.Empty(t, occ.Claimed())
}
