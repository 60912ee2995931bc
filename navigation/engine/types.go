package engine

import (
	"fmt"
	"unicode"
)

// Position represents x,y coordinates on the grid
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Move returns the position one step ahead in the given orientation
func (p Position) Move(o Orientation) Position {
	v := o.Vector()
	return Position{X: p.X + v.DX, Y: p.Y + v.DY}
}

func (p Position) String() string {
	return fmt.Sprintf("(%d,%d)", p.X, p.Y)
}

// Vector is a unit movement delta
type Vector struct {
	DX int
	DY int
}

// Orientation is one of the four cardinal facings
type Orientation uint8

const (
	North Orientation = iota
	East
	South
	West

	orientationCount = 4
)

var (
	orientationVectors = [orientationCount]Vector{
		North: {DX: 0, DY: 1},
		East:  {DX: 1, DY: 0},
		South: {DX: 0, DY: -1},
		West:  {DX: -1, DY: 0},
	}
	orientationChars = [orientationCount]rune{North: 'N', East: 'E', South: 'S', West: 'W'}
	orientationNames = [orientationCount]string{North: "North", East: "East", South: "South", West: "West"}
)

// ParseOrientation converts N, E, S or W (any case) into an Orientation
func ParseOrientation(c rune) (Orientation, error) {
	switch unicode.ToUpper(c) {
	case 'N':
		return North, nil
	case 'E':
		return East, nil
	case 'S':
		return South, nil
	case 'W':
		return West, nil
	}
	return 0, fmt.Errorf("%w: invalid orientation %q", ErrInvalidValue, c)
}

// Valid reports whether o is one of the four cardinal orientations
func (o Orientation) Valid() bool {
	return o < orientationCount
}

// TurnRight returns the orientation after a 90° clockwise turn
func (o Orientation) TurnRight() Orientation {
	return (o + 1) % orientationCount
}

// TurnLeft returns the orientation after a 90° counter-clockwise turn
func (o Orientation) TurnLeft() Orientation {
	return (o + orientationCount - 1) % orientationCount
}

// Vector returns the unit movement delta; invalid orientations have none.
func (o Orientation) Vector() Vector {
	if !o.Valid() {
		return Vector{}
	}
	return orientationVectors[o]
}

// Char returns the single-letter form (N, E, S, W)
func (o Orientation) Char() rune {
	if !o.Valid() {
		return '?'
	}
	return orientationChars[o]
}

func (o Orientation) String() string {
	if !o.Valid() {
		return fmt.Sprintf("Orientation(%d)", uint8(o))
	}
	return orientationNames[o]
}

// MarshalText encodes the orientation as its single letter
func (o Orientation) MarshalText() ([]byte, error) {
	if !o.Valid() {
		return nil, fmt.Errorf("%w: orientation %d", ErrInvalidValue, uint8(o))
	}
	return []byte(string(o.Char())), nil
}

// UnmarshalText decodes a single orientation letter
func (o *Orientation) UnmarshalText(text []byte) error {
	s := []rune(string(text))
	if len(s) != 1 {
		return fmt.Errorf("%w: invalid orientation %q", ErrInvalidValue, string(text))
	}
	parsed, err := ParseOrientation(s[0])
	if err != nil {
		return err
	}
	*o = parsed
	return nil
}
