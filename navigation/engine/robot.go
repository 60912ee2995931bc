package engine

import "fmt"

// Robot holds the mutable navigation state of one robot. It does not
// interpret programs and performs no checks when moving; the Navigator
// decides whether a move is allowed.
type Robot struct {
	position    Position
	orientation Orientation
	grid        *Grid
}

// NewRobot places a robot on the grid. The start position must be inside it.
func NewRobot(start Position, orientation Orientation, grid *Grid) (*Robot, error) {
	if grid == nil {
		return nil, fmt.Errorf("%w: grid must not be nil", ErrMissingArgument)
	}
	if !orientation.Valid() {
		return nil, fmt.Errorf("%w: orientation %d", ErrInvalidValue, uint8(orientation))
	}
	if !grid.Inside(start) {
		return nil, fmt.Errorf("%w: initial position %s is outside the grid %s", ErrDomainRule, start, grid)
	}

	return &Robot{
		position:    start,
		orientation: orientation,
		grid:        grid,
	}, nil
}

// TurnLeft rotates the robot 90° counter-clockwise
func (r *Robot) TurnLeft() {
	r.orientation = r.orientation.TurnLeft()
}

// TurnRight rotates the robot 90° clockwise
func (r *Robot) TurnRight() {
	r.orientation = r.orientation.TurnRight()
}

// PeekNext returns the position one step forward without moving
func (r *Robot) PeekNext() Position {
	return r.position.Move(r.orientation)
}

// MoveTo overwrites the current position
func (r *Robot) MoveTo(next Position) {
	r.position = next
}

// Position returns the current position
func (r *Robot) Position() Position {
	return r.position
}

// Orientation returns the current facing
func (r *Robot) Orientation() Orientation {
	return r.orientation
}

// Grid returns the grid the robot was placed on
func (r *Robot) Grid() *Grid {
	return r.grid
}

// String renders the robot as "x y O"
func (r *Robot) String() string {
	return fmt.Sprintf("%d %d %c", r.position.X, r.position.Y, r.orientation.Char())
}
