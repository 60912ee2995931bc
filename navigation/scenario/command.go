package scenario

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidInput reports scenario input that could not be parsed
var ErrInvalidInput = errors.New("invalid scenario input")

// GridSize holds the inclusive upper bounds of a grid
type GridSize struct {
	MaxX int `json:"maxX"`
	MaxY int `json:"maxY"`
}

// RobotProgram is one robot's start state and instruction string
type RobotProgram struct {
	StartX       int    `json:"startX"`
	StartY       int    `json:"startY"`
	Orientation  rune   `json:"-"`
	Instructions string `json:"instructions"`
}

type programWire struct {
	StartX       int    `json:"startX"`
	StartY       int    `json:"startY"`
	Orientation  string `json:"orientation"`
	Instructions string `json:"instructions"`
}

// MarshalJSON renders the orientation as a one-letter string
func (p RobotProgram) MarshalJSON() ([]byte, error) {
	return json.Marshal(programWire{
		StartX:       p.StartX,
		StartY:       p.StartY,
		Orientation:  string(p.Orientation),
		Instructions: p.Instructions,
	})
}

// UnmarshalJSON accepts the form written by MarshalJSON
func (p *RobotProgram) UnmarshalJSON(data []byte) error {
	var w programWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	o, ok := normalizeOrientation(w.Orientation)
	if !ok {
		return fmt.Errorf("%w: invalid orientation %q", ErrInvalidInput, w.Orientation)
	}
	*p = RobotProgram{StartX: w.StartX, StartY: w.StartY, Orientation: o, Instructions: w.Instructions}
	return nil
}

// Command is a complete scenario ready to be processed.
// Nil Occupancy or OccupyFinal means "use the configured default".
type Command struct {
	Grid        GridSize       `json:"grid"`
	Programs    []RobotProgram `json:"programs"`
	Policy      string         `json:"policy,omitempty"`
	Occupancy   *bool          `json:"occupancy,omitempty"`
	OccupyFinal *bool          `json:"occupyFinal,omitempty"`
}

// FieldError describes a single invalid field
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError collects every field problem found in a request
type ValidationError struct {
	Details []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Details))
	for i, d := range e.Details {
		parts[i] = d.Field + ": " + d.Message
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) add(field, format string, args ...interface{}) {
	e.Details = append(e.Details, FieldError{Field: field, Message: fmt.Sprintf(format, args...)})
}

// RobotCount returns the number of robot programs
func (c Command) RobotCount() int {
	return len(c.Programs)
}
