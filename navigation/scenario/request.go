package scenario

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"unicode"
)

// Request is the JSON body accepted by the execute endpoint.
// Pointer fields distinguish "absent" from zero.
type Request struct {
	MaxX        *int             `json:"maxX"`
	MaxY        *int             `json:"maxY"`
	Programs    []ProgramRequest `json:"programs"`
	Policy      string           `json:"policy,omitempty"`
	Occupancy   *bool            `json:"occupancy,omitempty"`
	OccupyFinal *bool            `json:"occupyFinal,omitempty"`
}

// ProgramRequest is one entry of Request.Programs
type ProgramRequest struct {
	StartX       *int    `json:"startX"`
	StartY       *int    `json:"startY"`
	Orientation  string  `json:"orientation"`
	Instructions *string `json:"instructions"`
}

// DecodeRequest strictly decodes a JSON request; unknown fields are rejected
func DecodeRequest(r io.Reader) (*Request, error) {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()

	var req Request
	if err := dec.Decode(&req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return &req, nil
}

// ToCommand validates the request and converts it to a Command.
// Instructions and orientation are upper-cased.
func (r *Request) ToCommand() (Command, error) {
	verr := &ValidationError{}

	checkBound := func(field string, v *int) int {
		if v == nil {
			verr.add(field, "is required")
			return 0
		}
		if *v < 0 {
			verr.add(field, "must be greater than or equal to 0")
		}
		return *v
	}

	cmd := Command{
		Grid: GridSize{
			MaxX: checkBound("maxX", r.MaxX),
			MaxY: checkBound("maxY", r.MaxY),
		},
		Policy:      r.Policy,
		Occupancy:   r.Occupancy,
		OccupyFinal: r.OccupyFinal,
	}

	if len(r.Programs) == 0 {
		verr.add("programs", "must contain at least one program")
	}

	for i, p := range r.Programs {
		prefix := fmt.Sprintf("programs[%d].", i)
		prog := RobotProgram{
			StartX: checkBound(prefix+"startX", p.StartX),
			StartY: checkBound(prefix+"startY", p.StartY),
		}

		if o, ok := normalizeOrientation(p.Orientation); ok {
			prog.Orientation = o
		} else {
			verr.add(prefix+"orientation", "must be one of N, E, S, W")
		}

		switch {
		case p.Instructions == nil:
			verr.add(prefix+"instructions", "is required")
		case !validInstructions(*p.Instructions):
			verr.add(prefix+"instructions", "must contain only L, R or M")
		default:
			prog.Instructions = strings.ToUpper(*p.Instructions)
		}

		cmd.Programs = append(cmd.Programs, prog)
	}

	if len(verr.Details) > 0 {
		return Command{}, verr
	}
	return cmd, nil
}

// NewRequest builds the JSON request equivalent of cmd
func NewRequest(cmd Command) *Request {
	maxX, maxY := cmd.Grid.MaxX, cmd.Grid.MaxY
	req := &Request{
		MaxX:        &maxX,
		MaxY:        &maxY,
		Policy:      cmd.Policy,
		Occupancy:   cmd.Occupancy,
		OccupyFinal: cmd.OccupyFinal,
	}
	for _, p := range cmd.Programs {
		x, y, ins := p.StartX, p.StartY, p.Instructions
		req.Programs = append(req.Programs, ProgramRequest{
			StartX:       &x,
			StartY:       &y,
			Orientation:  string(p.Orientation),
			Instructions: &ins,
		})
	}
	return req
}

func normalizeOrientation(s string) (rune, bool) {
	s = strings.TrimSpace(s)
	if len(s) != 1 {
		return 0, false
	}
	r := unicode.ToUpper(rune(s[0]))
	if !strings.ContainsRune("NESW", r) {
		return 0, false
	}
	return r, true
}

// validInstructions allows the empty program; a robot may simply stay put
func validInstructions(s string) bool {
	for _, c := range s {
		switch unicode.ToUpper(c) {
		case 'L', 'R', 'M':
		default:
			return false
		}
	}
	return true
}
