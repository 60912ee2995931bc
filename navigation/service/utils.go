package service

import (
	"fmt"

	"github.com/wricardo/mcp-training/robotnav/navigation/engine"
	"github.com/wricardo/mcp-training/robotnav/navigation/scenario"
)

// buildRobot re-validates one program against the engine's own rules
func buildRobot(p scenario.RobotProgram, grid *engine.Grid) (*engine.Robot, engine.InstructionSequence, error) {
	orientation, err := engine.ParseOrientation(p.Orientation)
	if err != nil {
		return nil, engine.InstructionSequence{}, err
	}

	program, err := engine.ParseInstructions(p.Instructions)
	if err != nil {
		return nil, engine.InstructionSequence{}, err
	}

	robot, err := engine.NewRobot(engine.Position{X: p.StartX, Y: p.StartY}, orientation, grid)
	if err != nil {
		return nil, engine.InstructionSequence{}, err
	}
	return robot, program, nil
}

func stateOf(r *engine.Robot) FinalState {
	pos := r.Position()
	return FinalState{X: pos.X, Y: pos.Y, Orientation: string(r.Orientation().Char())}
}

func newStepInfo(st engine.Step) StepInfo {
	return StepInfo{
		Idx:         st.Index,
		Instruction: st.Instruction.String(),
		From:        st.From,
		To:          st.To,
		Heading:     st.Heading,
		Outcome:     string(st.Outcome),
	}
}

func (s *Summary) add(st engine.Step) {
	s.Instructions++
	switch st.Outcome {
	case engine.OutcomeTurned:
		s.Turns++
	case engine.OutcomeMoved:
		s.Moves++
	case engine.OutcomeBlocked:
		s.Blocked++
	case engine.OutcomeOutOfBounds:
		s.OutOfBounds++
	}
}

func formatState(x, y int, orientation string) string {
	return fmt.Sprintf("%d %d %s", x, y, orientation)
}
