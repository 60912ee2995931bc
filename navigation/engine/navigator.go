package engine

import "fmt"

// StepOutcome describes what a single instruction did to the robot
type StepOutcome string

const (
	OutcomeTurned      StepOutcome = "turned"
	OutcomeMoved       StepOutcome = "moved"
	OutcomeOutOfBounds StepOutcome = "out_of_bounds"
	OutcomeBlocked     StepOutcome = "blocked"
)

// Step is reported to observers after each instruction is processed
type Step struct {
	Index       int // 1-based position in the program
	Instruction Instruction
	From        Position
	To          Position
	Heading     Orientation // facing after the instruction
	Outcome     StepOutcome
}

// StepObserver receives every processed step. Observers cannot change motion.
type StepObserver func(Step)

// Option configures a Navigator
type Option func(*Navigator)

// WithStepObserver registers an observer for every processed instruction
func WithStepObserver(observer StepObserver) Option {
	return func(n *Navigator) {
		if observer != nil {
			n.observers = append(n.observers, observer)
		}
	}
}

// Navigator applies instruction programs to robots, delegating
// out-of-bounds handling to its policy.
type Navigator struct {
	policy    OutOfBoundsPolicy
	observers []StepObserver
}

// NewNavigator creates a navigator with the given out-of-bounds policy
func NewNavigator(policy OutOfBoundsPolicy, opts ...Option) (*Navigator, error) {
	if policy == nil {
		return nil, fmt.Errorf("%w: policy must not be nil", ErrMissingArgument)
	}

	n := &Navigator{policy: policy}
	for _, opt := range opts {
		opt(n)
	}
	return n, nil
}

// Policy returns the navigator's out-of-bounds policy
func (n *Navigator) Policy() OutOfBoundsPolicy {
	return n.policy
}

// Apply runs program against robot without occupancy tracking
func (n *Navigator) Apply(robot *Robot, program InstructionSequence) error {
	return n.ApplyShared(robot, program, nil, false)
}

// ApplyShared runs program against robot. When occupancy is not nil, moves
// into claimed cells are skipped, and with occupyFinal the robot's resting
// cell is claimed once the whole program has run.
func (n *Navigator) ApplyShared(robot *Robot, program InstructionSequence, occupancy Occupancy, occupyFinal bool) error {
	if robot == nil {
		return fmt.Errorf("%w: robot must not be nil", ErrMissingArgument)
	}

	for i, ins := range program.value {
		from := robot.Position()
		var outcome StepOutcome

		switch ins {
		case Left:
			robot.TurnLeft()
			outcome = OutcomeTurned
		case Right:
			robot.TurnRight()
			outcome = OutcomeTurned
		case Move:
			outcome = n.move(robot, occupancy)
		}

		n.notify(Step{
			Index:       i + 1,
			Instruction: ins,
			From:        from,
			To:          robot.Position(),
			Heading:     robot.Orientation(),
			Outcome:     outcome,
		})
	}

	if occupancy != nil && occupyFinal {
		occupancy.Occupy(robot.Position())
	}
	return nil
}

func (n *Navigator) move(robot *Robot, occupancy Occupancy) StepOutcome {
	next := robot.PeekNext()

	if !robot.Grid().Inside(next) {
		// the policy owns the outcome; it is not re-checked
		if shared, ok := n.policy.(SharedPolicy); ok && occupancy != nil {
			shared.HandleShared(robot, next, occupancy)
		} else {
			n.policy.Handle(robot, next)
		}
		return OutcomeOutOfBounds
	}

	if occupancy != nil && !occupancy.IsFree(next) {
		return OutcomeBlocked
	}

	robot.MoveTo(next)
	return OutcomeMoved
}

func (n *Navigator) notify(step Step) {
	for _, observe := range n.observers {
		observe(step)
	}
}
