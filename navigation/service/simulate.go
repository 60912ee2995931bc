package service

import (
	"context"
	"fmt"

	"github.com/wricardo/mcp-training/robotnav/navigation/engine"
	"github.com/wricardo/mcp-training/robotnav/navigation/scenario"
)

// Settings are the navigation settings a command runs with once defaults
// have been applied
type Settings struct {
	Policy      string
	Occupancy   bool
	OccupyFinal bool
}

// Resolve fills every setting cmd leaves unset from d
func (d Defaults) Resolve(cmd scenario.Command) Settings {
	s := Settings{
		Policy:      cmd.Policy,
		Occupancy:   d.Occupancy,
		OccupyFinal: d.OccupyFinal,
	}
	if s.Policy == "" {
		s.Policy = d.Policy
	}
	if s.Policy == "" {
		s.Policy = engine.PolicyIgnore
	}
	if cmd.Occupancy != nil {
		s.Occupancy = *cmd.Occupancy
	}
	if cmd.OccupyFinal != nil {
		s.OccupyFinal = *cmd.OccupyFinal
	}
	return s
}

// Simulate drives the robots of cmd sequentially without recording a run.
// With occupancy enabled all robots share one occupancy set, so earlier
// robots block later ones. Observers see every processed instruction.
// The first failing robot aborts the scenario.
func Simulate(ctx context.Context, cmd scenario.Command, settings Settings, trace bool, observers ...engine.StepObserver) (*Result, error) {
	policy, err := engine.PolicyByName(settings.Policy)
	if err != nil {
		return nil, err
	}

	grid, err := engine.NewGrid(cmd.Grid.MaxX, cmd.Grid.MaxY)
	if err != nil {
		return nil, fmt.Errorf("grid: %w", err)
	}

	var (
		claimed *engine.SetOccupancy
		shared  engine.Occupancy
	)
	if settings.Occupancy {
		claimed = engine.NewSetOccupancy()
		shared = claimed
	}

	result := &Result{Finals: make([]FinalState, 0, len(cmd.Programs))}
	var current *RobotTrace

	opts := []engine.Option{engine.WithStepObserver(func(st engine.Step) {
		result.Summary.add(st)
		if current != nil {
			current.Steps = append(current.Steps, newStepInfo(st))
		}
	})}
	for _, observe := range observers {
		opts = append(opts, engine.WithStepObserver(observe))
	}

	nav, err := engine.NewNavigator(policy, opts...)
	if err != nil {
		return nil, err
	}

	for i, p := range cmd.Programs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		robot, program, err := buildRobot(p, grid)
		if err != nil {
			return nil, fmt.Errorf("robot %d: %w", i+1, err)
		}

		if trace {
			current = &RobotTrace{Robot: i + 1, Start: stateOf(robot)}
		}

		if err := nav.ApplyShared(robot, program, shared, settings.OccupyFinal); err != nil {
			return nil, fmt.Errorf("robot %d: %w", i+1, err)
		}

		final := stateOf(robot)
		result.Finals = append(result.Finals, final)
		result.Summary.Robots++

		if current != nil {
			current.Final = final
			result.Traces = append(result.Traces, *current)
		}
	}

	if claimed != nil {
		result.Claimed = claimed.Claimed()
	}
	return result, nil
}
