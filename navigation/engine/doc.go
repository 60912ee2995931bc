// Package engine provides the navigation core for robots on a bounded grid.
//
// The engine package implements:
//   - Grid boundaries with inclusive [0,maxX]x[0,maxY] bounds
//   - Cardinal orientations with rotation and unit movement vectors
//   - Validated, immutable instruction programs (L, R, M)
//   - The Robot aggregate with atomic turn, peek and move operations
//   - Pluggable out-of-bounds policies
//   - Cell occupancy shared between robots of one scenario
//
// Core Types:
//
// Navigator drives a Robot through an InstructionSequence. Whenever a forward
// move would leave the grid it delegates to an OutOfBoundsPolicy; when the
// target cell is claimed in the shared Occupancy the move is skipped.
// Policies that relocate the robot inside the grid, such as WrapPolicy,
// implement SharedPolicy and receive the Occupancy so they never land on a
// claimed cell.
//
// Usage:
//
//	grid, err := engine.NewGrid(5, 5)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	robot, err := engine.NewRobot(engine.Position{X: 1, Y: 2}, engine.North, grid)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	program, err := engine.ParseInstructions("LMLMLMLMM")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	nav, _ := engine.NewNavigator(engine.IgnorePolicy{})
//	if err := nav.Apply(robot, program); err != nil {
//		log.Fatal(err)
//	}
//	fmt.Println(robot) // 1 3 N
//
// Errors:
//
// Failures wrap one of three sentinels: ErrMissingArgument for absent inputs,
// ErrInvalidValue for malformed values, and ErrDomainRule for inputs that are
// individually valid but jointly break a rule, such as a robot starting
// outside its grid. Blocked and out-of-bounds moves are never errors.
//
// Multiple robots:
//
// Robots sharing an Occupancy must be processed one after another. A robot
// that claims its final cell blocks every robot processed after it, never the
// ones processed before.
package engine
