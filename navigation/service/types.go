package service

import (
	"time"

	"github.com/wricardo/mcp-training/robotnav/navigation/engine"
	"github.com/wricardo/mcp-training/robotnav/navigation/scenario"
)

// Run sources
const (
	SourceJSON   = "json"
	SourceRaw    = "raw"
	SourcePreset = "preset"
	SourceCLI    = "cli"
)

// FinalState is a robot's resting state after its program completed
type FinalState struct {
	X           int    `json:"x"`
	Y           int    `json:"y"`
	Orientation string `json:"orientation"`
}

// String renders the state as "x y O"
func (f FinalState) String() string {
	return formatState(f.X, f.Y, f.Orientation)
}

// StepInfo is a compact record of one processed instruction
type StepInfo struct {
	Idx         int                `json:"idx"`
	Instruction string             `json:"instruction"`
	From        engine.Position    `json:"from"`
	To          engine.Position    `json:"to"`
	Heading     engine.Orientation `json:"heading"` // encoded as its letter
	Outcome     string             `json:"outcome"` // turned|moved|out_of_bounds|blocked
}

// RobotTrace holds the step trace of one robot
type RobotTrace struct {
	Robot int        `json:"robot"` // 1-based, input order
	Start FinalState `json:"start"`
	Final FinalState `json:"final"`
	Steps []StepInfo `json:"steps"`
}

// Summary aggregates step outcomes over all robots of a run
type Summary struct {
	Robots       int `json:"robots"`
	Instructions int `json:"instructions"`
	Moves        int `json:"moves"`
	Turns        int `json:"turns"`
	Blocked      int `json:"blocked"`
	OutOfBounds  int `json:"out_of_bounds"`
}

// Result is the outcome of processing a scenario
type Result struct {
	Finals  []FinalState      `json:"finals"`
	Summary Summary           `json:"summary"`
	Claimed []engine.Position `json:"claimed,omitempty"`
	Traces  []RobotTrace      `json:"traces,omitempty"`
}

// Run is a processed scenario kept in history
type Run struct {
	ID          string           `json:"id"`
	Source      string           `json:"source"`
	Preset      string           `json:"preset,omitempty"`
	Policy      string           `json:"policy"`
	Occupancy   bool             `json:"occupancy"`
	OccupyFinal bool             `json:"occupy_final"`
	CreatedAt   time.Time        `json:"created_at"`
	Duration    time.Duration    `json:"duration_ns"`
	Command     scenario.Command `json:"command"`
	Result      *Result          `json:"result"`
}

// ProcessOptions tunes a single Process call
type ProcessOptions struct {
	Trace  bool
	Source string
	Preset string
}

// Defaults are applied when a command leaves a setting unset
type Defaults struct {
	Policy      string
	Occupancy   bool
	OccupyFinal bool
}

// PresetInfo describes a stored scenario preset
type PresetInfo struct {
	ID       string `json:"id"`
	Filename string `json:"filename"`
	Format   string `json:"format"` // raw|json
	MaxX     int    `json:"max_x"`
	MaxY     int    `json:"max_y"`
	Robots   int    `json:"robots"`
}
