package preset

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/wricardo/mcp-training/robotnav/navigation/engine"
	"github.com/wricardo/mcp-training/robotnav/navigation/scenario"
	"github.com/wricardo/mcp-training/robotnav/navigation/service"
)

// PolicyStats summarizes a preset run under one out-of-bounds policy
type PolicyStats struct {
	Policy      string   `json:"policy"`
	Moved       int      `json:"moved"`
	Turned      int      `json:"turned"`
	OutOfBounds int      `json:"outOfBounds"`
	Blocked     int      `json:"blocked"`
	Visited     int      `json:"visited"` // distinct cells touched, starts included
	Finals      []string `json:"finals"`
}

// Analysis describes a preset and how it behaves under every policy.
// Err is set when the file cannot be parsed or a robot cannot be placed.
type Analysis struct {
	File         string        `json:"file"`
	MaxX         int           `json:"maxX"`
	MaxY         int           `json:"maxY"`
	Robots       int           `json:"robots"`
	Instructions int           `json:"instructions"`
	Policy       string        `json:"policy"`
	Occupancy    bool          `json:"occupancy"`
	Policies     []PolicyStats `json:"policies,omitempty"`
	Err          string        `json:"error,omitempty"`
}

// Cells returns the number of cells in the preset's grid
func (a Analysis) Cells() int {
	return (a.MaxX + 1) * (a.MaxY + 1)
}

// AnalyzeFile parses a preset and replays it under every known policy.
// Occupancy settings come from the preset, falling back to defaults.
func AnalyzeFile(path string, defaults service.Defaults) Analysis {
	analysis := Analysis{File: filepath.Base(path)}

	format, ok := extensions[filepath.Ext(path)]
	if !ok {
		analysis.Err = fmt.Sprintf("unsupported extension %q", filepath.Ext(path))
		return analysis
	}
	cmd, err := parseFile(path, format)
	if err != nil {
		analysis.Err = err.Error()
		return analysis
	}

	settings := defaults.Resolve(cmd)
	analysis.MaxX, analysis.MaxY = cmd.Grid.MaxX, cmd.Grid.MaxY
	analysis.Robots = cmd.RobotCount()
	analysis.Policy = settings.Policy
	analysis.Occupancy = settings.Occupancy
	for _, p := range cmd.Programs {
		analysis.Instructions += len(p.Instructions)
	}

	for _, name := range engine.PolicyNames() {
		replayed := settings
		replayed.Policy = name
		stats, err := replay(cmd, replayed)
		if err != nil {
			analysis.Err = err.Error()
			analysis.Policies = nil
			return analysis
		}
		analysis.Policies = append(analysis.Policies, stats)
	}
	return analysis
}

func replay(cmd scenario.Command, settings service.Settings) (PolicyStats, error) {
	stats := PolicyStats{Policy: settings.Policy}
	visited := make(map[engine.Position]struct{})

	observe := func(step engine.Step) {
		visited[step.From] = struct{}{}
		visited[step.To] = struct{}{}
		switch step.Outcome {
		case engine.OutcomeMoved:
			stats.Moved++
		case engine.OutcomeTurned:
			stats.Turned++
		case engine.OutcomeOutOfBounds:
			stats.OutOfBounds++
		case engine.OutcomeBlocked:
			stats.Blocked++
		}
	}

	res, err := service.Simulate(context.Background(), cmd, settings, false, observe)
	if err != nil {
		return stats, err
	}
	// robots with empty programs never report a step
	for _, p := range cmd.Programs {
		visited[engine.Position{X: p.StartX, Y: p.StartY}] = struct{}{}
	}
	stats.Visited = len(visited)
	stats.Finals = finalStrings(res.Finals)
	return stats, nil
}

// AnalyzeDir analyzes every preset file in dir, sorted by file name
func AnalyzeDir(dir string, defaults service.Defaults) ([]Analysis, error) {
	names, err := presetFiles(dir)
	if err != nil {
		return nil, err
	}

	results := make([]Analysis, 0, len(names))
	for _, name := range names {
		results = append(results, AnalyzeFile(filepath.Join(dir, name), defaults))
	}
	return results, nil
}
