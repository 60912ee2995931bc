package service

import (
	"context"

	"github.com/wricardo/mcp-training/robotnav/navigation/scenario"
)

// ScenarioService defines all navigation operations
type ScenarioService interface {
	// Scenarios
	Process(ctx context.Context, cmd scenario.Command, opts ProcessOptions) (*Run, error)

	// Run history
	GetRun(ctx context.Context, id string) (*Run, error)
	ListRuns(ctx context.Context) ([]*Run, error)
	DeleteRun(ctx context.Context, id string) error

	// Presets
	ListPresets(ctx context.Context) ([]*PresetInfo, error)
	GetPreset(ctx context.Context, name string) (*scenario.Command, error)
	RunPreset(ctx context.Context, name string, opts ProcessOptions) (*Run, error)
}

// RunStore keeps processed runs
type RunStore interface {
	Save(run *Run) error
	Get(id string) (*Run, error)
	List() []*Run
	Delete(id string) error
}

// PresetStore loads named scenarios
type PresetStore interface {
	Load(name string) (*scenario.Command, error)
	List() ([]*PresetInfo, error)
}
