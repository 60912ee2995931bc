package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/wricardo/mcp-training/robotnav/navigation/scenario"
)

// scenarioServiceImpl implements the ScenarioService interface
type scenarioServiceImpl struct {
	runs     RunStore
	presets  PresetStore
	defaults Defaults
	metrics  *Metrics
	logger   *zap.Logger
}

// Option configures the scenario service
type Option func(*scenarioServiceImpl)

// WithLogger sets the service logger
func WithLogger(logger *zap.Logger) Option {
	return func(s *scenarioServiceImpl) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics enables Prometheus metrics
func WithMetrics(m *Metrics) Option {
	return func(s *scenarioServiceImpl) {
		s.metrics = m
	}
}

// NewScenarioService creates a new scenario service instance
func NewScenarioService(runs RunStore, presets PresetStore, defaults Defaults, opts ...Option) ScenarioService {
	s := &scenarioServiceImpl{
		runs:     runs,
		presets:  presets,
		defaults: defaults,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Process runs every robot of cmd in input order and records the run
func (s *scenarioServiceImpl) Process(ctx context.Context, cmd scenario.Command, opts ProcessOptions) (*Run, error) {
	started := time.Now()

	settings := s.defaults.Resolve(cmd)
	run := &Run{
		Source:      opts.Source,
		Preset:      opts.Preset,
		Policy:      settings.Policy,
		Occupancy:   settings.Occupancy,
		OccupyFinal: settings.OccupyFinal,
		CreatedAt:   started,
		Command:     cmd,
	}
	if run.Source == "" {
		run.Source = SourceJSON
	}

	result, err := Simulate(ctx, cmd, settings, opts.Trace)
	s.metrics.recordScenario(err, time.Since(started).Seconds())
	if err != nil {
		s.logger.Debug("scenario rejected",
			zap.String("source", run.Source),
			zap.Int("robots", cmd.RobotCount()),
			zap.Error(err))
		return nil, err
	}
	s.metrics.recordSummary(result.Summary)

	run.Result = result
	run.Duration = time.Since(started)

	if err := s.runs.Save(run); err != nil {
		return nil, fmt.Errorf("failed to save run: %w", err)
	}

	s.logger.Info("scenario processed",
		zap.String("run_id", run.ID),
		zap.String("source", run.Source),
		zap.String("policy", run.Policy),
		zap.Bool("occupancy", run.Occupancy),
		zap.Int("robots", result.Summary.Robots),
		zap.Int("blocked", result.Summary.Blocked),
		zap.Int("out_of_bounds", result.Summary.OutOfBounds),
		zap.Duration("duration", run.Duration))

	return run, nil
}

// GetRun returns a stored run
func (s *scenarioServiceImpl) GetRun(ctx context.Context, id string) (*Run, error) {
	return s.runs.Get(id)
}

// ListRuns returns stored runs, newest first
func (s *scenarioServiceImpl) ListRuns(ctx context.Context) ([]*Run, error) {
	return s.runs.List(), nil
}

// DeleteRun removes a stored run
func (s *scenarioServiceImpl) DeleteRun(ctx context.Context, id string) error {
	return s.runs.Delete(id)
}

// ListPresets returns the available presets
func (s *scenarioServiceImpl) ListPresets(ctx context.Context) ([]*PresetInfo, error) {
	return s.presets.List()
}

// GetPreset loads a preset scenario
func (s *scenarioServiceImpl) GetPreset(ctx context.Context, name string) (*scenario.Command, error) {
	return s.presets.Load(name)
}

// RunPreset loads and processes a preset scenario
func (s *scenarioServiceImpl) RunPreset(ctx context.Context, name string, opts ProcessOptions) (*Run, error) {
	cmd, err := s.presets.Load(name)
	if err != nil {
		return nil, err
	}

	opts.Source = SourcePreset
	opts.Preset = name
	return s.Process(ctx, *cmd, opts)
}
