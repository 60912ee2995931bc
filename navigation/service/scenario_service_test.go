package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wricardo/mcp-training/robotnav/navigation/engine"
	"github.com/wricardo/mcp-training/robotnav/navigation/scenario"
)

// MockRunStore is a simple in-memory RunStore for testing
type MockRunStore struct {
	mu       sync.Mutex
	runs     []*Run
	SaveFunc func(run *Run) error
}

func (m *MockRunStore) Save(run *Run) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(run)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if run.ID == "" {
		run.ID = fmt.Sprintf("run-%d", len(m.runs)+1)
	}
	m.runs = append(m.runs, run)
	return nil
}

func (m *MockRunStore) Get(id string) (*Run, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.runs {
		if r.ID == id {
			return r, nil
		}
	}
	return nil, errors.New("run not found")
}

func (m *MockRunStore) List() []*Run {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*Run, len(m.runs))
	copy(out, m.runs)
	return out
}

func (m *MockRunStore) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, r := range m.runs {
		if r.ID == id {
			m.runs = append(m.runs[:i], m.runs[i+1:]...)
			return nil
		}
	}
	return errors.New("run not found")
}

// MockPresetStore serves presets from a map
type MockPresetStore struct {
	presets map[string]scenario.Command
}

func (m *MockPresetStore) Load(name string) (*scenario.Command, error) {
	cmd, ok := m.presets[name]
	if !ok {
		return nil, errors.New("preset not found")
	}
	return &cmd, nil
}

func (m *MockPresetStore) List() ([]*PresetInfo, error) {
	var out []*PresetInfo
	for name, cmd := range m.presets {
		out = append(out, &PresetInfo{
			ID:     name,
			Format: "raw",
			MaxX:   cmd.Grid.MaxX,
			MaxY:   cmd.Grid.MaxY,
			Robots: cmd.RobotCount(),
		})
	}
	return out, nil
}

func newTestService(t *testing.T, defaults Defaults) (ScenarioService, *MockRunStore, *Metrics) {
	t.Helper()
	runs := &MockRunStore{}
	presets := &MockPresetStore{presets: map[string]scenario.Command{
		"sample": referenceScenario(),
	}}
	metrics := NewMetrics(prometheus.NewRegistry())
	return NewScenarioService(runs, presets, defaults, WithMetrics(metrics)), runs, metrics
}

func referenceScenario() scenario.Command {
	return scenario.Command{
		Grid: scenario.GridSize{MaxX: 5, MaxY: 5},
		Programs: []scenario.RobotProgram{
			{StartX: 1, StartY: 2, Orientation: 'N', Instructions: "LMLMLMLMM"},
			{StartX: 3, StartY: 3, Orientation: 'E', Instructions: "MMRMMRMRRM"},
		},
	}
}

func boolPtr(b bool) *bool { return &b }

func TestScenarioService_Process(t *testing.T) {
	svc, runs, metrics := newTestService(t, Defaults{})
	ctx := context.Background()

	run, err := svc.Process(ctx, referenceScenario(), ProcessOptions{})
	require.NoError(t, err)

	assert.Equal(t, []FinalState{
		{X: 1, Y: 3, Orientation: "N"},
		{X: 5, Y: 1, Orientation: "E"},
	}, run.Result.Finals)
	assert.Equal(t, "1 3 N", run.Result.Finals[0].String())

	assert.Equal(t, "run-1", run.ID)
	assert.Equal(t, SourceJSON, run.Source)
	assert.Equal(t, engine.PolicyIgnore, run.Policy)
	assert.False(t, run.Occupancy)
	assert.Nil(t, run.Result.Traces)
	assert.Nil(t, run.Result.Claimed)
	assert.Len(t, runs.List(), 1)

	sum := run.Result.Summary
	assert.Equal(t, 2, sum.Robots)
	assert.Equal(t, 19, sum.Instructions)
	assert.Equal(t, sum.Instructions, sum.Moves+sum.Turns+sum.Blocked+sum.OutOfBounds)

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.ScenariosTotal.WithLabelValues("ok")))
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.RobotsTotal))
}

func TestScenarioService_SharedOccupancy(t *testing.T) {
	svc, _, metrics := newTestService(t, Defaults{OccupyFinal: true})

	cmd := scenario.Command{
		Grid: scenario.GridSize{MaxX: 5, MaxY: 5},
		Programs: []scenario.RobotProgram{
			{StartX: 1, StartY: 2, Orientation: 'N', Instructions: "LMLMLMLMM"},
			{StartX: 1, StartY: 2, Orientation: 'N', Instructions: "MM"},
		},
		Occupancy: boolPtr(true),
	}

	run, err := svc.Process(context.Background(), cmd, ProcessOptions{Trace: true})
	require.NoError(t, err)

	assert.Equal(t, FinalState{X: 1, Y: 2, Orientation: "N"}, run.Result.Finals[1])
	assert.Equal(t, 2, run.Result.Summary.Blocked)
	assert.Equal(t, []engine.Position{{X: 1, Y: 2}, {X: 1, Y: 3}}, run.Result.Claimed)
	assert.True(t, run.Occupancy)
	assert.True(t, run.OccupyFinal)

	require.Len(t, run.Result.Traces, 2)
	second := run.Result.Traces[1]
	assert.Equal(t, 2, second.Robot)
	assert.Equal(t, FinalState{X: 1, Y: 2, Orientation: "N"}, second.Start)
	require.Len(t, second.Steps, 2)
	for _, st := range second.Steps {
		assert.Equal(t, "blocked", st.Outcome)
		assert.Equal(t, "M", st.Instruction)
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.StepsTotal.WithLabelValues("blocked")))
}

func TestScenarioService_WithoutOccupancyRobotsOverlap(t *testing.T) {
	svc, _, _ := newTestService(t, Defaults{Occupancy: true, OccupyFinal: true})

	cmd := scenario.Command{
		Grid: scenario.GridSize{MaxX: 5, MaxY: 5},
		Programs: []scenario.RobotProgram{
			{StartX: 1, StartY: 2, Orientation: 'N', Instructions: "M"},
			{StartX: 1, StartY: 2, Orientation: 'N', Instructions: "M"},
		},
		Occupancy: boolPtr(false),
	}

	run, err := svc.Process(context.Background(), cmd, ProcessOptions{})
	require.NoError(t, err)
	assert.Equal(t, run.Result.Finals[0], run.Result.Finals[1])
}

func TestScenarioService_Policies(t *testing.T) {
	svc, _, _ := newTestService(t, Defaults{Policy: "wrap"})

	cmd := scenario.Command{
		Grid:     scenario.GridSize{MaxX: 1, MaxY: 1},
		Programs: []scenario.RobotProgram{{StartX: 1, StartY: 1, Orientation: 'N', Instructions: "M"}},
	}

	run, err := svc.Process(context.Background(), cmd, ProcessOptions{})
	require.NoError(t, err)
	assert.Equal(t, "wrap", run.Policy)
	assert.Equal(t, FinalState{X: 1, Y: 0, Orientation: "N"}, run.Result.Finals[0])

	cmd.Policy = "ignore"
	run, err = svc.Process(context.Background(), cmd, ProcessOptions{})
	require.NoError(t, err)
	assert.Equal(t, FinalState{X: 1, Y: 1, Orientation: "N"}, run.Result.Finals[0])
	assert.Equal(t, 1, run.Result.Summary.OutOfBounds)

	cmd.Policy = "teleport"
	_, err = svc.Process(context.Background(), cmd, ProcessOptions{})
	assert.ErrorIs(t, err, engine.ErrInvalidValue)
}

func TestScenarioService_WrapWithOccupancy(t *testing.T) {
	svc, _, _ := newTestService(t, Defaults{OccupyFinal: true})

	cmd := scenario.Command{
		Grid: scenario.GridSize{MaxX: 2, MaxY: 2},
		Programs: []scenario.RobotProgram{
			{StartX: 2, StartY: 0, Orientation: 'N', Instructions: "RL"},
			{StartX: 2, StartY: 2, Orientation: 'N', Instructions: "M"},
		},
		Policy:    "wrap",
		Occupancy: boolPtr(true),
	}

	run, err := svc.Process(context.Background(), cmd, ProcessOptions{})
	require.NoError(t, err)
	assert.Equal(t, FinalState{X: 2, Y: 2, Orientation: "N"}, run.Result.Finals[1])
	assert.Equal(t, []engine.Position{{X: 2, Y: 0}, {X: 2, Y: 2}}, run.Result.Claimed)
	assert.Equal(t, 1, run.Result.Summary.OutOfBounds)
}

func TestDefaults_Resolve(t *testing.T) {
	d := Defaults{Policy: "wrap", Occupancy: true, OccupyFinal: true}

	assert.Equal(t, Settings{Policy: "wrap", Occupancy: true, OccupyFinal: true}, d.Resolve(scenario.Command{}))

	cmd := scenario.Command{Policy: "bounce", Occupancy: boolPtr(false), OccupyFinal: boolPtr(false)}
	assert.Equal(t, Settings{Policy: "bounce"}, d.Resolve(cmd))

	assert.Equal(t, engine.PolicyIgnore, Defaults{}.Resolve(scenario.Command{}).Policy)
}

func TestSimulate(t *testing.T) {
	var steps int
	result, err := Simulate(context.Background(), referenceScenario(), Settings{Policy: "ignore"}, true,
		func(engine.Step) { steps++ })
	require.NoError(t, err)

	assert.Equal(t, 19, steps)
	assert.Equal(t, "5 1 E", result.Finals[1].String())
	require.Len(t, result.Traces, 2)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = Simulate(ctx, referenceScenario(), Settings{}, false)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestStepInfo_HeadingJSON(t *testing.T) {
	step := StepInfo{Idx: 1, Instruction: "R", Heading: engine.East, Outcome: "turned"}

	data, err := json.Marshal(step)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"heading":"E"`)

	var decoded StepInfo
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, engine.East, decoded.Heading)

	assert.Error(t, json.Unmarshal([]byte(`{"heading":"Q"}`), &decoded))
}

func TestScenarioService_Errors(t *testing.T) {
	t.Run("robot outside grid aborts the batch", func(t *testing.T) {
		svc, runs, metrics := newTestService(t, Defaults{})
		cmd := referenceScenario()
		cmd.Programs[1].StartX = 9

		_, err := svc.Process(context.Background(), cmd, ProcessOptions{})
		require.ErrorIs(t, err, engine.ErrDomainRule)
		assert.Contains(t, err.Error(), "robot 2:")
		assert.Empty(t, runs.List(), "failed runs are not stored")
		assert.Equal(t, 1.0, testutil.ToFloat64(metrics.ScenariosTotal.WithLabelValues("domain_error")))
	})

	t.Run("engine re-validates orientation", func(t *testing.T) {
		svc, _, metrics := newTestService(t, Defaults{})
		cmd := referenceScenario()
		cmd.Programs[0].Orientation = 'Q'

		_, err := svc.Process(context.Background(), cmd, ProcessOptions{})
		require.ErrorIs(t, err, engine.ErrInvalidValue)
		assert.Contains(t, err.Error(), "robot 1:")
		assert.Equal(t, 1.0, testutil.ToFloat64(metrics.ScenariosTotal.WithLabelValues("invalid")))
	})

	t.Run("negative grid", func(t *testing.T) {
		svc, _, _ := newTestService(t, Defaults{})
		cmd := referenceScenario()
		cmd.Grid.MaxY = -1

		_, err := svc.Process(context.Background(), cmd, ProcessOptions{})
		assert.ErrorIs(t, err, engine.ErrInvalidValue)
	})

	t.Run("cancelled context", func(t *testing.T) {
		svc, _, _ := newTestService(t, Defaults{})
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := svc.Process(ctx, referenceScenario(), ProcessOptions{})
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("store failure", func(t *testing.T) {
		runs := &MockRunStore{SaveFunc: func(*Run) error { return errors.New("disk full") }}
		svc := NewScenarioService(runs, &MockPresetStore{}, Defaults{})

		_, err := svc.Process(context.Background(), referenceScenario(), ProcessOptions{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to save run")
	})
}

func TestScenarioService_Runs(t *testing.T) {
	svc, _, _ := newTestService(t, Defaults{})
	ctx := context.Background()

	run, err := svc.Process(ctx, referenceScenario(), ProcessOptions{Source: SourceRaw})
	require.NoError(t, err)

	got, err := svc.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Same(t, run, got)
	assert.Equal(t, SourceRaw, got.Source)

	list, err := svc.ListRuns(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, svc.DeleteRun(ctx, run.ID))
	_, err = svc.GetRun(ctx, run.ID)
	assert.Error(t, err)
}

func TestScenarioService_Presets(t *testing.T) {
	svc, _, _ := newTestService(t, Defaults{})
	ctx := context.Background()

	presets, err := svc.ListPresets(ctx)
	require.NoError(t, err)
	require.Len(t, presets, 1)
	assert.Equal(t, 2, presets[0].Robots)

	cmd, err := svc.GetPreset(ctx, "sample")
	require.NoError(t, err)
	assert.Equal(t, referenceScenario(), *cmd)

	run, err := svc.RunPreset(ctx, "sample", ProcessOptions{Trace: true})
	require.NoError(t, err)
	assert.Equal(t, SourcePreset, run.Source)
	assert.Equal(t, "sample", run.Preset)
	assert.Len(t, run.Result.Traces, 2)

	_, err = svc.RunPreset(ctx, "missing", ProcessOptions{})
	assert.Error(t, err)
}
