package app

import (
	"context"
	"math"
	"testing"

	"adogo/domain/core"
	"adogo/domain/engine"
	"adogo/domain/grid"
	apperrors "adogo/internal/errors"
	"adogo/internal/testkit"
	"adogo/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memoryCheckpoints is an in-memory CheckpointRepository for tests.
type memoryCheckpoints struct {
	saved []*ports.Checkpoint
	fail  bool
}

func (m *memoryCheckpoints) Save(ctx context.Context, cp *ports.Checkpoint) error {
	if m.fail {
		return apperrors.DatabaseError("checkpoint store unavailable")
	}
	m.saved = append(m.saved, cp)
	return nil
}

func (m *memoryCheckpoints) Latest(ctx context.Context, sessionID core.SessionID) (*ports.Checkpoint, error) {
	for i := len(m.saved) - 1; i >= 0; i-- {
		if m.saved[i].SessionID == sessionID {
			return m.saved[i], nil
		}
	}
	return nil, apperrors.NotFound("checkpoint")
}

func (m *memoryCheckpoints) ListBySession(ctx context.Context, sessionID core.SessionID) ([]*ports.Checkpoint, error) {
	var out []*ports.Checkpoint
	for _, cp := range m.saved {
		if cp.SessionID == sessionID {
			out = append(out, cp)
		}
	}
	return out, nil
}

func sigmoidTaskModel() (engine.Task, engine.Model) {
	task := engine.Task{Name: "Sigmoid", Designs: []string{"x"}, Responses: []float64{0, 1}}
	model := engine.Model{
		Name:   "Sigmoid",
		Params: []string{"b"},
		Compute: ports.ComputeFunc(func(ctx context.Context, vars map[string][]float64) ([]float64, error) {
			x, b := vars["x"], vars["b"]
			out := make([]float64, len(x))
			for i := range out {
				out[i] = 1 / (1 + math.Exp(-b[i]*x[i]))
			}
			return out, nil
		}),
	}
	return task, model
}

func newService(t *testing.T, opts ...ServiceOption) *ExperimentService {
	t.Helper()
	designs, err := grid.Build(grid.Axis("x", []float64{0, 1, 2}))
	require.NoError(t, err)
	params, err := grid.Build(grid.Axis("b", []float64{-1, 0, 1}))
	require.NoError(t, err)
	task, model := sigmoidTaskModel()
	eng, err := engine.New(context.Background(), task, model, designs, params)
	require.NoError(t, err)
	return NewExperimentService(eng, opts...)
}

func TestRecordResponseAppendsTrialsAndCheckpoints(t *testing.T) {
	repo := &memoryCheckpoints{}
	svc := newService(t, WithCheckpoints(repo))
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		design, err := svc.NextDesign(ctx, engine.SelectOptimal, nil)
		require.NoError(t, err)
		trial, err := svc.RecordResponse(ctx, engine.SelectOptimal, design, 1)
		require.NoError(t, err)
		assert.Equal(t, i+1, trial.Number)
	}

	trials := svc.Trials()
	require.Len(t, trials, 2)
	assert.Equal(t, 1, trials[0].Number)

	require.Len(t, repo.saved, 2)
	assert.Equal(t, svc.SessionID(), repo.saved[0].SessionID)
	assert.Equal(t, 1, repo.saved[0].Trial)
	assert.Equal(t, 2, repo.saved[1].Trial)
	assert.Len(t, repo.saved[1].Posterior, 3)

	latest, err := repo.Latest(ctx, svc.SessionID())
	require.NoError(t, err)
	assert.Equal(t, 2, latest.Trial)
}

func TestRecordResponseRejectsInvalidObservation(t *testing.T) {
	repo := &memoryCheckpoints{}
	svc := newService(t, WithCheckpoints(repo))
	ctx := context.Background()

	design := engine.Design{Index: 0, Values: map[string]float64{"x": 99}}
	_, err := svc.RecordResponse(ctx, engine.SelectManual, design, 1)
	require.ErrorIs(t, err, core.ErrInvalidDesign)

	assert.Empty(t, svc.Trials(), "failed update must not record a trial")
	assert.Empty(t, repo.saved)
}

func TestCheckpointFailureDoesNotFailTrial(t *testing.T) {
	repo := &memoryCheckpoints{fail: true}
	svc := newService(t, WithCheckpoints(repo))
	ctx := context.Background()

	design, err := svc.NextDesign(ctx, engine.SelectOptimal, nil)
	require.NoError(t, err)
	trial, err := svc.RecordResponse(ctx, engine.SelectOptimal, design, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, trial.Number)
	assert.Len(t, svc.Trials(), 1)
}

func TestResetClearsHistory(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	design, err := svc.NextDesign(ctx, engine.SelectOptimal, nil)
	require.NoError(t, err)
	_, err = svc.RecordResponse(ctx, engine.SelectOptimal, design, 1)
	require.NoError(t, err)

	svc.Reset()
	assert.Empty(t, svc.Trials())
	for _, m := range svc.Engine().Posterior().Mass() {
		assert.InDelta(t, 1.0/3.0, m, 1e-12)
	}
}

func TestRunSimulationConcentratesPosterior(t *testing.T) {
	svc := newService(t)
	task, model := sigmoidTaskModel()
	observer, err := testkit.NewSimulatedObserver(task, model, map[string]float64{"b": 1}, 42)
	require.NoError(t, err)

	result, err := RunSimulation(context.Background(), svc, observer, SimulationSpec{
		Trials: 40,
		Mode:   engine.SelectOptimal,
		Truth:  map[string]float64{"b": 1},
	})
	require.NoError(t, err)
	require.Len(t, result.Trials, 40)

	assert.Less(t, result.Final.Variance["b"], result.Initial.Variance["b"],
		"adaptive trials must reduce posterior variance")
	assert.Greater(t, result.Final.Mean["b"], 0.0,
		"posterior mean must move toward the true parameter")
}

func TestOptimalConcentratesFasterThanRandom(t *testing.T) {
	task, model := sigmoidTaskModel()
	truth := map[string]float64{"b": 1}

	// Mean final posterior variance over seeded runs, per selection mode.
	meanFinalVariance := func(mode engine.SelectionMode) float64 {
		svc := newService(t)
		total := 0.0
		const runs = 6
		for seed := int64(1); seed <= runs; seed++ {
			observer, err := testkit.NewSimulatedObserver(task, model, truth, seed)
			require.NoError(t, err)
			result, err := RunSimulation(context.Background(), svc, observer, SimulationSpec{
				Trials: 15,
				Mode:   mode,
				Truth:  truth,
			})
			require.NoError(t, err)
			total += result.Final.Variance["b"]
		}
		return total / runs
	}

	optimal := meanFinalVariance(engine.SelectOptimal)
	random := meanFinalVariance(engine.SelectRandom)

	// Random selection wastes trials on x=0, which carries no information,
	// so optimal selection must leave a tighter posterior on average.
	assert.Less(t, optimal, random)
}

func TestRunSimulationIsResetIsolated(t *testing.T) {
	svc := newService(t)
	task, model := sigmoidTaskModel()
	spec := SimulationSpec{Trials: 15, Mode: engine.SelectOptimal, Truth: map[string]float64{"b": 1}}

	run := func() *SimulationResult {
		observer, err := testkit.NewSimulatedObserver(task, model, spec.Truth, 7)
		require.NoError(t, err)
		result, err := RunSimulation(context.Background(), svc, observer, spec)
		require.NoError(t, err)
		return result
	}

	first, second := run(), run()
	for name, mean := range first.Final.Mean {
		assert.InDelta(t, mean, second.Final.Mean[name], 1e-12,
			"identical seeds must reproduce the run exactly")
	}
}

func TestRunSimulationValidatesTrialCount(t *testing.T) {
	svc := newService(t)
	task, model := sigmoidTaskModel()
	observer, err := testkit.NewSimulatedObserver(task, model, map[string]float64{"b": 1}, 1)
	require.NoError(t, err)

	_, err = RunSimulation(context.Background(), svc, observer, SimulationSpec{Trials: 0})
	assert.Equal(t, apperrors.CodeInvalidInput, apperrors.GetCode(err))
}

func TestBuildReport(t *testing.T) {
	svc := newService(t)
	task, model := sigmoidTaskModel()

	results := make([]*SimulationResult, 0, 2)
	for seed := int64(1); seed <= 2; seed++ {
		observer, err := testkit.NewSimulatedObserver(task, model, map[string]float64{"b": 1}, seed)
		require.NoError(t, err)
		result, err := RunSimulation(context.Background(), svc, observer, SimulationSpec{
			Trials: 10,
			Mode:   engine.SelectOptimal,
			Truth:  map[string]float64{"b": 1},
		})
		require.NoError(t, err)
		results = append(results, result)
	}

	report, err := BuildReport(results)
	require.NoError(t, err)
	assert.Contains(t, report, "# Simulation report")
	assert.Contains(t, report, "Parameter recovery")
	assert.Contains(t, report, "| b |")
	assert.Contains(t, report, "variance")

	_, err = BuildReport(nil)
	assert.Equal(t, apperrors.CodeInvalidInput, apperrors.GetCode(err))
}
