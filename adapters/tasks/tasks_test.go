package tasks

import (
	"context"
	"math"
	"testing"

	"adogo/domain/engine"
	"adogo/domain/grid"
	apperrors "adogo/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// computeOne evaluates a model's probability function at a single point.
func computeOne(t *testing.T, m engine.Model, point map[string]float64) float64 {
	t.Helper()
	vars := make(map[string][]float64, len(point))
	for name, v := range point {
		vars[name] = []float64{v}
	}
	out, err := m.Compute.Compute(context.Background(), vars)
	require.NoError(t, err)
	require.Len(t, out, 1)
	return out[0]
}

func TestPsiLogisticProbability(t *testing.T) {
	m := PsiLogistic()

	// At threshold the shape function is 0.5.
	p := computeOne(t, m, map[string]float64{
		"stimulus": 0, "threshold": 0, "slope": 2, "guess_rate": 0.5, "lapse_rate": 0.02,
	})
	assert.InDelta(t, 0.5+(1-0.5-0.02)*0.5, p, 1e-12)

	// Without guessing or lapsing the model reduces to the logistic itself.
	p = computeOne(t, m, map[string]float64{
		"stimulus": 1, "threshold": 0, "slope": 2, "guess_rate": 0, "lapse_rate": 0,
	})
	assert.InDelta(t, 1/(1+math.Exp(-2)), p, 1e-12)

	// Far above threshold the lapse rate caps detection.
	p = computeOne(t, m, map[string]float64{
		"stimulus": 50, "threshold": 0, "slope": 2, "guess_rate": 0.5, "lapse_rate": 0.02,
	})
	assert.InDelta(t, 0.98, p, 1e-9)
}

func TestPsiNormalProbability(t *testing.T) {
	p := computeOne(t, PsiNormal(), map[string]float64{
		"stimulus": 0, "threshold": 0, "slope": 1, "guess_rate": 0.5, "lapse_rate": 0,
	})
	assert.InDelta(t, 0.75, p, 1e-12)
}

func TestPsiWeibullProbability(t *testing.T) {
	// Left Gumbel CDF at 0 is 1 - 1/e.
	p := computeOne(t, PsiWeibull(), map[string]float64{
		"stimulus": 0, "threshold": 0, "slope": 1, "guess_rate": 0, "lapse_rate": 0,
	})
	assert.InDelta(t, 1-math.Exp(-1), p, 1e-12)
}

func TestDDTIndifferencePoint(t *testing.T) {
	// Hyperbolic: 800/(1+0.1*10) = 400 matches the immediate 400, so the
	// observer is indifferent regardless of tau.
	p := computeOne(t, DDTHyperbolic(), map[string]float64{
		"t_ss": 0, "t_ll": 10, "r_ss": 400, "r_ll": 800, "k": 0.1, "tau": 3,
	})
	assert.InDelta(t, 0.5, p, 1e-12)

	// Exponential with k = ln2/10 halves the delayed reward at t=10.
	p = computeOne(t, DDTExponential(), map[string]float64{
		"t_ss": 0, "t_ll": 10, "r_ss": 400, "r_ll": 800, "k": math.Ln2 / 10, "tau": 3,
	})
	assert.InDelta(t, 0.5, p, 1e-9)
}

func TestCRALinearProbability(t *testing.T) {
	// No ambiguity, linear utility: U_var = 0.5*10 = 5, U_fix = 0.5*5 = 2.5.
	p := computeOne(t, CRALinear(), map[string]float64{
		"p_var": 0.5, "a_var": 0, "r_var": 10, "r_fix": 5,
		"alpha": 1, "beta": 0.5, "gamma": 1,
	})
	assert.InDelta(t, 1/(1+math.Exp(-2.5)), p, 1e-12)

	// Ambiguity aversion lowers the variable option's utility.
	lower := computeOne(t, CRALinear(), map[string]float64{
		"p_var": 0.5, "a_var": 0.5, "r_var": 10, "r_fix": 5,
		"alpha": 1, "beta": 1, "gamma": 1,
	})
	assert.Less(t, lower, p)
}

func TestLookup(t *testing.T) {
	for _, key := range Keys() {
		entry, err := Lookup(key)
		require.NoError(t, err, key)
		assert.NotEmpty(t, entry.Task.Name)
		assert.NotEmpty(t, entry.Model.Name)
	}

	_, err := Lookup("no-such-model")
	assert.Equal(t, apperrors.CodeNotFound, apperrors.GetCode(err))
}

// TestDefaultGridsConstructEngines exercises every registered pair end to end:
// default grids must build and the engine must accept them.
func TestDefaultGridsConstructEngines(t *testing.T) {
	for _, key := range Keys() {
		t.Run(key, func(t *testing.T) {
			entry, err := Lookup(key)
			require.NoError(t, err)
			designGroups, paramGroups, err := DefaultGrids(key)
			require.NoError(t, err)

			designs, err := grid.Build(designGroups...)
			require.NoError(t, err)
			params, err := grid.Build(paramGroups...)
			require.NoError(t, err)

			eng, err := engine.New(context.Background(), entry.Task, entry.Model, designs, params)
			require.NoError(t, err)

			design, err := eng.SelectDesign(context.Background(), engine.SelectOptimal, nil)
			require.NoError(t, err)
			assert.False(t, math.IsNaN(design.Gain))
		})
	}
}

func TestStaircaseRule(t *testing.T) {
	designs, err := grid.Build(grid.Axis("stimulus", linspace(-2, 2, 9)))
	require.NoError(t, err)
	params, err := grid.Build(
		grid.Axis("threshold", []float64{-1, 0, 1}),
		grid.Axis("slope", []float64{2}),
		grid.Axis("guess_rate", []float64{0.5}),
		grid.Axis("lapse_rate", []float64{0}),
	)
	require.NoError(t, err)

	eng, err := engine.New(context.Background(), PsiTask(), PsiLogistic(), designs, params)
	require.NoError(t, err)

	sc := NewStaircase(4, 1)
	ctx := context.Background()

	// Initial state counts as a detection, so the first move is down one.
	d, err := sc.Next(ctx, eng)
	require.NoError(t, err)
	assert.Equal(t, 3, d.Index)

	sc.Observe(0)
	d, err = sc.Next(ctx, eng)
	require.NoError(t, err)
	assert.Equal(t, 5, d.Index, "a miss moves up two steps")

	sc.Observe(1)
	d, err = sc.Next(ctx, eng)
	require.NoError(t, err)
	assert.Equal(t, 4, d.Index, "a detection moves down one step")

	// Clamped at the bottom of the grid.
	sc = NewStaircase(0, 3)
	d, err = sc.Next(ctx, eng)
	require.NoError(t, err)
	assert.Equal(t, 0, d.Index)
}

func TestLinspaceEndpoints(t *testing.T) {
	v := linspace(-1, 1, 5)
	assert.Equal(t, []float64{-1, -0.5, 0, 0.5, 1}, v)
	assert.Equal(t, []float64{3}, linspace(3, 9, 1))

	lg := logspace(0, 2, 3)
	assert.InDelta(t, 1, lg[0], 1e-12)
	assert.InDelta(t, 10, lg[1], 1e-12)
	assert.InDelta(t, 100, lg[2], 1e-12)
}
