package tasks

import (
	"math"

	"adogo/domain/grid"
	"adogo/internal/errors"
)

// DefaultGrids returns serviceable design and parameter grids for a registry
// key. These are starting points for simulation and the CLI; real
// experiments should declare grids matched to their stimulus range.
func DefaultGrids(key string) (designs, params []grid.Group, err error) {
	switch key {
	case "psi-logistic", "psi-weibull", "psi-normal":
		designs = []grid.Group{
			grid.Axis("stimulus", linspace(-4, 4, 41)),
		}
		params = []grid.Group{
			grid.Axis("threshold", linspace(-2, 2, 11)),
			grid.Axis("slope", linspace(0.5, 4, 8)),
			grid.Axis("guess_rate", []float64{0.5}),
			grid.Axis("lapse_rate", linspace(0, 0.06, 4)),
		}
	case "ddt-hyperbolic", "ddt-exponential":
		designs = []grid.Group{
			grid.Axis("t_ss", []float64{0}),
			grid.Axis("t_ll", []float64{1, 2, 4, 8, 16, 32}),
			grid.Axis("r_ss", linspace(200, 700, 6)),
			grid.Axis("r_ll", []float64{800}),
		}
		params = []grid.Group{
			grid.Axis("k", logspace(-4, 0, 20)),
			grid.Axis("tau", []float64{0.5, 1, 2, 4}),
		}
	case "cra-linear":
		designs = []grid.Group{
			grid.Axis("p_var", []float64{0.05, 0.13, 0.25, 0.38, 0.5, 0.75}),
			grid.Axis("a_var", []float64{0, 0.25, 0.5, 0.75}),
			grid.Axis("r_var", []float64{10, 20, 40}),
			grid.Axis("r_fix", []float64{5}),
		}
		params = []grid.Group{
			grid.Axis("alpha", linspace(0.3, 1.3, 11)),
			grid.Axis("beta", linspace(-1.5, 1.5, 11)),
			grid.Axis("gamma", []float64{0.5, 1, 2, 4}),
		}
	default:
		return nil, nil, errors.NotFound("default grids for " + key)
	}
	return designs, params, nil
}

// linspace returns n evenly spaced values from lo to hi inclusive.
func linspace(lo, hi float64, n int) []float64 {
	if n == 1 {
		return []float64{lo}
	}
	out := make([]float64, n)
	step := (hi - lo) / float64(n-1)
	for i := range out {
		out[i] = lo + float64(i)*step
	}
	out[n-1] = hi
	return out
}

// logspace returns n log-spaced values from 10^lo to 10^hi inclusive.
func logspace(lo, hi float64, n int) []float64 {
	exps := linspace(lo, hi, n)
	out := make([]float64, n)
	for i, e := range exps {
		out[i] = math.Pow(10, e)
	}
	return out
}
