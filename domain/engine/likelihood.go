package engine

import (
	"context"
	"math"
	"runtime"

	"adogo/domain/core"
	"adogo/domain/grid"

	"golang.org/x/sync/errgroup"
)

// rowStochasticTol bounds how far the per-(design,parameter) response
// probabilities may drift from summing to one before the table is rejected.
const rowStochasticTol = 1e-6

// Likelihood is the dense (design × parameter × response) probability table.
// Probabilities are floored away from 0 and 1 before any logarithm is taken,
// so the stored log table never contains infinities. Built once per grid pair
// and treated as immutable afterwards; safe to share read-only between
// engines using identical grids.
type Likelihood struct {
	nDesign   int
	nParam    int
	nResponse int
	prob      []float64 // floored probabilities, index (d*nParam+p)*nResponse+y
	logProb   []float64
	entropy   []float64 // response entropy per (design, parameter) pair
}

// buildLikelihood evaluates the model's probability function in batch over
// the full design×parameter grid. The positive response for binary tasks is
// the second declared response; its complement fills the first.
func buildLikelihood(ctx context.Context, task Task, model Model, designs, params *grid.Grid, eps float64) (*Likelihood, error) {
	nD, nP, nY := designs.Len(), params.Len(), len(task.Responses)

	vars := make(map[string][]float64, len(task.Designs)+len(model.Params))
	for _, name := range task.Designs {
		col, ok := designs.Column(name)
		if !ok {
			return nil, core.NewConfigurationError("task design variable " + name + " not in design grid")
		}
		expanded := make([]float64, nD*nP)
		for i := 0; i < nD; i++ {
			for j := 0; j < nP; j++ {
				expanded[i*nP+j] = col[i]
			}
		}
		vars[name] = expanded
	}
	for _, name := range model.Params {
		col, ok := params.Column(name)
		if !ok {
			return nil, core.NewConfigurationError("model parameter " + name + " not in parameter grid")
		}
		expanded := make([]float64, nD*nP)
		for i := 0; i < nD; i++ {
			copy(expanded[i*nP:(i+1)*nP], col)
		}
		vars[name] = expanded
	}

	prob := make([]float64, nD*nP*nY)
	switch {
	case model.ComputeAll != nil:
		cols, err := model.ComputeAll.ComputeAll(ctx, vars)
		if err != nil {
			return nil, err
		}
		if len(cols) != nY {
			return nil, core.NewConfigurationError("probability function returned wrong response count")
		}
		for y, col := range cols {
			if len(col) != nD*nP {
				return nil, core.NewConfigurationError("probability function returned wrong batch length")
			}
			for k, v := range col {
				prob[k*nY+y] = v
			}
		}
	default:
		pos, err := model.Compute.Compute(ctx, vars)
		if err != nil {
			return nil, err
		}
		if len(pos) != nD*nP {
			return nil, core.NewConfigurationError("probability function returned wrong batch length")
		}
		for k, v := range pos {
			prob[k*nY+1] = v
			prob[k*nY+0] = 1 - v
		}
	}

	lik := &Likelihood{
		nDesign:   nD,
		nParam:    nP,
		nResponse: nY,
		prob:      prob,
		logProb:   make([]float64, len(prob)),
		entropy:   make([]float64, nD*nP),
	}
	if err := lik.finalize(ctx, eps); err != nil {
		return nil, err
	}
	return lik, nil
}

// finalize floors probabilities, checks row-stochasticity, and precomputes
// the log table and per-pair response entropies. Parallel over design chunks.
func (l *Likelihood) finalize(ctx context.Context, eps float64) error {
	g, _ := errgroup.WithContext(ctx)
	workers := runtime.GOMAXPROCS(0)
	chunk := (l.nDesign + workers - 1) / workers
	if chunk < 1 {
		chunk = 1
	}

	for lo := 0; lo < l.nDesign; lo += chunk {
		lo, hi := lo, lo+chunk
		if hi > l.nDesign {
			hi = l.nDesign
		}
		g.Go(func() error {
			for d := lo; d < hi; d++ {
				for p := 0; p < l.nParam; p++ {
					base := (d*l.nParam + p) * l.nResponse
					sum := 0.0
					for y := 0; y < l.nResponse; y++ {
						v := l.prob[base+y]
						if math.IsNaN(v) {
							return core.NewInstabilityError("probability function produced NaN")
						}
						// Checked on the raw value so a broken model cannot be
						// floored into plausibility.
						if v < -rowStochasticTol || v > 1+rowStochasticTol {
							return core.NewConfigurationError("probability function produced a value outside [0, 1]")
						}
						sum += v
						if v < eps {
							v = eps
						} else if v > 1-eps {
							v = 1 - eps
						}
						l.prob[base+y] = v
						l.logProb[base+y] = math.Log(v)
					}
					if math.Abs(sum-1) > rowStochasticTol {
						return core.ErrRowStochasticViolated
					}
					h := 0.0
					for y := 0; y < l.nResponse; y++ {
						h -= l.prob[base+y] * l.logProb[base+y]
					}
					l.entropy[d*l.nParam+p] = h
				}
			}
			return nil
		})
	}
	return g.Wait()
}

// Prob returns the floored probability of response index y at design d and
// parameter p.
func (l *Likelihood) Prob(d, p, y int) float64 {
	return l.prob[(d*l.nParam+p)*l.nResponse+y]
}

// LogSlice returns the log-likelihood vector over the parameter grid for one
// (design, response) pair. The returned slice is freshly allocated.
func (l *Likelihood) LogSlice(d, y int) []float64 {
	out := make([]float64, l.nParam)
	for p := 0; p < l.nParam; p++ {
		out[p] = l.logProb[(d*l.nParam+p)*l.nResponse+y]
	}
	return out
}

// ResponseEntropy returns H(Y | design d, parameter p) in nats.
func (l *Likelihood) ResponseEntropy(d, p int) float64 {
	return l.entropy[d*l.nParam+p]
}

// Dims returns the table dimensions (designs, parameters, responses).
func (l *Likelihood) Dims() (int, int, int) {
	return l.nDesign, l.nParam, l.nResponse
}
