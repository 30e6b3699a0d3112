package engine

import (
	"context"
	"math"
	"runtime"

	"adogo/domain/core"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"
)

// SelectionMode picks how the next design is chosen.
type SelectionMode string

const (
	// SelectOptimal maximizes expected information gain under the current posterior.
	SelectOptimal SelectionMode = "optimal"
	// SelectRandom draws a design uniformly from the design grid.
	SelectRandom SelectionMode = "random"
	// SelectManual validates and returns a caller-supplied design.
	SelectManual SelectionMode = "manual"
)

// mutualInfo computes, for every design-grid point, the mutual information
// between the unknown parameter and the response under the given posterior:
//
//	I(d) = H(Y(d)) - H(Y(d) | Θ)
//
// The marginal entropy term accumulates in the log domain via log-sum-exp so
// that extreme posteriors and floored likelihoods cannot underflow. Pure read
// of the likelihood table and posterior mass.
func (l *Likelihood) mutualInfo(ctx context.Context, mass []float64) ([]float64, error) {
	logPost := make([]float64, l.nParam)
	for p, m := range mass {
		logPost[p] = math.Log(m) // log(0) = -Inf drops out of log-sum-exp
	}

	gain := make([]float64, l.nDesign)
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
			acc := make([]float64, l.nParam)
			for d := lo; d < hi; d++ {
				// H(Y(d)): entropy of the posterior-marginal response distribution.
				entMarg := 0.0
				for y := 0; y < l.nResponse; y++ {
					for p := 0; p < l.nParam; p++ {
						acc[p] = logPost[p] + l.logProb[(d*l.nParam+p)*l.nResponse+y]
					}
					lm := floats.LogSumExp(acc)
					entMarg -= math.Exp(lm) * lm
				}

				// H(Y(d) | Θ): posterior-weighted response entropy.
				entCond := 0.0
				for p := 0; p < l.nParam; p++ {
					entCond += mass[p] * l.entropy[d*l.nParam+p]
				}

				v := entMarg - entCond
				if math.IsNaN(v) || math.IsInf(v, 0) {
					return core.NewInstabilityError("mutual information")
				}
				gain[d] = v
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return gain, nil
}

// argmaxFirst returns the index of the maximum value, ties broken by first
// occurrence so that optimal selection is deterministic.
func argmaxFirst(values []float64) int {
	best := 0
	for i, v := range values {
		if v > values[best] {
			best = i
		}
	}
	return best
}
