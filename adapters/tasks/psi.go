package tasks

import (
	"context"
	"math"

	"adogo/domain/engine"
	"adogo/ports"

	"gonum.org/v1/gonum/stat/distuv"
)

// Psychometric function estimation: one design variable for stimulus
// intensity, binary detection responses, and a four-parameter response model
// (threshold, slope, guess rate, lapse rate):
//
//	p(detect) = guess + (1 - guess - lapse) * F(slope * (stimulus - threshold))
//
// The shape function F distinguishes the three models below.

// PsiTask returns the 2-alternative forced choice detection task.
func PsiTask() engine.Task {
	return engine.Task{
		Name:      "Psi",
		Designs:   []string{"stimulus"},
		Responses: []float64{0, 1},
	}
}

// PsiLogistic is the psychometric model with a logistic shape function.
func PsiLogistic() engine.Model {
	return psiModel("PsiLogistic", invLogit)
}

// PsiWeibull is the psychometric model with a log-Weibull (left Gumbel CDF)
// shape function.
func PsiWeibull() engine.Model {
	gumbel := distuv.GumbelRight{Mu: 0, Beta: 1}
	return psiModel("PsiWeibull", func(x float64) float64 {
		// Left-skewed Gumbel CDF via the right-skewed survival function.
		return 1 - gumbel.CDF(-x)
	})
}

// PsiNormal is the psychometric model with a standard normal CDF shape.
func PsiNormal() engine.Model {
	norm := distuv.Normal{Mu: 0, Sigma: 1}
	return psiModel("PsiNormal", norm.CDF)
}

func psiModel(name string, shape func(float64) float64) engine.Model {
	return engine.Model{
		Name:   name,
		Params: []string{"threshold", "slope", "guess_rate", "lapse_rate"},
		Compute: ports.ComputeFunc(func(ctx context.Context, vars map[string][]float64) ([]float64, error) {
			st := vars["stimulus"]
			th := vars["threshold"]
			sl := vars["slope"]
			gr := vars["guess_rate"]
			lr := vars["lapse_rate"]
			out := make([]float64, len(st))
			for i := range out {
				out[i] = gr[i] + (1-gr[i]-lr[i])*shape(sl[i]*(st[i]-th[i]))
			}
			return out, nil
		}),
	}
}

func invLogit(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

// Staircase implements the classic psychophysics staircase rule layered on
// manual selection: step down one grid index after a detection, up two after
// a miss. It tracks the previously presented stimulus index itself; the
// engine only validates the resulting design.
type Staircase struct {
	step int
	idx  int
	prev float64
}

// NewStaircase starts a staircase at the given design-grid index with the
// given index step size.
func NewStaircase(start, step int) *Staircase {
	if step < 1 {
		step = 1
	}
	return &Staircase{step: step, idx: start, prev: 1}
}

// Next returns the next design under the staircase rule.
func (s *Staircase) Next(ctx context.Context, e *engine.Engine) (engine.Design, error) {
	if s.prev == 1 {
		s.idx -= s.step
	} else {
		s.idx += 2 * s.step
	}
	if s.idx < 0 {
		s.idx = 0
	}
	if max := e.DesignGrid().Len() - 1; s.idx > max {
		s.idx = max
	}
	d, err := e.DesignAt(s.idx)
	if err != nil {
		return engine.Design{}, err
	}
	return e.SelectDesign(ctx, engine.SelectManual, d.Values)
}

// Observe records the response to the previously returned design.
func (s *Staircase) Observe(response float64) {
	s.prev = response
}
