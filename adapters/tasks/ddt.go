package tasks

import (
	"context"
	"math"

	"adogo/domain/engine"
	"adogo/ports"
)

// Delay discounting: the observer chooses between a smaller-sooner reward
// (r_ss at delay t_ss) and a larger-later reward (r_ll at delay t_ll).
// Response 1 means the larger-later option was chosen.

// DDTTask returns the two-option intertemporal choice task.
func DDTTask() engine.Task {
	return engine.Task{
		Name:      "DDT",
		Designs:   []string{"t_ss", "t_ll", "r_ss", "r_ll"},
		Responses: []float64{0, 1},
	}
}

// DDTHyperbolic models hyperbolic discounting with a softmax choice rule:
//
//	V = r / (1 + k*t)
//	p(choose LL) = logistic(tau * (V_ll - V_ss))
func DDTHyperbolic() engine.Model {
	return engine.Model{
		Name:   "DDTHyperbolic",
		Params: []string{"k", "tau"},
		Compute: ports.ComputeFunc(func(ctx context.Context, vars map[string][]float64) ([]float64, error) {
			tSS, tLL := vars["t_ss"], vars["t_ll"]
			rSS, rLL := vars["r_ss"], vars["r_ll"]
			k, tau := vars["k"], vars["tau"]
			out := make([]float64, len(k))
			for i := range out {
				vSS := rSS[i] / (1 + k[i]*tSS[i])
				vLL := rLL[i] / (1 + k[i]*tLL[i])
				out[i] = invLogit(tau[i] * (vLL - vSS))
			}
			return out, nil
		}),
	}
}

// DDTExponential models exponential discounting, V = r * exp(-k*t), with the
// same softmax choice rule.
func DDTExponential() engine.Model {
	return engine.Model{
		Name:   "DDTExponential",
		Params: []string{"k", "tau"},
		Compute: ports.ComputeFunc(func(ctx context.Context, vars map[string][]float64) ([]float64, error) {
			tSS, tLL := vars["t_ss"], vars["t_ll"]
			rSS, rLL := vars["r_ss"], vars["r_ll"]
			k, tau := vars["k"], vars["tau"]
			out := make([]float64, len(k))
			for i := range out {
				vSS := rSS[i] * math.Exp(-k[i]*tSS[i])
				vLL := rLL[i] * math.Exp(-k[i]*tLL[i])
				out[i] = invLogit(tau[i] * (vLL - vSS))
			}
			return out, nil
		}),
	}
}
