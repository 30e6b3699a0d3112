package tasks

import (
	"context"
	"math"

	"adogo/domain/engine"
	"adogo/ports"
)

// Choice under risk and ambiguity: the observer chooses between a fixed
// certain reward and a variable lottery with winning probability p_var,
// ambiguity level a_var, and reward r_var. Response 1 means the variable
// option was chosen.

// CRATask returns the risk-and-ambiguity choice task.
func CRATask() engine.Task {
	return engine.Task{
		Name:      "CRA",
		Designs:   []string{"p_var", "a_var", "r_var", "r_fix"},
		Responses: []float64{0, 1},
	}
}

// CRALinear models subjective value with a linear ambiguity penalty and
// power-utility rewards:
//
//	U_var = (p_var - beta * a_var / 2) * r_var^alpha
//	U_fix = 0.5 * r_fix^alpha
//	p(choose variable) = logistic(gamma * (U_var - U_fix))
func CRALinear() engine.Model {
	return engine.Model{
		Name:   "CRALinear",
		Params: []string{"alpha", "beta", "gamma"},
		Compute: ports.ComputeFunc(func(ctx context.Context, vars map[string][]float64) ([]float64, error) {
			pVar, aVar := vars["p_var"], vars["a_var"]
			rVar, rFix := vars["r_var"], vars["r_fix"]
			alpha, beta, gamma := vars["alpha"], vars["beta"], vars["gamma"]
			out := make([]float64, len(alpha))
			for i := range out {
				uVar := (pVar[i] - beta[i]*aVar[i]/2) * math.Pow(rVar[i], alpha[i])
				uFix := 0.5 * math.Pow(rFix[i], alpha[i])
				out[i] = invLogit(gamma[i] * (uVar - uFix))
			}
			return out, nil
		}),
	}
}
