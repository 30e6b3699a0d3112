package ports

import (
	"context"
)

// BatchComputer is the user-supplied probability function, modeled as an
// injected capability rather than a subclassing point. The engine only ever
// invokes it in batch over the full design×parameter grid.
type BatchComputer interface {
	// Compute receives one vector per named design and parameter variable,
	// all of equal length (one entry per design×parameter combination), and
	// returns the probability of the designated positive response for each
	// combination.
	Compute(ctx context.Context, vars map[string][]float64) ([]float64, error)
}

// MultiResponseComputer is the batch capability for tasks with more than two
// possible responses: one probability column per declared response, in
// response-set order.
type MultiResponseComputer interface {
	ComputeAll(ctx context.Context, vars map[string][]float64) ([][]float64, error)
}

// ComputeFunc adapts a plain function to BatchComputer.
type ComputeFunc func(ctx context.Context, vars map[string][]float64) ([]float64, error)

func (f ComputeFunc) Compute(ctx context.Context, vars map[string][]float64) ([]float64, error) {
	return f(ctx, vars)
}
