package testkit

import (
	"context"
	"math/rand"

	"adogo/domain/engine"
	"adogo/internal/errors"
)

// SimulatedObserver answers designs by sampling from a model evaluated at
// fixed true parameter values. Responses reproduce exactly for the same seed.
type SimulatedObserver struct {
	task  engine.Task
	model engine.Model
	truth map[string]float64
	rng   *rand.Rand
}

// NewSimulatedObserver creates an observer with the given ground-truth
// parameter values and seed.
func NewSimulatedObserver(task engine.Task, model engine.Model, truth map[string]float64, seed int64) (*SimulatedObserver, error) {
	for _, p := range model.Params {
		if _, ok := truth[p]; !ok {
			return nil, errors.InvalidInput("missing true value for parameter " + p)
		}
	}
	return &SimulatedObserver{
		task:  task,
		model: model,
		truth: truth,
		rng:   rand.New(rand.NewSource(seed)),
	}, nil
}

// Respond samples a response to the given design.
func (o *SimulatedObserver) Respond(ctx context.Context, design map[string]float64) (float64, error) {
	vars := make(map[string][]float64, len(design)+len(o.truth))
	for name, v := range design {
		vars[name] = []float64{v}
	}
	for name, v := range o.truth {
		vars[name] = []float64{v}
	}

	if o.model.ComputeAll != nil {
		cols, err := o.model.ComputeAll.ComputeAll(ctx, vars)
		if err != nil {
			return 0, err
		}
		u := o.rng.Float64()
		acc := 0.0
		for y, col := range cols {
			acc += col[0]
			if u < acc {
				return o.task.Responses[y], nil
			}
		}
		return o.task.Responses[len(o.task.Responses)-1], nil
	}

	pos, err := o.model.Compute.Compute(ctx, vars)
	if err != nil {
		return 0, err
	}
	if o.rng.Float64() < pos[0] {
		return o.task.Responses[1], nil
	}
	return o.task.Responses[0], nil
}
