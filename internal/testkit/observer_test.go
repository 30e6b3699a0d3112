package testkit

import (
	"context"
	"testing"

	"adogo/domain/engine"
	"adogo/internal/errors"
	"adogo/ports"
)

func coinTaskModel(p float64) (engine.Task, engine.Model) {
	task := engine.Task{Name: "Coin", Designs: []string{"d"}, Responses: []float64{0, 1}}
	model := engine.Model{
		Name:   "Coin",
		Params: []string{"bias"},
		Compute: ports.ComputeFunc(func(ctx context.Context, vars map[string][]float64) ([]float64, error) {
			out := make([]float64, len(vars["d"]))
			for i := range out {
				out[i] = p
			}
			return out, nil
		}),
	}
	return task, model
}

func TestObserverRequiresFullTruth(t *testing.T) {
	task, model := coinTaskModel(0.5)
	if _, err := NewSimulatedObserver(task, model, map[string]float64{}, 1); errors.GetCode(err) != errors.CodeInvalidInput {
		t.Errorf("expected INVALID_INPUT for missing truth, got %v", err)
	}
}

func TestObserverDeterministicPerSeed(t *testing.T) {
	task, model := coinTaskModel(0.5)
	truth := map[string]float64{"bias": 0.5}
	ctx := context.Background()
	design := map[string]float64{"d": 0}

	a, err := NewSimulatedObserver(task, model, truth, 11)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := NewSimulatedObserver(task, model, truth, 11)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := 0; i < 20; i++ {
		ra, err := a.Respond(ctx, design)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		rb, err := b.Respond(ctx, design)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if ra != rb {
			t.Fatal("same seed must reproduce the same responses")
		}
	}
}

func TestObserverRespectsExtremeProbabilities(t *testing.T) {
	ctx := context.Background()
	design := map[string]float64{"d": 0}

	task, model := coinTaskModel(1)
	o, err := NewSimulatedObserver(task, model, map[string]float64{"bias": 1}, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := 0; i < 10; i++ {
		r, err := o.Respond(ctx, design)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if r != 1 {
			t.Fatal("probability 1 must always produce the positive response")
		}
	}

	task, model = coinTaskModel(0)
	o, err = NewSimulatedObserver(task, model, map[string]float64{"bias": 0}, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := 0; i < 10; i++ {
		r, err := o.Respond(ctx, design)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if r != 0 {
			t.Fatal("probability 0 must never produce the positive response")
		}
	}
}
