package app

import (
	"context"

	"adogo/domain/belief"
	"adogo/domain/engine"
	"adogo/internal/errors"
)

// Responder produces an observation for a presented design. Implemented by
// the simulated observer in internal/testkit and by real experiment bridges.
type Responder interface {
	Respond(ctx context.Context, design map[string]float64) (float64, error)
}

// SimulationSpec configures one simulated session.
type SimulationSpec struct {
	Trials int
	Mode   engine.SelectionMode
	Truth  map[string]float64
}

// SimulationResult holds the trace of one simulated session.
type SimulationResult struct {
	Truth   map[string]float64 `json:"truth"`
	Mode    string             `json:"mode"`
	Trials  []Trial            `json:"trials"`
	Final   belief.Summary     `json:"final"`
	Initial belief.Summary     `json:"initial"`
}

// RunSimulation plays the request→respond→update loop for the configured
// number of trials against a responder. The service's session state is reset
// first so runs are independent.
func RunSimulation(ctx context.Context, svc *ExperimentService, responder Responder, spec SimulationSpec) (*SimulationResult, error) {
	if spec.Trials <= 0 {
		return nil, errors.InvalidInput("trial count must be positive")
	}
	svc.Reset()

	result := &SimulationResult{
		Truth:   spec.Truth,
		Mode:    string(spec.Mode),
		Initial: svc.Summary(),
	}
	for t := 0; t < spec.Trials; t++ {
		design, err := svc.NextDesign(ctx, spec.Mode, nil)
		if err != nil {
			return nil, err
		}
		response, err := responder.Respond(ctx, design.Values)
		if err != nil {
			return nil, err
		}
		trial, err := svc.RecordResponse(ctx, spec.Mode, design, response)
		if err != nil {
			return nil, err
		}
		result.Trials = append(result.Trials, trial)
	}
	result.Final = svc.Summary()
	return result, nil
}
