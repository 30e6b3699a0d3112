package engine

import (
	"adogo/domain/core"
	"adogo/ports"
)

// Task describes the controllable side of an experiment: which design
// variables the experimenter can set and which responses an observer can give.
// Declared once and immutable for a session.
type Task struct {
	Name      string
	Designs   []string
	Responses []float64
}

// Model describes the observer: the unknown parameters and the probability
// function connecting designs and parameters to responses. Compute is the
// injected capability for binary-response tasks; ComputeAll for tasks with
// more than two responses. Exactly one must be set.
type Model struct {
	Name       string
	Params     []string
	Compute    ports.BatchComputer
	ComputeAll ports.MultiResponseComputer
}

func (t Task) validate() error {
	if len(t.Designs) == 0 {
		return core.NewConfigurationError("task declares no design variables")
	}
	if len(t.Responses) == 0 {
		return core.ErrNoResponses
	}
	seen := make(map[float64]bool, len(t.Responses))
	for _, r := range t.Responses {
		if seen[r] {
			return core.NewConfigurationError("duplicate response value")
		}
		seen[r] = true
	}
	return nil
}

func (m Model) validate(t Task) error {
	if len(m.Params) == 0 {
		return core.NewConfigurationError("model declares no parameters")
	}
	if m.Compute == nil && m.ComputeAll == nil {
		return core.ErrComputeUndefined
	}
	if m.Compute != nil && m.ComputeAll != nil {
		return core.NewConfigurationError("model sets both Compute and ComputeAll")
	}
	if m.Compute != nil && len(t.Responses) != 2 {
		return core.NewConfigurationError("binary probability function requires exactly two responses")
	}
	return nil
}

// responseIndex resolves a response value to its index in the declared set.
func (t Task) responseIndex(value float64) (int, bool) {
	for i, r := range t.Responses {
		if r == value {
			return i, true
		}
	}
	return 0, false
}
