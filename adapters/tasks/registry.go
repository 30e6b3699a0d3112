package tasks

import (
	"sort"

	"adogo/domain/engine"
	"adogo/internal/errors"
)

// Entry pairs a task with one of its response models.
type Entry struct {
	Task  engine.Task
	Model engine.Model
}

// builtin maps registry keys to constructors. Constructors, not values, so
// each session gets its own descriptor structs.
var builtin = map[string]func() Entry{
	"psi-logistic":    func() Entry { return Entry{Task: PsiTask(), Model: PsiLogistic()} },
	"psi-weibull":     func() Entry { return Entry{Task: PsiTask(), Model: PsiWeibull()} },
	"psi-normal":      func() Entry { return Entry{Task: PsiTask(), Model: PsiNormal()} },
	"ddt-hyperbolic":  func() Entry { return Entry{Task: DDTTask(), Model: DDTHyperbolic()} },
	"ddt-exponential": func() Entry { return Entry{Task: DDTTask(), Model: DDTExponential()} },
	"cra-linear":      func() Entry { return Entry{Task: CRATask(), Model: CRALinear()} },
}

// Lookup resolves a registry key to a fresh task/model pair.
func Lookup(key string) (Entry, error) {
	ctor, ok := builtin[key]
	if !ok {
		return Entry{}, errors.NotFound("task/model " + key)
	}
	return ctor(), nil
}

// Keys lists the registered task/model pairs in sorted order.
func Keys() []string {
	keys := make([]string, 0, len(builtin))
	for k := range builtin {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
