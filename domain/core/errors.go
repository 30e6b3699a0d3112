package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Configuration errors (malformed grid/variable declarations)
	ErrConfiguration    = errors.New("invalid engine configuration")
	ErrEmptyGrid        = fmt.Errorf("%w: empty grid", ErrConfiguration)
	ErrColumnMismatch   = fmt.Errorf("%w: joint group column count does not match name count", ErrConfiguration)
	ErrDuplicateName    = fmt.Errorf("%w: duplicate variable name", ErrConfiguration)
	ErrReservedName     = fmt.Errorf("%w: reserved variable name", ErrConfiguration)
	ErrPriorShape       = fmt.Errorf("%w: prior length does not match parameter grid", ErrConfiguration)
	ErrNoResponses      = fmt.Errorf("%w: response set is empty", ErrConfiguration)
	ErrComputeUndefined = fmt.Errorf("%w: model has no probability function", ErrConfiguration)
	// A probability function whose rows do not sum to one is a broken model
	// declaration, so it is classed with the configuration errors.
	ErrRowStochasticViolated = fmt.Errorf("%w: likelihood rows do not sum to one", ErrConfiguration)

	// Domain-membership errors (value outside declared grids)
	ErrInvalidDesign   = errors.New("design point not in design grid")
	ErrInvalidResponse = errors.New("response not in declared response set")

	// Numerical errors
	ErrDegeneratePosterior  = errors.New("posterior mass numerically vanished")
	ErrNumericalInstability = errors.New("numerical instability in information computation")
	ErrNegativeMass         = errors.New("posterior contains negative mass")
)

// Error constructors with context
func NewConfigurationError(reason string) error {
	return fmt.Errorf("%w: %s", ErrConfiguration, reason)
}

func NewInvalidDesignError(point string) error {
	return fmt.Errorf("%w: %s", ErrInvalidDesign, point)
}

func NewInvalidResponseError(value float64) error {
	return fmt.Errorf("%w: %v", ErrInvalidResponse, value)
}

func NewDegeneratePosteriorError(sum float64) error {
	return fmt.Errorf("%w: total mass %g", ErrDegeneratePosterior, sum)
}

func NewInstabilityError(where string) error {
	return fmt.Errorf("%w: %s", ErrNumericalInstability, where)
}

// Error checking helpers
func IsConfigurationError(err error) bool {
	return errors.Is(err, ErrConfiguration)
}

func IsDomainError(err error) bool {
	return errors.Is(err, ErrInvalidDesign) ||
		errors.Is(err, ErrInvalidResponse)
}

func IsNumericalError(err error) bool {
	return errors.Is(err, ErrDegeneratePosterior) ||
		errors.Is(err, ErrNumericalInstability) ||
		errors.Is(err, ErrNegativeMass)
}
