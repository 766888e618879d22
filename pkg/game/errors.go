package game

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration is matched by every malformed payoff error
	ErrConfiguration = errors.New("invalid payoff configuration")
	// ErrDidNotConverge is matched when the solver ran out of sweeps
	ErrDidNotConverge = errors.New("best response did not converge")
)

// ConfigurationError reports a payoff matrix that cannot be used
type ConfigurationError struct {
	Matrix string
	Reason string
}

func (e *ConfigurationError) Error() string {
	if e.Matrix == "" {
		return fmt.Sprintf("invalid payoff configuration: %s", e.Reason)
	}
	return fmt.Sprintf("invalid payoff matrix %s: %s", e.Matrix, e.Reason)
}

func (e *ConfigurationError) Is(target error) bool {
	return target == ErrConfiguration
}

// NotConvergedError carries the best assignment found when the sweep
// budget ran out. Callers are expected to use Result anyway.
type NotConvergedError struct {
	Result Result
}

func (e *NotConvergedError) Error() string {
	return fmt.Sprintf("best response did not converge after %d sweeps (best score %d)",
		e.Result.Sweeps, e.Result.Score)
}

func (e *NotConvergedError) Is(target error) bool {
	return target == ErrDidNotConverge
}
