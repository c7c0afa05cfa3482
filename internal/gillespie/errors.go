package gillespie

import (
	"errors"
	"fmt"
)

// Domain errors for simulation operations.
var (
	// ErrAbsorbing indicates that the total propensity is zero and no reaction
	// can fire from the current state. It ends a trajectory normally.
	ErrAbsorbing = errors.New("gillespie: absorbing state (total propensity is zero)")

	// ErrContractViolation marks every rejected mutation. It always signals a
	// wiring bug in the caller and must not be recovered from.
	ErrContractViolation = errors.New("gillespie: contract violation")

	// ErrReactionIndex indicates a reaction index outside the reaction list.
	ErrReactionIndex = errors.New("reaction index out of range")

	// ErrTimeReversal indicates a reaction time earlier than the clock.
	ErrTimeReversal = errors.New("reaction time precedes simulation clock")

	// ErrInsufficientReactants indicates a species count below what a reaction consumes.
	ErrInsufficientReactants = errors.New("insufficient reactants")

	// ErrCountOverflow indicates a product would overflow a species count.
	ErrCountOverflow = errors.New("species count overflow")

	// ErrInvalidNetwork indicates a System that cannot be constructed from its inputs.
	ErrInvalidNetwork = errors.New("gillespie: invalid network")
)

// ContractError wraps a rejected mutation with its context.
type ContractError struct {
	Reaction int
	Time     float64
	Clock    float64
	Detail   string
	Wrapped  error
}

func (e *ContractError) Error() string {
	msg := fmt.Sprintf("%v: %v (reaction=%d, t=%g, clock=%g)", ErrContractViolation, e.Wrapped, e.Reaction, e.Time, e.Clock)
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

func (e *ContractError) Unwrap() []error {
	return []error{ErrContractViolation, e.Wrapped}
}

// IsAbsorbing reports whether err signals the absorbing state.
func IsAbsorbing(err error) bool {
	return errors.Is(err, ErrAbsorbing)
}

// IsContractViolation reports whether err is a rejected mutation.
func IsContractViolation(err error) bool {
	return errors.Is(err, ErrContractViolation)
}

func invalidNetwork(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidNetwork, fmt.Sprintf(format, args...))
}
