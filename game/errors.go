package game

import (
	"fmt"
	"time"

	"github.com/pkg/errors"
)

// StateViolationError rejects a transition that is not allowed in the current phase or for the seat.
type StateViolationError struct {
	Reason string
}

func (e StateViolationError) Error() string {
	return fmt.Sprintf("State violation: %s", e.Reason)
}

// BettingRuleError rejects an action that breaks a betting rule (check facing a bet, short raise).
type BettingRuleError struct {
	Reason string
}

func (e BettingRuleError) Error() string {
	return fmt.Sprintf("Betting rule violation: %s", e.Reason)
}

type CapacityError struct {
	Reason string
}

func (e CapacityError) Error() string {
	return fmt.Sprintf("Capacity violation: %s", e.Reason)
}

type TimeoutNotElapsedError struct {
	Reason    string
	Remaining time.Duration
}

func (e TimeoutNotElapsedError) Error() string {
	return fmt.Sprintf("Timeout not elapsed: %s (%s remaining)", e.Reason, e.Remaining)
}

type NotYetRevealedError struct {
	Reason string
	Seats  []int
}

func (e NotYetRevealedError) Error() string {
	return fmt.Sprintf("Not yet revealed: %s %v", e.Reason, e.Seats)
}

type NotFoundError struct {
	Key string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("%s is not found", e.Key)
}

func IsStateViolation(err error) bool {
	var e StateViolationError
	return errors.As(err, &e)
}

func IsBettingRule(err error) bool {
	var e BettingRuleError
	return errors.As(err, &e)
}

func IsCapacity(err error) bool {
	var e CapacityError
	return errors.As(err, &e)
}

func IsTimeoutNotElapsed(err error) bool {
	var e TimeoutNotElapsedError
	return errors.As(err, &e)
}

func IsNotYetRevealed(err error) bool {
	var e NotYetRevealedError
	return errors.As(err, &e)
}

func IsNotFound(err error) bool {
	var e NotFoundError
	return errors.As(err, &e)
}

func wrongPhase(op string, phase Phase) error {
	return StateViolationError{Reason: fmt.Sprintf("%s is not allowed in phase %s", op, phase)}
}
