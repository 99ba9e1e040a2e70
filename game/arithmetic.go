package game

import (
	"fmt"
	"math"
)

// Chip amounts never wrap. Overflow and underflow are reported, not absorbed.

func addChips(a, b uint64, what string) (uint64, error) {
	if a > math.MaxUint64-b {
		return 0, CapacityError{Reason: fmt.Sprintf("%s overflows (%d + %d)", what, a, b)}
	}
	return a + b, nil
}

func subChips(a, b uint64, what string) (uint64, error) {
	if b > a {
		return 0, CapacityError{Reason: fmt.Sprintf("%s underflows (%d - %d)", what, a, b)}
	}
	return a - b, nil
}
