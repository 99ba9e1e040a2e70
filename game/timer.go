package game

import (
	"fmt"
	"time"

	"holdem.com/server/logging"
)

func elapsedSince(h *Hand, now time.Time) time.Duration {
	return now.Sub(time.Unix(h.LastActionTime, 0))
}

// ForceActionTimeout plays the default action for the seat on the clock once
// the action window has passed: check when nothing is owed, fold otherwise.
func ForceActionTimeout(h Hand, seats Seats, seatIndex int, now time.Time, window time.Duration) (Hand, Seats, error) {
	if !h.Phase.IsBetting() {
		return h, seats, wrongPhase("action timeout", h.Phase)
	}
	if seatIndex != h.ActionOn {
		return h, seats, StateViolationError{Reason: fmt.Sprintf("seat %d is not on the clock (action on %d)", seatIndex, h.ActionOn)}
	}
	seat, err := seats.seat(seatIndex)
	if err != nil {
		return h, seats, err
	}
	if elapsed := elapsedSince(&h, now); elapsed < window {
		return h, seats, TimeoutNotElapsedError{Reason: "action window", Remaining: window - elapsed}
	}

	action := Action{Seat: seatIndex, Type: ActionFold}
	if h.ToCall(seat) == 0 {
		action.Type = ActionCheck
	}
	handLogger.Info().
		Str(logging.HandIDKey, h.ID).
		Int(logging.SeatNumKey, seatIndex).
		Str(logging.PurposeKey, "ACTION").
		Msgf("Seat timed out. Default action: %s", action.Type)
	return Act(h, seats, action, now)
}

// ForceRevealTimeout mucks a seat that has not shown its cards within the reveal window.
// When a single contender remains the hand moves to Settled and that seat takes the pot.
func ForceRevealTimeout(h Hand, seats Seats, seatIndex int, now time.Time, window time.Duration) (Hand, Seats, error) {
	if h.Phase != PhaseShowdown {
		return h, seats, wrongPhase("reveal timeout", h.Phase)
	}
	nextSeats := seats.Clone()
	seat, err := nextSeats.seat(seatIndex)
	if err != nil {
		return h, seats, err
	}
	if !h.Active.Has(seatIndex) {
		return h, seats, StateViolationError{Reason: fmt.Sprintf("seat %d is not contesting the pot", seatIndex)}
	}
	if seat.CardsRevealed {
		return h, seats, StateViolationError{Reason: fmt.Sprintf("seat %d already revealed", seatIndex)}
	}
	if elapsed := elapsedSince(&h, now); elapsed < window {
		return h, seats, TimeoutNotElapsedError{Reason: "reveal window", Remaining: window - elapsed}
	}

	next := h
	seat.Status = SeatFolded
	next.Active.Remove(seatIndex)
	next.ActiveCount--
	if next.ActiveCount == 1 {
		next.Phase = PhaseSettled
	}
	// the clock is left alone so every stale seat can be mucked in one pass

	handLogger.Info().
		Str(logging.HandIDKey, h.ID).
		Int(logging.SeatNumKey, seatIndex).
		Str(logging.PurposeKey, "REVEAL").
		Msg("Seat did not reveal in time. Cards mucked")
	return next, nextSeats, nil
}
