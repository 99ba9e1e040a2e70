package game

import (
	"fmt"
	"time"

	"holdem.com/server/logging"
	"holdem.com/server/poker"
)

// Settle pays out the pot and closes the hand. It runs at showdown, or after
// everyone but one seat folded and the payout has not happened yet.
func Settle(h Hand, seats Seats, now time.Time) (Hand, Seats, *HandCompleted, error) {
	next := h
	nextSeats := seats.Clone()
	result, err := next.settle(nextSeats, now)
	if err != nil {
		return h, seats, nil, err
	}
	return next, nextSeats, result, nil
}

func (h *Hand) settle(seats Seats, now time.Time) (*HandCompleted, error) {
	if !h.PayoutPending() {
		return nil, StateViolationError{Reason: fmt.Sprintf("no payout pending in phase %s", h.Phase)}
	}
	active := h.Active.Seats()
	if len(active) == 0 || len(active) != h.ActiveCount {
		return nil, CapacityError{Reason: fmt.Sprintf("active count %d does not match active seats %v", h.ActiveCount, active)}
	}
	for _, i := range h.Participants.Seats() {
		if i >= len(seats) {
			return nil, CapacityError{Reason: fmt.Sprintf("participant seat %d is out of range", i)}
		}
	}
	if len(active) > 1 {
		if pending := h.Unrevealed(seats); len(pending) > 0 {
			return nil, NotYetRevealedError{Reason: "every contesting seat must reveal before settlement", Seats: pending}
		}
		if h.CommunityRevealed != len(h.CommunityCards) {
			return nil, StateViolationError{Reason: fmt.Sprintf("only %d community cards revealed", h.CommunityRevealed)}
		}
	}

	result := h.newHandCompleted(seats, now)
	pot := h.Pot

	if len(active) > 1 {
		// single tier side pot: nobody can win more from a seat than the shortest active stack put in
		matched := seats[active[0]].TotalBet
		for _, i := range active[1:] {
			if seats[i].TotalBet < matched {
				matched = seats[i].TotalBet
			}
		}
		for _, i := range active {
			excess := seats[i].TotalBet - matched
			if excess == 0 {
				continue
			}
			var err error
			if pot, err = subChips(pot, excess, "pot refund"); err != nil {
				return nil, err
			}
			if err = seats[i].awardChips(excess); err != nil {
				return nil, err
			}
			result.player(i).ChipsRefunded = excess
		}
	}

	var winners []int
	if len(active) == 1 {
		winners = active
	} else {
		contenders := make([]poker.SeatCards, 0, len(active))
		for _, i := range active {
			cards := make([]poker.Card, 0, 7)
			cards = append(cards, seats[i].RevealedCards[:]...)
			cards = append(cards, h.CommunityCards[:]...)
			contenders = append(contenders, poker.SeatCards{Seat: i, Cards: cards})
		}
		var err error
		var best poker.EvaluatedHand
		winners, best, err = poker.FindWinners(contenders)
		if err != nil {
			return nil, CapacityError{Reason: err.Error()}
		}
		if len(winners) == 0 {
			return nil, CapacityError{Reason: "no winner at showdown"}
		}
		result.WinningHand = best.Category
	}

	share := pot / uint64(len(winners))
	remainder := pot % uint64(len(winners))
	for n, i := range winners {
		amount := share
		if n == 0 {
			// winners are in seat order, the lowest seat takes the odd chips
			amount += remainder
		}
		if err := seats[i].awardChips(amount); err != nil {
			return nil, err
		}
		result.player(i).ChipsWon = amount
	}
	result.Winners = winners

	for _, i := range h.Participants.Seats() {
		seats[i].resetHand()
	}
	h.Phase = PhaseSettled
	h.Pot = 0
	h.PaidOut = true
	h.ActionOn = NoSeat
	h.touch(now)

	handLogger.Info().
		Str(logging.TableIDKey, h.TableID).
		Str(logging.HandIDKey, h.ID).
		Uint64(logging.HandNumKey, h.HandNumber).
		Msgf("Hand settled. Pot: %d Winners: %v", result.TotalPot, winners)
	return result, nil
}
