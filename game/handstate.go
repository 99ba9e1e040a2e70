package game

import (
	"fmt"
	"time"

	"holdem.com/server/logging"
)

// Act applies one player action. On error the inputs are returned unchanged.
func Act(h Hand, seats Seats, action Action, now time.Time) (Hand, Seats, error) {
	next := h
	nextSeats := seats.Clone()
	if err := next.actionReceived(nextSeats, action, now); err != nil {
		return h, seats, err
	}
	return next, nextSeats, nil
}

func (h *Hand) actionReceived(seats Seats, action Action, now time.Time) error {
	if !h.Phase.IsBetting() {
		return wrongPhase(action.Type.String(), h.Phase)
	}
	seat, err := seats.seat(action.Seat)
	if err != nil {
		return err
	}
	if action.Seat != h.ActionOn {
		return StateViolationError{Reason: fmt.Sprintf("action is on seat %d, not seat %d", h.ActionOn, action.Seat)}
	}
	if !seat.canAct() {
		return StateViolationError{Reason: fmt.Sprintf("seat %d cannot act with status %s", action.Seat, seat.Status)}
	}

	toCall := h.ToCall(seat)
	var stake uint64
	switch action.Type {
	case ActionFold:
		seat.Status = SeatFolded
		h.Active.Remove(action.Seat)
		h.ActiveCount--

	case ActionCheck:
		if toCall > 0 {
			return BettingRuleError{Reason: fmt.Sprintf("cannot check facing %d to call", toCall)}
		}

	case ActionCall:
		if toCall == 0 {
			return BettingRuleError{Reason: "nothing to call"}
		}
		if stake, err = seat.placeBet(toCall); err != nil {
			return err
		}

	case ActionRaise:
		newTotal, err := addChips(seat.CurrentBet, action.Amount, "raise total")
		if err != nil {
			return err
		}
		var increment uint64
		if newTotal > h.CurrentBet {
			increment = newTotal - h.CurrentBet
		}
		if increment < h.MinRaise {
			return BettingRuleError{Reason: fmt.Sprintf("raise to %d is below the minimum of %d", newTotal, h.CurrentBet+h.MinRaise)}
		}
		if stake, err = seat.placeBet(action.Amount); err != nil {
			return err
		}
		h.betIncreased(seats, seat)

	case ActionAllIn:
		if stake, err = seat.placeBet(seat.Chips); err != nil {
			return err
		}
		h.betIncreased(seats, seat)
		h.AllIn.Add(action.Seat)

	default:
		return StateViolationError{Reason: fmt.Sprintf("unknown action %s", action.Type)}
	}

	if h.Pot, err = addChips(h.Pot, stake, "pot"); err != nil {
		return err
	}
	if seat.Status == SeatAllIn {
		h.AllIn.Add(action.Seat)
	}
	seat.HasActed = true
	h.Acted.Add(action.Seat)
	h.touch(now)

	handLogger.Debug().
		Str(logging.HandIDKey, h.ID).
		Str(logging.PhaseKey, h.Phase.String()).
		Int(logging.SeatNumKey, action.Seat).
		Str(logging.ActionKey, action.Type.String()).
		Msgf("Stake: %d Pot: %d Current bet: %d", stake, h.Pot, h.CurrentBet)

	if h.ActiveCount == 1 {
		// everyone else folded, the survivor is paid without a showdown
		h.Phase = PhaseSettled
		h.ActionOn = NoSeat
		return nil
	}
	h.advanceTurn(seats, action.Seat)
	return nil
}

// betIncreased reopens the action when the seat's bet now exceeds the current bet.
func (h *Hand) betIncreased(seats Seats, seat *Seat) {
	if seat.CurrentBet <= h.CurrentBet {
		return
	}
	h.MinRaise = seat.CurrentBet - h.CurrentBet
	h.CurrentBet = seat.CurrentBet
	for _, i := range h.Active.Seats() {
		if i == seat.Index {
			continue
		}
		h.Acted.Remove(i)
		seats[i].HasActed = false
	}
}

// getNextActivePlayer scans clockwise from a seat for an active seat with chips that has not acted.
func (h *Hand) getNextActivePlayer(from int) int {
	n := h.MaxPlayers
	if n <= 0 || n > MaxPlayers {
		n = MaxPlayers
	}
	for step := 1; step <= n; step++ {
		i := (from + step) % n
		if h.Active.Has(i) && !h.AllIn.Has(i) && !h.Acted.Has(i) {
			return i
		}
	}
	return NoSeat
}

func (h *Hand) advanceTurn(seats Seats, from int) {
	if next := h.getNextActivePlayer(from); next != NoSeat {
		h.ActionOn = next
		return
	}
	if h.CanAnyoneBet() {
		h.moveToNextRound(seats)
		return
	}
	h.runOut(seats)
}

func (h *Hand) revealCommunity(count int) {
	end := h.CommunityRevealed + count
	if end > len(h.CommunityCards) {
		end = len(h.CommunityCards)
	}
	for i := h.CommunityRevealed; i < end; i++ {
		h.CommunityCards[i] = h.SealedBoard[i]
	}
	h.CommunityRevealed = end
}

func (h *Hand) resetRound(seats Seats) {
	h.Acted.Clear()
	h.CurrentBet = 0
	h.MinRaise = h.BigBlind
	for i := range seats {
		seats[i].CurrentBet = 0
		seats[i].HasActed = false
	}
}

func (h *Hand) moveToNextRound(seats Seats) {
	switch h.Phase {
	case PhasePreFlop:
		h.Phase = PhaseFlop
		h.revealCommunity(3)
	case PhaseFlop:
		h.Phase = PhaseTurn
		h.revealCommunity(1)
	case PhaseTurn:
		h.Phase = PhaseRiver
		h.revealCommunity(1)
	case PhaseRiver:
		h.Phase = PhaseShowdown
	}
	h.resetRound(seats)
	if h.Phase == PhaseShowdown {
		h.ActionOn = NoSeat
	} else {
		h.ActionOn = h.firstToAct()
	}
	handLogger.Debug().
		Str(logging.HandIDKey, h.ID).
		Str(logging.PhaseKey, h.Phase.String()).
		Msgf("Next round. Action on: %d", h.ActionOn)
}

// runOut deals the rest of the board when fewer than two seats can still bet.
func (h *Hand) runOut(seats Seats) {
	h.revealCommunity(len(h.CommunityCards) - h.CommunityRevealed)
	h.Phase = PhaseShowdown
	h.resetRound(seats)
	h.ActionOn = NoSeat
	handLogger.Debug().
		Str(logging.HandIDKey, h.ID).
		Msg("Nobody can bet. Running out the board")
}

// firstToAct is the first active seat left of the dealer that can still bet.
func (h *Hand) firstToAct() int {
	n := h.MaxPlayers
	if n <= 0 || n > MaxPlayers {
		n = MaxPlayers
	}
	for step := 1; step <= n; step++ {
		i := (h.DealerSeat + step) % n
		if h.Active.Has(i) && !h.AllIn.Has(i) {
			return i
		}
	}
	if active := h.Active.Seats(); len(active) > 0 {
		return active[0]
	}
	return NoSeat
}
