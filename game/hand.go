package game

import (
	"fmt"
	"time"

	"holdem.com/server/logging"
	"holdem.com/server/poker"
)

var handLogger = logging.GetZeroLogger("game::hand", nil)

// Deal is what the card supply hands to the engine: two hole cards per dealt seat and the sealed board.
type Deal struct {
	Hole  map[int][2]poker.Card `json:"hole" yaml:"hole"`
	Board [5]poker.Card         `json:"board" yaml:"board"`
}

// nextOccupied returns the next seat clockwise after from that can be dealt in.
func nextOccupied(seats Seats, eligible SeatSet, from int) int {
	n := len(seats)
	for step := 1; step <= n; step++ {
		i := ((from+step)%n + n) % n
		if eligible.Has(i) {
			return i
		}
	}
	return NoSeat
}

// StartHand opens a hand on a waiting table. Seats with a player and chips are dealt in.
func StartHand(table Table, seats Seats, handID string, now time.Time) (Table, Hand, Seats, error) {
	if table.Status != TableWaiting {
		return table, Hand{}, seats, StateViolationError{Reason: fmt.Sprintf("table %s already has hand %s in progress", table.ID, table.CurrentHandID)}
	}
	if len(seats) != table.MaxPlayers {
		return table, Hand{}, seats, CapacityError{Reason: fmt.Sprintf("table has %d seats, expected %d", len(seats), table.MaxPlayers)}
	}

	var eligible SeatSet
	for i := range seats {
		if seats[i].Occupied() && seats[i].Chips > 0 {
			eligible.Add(i)
		}
	}
	if eligible.Count() < MinPlayers {
		return table, Hand{}, seats, CapacityError{Reason: fmt.Sprintf("need %d players with chips, have %d", MinPlayers, eligible.Count())}
	}
	handNum, err := addChips(table.HandNumber, 1, "hand number")
	if err != nil {
		return table, Hand{}, seats, err
	}

	nextSeats := seats.Clone()
	nextTable := table
	nextTable.HandNumber = handNum
	nextTable.DealerSeat = nextOccupied(nextSeats, eligible, table.DealerSeat)
	nextTable.Status = TablePlaying
	nextTable.CurrentHandID = handID

	sb := nextOccupied(nextSeats, eligible, nextTable.DealerSeat)
	bb := nextOccupied(nextSeats, eligible, sb)

	h := Hand{
		ID:             handID,
		TableID:        table.ID,
		HandNumber:     handNum,
		MaxPlayers:     table.MaxPlayers,
		Phase:          PhaseDealing,
		CurrentBet:     table.BigBlind,
		MinRaise:       table.BigBlind,
		SmallBlind:     table.SmallBlind,
		BigBlind:       table.BigBlind,
		DealerSeat:     nextTable.DealerSeat,
		SmallBlindSeat: sb,
		BigBlindSeat:   bb,
		ActionOn:       NoSeat,
		Active:         eligible,
		Participants:   eligible,
		ActiveCount:    eligible.Count(),
	}
	for i := range h.CommunityCards {
		h.CommunityCards[i] = poker.Unrevealed
		h.SealedBoard[i] = poker.Unrevealed
	}
	for i := range nextSeats {
		nextSeats[i].resetHand()
		if eligible.Has(i) {
			nextSeats[i].Status = SeatPlaying
		}
	}
	h.touch(now)

	handLogger.Info().
		Str(logging.TableIDKey, h.TableID).
		Str(logging.HandIDKey, h.ID).
		Uint64(logging.HandNumKey, h.HandNumber).
		Msgf("Hand started. Dealer: %d SB: %d BB: %d Players: %v", h.DealerSeat, sb, bb, eligible.Seats())
	return nextTable, h, nextSeats, nil
}

func (d *Deal) validate(h *Hand) error {
	var cards []poker.Card
	for seat := range d.Hole {
		if !h.Active.Has(seat) {
			return CapacityError{Reason: fmt.Sprintf("hole cards supplied for seat %d which is not in the hand", seat)}
		}
	}
	for _, seat := range h.Active.Seats() {
		hole, ok := d.Hole[seat]
		if !ok {
			return CapacityError{Reason: fmt.Sprintf("no hole cards for seat %d", seat)}
		}
		cards = append(cards, hole[0], hole[1])
	}
	cards = append(cards, d.Board[:]...)
	if err := poker.ValidateDistinct(cards); err != nil {
		return CapacityError{Reason: err.Error()}
	}
	return nil
}

// DealHoleCards stores the dealt cards, posts the blinds and opens the preflop round.
func DealHoleCards(h Hand, seats Seats, deal Deal, now time.Time) (Hand, Seats, error) {
	next := h
	nextSeats := seats.Clone()
	if err := next.deal(nextSeats, deal, now); err != nil {
		return h, seats, err
	}
	return next, nextSeats, nil
}

func (h *Hand) deal(seats Seats, deal Deal, now time.Time) error {
	if h.Phase != PhaseDealing {
		return wrongPhase("dealing", h.Phase)
	}
	if err := deal.validate(h); err != nil {
		return err
	}
	for _, i := range h.Active.Seats() {
		seat, err := seats.seat(i)
		if err != nil {
			return err
		}
		seat.HoleCards = deal.Hole[i]
	}
	h.SealedBoard = deal.Board

	for _, blind := range []struct {
		seat   int
		amount uint64
	}{{h.SmallBlindSeat, h.SmallBlind}, {h.BigBlindSeat, h.BigBlind}} {
		seat, err := seats.seat(blind.seat)
		if err != nil {
			return err
		}
		stake, err := seat.placeBet(blind.amount)
		if err != nil {
			return err
		}
		if h.Pot, err = addChips(h.Pot, stake, "pot"); err != nil {
			return err
		}
		if seat.Status == SeatAllIn {
			h.AllIn.Add(blind.seat)
		}
	}

	h.Phase = PhasePreFlop
	h.touch(now)

	// blinds are live: the big blind still gets its option
	h.advanceTurn(seats, h.BigBlindSeat)
	return nil
}

// RevealHoleCards exposes a seat's hole cards at showdown.
func RevealHoleCards(h Hand, seats Seats, seatIndex int, now time.Time) (Hand, Seats, error) {
	if h.Phase != PhaseShowdown {
		return h, seats, wrongPhase("reveal", h.Phase)
	}
	nextSeats := seats.Clone()
	seat, err := nextSeats.seat(seatIndex)
	if err != nil {
		return h, seats, err
	}
	if !h.Active.Has(seatIndex) || (seat.Status != SeatPlaying && seat.Status != SeatAllIn) {
		return h, seats, StateViolationError{Reason: fmt.Sprintf("seat %d is not contesting the pot", seatIndex)}
	}
	if seat.CardsRevealed {
		return h, seats, StateViolationError{Reason: fmt.Sprintf("seat %d already revealed", seatIndex)}
	}
	seat.RevealedCards = seat.HoleCards
	seat.CardsRevealed = true

	next := h
	next.touch(now)
	handLogger.Debug().
		Str(logging.HandIDKey, h.ID).
		Int(logging.SeatNumKey, seatIndex).
		Msgf("Revealed %s", poker.CardsToString(seat.RevealedCards[:]))
	return next, nextSeats, nil
}
