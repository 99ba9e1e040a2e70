package game

import (
	"time"

	"holdem.com/server/poker"
)

// PlayerHandResult is one participant's line in the completion record.
type PlayerHandResult struct {
	PlayerID      string             `json:"playerId"`
	SeatIndex     int                `json:"seatIndex"`
	HoleCards     [2]poker.Card      `json:"holeCards"`
	HandRank      poker.HandCategory `json:"handRank"`
	HandRankName  string             `json:"handRankName"`
	ChipsWon      uint64             `json:"chipsWon"`
	ChipsRefunded uint64             `json:"chipsRefunded"`
	ChipsBet      uint64             `json:"chipsBet"`
	Folded        bool               `json:"folded"`
	AllIn         bool               `json:"allIn"`
}

// HandCompleted is emitted once per hand after payout.
type HandCompleted struct {
	TableID        string             `json:"tableId"`
	HandID         string             `json:"handId"`
	HandNumber     uint64             `json:"handNum"`
	Timestamp      int64              `json:"timestamp"`
	CommunityCards [5]poker.Card      `json:"communityCards"`
	TotalPot       uint64             `json:"totalPot"`
	WinningHand    poker.HandCategory `json:"winningHand"`
	Winners        []int              `json:"winners"`
	Players        []PlayerHandResult `json:"players"`
}

// newHandCompleted captures the participants before payout. Only revealed hole cards are shown.
func (h *Hand) newHandCompleted(seats Seats, now time.Time) *HandCompleted {
	result := &HandCompleted{
		TableID:        h.TableID,
		HandID:         h.ID,
		HandNumber:     h.HandNumber,
		Timestamp:      now.Unix(),
		CommunityCards: h.CommunityCards,
		TotalPot:       h.Pot,
		WinningHand:    poker.NotEvaluated,
	}
	for _, i := range h.Participants.Seats() {
		seat := &seats[i]
		player := PlayerHandResult{
			PlayerID:  seat.PlayerID,
			SeatIndex: i,
			HoleCards: [2]poker.Card{poker.Unrevealed, poker.Unrevealed},
			HandRank:  poker.NotEvaluated,
			ChipsBet:  seat.TotalBet,
			Folded:    seat.Status == SeatFolded,
			AllIn:     seat.Status == SeatAllIn,
		}
		if seat.CardsRevealed && !player.Folded {
			player.HoleCards = seat.RevealedCards
			if h.CommunityRevealed == len(h.CommunityCards) {
				cards := append(seat.RevealedCards[:], h.CommunityCards[:]...)
				if e, err := poker.Evaluate(cards); err == nil {
					player.HandRank = e.Category
				}
			}
		}
		player.HandRankName = player.HandRank.String()
		result.Players = append(result.Players, player)
	}
	return result
}

func (r *HandCompleted) player(seat int) *PlayerHandResult {
	for i := range r.Players {
		if r.Players[i].SeatIndex == seat {
			return &r.Players[i]
		}
	}
	// active seats are always participants
	r.Players = append(r.Players, PlayerHandResult{SeatIndex: seat, HandRank: poker.NotEvaluated})
	return &r.Players[len(r.Players)-1]
}

// Payout is what the hand paid back to stacks. It equals the pot at settlement.
func (r *HandCompleted) Payout() uint64 {
	var total uint64
	for _, p := range r.Players {
		total += p.ChipsWon + p.ChipsRefunded
	}
	return total
}
