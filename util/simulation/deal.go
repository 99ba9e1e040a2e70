package simulation

import (
	"fmt"
	"io"
	"math/rand"
	"time"

	"holdem.com/server/game"
	"holdem.com/server/poker"
)

const startingStack = 1000

var categories = []poker.HandCategory{
	poker.RoyalFlush,
	poker.StraightFlush,
	poker.FourOfAKind,
	poker.FullHouse,
	poker.Flush,
	poker.Straight,
	poker.ThreeOfAKind,
	poker.TwoPair,
	poker.OnePair,
	poker.HighCard,
}

type Report struct {
	Deals         int
	Players       int
	PlayerRanks   map[poker.HandCategory]int
	WinnerRanks   map[poker.HandCategory]int
	SplitPots     int
	OddChipAwards int
	ChipsPaidOut  uint64
}

// Run plays numDeals check-down hands through the engine and counts the hand
// categories reached at showdown.
func Run(numDeals int, numPlayers int, source rand.Source) (*Report, error) {
	if numPlayers < game.MinPlayers || numPlayers > game.MaxPlayers {
		return nil, fmt.Errorf("Number of players must be between %d and %d", game.MinPlayers, game.MaxPlayers)
	}
	report := &Report{
		Players:     numPlayers,
		PlayerRanks: make(map[poker.HandCategory]int),
		WinnerRanks: make(map[poker.HandCategory]int),
	}
	table, err := game.NewTable("simulation", numPlayers, 1, 2)
	if err != nil {
		return nil, err
	}
	deck := poker.NewDeck(source)
	now := time.Now()

	current := *table
	for i := 0; i < numDeals; i++ {
		seats := game.NewSeats(numPlayers)
		for s := range seats {
			seats[s].PlayerID = fmt.Sprintf("player%d", s+1)
			seats[s].Chips = startingStack
		}
		var result *game.HandCompleted
		current, result, err = checkDown(current, seats, deck.Shuffle(), fmt.Sprintf("deal-%d", i), now)
		if err != nil {
			return nil, err
		}
		report.add(result)
	}
	return report, nil
}

func checkDown(table game.Table, seats game.Seats, deck *poker.Deck, handID string, now time.Time) (game.Table, *game.HandCompleted, error) {
	table, h, seats, err := game.StartHand(table, seats, handID, now)
	if err != nil {
		return table, nil, err
	}
	deal := game.Deal{Hole: make(map[int][2]poker.Card)}
	for _, seat := range h.Active.Seats() {
		cards, err := deck.Draw(2)
		if err != nil {
			return table, nil, err
		}
		deal.Hole[seat] = [2]poker.Card{cards[0], cards[1]}
	}
	board, err := deck.Draw(len(deal.Board))
	if err != nil {
		return table, nil, err
	}
	copy(deal.Board[:], board)
	if h, seats, err = game.DealHoleCards(h, seats, deal, now); err != nil {
		return table, nil, err
	}

	for h.Phase.IsBetting() {
		action := game.Action{Seat: h.ActionOn, Type: game.ActionCheck}
		if h.ToCall(&seats[h.ActionOn]) > 0 {
			action.Type = game.ActionCall
		}
		if h, seats, err = game.Act(h, seats, action, now); err != nil {
			return table, nil, err
		}
	}
	for _, seat := range h.Unrevealed(seats) {
		if h, seats, err = game.RevealHoleCards(h, seats, seat, now); err != nil {
			return table, nil, err
		}
	}
	total := seats.TotalChips() + h.Pot
	_, seats, result, err := game.Settle(h, seats, now)
	if err != nil {
		return table, nil, err
	}
	if seats.TotalChips() != total {
		return table, nil, fmt.Errorf("Hand %s did not conserve chips: %d before, %d after", handID, total, seats.TotalChips())
	}
	table.Status = game.TableWaiting
	table.CurrentHandID = ""
	return table, result, nil
}

func (r *Report) add(result *game.HandCompleted) {
	r.Deals++
	r.ChipsPaidOut += result.Payout()
	r.WinnerRanks[result.WinningHand]++
	for _, p := range result.Players {
		r.PlayerRanks[p.HandRank]++
	}
	if len(result.Winners) > 1 {
		r.SplitPots++
		if result.TotalPot%uint64(len(result.Winners)) != 0 {
			r.OddChipAwards++
		}
	}
}

func (r *Report) Print(w io.Writer) {
	evaluated := r.Deals * r.Players
	fmt.Fprintf(w, "%d deals completed with %d players\n\nResult:\n", r.Deals, r.Players)
	for _, c := range categories {
		count := r.PlayerRanks[c]
		fmt.Fprintf(w, "|%-15s|%8d|%8.6f|%8d\n", c, count, float64(count)/float64(evaluated), r.WinnerRanks[c])
	}
	fmt.Fprintf(w, "Split pots            : %d/%d\n", r.SplitPots, r.Deals)
	fmt.Fprintf(w, "Odd chip awards       : %d\n", r.OddChipAwards)
	fmt.Fprintf(w, "Chips paid out        : %d\n", r.ChipsPaidOut)
}
