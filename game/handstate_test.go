package game

import (
	"fmt"
	"math/rand"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"holdem.com/server/poker"
)

var startTime = time.Unix(1700000000, 0)

func cards(t *testing.T, s string) []poker.Card {
	t.Helper()
	c, err := poker.ParseCards(s)
	require.NoError(t, err)
	return c
}

// newTestHand starts a hand with one seat per stack; a zero stack leaves the seat empty.
func newTestHand(t *testing.T, sb, bb uint64, stacks ...uint64) (Table, Hand, Seats) {
	t.Helper()
	table, err := NewTable("table1", len(stacks), sb, bb)
	require.NoError(t, err)
	seats := NewSeats(len(stacks))
	for i, chips := range stacks {
		if chips > 0 {
			seats[i].PlayerID = fmt.Sprintf("player%d", i+1)
			seats[i].Chips = chips
		}
	}
	nextTable, h, seats, err := StartHand(*table, seats, "hand1", startTime)
	require.NoError(t, err)
	return nextTable, h, seats
}

// dealTestHand deals the given hole cards ("seat:cards" pairs separated by '|') and board.
func dealTestHand(t *testing.T, h Hand, seats Seats, holes string, board string) (Hand, Seats) {
	t.Helper()
	deal := Deal{Hole: map[int][2]poker.Card{}}
	for _, part := range strings.Split(holes, "|") {
		var seat int
		var c1, c2 string
		_, err := fmt.Sscanf(strings.TrimSpace(part), "%d: %s %s", &seat, &c1, &c2)
		require.NoError(t, err)
		hole := cards(t, c1+" "+c2)
		deal.Hole[seat] = [2]poker.Card{hole[0], hole[1]}
	}
	copy(deal.Board[:], cards(t, board))
	h, seats, err := DealHoleCards(h, seats, deal, startTime)
	require.NoError(t, err)
	return h, seats
}

func act(t *testing.T, h Hand, seats Seats, seat int, action ActionType, amount uint64) (Hand, Seats) {
	t.Helper()
	h, seats, err := Act(h, seats, Action{Seat: seat, Type: action, Amount: amount}, startTime)
	require.NoError(t, err, "seat %d %s %d", seat, action, amount)
	return h, seats
}

func TestStartHandPositions(t *testing.T) {
	testCases := []struct {
		stacks   []uint64
		dealer   int
		sb       int
		bb       int
		actionOn int
	}{
		{[]uint64{1000, 1000, 1000}, 0, 1, 2, 0},
		{[]uint64{1000, 1000, 1000, 1000}, 0, 1, 2, 3},
		{[]uint64{0, 1000, 0, 1000, 1000}, 1, 3, 4, 1},
		// heads up: the button posts the big blind
		{[]uint64{1000, 1000}, 0, 1, 0, 1},
	}

	for i, tc := range testCases {
		_, h, seats := newTestHand(t, 5, 10, tc.stacks...)
		deal := Deal{Hole: map[int][2]poker.Card{}}
		next := poker.Card(0)
		for _, seat := range h.Active.Seats() {
			deal.Hole[seat] = [2]poker.Card{next, next + 1}
			next += 2
		}
		for k := range deal.Board {
			deal.Board[k] = next
			next++
		}
		h, seats, err := DealHoleCards(h, seats, deal, startTime)
		if err != nil {
			t.Errorf("Test case %d: %v", i, err)
			continue
		}
		got := []int{h.DealerSeat, h.SmallBlindSeat, h.BigBlindSeat, h.ActionOn}
		expected := []int{tc.dealer, tc.sb, tc.bb, tc.actionOn}
		if !cmp.Equal(got, expected) {
			t.Errorf("Test case %d: positions %s", i, cmp.Diff(expected, got))
		}
		if h.Pot != 15 || h.CurrentBet != 10 || h.MinRaise != 10 {
			t.Errorf("Test case %d: pot %d current bet %d min raise %d", i, h.Pot, h.CurrentBet, h.MinRaise)
		}
		if seats[tc.bb].HasActed || h.Acted.Count() != 0 {
			t.Errorf("Test case %d: blinds must not count as acting", i)
		}
	}
}

func TestStartHandRequiresTwoPlayers(t *testing.T) {
	table, err := NewTable("table1", 3, 5, 10)
	require.NoError(t, err)
	seats := NewSeats(3)
	seats[0].PlayerID, seats[0].Chips = "player1", 100
	seats[1].PlayerID = "busted"
	_, _, _, err = StartHand(*table, seats, "hand1", startTime)
	require.True(t, IsCapacity(err), "%v", err)

	seats[1].Chips = 100
	next, _, _, err := StartHand(*table, seats, "hand1", startTime)
	require.NoError(t, err)
	_, _, _, err = StartHand(next, seats, "hand2", startTime)
	require.True(t, IsStateViolation(err), "%v", err)
}

func TestDealRejectsBadCards(t *testing.T) {
	_, h, seats := newTestHand(t, 5, 10, 1000, 1000)
	board := [5]poker.Card{10, 11, 12, 13, 14}

	testCases := []Deal{
		{Hole: map[int][2]poker.Card{0: {0, 1}}, Board: board},
		{Hole: map[int][2]poker.Card{0: {0, 1}, 1: {1, 2}}, Board: board},
		{Hole: map[int][2]poker.Card{0: {0, 1}, 1: {2, 10}}, Board: board},
		{Hole: map[int][2]poker.Card{0: {0, 1}, 1: {2, poker.Unrevealed}}, Board: board},
	}
	for i, deal := range testCases {
		gotHand, gotSeats, err := DealHoleCards(h, seats, deal, startTime)
		if !IsCapacity(err) {
			t.Errorf("Test case %d: expected capacity error, got %v", i, err)
		}
		if !cmp.Equal(gotHand, h) || !cmp.Equal(gotSeats, seats) {
			t.Errorf("Test case %d: rejected deal changed the state", i)
		}
	}
}

func TestFoldToWin(t *testing.T) {
	_, h, seats := newTestHand(t, 5, 10, 1000, 1000, 1000)
	h, seats = dealTestHand(t, h, seats, "0: Ah Kh|1: 2c 7d|2: 9s 9d", "2h 3h 4h 5d 6d")

	h, seats = act(t, h, seats, 0, ActionFold, 0)
	require.Equal(t, 1, h.ActionOn)
	h, seats = act(t, h, seats, 1, ActionFold, 0)

	require.Equal(t, PhaseSettled, h.Phase)
	require.Equal(t, 1, h.ActiveCount)
	require.True(t, h.PayoutPending())
	require.Equal(t, 0, h.CommunityRevealed)

	h, seats, result, err := Settle(h, seats, startTime)
	require.NoError(t, err)
	assert.Equal(t, []uint64{1000, 995, 1005}, []uint64{seats[0].Chips, seats[1].Chips, seats[2].Chips})
	assert.Equal(t, uint64(0), h.Pot)
	assert.False(t, h.PayoutPending())
	assert.Equal(t, []int{2}, result.Winners)
	assert.Equal(t, uint64(15), result.TotalPot)
	assert.Equal(t, poker.NotEvaluated, result.WinningHand)
	for _, p := range result.Players {
		assert.Equal(t, [2]poker.Card{poker.Unrevealed, poker.Unrevealed}, p.HoleCards, "seat %d", p.SeatIndex)
	}

	_, _, _, err = Settle(h, seats, startTime)
	require.True(t, IsStateViolation(err), "second payout must be rejected: %v", err)
}

func TestAllInRunout(t *testing.T) {
	_, h, seats := newTestHand(t, 5, 10, 500, 1000)
	h, seats = dealTestHand(t, h, seats, "0: 2c 7d|1: Ah As", "Kd 9s 5h 3c Jd")
	require.Equal(t, 0, h.BigBlindSeat)
	require.Equal(t, 1, h.ActionOn)

	h, seats = act(t, h, seats, 1, ActionAllIn, 0)
	require.Equal(t, uint64(1000), h.CurrentBet)
	require.Equal(t, 0, h.ActionOn)
	h, seats = act(t, h, seats, 0, ActionCall, 0)

	require.Equal(t, PhaseShowdown, h.Phase)
	require.Equal(t, 5, h.CommunityRevealed)
	require.Equal(t, cards(t, "Kd 9s 5h 3c Jd"), h.CommunityCards[:])
	require.Equal(t, uint64(1500), h.Pot)
	require.Equal(t, SeatSet{true, true}, h.AllIn)

	_, _, _, err := Settle(h, seats, startTime)
	require.True(t, IsNotYetRevealed(err), "%v", err)

	h, seats, err = RevealHoleCards(h, seats, 0, startTime)
	require.NoError(t, err)
	h, seats, err = RevealHoleCards(h, seats, 1, startTime)
	require.NoError(t, err)
	_, _, err = RevealHoleCards(h, seats, 1, startTime)
	require.True(t, IsStateViolation(err))

	h, seats, result, err := Settle(h, seats, startTime)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), seats[0].Chips)
	assert.Equal(t, uint64(1500), seats[1].Chips)
	assert.Equal(t, PhaseSettled, h.Phase)
	assert.Equal(t, []int{1}, result.Winners)
	assert.Equal(t, poker.OnePair, result.WinningHand)

	expected := []PlayerHandResult{
		{PlayerID: "player1", SeatIndex: 0, HoleCards: [2]poker.Card{cards(t, "2c")[0], cards(t, "7d")[0]},
			HandRank: poker.HighCard, HandRankName: "High Card", ChipsBet: 500, AllIn: true},
		{PlayerID: "player2", SeatIndex: 1, HoleCards: [2]poker.Card{cards(t, "Ah")[0], cards(t, "As")[0]},
			HandRank: poker.OnePair, HandRankName: "Pair", ChipsWon: 1000, ChipsRefunded: 500, ChipsBet: 1000, AllIn: true},
	}
	if !cmp.Equal(result.Players, expected) {
		t.Errorf("Completion record: %s", cmp.Diff(expected, result.Players))
	}
	assert.Equal(t, uint64(1500), result.Payout())
	for i := range seats {
		assert.Equal(t, SeatSitting, seats[i].Status)
		assert.Equal(t, uint64(0), seats[i].TotalBet)
	}
}

func TestSplitPotRemainderToLowestSeat(t *testing.T) {
	_, h, seats := newTestHand(t, 1, 2, 1000, 1000, 1000)
	h, seats = dealTestHand(t, h, seats, "0: 2c 2d|1: Ks Kh|2: 3d 3h", "5c 6d 7h 8s 9c")

	h, seats = act(t, h, seats, 0, ActionRaise, 500)
	h, seats = act(t, h, seats, 1, ActionFold, 0)
	h, seats = act(t, h, seats, 2, ActionCall, 0)
	require.Equal(t, uint64(1001), h.Pot)
	require.Equal(t, PhaseFlop, h.Phase)
	require.Equal(t, 2, h.ActionOn)
	require.Equal(t, uint64(0), h.CurrentBet)

	for _, phase := range []Phase{PhaseTurn, PhaseRiver, PhaseShowdown} {
		h, seats = act(t, h, seats, 2, ActionCheck, 0)
		h, seats = act(t, h, seats, 0, ActionCheck, 0)
		require.Equal(t, phase, h.Phase)
	}
	require.Equal(t, []int{0, 2}, h.Unrevealed(seats))

	var err error
	for _, seat := range []int{2, 0} {
		h, seats, err = RevealHoleCards(h, seats, seat, startTime)
		require.NoError(t, err)
	}
	_, seats, result, err := Settle(h, seats, startTime)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 2}, result.Winners)
	assert.Equal(t, uint64(1001), seats[0].Chips)
	assert.Equal(t, uint64(999), seats[1].Chips)
	assert.Equal(t, uint64(1000), seats[2].Chips)
	assert.Equal(t, uint64(3000), seats.TotalChips())
	assert.Equal(t, poker.Straight, result.WinningHand)
}

func TestRaiseReopensAction(t *testing.T) {
	_, h, seats := newTestHand(t, 5, 10, 1000, 1000, 1000)
	h, seats = dealTestHand(t, h, seats, "0: Ah Kh|1: 2c 7d|2: 9s 9d", "2h 3h 4h 5d 6d")

	h, seats = act(t, h, seats, 0, ActionCall, 0)
	h, seats = act(t, h, seats, 1, ActionCall, 0)
	require.Equal(t, 2, h.ActionOn, "big blind gets the option")
	require.Equal(t, SeatSet{true, true}, h.Acted)
	require.False(t, h.IsBettingComplete())

	h, seats = act(t, h, seats, 2, ActionRaise, 20)
	assert.Equal(t, uint64(30), h.CurrentBet)
	assert.Equal(t, uint64(20), h.MinRaise)
	assert.Equal(t, SeatSet{false, false, true}, h.Acted)
	assert.False(t, seats[0].HasActed)
	assert.Equal(t, 0, h.ActionOn)

	_, _, err := Act(h, seats, Action{Seat: 0, Type: ActionRaise, Amount: 39}, startTime)
	assert.True(t, IsBettingRule(err), "re-raise to 49 is short of 50: %v", err)
	h, seats = act(t, h, seats, 0, ActionRaise, 40)
	assert.Equal(t, uint64(50), h.CurrentBet)
	assert.Equal(t, 1, h.ActionOn)

	h, seats = act(t, h, seats, 1, ActionCall, 0)
	h, _ = act(t, h, seats, 2, ActionCall, 0)
	assert.Equal(t, PhaseFlop, h.Phase)
	assert.Equal(t, 3, h.CommunityRevealed)
	assert.Equal(t, 1, h.ActionOn)
	assert.Equal(t, uint64(150), h.Pot)
	assert.Equal(t, uint64(10), h.MinRaise)
}

func TestActRejections(t *testing.T) {
	_, h, seats := newTestHand(t, 5, 10, 1000, 1000, 1000)
	_, _, err := Act(h, seats, Action{Seat: 0, Type: ActionCheck}, startTime)
	require.True(t, IsStateViolation(err), "acting before the deal: %v", err)

	h, seats = dealTestHand(t, h, seats, "0: Ah Kh|1: 2c 7d|2: 9s 9d", "2h 3h 4h 5d 6d")

	testCases := []struct {
		action    Action
		isExpected func(error) bool
	}{
		{Action{Seat: 1, Type: ActionCall}, IsStateViolation},
		{Action{Seat: 7, Type: ActionCall}, IsStateViolation},
		{Action{Seat: 0, Type: ActionCheck}, IsBettingRule},
		{Action{Seat: 0, Type: ActionRaise, Amount: 19}, IsBettingRule},
		{Action{Seat: 0, Type: ActionType(42)}, IsStateViolation},
	}
	for i, tc := range testCases {
		gotHand, gotSeats, err := Act(h, seats, tc.action, startTime.Add(time.Minute))
		if !tc.isExpected(err) {
			t.Errorf("Test case %d: unexpected error %v", i, err)
		}
		if !cmp.Equal(gotHand, h) || !cmp.Equal(gotSeats, seats) {
			t.Errorf("Test case %d: rejected action changed the state", i)
		}
	}

	h, seats = act(t, h, seats, 0, ActionCall, 0)
	h, seats = act(t, h, seats, 1, ActionCall, 0)
	_, _, err = Act(h, seats, Action{Seat: 2, Type: ActionCall}, startTime)
	require.True(t, IsBettingRule(err), "nothing to call: %v", err)
}

func TestAllInUnderCallRunsOutTheBoard(t *testing.T) {
	_, h, seats := newTestHand(t, 5, 10, 1000, 1000, 40)
	h, seats = dealTestHand(t, h, seats, "0: Ah Kh|1: 2c 7d|2: 9s 9d", "2h 3h 4h 5d 6d")

	h, seats = act(t, h, seats, 0, ActionRaise, 100)
	h, seats = act(t, h, seats, 1, ActionFold, 0)
	h, seats = act(t, h, seats, 2, ActionAllIn, 0)
	require.Equal(t, SeatAllIn, seats[2].Status)
	require.Equal(t, uint64(0), seats[2].Chips)

	// only one seat can still bet: straight to showdown with the round reset
	require.Equal(t, PhaseShowdown, h.Phase)
	require.Equal(t, 5, h.CommunityRevealed)
	require.False(t, h.CanAnyoneBet())
	assert.Equal(t, NoSeat, h.ActionOn)
	assert.Equal(t, uint64(0), h.CurrentBet)
	assert.Equal(t, uint64(145), h.Pot)

	expected := []uint64{100, 5, 40}
	for i, totalBet := range expected {
		if seats[i].TotalBet != totalBet {
			t.Errorf("Seat %d: total bet %d, expected %d", i, seats[i].TotalBet, totalBet)
		}
		if seats[i].CurrentBet != 0 {
			t.Errorf("Seat %d: street bet %d was not reset", i, seats[i].CurrentBet)
		}
	}
	assert.Equal(t, uint64(900), seats[0].Chips)
}

func TestShortAllInRaiseReopensBetting(t *testing.T) {
	_, h, seats := newTestHand(t, 5, 10, 1000, 1000, 140)
	h, seats = dealTestHand(t, h, seats, "0: Ah Kh|1: 2c 7d|2: 9s 9d", "2h 3h 4h 5d 6d")

	h, seats = act(t, h, seats, 0, ActionRaise, 100)
	h, seats = act(t, h, seats, 1, ActionCall, 0)
	h, seats = act(t, h, seats, 2, ActionAllIn, 0)

	// 40 over the bet is short of a full raise of 90, the action is still reopened
	require.Equal(t, PhasePreFlop, h.Phase)
	assert.Equal(t, uint64(140), h.CurrentBet)
	assert.Equal(t, uint64(40), h.MinRaise)
	assert.Equal(t, uint64(340), h.Pot)
	assert.Equal(t, []int{2}, h.Acted.Seats())
	assert.Equal(t, 0, h.ActionOn)
	assert.False(t, seats[0].HasActed)
	assert.False(t, seats[1].HasActed)

	_, _, err := Act(h, seats, Action{Seat: 0, Type: ActionRaise, Amount: 70}, startTime)
	require.True(t, IsBettingRule(err), "raise of 30 is below the new minimum: %v", err)

	h, seats = act(t, h, seats, 0, ActionRaise, 80)
	assert.Equal(t, uint64(180), h.CurrentBet)
	assert.Equal(t, uint64(40), h.MinRaise)
	assert.Equal(t, 1, h.ActionOn)
}

func randomLegalAction(r *rand.Rand, h Hand, seats Seats) Action {
	seat := &seats[h.ActionOn]
	toCall := h.ToCall(seat)
	options := []Action{{Seat: seat.Index, Type: ActionFold}, {Seat: seat.Index, Type: ActionAllIn}}
	if toCall == 0 {
		options = append(options, Action{Seat: seat.Index, Type: ActionCheck}, Action{Seat: seat.Index, Type: ActionCheck})
	} else {
		options = append(options, Action{Seat: seat.Index, Type: ActionCall}, Action{Seat: seat.Index, Type: ActionCall})
	}
	minRaise := h.CurrentBet + h.MinRaise - seat.CurrentBet
	if minRaise < seat.Chips {
		amount := minRaise + uint64(r.Int63n(int64(seat.Chips-minRaise)))
		options = append(options, Action{Seat: seat.Index, Type: ActionRaise, Amount: amount})
	}
	return options[r.Intn(len(options))]
}

func TestRandomHandsConserveChips(t *testing.T) {
	r := rand.New(rand.NewSource(3))
	for game := 0; game < 300; game++ {
		n := 2 + r.Intn(MaxPlayers-1)
		stacks := make([]uint64, n)
		for i := range stacks {
			stacks[i] = uint64(20 + r.Intn(2000))
		}
		_, h, seats := newTestHand(t, 5, 10, stacks...)
		total := seats.TotalChips()

		deck := poker.NewDeck(rand.NewSource(int64(game)))
		deal := Deal{Hole: map[int][2]poker.Card{}}
		for _, seat := range h.Active.Seats() {
			hole, _ := deck.Draw(2)
			deal.Hole[seat] = [2]poker.Card{hole[0], hole[1]}
		}
		board, _ := deck.Draw(5)
		copy(deal.Board[:], board)
		h, seats, err := DealHoleCards(h, seats, deal, startTime)
		require.NoError(t, err)

		for steps := 0; h.Phase.IsBetting(); steps++ {
			require.Less(t, steps, 200, "hand did not terminate")
			require.True(t, h.Active.Has(h.ActionOn))
			require.Equal(t, h.Active.Count(), h.ActiveCount)
			action := randomLegalAction(r, h, seats)
			h, seats, err = Act(h, seats, action, startTime)
			require.NoError(t, err, "game %d %s", game, action)
			require.Equal(t, total, seats.TotalChips()+h.Pot, "game %d after %s", game, action)
			for i := range seats {
				if seats[i].Status == SeatAllIn {
					require.Equal(t, uint64(0), seats[i].Chips)
				}
			}
		}

		if h.Phase == PhaseShowdown {
			for _, seat := range h.Unrevealed(seats) {
				h, seats, err = RevealHoleCards(h, seats, seat, startTime)
				require.NoError(t, err)
			}
		}
		pot := h.Pot
		_, seats, result, err := Settle(h, seats, startTime)
		require.NoError(t, err, "game %d", game)
		require.Equal(t, total, seats.TotalChips(), "game %d", game)
		require.Equal(t, pot, result.Payout(), "game %d", game)
	}
}
