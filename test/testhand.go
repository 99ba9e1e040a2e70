package test

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	mapset "github.com/deckarep/golang-set"
	"github.com/pkg/errors"

	"holdem.com/server/game"
	"holdem.com/server/poker"
)

// scripted actions are spaced one second apart on the script clock
const actionGap = time.Second

var errorClasses = map[string]func(error) bool{
	"state":    game.IsStateViolation,
	"betting":  game.IsBettingRule,
	"capacity": game.IsCapacity,
	"timeout":  game.IsTimeoutNotElapsed,
	"reveal":   game.IsNotYetRevealed,
}

type scriptedAction struct {
	seat        int
	timeout     bool
	action      game.ActionType
	amount      uint64
	expectError string
}

func parseSeatAction(actionStr string) (scriptedAction, error) {
	var a scriptedAction
	s := strings.Split(strings.TrimSpace(actionStr), ",")
	for i := range s {
		s[i] = strings.TrimSpace(s[i])
	}
	if len(s) < 2 || len(s) > 4 {
		return a, fmt.Errorf("Invalid seat action [%s]", actionStr)
	}
	seat, err := strconv.Atoi(s[0])
	if err != nil {
		return a, fmt.Errorf("Invalid seat in [%s]", actionStr)
	}
	a.seat = seat
	if strings.ToUpper(s[1]) == "TIMEOUT" {
		a.timeout = true
	} else if a.action, err = game.ParseActionType(s[1]); err != nil {
		return a, err
	}
	if len(s) >= 3 && s[2] != "" {
		if a.amount, err = strconv.ParseUint(s[2], 10, 64); err != nil {
			return a, fmt.Errorf("Invalid amount in [%s]", actionStr)
		}
	}
	if len(s) == 4 {
		if _, ok := errorClasses[s[3]]; !ok {
			return a, fmt.Errorf("Unknown error class %s in [%s]", s[3], actionStr)
		}
		a.expectError = s[3]
	}
	return a, nil
}

type TestHand struct {
	hand       *Hand
	gameScript *TestGameScript
	handID     string
	snapshot   *game.HandSnapshot

	// phase of the last accepted action, reported as action-ended
	lastBettingPhase game.Phase
}

func NewTestHand(hand *Hand, gameScript *TestGameScript) *TestHand {
	return &TestHand{
		hand:       hand,
		gameScript: gameScript,
	}
}

func (h *TestHand) run() error {
	if err := h.setup(); err != nil {
		return err
	}

	rounds := []struct {
		name  string
		phase game.Phase
		round *BettingRound
	}{
		{"preflop-action", game.PhasePreFlop, &h.hand.PreflopAction},
		{"flop-action", game.PhaseFlop, &h.hand.FlopAction},
		{"turn-action", game.PhaseTurn, &h.hand.TurnAction},
		{"river-action", game.PhaseRiver, &h.hand.RiverAction},
	}
	for _, r := range rounds {
		if err := h.performBettingRound(r.name, r.phase, r.round); err != nil {
			return err
		}
	}

	if err := h.showdown(); err != nil {
		return err
	}
	if h.snapshot.Result == nil {
		return fmt.Errorf("[hand %d] No results found after the river. Hand is in %s", h.hand.Num, h.snapshot.Hand.Phase)
	}
	return h.verifyHandResult()
}

func (h *TestHand) manager() *game.Manager {
	return h.gameScript.manager
}

func (h *TestHand) setup() error {
	snapshot, err := h.manager().StartHand(h.gameScript.tableID)
	if err != nil {
		return errors.Wrap(err, "[setup section] Unable to start hand")
	}
	h.handID = snapshot.Hand.ID
	if h.hand.Num != 0 && snapshot.Hand.HandNumber != h.hand.Num {
		return fmt.Errorf("[setup section] Expected hand number %d, actual %d", h.hand.Num, snapshot.Hand.HandNumber)
	}

	deal, err := h.buildDeal()
	if err != nil {
		return err
	}
	h.gameScript.advance(actionGap)
	if h.snapshot, err = h.manager().Deal(h.handID, deal); err != nil {
		return errors.Wrap(err, "[setup section] Unable to deal")
	}
	h.lastBettingPhase = game.PhasePreFlop

	verify := h.hand.Setup.Verify
	checks := []struct {
		name     string
		expected *int
		actual   int
	}{
		{"dealer", verify.Dealer, h.snapshot.Hand.DealerSeat},
		{"small blind", verify.SB, h.snapshot.Hand.SmallBlindSeat},
		{"big blind", verify.BB, h.snapshot.Hand.BigBlindSeat},
		{"action on", verify.ActionOn, h.snapshot.Hand.ActionOn},
	}
	for _, c := range checks {
		if c.expected != nil && *c.expected != c.actual {
			return fmt.Errorf("[setup section] Expected %s seat %d, actual %d", c.name, *c.expected, c.actual)
		}
	}
	return nil
}

// buildDeal returns nil when the script leaves the cards to the shuffler.
func (h *TestHand) buildDeal() (*game.Deal, error) {
	setup := h.hand.Setup
	if len(setup.Hole) == 0 && setup.Board == "" {
		return nil, nil
	}
	deal := &game.Deal{Hole: make(map[int][2]poker.Card)}
	for seat, cardsStr := range setup.Hole {
		cards, err := poker.ParseCards(cardsStr)
		if err != nil {
			return nil, errors.Wrapf(err, "[setup section] seat %d", seat)
		}
		if len(cards) != 2 {
			return nil, fmt.Errorf("[setup section] Seat %d needs 2 hole cards, got %d", seat, len(cards))
		}
		deal.Hole[seat] = [2]poker.Card{cards[0], cards[1]}
	}
	board, err := poker.ParseCards(setup.Board)
	if err != nil {
		return nil, errors.Wrap(err, "[setup section] board")
	}
	if len(board) != len(deal.Board) {
		return nil, fmt.Errorf("[setup section] Board needs %d cards, got %d", len(deal.Board), len(board))
	}
	copy(deal.Board[:], board)
	return deal, nil
}

func (h *TestHand) performBettingRound(where string, phase game.Phase, round *BettingRound) error {
	if len(round.SeatActions) > 0 {
		if h.snapshot.Result != nil || h.snapshot.Hand.Phase != phase {
			return fmt.Errorf("[%s section] Expected the hand in %s, but it is in %s", where, phase, h.snapshot.Hand.Phase)
		}
	}

	for _, actionStr := range round.SeatActions {
		a, err := parseSeatAction(actionStr)
		if err != nil {
			return errors.Wrapf(err, "[%s section]", where)
		}
		if err := h.perform(where, a); err != nil {
			return err
		}
	}
	return h.verifyBettingRound(where, &round.Verify)
}

func (h *TestHand) perform(where string, a scriptedAction) error {
	var snapshot *game.HandSnapshot
	var err error
	phase := h.snapshot.Hand.Phase
	if a.timeout {
		h.gameScript.advance(h.manager().Config().ActionTimeout)
		snapshot, err = h.manager().ForceActionTimeout(h.handID, a.seat)
	} else {
		h.gameScript.advance(actionGap)
		snapshot, err = h.manager().Act(h.handID, game.Action{Seat: a.seat, Type: a.action, Amount: a.amount})
	}

	if a.expectError != "" {
		if err == nil {
			return fmt.Errorf("[%s section] Seat %d %s was accepted, expected a %s error", where, a.seat, a.action, a.expectError)
		}
		if !errorClasses[a.expectError](err) {
			return fmt.Errorf("[%s section] Seat %d %s failed with %v, expected a %s error", where, a.seat, a.action, err, a.expectError)
		}
		return nil
	}
	if err != nil {
		return errors.Wrapf(err, "[%s section] Seat %d action failed", where, a.seat)
	}
	h.snapshot = snapshot
	h.lastBettingPhase = phase
	return nil
}

func (h *TestHand) verifyBettingRound(where string, verify *VerifyBettingRound) error {
	hand := h.snapshot.Hand
	if verify.State != "" && verify.State != hand.Phase.String() {
		return fmt.Errorf("[%s section] Expected state %s, actual %s", where, verify.State, hand.Phase)
	}
	if verify.Board != "" {
		expected, err := poker.ParseCards(verify.Board)
		if err != nil {
			return errors.Wrapf(err, "[%s section] board", where)
		}
		actual := hand.CommunityCards[:hand.CommunityRevealed]
		if !reflect.DeepEqual(expected, actual) {
			return fmt.Errorf("[%s section] Expected board %s, actual %s", where,
				poker.CardsToString(expected), poker.CardsToString(actual))
		}
	}
	if verify.Pot != nil && *verify.Pot != hand.Pot {
		return fmt.Errorf("[%s section] Expected pot %d, actual %d", where, *verify.Pot, hand.Pot)
	}
	return h.gameScript.verifyStacks(verify.Stacks, where)
}

func (h *TestHand) showdown() error {
	if h.snapshot.Result != nil || h.snapshot.Hand.Phase != game.PhaseShowdown {
		return nil
	}
	reveal := h.snapshot.Hand.Unrevealed(h.snapshot.Seats)
	var timeouts []int
	if h.hand.Showdown != nil {
		reveal, timeouts = h.hand.Showdown.Reveal, h.hand.Showdown.Timeout
	}

	var err error
	for _, seat := range reveal {
		h.gameScript.advance(actionGap)
		if h.snapshot, err = h.manager().Reveal(h.handID, seat); err != nil {
			return errors.Wrapf(err, "[showdown section] Seat %d reveal failed", seat)
		}
	}
	if len(timeouts) > 0 {
		h.gameScript.advance(h.manager().Config().RevealTimeout)
	}
	for _, seat := range timeouts {
		if h.snapshot, err = h.manager().ForceRevealTimeout(h.handID, seat); err != nil {
			return errors.Wrapf(err, "[showdown section] Seat %d reveal timeout failed", seat)
		}
	}
	return nil
}

func (h *TestHand) verifyHandResult() error {
	expected := h.hand.Result
	result := h.snapshot.Result

	if len(expected.Winners) > 0 {
		expectedWinners := mapset.NewSet()
		for _, w := range expected.Winners {
			expectedWinners.Add(w.Seat)
		}
		actualWinners := mapset.NewSet()
		for _, seat := range result.Winners {
			actualWinners.Add(seat)
		}
		if !expectedWinners.Equal(actualWinners) {
			return fmt.Errorf("[result section] Expected winners %v, actual %v", expectedWinners, actualWinners)
		}
	}

	players := make(map[int]game.PlayerHandResult)
	for _, p := range result.Players {
		players[p.SeatIndex] = p
	}
	for _, w := range expected.Winners {
		p := players[w.Seat]
		if p.ChipsWon != w.Receive {
			return fmt.Errorf("[result section] Seat %d expected to receive %d, actual %d", w.Seat, w.Receive, p.ChipsWon)
		}
		if w.RankStr != "" && w.RankStr != p.HandRank.String() {
			return fmt.Errorf("[result section] Seat %d expected rank %s, actual %s", w.Seat, w.RankStr, p.HandRank)
		}
	}
	for _, r := range expected.Refunds {
		if actual := players[r.Seat].ChipsRefunded; actual != r.Amount {
			return fmt.Errorf("[result section] Seat %d expected refund %d, actual %d", r.Seat, r.Amount, actual)
		}
	}

	if expected.ActionEndedAt != "" && expected.ActionEndedAt != h.lastBettingPhase.String() {
		return fmt.Errorf("[result section] Expected action to end at %s, actual %s", expected.ActionEndedAt, h.lastBettingPhase)
	}
	return h.gameScript.verifyStacks(expected.Stacks, "result")
}
