package test

import (
	"holdem.com/server/game"
)

/*
   setup:
     hole:
       0: Ah As
       2: 2c 7d
     board: Kd 9s 5h 3c Jd
     verify:
       dealer: 0
       sb: 1
       bb: 2
*/
type HandSetup struct {
	Hole   map[int]string  `yaml:"hole"`
	Board  string          `yaml:"board"`
	Verify VerifyHandSetup `yaml:"verify"`
}

type VerifyHandSetup struct {
	Dealer   *int `yaml:"dealer"`
	SB       *int `yaml:"sb"`
	BB       *int `yaml:"bb"`
	ActionOn *int `yaml:"action-on"`
}

type VerifyBettingRound struct {
	State  string        `yaml:"state"`
	Board  string        `yaml:"board"`
	Pot    *uint64       `yaml:"pot"`
	Stacks []PlayerStack `yaml:"stacks"`
}

// seat-actions entries read "seat, ACTION[, amount[, expected error class]]".
// TIMEOUT advances the clock past the action window and forces the default action.
type BettingRound struct {
	SeatActions []string           `yaml:"seat-actions"`
	Verify      VerifyBettingRound `yaml:"verify"`
}

type Showdown struct {
	Reveal  []int `yaml:"reveal"`
	Timeout []int `yaml:"timeout"`
}

type TestHandWinner struct {
	Seat    int    `yaml:"seat"`
	Receive uint64 `yaml:"receive"`
	RankStr string `yaml:"rank"`
}

type PlayerStack struct {
	Seat  int    `yaml:"seat"`
	Stack uint64 `yaml:"stack"`
}

type PlayerRefund struct {
	Seat   int    `yaml:"seat"`
	Amount uint64 `yaml:"amount"`
}

type TestHandResult struct {
	Winners       []TestHandWinner `yaml:"winners"`
	ActionEndedAt string           `yaml:"action-ended"`
	Refunds       []PlayerRefund   `yaml:"refunds"`
	Stacks        []PlayerStack    `yaml:"stacks"`
}

type Hand struct {
	Num           uint64         `yaml:"num"`
	Setup         HandSetup      `yaml:"setup"`
	PreflopAction BettingRound   `yaml:"preflop-action"`
	FlopAction    BettingRound   `yaml:"flop-action"`
	TurnAction    BettingRound   `yaml:"turn-action"`
	RiverAction   BettingRound   `yaml:"river-action"`
	Showdown      *Showdown      `yaml:"showdown"`
	Result        TestHandResult `yaml:"result"`
}

type GameScript struct {
	Disabled bool             `yaml:"disabled"`
	Table    game.TableConfig `yaml:"table"`
	Hands    []Hand           `yaml:"hands"`
}
