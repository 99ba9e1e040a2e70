package test

import (
	"fmt"
	"time"

	mapset "github.com/deckarep/golang-set"

	"holdem.com/server/game"
)

var scriptStart = time.Date(2021, 6, 1, 12, 0, 0, 0, time.UTC)

type TestGameScript struct {
	gameScript *GameScript
	filename   string
	manager    *game.Manager
	tableID    string
	now        time.Time
	seated     mapset.Set
}

func NewTestGameScript(gameScript *GameScript, filename string) *TestGameScript {
	return &TestGameScript{
		gameScript: gameScript,
		filename:   filename,
		now:        scriptStart,
		seated:     mapset.NewSet(),
	}
}

func (g *TestGameScript) clock() time.Time {
	return g.now
}

func (g *TestGameScript) advance(d time.Duration) {
	g.now = g.now.Add(d)
}

func (g *TestGameScript) run() error {
	if err := g.configure(); err != nil {
		return err
	}
	return g.dealHands()
}

func (g *TestGameScript) close() {
	if g.manager != nil {
		g.manager.Close()
	}
}

// configures the table with the configuration
func (g *TestGameScript) configure() error {
	players := mapset.NewSet()
	for _, p := range g.gameScript.Table.Players {
		if !g.seated.Add(p.Seat) {
			return fmt.Errorf("[table section] Seat %d is assigned twice", p.Seat)
		}
		if !players.Add(p.ID) {
			return fmt.Errorf("[table section] Player %s is seated twice", p.ID)
		}
	}

	manager, err := game.NewManager(game.NewMemoryStore(), nil, nil, game.ManagerConfig{})
	if err != nil {
		return err
	}
	manager.SetClock(g.clock)
	g.manager = manager

	table, _, err := g.manager.CreateTable(g.gameScript.Table)
	if err != nil {
		return err
	}
	g.tableID = table.ID
	return nil
}

func (g *TestGameScript) dealHands() error {
	for i := range g.gameScript.Hands {
		testHand := NewTestHand(&g.gameScript.Hands[i], g)
		if err := testHand.run(); err != nil {
			return err
		}
	}
	return nil
}

func (g *TestGameScript) verifyStacks(expected []PlayerStack, where string) error {
	if len(expected) == 0 {
		return nil
	}
	_, seats, err := g.manager.GetTable(g.tableID)
	if err != nil {
		return err
	}
	for _, stack := range expected {
		if stack.Seat < 0 || stack.Seat >= len(seats) || !g.seated.Contains(stack.Seat) {
			return fmt.Errorf("[%s section] Seat %d has no player", where, stack.Seat)
		}
		if actual := seats[stack.Seat].Chips; actual != stack.Stack {
			return fmt.Errorf("[%s section] Seat %d stack does not match. Expected: %d, actual: %d",
				where, stack.Seat, stack.Stack, actual)
		}
	}
	return nil
}
