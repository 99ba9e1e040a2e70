package poker

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/cucumber/godog"
)

type rankingContext struct {
	first, second         []Card
	firstHand, secondHand EvaluatedHand
	comparison            int
}

func (r *rankingContext) theCards(s string) error {
	cards, err := ParseCards(s)
	r.first = cards
	return err
}

func (r *rankingContext) theOtherCards(s string) error {
	cards, err := ParseCards(s)
	r.second = cards
	return err
}

func (r *rankingContext) theHandIsEvaluated() error {
	var err error
	r.firstHand, err = Evaluate(r.first)
	return err
}

func (r *rankingContext) bothHandsAreCompared() error {
	var err error
	if r.firstHand, err = Evaluate(r.first); err != nil {
		return err
	}
	if r.secondHand, err = Evaluate(r.second); err != nil {
		return err
	}
	r.comparison = Compare(r.firstHand, r.secondHand)
	return nil
}

func (r *rankingContext) theCategoryIs(name string) error {
	if r.firstHand.Category.String() != name {
		return fmt.Errorf("expected %s, got %s", name, r.firstHand.Category)
	}
	return nil
}

func (r *rankingContext) kickerIs(slot int, rank string) error {
	if slot < 1 || slot > 5 {
		return fmt.Errorf("kicker slot %d out of range", slot)
	}
	got := string(strRanks[r.firstHand.Kickers[slot-1]])
	if got != rank {
		return fmt.Errorf("kicker %d is %s, expected %s", slot, got, rank)
	}
	return nil
}

func (r *rankingContext) theKickersAre(ranks string) error {
	for i, rank := range strings.Fields(ranks) {
		if err := r.kickerIs(i+1, rank); err != nil {
			return err
		}
	}
	return nil
}

func (r *rankingContext) theFirstHandLoses() error {
	if r.comparison != -1 {
		return fmt.Errorf("expected first hand to lose, comparison %d (%s vs %s)", r.comparison, r.firstHand, r.secondHand)
	}
	return nil
}

func (r *rankingContext) theHandsTie() error {
	if r.comparison != 0 {
		return fmt.Errorf("expected a tie, comparison %d (%s vs %s)", r.comparison, r.firstHand, r.secondHand)
	}
	return nil
}

func initializeRankingScenario(ctx *godog.ScenarioContext) {
	r := &rankingContext{}
	ctx.Before(func(c context.Context, sc *godog.Scenario) (context.Context, error) {
		*r = rankingContext{}
		return c, nil
	})

	ctx.Step(`^the cards "([^"]*)"$`, r.theCards)
	ctx.Step(`^the other cards "([^"]*)"$`, r.theOtherCards)
	ctx.Step(`^the hand is evaluated$`, r.theHandIsEvaluated)
	ctx.Step(`^both hands are compared$`, r.bothHandsAreCompared)
	ctx.Step(`^the category is "([^"]*)"$`, r.theCategoryIs)
	ctx.Step(`^kicker (\d+) is "([^"]*)"$`, r.kickerIs)
	ctx.Step(`^the kickers are "([^"]*)"$`, r.theKickersAre)
	ctx.Step(`^the first hand loses$`, r.theFirstHandLoses)
	ctx.Step(`^the hands tie$`, r.theHandsTie)
}

func TestRankingFeatures(t *testing.T) {
	suite := godog.TestSuite{
		ScenarioInitializer: initializeRankingScenario,
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"features/evaluator.feature"},
			TestingT: t,
		},
	}

	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}
