package poker

import (
	"fmt"
	"sort"
)

type HandCategory uint8

const (
	HighCard HandCategory = iota
	OnePair
	TwoPair
	ThreeOfAKind
	Straight
	Flush
	FullHouse
	FourOfAKind
	StraightFlush
	RoyalFlush
)

// NotEvaluated marks a seat whose hand was never ranked (folded or not shown).
const NotEvaluated HandCategory = 255

var categoryToString = map[HandCategory]string{
	HighCard:      "High Card",
	OnePair:       "Pair",
	TwoPair:       "Two Pair",
	ThreeOfAKind:  "Three of a Kind",
	Straight:      "Straight",
	Flush:         "Flush",
	FullHouse:     "Full House",
	FourOfAKind:   "Four of a Kind",
	StraightFlush: "Straight Flush",
	RoyalFlush:    "Royal Flush",
	NotEvaluated:  "N/A",
}

func (c HandCategory) String() string {
	if s, ok := categoryToString[c]; ok {
		return s
	}
	return fmt.Sprintf("HandCategory(%d)", uint8(c))
}

// EvaluatedHand is a hand category plus five descending kicker ranks, zero padded.
type EvaluatedHand struct {
	Category HandCategory `json:"category"`
	Kickers  [5]uint8     `json:"kickers"`
}

func (e EvaluatedHand) String() string {
	return fmt.Sprintf("%s %v", e.Category, e.Kickers)
}

// Compare returns 1 when a beats b, -1 when b beats a and 0 on a tie.
func Compare(a, b EvaluatedHand) int {
	if a.Category != b.Category {
		if a.Category < b.Category {
			return -1
		}
		return 1
	}
	for i := 0; i < len(a.Kickers); i++ {
		if a.Kickers[i] == b.Kickers[i] {
			continue
		}
		if a.Kickers[i] < b.Kickers[i] {
			return -1
		}
		return 1
	}
	return 0
}

var combos7Choose5 = [21][5]int{
	{0, 1, 2, 3, 4},
	{0, 1, 2, 3, 5},
	{0, 1, 2, 3, 6},
	{0, 1, 2, 4, 5},
	{0, 1, 2, 4, 6},
	{0, 1, 2, 5, 6},
	{0, 1, 3, 4, 5},
	{0, 1, 3, 4, 6},
	{0, 1, 3, 5, 6},
	{0, 1, 4, 5, 6},
	{0, 2, 3, 4, 5},
	{0, 2, 3, 4, 6},
	{0, 2, 3, 5, 6},
	{0, 2, 4, 5, 6},
	{0, 3, 4, 5, 6},
	{1, 2, 3, 4, 5},
	{1, 2, 3, 4, 6},
	{1, 2, 3, 5, 6},
	{1, 2, 4, 5, 6},
	{1, 3, 4, 5, 6},
	{2, 3, 4, 5, 6},
}

// Evaluate ranks the best five card hand out of exactly seven distinct cards.
func Evaluate(cards []Card) (EvaluatedHand, error) {
	if len(cards) != 7 {
		return EvaluatedHand{}, fmt.Errorf("Evaluate expects 7 cards, got %d", len(cards))
	}
	if err := ValidateDistinct(cards); err != nil {
		return EvaluatedHand{}, err
	}

	var best EvaluatedHand
	for i, idx := range combos7Choose5 {
		five := [5]Card{cards[idx[0]], cards[idx[1]], cards[idx[2]], cards[idx[3]], cards[idx[4]]}
		e := evaluate5(five)
		if i == 0 || Compare(e, best) > 0 {
			best = e
		}
	}
	return best, nil
}

func isStraight(ranks [5]uint8) bool {
	for i := 0; i < 4; i++ {
		if ranks[i] != ranks[i+1]+1 {
			return false
		}
	}
	return true
}

func evaluate5(cards [5]Card) EvaluatedHand {
	var ranks [5]uint8
	flush := true
	for i, c := range cards {
		ranks[i] = c.Rank()
		if c.Suit() != cards[0].Suit() {
			flush = false
		}
	}
	sort.Slice(ranks[:], func(i, j int) bool { return ranks[i] > ranks[j] })

	straight := isStraight(ranks)
	wheel := ranks == [5]uint8{RankAce, RankFive, RankFour, RankThree, RankTwo}

	if flush && (straight || wheel) {
		if wheel {
			return EvaluatedHand{Category: StraightFlush, Kickers: [5]uint8{RankFive}}
		}
		if ranks[0] == RankAce {
			return EvaluatedHand{Category: RoyalFlush, Kickers: ranks}
		}
		return EvaluatedHand{Category: StraightFlush, Kickers: [5]uint8{ranks[0]}}
	}

	var counts [NumRanks]uint8
	for _, r := range ranks {
		counts[r]++
	}

	// groups ordered by rank descending within each multiplicity
	quads, trips := -1, -1
	var pairs, singles []uint8
	for r := NumRanks - 1; r >= 0; r-- {
		switch counts[r] {
		case 4:
			quads = r
		case 3:
			trips = r
		case 2:
			pairs = append(pairs, uint8(r))
		case 1:
			singles = append(singles, uint8(r))
		}
	}

	switch {
	case quads >= 0:
		return EvaluatedHand{Category: FourOfAKind, Kickers: [5]uint8{uint8(quads), singles[0]}}
	case trips >= 0 && len(pairs) > 0:
		return EvaluatedHand{Category: FullHouse, Kickers: [5]uint8{uint8(trips), pairs[0]}}
	case flush:
		return EvaluatedHand{Category: Flush, Kickers: ranks}
	case straight:
		return EvaluatedHand{Category: Straight, Kickers: [5]uint8{ranks[0]}}
	case wheel:
		return EvaluatedHand{Category: Straight, Kickers: [5]uint8{RankFive}}
	case trips >= 0:
		return EvaluatedHand{Category: ThreeOfAKind, Kickers: [5]uint8{uint8(trips), singles[0], singles[1]}}
	case len(pairs) == 2:
		return EvaluatedHand{Category: TwoPair, Kickers: [5]uint8{pairs[0], pairs[1], singles[0]}}
	case len(pairs) == 1:
		return EvaluatedHand{Category: OnePair, Kickers: [5]uint8{pairs[0], singles[0], singles[1], singles[2]}}
	}
	return EvaluatedHand{Category: HighCard, Kickers: ranks}
}

// SeatCards is one contender's seven cards keyed by seat index.
type SeatCards struct {
	Seat  int
	Cards []Card
}

// FindWinners returns the seats tied at the best hand, in input order, and the winning hand.
func FindWinners(contenders []SeatCards) ([]int, EvaluatedHand, error) {
	var best EvaluatedHand
	var winners []int
	for i, c := range contenders {
		e, err := Evaluate(c.Cards)
		if err != nil {
			return nil, EvaluatedHand{}, fmt.Errorf("seat %d: %v", c.Seat, err)
		}
		cmp := 1
		if i > 0 {
			cmp = Compare(e, best)
		}
		switch {
		case cmp > 0:
			best = e
			winners = []int{c.Seat}
		case cmp == 0:
			winners = append(winners, c.Seat)
		}
	}
	return winners, best, nil
}
