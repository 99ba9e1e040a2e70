package poker

import (
	"fmt"
	"strings"
)

// Card is a plaintext card value 0..51. rank = value % 13 (0=Two..12=Ace), suit = value / 13.
type Card uint8

const (
	NumCards   = 52
	NumRanks   = 13
	NumSuits   = 4
	Unrevealed = Card(255)
)

const (
	RankTwo   uint8 = 0
	RankThree uint8 = 1
	RankFour  uint8 = 2
	RankFive  uint8 = 3
	RankSix   uint8 = 4
	RankTen   uint8 = 8
	RankJack  uint8 = 9
	RankQueen uint8 = 10
	RankKing  uint8 = 11
	RankAce   uint8 = 12
)

const (
	Clubs uint8 = iota
	Diamonds
	Hearts
	Spades
)

var (
	strRanks = "23456789TJQKA"
	strSuits = "cdhs"
)

var (
	charRankToIntRank = map[uint8]uint8{}
	charSuitToIntSuit = map[uint8]uint8{
		'c': Clubs,
		'd': Diamonds,
		'h': Hearts,
		's': Spades,
	}
)

var prettySuits = [...]string{
	"♣", // clubs
	"♦", // diamonds
	"❤", // hearts
	"♠", // spades
}

func init() {
	for i := range strRanks {
		charRankToIntRank[strRanks[i]] = uint8(i)
	}
}

func MakeCard(rank uint8, suit uint8) Card {
	return Card(suit*NumRanks + rank)
}

// NewCard parses a two character card such as "Ah" or "Tc".
func NewCard(s string) (Card, error) {
	if len(s) != 2 {
		return Unrevealed, fmt.Errorf("Invalid card [%s]", s)
	}
	rank, ok := charRankToIntRank[strings.ToUpper(s[:1])[0]]
	if !ok {
		return Unrevealed, fmt.Errorf("Invalid card rank in [%s]", s)
	}
	suit, ok := charSuitToIntSuit[strings.ToLower(s[1:])[0]]
	if !ok {
		return Unrevealed, fmt.Errorf("Invalid card suit in [%s]", s)
	}
	return MakeCard(rank, suit), nil
}

// ParseCards parses a space separated list of cards.
func ParseCards(s string) ([]Card, error) {
	fields := strings.Fields(s)
	cards := make([]Card, 0, len(fields))
	for _, f := range fields {
		c, err := NewCard(f)
		if err != nil {
			return nil, err
		}
		cards = append(cards, c)
	}
	return cards, nil
}

func (c Card) Rank() uint8 {
	return uint8(c) % NumRanks
}

func (c Card) Suit() uint8 {
	return uint8(c) / NumRanks
}

func (c Card) Valid() bool {
	return c < NumCards
}

func (c Card) String() string {
	if !c.Valid() {
		return "??"
	}
	return string(strRanks[c.Rank()]) + string(strSuits[c.Suit()])
}

func (c Card) Pretty() string {
	if !c.Valid() {
		return "??"
	}
	return string(strRanks[c.Rank()]) + prettySuits[c.Suit()]
}

func (c Card) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *Card) UnmarshalText(b []byte) error {
	if string(b) == "??" {
		*c = Unrevealed
		return nil
	}
	card, err := NewCard(string(b))
	if err != nil {
		return err
	}
	*c = card
	return nil
}

// ValidateDistinct rejects out of range or repeated cards.
func ValidateDistinct(cards []Card) error {
	var seen [NumCards]bool
	for _, c := range cards {
		if !c.Valid() {
			return fmt.Errorf("Invalid card value %d", c)
		}
		if seen[c] {
			return fmt.Errorf("Duplicate card %s", c)
		}
		seen[c] = true
	}
	return nil
}

func CardsToString(cards []Card) string {
	var b strings.Builder
	b.Grow(32)
	fmt.Fprintf(&b, "[")
	for _, c := range cards {
		fmt.Fprintf(&b, " %s ", c.Pretty())
	}
	fmt.Fprintf(&b, "]")
	return b.String()
}
