package poker

import (
	crypto_rand "crypto/rand"
	"encoding/binary"
	"fmt"
	"math/rand"
)

// Deck is a host side card supply for simulations and demo tables.
type Deck struct {
	cards   []Card
	randGen *rand.Rand
}

func newSeed() rand.Source {
	var b [8]byte
	_, err := crypto_rand.Read(b[:])
	if err != nil {
		panic("cannot seed math/rand package with cryptographically secure random number generator")
	}
	return rand.NewSource(int64(binary.LittleEndian.Uint64(b[:])))
}

// NewDeck returns a shuffled deck. A nil source seeds from crypto/rand.
func NewDeck(source rand.Source) *Deck {
	if source == nil {
		source = newSeed()
	}
	deck := &Deck{randGen: rand.New(source)}
	deck.Shuffle()
	return deck
}

func NewDeckNoShuffle() *Deck {
	deck := &Deck{}
	deck.reset()
	return deck
}

func (deck *Deck) reset() {
	deck.cards = make([]Card, NumCards)
	for i := range deck.cards {
		deck.cards[i] = Card(i)
	}
}

// Shuffle restores all 52 cards and applies a Fisher-Yates shuffle.
func (deck *Deck) Shuffle() *Deck {
	deck.reset()
	if deck.randGen == nil {
		deck.randGen = rand.New(newSeed())
	}
	for i := len(deck.cards) - 1; i > 0; i-- {
		j := deck.randGen.Intn(i + 1)
		deck.cards[i], deck.cards[j] = deck.cards[j], deck.cards[i]
	}
	return deck
}

func (deck *Deck) Draw(n int) ([]Card, error) {
	if n > len(deck.cards) {
		return nil, fmt.Errorf("Cannot draw %d cards, %d left in the deck", n, len(deck.cards))
	}
	cards := make([]Card, n)
	copy(cards, deck.cards[:n])
	deck.cards = deck.cards[n:]
	return cards, nil
}

// Remove takes specific cards out of the deck so scripted hands never repeat them.
func (deck *Deck) Remove(cards ...Card) {
	for _, c := range cards {
		for i, card := range deck.cards {
			if card == c {
				deck.cards = append(deck.cards[:i], deck.cards[i+1:]...)
				break
			}
		}
	}
}

func (deck *Deck) Remaining() int {
	return len(deck.cards)
}

func (deck *Deck) Empty() bool {
	return len(deck.cards) == 0
}
