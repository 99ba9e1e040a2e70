package game

import (
	"fmt"
	"strings"
	"time"

	"holdem.com/server/poker"
)

const (
	MaxPlayers = 6
	MinPlayers = 2

	DefaultActionTimeout = 60 * time.Second
	DefaultRevealTimeout = 180 * time.Second

	// NoSeat is used for action_on outside of betting rounds and for an unset dealer button.
	NoSeat = -1
)

type Phase uint8

const (
	PhaseDealing Phase = iota
	PhasePreFlop
	PhaseFlop
	PhaseTurn
	PhaseRiver
	PhaseShowdown
	PhaseSettled
)

var phaseToString = map[Phase]string{
	PhaseDealing:  "DEALING",
	PhasePreFlop:  "PREFLOP",
	PhaseFlop:     "FLOP",
	PhaseTurn:     "TURN",
	PhaseRiver:    "RIVER",
	PhaseShowdown: "SHOWDOWN",
	PhaseSettled:  "SETTLED",
}

func (p Phase) String() string {
	if s, ok := phaseToString[p]; ok {
		return s
	}
	return fmt.Sprintf("Phase(%d)", uint8(p))
}

func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// IsBetting is true for the four phases in which players act.
func (p Phase) IsBetting() bool {
	return p >= PhasePreFlop && p <= PhaseRiver
}

type SeatStatus uint8

const (
	SeatSitting SeatStatus = iota
	SeatPlaying
	SeatFolded
	SeatAllIn
)

var seatStatusToString = map[SeatStatus]string{
	SeatSitting: "SITTING",
	SeatPlaying: "PLAYING",
	SeatFolded:  "FOLDED",
	SeatAllIn:   "ALL_IN",
}

func (s SeatStatus) String() string {
	if str, ok := seatStatusToString[s]; ok {
		return str
	}
	return fmt.Sprintf("SeatStatus(%d)", uint8(s))
}

func (s SeatStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

type ActionType uint8

const (
	ActionFold ActionType = iota
	ActionCheck
	ActionCall
	ActionRaise
	ActionAllIn
)

var actionToString = map[ActionType]string{
	ActionFold:  "FOLD",
	ActionCheck: "CHECK",
	ActionCall:  "CALL",
	ActionRaise: "RAISE",
	ActionAllIn: "ALLIN",
}

func (a ActionType) String() string {
	if s, ok := actionToString[a]; ok {
		return s
	}
	return fmt.Sprintf("ActionType(%d)", uint8(a))
}

func (a ActionType) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

func (a *ActionType) UnmarshalText(b []byte) error {
	parsed, err := ParseActionType(string(b))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// ParseActionType accepts the upper case names used in scripts and REST payloads ("ALL_IN" too).
func ParseActionType(s string) (ActionType, error) {
	name := strings.ReplaceAll(strings.ToUpper(strings.TrimSpace(s)), "_", "")
	for a, str := range actionToString {
		if str == name {
			return a, nil
		}
	}
	return ActionFold, fmt.Errorf("Invalid action: %s", s)
}

type Action struct {
	Seat   int        `json:"seat"`
	Type   ActionType `json:"action"`
	Amount uint64     `json:"amount"`
}

func (a Action) String() string {
	if a.Type == ActionRaise {
		return fmt.Sprintf("seat %d %s %d", a.Seat, a.Type, a.Amount)
	}
	return fmt.Sprintf("seat %d %s", a.Seat, a.Type)
}

// SeatSet is a set of seat indexes.
type SeatSet [MaxPlayers]bool

func (s *SeatSet) Add(seat int) {
	if validSeat(seat) {
		s[seat] = true
	}
}

func (s *SeatSet) Remove(seat int) {
	if validSeat(seat) {
		s[seat] = false
	}
}

func (s SeatSet) Has(seat int) bool {
	return validSeat(seat) && s[seat]
}

func (s SeatSet) Count() int {
	count := 0
	for _, in := range s {
		if in {
			count++
		}
	}
	return count
}

func (s *SeatSet) Clear() {
	*s = SeatSet{}
}

// Without returns the seats of s that are not in other.
func (s SeatSet) Without(other SeatSet) SeatSet {
	var out SeatSet
	for i := range s {
		out[i] = s[i] && !other[i]
	}
	return out
}

// Seats lists the members in ascending seat order.
func (s SeatSet) Seats() []int {
	seats := make([]int, 0, MaxPlayers)
	for i, in := range s {
		if in {
			seats = append(seats, i)
		}
	}
	return seats
}

func (s SeatSet) MarshalJSON() ([]byte, error) {
	seats := s.Seats()
	parts := make([]string, len(seats))
	for i, seat := range seats {
		parts[i] = fmt.Sprintf("%d", seat)
	}
	return []byte("[" + strings.Join(parts, ",") + "]"), nil
}

func validSeat(seat int) bool {
	return seat >= 0 && seat < MaxPlayers
}

type Seat struct {
	PlayerID      string        `json:"playerId"`
	Index         int           `json:"seatIndex"`
	Chips         uint64        `json:"chips"`
	CurrentBet    uint64        `json:"currentBet"`
	TotalBet      uint64        `json:"totalBet"`
	Status        SeatStatus    `json:"status"`
	HasActed      bool          `json:"hasActed"`
	HoleCards     [2]poker.Card `json:"-"`
	RevealedCards [2]poker.Card `json:"revealedCards"`
	CardsRevealed bool          `json:"cardsRevealed"`
}

// Occupied is true when a player sits in the seat.
func (s *Seat) Occupied() bool {
	return s.PlayerID != ""
}

func (s *Seat) canAct() bool {
	return s.Status == SeatPlaying
}

// placeBet moves up to amount chips from the stack into the seat's bets and
// returns the stake actually placed. A drained stack makes the seat all-in.
func (s *Seat) placeBet(amount uint64) (uint64, error) {
	stake := amount
	if stake > s.Chips {
		stake = s.Chips
	}
	currentBet, err := addChips(s.CurrentBet, stake, "seat current bet")
	if err != nil {
		return 0, err
	}
	totalBet, err := addChips(s.TotalBet, stake, "seat total bet")
	if err != nil {
		return 0, err
	}
	s.Chips -= stake
	s.CurrentBet = currentBet
	s.TotalBet = totalBet
	if s.Chips == 0 {
		s.Status = SeatAllIn
	}
	return stake, nil
}

func (s *Seat) awardChips(amount uint64) error {
	chips, err := addChips(s.Chips, amount, "seat chips")
	if err != nil {
		return err
	}
	s.Chips = chips
	return nil
}

func (s *Seat) resetHand() {
	s.CurrentBet = 0
	s.TotalBet = 0
	s.HasActed = false
	s.HoleCards = [2]poker.Card{poker.Unrevealed, poker.Unrevealed}
	s.RevealedCards = [2]poker.Card{poker.Unrevealed, poker.Unrevealed}
	s.CardsRevealed = false
	s.Status = SeatSitting
}

// Seats is indexed by seat index; empty seats have no player id.
type Seats []Seat

func NewSeats(maxPlayers int) Seats {
	seats := make(Seats, maxPlayers)
	for i := range seats {
		seats[i].Index = i
		seats[i].resetHand()
	}
	return seats
}

func (s Seats) Clone() Seats {
	out := make(Seats, len(s))
	copy(out, s)
	return out
}

func (s Seats) seat(index int) (*Seat, error) {
	if index < 0 || index >= len(s) {
		return nil, StateViolationError{Reason: fmt.Sprintf("seat %d does not exist", index)}
	}
	return &s[index], nil
}

// TotalChips sums every stack, used for conservation checks.
func (s Seats) TotalChips() uint64 {
	var total uint64
	for i := range s {
		total += s[i].Chips
	}
	return total
}

type Hand struct {
	ID                string        `json:"handId"`
	TableID           string        `json:"tableId"`
	HandNumber        uint64        `json:"handNum"`
	MaxPlayers        int           `json:"maxPlayers"`
	Phase             Phase         `json:"phase"`
	Pot               uint64        `json:"pot"`
	CurrentBet        uint64        `json:"currentBet"`
	MinRaise          uint64        `json:"minRaise"`
	SmallBlind        uint64        `json:"smallBlind"`
	BigBlind          uint64        `json:"bigBlind"`
	DealerSeat        int           `json:"dealerSeat"`
	SmallBlindSeat    int           `json:"smallBlindSeat"`
	BigBlindSeat      int           `json:"bigBlindSeat"`
	ActionOn          int           `json:"actionOn"`
	CommunityCards    [5]poker.Card `json:"communityCards"`
	CommunityRevealed int           `json:"communityRevealed"`
	Active            SeatSet       `json:"active"`
	Acted             SeatSet       `json:"acted"`
	AllIn             SeatSet       `json:"allIn"`
	Participants      SeatSet       `json:"participants"`
	ActiveCount       int           `json:"activeCount"`
	LastActionTime    int64         `json:"lastActionTime"`
	PaidOut           bool          `json:"paidOut"`
	SealedBoard       [5]poker.Card `json:"-"`
}

// ToCall is what the seat must add to match the current bet.
func (h *Hand) ToCall(seat *Seat) uint64 {
	if h.CurrentBet > seat.CurrentBet {
		return h.CurrentBet - seat.CurrentBet
	}
	return 0
}

// CanAnyoneBet is true while two or more active seats still have chips behind.
func (h *Hand) CanAnyoneBet() bool {
	return h.Active.Without(h.AllIn).Count() >= 2
}

// IsBettingComplete is true when every active seat that is not all-in has acted this round.
func (h *Hand) IsBettingComplete() bool {
	for _, seat := range h.Active.Without(h.AllIn).Seats() {
		if !h.Acted.Has(seat) {
			return false
		}
	}
	return true
}

// PayoutPending is true when Settle may run.
func (h *Hand) PayoutPending() bool {
	if h.Phase == PhaseShowdown {
		return true
	}
	return h.Phase == PhaseSettled && h.ActiveCount == 1 && !h.PaidOut
}

// Unrevealed lists active seats that still owe a reveal at showdown.
func (h *Hand) Unrevealed(seats Seats) []int {
	var pending []int
	for _, i := range h.Active.Seats() {
		if i < len(seats) && !seats[i].CardsRevealed {
			pending = append(pending, i)
		}
	}
	return pending
}

func (h *Hand) touch(now time.Time) {
	h.LastActionTime = now.Unix()
}

type TableStatus uint8

const (
	TableWaiting TableStatus = iota
	TablePlaying
)

func (s TableStatus) String() string {
	if s == TablePlaying {
		return "PLAYING"
	}
	return "WAITING"
}

func (s TableStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

type Table struct {
	ID            string      `json:"tableId" yaml:"id"`
	MaxPlayers    int         `json:"maxPlayers" yaml:"max-players"`
	SmallBlind    uint64      `json:"smallBlind" yaml:"sb"`
	BigBlind      uint64      `json:"bigBlind" yaml:"bb"`
	DealerSeat    int         `json:"dealerSeat"`
	HandNumber    uint64      `json:"handNum"`
	Status        TableStatus `json:"status"`
	CurrentHandID string      `json:"currentHandId"`
}

// NewTable validates the table limits. The first hand puts the button on the first occupied seat.
func NewTable(id string, maxPlayers int, smallBlind, bigBlind uint64) (*Table, error) {
	if maxPlayers < MinPlayers || maxPlayers > MaxPlayers {
		return nil, CapacityError{Reason: fmt.Sprintf("max players must be between %d and %d", MinPlayers, MaxPlayers)}
	}
	if smallBlind == 0 || bigBlind < smallBlind {
		return nil, BettingRuleError{Reason: "big blind must be at least the small blind and blinds must be positive"}
	}
	return &Table{
		ID:         id,
		MaxPlayers: maxPlayers,
		SmallBlind: smallBlind,
		BigBlind:   bigBlind,
		DealerSeat: NoSeat,
		Status:     TableWaiting,
	}, nil
}
