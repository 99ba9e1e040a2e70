package game

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	cmap "github.com/orcaman/concurrent-map"
	"github.com/pkg/errors"

	"holdem.com/server/internal"
	"holdem.com/server/logging"
	"holdem.com/server/poker"
	"holdem.com/server/timer"
	"holdem.com/server/util"
)

var managerLogger = logging.GetZeroLogger("game::manager", nil)

// AuditSink receives the completion record of every settled hand.
type AuditSink interface {
	PublishHandCompleted(result *HandCompleted) error
}

// ChipLedger holds custody of the stacks between hands.
type ChipLedger interface {
	SaveStacks(stacks []internal.Stack) error
}

type ManagerConfig struct {
	ActionTimeout   time.Duration
	RevealTimeout   time.Duration
	EnableTimers    bool
	ResultCacheSize int
}

type PlayerConfig struct {
	ID    string `json:"playerId" yaml:"id"`
	Seat  int    `json:"seat" yaml:"seat"`
	Chips uint64 `json:"chips" yaml:"chips"`
}

type TableConfig struct {
	ID         string         `json:"tableId" yaml:"id"`
	MaxPlayers int            `json:"maxPlayers" yaml:"max-players"`
	SmallBlind uint64         `json:"smallBlind" yaml:"sb"`
	BigBlind   uint64         `json:"bigBlind" yaml:"bb"`
	Players    []PlayerConfig `json:"players" yaml:"players"`
}

// HandSnapshot is the committed state returned by every hand operation.
type HandSnapshot struct {
	Hand   *Hand          `json:"hand"`
	Seats  Seats          `json:"seats"`
	Result *HandCompleted `json:"result,omitempty"`
}

// Manager is the host around the pure transitions: it serializes calls per
// table, persists every committed state and settles as soon as the payout is known.
type Manager struct {
	store        Store
	sink         AuditSink
	ledger       ChipLedger
	results      *internal.ResultCache
	tableLocks   cmap.ConcurrentMap
	timers       cmap.ConcurrentMap
	activeTables cmap.ConcurrentMap
	config       ManagerConfig
	now          func() time.Time
}

func NewManager(store Store, sink AuditSink, ledger ChipLedger, config ManagerConfig) (*Manager, error) {
	if config.ActionTimeout <= 0 {
		config.ActionTimeout = DefaultActionTimeout
	}
	if config.RevealTimeout <= 0 {
		config.RevealTimeout = DefaultRevealTimeout
	}
	if config.ResultCacheSize <= 0 {
		config.ResultCacheSize = 10000
	}
	results, err := internal.NewResultCache(config.ResultCacheSize)
	if err != nil {
		return nil, err
	}
	return &Manager{
		store:        store,
		sink:         sink,
		ledger:       ledger,
		results:      results,
		tableLocks:   cmap.New(),
		timers:       cmap.New(),
		activeTables: cmap.New(),
		config:       config,
		now:          time.Now,
	}, nil
}

// SetClock replaces the wall clock, used by scripts and tests.
func (m *Manager) SetClock(now func() time.Time) {
	m.now = now
}

func (m *Manager) Config() ManagerConfig {
	return m.config
}

func (m *Manager) Close() {
	for _, v := range m.timers.Items() {
		v.(*timer.LivenessTimer).Destroy()
	}
	m.timers.Clear()
}

func (m *Manager) lockTable(tableID string) func() {
	m.tableLocks.SetIfAbsent(tableID, &sync.Mutex{})
	v, _ := m.tableLocks.Get(tableID)
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

func errorClass(err error) string {
	switch {
	case IsStateViolation(err):
		return "state"
	case IsBettingRule(err):
		return "betting"
	case IsCapacity(err):
		return "capacity"
	case IsTimeoutNotElapsed(err):
		return "timeout"
	case IsNotYetRevealed(err):
		return "reveal"
	case IsNotFound(err):
		return "notfound"
	}
	return "internal"
}

func (m *Manager) CreateTable(config TableConfig) (*Table, Seats, error) {
	if config.ID == "" {
		config.ID = uuid.New().String()
	}
	table, err := NewTable(config.ID, config.MaxPlayers, config.SmallBlind, config.BigBlind)
	if err != nil {
		return nil, nil, err
	}
	seats := NewSeats(table.MaxPlayers)
	for _, p := range config.Players {
		if p.Seat < 0 || p.Seat >= table.MaxPlayers {
			return nil, nil, CapacityError{Reason: fmt.Sprintf("seat %d is out of range", p.Seat)}
		}
		if p.ID == "" {
			return nil, nil, StateViolationError{Reason: fmt.Sprintf("seat %d has no player id", p.Seat)}
		}
		if seats[p.Seat].Occupied() {
			return nil, nil, StateViolationError{Reason: fmt.Sprintf("seat %d is taken twice", p.Seat)}
		}
		seats[p.Seat].PlayerID = p.ID
		seats[p.Seat].Chips = p.Chips
	}

	unlock := m.lockTable(table.ID)
	defer unlock()
	if _, err := m.store.LoadTable(table.ID); err == nil {
		return nil, nil, StateViolationError{Reason: fmt.Sprintf("table %s already exists", table.ID)}
	} else if !IsNotFound(err) {
		return nil, nil, err
	}
	if err := m.store.Commit(table, seats, nil); err != nil {
		return nil, nil, err
	}
	managerLogger.Info().
		Str(logging.TableIDKey, table.ID).
		Msgf("Table created. Max players: %d Blinds: %d/%d", table.MaxPlayers, table.SmallBlind, table.BigBlind)
	return table, seats, nil
}

func (m *Manager) GetTable(tableID string) (*Table, Seats, error) {
	table, err := m.store.LoadTable(tableID)
	if err != nil {
		return nil, nil, err
	}
	seats, err := m.store.LoadSeats(tableID, table.MaxPlayers)
	if err != nil {
		return nil, nil, err
	}
	return table, seats, nil
}

func (m *Manager) StartHand(tableID string) (*HandSnapshot, error) {
	unlock := m.lockTable(tableID)
	defer unlock()

	table, seats, err := m.GetTable(tableID)
	if err != nil {
		return nil, err
	}
	nextTable, hand, nextSeats, err := StartHand(*table, seats, uuid.New().String(), m.now())
	if err != nil {
		util.Metrics.TransitionRejected("start", errorClass(err))
		return nil, err
	}
	if err := m.store.Commit(&nextTable, nextSeats, &hand); err != nil {
		return nil, err
	}
	m.activeTables.Set(tableID, hand.ID)
	util.Metrics.HandStarted()
	util.Metrics.SetActiveTables(m.activeTables.Count())
	return &HandSnapshot{Hand: &hand, Seats: nextSeats}, nil
}

type tableState struct {
	table  *Table
	seats  Seats
	hand   *Hand
	result *HandCompleted
}

// lockHand finds the table of a hand, locks it and loads the committed state.
func (m *Manager) lockHand(handID string) (*tableState, func(), error) {
	hand, err := m.store.LoadHand(handID)
	if err != nil {
		return nil, nil, err
	}
	unlock := m.lockTable(hand.TableID)
	// the hand may have moved on while we waited for the lock
	if hand, err = m.store.LoadHand(handID); err != nil {
		unlock()
		return nil, nil, err
	}
	table, seats, err := m.GetTable(hand.TableID)
	if err != nil {
		unlock()
		return nil, nil, err
	}
	return &tableState{table: table, seats: seats, hand: hand}, unlock, nil
}

func (m *Manager) applyToHand(operation string, handID string, transition func(st *tableState, now time.Time) error) (*HandSnapshot, error) {
	st, unlock, err := m.lockHand(handID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	now := m.now()
	if err := transition(st, now); err != nil {
		util.Metrics.TransitionRejected(operation, errorClass(err))
		managerLogger.Debug().
			Str(logging.HandIDKey, handID).
			Msgf("%s rejected: %v", operation, err)
		return nil, err
	}
	if err := m.commit(st, now); err != nil {
		return nil, err
	}
	return &HandSnapshot{Hand: st.hand, Seats: st.seats, Result: st.result}, nil
}

func shouldAutoSettle(h *Hand, seats Seats) bool {
	if h.Phase == PhaseSettled {
		return !h.PaidOut
	}
	return h.Phase == PhaseShowdown && len(h.Unrevealed(seats)) == 0
}

func (m *Manager) commit(st *tableState, now time.Time) error {
	if st.result == nil && shouldAutoSettle(st.hand, st.seats) {
		hand, seats, result, err := Settle(*st.hand, st.seats, now)
		if err != nil {
			return errors.Wrapf(err, "Unable to settle hand %s", st.hand.ID)
		}
		st.hand, st.seats, st.result = &hand, seats, result
	}

	if st.result == nil {
		if err := m.store.Commit(st.table, st.seats, st.hand); err != nil {
			return err
		}
		m.armTimer(st.hand)
		return nil
	}

	st.table.Status = TableWaiting
	st.table.CurrentHandID = ""
	if err := m.store.Commit(st.table, st.seats, nil); err != nil {
		return err
	}
	if err := m.store.RemoveHand(st.hand.ID); err != nil {
		managerLogger.Error().Err(err).Str(logging.HandIDKey, st.hand.ID).Msg("Unable to remove settled hand")
	}
	m.handCompleted(st)
	return nil
}

func (m *Manager) handCompleted(st *tableState) {
	result := st.result
	m.pauseTimer(st.table.ID)
	m.activeTables.Remove(st.table.ID)
	util.Metrics.HandSettled(result.TotalPot)
	util.Metrics.SetActiveTables(m.activeTables.Count())

	if err := m.results.Add(result.TableID, result.HandID, result); err != nil {
		managerLogger.Error().Err(err).Str(logging.HandIDKey, result.HandID).Msg("Unable to cache result")
	}
	if m.sink != nil {
		if err := m.sink.PublishHandCompleted(result); err != nil {
			managerLogger.Error().Err(err).Str(logging.HandIDKey, result.HandID).Msg("Unable to publish hand result")
		}
	}
	if m.ledger != nil {
		var stacks []internal.Stack
		for i := range st.seats {
			seat := &st.seats[i]
			if !seat.Occupied() {
				continue
			}
			if seat.Chips > math.MaxInt64 {
				managerLogger.Error().Str(logging.HandIDKey, result.HandID).Int(logging.SeatNumKey, i).Msg("Stack does not fit the ledger")
				continue
			}
			stacks = append(stacks, internal.Stack{
				TableID:  st.table.ID,
				SeatNo:   i,
				PlayerID: seat.PlayerID,
				Chips:    int64(seat.Chips),
				HandID:   result.HandID,
			})
		}
		if err := m.ledger.SaveStacks(stacks); err != nil {
			managerLogger.Error().Err(err).Str(logging.HandIDKey, result.HandID).Msg("Unable to save stacks to the ledger")
		}
	}
}

// Deal hands out the supplied cards, or shuffles a fresh deck when deal is nil.
func (m *Manager) Deal(handID string, deal *Deal) (*HandSnapshot, error) {
	return m.applyToHand("deal", handID, func(st *tableState, now time.Time) error {
		d := deal
		if d == nil {
			shuffled, err := shuffledDeal(st.hand)
			if err != nil {
				return err
			}
			d = shuffled
		}
		hand, seats, err := DealHoleCards(*st.hand, st.seats, *d, now)
		if err != nil {
			return err
		}
		st.hand, st.seats = &hand, seats
		return nil
	})
}

func shuffledDeal(h *Hand) (*Deal, error) {
	deck := poker.NewDeck(nil)
	deal := &Deal{Hole: make(map[int][2]poker.Card)}
	for _, seat := range h.Active.Seats() {
		cards, err := deck.Draw(2)
		if err != nil {
			return nil, err
		}
		deal.Hole[seat] = [2]poker.Card{cards[0], cards[1]}
	}
	board, err := deck.Draw(len(deal.Board))
	if err != nil {
		return nil, err
	}
	copy(deal.Board[:], board)
	return deal, nil
}

func (m *Manager) Act(handID string, action Action) (*HandSnapshot, error) {
	return m.applyToHand("act", handID, func(st *tableState, now time.Time) error {
		hand, seats, err := Act(*st.hand, st.seats, action, now)
		if err != nil {
			return err
		}
		st.hand, st.seats = &hand, seats
		util.Metrics.ActionApplied(action.Type.String())
		return nil
	})
}

func (m *Manager) Reveal(handID string, seat int) (*HandSnapshot, error) {
	return m.applyToHand("reveal", handID, func(st *tableState, now time.Time) error {
		hand, seats, err := RevealHoleCards(*st.hand, st.seats, seat, now)
		if err != nil {
			return err
		}
		st.hand, st.seats = &hand, seats
		return nil
	})
}

func (m *Manager) ForceActionTimeout(handID string, seat int) (*HandSnapshot, error) {
	return m.applyToHand("action_timeout", handID, func(st *tableState, now time.Time) error {
		hand, seats, err := ForceActionTimeout(*st.hand, st.seats, seat, now, m.config.ActionTimeout)
		if err != nil {
			return err
		}
		st.hand, st.seats = &hand, seats
		util.Metrics.TimeoutForced(string(timer.ActionPurpose))
		return nil
	})
}

func (m *Manager) ForceRevealTimeout(handID string, seat int) (*HandSnapshot, error) {
	return m.applyToHand("reveal_timeout", handID, func(st *tableState, now time.Time) error {
		hand, seats, err := ForceRevealTimeout(*st.hand, st.seats, seat, now, m.config.RevealTimeout)
		if err != nil {
			return err
		}
		st.hand, st.seats = &hand, seats
		util.Metrics.TimeoutForced(string(timer.RevealPurpose))
		return nil
	})
}

func (m *Manager) Settle(handID string) (*HandSnapshot, error) {
	return m.applyToHand("settle", handID, func(st *tableState, now time.Time) error {
		hand, seats, result, err := Settle(*st.hand, st.seats, now)
		if err != nil {
			return err
		}
		st.hand, st.seats, st.result = &hand, seats, result
		return nil
	})
}

func (m *Manager) GetHand(handID string) (*HandSnapshot, error) {
	hand, err := m.store.LoadHand(handID)
	if err != nil {
		return nil, err
	}
	seats, err := m.store.LoadSeats(hand.TableID, hand.MaxPlayers)
	if err != nil {
		return nil, err
	}
	return &HandSnapshot{Hand: hand, Seats: seats}, nil
}

func (m *Manager) GetResult(handID string) (*HandCompleted, error) {
	v, ok := m.results.Get(handID)
	if !ok {
		return nil, NotFoundError{Key: fmt.Sprintf("result|%s", handID)}
	}
	return v.(*HandCompleted), nil
}

// LastHand returns the id of the most recently settled hand of a table.
func (m *Manager) LastHand(tableID string) (string, bool) {
	return m.results.LastHand(tableID)
}

func (m *Manager) timerFor(tableID string) *timer.LivenessTimer {
	if v, ok := m.timers.Get(tableID); ok {
		return v.(*timer.LivenessTimer)
	}
	lt := timer.NewLivenessTimer(tableID, m.queueTimeout, func() {
		m.timers.Remove(tableID)
	})
	lt.Run()
	m.timers.Set(tableID, lt)
	return lt
}

func (m *Manager) armTimer(h *Hand) {
	if !m.config.EnableTimers {
		return
	}
	lastAction := time.Unix(h.LastActionTime, 0)
	// one extra second covers the whole-second resolution of the last action time
	msg := timer.TimerMsg{TableID: h.TableID, HandID: h.ID, SeatNo: h.ActionOn}
	switch {
	case h.Phase.IsBetting():
		msg.Purpose = timer.ActionPurpose
		msg.ExpireAt = lastAction.Add(m.config.ActionTimeout + time.Second)
	case h.Phase == PhaseShowdown:
		msg.Purpose = timer.RevealPurpose
		msg.ExpireAt = lastAction.Add(m.config.RevealTimeout + time.Second)
	default:
		m.pauseTimer(h.TableID)
		return
	}
	if err := m.timerFor(h.TableID).Reset(msg); err != nil {
		managerLogger.Error().Err(err).Str(logging.HandIDKey, h.ID).Msg("Unable to arm the liveness timer")
	}
}

func (m *Manager) pauseTimer(tableID string) {
	if v, ok := m.timers.Get(tableID); ok {
		v.(*timer.LivenessTimer).Pause()
	}
}

// queueTimeout runs on the timer goroutine, the work happens elsewhere so the timer can be re-armed.
func (m *Manager) queueTimeout(msg timer.TimerMsg) {
	go m.handleTimeout(msg)
}

func (m *Manager) handleTimeout(msg timer.TimerMsg) {
	switch msg.Purpose {
	case timer.ActionPurpose:
		if _, err := m.ForceActionTimeout(msg.HandID, msg.SeatNo); err != nil {
			m.logTimeoutError(msg, msg.SeatNo, err)
		}
	case timer.RevealPurpose:
		snapshot, err := m.GetHand(msg.HandID)
		if err != nil {
			m.logTimeoutError(msg, NoSeat, err)
			return
		}
		for _, seat := range snapshot.Hand.Unrevealed(snapshot.Seats) {
			snapshot, err = m.ForceRevealTimeout(msg.HandID, seat)
			if err != nil {
				m.logTimeoutError(msg, seat, err)
				return
			}
			if snapshot.Hand.Phase != PhaseShowdown {
				return
			}
		}
	}
}

func (m *Manager) logTimeoutError(msg timer.TimerMsg, seat int, err error) {
	// a player acting right before the timer fired is expected
	event := managerLogger.Warn()
	if IsStateViolation(err) || IsTimeoutNotElapsed(err) || IsNotFound(err) {
		event = managerLogger.Debug()
	}
	event.Err(err).
		Str(logging.TableIDKey, msg.TableID).
		Str(logging.HandIDKey, msg.HandID).
		Int(logging.SeatNumKey, seat).
		Str(logging.PurposeKey, string(msg.Purpose)).
		Msg("Timeout was not applied")
}
