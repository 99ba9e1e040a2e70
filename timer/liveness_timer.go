package timer

import (
	"fmt"
	"runtime/debug"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"holdem.com/server/logging"
)

var livenessTimerLogger = logging.GetZeroLogger("game::liveness_timer", nil)

type Purpose string

const (
	// ActionPurpose waits for the seat on the clock to act.
	ActionPurpose Purpose = "ACTION"
	// RevealPurpose waits for the contesting seats to show their cards.
	RevealPurpose Purpose = "REVEAL"
)

type TimerMsg struct {
	TableID  string
	HandID   string
	SeatNo   int
	Purpose  Purpose
	ExpireAt time.Time
}

// LivenessTimer runs one countdown per table and calls back when it expires.
type LivenessTimer struct {
	tableID string

	chReset   chan TimerMsg
	chPause   chan bool
	chEndLoop chan bool

	callback        func(TimerMsg)
	currentTimerMsg TimerMsg
	msgLock         sync.RWMutex

	secondsTillTimeout uint32
	crashHandler       func()
}

func NewLivenessTimer(tableID string, callback func(TimerMsg), crashHandler func()) *LivenessTimer {
	return &LivenessTimer{
		tableID:      tableID,
		chReset:      make(chan TimerMsg),
		chPause:      make(chan bool),
		chEndLoop:    make(chan bool, 10),
		callback:     callback,
		crashHandler: crashHandler,
	}
}

func (a *LivenessTimer) Run() {
	go a.loop()
}

func (a *LivenessTimer) Destroy() {
	a.chEndLoop <- true
}

func (a *LivenessTimer) loop() {
	defer func() {
		err := recover()
		if err != nil {
			livenessTimerLogger.Error().
				Str(logging.TableIDKey, a.tableID).
				Msgf("Liveness timer loop returning due to panic: %s\nStack Trace:\n%s", err, string(debug.Stack()))
			if a.crashHandler != nil {
				a.crashHandler()
			}
		} else {
			livenessTimerLogger.Debug().Str(logging.TableIDKey, a.tableID).Msg("Liveness timer loop returning")
		}
	}()

	var expirationTime time.Time
	paused := true
	for {
		select {
		case <-a.chEndLoop:
			return
		case <-a.chPause:
			paused = true
		case msg := <-a.chReset:
			a.msgLock.Lock()
			a.currentTimerMsg = msg
			a.msgLock.Unlock()
			expirationTime = msg.ExpireAt
			paused = false
		default:
			if !paused {
				remainingSec := time.Until(expirationTime).Seconds()
				if remainingSec < 0 {
					remainingSec = 0
				}
				atomic.StoreUint32(&a.secondsTillTimeout, uint32(remainingSec))

				if remainingSec <= 0 {
					a.msgLock.RLock()
					msg := a.currentTimerMsg
					a.msgLock.RUnlock()
					livenessTimerLogger.Debug().
						Str(logging.TableIDKey, a.tableID).
						Str(logging.HandIDKey, msg.HandID).
						Int(logging.SeatNumKey, msg.SeatNo).
						Str(logging.PurposeKey, string(msg.Purpose)).
						Msg("Timer expired")
					a.callback(msg)
					expirationTime = time.Time{}
					paused = true
				}
			}
			time.Sleep(100 * time.Millisecond)
		}
	}
}

func (a *LivenessTimer) Pause() {
	a.chPause <- true
}

func (a *LivenessTimer) Reset(t TimerMsg) error {
	var errMsgs []string
	if t.HandID == "" {
		errMsgs = append(errMsgs, "invalid handID")
	}
	if t.Purpose != ActionPurpose && t.Purpose != RevealPurpose {
		errMsgs = append(errMsgs, "invalid purpose")
	}
	if t.Purpose == ActionPurpose && t.SeatNo < 0 {
		errMsgs = append(errMsgs, "invalid seatNo")
	}
	if t.ExpireAt.IsZero() {
		errMsgs = append(errMsgs, "invalid expireAt")
	}
	if len(errMsgs) > 0 {
		return fmt.Errorf("%s", strings.Join(errMsgs, "; "))
	}
	a.chReset <- t
	return nil
}

func (a *LivenessTimer) GetRemainingSec() uint32 {
	return atomic.LoadUint32(&a.secondsTillTimeout)
}

func (a *LivenessTimer) GetCurrentTimerMsg() TimerMsg {
	a.msgLock.RLock()
	defer a.msgLock.RUnlock()
	return a.currentTimerMsg
}
