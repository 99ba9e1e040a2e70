package game

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestActionTimeout(t *testing.T) {
	_, h, seats := newTestHand(t, 5, 10, 1000, 1000, 1000)
	h, seats = dealTestHand(t, h, seats, "0: Ah Kh|1: 2c 7d|2: 9s 9d", "2h 3h 4h 5d 6d")

	testCases := []struct {
		seat       int
		after      time.Duration
		isExpected func(error) bool
	}{
		{0, 59 * time.Second, IsTimeoutNotElapsed},
		{1, 2 * time.Minute, IsStateViolation},
		{5, 2 * time.Minute, IsStateViolation},
	}
	for i, tc := range testCases {
		gotHand, gotSeats, err := ForceActionTimeout(h, seats, tc.seat, startTime.Add(tc.after), DefaultActionTimeout)
		if !tc.isExpected(err) {
			t.Errorf("Test case %d: unexpected error %v", i, err)
		}
		if !cmp.Equal(gotHand, h) || !cmp.Equal(gotSeats, seats) {
			t.Errorf("Test case %d: rejected timeout changed the state", i)
		}
	}

	// facing the big blind: fold
	now := startTime.Add(DefaultActionTimeout)
	h, seats, err := ForceActionTimeout(h, seats, 0, now, DefaultActionTimeout)
	require.NoError(t, err)
	assert.Equal(t, SeatFolded, seats[0].Status)
	assert.Equal(t, now.Unix(), h.LastActionTime)
	assert.Equal(t, 1, h.ActionOn)

	h, seats = act(t, h, seats, 1, ActionCall, 0)
	require.Equal(t, 2, h.ActionOn)

	// big blind option: check
	now = time.Unix(h.LastActionTime, 0).Add(DefaultActionTimeout)
	h, seats, err = ForceActionTimeout(h, seats, 2, now, DefaultActionTimeout)
	require.NoError(t, err)
	assert.Equal(t, SeatPlaying, seats[2].Status)
	assert.Equal(t, PhaseFlop, h.Phase)

	_, _, err = ForceActionTimeout(h, seats, 2, now.Add(time.Hour), DefaultActionTimeout)
	assert.True(t, IsStateViolation(err), "seat 2 is no longer on the clock: %v", err)
}

// Every betting turn can be forced to resolve, so a hand always terminates.
func TestTimeoutsAlwaysFinishTheHand(t *testing.T) {
	_, h, seats := newTestHand(t, 5, 10, 300, 700, 1000, 50)
	h, seats = dealTestHand(t, h, seats, "0: Ah Kh|1: 2c 7d|2: 9s 9d|3: Qc Qd", "2h 3h 4h 5d 6d")

	now := startTime
	var err error
	for steps := 0; h.Phase.IsBetting(); steps++ {
		require.Less(t, steps, 40)
		now = now.Add(DefaultActionTimeout)
		h, seats, err = ForceActionTimeout(h, seats, h.ActionOn, now, DefaultActionTimeout)
		require.NoError(t, err)
	}
	require.Equal(t, PhaseSettled, h.Phase)
	require.True(t, h.PayoutPending())
	_, seats, _, err = Settle(h, seats, now)
	require.NoError(t, err)
	require.Equal(t, uint64(2050), seats.TotalChips())
}

func TestRevealTimeout(t *testing.T) {
	_, h, seats := newTestHand(t, 5, 10, 500, 1000)
	h, seats = dealTestHand(t, h, seats, "0: 2c 7d|1: Ah As", "Kd 9s 5h 3c Jd")
	h, seats = act(t, h, seats, 1, ActionAllIn, 0)
	h, seats = act(t, h, seats, 0, ActionCall, 0)
	require.Equal(t, PhaseShowdown, h.Phase)

	_, _, err := ForceRevealTimeout(h, seats, 0, startTime.Add(time.Minute), DefaultRevealTimeout)
	require.True(t, IsTimeoutNotElapsed(err), "%v", err)

	revealAt := startTime.Add(10 * time.Second)
	h, seats, err = RevealHoleCards(h, seats, 1, revealAt)
	require.NoError(t, err)
	require.Equal(t, revealAt.Unix(), h.LastActionTime)

	_, _, err = ForceRevealTimeout(h, seats, 1, revealAt.Add(time.Hour), DefaultRevealTimeout)
	require.True(t, IsStateViolation(err), "revealed seat cannot be mucked: %v", err)

	// the window restarts with every reveal
	_, _, err = ForceRevealTimeout(h, seats, 0, startTime.Add(DefaultRevealTimeout), DefaultRevealTimeout)
	require.True(t, IsTimeoutNotElapsed(err), "%v", err)

	h, seats, err = ForceRevealTimeout(h, seats, 0, revealAt.Add(DefaultRevealTimeout), DefaultRevealTimeout)
	require.NoError(t, err)
	assert.Equal(t, SeatFolded, seats[0].Status)
	assert.Equal(t, PhaseSettled, h.Phase)
	assert.Equal(t, 1, h.ActiveCount)

	_, seats, result, err := Settle(h, seats, revealAt.Add(DefaultRevealTimeout))
	require.NoError(t, err)
	assert.Equal(t, uint64(1500), seats[1].Chips)
	assert.Equal(t, uint64(0), seats[0].Chips)
	assert.Equal(t, []int{1}, result.Winners)
	assert.True(t, result.Players[0].Folded)
	assert.False(t, result.Players[0].AllIn, "a mucked seat is reported as folded only")
	assert.True(t, result.Players[1].AllIn)
	assert.False(t, result.Players[1].Folded)
}

func TestRevealTimeoutOutsideShowdown(t *testing.T) {
	_, h, seats := newTestHand(t, 5, 10, 1000, 1000)
	h, seats = dealTestHand(t, h, seats, "0: 2c 7d|1: Ah As", "Kd 9s 5h 3c Jd")
	_, _, err := ForceRevealTimeout(h, seats, 0, startTime.Add(time.Hour), DefaultRevealTimeout)
	require.True(t, IsStateViolation(err), "%v", err)
}
