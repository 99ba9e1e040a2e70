package game

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/encoding/protowire"
)

func TestStoreRoundTripMidHand(t *testing.T) {
	table, h, seats := newTestHand(t, 5, 10, 500, 0, 1000, 700)
	h, seats = dealTestHand(t, h, seats, "0: 2c 7d|2: Ah As|3: Qc Qh", "Kd 9s 5h 3c Jd")
	h, seats = act(t, h, seats, 0, ActionRaise, 40)
	h, seats = act(t, h, seats, 2, ActionAllIn, 0)

	store := NewMemoryStore()
	require.NoError(t, store.Commit(&table, seats, &h))

	gotTable, err := store.LoadTable(table.ID)
	require.NoError(t, err)
	gotSeats, err := store.LoadSeats(table.ID, table.MaxPlayers)
	require.NoError(t, err)
	gotHand, err := store.LoadHand(h.ID)
	require.NoError(t, err)

	if !cmp.Equal(*gotTable, table) {
		t.Errorf("Table: %s", cmp.Diff(table, *gotTable))
	}
	if !cmp.Equal(gotSeats, seats) {
		t.Errorf("Seats: %s", cmp.Diff(seats, gotSeats))
	}
	if !cmp.Equal(*gotHand, h) {
		t.Errorf("Hand: %s", cmp.Diff(h, *gotHand))
	}

	require.NoError(t, store.RemoveHand(h.ID))
	_, err = store.LoadHand(h.ID)
	require.True(t, IsNotFound(err))
}

func TestDecodeRejectsCorruptRecords(t *testing.T) {
	b := encodeHand(&Hand{ID: "hand1"})
	_, err := decodeHand(b[:len(b)-1])
	require.Error(t, err)

	var bad []byte
	bad = protowire.AppendTag(bad, 17, protowire.BytesType)
	bad = protowire.AppendBytes(bad, []byte{9})
	_, err = decodeHand(bad)
	require.Error(t, err, "seat 9 does not exist")

	// unknown fields are skipped
	var extra []byte
	extra = protowire.AppendTag(extra, 99, protowire.Fixed32Type)
	extra = protowire.AppendFixed32(extra, 7)
	extra = append(extra, encodeTable(&Table{ID: "table1", DealerSeat: NoSeat})...)
	table, err := decodeTable(extra)
	require.NoError(t, err)
	require.Equal(t, "table1", table.ID)
	require.Equal(t, NoSeat, table.DealerSeat)
}
