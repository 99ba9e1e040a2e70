package game

import (
	cmap "github.com/orcaman/concurrent-map"
	"github.com/pkg/errors"
)

type MemoryStore struct {
	records cmap.ConcurrentMap
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: cmap.New(),
	}
}

func (m *MemoryStore) get(key string) ([]byte, bool, error) {
	v, ok := m.records.Get(key)
	if !ok {
		return nil, false, nil
	}
	return v.([]byte), true, nil
}

func (m *MemoryStore) LoadTable(tableID string) (*Table, error) {
	b, ok, _ := m.get(tableKey(tableID))
	if !ok {
		return nil, NotFoundError{Key: tableKey(tableID)}
	}
	table, err := decodeTable(b)
	if err != nil {
		return nil, errors.Wrapf(err, "Unable to decode table %s", tableID)
	}
	return table, nil
}

func (m *MemoryStore) LoadSeats(tableID string, maxPlayers int) (Seats, error) {
	seats, err := loadSeats(tableID, maxPlayers, m.get)
	if err != nil {
		return nil, errors.Wrapf(err, "Unable to decode seats of table %s", tableID)
	}
	return seats, nil
}

func (m *MemoryStore) LoadHand(handID string) (*Hand, error) {
	b, ok, _ := m.get(handKey(handID))
	if !ok {
		return nil, NotFoundError{Key: handKey(handID)}
	}
	hand, err := decodeHand(b)
	if err != nil {
		return nil, errors.Wrapf(err, "Unable to decode hand %s", handID)
	}
	return hand, nil
}

func (m *MemoryStore) Commit(table *Table, seats Seats, hand *Hand) error {
	records := map[string]interface{}{
		tableKey(table.ID): encodeTable(table),
	}
	for i := range seats {
		records[seatKey(table.ID, i)] = encodeSeat(&seats[i])
	}
	if hand != nil {
		records[handKey(hand.ID)] = encodeHand(hand)
	}
	m.records.MSet(records)
	return nil
}

func (m *MemoryStore) RemoveHand(handID string) error {
	m.records.Remove(handKey(handID))
	return nil
}
