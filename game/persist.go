package game

import "fmt"

// Store keeps one committed state per table: the table record, its seats
// (keyed by table id and seat index) and the hand in progress (keyed by hand id).
type Store interface {
	LoadTable(tableID string) (*Table, error)
	LoadSeats(tableID string, maxPlayers int) (Seats, error)
	LoadHand(handID string) (*Hand, error)
	// Commit writes the table, every seat and the hand when it is not nil.
	Commit(table *Table, seats Seats, hand *Hand) error
	RemoveHand(handID string) error
}

func tableKey(tableID string) string {
	return fmt.Sprintf("table|%s", tableID)
}

func seatKey(tableID string, seatIndex int) string {
	return fmt.Sprintf("seat|%s|%d", tableID, seatIndex)
}

func handKey(handID string) string {
	return fmt.Sprintf("hand|%s", handID)
}

// loadSeats fills every seat of a table, seats never written come back empty.
func loadSeats(tableID string, maxPlayers int, get func(key string) ([]byte, bool, error)) (Seats, error) {
	seats := NewSeats(maxPlayers)
	for i := range seats {
		b, ok, err := get(seatKey(tableID, i))
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		seat, err := decodeSeat(b)
		if err != nil {
			return nil, err
		}
		seat.Index = i
		seats[i] = *seat
	}
	return seats, nil
}
