package game

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"

	"holdem.com/server/poker"
)

// Records are stored in protobuf wire format so the redis payloads stay
// compact and readable by any protobuf decoder.

type recordEncoder struct {
	b []byte
}

func (e *recordEncoder) uint(num protowire.Number, v uint64) {
	if v == 0 {
		return
	}
	e.b = protowire.AppendTag(e.b, num, protowire.VarintType)
	e.b = protowire.AppendVarint(e.b, v)
}

func (e *recordEncoder) int(num protowire.Number, v int64) {
	e.uint(num, protowire.EncodeZigZag(v))
}

func (e *recordEncoder) bool(num protowire.Number, v bool) {
	if v {
		e.uint(num, 1)
	}
}

func (e *recordEncoder) string(num protowire.Number, v string) {
	if v == "" {
		return
	}
	e.b = protowire.AppendTag(e.b, num, protowire.BytesType)
	e.b = protowire.AppendString(e.b, v)
}

// cards are always written, a hidden card is 255 rather than absent
func (e *recordEncoder) cards(num protowire.Number, cards []poker.Card) {
	raw := make([]byte, len(cards))
	for i, c := range cards {
		raw[i] = byte(c)
	}
	e.b = protowire.AppendTag(e.b, num, protowire.BytesType)
	e.b = protowire.AppendBytes(e.b, raw)
}

func (e *recordEncoder) seatSet(num protowire.Number, s SeatSet) {
	seats := s.Seats()
	if len(seats) == 0 {
		return
	}
	raw := make([]byte, len(seats))
	for i, seat := range seats {
		raw[i] = byte(seat)
	}
	e.b = protowire.AppendTag(e.b, num, protowire.BytesType)
	e.b = protowire.AppendBytes(e.b, raw)
}

type fieldValue struct {
	num    protowire.Number
	varint uint64
	bytes  []byte
}

func (f fieldValue) int() int {
	return int(protowire.DecodeZigZag(f.varint))
}

func (f fieldValue) cards(out []poker.Card) error {
	if len(f.bytes) != len(out) {
		return fmt.Errorf("field %d: expected %d cards, got %d", f.num, len(out), len(f.bytes))
	}
	for i, b := range f.bytes {
		out[i] = poker.Card(b)
	}
	return nil
}

func (f fieldValue) seatSet() (SeatSet, error) {
	var s SeatSet
	for _, b := range f.bytes {
		if !validSeat(int(b)) {
			return s, fmt.Errorf("field %d: seat %d out of range", f.num, b)
		}
		s.Add(int(b))
	}
	return s, nil
}

func decodeRecord(b []byte, fn func(f fieldValue) error) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return protowire.ParseError(n)
		}
		b = b[n:]
		f := fieldValue{num: num}
		switch typ {
		case protowire.VarintType:
			f.varint, n = protowire.ConsumeVarint(b)
		case protowire.BytesType:
			f.bytes, n = protowire.ConsumeBytes(b)
		default:
			// unknown field types from newer writers are skipped
			n = protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return protowire.ParseError(n)
			}
			b = b[n:]
			continue
		}
		if n < 0 {
			return protowire.ParseError(n)
		}
		b = b[n:]
		if err := fn(f); err != nil {
			return err
		}
	}
	return nil
}

func encodeTable(t *Table) []byte {
	e := &recordEncoder{}
	e.string(1, t.ID)
	e.uint(2, uint64(t.MaxPlayers))
	e.uint(3, t.SmallBlind)
	e.uint(4, t.BigBlind)
	e.int(5, int64(t.DealerSeat))
	e.uint(6, t.HandNumber)
	e.uint(7, uint64(t.Status))
	e.string(8, t.CurrentHandID)
	return e.b
}

func decodeTable(b []byte) (*Table, error) {
	t := &Table{}
	err := decodeRecord(b, func(f fieldValue) error {
		switch f.num {
		case 1:
			t.ID = string(f.bytes)
		case 2:
			t.MaxPlayers = int(f.varint)
		case 3:
			t.SmallBlind = f.varint
		case 4:
			t.BigBlind = f.varint
		case 5:
			t.DealerSeat = f.int()
		case 6:
			t.HandNumber = f.varint
		case 7:
			t.Status = TableStatus(f.varint)
		case 8:
			t.CurrentHandID = string(f.bytes)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return t, nil
}

func encodeSeat(s *Seat) []byte {
	e := &recordEncoder{}
	e.string(1, s.PlayerID)
	e.uint(2, uint64(s.Index))
	e.uint(3, s.Chips)
	e.uint(4, s.CurrentBet)
	e.uint(5, s.TotalBet)
	e.uint(6, uint64(s.Status))
	e.bool(7, s.HasActed)
	e.cards(8, s.HoleCards[:])
	e.cards(9, s.RevealedCards[:])
	e.bool(10, s.CardsRevealed)
	return e.b
}

func decodeSeat(b []byte) (*Seat, error) {
	s := &Seat{}
	err := decodeRecord(b, func(f fieldValue) error {
		switch f.num {
		case 1:
			s.PlayerID = string(f.bytes)
		case 2:
			s.Index = int(f.varint)
		case 3:
			s.Chips = f.varint
		case 4:
			s.CurrentBet = f.varint
		case 5:
			s.TotalBet = f.varint
		case 6:
			s.Status = SeatStatus(f.varint)
		case 7:
			s.HasActed = f.varint != 0
		case 8:
			return f.cards(s.HoleCards[:])
		case 9:
			return f.cards(s.RevealedCards[:])
		case 10:
			s.CardsRevealed = f.varint != 0
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s, nil
}

func encodeHand(h *Hand) []byte {
	e := &recordEncoder{}
	e.string(1, h.ID)
	e.string(2, h.TableID)
	e.uint(3, h.HandNumber)
	e.uint(4, uint64(h.MaxPlayers))
	e.uint(5, uint64(h.Phase))
	e.uint(6, h.Pot)
	e.uint(7, h.CurrentBet)
	e.uint(8, h.MinRaise)
	e.uint(9, h.SmallBlind)
	e.uint(10, h.BigBlind)
	e.int(11, int64(h.DealerSeat))
	e.int(12, int64(h.SmallBlindSeat))
	e.int(13, int64(h.BigBlindSeat))
	e.int(14, int64(h.ActionOn))
	e.cards(15, h.CommunityCards[:])
	e.uint(16, uint64(h.CommunityRevealed))
	e.seatSet(17, h.Active)
	e.seatSet(18, h.Acted)
	e.seatSet(19, h.AllIn)
	e.seatSet(20, h.Participants)
	e.uint(21, uint64(h.ActiveCount))
	e.int(22, h.LastActionTime)
	e.bool(23, h.PaidOut)
	e.cards(24, h.SealedBoard[:])
	return e.b
}

func decodeHand(b []byte) (*Hand, error) {
	h := &Hand{}
	err := decodeRecord(b, func(f fieldValue) error {
		var err error
		switch f.num {
		case 1:
			h.ID = string(f.bytes)
		case 2:
			h.TableID = string(f.bytes)
		case 3:
			h.HandNumber = f.varint
		case 4:
			h.MaxPlayers = int(f.varint)
		case 5:
			h.Phase = Phase(f.varint)
		case 6:
			h.Pot = f.varint
		case 7:
			h.CurrentBet = f.varint
		case 8:
			h.MinRaise = f.varint
		case 9:
			h.SmallBlind = f.varint
		case 10:
			h.BigBlind = f.varint
		case 11:
			h.DealerSeat = f.int()
		case 12:
			h.SmallBlindSeat = f.int()
		case 13:
			h.BigBlindSeat = f.int()
		case 14:
			h.ActionOn = f.int()
		case 15:
			err = f.cards(h.CommunityCards[:])
		case 16:
			h.CommunityRevealed = int(f.varint)
		case 17:
			h.Active, err = f.seatSet()
		case 18:
			h.Acted, err = f.seatSet()
		case 19:
			h.AllIn, err = f.seatSet()
		case 20:
			h.Participants, err = f.seatSet()
		case 21:
			h.ActiveCount = int(f.varint)
		case 22:
			h.LastActionTime = protowire.DecodeZigZag(f.varint)
		case 23:
			h.PaidOut = f.varint != 0
		case 24:
			err = f.cards(h.SealedBoard[:])
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return h, nil
}
