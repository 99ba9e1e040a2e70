package internal

import (
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

const ledgerSchema = `
CREATE TABLE IF NOT EXISTS seat_stack (
	table_id   TEXT NOT NULL,
	seat_no    INTEGER NOT NULL,
	player_id  TEXT NOT NULL,
	chips      BIGINT NOT NULL,
	hand_id    TEXT NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	PRIMARY KEY (table_id, seat_no)
)`

// Stack is a seat's chip count after a hand.
type Stack struct {
	TableID  string `db:"table_id"`
	SeatNo   int    `db:"seat_no"`
	PlayerID string `db:"player_id"`
	Chips    int64  `db:"chips"`
	HandID   string `db:"hand_id"`
}

// PostgresChipLedger is the custody side: it records stacks after every settled hand.
type PostgresChipLedger struct {
	db *sqlx.DB
}

func NewPostgresChipLedger(db *sqlx.DB) *PostgresChipLedger {
	return &PostgresChipLedger{db: db}
}

func (l *PostgresChipLedger) SaveStacks(stacks []Stack) error {
	if len(stacks) == 0 {
		return nil
	}
	tx, err := l.db.Beginx()
	if err != nil {
		return errors.Wrap(err, "Unable to start ledger transaction")
	}
	query := `INSERT INTO seat_stack (table_id, seat_no, player_id, chips, hand_id, updated_at)
		VALUES (:table_id, :seat_no, :player_id, :chips, :hand_id, NOW())
		ON CONFLICT (table_id, seat_no) DO UPDATE
		SET player_id = EXCLUDED.player_id, chips = EXCLUDED.chips, hand_id = EXCLUDED.hand_id, updated_at = NOW()`
	for _, stack := range stacks {
		if _, err := tx.NamedExec(query, stack); err != nil {
			tx.Rollback()
			return errors.Wrapf(err, "Unable to save stack of seat %d at table %s", stack.SeatNo, stack.TableID)
		}
	}
	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "Unable to commit ledger transaction")
	}
	return nil
}

func (l *PostgresChipLedger) LoadStacks(tableID string) ([]Stack, error) {
	var stacks []Stack
	err := l.db.Select(&stacks, "SELECT table_id, seat_no, player_id, chips, hand_id FROM seat_stack WHERE table_id = $1 ORDER BY seat_no", tableID)
	if err != nil {
		return nil, errors.Wrapf(err, "Unable to load stacks of table %s", tableID)
	}
	return stacks, nil
}
