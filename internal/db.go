package internal

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/pkg/errors"

	"holdem.com/server/util"
)

func GetLedgerConnStr() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		util.Env.GetPostgresHost(),
		util.Env.GetPostgresPort(),
		util.Env.GetPostgresUser(),
		util.Env.GetPostgresPW(),
		util.Env.GetPostgresDB(),
		util.Env.GetPostgresSSLMode(),
	)
}

// ConnectLedger opens the chip ledger database and creates its table when missing.
func ConnectLedger(connStr string) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", connStr)
	if err != nil {
		return nil, errors.Wrap(err, "Unable to connect to the ledger database")
	}
	if _, err := db.Exec(ledgerSchema); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "Unable to create the ledger schema")
	}
	return db, nil
}
