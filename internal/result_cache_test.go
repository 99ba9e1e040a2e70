package internal

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResultCache(t *testing.T) {
	c, err := NewResultCache(2)
	require.NoError(t, err)

	require.Error(t, c.Add("", "hand1", 1))
	require.Error(t, c.Add("table1", "", 1))

	require.NoError(t, c.Add("table1", "hand1", "first"))
	require.NoError(t, c.Add("table1", "hand2", "second"))
	last, ok := c.LastHand("table1")
	require.True(t, ok)
	require.Equal(t, "hand2", last)

	require.NoError(t, c.Add("table2", "hand3", "third"))
	_, ok = c.Get("hand1")
	require.False(t, ok, "oldest record is evicted")
	v, ok := c.Get("hand3")
	require.True(t, ok)
	require.Equal(t, "third", v)
}

func TestLedgerConnStr(t *testing.T) {
	t.Setenv("POSTGRES_HOST", "db")
	t.Setenv("POSTGRES_PORT", "5432")
	t.Setenv("POSTGRES_USER", "holdem")
	t.Setenv("POSTGRES_PASSWORD", "secret")
	t.Setenv("POSTGRES_DB", "ledger")
	require.Equal(t, "host=db port=5432 user=holdem password=secret dbname=ledger sslmode=disable", GetLedgerConnStr())
}
