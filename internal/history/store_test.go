package history

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	walleterr "github.com/mrz1836/polywallet/pkg/errors"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(DriverSQLite, filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestRecordAndGet(t *testing.T) {
	t.Parallel()

	s := openTestStore(t)
	ctx := context.Background()

	e := NewEntry("tron", "mainnet", "TFrom", "TTo", "1.25")
	e.TxHash = "abc"
	require.NoError(t, s.Record(ctx, e))
	assert.NotEqual(t, uuid.Nil, e.ID)

	got, err := s.Get(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, got.Status)
	assert.Equal(t, "abc", got.TxHash)
	assert.True(t, decimal.RequireFromString("1.25").Equal(got.Amount), got.Amount.String())
}

func TestMarkFailed(t *testing.T) {
	t.Parallel()

	s := openTestStore(t)
	ctx := context.Background()

	e := NewEntry("sui", "testnet", "0xa", "0xb", "2")
	require.NoError(t, s.Record(ctx, e))
	require.NoError(t, s.MarkFailed(ctx, e.ID, errors.New("gas too low")))

	got, err := s.Get(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, got.Status)
	assert.Equal(t, "gas too low", got.Error)

	err = s.MarkFailed(ctx, uuid.New(), nil)
	require.ErrorIs(t, err, walleterr.ErrTransactionNotFound)
}

func TestSetTxHash(t *testing.T) {
	t.Parallel()

	s := openTestStore(t)
	ctx := context.Background()

	e := NewEntry("bitcoin", "mainnet", "1a", "1b", "0.001")
	require.NoError(t, s.Record(ctx, e))
	require.NoError(t, s.SetTxHash(ctx, e.ID, "deadbeef"))

	got, err := s.Get(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, "deadbeef", got.TxHash)
	assert.Equal(t, StatusSent, got.Status)

	err = s.SetTxHash(ctx, uuid.New(), "x")
	require.ErrorIs(t, err, walleterr.ErrTransactionNotFound)
}

func TestList(t *testing.T) {
	t.Parallel()

	s := openTestStore(t)
	ctx := context.Background()

	base := time.Now().Add(-time.Hour)
	for i, c := range []string{"tron", "ton", "tron"} {
		e := NewEntry(c, "mainnet", "from", "to", "1")
		e.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		require.NoError(t, s.Record(ctx, e))
	}
	failed := NewEntry("tron", "mainnet", "from", "to", "1")
	failed.Status = StatusFailed
	failed.CreatedAt = base.Add(10 * time.Minute)
	require.NoError(t, s.Record(ctx, failed))

	all, err := s.List(ctx, Filter{})
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, failed.ID, all[0].ID, "newest first")

	tron, err := s.List(ctx, Filter{Chain: "tron", Status: StatusPending})
	require.NoError(t, err)
	assert.Len(t, tron, 2)

	limited, err := s.List(ctx, Filter{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestOpenUnknownDriver(t *testing.T) {
	t.Parallel()

	_, err := Open("oracle", "x")
	require.ErrorIs(t, err, walleterr.ErrConfigInvalid)
}

func TestNewEntryBadAmount(t *testing.T) {
	t.Parallel()

	e := NewEntry("aptos", "mainnet", "a", "b", "lots")
	assert.True(t, e.Amount.IsZero())
}
