package repository

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradetrack-backend/internal/domain"
)

func newTestSQLite(t *testing.T) *SQLite {
	t.Helper()
	store, err := NewSQLite(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSQLiteTradeRoundTrip(t *testing.T) {
	t.Parallel()

	store := newTestSQLite(t)
	ctx := context.Background()

	rec := domain.TradeRecord{
		ID:         "t-1",
		Instrument: "EURUSD",
		Direction:  domain.DirectionSell,
		LotSize:    "0.5",
		EntryTime:  "09:30",
		ExitTime:   "11:00",
		RiskReward: 2.5,
		Strategy:   "breakout",
		Profit:     -80,
		Status:     domain.OutcomeLoss,
		Date:       "2025-01-01",
		Notes:      "stopped out",
		Screenshot: "https://blobs.test/t-1",
	}
	require.NoError(t, store.UpsertTrade(ctx, domain.LocalPrincipal, rec))

	trades, err := store.ListTrades(ctx, domain.LocalPrincipal)
	require.NoError(t, err)
	require.Len(t, trades, 1)
	assert.Equal(t, rec, trades[0])
}

func TestSQLiteUpsertOverwrites(t *testing.T) {
	t.Parallel()

	store := newTestSQLite(t)
	ctx := context.Background()

	rec := domain.TradeRecord{ID: "t-1", Profit: 50, Date: "2025-01-01", Status: domain.OutcomeWin}
	require.NoError(t, store.UpsertTrade(ctx, "user-1", rec))

	rec.Profit = -30
	rec.Status = domain.OutcomeLoss
	require.NoError(t, store.UpsertTrade(ctx, "user-1", rec))

	trades, err := store.ListTrades(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, trades, 1)
	assert.Equal(t, -30.0, trades[0].Profit)
	assert.Equal(t, domain.OutcomeLoss, trades[0].Status)
}

func TestSQLiteListTradesSortedByDate(t *testing.T) {
	t.Parallel()

	store := newTestSQLite(t)
	ctx := context.Background()

	require.NoError(t, store.UpsertTrade(ctx, "user-1", domain.TradeRecord{ID: "b", Date: "2025-02-01"}))
	require.NoError(t, store.UpsertTrade(ctx, "user-1", domain.TradeRecord{ID: "a", Date: "2025-01-01"}))

	trades, err := store.ListTrades(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, trades, 2)
	assert.Equal(t, "a", trades[0].ID)
	assert.Equal(t, "b", trades[1].ID)
}

func TestSQLitePrincipalIsolation(t *testing.T) {
	t.Parallel()

	store := newTestSQLite(t)
	ctx := context.Background()

	require.NoError(t, store.UpsertTrade(ctx, "user-1", domain.TradeRecord{ID: "t-1"}))
	require.NoError(t, store.UpsertTrade(ctx, "user-2", domain.TradeRecord{ID: "t-2"}))

	trades, err := store.ListTrades(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, trades, 1)
	assert.Equal(t, "t-1", trades[0].ID)
}

func TestSQLiteDeleteTrade(t *testing.T) {
	t.Parallel()

	store := newTestSQLite(t)
	ctx := context.Background()

	require.NoError(t, store.UpsertTrade(ctx, "user-1", domain.TradeRecord{ID: "t-1"}))
	require.NoError(t, store.DeleteTrade(ctx, "user-1", "t-1"))

	err := store.DeleteTrade(ctx, "user-1", "t-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSQLiteTransactions(t *testing.T) {
	t.Parallel()

	store := newTestSQLite(t)
	ctx := context.Background()

	tx := domain.Transaction{ID: "x-1", Type: domain.TransactionDeposit, Amount: 500, Date: "2025-01-01", Notes: "funding"}
	require.NoError(t, store.UpsertTransaction(ctx, "user-1", tx))

	txs, err := store.ListTransactions(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, tx, txs[0])

	require.NoError(t, store.DeleteTransaction(ctx, "user-1", "x-1"))
	assert.ErrorIs(t, store.DeleteTransaction(ctx, "user-1", "x-1"), domain.ErrNotFound)
}

func TestSQLiteSettings(t *testing.T) {
	t.Parallel()

	store := newTestSQLite(t)
	ctx := context.Background()

	// Absent settings read as the zero value, not an error.
	settings, err := store.GetSettings(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, domain.AccountSettings{}, settings)

	require.NoError(t, store.SetSettings(ctx, "user-1", domain.AccountSettings{InitialBalance: 10000}))
	settings, err = store.GetSettings(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 10000.0, settings.InitialBalance)
}

func TestSQLiteResetAll(t *testing.T) {
	t.Parallel()

	store := newTestSQLite(t)
	ctx := context.Background()

	require.NoError(t, store.UpsertTrade(ctx, "user-1", domain.TradeRecord{ID: "t-1"}))
	require.NoError(t, store.UpsertTransaction(ctx, "user-1", domain.Transaction{ID: "x-1", Type: domain.TransactionDeposit, Amount: 1}))
	require.NoError(t, store.SetSettings(ctx, "user-1", domain.AccountSettings{InitialBalance: 100}))

	// Another principal's data survives the reset.
	require.NoError(t, store.UpsertTrade(ctx, "user-2", domain.TradeRecord{ID: "t-2"}))

	require.NoError(t, store.ResetAll(ctx, "user-1"))

	trades, err := store.ListTrades(ctx, "user-1")
	require.NoError(t, err)
	assert.Empty(t, trades)
	txs, err := store.ListTransactions(ctx, "user-1")
	require.NoError(t, err)
	assert.Empty(t, txs)
	settings, err := store.GetSettings(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, domain.AccountSettings{}, settings)

	others, err := store.ListTrades(ctx, "user-2")
	require.NoError(t, err)
	assert.Len(t, others, 1)
}
