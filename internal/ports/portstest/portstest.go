// Package portstest holds the behaviour every ports.Store adapter must share.
package portstest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zent/internal/core"
	"zent/internal/ports"
)

var t0 = time.Date(2025, 4, 1, 9, 30, 0, 0, time.UTC)

// Factory returns an empty store with its outbox enabled.
type Factory func(t *testing.T) ports.Store

// Run exercises the store contract against stores built by newStore.
func Run(t *testing.T, newStore Factory) {
	t.Run("accounts", func(t *testing.T) { testAccounts(t, newStore(t)) })
	t.Run("events", func(t *testing.T) { testEvents(t, newStore(t)) })
	t.Run("delete", func(t *testing.T) { testDelete(t, newStore(t)) })
	t.Run("strategy", func(t *testing.T) { testStrategy(t, newStore(t)) })
	t.Run("sync queue", func(t *testing.T) { testSyncQueue(t, newStore(t)) })
}

func testAccounts(t *testing.T, s ports.Store) {
	ctx := context.Background()

	a, err := s.CreateAccount(ctx, core.Account{Slug: "nu", Name: "Nu", Currency: core.MXN})
	require.NoError(t, err)
	assert.NotEmpty(t, a.ID)

	_, err = s.CreateAccount(ctx, core.Account{Slug: "nu", Name: "Nu 2", Currency: core.MXN})
	assert.ErrorIs(t, err, ports.ErrDuplicate)

	_, err = s.CreateAccount(ctx, core.Account{Slug: "x", Name: "", Currency: core.MXN})
	assert.ErrorIs(t, err, core.ErrEmptyName)

	list, err := s.ListAccounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, []core.Account{a}, list)

	require.NoError(t, s.DeleteAccount(ctx, a.ID))
	assert.ErrorIs(t, s.DeleteAccount(ctx, a.ID), ports.ErrNotFound)
}

func testEvents(t *testing.T, s ports.Store) {
	ctx := context.Background()

	in := core.IncomeEvent{
		Timestamp: t0, Amount: 100, Currency: core.USD, ConvertedAmount: 1800,
		OriginalText: "$100.00 (@18.0000)", Account: "dolarApp", IsSalary: true, RateUsed: core.Rate(18),
	}
	inID, err := s.AddIncome(ctx, in)
	require.NoError(t, err)
	require.NotEmpty(t, inID)

	ex := core.ExpenseEvent{
		ID: "fixed-id", Timestamp: t0.Add(time.Hour), Amount: 250.5, Currency: core.MXN, ConvertedAmount: 250.5,
		Category: "Supermercado", Group: "Necesidades", Type: core.TypeNeed, Account: "bbva",
	}
	exID, err := s.AddExpense(ctx, ex)
	require.NoError(t, err)
	assert.Equal(t, "fixed-id", exID)

	tr := core.TransferEvent{
		Timestamp: t0.Add(2 * time.Hour), From: "bbva", To: "efectivo",
		AmountSent: 500, CurrencySent: core.MXN, AmountReceived: 500, CurrencyReceived: core.MXN,
		IsWithdrawal: true,
	}
	trID, err := s.AddTransfer(ctx, tr)
	require.NoError(t, err)

	_, err = s.AddIncome(ctx, core.IncomeEvent{Timestamp: t0, Amount: -1, Currency: core.MXN, Account: "bbva"})
	assert.ErrorIs(t, err, core.ErrInvalidAmount)

	ds, err := s.Snapshot(ctx)
	require.NoError(t, err)
	require.Len(t, ds.Incomes, 1)
	require.Len(t, ds.Expenses, 1)
	require.Len(t, ds.Transfers, 1)

	in.ID = inID
	assert.Equal(t, in, ds.Incomes[0])
	ex.ID = exID
	assert.Equal(t, ex, ds.Expenses[0])
	tr.ID = trID
	assert.Equal(t, tr, ds.Transfers[0])

	got, err := s.Income(ctx, inID)
	require.NoError(t, err)
	assert.Equal(t, in, got)
	gotTr, err := s.Transfer(ctx, trID)
	require.NoError(t, err)
	assert.Equal(t, tr, gotTr)

	_, err = s.Expense(ctx, "missing")
	assert.ErrorIs(t, err, ports.ErrNotFound)
}

func testDelete(t *testing.T, s ports.Store) {
	ctx := context.Background()

	id, err := s.AddExpense(ctx, core.ExpenseEvent{
		Timestamp: t0, Amount: 10, Currency: core.MXN, ConvertedAmount: 10,
		Category: "Gasolina", Group: "Necesidades", Type: core.TypeNeed, Account: "bbva",
	})
	require.NoError(t, err)

	require.NoError(t, s.DeleteExpense(ctx, id))
	assert.ErrorIs(t, s.DeleteExpense(ctx, id), ports.ErrNotFound)
	assert.ErrorIs(t, s.DeleteIncome(ctx, id), ports.ErrNotFound)
	assert.ErrorIs(t, s.DeleteTransfer(ctx, "nope"), ports.ErrNotFound)

	ds, err := s.Snapshot(ctx)
	require.NoError(t, err)
	assert.Zero(t, ds.Len())
}

func testStrategy(t *testing.T, s ports.Store) {
	ctx := context.Background()

	_, found, err := s.LoadStrategy(ctx)
	require.NoError(t, err)
	assert.False(t, found)

	cfg := core.StrategyConfig{
		Needs:  core.BucketConfig{Pct: 55, Account: "mercadoPago"},
		Wants:  core.BucketConfig{Pct: 25, Account: "dolarApp"},
		Future: core.BucketConfig{Pct: 20, Account: "bbva"},
	}
	require.NoError(t, s.SaveStrategy(ctx, cfg))
	cfg.Needs.Pct = 50
	require.NoError(t, s.SaveStrategy(ctx, cfg))

	got, found, err := s.LoadStrategy(ctx)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, cfg, got)
}

func testSyncQueue(t *testing.T, s ports.Store) {
	ctx := context.Background()

	ids := make([]string, 3)
	for i := range ids {
		id, err := s.AddIncome(ctx, core.IncomeEvent{
			Timestamp: t0, Amount: float64(i + 1), Currency: core.MXN, ConvertedAmount: float64(i + 1), Account: "bbva",
		})
		require.NoError(t, err)
		ids[i] = id
	}
	require.NoError(t, s.DeleteIncome(ctx, ids[2]))

	batch, err := s.DequeueSync(ctx, 2)
	require.NoError(t, err)
	require.Len(t, batch, 2)
	assert.Equal(t, core.KindIncome, batch[0].Kind)
	assert.Equal(t, ids[0], batch[0].EventID)
	assert.Equal(t, ports.SyncUpsert, batch[0].Op)

	// claimed items are not handed out twice
	rest, err := s.DequeueSync(ctx, 10)
	require.NoError(t, err)
	require.Len(t, rest, 2)
	assert.Equal(t, ports.SyncDelete, rest[1].Op)
	assert.Equal(t, ids[2], rest[1].EventID)

	require.NoError(t, s.CompleteSync(ctx, batch[0].ID))
	require.NoError(t, s.RetrySync(ctx, batch[1].ID, "sheets down"))
	require.NoError(t, s.FailSync(ctx, rest[0].ID, "gone"))

	st, err := s.SyncStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, ports.SyncStats{Pending: 1, Processing: 1, Completed: 1, Failed: 1}, st)

	retried, err := s.DequeueSync(ctx, 10)
	require.NoError(t, err)
	require.Len(t, retried, 1)
	assert.Equal(t, 1, retried[0].Attempts)
	assert.Equal(t, "sheets down", retried[0].LastError)

	require.NoError(t, s.ResetStaleSync(ctx))
	require.NoError(t, s.RetryFailedSync(ctx))
	st, err = s.SyncStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, ports.SyncStats{Pending: 3, Completed: 1}, st)

	require.NoError(t, s.CleanupSync(ctx, time.Now().Add(time.Hour)))
	st, err = s.SyncStats(ctx)
	require.NoError(t, err)
	assert.Zero(t, st.Completed)

	assert.ErrorIs(t, s.CompleteSync(ctx, 9999), ports.ErrNotFound)
}
