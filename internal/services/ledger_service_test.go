package services_test

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zent/internal/amqp"
	"zent/internal/chart"
	"zent/internal/core"
	"zent/internal/csvcodec"
	"zent/internal/currency"
	"zent/internal/ports"
	"zent/internal/ports/memory"
	"zent/internal/services"
	mock_services "zent/internal/services/mocks"
)

var fixedNow = time.Date(2024, 3, 15, 18, 30, 0, 0, time.UTC)

func newService(t *testing.T, rates services.RateProvider, opts ...services.Option) (*services.LedgerService, *memory.Store) {
	t.Helper()
	store := memory.New(memory.WithOutbox(), memory.WithClock(func() time.Time { return fixedNow }))
	opts = append([]services.Option{services.WithClock(func() time.Time { return fixedNow })}, opts...)
	return services.NewLedgerService(store, rates, opts...), store
}

func reason(t *testing.T, err error) core.Reason {
	t.Helper()
	require.Error(t, err)
	return core.ReasonOf(err)
}

func TestAddIncome(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	t.Run("USD income with manual rate into USD account", func(t *testing.T) {
		rates := mock_services.NewMockRateProvider(ctrl)
		svc, store := newService(t, rates)

		got, err := svc.AddIncome(ctx, services.IncomeInput{
			Account: "dolarApp", Amount: 100, Currency: core.USD, Rate: core.Rate(18), IsSalary: true,
		})
		require.NoError(t, err)
		assert.Equal(t, core.KindIncome, got.Kind)

		in, err := store.Income(ctx, got.ID)
		require.NoError(t, err)
		assert.InDelta(t, 1800, in.ConvertedAmount, 1e-9)
		assert.Equal(t, "dolarApp", in.Account)
		assert.Equal(t, "$100.00 (@18.0000)", in.OriginalText)
		assert.Equal(t, fixedNow, in.Timestamp)
		require.NotNil(t, in.RateUsed)
		assert.Equal(t, 18.0, *in.RateUsed)

		rates.EXPECT().Live(gomock.Any()).Return(17.0)
		v, err := svc.Views(ctx, services.ViewOptions{})
		require.NoError(t, err)
		assert.InDelta(t, 100, v.Balances.Balance("dolarApp"), 1e-9)
	})

	t.Run("USD income without rate uses the live rate", func(t *testing.T) {
		rates := mock_services.NewMockRateProvider(ctrl)
		rates.EXPECT().Strict(gomock.Any()).Return(17.5, nil)
		svc, store := newService(t, rates)

		got, err := svc.AddIncome(ctx, services.IncomeInput{Account: "bbva", Amount: 10, Currency: core.USD})
		require.NoError(t, err)

		in, err := store.Income(ctx, got.ID)
		require.NoError(t, err)
		assert.InDelta(t, 175, in.ConvertedAmount, 1e-9)
	})

	t.Run("failed rate lookup blocks the write", func(t *testing.T) {
		rates := mock_services.NewMockRateProvider(ctrl)
		rates.EXPECT().Strict(gomock.Any()).Return(0.0, currency.ErrRateUnavailable)
		svc, store := newService(t, rates)

		_, err := svc.AddIncome(ctx, services.IncomeInput{Account: "dolarApp", Amount: 10, Currency: core.USD})
		assert.Equal(t, core.ReasonRateUnavailable, reason(t, err))
		assert.ErrorIs(t, err, currency.ErrRateUnavailable)

		ds, _ := store.Snapshot(ctx)
		assert.Zero(t, ds.Len())
	})

	t.Run("rate lookup is bounded by the timeout", func(t *testing.T) {
		rates := mock_services.NewMockRateProvider(ctrl)
		rates.EXPECT().Strict(gomock.Any()).DoAndReturn(func(ctx context.Context) (float64, error) {
			<-ctx.Done()
			return 0, ctx.Err()
		})
		svc, _ := newService(t, rates, services.WithRateTimeout(10*time.Millisecond))

		_, err := svc.AddIncome(ctx, services.IncomeInput{Account: "dolarApp", Amount: 10, Currency: core.USD})
		assert.Equal(t, core.ReasonRateUnavailable, reason(t, err))
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})

	t.Run("MXN income needs no rate", func(t *testing.T) {
		svc, store := newService(t, mock_services.NewMockRateProvider(ctrl))

		got, err := svc.AddIncome(ctx, services.IncomeInput{Account: "Mercado Pago", Amount: 500})
		require.NoError(t, err)
		in, _ := store.Income(ctx, got.ID)
		assert.Equal(t, "mercadoPago", in.Account)
		assert.Equal(t, core.MXN, in.Currency)
		assert.Nil(t, in.RateUsed)
		assert.Equal(t, 500.0, in.ConvertedAmount)
	})

	invalid := []struct {
		name  string
		input services.IncomeInput
		want  core.Reason
	}{
		{"zero amount", services.IncomeInput{Account: "bbva", Amount: 0}, core.ReasonValidation},
		{"negative amount", services.IncomeInput{Account: "bbva", Amount: -5}, core.ReasonValidation},
		{"unknown account", services.IncomeInput{Account: "nope", Amount: 5}, core.ReasonUnknownAccount},
		{"unknown currency", services.IncomeInput{Account: "bbva", Amount: 5, Currency: "EUR"}, core.ReasonValidation},
		{"non-positive manual rate", services.IncomeInput{Account: "bbva", Amount: 5, Currency: core.USD, Rate: func() *float64 { v := -1.0; return &v }()}, core.ReasonValidation},
	}
	for _, tt := range invalid {
		t.Run(tt.name, func(t *testing.T) {
			svc, store := newService(t, mock_services.NewMockRateProvider(ctrl))
			_, err := svc.AddIncome(ctx, tt.input)
			assert.Equal(t, tt.want, reason(t, err))
			ds, _ := store.Snapshot(ctx)
			assert.Zero(t, ds.Len())
		})
	}
}

func TestAddExpense(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	t.Run("derives group and type from the category", func(t *testing.T) {
		svc, store := newService(t, mock_services.NewMockRateProvider(ctrl))

		got, err := svc.AddExpense(ctx, services.ExpenseInput{Account: "bbva", Amount: 250, Category: "Supermercado"})
		require.NoError(t, err)
		assert.Equal(t, core.KindExpense, got.Kind)

		ex, _ := store.Expense(ctx, got.ID)
		assert.Equal(t, "Necesidades", ex.Group)
		assert.Equal(t, core.TypeNeed, ex.Type)
		assert.Equal(t, 250.0, ex.ConvertedAmount)
	})

	t.Run("USD account expense converts with the live rate", func(t *testing.T) {
		rates := mock_services.NewMockRateProvider(ctrl)
		rates.EXPECT().Strict(gomock.Any()).Return(20.0, nil)
		svc, store := newService(t, rates)

		got, err := svc.AddExpense(ctx, services.ExpenseInput{Account: "dolarApp", Amount: 12, Category: "Suscripciones (Streaming)"})
		require.NoError(t, err)
		ex, _ := store.Expense(ctx, got.ID)
		assert.Equal(t, core.USD, ex.Currency)
		assert.InDelta(t, 240, ex.ConvertedAmount, 1e-9)
	})

	t.Run("USD expense without rate is rejected", func(t *testing.T) {
		rates := mock_services.NewMockRateProvider(ctrl)
		rates.EXPECT().Strict(gomock.Any()).Return(0.0, errors.New("timeout"))
		svc, _ := newService(t, rates)

		_, err := svc.AddExpense(ctx, services.ExpenseInput{Account: "dolarApp", Amount: 12, Category: "Hobbies"})
		assert.Equal(t, core.ReasonRateUnavailable, reason(t, err))
	})

	t.Run("cash withdrawal becomes a transfer", func(t *testing.T) {
		svc, store := newService(t, mock_services.NewMockRateProvider(ctrl))

		got, err := svc.AddExpense(ctx, services.ExpenseInput{Account: "bbva", Amount: 300, Category: core.CategoryCashWithdrawal})
		require.NoError(t, err)
		assert.Equal(t, core.KindTransfer, got.Kind)

		ds, _ := store.Snapshot(ctx)
		assert.Empty(t, ds.Expenses)
		require.Len(t, ds.Transfers, 1)
		tr := ds.Transfers[0]
		assert.Equal(t, "bbva", tr.From)
		assert.Equal(t, core.CashAccountSlug, tr.To)
		assert.Equal(t, 300.0, tr.AmountReceived)
		assert.Zero(t, tr.Spread)
		assert.True(t, tr.IsWithdrawal)
	})

	t.Run("cash withdrawal from a USD account stays an expense", func(t *testing.T) {
		rates := mock_services.NewMockRateProvider(ctrl)
		rates.EXPECT().Strict(gomock.Any()).Return(18.0, nil)
		svc, store := newService(t, rates)

		got, err := svc.AddExpense(ctx, services.ExpenseInput{Account: "dolarApp", Amount: 20, Category: core.CategoryCashWithdrawal})
		require.NoError(t, err)
		assert.Equal(t, core.KindExpense, got.Kind)
		ds, _ := store.Snapshot(ctx)
		assert.Len(t, ds.Expenses, 1)
		assert.Empty(t, ds.Transfers)
	})

	t.Run("cash withdrawal from cash stays an expense", func(t *testing.T) {
		svc, _ := newService(t, mock_services.NewMockRateProvider(ctrl))
		got, err := svc.AddExpense(ctx, services.ExpenseInput{Account: "efectivo", Amount: 20, Category: core.CategoryCashWithdrawal})
		require.NoError(t, err)
		assert.Equal(t, core.KindExpense, got.Kind)
	})

	t.Run("unknown category", func(t *testing.T) {
		svc, _ := newService(t, mock_services.NewMockRateProvider(ctrl))
		_, err := svc.AddExpense(ctx, services.ExpenseInput{Account: "bbva", Amount: 20, Category: "Casino"})
		assert.Equal(t, core.ReasonValidation, reason(t, err))
		assert.ErrorIs(t, err, core.ErrUnknownCategory)
	})

	t.Run("unknown account", func(t *testing.T) {
		svc, _ := newService(t, mock_services.NewMockRateProvider(ctrl))
		_, err := svc.AddExpense(ctx, services.ExpenseInput{Account: "ghost", Amount: 20, Category: "Hobbies"})
		assert.Equal(t, core.ReasonUnknownAccount, reason(t, err))
	})
}

func TestAddTransfer(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	t.Run("cross-currency transfer records the spread", func(t *testing.T) {
		rates := mock_services.NewMockRateProvider(ctrl)
		rates.EXPECT().Live(gomock.Any()).Return(17.0)
		svc, store := newService(t, rates)

		got, err := svc.AddTransfer(ctx, services.TransferInput{
			From: "dolarApp", To: "bbva", AmountSent: 100, AmountReceived: 1950, Rate: core.Rate(20),
		})
		require.NoError(t, err)

		tr, err := store.Transfer(ctx, got.ID)
		require.NoError(t, err)
		assert.Equal(t, core.USD, tr.CurrencySent)
		assert.Equal(t, core.MXN, tr.CurrencyReceived)
		assert.InDelta(t, 50, tr.Spread, 1e-9)

		v, err := svc.Views(ctx, services.ViewOptions{})
		require.NoError(t, err)
		assert.InDelta(t, -100, v.Balances.Balance("dolarApp"), 1e-9)
		assert.InDelta(t, 1950, v.Balances.Balance("bbva"), 1e-9)
	})

	t.Run("same currency defaults received to sent", func(t *testing.T) {
		svc, store := newService(t, mock_services.NewMockRateProvider(ctrl))

		got, err := svc.AddTransfer(ctx, services.TransferInput{From: "bbva", To: "mercadoPago", AmountSent: 80})
		require.NoError(t, err)
		tr, _ := store.Transfer(ctx, got.ID)
		assert.Equal(t, 80.0, tr.AmountReceived)
		assert.Zero(t, tr.Spread)
		assert.Nil(t, tr.Rate)
	})

	invalid := []struct {
		name  string
		input services.TransferInput
		want  core.Reason
	}{
		{"same account", services.TransferInput{From: "bbva", To: "BBVA", AmountSent: 5}, core.ReasonValidation},
		{"zero amount", services.TransferInput{From: "bbva", To: "edenred", AmountSent: 0}, core.ReasonValidation},
		{"unknown source", services.TransferInput{From: "x", To: "edenred", AmountSent: 5}, core.ReasonUnknownAccount},
		{"unknown destination", services.TransferInput{From: "bbva", To: "y", AmountSent: 5}, core.ReasonUnknownAccount},
		{"cross currency without rate", services.TransferInput{From: "dolarApp", To: "bbva", AmountSent: 5, AmountReceived: 90}, core.ReasonValidation},
		{"cross currency without received", services.TransferInput{From: "dolarApp", To: "bbva", AmountSent: 5, Rate: core.Rate(18)}, core.ReasonValidation},
	}
	for _, tt := range invalid {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newService(t, mock_services.NewMockRateProvider(ctrl))
			_, err := svc.AddTransfer(ctx, tt.input)
			assert.Equal(t, tt.want, reason(t, err))
		})
	}
}

func TestWritesPublishChanges(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	pub := mock_services.NewMockChangePublisher(ctrl)
	svc, _ := newService(t, mock_services.NewMockRateProvider(ctrl), services.WithPublisher(pub, "ana"))

	var got []*amqp.LedgerChangeMessage
	pub.EXPECT().PublishChange(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, msg *amqp.LedgerChangeMessage) error {
			got = append(got, msg)
			return nil
		}).Times(2)

	receipt, err := svc.AddExpense(ctx, services.ExpenseInput{Account: "bbva", Amount: 10, Category: "Gasolina"})
	require.NoError(t, err)
	require.NoError(t, svc.DeleteExpense(ctx, receipt.ID))

	require.Len(t, got, 2)
	assert.Equal(t, "ana", got[0].UserID)
	assert.Equal(t, core.KindExpense, got[0].Kind)
	assert.Equal(t, receipt.ID, got[0].EventID)
	assert.Equal(t, amqp.OpUpsert, got[0].Op)
	assert.Equal(t, amqp.OpDelete, got[1].Op)
}

func TestPublishFailureDoesNotFailWrite(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	pub := mock_services.NewMockChangePublisher(ctrl)
	pub.EXPECT().PublishChange(gomock.Any(), gomock.Any()).Return(errors.New("circuit breaker is open"))
	svc, store := newService(t, mock_services.NewMockRateProvider(ctrl), services.WithPublisher(pub, "ana"))

	_, err := svc.AddIncome(ctx, services.IncomeInput{Account: "bbva", Amount: 1000, IsSalary: true})
	require.NoError(t, err)

	stats, err := store.SyncStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Pending, "the outbox still carries the change")
}

func TestDeleteEvents(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	svc, store := newService(t, mock_services.NewMockRateProvider(ctrl))

	inc, err := svc.AddIncome(ctx, services.IncomeInput{Account: "bbva", Amount: 10})
	require.NoError(t, err)
	tr, err := svc.AddTransfer(ctx, services.TransferInput{From: "bbva", To: "edenred", AmountSent: 5})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteIncome(ctx, inc.ID))
	require.NoError(t, svc.DeleteTransfer(ctx, tr.ID))
	ds, _ := store.Snapshot(ctx)
	assert.Zero(t, ds.Len())

	assert.Equal(t, core.ReasonNotFound, reason(t, svc.DeleteIncome(ctx, inc.ID)))
	assert.Equal(t, core.ReasonNotFound, reason(t, svc.DeleteExpense(ctx, "missing")))
	assert.Equal(t, core.ReasonValidation, reason(t, svc.DeleteTransfer(ctx, " ")))
}

func TestAccounts(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	svc, _ := newService(t, mock_services.NewMockRateProvider(ctrl))

	first, err := svc.CreateAccount(ctx, services.AccountInput{Name: "Banco Azteca", Currency: core.MXN})
	require.NoError(t, err)
	assert.Equal(t, "bancoAzteca", first.Slug)
	assert.NotEmpty(t, first.ID)

	second, err := svc.CreateAccount(ctx, services.AccountInput{Name: "banco azteca", Currency: "usd"})
	require.NoError(t, err)
	assert.Equal(t, "bancoAzteca2", second.Slug)
	assert.Equal(t, core.USD, second.Currency)

	_, err = svc.CreateAccount(ctx, services.AccountInput{Name: " ", Currency: core.MXN})
	assert.Equal(t, core.ReasonValidation, reason(t, err))
	_, err = svc.CreateAccount(ctx, services.AccountInput{Name: "Nu", Currency: "EUR"})
	assert.Equal(t, core.ReasonValidation, reason(t, err))

	dir, err := svc.Directory(ctx)
	require.NoError(t, err)
	assert.Equal(t, len(core.BuiltinAccounts())+2, dir.Len())

	assert.Equal(t, core.ReasonValidation, reason(t, svc.DeleteAccount(ctx, "builtin:bbva")))
	require.NoError(t, svc.DeleteAccount(ctx, first.ID))
	assert.Equal(t, core.ReasonNotFound, reason(t, svc.DeleteAccount(ctx, first.ID)))
}

func TestStrategyConfig(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	svc, _ := newService(t, mock_services.NewMockRateProvider(ctrl))

	cfg, err := svc.Strategy(ctx)
	require.NoError(t, err)
	assert.Equal(t, 100.0, cfg.PctTotal())

	cfg.Needs.Pct = 150
	cfg.Wants.Account = "Mercado Pago"
	saved, err := svc.SaveStrategy(ctx, cfg)
	require.NoError(t, err)
	assert.Equal(t, 100.0, saved.Needs.Pct)
	assert.Equal(t, "mercadoPago", saved.Wants.Account)
	assert.False(t, saved.Balanced())

	loaded, err := svc.Strategy(ctx)
	require.NoError(t, err)
	assert.Equal(t, saved, loaded)

	cfg.Future.Account = "ghost"
	_, err = svc.SaveStrategy(ctx, cfg)
	assert.Equal(t, core.ReasonUnknownAccount, reason(t, err))
}

func TestViews(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	rates := mock_services.NewMockRateProvider(ctrl)
	rates.EXPECT().Live(gomock.Any()).Return(17.0).AnyTimes()
	svc, _ := newService(t, rates)

	_, err := svc.AddIncome(ctx, services.IncomeInput{Account: "bbva", Amount: 10000, IsSalary: true})
	require.NoError(t, err)
	_, err = svc.AddExpense(ctx, services.ExpenseInput{Account: "mercadoPago", Amount: 1200, Category: "Renta / Hipoteca"})
	require.NoError(t, err)
	_, err = svc.AddTransfer(ctx, services.TransferInput{From: "bbva", To: "mercadoPago", AmountSent: 3000})
	require.NoError(t, err)

	v, err := svc.Views(ctx, services.ViewOptions{ChartView: chart.ViewGlobal, Display: core.MXN})
	require.NoError(t, err)

	assert.Equal(t, 17.0, v.LiveRate)
	assert.InDelta(t, 7000, v.Balances.Balance("bbva"), 1e-9)
	assert.InDelta(t, 1800, v.Balances.Balance("mercadoPago"), 1e-9)
	assert.InDelta(t, 8800, v.Balances.TotalBase, 1e-9)
	assert.InDelta(t, 10000, v.Strategy.TotalSalary, 1e-9)
	assert.InDelta(t, 1200, v.Strategy.Needs.Actual, 1e-9)
	assert.Len(t, v.Movements, 4)
	assert.Equal(t, chart.ViewGlobal, v.Chart.View)

	only, err := svc.Views(ctx, services.ViewOptions{Account: "Mercado Pago"})
	require.NoError(t, err)
	assert.Len(t, only.Movements, 2)

	_, err = svc.Views(ctx, services.ViewOptions{Account: "ghost"})
	assert.Equal(t, core.ReasonUnknownAccount, reason(t, err))
}

func TestExportImportRoundTrip(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	rates := mock_services.NewMockRateProvider(ctrl)
	rates.EXPECT().Live(gomock.Any()).Return(17.0).AnyTimes()
	src, _ := newService(t, rates)

	_, err := src.AddIncome(ctx, services.IncomeInput{Account: "dolarApp", Amount: 100, Currency: core.USD, Rate: core.Rate(18.25), IsSalary: true})
	require.NoError(t, err)
	_, err = src.AddExpense(ctx, services.ExpenseInput{Account: "bbva", Amount: 99.99, Category: "Cine / Eventos"})
	require.NoError(t, err)
	_, err = src.AddTransfer(ctx, services.TransferInput{From: "dolarApp", To: "bbva", AmountSent: 50, AmountReceived: 900, Rate: core.Rate(18.5)})
	require.NoError(t, err)

	var technical bytes.Buffer
	require.NoError(t, src.Export(ctx, &technical, csvcodec.FormatTechnical))

	dst, _ := newService(t, rates)
	res, err := dst.Import(ctx, &technical)
	require.NoError(t, err)
	assert.Equal(t, csvcodec.FormatTechnical, res.Format)
	assert.Equal(t, 3, res.Imported)
	assert.Zero(t, res.Failed)

	want, err := src.Views(ctx, services.ViewOptions{})
	require.NoError(t, err)
	got, err := dst.Views(ctx, services.ViewOptions{})
	require.NoError(t, err)
	for _, slug := range want.Balances.Order {
		assert.InDelta(t, want.Balances.Balance(slug), got.Balances.Balance(slug), 0.01, slug)
	}

	var table bytes.Buffer
	require.NoError(t, src.Export(ctx, &table, csvcodec.FormatTable))
	assert.True(t, strings.HasPrefix(table.String(), "\uFEFFFecha,Tipo"))

	lossy, _ := newService(t, rates)
	res, err = lossy.Import(ctx, &table)
	require.NoError(t, err)
	assert.Equal(t, csvcodec.FormatTable, res.Format)
	assert.Equal(t, 2, res.Imported, "transfer legs are not imported")
	assert.Equal(t, 2, res.Skipped)
}

// failingStore rejects every expense write.
type failingStore struct {
	*memory.Store
}

func (failingStore) AddExpense(context.Context, core.ExpenseEvent) (string, error) {
	return "", errors.New("disk full")
}

func TestImportCountsFailedWrites(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	rates := mock_services.NewMockRateProvider(ctrl)
	rates.EXPECT().Live(gomock.Any()).Return(17.0).AnyTimes()
	store := failingStore{Store: memory.New()}
	svc := services.NewLedgerService(store, rates)

	file := strings.Join([]string{
		strings.Join(csvcodec.TechnicalHeader, ","),
		"income,i1,2024-03-01T10:00:00Z,bbva,1000,MXN,1000,,true,\"$1,000.00\",,,,,,,,,,",
		"expense,e1,2024-03-02T10:00:00Z,bbva,200,MXN,200,,,,Supermercado,Necesidades,,,,,,,,",
		"expense,e2,2024-03-03T10:00:00Z,bbva,abc,MXN,,,,,Supermercado,Necesidades,,,,,,,,",
	}, "\n")

	res, err := svc.Import(ctx, strings.NewReader(file))
	require.NoError(t, err)
	assert.Equal(t, 1, res.Imported)
	assert.Equal(t, 1, res.Failed)
	assert.Equal(t, 1, res.Skipped)

	ds, err := store.Snapshot(ctx)
	require.NoError(t, err)
	assert.Len(t, ds.Incomes, 1, "earlier writes are kept")
}

// orderedStore records the kind of every write it accepts.
type orderedStore struct {
	*memory.Store
	writes []core.EventKind
}

func (s *orderedStore) AddIncome(ctx context.Context, in core.IncomeEvent) (string, error) {
	s.writes = append(s.writes, core.KindIncome)
	return s.Store.AddIncome(ctx, in)
}

func (s *orderedStore) AddExpense(ctx context.Context, ex core.ExpenseEvent) (string, error) {
	s.writes = append(s.writes, core.KindExpense)
	return s.Store.AddExpense(ctx, ex)
}

func (s *orderedStore) AddTransfer(ctx context.Context, tr core.TransferEvent) (string, error) {
	s.writes = append(s.writes, core.KindTransfer)
	return s.Store.AddTransfer(ctx, tr)
}

func TestImportWritesInFileOrder(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	rates := mock_services.NewMockRateProvider(ctrl)
	rates.EXPECT().Live(gomock.Any()).Return(17.0).AnyTimes()
	store := &orderedStore{Store: memory.New()}
	svc := services.NewLedgerService(store, rates)

	file := strings.Join([]string{
		strings.Join(csvcodec.TechnicalHeader, ","),
		"expense,e1,2024-03-02T10:00:00Z,bbva,200,MXN,200,,,,Supermercado,Necesidades,,,,,,,,",
		"transfer,t1,2024-03-02T11:00:00Z,,,,,,,,,,bbva,edenred,100,MXN,100,MXN,,",
		"income,i1,2024-03-01T10:00:00Z,bbva,1000,MXN,1000,,true,\"$1,000.00\",,,,,,,,,,",
	}, "\n")

	res, err := svc.Import(ctx, strings.NewReader(file))
	require.NoError(t, err)
	assert.Equal(t, 3, res.Imported)
	assert.Equal(t, []core.EventKind{core.KindExpense, core.KindTransfer, core.KindIncome}, store.writes)
}

func TestImportEmptyFile(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	rates := mock_services.NewMockRateProvider(ctrl)
	rates.EXPECT().Live(gomock.Any()).Return(17.0)
	svc, _ := newService(t, rates)

	_, err := svc.Import(context.Background(), strings.NewReader(""))
	assert.Equal(t, core.ReasonValidation, reason(t, err))
}

func TestStoreFailuresAreCoded(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	svc := services.NewLedgerService(failingStore{Store: memory.New()}, mock_services.NewMockRateProvider(ctrl))

	_, err := svc.AddExpense(context.Background(), services.ExpenseInput{Account: "bbva", Amount: 1, Category: "Hobbies"})
	assert.Equal(t, core.ReasonStorage, reason(t, err))
}

var (
	_ ports.Store = failingStore{}
	_ ports.Store = (*orderedStore)(nil)
)
