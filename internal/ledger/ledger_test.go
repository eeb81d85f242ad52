package ledger

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zent/internal/core"
	"zent/internal/directory"
)

var t0 = time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)

func testDirectory() *directory.Directory {
	return directory.New(core.BuiltinAccounts(), nil)
}

func TestUSDIncomeIntoUSDAccountAccumulatesFaceValue(t *testing.T) {
	incomes := []core.IncomeEvent{{
		ID: "i1", Timestamp: t0, Amount: 100, Currency: core.USD,
		ConvertedAmount: 1800, RateUsed: core.Rate(18), Account: "dolarApp",
	}}
	b := ComputeBalances(incomes, nil, nil, testDirectory(), 20)

	assert.Equal(t, 100.0, b.Balance("dolarApp"))
	assert.InDelta(t, 2000.0, b.TotalBase, 1e-9)
}

func TestUSDIncomeIntoMXNAccountAccumulatesConverted(t *testing.T) {
	incomes := []core.IncomeEvent{{
		ID: "i1", Timestamp: t0, Amount: 100, Currency: core.USD,
		ConvertedAmount: 1800, RateUsed: core.Rate(18), Account: "bbva",
	}}
	b := ComputeBalances(incomes, nil, nil, testDirectory(), 20)
	assert.Equal(t, 1800.0, b.Balance("bbva"))
}

func TestCrossCurrencyTransferAbsorbsSpread(t *testing.T) {
	transfers := []core.TransferEvent{{
		ID: "t1", Timestamp: t0, From: "dolarApp", To: "bbva",
		AmountSent: 100, CurrencySent: core.USD,
		AmountReceived: 1950, CurrencyReceived: core.MXN,
		Spread: 50, Rate: core.Rate(20),
	}}
	b := ComputeBalances(nil, nil, transfers, testDirectory(), 20)

	assert.Equal(t, -100.0, b.Balance("dolarApp"))
	assert.Equal(t, 1950.0, b.Balance("bbva"))
	assert.Equal(t, 50.0, transfers[0].Spread)
}

func TestConservation(t *testing.T) {
	dir := testDirectory()
	incomes := []core.IncomeEvent{
		{ID: "1", Timestamp: t0, Amount: 10000, Currency: core.MXN, ConvertedAmount: 10000, Account: "bbva", IsSalary: true},
		{ID: "2", Timestamp: t0, Amount: 50, Currency: core.USD, ConvertedAmount: 900, Account: "dolarApp"},
	}
	expenses := []core.ExpenseEvent{
		{ID: "3", Timestamp: t0, Amount: 1200, Currency: core.MXN, ConvertedAmount: 1200, Category: "Supermercado", Account: "mercadoPago"},
		{ID: "4", Timestamp: t0, Amount: 10, Currency: core.USD, ConvertedAmount: 180, Category: "Hobbies", Account: "dolarApp"},
	}
	transfers := []core.TransferEvent{
		{ID: "5", Timestamp: t0, From: "bbva", To: "efectivo", AmountSent: 500, CurrencySent: core.MXN, AmountReceived: 500, CurrencyReceived: core.MXN, IsWithdrawal: true},
	}

	b := ComputeBalances(incomes, expenses, transfers, dir, 18)
	sum := 0.0
	for _, v := range b.PerAccount {
		sum += v
	}
	// same-currency transfers net to zero, so the native sum is incomes minus expenses
	want := 10000.0 + 50 - 1200 - 10
	assert.InDelta(t, want, sum, 0.01)
	assert.Equal(t, 0, b.Unresolved)
	assert.InDelta(t, 1380.0, b.TotalExpensesBase, 1e-9)
}

func TestUnresolvedReferencesAreSkippedAndCounted(t *testing.T) {
	incomes := []core.IncomeEvent{{ID: "1", Timestamp: t0, Amount: 100, Currency: core.MXN, ConvertedAmount: 100, Account: "closed-bank"}}
	expenses := []core.ExpenseEvent{{ID: "2", Timestamp: t0, Amount: 40, Currency: core.MXN, ConvertedAmount: 40, Account: ""}}
	transfers := []core.TransferEvent{{ID: "3", Timestamp: t0, From: "ghost", To: "bbva", AmountSent: 10, CurrencySent: core.MXN, AmountReceived: 10, CurrencyReceived: core.MXN}}

	b := ComputeBalances(incomes, expenses, transfers, testDirectory(), 18)

	// silently under/overstated: only the resolvable transfer leg lands
	assert.Equal(t, 10.0, b.Balance("bbva"))
	assert.Equal(t, 3, b.Unresolved)
	assert.Equal(t, 40.0, b.TotalExpensesBase)
	assert.Len(t, b.PerAccount, len(core.BuiltinAccounts()))
}

func TestEveryAccountStartsAtZero(t *testing.T) {
	b := ComputeBalances(nil, nil, nil, testDirectory(), 18)
	require.Len(t, b.Order, 5)
	for _, slug := range b.Order {
		assert.Zero(t, b.Balance(slug))
	}
	assert.Zero(t, b.TotalBase)
}

func TestBuildTimeline(t *testing.T) {
	incomes := []core.IncomeEvent{{ID: "i", Timestamp: t0, Amount: 100, Currency: core.USD, OriginalText: "$100.00 (@18.0000)", Account: "Dolar App"}}
	expenses := []core.ExpenseEvent{{ID: "e", Timestamp: t0.Add(time.Hour), Amount: 50, Currency: core.MXN, Category: "Gasolina", Group: "Necesidades", Account: "bbva"}}
	transfers := []core.TransferEvent{{ID: "t", Timestamp: t0.Add(2 * time.Hour), From: "bbva", To: "gone", AmountSent: 30, CurrencySent: core.MXN, AmountReceived: 30, CurrencyReceived: core.MXN}}

	got := BuildTimeline(incomes, expenses, transfers, testDirectory())
	require.Len(t, got, 4)

	ids := []string{got[0].ID, got[1].ID, got[2].ID, got[3].ID}
	assert.Equal(t, []string{"t-t-out", "t-t-in", "exp-e", "inc-i"}, ids)

	assert.Equal(t, -30.0, got[0].Amount)
	assert.Equal(t, "a gone", got[0].Description)
	assert.Equal(t, "gone", got[1].Account)
	assert.Equal(t, "de BBVA", got[1].Description)
	assert.Equal(t, -50.0, got[2].Amount)
	assert.Equal(t, "Gasolina", got[2].Description)
	assert.Equal(t, "dolarApp", got[3].Account)
	assert.Equal(t, "$100.00", got[3].Description)

	for i := 1; i < len(got); i++ {
		assert.False(t, got[i].Timestamp.After(got[i-1].Timestamp), "timeline must be newest first")
	}
}

func TestTimelineSignsMatchBalances(t *testing.T) {
	dir := testDirectory()
	incomes := []core.IncomeEvent{{ID: "i", Timestamp: t0, Amount: 500, Currency: core.MXN, ConvertedAmount: 500, Account: "bbva"}}
	expenses := []core.ExpenseEvent{{ID: "e", Timestamp: t0, Amount: 120, Currency: core.MXN, Account: "bbva"}}
	transfers := []core.TransferEvent{{ID: "t", Timestamp: t0, From: "bbva", To: "edenred", AmountSent: 80, CurrencySent: core.MXN, AmountReceived: 80, CurrencyReceived: core.MXN}}

	b := ComputeBalances(incomes, expenses, transfers, dir, 18)
	sum := 0.0
	for _, m := range ForAccount(BuildTimeline(incomes, expenses, transfers, dir), "bbva") {
		sum += m.Amount
	}
	assert.Equal(t, b.Balance("bbva"), sum)
}
