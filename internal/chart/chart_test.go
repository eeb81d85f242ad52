package chart

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zent/internal/core"
	"zent/internal/directory"
	"zent/internal/strategy"
)

var t0 = time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)

func income(amount float64, account string, isSalary bool) core.IncomeEvent {
	return core.IncomeEvent{Timestamp: t0, Amount: amount, Currency: core.MXN, ConvertedAmount: amount, Account: account, IsSalary: isSalary}
}

func spend(amount float64, group, account string) core.ExpenseEvent {
	return core.ExpenseEvent{Timestamp: t0, Amount: amount, Currency: core.MXN, ConvertedAmount: amount, Group: group, Account: account}
}

func TestStrategyView(t *testing.T) {
	dir := directory.New(core.BuiltinAccounts(), nil)
	incomes := []core.IncomeEvent{
		income(10000, "bbva", true),
		income(4000, "edenred", true), // not a bucket account
		income(3000, "bbva", false),   // not salary
	}
	expenses := []core.ExpenseEvent{
		spend(2000, "Necesidades", "mercadoPago"),
		spend(500, "", "bbva"),
		spend(900, "Deseos / Ocio", "efectivo"), // outside the buckets
		spend(1000, "Necesidades", "bbva"),
	}

	d := ComputeDistribution(incomes, expenses, strategy.DefaultConfig(), dir, 18, ViewStrategy, core.MXN)
	require.False(t, d.Placeholder)
	require.Len(t, d.Segments, 3)

	assert.Equal(t, Segment{Label: LabelSalaryLeft, Value: 6500, Color: "#4ade80"}, d.Segments[0])
	assert.Equal(t, Segment{Label: "Necesidades", Value: 3000, Color: "#fb923c"}, d.Segments[1])
	assert.Equal(t, Segment{Label: core.GroupOther, Value: 500, Color: defaultColor}, d.Segments[2])
	assert.Equal(t, 10000.0, d.TotalBaseline)
}

func TestGlobalViewInUSD(t *testing.T) {
	dir := directory.New(core.BuiltinAccounts(), nil)
	incomes := []core.IncomeEvent{income(2000, "edenred", false)}
	expenses := []core.ExpenseEvent{spend(400, "Deudas", "efectivo")}

	d := ComputeDistribution(incomes, expenses, strategy.DefaultConfig(), dir, 20, ViewGlobal, core.USD)
	require.Len(t, d.Segments, 2)
	assert.Equal(t, LabelIncomeLeft, d.Segments[0].Label)
	assert.InDelta(t, 80.0, d.Segments[0].Value, 1e-9)
	assert.InDelta(t, 20.0, d.Segments[1].Value, 1e-9)
	assert.Equal(t, core.USD, d.Currency)
}

func TestOverspendClampsRemaining(t *testing.T) {
	dir := directory.New(core.BuiltinAccounts(), nil)
	d := ComputeDistribution(
		[]core.IncomeEvent{income(100, "bbva", false)},
		[]core.ExpenseEvent{spend(400, "Ahorro", "bbva")},
		strategy.DefaultConfig(), dir, 18, ViewGlobal, core.MXN,
	)
	for _, s := range d.Segments {
		assert.GreaterOrEqual(t, s.Value, 0.0, s.Label)
	}
	assert.Zero(t, d.Segments[0].Value)
}

func TestPlaceholderWithoutBaseline(t *testing.T) {
	dir := directory.New(core.BuiltinAccounts(), nil)
	cases := map[string][]core.IncomeEvent{
		"no incomes":       nil,
		"no salary":        {income(5000, "bbva", false)},
		"non-finite input": {{Timestamp: t0, Amount: math.Inf(1), Currency: core.MXN, ConvertedAmount: math.Inf(1), Account: "bbva", IsSalary: true}},
	}
	for name, incomes := range cases {
		t.Run(name, func(t *testing.T) {
			d := ComputeDistribution(incomes, []core.ExpenseEvent{spend(10, "Deudas", "bbva")}, strategy.DefaultConfig(), dir, 18, ViewStrategy, core.MXN)
			require.True(t, d.Placeholder)
			require.Len(t, d.Segments, 1)
			assert.Equal(t, LabelNoIncome, d.Segments[0].Label)
		})
	}
}

func TestColor(t *testing.T) {
	assert.Equal(t, "#9ca3af", Color("Movimientos entre Cuentas"))
	assert.Equal(t, "#cccccc", Color("Mascotas"))
}
