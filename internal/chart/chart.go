// Package chart aggregates expenses into the spending distribution shown as a
// doughnut: one segment per category group plus the unspent income.
package chart

import (
	"math"

	"zent/internal/core"
	"zent/internal/currency"
	"zent/internal/directory"
	"zent/internal/strategy"
)

const (
	ViewStrategy View = "strategy"
	ViewGlobal   View = "global"
)

// Segment labels with fixed meaning.
const (
	LabelSalaryLeft = "Salario Restante"
	LabelIncomeLeft = "Ingreso Restante"
	LabelNoIncome   = "Sin Ingresos"
)

const (
	defaultColor     = "#cccccc"
	placeholderColor = "#e5e7eb"
)

var colors = map[string]string{
	LabelSalaryLeft:             "#4ade80",
	LabelIncomeLeft:             "#4ade80",
	"Necesidades":               "#fb923c",
	"Deseos / Ocio":             "#2dd4bf",
	"Ahorro":                    "#60a5fa",
	"Inversión":                 "#a78bfa",
	"Deudas":                    "#f472b6",
	"Movimientos entre Cuentas": "#9ca3af",
}

type (
	// View selects which incomes and expenses feed the chart.
	View string

	Segment struct {
		Label string
		Value float64 // in the distribution's currency, never negative
		Color string
	}

	Distribution struct {
		View          View
		Currency      core.Currency
		Segments      []Segment
		TotalBaseline float64 // baseline income in the distribution's currency
		Placeholder   bool
	}
)

// ParseView maps s to a view, defaulting to the strategy view.
func ParseView(s string) View {
	if View(s) == ViewGlobal {
		return ViewGlobal
	}
	return ViewStrategy
}

// Color returns the fixed color of label.
func Color(label string) string {
	if c, ok := colors[label]; ok {
		return c
	}
	return defaultColor
}

// ComputeDistribution groups expenses by category group, summing in MXN and
// converting to display at the end. The strategy view only considers salary
// income and expenses of the three bucket accounts; the global view considers
// everything. Without a positive baseline a single placeholder segment is
// returned.
func ComputeDistribution(
	incomes []core.IncomeEvent,
	expenses []core.ExpenseEvent,
	cfg core.StrategyConfig,
	dir *directory.Directory,
	liveRate float64,
	view View,
	display core.Currency,
) Distribution {
	if display != core.USD {
		display = core.MXN
	}
	view = ParseView(string(view))
	dist := Distribution{View: view, Currency: display}

	inScope := func(string) bool { return true }
	if view == ViewStrategy {
		buckets := make(map[string]bool, 3)
		for _, ref := range strategy.Accounts(cfg) {
			if slug := dir.Canonical(ref); slug != "" {
				buckets[slug] = true
			}
		}
		inScope = func(ref string) bool {
			return buckets[dir.Canonical(ref)]
		}
	}

	baseline := 0.0
	for _, in := range incomes {
		if view == ViewStrategy && (!in.IsSalary || !inScope(in.Account)) {
			continue
		}
		baseline += currency.IncomeBase(in, liveRate)
	}

	if !(baseline > 0) || math.IsInf(baseline, 0) {
		dist.Placeholder = true
		dist.Segments = []Segment{{Label: LabelNoIncome, Value: 1, Color: placeholderColor}}
		return dist
	}

	var order []string
	sums := make(map[string]float64)
	spent := 0.0
	for _, ex := range expenses {
		if !inScope(ex.Account) {
			continue
		}
		g := ex.Group
		if g == "" {
			g = core.GroupOther
		}
		if _, seen := sums[g]; !seen {
			order = append(order, g)
		}
		v := math.Max(0, currency.ExpenseBase(ex, liveRate))
		sums[g] += v
		spent += v
	}

	left := LabelSalaryLeft
	if view == ViewGlobal {
		left = LabelIncomeLeft
	}
	dist.Segments = make([]Segment, 0, len(order)+1)
	dist.Segments = append(dist.Segments, Segment{
		Label: left,
		Value: currency.FromBase(math.Max(0, baseline-spent), display, liveRate),
		Color: Color(left),
	})
	for _, g := range order {
		dist.Segments = append(dist.Segments, Segment{
			Label: g,
			Value: currency.FromBase(sums[g], display, liveRate),
			Color: Color(g),
		})
	}
	dist.TotalBaseline = currency.FromBase(baseline, display, liveRate)
	return dist
}

// Total sums all segment values.
func (d Distribution) Total() float64 {
	total := 0.0
	for _, s := range d.Segments {
		total += s.Value
	}
	return total
}
