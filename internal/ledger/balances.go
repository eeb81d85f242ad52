// Package ledger derives account balances and the unified movement timeline
// from the raw income, expense and transfer streams.
//
// Balances are never stored. They are recomputed from scratch on every call,
// so two calls over the same snapshot always agree.
package ledger

import (
	"zent/internal/core"
	"zent/internal/currency"
	"zent/internal/directory"
)

// Balances is the derived balance sheet of a snapshot.
type Balances struct {
	PerAccount        map[string]float64 // slug -> signed native-currency balance
	Order             []string           // slugs in directory order
	TotalBase         float64            // sum of all balances in MXN
	TotalExpensesBase float64            // MXN value of every expense
	Unresolved        int                // events with a reference that resolved to no account
}

// Balance returns the balance of slug, zero for unknown accounts.
func (b Balances) Balance(slug string) float64 {
	return b.PerAccount[slug]
}

// ComputeBalances folds the three event streams into per-account balances.
//
// Incomes into a USD account that are themselves in USD accumulate face value;
// every other income accumulates its MXN value. Expenses are stated in the
// paying account's currency and subtract their raw amount. Transfers subtract
// the sent amount from the source and add the received amount to the
// destination, so a conversion spread disappears without an extra entry.
//
// References that do not resolve are skipped and counted in Unresolved.
func ComputeBalances(
	incomes []core.IncomeEvent,
	expenses []core.ExpenseEvent,
	transfers []core.TransferEvent,
	dir *directory.Directory,
	liveRate float64,
) Balances {
	accounts := dir.Accounts()
	b := Balances{
		PerAccount: make(map[string]float64, len(accounts)),
		Order:      make([]string, 0, len(accounts)),
	}
	currencies := make(map[string]core.Currency, len(accounts))
	for _, a := range accounts {
		b.PerAccount[a.Slug] = 0
		b.Order = append(b.Order, a.Slug)
		currencies[a.Slug] = a.Currency
	}

	for _, in := range incomes {
		acc, ok := dir.Resolve(in.Account)
		if !ok {
			b.Unresolved++
			continue
		}
		if acc.Currency == core.USD && in.Currency == core.USD {
			b.PerAccount[acc.Slug] += in.Amount
		} else {
			b.PerAccount[acc.Slug] += currency.IncomeBase(in, liveRate)
		}
	}

	for _, ex := range expenses {
		b.TotalExpensesBase += currency.ExpenseBase(ex, liveRate)
		acc, ok := dir.Resolve(ex.Account)
		if !ok {
			b.Unresolved++
			continue
		}
		b.PerAccount[acc.Slug] -= ex.Amount
	}

	for _, tr := range transfers {
		if from, ok := dir.Resolve(tr.From); ok {
			b.PerAccount[from.Slug] -= tr.AmountSent
		} else {
			b.Unresolved++
		}
		if to, ok := dir.Resolve(tr.To); ok {
			b.PerAccount[to.Slug] += tr.AmountReceived
		} else {
			b.Unresolved++
		}
	}

	for _, slug := range b.Order {
		b.TotalBase += currency.ToBase(b.PerAccount[slug], currencies[slug], nil, liveRate)
	}
	return b
}
