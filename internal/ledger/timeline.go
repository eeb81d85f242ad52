package ledger

import (
	"sort"
	"strings"
	"time"

	"zent/internal/core"
	"zent/internal/directory"
)

const (
	KindIncome      MovementKind = "income"
	KindExpense     MovementKind = "expense"
	KindTransferOut MovementKind = "transfer_out"
	KindTransferIn  MovementKind = "transfer_in"
)

type MovementKind string

// Movement is one leg of the unified, signed timeline.
type Movement struct {
	ID           string
	SourceID     string // id of the event the leg was derived from
	Kind         MovementKind
	Timestamp    time.Time
	Amount       float64 // signed, in Currency
	Currency     core.Currency
	Account      string // canonical slug, or the raw reference when unresolved
	AccountName  string
	Counterparty string // other side of a transfer leg
	Description  string
	Category     string
	Group        string
	IsSalary     bool
}

// Resolver is the subset of the account directory the timeline needs.
type Resolver interface {
	Canonical(ref string) string
	Label(ref string) string
}

var _ Resolver = (*directory.Directory)(nil)

// BuildTimeline flattens the event streams into movement legs sorted newest
// first. Each transfer yields two legs so that both accounts see it.
func BuildTimeline(
	incomes []core.IncomeEvent,
	expenses []core.ExpenseEvent,
	transfers []core.TransferEvent,
	r Resolver,
) []Movement {
	out := make([]Movement, 0, len(incomes)+len(expenses)+2*len(transfers))

	for _, in := range incomes {
		out = append(out, Movement{
			ID:          "inc-" + in.ID,
			SourceID:    in.ID,
			Kind:        KindIncome,
			Timestamp:   in.Timestamp,
			Amount:      in.Amount,
			Currency:    in.Currency,
			Account:     account(r, in.Account),
			AccountName: r.Label(in.Account),
			Description: incomeDescription(in),
			IsSalary:    in.IsSalary,
		})
	}

	for _, ex := range expenses {
		out = append(out, Movement{
			ID:          "exp-" + ex.ID,
			SourceID:    ex.ID,
			Kind:        KindExpense,
			Timestamp:   ex.Timestamp,
			Amount:      -ex.Amount,
			Currency:    ex.Currency,
			Account:     account(r, ex.Account),
			AccountName: r.Label(ex.Account),
			Description: ex.Category,
			Category:    ex.Category,
			Group:       ex.Group,
		})
	}

	for _, tr := range transfers {
		fromName, toName := r.Label(tr.From), r.Label(tr.To)
		out = append(out,
			Movement{
				ID:           "t-" + tr.ID + "-out",
				SourceID:     tr.ID,
				Kind:         KindTransferOut,
				Timestamp:    tr.Timestamp,
				Amount:       -tr.AmountSent,
				Currency:     tr.CurrencySent,
				Account:      account(r, tr.From),
				AccountName:  fromName,
				Counterparty: toName,
				Description:  "a " + toName,
			},
			Movement{
				ID:           "t-" + tr.ID + "-in",
				SourceID:     tr.ID,
				Kind:         KindTransferIn,
				Timestamp:    tr.Timestamp,
				Amount:       tr.AmountReceived,
				Currency:     tr.CurrencyReceived,
				Account:      account(r, tr.To),
				AccountName:  toName,
				Counterparty: fromName,
				Description:  "de " + fromName,
			},
		)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	return out
}

// ForAccount filters movements to the ones touching slug.
func ForAccount(movements []Movement, slug string) []Movement {
	var out []Movement
	for _, m := range movements {
		if m.Account == slug {
			out = append(out, m)
		}
	}
	return out
}

func account(r Resolver, ref string) string {
	if slug := r.Canonical(ref); slug != "" {
		return slug
	}
	return ref
}

func incomeDescription(in core.IncomeEvent) string {
	text := in.OriginalText
	if i := strings.Index(text, "("); i >= 0 {
		text = text[:i]
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "Ingreso"
	}
	return text
}
