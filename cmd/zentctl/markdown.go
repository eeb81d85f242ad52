package main

import (
	"fmt"
	"io"

	"zent/internal/core"
	"zent/internal/ledger"
	"zent/internal/services"
)

func renderBalances(w io.Writer, v services.Views) {
	byslug := make(map[string]core.Account, len(v.Accounts))
	for _, a := range v.Accounts {
		byslug[a.Slug] = a
	}

	fmt.Fprintf(w, "# Balances\n\n")
	fmt.Fprintf(w, "| Account | Currency | Balance |\n")
	fmt.Fprintf(w, "|:---|:---:|---:|\n")
	for _, slug := range v.Balances.Order {
		a := byslug[slug]
		fmt.Fprintf(w, "| %s | %s | %s |\n", pipeEscape(a.Name), a.Currency, core.FormatAmount(v.Balances.Balance(slug), a.Currency))
	}
	fmt.Fprintf(w, "\n**Total:** %s %s  \n", core.FormatAmount(v.Balances.TotalBase, core.BaseCurrency), core.BaseCurrency)
	fmt.Fprintf(w, "**Spent:** %s %s  \n", core.FormatAmount(v.Balances.TotalExpensesBase, core.BaseCurrency), core.BaseCurrency)
	fmt.Fprintf(w, "**USD rate:** %s\n", core.FormatNumber(v.LiveRate))
	if v.Balances.Unresolved > 0 {
		fmt.Fprintf(w, "\n> %d events reference accounts that no longer exist.\n", v.Balances.Unresolved)
	}
}

func renderStrategy(w io.Writer, v services.Views) {
	r := v.Strategy
	fmt.Fprintf(w, "# Strategy\n\n")
	fmt.Fprintf(w, "Salary: %s, %s left after needs and wants.\n\n",
		core.FormatAmount(r.TotalSalary, core.BaseCurrency), core.FormatAmount(r.RemainingSalary, core.BaseCurrency))
	fmt.Fprintf(w, "| Bucket | %% | Account | Ideal | Actual | Remaining | Per period |\n")
	fmt.Fprintf(w, "|:---|---:|:---|---:|---:|---:|---:|\n")
	for _, b := range core.Buckets {
		res := r.Bucket(b)
		account := res.Resolved
		if account == "" {
			account = res.Account + " (missing)"
		}
		fmt.Fprintf(w, "| %s | %s | %s | %s | %s | %s | %s |\n",
			b, core.FormatNumber(res.Pct), pipeEscape(account),
			core.FormatAmount(res.Ideal, core.BaseCurrency),
			core.FormatAmount(res.Actual, core.BaseCurrency),
			core.FormatAmount(res.Remaining, core.BaseCurrency),
			core.FormatAmount(res.PerPeriod, core.BaseCurrency))
	}

	p := r.Periods
	source := "elapsed days"
	if p.FromSalary {
		source = fmt.Sprintf("%d salaries", p.SalaryCount)
	}
	fmt.Fprintf(w, "\n%d pay periods, counted from %s.\n", p.Periods, source)
	if !r.Balanced {
		fmt.Fprintf(w, "\n> Percentages add up to %s%%, not 100%%.\n", core.FormatNumber(r.PctTotal))
	}
}

func renderChart(w io.Writer, v services.Views) {
	d := v.Chart
	fmt.Fprintf(w, "# Distribution (%s, %s)\n\n", d.View, d.Currency)
	if d.Placeholder {
		fmt.Fprintf(w, "No income recorded yet.\n")
		return
	}
	total := d.Total()
	fmt.Fprintf(w, "| Segment | Amount | Share |\n")
	fmt.Fprintf(w, "|:---|---:|---:|\n")
	for _, s := range d.Segments {
		share := 0.0
		if total > 0 {
			share = s.Value / total * 100
		}
		fmt.Fprintf(w, "| %s | %s | %.1f%% |\n", pipeEscape(s.Label), core.FormatAmount(s.Value, d.Currency), share)
	}
	fmt.Fprintf(w, "\nBaseline income: %s %s\n", core.FormatAmount(d.TotalBaseline, d.Currency), d.Currency)
}

// renderMovements lists movements in timeline order, newest first. A limit of
// zero shows them all.
func renderMovements(w io.Writer, movements []ledger.Movement, limit int) {
	fmt.Fprintf(w, "# Movements\n\n")
	if len(movements) == 0 {
		fmt.Fprintf(w, "No movements.\n")
		return
	}
	fmt.Fprintf(w, "| Date | Account | Description | Amount |\n")
	fmt.Fprintf(w, "|:---|:---|:---|---:|\n")
	shown := movements
	if limit > 0 && len(shown) > limit {
		shown = shown[:limit]
	}
	for _, m := range shown {
		fmt.Fprintf(w, "| %s | %s | %s | %s |\n",
			m.Timestamp.Format(dateLayout), pipeEscape(m.AccountName), pipeEscape(m.Description), core.FormatSigned(m.Amount, m.Currency))
	}
	if len(shown) < len(movements) {
		fmt.Fprintf(w, "\n%d older movements not shown.\n", len(movements)-len(shown))
	}
}

func renderAccounts(w io.Writer, accounts []core.Account) {
	fmt.Fprintf(w, "# Accounts\n\n")
	fmt.Fprintf(w, "| Slug | Name | Currency | ID |\n")
	fmt.Fprintf(w, "|:---|:---|:---:|:---|\n")
	for _, a := range accounts {
		fmt.Fprintf(w, "| %s | %s | %s | %s |\n", a.Slug, pipeEscape(a.Name), a.Currency, a.ID)
	}
}

func renderImport(w io.Writer, res services.ImportResult) {
	fmt.Fprintf(w, "# Import (%s)\n\n", res.Format)
	fmt.Fprintf(w, "- imported: %d\n- skipped: %d\n- failed: %d\n", res.Imported, res.Skipped, res.Failed)
	if len(res.Problems) == 0 {
		return
	}
	fmt.Fprintf(w, "\n## Problems\n\n")
	for _, p := range res.Problems {
		fmt.Fprintf(w, "- line %d: %s\n", p.Line, p.Reason)
	}
}

func renderReconcile(w io.Writer, rep services.ReconcileReport) {
	fmt.Fprintf(w, "# Spreadsheet sync\n\n")
	fmt.Fprintf(w, "- upserted: %d\n- removed: %d\n- failed: %d\n", rep.Upserted, rep.Removed, rep.Failed)
}

// renderReport is the combined overview.
func renderReport(w io.Writer, v services.Views) {
	renderBalances(w, v)
	fmt.Fprintln(w)
	renderStrategy(w, v)
	fmt.Fprintln(w)
	renderChart(w, v)
}
