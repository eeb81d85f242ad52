package http

import (
	"strings"
	"time"

	"zent/internal/chart"
	"zent/internal/core"
	"zent/internal/ledger"
	"zent/internal/services"
	"zent/internal/strategy"
)

const dateLayout = "2006-01-02"

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

// parseTimestamp accepts RFC 3339 or a bare YYYY-MM-DD date in UTC.
func parseTimestamp(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse(dateLayout, s)
}

func endOfDay(t time.Time) time.Time {
	return t.Add(24*time.Hour - time.Nanosecond)
}

func isBuiltin(a core.Account) bool {
	return strings.HasPrefix(a.ID, "builtin:")
}

type (
	accountDTO struct {
		ID       string `json:"id"`
		Slug     string `json:"slug"`
		Name     string `json:"name"`
		Currency string `json:"currency"`
		Builtin  bool   `json:"builtin"`
	}

	incomeDTO struct {
		ID              string    `json:"id"`
		Timestamp       time.Time `json:"timestamp"`
		Amount          float64   `json:"amount"`
		Currency        string    `json:"currency"`
		ConvertedAmount float64   `json:"converted_amount"`
		OriginalText    string    `json:"original_text"`
		Account         string    `json:"account"`
		IsSalary        bool      `json:"is_salary"`
		Rate            *float64  `json:"rate,omitempty"`
	}

	expenseDTO struct {
		ID              string    `json:"id"`
		Timestamp       time.Time `json:"timestamp"`
		Amount          float64   `json:"amount"`
		Currency        string    `json:"currency"`
		ConvertedAmount float64   `json:"converted_amount"`
		Category        string    `json:"category"`
		Group           string    `json:"group"`
		Type            string    `json:"type"`
		Account         string    `json:"account"`
	}

	transferDTO struct {
		ID               string    `json:"id"`
		Timestamp        time.Time `json:"timestamp"`
		From             string    `json:"from"`
		To               string    `json:"to"`
		AmountSent       float64   `json:"amount_sent"`
		CurrencySent     string    `json:"currency_sent"`
		AmountReceived   float64   `json:"amount_received"`
		CurrencyReceived string    `json:"currency_received"`
		Spread           float64   `json:"spread"`
		Rate             *float64  `json:"rate,omitempty"`
		IsWithdrawal     bool      `json:"is_withdrawal"`
	}

	receiptDTO struct {
		OK   bool   `json:"ok"`
		Kind string `json:"kind"`
		ID   string `json:"id"`
	}

	balanceDTO struct {
		Slug      string  `json:"slug"`
		Name      string  `json:"name"`
		Currency  string  `json:"currency"`
		Balance   float64 `json:"balance"`
		Formatted string  `json:"formatted"`
	}

	balancesDTO struct {
		Accounts          []balanceDTO `json:"accounts"`
		TotalBase         float64      `json:"total_base"`
		TotalExpensesBase float64      `json:"total_expenses_base"`
		Unresolved        int          `json:"unresolved"`
		LiveRate          float64      `json:"live_rate"`
	}

	bucketConfigDTO struct {
		Pct     float64 `json:"pct"`
		Account string  `json:"account"`
	}

	strategyConfigDTO struct {
		Needs  bucketConfigDTO `json:"needs"`
		Wants  bucketConfigDTO `json:"wants"`
		Future bucketConfigDTO `json:"future"`
	}

	bucketDTO struct {
		Pct       float64 `json:"pct"`
		Account   string  `json:"account"`
		Resolved  string  `json:"resolved"`
		Ideal     float64 `json:"ideal"`
		Actual    float64 `json:"actual"`
		Remaining float64 `json:"remaining"`
		PerPeriod float64 `json:"per_period"`
	}

	periodsDTO struct {
		Periods       int  `json:"periods"`
		SalaryCount   int  `json:"salary_count"`
		FromSalary    bool `json:"from_salary"`
		RangeDays     int  `json:"range_days"`
		RangeIsActive bool `json:"range_is_active"`
	}

	strategyDTO struct {
		Config          strategyConfigDTO `json:"config"`
		TotalSalary     float64           `json:"total_salary"`
		RemainingSalary float64           `json:"remaining_salary"`
		Needs           bucketDTO         `json:"needs"`
		Wants           bucketDTO         `json:"wants"`
		Future          bucketDTO         `json:"future"`
		Periods         periodsDTO        `json:"periods"`
		PctTotal        float64           `json:"pct_total"`
		Balanced        bool              `json:"balanced"`
	}

	segmentDTO struct {
		Label string  `json:"label"`
		Value float64 `json:"value"`
		Color string  `json:"color"`
	}

	chartDTO struct {
		View          string       `json:"view"`
		Currency      string       `json:"currency"`
		Segments      []segmentDTO `json:"segments"`
		TotalBaseline float64      `json:"total_baseline"`
		Total         float64      `json:"total"`
		Placeholder   bool         `json:"placeholder"`
	}

	movementDTO struct {
		ID           string    `json:"id"`
		SourceID     string    `json:"source_id"`
		Kind         string    `json:"kind"`
		Timestamp    time.Time `json:"timestamp"`
		Amount       float64   `json:"amount"`
		Currency     string    `json:"currency"`
		Formatted    string    `json:"formatted"`
		Account      string    `json:"account"`
		AccountName  string    `json:"account_name"`
		Counterparty string    `json:"counterparty,omitempty"`
		Description  string    `json:"description"`
		Category     string    `json:"category,omitempty"`
		Group        string    `json:"group,omitempty"`
		IsSalary     bool      `json:"is_salary"`
	}

	importDTO struct {
		OK       bool     `json:"ok"`
		Format   string   `json:"format"`
		Imported int      `json:"imported"`
		Skipped  int      `json:"skipped"`
		Failed   int      `json:"failed"`
		Problems []string `json:"problems,omitempty"`
	}
)

func toAccountDTO(a core.Account) accountDTO {
	return accountDTO{ID: a.ID, Slug: a.Slug, Name: a.Name, Currency: string(a.Currency), Builtin: isBuiltin(a)}
}

func toIncomeDTO(e core.IncomeEvent) incomeDTO {
	return incomeDTO{
		ID: e.ID, Timestamp: e.Timestamp, Amount: e.Amount, Currency: string(e.Currency),
		ConvertedAmount: e.ConvertedAmount, OriginalText: e.OriginalText,
		Account: e.Account, IsSalary: e.IsSalary, Rate: e.RateUsed,
	}
}

func toExpenseDTO(e core.ExpenseEvent) expenseDTO {
	return expenseDTO{
		ID: e.ID, Timestamp: e.Timestamp, Amount: e.Amount, Currency: string(e.Currency),
		ConvertedAmount: e.ConvertedAmount, Category: e.Category, Group: e.Group,
		Type: string(e.Type), Account: e.Account,
	}
}

func toTransferDTO(t core.TransferEvent) transferDTO {
	return transferDTO{
		ID: t.ID, Timestamp: t.Timestamp, From: t.From, To: t.To,
		AmountSent: t.AmountSent, CurrencySent: string(t.CurrencySent),
		AmountReceived: t.AmountReceived, CurrencyReceived: string(t.CurrencyReceived),
		Spread: t.Spread, Rate: t.Rate, IsWithdrawal: t.IsWithdrawal,
	}
}

func toBalancesDTO(v services.Views) balancesDTO {
	names := make(map[string]core.Account, len(v.Accounts))
	for _, a := range v.Accounts {
		names[a.Slug] = a
	}
	out := balancesDTO{
		Accounts:          make([]balanceDTO, 0, len(v.Balances.Order)),
		TotalBase:         v.Balances.TotalBase,
		TotalExpensesBase: v.Balances.TotalExpensesBase,
		Unresolved:        v.Balances.Unresolved,
		LiveRate:          v.LiveRate,
	}
	for _, slug := range v.Balances.Order {
		acc := names[slug]
		bal := v.Balances.Balance(slug)
		out.Accounts = append(out.Accounts, balanceDTO{
			Slug: slug, Name: acc.Name, Currency: string(acc.Currency),
			Balance: bal, Formatted: core.FormatAmount(bal, acc.Currency),
		})
	}
	return out
}

func toStrategyConfigDTO(c core.StrategyConfig) strategyConfigDTO {
	return strategyConfigDTO{
		Needs:  bucketConfigDTO(c.Needs),
		Wants:  bucketConfigDTO(c.Wants),
		Future: bucketConfigDTO(c.Future),
	}
}

func (d strategyConfigDTO) config() core.StrategyConfig {
	return core.StrategyConfig{
		Needs:  core.BucketConfig(d.Needs),
		Wants:  core.BucketConfig(d.Wants),
		Future: core.BucketConfig(d.Future),
	}
}

func toBucketDTO(b strategy.BucketResult) bucketDTO {
	return bucketDTO{
		Pct: b.Pct, Account: b.Account, Resolved: b.Resolved,
		Ideal: b.Ideal, Actual: b.Actual, Remaining: b.Remaining, PerPeriod: b.PerPeriod,
	}
}

func toStrategyDTO(cfg core.StrategyConfig, r strategy.Result) strategyDTO {
	return strategyDTO{
		Config:          toStrategyConfigDTO(cfg),
		TotalSalary:     r.TotalSalary,
		RemainingSalary: r.RemainingSalary,
		Needs:           toBucketDTO(r.Needs),
		Wants:           toBucketDTO(r.Wants),
		Future:          toBucketDTO(r.Future),
		Periods:         periodsDTO(r.Periods),
		PctTotal:        r.PctTotal,
		Balanced:        r.Balanced,
	}
}

func toChartDTO(d chart.Distribution) chartDTO {
	out := chartDTO{
		View: string(d.View), Currency: string(d.Currency),
		Segments:      make([]segmentDTO, 0, len(d.Segments)),
		TotalBaseline: d.TotalBaseline, Total: d.Total(), Placeholder: d.Placeholder,
	}
	for _, s := range d.Segments {
		out.Segments = append(out.Segments, segmentDTO(s))
	}
	return out
}

func toMovementDTO(m ledger.Movement) movementDTO {
	return movementDTO{
		ID: m.ID, SourceID: m.SourceID, Kind: string(m.Kind), Timestamp: m.Timestamp,
		Amount: m.Amount, Currency: string(m.Currency), Formatted: core.FormatSigned(m.Amount, m.Currency),
		Account: m.Account, AccountName: m.AccountName, Counterparty: m.Counterparty,
		Description: m.Description, Category: m.Category, Group: m.Group, IsSalary: m.IsSalary,
	}
}

func toImportDTO(r services.ImportResult) importDTO {
	out := importDTO{OK: true, Format: string(r.Format), Imported: r.Imported, Skipped: r.Skipped, Failed: r.Failed}
	for _, p := range r.Problems {
		out.Problems = append(out.Problems, p.Error())
	}
	return out
}
