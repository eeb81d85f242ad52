package csvcodec

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"zent/internal/core"
	"zent/internal/currency"
)

const (
	rowIncome   = "income"
	rowExpense  = "expense"
	rowTransfer = "transfer"
)

// TechnicalHeader is the column set of the technical format, in order.
var TechnicalHeader = []string{
	"type", "id", "timestamp", "account", "amount", "currency",
	"convertedAmount", "rateUsed", "isSalary", "originalText", "category", "group",
	"from", "to", "amountSent", "currencySent", "amountReceived", "currencyReceived",
	"spread", "rate",
}

// EncodeTechnical writes one row per event: incomes, then expenses, then
// transfers. Cells that do not apply to a row are left empty.
func EncodeTechnical(w io.Writer, ds core.Dataset) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(TechnicalHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for _, in := range ds.Incomes {
		rec := technicalRecord(rowIncome, in.ID, in.Timestamp)
		rec.set("account", in.Account)
		rec.set("amount", core.FormatNumber(in.Amount))
		rec.set("currency", string(in.Currency))
		rec.set("convertedAmount", core.FormatNumber(in.ConvertedAmount))
		rec.set("rateUsed", formatRate(in.RateUsed))
		rec.set("isSalary", strconv.FormatBool(in.IsSalary))
		rec.set("originalText", in.OriginalText)
		if err := cw.Write(rec.values); err != nil {
			return err
		}
	}
	for _, ex := range ds.Expenses {
		rec := technicalRecord(rowExpense, ex.ID, ex.Timestamp)
		rec.set("account", ex.Account)
		rec.set("amount", core.FormatNumber(ex.Amount))
		rec.set("currency", string(ex.Currency))
		rec.set("convertedAmount", core.FormatNumber(ex.ConvertedAmount))
		rec.set("category", ex.Category)
		rec.set("group", ex.Group)
		if err := cw.Write(rec.values); err != nil {
			return err
		}
	}
	for _, tr := range ds.Transfers {
		rec := technicalRecord(rowTransfer, tr.ID, tr.Timestamp)
		rec.set("from", tr.From)
		rec.set("to", tr.To)
		rec.set("amountSent", core.FormatNumber(tr.AmountSent))
		rec.set("currencySent", string(tr.CurrencySent))
		rec.set("amountReceived", core.FormatNumber(tr.AmountReceived))
		rec.set("currencyReceived", string(tr.CurrencyReceived))
		rec.set("spread", core.FormatNumber(tr.Spread))
		rec.set("rate", formatRate(tr.Rate))
		if tr.IsWithdrawal {
			rec.set("category", core.CategoryCashWithdrawal)
		}
		if err := cw.Write(rec.values); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

type record struct {
	values []string
}

var technicalIndex = indexHeader(TechnicalHeader)

func technicalRecord(kind, id string, ts time.Time) record {
	r := record{values: make([]string, len(TechnicalHeader))}
	r.set("type", kind)
	r.set("id", id)
	r.set("timestamp", ts.UTC().Format(time.RFC3339Nano))
	return r
}

func (r record) set(col, v string) {
	r.values[technicalIndex[col]] = v
}

func formatRate(rate *float64) string {
	if !core.ValidRate(rate) {
		return ""
	}
	return core.FormatNumber(*rate)
}

func decodeTechnicalRow(r row, opts Options, res *Result) {
	switch kind := strings.ToLower(r.get("type")); kind {
	case rowIncome:
		in, err := technicalIncome(r, opts)
		if err != nil {
			res.skip(r.line, "income: %v", err)
			return
		}
		res.addIncome(r.line, in)
	case rowExpense:
		ex, err := technicalExpense(r, opts)
		if err != nil {
			res.skip(r.line, "expense: %v", err)
			return
		}
		res.addExpense(r.line, ex)
	case rowTransfer:
		tr, err := technicalTransfer(r, opts)
		if err != nil {
			res.skip(r.line, "transfer: %v", err)
			return
		}
		res.addTransfer(r.line, tr)
	default:
		res.skip(r.line, "unknown row type %q", kind)
	}
}

func technicalIncome(r row, opts Options) (core.IncomeEvent, error) {
	amount, err := core.ParseLooseNumber(r.get("amount"))
	if err != nil {
		return core.IncomeEvent{}, fmt.Errorf("amount: %w", err)
	}
	cur, err := currencyOr(r.get("currency"), core.BaseCurrency)
	if err != nil {
		return core.IncomeEvent{}, err
	}
	rate := optionalNumber(r.get("rateUsed"))

	in := core.IncomeEvent{
		ID:           opts.NewID(),
		Timestamp:    timestamp(r.get("timestamp"), opts),
		Amount:       amount,
		Currency:     cur,
		Account:      r.get("account"),
		IsSalary:     strings.EqualFold(r.get("isSalary"), "true"),
		RateUsed:     rate,
		OriginalText: r.get("originalText"),
	}
	if converted, err := core.ParseLooseNumber(r.get("convertedAmount")); err == nil && converted > 0 {
		in.ConvertedAmount = converted
	} else {
		in.ConvertedAmount = currency.ToBase(amount, cur, rate, opts.LiveRate)
	}
	if in.OriginalText == "" {
		in.OriginalText = core.IncomeText(amount, cur, rate)
	}
	return in, in.Validate()
}

func technicalExpense(r row, opts Options) (core.ExpenseEvent, error) {
	amount, err := core.ParseLooseNumber(r.get("amount"))
	if err != nil {
		return core.ExpenseEvent{}, fmt.Errorf("amount: %w", err)
	}
	cur, err := currencyOr(r.get("currency"), core.BaseCurrency)
	if err != nil {
		return core.ExpenseEvent{}, err
	}

	ex := core.ExpenseEvent{
		ID:        opts.NewID(),
		Timestamp: timestamp(r.get("timestamp"), opts),
		Amount:    amount,
		Currency:  cur,
		Account:   r.get("account"),
		Category:  r.get("category"),
		Group:     r.get("group"),
	}
	group, typ, known := core.Classify(ex.Category)
	if ex.Group == "" && known {
		ex.Group = group
	}
	if t, ok := core.GroupType(ex.Group); ok {
		ex.Type = t
	} else if known {
		ex.Type = typ
	}
	if converted, err := core.ParseLooseNumber(r.get("convertedAmount")); err == nil && converted > 0 {
		ex.ConvertedAmount = converted
	} else {
		ex.ConvertedAmount = currency.ToBase(amount, cur, nil, opts.LiveRate)
	}
	return ex, ex.Validate()
}

func technicalTransfer(r row, opts Options) (core.TransferEvent, error) {
	sent, err := core.ParseLooseNumber(r.get("amountSent"))
	if err != nil {
		return core.TransferEvent{}, fmt.Errorf("amountSent: %w", err)
	}
	curSent, err := currencyOr(r.get("currencySent"), core.BaseCurrency)
	if err != nil {
		return core.TransferEvent{}, err
	}
	curReceived, err := currencyOr(r.get("currencyReceived"), curSent)
	if err != nil {
		return core.TransferEvent{}, err
	}

	tr := core.TransferEvent{
		ID:               opts.NewID(),
		Timestamp:        timestamp(r.get("timestamp"), opts),
		From:             r.get("from"),
		To:               r.get("to"),
		AmountSent:       sent,
		CurrencySent:     curSent,
		CurrencyReceived: curReceived,
		Rate:             optionalNumber(r.get("rate")),
		IsWithdrawal:     r.get("category") == core.CategoryCashWithdrawal,
	}
	if received, err := core.ParseLooseNumber(r.get("amountReceived")); err == nil {
		tr.AmountReceived = received
	} else if curSent == curReceived {
		tr.AmountReceived = sent
	} else {
		return core.TransferEvent{}, fmt.Errorf("amountReceived: %w", err)
	}
	if spread, err := strconv.ParseFloat(r.get("spread"), 64); err == nil {
		tr.Spread = spread
	}
	return tr, tr.Validate()
}

func currencyOr(s string, def core.Currency) (core.Currency, error) {
	if s == "" {
		return def, nil
	}
	return core.ParseCurrency(s)
}

func optionalNumber(s string) *float64 {
	v, err := core.ParseLooseNumber(s)
	if err != nil {
		return nil
	}
	return core.Rate(v)
}

var timestampLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02 15:04:05", "2006-01-02"}

func timestamp(s string, opts Options) time.Time {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return opts.Now().UTC()
}
