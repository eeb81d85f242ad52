package csvcodec

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"zent/internal/core"
	"zent/internal/currency"
	"zent/internal/ledger"
)

const (
	colDate        = "Fecha"
	colKind        = "Tipo"
	colDescription = "Descripción"
	colAccount     = "Cuenta"
	colAmount      = "Monto"
)

const (
	kindIncome      = "Ingreso"
	kindExpense     = "Egreso"
	kindTransferOut = "Envío"
	kindTransferIn  = "Recepción"
)

// TableDateLayout is the day-first date of the table format, in UTC.
const TableDateLayout = "02/01/06 15:04"

// TableHeader is the column set of the table format, in order.
var TableHeader = []string{colDate, colKind, colDescription, colAccount, colAmount}

var kindLabels = map[ledger.MovementKind]string{
	ledger.KindIncome:      kindIncome,
	ledger.KindExpense:     kindExpense,
	ledger.KindTransferOut: kindTransferOut,
	ledger.KindTransferIn:  kindTransferIn,
}

// KindLabel returns the Spanish label of a movement kind used in the Tipo column.
func KindLabel(k ledger.MovementKind) string {
	return kindLabels[k]
}

// EncodeTable writes the timeline newest first, one row per movement leg,
// prefixed with a byte-order mark so spreadsheet tools detect UTF-8.
func EncodeTable(w io.Writer, movements []ledger.Movement) error {
	if _, err := io.WriteString(w, bom); err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(TableHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, m := range movements {
		err := cw.Write([]string{
			m.Timestamp.UTC().Format(TableDateLayout),
			kindLabels[m.Kind],
			m.Description,
			m.AccountName,
			core.FormatSigned(m.Amount, m.Currency),
		})
		if err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func decodeTableRow(r row, opts Options, res *Result) {
	kind := r.get(colKind)
	switch kind {
	case kindTransferOut, kindTransferIn:
		// one leg cannot rebuild a transfer without duplicating it
		res.Skipped++
		res.TransferLegs++
		return
	case kindIncome, kindExpense:
	default:
		res.skip(r.line, "unknown movement type %q", kind)
		return
	}

	raw := r.get(colAmount)
	amount, err := core.ParseLooseNumber(raw)
	if err != nil || !core.ValidAmount(amount) {
		res.skip(r.line, "amount %q is not a number", raw)
		return
	}
	cur := amountCurrency(raw)
	ts := tableDate(r.get(colDate), opts)
	account := r.get(colAccount)
	description := r.get(colDescription)

	if kind == kindIncome {
		in := core.IncomeEvent{
			ID:              opts.NewID(),
			Timestamp:       ts,
			Amount:          amount,
			Currency:        cur,
			ConvertedAmount: currency.ToBase(amount, cur, nil, opts.LiveRate),
			OriginalText:    description,
			Account:         account,
		}
		if in.OriginalText == "" {
			in.OriginalText = core.IncomeText(amount, cur, nil)
		}
		if err := in.Validate(); err != nil {
			res.skip(r.line, "income: %v", err)
			return
		}
		res.addIncome(r.line, in)
		return
	}

	// categories outside the taxonomy still import, grouped under Otros
	group, typ, ok := core.Classify(description)
	if !ok {
		group, typ = core.GroupOther, ""
	}
	ex := core.ExpenseEvent{
		ID:              opts.NewID(),
		Timestamp:       ts,
		Amount:          amount,
		Currency:        cur,
		ConvertedAmount: currency.ToBase(amount, cur, nil, opts.LiveRate),
		Category:        description,
		Group:           group,
		Type:            typ,
		Account:         account,
	}
	if err := ex.Validate(); err != nil {
		res.skip(r.line, "expense: %v", err)
		return
	}
	res.addExpense(r.line, ex)
}

// amountCurrency reads the ISO code that trails a formatted amount.
func amountCurrency(s string) core.Currency {
	if strings.Contains(strings.ToUpper(s), string(core.USD)) {
		return core.USD
	}
	return core.MXN
}

func tableDate(s string, opts Options) time.Time {
	if t, err := time.Parse(TableDateLayout, s); err == nil {
		return t
	}
	return timestamp(s, opts)
}
