package sheets

import (
	"fmt"
	"strings"

	"zent/internal/core"
	"zent/internal/csvcodec"
	"zent/internal/ledger"
)

// Header is the first row of the mirror sheet.
var Header = []string{"ID", "Movimiento", "Fecha", "Tipo", "Descripción", "Cuenta", "Monto", "Moneda", "Categoría"}

// Row is one mirrored movement leg as it appears in the sheet.
type Row struct {
	SourceID    string
	MovementID  string
	Date        string
	Kind        string
	Description string
	Account     string
	Amount      float64
	Currency    string
	Category    string
}

// RowFor renders a movement leg with the table export's date and labels.
func RowFor(m ledger.Movement) Row {
	return Row{
		SourceID:    m.SourceID,
		MovementID:  m.ID,
		Date:        m.Timestamp.UTC().Format(csvcodec.TableDateLayout),
		Kind:        csvcodec.KindLabel(m.Kind),
		Description: m.Description,
		Account:     m.AccountName,
		Amount:      core.Round2(m.Amount),
		Currency:    string(m.Currency),
		Category:    m.Category,
	}
}

// Values returns the cells of r in Header order.
func (r Row) Values() []any {
	return []any{r.SourceID, r.MovementID, r.Date, r.Kind, r.Description, r.Account, r.Amount, r.Currency, r.Category}
}

// ParseRow reads cells in Header order. Missing trailing cells read as empty.
func ParseRow(cells []any) (Row, error) {
	get := func(i int) string {
		if i >= len(cells) {
			return ""
		}
		return strings.TrimSpace(fmt.Sprint(cells[i]))
	}
	r := Row{
		SourceID:    get(0),
		MovementID:  get(1),
		Date:        get(2),
		Kind:        get(3),
		Description: get(4),
		Account:     get(5),
		Currency:    get(7),
		Category:    get(8),
	}
	if r.SourceID == "" {
		return Row{}, fmt.Errorf("row has no id")
	}
	if raw := get(6); raw != "" {
		amount, err := core.ParseLooseNumber(raw)
		if err != nil {
			return Row{}, fmt.Errorf("amount %q: %w", raw, err)
		}
		if strings.HasPrefix(raw, "-") {
			amount = -amount
		}
		r.Amount = amount
	}
	return r, nil
}
