package google

import (
	"context"
	"reflect"
	"testing"
)

func TestParseRows(t *testing.T) {
	values := [][]any{
		{"ID", "Movimiento", "Fecha", "Tipo", "Descripción", "Cuenta", "Monto", "Moneda", "Categoría"},
		{"e1", "exp-e1", "01/02/25 10:00", "Egreso", "Gasolina", "BBVA", "-80.5", "MXN", "Gasolina"},
		{},
		{"", "orphan"},
		{"e2", "exp-e2", "01/02/25 10:00", "Egreso", "x", "BBVA", "abc"},
		{"i1", "inc-i1", "01/02/25 10:00", "Ingreso", "Sueldo", "BBVA", 1200.0},
	}

	rows := parseRows(context.Background(), values)
	if len(rows) != 2 {
		t.Fatalf("parseRows() = %d rows, want 2", len(rows))
	}
	if rows[0].Amount != -80.5 || rows[0].Currency != "MXN" {
		t.Errorf("first row = %+v", rows[0])
	}
	if rows[1].Amount != 1200 || rows[1].Category != "" {
		t.Errorf("short row = %+v", rows[1])
	}
}

func TestMatchingRows(t *testing.T) {
	values := [][]any{{"ID"}, {"a"}, {}, {" b "}, {"a", "second leg"}}
	if got := matchingRows(values, "a"); !reflect.DeepEqual(got, []int{1, 4}) {
		t.Errorf("matchingRows(a) = %v", got)
	}
	if got := matchingRows(values, "b"); !reflect.DeepEqual(got, []int{3}) {
		t.Errorf("matchingRows(b) = %v", got)
	}
	if got := matchingRows(values, "z"); got != nil {
		t.Errorf("matchingRows(z) = %v", got)
	}
}
