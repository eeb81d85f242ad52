package memory

import (
	"context"
	"testing"
	"time"

	"zent/internal/core"
	"zent/internal/ledger"
)

func legs(sourceID string, amounts ...float64) []ledger.Movement {
	out := make([]ledger.Movement, 0, len(amounts))
	for i, a := range amounts {
		out = append(out, ledger.Movement{
			ID:          sourceID + "-" + string(rune('a'+i)),
			SourceID:    sourceID,
			Kind:        ledger.KindExpense,
			Timestamp:   time.Date(2024, 1, 2, 3, 0, 0, 0, time.UTC),
			Amount:      a,
			Currency:    core.MXN,
			AccountName: "BBVA",
		})
	}
	return out
}

func TestUpsertReplacesRowsOfSource(t *testing.T) {
	ctx := context.Background()
	m := New()

	ref, err := m.UpsertMovements(ctx, "e1", legs("e1", -10, -20))
	if err != nil || ref != "mem:1-2" {
		t.Fatalf("unexpected upsert: ref=%q err=%v", ref, err)
	}
	if _, err := m.UpsertMovements(ctx, "e2", legs("e2", -5)); err != nil {
		t.Fatalf("upsert e2: %v", err)
	}

	// same source again: old rows go, new ones are appended
	ref, err = m.UpsertMovements(ctx, "e1", legs("e1", -30))
	if err != nil || ref != "mem:2-2" {
		t.Fatalf("unexpected re-upsert: ref=%q err=%v", ref, err)
	}

	rows, _ := m.ListRows(ctx)
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0].SourceID != "e2" || rows[1].SourceID != "e1" || rows[1].Amount != -30 {
		t.Fatalf("unexpected rows: %+v", rows)
	}
}

func TestDeleteMovements(t *testing.T) {
	ctx := context.Background()
	m := New()
	_, _ = m.UpsertMovements(ctx, "t1", legs("t1", -300, 300))

	n, err := m.DeleteMovements(ctx, "t1")
	if err != nil || n != 2 {
		t.Fatalf("unexpected delete: n=%d err=%v", n, err)
	}
	n, err = m.DeleteMovements(ctx, "t1")
	if err != nil || n != 0 {
		t.Fatalf("second delete should remove nothing: n=%d err=%v", n, err)
	}
}

func TestListRowsReturnsCopy(t *testing.T) {
	ctx := context.Background()
	m := New()
	_, _ = m.UpsertMovements(ctx, "i1", legs("i1", 100))

	rows, _ := m.ListRows(ctx)
	rows[0].Amount = 1

	again, _ := m.ListRows(ctx)
	if again[0].Amount != 100 {
		t.Fatalf("listing leaked internal state: %+v", again[0])
	}
}
