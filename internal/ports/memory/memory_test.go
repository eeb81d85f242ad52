package memory

import (
	"context"
	"testing"
	"time"

	"zent/internal/core"
	"zent/internal/ports"
	"zent/internal/ports/portstest"
)

func TestStoreContract(t *testing.T) {
	portstest.Run(t, func(t *testing.T) ports.Store { return New(WithOutbox()) })
}

func TestOutboxIsOptIn(t *testing.T) {
	ctx := context.Background()
	s := New()
	_, err := s.AddIncome(ctx, core.IncomeEvent{
		Timestamp: time.Now(), Amount: 1, Currency: core.MXN, ConvertedAmount: 1, Account: "bbva",
	})
	if err != nil {
		t.Fatalf("AddIncome() error = %v", err)
	}
	items, err := s.DequeueSync(ctx, 10)
	if err != nil {
		t.Fatalf("DequeueSync() error = %v", err)
	}
	if len(items) != 0 {
		t.Errorf("DequeueSync() = %d items, want none without an outbox", len(items))
	}
}

func TestSeedReplacesEvents(t *testing.T) {
	s := New(WithOutbox())
	s.Seed(core.Dataset{Expenses: []core.ExpenseEvent{{ID: "e1"}}})

	ds, _ := s.Snapshot(context.Background())
	if ds.Len() != 1 {
		t.Fatalf("Snapshot() has %d events, want 1", ds.Len())
	}
	st, _ := s.SyncStats(context.Background())
	if st.Pending != 0 {
		t.Errorf("Seed() enqueued %d items", st.Pending)
	}
}
