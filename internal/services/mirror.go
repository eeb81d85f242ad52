package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"zent/internal/core"
	"zent/internal/directory"
	"zent/internal/ledger"
	"zent/internal/ports"
	"zent/internal/sheets"
)

// MirrorSource is the read side of the store the mirror needs.
type MirrorSource interface {
	ports.EventReader
	ListAccounts(ctx context.Context) ([]core.Account, error)
}

// Mirrorer projects stored events into spreadsheet rows. Rows are keyed by
// event id, so applying the same change twice leaves one copy.
type Mirrorer struct {
	source MirrorSource
	mirror sheets.Mirror
}

func NewMirrorer(source MirrorSource, mirror sheets.Mirror) *Mirrorer {
	return &Mirrorer{source: source, mirror: mirror}
}

// ReconcileReport summarizes a full resync.
type ReconcileReport struct {
	Upserted int
	Removed  int
	Failed   int
}

// Apply mirrors one change. An upsert of an event that no longer exists
// removes its rows instead.
func (m *Mirrorer) Apply(ctx context.Context, kind core.EventKind, eventID string, op ports.SyncOp) error {
	if op == ports.SyncDelete {
		n, err := m.mirror.DeleteMovements(ctx, eventID)
		if err != nil {
			return fmt.Errorf("delete rows of %s %s: %w", kind, eventID, err)
		}
		slog.InfoContext(ctx, "Mirror rows deleted", "component", "mirror", "event_kind", kind, "event_id", eventID, "rows", n)
		return nil
	}

	var ds core.Dataset
	var err error
	switch kind {
	case core.KindIncome:
		var ev core.IncomeEvent
		ev, err = m.source.Income(ctx, eventID)
		ds.Incomes = append(ds.Incomes, ev)
	case core.KindExpense:
		var ev core.ExpenseEvent
		ev, err = m.source.Expense(ctx, eventID)
		ds.Expenses = append(ds.Expenses, ev)
	case core.KindTransfer:
		var ev core.TransferEvent
		ev, err = m.source.Transfer(ctx, eventID)
		ds.Transfers = append(ds.Transfers, ev)
	default:
		return fmt.Errorf("unknown event kind %q", kind)
	}
	if errors.Is(err, ports.ErrNotFound) {
		slog.InfoContext(ctx, "Event gone before it was mirrored, removing its rows",
			"component", "mirror", "event_kind", kind, "event_id", eventID)
		return m.Apply(ctx, kind, eventID, ports.SyncDelete)
	}
	if err != nil {
		return fmt.Errorf("read %s %s: %w", kind, eventID, err)
	}

	dir, err := m.directory(ctx)
	if err != nil {
		return err
	}
	movements := ledger.BuildTimeline(ds.Incomes, ds.Expenses, ds.Transfers, dir)
	ref, err := m.mirror.UpsertMovements(ctx, eventID, movements)
	if err != nil {
		return fmt.Errorf("mirror %s %s: %w", kind, eventID, err)
	}
	slog.InfoContext(ctx, "Event mirrored",
		"component", "mirror",
		"event_kind", kind,
		"event_id", eventID,
		"rows", len(movements),
		"sheets_ref", ref)
	return nil
}

// Reconcile rewrites the rows of every stored event and removes rows whose
// event no longer exists. It recovers from lost change messages.
func (m *Mirrorer) Reconcile(ctx context.Context) (ReconcileReport, error) {
	var rep ReconcileReport

	ds, err := m.source.Snapshot(ctx)
	if err != nil {
		return rep, fmt.Errorf("read ledger: %w", err)
	}
	dir, err := m.directory(ctx)
	if err != nil {
		return rep, err
	}
	rows, err := m.mirror.ListRows(ctx)
	if err != nil {
		return rep, fmt.Errorf("list mirrored rows: %w", err)
	}

	bySource := make(map[string][]ledger.Movement)
	var order []string
	for _, mv := range ledger.BuildTimeline(ds.Incomes, ds.Expenses, ds.Transfers, dir) {
		if _, seen := bySource[mv.SourceID]; !seen {
			order = append(order, mv.SourceID)
		}
		bySource[mv.SourceID] = append(bySource[mv.SourceID], mv)
	}

	for _, id := range order {
		if ctx.Err() != nil {
			return rep, ctx.Err()
		}
		if _, err := m.mirror.UpsertMovements(ctx, id, bySource[id]); err != nil {
			rep.Failed++
			slog.WarnContext(ctx, "Reconcile upsert failed", "component", "mirror", "event_id", id, "error", err)
			continue
		}
		rep.Upserted++
	}

	stale := make(map[string]bool)
	for _, r := range rows {
		if _, ok := bySource[r.SourceID]; !ok {
			stale[r.SourceID] = true
		}
	}
	for id := range stale {
		if _, err := m.mirror.DeleteMovements(ctx, id); err != nil {
			rep.Failed++
			slog.WarnContext(ctx, "Reconcile delete failed", "component", "mirror", "event_id", id, "error", err)
			continue
		}
		rep.Removed++
	}

	slog.InfoContext(ctx, "Mirror reconciled",
		"component", "mirror",
		"upserted", rep.Upserted,
		"removed", rep.Removed,
		"failed", rep.Failed)
	return rep, nil
}

func (m *Mirrorer) directory(ctx context.Context) (*directory.Directory, error) {
	accounts, err := m.source.ListAccounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	return directory.New(core.BuiltinAccounts(), accounts), nil
}
