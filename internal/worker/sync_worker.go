package worker

import (
	"context"
	"fmt"
	"log/slog"

	"zent/internal/amqp"
	"zent/internal/ports"
	"zent/internal/services"
)

// Reconciler rebuilds the whole mirror from the store.
type Reconciler interface {
	Reconcile(ctx context.Context) (services.ReconcileReport, error)
}

// SyncWorker mirrors ledger changes announced over AMQP to the spreadsheet.
type SyncWorker struct {
	applier    services.ChangeApplier
	reconciler Reconciler
	userID     string
}

// NewSyncWorker builds a worker for one user. Messages for other users are
// dropped.
func NewSyncWorker(applier services.ChangeApplier, reconciler Reconciler, userID string) *SyncWorker {
	return &SyncWorker{
		applier:    applier,
		reconciler: reconciler,
		userID:     userID,
	}
}

// HandleChange processes a single change message. A returned error makes
// the consumer requeue the message.
func (w *SyncWorker) HandleChange(ctx context.Context, msg *amqp.LedgerChangeMessage) error {
	if err := msg.Validate(); err != nil {
		slog.WarnContext(ctx, "Dropping invalid change message", "component", "worker", "error", err)
		return nil
	}
	if w.userID != "" && msg.UserID != w.userID {
		slog.WarnContext(ctx, "Dropping change message for another user",
			"component", "worker",
			"user_id", msg.UserID,
			"event_id", msg.EventID)
		return nil
	}

	slog.InfoContext(ctx, "Processing change message",
		"component", "worker",
		"event_kind", msg.Kind,
		"event_id", msg.EventID,
		"operation", msg.Op)

	op := ports.SyncUpsert
	if msg.Op == amqp.OpDelete {
		op = ports.SyncDelete
	}
	if err := w.applier.Apply(ctx, msg.Kind, msg.EventID, op); err != nil {
		return fmt.Errorf("apply %s %s: %w", msg.Kind, msg.EventID, err)
	}
	return nil
}

// StartupSyncCheck reconciles the mirror with the store, recovering from
// messages lost while the worker was down.
func (w *SyncWorker) StartupSyncCheck(ctx context.Context) error {
	if w.reconciler == nil {
		return nil
	}
	rep, err := w.reconciler.Reconcile(ctx)
	if err != nil {
		return fmt.Errorf("startup reconcile: %w", err)
	}
	slog.InfoContext(ctx, "Startup sync completed",
		"component", "worker",
		"upserted", rep.Upserted,
		"removed", rep.Removed,
		"errors", rep.Failed)
	return nil
}
