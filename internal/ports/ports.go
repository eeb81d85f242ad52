// Package ports declares the persistence boundary of the ledger. Every store
// is scoped to a single user; adapters receive the user id at construction.
package ports

import (
	"context"
	"errors"
	"time"

	"zent/internal/core"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("record already exists")
)

const (
	SyncUpsert SyncOp = "sync"
	SyncDelete SyncOp = "delete"
)

const (
	SyncPending    SyncStatus = "pending"
	SyncProcessing SyncStatus = "processing"
	SyncCompleted  SyncStatus = "completed"
	SyncFailed     SyncStatus = "failed"
)

type (
	// SyncOp is what the mirror must do with an event.
	SyncOp string

	// SyncStatus is the lifecycle state of an outbox item.
	SyncStatus string

	// SyncItem is one outbox entry: an event that changed and must be
	// mirrored to the spreadsheet.
	SyncItem struct {
		ID        int64
		Kind      core.EventKind
		EventID   string
		Op        SyncOp
		Status    SyncStatus
		Attempts  int
		LastError string
		CreatedAt time.Time
	}

	// SyncStats counts outbox items per status.
	SyncStats struct {
		Pending    int
		Processing int
		Completed  int
		Failed     int
	}

	AccountStore interface {
		ListAccounts(ctx context.Context) ([]core.Account, error)
		// CreateAccount assigns the id and returns the stored account.
		CreateAccount(ctx context.Context, a core.Account) (core.Account, error)
		DeleteAccount(ctx context.Context, id string) error
	}

	// EventWriter appends and removes events. Add methods return the id of the
	// stored event, assigning one when the event has none.
	EventWriter interface {
		AddIncome(ctx context.Context, e core.IncomeEvent) (string, error)
		AddExpense(ctx context.Context, e core.ExpenseEvent) (string, error)
		AddTransfer(ctx context.Context, e core.TransferEvent) (string, error)
		DeleteIncome(ctx context.Context, id string) error
		DeleteExpense(ctx context.Context, id string) error
		DeleteTransfer(ctx context.Context, id string) error
	}

	EventReader interface {
		// Snapshot returns every event of the user.
		Snapshot(ctx context.Context) (core.Dataset, error)
		Income(ctx context.Context, id string) (core.IncomeEvent, error)
		Expense(ctx context.Context, id string) (core.ExpenseEvent, error)
		Transfer(ctx context.Context, id string) (core.TransferEvent, error)
	}

	StrategyStore interface {
		// LoadStrategy reports found=false when the user never saved one.
		LoadStrategy(ctx context.Context) (cfg core.StrategyConfig, found bool, err error)
		SaveStrategy(ctx context.Context, cfg core.StrategyConfig) error
	}

	// SyncQueue is the outbox filled by every event write.
	SyncQueue interface {
		// DequeueSync claims up to limit pending items, oldest first, and
		// moves them to processing.
		DequeueSync(ctx context.Context, limit int) ([]SyncItem, error)
		CompleteSync(ctx context.Context, id int64) error
		// RetrySync returns the item to pending and records the failure.
		RetrySync(ctx context.Context, id int64, cause string) error
		FailSync(ctx context.Context, id int64, cause string) error
		// ResetStaleSync returns items left in processing by a crash to pending.
		ResetStaleSync(ctx context.Context) error
		CleanupSync(ctx context.Context, before time.Time) error
		RetryFailedSync(ctx context.Context) error
		SyncStats(ctx context.Context) (SyncStats, error)
	}

	Store interface {
		AccountStore
		EventWriter
		EventReader
		StrategyStore
		SyncQueue
		Close() error
	}
)
