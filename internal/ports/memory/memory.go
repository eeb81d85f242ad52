// Package memory is an in-process ports.Store. Data lives as long as the
// process and is never shared between users or processes.
package memory

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"zent/internal/core"
	"zent/internal/ports"
)

var _ ports.Store = (*Store)(nil)

type Store struct {
	mu        sync.Mutex
	accounts  []core.Account
	incomes   []core.IncomeEvent
	expenses  []core.ExpenseEvent
	transfers []core.TransferEvent
	strategy  *core.StrategyConfig

	outbox  bool
	queue   []ports.SyncItem
	queueID int64
	now     func() time.Time
}

type Option func(*Store)

// WithOutbox makes every event write enqueue a sync item. Without it the
// queue stays empty, which suits processes that never run a mirror.
func WithOutbox() Option {
	return func(s *Store) { s.outbox = true }
}

// WithClock replaces time.Now for queue timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func New(opts ...Option) *Store {
	s := &Store{now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Seed replaces the stored events with ds, enqueuing nothing.
func (s *Store) Seed(ds core.Dataset) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.incomes = slices.Clone(ds.Incomes)
	s.expenses = slices.Clone(ds.Expenses)
	s.transfers = slices.Clone(ds.Transfers)
}

func (s *Store) Close() error { return nil }

func (s *Store) ListAccounts(_ context.Context) ([]core.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.accounts), nil
}

func (s *Store) CreateAccount(_ context.Context, a core.Account) (core.Account, error) {
	if err := a.Validate(); err != nil {
		return core.Account{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.accounts {
		if existing.Slug == a.Slug {
			return core.Account{}, ports.ErrDuplicate
		}
	}
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	s.accounts = append(s.accounts, a)
	return a, nil
}

func (s *Store) DeleteAccount(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.accounts)
	s.accounts = slices.DeleteFunc(s.accounts, func(a core.Account) bool { return a.ID == id })
	if len(s.accounts) == n {
		return ports.ErrNotFound
	}
	return nil
}

func (s *Store) AddIncome(_ context.Context, e core.IncomeEvent) (string, error) {
	if err := e.Validate(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	s.incomes = append(s.incomes, e)
	s.enqueue(core.KindIncome, e.ID, ports.SyncUpsert)
	return e.ID, nil
}

func (s *Store) AddExpense(_ context.Context, e core.ExpenseEvent) (string, error) {
	if err := e.Validate(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	s.expenses = append(s.expenses, e)
	s.enqueue(core.KindExpense, e.ID, ports.SyncUpsert)
	return e.ID, nil
}

func (s *Store) AddTransfer(_ context.Context, e core.TransferEvent) (string, error) {
	if err := e.Validate(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	s.transfers = append(s.transfers, e)
	s.enqueue(core.KindTransfer, e.ID, ports.SyncUpsert)
	return e.ID, nil
}

func (s *Store) DeleteIncome(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return remove(s, &s.incomes, core.KindIncome, id, func(e core.IncomeEvent) string { return e.ID })
}

func (s *Store) DeleteExpense(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return remove(s, &s.expenses, core.KindExpense, id, func(e core.ExpenseEvent) string { return e.ID })
}

func (s *Store) DeleteTransfer(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return remove(s, &s.transfers, core.KindTransfer, id, func(e core.TransferEvent) string { return e.ID })
}

// remove must be called with s.mu held.
func remove[T any](s *Store, events *[]T, kind core.EventKind, id string, idOf func(T) string) error {
	n := len(*events)
	*events = slices.DeleteFunc(*events, func(e T) bool { return idOf(e) == id })
	if len(*events) == n {
		return ports.ErrNotFound
	}
	s.enqueue(kind, id, ports.SyncDelete)
	return nil
}

func (s *Store) Snapshot(_ context.Context) (core.Dataset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return core.Dataset{
		Incomes:   slices.Clone(s.incomes),
		Expenses:  slices.Clone(s.expenses),
		Transfers: slices.Clone(s.transfers),
	}, nil
}

func (s *Store) Income(_ context.Context, id string) (core.IncomeEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return find(s.incomes, id, func(e core.IncomeEvent) string { return e.ID })
}

func (s *Store) Expense(_ context.Context, id string) (core.ExpenseEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return find(s.expenses, id, func(e core.ExpenseEvent) string { return e.ID })
}

func (s *Store) Transfer(_ context.Context, id string) (core.TransferEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return find(s.transfers, id, func(e core.TransferEvent) string { return e.ID })
}

func find[T any](events []T, id string, idOf func(T) string) (T, error) {
	for _, e := range events {
		if idOf(e) == id {
			return e, nil
		}
	}
	var zero T
	return zero, ports.ErrNotFound
}

func (s *Store) LoadStrategy(_ context.Context) (core.StrategyConfig, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.strategy == nil {
		return core.StrategyConfig{}, false, nil
	}
	return *s.strategy, true, nil
}

func (s *Store) SaveStrategy(_ context.Context, cfg core.StrategyConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.strategy = &cfg
	return nil
}
