package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"zent/internal/core"
	"zent/internal/ports"

	_ "modernc.org/sqlite"
)

var _ ports.Store = (*SQLiteRepository)(nil)

// SQLiteRepository stores the ledger of one user. Several repositories may
// share a database file; rows are partitioned by user_id.
type SQLiteRepository struct {
	db     *sql.DB
	userID string
	now    func() time.Time
}

func NewSQLiteRepository(dbPath, userID string) (*SQLiteRepository, error) {
	if userID == "" {
		return nil, errors.New("user id is required")
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// A single connection serializes writers and avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	// Run migrations
	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db, userID: userID, now: time.Now}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// UserID returns the user the repository is scoped to.
func (r *SQLiteRepository) UserID() string { return r.userID }

func (r *SQLiteRepository) ListAccounts(ctx context.Context) ([]core.Account, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, slug, name, currency FROM accounts WHERE user_id = ? ORDER BY created_at, rowid`, r.userID)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	var out []core.Account
	for rows.Next() {
		var a core.Account
		var cur string
		if err := rows.Scan(&a.ID, &a.Slug, &a.Name, &cur); err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		a.Currency = core.Currency(cur)
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) CreateAccount(ctx context.Context, a core.Account) (core.Account, error) {
	if err := a.Validate(); err != nil {
		return core.Account{}, err
	}
	if a.ID == "" {
		a.ID = uuid.NewString()
	}

	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM accounts WHERE user_id = ? AND slug = ?`, r.userID, a.Slug).Scan(&n)
	if err != nil {
		return core.Account{}, fmt.Errorf("check account slug: %w", err)
	}
	if n > 0 {
		return core.Account{}, ports.ErrDuplicate
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO accounts (id, user_id, slug, name, currency) VALUES (?, ?, ?, ?, ?)`,
		a.ID, r.userID, a.Slug, a.Name, string(a.Currency))
	if err != nil {
		return core.Account{}, fmt.Errorf("create account: %w", err)
	}

	slog.InfoContext(ctx, "Account saved to SQLite", "id", a.ID, "slug", a.Slug, "currency", a.Currency)
	return a, nil
}

func (r *SQLiteRepository) DeleteAccount(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM accounts WHERE user_id = ? AND id = ?`, r.userID, id)
	if err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	return affected(res)
}

func (r *SQLiteRepository) AddIncome(ctx context.Context, e core.IncomeEvent) (string, error) {
	if err := e.Validate(); err != nil {
		return "", err
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO incomes (id, user_id, occurred_at, amount, currency, converted_amount,
			                     original_text, account, is_salary, rate_used)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			e.ID, r.userID, toMillis(e.Timestamp), e.Amount, string(e.Currency), e.ConvertedAmount,
			e.OriginalText, e.Account, e.IsSalary, nullRate(e.RateUsed))
		if err != nil {
			return fmt.Errorf("insert income: %w", err)
		}
		return r.enqueue(ctx, tx, core.KindIncome, e.ID, ports.SyncUpsert)
	})
	if err != nil {
		return "", err
	}

	slog.InfoContext(ctx, "Income saved to SQLite",
		"id", e.ID,
		"account", e.Account,
		"amount", e.Amount,
		"currency", e.Currency)
	return e.ID, nil
}

func (r *SQLiteRepository) AddExpense(ctx context.Context, e core.ExpenseEvent) (string, error) {
	if err := e.Validate(); err != nil {
		return "", err
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO expenses (id, user_id, occurred_at, amount, currency, converted_amount,
			                      category, category_group, expense_type, account)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			e.ID, r.userID, toMillis(e.Timestamp), e.Amount, string(e.Currency), e.ConvertedAmount,
			e.Category, e.Group, string(e.Type), e.Account)
		if err != nil {
			return fmt.Errorf("insert expense: %w", err)
		}
		return r.enqueue(ctx, tx, core.KindExpense, e.ID, ports.SyncUpsert)
	})
	if err != nil {
		return "", err
	}

	slog.InfoContext(ctx, "Expense saved to SQLite",
		"id", e.ID,
		"account", e.Account,
		"category", e.Category,
		"amount", e.Amount,
		"currency", e.Currency)
	return e.ID, nil
}

func (r *SQLiteRepository) AddTransfer(ctx context.Context, e core.TransferEvent) (string, error) {
	if err := e.Validate(); err != nil {
		return "", err
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO transfers (id, user_id, occurred_at, from_account, to_account,
			                       amount_sent, currency_sent, amount_received, currency_received,
			                       spread, rate, is_withdrawal)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			e.ID, r.userID, toMillis(e.Timestamp), e.From, e.To,
			e.AmountSent, string(e.CurrencySent), e.AmountReceived, string(e.CurrencyReceived),
			e.Spread, nullRate(e.Rate), e.IsWithdrawal)
		if err != nil {
			return fmt.Errorf("insert transfer: %w", err)
		}
		return r.enqueue(ctx, tx, core.KindTransfer, e.ID, ports.SyncUpsert)
	})
	if err != nil {
		return "", err
	}

	slog.InfoContext(ctx, "Transfer saved to SQLite",
		"id", e.ID,
		"from", e.From,
		"to", e.To,
		"amount_sent", e.AmountSent,
		"withdrawal", e.IsWithdrawal)
	return e.ID, nil
}

func (r *SQLiteRepository) DeleteIncome(ctx context.Context, id string) error {
	return r.deleteEvent(ctx, "incomes", core.KindIncome, id)
}

func (r *SQLiteRepository) DeleteExpense(ctx context.Context, id string) error {
	return r.deleteEvent(ctx, "expenses", core.KindExpense, id)
}

func (r *SQLiteRepository) DeleteTransfer(ctx context.Context, id string) error {
	return r.deleteEvent(ctx, "transfers", core.KindTransfer, id)
}

// deleteEvent removes a row and enqueues its removal from the mirror. The
// table name never comes from user input.
func (r *SQLiteRepository) deleteEvent(ctx context.Context, table string, kind core.EventKind, id string) error {
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM `+table+` WHERE user_id = ? AND id = ?`, r.userID, id)
		if err != nil {
			return fmt.Errorf("delete %s: %w", kind, err)
		}
		if err := affected(res); err != nil {
			return err
		}
		return r.enqueue(ctx, tx, kind, id, ports.SyncDelete)
	})
	if err != nil {
		return err
	}
	slog.InfoContext(ctx, "Event deleted from SQLite", "kind", kind, "id", id)
	return nil
}

func (r *SQLiteRepository) LoadStrategy(ctx context.Context) (core.StrategyConfig, bool, error) {
	var cfg core.StrategyConfig
	err := r.db.QueryRowContext(ctx, `
		SELECT needs_pct, needs_account, wants_pct, wants_account, future_pct, future_account
		FROM strategy_configs WHERE user_id = ?`, r.userID).Scan(
		&cfg.Needs.Pct, &cfg.Needs.Account,
		&cfg.Wants.Pct, &cfg.Wants.Account,
		&cfg.Future.Pct, &cfg.Future.Account)
	if errors.Is(err, sql.ErrNoRows) {
		return core.StrategyConfig{}, false, nil
	}
	if err != nil {
		return core.StrategyConfig{}, false, fmt.Errorf("load strategy: %w", err)
	}
	return cfg, true, nil
}

func (r *SQLiteRepository) SaveStrategy(ctx context.Context, cfg core.StrategyConfig) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO strategy_configs (user_id, needs_pct, needs_account, wants_pct, wants_account,
		                              future_pct, future_account, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT (user_id) DO UPDATE SET
			needs_pct = excluded.needs_pct, needs_account = excluded.needs_account,
			wants_pct = excluded.wants_pct, wants_account = excluded.wants_account,
			future_pct = excluded.future_pct, future_account = excluded.future_account,
			updated_at = excluded.updated_at`,
		r.userID,
		cfg.Needs.Pct, cfg.Needs.Account,
		cfg.Wants.Pct, cfg.Wants.Account,
		cfg.Future.Pct, cfg.Future.Account)
	if err != nil {
		return fmt.Errorf("save strategy: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) withTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func affected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ports.ErrNotFound
	}
	return nil
}

func toMillis(t time.Time) int64 { return t.UnixMilli() }

func fromMillis(ms int64) time.Time { return time.UnixMilli(ms).UTC() }

func nullRate(rate *float64) sql.NullFloat64 {
	if !core.ValidRate(rate) {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *rate, Valid: true}
}

func rateOf(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	return core.Rate(v.Float64)
}
