package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"zent/internal/core"
	"zent/internal/ports"
)

const (
	incomeColumns = `id, occurred_at, amount, currency, converted_amount, original_text,
		account, is_salary, rate_used`
	expenseColumns = `id, occurred_at, amount, currency, converted_amount, category,
		category_group, expense_type, account`
	transferColumns = `id, occurred_at, from_account, to_account, amount_sent, currency_sent,
		amount_received, currency_received, spread, rate, is_withdrawal`
)

type scanner interface {
	Scan(dest ...any) error
}

// Snapshot reads the three streams in insertion order.
func (r *SQLiteRepository) Snapshot(ctx context.Context) (core.Dataset, error) {
	var ds core.Dataset
	var err error
	if ds.Incomes, err = queryAll(ctx, r, `SELECT `+incomeColumns+` FROM incomes WHERE user_id = ? ORDER BY rowid`, scanIncome); err != nil {
		return core.Dataset{}, fmt.Errorf("read incomes: %w", err)
	}
	if ds.Expenses, err = queryAll(ctx, r, `SELECT `+expenseColumns+` FROM expenses WHERE user_id = ? ORDER BY rowid`, scanExpense); err != nil {
		return core.Dataset{}, fmt.Errorf("read expenses: %w", err)
	}
	if ds.Transfers, err = queryAll(ctx, r, `SELECT `+transferColumns+` FROM transfers WHERE user_id = ? ORDER BY rowid`, scanTransfer); err != nil {
		return core.Dataset{}, fmt.Errorf("read transfers: %w", err)
	}
	return ds, nil
}

func (r *SQLiteRepository) Income(ctx context.Context, id string) (core.IncomeEvent, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+incomeColumns+` FROM incomes WHERE user_id = ? AND id = ?`, r.userID, id)
	return one(scanIncome(row))
}

func (r *SQLiteRepository) Expense(ctx context.Context, id string) (core.ExpenseEvent, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+expenseColumns+` FROM expenses WHERE user_id = ? AND id = ?`, r.userID, id)
	return one(scanExpense(row))
}

func (r *SQLiteRepository) Transfer(ctx context.Context, id string) (core.TransferEvent, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+transferColumns+` FROM transfers WHERE user_id = ? AND id = ?`, r.userID, id)
	return one(scanTransfer(row))
}

func one[T any](v T, err error) (T, error) {
	if errors.Is(err, sql.ErrNoRows) {
		var zero T
		return zero, ports.ErrNotFound
	}
	return v, err
}

func queryAll[T any](ctx context.Context, r *SQLiteRepository, query string, scan func(scanner) (T, error)) ([]T, error) {
	rows, err := r.db.QueryContext(ctx, query, r.userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []T
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func scanIncome(s scanner) (core.IncomeEvent, error) {
	var e core.IncomeEvent
	var ms int64
	var cur string
	var rate sql.NullFloat64
	err := s.Scan(&e.ID, &ms, &e.Amount, &cur, &e.ConvertedAmount, &e.OriginalText,
		&e.Account, &e.IsSalary, &rate)
	if err != nil {
		return core.IncomeEvent{}, err
	}
	e.Timestamp = fromMillis(ms)
	e.Currency = core.Currency(cur)
	e.RateUsed = rateOf(rate)
	return e, nil
}

func scanExpense(s scanner) (core.ExpenseEvent, error) {
	var e core.ExpenseEvent
	var ms int64
	var cur, typ string
	err := s.Scan(&e.ID, &ms, &e.Amount, &cur, &e.ConvertedAmount, &e.Category,
		&e.Group, &typ, &e.Account)
	if err != nil {
		return core.ExpenseEvent{}, err
	}
	e.Timestamp = fromMillis(ms)
	e.Currency = core.Currency(cur)
	e.Type = core.ExpenseType(typ)
	return e, nil
}

func scanTransfer(s scanner) (core.TransferEvent, error) {
	var e core.TransferEvent
	var ms int64
	var sent, received string
	var rate sql.NullFloat64
	err := s.Scan(&e.ID, &ms, &e.From, &e.To, &e.AmountSent, &sent,
		&e.AmountReceived, &received, &e.Spread, &rate, &e.IsWithdrawal)
	if err != nil {
		return core.TransferEvent{}, err
	}
	e.Timestamp = fromMillis(ms)
	e.CurrencySent = core.Currency(sent)
	e.CurrencyReceived = core.Currency(received)
	e.Rate = rateOf(rate)
	return e, nil
}
