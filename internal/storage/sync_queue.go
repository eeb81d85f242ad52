package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"zent/internal/core"
	"zent/internal/ports"
)

func (r *SQLiteRepository) enqueue(ctx context.Context, tx *sql.Tx, kind core.EventKind, eventID string, op ports.SyncOp) error {
	now := toMillis(r.now())
	_, err := tx.ExecContext(ctx, `
		INSERT INTO sync_queue (user_id, kind, event_id, operation, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, 'pending', ?, ?)`,
		r.userID, string(kind), eventID, string(op), now, now)
	if err != nil {
		return fmt.Errorf("enqueue sync: %w", err)
	}
	return nil
}

// DequeueSync claims pending items inside one transaction so that two
// processors never receive the same item.
func (r *SQLiteRepository) DequeueSync(ctx context.Context, limit int) ([]ports.SyncItem, error) {
	var items []ports.SyncItem
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, `
			SELECT id, kind, event_id, operation, attempts, last_error, created_at
			FROM sync_queue
			WHERE user_id = ? AND status = 'pending'
			ORDER BY id
			LIMIT ?`, r.userID, limit)
		if err != nil {
			return fmt.Errorf("select pending sync: %w", err)
		}
		for rows.Next() {
			var it ports.SyncItem
			var kind, op string
			var created int64
			if err := rows.Scan(&it.ID, &kind, &it.EventID, &op, &it.Attempts, &it.LastError, &created); err != nil {
				rows.Close()
				return fmt.Errorf("scan sync item: %w", err)
			}
			it.Kind = core.EventKind(kind)
			it.Op = ports.SyncOp(op)
			it.Status = ports.SyncProcessing
			it.CreatedAt = fromMillis(created)
			items = append(items, it)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return err
		}

		now := toMillis(r.now())
		for _, it := range items {
			_, err := tx.ExecContext(ctx,
				`UPDATE sync_queue SET status = 'processing', updated_at = ? WHERE id = ?`, now, it.ID)
			if err != nil {
				return fmt.Errorf("claim sync item %d: %w", it.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *SQLiteRepository) CompleteSync(ctx context.Context, id int64) error {
	return r.setSync(ctx, id, `status = 'completed'`)
}

func (r *SQLiteRepository) RetrySync(ctx context.Context, id int64, cause string) error {
	return r.setSync(ctx, id, `status = 'pending', attempts = attempts + 1, last_error = ?`, cause)
}

func (r *SQLiteRepository) FailSync(ctx context.Context, id int64, cause string) error {
	if err := r.setSync(ctx, id, `status = 'failed', attempts = attempts + 1, last_error = ?`, cause); err != nil {
		return err
	}
	slog.WarnContext(ctx, "Sync item marked as failed", "id", id, "error", cause)
	return nil
}

func (r *SQLiteRepository) setSync(ctx context.Context, id int64, set string, args ...any) error {
	args = append(args, toMillis(r.now()), r.userID, id)
	res, err := r.db.ExecContext(ctx,
		`UPDATE sync_queue SET `+set+`, updated_at = ? WHERE user_id = ? AND id = ?`, args...)
	if err != nil {
		return fmt.Errorf("update sync item %d: %w", id, err)
	}
	return affected(res)
}

func (r *SQLiteRepository) ResetStaleSync(ctx context.Context) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE sync_queue SET status = 'pending', updated_at = ? WHERE user_id = ? AND status = 'processing'`,
		toMillis(r.now()), r.userID)
	if err != nil {
		return fmt.Errorf("reset stale sync: %w", err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		slog.InfoContext(ctx, "Reset stale sync items", "count", n)
	}
	return nil
}

func (r *SQLiteRepository) CleanupSync(ctx context.Context, before time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM sync_queue WHERE user_id = ? AND status = 'completed' AND created_at < ?`,
		r.userID, toMillis(before))
	if err != nil {
		return fmt.Errorf("cleanup sync queue: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) RetryFailedSync(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE sync_queue SET status = 'pending', attempts = 0, updated_at = ? WHERE user_id = ? AND status = 'failed'`,
		toMillis(r.now()), r.userID)
	if err != nil {
		return fmt.Errorf("retry failed sync: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) SyncStats(ctx context.Context) (ports.SyncStats, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT status, COUNT(*) FROM sync_queue WHERE user_id = ? GROUP BY status`, r.userID)
	if err != nil {
		return ports.SyncStats{}, fmt.Errorf("sync stats: %w", err)
	}
	defer rows.Close()

	var st ports.SyncStats
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return ports.SyncStats{}, fmt.Errorf("scan sync stats: %w", err)
		}
		switch ports.SyncStatus(status) {
		case ports.SyncPending:
			st.Pending = n
		case ports.SyncProcessing:
			st.Processing = n
		case ports.SyncCompleted:
			st.Completed = n
		case ports.SyncFailed:
			st.Failed = n
		}
	}
	return st, rows.Err()
}
