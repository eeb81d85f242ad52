package memory

import (
	"context"
	"slices"
	"time"

	"zent/internal/core"
	"zent/internal/ports"
)

// enqueue must be called with s.mu held.
func (s *Store) enqueue(kind core.EventKind, eventID string, op ports.SyncOp) {
	if !s.outbox {
		return
	}
	s.queueID++
	s.queue = append(s.queue, ports.SyncItem{
		ID:        s.queueID,
		Kind:      kind,
		EventID:   eventID,
		Op:        op,
		Status:    ports.SyncPending,
		CreatedAt: s.now(),
	})
}

func (s *Store) DequeueSync(_ context.Context, limit int) ([]ports.SyncItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []ports.SyncItem
	for i := range s.queue {
		if len(out) >= limit {
			break
		}
		if s.queue[i].Status != ports.SyncPending {
			continue
		}
		s.queue[i].Status = ports.SyncProcessing
		out = append(out, s.queue[i])
	}
	return out, nil
}

func (s *Store) CompleteSync(_ context.Context, id int64) error {
	return s.update(id, func(it *ports.SyncItem) { it.Status = ports.SyncCompleted })
}

func (s *Store) RetrySync(_ context.Context, id int64, cause string) error {
	return s.update(id, func(it *ports.SyncItem) {
		it.Status = ports.SyncPending
		it.Attempts++
		it.LastError = cause
	})
}

func (s *Store) FailSync(_ context.Context, id int64, cause string) error {
	return s.update(id, func(it *ports.SyncItem) {
		it.Status = ports.SyncFailed
		it.Attempts++
		it.LastError = cause
	})
}

func (s *Store) update(id int64, fn func(*ports.SyncItem)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.queue {
		if s.queue[i].ID == id {
			fn(&s.queue[i])
			return nil
		}
	}
	return ports.ErrNotFound
}

func (s *Store) ResetStaleSync(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.queue {
		if s.queue[i].Status == ports.SyncProcessing {
			s.queue[i].Status = ports.SyncPending
		}
	}
	return nil
}

func (s *Store) CleanupSync(_ context.Context, before time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queue = slices.DeleteFunc(s.queue, func(it ports.SyncItem) bool {
		return it.Status == ports.SyncCompleted && it.CreatedAt.Before(before)
	})
	return nil
}

func (s *Store) RetryFailedSync(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.queue {
		if s.queue[i].Status == ports.SyncFailed {
			s.queue[i].Status = ports.SyncPending
			s.queue[i].Attempts = 0
		}
	}
	return nil
}

func (s *Store) SyncStats(_ context.Context) (ports.SyncStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var st ports.SyncStats
	for _, it := range s.queue {
		switch it.Status {
		case ports.SyncPending:
			st.Pending++
		case ports.SyncProcessing:
			st.Processing++
		case ports.SyncCompleted:
			st.Completed++
		case ports.SyncFailed:
			st.Failed++
		}
	}
	return st, nil
}
