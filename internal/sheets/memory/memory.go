// Package memory mirrors movements into an in-process table, standing in
// for the spreadsheet in tests and in processes without Google credentials.
package memory

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"zent/internal/ledger"
	"zent/internal/sheets"
)

var _ sheets.Mirror = (*Mirror)(nil)

type Mirror struct {
	mu   sync.Mutex
	rows []sheets.Row
}

func New() *Mirror {
	return &Mirror{}
}

// UpsertMovements replaces the rows of sourceID and returns a synthetic
// range reference.
func (m *Mirror) UpsertMovements(_ context.Context, sourceID string, movements []ledger.Movement) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows = slices.DeleteFunc(m.rows, func(r sheets.Row) bool { return r.SourceID == sourceID })
	first := len(m.rows) + 1
	for _, mv := range movements {
		m.rows = append(m.rows, sheets.RowFor(mv))
	}
	return fmt.Sprintf("mem:%d-%d", first, len(m.rows)), nil
}

func (m *Mirror) DeleteMovements(_ context.Context, sourceID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := len(m.rows)
	m.rows = slices.DeleteFunc(m.rows, func(r sheets.Row) bool { return r.SourceID == sourceID })
	return n - len(m.rows), nil
}

func (m *Mirror) ListRows(_ context.Context) ([]sheets.Row, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.rows), nil
}
