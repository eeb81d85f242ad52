package backend

import (
	"context"

	"zent/internal/ports"
	"zent/internal/sheets"
)

// CleanupFunc releases the resources held by a backend.
type CleanupFunc func() error

// BackendResult contains the store and its optional cleanup function.
type BackendResult struct {
	Store   ports.Store
	Cleanup CleanupFunc
}

// MirrorResult contains the spreadsheet mirror and whether it is the
// in-process stand-in.
type MirrorResult struct {
	Mirror   sheets.Mirror
	InMemory bool
}

// Factory creates backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
	CreateMirror(ctx context.Context, config Config) (*MirrorResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type   BackendType
	UserID string

	// SQLite specific
	SQLiteDBPath string

	// Memory specific: enqueue sync items even without a database
	Outbox bool

	// Google Sheets mirror, empty spreadsheet id selects the memory mirror
	GoogleSpreadsheetID string
	GoogleSheetName     string
}

// BackendType represents the type of backend
type BackendType string

const (
	SQLiteBackend BackendType = "sqlite"
	MemoryBackend BackendType = "memory"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
