package backend

import (
	"context"
	"fmt"
	"log/slog"

	"zent/internal/ports/memory"
	gsheet "zent/internal/sheets/google"
	sheetsmem "zent/internal/sheets/memory"
	"zent/internal/storage"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{
		logger: logger,
	}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(_ context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case SQLiteBackend:
		return f.createSQLiteBackend(config)
	case MemoryBackend:
		return f.createMemoryBackend(config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) createSQLiteBackend(config Config) (*BackendResult, error) {
	repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath, config.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}

	f.logger.Info("Initialized SQLite backend",
		"component", "backend",
		"db_path", config.SQLiteDBPath,
		"user_id", repo.UserID())

	return &BackendResult{
		Store:   repo,
		Cleanup: repo.Close,
	}, nil
}

func (f *DefaultFactory) createMemoryBackend(config Config) (*BackendResult, error) {
	var opts []memory.Option
	if config.Outbox {
		opts = append(opts, memory.WithOutbox())
	}
	store := memory.New(opts...)

	f.logger.Info("Initialized memory backend", "component", "backend", "outbox", config.Outbox)

	return &BackendResult{
		Store:   store,
		Cleanup: store.Close,
	}, nil
}

// CreateMirror implements Factory.CreateMirror. Without a spreadsheet id the
// rows are kept in process.
func (f *DefaultFactory) CreateMirror(ctx context.Context, config Config) (*MirrorResult, error) {
	if config.GoogleSpreadsheetID == "" {
		f.logger.Info("No spreadsheet configured, mirroring in memory", "component", "backend")
		return &MirrorResult{Mirror: sheetsmem.New(), InMemory: true}, nil
	}

	cli, err := gsheet.New(ctx, config.GoogleSpreadsheetID, config.GoogleSheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Google Sheets client: %w", err)
	}

	f.logger.Info("Initialized Google Sheets mirror",
		"component", "backend",
		"spreadsheet_id", config.GoogleSpreadsheetID,
		"sheet", config.GoogleSheetName)

	return &MirrorResult{Mirror: cli}, nil
}
