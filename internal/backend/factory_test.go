package backend

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zent/internal/config"
	"zent/internal/core"
	"zent/internal/storage"
)

func TestFromAppConfig(t *testing.T) {
	app := &config.Config{
		DataBackend:         "sqlite",
		SQLiteDBPath:        "/tmp/zent.db",
		UserID:              "ana",
		GoogleSpreadsheetID: "sheet-1",
		GoogleSheetName:     "Movimientos",
	}

	cfg, err := FromAppConfig(app)
	require.NoError(t, err)
	assert.Equal(t, SQLiteBackend, cfg.Type)
	assert.Equal(t, "ana", cfg.UserID)
	assert.True(t, cfg.Outbox)

	_, err = FromAppConfig(nil)
	assert.Error(t, err)

	app.DataBackend = "sheets"
	_, err = FromAppConfig(app)
	assert.Error(t, err)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{"memory", Config{Type: MemoryBackend}, false},
		{"sqlite", Config{Type: SQLiteBackend, SQLiteDBPath: "x.db", UserID: "u"}, false},
		{"sqlite without path", Config{Type: SQLiteBackend, UserID: "u"}, true},
		{"sqlite without user", Config{Type: SQLiteBackend, SQLiteDBPath: "x.db"}, true},
		{"unknown type", Config{Type: "postgres"}, true},
		{"spreadsheet without sheet name", Config{Type: MemoryBackend, GoogleSpreadsheetID: "s"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestGetBackendTypeStrings(t *testing.T) {
	assert.Equal(t, []string{"sqlite", "memory"}, GetBackendTypeStrings())
}

func TestCreateMemoryBackend(t *testing.T) {
	ctx := context.Background()
	res, err := NewFactory(nil).CreateBackend(ctx, Config{Type: MemoryBackend, Outbox: true})
	require.NoError(t, err)
	defer res.Cleanup()

	_, err = res.Store.AddIncome(ctx, core.IncomeEvent{
		Timestamp: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), Amount: 5, Currency: core.MXN, ConvertedAmount: 5, Account: "bbva",
	})
	require.NoError(t, err)
	stats, err := res.Store.SyncStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Pending)
}

func TestCreateSQLiteBackend(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "zent.db")

	res, err := NewFactory(nil).CreateBackend(ctx, Config{Type: SQLiteBackend, SQLiteDBPath: path, UserID: "ana"})
	require.NoError(t, err)
	require.NoError(t, res.Cleanup())

	version, err := storage.SchemaVersion(path)
	require.NoError(t, err)
	assert.Positive(t, version)
}

func TestCreateMemoryMirror(t *testing.T) {
	res, err := NewFactory(nil).CreateMirror(context.Background(), Config{Type: MemoryBackend})
	require.NoError(t, err)
	assert.True(t, res.InMemory)
	assert.NotNil(t, res.Mirror)
}
