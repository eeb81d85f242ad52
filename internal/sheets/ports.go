package sheets

import (
	"context"

	"zent/internal/ledger"
)

// Ports for the spreadsheet mirror. Rows are keyed by the id of the event
// they were derived from, so a transfer owns two rows.
type (
	MovementWriter interface {
		// UpsertMovements replaces every row of sourceID with movements.
		UpsertMovements(ctx context.Context, sourceID string, movements []ledger.Movement) (rowRef string, err error)
	}

	MovementDeleter interface {
		// DeleteMovements removes every row of sourceID and reports how many.
		DeleteMovements(ctx context.Context, sourceID string) (int, error)
	}

	MovementLister interface {
		ListRows(ctx context.Context) ([]Row, error)
	}

	Mirror interface {
		MovementWriter
		MovementDeleter
		MovementLister
	}
)
