package services

import (
	"context"

	"zent/internal/amqp"
	"zent/internal/core"
	"zent/internal/currency"
	"zent/internal/ports"
)

// The service layer depends on these interfaces, not on the concrete rate
// provider, AMQP client or mirror.
//
//go:generate mockgen -destination=mocks/mock_services.go -source=interface.go -package=mock_services
type (
	// RateProvider answers the USD/MXN rate. Strict fails when no fresh rate
	// is available; Live degrades to the fallback rate.
	RateProvider interface {
		Strict(ctx context.Context) (float64, error)
		Live(ctx context.Context) float64
	}

	// ChangePublisher announces stored changes to other processes.
	ChangePublisher interface {
		PublishChange(ctx context.Context, msg *amqp.LedgerChangeMessage) error
	}

	// ChangeApplier brings the mirror in line with one stored event.
	ChangeApplier interface {
		Apply(ctx context.Context, kind core.EventKind, eventID string, op ports.SyncOp) error
	}
)

var (
	_ RateProvider    = (*currency.Provider)(nil)
	_ ChangePublisher = (*amqp.Client)(nil)
	_ ChangeApplier   = (*Mirrorer)(nil)
)
