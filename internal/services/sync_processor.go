package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"zent/internal/ports"
)

// SyncProcessorConfig holds configuration for the sync processor
type SyncProcessorConfig struct {
	// PollInterval is how often to check for pending items (default: 10s)
	PollInterval time.Duration

	// BatchSize is the max number of items to process per poll cycle (default: 10)
	BatchSize int

	// MaxRetries is the number of attempts before an item is marked failed (default: 3)
	MaxRetries int

	// CleanupInterval is how often to clean up completed items (default: 1h)
	CleanupInterval time.Duration

	// CleanupAge is how old completed items must be before cleanup (default: 24h)
	CleanupAge time.Duration
}

func DefaultSyncProcessorConfig() SyncProcessorConfig {
	return SyncProcessorConfig{
		PollInterval:    10 * time.Second,
		BatchSize:       10,
		MaxRetries:      3,
		CleanupInterval: 1 * time.Hour,
		CleanupAge:      24 * time.Hour,
	}
}

// SyncProcessor drains the outbox filled by every event write, applying each
// item to the mirror. It is the fallback path when change messages are lost
// or AMQP is not configured.
type SyncProcessor struct {
	queue   ports.SyncQueue
	applier ChangeApplier
	config  SyncProcessorConfig
	now     func() time.Time

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

func NewSyncProcessor(queue ports.SyncQueue, applier ChangeApplier, config SyncProcessorConfig) *SyncProcessor {
	def := DefaultSyncProcessorConfig()
	if config.PollInterval <= 0 {
		config.PollInterval = def.PollInterval
	}
	if config.BatchSize <= 0 {
		config.BatchSize = def.BatchSize
	}
	if config.MaxRetries <= 0 {
		config.MaxRetries = def.MaxRetries
	}
	if config.CleanupInterval <= 0 {
		config.CleanupInterval = def.CleanupInterval
	}
	if config.CleanupAge <= 0 {
		config.CleanupAge = def.CleanupAge
	}
	return &SyncProcessor{
		queue:   queue,
		applier: applier,
		config:  config,
		now:     time.Now,
	}
}

// Start begins the processing loop. Returns an error if already running.
func (p *SyncProcessor) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return fmt.Errorf("sync processor is already running")
	}
	p.running = true
	p.stopCh = make(chan struct{})
	p.doneCh = make(chan struct{})
	p.mu.Unlock()

	// Items left in processing by a previous crash
	if err := p.queue.ResetStaleSync(ctx); err != nil {
		slog.WarnContext(ctx, "Failed to reset stale processing items", "component", "worker", "error", err)
	}

	go p.runLoop(ctx)

	slog.InfoContext(ctx, "Sync processor started",
		"component", "worker",
		"poll_interval", p.config.PollInterval,
		"batch_size", p.config.BatchSize,
		"max_retries", p.config.MaxRetries)
	return nil
}

// Stop gracefully stops the processor and waits for completion.
func (p *SyncProcessor) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return nil
	}
	stopCh, doneCh := p.stopCh, p.doneCh
	p.mu.Unlock()

	close(stopCh)

	select {
	case <-doneCh:
		slog.InfoContext(ctx, "Sync processor stopped gracefully", "component", "worker")
	case <-ctx.Done():
		slog.WarnContext(ctx, "Sync processor stop timed out", "component", "worker")
		return ctx.Err()
	}

	p.mu.Lock()
	p.running = false
	p.mu.Unlock()
	return nil
}

func (p *SyncProcessor) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

func (p *SyncProcessor) runLoop(ctx context.Context) {
	defer close(p.doneCh)

	pollTicker := time.NewTicker(p.config.PollInterval)
	defer pollTicker.Stop()

	cleanupTicker := time.NewTicker(p.config.CleanupInterval)
	defer cleanupTicker.Stop()

	p.processBatch(ctx)

	for {
		select {
		case <-p.stopCh:
			return
		case <-ctx.Done():
			return
		case <-pollTicker.C:
			p.processBatch(ctx)
		case <-cleanupTicker.C:
			p.cleanupCompleted(ctx)
		}
	}
}

// ProcessOnce drains one batch and reports how many items were applied.
func (p *SyncProcessor) ProcessOnce(ctx context.Context) (int, error) {
	items, err := p.queue.DequeueSync(ctx, p.config.BatchSize)
	if err != nil {
		return 0, fmt.Errorf("dequeue sync batch: %w", err)
	}
	applied := 0
	for _, item := range items {
		if ctx.Err() != nil {
			// Claimed but untouched items go back to pending on the next start.
			return applied, ctx.Err()
		}
		if err := p.applier.Apply(ctx, item.Kind, item.EventID, item.Op); err != nil {
			p.handleFailure(ctx, item, err)
			continue
		}
		if err := p.queue.CompleteSync(ctx, item.ID); err != nil {
			slog.ErrorContext(ctx, "Failed to mark sync complete", "component", "worker", "id", item.ID, "error", err)
			continue
		}
		applied++
	}
	return applied, nil
}

func (p *SyncProcessor) processBatch(ctx context.Context) {
	select {
	case <-p.stopCh:
		return
	default:
	}
	n, err := p.ProcessOnce(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "Sync batch failed", "component", "worker", "error", err)
	}
	if n > 0 {
		slog.DebugContext(ctx, "Sync batch applied", "component", "worker", "count", n)
	}
}

// handleFailure returns the item to the queue until it has used up its
// attempts, then marks it failed.
func (p *SyncProcessor) handleFailure(ctx context.Context, item ports.SyncItem, cause error) {
	attempt := item.Attempts + 1
	slog.WarnContext(ctx, "Sync processing failed",
		"component", "worker",
		"id", item.ID,
		"event_kind", item.Kind,
		"event_id", item.EventID,
		"operation", item.Op,
		"attempt", attempt,
		"error", cause)

	if attempt >= p.config.MaxRetries {
		if err := p.queue.FailSync(ctx, item.ID, cause.Error()); err != nil {
			slog.ErrorContext(ctx, "Failed to mark sync as failed", "component", "worker", "id", item.ID, "error", err)
		}
		slog.ErrorContext(ctx, "Sync item failed permanently after max retries",
			"component", "worker",
			"id", item.ID,
			"event_id", item.EventID,
			"attempts", attempt)
		return
	}
	if err := p.queue.RetrySync(ctx, item.ID, cause.Error()); err != nil {
		slog.ErrorContext(ctx, "Failed to requeue sync item", "component", "worker", "id", item.ID, "error", err)
	}
}

func (p *SyncProcessor) cleanupCompleted(ctx context.Context) {
	cutoff := p.now().Add(-p.config.CleanupAge)
	if err := p.queue.CleanupSync(ctx, cutoff); err != nil {
		slog.ErrorContext(ctx, "Failed to cleanup completed syncs", "component", "worker", "error", err)
	}
}

func (p *SyncProcessor) Stats(ctx context.Context) (ports.SyncStats, error) {
	return p.queue.SyncStats(ctx)
}

// RetryFailed returns every failed item to the queue.
func (p *SyncProcessor) RetryFailed(ctx context.Context) error {
	return p.queue.RetryFailedSync(ctx)
}
