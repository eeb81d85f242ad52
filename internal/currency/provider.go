package currency

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"zent/internal/cache"
)

const (
	rateKey = "USD/MXN"

	// failureTTL bounds how long Live serves the fallback after a failed fetch.
	failureTTL = 30 * time.Second
)

// Provider caches the rate of a RateSource for a TTL and collapses concurrent
// fetches into a single request.
type Provider struct {
	source RateSource
	cache  *cache.LRUCache[float64]
	group  singleflight.Group

	mu       sync.Mutex
	failTTL  time.Duration
	failedAt time.Time
	now      func() time.Time
}

// NewProvider wraps source. A non-positive ttl disables caching.
func NewProvider(source RateSource, ttl time.Duration) *Provider {
	p := &Provider{source: source, now: time.Now}
	if ttl > 0 {
		p.cache = cache.NewLRUCache[float64](4, ttl)
		p.failTTL = min(ttl, failureTTL)
	}
	return p
}

// Cache exposes the underlying cache for registration with a cleanup manager.
func (p *Provider) Cache() *cache.LRUCache[float64] {
	return p.cache
}

// Strict returns the live rate or the fetch error. Writes that need a fresh
// rate use it so that a failed lookup never stores a guessed conversion.
func (p *Provider) Strict(ctx context.Context) (float64, error) {
	if p.cache != nil {
		if rate, ok := p.cache.Get(rateKey); ok {
			return rate, nil
		}
	}

	ch := p.group.DoChan(rateKey, func() (any, error) {
		rate, err := p.source.Fetch(context.WithoutCancel(ctx))
		if err != nil {
			return 0.0, err
		}
		if p.cache != nil {
			p.cache.Set(rateKey, rate)
		}
		return rate, nil
	})

	select {
	case <-ctx.Done():
		return 0, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return 0, res.Err
		}
		return res.Val.(float64), nil
	}
}

// Live returns the live rate, degrading to FallbackRate when it cannot be
// fetched. It never fails. After a failed fetch the fallback is served
// without refetching for a short while.
func (p *Provider) Live(ctx context.Context) float64 {
	if p.recentlyFailed() {
		return FallbackRate
	}
	rate, err := p.Strict(ctx)
	if err != nil {
		if ctx.Err() == nil {
			p.markFailed()
		}
		slog.WarnContext(ctx, "Using fallback exchange rate", "component", "currency", "fallback", FallbackRate, "error", err)
		return FallbackRate
	}
	return rate
}

func (p *Provider) recentlyFailed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return !p.failedAt.IsZero() && p.now().Sub(p.failedAt) < p.failTTL
}

func (p *Provider) markFailed() {
	if p.failTTL <= 0 {
		return
	}
	p.mu.Lock()
	p.failedAt = p.now()
	p.mu.Unlock()
}

// Invalidate drops the cached rate and any remembered failure.
func (p *Provider) Invalidate() {
	p.mu.Lock()
	p.failedAt = time.Time{}
	p.mu.Unlock()
	if p.cache != nil {
		p.cache.Delete(rateKey)
	}
}
