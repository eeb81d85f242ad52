package strategy

import (
	"math"

	"zent/internal/core"
)

// DefaultConfig is the 50/30/20 split funded from the built-in accounts.
func DefaultConfig() core.StrategyConfig {
	return core.StrategyConfig{
		Needs:  core.BucketConfig{Pct: 50, Account: "mercadoPago"},
		Wants:  core.BucketConfig{Pct: 30, Account: "dolarApp"},
		Future: core.BucketConfig{Pct: 20, Account: "bbva"},
	}
}

// Recommended resets the percentages to 50/30/20, keeping the accounts.
func Recommended(cfg core.StrategyConfig) core.StrategyConfig {
	d := DefaultConfig()
	cfg.Needs.Pct = d.Needs.Pct
	cfg.Wants.Pct = d.Wants.Pct
	cfg.Future.Pct = d.Future.Pct
	return cfg
}

// SetPct sets the percentage of b, clamped to [0, 100].
func SetPct(cfg core.StrategyConfig, b core.Bucket, pct float64) core.StrategyConfig {
	if math.IsNaN(pct) {
		pct = 0
	}
	pct = math.Min(100, math.Max(0, pct))
	switch b {
	case core.BucketNeeds:
		cfg.Needs.Pct = pct
	case core.BucketWants:
		cfg.Wants.Pct = pct
	case core.BucketFuture:
		cfg.Future.Pct = pct
	}
	return cfg
}

// SetAccount points bucket b at account ref.
func SetAccount(cfg core.StrategyConfig, b core.Bucket, ref string) core.StrategyConfig {
	switch b {
	case core.BucketNeeds:
		cfg.Needs.Account = ref
	case core.BucketWants:
		cfg.Wants.Account = ref
	case core.BucketFuture:
		cfg.Future.Account = ref
	}
	return cfg
}

// Accounts lists the configured account references in bucket order.
func Accounts(cfg core.StrategyConfig) []string {
	return []string{cfg.Needs.Account, cfg.Wants.Account, cfg.Future.Account}
}
