package core

import "time"

const (
	BucketNeeds  Bucket = "needs"
	BucketWants  Bucket = "wants"
	BucketFuture Bucket = "future"
)

type (
	// Bucket is one of the three budget categories of the strategy.
	Bucket string

	// BucketConfig assigns a percentage of salary and a funding account to a bucket.
	BucketConfig struct {
		Pct     float64
		Account string
	}

	// StrategyConfig is the user-editable needs/wants/future split.
	StrategyConfig struct {
		Needs  BucketConfig
		Wants  BucketConfig
		Future BucketConfig
	}

	// DateRange bounds a computation; both ends are inclusive. A zero end is open.
	DateRange struct {
		From time.Time
		To   time.Time
	}

	// Dataset is an in-memory snapshot of the three event streams.
	Dataset struct {
		Incomes   []IncomeEvent
		Expenses  []ExpenseEvent
		Transfers []TransferEvent
	}
)

// Buckets lists the buckets in display order.
var Buckets = []Bucket{BucketNeeds, BucketWants, BucketFuture}

// Bucket returns the configuration of b.
func (c StrategyConfig) Bucket(b Bucket) BucketConfig {
	switch b {
	case BucketNeeds:
		return c.Needs
	case BucketWants:
		return c.Wants
	default:
		return c.Future
	}
}

// PctTotal is the sum of the three percentages.
func (c StrategyConfig) PctTotal() float64 {
	return c.Needs.Pct + c.Wants.Pct + c.Future.Pct
}

// Balanced reports whether the percentages sum to exactly 100.
func (c StrategyConfig) Balanced() bool {
	return c.PctTotal() == 100
}

// Active reports whether the range constrains anything.
func (r *DateRange) Active() bool {
	return r != nil && (!r.From.IsZero() || !r.To.IsZero())
}

// Contains reports whether t falls within the range. A nil range contains everything.
func (r *DateRange) Contains(t time.Time) bool {
	if r == nil {
		return true
	}
	if !r.From.IsZero() && t.Before(r.From) {
		return false
	}
	if !r.To.IsZero() && t.After(r.To) {
		return false
	}
	return true
}

// Len returns the number of events across all streams.
func (d Dataset) Len() int {
	return len(d.Incomes) + len(d.Expenses) + len(d.Transfers)
}
