// Package strategy computes the needs/wants/future breakdown of salary income.
package strategy

import (
	"math"
	"time"

	"zent/internal/core"
	"zent/internal/currency"
	"zent/internal/directory"
)

// periodDays is the assumed pay cycle when no salary falls in the range.
const periodDays = 14

type (
	// BucketResult is the outcome of one bucket.
	BucketResult struct {
		Bucket    core.Bucket
		Pct       float64
		Account   string // configured reference
		Resolved  string // canonical slug, "" when the account no longer exists
		Ideal     float64
		Actual    float64
		Remaining float64
		PerPeriod float64
	}

	// PeriodsInfo describes how the ideal amounts are split per pay period.
	PeriodsInfo struct {
		Periods       int
		SalaryCount   int
		FromSalary    bool // false when derived from elapsed days
		RangeDays     int
		RangeIsActive bool
	}

	// Result is the full strategy breakdown.
	Result struct {
		TotalSalary     float64
		RemainingSalary float64
		Needs           BucketResult
		Wants           BucketResult
		Future          BucketResult
		Periods         PeriodsInfo
		PctTotal        float64
		Balanced        bool
	}
)

// Bucket returns the result of b.
func (r Result) Bucket(b core.Bucket) BucketResult {
	switch b {
	case core.BucketNeeds:
		return r.Needs
	case core.BucketWants:
		return r.Wants
	default:
		return r.Future
	}
}

// Compute derives the strategy breakdown. Needs and wants are tracked by
// expense type and paying account; future is the residual of the salary left
// after needs and wants. Percentages that do not sum to 100 are reported in
// Balanced but never stop the computation.
func Compute(
	incomes []core.IncomeEvent,
	expenses []core.ExpenseEvent,
	cfg core.StrategyConfig,
	dir *directory.Directory,
	liveRate float64,
	rng *core.DateRange,
) Result {
	res := Result{PctTotal: cfg.PctTotal(), Balanced: cfg.Balanced()}

	var first, last time.Time
	track := func(ts time.Time) {
		if first.IsZero() || ts.Before(first) {
			first = ts
		}
		if last.IsZero() || ts.After(last) {
			last = ts
		}
	}

	salaries := 0
	for _, in := range incomes {
		if !rng.Contains(in.Timestamp) {
			continue
		}
		track(in.Timestamp)
		if !in.IsSalary {
			continue
		}
		salaries++
		res.TotalSalary += currency.IncomeBase(in, liveRate)
	}

	needsAcc := dir.Canonical(cfg.Needs.Account)
	wantsAcc := dir.Canonical(cfg.Wants.Account)
	var needsActual, wantsActual float64
	for _, ex := range expenses {
		if !rng.Contains(ex.Timestamp) {
			continue
		}
		track(ex.Timestamp)
		acc := dir.Canonical(ex.Account)
		if acc == "" {
			continue
		}
		switch {
		case ex.Type == core.TypeNeed && acc == needsAcc:
			needsActual += currency.ExpenseBase(ex, liveRate)
		case ex.Type == core.TypeWant && acc == wantsAcc:
			wantsActual += currency.ExpenseBase(ex, liveRate)
		}
	}

	res.Periods = periods(salaries, rng, first, last)

	res.Needs = bucket(core.BucketNeeds, cfg.Needs, needsAcc, res.TotalSalary, needsActual, res.Periods.Periods)
	res.Wants = bucket(core.BucketWants, cfg.Wants, wantsAcc, res.TotalSalary, wantsActual, res.Periods.Periods)

	futureIdeal := res.TotalSalary * cfg.Future.Pct / 100
	res.RemainingSalary = math.Max(0, res.TotalSalary-(needsActual+wantsActual))
	futureSpent := math.Max(0, futureIdeal-res.RemainingSalary)
	res.Future = BucketResult{
		Bucket:    core.BucketFuture,
		Pct:       cfg.Future.Pct,
		Account:   cfg.Future.Account,
		Resolved:  dir.Canonical(cfg.Future.Account),
		Ideal:     futureIdeal,
		Actual:    futureSpent,
		Remaining: math.Max(0, futureIdeal-futureSpent),
		PerPeriod: futureIdeal / float64(res.Periods.Periods),
	}
	return res
}

func bucket(b core.Bucket, cfg core.BucketConfig, resolved string, salary, actual float64, periods int) BucketResult {
	ideal := salary * cfg.Pct / 100
	return BucketResult{
		Bucket:    b,
		Pct:       cfg.Pct,
		Account:   cfg.Account,
		Resolved:  resolved,
		Ideal:     ideal,
		Actual:    actual,
		Remaining: math.Max(0, ideal-actual),
		PerPeriod: ideal / float64(periods),
	}
}

// periods counts salary events, or with no salary and an active range, the
// number of 14-day cycles the range spans. Open range ends are closed with the
// earliest or latest event seen. The result is at least 1.
func periods(salaries int, rng *core.DateRange, first, last time.Time) PeriodsInfo {
	info := PeriodsInfo{Periods: 1, SalaryCount: salaries, RangeIsActive: rng.Active()}
	if salaries > 0 {
		info.Periods = salaries
		info.FromSalary = true
		return info
	}
	if !info.RangeIsActive {
		return info
	}

	from, to := rng.From, rng.To
	if from.IsZero() {
		from = first
	}
	if to.IsZero() {
		to = last
	}
	if from.IsZero() || to.IsZero() || to.Before(from) {
		return info
	}
	info.RangeDays = int(to.Sub(from).Hours()/24) + 1
	info.Periods = max(1, int(math.Ceil(float64(info.RangeDays)/periodDays)))
	return info
}
