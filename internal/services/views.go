package services

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"zent/internal/amqp"
	"zent/internal/chart"
	"zent/internal/core"
	"zent/internal/csvcodec"
	"zent/internal/currency"
	"zent/internal/directory"
	"zent/internal/ledger"
	"zent/internal/strategy"
)

type (
	// ViewOptions select what the derived views cover.
	ViewOptions struct {
		Range     *core.DateRange // strategy range, nil for all time
		ChartView chart.View
		Display   core.Currency        // chart currency
		Account   string               // restricts the timeline to one account when set
		Config    *core.StrategyConfig // replaces the stored configuration when set
	}

	// Views is every derivation computed from one snapshot and one live rate.
	Views struct {
		LiveRate  float64
		Accounts  []core.Account
		Config    core.StrategyConfig
		Balances  ledger.Balances
		Strategy  strategy.Result
		Chart     chart.Distribution
		Movements []ledger.Movement
	}

	ImportResult struct {
		Format   csvcodec.Format
		Imported int
		Skipped  int // rows the decoder could not turn into an event
		Failed   int // decoded events the store rejected
		Problems []csvcodec.RowError
	}

	// state is what every view reads.
	state struct {
		ds   core.Dataset
		dir  *directory.Directory
		cfg  core.StrategyConfig
		rate float64
	}
)

func (s *LedgerService) load(ctx context.Context) (state, error) {
	ds, err := s.Snapshot(ctx)
	if err != nil {
		return state{}, err
	}
	dir, err := s.Directory(ctx)
	if err != nil {
		return state{}, err
	}
	cfg, err := s.Strategy(ctx)
	if err != nil {
		return state{}, err
	}
	return state{ds: ds, dir: dir, cfg: cfg, rate: s.liveRate(ctx)}, nil
}

func (s *LedgerService) liveRate(ctx context.Context) float64 {
	if s.rates == nil {
		return currency.FallbackRate
	}
	return currency.EffectiveRate(s.rates.Live(ctx))
}

// Snapshot returns every stored event.
func (s *LedgerService) Snapshot(ctx context.Context) (core.Dataset, error) {
	ds, err := s.store.Snapshot(ctx)
	if err != nil {
		return core.Dataset{}, storeFailure("read ledger", err)
	}
	return ds, nil
}

// Views composes balances, strategy, chart and timeline over one snapshot.
func (s *LedgerService) Views(ctx context.Context, opts ViewOptions) (Views, error) {
	st, err := s.load(ctx)
	if err != nil {
		return Views{}, err
	}

	if opts.Config != nil {
		st.cfg = *opts.Config
	}

	movements := ledger.BuildTimeline(st.ds.Incomes, st.ds.Expenses, st.ds.Transfers, st.dir)
	if opts.Account != "" {
		slug := st.dir.Canonical(opts.Account)
		if slug == "" {
			return Views{}, unknownAccount(opts.Account)
		}
		movements = ledger.ForAccount(movements, slug)
	}

	v := Views{
		LiveRate:  st.rate,
		Accounts:  st.dir.Accounts(),
		Config:    st.cfg,
		Balances:  ledger.ComputeBalances(st.ds.Incomes, st.ds.Expenses, st.ds.Transfers, st.dir, st.rate),
		Strategy:  strategy.Compute(st.ds.Incomes, st.ds.Expenses, st.cfg, st.dir, st.rate, opts.Range),
		Chart:     chart.ComputeDistribution(st.ds.Incomes, st.ds.Expenses, st.cfg, st.dir, st.rate, opts.ChartView, opts.Display),
		Movements: movements,
	}
	if v.Balances.Unresolved > 0 {
		slog.WarnContext(ctx, "Events reference unknown accounts", "component", "ledger", "count", v.Balances.Unresolved)
	}
	return v, nil
}

// Export writes the ledger in the given CSV format.
func (s *LedgerService) Export(ctx context.Context, w io.Writer, format csvcodec.Format) error {
	ds, err := s.Snapshot(ctx)
	if err != nil {
		return err
	}
	switch format {
	case csvcodec.FormatTable:
		dir, err := s.Directory(ctx)
		if err != nil {
			return err
		}
		err = csvcodec.EncodeTable(w, ledger.BuildTimeline(ds.Incomes, ds.Expenses, ds.Transfers, dir))
		if err != nil {
			return core.Fail(core.ReasonInternal, "write table export", err)
		}
	default:
		if err := csvcodec.EncodeTechnical(w, ds); err != nil {
			return core.Fail(core.ReasonInternal, "write technical export", err)
		}
	}
	slog.InfoContext(ctx, "Ledger exported", "component", "ledger", "format", format, "events", ds.Len())
	return nil
}

// Import decodes a CSV file and stores its events one at a time, in file
// order. A failed write is counted and the import goes on; earlier writes
// are kept.
func (s *LedgerService) Import(ctx context.Context, r io.Reader) (ImportResult, error) {
	decoded, err := csvcodec.Decode(r, csvcodec.Options{LiveRate: s.liveRate(ctx), Now: s.now})
	if err != nil {
		if errors.Is(err, csvcodec.ErrEmptyFile) {
			return ImportResult{}, core.Fail(core.ReasonValidation, "the file is empty", err)
		}
		return ImportResult{}, core.Fail(core.ReasonMalformedRow, "could not read the file", err)
	}

	res := ImportResult{Format: decoded.Format, Skipped: decoded.Skipped, Problems: decoded.Problems}
	record := func(kind core.EventKind, line int, id string, err error) {
		if err != nil {
			res.Failed++
			slog.WarnContext(ctx, "Import row not stored",
				"component", "import",
				"event_kind", kind,
				"row", line,
				"error", err)
			return
		}
		res.Imported++
		s.publish(ctx, kind, id, amqp.OpUpsert)
	}

	ds := decoded.Dataset
	for _, row := range decoded.Rows {
		if ctx.Err() != nil {
			break
		}
		var id string
		switch row.Kind {
		case core.KindIncome:
			id, err = s.store.AddIncome(ctx, ds.Incomes[row.Index])
		case core.KindExpense:
			id, err = s.store.AddExpense(ctx, ds.Expenses[row.Index])
		case core.KindTransfer:
			id, err = s.store.AddTransfer(ctx, ds.Transfers[row.Index])
		}
		record(row.Kind, row.Line, id, err)
	}

	slog.InfoContext(ctx, "Import finished",
		"component", "import",
		"format", res.Format,
		"imported", res.Imported,
		"skipped", res.Skipped,
		"failed", res.Failed)
	if err := ctx.Err(); err != nil {
		return res, core.Fail(core.ReasonInternal, "import interrupted", err)
	}
	return res, nil
}
