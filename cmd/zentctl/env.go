package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"

	"zent/internal/cli"
	"zent/internal/core"
	"zent/internal/ports"
	"zent/internal/services"
	"zent/internal/sheets"
)

const dateLayout = "2006-01-02"

// session is an opened ledger. close releases the store.
type session struct {
	ledger *services.LedgerService
	store  ports.Store
	mirror sheets.Mirror // only set when asked for
	close  func()
}

// env is shared by every command.
type env struct {
	out    io.Writer
	render bool
	open   func(ctx context.Context, withMirror bool) (*session, error)
}

func newEnv(out io.Writer) *env {
	return &env{out: out, render: true, open: openConfigured}
}

// openConfigured builds the ledger the same way the server does, logging to
// stderr so stdout only carries the report.
func openConfigured(ctx context.Context, withMirror bool) (*session, error) {
	cli.LoadEnvFile()
	logger := cli.SetupLoggerTo(nil, "cli", os.Stderr)
	cfg := cli.LoadAndValidateConfig(logger)
	logger = cli.SetupLoggerTo(cfg, "cli", os.Stderr)

	backend := cli.InitBackend(ctx, logger, cfg)
	svc := services.NewLedgerService(backend.Store, cli.NewRateProvider(cfg),
		services.WithRateTimeout(cfg.RateTimeout))

	s := &session{
		ledger: svc,
		store:  backend.Store,
		close: func() {
			if backend.Cleanup == nil {
				return
			}
			if err := backend.Cleanup(); err != nil {
				logger.Error("Backend cleanup error", "error", err)
			}
		},
	}
	if withMirror {
		m := cli.InitMirror(ctx, logger, cfg)
		if m.InMemory {
			logger.Warn("No spreadsheet configured, mirrored rows are not persisted")
		}
		s.mirror = m.Mirror
	}
	return s, nil
}

// printMarkdown writes md to the terminal, styled unless rendering is off or
// fails.
func (e *env) printMarkdown(md string) {
	if e.render {
		r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(100))
		if err == nil {
			if out, err := r.Render(md); err == nil {
				fmt.Fprint(e.out, out)
				return
			}
		}
	}
	fmt.Fprint(e.out, md)
}

// parseRange reads optional -from/-to dates. The end date is inclusive.
func parseRange(from, to string) (*core.DateRange, error) {
	if from == "" && to == "" {
		return nil, nil
	}
	var rng core.DateRange
	if from != "" {
		t, err := time.Parse(dateLayout, from)
		if err != nil {
			return nil, fmt.Errorf("invalid -from date %q: %w", from, err)
		}
		rng.From = t
	}
	if to != "" {
		t, err := time.Parse(dateLayout, to)
		if err != nil {
			return nil, fmt.Errorf("invalid -to date %q: %w", to, err)
		}
		rng.To = t.Add(24*time.Hour - time.Nanosecond)
	}
	if !rng.From.IsZero() && !rng.To.IsZero() && rng.To.Before(rng.From) {
		return nil, fmt.Errorf("-to %s is before -from %s", to, from)
	}
	return &rng, nil
}

// parseWhen reads an optional event date, zero meaning now.
func parseWhen(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, want YYYY-MM-DD or RFC3339", s)
	}
	return t, nil
}

// optionalRate turns a zero flag value into "fetch the live rate".
func optionalRate(v float64) *float64 {
	if v == 0 {
		return nil
	}
	return core.Rate(v)
}

// failure reports err on stderr in the ledger's reason vocabulary.
func failure(action string, err error) {
	fmt.Fprintf(os.Stderr, "Error %s (%s): %v\n", action, core.ReasonOf(err), err)
}

func pipeEscape(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
