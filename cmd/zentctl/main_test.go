package main

import (
	"bytes"
	"context"
	"flag"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/subcommands"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zent/internal/core"
	"zent/internal/currency"
	"zent/internal/ports/memory"
	"zent/internal/services"
	sheetsmem "zent/internal/sheets/memory"
)

type fixture struct {
	env    *env
	out    *bytes.Buffer
	ledger *services.LedgerService
	mirror *sheetsmem.Mirror
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.New()
	rates := currency.NewProvider(currency.StaticSource{Rate: 20}, time.Minute)
	svc := services.NewLedgerService(store, rates)
	mirror := sheetsmem.New()
	out := &bytes.Buffer{}
	e := &env{out: out, open: func(context.Context, bool) (*session, error) {
		return &session{ledger: svc, store: store, mirror: mirror, close: func() {}}, nil
	}}
	return &fixture{env: e, out: out, ledger: svc, mirror: mirror}
}

// run parses args into the command's flags and executes it, returning what
// it printed.
func (fx *fixture) run(t *testing.T, cmd subcommands.Command, args ...string) (subcommands.ExitStatus, string) {
	t.Helper()
	fx.out.Reset()
	f := flag.NewFlagSet(cmd.Name(), flag.ContinueOnError)
	cmd.SetFlags(f)
	require.NoError(t, f.Parse(args))
	status := cmd.Execute(t.Context(), f)
	return status, fx.out.String()
}

func (fx *fixture) seed(t *testing.T) {
	t.Helper()
	status, out := fx.run(t, &incomeCmd{env: fx.env}, "-account", "bbva", "-amount", "20000", "-salary", "-d", "2024-03-01")
	require.Equal(t, subcommands.ExitSuccess, status)
	assert.Contains(t, out, "recorded income")

	status, out = fx.run(t, &expenseCmd{env: fx.env}, "-account", "BBVA", "-amount", "500", "-category", "Gasolina", "-d", "2024-03-02")
	require.Equal(t, subcommands.ExitSuccess, status)
	assert.Contains(t, out, "recorded expense")
}

func TestBalancesAfterWrites(t *testing.T) {
	fx := newFixture(t)
	fx.seed(t)

	status, out := fx.run(t, &balancesCmd{env: fx.env})
	require.Equal(t, subcommands.ExitSuccess, status)
	assert.Contains(t, out, "| BBVA | MXN | $19,500.00 |")
	assert.Contains(t, out, "**Total:** $19,500.00 MXN")
	assert.Contains(t, out, "**USD rate:** 20")
}

func TestWriteRejectsUnknownCategory(t *testing.T) {
	fx := newFixture(t)
	status, _ := fx.run(t, &expenseCmd{env: fx.env}, "-account", "bbva", "-amount", "10", "-category", "Casino")
	assert.Equal(t, subcommands.ExitFailure, status)
}

func TestStrategyWhatIfDoesNotSave(t *testing.T) {
	fx := newFixture(t)
	fx.seed(t)

	status, out := fx.run(t, &strategyCmd{env: fx.env}, "-needs", "60")
	require.Equal(t, subcommands.ExitSuccess, status)
	assert.Contains(t, out, "| needs | 60 | mercadoPago |")
	assert.Contains(t, out, "Percentages add up to 110%")

	cfg, err := fx.ledger.Strategy(t.Context())
	require.NoError(t, err)
	assert.Equal(t, 50.0, cfg.Needs.Pct)

	status, _ = fx.run(t, &strategyCmd{env: fx.env}, "-needs", "40", "-wants", "40", "-save")
	require.Equal(t, subcommands.ExitSuccess, status)
	cfg, err = fx.ledger.Strategy(t.Context())
	require.NoError(t, err)
	assert.Equal(t, 40.0, cfg.Needs.Pct)
	assert.Equal(t, 40.0, cfg.Wants.Pct)
}

func TestStrategyRejectsInvertedRange(t *testing.T) {
	fx := newFixture(t)
	status, _ := fx.run(t, &strategyCmd{env: fx.env}, "-from", "2024-03-10", "-to", "2024-03-01")
	assert.Equal(t, subcommands.ExitUsageError, status)
}

func TestChart(t *testing.T) {
	fx := newFixture(t)

	status, out := fx.run(t, &chartCmd{env: fx.env})
	require.Equal(t, subcommands.ExitSuccess, status)
	assert.Contains(t, out, "No income recorded yet.")

	fx.seed(t)
	status, out = fx.run(t, &chartCmd{env: fx.env}, "-view", "global", "-currency", "usd")
	require.Equal(t, subcommands.ExitSuccess, status)
	assert.Contains(t, out, "# Distribution (global, USD)")
	assert.Contains(t, out, "Baseline income: $1,000.00 USD")

	status, _ = fx.run(t, &chartCmd{env: fx.env}, "-currency", "EUR")
	assert.Equal(t, subcommands.ExitUsageError, status)
}

func TestMovementsLimitAndAccount(t *testing.T) {
	fx := newFixture(t)
	fx.seed(t)

	status, out := fx.run(t, &movementsCmd{env: fx.env}, "-n", "1")
	require.Equal(t, subcommands.ExitSuccess, status)
	assert.Contains(t, out, "| 2024-03-02 | BBVA |")
	assert.Contains(t, out, "1 older movements not shown.")

	status, _ = fx.run(t, &movementsCmd{env: fx.env}, "-account", "nowhere")
	assert.Equal(t, subcommands.ExitFailure, status)
}

func TestReport(t *testing.T) {
	fx := newFixture(t)
	fx.seed(t)

	status, out := fx.run(t, &reportCmd{env: fx.env}, "-from", "2024-03-01", "-to", "2024-03-31")
	require.Equal(t, subcommands.ExitSuccess, status)
	for _, heading := range []string{"# Balances", "# Strategy", "# Distribution"} {
		assert.Contains(t, out, heading)
	}
}

func TestTransferAndDelete(t *testing.T) {
	fx := newFixture(t)
	fx.seed(t)

	status, out := fx.run(t, &transferCmd{env: fx.env}, "-from", "bbva", "-to", "efectivo", "-sent", "300")
	require.Equal(t, subcommands.ExitSuccess, status)
	id := strings.TrimSpace(strings.TrimPrefix(out, "recorded transfer"))
	require.NotEmpty(t, id)

	status, out = fx.run(t, &deleteCmd{env: fx.env}, "transfer", id)
	require.Equal(t, subcommands.ExitSuccess, status)
	assert.Equal(t, "deleted transfer "+id+"\n", out)

	status, _ = fx.run(t, &deleteCmd{env: fx.env}, "transfer", id)
	assert.Equal(t, subcommands.ExitFailure, status, "already gone")

	status, _ = fx.run(t, &deleteCmd{env: fx.env}, "loan", "x")
	assert.Equal(t, subcommands.ExitUsageError, status)
}

func TestAccountsLifecycle(t *testing.T) {
	fx := newFixture(t)

	status, out := fx.run(t, &accountsCmd{env: fx.env}, "-currency", "USD", "create", "Nu", "Bank")
	require.Equal(t, subcommands.ExitSuccess, status)
	assert.Contains(t, out, "created account nuBank (USD,")

	status, out = fx.run(t, &accountsCmd{env: fx.env})
	require.Equal(t, subcommands.ExitSuccess, status)
	assert.Contains(t, out, "| nuBank | Nu Bank | USD |")
	assert.Contains(t, out, "| bbva | BBVA | MXN | builtin:bbva |")

	status, _ = fx.run(t, &accountsCmd{env: fx.env}, "delete", "builtin:bbva")
	assert.Equal(t, subcommands.ExitFailure, status)

	status, _ = fx.run(t, &accountsCmd{env: fx.env}, "rename", "x")
	assert.Equal(t, subcommands.ExitUsageError, status)
}

func TestExportImportRoundTrip(t *testing.T) {
	fx := newFixture(t)
	fx.seed(t)

	file := filepath.Join(t.TempDir(), "ledger.csv")
	status, _ := fx.run(t, &exportCmd{env: fx.env}, "-o", file)
	require.Equal(t, subcommands.ExitSuccess, status)

	data, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Gasolina")

	other := newFixture(t)
	status, out := other.run(t, &importCmd{env: other.env}, file)
	require.Equal(t, subcommands.ExitSuccess, status)
	assert.Contains(t, out, "# Import (technical)")
	assert.Contains(t, out, "- imported: 2")

	ds, err := other.ledger.Snapshot(t.Context())
	require.NoError(t, err)
	assert.Equal(t, 2, ds.Len())
}

func TestSyncRebuildsMirror(t *testing.T) {
	fx := newFixture(t)
	fx.seed(t)

	status, out := fx.run(t, &syncCmd{env: fx.env})
	require.Equal(t, subcommands.ExitSuccess, status)
	assert.Contains(t, out, "- upserted: 2")

	rows, err := fx.mirror.ListRows(t.Context())
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestParseRange(t *testing.T) {
	rng, err := parseRange("", "")
	require.NoError(t, err)
	assert.Nil(t, rng)

	rng, err = parseRange("2024-03-01", "2024-03-31")
	require.NoError(t, err)
	assert.True(t, rng.Contains(time.Date(2024, 3, 31, 23, 0, 0, 0, time.UTC)))
	assert.False(t, rng.Contains(time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)))

	_, err = parseRange("03/01/2024", "")
	assert.Error(t, err)
}

func TestPrintMarkdownRaw(t *testing.T) {
	var out bytes.Buffer
	e := &env{out: &out}
	e.printMarkdown("# Title\n")
	assert.Equal(t, "# Title\n", out.String())
}

func TestRenderStrategyMissingAccount(t *testing.T) {
	var b strings.Builder
	v := services.Views{}
	v.Strategy.Needs.Bucket = core.BucketNeeds
	v.Strategy.Needs.Account = "gone"
	v.Strategy.Balanced = true
	renderStrategy(&b, v)
	assert.Contains(t, b.String(), "gone (missing)")
	assert.NotContains(t, b.String(), "add up to")
}

func TestSheetsAuthNeedsClient(t *testing.T) {
	t.Setenv("GOOGLE_OAUTH_CLIENT_JSON", "")
	t.Setenv("GOOGLE_OAUTH_CLIENT_FILE", "")
	fx := newFixture(t)
	status, _ := fx.run(t, &sheetsAuthCmd{env: fx.env})
	assert.Equal(t, subcommands.ExitUsageError, status)
}

func TestStrategyRecommendedResetsPercentages(t *testing.T) {
	fx := newFixture(t)
	_, err := fx.ledger.SaveStrategy(t.Context(), core.StrategyConfig{
		Needs:  core.BucketConfig{Pct: 70, Account: "bbva"},
		Wants:  core.BucketConfig{Pct: 20, Account: "dolarApp"},
		Future: core.BucketConfig{Pct: 10, Account: "edenred"},
	})
	require.NoError(t, err)

	status, _ := fx.run(t, &strategyCmd{env: fx.env}, "-recommended", "-save")
	require.Equal(t, subcommands.ExitSuccess, status)

	cfg, err := fx.ledger.Strategy(t.Context())
	require.NoError(t, err)
	assert.Equal(t, 50.0, cfg.Needs.Pct)
	assert.Equal(t, "bbva", cfg.Needs.Account)
	assert.Equal(t, 20.0, cfg.Future.Pct)
}
