package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/google/subcommands"

	"zent/internal/chart"
	"zent/internal/core"
	"zent/internal/services"
	"zent/internal/strategy"
)

// views opens the ledger and computes the derived views once.
func (e *env) views(ctx context.Context, opts services.ViewOptions) (services.Views, error) {
	s, err := e.open(ctx, false)
	if err != nil {
		return services.Views{}, err
	}
	defer s.close()
	return s.ledger.Views(ctx, opts)
}

type balancesCmd struct {
	*env
}

func (*balancesCmd) Name() string     { return "balances" }
func (*balancesCmd) Synopsis() string { return "display the balance of every account" }
func (*balancesCmd) Usage() string {
	return `zentctl balances

  Displays every account with its balance in its own currency, and the
  total in MXN at the current USD rate.
`
}

func (*balancesCmd) SetFlags(*flag.FlagSet) {}

func (c *balancesCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	v, err := c.views(ctx, services.ViewOptions{})
	if err != nil {
		failure("computing balances", err)
		return subcommands.ExitFailure
	}
	var b strings.Builder
	renderBalances(&b, v)
	c.printMarkdown(b.String())
	return subcommands.ExitSuccess
}

type strategyCmd struct {
	*env
	from, to string
	pct      map[core.Bucket]*float64
	account  map[core.Bucket]*string
	reset    bool
	save     bool
}

func (*strategyCmd) Name() string     { return "strategy" }
func (*strategyCmd) Synopsis() string { return "display the needs/wants/future breakdown" }
func (*strategyCmd) Usage() string {
	return `zentctl strategy [-from <date>] [-to <date>] [-recommended] [-needs <pct>] [-wants <pct>] [-future <pct>] [-save]

  Displays how the salary splits into needs, wants and future. Percentage
  and account flags try out another split; -save stores it.
`
}

func (c *strategyCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.from, "from", "", "First day of the range (YYYY-MM-DD).")
	f.StringVar(&c.to, "to", "", "Last day of the range (YYYY-MM-DD).")
	f.BoolVar(&c.save, "save", false, "Store the adjusted split as the new strategy.")
	f.BoolVar(&c.reset, "recommended", false, "Start from the 50/30/20 split, keeping the accounts.")
	c.pct = make(map[core.Bucket]*float64)
	c.account = make(map[core.Bucket]*string)
	for _, b := range core.Buckets {
		c.pct[b] = f.Float64(string(b), -1, fmt.Sprintf("Percentage of salary for %s.", b))
		c.account[b] = f.String(string(b)+"-account", "", fmt.Sprintf("Account funding %s.", b))
	}
}

// adjust applies the flags on top of cfg and reports whether anything
// changed.
func (c *strategyCmd) adjust(cfg core.StrategyConfig) (core.StrategyConfig, bool) {
	changed := false
	if c.reset {
		cfg = strategy.Recommended(cfg)
		changed = true
	}
	for _, b := range core.Buckets {
		if p := c.pct[b]; p != nil && *p >= 0 {
			cfg = strategy.SetPct(cfg, b, *p)
			changed = true
		}
		if a := c.account[b]; a != nil && *a != "" {
			cfg = strategy.SetAccount(cfg, b, *a)
			changed = true
		}
	}
	return cfg, changed
}

func (c *strategyCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	rng, err := parseRange(c.from, c.to)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitUsageError
	}

	s, err := c.open(ctx, false)
	if err != nil {
		failure("opening ledger", err)
		return subcommands.ExitFailure
	}
	defer s.close()

	stored, err := s.ledger.Strategy(ctx)
	if err != nil {
		failure("reading strategy", err)
		return subcommands.ExitFailure
	}
	opts := services.ViewOptions{Range: rng}
	if cfg, changed := c.adjust(stored); changed {
		if c.save {
			if _, err := s.ledger.SaveStrategy(ctx, cfg); err != nil {
				failure("saving strategy", err)
				return subcommands.ExitFailure
			}
		} else {
			opts.Config = &cfg
		}
	}

	v, err := s.ledger.Views(ctx, opts)
	if err != nil {
		failure("computing strategy", err)
		return subcommands.ExitFailure
	}
	var b strings.Builder
	renderStrategy(&b, v)
	c.printMarkdown(b.String())
	return subcommands.ExitSuccess
}

type chartCmd struct {
	*env
	view     string
	currency string
}

func (*chartCmd) Name() string     { return "chart" }
func (*chartCmd) Synopsis() string { return "display how income is distributed" }
func (*chartCmd) Usage() string {
	return `zentctl chart [-view strategy|global] [-currency MXN|USD]

  Displays the income distribution as a table of segments.
`
}

func (c *chartCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.view, "view", string(chart.ViewStrategy), "Distribution to show: strategy (salary only) or global.")
	f.StringVar(&c.currency, "currency", string(core.BaseCurrency), "Currency to display amounts in.")
}

func (c *chartCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	display, err := core.ParseCurrency(c.currency)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing currency: %v\n", err)
		return subcommands.ExitUsageError
	}
	v, err := c.views(ctx, services.ViewOptions{ChartView: chart.ParseView(c.view), Display: display})
	if err != nil {
		failure("computing chart", err)
		return subcommands.ExitFailure
	}
	var b strings.Builder
	renderChart(&b, v)
	c.printMarkdown(b.String())
	return subcommands.ExitSuccess
}

type movementsCmd struct {
	*env
	account string
	limit   int
}

func (*movementsCmd) Name() string     { return "movements" }
func (*movementsCmd) Synopsis() string { return "list movements, newest first" }
func (*movementsCmd) Usage() string {
	return `zentctl movements [-account <ref>] [-n <count>]

  Lists the movement timeline. Transfers show up once per account.
`
}

func (c *movementsCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.account, "account", "", "Only show movements of this account (slug, id or name).")
	f.IntVar(&c.limit, "n", 20, "Number of movements to show, 0 for all.")
}

func (c *movementsCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	v, err := c.views(ctx, services.ViewOptions{Account: c.account})
	if err != nil {
		failure("listing movements", err)
		return subcommands.ExitFailure
	}
	var b strings.Builder
	renderMovements(&b, v.Movements, c.limit)
	c.printMarkdown(b.String())
	return subcommands.ExitSuccess
}

type reportCmd struct {
	*env
	from, to string
	currency string
}

func (*reportCmd) Name() string     { return "report" }
func (*reportCmd) Synopsis() string { return "display balances, strategy and distribution together" }
func (*reportCmd) Usage() string {
	return `zentctl report [-from <date>] [-to <date>] [-currency MXN|USD]

  Displays the full overview computed from a single snapshot.
`
}

func (c *reportCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.from, "from", "", "First day of the strategy range (YYYY-MM-DD).")
	f.StringVar(&c.to, "to", "", "Last day of the strategy range (YYYY-MM-DD).")
	f.StringVar(&c.currency, "currency", string(core.BaseCurrency), "Currency of the distribution.")
}

func (c *reportCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	rng, err := parseRange(c.from, c.to)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitUsageError
	}
	display, err := core.ParseCurrency(c.currency)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing currency: %v\n", err)
		return subcommands.ExitUsageError
	}
	v, err := c.views(ctx, services.ViewOptions{Range: rng, Display: display})
	if err != nil {
		failure("computing report", err)
		return subcommands.ExitFailure
	}
	var b strings.Builder
	renderReport(&b, v)
	c.printMarkdown(b.String())
	return subcommands.ExitSuccess
}
