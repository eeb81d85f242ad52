package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/subcommands"

	"zent/internal/core"
	"zent/internal/csvcodec"
	"zent/internal/services"
)

type accountsCmd struct {
	*env
	currency string
}

func (*accountsCmd) Name() string     { return "accounts" }
func (*accountsCmd) Synopsis() string { return "list, create or delete accounts" }
func (*accountsCmd) Usage() string {
	return `zentctl accounts [list]
zentctl accounts create [-currency USD] <name>
zentctl accounts delete <id>

  Manages the account directory. Built-in accounts cannot be deleted.
`
}

func (c *accountsCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.currency, "currency", string(core.BaseCurrency), "Currency of a new account.")
}

func (c *accountsCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	action := "list"
	if f.NArg() > 0 {
		action = f.Arg(0)
	}
	args := f.Args()
	if len(args) > 0 {
		args = args[1:]
	}

	s, err := c.open(ctx, false)
	if err != nil {
		failure("opening ledger", err)
		return subcommands.ExitFailure
	}
	defer s.close()

	switch action {
	case "list":
		dir, err := s.ledger.Directory(ctx)
		if err != nil {
			failure("listing accounts", err)
			return subcommands.ExitFailure
		}
		var b strings.Builder
		renderAccounts(&b, dir.Accounts())
		c.printMarkdown(b.String())

	case "create":
		if len(args) == 0 {
			fmt.Fprint(os.Stderr, c.Usage())
			return subcommands.ExitUsageError
		}
		cur, err := core.ParseCurrency(c.currency)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error parsing currency: %v\n", err)
			return subcommands.ExitUsageError
		}
		a, err := s.ledger.CreateAccount(ctx, services.AccountInput{Name: strings.Join(args, " "), Currency: cur})
		if err != nil {
			failure("creating account", err)
			return subcommands.ExitFailure
		}
		fmt.Fprintf(c.out, "created account %s (%s, %s)\n", a.Slug, a.Currency, a.ID)

	case "delete":
		if len(args) != 1 {
			fmt.Fprint(os.Stderr, c.Usage())
			return subcommands.ExitUsageError
		}
		if err := s.ledger.DeleteAccount(ctx, args[0]); err != nil {
			failure("deleting account", err)
			return subcommands.ExitFailure
		}
		fmt.Fprintf(c.out, "deleted account %s\n", args[0])

	default:
		fmt.Fprintf(os.Stderr, "unknown action %q\n", action)
		return subcommands.ExitUsageError
	}
	return subcommands.ExitSuccess
}

type exportCmd struct {
	*env
	format string
	output string
}

func (*exportCmd) Name() string     { return "export" }
func (*exportCmd) Synopsis() string { return "export the ledger as CSV" }
func (*exportCmd) Usage() string {
	return `zentctl export [-format technical|table] [-o <file>]

  Writes every event as CSV. The technical format round-trips through
  import; the table format is meant for spreadsheets.
`
}

func (c *exportCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.format, "format", string(csvcodec.FormatTechnical), "CSV layout: technical or table.")
	f.StringVar(&c.output, "o", "", "Output file, defaults to stdout.")
}

func (c *exportCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	s, err := c.open(ctx, false)
	if err != nil {
		failure("opening ledger", err)
		return subcommands.ExitFailure
	}
	defer s.close()

	var w io.Writer = c.out
	if c.output != "" {
		file, err := os.Create(c.output)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error creating %q: %v\n", c.output, err)
			return subcommands.ExitFailure
		}
		defer file.Close()
		w = file
	}
	if err := s.ledger.Export(ctx, w, csvcodec.ParseFormat(c.format)); err != nil {
		failure("exporting", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

type importCmd struct {
	*env
}

func (*importCmd) Name() string     { return "import" }
func (*importCmd) Synopsis() string { return "import events from a CSV file" }
func (*importCmd) Usage() string {
	return `zentctl import <file>

  Reads a CSV in either export format, detected from its header, and
  stores every valid event. Use - to read stdin.
`
}

func (*importCmd) SetFlags(*flag.FlagSet) {}

func (c *importCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprint(os.Stderr, c.Usage())
		return subcommands.ExitUsageError
	}
	var r io.Reader = os.Stdin
	if name := f.Arg(0); name != "-" {
		file, err := os.Open(name)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening %q: %v\n", name, err)
			return subcommands.ExitFailure
		}
		defer file.Close()
		r = file
	}

	s, err := c.open(ctx, false)
	if err != nil {
		failure("opening ledger", err)
		return subcommands.ExitFailure
	}
	defer s.close()

	res, err := s.ledger.Import(ctx, r)
	if err != nil {
		failure("importing", err)
		return subcommands.ExitFailure
	}
	var b strings.Builder
	renderImport(&b, res)
	c.printMarkdown(b.String())
	if res.Failed > 0 {
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

type syncCmd struct {
	*env
	timeout time.Duration
}

func (*syncCmd) Name() string     { return "sync" }
func (*syncCmd) Synopsis() string { return "rebuild the spreadsheet mirror from the ledger" }
func (*syncCmd) Usage() string {
	return `zentctl sync [-timeout <duration>]

  Rewrites every mirrored row from the stored events and removes rows
  whose event is gone.
`
}

func (c *syncCmd) SetFlags(f *flag.FlagSet) {
	f.DurationVar(&c.timeout, "timeout", 2*time.Minute, "Give up after this long.")
}

func (c *syncCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	s, err := c.open(ctx, true)
	if err != nil {
		failure("opening ledger", err)
		return subcommands.ExitFailure
	}
	defer s.close()

	rep, err := services.NewMirrorer(s.store, s.mirror).Reconcile(ctx)
	if err != nil {
		failure("syncing spreadsheet", err)
		return subcommands.ExitFailure
	}
	var b strings.Builder
	renderReconcile(&b, rep)
	c.printMarkdown(b.String())
	if rep.Failed > 0 {
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
