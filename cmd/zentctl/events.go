package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"zent/internal/core"
	"zent/internal/services"
)

// record opens the ledger, runs one write and prints its receipt.
func (e *env) record(ctx context.Context, what string, write func(*services.LedgerService) (services.Receipt, error)) subcommands.ExitStatus {
	s, err := e.open(ctx, false)
	if err != nil {
		failure("opening ledger", err)
		return subcommands.ExitFailure
	}
	defer s.close()

	rec, err := write(s.ledger)
	if err != nil {
		failure("recording "+what, err)
		return subcommands.ExitFailure
	}
	fmt.Fprintf(e.out, "recorded %s %s\n", rec.Kind, rec.ID)
	return subcommands.ExitSuccess
}

type incomeCmd struct {
	*env
	account  string
	amount   float64
	currency string
	rate     float64
	salary   bool
	date     string
}

func (*incomeCmd) Name() string     { return "income" }
func (*incomeCmd) Synopsis() string { return "record an income" }
func (*incomeCmd) Usage() string {
	return `zentctl income -account <ref> -amount <n> [-currency USD] [-rate <mxn per usd>] [-salary] [-d <date>]

  Records money coming into an account. USD incomes are converted with
  -rate, or with the live rate when it is omitted.
`
}

func (c *incomeCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.account, "account", "", "Receiving account (slug, id or name).")
	f.Float64Var(&c.amount, "amount", 0, "Amount received.")
	f.StringVar(&c.currency, "currency", "", "Currency of the amount, defaults to the account's.")
	f.Float64Var(&c.rate, "rate", 0, "Manual MXN per USD rate.")
	f.BoolVar(&c.salary, "salary", false, "Count the income as salary in the strategy.")
	f.StringVar(&c.date, "d", "", "Date of the income, defaults to now.")
}

func (c *incomeCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	when, err := parseWhen(c.date)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitUsageError
	}
	var cur core.Currency
	if c.currency != "" {
		if cur, err = core.ParseCurrency(c.currency); err != nil {
			fmt.Fprintf(os.Stderr, "Error parsing currency: %v\n", err)
			return subcommands.ExitUsageError
		}
	}
	return c.record(ctx, "income", func(l *services.LedgerService) (services.Receipt, error) {
		return l.AddIncome(ctx, services.IncomeInput{
			Account:   c.account,
			Amount:    c.amount,
			Currency:  cur,
			Rate:      optionalRate(c.rate),
			IsSalary:  c.salary,
			Timestamp: when,
		})
	})
}

type expenseCmd struct {
	*env
	account  string
	amount   float64
	category string
	date     string
}

func (*expenseCmd) Name() string     { return "expense" }
func (*expenseCmd) Synopsis() string { return "record an expense" }
func (*expenseCmd) Usage() string {
	return `zentctl expense -account <ref> -amount <n> -category <name> [-d <date>]

  Records money spent from an account. A "Retiro de Efectivo" expense
  from an MXN account is stored as a withdrawal to cash.
`
}

func (c *expenseCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.account, "account", "", "Paying account (slug, id or name).")
	f.Float64Var(&c.amount, "amount", 0, "Amount in the account's currency.")
	f.StringVar(&c.category, "category", "", "Expense category.")
	f.StringVar(&c.date, "d", "", "Date of the expense, defaults to now.")
}

func (c *expenseCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	when, err := parseWhen(c.date)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitUsageError
	}
	return c.record(ctx, "expense", func(l *services.LedgerService) (services.Receipt, error) {
		return l.AddExpense(ctx, services.ExpenseInput{
			Account:   c.account,
			Amount:    c.amount,
			Category:  c.category,
			Timestamp: when,
		})
	})
}

type transferCmd struct {
	*env
	from, to string
	sent     float64
	received float64
	rate     float64
	date     string
}

func (*transferCmd) Name() string     { return "transfer" }
func (*transferCmd) Synopsis() string { return "record a transfer between two accounts" }
func (*transferCmd) Usage() string {
	return `zentctl transfer -from <ref> -to <ref> -sent <n> [-received <n>] [-rate <mxn per usd>] [-d <date>]

  Moves money between accounts. Transfers across currencies need the
  received amount; the difference in value is kept as the spread.
`
}

func (c *transferCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.from, "from", "", "Source account.")
	f.StringVar(&c.to, "to", "", "Destination account.")
	f.Float64Var(&c.sent, "sent", 0, "Amount leaving the source account.")
	f.Float64Var(&c.received, "received", 0, "Amount reaching the destination, defaults to -sent.")
	f.Float64Var(&c.rate, "rate", 0, "Manual MXN per USD rate.")
	f.StringVar(&c.date, "d", "", "Date of the transfer, defaults to now.")
}

func (c *transferCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	when, err := parseWhen(c.date)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitUsageError
	}
	return c.record(ctx, "transfer", func(l *services.LedgerService) (services.Receipt, error) {
		return l.AddTransfer(ctx, services.TransferInput{
			From:           c.from,
			To:             c.to,
			AmountSent:     c.sent,
			AmountReceived: c.received,
			Rate:           optionalRate(c.rate),
			Timestamp:      when,
		})
	})
}

type deleteCmd struct {
	*env
}

func (*deleteCmd) Name() string     { return "delete" }
func (*deleteCmd) Synopsis() string { return "delete an income, expense or transfer" }
func (*deleteCmd) Usage() string {
	return `zentctl delete <income|expense|transfer> <id>

  Deletes one event by id.
`
}

func (*deleteCmd) SetFlags(*flag.FlagSet) {}

func (c *deleteCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 2 {
		fmt.Fprint(os.Stderr, c.Usage())
		return subcommands.ExitUsageError
	}
	kind, ok := core.ParseEventKind(f.Arg(0))
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown event kind %q\n", f.Arg(0))
		return subcommands.ExitUsageError
	}
	id := f.Arg(1)

	s, err := c.open(ctx, false)
	if err != nil {
		failure("opening ledger", err)
		return subcommands.ExitFailure
	}
	defer s.close()

	switch kind {
	case core.KindIncome:
		err = s.ledger.DeleteIncome(ctx, id)
	case core.KindExpense:
		err = s.ledger.DeleteExpense(ctx, id)
	default:
		err = s.ledger.DeleteTransfer(ctx, id)
	}
	if err != nil {
		failure("deleting "+string(kind), err)
		return subcommands.ExitFailure
	}
	fmt.Fprintf(c.out, "deleted %s %s\n", kind, id)
	return subcommands.ExitSuccess
}
