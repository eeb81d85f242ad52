// Command zentctl inspects and edits the ledger from the terminal.
package main

import (
	"context"
	"flag"
	"os"
	"path"

	"github.com/google/subcommands"
)

func main() {
	raw := flag.Bool("raw", false, "print plain markdown instead of rendering it")

	e := newEnv(os.Stdout)
	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	commander.Register(commander.CommandsCommand(), "")

	commander.Register(&balancesCmd{env: e}, "views")
	commander.Register(&strategyCmd{env: e}, "views")
	commander.Register(&chartCmd{env: e}, "views")
	commander.Register(&movementsCmd{env: e}, "views")
	commander.Register(&reportCmd{env: e}, "views")

	commander.Register(&incomeCmd{env: e}, "events")
	commander.Register(&expenseCmd{env: e}, "events")
	commander.Register(&transferCmd{env: e}, "events")
	commander.Register(&deleteCmd{env: e}, "events")

	commander.Register(&accountsCmd{env: e}, "accounts")

	commander.Register(&exportCmd{env: e}, "data")
	commander.Register(&importCmd{env: e}, "data")
	commander.Register(&syncCmd{env: e}, "data")
	commander.Register(&sheetsAuthCmd{env: e}, "data")

	flag.Parse()
	e.render = !*raw
	os.Exit(int(commander.Execute(context.Background())))
}
