package main

import (
	"context"
	"flag"
	"fmt"
	"net"
	"os"
	"time"

	"github.com/google/subcommands"

	"zent/internal/cli"
	sheetsgoogle "zent/internal/sheets/google"
)

type sheetsAuthCmd struct {
	*env
	port    int
	timeout time.Duration
}

func (*sheetsAuthCmd) Name() string { return "sheets-auth" }
func (*sheetsAuthCmd) Synopsis() string {
	return "authorize the spreadsheet mirror with your Google account"
}
func (*sheetsAuthCmd) Usage() string {
	return `zentctl sheets-auth [-port 8085] [-timeout 5m]

  Runs the OAuth consent flow for an installed-app client read from
  GOOGLE_OAUTH_CLIENT_JSON or GOOGLE_OAUTH_CLIENT_FILE, and stores the
  token in GOOGLE_OAUTH_TOKEN_FILE (token.json by default). The client
  must allow http://localhost:<port>/callback as a redirect URI.
`
}

func (c *sheetsAuthCmd) SetFlags(f *flag.FlagSet) {
	f.IntVar(&c.port, "port", 8085, "Local port receiving the redirect.")
	f.DurationVar(&c.timeout, "timeout", 5*time.Minute, "How long to wait for consent.")
}

func (c *sheetsAuthCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cli.LoadEnvFile()
	clientJSON, err := sheetsgoogle.OAuthClientJSON()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	if clientJSON == nil {
		fmt.Fprintln(os.Stderr, "set GOOGLE_OAUTH_CLIENT_JSON or GOOGLE_OAUTH_CLIENT_FILE")
		return subcommands.ExitUsageError
	}
	cfg, err := sheetsgoogle.OAuthConfig(clientJSON)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}

	ln, err := net.Listen("tcp", fmt.Sprintf("localhost:%d", c.port))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error listening for the redirect: %v\n", err)
		return subcommands.ExitFailure
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	tok, err := sheetsgoogle.Authorize(ctx, cfg, ln, func(authURL string) {
		fmt.Fprintf(c.out, "Open this URL to authorize:\n%s\n", authURL)
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error authorizing: %v\n", err)
		return subcommands.ExitFailure
	}

	path := sheetsgoogle.TokenFile()
	if err := sheetsgoogle.SaveToken(path, tok); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	fmt.Fprintf(c.out, "Saved token to %s\n", path)
	return subcommands.ExitSuccess
}
