package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/aksjeradar/aksjeradar"
	"github.com/google/subcommands"
)

// searchCmd holds the flags for the 'search' subcommand.
type searchCmd struct{}

func (*searchCmd) Name() string     { return "search" }
func (*searchCmd) Synopsis() string { return "search the instrument registry" }
func (*searchCmd) Usage() string {
	return `aksjeradar search <query>

  Searches the built-in instrument registry by symbol or name.

Usage Examples:
$ aksjeradar search equinor
$ aksjeradar search .OL
`
}

func (*searchCmd) SetFlags(f *flag.FlagSet) {}

func (c *searchCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	query := strings.Join(f.Args(), " ")
	if query == "" {
		fmt.Fprintln(os.Stderr, "Error: missing search query")
		return subcommands.ExitUsageError
	}

	results := aksjeradar.NewRegistry().Search(query)
	if len(results) == 0 {
		fmt.Printf("No instrument matches %q.\n", query)
		return subcommands.ExitSuccess
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# Treff for %q\n\n", query)
	b.WriteString("| Symbol | Navn | Børs | Valuta | Kategori |\n")
	b.WriteString("|---|---|---|---|---|\n")
	for _, in := range results {
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %s |\n", in.Symbol, in.Name, in.Exchange, in.Currency, in.Category)
	}
	printMarkdown(b.String())
	return subcommands.ExitSuccess
}
