package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/aksjeradar/aksjeradar"
	"github.com/aksjeradar/aksjeradar/date"
	"github.com/google/subcommands"
)

// dailyCmd holds the flags for the 'daily' subcommand.
type dailyCmd struct {
	category string
}

func (*dailyCmd) Name() string     { return "daily" }
func (*dailyCmd) Synopsis() string { return "display a daily market report" }
func (*dailyCmd) Usage() string {
	return `aksjeradar daily [-c <category>]

  Displays a market report for one category of instruments: latest quote,
  RSI and the derived signal, rendered as markdown in the terminal.
`
}

func (c *dailyCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.category, "c", "oslo", "Category to report on (oslo, global, crypto, currency)")
}

func (c *dailyCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	category, err := aksjeradar.ParseCategory(c.category)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}

	registry := aksjeradar.NewRegistry()
	instruments := registry.ByCategory(category)
	symbols := make([]string, len(instruments))
	for i, in := range instruments {
		symbols[i] = in.Symbol
	}

	market := aksjeradar.NewMarketData()
	fetcher := NewFetcher()
	today := date.Today()
	if err := fetcher.RefreshQuotes(market, symbols); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: some quotes fell back to synthetic data\n")
	}
	if err := fetcher.RefreshHistory(market, symbols, today.Add(-60), today); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: some histories fell back to synthetic data\n")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# Markedsrapport %s (%s)\n\n", today, category)
	b.WriteString("| Symbol | Navn | Siste | Endring | RSI | Signal | Kilde |\n")
	b.WriteString("|---|---|---:|---:|---:|---|---|\n")
	for _, in := range instruments {
		q, ok := market.Quote(in.Symbol)
		if !ok {
			continue
		}
		rsi := "-"
		signal := aksjeradar.SignalHold
		if sum, ok := market.Analyze(in.Symbol); ok {
			signal = sum.Signal
			if sum.RSI != nil {
				rsi = fmt.Sprintf("%.1f", *sum.RSI)
			}
		}
		fmt.Fprintf(&b, "| %s | %s | %s | %+.2f%% | %s | %s | %s |\n",
			in.Symbol, in.Name, aksjeradar.M(q.Last, in.Currency), q.ChangePct, rsi, signal, q.Source)
	}

	printMarkdown(b.String())
	return subcommands.ExitSuccess
}
