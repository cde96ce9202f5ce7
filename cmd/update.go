package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/aksjeradar/aksjeradar"
	"github.com/aksjeradar/aksjeradar/date"
	"github.com/google/subcommands"
)

// updateCmd holds the flags for the 'update' subcommand.
type updateCmd struct {
	symbol  string
	history int
}

func (*updateCmd) Name() string     { return "update" }
func (*updateCmd) Synopsis() string { return "fetch latest quotes and candle history" }
func (*updateCmd) Usage() string {
	return `aksjeradar update [-s <symbol>] [-history <days>]

  Fetches quotes and daily candles for every known instrument and every
  watchlisted symbol, or for a single symbol with -s. Mostly useful to
  verify provider connectivity; the server refreshes on its own schedule.
`
}

func (c *updateCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.symbol, "s", "", "Single symbol to update (default: all)")
	f.IntVar(&c.history, "history", 120, "Days of candle history to fetch")
}

func (c *updateCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	st, err := OpenStore()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}

	var symbols []string
	if c.symbol != "" {
		symbol, err := aksjeradar.ParseSymbol(c.symbol)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return subcommands.ExitUsageError
		}
		symbols = []string{symbol}
	} else {
		symbols = WatchedSymbols(aksjeradar.NewRegistry(), st)
	}

	market := aksjeradar.NewMarketData()
	fetcher := NewFetcher()
	today := date.Today()

	if err := fetcher.RefreshQuotes(market, symbols); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: some quotes fell back to synthetic data: %v\n", err)
	}
	if err := fetcher.RefreshHistory(market, symbols, today.Add(-c.history), today); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: some histories fell back to synthetic data: %v\n", err)
	}

	for _, symbol := range symbols {
		q, ok := market.Quote(symbol)
		if !ok {
			continue
		}
		fmt.Printf("%-10s %10.2f %+7.2f%% (%s, %d days of history)\n",
			symbol, q.Last, q.ChangePct, q.Source, market.HistoryLen(symbol))
	}
	return subcommands.ExitSuccess
}
