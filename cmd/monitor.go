package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/aksjeradar/aksjeradar"
	"github.com/aksjeradar/aksjeradar/monitor"
	"github.com/aksjeradar/aksjeradar/notify"
	"github.com/google/subcommands"
)

// monitorCmd holds the flags for the 'monitor' subcommand.
type monitorCmd struct{}

func (*monitorCmd) Name() string     { return "monitor" }
func (*monitorCmd) Synopsis() string { return "run a single price alert sweep" }
func (*monitorCmd) Usage() string {
	return `aksjeradar monitor

  Evaluates every active price alert against fresh quotes, once. The serve
  command runs the same sweep on a schedule; this is the manual trigger.
`
}

func (*monitorCmd) SetFlags(f *flag.FlagSet) {}

func (c *monitorCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	st, err := OpenStore()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	telegram, err := notify.NewTelegram(os.Getenv("TELEGRAM_BOT_TOKEN"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}

	market := aksjeradar.NewMarketData()
	mon := monitor.New(st, market, NewFetcher(), telegram)
	if err := mon.Sweep(); err != nil {
		fmt.Fprintf(os.Stderr, "Sweep finished with errors: %v\n", err)
		return subcommands.ExitFailure
	}
	fmt.Println("Sweep finished.")
	return subcommands.ExitSuccess
}
