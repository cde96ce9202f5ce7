package cmd

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/aksjeradar/aksjeradar"
	"github.com/aksjeradar/aksjeradar/assistant"
	"github.com/aksjeradar/aksjeradar/date"
	"github.com/aksjeradar/aksjeradar/monitor"
	"github.com/aksjeradar/aksjeradar/notify"
	"github.com/aksjeradar/aksjeradar/server"
	"github.com/google/subcommands"
	"github.com/robfig/cron/v3"
)

// serveCmd holds the flags for the 'serve' subcommand.
type serveCmd struct {
	addr    string
	baseURL string
	history int
}

func (*serveCmd) Name() string     { return "serve" }
func (*serveCmd) Synopsis() string { return "run the HTTP server and the background jobs" }
func (*serveCmd) Usage() string {
	return `aksjeradar serve [-addr <addr>] [-base-url <url>] [-history <days>]

  Starts the API server together with the scheduled jobs: the quote
  refresher, the price alert sweep and the daily Telegram summary.

  Secrets are read from the environment (or a .env file):
    STRIPE_SECRET_KEY, STRIPE_PRICE_ID, STRIPE_WEBHOOK_SECRET,
    TELEGRAM_BOT_TOKEN, GEMINI_API_KEY.
`
}

func (c *serveCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.addr, "addr", ":8080", "Listen address")
	f.StringVar(&c.baseURL, "base-url", "http://localhost:8080", "Public base URL used in redirects")
	f.IntVar(&c.history, "history", 120, "Days of candle history to warm up at start")
}

func (c *serveCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	if err := c.run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

func (c *serveCmd) run(ctx context.Context) error {
	st, err := OpenStore()
	if err != nil {
		return err
	}

	registry := aksjeradar.NewRegistry()
	market := aksjeradar.NewMarketData()
	fetcher := NewFetcher()

	telegram, err := notify.NewTelegram(os.Getenv("TELEGRAM_BOT_TOKEN"))
	if err != nil {
		return err
	}
	// The bot answers any message with the chat id, which the user links to
	// their account over PUT /auth/telegram.
	go telegram.ReplyWithChatID()
	ai, err := assistant.New(ctx, os.Getenv("GEMINI_API_KEY"))
	if err != nil {
		return err
	}

	// Warm up quotes and history before accepting traffic; failures leave
	// fallback data behind, so the pages are never empty.
	symbols := WatchedSymbols(registry, st)
	today := date.Today()
	if err := fetcher.RefreshQuotes(market, symbols); err != nil {
		log.Printf("quote warmup incomplete: %v", err)
	}
	if err := fetcher.RefreshHistory(market, symbols, today.Add(-c.history), today); err != nil {
		log.Printf("history warmup incomplete: %v", err)
	}

	srv := server.New(server.Config{
		Addr:                c.addr,
		BaseURL:             c.baseURL,
		StripeKey:           os.Getenv("STRIPE_SECRET_KEY"),
		StripePriceID:       os.Getenv("STRIPE_PRICE_ID"),
		StripeWebhookSecret: os.Getenv("STRIPE_WEBHOOK_SECRET"),
	}, st, market, fetcher, registry, ai)

	mon := monitor.New(st, market, fetcher, telegram)

	scheduler := cron.New()
	// Quote refresh drives both the pages and the websocket stream.
	if _, err := scheduler.AddFunc("*/5 * * * *", func() {
		symbols := WatchedSymbols(registry, st)
		if err := fetcher.RefreshQuotes(market, symbols); err != nil {
			log.Printf("quote refresh: %v", err)
		}
		srv.BroadcastQuotes(symbols)
	}); err != nil {
		return err
	}
	// The alert sweep rides on the freshly refreshed quotes.
	if _, err := scheduler.AddFunc("*/5 * * * *", func() {
		if err := mon.Sweep(); err != nil {
			log.Printf("alert sweep: %v", err)
		}
	}); err != nil {
		return err
	}
	// Candle histories only move once per trading day.
	if _, err := scheduler.AddFunc("30 18 * * 1-5", func() {
		today := date.Today()
		if err := fetcher.RefreshHistory(market, WatchedSymbols(registry, st), today.Add(-7), today); err != nil {
			log.Printf("history refresh: %v", err)
		}
	}); err != nil {
		return err
	}
	if _, err := scheduler.AddFunc("0 8 * * *", func() {
		if err := mon.DailySummary(); err != nil {
			log.Printf("daily summary: %v", err)
		}
	}); err != nil {
		return err
	}
	scheduler.Start()
	defer scheduler.Stop()

	return srv.Run()
}
