// Package cmd implements the CLI application running the stock analysis
// service: the HTTP server, the data refreshers and the alert monitor.
package cmd

import (
	"flag"
	"log"

	"github.com/aksjeradar/aksjeradar"
	"github.com/aksjeradar/aksjeradar/store"
	"github.com/aksjeradar/aksjeradar/yahoo"
	"github.com/google/subcommands"
	"github.com/joho/godotenv"
)

// Register the subcommands.
// A main package will call Register() to allow subcommands, and Execute() on the user-selected one.
func Register(c *subcommands.Commander) {
	c.Register(&serveCmd{}, "service")
	c.Register(&monitorCmd{}, "service")

	c.Register(&updateCmd{}, "data")
	c.Register(&dailyCmd{}, "reports")
	c.Register(&searchCmd{}, "reports")
}

// as a CLI application, it has a very short lived lifecycle, so it is ok to use global variables.

var dbFile = flag.String("db-file", "aksjeradar.db", "Path to the SQLite database file")

func init() {
	// Secrets come from the environment; a .env file is a convenience for
	// development and absent in production.
	if err := godotenv.Load(); err == nil {
		log.Println("loaded environment from .env")
	}
}

// OpenStore opens the app database file.
func OpenStore() (*store.Store, error) {
	return store.Open(*dbFile)
}

// NewFetcher builds the market data fetcher against the live provider.
func NewFetcher() *aksjeradar.Fetcher {
	return aksjeradar.NewFetcher(yahoo.New())
}

// WatchedSymbols returns the symbols worth refreshing: every built-in
// instrument plus everything on a watchlist.
func WatchedSymbols(registry *aksjeradar.Registry, st *store.Store) []string {
	seen := make(map[string]struct{})
	var out []string
	for in := range registry.All() {
		seen[in.Symbol] = struct{}{}
		out = append(out, in.Symbol)
	}
	if st != nil {
		watched, err := st.Watchlist.Symbols()
		if err != nil {
			log.Printf("cannot read watchlist symbols: %v", err)
		}
		for _, s := range watched {
			if _, ok := seen[s]; !ok {
				seen[s] = struct{}{}
				out = append(out, s)
			}
		}
	}
	return out
}
