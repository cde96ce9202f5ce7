// Package yahoo implements the market data provider against the Yahoo
// Finance chart API. It is the live source behind aksjeradar.Fetcher; when
// it fails or rate-limits, the caller serves synthetic fallback data.
package yahoo

import (
	"net/http"

	"github.com/aksjeradar/aksjeradar"
)

// DefaultBaseURL is the public chart API host.
const DefaultBaseURL = "https://query1.finance.yahoo.com"

// Client fetches daily candles and quote snapshots. The zero value is not
// usable; use New.
type Client struct {
	// BaseURL can be pointed at a test server.
	BaseURL string

	// history responses are cached on disk with daily expiry; quotes are
	// intraday snapshots and must not be cached.
	cachingClient *http.Client
	liveClient    *http.Client
}

// New returns a client against the public Yahoo Finance API.
func New() *Client {
	return &Client{
		BaseURL:       DefaultBaseURL,
		cachingClient: aksjeradar.NewDailyCachingClient(),
		liveClient:    &http.Client{},
	}
}

var _ aksjeradar.Provider = (*Client)(nil)
