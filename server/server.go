// Package server exposes the HTTP API of the service: stock listings,
// technical and sentiment analysis, watchlists, favorites, portfolios,
// price alerts, notifications, the forum and the billing endpoints.
package server

import (
	"log"

	"github.com/aksjeradar/aksjeradar"
	"github.com/aksjeradar/aksjeradar/assistant"
	"github.com/aksjeradar/aksjeradar/store"
	"github.com/go-fuego/fuego"
)

// Config carries the runtime settings of the HTTP server.
type Config struct {
	Addr                string // listen address, e.g. ":8080"
	BaseURL             string // public URL for redirects, e.g. "https://aksjeradar.trade"
	StripeKey           string // secret API key; empty disables billing
	StripePriceID       string // price of the subscriber plan
	StripeWebhookSecret string
}

// Server wires the domain services into HTTP resources.
type Server struct {
	cfg       Config
	store     *store.Store
	market    *aksjeradar.MarketData
	fetcher   *aksjeradar.Fetcher
	registry  *aksjeradar.Registry
	assistant *assistant.Assistant

	stream *streamHub
}

// New assembles the server. assistant may be nil (rule-based sentiment).
func New(cfg Config, st *store.Store, market *aksjeradar.MarketData, fetcher *aksjeradar.Fetcher, registry *aksjeradar.Registry, ai *assistant.Assistant) *Server {
	return &Server{
		cfg:       cfg,
		store:     st,
		market:    market,
		fetcher:   fetcher,
		registry:  registry,
		assistant: ai,
		stream:    newStreamHub(),
	}
}

// Setup builds the fuego server with all route groups registered.
func (s *Server) Setup() *fuego.Server {
	srv := fuego.NewServer(fuego.WithAddr(s.cfg.Addr))

	// Session resolution runs on every request; handlers read the user
	// and tier from the request context.
	fuego.Use(srv, s.sessionMiddleware)

	s.authRoutes(srv)
	s.stockRoutes(srv)
	s.analysisRoutes(srv)
	s.watchlistRoutes(srv)
	s.portfolioRoutes(srv)
	s.alertRoutes(srv)
	s.notificationRoutes(srv)
	s.forumRoutes(srv)
	s.billingRoutes(srv)
	s.streamRoutes(srv)

	return srv
}

// Run starts the HTTP server and blocks.
func (s *Server) Run() error {
	log.Printf("listening on %s", s.cfg.Addr)
	return s.Setup().Run()
}

// BroadcastQuotes pushes fresh quotes to websocket subscribers; the serve
// command calls it after each quote refresh.
func (s *Server) BroadcastQuotes(symbols []string) {
	for _, symbol := range symbols {
		if q, ok := s.market.Quote(symbol); ok {
			s.stream.broadcast(q)
		}
	}
}
