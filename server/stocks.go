package server

import (
	"github.com/aksjeradar/aksjeradar"
	"github.com/go-fuego/fuego"
	"github.com/go-fuego/fuego/option"
)

// stockListing is one row of the listing pages: the instrument plus its
// latest quote, when one is known and the caller's tier may see it.
type stockListing struct {
	aksjeradar.Instrument
	Quote *aksjeradar.Quote `json:"quote,omitempty"`
}

// stockDetails is the detail page payload.
type stockDetails struct {
	aksjeradar.Instrument
	Quote   *aksjeradar.Quote            `json:"quote,omitempty"`
	Summary *aksjeradar.TechnicalSummary `json:"summary,omitempty"`
	Candles []aksjeradar.Candle          `json:"candles,omitempty"`
}

func (s *Server) stockRoutes(srv *fuego.Server) {
	stocks := fuego.Group(srv, "/stocks")

	fuego.Get(stocks, "", s.listStocks,
		option.Description("List all instruments with latest quotes"),
	)
	fuego.Get(stocks, "/list/{category}", s.listCategory,
		option.Description("List instruments of one category: oslo, global, crypto or currency"),
	)
	fuego.Get(stocks, "/search", s.searchStocks,
		option.Description("Search instruments by symbol or name"),
	)
	fuego.Get(stocks, "/details/{symbol}", s.stockDetails,
		option.Description("Quote, technical summary and recent candles of one instrument"),
	)
}

// listing builds the response rows, attaching quotes only for symbols the
// request's tier may see. Demo visitors still see the full instrument list,
// just without live prices outside the sample set.
func (s *Server) listing(c fuego.ContextNoBody, instruments []aksjeradar.Instrument) []stockListing {
	out := make([]stockListing, 0, len(instruments))
	for _, in := range instruments {
		row := stockListing{Instrument: in}
		if demoAllowed(c.Request(), in.Symbol) {
			if q, ok := s.market.Quote(in.Symbol); ok {
				row.Quote = &q
			}
		}
		out = append(out, row)
	}
	return out
}

func (s *Server) listStocks(c fuego.ContextNoBody) ([]stockListing, error) {
	var instruments []aksjeradar.Instrument
	for in := range s.registry.All() {
		instruments = append(instruments, in)
	}
	return s.listing(c, instruments), nil
}

func (s *Server) listCategory(c fuego.ContextNoBody) ([]stockListing, error) {
	category, err := aksjeradar.ParseCategory(c.PathParam("category"))
	if err != nil {
		return nil, fuego.BadRequestError{Title: "Ukjent kategori", Detail: err.Error()}
	}
	return s.listing(c, s.registry.ByCategory(category)), nil
}

func (s *Server) searchStocks(c fuego.ContextNoBody) ([]stockListing, error) {
	query := c.QueryParam("q")
	if query == "" {
		return nil, fuego.BadRequestError{Title: "Søket mangler: bruk ?q="}
	}
	return s.listing(c, s.registry.Search(query)), nil
}

func (s *Server) stockDetails(c fuego.ContextNoBody) (stockDetails, error) {
	symbol, err := aksjeradar.ParseSymbol(c.PathParam("symbol"))
	if err != nil {
		return stockDetails{}, fuego.BadRequestError{Title: "Ugyldig symbol", Detail: err.Error()}
	}
	if !demoAllowed(c.Request(), symbol) {
		return stockDetails{}, fuego.ForbiddenError{
			Title:  "Registrering kreves",
			Detail: "Demobrukere har kun tilgang til et utvalg aksjer. Registrer deg for full tilgang.",
		}
	}
	in, ok := s.registry.Lookup(symbol)
	if !ok {
		return stockDetails{}, fuego.NotFoundError{Title: "Ukjent instrument: " + symbol}
	}

	if _, ok := s.market.Quote(symbol); !ok {
		// First request for this symbol: fetch on demand. A provider failure
		// still leaves a fallback quote behind.
		_ = s.fetcher.RefreshQuotes(s.market, []string{symbol})
	}
	details := stockDetails{Instrument: in}
	if q, ok := s.market.Quote(symbol); ok {
		details.Quote = &q
	}
	if sum, ok := s.summaryFor(symbol); ok {
		details.Summary = &sum
	}
	details.Candles = s.market.Candles(symbol, 90)
	return details, nil
}
