package server

import (
	"github.com/aksjeradar/aksjeradar"
	"github.com/aksjeradar/aksjeradar/assistant"
	"github.com/aksjeradar/aksjeradar/date"
	"github.com/go-fuego/fuego"
	"github.com/go-fuego/fuego/option"
)

func (s *Server) analysisRoutes(srv *fuego.Server) {
	analysis := fuego.Group(srv, "/analysis")

	fuego.Get(analysis, "/technical/{symbol}", s.technical,
		option.Description("RSI, MACD, moving averages and Bollinger bands"),
	)
	fuego.Get(analysis, "/sentiment/{symbol}", s.sentiment,
		option.Description("Market commentary for subscribers"),
	)
}

// analyzed resolves a symbol to its technical summary, warming the candle
// history on first request.
func (s *Server) analyzed(c fuego.ContextNoBody) (aksjeradar.TechnicalSummary, error) {
	symbol, err := aksjeradar.ParseSymbol(c.PathParam("symbol"))
	if err != nil {
		return aksjeradar.TechnicalSummary{}, fuego.BadRequestError{Title: "Ugyldig symbol", Detail: err.Error()}
	}
	if !demoAllowed(c.Request(), symbol) {
		return aksjeradar.TechnicalSummary{}, fuego.ForbiddenError{
			Title:  "Registrering kreves",
			Detail: "Demobrukere har kun tilgang til et utvalg aksjer. Registrer deg for full tilgang.",
		}
	}
	sum, ok := s.summaryFor(symbol)
	if !ok {
		return aksjeradar.TechnicalSummary{}, fuego.NotFoundError{Title: "Ingen kursdata for " + symbol}
	}
	return sum, nil
}

// summaryFor computes the technical summary of a symbol, warming the candle
// history on first request.
func (s *Server) summaryFor(symbol string) (aksjeradar.TechnicalSummary, bool) {
	if s.market.HistoryLen(symbol) == 0 {
		// A provider failure still leaves synthetic history behind.
		_ = s.fetcher.RefreshHistory(s.market, []string{symbol}, date.Today().Add(-120), date.Today())
	}
	return s.market.Analyze(symbol)
}

func (s *Server) technical(c fuego.ContextNoBody) (aksjeradar.TechnicalSummary, error) {
	return s.analyzed(c)
}

func (s *Server) sentiment(c fuego.ContextNoBody) (assistant.Commentary, error) {
	if _, err := requireSubscriber(c.Request()); err != nil {
		return assistant.Commentary{}, err
	}
	sum, err := s.analyzed(c)
	if err != nil {
		return assistant.Commentary{}, err
	}
	return s.assistant.Commentary(c.Request().Context(), sum), nil
}
