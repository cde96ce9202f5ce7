package server

import (
	"errors"
	"strconv"

	"github.com/aksjeradar/aksjeradar"
	"github.com/aksjeradar/aksjeradar/date"
	"github.com/aksjeradar/aksjeradar/store"
	"github.com/go-fuego/fuego"
	"github.com/go-fuego/fuego/option"
	"github.com/shopspring/decimal"
)

// entryRequest is a portfolio event as posted by the client. Quantities and
// amounts travel as strings and are parsed into exact decimals.
type entryRequest struct {
	Kind     string `json:"kind"` // buy, sell, deposit, withdraw, dividend
	Symbol   string `json:"symbol,omitempty"`
	Quantity string `json:"quantity,omitempty"`
	Price    string `json:"price,omitempty"`
	Amount   string `json:"amount,omitempty"`
	Currency string `json:"currency"`
	Date     string `json:"date"` // YYYY-MM-DD
}

type entryResponse struct {
	ID uint `json:"id"`
	aksjeradar.PortfolioEntry
}

func (s *Server) portfolioRoutes(srv *fuego.Server) {
	portfolio := fuego.Group(srv, "/portfolio")

	fuego.Get(portfolio, "", s.valuation,
		option.Description("Positions, cash and total value in NOK"),
	)
	fuego.Get(portfolio, "/entries", s.listEntries,
		option.Description("All recorded portfolio events"),
	)
	fuego.Post(portfolio, "/entries", s.addEntry,
		option.Description("Record a buy, sell, deposit, withdrawal or dividend"),
	)
	fuego.Delete(portfolio, "/entries/{id}", s.deleteEntry,
		option.Description("Remove a portfolio event"),
	)
}

func (r entryRequest) domain() (aksjeradar.PortfolioEntry, error) {
	kind, err := aksjeradar.ParseEntryKind(r.Kind)
	if err != nil {
		return aksjeradar.PortfolioEntry{}, err
	}
	e := aksjeradar.PortfolioEntry{Kind: kind, Currency: r.Currency}
	if r.Symbol != "" {
		if e.Symbol, err = aksjeradar.ParseSymbol(r.Symbol); err != nil {
			return aksjeradar.PortfolioEntry{}, err
		}
	}
	dec := func(s string) (decimal.Decimal, error) {
		if s == "" {
			return decimal.Zero, nil
		}
		return decimal.NewFromString(s)
	}
	if e.Quantity, err = dec(r.Quantity); err != nil {
		return aksjeradar.PortfolioEntry{}, err
	}
	if e.Price, err = dec(r.Price); err != nil {
		return aksjeradar.PortfolioEntry{}, err
	}
	if e.Amount, err = dec(r.Amount); err != nil {
		return aksjeradar.PortfolioEntry{}, err
	}
	if e.Date, err = date.Parse(r.Date); err != nil {
		return aksjeradar.PortfolioEntry{}, err
	}
	return e, e.Validate()
}

func (s *Server) valuation(c fuego.ContextNoBody) (aksjeradar.Valuation, error) {
	user, err := requireUser(c.Request())
	if err != nil {
		return aksjeradar.Valuation{}, err
	}
	entries, err := s.store.Portfolio.ListByUser(user.ID)
	if err != nil {
		return aksjeradar.Valuation{}, err
	}
	v, err := aksjeradar.ValuePortfolio(entries, s.market)
	if err != nil {
		return aksjeradar.Valuation{}, fuego.BadRequestError{Title: "Kan ikke verdsette porteføljen", Detail: err.Error()}
	}
	return v, nil
}

func (s *Server) listEntries(c fuego.ContextNoBody) ([]aksjeradar.PortfolioEntry, error) {
	user, err := requireUser(c.Request())
	if err != nil {
		return nil, err
	}
	return s.store.Portfolio.ListByUser(user.ID)
}

func (s *Server) addEntry(c fuego.ContextWithBody[entryRequest]) (entryResponse, error) {
	user, err := requireUser(c.Request())
	if err != nil {
		return entryResponse{}, err
	}
	body, err := c.Body()
	if err != nil {
		return entryResponse{}, err
	}
	entry, err := body.domain()
	if err != nil {
		return entryResponse{}, fuego.BadRequestError{Title: "Ugyldig hendelse", Detail: err.Error()}
	}
	row, err := s.store.Portfolio.Add(user.ID, entry)
	if err != nil {
		return entryResponse{}, err
	}
	return entryResponse{ID: row.ID, PortfolioEntry: entry}, nil
}

func (s *Server) deleteEntry(c fuego.ContextNoBody) (map[string]string, error) {
	user, err := requireUser(c.Request())
	if err != nil {
		return nil, err
	}
	id, err := strconv.ParseUint(c.PathParam("id"), 10, 32)
	if err != nil {
		return nil, fuego.BadRequestError{Title: "Ugyldig id"}
	}
	if err := s.store.Portfolio.Delete(user.ID, uint(id)); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fuego.NotFoundError{Title: "Hendelsen finnes ikke"}
		}
		return nil, err
	}
	return map[string]string{"status": "slettet"}, nil
}
