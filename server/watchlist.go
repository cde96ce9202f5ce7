package server

import (
	"errors"

	"github.com/aksjeradar/aksjeradar"
	"github.com/aksjeradar/aksjeradar/store"
	"github.com/go-fuego/fuego"
	"github.com/go-fuego/fuego/option"
)

type watchlistRequest struct {
	Symbol string `json:"symbol"`
	Note   string `json:"note,omitempty"`
}

// watchlistRow is a watchlist item joined with its latest quote.
type watchlistRow struct {
	Symbol string            `json:"symbol"`
	Name   string            `json:"name,omitempty"`
	Note   string            `json:"note,omitempty"`
	Quote  *aksjeradar.Quote `json:"quote,omitempty"`
}

type favoriteResponse struct {
	Symbol    string `json:"symbol"`
	Favorited bool   `json:"favorited"`
}

func (s *Server) watchlistRoutes(srv *fuego.Server) {
	watchlist := fuego.Group(srv, "/watchlist")

	fuego.Get(watchlist, "", s.listWatchlist,
		option.Description("The user's watchlist with latest quotes"),
	)
	fuego.Post(watchlist, "", s.addToWatchlist,
		option.Description("Put a symbol on the watchlist"),
	)
	fuego.Post(watchlist, "/note", s.setWatchlistNote,
		option.Description("Update the note on a watchlist item"),
	)
	fuego.Delete(watchlist, "/{symbol}", s.removeFromWatchlist,
		option.Description("Take a symbol off the watchlist"),
	)

	favorites := fuego.Group(srv, "/favorites")

	fuego.Get(favorites, "", s.listFavorites,
		option.Description("The user's favorite symbols"),
	)
	fuego.Post(favorites, "/toggle/{symbol}", s.toggleFavorite,
		option.Description("Toggle the favorite star on a symbol"),
	)
}

func (s *Server) listWatchlist(c fuego.ContextNoBody) ([]watchlistRow, error) {
	user, err := requireUser(c.Request())
	if err != nil {
		return nil, err
	}
	items, err := s.store.Watchlist.List(user.ID)
	if err != nil {
		return nil, err
	}
	out := make([]watchlistRow, 0, len(items))
	for _, item := range items {
		row := watchlistRow{Symbol: item.Symbol, Note: item.Note}
		if in, ok := s.registry.Lookup(item.Symbol); ok {
			row.Name = in.Name
		}
		if q, ok := s.market.Quote(item.Symbol); ok {
			row.Quote = &q
		}
		out = append(out, row)
	}
	return out, nil
}

func (s *Server) addToWatchlist(c fuego.ContextWithBody[watchlistRequest]) (watchlistRow, error) {
	user, err := requireUser(c.Request())
	if err != nil {
		return watchlistRow{}, err
	}
	body, err := c.Body()
	if err != nil {
		return watchlistRow{}, err
	}
	symbol, err := aksjeradar.ParseSymbol(body.Symbol)
	if err != nil {
		return watchlistRow{}, fuego.BadRequestError{Title: "Ugyldig symbol", Detail: err.Error()}
	}
	if err := s.store.Watchlist.Add(user.ID, symbol, body.Note); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return watchlistRow{}, fuego.ConflictError{Title: symbol + " er allerede på listen"}
		}
		return watchlistRow{}, err
	}
	row := watchlistRow{Symbol: symbol, Note: body.Note}
	if in, ok := s.registry.Lookup(symbol); ok {
		row.Name = in.Name
	}
	return row, nil
}

func (s *Server) setWatchlistNote(c fuego.ContextWithBody[watchlistRequest]) (watchlistRow, error) {
	user, err := requireUser(c.Request())
	if err != nil {
		return watchlistRow{}, err
	}
	body, err := c.Body()
	if err != nil {
		return watchlistRow{}, err
	}
	symbol, err := aksjeradar.ParseSymbol(body.Symbol)
	if err != nil {
		return watchlistRow{}, fuego.BadRequestError{Title: "Ugyldig symbol", Detail: err.Error()}
	}
	if err := s.store.Watchlist.SetNote(user.ID, symbol, body.Note); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return watchlistRow{}, fuego.NotFoundError{Title: symbol + " står ikke på listen"}
		}
		return watchlistRow{}, err
	}
	return watchlistRow{Symbol: symbol, Note: body.Note}, nil
}

func (s *Server) removeFromWatchlist(c fuego.ContextNoBody) (map[string]string, error) {
	user, err := requireUser(c.Request())
	if err != nil {
		return nil, err
	}
	symbol, err := aksjeradar.ParseSymbol(c.PathParam("symbol"))
	if err != nil {
		return nil, fuego.BadRequestError{Title: "Ugyldig symbol", Detail: err.Error()}
	}
	if err := s.store.Watchlist.Remove(user.ID, symbol); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fuego.NotFoundError{Title: symbol + " står ikke på listen"}
		}
		return nil, err
	}
	return map[string]string{"status": "fjernet"}, nil
}

func (s *Server) listFavorites(c fuego.ContextNoBody) ([]watchlistRow, error) {
	user, err := requireUser(c.Request())
	if err != nil {
		return nil, err
	}
	favorites, err := s.store.Favorites.List(user.ID)
	if err != nil {
		return nil, err
	}
	out := make([]watchlistRow, 0, len(favorites))
	for _, f := range favorites {
		row := watchlistRow{Symbol: f.Symbol, Name: f.Name}
		if q, ok := s.market.Quote(f.Symbol); ok {
			row.Quote = &q
		}
		out = append(out, row)
	}
	return out, nil
}

func (s *Server) toggleFavorite(c fuego.ContextNoBody) (favoriteResponse, error) {
	user, err := requireUser(c.Request())
	if err != nil {
		return favoriteResponse{}, err
	}
	symbol, err := aksjeradar.ParseSymbol(c.PathParam("symbol"))
	if err != nil {
		return favoriteResponse{}, fuego.BadRequestError{Title: "Ugyldig symbol", Detail: err.Error()}
	}
	name := symbol
	if in, ok := s.registry.Lookup(symbol); ok {
		name = in.Name
	}
	favorited, err := s.store.Favorites.Toggle(user.ID, symbol, name)
	if err != nil {
		return favoriteResponse{}, err
	}
	return favoriteResponse{Symbol: symbol, Favorited: favorited}, nil
}
