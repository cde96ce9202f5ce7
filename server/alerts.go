package server

import (
	"errors"
	"strconv"

	"github.com/aksjeradar/aksjeradar"
	"github.com/aksjeradar/aksjeradar/store"
	"github.com/go-fuego/fuego"
	"github.com/go-fuego/fuego/option"
	"github.com/shopspring/decimal"
)

type alertRequest struct {
	Symbol     string `json:"symbol"`
	Target     string `json:"target"`    // decimal string
	Condition  string `json:"condition"` // above or below
	NotifyPush bool   `json:"notify_push,omitempty"`
}

func (s *Server) alertRoutes(srv *fuego.Server) {
	alerts := fuego.Group(srv, "/alerts")

	fuego.Get(alerts, "", s.listAlerts,
		option.Description("All price alerts of the user"),
	)
	fuego.Post(alerts, "", s.createAlert,
		option.Description("Arm a price alert (subscribers only)"),
	)
	fuego.Post(alerts, "/{id}/reactivate", s.reactivateAlert,
		option.Description("Re-arm a fired alert (subscribers only)"),
	)
	fuego.Delete(alerts, "/{id}", s.deleteAlert,
		option.Description("Remove a price alert"),
	)
}

func (s *Server) listAlerts(c fuego.ContextNoBody) ([]store.PriceAlert, error) {
	user, err := requireUser(c.Request())
	if err != nil {
		return nil, err
	}
	return s.store.Alerts.ListByUser(user.ID)
}

// Arming alerts is a subscriber feature; listing and deleting stay open to
// any logged-in user so a lapsed subscriber can still clean up.
func (s *Server) createAlert(c fuego.ContextWithBody[alertRequest]) (*store.PriceAlert, error) {
	user, err := requireSubscriber(c.Request())
	if err != nil {
		return nil, err
	}
	body, err := c.Body()
	if err != nil {
		return nil, err
	}
	symbol, err := aksjeradar.ParseSymbol(body.Symbol)
	if err != nil {
		return nil, fuego.BadRequestError{Title: "Ugyldig symbol", Detail: err.Error()}
	}
	cond, err := aksjeradar.ParseAlertCondition(body.Condition)
	if err != nil {
		return nil, fuego.BadRequestError{Title: "Ugyldig betingelse", Detail: err.Error()}
	}
	target, err := decimal.NewFromString(body.Target)
	if err != nil {
		return nil, fuego.BadRequestError{Title: "Ugyldig kursmål", Detail: err.Error()}
	}
	alert, err := s.store.Alerts.Create(user.ID, symbol, target, cond, body.NotifyPush)
	if err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, fuego.ConflictError{Title: "Du har allerede et aktivt varsel for " + symbol}
		}
		return nil, fuego.BadRequestError{Title: "Kan ikke opprette varsel", Detail: err.Error()}
	}
	return alert, nil
}

func (s *Server) reactivateAlert(c fuego.ContextNoBody) (map[string]string, error) {
	user, err := requireSubscriber(c.Request())
	if err != nil {
		return nil, err
	}
	id, err := strconv.ParseUint(c.PathParam("id"), 10, 32)
	if err != nil {
		return nil, fuego.BadRequestError{Title: "Ugyldig id"}
	}
	if err := s.store.Alerts.Reactivate(user.ID, uint(id)); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fuego.NotFoundError{Title: "Varselet finnes ikke"}
		}
		return nil, err
	}
	return map[string]string{"status": "reaktivert"}, nil
}

func (s *Server) deleteAlert(c fuego.ContextNoBody) (map[string]string, error) {
	user, err := requireUser(c.Request())
	if err != nil {
		return nil, err
	}
	id, err := strconv.ParseUint(c.PathParam("id"), 10, 32)
	if err != nil {
		return nil, fuego.BadRequestError{Title: "Ugyldig id"}
	}
	if err := s.store.Alerts.Delete(user.ID, uint(id)); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fuego.NotFoundError{Title: "Varselet finnes ikke"}
		}
		return nil, err
	}
	return map[string]string{"status": "slettet"}, nil
}
