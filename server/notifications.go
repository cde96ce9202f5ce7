package server

import (
	"errors"
	"strconv"

	"github.com/aksjeradar/aksjeradar/store"
	"github.com/go-fuego/fuego"
	"github.com/go-fuego/fuego/option"
)

func (s *Server) notificationRoutes(srv *fuego.Server) {
	notifications := fuego.Group(srv, "/notifications")

	fuego.Get(notifications, "", s.listNotifications,
		option.Description("Notifications of the user, newest first; ?unread=true narrows to unread"),
	)
	fuego.Post(notifications, "/{id}/read", s.markNotificationRead,
		option.Description("Mark one notification as read"),
	)
	fuego.Post(notifications, "/read-all", s.markAllNotificationsRead,
		option.Description("Mark every notification as read"),
	)
}

func (s *Server) listNotifications(c fuego.ContextNoBody) ([]store.Notification, error) {
	user, err := requireUser(c.Request())
	if err != nil {
		return nil, err
	}
	unreadOnly := c.QueryParam("unread") == "true"
	return s.store.Notifications.List(user.ID, unreadOnly)
}

func (s *Server) markNotificationRead(c fuego.ContextNoBody) (map[string]string, error) {
	user, err := requireUser(c.Request())
	if err != nil {
		return nil, err
	}
	id, err := strconv.ParseUint(c.PathParam("id"), 10, 32)
	if err != nil {
		return nil, fuego.BadRequestError{Title: "Ugyldig id"}
	}
	if err := s.store.Notifications.MarkRead(user.ID, uint(id)); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fuego.NotFoundError{Title: "Varslingen finnes ikke"}
		}
		return nil, err
	}
	return map[string]string{"status": "lest"}, nil
}

func (s *Server) markAllNotificationsRead(c fuego.ContextNoBody) (map[string]string, error) {
	user, err := requireUser(c.Request())
	if err != nil {
		return nil, err
	}
	if err := s.store.Notifications.MarkAllRead(user.ID); err != nil {
		return nil, err
	}
	return map[string]string{"status": "alle lest"}, nil
}
