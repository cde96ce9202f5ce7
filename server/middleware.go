package server

import (
	"context"
	"net/http"
	"time"

	"github.com/aksjeradar/aksjeradar"
	"github.com/aksjeradar/aksjeradar/store"
	"github.com/go-fuego/fuego"
)

// sessionCookie is the name of the login cookie; its value is the session
// token issued at login.
const sessionCookie = "aksjeradar_session"

type contextKey int

const (
	userKey contextKey = iota
	tierKey
)

// sessionMiddleware resolves the session cookie to a user and an access
// tier, and stores both in the request context. Anonymous requests proceed
// with the demo tier.
func (s *Server) sessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tier := aksjeradar.TierDemo
		var user *store.User

		if cookie, err := r.Cookie(sessionCookie); err == nil && cookie.Value != "" {
			if u, err := s.store.Users.BySession(cookie.Value, time.Now()); err == nil {
				user = u
				tier = s.store.Users.TierOf(u.ID, time.Now())
			}
		}

		ctx := context.WithValue(r.Context(), userKey, user)
		ctx = context.WithValue(ctx, tierKey, tier)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// userOf returns the logged-in user of a request, or nil.
func userOf(r *http.Request) *store.User {
	u, _ := r.Context().Value(userKey).(*store.User)
	return u
}

// tierOf returns the access tier of a request.
func tierOf(r *http.Request) aksjeradar.Tier {
	t, ok := r.Context().Value(tierKey).(aksjeradar.Tier)
	if !ok {
		return aksjeradar.TierDemo
	}
	return t
}

// requireUser returns the logged-in user or an unauthorized error.
func requireUser(r *http.Request) (*store.User, error) {
	u := userOf(r)
	if u == nil {
		return nil, fuego.UnauthorizedError{Title: "Innlogging kreves"}
	}
	return u, nil
}

// requireSubscriber returns the user if the request carries subscriber tier.
func requireSubscriber(r *http.Request) (*store.User, error) {
	u, err := requireUser(r)
	if err != nil {
		return nil, err
	}
	if !tierOf(r).AtLeast(aksjeradar.TierSubscriber) {
		return nil, fuego.ForbiddenError{
			Title:  "Abonnement kreves",
			Detail: "Denne funksjonen krever aktivt abonnement.",
		}
	}
	return u, nil
}

// demoAllowed reports whether a symbol may be served to the request: any
// symbol for registered users, the sample whitelist for the demo tier.
func demoAllowed(r *http.Request, symbol string) bool {
	if tierOf(r).AtLeast(aksjeradar.TierRegistered) {
		return true
	}
	return aksjeradar.IsDemoSymbol(symbol)
}
