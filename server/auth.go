package server

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/aksjeradar/aksjeradar"
	"github.com/aksjeradar/aksjeradar/store"
	"github.com/go-fuego/fuego"
	"github.com/go-fuego/fuego/option"
	"golang.org/x/crypto/bcrypt"
)

type registerRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sessionResponse struct {
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	Tier        string `json:"tier"`
}

type telegramRequest struct {
	ChatID int64 `json:"chat_id"` // 0 unlinks
}

func (s *Server) authRoutes(srv *fuego.Server) {
	auth := fuego.Group(srv, "/auth")

	fuego.Post(auth, "/register", s.register,
		option.Description("Create an account"),
	)
	fuego.Post(auth, "/login", s.login,
		option.Description("Log in and receive a session cookie"),
	)
	fuego.Post(auth, "/logout", s.logout,
		option.Description("Invalidate the current session"),
	)
	fuego.Get(auth, "/me", s.me,
		option.Description("Describe the current session"),
	)
	fuego.Put(auth, "/telegram", s.linkTelegram,
		option.Description("Link a Telegram chat id for push alerts; 0 unlinks"),
	)
}

func (s *Server) register(c fuego.ContextWithBody[registerRequest]) (sessionResponse, error) {
	body, err := c.Body()
	if err != nil {
		return sessionResponse{}, err
	}
	email := strings.ToLower(strings.TrimSpace(body.Email))
	if email == "" || !strings.Contains(email, "@") {
		return sessionResponse{}, fuego.BadRequestError{Title: "Ugyldig e-postadresse"}
	}
	if len(body.Password) < 8 {
		return sessionResponse{}, fuego.BadRequestError{Title: "Passordet må ha minst 8 tegn"}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(body.Password), bcrypt.DefaultCost)
	if err != nil {
		return sessionResponse{}, err
	}
	user, err := s.store.Users.Create(email, string(hash), strings.TrimSpace(body.DisplayName))
	if err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return sessionResponse{}, fuego.ConflictError{Title: "E-postadressen er allerede registrert"}
		}
		return sessionResponse{}, err
	}

	if err := s.openSession(c.Response(), user.ID); err != nil {
		return sessionResponse{}, err
	}
	return sessionResponse{Email: user.Email, DisplayName: user.DisplayName, Tier: aksjeradar.TierRegistered.String()}, nil
}

func (s *Server) login(c fuego.ContextWithBody[loginRequest]) (sessionResponse, error) {
	body, err := c.Body()
	if err != nil {
		return sessionResponse{}, err
	}
	email := strings.ToLower(strings.TrimSpace(body.Email))
	user, err := s.store.Users.ByEmail(email)
	if err != nil {
		// Same answer for unknown email and wrong password.
		return sessionResponse{}, fuego.UnauthorizedError{Title: "Feil e-post eller passord"}
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(body.Password)) != nil {
		return sessionResponse{}, fuego.UnauthorizedError{Title: "Feil e-post eller passord"}
	}

	if err := s.openSession(c.Response(), user.ID); err != nil {
		return sessionResponse{}, err
	}
	tier := s.store.Users.TierOf(user.ID, time.Now())
	return sessionResponse{Email: user.Email, DisplayName: user.DisplayName, Tier: tier.String()}, nil
}

// openSession creates a session row and sets the cookie on the response.
func (s *Server) openSession(w http.ResponseWriter, userID uint) error {
	token, err := s.store.Users.CreateSession(userID, time.Now())
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Expires:  time.Now().Add(store.SessionTTL),
	})
	return nil
}

func (s *Server) logout(c fuego.ContextNoBody) (map[string]string, error) {
	if cookie, err := c.Request().Cookie(sessionCookie); err == nil && cookie.Value != "" {
		if err := s.store.Users.DeleteSession(cookie.Value); err != nil {
			return nil, err
		}
	}
	http.SetCookie(c.Response(), &http.Cookie{
		Name: sessionCookie, Value: "", Path: "/", MaxAge: -1,
	})
	return map[string]string{"status": "logget ut"}, nil
}

// linkTelegram stores the chat id the bot told the user. The alert sweep and
// the daily summary push to it from then on.
func (s *Server) linkTelegram(c fuego.ContextWithBody[telegramRequest]) (map[string]string, error) {
	user, err := requireUser(c.Request())
	if err != nil {
		return nil, err
	}
	body, err := c.Body()
	if err != nil {
		return nil, err
	}
	if err := s.store.Users.SetTelegramChatID(user.ID, body.ChatID); err != nil {
		return nil, err
	}
	if body.ChatID == 0 {
		return map[string]string{"status": "frakoblet"}, nil
	}
	return map[string]string{"status": "koblet"}, nil
}

func (s *Server) me(c fuego.ContextNoBody) (sessionResponse, error) {
	user, err := requireUser(c.Request())
	if err != nil {
		return sessionResponse{}, err
	}
	tier := s.store.Users.TierOf(user.ID, time.Now())
	return sessionResponse{Email: user.Email, DisplayName: user.DisplayName, Tier: tier.String()}, nil
}
