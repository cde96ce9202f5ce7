package server

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"strconv"
	"time"

	"github.com/aksjeradar/aksjeradar"
	"github.com/aksjeradar/aksjeradar/store"
	"github.com/go-fuego/fuego"
	"github.com/go-fuego/fuego/option"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/checkout/session"
	"github.com/stripe/stripe-go/v76/webhook"
)

type checkoutResponse struct {
	URL string `json:"url"` // Stripe-hosted checkout page
}

type subscriptionResponse struct {
	Tier      string     `json:"tier"`
	Status    string     `json:"status,omitempty"`
	PeriodEnd *time.Time `json:"period_end,omitempty"`
}

func (s *Server) billingRoutes(srv *fuego.Server) {
	billing := fuego.Group(srv, "/billing")

	fuego.Get(billing, "/subscription", s.subscriptionStatus,
		option.Description("The user's subscription state"),
	)
	fuego.Post(billing, "/checkout", s.startCheckout,
		option.Description("Open a Stripe Checkout session for the subscriber plan"),
	)
	fuego.Post(billing, "/webhook", s.stripeWebhook,
		option.Description("Stripe event callback"),
	)
}

func (s *Server) subscriptionStatus(c fuego.ContextNoBody) (subscriptionResponse, error) {
	user, err := requireUser(c.Request())
	if err != nil {
		return subscriptionResponse{}, err
	}
	resp := subscriptionResponse{Tier: s.store.Users.TierOf(user.ID, time.Now()).String()}
	if sub, err := s.store.Users.SubscriptionOf(user.ID); err == nil {
		resp.Status = sub.Status
		resp.PeriodEnd = &sub.PeriodEnd
	}
	return resp, nil
}

func (s *Server) startCheckout(c fuego.ContextNoBody) (checkoutResponse, error) {
	user, err := requireUser(c.Request())
	if err != nil {
		return checkoutResponse{}, err
	}
	if s.cfg.StripeKey == "" {
		return checkoutResponse{}, fuego.BadRequestError{Title: "Betaling er ikke konfigurert"}
	}
	if tier := tierOf(c.Request()); tier.AtLeast(aksjeradar.TierSubscriber) {
		return checkoutResponse{}, fuego.ConflictError{Title: "Du har allerede et aktivt abonnement"}
	}

	stripe.Key = s.cfg.StripeKey
	params := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{Price: stripe.String(s.cfg.StripePriceID), Quantity: stripe.Int64(1)},
		},
		CustomerEmail:     stripe.String(user.Email),
		ClientReferenceID: stripe.String(strconv.FormatUint(uint64(user.ID), 10)),
		SuccessURL:        stripe.String(s.cfg.BaseURL + "/abonnement/takk"),
		CancelURL:         stripe.String(s.cfg.BaseURL + "/abonnement"),
	}
	sess, err := session.New(params)
	if err != nil {
		return checkoutResponse{}, fmtStripeError(err)
	}
	return checkoutResponse{URL: sess.URL}, nil
}

// fmtStripeError hides Stripe internals from the client but keeps them in the
// log.
func fmtStripeError(err error) error {
	log.Printf("stripe: %v", err)
	return fuego.BadRequestError{Title: "Betalingstjenesten svarte ikke"}
}

// stripeWebhook verifies and applies Stripe events. Checkout completion links
// the customer to the account; subscription updates and deletions keep the
// local state in sync.
func (s *Server) stripeWebhook(c fuego.ContextNoBody) (map[string]string, error) {
	payload, err := io.ReadAll(io.LimitReader(c.Request().Body, 1<<16))
	if err != nil {
		return nil, fuego.BadRequestError{Title: "cannot read payload"}
	}
	event, err := webhook.ConstructEvent(payload, c.Request().Header.Get("Stripe-Signature"), s.cfg.StripeWebhookSecret)
	if err != nil {
		return nil, fuego.BadRequestError{Title: "invalid signature"}
	}

	switch event.Type {
	case "checkout.session.completed":
		var sess stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
			return nil, fuego.BadRequestError{Title: "malformed checkout session"}
		}
		if err := s.applyCheckout(sess); err != nil {
			return nil, err
		}
	case "customer.subscription.updated", "customer.subscription.deleted":
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			return nil, fuego.BadRequestError{Title: "malformed subscription"}
		}
		if err := s.applySubscription(sub); err != nil {
			return nil, err
		}
	default:
		// Unhandled event types are acknowledged so Stripe stops retrying.
	}
	return map[string]string{"status": "ok"}, nil
}

func (s *Server) applyCheckout(sess stripe.CheckoutSession) error {
	userID, err := strconv.ParseUint(sess.ClientReferenceID, 10, 32)
	if err != nil {
		return fuego.BadRequestError{Title: "checkout session carries no user reference"}
	}
	sub := &store.Subscription{
		UserID: uint(userID),
		Status: "active",
		// The subscription.updated event that follows carries the real
		// period end; a day is enough to bridge the gap.
		PeriodEnd: time.Now().Add(24 * time.Hour),
	}
	if sess.Customer != nil {
		sub.StripeCustomer = sess.Customer.ID
	}
	if sess.Subscription != nil {
		sub.StripeSubscriber = sess.Subscription.ID
	}
	log.Printf("checkout completed for user %d", userID)
	return s.store.Users.UpsertSubscription(sub)
}

func (s *Server) applySubscription(sub stripe.Subscription) error {
	if sub.Customer == nil {
		return fuego.BadRequestError{Title: "subscription carries no customer"}
	}
	row, err := s.store.Users.SubscriptionByCustomer(sub.Customer.ID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// Customer unknown locally; nothing to sync.
			log.Printf("stripe customer %s has no local subscription", sub.Customer.ID)
			return nil
		}
		return err
	}
	row.StripeSubscriber = sub.ID
	row.Status = string(sub.Status)
	row.PeriodEnd = time.Unix(sub.CurrentPeriodEnd, 0)
	log.Printf("subscription for user %d now %s until %s", row.UserID, row.Status, row.PeriodEnd.Format("2006-01-02"))
	return s.store.Users.UpsertSubscription(row)
}
