package store

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/aksjeradar/aksjeradar"
	"github.com/aksjeradar/aksjeradar/date"
	"github.com/shopspring/decimal"
)

func openTest(t *testing.T) *Store {
	t.Helper()
	st, err := Open(":memory:")
	if err != nil {
		t.Fatalf("cannot open in-memory store: %v", err)
	}
	return st
}

func mustUser(t *testing.T, st *Store, email string) *User {
	t.Helper()
	u, err := st.Users.Create(email, "hash", "Test")
	if err != nil {
		t.Fatalf("cannot create user %s: %v", email, err)
	}
	return u
}

func TestConstraintViolationMapsToErrDuplicate(t *testing.T) {
	st := openTest(t)
	u := mustUser(t, st, "kari@example.no")

	// A racing insert that slips past a repo's Count pre-check hits the
	// unique index directly; it must still come back as ErrDuplicate.
	if err := st.db.Create(&Favorite{UserID: u.ID, Symbol: "EQNR.OL"}).Error; err != nil {
		t.Fatal(err)
	}
	err := wrap(st.db.Create(&Favorite{UserID: u.ID, Symbol: "EQNR.OL"}).Error)
	if !errors.Is(err, ErrDuplicate) {
		t.Errorf("raced duplicate insert err = %v, want ErrDuplicate", err)
	}
}

func TestSetTelegramChatID(t *testing.T) {
	st := openTest(t)
	u := mustUser(t, st, "kari@example.no")
	if u.TelegramChatID != 0 {
		t.Fatalf("fresh user has chat id %d", u.TelegramChatID)
	}

	if err := st.Users.SetTelegramChatID(u.ID, 4242); err != nil {
		t.Fatal(err)
	}
	got, err := st.Users.ByID(u.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.TelegramChatID != 4242 {
		t.Errorf("chat id = %d, want 4242", got.TelegramChatID)
	}

	// Zero unlinks.
	if err := st.Users.SetTelegramChatID(u.ID, 0); err != nil {
		t.Fatal(err)
	}
	if got, _ := st.Users.ByID(u.ID); got.TelegramChatID != 0 {
		t.Errorf("chat id after unlink = %d, want 0", got.TelegramChatID)
	}
}

func TestUserCreateDuplicate(t *testing.T) {
	st := openTest(t)
	mustUser(t, st, "kari@example.no")
	if _, err := st.Users.Create("kari@example.no", "other", "Kari"); !errors.Is(err, ErrDuplicate) {
		t.Errorf("duplicate email err = %v, want ErrDuplicate", err)
	}
}

func TestSessionLifecycle(t *testing.T) {
	st := openTest(t)
	u := mustUser(t, st, "kari@example.no")
	now := time.Date(2025, time.March, 14, 9, 0, 0, 0, time.UTC)

	token, err := st.Users.CreateSession(u.ID, now)
	if err != nil {
		t.Fatal(err)
	}
	got, err := st.Users.BySession(token, now.Add(time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	if got.ID != u.ID || got.Email != u.Email {
		t.Errorf("session resolved to %+v, want user %d", got, u.ID)
	}

	// Past the TTL the session counts as gone.
	if _, err := st.Users.BySession(token, now.Add(SessionTTL+time.Hour)); !errors.Is(err, ErrNotFound) {
		t.Errorf("expired session err = %v, want ErrNotFound", err)
	}

	if err := st.Users.DeleteSession(token); err != nil {
		t.Fatal(err)
	}
	if _, err := st.Users.BySession(token, now); !errors.Is(err, ErrNotFound) {
		t.Errorf("deleted session err = %v, want ErrNotFound", err)
	}
}

func TestFavoritesToggle(t *testing.T) {
	st := openTest(t)
	u := mustUser(t, st, "kari@example.no")

	on, err := st.Favorites.Toggle(u.ID, "EQNR.OL", "Equinor")
	if err != nil || !on {
		t.Fatalf("first toggle = %v, %v; want favorited", on, err)
	}
	if err := st.Favorites.Add(u.ID, "EQNR.OL", "Equinor"); !errors.Is(err, ErrDuplicate) {
		t.Errorf("second add err = %v, want ErrDuplicate", err)
	}
	off, err := st.Favorites.Toggle(u.ID, "EQNR.OL", "Equinor")
	if err != nil || off {
		t.Fatalf("second toggle = %v, %v; want unfavorited", off, err)
	}
	list, err := st.Favorites.List(u.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 0 {
		t.Errorf("got %d favorites after toggle off, want 0", len(list))
	}
}

func TestFavoritesArePerUser(t *testing.T) {
	st := openTest(t)
	a := mustUser(t, st, "a@example.no")
	b := mustUser(t, st, "b@example.no")

	if err := st.Favorites.Add(a.ID, "EQNR.OL", "Equinor"); err != nil {
		t.Fatal(err)
	}
	// The same symbol is a fresh favorite for another user.
	if err := st.Favorites.Add(b.ID, "EQNR.OL", "Equinor"); err != nil {
		t.Errorf("second user's favorite rejected: %v", err)
	}
}

func TestWatchlist(t *testing.T) {
	st := openTest(t)
	u := mustUser(t, st, "kari@example.no")

	if err := st.Watchlist.Add(u.ID, "EQNR.OL", "olje"); err != nil {
		t.Fatal(err)
	}
	if err := st.Watchlist.Add(u.ID, "EQNR.OL", ""); !errors.Is(err, ErrDuplicate) {
		t.Errorf("duplicate watchlist err = %v, want ErrDuplicate", err)
	}
	if err := st.Watchlist.SetNote(u.ID, "EQNR.OL", "kjøp under 300"); err != nil {
		t.Fatal(err)
	}
	if err := st.Watchlist.SetNote(u.ID, "DNB.OL", "x"); !errors.Is(err, ErrNotFound) {
		t.Errorf("note on missing item err = %v, want ErrNotFound", err)
	}

	list, err := st.Watchlist.List(u.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 || list[0].Note != "kjøp under 300" {
		t.Errorf("watchlist = %+v", list)
	}

	if err := st.Watchlist.Remove(u.ID, "EQNR.OL"); err != nil {
		t.Fatal(err)
	}
	if err := st.Watchlist.Remove(u.ID, "EQNR.OL"); !errors.Is(err, ErrNotFound) {
		t.Errorf("second remove err = %v, want ErrNotFound", err)
	}
}

func TestWatchlistSymbolsDeduplicated(t *testing.T) {
	st := openTest(t)
	a := mustUser(t, st, "a@example.no")
	b := mustUser(t, st, "b@example.no")
	st.Watchlist.Add(a.ID, "EQNR.OL", "")
	st.Watchlist.Add(b.ID, "EQNR.OL", "")
	st.Watchlist.Add(b.ID, "DNB.OL", "")

	symbols, err := st.Watchlist.Symbols()
	if err != nil {
		t.Fatal(err)
	}
	if len(symbols) != 2 {
		t.Errorf("symbols = %v, want DNB.OL and EQNR.OL once each", symbols)
	}
}

func TestAlertFiresAtMostOnce(t *testing.T) {
	st := openTest(t)
	u := mustUser(t, st, "kari@example.no")

	a, err := st.Alerts.Create(u.ID, "EQNR.OL", decimal.RequireFromString("300"), aksjeradar.AlertAbove, false)
	if err != nil {
		t.Fatal(err)
	}

	// A second active above-alert on the same symbol is refused.
	if _, err := st.Alerts.Create(u.ID, "EQNR.OL", decimal.RequireFromString("320"), aksjeradar.AlertAbove, false); !errors.Is(err, ErrDuplicate) {
		t.Errorf("duplicate alert err = %v, want ErrDuplicate", err)
	}
	// The opposite direction is a separate alert.
	if _, err := st.Alerts.Create(u.ID, "EQNR.OL", decimal.RequireFromString("250"), aksjeradar.AlertBelow, false); err != nil {
		t.Errorf("below alert rejected: %v", err)
	}

	now := time.Now()
	won, err := st.Alerts.MarkTriggered(a.ID, now)
	if err != nil || !won {
		t.Fatalf("first trigger = %v, %v; want won", won, err)
	}
	// A concurrent sweep loses the race.
	won, err = st.Alerts.MarkTriggered(a.ID, now)
	if err != nil || won {
		t.Fatalf("second trigger = %v, %v; want lost", won, err)
	}

	active, err := st.Alerts.ListActive()
	if err != nil {
		t.Fatal(err)
	}
	if len(active) != 1 {
		t.Errorf("got %d active alerts, want only the below alert", len(active))
	}

	// Re-arming brings it back into the sweep.
	if err := st.Alerts.Reactivate(u.ID, a.ID); err != nil {
		t.Fatal(err)
	}
	if active, _ := st.Alerts.ListActive(); len(active) != 2 {
		t.Errorf("got %d active alerts after reactivate, want 2", len(active))
	}
}

func TestAlertCreateRejectsNonPositiveTarget(t *testing.T) {
	st := openTest(t)
	u := mustUser(t, st, "kari@example.no")
	if _, err := st.Alerts.Create(u.ID, "EQNR.OL", decimal.Zero, aksjeradar.AlertAbove, false); err == nil {
		t.Error("zero target must be rejected")
	}
}

func TestAlertDeleteScopedToOwner(t *testing.T) {
	st := openTest(t)
	owner := mustUser(t, st, "a@example.no")
	other := mustUser(t, st, "b@example.no")

	a, err := st.Alerts.Create(owner.ID, "EQNR.OL", decimal.RequireFromString("300"), aksjeradar.AlertAbove, false)
	if err != nil {
		t.Fatal(err)
	}
	if err := st.Alerts.Delete(other.ID, a.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("foreign delete err = %v, want ErrNotFound", err)
	}
	if err := st.Alerts.Delete(owner.ID, a.ID); err != nil {
		t.Errorf("owner delete: %v", err)
	}
}

func TestPortfolioRoundTrip(t *testing.T) {
	st := openTest(t)
	u := mustUser(t, st, "kari@example.no")

	entry := aksjeradar.PortfolioEntry{
		Kind:     aksjeradar.EntryBuy,
		Symbol:   "EQNR.OL",
		Quantity: decimal.RequireFromString("10.5"),
		Price:    decimal.RequireFromString("250.25"),
		Currency: "NOK",
		Date:     date.New(2025, time.March, 14),
	}
	row, err := st.Portfolio.Add(u.ID, entry)
	if err != nil {
		t.Fatal(err)
	}

	entries, err := st.Portfolio.ListByUser(u.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}
	got := entries[0]
	if got.Kind != entry.Kind || got.Symbol != entry.Symbol || !got.Quantity.Equal(entry.Quantity) ||
		!got.Price.Equal(entry.Price) || got.Date != entry.Date {
		t.Errorf("round trip changed the entry: %+v vs %+v", got, entry)
	}

	if err := st.Portfolio.Delete(u.ID, row.ID); err != nil {
		t.Fatal(err)
	}
	if entries, _ := st.Portfolio.ListByUser(u.ID); len(entries) != 0 {
		t.Errorf("got %d entries after delete, want 0", len(entries))
	}
}

func TestPortfolioAddValidates(t *testing.T) {
	st := openTest(t)
	u := mustUser(t, st, "kari@example.no")
	bad := aksjeradar.PortfolioEntry{Kind: aksjeradar.EntryBuy, Currency: "NOK", Date: date.New(2025, time.March, 14)}
	if _, err := st.Portfolio.Add(u.ID, bad); err == nil {
		t.Error("invalid entry must be rejected before hitting the database")
	}
}

func TestNotifications(t *testing.T) {
	st := openTest(t)
	u := mustUser(t, st, "kari@example.no")

	payload := map[string]any{"symbol": "EQNR.OL", "price": 310.5}
	n, err := st.Notifications.Create(u.ID, "Prisvarsel: EQNR.OL", "EQNR.OL er over 300", payload)
	if err != nil {
		t.Fatal(err)
	}
	if len(n.Data) == 0 {
		t.Error("payload was not stored")
	}
	st.Notifications.Create(u.ID, "Annet", "tekst", nil)

	unread, err := st.Notifications.List(u.ID, true)
	if err != nil {
		t.Fatal(err)
	}
	if len(unread) != 2 {
		t.Fatalf("got %d unread, want 2", len(unread))
	}

	if err := st.Notifications.MarkRead(u.ID, n.ID); err != nil {
		t.Fatal(err)
	}
	if unread, _ := st.Notifications.List(u.ID, true); len(unread) != 1 {
		t.Errorf("got %d unread after marking one, want 1", len(unread))
	}
	if err := st.Notifications.MarkAllRead(u.ID); err != nil {
		t.Fatal(err)
	}
	if unread, _ := st.Notifications.List(u.ID, true); len(unread) != 0 {
		t.Errorf("unread remain after MarkAllRead")
	}
	if all, _ := st.Notifications.List(u.ID, false); len(all) != 2 {
		t.Errorf("read notifications disappeared from the full list")
	}
}

func TestForumPostRendersMarkdown(t *testing.T) {
	st := openTest(t)
	u := mustUser(t, st, "kari@example.no")

	p, err := st.Forum.Create(u.ID, "Kari", "Equinor Q3", "**Gode tall** i dag.")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(p.BodyHTML, "<strong>Gode tall</strong>") {
		t.Errorf("rendered body = %q", p.BodyHTML)
	}

	if _, err := st.Forum.Create(u.ID, "Kari", "", "body"); err == nil {
		t.Error("post without title must be rejected")
	}

	got, err := st.Forum.Get(p.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Title != "Equinor Q3" {
		t.Errorf("Get returned %+v", got)
	}
	if _, err := st.Forum.Get(9999); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing post err = %v, want ErrNotFound", err)
	}
}

func TestTierOf(t *testing.T) {
	st := openTest(t)
	u := mustUser(t, st, "kari@example.no")
	now := time.Date(2025, time.March, 14, 9, 0, 0, 0, time.UTC)

	if got := st.Users.TierOf(0, now); got != aksjeradar.TierDemo {
		t.Errorf("anonymous tier = %v, want demo", got)
	}
	if got := st.Users.TierOf(u.ID, now); got != aksjeradar.TierRegistered {
		t.Errorf("tier without subscription = %v, want registered", got)
	}

	sub := &Subscription{
		UserID:         u.ID,
		StripeCustomer: "cus_123",
		Status:         "active",
		PeriodEnd:      now.Add(30 * 24 * time.Hour),
	}
	if err := st.Users.UpsertSubscription(sub); err != nil {
		t.Fatal(err)
	}
	if got := st.Users.TierOf(u.ID, now); got != aksjeradar.TierSubscriber {
		t.Errorf("tier with active subscription = %v, want subscriber", got)
	}
	// Past the period end the tier falls back to registered.
	if got := st.Users.TierOf(u.ID, now.Add(31*24*time.Hour)); got != aksjeradar.TierRegistered {
		t.Errorf("tier after expiry = %v, want registered", got)
	}

	// Upsert replaces, not duplicates.
	sub2 := &Subscription{UserID: u.ID, StripeCustomer: "cus_123", Status: "canceled", PeriodEnd: now}
	if err := st.Users.UpsertSubscription(sub2); err != nil {
		t.Fatal(err)
	}
	if got := st.Users.TierOf(u.ID, now); got != aksjeradar.TierRegistered {
		t.Errorf("tier after cancellation = %v, want registered", got)
	}
	byCustomer, err := st.Users.SubscriptionByCustomer("cus_123")
	if err != nil {
		t.Fatal(err)
	}
	if byCustomer.Status != "canceled" {
		t.Errorf("subscription status = %q, want canceled", byCustomer.Status)
	}
}
