package monitor

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/aksjeradar/aksjeradar"
	"github.com/aksjeradar/aksjeradar/date"
	"github.com/aksjeradar/aksjeradar/store"
	"github.com/shopspring/decimal"
)

// stubProvider answers every quote with a fixed price and source.
type stubProvider struct {
	last   float64
	source aksjeradar.QuoteSource
	calls  int
}

func (p *stubProvider) Quote(symbol string) (aksjeradar.Quote, error) {
	p.calls++
	return aksjeradar.Quote{Symbol: symbol, Last: p.last, Source: p.source, Updated: time.Now()}, nil
}

func (p *stubProvider) DailyCandles(symbol string, from, to date.Date) ([]aksjeradar.Candle, error) {
	return nil, fmt.Errorf("not used")
}

// recordingPusher captures push messages instead of hitting Telegram.
type recordingPusher struct {
	chats []int64
	texts []string
}

func (p *recordingPusher) Send(chatID int64, text string) error {
	p.chats = append(p.chats, chatID)
	p.texts = append(p.texts, text)
	return nil
}

func setup(t *testing.T, provider aksjeradar.Provider) (*Monitor, *store.Store, *store.User) {
	t.Helper()
	st, err := store.Open(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	user, err := st.Users.Create("kari@example.no", "hash", "Kari")
	if err != nil {
		t.Fatal(err)
	}
	m := New(st, aksjeradar.NewMarketData(), aksjeradar.NewFetcher(provider), nil)
	return m, st, user
}

func TestSweepFiresAlertOnce(t *testing.T) {
	provider := &stubProvider{last: 310, source: aksjeradar.SourceReal}
	m, st, user := setup(t, provider)

	if _, err := st.Alerts.Create(user.ID, "EQNR.OL", decimal.RequireFromString("300"), aksjeradar.AlertAbove, false); err != nil {
		t.Fatal(err)
	}

	if err := m.Sweep(); err != nil {
		t.Fatalf("sweep: %v", err)
	}

	notifications, err := st.Notifications.List(user.ID, false)
	if err != nil {
		t.Fatal(err)
	}
	if len(notifications) != 1 {
		t.Fatalf("got %d notifications, want 1", len(notifications))
	}
	if notifications[0].Title != "Prisvarsel: EQNR.OL" {
		t.Errorf("notification title = %q", notifications[0].Title)
	}

	active, err := st.Alerts.ListActive()
	if err != nil {
		t.Fatal(err)
	}
	if len(active) != 0 {
		t.Errorf("alert still active after firing")
	}

	// A second sweep finds nothing to do and adds nothing.
	if err := m.Sweep(); err != nil {
		t.Fatalf("second sweep: %v", err)
	}
	if notifications, _ := st.Notifications.List(user.ID, false); len(notifications) != 1 {
		t.Errorf("second sweep duplicated the notification")
	}
}

func TestSweepIgnoresUncrossedAlert(t *testing.T) {
	provider := &stubProvider{last: 290, source: aksjeradar.SourceReal}
	m, st, user := setup(t, provider)

	st.Alerts.Create(user.ID, "EQNR.OL", decimal.RequireFromString("300"), aksjeradar.AlertAbove, false)
	if err := m.Sweep(); err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if notifications, _ := st.Notifications.List(user.ID, false); len(notifications) != 0 {
		t.Error("alert fired below its target")
	}
	if active, _ := st.Alerts.ListActive(); len(active) != 1 {
		t.Error("uncrossed alert was deactivated")
	}
}

func TestSweepSkipsFallbackQuotes(t *testing.T) {
	// Synthetic prices must never wake anyone up, however far past the
	// target they land.
	provider := &stubProvider{last: 9999, source: aksjeradar.SourceFallback}
	m, st, user := setup(t, provider)

	st.Alerts.Create(user.ID, "EQNR.OL", decimal.RequireFromString("300"), aksjeradar.AlertAbove, false)
	if err := m.Sweep(); err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if notifications, _ := st.Notifications.List(user.ID, false); len(notifications) != 0 {
		t.Error("alert fired on a fallback quote")
	}
	if active, _ := st.Alerts.ListActive(); len(active) != 1 {
		t.Error("alert on fallback data was deactivated")
	}
}

func TestSweepRefreshesEachSymbolOnce(t *testing.T) {
	provider := &stubProvider{last: 310, source: aksjeradar.SourceReal}
	m, st, user := setup(t, provider)
	other, err := st.Users.Create("ola@example.no", "hash", "Ola")
	if err != nil {
		t.Fatal(err)
	}

	// Two users alerted on the same symbol: one provider call.
	st.Alerts.Create(user.ID, "EQNR.OL", decimal.RequireFromString("300"), aksjeradar.AlertAbove, false)
	st.Alerts.Create(other.ID, "EQNR.OL", decimal.RequireFromString("305"), aksjeradar.AlertAbove, false)

	if err := m.Sweep(); err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if provider.calls != 1 {
		t.Errorf("provider called %d times, want 1", provider.calls)
	}
	// Both alerts fired from the one quote.
	if a, _ := st.Notifications.List(user.ID, false); len(a) != 1 {
		t.Error("first user's alert did not fire")
	}
	if b, _ := st.Notifications.List(other.ID, false); len(b) != 1 {
		t.Error("second user's alert did not fire")
	}
}

func TestSweepPushesToLinkedTelegramChat(t *testing.T) {
	provider := &stubProvider{last: 310, source: aksjeradar.SourceReal}
	m, st, user := setup(t, provider)
	push := &recordingPusher{}
	m.push = push

	if err := st.Users.SetTelegramChatID(user.ID, 4242); err != nil {
		t.Fatal(err)
	}
	if _, err := st.Alerts.Create(user.ID, "EQNR.OL", decimal.RequireFromString("300"), aksjeradar.AlertAbove, true); err != nil {
		t.Fatal(err)
	}

	if err := m.Sweep(); err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if len(push.chats) != 1 || push.chats[0] != 4242 {
		t.Fatalf("push chats = %v, want [4242]", push.chats)
	}
	if !strings.Contains(push.texts[0], "Prisvarsel: EQNR.OL") {
		t.Errorf("push text = %q", push.texts[0])
	}

	// Without the notify-push flag the alert stays in-app only.
	st.Alerts.Create(user.ID, "DNB.OL", decimal.RequireFromString("100"), aksjeradar.AlertAbove, false)
	if err := m.Sweep(); err != nil {
		t.Fatalf("second sweep: %v", err)
	}
	if len(push.chats) != 1 {
		t.Errorf("got %d pushes, want 1", len(push.chats))
	}
}

func TestDailySummaryGoesToLinkedUsersOnly(t *testing.T) {
	provider := &stubProvider{last: 310, source: aksjeradar.SourceReal}
	m, st, user := setup(t, provider)
	push := &recordingPusher{}
	m.push = push

	other, err := st.Users.Create("ola@example.no", "hash", "Ola")
	if err != nil {
		t.Fatal(err)
	}
	if err := st.Users.SetTelegramChatID(user.ID, 7); err != nil {
		t.Fatal(err)
	}
	st.Alerts.Create(user.ID, "EQNR.OL", decimal.RequireFromString("300"), aksjeradar.AlertAbove, false)
	st.Alerts.Create(other.ID, "DNB.OL", decimal.RequireFromString("150"), aksjeradar.AlertBelow, false)

	if err := m.DailySummary(); err != nil {
		t.Fatalf("daily summary: %v", err)
	}
	if len(push.chats) != 1 || push.chats[0] != 7 {
		t.Fatalf("push chats = %v, want [7]", push.chats)
	}
	if !strings.Contains(push.texts[0], "- EQNR.OL over 300") {
		t.Errorf("summary text = %q", push.texts[0])
	}
}

func TestSweepWithNoAlerts(t *testing.T) {
	provider := &stubProvider{last: 310, source: aksjeradar.SourceReal}
	m, _, _ := setup(t, provider)
	if err := m.Sweep(); err != nil {
		t.Fatalf("empty sweep: %v", err)
	}
	if provider.calls != 0 {
		t.Errorf("provider called %d times with no alerts", provider.calls)
	}
}
