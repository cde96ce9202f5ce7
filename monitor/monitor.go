// Package monitor implements the background jobs of the service: the price
// alert sweep and the daily alert summary. The server schedules them with
// cron; the CLI can run a single sweep by hand.
package monitor

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/aksjeradar/aksjeradar"
	"github.com/aksjeradar/aksjeradar/store"
)

// Pusher delivers a push message to a chat. *notify.Telegram implements it;
// tests substitute a recorder.
type Pusher interface {
	Send(chatID int64, text string) error
}

// Monitor evaluates active price alerts against latest quotes.
type Monitor struct {
	store   *store.Store
	market  *aksjeradar.MarketData
	fetcher *aksjeradar.Fetcher
	push    Pusher
	now     func() time.Time
}

// New returns a monitor. push may be nil (no push channel).
func New(st *store.Store, market *aksjeradar.MarketData, fetcher *aksjeradar.Fetcher, push Pusher) *Monitor {
	return &Monitor{store: st, market: market, fetcher: fetcher, push: push, now: time.Now}
}

// alertPayload is the structured data stored with an alert notification.
type alertPayload struct {
	Symbol    string  `json:"symbol"`
	Price     float64 `json:"price"`
	Target    string  `json:"target"`
	Condition string  `json:"condition"`
	Source    string  `json:"source"`
}

// Sweep refreshes quotes for all alerted symbols and fires the alerts whose
// threshold is crossed. Sweeps are idempotent: an alert fires at most once,
// even if two sweeps overlap.
func (m *Monitor) Sweep() error {
	alerts, err := m.store.Alerts.ListActive()
	if err != nil {
		return fmt.Errorf("cannot list active alerts: %w", err)
	}
	if len(alerts) == 0 {
		return nil
	}

	// Refresh every alerted symbol once, not once per alert.
	seen := make(map[string]struct{})
	var symbols []string
	for _, a := range alerts {
		if _, ok := seen[a.Symbol]; !ok {
			seen[a.Symbol] = struct{}{}
			symbols = append(symbols, a.Symbol)
		}
	}
	var errs error
	if err := m.fetcher.RefreshQuotes(m.market, symbols); err != nil {
		// Fallback quotes were stored; keep sweeping and report at the end.
		errs = errors.Join(errs, err)
	}

	for _, alert := range alerts {
		if err := m.evaluate(alert); err != nil {
			errs = errors.Join(errs, err)
		}
	}
	return errs
}

func (m *Monitor) evaluate(alert store.PriceAlert) error {
	quote, ok := m.market.Quote(alert.Symbol)
	if !ok {
		return fmt.Errorf("no quote for alerted symbol %q", alert.Symbol)
	}
	// Alerts only fire on real prices: waking a user up over synthetic
	// fallback data would be a false alarm.
	if quote.Source != aksjeradar.SourceReal {
		return nil
	}
	target, err := alert.TargetDecimal()
	if err != nil {
		return err
	}
	cond := aksjeradar.AlertCondition(alert.Condition)
	if !aksjeradar.AlertTriggered(cond, target, quote.Last) {
		return nil
	}

	won, err := m.store.Alerts.MarkTriggered(alert.ID, m.now())
	if err != nil {
		return fmt.Errorf("cannot mark alert %d triggered: %w", alert.ID, err)
	}
	if !won {
		return nil // another sweep fired it first
	}
	log.Printf("alert %d fired: %s %s %s at %.2f", alert.ID, alert.Symbol, alert.Condition, alert.Target, quote.Last)

	title := fmt.Sprintf("Prisvarsel: %s", alert.Symbol)
	body := fmt.Sprintf("%s er %s %s. Siste kurs: %.2f", alert.Symbol, norwegianCondition(cond), alert.Target, quote.Last)
	payload := alertPayload{
		Symbol:    alert.Symbol,
		Price:     quote.Last,
		Target:    alert.Target,
		Condition: alert.Condition,
		Source:    string(quote.Source),
	}
	if _, err := m.store.Notifications.Create(alert.UserID, title, body, payload); err != nil {
		return fmt.Errorf("cannot store notification for alert %d: %w", alert.ID, err)
	}

	if alert.NotifyPush && m.push != nil {
		user, err := m.store.Users.ByID(alert.UserID)
		if err != nil {
			return fmt.Errorf("cannot load user %d for alert %d: %w", alert.UserID, alert.ID, err)
		}
		if err := m.push.Send(user.TelegramChatID, title+"\n"+body); err != nil {
			// The in-app notification is already stored; push failure is not fatal.
			log.Printf("push for alert %d failed: %v", alert.ID, err)
		}
	}
	return nil
}

func norwegianCondition(cond aksjeradar.AlertCondition) string {
	if cond == aksjeradar.AlertAbove {
		return "over"
	}
	return "under"
}

// DailySummary sends each user with active alerts a morning digest over
// Telegram.
func (m *Monitor) DailySummary() error {
	if m.push == nil {
		return nil
	}
	users, err := m.store.Users.All()
	if err != nil {
		return fmt.Errorf("cannot list users: %w", err)
	}
	var errs error
	for _, user := range users {
		if user.TelegramChatID == 0 {
			continue
		}
		alerts, err := m.store.Alerts.ListByUser(user.ID)
		if err != nil {
			errs = errors.Join(errs, err)
			continue
		}
		var lines []string
		for _, a := range alerts {
			if !a.Active {
				continue
			}
			lines = append(lines, fmt.Sprintf("- %s %s %s", a.Symbol, norwegianCondition(aksjeradar.AlertCondition(a.Condition)), a.Target))
		}
		if len(lines) == 0 {
			continue
		}
		text := "Dine aktive prisvarsler:\n"
		for _, l := range lines {
			text += l + "\n"
		}
		if err := m.push.Send(user.TelegramChatID, text); err != nil {
			errs = errors.Join(errs, err)
		}
	}
	return errs
}
