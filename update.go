package aksjeradar

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/aksjeradar/aksjeradar/date"
)

// This file contains the refresh loops filling the market data from a
// provider, falling back to synthetic data so pages never render empty.

// Provider fetches market data for a single symbol. The yahoo package
// implements it against the live API.
type Provider interface {
	// DailyCandles returns the daily candles of a symbol in [from, to].
	DailyCandles(symbol string, from, to date.Date) ([]Candle, error)
	// Quote returns the latest snapshot of a symbol.
	Quote(symbol string) (Quote, error)
}

// Fetcher wraps a provider with the retry and circuit breaker policy used by
// all refresh jobs.
type Fetcher struct {
	provider Provider
	backoff  BackoffPolicy
	breaker  *CircuitBreaker
	now      func() time.Time
}

// NewFetcher returns a fetcher with the default retry policy and a breaker
// opening after 5 consecutive failures for 2 minutes.
func NewFetcher(p Provider) *Fetcher {
	return &Fetcher{
		provider: p,
		backoff:  DefaultBackoff,
		breaker:  NewCircuitBreaker(5, 2*time.Minute),
		now:      time.Now,
	}
}

// fetchQuote fetches one quote through the breaker and retry policy.
func (f *Fetcher) fetchQuote(symbol string) (Quote, error) {
	var q Quote
	err := f.breaker.Do(func() error {
		return f.backoff.Retry(func() error {
			var err error
			q, err = f.provider.Quote(symbol)
			return err
		})
	})
	return q, err
}

// fetchCandles fetches a candle range through the breaker and retry policy.
func (f *Fetcher) fetchCandles(symbol string, from, to date.Date) ([]Candle, error) {
	var candles []Candle
	err := f.breaker.Do(func() error {
		return f.backoff.Retry(func() error {
			var err error
			candles, err = f.provider.DailyCandles(symbol, from, to)
			return err
		})
	})
	return candles, err
}

// RefreshQuotes updates the latest quote of every symbol. A failing symbol
// gets a deterministic fallback quote instead, and the underlying errors are
// joined for the caller to log.
func (f *Fetcher) RefreshQuotes(m *MarketData, symbols []string) error {
	var errs error
	for _, symbol := range symbols {
		q, err := f.fetchQuote(symbol)
		if err != nil {
			errs = errors.Join(errs, fmt.Errorf("quote %s: %w", symbol, err))
			q = SyntheticQuote(symbol, f.now())
		}
		m.SetQuote(q)
	}
	return errs
}

// RefreshHistory fetches daily candles for every symbol, from the day after
// the last known candle up to 'end'. Symbols that cannot be fetched are
// filled with synthetic candles so indicator calculations stay possible.
func (f *Fetcher) RefreshHistory(m *MarketData, symbols []string, start, end date.Date) error {
	var errs error
	for _, symbol := range symbols {
		// If we already have the latest candle, we are up-to-date.
		latest, ok := m.LastKnownDate(symbol)
		fetchFrom := start
		if ok {
			if !latest.Before(end) {
				continue
			}
			if latest.After(start) {
				fetchFrom = latest.Add(1)
			}
		}
		if fetchFrom.After(end) {
			continue
		}

		candles, err := f.fetchCandles(symbol, fetchFrom, end)
		if err != nil {
			errs = errors.Join(errs, fmt.Errorf("candles %s: %w", symbol, err))
			candles = SyntheticHistory(symbol, fetchFrom, end)
		}
		if len(candles) == 0 {
			log.Printf("no new candles for %q between %s and %s", symbol, fetchFrom, end)
			continue
		}
		for _, c := range candles {
			m.Append(symbol, c)
		}
	}
	return errs
}
