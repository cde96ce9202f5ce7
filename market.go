package aksjeradar

import (
	"fmt"
	"iter"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/aksjeradar/aksjeradar/date"
)

// QuoteSource discloses where a quote or candle came from.
type QuoteSource string

const (
	// SourceReal marks data fetched from the live provider.
	SourceReal QuoteSource = "real"
	// SourceFallback marks deterministic synthetic data served when the
	// provider failed or rate-limited.
	SourceFallback QuoteSource = "fallback"
)

// Quote is the latest known price snapshot of an instrument.
type Quote struct {
	Symbol    string      `json:"symbol"`
	Last      float64     `json:"last"`
	Change    float64     `json:"change"`
	ChangePct float64     `json:"change_pct"`
	DayHigh   float64     `json:"day_high"`
	DayLow    float64     `json:"day_low"`
	Volume    int64       `json:"volume"`
	Source    QuoteSource `json:"source"`
	Updated   time.Time   `json:"updated"`
}

// Candle is one daily bar.
type Candle struct {
	Date   date.Date `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume int64     `json:"volume"`
}

// MarketData holds candle histories and latest quotes for a set of symbols.
// It is safe for concurrent use: the HTTP handlers read while the refresh
// jobs write.
type MarketData struct {
	mu      sync.RWMutex
	candles map[string]*date.History[Candle]
	quotes  map[string]Quote
}

// NewMarketData returns an empty market data collection.
func NewMarketData() *MarketData {
	return &MarketData{
		candles: make(map[string]*date.History[Candle]),
		quotes:  make(map[string]Quote),
	}
}

// Quote returns the latest quote for a symbol.
func (m *MarketData) Quote(symbol string) (Quote, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	q, ok := m.quotes[symbol]
	return q, ok
}

// SetQuote stores the latest quote for a symbol.
func (m *MarketData) SetQuote(q Quote) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.quotes[q.Symbol] = q
}

// Append adds a candle to a symbol's history, overwriting any candle already
// recorded for that day.
func (m *MarketData) Append(symbol string, c Candle) {
	m.mu.Lock()
	defer m.mu.Unlock()
	h, ok := m.candles[symbol]
	if !ok {
		h = &date.History[Candle]{}
		m.candles[symbol] = h
	}
	h.Append(c.Date, c)
}

// Candle returns the candle of a symbol on a given day.
func (m *MarketData) Candle(symbol string, on date.Date) (Candle, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	h, ok := m.candles[symbol]
	if !ok {
		return Candle{}, false
	}
	return h.Get(on)
}

// CandleAsOf returns the candle of a symbol on a given day, or the most
// recent one before it.
func (m *MarketData) CandleAsOf(symbol string, on date.Date) (Candle, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	h, ok := m.candles[symbol]
	if !ok {
		return Candle{}, false
	}
	return h.ValueAsOf(on)
}

// LatestCandle returns the most recent candle of a symbol.
func (m *MarketData) LatestCandle(symbol string) (Candle, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	h, ok := m.candles[symbol]
	if !ok || h.Len() == 0 {
		return Candle{}, false
	}
	_, c := h.Latest()
	return c, true
}

// Closes returns the last n daily closes of a symbol in chronological order.
func (m *MarketData) Closes(symbol string, n int) []float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	h, ok := m.candles[symbol]
	if !ok {
		return nil
	}
	candles := h.Tail(n)
	closes := make([]float64, len(candles))
	for i, c := range candles {
		closes[i] = c.Close
	}
	return closes
}

// Candles returns the last n candles of a symbol in chronological order.
func (m *MarketData) Candles(symbol string, n int) []Candle {
	m.mu.RLock()
	defer m.mu.RUnlock()
	h, ok := m.candles[symbol]
	if !ok {
		return nil
	}
	return h.Tail(n)
}

// HistoryLen returns the number of recorded days for a symbol.
func (m *MarketData) HistoryLen(symbol string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	h, ok := m.candles[symbol]
	if !ok {
		return 0
	}
	return h.Len()
}

// LastKnownDate returns the date of the most recent candle for a symbol.
func (m *MarketData) LastKnownDate(symbol string) (date.Date, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	h, ok := m.candles[symbol]
	if !ok || h.Len() == 0 {
		return date.Date{}, false
	}
	d, _ := h.Latest()
	return d, true
}

// Symbols iterates over all symbols with recorded data, in order.
func (m *MarketData) Symbols() iter.Seq[string] {
	return func(yield func(string) bool) {
		m.mu.RLock()
		symbols := slices.Collect(maps.Keys(m.candles))
		m.mu.RUnlock()
		slices.Sort(symbols)
		for _, s := range symbols {
			if !yield(s) {
				return
			}
		}
	}
}

// ConversionRate returns the multiplier converting an amount in 'from' into
// 'to', looked up from currency-pair quotes (e.g. USDNOK). Identity pairs
// return 1. The inverse pair is used when only the opposite is quoted.
func (m *MarketData) ConversionRate(from, to string) (float64, error) {
	if from == to {
		return 1, nil
	}
	if q, ok := m.Quote(from + to); ok && q.Last != 0 {
		return q.Last, nil
	}
	if q, ok := m.Quote(to + from); ok && q.Last != 0 {
		return 1 / q.Last, nil
	}
	return 0, fmt.Errorf("no conversion rate known for %s%s", from, to)
}
