package aksjeradar

import (
	"hash/fnv"
	"time"

	"github.com/aksjeradar/aksjeradar/date"
)

// This file implements the deterministic fallback data generator: when the
// real provider fails or rate-limits, pages still render with plausible,
// stable pseudo-market data. The same (symbol, day) always yields the same
// candle, so repeated page loads and tests see consistent numbers.

// syntheticSeed hashes a symbol into its stable seed.
func syntheticSeed(symbol string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(symbol))
	return h.Sum64()
}

// daySalt hashes a (symbol, day) pair for per-day variation.
func daySalt(symbol string, on date.Date) uint64 {
	h := fnv.New64a()
	h.Write([]byte(symbol))
	h.Write([]byte("@"))
	h.Write([]byte(on.String()))
	return h.Sum64()
}

// SyntheticBasePrice returns the anchor price of a symbol: 50 + seed % 300,
// so every symbol lands somewhere in [50, 350).
func SyntheticBasePrice(symbol string) float64 {
	return float64(50 + syntheticSeed(symbol)%300)
}

// SyntheticCandle generates the deterministic candle of a symbol for one day.
func SyntheticCandle(symbol string, on date.Date) Candle {
	base := SyntheticBasePrice(symbol)
	salt := daySalt(symbol, on)

	// Daily close deviates up to ±10% from the anchor.
	dev := (float64(salt%2001) - 1000) / 10000
	close := base * (1 + dev)

	// Open is the previous trading day's close, keeping the series continuous.
	prevSalt := daySalt(symbol, on.PreviousTradingDay())
	prevDev := (float64(prevSalt%2001) - 1000) / 10000
	open := base * (1 + prevDev)

	high := max(open, close) * (1 + float64(salt%70)/10000)
	low := min(open, close) * (1 - float64(salt%90)/10000)
	volume := int64(100_000 + salt%900_000)

	return Candle{Date: on, Open: open, High: high, Low: low, Close: close, Volume: volume}
}

// SyntheticHistory generates candles for all trading days in [from, to].
func SyntheticHistory(symbol string, from, to date.Date) []Candle {
	var out []Candle
	for on := range date.TradingDays(from, to) {
		out = append(out, SyntheticCandle(symbol, on))
	}
	return out
}

// SyntheticQuote generates the deterministic fallback quote of a symbol as
// of the most recent trading day.
func SyntheticQuote(symbol string, now time.Time) Quote {
	on := date.FromTime(now)
	if !on.IsTradingDay() {
		on = on.PreviousTradingDay()
	}
	c := SyntheticCandle(symbol, on)
	prev := SyntheticCandle(symbol, on.PreviousTradingDay())

	change := c.Close - prev.Close
	pct := 0.0
	if prev.Close != 0 {
		pct = 100 * change / prev.Close
	}
	return Quote{
		Symbol:    symbol,
		Last:      c.Close,
		Change:    change,
		ChangePct: pct,
		DayHigh:   c.High,
		DayLow:    c.Low,
		Volume:    c.Volume,
		Source:    SourceFallback,
		Updated:   now,
	}
}
