package aksjeradar

import (
	"math"
)

// Technical indicator calculations over daily closes. All functions report
// ok=false instead of returning NaN or Inf when the input is too short: a
// missing value renders as "no data", never as an empty chart.

// SMA returns the simple moving average of the last 'period' values.
func SMA(closes []float64, period int) (float64, bool) {
	if period <= 0 || len(closes) < period {
		return 0, false
	}
	sum := 0.0
	for _, v := range closes[len(closes)-period:] {
		sum += v
	}
	return sum / float64(period), true
}

// EMASeries returns the exponential moving average series of the input,
// seeded with the SMA of the first 'period' values. The result is aligned to
// the input: result[i] is the EMA as of closes[i], and the first period-1
// entries are not meaningful.
func EMASeries(closes []float64, period int) ([]float64, bool) {
	if period <= 0 || len(closes) < period {
		return nil, false
	}
	out := make([]float64, len(closes))
	seed := 0.0
	for _, v := range closes[:period] {
		seed += v
	}
	seed /= float64(period)
	out[period-1] = seed

	k := 2 / float64(period+1)
	for i := period; i < len(closes); i++ {
		out[i] = closes[i]*k + out[i-1]*(1-k)
	}
	return out, true
}

// EMA returns the latest exponential moving average value.
func EMA(closes []float64, period int) (float64, bool) {
	s, ok := EMASeries(closes, period)
	if !ok {
		return 0, false
	}
	return s[len(s)-1], true
}

// RSIPeriod is the standard lookback for the relative strength index.
const RSIPeriod = 14

// RSI returns the relative strength index with Wilder smoothing. It needs at
// least period+1 closes; flat input (no losses) yields 100, no gains yields 0.
func RSI(closes []float64, period int) (float64, bool) {
	if period <= 0 || len(closes) < period+1 {
		return 0, false
	}

	// Seed averages over the first 'period' deltas.
	var avgGain, avgLoss float64
	for i := 1; i <= period; i++ {
		delta := closes[i] - closes[i-1]
		if delta > 0 {
			avgGain += delta
		} else {
			avgLoss -= delta
		}
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)

	// Wilder smoothing over the remainder.
	for i := period + 1; i < len(closes); i++ {
		delta := closes[i] - closes[i-1]
		gain, loss := 0.0, 0.0
		if delta > 0 {
			gain = delta
		} else {
			loss = -delta
		}
		avgGain = (avgGain*float64(period-1) + gain) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + loss) / float64(period)
	}

	if avgLoss == 0 {
		return 100, true
	}
	rs := avgGain / avgLoss
	return 100 - 100/(1+rs), true
}

// MACDValue holds the three MACD components.
type MACDValue struct {
	Line      float64 `json:"line"`      // EMA(12) - EMA(26)
	Signal    float64 `json:"signal"`    // EMA(9) of the line
	Histogram float64 `json:"histogram"` // line - signal
}

// MACD returns the 12/26/9 moving average convergence divergence.
func MACD(closes []float64) (MACDValue, bool) {
	const fast, slow, signal = 12, 26, 9
	if len(closes) < slow+signal {
		return MACDValue{}, false
	}
	fastS, _ := EMASeries(closes, fast)
	slowS, _ := EMASeries(closes, slow)

	// The MACD line exists from index slow-1 on.
	line := make([]float64, 0, len(closes)-slow+1)
	for i := slow - 1; i < len(closes); i++ {
		line = append(line, fastS[i]-slowS[i])
	}
	signalS, ok := EMASeries(line, signal)
	if !ok {
		return MACDValue{}, false
	}
	l := line[len(line)-1]
	s := signalS[len(signalS)-1]
	return MACDValue{Line: l, Signal: s, Histogram: l - s}, true
}

// BollingerBands holds the 20-day, 2-sigma bands.
type BollingerBands struct {
	Upper  float64 `json:"upper"`
	Middle float64 `json:"middle"`
	Lower  float64 `json:"lower"`
}

// Bollinger returns the Bollinger bands: middle is SMA(period), the bands
// sit 'width' population standard deviations away.
func Bollinger(closes []float64, period int, width float64) (BollingerBands, bool) {
	mid, ok := SMA(closes, period)
	if !ok {
		return BollingerBands{}, false
	}
	variance := 0.0
	for _, v := range closes[len(closes)-period:] {
		d := v - mid
		variance += d * d
	}
	sigma := math.Sqrt(variance / float64(period))
	return BollingerBands{Upper: mid + width*sigma, Middle: mid, Lower: mid - width*sigma}, true
}

// Signal is the indicator-derived recommendation.
type Signal string

const (
	SignalBuy  Signal = "buy"
	SignalHold Signal = "hold"
	SignalSell Signal = "sell"
)

// TechnicalSummary aggregates the indicator values of one symbol. Optional
// fields are nil when the history is too short to compute them.
type TechnicalSummary struct {
	Symbol    string          `json:"symbol"`
	LastClose float64         `json:"last_close"`
	RSI       *float64        `json:"rsi,omitempty"`
	SMA10     *float64        `json:"sma_10,omitempty"`
	SMA20     *float64        `json:"sma_20,omitempty"`
	MACD      *MACDValue      `json:"macd,omitempty"`
	Bollinger *BollingerBands `json:"bollinger,omitempty"`
	Signal    Signal          `json:"signal"`
	Source    QuoteSource     `json:"source"`
}

// Analyze computes the technical summary of a symbol from the market data.
// When the symbol has no candle history, ok is false.
func (m *MarketData) Analyze(symbol string) (TechnicalSummary, bool) {
	closes := m.Closes(symbol, 60)
	if len(closes) == 0 {
		return TechnicalSummary{}, false
	}
	sum := TechnicalSummary{
		Symbol:    symbol,
		LastClose: closes[len(closes)-1],
		Signal:    SignalHold,
		Source:    SourceReal,
	}
	if q, ok := m.Quote(symbol); ok {
		sum.Source = q.Source
	}
	if v, ok := RSI(closes, RSIPeriod); ok {
		sum.RSI = &v
	}
	if v, ok := SMA(closes, 10); ok {
		sum.SMA10 = &v
	}
	if v, ok := SMA(closes, 20); ok {
		sum.SMA20 = &v
	}
	if v, ok := MACD(closes); ok {
		sum.MACD = &v
	}
	if v, ok := Bollinger(closes, 20, 2); ok {
		sum.Bollinger = &v
	}
	sum.Signal = deriveSignal(sum)
	return sum, true
}

// deriveSignal turns RSI and MACD readings into a coarse recommendation:
// oversold plus positive momentum is a buy, overbought plus negative
// momentum is a sell, anything else holds.
func deriveSignal(s TechnicalSummary) Signal {
	if s.RSI == nil {
		return SignalHold
	}
	momentum := 0.0
	if s.MACD != nil {
		momentum = s.MACD.Histogram
	}
	switch {
	case *s.RSI < 30 && momentum >= 0:
		return SignalBuy
	case *s.RSI > 70 && momentum <= 0:
		return SignalSell
	default:
		return SignalHold
	}
}
