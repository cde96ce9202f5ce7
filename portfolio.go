package aksjeradar

import (
	"fmt"
	"sort"

	"github.com/aksjeradar/aksjeradar/date"
	"github.com/shopspring/decimal"
)

// EntryKind is the type of a portfolio entry.
type EntryKind string

const (
	EntryBuy      EntryKind = "buy"
	EntrySell     EntryKind = "sell"
	EntryDeposit  EntryKind = "deposit"
	EntryWithdraw EntryKind = "withdraw"
	EntryDividend EntryKind = "dividend"
)

// ParseEntryKind parses a string into an EntryKind.
func ParseEntryKind(s string) (EntryKind, error) {
	switch EntryKind(s) {
	case EntryBuy, EntrySell, EntryDeposit, EntryWithdraw, EntryDividend:
		return EntryKind(s), nil
	default:
		return "", fmt.Errorf("unknown entry kind: %q", s)
	}
}

// PortfolioEntry is one recorded portfolio event. Buy/Sell/Dividend carry a
// symbol; Deposit/Withdraw are pure cash movements. All amounts are decimals,
// never floats.
type PortfolioEntry struct {
	Kind     EntryKind       `json:"kind"`
	Symbol   string          `json:"symbol,omitempty"`
	Quantity decimal.Decimal `json:"quantity,omitempty"` // shares, for buy/sell
	Price    decimal.Decimal `json:"price,omitempty"`    // per share, for buy/sell
	Amount   decimal.Decimal `json:"amount,omitempty"`   // cash, for deposit/withdraw/dividend
	Currency string          `json:"currency"`
	Date     date.Date       `json:"date"`
}

// Validate checks an entry for structural correctness.
func (e PortfolioEntry) Validate() error {
	switch e.Kind {
	case EntryBuy, EntrySell:
		if e.Symbol == "" {
			return fmt.Errorf("%s entry needs a symbol", e.Kind)
		}
		if !e.Quantity.IsPositive() {
			return fmt.Errorf("%s entry needs a positive quantity, got %s", e.Kind, e.Quantity)
		}
		if e.Price.IsNegative() {
			return fmt.Errorf("%s entry price cannot be negative, got %s", e.Kind, e.Price)
		}
	case EntryDividend:
		if e.Symbol == "" {
			return fmt.Errorf("dividend entry needs a symbol")
		}
		if !e.Amount.IsPositive() {
			return fmt.Errorf("dividend entry needs a positive amount, got %s", e.Amount)
		}
	case EntryDeposit, EntryWithdraw:
		if !e.Amount.IsPositive() {
			return fmt.Errorf("%s entry needs a positive amount, got %s", e.Kind, e.Amount)
		}
	default:
		return fmt.Errorf("unknown entry kind: %q", e.Kind)
	}
	if e.Currency == "" {
		return fmt.Errorf("entry needs a currency")
	}
	if e.Date.IsZero() {
		return fmt.Errorf("entry needs a date")
	}
	return nil
}

// Position is the derived holding of one symbol: quantity held and the
// average cost per share.
type Position struct {
	Symbol       string          `json:"symbol"`
	Quantity     decimal.Decimal `json:"quantity"`
	AvgCost      decimal.Decimal `json:"avg_cost"`
	Currency     string          `json:"currency"`
	MarketPrice  float64         `json:"market_price"`
	MarketValue  Money           `json:"-"`
	Unrealized   Money           `json:"-"`
	ValueNOK     decimal.Decimal `json:"value_nok"`
	GainNOK      decimal.Decimal `json:"gain_nok"`
	QuoteSource  QuoteSource     `json:"quote_source"`
	RealizedGain decimal.Decimal `json:"realized_gain"`
}

// Valuation is the portfolio summary in the reporting currency.
type Valuation struct {
	Positions  []Position                 `json:"positions"`
	Cash       map[string]decimal.Decimal `json:"cash"` // by currency
	TotalNOK   decimal.Decimal            `json:"total_nok"`
	CashNOK    decimal.Decimal            `json:"cash_nok"`
	GainNOK    decimal.Decimal            `json:"gain_nok"`
	AsOf       date.Date                  `json:"as_of"`
	Incomplete bool                       `json:"incomplete"` // a rate or quote was missing
}

// ValuePortfolio derives positions from chronological entries using the
// average cost basis, then values everything in NOK against latest quotes.
func ValuePortfolio(entries []PortfolioEntry, m *MarketData) (Valuation, error) {
	// Entries must be processed in chronological order for the average cost
	// basis to be meaningful.
	sorted := make([]PortfolioEntry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Date.Before(sorted[j].Date) })

	type acc struct {
		qty, avg, realized decimal.Decimal
		currency           string
	}
	positions := make(map[string]*acc)
	cash := make(map[string]decimal.Decimal)

	pos := func(symbol, currency string) *acc {
		p, ok := positions[symbol]
		if !ok {
			p = &acc{currency: currency}
			positions[symbol] = p
		}
		return p
	}

	for _, e := range sorted {
		if err := e.Validate(); err != nil {
			return Valuation{}, fmt.Errorf("invalid entry on %s: %w", e.Date, err)
		}
		switch e.Kind {
		case EntryBuy:
			p := pos(e.Symbol, e.Currency)
			cost := e.Quantity.Mul(e.Price)
			total := p.qty.Mul(p.avg).Add(cost)
			p.qty = p.qty.Add(e.Quantity)
			if !p.qty.IsZero() {
				p.avg = total.Div(p.qty)
			}
			cash[e.Currency] = cash[e.Currency].Sub(cost)
		case EntrySell:
			p := pos(e.Symbol, e.Currency)
			if e.Quantity.GreaterThan(p.qty) {
				return Valuation{}, fmt.Errorf("sell of %s %s on %s exceeds held quantity %s", e.Quantity, e.Symbol, e.Date, p.qty)
			}
			proceeds := e.Quantity.Mul(e.Price)
			p.realized = p.realized.Add(proceeds.Sub(e.Quantity.Mul(p.avg)))
			p.qty = p.qty.Sub(e.Quantity)
			cash[e.Currency] = cash[e.Currency].Add(proceeds)
		case EntryDividend:
			p := pos(e.Symbol, e.Currency)
			p.realized = p.realized.Add(e.Amount)
			cash[e.Currency] = cash[e.Currency].Add(e.Amount)
		case EntryDeposit:
			cash[e.Currency] = cash[e.Currency].Add(e.Amount)
		case EntryWithdraw:
			cash[e.Currency] = cash[e.Currency].Sub(e.Amount)
		}
	}

	v := Valuation{Cash: cash, AsOf: date.Today()}

	// Value open positions against latest quotes.
	symbols := make([]string, 0, len(positions))
	for s := range positions {
		symbols = append(symbols, s)
	}
	sort.Strings(symbols)

	for _, symbol := range symbols {
		p := positions[symbol]
		if p.qty.IsZero() && p.realized.IsZero() {
			continue
		}
		position := Position{
			Symbol:       symbol,
			Quantity:     p.qty,
			AvgCost:      p.avg,
			Currency:     p.currency,
			RealizedGain: p.realized,
		}
		if p.qty.IsPositive() {
			q, ok := m.Quote(symbol)
			if !ok {
				v.Incomplete = true
			} else {
				position.MarketPrice = q.Last
				position.QuoteSource = q.Source
				last := decimal.NewFromFloat(q.Last)
				value := p.qty.Mul(last)
				gain := p.qty.Mul(last.Sub(p.avg))
				position.MarketValue = M(value, p.currency)
				position.Unrealized = M(gain, p.currency)

				rate, err := m.ConversionRate(p.currency, ReportingCurrency)
				if err != nil {
					v.Incomplete = true
				} else {
					r := decimal.NewFromFloat(rate)
					position.ValueNOK = value.Mul(r).Round(2)
					position.GainNOK = gain.Mul(r).Round(2)
					v.TotalNOK = v.TotalNOK.Add(position.ValueNOK)
					v.GainNOK = v.GainNOK.Add(position.GainNOK)
				}
			}
		}
		v.Positions = append(v.Positions, position)
	}

	// Convert cash balances to NOK.
	currencies := make([]string, 0, len(cash))
	for c := range cash {
		currencies = append(currencies, c)
	}
	sort.Strings(currencies)
	for _, currency := range currencies {
		rate, err := m.ConversionRate(currency, ReportingCurrency)
		if err != nil {
			v.Incomplete = true
			continue
		}
		v.CashNOK = v.CashNOK.Add(cash[currency].Mul(decimal.NewFromFloat(rate)))
	}
	v.CashNOK = v.CashNOK.Round(2)
	v.TotalNOK = v.TotalNOK.Add(v.CashNOK)
	return v, nil
}
