package aksjeradar

import (
	"fmt"
	"iter"
	"maps"
	"regexp"
	"slices"
	"strings"
)

// symbolRegex checks the general symbol shape: 1 to 12 chars of uppercase
// letters, digits, '.' and '-' (e.g. "EQNR.OL", "BRK-B", "BTC-USD").
var symbolRegex = regexp.MustCompile(`^[A-Z0-9][A-Z0-9.-]{0,11}$`)

// currencyPairRegex checks the format: 6 uppercase letters (3 base, 3 quote).
var currencyPairRegex = regexp.MustCompile(`^[A-Z]{6}$`)

// Category classifies instruments the way the listing pages group them.
type Category string

const (
	CategoryOslo     Category = "oslo"
	CategoryGlobal   Category = "global"
	CategoryCrypto   Category = "crypto"
	CategoryCurrency Category = "currency"
)

// ParseCategory parses a string into a Category.
func ParseCategory(s string) (Category, error) {
	switch Category(s) {
	case CategoryOslo, CategoryGlobal, CategoryCrypto, CategoryCurrency:
		return Category(s), nil
	default:
		return "", fmt.Errorf("unknown category: %q", s)
	}
}

// Instrument identifies a listed security or pair.
type Instrument struct {
	Symbol   string   `json:"symbol"`
	Name     string   `json:"name"`
	Exchange string   `json:"exchange"` // OSE, NASDAQ, NYSE, CRYPTO, FX
	Currency string   `json:"currency"` // quote currency, ISO 4217
	Category Category `json:"category"`
	Sector   string   `json:"sector,omitempty"`
}

// IsOslo reports whether the instrument trades on Oslo Børs.
func (i Instrument) IsOslo() bool { return strings.HasSuffix(i.Symbol, ".OL") }

// ParseSymbol validates and normalizes a ticker symbol.
func ParseSymbol(s string) (string, error) {
	sym := strings.ToUpper(strings.TrimSpace(s))
	if sym == "" {
		return "", fmt.Errorf("empty symbol")
	}
	if !symbolRegex.MatchString(sym) {
		return "", fmt.Errorf("invalid symbol %q: want 1-12 chars of [A-Z0-9.-]", s)
	}
	return sym, nil
}

// ParseCurrencyPair validates a 6-letter pair like "USDNOK" and returns the
// base and quote components.
func ParseCurrencyPair(s string) (base, quote string, err error) {
	if !currencyPairRegex.MatchString(s) {
		return "", "", fmt.Errorf("invalid currency pair %q: want 6 uppercase letters", s)
	}
	return s[:3], s[3:], nil
}

// Registry holds the set of instruments the service knows about.
type Registry struct {
	index map[string]Instrument
}

// NewRegistry returns a registry seeded with the built-in instrument list.
func NewRegistry() *Registry {
	r := &Registry{index: make(map[string]Instrument)}
	for _, in := range builtins {
		r.index[in.Symbol] = in
	}
	return r
}

// Add registers an instrument, replacing any previous entry for the symbol.
func (r *Registry) Add(in Instrument) error {
	sym, err := ParseSymbol(in.Symbol)
	if err != nil {
		return err
	}
	in.Symbol = sym
	r.index[sym] = in
	return nil
}

// Lookup returns the instrument for a symbol.
func (r *Registry) Lookup(symbol string) (Instrument, bool) {
	in, ok := r.index[symbol]
	return in, ok
}

// Len returns the number of registered instruments.
func (r *Registry) Len() int { return len(r.index) }

// All iterates over all instruments in symbol order.
func (r *Registry) All() iter.Seq[Instrument] {
	return func(yield func(Instrument) bool) {
		symbols := slices.Collect(maps.Keys(r.index))
		slices.Sort(symbols)
		for _, sym := range symbols {
			if !yield(r.index[sym]) {
				return
			}
		}
	}
}

// ByExchange returns all instruments listed on one exchange, in symbol order.
func (r *Registry) ByExchange(code string) []Instrument {
	var out []Instrument
	for in := range r.All() {
		if in.Exchange == code {
			out = append(out, in)
		}
	}
	return out
}

// ByCategory returns all instruments of one category in symbol order.
func (r *Registry) ByCategory(c Category) []Instrument {
	var out []Instrument
	for in := range r.All() {
		if in.Category == c {
			out = append(out, in)
		}
	}
	return out
}

// Search returns instruments whose symbol or name contains the query,
// case-insensitively, in symbol order.
func (r *Registry) Search(query string) []Instrument {
	q := strings.ToUpper(strings.TrimSpace(query))
	if q == "" {
		return nil
	}
	var out []Instrument
	for in := range r.All() {
		if strings.Contains(in.Symbol, q) || strings.Contains(strings.ToUpper(in.Name), q) {
			out = append(out, in)
		}
	}
	return out
}

// builtins seeds the registry with the Oslo Børs main list the app serves,
// plus the global tickers, crypto and currency pairs of the listing pages.
var builtins = []Instrument{
	// Oslo Børs
	{Symbol: "EQNR.OL", Name: "Equinor", Exchange: "OSE", Currency: "NOK", Category: CategoryOslo, Sector: "Energy"},
	{Symbol: "DNB.OL", Name: "DNB Bank", Exchange: "OSE", Currency: "NOK", Category: CategoryOslo, Sector: "Financials"},
	{Symbol: "TEL.OL", Name: "Telenor", Exchange: "OSE", Currency: "NOK", Category: CategoryOslo, Sector: "Telecom"},
	{Symbol: "NHY.OL", Name: "Norsk Hydro", Exchange: "OSE", Currency: "NOK", Category: CategoryOslo, Sector: "Materials"},
	{Symbol: "YAR.OL", Name: "Yara International", Exchange: "OSE", Currency: "NOK", Category: CategoryOslo, Sector: "Materials"},
	{Symbol: "AKRBP.OL", Name: "Aker BP", Exchange: "OSE", Currency: "NOK", Category: CategoryOslo, Sector: "Energy"},
	{Symbol: "MOWI.OL", Name: "Mowi", Exchange: "OSE", Currency: "NOK", Category: CategoryOslo, Sector: "Consumer Staples"},
	{Symbol: "ORK.OL", Name: "Orkla", Exchange: "OSE", Currency: "NOK", Category: CategoryOslo, Sector: "Consumer Staples"},
	{Symbol: "SALM.OL", Name: "SalMar", Exchange: "OSE", Currency: "NOK", Category: CategoryOslo, Sector: "Consumer Staples"},
	{Symbol: "STB.OL", Name: "Storebrand", Exchange: "OSE", Currency: "NOK", Category: CategoryOslo, Sector: "Financials"},
	{Symbol: "KOG.OL", Name: "Kongsberg Gruppen", Exchange: "OSE", Currency: "NOK", Category: CategoryOslo, Sector: "Industrials"},
	{Symbol: "TOM.OL", Name: "Tomra Systems", Exchange: "OSE", Currency: "NOK", Category: CategoryOslo, Sector: "Industrials"},
	{Symbol: "SUBC.OL", Name: "Subsea 7", Exchange: "OSE", Currency: "NOK", Category: CategoryOslo, Sector: "Energy"},
	{Symbol: "FRO.OL", Name: "Frontline", Exchange: "OSE", Currency: "NOK", Category: CategoryOslo, Sector: "Shipping"},
	{Symbol: "NOD.OL", Name: "Nordic Semiconductor", Exchange: "OSE", Currency: "NOK", Category: CategoryOslo, Sector: "Technology"},
	// Global
	{Symbol: "AAPL", Name: "Apple", Exchange: "NASDAQ", Currency: "USD", Category: CategoryGlobal, Sector: "Technology"},
	{Symbol: "MSFT", Name: "Microsoft", Exchange: "NASDAQ", Currency: "USD", Category: CategoryGlobal, Sector: "Technology"},
	{Symbol: "AMZN", Name: "Amazon", Exchange: "NASDAQ", Currency: "USD", Category: CategoryGlobal, Sector: "Consumer Discretionary"},
	{Symbol: "GOOGL", Name: "Alphabet", Exchange: "NASDAQ", Currency: "USD", Category: CategoryGlobal, Sector: "Technology"},
	{Symbol: "TSLA", Name: "Tesla", Exchange: "NASDAQ", Currency: "USD", Category: CategoryGlobal, Sector: "Consumer Discretionary"},
	{Symbol: "NVDA", Name: "NVIDIA", Exchange: "NASDAQ", Currency: "USD", Category: CategoryGlobal, Sector: "Technology"},
	// Crypto
	{Symbol: "BTC-USD", Name: "Bitcoin", Exchange: "CRYPTO", Currency: "USD", Category: CategoryCrypto},
	{Symbol: "ETH-USD", Name: "Ethereum", Exchange: "CRYPTO", Currency: "USD", Category: CategoryCrypto},
	// Currency pairs used for NOK reporting.
	{Symbol: "USDNOK", Name: "US Dollar / Norwegian Krone", Exchange: "FX", Currency: "NOK", Category: CategoryCurrency},
	{Symbol: "EURNOK", Name: "Euro / Norwegian Krone", Exchange: "FX", Currency: "NOK", Category: CategoryCurrency},
}

// DemoSymbols is the whitelist served to unauthenticated (demo tier) visitors.
var DemoSymbols = []string{"EQNR.OL", "DNB.OL", "TEL.OL", "NHY.OL", "YAR.OL"}

// IsDemoSymbol reports whether a symbol is available to the demo tier.
func IsDemoSymbol(symbol string) bool { return slices.Contains(DemoSymbols, symbol) }
