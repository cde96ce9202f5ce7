// Package aksjeradar provides the domain core of the Aksjeradar market
// service: a stock-analysis backend centered on the Oslo stock exchange.
//
// The core functionalities include:
//   - Instrument Registry: the curated list of tradeable symbols (Oslo Børs
//     main list, a selection of global tickers, crypto and currency pairs)
//     with symbol validation and categories.
//   - Market Data: per-symbol daily candle histories and latest quotes,
//     refreshed from an external provider and backed by a deterministic
//     synthetic generator when the provider fails or rate-limits. Every
//     quote discloses whether it is real or fallback data.
//   - Technical Analysis: SMA, EMA, RSI (Wilder), MACD and Bollinger band
//     calculations over candle closes, aggregated into a TechnicalSummary
//     with a simple buy/hold/sell signal.
//   - Portfolio Valuation: positions derived from a chronological list of
//     entries (average cost basis), valued in NOK through currency-pair
//     quotes.
//   - Price Alerts: evaluation of user alert thresholds against latest
//     quotes; alerts fire at most once.
//
// This package serves as the foundational logic for the `aksjeradar`
// binary: the HTTP API, the monitor jobs and the CLI reports all build on
// the types defined here.
package aksjeradar
