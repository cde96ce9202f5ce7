package yahoo

import (
	"fmt"
	"net/url"
	"time"

	"github.com/PaesslerAG/jsonpath"
	"github.com/aksjeradar/aksjeradar"
	"github.com/aksjeradar/aksjeradar/date"
)

// This file contains functions to access the Yahoo Finance chart API.

// chartResponse is the typed subset of the chart payload used for candles.
//
//	{
//	  "chart": {
//	    "result": [{
//	      "timestamp": [1721025000, ...],
//	      "indicators": {"quote": [{"open": [...], "high": [...],
//	                                "low": [...], "close": [...],
//	                                "volume": [...]}]}
//	    }],
//	    "error": null
//	  }
//	}
type chartResponse struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*int64   `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// DailyCandles fetches the daily candles of a symbol in [from, to].
func (c *Client) DailyCandles(symbol string, from, to date.Date) ([]aksjeradar.Candle, error) {
	// period2 is exclusive: push it one day past 'to'.
	epoch := date.New(1970, time.January, 1)
	addr := fmt.Sprintf("%s/v8/finance/chart/%s?period1=%d&period2=%d&interval=1d&events=history",
		c.BaseURL, url.PathEscape(symbol),
		int64(from.Sub(epoch))*86400, int64(to.Add(1).Sub(epoch))*86400)

	var payload chartResponse
	if err := aksjeradar.JSONGet(c.cachingClient, addr, &payload); err != nil {
		return nil, err
	}
	if e := payload.Chart.Error; e != nil {
		return nil, fmt.Errorf("chart API error for %q: %s: %s", symbol, e.Code, e.Description)
	}
	if len(payload.Chart.Result) == 0 || len(payload.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, fmt.Errorf("chart API returned no series for %q", symbol)
	}

	result := payload.Chart.Result[0]
	quote := result.Indicators.Quote[0]

	var candles []aksjeradar.Candle
	for i, ts := range result.Timestamp {
		// Null slots appear on half-traded days; skip incomplete bars.
		if i >= len(quote.Close) || quote.Close[i] == nil || quote.Open[i] == nil {
			continue
		}
		on := date.FromUnix(ts)
		if on.Before(from) || on.After(to) {
			continue
		}
		candle := aksjeradar.Candle{
			Date:  on,
			Open:  *quote.Open[i],
			Close: *quote.Close[i],
		}
		if quote.High[i] != nil {
			candle.High = *quote.High[i]
		}
		if quote.Low[i] != nil {
			candle.Low = *quote.Low[i]
		}
		if quote.Volume[i] != nil {
			candle.Volume = *quote.Volume[i]
		}
		candles = append(candles, candle)
	}
	return candles, nil
}

// Quote fetches the latest snapshot of a symbol from the chart meta block.
// The meta block is deeply nested and its shape drifts, so the few fields we
// need are read with jsonpath instead of a brittle struct.
func (c *Client) Quote(symbol string) (aksjeradar.Quote, error) {
	addr := fmt.Sprintf("%s/v8/finance/chart/%s?range=1d&interval=1m", c.BaseURL, url.PathEscape(symbol))

	var jobj any
	if err := aksjeradar.JSONGet(c.liveClient, addr, &jobj); err != nil {
		return aksjeradar.Quote{}, err
	}

	meta := func(field string) (float64, error) {
		path := "$.chart.result[0].meta." + field
		jval, err := jsonpath.Get(path, jobj)
		if err != nil {
			return 0, fmt.Errorf("quote %q: missing %s: %w", symbol, path, err)
		}
		// jsonpath may wrap a single answer in a list; keep the first one.
		if jlist, ok := jval.([]any); ok && len(jlist) > 0 {
			jval = jlist[0]
		}
		v, ok := jval.(float64)
		if !ok {
			return 0, fmt.Errorf("quote %q: %s is %T, want number", symbol, path, jval)
		}
		return v, nil
	}

	last, err := meta("regularMarketPrice")
	if err != nil {
		return aksjeradar.Quote{}, err
	}
	prev, err := meta("chartPreviousClose")
	if err != nil {
		return aksjeradar.Quote{}, err
	}
	// High, low and volume are best-effort: not all symbols expose them.
	high, _ := meta("regularMarketDayHigh")
	low, _ := meta("regularMarketDayLow")
	volume, _ := meta("regularMarketVolume")

	q := aksjeradar.Quote{
		Symbol:  symbol,
		Last:    last,
		Change:  last - prev,
		DayHigh: high,
		DayLow:  low,
		Volume:  int64(volume),
		Source:  aksjeradar.SourceReal,
		Updated: time.Now(),
	}
	if prev != 0 {
		q.ChangePct = 100 * q.Change / prev
	}
	return q, nil
}
