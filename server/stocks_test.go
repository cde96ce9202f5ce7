package server

import (
	"testing"

	"github.com/aksjeradar/aksjeradar"
	"github.com/aksjeradar/aksjeradar/date"
)

func TestSummaryForWarmHistory(t *testing.T) {
	s := testServer(t)
	to := date.Today()
	for _, c := range aksjeradar.SyntheticHistory("EQNR.OL", to.Add(-120), to) {
		s.market.Append("EQNR.OL", c)
	}

	sum, ok := s.summaryFor("EQNR.OL")
	if !ok {
		t.Fatal("no summary over a warm 120-day history")
	}
	if sum.Symbol != "EQNR.OL" {
		t.Errorf("summary symbol = %q", sum.Symbol)
	}
	if sum.RSI == nil || *sum.RSI < 0 || *sum.RSI > 100 {
		t.Errorf("RSI = %v", sum.RSI)
	}
}
