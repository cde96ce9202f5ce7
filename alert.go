package aksjeradar

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// AlertCondition is the direction of a price alert.
type AlertCondition string

const (
	AlertAbove AlertCondition = "above"
	AlertBelow AlertCondition = "below"
)

// ParseAlertCondition parses a string into an AlertCondition.
func ParseAlertCondition(s string) (AlertCondition, error) {
	switch AlertCondition(s) {
	case AlertAbove, AlertBelow:
		return AlertCondition(s), nil
	default:
		return "", fmt.Errorf("unknown alert condition: %q (want above or below)", s)
	}
}

// AlertTriggered reports whether a quote crosses the target: an "above"
// alert fires when last >= target, "below" when last <= target. The target
// is exact decimal, the quote float; comparison happens in decimals.
func AlertTriggered(cond AlertCondition, target decimal.Decimal, last float64) bool {
	price := decimal.NewFromFloat(last)
	switch cond {
	case AlertAbove:
		return price.GreaterThanOrEqual(target)
	case AlertBelow:
		return price.LessThanOrEqual(target)
	default:
		return false
	}
}
