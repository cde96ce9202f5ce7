package store

import (
	"fmt"
	"time"

	"github.com/aksjeradar/aksjeradar"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// AlertRepo persists price alerts.
type AlertRepo struct {
	db *gorm.DB
}

// Create stores a new active alert. A user can hold at most one active
// alert per (symbol, condition).
func (r *AlertRepo) Create(userID uint, symbol string, target decimal.Decimal, cond aksjeradar.AlertCondition, notifyPush bool) (*PriceAlert, error) {
	if !target.IsPositive() {
		return nil, fmt.Errorf("alert target must be positive, got %s", target)
	}
	var count int64
	err := r.db.Model(&PriceAlert{}).
		Where("user_id = ? AND symbol = ? AND condition = ? AND active = ?", userID, symbol, string(cond), true).
		Count(&count).Error
	if err != nil {
		return nil, wrap(err)
	}
	if count > 0 {
		return nil, fmt.Errorf("active %s alert for %s: %w", cond, symbol, ErrDuplicate)
	}
	a := &PriceAlert{
		UserID:     userID,
		Symbol:     symbol,
		Target:     target.String(),
		Condition:  string(cond),
		Active:     true,
		NotifyPush: notifyPush,
	}
	if err := r.db.Create(a).Error; err != nil {
		return nil, wrap(err)
	}
	return a, nil
}

// ListByUser returns all alerts of a user, newest first.
func (r *AlertRepo) ListByUser(userID uint) ([]PriceAlert, error) {
	var out []PriceAlert
	err := r.db.Where("user_id = ?", userID).Order("created_at DESC").Find(&out).Error
	return out, wrap(err)
}

// ListActive returns every active alert across all users: the monitor's
// work queue.
func (r *AlertRepo) ListActive() ([]PriceAlert, error) {
	var out []PriceAlert
	err := r.db.Where("active = ?", true).Find(&out).Error
	return out, wrap(err)
}

// MarkTriggered deactivates a fired alert and stamps the trigger time. Only
// an alert that is still active is updated, so concurrent sweeps fire each
// alert at most once; it reports whether this call won.
func (r *AlertRepo) MarkTriggered(alertID uint, at time.Time) (bool, error) {
	res := r.db.Model(&PriceAlert{}).
		Where("id = ? AND active = ?", alertID, true).
		Updates(map[string]any{"active": false, "triggered_at": at})
	if res.Error != nil {
		return false, wrap(res.Error)
	}
	return res.RowsAffected > 0, nil
}

// Reactivate re-arms a previously fired alert.
func (r *AlertRepo) Reactivate(userID, alertID uint) error {
	res := r.db.Model(&PriceAlert{}).
		Where("id = ? AND user_id = ?", alertID, userID).
		Updates(map[string]any{"active": true, "triggered_at": nil})
	if res.Error != nil {
		return wrap(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes an alert, scoped to its owner.
func (r *AlertRepo) Delete(userID, alertID uint) error {
	res := r.db.Where("id = ? AND user_id = ?", alertID, userID).Delete(&PriceAlert{})
	if res.Error != nil {
		return wrap(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// TargetDecimal parses the stored target back into an exact decimal.
func (a *PriceAlert) TargetDecimal() (decimal.Decimal, error) {
	d, err := decimal.NewFromString(a.Target)
	if err != nil {
		return decimal.Zero, fmt.Errorf("corrupt alert %d target %q: %w", a.ID, a.Target, err)
	}
	return d, nil
}
