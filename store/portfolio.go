package store

import (
	"fmt"

	"github.com/aksjeradar/aksjeradar"
	"github.com/aksjeradar/aksjeradar/date"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PortfolioRepo persists portfolio entries.
type PortfolioRepo struct {
	db *gorm.DB
}

// Add validates and stores a portfolio entry for a user.
func (r *PortfolioRepo) Add(userID uint, e aksjeradar.PortfolioEntry) (*PortfolioEntry, error) {
	if err := e.Validate(); err != nil {
		return nil, err
	}
	row := &PortfolioEntry{
		UserID:   userID,
		Kind:     string(e.Kind),
		Symbol:   e.Symbol,
		Quantity: e.Quantity.String(),
		Price:    e.Price.String(),
		Amount:   e.Amount.String(),
		Currency: e.Currency,
		Date:     e.Date.String(),
	}
	if err := r.db.Create(row).Error; err != nil {
		return nil, wrap(err)
	}
	return row, nil
}

// Delete removes an entry, scoped to its owner.
func (r *PortfolioRepo) Delete(userID, entryID uint) error {
	res := r.db.Where("id = ? AND user_id = ?", entryID, userID).Delete(&PortfolioEntry{})
	if res.Error != nil {
		return wrap(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ListByUser returns all entries of a user as domain values, in insertion
// order (valuation sorts chronologically itself).
func (r *PortfolioRepo) ListByUser(userID uint) ([]aksjeradar.PortfolioEntry, error) {
	var rows []PortfolioEntry
	if err := r.db.Where("user_id = ?", userID).Order("id").Find(&rows).Error; err != nil {
		return nil, wrap(err)
	}
	out := make([]aksjeradar.PortfolioEntry, 0, len(rows))
	for _, row := range rows {
		e, err := row.Domain()
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

// Domain converts a stored row back into the domain entry.
func (row *PortfolioEntry) Domain() (aksjeradar.PortfolioEntry, error) {
	kind, err := aksjeradar.ParseEntryKind(row.Kind)
	if err != nil {
		return aksjeradar.PortfolioEntry{}, fmt.Errorf("corrupt entry %d: %w", row.ID, err)
	}
	on, err := date.Parse(row.Date)
	if err != nil {
		return aksjeradar.PortfolioEntry{}, fmt.Errorf("corrupt entry %d: %w", row.ID, err)
	}
	e := aksjeradar.PortfolioEntry{
		Kind:     kind,
		Symbol:   row.Symbol,
		Currency: row.Currency,
		Date:     on,
	}
	dec := func(s string) (decimal.Decimal, error) {
		if s == "" || s == "0" {
			return decimal.Zero, nil
		}
		return decimal.NewFromString(s)
	}
	if e.Quantity, err = dec(row.Quantity); err != nil {
		return aksjeradar.PortfolioEntry{}, fmt.Errorf("corrupt entry %d quantity %q: %w", row.ID, row.Quantity, err)
	}
	if e.Price, err = dec(row.Price); err != nil {
		return aksjeradar.PortfolioEntry{}, fmt.Errorf("corrupt entry %d price %q: %w", row.ID, row.Price, err)
	}
	if e.Amount, err = dec(row.Amount); err != nil {
		return aksjeradar.PortfolioEntry{}, fmt.Errorf("corrupt entry %d amount %q: %w", row.ID, row.Amount, err)
	}
	return e, nil
}
