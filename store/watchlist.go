package store

import (
	"fmt"

	"gorm.io/gorm"
)

// FavoriteRepo persists the per-user favorite symbols.
type FavoriteRepo struct {
	db *gorm.DB
}

// Add marks a symbol as favorite. Adding twice reports ErrDuplicate and
// leaves the row untouched.
func (r *FavoriteRepo) Add(userID uint, symbol, name string) error {
	var count int64
	err := r.db.Model(&Favorite{}).
		Where("user_id = ? AND symbol = ?", userID, symbol).
		Count(&count).Error
	if err != nil {
		return wrap(err)
	}
	if count > 0 {
		return fmt.Errorf("favorite %s: %w", symbol, ErrDuplicate)
	}
	return wrap(r.db.Create(&Favorite{UserID: userID, Symbol: symbol, Name: name}).Error)
}

// Remove unmarks a favorite. Removing a missing favorite reports ErrNotFound.
func (r *FavoriteRepo) Remove(userID uint, symbol string) error {
	res := r.db.Where("user_id = ? AND symbol = ?", userID, symbol).Delete(&Favorite{})
	if res.Error != nil {
		return wrap(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Toggle adds the favorite if absent, removes it if present, and reports
// whether the symbol is now a favorite. This is the semantics of the star
// button on the listing pages.
func (r *FavoriteRepo) Toggle(userID uint, symbol, name string) (favorited bool, err error) {
	switch err := r.Remove(userID, symbol); err {
	case nil:
		return false, nil
	case ErrNotFound:
		if err := r.Add(userID, symbol, name); err != nil {
			return false, err
		}
		return true, nil
	default:
		return false, err
	}
}

// List returns the favorites of a user, most recent first.
func (r *FavoriteRepo) List(userID uint) ([]Favorite, error) {
	var out []Favorite
	err := r.db.Where("user_id = ?", userID).Order("created_at DESC").Find(&out).Error
	return out, wrap(err)
}

// WatchlistRepo persists the per-user watchlist.
type WatchlistRepo struct {
	db *gorm.DB
}

// Add puts a symbol on the watchlist. Adding twice reports ErrDuplicate.
func (r *WatchlistRepo) Add(userID uint, symbol, note string) error {
	var count int64
	err := r.db.Model(&WatchlistItem{}).
		Where("user_id = ? AND symbol = ?", userID, symbol).
		Count(&count).Error
	if err != nil {
		return wrap(err)
	}
	if count > 0 {
		return fmt.Errorf("watchlist %s: %w", symbol, ErrDuplicate)
	}
	return wrap(r.db.Create(&WatchlistItem{UserID: userID, Symbol: symbol, Note: note}).Error)
}

// Remove deletes a symbol from the watchlist.
func (r *WatchlistRepo) Remove(userID uint, symbol string) error {
	res := r.db.Where("user_id = ? AND symbol = ?", userID, symbol).Delete(&WatchlistItem{})
	if res.Error != nil {
		return wrap(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// SetNote updates the note on a watchlist item.
func (r *WatchlistRepo) SetNote(userID uint, symbol, note string) error {
	res := r.db.Model(&WatchlistItem{}).
		Where("user_id = ? AND symbol = ?", userID, symbol).
		Update("note", note)
	if res.Error != nil {
		return wrap(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// List returns the watchlist of a user, most recent first.
func (r *WatchlistRepo) List(userID uint) ([]WatchlistItem, error) {
	var out []WatchlistItem
	err := r.db.Where("user_id = ?", userID).Order("created_at DESC").Find(&out).Error
	return out, wrap(err)
}

// Symbols returns the watchlist symbols of all users, deduplicated: the set
// the quote refresher keeps warm.
func (r *WatchlistRepo) Symbols() ([]string, error) {
	var out []string
	err := r.db.Model(&WatchlistItem{}).Distinct("symbol").Order("symbol").Pluck("symbol", &out).Error
	return out, wrap(err)
}
