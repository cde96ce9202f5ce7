// Package store implements persistence for users, watchlists, favorites,
// portfolios, price alerts, notifications and forum posts on SQLite via gorm.
package store

import (
	"errors"
	"fmt"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// ErrNotFound is returned when a row does not exist.
var ErrNotFound = errors.New("not found")

// ErrDuplicate is returned when a uniqueness rule would be violated
// (one favorite per user+symbol, one active alert per user+symbol+condition).
var ErrDuplicate = errors.New("already exists")

// Store bundles the repositories over one database handle.
type Store struct {
	db *gorm.DB

	Users         *UserRepo
	Favorites     *FavoriteRepo
	Watchlist     *WatchlistRepo
	Portfolio     *PortfolioRepo
	Alerts        *AlertRepo
	Notifications *NotificationRepo
	Forum         *ForumRepo
}

// Open opens (and migrates) the SQLite database at path. Use ":memory:" in
// tests.
func Open(path string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
		// Map sqlite constraint violations to gorm.ErrDuplicatedKey, so a
		// racing insert that slips past a Count pre-check still surfaces as
		// ErrDuplicate.
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("cannot open database %q: %w", path, err)
	}
	if err := db.AutoMigrate(
		&User{}, &Session{}, &Favorite{}, &WatchlistItem{},
		&PortfolioEntry{}, &PriceAlert{}, &Notification{},
		&ForumPost{}, &Subscription{},
	); err != nil {
		return nil, fmt.Errorf("cannot migrate database %q: %w", path, err)
	}
	return &Store{
		db:            db,
		Users:         &UserRepo{db},
		Favorites:     &FavoriteRepo{db},
		Watchlist:     &WatchlistRepo{db},
		Portfolio:     &PortfolioRepo{db},
		Alerts:        &AlertRepo{db},
		Notifications: &NotificationRepo{db},
		Forum:         &ForumRepo{db},
	}, nil
}

// wrap maps gorm errors to the store's domain errors.
func wrap(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicate
	default:
		return err
	}
}
