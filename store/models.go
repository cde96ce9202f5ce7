package store

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// User is a registered account. Tier is derived from the subscription, not
// stored: a row here means at least "registered".
type User struct {
	gorm.Model
	Email          string `gorm:"uniqueIndex;not null"`
	PasswordHash   string `gorm:"not null"`
	DisplayName    string
	TelegramChatID int64 // 0 when the user has not linked Telegram
}

// Session is a logged-in browser session.
type Session struct {
	gorm.Model
	Token     string `gorm:"uniqueIndex;not null"` // uuid
	UserID    uint   `gorm:"index;not null"`
	ExpiresAt time.Time
	User      User `gorm:"foreignKey:UserID"`
}

// Favorite marks a symbol on a user's favorites list. One row per
// (user, symbol).
type Favorite struct {
	gorm.Model
	UserID uint   `gorm:"uniqueIndex:idx_fav_user_symbol;not null"`
	Symbol string `gorm:"uniqueIndex:idx_fav_user_symbol;not null"`
	Name   string
}

// WatchlistItem is a symbol on a user's watchlist with an optional note.
// One row per (user, symbol).
type WatchlistItem struct {
	gorm.Model
	UserID uint   `gorm:"uniqueIndex:idx_watch_user_symbol;not null"`
	Symbol string `gorm:"uniqueIndex:idx_watch_user_symbol;not null"`
	Note   string
}

// PortfolioEntry is one portfolio event row. Quantity, price and amount are
// stored as exact decimal strings.
type PortfolioEntry struct {
	gorm.Model
	UserID   uint   `gorm:"index;not null"`
	Kind     string `gorm:"not null"` // buy, sell, deposit, withdraw, dividend
	Symbol   string `gorm:"index"`
	Quantity string
	Price    string
	Amount   string
	Currency string `gorm:"not null"`
	Date     string `gorm:"not null"` // ISO-8601 day
}

// PriceAlert is a user's price threshold. Target is stored as an exact
// decimal string. A fired alert is deactivated and stamped, so it fires at
// most once.
type PriceAlert struct {
	gorm.Model
	UserID      uint   `gorm:"index;not null"`
	Symbol      string `gorm:"index;not null"`
	Target      string `gorm:"not null"`
	Condition   string `gorm:"not null"` // above, below
	Active      bool   `gorm:"index;default:true"`
	NotifyPush  bool
	TriggeredAt *time.Time
}

// Notification is an in-app message for a user. Data carries the structured
// payload of the event (symbol and price for alert triggers).
type Notification struct {
	gorm.Model
	UserID uint   `gorm:"index;not null"`
	Title  string `gorm:"not null"`
	Body   string
	Data   datatypes.JSON
	Read   bool `gorm:"index;default:false"`
}

// ForumPost is a user post; BodyHTML caches the rendered markdown.
type ForumPost struct {
	gorm.Model
	UserID   uint   `gorm:"index;not null"`
	Author   string `gorm:"not null"`
	Title    string `gorm:"not null"`
	Body     string `gorm:"not null"` // markdown source
	BodyHTML string `gorm:"not null"`
}

// Subscription mirrors the Stripe subscription state of a user.
type Subscription struct {
	gorm.Model
	UserID           uint   `gorm:"uniqueIndex;not null"`
	StripeCustomer   string `gorm:"index"`
	StripeSubscriber string `gorm:"index"` // stripe subscription id
	Status           string // active, canceled, past_due, ...
	PeriodEnd        time.Time
}

// IsActive reports whether the subscription currently grants subscriber tier.
func (s Subscription) IsActive(now time.Time) bool {
	return s.Status == "active" && now.Before(s.PeriodEnd)
}
