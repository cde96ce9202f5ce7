package store

import (
	"fmt"
	"time"

	"github.com/aksjeradar/aksjeradar"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SessionTTL is how long a login session stays valid.
const SessionTTL = 30 * 24 * time.Hour

// UserRepo persists accounts, sessions and subscriptions.
type UserRepo struct {
	db *gorm.DB
}

// Create registers a new user. The email must be unused.
func (r *UserRepo) Create(email, passwordHash, displayName string) (*User, error) {
	var count int64
	if err := r.db.Model(&User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return nil, wrap(err)
	}
	if count > 0 {
		return nil, fmt.Errorf("email %q: %w", email, ErrDuplicate)
	}
	u := &User{Email: email, PasswordHash: passwordHash, DisplayName: displayName}
	if err := r.db.Create(u).Error; err != nil {
		return nil, wrap(err)
	}
	return u, nil
}

// ByEmail returns the user with this email.
func (r *UserRepo) ByEmail(email string) (*User, error) {
	var u User
	if err := r.db.Where("email = ?", email).First(&u).Error; err != nil {
		return nil, wrap(err)
	}
	return &u, nil
}

// ByID returns the user with this id.
func (r *UserRepo) ByID(id uint) (*User, error) {
	var u User
	if err := r.db.First(&u, id).Error; err != nil {
		return nil, wrap(err)
	}
	return &u, nil
}

// SetTelegramChatID links a Telegram chat to the account for push alerts.
func (r *UserRepo) SetTelegramChatID(userID uint, chatID int64) error {
	return wrap(r.db.Model(&User{}).Where("id = ?", userID).Update("telegram_chat_id", chatID).Error)
}

// All returns every registered user, for the daily summary job.
func (r *UserRepo) All() ([]User, error) {
	var users []User
	if err := r.db.Find(&users).Error; err != nil {
		return nil, wrap(err)
	}
	return users, nil
}

// CreateSession opens a new session for a user and returns its token.
func (r *UserRepo) CreateSession(userID uint, now time.Time) (string, error) {
	s := &Session{
		Token:     uuid.NewString(),
		UserID:    userID,
		ExpiresAt: now.Add(SessionTTL),
	}
	if err := r.db.Create(s).Error; err != nil {
		return "", wrap(err)
	}
	return s.Token, nil
}

// BySession resolves a session token to its user. Expired sessions count as
// not found.
func (r *UserRepo) BySession(token string, now time.Time) (*User, error) {
	var s Session
	err := r.db.Preload("User").Where("token = ?", token).First(&s).Error
	if err != nil {
		return nil, wrap(err)
	}
	if now.After(s.ExpiresAt) {
		return nil, ErrNotFound
	}
	return &s.User, nil
}

// DeleteSession logs a session out.
func (r *UserRepo) DeleteSession(token string) error {
	return wrap(r.db.Where("token = ?", token).Delete(&Session{}).Error)
}

// UpsertSubscription records the Stripe subscription state of a user.
func (r *UserRepo) UpsertSubscription(sub *Subscription) error {
	return wrap(r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		UpdateAll: true,
	}).Create(sub).Error)
}

// SubscriptionOf returns the subscription row of a user, if any.
func (r *UserRepo) SubscriptionOf(userID uint) (*Subscription, error) {
	var s Subscription
	if err := r.db.Where("user_id = ?", userID).First(&s).Error; err != nil {
		return nil, wrap(err)
	}
	return &s, nil
}

// SubscriptionByCustomer returns the subscription row for a Stripe customer.
func (r *UserRepo) SubscriptionByCustomer(customer string) (*Subscription, error) {
	var s Subscription
	if err := r.db.Where("stripe_customer = ?", customer).First(&s).Error; err != nil {
		return nil, wrap(err)
	}
	return &s, nil
}

// TierOf returns the access tier of a user id. Unknown users are demo.
func (r *UserRepo) TierOf(userID uint, now time.Time) aksjeradar.Tier {
	if userID == 0 {
		return aksjeradar.TierDemo
	}
	sub, err := r.SubscriptionOf(userID)
	if err == nil && sub.IsActive(now) {
		return aksjeradar.TierSubscriber
	}
	return aksjeradar.TierRegistered
}
