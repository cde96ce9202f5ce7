package store

import (
	"encoding/json"
	"fmt"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// NotificationRepo persists in-app notifications.
type NotificationRepo struct {
	db *gorm.DB
}

// Create stores a notification. payload is marshalled into the Data column
// and may be nil.
func (r *NotificationRepo) Create(userID uint, title, body string, payload any) (*Notification, error) {
	n := &Notification{UserID: userID, Title: title, Body: body}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("cannot marshal notification payload: %w", err)
		}
		n.Data = datatypes.JSON(raw)
	}
	if err := r.db.Create(n).Error; err != nil {
		return nil, wrap(err)
	}
	return n, nil
}

// List returns notifications of a user, newest first. unreadOnly narrows to
// unread ones.
func (r *NotificationRepo) List(userID uint, unreadOnly bool) ([]Notification, error) {
	q := r.db.Where("user_id = ?", userID)
	if unreadOnly {
		q = q.Where("read = ?", false)
	}
	var out []Notification
	err := q.Order("created_at DESC").Find(&out).Error
	return out, wrap(err)
}

// MarkRead flags one notification as read, scoped to its owner.
func (r *NotificationRepo) MarkRead(userID, id uint) error {
	res := r.db.Model(&Notification{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("read", true)
	if res.Error != nil {
		return wrap(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkAllRead flags every notification of a user as read.
func (r *NotificationRepo) MarkAllRead(userID uint) error {
	return wrap(r.db.Model(&Notification{}).
		Where("user_id = ? AND read = ?", userID, false).
		Update("read", true).Error)
}
