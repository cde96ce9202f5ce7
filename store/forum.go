package store

import (
	"github.com/aksjeradar/aksjeradar"
	"gorm.io/gorm"
)

// ForumRepo persists forum posts.
type ForumRepo struct {
	db *gorm.DB
}

// Create validates a post, renders its markdown and stores it.
func (r *ForumRepo) Create(userID uint, author, title, body string) (*ForumPost, error) {
	if err := aksjeradar.ValidatePost(title, body); err != nil {
		return nil, err
	}
	html, err := aksjeradar.RenderPost(body)
	if err != nil {
		return nil, err
	}
	p := &ForumPost{UserID: userID, Author: author, Title: title, Body: body, BodyHTML: html}
	if err := r.db.Create(p).Error; err != nil {
		return nil, wrap(err)
	}
	return p, nil
}

// List returns posts newest first, paginated.
func (r *ForumRepo) List(limit, offset int) ([]ForumPost, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	var out []ForumPost
	err := r.db.Order("created_at DESC").Limit(limit).Offset(offset).Find(&out).Error
	return out, wrap(err)
}

// Get returns one post by id.
func (r *ForumRepo) Get(id uint) (*ForumPost, error) {
	var p ForumPost
	if err := r.db.First(&p, id).Error; err != nil {
		return nil, wrap(err)
	}
	return &p, nil
}
