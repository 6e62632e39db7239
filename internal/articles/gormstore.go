package articles

import (
	"context" // Request contexts
	"errors"  // Error values

	"srq_assessment/internal/domain" // Domain models

	"gorm.io/gorm" // GORM ORM library
)

// GormStore upserts through gorm; pass a transaction handle to make a run atomic.
type GormStore struct {
	DB *gorm.DB
}

func (s GormStore) Upsert(ctx context.Context, a *domain.Article) (bool, error) {
	var existing domain.Article
	err := s.DB.WithContext(ctx).Where("title = ?", a.Title).First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return true, s.DB.WithContext(ctx).Create(a).Error
	}
	if err != nil {
		return false, err
	}
	a.ID = existing.ID
	err = s.DB.WithContext(ctx).Model(&existing).Updates(map[string]any{
		"author":   a.Author,
		"article":  a.Article,
		"date":     a.Date,
		"category": a.Category,
	}).Error
	return false, err
}
