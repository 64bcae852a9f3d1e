package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"gophercalc/internal/model"
)

type AuthEventRepository struct {
	db *gorm.DB
}

func NewAuthEventRepository(db *gorm.DB) *AuthEventRepository {
	return &AuthEventRepository{db: db}
}

// Create persists one audit record. A duplicate event_id comes back as
// ErrDuplicateEntry so the worker can acknowledge redeliveries instead
// of retrying them forever.
func (r *AuthEventRepository) Create(ctx context.Context, event *model.AuthEvent) error {
	if err := r.db.WithContext(ctx).Create(event).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicateEntry
		}
		return fmt.Errorf("create auth event failed: %w", err)
	}
	return nil
}

// DeleteOlderThan removes audit records created before cutoff and
// returns how many rows went away.
func (r *AuthEventRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Where("created_at < ?", cutoff).Delete(&model.AuthEvent{})
	if res.Error != nil {
		return 0, fmt.Errorf("delete old auth events failed: %w", res.Error)
	}
	return res.RowsAffected, nil
}
