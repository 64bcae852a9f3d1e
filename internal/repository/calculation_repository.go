package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"gophercalc/internal/model"
)

type CalculationRepository struct {
	db *gorm.DB
}

func NewCalculationRepository(db *gorm.DB) *CalculationRepository {
	return &CalculationRepository{db: db}
}

func (r *CalculationRepository) Create(ctx context.Context, calc *model.Calculation) error {
	if err := r.db.WithContext(ctx).Create(calc).Error; err != nil {
		return fmt.Errorf("create calculation failed: %w", err)
	}
	return nil
}

// ListByUserID returns the user's calculations newest first.
func (r *CalculationRepository) ListByUserID(ctx context.Context, userID uint, offset, limit int) ([]model.Calculation, error) {
	var calcs []model.Calculation
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Offset(offset).
		Limit(limit).
		Find(&calcs).Error
	if err != nil {
		return nil, fmt.Errorf("list calculations failed: %w", err)
	}
	return calcs, nil
}

func (r *CalculationRepository) GetByIDAndUserID(ctx context.Context, id, userID uint) (*model.Calculation, error) {
	var calc model.Calculation
	if err := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&calc).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get calculation failed: %w", err)
	}
	return &calc, nil
}

func (r *CalculationRepository) Update(ctx context.Context, calc *model.Calculation) error {
	if err := r.db.WithContext(ctx).Save(calc).Error; err != nil {
		return fmt.Errorf("update calculation failed: %w", err)
	}
	return nil
}

func (r *CalculationRepository) DeleteByIDAndUserID(ctx context.Context, id, userID uint) error {
	if err := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).Delete(&model.Calculation{}).Error; err != nil {
		return fmt.Errorf("delete calculation failed: %w", err)
	}
	return nil
}
