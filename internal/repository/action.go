package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/inboxpurge/inboxpurge/interfaces"
	"github.com/inboxpurge/inboxpurge/internal/models"
)

// GormActionRepository implements ActionRepository using GORM
type GormActionRepository struct {
	db *gorm.DB
}

func NewActionRepository(db *gorm.DB) interfaces.ActionRepository {
	return &GormActionRepository{db: db}
}

func (r *GormActionRepository) Create(ctx context.Context, action *models.CleanupAction) error {
	if action == nil || action.RunID == "" {
		return ErrInvalidInput
	}

	return r.db.WithContext(ctx).Create(action).Error
}

func (r *GormActionRepository) ListByRun(ctx context.Context, runID string, limit, offset int) ([]models.CleanupAction, int64, error) {
	if runID == "" {
		return nil, 0, ErrInvalidInput
	}

	var actions []models.CleanupAction
	var totalCount int64

	if err := r.db.WithContext(ctx).Model(&models.CleanupAction{}).
		Where("run_id = ?", runID).
		Count(&totalCount).Error; err != nil {
		return nil, 0, err
	}

	if limit <= 0 {
		limit = 50
	}

	result := r.db.WithContext(ctx).
		Where("run_id = ?", runID).
		Order("timestamp ASC").
		Limit(limit).
		Offset(offset).
		Find(&actions)
	if result.Error != nil {
		return nil, 0, result.Error
	}

	return actions, totalCount, nil
}
