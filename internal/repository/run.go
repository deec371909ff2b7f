package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/inboxpurge/inboxpurge/interfaces"
	"github.com/inboxpurge/inboxpurge/internal/enum"
	"github.com/inboxpurge/inboxpurge/internal/models"
)

// GormRunRepository implements RunRepository using GORM
type GormRunRepository struct {
	db *gorm.DB
}

func NewRunRepository(db *gorm.DB) interfaces.RunRepository {
	return &GormRunRepository{db: db}
}

// Create adds a new run, rejecting it when another run is still active.
func (r *GormRunRepository) Create(ctx context.Context, run *models.CleanupRun) error {
	if run == nil {
		return ErrInvalidInput
	}

	tx := r.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return tx.Error
	}
	defer func() {
		if rec := recover(); rec != nil {
			tx.Rollback()
		}
	}()

	var active int64
	if err := tx.Model(&models.CleanupRun{}).
		Where("status IN ?", []string{
			enum.RunStatusPending.String(),
			enum.RunStatusRunning.String(),
			enum.RunStatusPaused.String(),
		}).
		Count(&active).Error; err != nil {
		tx.Rollback()
		return err
	}
	if active > 0 {
		tx.Rollback()
		return ErrRunAlreadyActive
	}

	if run.Status == "" {
		run.Status = enum.RunStatusPending
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now()
	}

	if err := tx.Create(run).Error; err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit().Error
}

func (r *GormRunRepository) GetByID(ctx context.Context, id string) (*models.CleanupRun, error) {
	if id == "" {
		return nil, ErrInvalidInput
	}

	var run models.CleanupRun
	result := r.db.WithContext(ctx).Where("id = ?", id).First(&run)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrRunNotFound
		}
		return nil, result.Error
	}

	return &run, nil
}

func (r *GormRunRepository) GetActive(ctx context.Context) (*models.CleanupRun, error) {
	var run models.CleanupRun
	result := r.db.WithContext(ctx).
		Where("status IN ?", []string{
			enum.RunStatusPending.String(),
			enum.RunStatusRunning.String(),
			enum.RunStatusPaused.String(),
		}).
		Order("started_at DESC").
		First(&run)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}

	return &run, nil
}

func (r *GormRunRepository) List(ctx context.Context, limit, offset int) ([]models.CleanupRun, int64, error) {
	var runs []models.CleanupRun
	var totalCount int64

	if err := r.db.WithContext(ctx).Model(&models.CleanupRun{}).Count(&totalCount).Error; err != nil {
		return nil, 0, err
	}

	if limit <= 0 {
		limit = 10
	}

	result := r.db.WithContext(ctx).
		Order("started_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&runs)
	if result.Error != nil {
		return nil, 0, result.Error
	}

	return runs, totalCount, nil
}

func (r *GormRunRepository) UpdateStatus(ctx context.Context, id string, status enum.RunStatus) error {
	if id == "" {
		return ErrInvalidInput
	}

	result := r.db.WithContext(ctx).Model(&models.CleanupRun{}).
		Where("id = ?", id).
		Update("status", status.String())
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrRunNotFound
	}

	return nil
}

// SaveProgress writes counters and cursor in one UPDATE.
func (r *GormRunRepository) SaveProgress(ctx context.Context, run *models.CleanupRun) error {
	if run == nil || run.ID == "" {
		return ErrInvalidInput
	}

	result := r.db.WithContext(ctx).Model(&models.CleanupRun{}).
		Where("id = ?", run.ID).
		Updates(map[string]interface{}{
			"senders_total":        run.SendersTotal,
			"senders_processed":    run.SendersProcessed,
			"emails_deleted":       run.EmailsDeleted,
			"bytes_freed_estimate": run.BytesFreedEstimate,
			"progress_cursor":      run.ProgressCursor,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrRunNotFound
	}

	return nil
}

func (r *GormRunRepository) Finish(ctx context.Context, id string, status enum.RunStatus, errorMessage string) error {
	if id == "" {
		return ErrInvalidInput
	}

	now := time.Now()
	result := r.db.WithContext(ctx).Model(&models.CleanupRun{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":        status.String(),
			"finished_at":   &now,
			"error_message": errorMessage,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrRunNotFound
	}

	return nil
}
