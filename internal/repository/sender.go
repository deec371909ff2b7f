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

// GormSenderRepository implements SenderRepository using GORM
type GormSenderRepository struct {
	db *gorm.DB
}

func NewSenderRepository(db *gorm.DB) interfaces.SenderRepository {
	return &GormSenderRepository{db: db}
}

// Upsert creates the sender or refreshes its discovery-owned fields.
// Orchestrator-owned flags (unsubscribed, filter_created) are never
// touched here.
func (r *GormSenderRepository) Upsert(ctx context.Context, sender *models.Sender) error {
	if sender == nil || sender.Email == "" {
		return ErrInvalidInput
	}

	var existing models.Sender
	result := r.db.WithContext(ctx).Where("email = ?", sender.Email).First(&existing)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			if sender.FirstSeenAt.IsZero() {
				sender.FirstSeenAt = time.Now()
			}
			if sender.LastSeenAt.IsZero() {
				sender.LastSeenAt = time.Now()
			}
			return r.db.WithContext(ctx).Create(sender).Error
		}
		return result.Error
	}

	updates := map[string]interface{}{
		"message_count":        sender.MessageCount,
		"has_list_unsubscribe": sender.HasListUnsubscribe,
		"last_seen_at":         time.Now(),
	}
	if sender.DisplayName != "" {
		updates["display_name"] = sender.DisplayName
	}
	if sender.UnsubscribeHeader != nil {
		updates["unsubscribe_header"] = sender.UnsubscribeHeader
	}
	if sender.UnsubscribeMethod != "" {
		updates["unsubscribe_method"] = sender.UnsubscribeMethod.String()
	}

	err := r.db.WithContext(ctx).Model(&models.Sender{}).
		Where("id = ?", existing.ID).
		Updates(updates).Error
	if err != nil {
		return err
	}

	sender.ID = existing.ID
	return nil
}

func (r *GormSenderRepository) GetByEmail(ctx context.Context, email string) (*models.Sender, error) {
	if email == "" {
		return nil, ErrInvalidInput
	}

	var sender models.Sender
	result := r.db.WithContext(ctx).Where("email = ?", email).First(&sender)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrSenderNotFound
		}
		return nil, result.Error
	}

	return &sender, nil
}

func (r *GormSenderRepository) GetAll(ctx context.Context) ([]models.Sender, error) {
	var senders []models.Sender
	result := r.db.WithContext(ctx).Find(&senders)
	if result.Error != nil {
		return nil, result.Error
	}

	return senders, nil
}

func (r *GormSenderRepository) List(ctx context.Context, limit, offset int) ([]models.Sender, int64, error) {
	var senders []models.Sender
	var totalCount int64

	if err := r.db.WithContext(ctx).Model(&models.Sender{}).Count(&totalCount).Error; err != nil {
		return nil, 0, err
	}

	if limit <= 0 {
		limit = 10
	}

	result := r.db.WithContext(ctx).
		Order("message_count DESC").
		Limit(limit).
		Offset(offset).
		Find(&senders)
	if result.Error != nil {
		return nil, 0, result.Error
	}

	return senders, totalCount, nil
}

func (r *GormSenderRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Sender{}).Count(&count).Error
	return count, err
}

func (r *GormSenderRepository) MarkUnsubscribed(ctx context.Context, id string, method enum.UnsubscribeMethod) error {
	if id == "" {
		return ErrInvalidInput
	}

	now := time.Now()
	result := r.db.WithContext(ctx).Model(&models.Sender{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"unsubscribed":       true,
			"unsubscribed_at":    &now,
			"unsubscribe_method": method.String(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrSenderNotFound
	}

	return nil
}

func (r *GormSenderRepository) MarkFilterCreated(ctx context.Context, id string, filterID string) error {
	if id == "" {
		return ErrInvalidInput
	}

	result := r.db.WithContext(ctx).Model(&models.Sender{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"filter_created": true,
			"filter_id":      filterID,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrSenderNotFound
	}

	return nil
}

func (r *GormSenderRepository) Stats(ctx context.Context) (*interfaces.SenderStats, error) {
	stats := &interfaces.SenderStats{}
	db := r.db.WithContext(ctx).Model(&models.Sender{})

	if err := db.Count(&stats.TotalSenders).Error; err != nil {
		return nil, err
	}

	var totalMessages *int64
	if err := r.db.WithContext(ctx).Model(&models.Sender{}).
		Select("SUM(message_count)").Scan(&totalMessages).Error; err != nil {
		return nil, err
	}
	if totalMessages != nil {
		stats.TotalMessages = *totalMessages
	}

	if err := r.db.WithContext(ctx).Model(&models.Sender{}).
		Where("has_list_unsubscribe = ?", true).
		Count(&stats.Unsubscribable).Error; err != nil {
		return nil, err
	}

	if err := r.db.WithContext(ctx).Model(&models.Sender{}).
		Where("unsubscribed = ?", true).
		Count(&stats.Unsubscribed).Error; err != nil {
		return nil, err
	}

	if err := r.db.WithContext(ctx).Model(&models.Sender{}).
		Where("filter_created = ?", true).
		Count(&stats.FiltersCreated).Error; err != nil {
		return nil, err
	}

	if err := r.db.WithContext(ctx).
		Order("message_count DESC").
		Limit(10).
		Find(&stats.TopSendersByCount).Error; err != nil {
		return nil, err
	}

	return stats, nil
}
