package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/inboxpurge/inboxpurge/interfaces"
	"github.com/inboxpurge/inboxpurge/internal/models"
)

// GormClassificationRepository implements ClassificationRepository using GORM
type GormClassificationRepository struct {
	db *gorm.DB
}

func NewClassificationRepository(db *gorm.DB) interfaces.ClassificationRepository {
	return &GormClassificationRepository{db: db}
}

func (r *GormClassificationRepository) GetByMessageID(ctx context.Context, messageID string) (*models.EmailClassification, error) {
	if messageID == "" {
		return nil, ErrInvalidInput
	}

	var classification models.EmailClassification
	result := r.db.WithContext(ctx).Where("message_id = ?", messageID).First(&classification)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}

	return &classification, nil
}

func (r *GormClassificationRepository) Upsert(ctx context.Context, classification *models.EmailClassification) error {
	if classification == nil || classification.MessageID == "" {
		return ErrInvalidInput
	}

	var existing models.EmailClassification
	result := r.db.WithContext(ctx).Where("message_id = ?", classification.MessageID).First(&existing)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			if classification.ProcessedAt.IsZero() {
				classification.ProcessedAt = time.Now()
			}
			return r.db.WithContext(ctx).Create(classification).Error
		}
		return result.Error
	}

	return r.db.WithContext(ctx).Model(&models.EmailClassification{}).
		Where("id = ?", existing.ID).
		Updates(map[string]interface{}{
			"classification": classification.Classification.String(),
			"category":       classification.Category,
			"confidence":     classification.Confidence,
			"reasoning":      classification.Reasoning,
			"processed_at":   time.Now(),
		}).Error
}
