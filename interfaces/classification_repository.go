package interfaces

import (
	"context"

	"github.com/inboxpurge/inboxpurge/internal/models"
)

type ClassificationRepository interface {
	GetByMessageID(ctx context.Context, messageID string) (*models.EmailClassification, error)
	Upsert(ctx context.Context, classification *models.EmailClassification) error
}
