package interfaces

import (
	"context"

	"github.com/inboxpurge/inboxpurge/internal/enum"
	"github.com/inboxpurge/inboxpurge/internal/models"
)

// SenderStats aggregates the sender table for reporting.
type SenderStats struct {
	TotalSenders      int64           `json:"totalSenders"`
	TotalMessages     int64           `json:"totalMessages"`
	Unsubscribable    int64           `json:"unsubscribable"`
	Unsubscribed      int64           `json:"unsubscribed"`
	FiltersCreated    int64           `json:"filtersCreated"`
	TopSendersByCount []models.Sender `json:"topSendersByCount"`
}

type SenderRepository interface {
	Upsert(ctx context.Context, sender *models.Sender) error
	GetByEmail(ctx context.Context, email string) (*models.Sender, error)
	GetAll(ctx context.Context) ([]models.Sender, error)
	List(ctx context.Context, limit, offset int) ([]models.Sender, int64, error)
	Count(ctx context.Context) (int64, error)
	MarkUnsubscribed(ctx context.Context, id string, method enum.UnsubscribeMethod) error
	MarkFilterCreated(ctx context.Context, id string, filterID string) error
	Stats(ctx context.Context) (*SenderStats, error)
}
