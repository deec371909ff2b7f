package interfaces

import (
	"context"

	"github.com/inboxpurge/inboxpurge/internal/models"
)

type ActionRepository interface {
	Create(ctx context.Context, action *models.CleanupAction) error
	ListByRun(ctx context.Context, runID string, limit, offset int) ([]models.CleanupAction, int64, error)
}
