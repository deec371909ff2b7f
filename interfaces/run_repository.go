package interfaces

import (
	"context"

	"github.com/inboxpurge/inboxpurge/internal/enum"
	"github.com/inboxpurge/inboxpurge/internal/models"
)

type RunRepository interface {
	Create(ctx context.Context, run *models.CleanupRun) error
	GetByID(ctx context.Context, id string) (*models.CleanupRun, error)
	// GetActive returns the run currently in pending, running or paused
	// state, or nil when none exists.
	GetActive(ctx context.Context) (*models.CleanupRun, error)
	List(ctx context.Context, limit, offset int) ([]models.CleanupRun, int64, error)
	UpdateStatus(ctx context.Context, id string, status enum.RunStatus) error
	// SaveProgress persists counters and the progress cursor in a single
	// update so a crash never splits them.
	SaveProgress(ctx context.Context, run *models.CleanupRun) error
	Finish(ctx context.Context, id string, status enum.RunStatus, errorMessage string) error
}
