package interfaces

import (
	"context"

	"github.com/inboxpurge/inboxpurge/internal/models"
)

type WhitelistRepository interface {
	Add(ctx context.Context, entry *models.WhitelistDomain) error
	Remove(ctx context.Context, domain string) error
	GetAll(ctx context.Context) ([]models.WhitelistDomain, error)
	ExistsByDomain(ctx context.Context, domain string) (bool, error)
}
