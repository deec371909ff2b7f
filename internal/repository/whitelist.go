package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/inboxpurge/inboxpurge/interfaces"
	"github.com/inboxpurge/inboxpurge/internal/models"
)

// GormWhitelistRepository implements WhitelistRepository using GORM
type GormWhitelistRepository struct {
	db *gorm.DB
}

func NewWhitelistRepository(db *gorm.DB) interfaces.WhitelistRepository {
	return &GormWhitelistRepository{db: db}
}

func (r *GormWhitelistRepository) Add(ctx context.Context, entry *models.WhitelistDomain) error {
	if entry == nil || entry.Domain == "" {
		return ErrInvalidInput
	}

	entry.Domain = strings.ToLower(strings.TrimSpace(entry.Domain))
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *GormWhitelistRepository) Remove(ctx context.Context, domain string) error {
	if domain == "" {
		return ErrInvalidInput
	}

	result := r.db.WithContext(ctx).
		Delete(&models.WhitelistDomain{}, "domain = ?", strings.ToLower(strings.TrimSpace(domain)))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrWhitelistNotFound
	}

	return nil
}

func (r *GormWhitelistRepository) GetAll(ctx context.Context) ([]models.WhitelistDomain, error) {
	var entries []models.WhitelistDomain
	result := r.db.WithContext(ctx).Order("domain ASC").Find(&entries)
	if result.Error != nil {
		return nil, result.Error
	}

	return entries, nil
}

func (r *GormWhitelistRepository) ExistsByDomain(ctx context.Context, domain string) (bool, error) {
	if domain == "" {
		return false, ErrInvalidInput
	}

	var count int64
	err := r.db.WithContext(ctx).Model(&models.WhitelistDomain{}).
		Where("domain = ?", strings.ToLower(strings.TrimSpace(domain))).
		Count(&count).Error
	if err != nil {
		return false, err
	}

	return count > 0, nil
}
