package models

import (
	"time"

	"gorm.io/gorm"

	"github.com/inboxpurge/inboxpurge/internal/utils"
)

type WhitelistDomain struct {
	ID        string    `gorm:"column:id;type:varchar(50);primaryKey" json:"id"`
	Domain    string    `gorm:"column:domain;type:varchar(255);uniqueIndex" json:"domain"`
	Reason    string    `gorm:"column:reason;type:text" json:"reason,omitempty"`
	CreatedAt time.Time `gorm:"column:created_at;type:timestamp;default:current_timestamp" json:"createdAt"`
}

func (WhitelistDomain) TableName() string {
	return "whitelist_domains"
}

func (m *WhitelistDomain) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = utils.GenerateNanoIDWithPrefix("wl", 16)
	}
	return nil
}
