package models

import (
	"time"

	"gorm.io/gorm"

	"github.com/inboxpurge/inboxpurge/internal/enum"
	"github.com/inboxpurge/inboxpurge/internal/utils"
)

type Sender struct {
	ID                 string                 `gorm:"column:id;type:varchar(50);primaryKey" json:"id"`
	Email              string                 `gorm:"column:email;type:varchar(320);uniqueIndex" json:"email"`
	Domain             string                 `gorm:"column:domain;type:varchar(255);index" json:"domain"`
	DisplayName        string                 `gorm:"column:display_name;type:varchar(255)" json:"displayName,omitempty"`
	MessageCount       int                    `gorm:"column:message_count;type:integer;default:0" json:"messageCount"`
	HasListUnsubscribe bool                   `gorm:"column:has_list_unsubscribe;type:boolean;default:false" json:"hasListUnsubscribe"`
	UnsubscribeHeader  JSONMap                `gorm:"column:unsubscribe_header;type:jsonb" json:"unsubscribeHeader,omitempty"`
	UnsubscribeMethod  enum.UnsubscribeMethod `gorm:"column:unsubscribe_method;type:varchar(20)" json:"unsubscribeMethod,omitempty"`
	Unsubscribed       bool                   `gorm:"column:unsubscribed;type:boolean;default:false" json:"unsubscribed"`
	UnsubscribedAt     *time.Time             `gorm:"column:unsubscribed_at;type:timestamp" json:"unsubscribedAt,omitempty"`
	FilterCreated      bool                   `gorm:"column:filter_created;type:boolean;default:false" json:"filterCreated"`
	FilterID           string                 `gorm:"column:filter_id;type:varchar(255)" json:"filterId,omitempty"`
	FirstSeenAt        time.Time              `gorm:"column:first_seen_at;type:timestamp" json:"firstSeenAt"`
	LastSeenAt         time.Time              `gorm:"column:last_seen_at;type:timestamp" json:"lastSeenAt"`
	CreatedAt          time.Time              `gorm:"column:created_at;type:timestamp;default:current_timestamp" json:"createdAt"`
}

func (Sender) TableName() string {
	return "senders"
}

func (m *Sender) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = utils.GenerateNanoIDWithPrefix("sndr", 16)
	}
	return nil
}
