package models

import (
	"time"

	"gorm.io/gorm"

	"github.com/inboxpurge/inboxpurge/internal/enum"
	"github.com/inboxpurge/inboxpurge/internal/utils"
)

// CleanupAction is an append-only audit record. One row per unit of work
// per sender; never updated after creation.
type CleanupAction struct {
	ID          string          `gorm:"column:id;type:varchar(50);primaryKey" json:"id"`
	RunID       string          `gorm:"column:run_id;type:varchar(50);index" json:"runId"`
	Timestamp   time.Time       `gorm:"column:timestamp;type:timestamp;default:current_timestamp" json:"timestamp"`
	ActionType  enum.ActionType `gorm:"column:action_type;type:varchar(20);index" json:"actionType"`
	SenderEmail string          `gorm:"column:sender_email;type:varchar(320)" json:"senderEmail,omitempty"`
	EmailCount  int             `gorm:"column:email_count;type:integer;default:0" json:"emailCount"`
	BytesFreed  int64           `gorm:"column:bytes_freed;type:bigint;default:0" json:"bytesFreed"`
	Notes       string          `gorm:"column:notes;type:text" json:"notes,omitempty"`
}

func (CleanupAction) TableName() string {
	return "cleanup_actions"
}

func (m *CleanupAction) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = utils.GenerateNanoIDWithPrefix("act", 16)
	}
	if m.Timestamp.IsZero() {
		m.Timestamp = time.Now()
	}
	return nil
}
