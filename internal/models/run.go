package models

import (
	"time"

	"gorm.io/gorm"

	"github.com/inboxpurge/inboxpurge/internal/enum"
	"github.com/inboxpurge/inboxpurge/internal/utils"
)

type CleanupRun struct {
	ID                 string         `gorm:"column:id;type:varchar(50);primaryKey" json:"id"`
	Status             enum.RunStatus `gorm:"column:status;type:varchar(20);index" json:"status"`
	StartedAt          time.Time      `gorm:"column:started_at;type:timestamp;default:current_timestamp" json:"startedAt"`
	FinishedAt         *time.Time     `gorm:"column:finished_at;type:timestamp" json:"finishedAt,omitempty"`
	SendersTotal       int            `gorm:"column:senders_total;type:integer;default:0" json:"sendersTotal"`
	SendersProcessed   int            `gorm:"column:senders_processed;type:integer;default:0" json:"sendersProcessed"`
	EmailsDeleted      int            `gorm:"column:emails_deleted;type:integer;default:0" json:"emailsDeleted"`
	BytesFreedEstimate int64          `gorm:"column:bytes_freed_estimate;type:bigint;default:0" json:"bytesFreedEstimate"`
	ProgressCursor     string         `gorm:"column:progress_cursor;type:text" json:"progressCursor"`
	ErrorMessage       string         `gorm:"column:error_message;type:text" json:"errorMessage,omitempty"`
	CreatedAt          time.Time      `gorm:"column:created_at;type:timestamp;default:current_timestamp" json:"createdAt"`
}

func (CleanupRun) TableName() string {
	return "cleanup_runs"
}

func (m *CleanupRun) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = utils.GenerateNanoIDWithPrefix("run", 16)
	}
	return nil
}
