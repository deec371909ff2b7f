package models

import (
	"time"

	"gorm.io/gorm"

	"github.com/inboxpurge/inboxpurge/internal/enum"
	"github.com/inboxpurge/inboxpurge/internal/utils"
)

// EmailClassification caches scorer output per message so reruns avoid
// rescoring. The cache is advisory only.
type EmailClassification struct {
	ID             string           `gorm:"column:id;type:varchar(50);primaryKey" json:"id"`
	MessageID      string           `gorm:"column:message_id;type:varchar(255);uniqueIndex" json:"messageId"`
	SenderEmail    string           `gorm:"column:sender_email;type:varchar(320);index" json:"senderEmail"`
	Subject        string           `gorm:"column:subject;type:text" json:"subject"`
	Classification enum.Disposition `gorm:"column:classification;type:varchar(20)" json:"classification"`
	Category       string           `gorm:"column:category;type:varchar(50)" json:"category,omitempty"`
	Confidence     float64          `gorm:"column:confidence;type:decimal(4,3)" json:"confidence"`
	Reasoning      string           `gorm:"column:reasoning;type:text" json:"reasoning,omitempty"`
	UserOverride   string           `gorm:"column:user_override;type:varchar(20)" json:"userOverride,omitempty"`
	ProcessedAt    time.Time        `gorm:"column:processed_at;type:timestamp;default:current_timestamp" json:"processedAt"`
}

func (EmailClassification) TableName() string {
	return "email_classifications"
}

func (m *EmailClassification) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = utils.GenerateNanoIDWithPrefix("cls", 16)
	}
	return nil
}
