package entities

import (
	"time"

	"github.com/google/uuid"
)

// MeetingSummary holds the upstream summary text. One row per
// (meeting_id, account_id).
type MeetingSummary struct {
	ID          uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	MeetingID   uuid.UUID `json:"meeting_id" gorm:"type:uuid;not null;uniqueIndex:uq_meeting_summaries_meeting_account,priority:1"`
	AccountID   string    `json:"account_id" gorm:"type:varchar(255);not null;uniqueIndex:uq_meeting_summaries_meeting_account,priority:2"`
	SummaryText string    `json:"summary_text" gorm:"type:text;not null"`
	CreatedAt   time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt   time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName specifies the table name for GORM
func (MeetingSummary) TableName() string {
	return "meeting_summaries"
}
