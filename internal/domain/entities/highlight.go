package entities

import (
	"time"

	"github.com/google/uuid"
)

// Highlight is one notable moment extracted by the transcription service
type Highlight struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	MeetingID uuid.UUID `json:"meeting_id" gorm:"type:uuid;not null;index:idx_meeting_highlights_meeting,priority:1"`
	AccountID string    `json:"account_id" gorm:"type:varchar(255);not null;index:idx_meeting_highlights_meeting,priority:2"`
	Position  int       `json:"position" gorm:"not null"`
	Text      string    `json:"text" gorm:"type:text;not null"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// TableName specifies the table name for GORM
func (Highlight) TableName() string {
	return "meeting_highlights"
}
