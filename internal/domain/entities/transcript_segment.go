package entities

import (
	"time"

	"github.com/google/uuid"
)

// TranscriptSegment is one utterance of a meeting transcript. The set of
// segments for a meeting is always replaced as a whole.
type TranscriptSegment struct {
	ID               uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	MeetingID        uuid.UUID `json:"meeting_id" gorm:"type:uuid;not null;index:idx_transcript_segments_meeting,priority:1"`
	AccountID        string    `json:"account_id" gorm:"type:varchar(255);not null;index:idx_transcript_segments_meeting,priority:2"`
	SequenceNumber   int       `json:"sequence_number" gorm:"not null"`
	SpeakerLabel     string    `json:"speaker_label" gorm:"type:varchar(255)"`
	Text             string    `json:"text" gorm:"type:text;not null"`
	TimestampSeconds float64   `json:"timestamp_seconds" gorm:"not null;default:0"`
	CreatedAt        time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// TableName specifies the table name for GORM
func (TranscriptSegment) TableName() string {
	return "transcript_segments"
}
