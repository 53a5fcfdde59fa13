package entities

import (
	"time"

	"github.com/google/uuid"
)

// ScheduledLinkStatus represents the lifecycle of a calendar placeholder
type ScheduledLinkStatus string

const (
	ScheduledLinkStatusScheduled ScheduledLinkStatus = "scheduled"
	ScheduledLinkStatusCompleted ScheduledLinkStatus = "completed" // terminal
)

// ScheduledMeetingLink ties a calendar-originated meeting to a deal. A
// meeting is reconciled against it exactly once.
type ScheduledMeetingLink struct {
	ID         uuid.UUID           `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	AccountID  string              `json:"account_id" gorm:"type:varchar(255);not null;index"`
	DealID     string              `json:"deal_id" gorm:"type:varchar(255);not null;index"`
	ExternalID *string             `json:"external_id,omitempty" gorm:"type:varchar(255);uniqueIndex:uq_scheduled_links_external_id"`
	Status     ScheduledLinkStatus `json:"status" gorm:"type:varchar(20);not null;default:'scheduled'"`
	MeetingID  *uuid.UUID          `json:"meeting_id,omitempty" gorm:"type:uuid"`
	Synthetic  bool                `json:"synthetic" gorm:"not null;default:false"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// NewSyntheticLink builds the placeholder link created when an upstream
// meeting arrives without a calendar event.
func NewSyntheticLink(accountID, dealID, externalID string) *ScheduledMeetingLink {
	ext := externalID
	now := time.Now()
	return &ScheduledMeetingLink{
		ID:         uuid.New(),
		AccountID:  accountID,
		DealID:     dealID,
		ExternalID: &ext,
		Status:     ScheduledLinkStatusScheduled,
		Synthetic:  true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// IsCompleted reports whether the link reached its terminal state
func (l *ScheduledMeetingLink) IsCompleted() bool {
	return l.Status == ScheduledLinkStatusCompleted
}

// MarkAsCompleted records the meeting the link was reconciled against
func (l *ScheduledMeetingLink) MarkAsCompleted(meetingID uuid.UUID) {
	l.Status = ScheduledLinkStatusCompleted
	l.MeetingID = &meetingID
	l.UpdatedAt = time.Now()
}

// TableName specifies the table name for GORM
func (ScheduledMeetingLink) TableName() string {
	return "scheduled_meeting_links"
}
