package entities

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Meeting is the canonical internal record of one recorded meeting.
// (account_id, external_id) is unique, as is the natural key
// (account_id, title, start_time, host_email).
type Meeting struct {
	ID                uuid.UUID                   `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	AccountID         string                      `json:"account_id" gorm:"type:varchar(255);not null;uniqueIndex:uq_meetings_account_external_id,priority:1;uniqueIndex:uq_meetings_natural_key,priority:1"`
	ExternalID        *string                     `json:"external_id,omitempty" gorm:"type:varchar(255);uniqueIndex:uq_meetings_account_external_id,priority:2"`
	DealID            *string                     `json:"deal_id,omitempty" gorm:"type:varchar(255);index"`
	Title             string                      `json:"title" gorm:"type:text;not null;default:'';uniqueIndex:uq_meetings_natural_key,priority:2"`
	HostEmail         string                      `json:"host_email" gorm:"type:varchar(320);not null;default:'';uniqueIndex:uq_meetings_natural_key,priority:4"`
	ParticipantEmails datatypes.JSONSlice[string] `json:"participant_emails" gorm:"type:jsonb"`
	SourcePlatform    SourcePlatform              `json:"source_platform" gorm:"type:varchar(32);not null;default:'other'"`
	StartTime         *time.Time                  `json:"start_time,omitempty" gorm:"type:timestamptz;uniqueIndex:uq_meetings_natural_key,priority:3"`
	EndTime           *time.Time                  `json:"end_time,omitempty" gorm:"type:timestamptz"`
	Timezone          string                      `json:"timezone,omitempty" gorm:"type:varchar(64)"`
	DurationSeconds   *int                        `json:"duration_seconds,omitempty" gorm:"type:integer"`
	Summary           *string                     `json:"summary,omitempty" gorm:"type:text"`
	Notes             *string                     `json:"notes,omitempty" gorm:"type:text"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// MeetingCandidate carries the fields the upstream service reports for a
// meeting. It is what the resolver inserts or refreshes.
type MeetingCandidate struct {
	Title             string
	HostEmail         string
	ParticipantEmails []string
	SourcePlatform    SourcePlatform
	StartTime         *time.Time
	EndTime           *time.Time
	Timezone          string
}

// NewMeeting builds a meeting row for accountID from an upstream candidate
func NewMeeting(accountID, externalID string, dealID *string, c MeetingCandidate) *Meeting {
	ext := externalID
	now := time.Now()
	m := &Meeting{
		ID:         uuid.New(),
		AccountID:  accountID,
		ExternalID: &ext,
		DealID:     dealID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	m.Apply(c)
	return m
}

// Apply copies the mutable candidate fields onto the meeting and
// recomputes the duration.
func (m *Meeting) Apply(c MeetingCandidate) {
	m.Title = c.Title
	m.HostEmail = c.HostEmail
	m.ParticipantEmails = datatypes.JSONSlice[string](append([]string{}, c.ParticipantEmails...))
	m.SourcePlatform = c.SourcePlatform
	if !m.SourcePlatform.IsValid() {
		m.SourcePlatform = DefaultSourcePlatform
	}
	m.StartTime = c.StartTime
	m.EndTime = c.EndTime
	m.Timezone = c.Timezone
	m.DurationSeconds = ComputeDuration(c.StartTime, c.EndTime)
}

// HasExternalID reports whether the meeting is bound to an upstream id
func (m *Meeting) HasExternalID() bool {
	return m.ExternalID != nil && *m.ExternalID != ""
}

// ComputeDuration returns the whole seconds between start and end, or nil
// when either side is missing or the window is inverted.
func ComputeDuration(start, end *time.Time) *int {
	if start == nil || end == nil || end.Before(*start) {
		return nil
	}
	d := int(end.Sub(*start) / time.Second)
	return &d
}

// TableName specifies the table name for GORM
func (Meeting) TableName() string {
	return "meetings"
}
