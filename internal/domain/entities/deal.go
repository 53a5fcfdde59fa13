package entities

import "time"

// Deal is the sales opportunity a meeting is attached to. Deal ids come
// from the CRM and are opaque strings.
type Deal struct {
	ID                 string     `json:"id" gorm:"type:varchar(255);primary_key"`
	AccountID          string     `json:"account_id" gorm:"type:varchar(255);not null;index"`
	Name               string     `json:"name" gorm:"type:text"`
	LastMeetingDate    *time.Time `json:"last_meeting_date,omitempty" gorm:"type:timestamptz"`
	LastMeetingSummary *string    `json:"last_meeting_summary,omitempty" gorm:"type:text"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// BelongsTo reports whether the deal is owned by accountID
func (d *Deal) BelongsTo(accountID string) bool {
	return d != nil && d.AccountID == accountID
}

// DealMeetingUpdate is what the pipeline reports to the deal system after
// a meeting has been ingested.
type DealMeetingUpdate struct {
	AccountID          string
	DealID             string
	LastMeetingDate    time.Time
	LastMeetingSummary *string
}

// TableName specifies the table name for GORM
func (Deal) TableName() string {
	return "deals"
}
