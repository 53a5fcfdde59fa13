package analysis

import "time"

// TriggerResponse confirms the analysis request was queued
type TriggerResponse struct {
	MeetingID string `json:"meetingId"`
	Status    string `json:"status"`
}

// JobResponse represents an analysis job
type JobResponse struct {
	ID          string     `json:"id"`
	MeetingID   string     `json:"meetingId"`
	JobType     string     `json:"jobType"`
	Status      string     `json:"status"`
	StartedAt   time.Time  `json:"startedAt"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
	LastError   *string    `json:"lastError,omitempty"`
}
