package entities

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// AnalysisJobStatus represents the status of a downstream analysis job
type AnalysisJobStatus string

const (
	AnalysisJobStatusProcessing AnalysisJobStatus = "processing"
	AnalysisJobStatusSucceeded  AnalysisJobStatus = "succeeded" // terminal
	AnalysisJobStatusFailed     AnalysisJobStatus = "failed"    // terminal
)

// AnalysisJobType represents the kind of analysis requested for a meeting
type AnalysisJobType string

const (
	AnalysisJobTypeSummary    AnalysisJobType = "summary"
	AnalysisJobTypeHighlights AnalysisJobType = "highlights"
	AnalysisJobTypeActions    AnalysisJobType = "actions"
)

// AnalysisJobTypes is the fixed set dispatched for every ingested meeting,
// in report order.
var AnalysisJobTypes = []AnalysisJobType{
	AnalysisJobTypeSummary,
	AnalysisJobTypeHighlights,
	AnalysisJobTypeActions,
}

// AnalysisJob records that analysis of one kind has started for a meeting
type AnalysisJob struct {
	ID          uuid.UUID         `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	MeetingID   uuid.UUID         `json:"meeting_id" gorm:"type:uuid;not null;index"`
	AccountID   string            `json:"account_id" gorm:"type:varchar(255);not null;index"`
	JobType     AnalysisJobType   `json:"job_type" gorm:"type:varchar(32);not null"`
	Status      AnalysisJobStatus `json:"status" gorm:"type:varchar(20);not null;default:'processing'"`
	StartedAt   time.Time         `json:"started_at" gorm:"type:timestamptz;not null"`
	CompletedAt *time.Time        `json:"completed_at,omitempty" gorm:"type:timestamptz"`
	LastError   *string           `json:"last_error,omitempty" gorm:"type:text"`

	// Metadata
	Metadata datatypes.JSONMap `json:"metadata,omitempty" gorm:"type:jsonb"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// NewAnalysisJob creates a job in the processing state
func NewAnalysisJob(meetingID uuid.UUID, accountID string, jobType AnalysisJobType) *AnalysisJob {
	now := time.Now()
	return &AnalysisJob{
		ID:        uuid.New(),
		MeetingID: meetingID,
		AccountID: accountID,
		JobType:   jobType,
		Status:    AnalysisJobStatusProcessing,
		StartedAt: now,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// IsTerminal reports whether the job already finished
func (j *AnalysisJob) IsTerminal() bool {
	return j.Status == AnalysisJobStatusSucceeded || j.Status == AnalysisJobStatusFailed
}

// MarkAsSucceeded marks job as completed successfully
func (j *AnalysisJob) MarkAsSucceeded() {
	j.Status = AnalysisJobStatusSucceeded
	now := time.Now()
	j.CompletedAt = &now
	j.UpdatedAt = now
}

// MarkAsFailed marks job as failed with error message
func (j *AnalysisJob) MarkAsFailed(errMsg string) {
	j.Status = AnalysisJobStatusFailed
	j.LastError = &errMsg
	now := time.Now()
	j.CompletedAt = &now
	j.UpdatedAt = now
}

// TableName specifies the table name for GORM
func (AnalysisJob) TableName() string {
	return "analysis_jobs"
}
