package queue

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Message types published for the analysis workers
const (
	MessageTypeAnalysisJob     = "analysis_job"
	MessageTypeTranscriptReady = "transcript_ready"
)

// ErrEmpty is returned by Pop when no message arrived in time
var ErrEmpty = errors.New("queue is empty")

// Message is one unit of work for the downstream analysis workers
type Message struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	AccountID  string    `json:"account_id"`
	MeetingID  string    `json:"meeting_id"`
	JobID      string    `json:"job_id,omitempty"`
	JobType    string    `json:"job_type,omitempty"`
	EnqueuedAt time.Time `json:"enqueued_at"`
}

// NewMessage stamps a message with an id and enqueue time
func NewMessage(msgType, accountID, meetingID string) Message {
	return Message{
		ID:         uuid.New().String(),
		Type:       msgType,
		AccountID:  accountID,
		MeetingID:  meetingID,
		EnqueuedAt: time.Now().UTC(),
	}
}

// Publisher is what producers need from a queue
type Publisher interface {
	Publish(ctx context.Context, msg Message) error
}

// Queue is a FIFO of analysis messages
type Queue interface {
	Publisher
	Pop(ctx context.Context, wait time.Duration) (*Message, error)
	Len(ctx context.Context) (int64, error)
}
