package ingest

import (
	"github.com/google/uuid"

	"github.com/johnquangdev/meeting-sync/internal/domain/entities"
	"github.com/johnquangdev/meeting-sync/internal/usecase/notify"
)

// State is a step of one ingestion run
type State string

const (
	StateFetching    State = "fetching"
	StateReconciling State = "reconciling"
	StateReplacing   State = "replacing"
	StateDispatching State = "dispatching"
	StateNotifying   State = "notifying"
	StateDone        State = "done"
	StateFailed      State = "failed"
)

// JobDispatchEntry is the outcome of creating one analysis job
type JobDispatchEntry struct {
	JobType entities.AnalysisJobType
	Success bool
	JobID   *uuid.UUID
	Error   string
	// Queued reports whether the job was also published to the work queue.
	Queued bool
}

// JobDispatchReport lists one entry per analysis job type, in fixed order
type JobDispatchReport []JobDispatchEntry

// Succeeded counts the jobs that were created
func (r JobDispatchReport) Succeeded() int {
	n := 0
	for _, e := range r {
		if e.Success {
			n++
		}
	}
	return n
}

// Report summarizes one ingestion run. Counts let callers spot degraded
// runs that still completed.
type Report struct {
	MeetingID                 uuid.UUID
	DealID                    string
	WasNewMeeting             bool
	TranscriptSegmentsFetched int
	TranscriptSegmentsStored  int
	HighlightsFetched         int
	HighlightsStored          int
	HasSummary                bool
	JobDispatchReport         JobDispatchReport
	NotificationOutcome       notify.Outcome
	DealUpdated               bool
	ArchiveKey                string
	State                     State
	Warnings                  []string
}

func (r *Report) warn(msg string) {
	r.Warnings = append(r.Warnings, msg)
}
