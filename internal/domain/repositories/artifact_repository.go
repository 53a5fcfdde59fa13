package repositories

import (
	"context"

	"github.com/google/uuid"

	"github.com/johnquangdev/meeting-sync/internal/domain/entities"
)

// ArtifactWriter mutates the derived collections of one meeting inside a
// replace unit. Every call is scoped to the meeting and account the unit
// was opened for. A failed insert batch is undone on its own and leaves
// earlier batches in place.
type ArtifactWriter interface {
	DeleteTranscript() (int64, error)
	InsertTranscriptBatch(segments []entities.TranscriptSegment) error
	DeleteHighlights() (int64, error)
	InsertHighlightBatch(highlights []entities.Highlight) error
}

// ArtifactRepository opens replace units over a meeting's derived rows.
// Replace holds the meeting row for the duration of fn; an error from fn
// discards every change made in the unit.
type ArtifactRepository interface {
	Replace(ctx context.Context, accountID string, meetingID uuid.UUID, fn func(w ArtifactWriter) error) error
	CountTranscript(ctx context.Context, accountID string, meetingID uuid.UUID) (int64, error)
	CountHighlights(ctx context.Context, accountID string, meetingID uuid.UUID) (int64, error)
}

// SummaryRepository persists meeting summaries
type SummaryRepository interface {
	// UpsertSummary writes the summary row keyed by (meeting, account) and
	// mirrors the text onto the meeting.
	UpsertSummary(ctx context.Context, accountID string, meetingID uuid.UUID, text string) error
	// UpdateNotes sets the meeting's secondary notes field only.
	UpdateNotes(ctx context.Context, accountID string, meetingID uuid.UUID, notes string) error
	FindSummary(ctx context.Context, accountID string, meetingID uuid.UUID) (*entities.MeetingSummary, error)
}

// AnalysisJobRepository persists analysis job records
type AnalysisJobRepository interface {
	Create(ctx context.Context, job *entities.AnalysisJob) error
	FindByID(ctx context.Context, accountID string, id uuid.UUID) (*entities.AnalysisJob, error)
	ListByMeeting(ctx context.Context, accountID string, meetingID uuid.UUID) ([]entities.AnalysisJob, error)
	// Finish moves a processing job to a terminal status. It reports false
	// when the job had already finished.
	Finish(ctx context.Context, job *entities.AnalysisJob) (bool, error)
}
