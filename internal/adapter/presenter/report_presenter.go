package presenter

import (
	"github.com/johnquangdev/meeting-sync/internal/adapter/dto/analysis"
	"github.com/johnquangdev/meeting-sync/internal/adapter/dto/meeting"
	"github.com/johnquangdev/meeting-sync/internal/domain/entities"
	"github.com/johnquangdev/meeting-sync/internal/usecase/ingest"
)

// ToSyncReportResponse converts a pipeline Report to its API shape
func ToSyncReportResponse(r *ingest.Report) *meeting.SyncReportResponse {
	if r == nil {
		return nil
	}

	jobs := make([]meeting.JobDispatchEntryResponse, 0, len(r.JobDispatchReport))
	for _, entry := range r.JobDispatchReport {
		item := meeting.JobDispatchEntryResponse{
			JobType: string(entry.JobType),
			Success: entry.Success,
			Error:   entry.Error,
			Queued:  entry.Queued,
		}
		if entry.JobID != nil {
			id := entry.JobID.String()
			item.JobID = &id
		}
		jobs = append(jobs, item)
	}

	warnings := r.Warnings
	if warnings == nil {
		warnings = []string{}
	}

	return &meeting.SyncReportResponse{
		MeetingID:                 r.MeetingID.String(),
		DealID:                    r.DealID,
		WasNewMeeting:             r.WasNewMeeting,
		TranscriptSegmentsFetched: r.TranscriptSegmentsFetched,
		TranscriptSegmentsStored:  r.TranscriptSegmentsStored,
		HighlightsFetched:         r.HighlightsFetched,
		HighlightsStored:          r.HighlightsStored,
		HasSummary:                r.HasSummary,
		JobDispatchReport:         jobs,
		NotificationOutcome:       string(r.NotificationOutcome),
		DealUpdated:               r.DealUpdated,
		ArchiveKey:                r.ArchiveKey,
		State:                     string(r.State),
		Warnings:                  warnings,
	}
}

// ToJobResponse converts an AnalysisJob entity to JobResponse DTO
func ToJobResponse(j *entities.AnalysisJob) *analysis.JobResponse {
	if j == nil {
		return nil
	}
	return &analysis.JobResponse{
		ID:          j.ID.String(),
		MeetingID:   j.MeetingID.String(),
		JobType:     string(j.JobType),
		Status:      string(j.Status),
		StartedAt:   j.StartedAt,
		CompletedAt: j.CompletedAt,
		LastError:   j.LastError,
	}
}

// ToJobResponses converts a list of jobs
func ToJobResponses(jobs []entities.AnalysisJob) []*analysis.JobResponse {
	out := make([]*analysis.JobResponse, 0, len(jobs))
	for i := range jobs {
		out = append(out, ToJobResponse(&jobs[i]))
	}
	return out
}
