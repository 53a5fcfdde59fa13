package analysis

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/johnquangdev/meeting-sync/internal/domain/entities"
	"github.com/johnquangdev/meeting-sync/internal/domain/repositories"
	"github.com/johnquangdev/meeting-sync/internal/infrastructure/queue"
)

// Service is the in-process analysis entry point. It is the notification
// fallback and receives completion reports from the analysis workers.
type Service interface {
	TriggerAnalysis(ctx context.Context, meetingID uuid.UUID, accountID string) error
	CompleteJob(ctx context.Context, accountID string, jobID uuid.UUID, succeeded bool, errMsg string) (*entities.AnalysisJob, error)
	ListJobs(ctx context.Context, accountID string, meetingID uuid.UUID) ([]entities.AnalysisJob, error)
}

type service struct {
	meetings  repositories.MeetingRepository
	jobs      repositories.AnalysisJobRepository
	publisher queue.Publisher
	logger    *zap.Logger
}

// NewService creates the analysis service
func NewService(
	meetings repositories.MeetingRepository,
	jobs repositories.AnalysisJobRepository,
	publisher queue.Publisher,
	logger *zap.Logger,
) Service {
	return &service{meetings: meetings, jobs: jobs, publisher: publisher, logger: logger}
}

// TriggerAnalysis queues a transcript-ready message for the workers
func (s *service) TriggerAnalysis(ctx context.Context, meetingID uuid.UUID, accountID string) error {
	if meetingID == uuid.Nil || strings.TrimSpace(accountID) == "" {
		return entities.ErrInvalidRequest
	}

	meeting, err := s.meetings.FindByID(ctx, accountID, meetingID)
	if err != nil {
		return fmt.Errorf("failed to get meeting: %w", err)
	}
	if meeting == nil {
		return entities.ErrMeetingNotFound
	}

	msg := queue.NewMessage(queue.MessageTypeTranscriptReady, accountID, meetingID.String())
	if err := s.publisher.Publish(ctx, msg); err != nil {
		return fmt.Errorf("failed to queue analysis: %w", err)
	}

	if s.logger != nil {
		s.logger.Info("analysis triggered",
			zap.String("meeting_id", meetingID.String()),
			zap.String("account_id", accountID),
			zap.String("message_id", msg.ID),
		)
	}
	return nil
}

// CompleteJob moves a processing job to succeeded or failed. Finishing a
// job twice is an error.
func (s *service) CompleteJob(ctx context.Context, accountID string, jobID uuid.UUID, succeeded bool, errMsg string) (*entities.AnalysisJob, error) {
	job, err := s.jobs.FindByID(ctx, accountID, jobID)
	if err != nil {
		return nil, fmt.Errorf("failed to get analysis job: %w", err)
	}
	if job == nil {
		return nil, entities.ErrAnalysisJobNotFound
	}
	if job.IsTerminal() {
		return nil, entities.ErrAnalysisJobFinished
	}

	if succeeded {
		job.MarkAsSucceeded()
	} else {
		if strings.TrimSpace(errMsg) == "" {
			errMsg = "analysis failed"
		}
		job.MarkAsFailed(errMsg)
	}

	ok, err := s.jobs.Finish(ctx, job)
	if err != nil {
		return nil, fmt.Errorf("failed to finish analysis job: %w", err)
	}
	if !ok {
		return nil, entities.ErrAnalysisJobFinished
	}

	if s.logger != nil {
		s.logger.Info("analysis job finished",
			zap.String("job_id", job.ID.String()),
			zap.String("job_type", string(job.JobType)),
			zap.String("status", string(job.Status)),
		)
	}
	return job, nil
}

// ListJobs returns the analysis jobs of a meeting
func (s *service) ListJobs(ctx context.Context, accountID string, meetingID uuid.UUID) ([]entities.AnalysisJob, error) {
	meeting, err := s.meetings.FindByID(ctx, accountID, meetingID)
	if err != nil {
		return nil, fmt.Errorf("failed to get meeting: %w", err)
	}
	if meeting == nil {
		return nil, entities.ErrMeetingNotFound
	}
	return s.jobs.ListByMeeting(ctx, accountID, meetingID)
}
