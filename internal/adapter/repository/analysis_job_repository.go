package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/johnquangdev/meeting-sync/internal/domain/entities"
)

// AnalysisJobRepository handles analysis job data operations
type AnalysisJobRepository struct {
	db *gorm.DB
}

// NewAnalysisJobRepository creates a new analysis job repository
func NewAnalysisJobRepository(db *gorm.DB) *AnalysisJobRepository {
	return &AnalysisJobRepository{db: db}
}

// Create creates a new analysis job
func (r *AnalysisJobRepository) Create(ctx context.Context, job *entities.AnalysisJob) error {
	if job == nil {
		return errors.New("job cannot be nil")
	}
	return r.db.WithContext(ctx).Create(job).Error
}

// FindByID retrieves an analysis job by ID within an account
func (r *AnalysisJobRepository) FindByID(ctx context.Context, accountID string, id uuid.UUID) (*entities.AnalysisJob, error) {
	var job entities.AnalysisJob
	if err := r.db.WithContext(ctx).Where("id = ? AND account_id = ?", id, accountID).First(&job).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &job, nil
}

// ListByMeeting retrieves all analysis jobs of a meeting
func (r *AnalysisJobRepository) ListByMeeting(ctx context.Context, accountID string, meetingID uuid.UUID) ([]entities.AnalysisJob, error) {
	var jobs []entities.AnalysisJob
	if err := r.db.WithContext(ctx).
		Where("meeting_id = ? AND account_id = ?", meetingID, accountID).
		Order("created_at DESC").
		Find(&jobs).Error; err != nil {
		return nil, err
	}
	return jobs, nil
}

// Finish writes a terminal status, only if the job is still processing
func (r *AnalysisJobRepository) Finish(ctx context.Context, job *entities.AnalysisJob) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&entities.AnalysisJob{}).
		Where("id = ? AND account_id = ? AND status = ?", job.ID, job.AccountID, entities.AnalysisJobStatusProcessing).
		Updates(map[string]interface{}{
			"status":       job.Status,
			"completed_at": job.CompletedAt,
			"last_error":   job.LastError,
			"updated_at":   time.Now(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
