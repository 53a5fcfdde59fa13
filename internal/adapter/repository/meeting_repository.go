package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/johnquangdev/meeting-sync/internal/domain/entities"
)

// MeetingRepository handles canonical meeting persistence
type MeetingRepository struct {
	db *gorm.DB
}

// NewMeetingRepository creates a new meeting repository
func NewMeetingRepository(db *gorm.DB) *MeetingRepository {
	return &MeetingRepository{db: db}
}

// FindByExternalID retrieves a meeting by its upstream id within an account
func (r *MeetingRepository) FindByExternalID(ctx context.Context, accountID, externalID string) (*entities.Meeting, error) {
	return r.first(r.db.WithContext(ctx).Where("account_id = ? AND external_id = ?", accountID, externalID))
}

// FindByNaturalKey retrieves a meeting by (account, title, start time, host)
func (r *MeetingRepository) FindByNaturalKey(ctx context.Context, accountID, title string, startTime *time.Time, hostEmail string) (*entities.Meeting, error) {
	query := r.db.WithContext(ctx).Where("account_id = ? AND title = ? AND host_email = ?", accountID, title, hostEmail)
	if startTime == nil {
		query = query.Where("start_time IS NULL")
	} else {
		query = query.Where("start_time = ?", *startTime)
	}
	return r.first(query)
}

// FindByID retrieves a meeting by internal id within an account
func (r *MeetingRepository) FindByID(ctx context.Context, accountID string, id uuid.UUID) (*entities.Meeting, error) {
	return r.first(r.db.WithContext(ctx).Where("id = ? AND account_id = ?", id, accountID))
}

// Create inserts a new meeting
func (r *MeetingRepository) Create(ctx context.Context, meeting *entities.Meeting) error {
	if meeting == nil {
		return errors.New("meeting cannot be nil")
	}
	return classifyConflict(r.db.WithContext(ctx).Create(meeting).Error)
}

// BindExternalID attaches an upstream id to a meeting that has none
func (r *MeetingRepository) BindExternalID(ctx context.Context, accountID string, id uuid.UUID, externalID string) error {
	err := r.db.WithContext(ctx).
		Model(&entities.Meeting{}).
		Where("id = ? AND account_id = ? AND external_id IS NULL", id, accountID).
		Updates(map[string]interface{}{
			"external_id": externalID,
			"updated_at":  time.Now(),
		}).Error
	return classifyConflict(err)
}

// UpdateDetails refreshes the upstream-reported fields of a meeting
func (r *MeetingRepository) UpdateDetails(ctx context.Context, meeting *entities.Meeting) error {
	err := r.db.WithContext(ctx).
		Model(&entities.Meeting{}).
		Where("id = ? AND account_id = ?", meeting.ID, meeting.AccountID).
		Updates(map[string]interface{}{
			"title":              meeting.Title,
			"host_email":         meeting.HostEmail,
			"participant_emails": meeting.ParticipantEmails,
			"source_platform":    meeting.SourcePlatform,
			"start_time":         meeting.StartTime,
			"end_time":           meeting.EndTime,
			"timezone":           meeting.Timezone,
			"duration_seconds":   meeting.DurationSeconds,
			"updated_at":         time.Now(),
		}).Error
	return classifyConflict(err)
}

func (r *MeetingRepository) first(query *gorm.DB) (*entities.Meeting, error) {
	var meeting entities.Meeting
	if err := query.First(&meeting).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &meeting, nil
}
