package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/johnquangdev/meeting-sync/internal/domain/entities"
)

// ScheduledLinkRepository handles scheduled meeting link persistence
type ScheduledLinkRepository struct {
	db *gorm.DB
}

// NewScheduledLinkRepository creates a new scheduled link repository
func NewScheduledLinkRepository(db *gorm.DB) *ScheduledLinkRepository {
	return &ScheduledLinkRepository{db: db}
}

// FindByExternalID retrieves the link bound to an upstream meeting id
func (r *ScheduledLinkRepository) FindByExternalID(ctx context.Context, externalID string) (*entities.ScheduledMeetingLink, error) {
	var link entities.ScheduledMeetingLink
	if err := r.db.WithContext(ctx).Where("external_id = ?", externalID).First(&link).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &link, nil
}

// Create inserts a new link
func (r *ScheduledLinkRepository) Create(ctx context.Context, link *entities.ScheduledMeetingLink) error {
	if link == nil {
		return errors.New("link cannot be nil")
	}
	return classifyConflict(r.db.WithContext(ctx).Create(link).Error)
}

// MarkCompleted transitions a scheduled link to completed exactly once
func (r *ScheduledLinkRepository) MarkCompleted(ctx context.Context, id, meetingID uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&entities.ScheduledMeetingLink{}).
		Where("id = ? AND status = ?", id, entities.ScheduledLinkStatusScheduled).
		Updates(map[string]interface{}{
			"status":     entities.ScheduledLinkStatusCompleted,
			"meeting_id": meetingID,
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
