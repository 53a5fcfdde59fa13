package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/johnquangdev/meeting-sync/internal/domain/entities"
)

// SummaryRepository handles meeting summary persistence
type SummaryRepository struct {
	db *gorm.DB
}

// NewSummaryRepository creates a new summary repository
func NewSummaryRepository(db *gorm.DB) *SummaryRepository {
	return &SummaryRepository{db: db}
}

// UpsertSummary writes the summary row and mirrors it onto the meeting
func (r *SummaryRepository) UpsertSummary(ctx context.Context, accountID string, meetingID uuid.UUID, text string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Upsert by (meeting_id, account_id)
		q := `INSERT INTO meeting_summaries (id, meeting_id, account_id, summary_text, created_at, updated_at)
        VALUES (?, ?, ?, ?, NOW(), NOW())
        ON CONFLICT (meeting_id, account_id) DO UPDATE SET summary_text = EXCLUDED.summary_text, updated_at = NOW()`
		if err := tx.Exec(q, uuid.New(), meetingID, accountID, text).Error; err != nil {
			return err
		}

		return tx.Model(&entities.Meeting{}).
			Where("id = ? AND account_id = ?", meetingID, accountID).
			Updates(map[string]interface{}{
				"summary":    text,
				"updated_at": time.Now(),
			}).Error
	})
}

// UpdateNotes sets the meeting notes field without touching the summary
func (r *SummaryRepository) UpdateNotes(ctx context.Context, accountID string, meetingID uuid.UUID, notes string) error {
	return r.db.WithContext(ctx).
		Model(&entities.Meeting{}).
		Where("id = ? AND account_id = ?", meetingID, accountID).
		Updates(map[string]interface{}{
			"notes":      notes,
			"updated_at": time.Now(),
		}).Error
}

// FindSummary retrieves the summary row of a meeting
func (r *SummaryRepository) FindSummary(ctx context.Context, accountID string, meetingID uuid.UUID) (*entities.MeetingSummary, error) {
	var summary entities.MeetingSummary
	if err := r.db.WithContext(ctx).
		Where("meeting_id = ? AND account_id = ?", meetingID, accountID).
		First(&summary).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &summary, nil
}
