package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/johnquangdev/meeting-sync/internal/domain/entities"
)

// DealRepository handles deal lookups and last-meeting updates
type DealRepository struct {
	db *gorm.DB
}

// NewDealRepository creates a new deal repository
func NewDealRepository(db *gorm.DB) *DealRepository {
	return &DealRepository{db: db}
}

// FindByID retrieves a deal by id
func (r *DealRepository) FindByID(ctx context.Context, id string) (*entities.Deal, error) {
	var deal entities.Deal
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&deal).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &deal, nil
}

// MostRecentForAccount retrieves the account's most recently created deal
func (r *DealRepository) MostRecentForAccount(ctx context.Context, accountID string) (*entities.Deal, error) {
	var deal entities.Deal
	if err := r.db.WithContext(ctx).
		Where("account_id = ?", accountID).
		Order("created_at DESC").
		Order("id DESC").
		First(&deal).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &deal, nil
}

// UpdateLastMeeting records the latest meeting on a deal. An older meeting
// never moves last_meeting_date backwards.
func (r *DealRepository) UpdateLastMeeting(ctx context.Context, update entities.DealMeetingUpdate) error {
	updates := map[string]interface{}{
		"last_meeting_date": update.LastMeetingDate,
		"updated_at":        time.Now(),
	}
	if update.LastMeetingSummary != nil {
		updates["last_meeting_summary"] = *update.LastMeetingSummary
	}

	res := r.db.WithContext(ctx).
		Model(&entities.Deal{}).
		Where("id = ? AND account_id = ?", update.DealID, update.AccountID).
		Where("last_meeting_date IS NULL OR last_meeting_date <= ?", update.LastMeetingDate).
		Updates(updates)
	return res.Error
}
