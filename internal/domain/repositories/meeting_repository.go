package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/johnquangdev/meeting-sync/internal/domain/entities"
)

// MeetingRepository persists canonical meetings. Lookups return (nil, nil)
// when no row matches; Create returns a *ConflictError on unique violations.
type MeetingRepository interface {
	FindByExternalID(ctx context.Context, accountID, externalID string) (*entities.Meeting, error)
	FindByNaturalKey(ctx context.Context, accountID, title string, startTime *time.Time, hostEmail string) (*entities.Meeting, error)
	FindByID(ctx context.Context, accountID string, id uuid.UUID) (*entities.Meeting, error)
	Create(ctx context.Context, meeting *entities.Meeting) error
	// BindExternalID sets external_id on a meeting that has none yet.
	BindExternalID(ctx context.Context, accountID string, id uuid.UUID, externalID string) error
	// UpdateDetails refreshes the upstream-reported mutable fields.
	UpdateDetails(ctx context.Context, meeting *entities.Meeting) error
}

// ScheduledLinkRepository persists calendar placeholders
type ScheduledLinkRepository interface {
	FindByExternalID(ctx context.Context, externalID string) (*entities.ScheduledMeetingLink, error)
	Create(ctx context.Context, link *entities.ScheduledMeetingLink) error
	// MarkCompleted moves a scheduled link to completed. It reports false
	// when the link was not in the scheduled state.
	MarkCompleted(ctx context.Context, id, meetingID uuid.UUID) (bool, error)
}

// DealRepository reads deals and receives last-meeting updates
type DealRepository interface {
	FindByID(ctx context.Context, id string) (*entities.Deal, error)
	MostRecentForAccount(ctx context.Context, accountID string) (*entities.Deal, error)
	UpdateLastMeeting(ctx context.Context, update entities.DealMeetingUpdate) error
}
