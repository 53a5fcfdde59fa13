package ingest

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/johnquangdev/meeting-sync/internal/domain/entities"
	"github.com/johnquangdev/meeting-sync/internal/domain/repositories"
)

// DealPicker chooses the deal for an upstream meeting that arrived without
// a calendar link.
type DealPicker interface {
	PickDeal(ctx context.Context, accountID string) (*entities.Deal, error)
}

// MostRecentDealPicker picks the account's most recently created deal
type MostRecentDealPicker struct {
	deals repositories.DealRepository
}

// NewMostRecentDealPicker creates a picker over deals
func NewMostRecentDealPicker(deals repositories.DealRepository) *MostRecentDealPicker {
	return &MostRecentDealPicker{deals: deals}
}

func (p *MostRecentDealPicker) PickDeal(ctx context.Context, accountID string) (*entities.Deal, error) {
	return p.deals.MostRecentForAccount(ctx, accountID)
}

// Resolution is the canonical meeting an external id reconciled to
type Resolution struct {
	MeetingID       uuid.UUID
	DealID          string
	WasCreated      bool
	LinkID          uuid.UUID
	LinkSynthesized bool
	LinkCompleted   bool
	Warnings        []string
}

// Resolver maps (account, external id) onto exactly one canonical meeting.
// Concurrent resolvers for the same key converge on the same row: unique
// violations are resolved by re-reading the winner.
type Resolver struct {
	meetings repositories.MeetingRepository
	links    repositories.ScheduledLinkRepository
	deals    repositories.DealRepository
	picker   DealPicker
}

// NewResolver creates a resolver. A nil picker defaults to the most
// recently created deal.
func NewResolver(
	meetings repositories.MeetingRepository,
	links repositories.ScheduledLinkRepository,
	deals repositories.DealRepository,
	picker DealPicker,
) *Resolver {
	if picker == nil {
		picker = NewMostRecentDealPicker(deals)
	}
	return &Resolver{meetings: meetings, links: links, deals: deals, picker: picker}
}

// Resolve returns the meeting for externalID, creating it and a synthetic
// link when needed.
func (r *Resolver) Resolve(ctx context.Context, accountID, externalID string, candidate entities.MeetingCandidate) (*Resolution, error) {
	if accountID == "" || externalID == "" {
		return nil, ErrInvalidRef
	}

	res := &Resolution{}

	link, err := r.resolveLink(ctx, accountID, externalID, res)
	if err != nil {
		return nil, err
	}
	res.LinkID = link.ID

	deal, err := r.deals.FindByID(ctx, link.DealID)
	if err != nil {
		return nil, fmt.Errorf("load deal %s: %w", link.DealID, err)
	}
	if err := checkDeal(accountID, link.DealID, deal); err != nil {
		return nil, err
	}
	res.DealID = deal.ID

	meeting, created, err := r.resolveMeeting(ctx, accountID, externalID, deal.ID, candidate, res)
	if err != nil {
		return nil, err
	}
	res.MeetingID = meeting.ID
	res.WasCreated = created

	if link.IsCompleted() {
		res.LinkCompleted = true
		return res, nil
	}
	// false means a concurrent run completed it first
	if _, err := r.links.MarkCompleted(ctx, link.ID, meeting.ID); err != nil {
		res.Warnings = append(res.Warnings, fmt.Sprintf("mark link %s completed: %v", link.ID, err))
	} else {
		res.LinkCompleted = true
	}
	return res, nil
}

func (r *Resolver) resolveLink(ctx context.Context, accountID, externalID string, res *Resolution) (*entities.ScheduledMeetingLink, error) {
	link, err := r.links.FindByExternalID(ctx, externalID)
	if err != nil {
		return nil, fmt.Errorf("find link: %w", err)
	}
	if link != nil {
		return link, nil
	}

	deal, err := r.picker.PickDeal(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("pick deal: %w", err)
	}
	if deal == nil {
		return nil, fmt.Errorf("%w %s", ErrNoLinkableDeal, accountID)
	}
	// A synthetic link must never point at another account's deal.
	if err := checkDeal(accountID, deal.ID, deal); err != nil {
		return nil, err
	}

	link = entities.NewSyntheticLink(accountID, deal.ID, externalID)
	err = r.links.Create(ctx, link)
	if err == nil {
		res.LinkSynthesized = true
		return link, nil
	}
	if kind, ok := repositories.ConflictKindOf(err); !ok || kind != repositories.ConflictLinkExternalID {
		return nil, fmt.Errorf("create link: %w", err)
	}

	winner, err := r.links.FindByExternalID(ctx, externalID)
	if err != nil {
		return nil, fmt.Errorf("find link after conflict: %w", err)
	}
	if winner == nil {
		return nil, fmt.Errorf("%w: link for %s", ErrReconcileInconsistent, externalID)
	}
	return winner, nil
}

func (r *Resolver) resolveMeeting(
	ctx context.Context,
	accountID, externalID, dealID string,
	candidate entities.MeetingCandidate,
	res *Resolution,
) (*entities.Meeting, bool, error) {
	existing, err := r.meetings.FindByExternalID(ctx, accountID, externalID)
	if err != nil {
		return nil, false, fmt.Errorf("find meeting: %w", err)
	}
	if existing != nil {
		r.refresh(ctx, existing, candidate, res)
		return existing, false, nil
	}

	meeting := entities.NewMeeting(accountID, externalID, &dealID, candidate)
	err = r.meetings.Create(ctx, meeting)
	if err == nil {
		return meeting, true, nil
	}

	kind, ok := repositories.ConflictKindOf(err)
	if !ok {
		return nil, false, fmt.Errorf("create meeting: %w", err)
	}

	switch kind {
	case repositories.ConflictMeetingExternalID:
		winner, err := r.meetings.FindByExternalID(ctx, accountID, externalID)
		if err != nil {
			return nil, false, fmt.Errorf("find meeting after conflict: %w", err)
		}
		if winner == nil {
			return nil, false, fmt.Errorf("%w: meeting %s/%s", ErrReconcileInconsistent, accountID, externalID)
		}
		return winner, false, nil

	case repositories.ConflictMeetingNaturalKey:
		return r.adoptNaturalKeyMatch(ctx, meeting, externalID)

	default:
		return nil, false, fmt.Errorf("create meeting: %w", err)
	}
}

// adoptNaturalKeyMatch returns the meeting that already holds the natural
// key, binding externalID to it when it has none.
func (r *Resolver) adoptNaturalKeyMatch(ctx context.Context, meeting *entities.Meeting, externalID string) (*entities.Meeting, bool, error) {
	accountID := meeting.AccountID

	match, err := r.meetings.FindByNaturalKey(ctx, accountID, meeting.Title, meeting.StartTime, meeting.HostEmail)
	if err != nil {
		return nil, false, fmt.Errorf("find meeting by natural key: %w", err)
	}
	if match == nil {
		return nil, false, fmt.Errorf("%w: natural key of %s/%s", ErrReconcileInconsistent, accountID, externalID)
	}
	if match.HasExternalID() {
		return match, false, nil
	}

	err = r.meetings.BindExternalID(ctx, accountID, match.ID, externalID)
	if err == nil {
		ext := externalID
		match.ExternalID = &ext
		return match, false, nil
	}
	if kind, ok := repositories.ConflictKindOf(err); !ok || kind != repositories.ConflictMeetingExternalID {
		return nil, false, fmt.Errorf("bind external id: %w", err)
	}

	// Someone else created or bound the external id meanwhile.
	winner, err := r.meetings.FindByExternalID(ctx, accountID, externalID)
	if err != nil {
		return nil, false, fmt.Errorf("find meeting after bind conflict: %w", err)
	}
	if winner == nil {
		return nil, false, fmt.Errorf("%w: meeting %s/%s", ErrReconcileInconsistent, accountID, externalID)
	}
	return winner, false, nil
}

// refresh applies the latest upstream fields to an existing meeting. A
// failure only degrades the run.
func (r *Resolver) refresh(ctx context.Context, meeting *entities.Meeting, candidate entities.MeetingCandidate, res *Resolution) {
	meeting.Apply(candidate)
	if err := r.meetings.UpdateDetails(ctx, meeting); err != nil {
		res.Warnings = append(res.Warnings, fmt.Sprintf("refresh meeting %s: %v", meeting.ID, err))
	}
}

func checkDeal(accountID, dealID string, deal *entities.Deal) error {
	if deal == nil {
		return fmt.Errorf("%w: deal %s does not exist", ErrNoLinkableDeal, dealID)
	}
	if !deal.BelongsTo(accountID) {
		return fmt.Errorf("%w: deal %s", ErrCrossAccountDeal, dealID)
	}
	return nil
}
