package ingest

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/johnquangdev/meeting-sync/internal/domain/entities"
	"github.com/johnquangdev/meeting-sync/internal/domain/repositories"
	"github.com/johnquangdev/meeting-sync/internal/testsupport"
)

func newResolverFixture(t *testing.T) (*testsupport.Store, *Resolver) {
	t.Helper()
	store := testsupport.NewStore()
	store.AddDeal(entities.Deal{ID: "d-old", AccountID: "a-1", CreatedAt: time.Now().Add(-time.Hour)})
	store.AddDeal(entities.Deal{ID: "d-1", AccountID: "a-1", CreatedAt: time.Now()})
	store.AddDeal(entities.Deal{ID: "d-other", AccountID: "a-2", CreatedAt: time.Now().Add(time.Hour)})
	return store, NewResolver(store.Meetings(), store.Links(), store.Deals(), nil)
}

func kickoff() entities.MeetingCandidate {
	start := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	return entities.MeetingCandidate{
		Title:          "Kickoff",
		HostEmail:      "host@example.com",
		SourcePlatform: entities.SourcePlatformZoom,
		StartTime:      &start,
	}
}

func TestResolveCreatesMeetingAndSyntheticLink(t *testing.T) {
	store, resolver := newResolverFixture(t)

	res, err := resolver.Resolve(context.Background(), "a-1", "m-1", kickoff())
	require.NoError(t, err)

	assert.True(t, res.WasCreated)
	assert.True(t, res.LinkSynthesized)
	assert.True(t, res.LinkCompleted)
	assert.Equal(t, "d-1", res.DealID)

	links := store.LinksFor("m-1")
	require.Len(t, links, 1)
	assert.True(t, links[0].Synthetic)
	assert.Equal(t, entities.ScheduledLinkStatusCompleted, links[0].Status)
	require.NotNil(t, links[0].MeetingID)
	assert.Equal(t, res.MeetingID, *links[0].MeetingID)

	meeting, ok := store.Meeting(res.MeetingID)
	require.True(t, ok)
	require.NotNil(t, meeting.DealID)
	assert.Equal(t, "d-1", *meeting.DealID)
}

func TestResolveIsIdempotent(t *testing.T) {
	store, resolver := newResolverFixture(t)

	first, err := resolver.Resolve(context.Background(), "a-1", "m-1", kickoff())
	require.NoError(t, err)

	updated := kickoff()
	updated.Title = "Kickoff (renamed)"
	second, err := resolver.Resolve(context.Background(), "a-1", "m-1", updated)
	require.NoError(t, err)

	assert.Equal(t, first.MeetingID, second.MeetingID)
	assert.False(t, second.WasCreated)
	assert.False(t, second.LinkSynthesized)
	assert.Len(t, store.MeetingsFor("a-1"), 1)
	assert.Len(t, store.LinksFor("m-1"), 1)

	meeting, _ := store.Meeting(first.MeetingID)
	assert.Equal(t, "Kickoff (renamed)", meeting.Title)
}

func TestResolveConcurrentRunsConverge(t *testing.T) {
	store, resolver := newResolverFixture(t)

	const runs = 8
	store.HoldMeetingLookups(runs)

	results := make([]*Resolution, runs)
	errs := make([]error, runs)
	var wg sync.WaitGroup
	for i := 0; i < runs; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = resolver.Resolve(context.Background(), "a-1", "m-1", kickoff())
		}(i)
	}
	wg.Wait()

	created := 0
	for i := 0; i < runs; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, results[0].MeetingID, results[i].MeetingID)
		if results[i].WasCreated {
			created++
		}
	}
	assert.Equal(t, 1, created)
	assert.Len(t, store.MeetingsFor("a-1"), 1)
	assert.Len(t, store.LinksFor("m-1"), 1)
}

func TestResolveRejectsCrossAccountLink(t *testing.T) {
	store, resolver := newResolverFixture(t)
	ext := "m-x"
	store.AddLink(entities.ScheduledMeetingLink{AccountID: "a-2", DealID: "d-other", ExternalID: &ext})

	_, err := resolver.Resolve(context.Background(), "a-1", "m-x", kickoff())
	assert.ErrorIs(t, err, ErrCrossAccountDeal)
	assert.Empty(t, store.MeetingsFor("a-1"))
}

type fixedPicker struct{ deal *entities.Deal }

func (p fixedPicker) PickDeal(context.Context, string) (*entities.Deal, error) {
	return p.deal, nil
}

func TestResolveRejectsCrossAccountPick(t *testing.T) {
	store, _ := newResolverFixture(t)
	other, _ := store.Deal("d-other")
	resolver := NewResolver(store.Meetings(), store.Links(), store.Deals(), fixedPicker{deal: &other})

	_, err := resolver.Resolve(context.Background(), "a-1", "m-1", kickoff())
	assert.ErrorIs(t, err, ErrCrossAccountDeal)
	assert.Empty(t, store.LinksFor("m-1"))
	assert.Empty(t, store.MeetingsFor("a-1"))
}

func TestResolveWithoutDeal(t *testing.T) {
	store := testsupport.NewStore()
	resolver := NewResolver(store.Meetings(), store.Links(), store.Deals(), nil)

	_, err := resolver.Resolve(context.Background(), "a-1", "m-1", kickoff())
	assert.ErrorIs(t, err, ErrNoLinkableDeal)
	assert.Empty(t, store.LinksFor("m-1"))
}

func TestResolveLinkToMissingDeal(t *testing.T) {
	store, resolver := newResolverFixture(t)
	ext := "m-1"
	store.AddLink(entities.ScheduledMeetingLink{AccountID: "a-1", DealID: "d-gone", ExternalID: &ext})

	_, err := resolver.Resolve(context.Background(), "a-1", "m-1", kickoff())
	assert.ErrorIs(t, err, ErrNoLinkableDeal)
	assert.Empty(t, store.MeetingsFor("a-1"))
}

func TestResolveUsesCalendarLink(t *testing.T) {
	store, resolver := newResolverFixture(t)
	ext := "m-1"
	store.AddLink(entities.ScheduledMeetingLink{AccountID: "a-1", DealID: "d-old", ExternalID: &ext})

	res, err := resolver.Resolve(context.Background(), "a-1", "m-1", kickoff())
	require.NoError(t, err)

	assert.Equal(t, "d-old", res.DealID)
	assert.False(t, res.LinkSynthesized)
	links := store.LinksFor("m-1")
	require.Len(t, links, 1)
	assert.False(t, links[0].Synthetic)
	assert.True(t, links[0].IsCompleted())
}

func TestResolveBindsNaturalKeyMatch(t *testing.T) {
	store, resolver := newResolverFixture(t)
	c := kickoff()
	existing := entities.NewMeeting("a-1", "", nil, c)
	existing.ExternalID = nil
	store.AddMeeting(*existing)

	res, err := resolver.Resolve(context.Background(), "a-1", "m-1", c)
	require.NoError(t, err)

	assert.Equal(t, existing.ID, res.MeetingID)
	assert.False(t, res.WasCreated)

	meeting, _ := store.Meeting(existing.ID)
	require.NotNil(t, meeting.ExternalID)
	assert.Equal(t, "m-1", *meeting.ExternalID)
	assert.Len(t, store.MeetingsFor("a-1"), 1)
}

func TestResolveNaturalKeyMatchWithOtherExternalID(t *testing.T) {
	store, resolver := newResolverFixture(t)
	c := kickoff()
	existing := entities.NewMeeting("a-1", "m-legacy", nil, c)
	store.AddMeeting(*existing)

	res, err := resolver.Resolve(context.Background(), "a-1", "m-1", c)
	require.NoError(t, err)

	assert.Equal(t, existing.ID, res.MeetingID)
	meeting, _ := store.Meeting(existing.ID)
	assert.Equal(t, "m-legacy", *meeting.ExternalID)
}

// phantomConflictRepo reports a conflict on insert but never shows the
// row that caused it.
type phantomConflictRepo struct {
	*testsupport.MeetingRepo
}

func (phantomConflictRepo) Create(context.Context, *entities.Meeting) error {
	return &repositories.ConflictError{Kind: repositories.ConflictMeetingExternalID, Constraint: string(repositories.ConflictMeetingExternalID)}
}

func TestResolveInconsistentConflict(t *testing.T) {
	store, _ := newResolverFixture(t)
	resolver := NewResolver(phantomConflictRepo{store.Meetings()}, store.Links(), store.Deals(), nil)

	_, err := resolver.Resolve(context.Background(), "a-1", "m-1", kickoff())
	assert.ErrorIs(t, err, ErrReconcileInconsistent)
}

func TestResolveRequiresRef(t *testing.T) {
	_, resolver := newResolverFixture(t)

	_, err := resolver.Resolve(context.Background(), "", "m-1", kickoff())
	assert.ErrorIs(t, err, ErrInvalidRef)
}
