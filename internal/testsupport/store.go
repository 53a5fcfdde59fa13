// Package testsupport holds in-memory doubles of the persistence layer.
// They enforce the same unique constraints as the Postgres schema so the
// reconciliation paths can be exercised without a database.
package testsupport

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/johnquangdev/meeting-sync/internal/domain/entities"
	"github.com/johnquangdev/meeting-sync/internal/domain/repositories"
)

// ErrInjected is returned by failure hooks that do not supply their own error
var ErrInjected = errors.New("injected failure")

type scopeKey struct {
	meetingID uuid.UUID
	accountID string
}

// Store is an in-memory implementation of every repository interface
type Store struct {
	mu sync.Mutex

	meetings   map[uuid.UUID]entities.Meeting
	links      map[uuid.UUID]entities.ScheduledMeetingLink
	deals      map[string]entities.Deal
	segments   map[scopeKey][]entities.TranscriptSegment
	highlights map[scopeKey][]entities.Highlight
	summaries  map[scopeKey]entities.MeetingSummary
	jobs       map[uuid.UUID]entities.AnalysisJob

	gate *gate

	// FailTranscriptBatch, when set, is consulted before each transcript
	// insert batch with the batch's zero-based index within the unit.
	FailTranscriptBatch func(index int) error
	// FailHighlightBatch is the highlight counterpart of FailTranscriptBatch.
	FailHighlightBatch func(index int) error
	// FailJobCreate, when set, is consulted before each analysis job insert.
	FailJobCreate func(jobType entities.AnalysisJobType) error
	// FailDealUpdate, when set, is returned by UpdateLastMeeting.
	FailDealUpdate error
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{
		meetings:   make(map[uuid.UUID]entities.Meeting),
		links:      make(map[uuid.UUID]entities.ScheduledMeetingLink),
		deals:      make(map[string]entities.Deal),
		segments:   make(map[scopeKey][]entities.TranscriptSegment),
		highlights: make(map[scopeKey][]entities.Highlight),
		summaries:  make(map[scopeKey]entities.MeetingSummary),
		jobs:       make(map[uuid.UUID]entities.AnalysisJob),
	}
}

// Repository views over the store
func (s *Store) Meetings() *MeetingRepo   { return &MeetingRepo{s} }
func (s *Store) Links() *LinkRepo         { return &LinkRepo{s} }
func (s *Store) Deals() *DealRepo         { return &DealRepo{s} }
func (s *Store) Artifacts() *ArtifactRepo { return &ArtifactRepo{s} }
func (s *Store) Summaries() *SummaryRepo  { return &SummaryRepo{s} }
func (s *Store) Jobs() *AnalysisJobRepo   { return &AnalysisJobRepo{s} }

// HoldMeetingLookups makes the next n meeting lookups by external id wait
// until all n have arrived, so concurrent resolvers race on the insert.
func (s *Store) HoldMeetingLookups(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gate = newGate(n)
}

// Seeding and inspection helpers

// AddDeal stores a deal, defaulting CreatedAt to now
func (s *Store) AddDeal(d entities.Deal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now()
	}
	s.deals[d.ID] = d
}

// AddLink stores a scheduled link as-is
func (s *Store) AddLink(l entities.ScheduledMeetingLink) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	if l.Status == "" {
		l.Status = entities.ScheduledLinkStatusScheduled
	}
	s.links[l.ID] = l
}

// AddMeeting stores a meeting bypassing constraint checks
func (s *Store) AddMeeting(m entities.Meeting) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	s.meetings[m.ID] = m
}

// MeetingsFor returns all meetings of an account
func (s *Store) MeetingsFor(accountID string) []entities.Meeting {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []entities.Meeting
	for _, m := range s.meetings {
		if m.AccountID == accountID {
			out = append(out, m)
		}
	}
	return out
}

// LinksFor returns every link carrying externalID
func (s *Store) LinksFor(externalID string) []entities.ScheduledMeetingLink {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []entities.ScheduledMeetingLink
	for _, l := range s.links {
		if l.ExternalID != nil && *l.ExternalID == externalID {
			out = append(out, l)
		}
	}
	return out
}

// Deal returns a copy of the stored deal
func (s *Store) Deal(id string) (entities.Deal, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.deals[id]
	return d, ok
}

// Meeting returns a copy of the stored meeting
func (s *Store) Meeting(id uuid.UUID) (entities.Meeting, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.meetings[id]
	return m, ok
}

// Segments returns the stored transcript of a meeting in sequence order
func (s *Store) Segments(accountID string, meetingID uuid.UUID) []entities.TranscriptSegment {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := append([]entities.TranscriptSegment{}, s.segments[scopeKey{meetingID, accountID}]...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].SequenceNumber < out[j].SequenceNumber })
	return out
}

// Highlights returns the stored highlights of a meeting in position order
func (s *Store) Highlights(accountID string, meetingID uuid.UUID) []entities.Highlight {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := append([]entities.Highlight{}, s.highlights[scopeKey{meetingID, accountID}]...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out
}

// JobsFor returns the analysis jobs of a meeting
func (s *Store) JobsFor(accountID string, meetingID uuid.UUID) []entities.AnalysisJob {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []entities.AnalysisJob
	for _, j := range s.jobs {
		if j.MeetingID == meetingID && j.AccountID == accountID {
			out = append(out, j)
		}
	}
	return out
}

// constraint checks, called with mu held

func (s *Store) meetingConflict(m entities.Meeting) error {
	for _, other := range s.meetings {
		if other.ID == m.ID || other.AccountID != m.AccountID {
			continue
		}
		if m.HasExternalID() && other.HasExternalID() && *m.ExternalID == *other.ExternalID {
			return conflict(repositories.ConflictMeetingExternalID)
		}
		// NULL start times never collide, matching Postgres unique semantics.
		if m.StartTime != nil && other.StartTime != nil &&
			m.Title == other.Title && m.HostEmail == other.HostEmail &&
			m.StartTime.Equal(*other.StartTime) {
			return conflict(repositories.ConflictMeetingNaturalKey)
		}
	}
	return nil
}

func conflict(kind repositories.ConflictKind) error {
	return &repositories.ConflictError{
		Kind:       kind,
		Constraint: string(kind),
		Err:        fmt.Errorf("duplicate key value violates unique constraint %q", string(kind)),
	}
}

// gate releases its waiters once n have arrived, or after a safety timeout
type gate struct {
	n       int
	arrived int
	open    chan struct{}
}

func newGate(n int) *gate {
	return &gate{n: n, open: make(chan struct{})}
}

// pass is called with mu held and returns the channel to wait on, or nil
// when the gate does not apply to this caller.
func (s *Store) pass() chan struct{} {
	g := s.gate
	if g == nil || g.arrived >= g.n {
		return nil
	}
	g.arrived++
	if g.arrived == g.n {
		close(g.open)
		s.gate = nil
	}
	return g.open
}

func wait(ch chan struct{}) {
	if ch == nil {
		return
	}
	select {
	case <-ch:
	case <-time.After(2 * time.Second):
	}
}

// MeetingRepo implements repositories.MeetingRepository
type MeetingRepo struct{ s *Store }

func (r *MeetingRepo) FindByExternalID(_ context.Context, accountID, externalID string) (*entities.Meeting, error) {
	r.s.mu.Lock()
	ch := r.s.pass()
	r.s.mu.Unlock()
	wait(ch)

	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, m := range r.s.meetings {
		if m.AccountID == accountID && m.HasExternalID() && *m.ExternalID == externalID {
			return &m, nil
		}
	}
	return nil, nil
}

func (r *MeetingRepo) FindByNaturalKey(_ context.Context, accountID, title string, startTime *time.Time, hostEmail string) (*entities.Meeting, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, m := range r.s.meetings {
		if m.AccountID != accountID || m.Title != title || m.HostEmail != hostEmail {
			continue
		}
		if (startTime == nil && m.StartTime == nil) ||
			(startTime != nil && m.StartTime != nil && m.StartTime.Equal(*startTime)) {
			return &m, nil
		}
	}
	return nil, nil
}

func (r *MeetingRepo) FindByID(_ context.Context, accountID string, id uuid.UUID) (*entities.Meeting, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	m, ok := r.s.meetings[id]
	if !ok || m.AccountID != accountID {
		return nil, nil
	}
	return &m, nil
}

func (r *MeetingRepo) Create(_ context.Context, meeting *entities.Meeting) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if meeting.ID == uuid.Nil {
		meeting.ID = uuid.New()
	}
	if err := r.s.meetingConflict(*meeting); err != nil {
		return err
	}
	r.s.meetings[meeting.ID] = *meeting
	return nil
}

func (r *MeetingRepo) BindExternalID(_ context.Context, accountID string, id uuid.UUID, externalID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	m, ok := r.s.meetings[id]
	if !ok || m.AccountID != accountID || m.HasExternalID() {
		return nil
	}
	ext := externalID
	m.ExternalID = &ext
	if err := r.s.meetingConflict(m); err != nil {
		return err
	}
	m.UpdatedAt = time.Now()
	r.s.meetings[id] = m
	return nil
}

func (r *MeetingRepo) UpdateDetails(_ context.Context, meeting *entities.Meeting) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	current, ok := r.s.meetings[meeting.ID]
	if !ok || current.AccountID != meeting.AccountID {
		return nil
	}
	updated := current
	updated.Title = meeting.Title
	updated.HostEmail = meeting.HostEmail
	updated.ParticipantEmails = meeting.ParticipantEmails
	updated.SourcePlatform = meeting.SourcePlatform
	updated.StartTime = meeting.StartTime
	updated.EndTime = meeting.EndTime
	updated.Timezone = meeting.Timezone
	updated.DurationSeconds = meeting.DurationSeconds
	if err := r.s.meetingConflict(updated); err != nil {
		return err
	}
	updated.UpdatedAt = time.Now()
	r.s.meetings[meeting.ID] = updated
	return nil
}

// LinkRepo implements repositories.ScheduledLinkRepository
type LinkRepo struct{ s *Store }

func (r *LinkRepo) FindByExternalID(_ context.Context, externalID string) (*entities.ScheduledMeetingLink, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, l := range r.s.links {
		if l.ExternalID != nil && *l.ExternalID == externalID {
			return &l, nil
		}
	}
	return nil, nil
}

func (r *LinkRepo) Create(_ context.Context, link *entities.ScheduledMeetingLink) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if link.ExternalID != nil {
		for _, l := range r.s.links {
			if l.ExternalID != nil && *l.ExternalID == *link.ExternalID {
				return conflict(repositories.ConflictLinkExternalID)
			}
		}
	}
	if link.ID == uuid.Nil {
		link.ID = uuid.New()
	}
	r.s.links[link.ID] = *link
	return nil
}

func (r *LinkRepo) MarkCompleted(_ context.Context, id, meetingID uuid.UUID) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	l, ok := r.s.links[id]
	if !ok || l.Status != entities.ScheduledLinkStatusScheduled {
		return false, nil
	}
	l.MarkAsCompleted(meetingID)
	r.s.links[id] = l
	return true, nil
}

// DealRepo implements repositories.DealRepository
type DealRepo struct{ s *Store }

func (r *DealRepo) FindByID(_ context.Context, id string) (*entities.Deal, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	d, ok := r.s.deals[id]
	if !ok {
		return nil, nil
	}
	return &d, nil
}

func (r *DealRepo) MostRecentForAccount(_ context.Context, accountID string) (*entities.Deal, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var best *entities.Deal
	for _, d := range r.s.deals {
		if d.AccountID != accountID {
			continue
		}
		if best == nil || d.CreatedAt.After(best.CreatedAt) ||
			(d.CreatedAt.Equal(best.CreatedAt) && d.ID > best.ID) {
			best = &d
		}
	}
	return best, nil
}

func (r *DealRepo) UpdateLastMeeting(_ context.Context, update entities.DealMeetingUpdate) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.FailDealUpdate != nil {
		return r.s.FailDealUpdate
	}
	d, ok := r.s.deals[update.DealID]
	if !ok || d.AccountID != update.AccountID {
		return nil
	}
	if d.LastMeetingDate == nil || !update.LastMeetingDate.Before(*d.LastMeetingDate) {
		date := update.LastMeetingDate
		d.LastMeetingDate = &date
		if update.LastMeetingSummary != nil {
			d.LastMeetingSummary = update.LastMeetingSummary
		}
	}
	d.UpdatedAt = time.Now()
	r.s.deals[d.ID] = d
	return nil
}

// ArtifactRepo implements repositories.ArtifactRepository. A replace
// unit works on a staged copy that is committed only when fn succeeds.
type ArtifactRepo struct{ s *Store }

func (r *ArtifactRepo) Replace(_ context.Context, accountID string, meetingID uuid.UUID, fn func(w repositories.ArtifactWriter) error) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	key := scopeKey{meetingID, accountID}
	m, ok := r.s.meetings[meetingID]
	if !ok || m.AccountID != accountID {
		return entities.ErrMeetingNotFound
	}

	w := &stagedWriter{
		store:      r.s,
		key:        key,
		segments:   append([]entities.TranscriptSegment{}, r.s.segments[key]...),
		highlights: append([]entities.Highlight{}, r.s.highlights[key]...),
	}
	if err := fn(w); err != nil {
		return err
	}
	r.s.segments[key] = w.segments
	r.s.highlights[key] = w.highlights
	return nil
}

func (r *ArtifactRepo) CountTranscript(_ context.Context, accountID string, meetingID uuid.UUID) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return int64(len(r.s.segments[scopeKey{meetingID, accountID}])), nil
}

func (r *ArtifactRepo) CountHighlights(_ context.Context, accountID string, meetingID uuid.UUID) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return int64(len(r.s.highlights[scopeKey{meetingID, accountID}])), nil
}

// stagedWriter runs with the store mutex held by Replace
type stagedWriter struct {
	store           *Store
	key             scopeKey
	segments        []entities.TranscriptSegment
	highlights      []entities.Highlight
	transcriptBatch int
	highlightBatch  int
}

func (w *stagedWriter) DeleteTranscript() (int64, error) {
	n := int64(len(w.segments))
	w.segments = nil
	return n, nil
}

func (w *stagedWriter) InsertTranscriptBatch(segments []entities.TranscriptSegment) error {
	idx := w.transcriptBatch
	w.transcriptBatch++
	if hook := w.store.FailTranscriptBatch; hook != nil {
		if err := hook(idx); err != nil {
			return err
		}
	}
	for _, seg := range segments {
		if seg.ID == uuid.Nil {
			seg.ID = uuid.New()
		}
		seg.MeetingID = w.key.meetingID
		seg.AccountID = w.key.accountID
		w.segments = append(w.segments, seg)
	}
	return nil
}

func (w *stagedWriter) DeleteHighlights() (int64, error) {
	n := int64(len(w.highlights))
	w.highlights = nil
	return n, nil
}

func (w *stagedWriter) InsertHighlightBatch(highlights []entities.Highlight) error {
	idx := w.highlightBatch
	w.highlightBatch++
	if hook := w.store.FailHighlightBatch; hook != nil {
		if err := hook(idx); err != nil {
			return err
		}
	}
	for _, h := range highlights {
		if h.ID == uuid.Nil {
			h.ID = uuid.New()
		}
		h.MeetingID = w.key.meetingID
		h.AccountID = w.key.accountID
		w.highlights = append(w.highlights, h)
	}
	return nil
}

// SummaryRepo implements repositories.SummaryRepository
type SummaryRepo struct{ s *Store }

func (r *SummaryRepo) UpsertSummary(_ context.Context, accountID string, meetingID uuid.UUID, text string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	m, ok := r.s.meetings[meetingID]
	if !ok || m.AccountID != accountID {
		return entities.ErrMeetingNotFound
	}

	key := scopeKey{meetingID, accountID}
	now := time.Now()
	row, exists := r.s.summaries[key]
	if !exists {
		row = entities.MeetingSummary{ID: uuid.New(), MeetingID: meetingID, AccountID: accountID, CreatedAt: now}
	}
	row.SummaryText = text
	row.UpdatedAt = now
	r.s.summaries[key] = row

	summary := text
	m.Summary = &summary
	r.s.meetings[meetingID] = m
	return nil
}

func (r *SummaryRepo) UpdateNotes(_ context.Context, accountID string, meetingID uuid.UUID, notes string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	m, ok := r.s.meetings[meetingID]
	if !ok || m.AccountID != accountID {
		return entities.ErrMeetingNotFound
	}
	n := notes
	m.Notes = &n
	r.s.meetings[meetingID] = m
	return nil
}

func (r *SummaryRepo) FindSummary(_ context.Context, accountID string, meetingID uuid.UUID) (*entities.MeetingSummary, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	row, ok := r.s.summaries[scopeKey{meetingID, accountID}]
	if !ok {
		return nil, nil
	}
	return &row, nil
}

// AnalysisJobRepo implements repositories.AnalysisJobRepository
type AnalysisJobRepo struct{ s *Store }

func (r *AnalysisJobRepo) Create(_ context.Context, job *entities.AnalysisJob) error {
	r.s.mu.Lock()
	hook := r.s.FailJobCreate
	r.s.mu.Unlock()
	if hook != nil {
		if err := hook(job.JobType); err != nil {
			return err
		}
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if job.ID == uuid.Nil {
		job.ID = uuid.New()
	}
	r.s.jobs[job.ID] = *job
	return nil
}

func (r *AnalysisJobRepo) FindByID(_ context.Context, accountID string, id uuid.UUID) (*entities.AnalysisJob, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	j, ok := r.s.jobs[id]
	if !ok || j.AccountID != accountID {
		return nil, nil
	}
	return &j, nil
}

func (r *AnalysisJobRepo) ListByMeeting(_ context.Context, accountID string, meetingID uuid.UUID) ([]entities.AnalysisJob, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []entities.AnalysisJob
	for _, j := range r.s.jobs {
		if j.MeetingID == meetingID && j.AccountID == accountID {
			out = append(out, j)
		}
	}
	sort.Slice(out, func(i, k int) bool { return out[i].CreatedAt.Before(out[k].CreatedAt) })
	return out, nil
}

func (r *AnalysisJobRepo) Finish(_ context.Context, job *entities.AnalysisJob) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	current, ok := r.s.jobs[job.ID]
	if !ok || current.AccountID != job.AccountID || current.Status != entities.AnalysisJobStatusProcessing {
		return false, nil
	}
	current.Status = job.Status
	current.CompletedAt = job.CompletedAt
	current.LastError = job.LastError
	current.UpdatedAt = time.Now()
	r.s.jobs[job.ID] = current
	return true, nil
}

var (
	_ repositories.MeetingRepository       = (*MeetingRepo)(nil)
	_ repositories.ScheduledLinkRepository = (*LinkRepo)(nil)
	_ repositories.DealRepository          = (*DealRepo)(nil)
	_ repositories.ArtifactRepository      = (*ArtifactRepo)(nil)
	_ repositories.SummaryRepository       = (*SummaryRepo)(nil)
	_ repositories.AnalysisJobRepository   = (*AnalysisJobRepo)(nil)
)
