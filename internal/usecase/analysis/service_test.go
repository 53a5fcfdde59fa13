package analysis

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/johnquangdev/meeting-sync/internal/domain/entities"
	"github.com/johnquangdev/meeting-sync/internal/infrastructure/queue"
	"github.com/johnquangdev/meeting-sync/internal/testsupport"
)

func newFixture(t *testing.T) (*testsupport.Store, *queue.MemoryQueue, Service, uuid.UUID) {
	t.Helper()
	store := testsupport.NewStore()
	m := entities.NewMeeting("a-1", "m-1", nil, entities.MeetingCandidate{Title: "Kickoff"})
	store.AddMeeting(*m)
	q := queue.NewMemoryQueue()
	return store, q, NewService(store.Meetings(), store.Jobs(), q, zaptest.NewLogger(t)), m.ID
}

func TestTriggerAnalysis(t *testing.T) {
	_, q, svc, meetingID := newFixture(t)

	require.NoError(t, svc.TriggerAnalysis(context.Background(), meetingID, "a-1"))

	msgs := q.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, queue.MessageTypeTranscriptReady, msgs[0].Type)
	assert.Equal(t, meetingID.String(), msgs[0].MeetingID)
	assert.Equal(t, "a-1", msgs[0].AccountID)
}

func TestTriggerAnalysisScopesByAccount(t *testing.T) {
	_, q, svc, meetingID := newFixture(t)

	err := svc.TriggerAnalysis(context.Background(), meetingID, "a-2")
	assert.ErrorIs(t, err, entities.ErrMeetingNotFound)

	err = svc.TriggerAnalysis(context.Background(), uuid.Nil, "a-1")
	assert.ErrorIs(t, err, entities.ErrInvalidRequest)
	assert.Empty(t, q.Messages())
}

func TestCompleteJob(t *testing.T) {
	store, _, svc, meetingID := newFixture(t)
	ctx := context.Background()

	job := entities.NewAnalysisJob(meetingID, "a-1", entities.AnalysisJobTypeSummary)
	require.NoError(t, store.Jobs().Create(ctx, job))

	done, err := svc.CompleteJob(ctx, "a-1", job.ID, true, "")
	require.NoError(t, err)
	assert.Equal(t, entities.AnalysisJobStatusSucceeded, done.Status)
	assert.NotNil(t, done.CompletedAt)

	_, err = svc.CompleteJob(ctx, "a-1", job.ID, false, "late failure")
	assert.ErrorIs(t, err, entities.ErrAnalysisJobFinished)

	_, err = svc.CompleteJob(ctx, "a-2", job.ID, true, "")
	assert.ErrorIs(t, err, entities.ErrAnalysisJobNotFound)
}

func TestCompleteJobFailure(t *testing.T) {
	store, _, svc, meetingID := newFixture(t)
	ctx := context.Background()

	job := entities.NewAnalysisJob(meetingID, "a-1", entities.AnalysisJobTypeActions)
	require.NoError(t, store.Jobs().Create(ctx, job))

	failed, err := svc.CompleteJob(ctx, "a-1", job.ID, false, "")
	require.NoError(t, err)
	assert.Equal(t, entities.AnalysisJobStatusFailed, failed.Status)
	require.NotNil(t, failed.LastError)
	assert.Equal(t, "analysis failed", *failed.LastError)

	jobs, err := svc.ListJobs(ctx, "a-1", meetingID)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, entities.AnalysisJobStatusFailed, jobs[0].Status)
}

func TestTriggerAnalysisFailsWhenQueueFull(t *testing.T) {
	store := testsupport.NewStore()
	m := entities.NewMeeting("a-1", "m-1", nil, entities.MeetingCandidate{Title: "Kickoff"})
	store.AddMeeting(*m)
	q := queue.NewBoundedMemoryQueue(1)
	svc := NewService(store.Meetings(), store.Jobs(), q, zaptest.NewLogger(t))
	ctx := context.Background()

	require.NoError(t, svc.TriggerAnalysis(ctx, m.ID, "a-1"))
	err := svc.TriggerAnalysis(ctx, m.ID, "a-1")
	assert.ErrorIs(t, err, queue.ErrFull)
	assert.Len(t, q.Messages(), 1)
}
