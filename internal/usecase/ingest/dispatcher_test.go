package ingest

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/johnquangdev/meeting-sync/internal/domain/entities"
	"github.com/johnquangdev/meeting-sync/internal/infrastructure/queue"
	"github.com/johnquangdev/meeting-sync/internal/testsupport"
)

func TestDispatchCreatesAllJobs(t *testing.T) {
	store := testsupport.NewStore()
	q := queue.NewMemoryQueue()
	meetingID := uuid.New()

	report := NewDispatcher(store.Jobs(), q).Dispatch(context.Background(), "a-1", meetingID)

	require.Len(t, report, 3)
	for i, jobType := range entities.AnalysisJobTypes {
		assert.Equal(t, jobType, report[i].JobType)
		assert.True(t, report[i].Success)
		assert.True(t, report[i].Queued)
		require.NotNil(t, report[i].JobID)
	}
	assert.Equal(t, 3, report.Succeeded())

	jobs := store.JobsFor("a-1", meetingID)
	assert.Len(t, jobs, 3)
	for _, job := range jobs {
		assert.Equal(t, entities.AnalysisJobStatusProcessing, job.Status)
	}

	msgs := q.Messages()
	require.Len(t, msgs, 3)
	for _, msg := range msgs {
		assert.Equal(t, queue.MessageTypeAnalysisJob, msg.Type)
		assert.Equal(t, meetingID.String(), msg.MeetingID)
		assert.NotEmpty(t, msg.JobID)
	}
}

func TestDispatchReportsPartialFailure(t *testing.T) {
	store := testsupport.NewStore()
	store.FailJobCreate = func(jobType entities.AnalysisJobType) error {
		if jobType == entities.AnalysisJobTypeHighlights {
			return errors.New("insert analysis job: connection reset")
		}
		return nil
	}
	meetingID := uuid.New()

	report := NewDispatcher(store.Jobs(), nil).Dispatch(context.Background(), "a-1", meetingID)

	require.Len(t, report, 3)
	assert.True(t, report[0].Success)
	assert.False(t, report[0].Queued)
	assert.False(t, report[1].Success)
	assert.Nil(t, report[1].JobID)
	assert.Contains(t, report[1].Error, "connection reset")
	assert.True(t, report[2].Success)
	assert.Equal(t, 2, report.Succeeded())
	assert.Len(t, store.JobsFor("a-1", meetingID), 2)
}

type failingPublisher struct{}

func (failingPublisher) Publish(context.Context, queue.Message) error {
	return errors.New("redis down")
}

func TestDispatchQueueFailureIsAdvisory(t *testing.T) {
	store := testsupport.NewStore()

	report := NewDispatcher(store.Jobs(), failingPublisher{}).Dispatch(context.Background(), "a-1", uuid.New())

	for _, entry := range report {
		assert.True(t, entry.Success)
		assert.False(t, entry.Queued)
		assert.Empty(t, entry.Error)
	}
}

func TestDispatchRecoversPanics(t *testing.T) {
	store := testsupport.NewStore()
	store.FailJobCreate = func(jobType entities.AnalysisJobType) error {
		if jobType == entities.AnalysisJobTypeActions {
			panic("boom")
		}
		return nil
	}

	report := NewDispatcher(store.Jobs(), nil).Dispatch(context.Background(), "a-1", uuid.New())

	assert.False(t, report[2].Success)
	assert.Contains(t, report[2].Error, "boom")
	assert.Equal(t, 2, report.Succeeded())
}

func TestDispatchFullQueueLeavesJobsUnqueued(t *testing.T) {
	store := testsupport.NewStore()
	q := queue.NewBoundedMemoryQueue(1)

	report := NewDispatcher(store.Jobs(), q).Dispatch(context.Background(), "a-1", uuid.New())

	require.Len(t, report, 3)
	queued := 0
	for _, entry := range report {
		assert.True(t, entry.Success)
		if entry.Queued {
			queued++
		}
	}
	assert.Equal(t, 1, queued)
	assert.Equal(t, 3, report.Succeeded())
	assert.Len(t, q.Messages(), 1)
}
