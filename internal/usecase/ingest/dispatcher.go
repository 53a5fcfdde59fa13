package ingest

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/johnquangdev/meeting-sync/internal/domain/entities"
	"github.com/johnquangdev/meeting-sync/internal/domain/repositories"
	"github.com/johnquangdev/meeting-sync/internal/infrastructure/queue"
)

// Dispatcher records one analysis job per type for an ingested meeting
// and hands them to the analysis workers. Jobs are independent: one
// failing does not stop the others, and failures are not retried.
type Dispatcher struct {
	jobs      repositories.AnalysisJobRepository
	publisher queue.Publisher
	types     []entities.AnalysisJobType
}

// NewDispatcher creates a dispatcher. publisher may be nil, in which case
// jobs are only recorded.
func NewDispatcher(jobs repositories.AnalysisJobRepository, publisher queue.Publisher) *Dispatcher {
	return &Dispatcher{jobs: jobs, publisher: publisher, types: entities.AnalysisJobTypes}
}

// Dispatch creates all jobs concurrently and reports them in fixed type order
func (d *Dispatcher) Dispatch(ctx context.Context, accountID string, meetingID uuid.UUID) JobDispatchReport {
	report := make(JobDispatchReport, len(d.types))

	var wg sync.WaitGroup
	for i, jobType := range d.types {
		wg.Add(1)
		go func(i int, jobType entities.AnalysisJobType) {
			defer wg.Done()
			report[i] = d.dispatchOne(ctx, accountID, meetingID, jobType)
		}(i, jobType)
	}
	wg.Wait()

	return report
}

func (d *Dispatcher) dispatchOne(ctx context.Context, accountID string, meetingID uuid.UUID, jobType entities.AnalysisJobType) (entry JobDispatchEntry) {
	entry.JobType = jobType

	defer func() {
		if r := recover(); r != nil {
			entry = JobDispatchEntry{JobType: jobType, Error: fmt.Sprintf("panic: %v", r)}
		}
	}()

	job := entities.NewAnalysisJob(meetingID, accountID, jobType)
	if err := d.jobs.Create(ctx, job); err != nil {
		entry.Error = err.Error()
		return entry
	}

	id := job.ID
	entry.Success = true
	entry.JobID = &id

	if d.publisher == nil {
		return entry
	}
	msg := queue.NewMessage(queue.MessageTypeAnalysisJob, accountID, meetingID.String())
	msg.JobID = job.ID.String()
	msg.JobType = string(jobType)
	if err := d.publisher.Publish(ctx, msg); err == nil {
		entry.Queued = true
	}
	return entry
}
