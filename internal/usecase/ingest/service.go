package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/johnquangdev/meeting-sync/internal/domain/entities"
	"github.com/johnquangdev/meeting-sync/internal/domain/repositories"
	"github.com/johnquangdev/meeting-sync/internal/usecase/notify"
	"github.com/johnquangdev/meeting-sync/pkg/jobcontext"
	"github.com/johnquangdev/meeting-sync/pkg/metrics"
	"github.com/johnquangdev/meeting-sync/pkg/tracing"
)

// Service runs the ingestion pipeline for one upstream meeting
type Service interface {
	Sync(ctx context.Context, accountID, externalID string) (*Report, error)
}

// Notifier announces a stored transcript to downstream consumers
type Notifier interface {
	NotifyTranscriptReady(ctx context.Context, meetingID uuid.UUID, dealID, accountID string) notify.Result
}

// RawArchive keeps the unparsed upstream payloads of a run
type RawArchive interface {
	ArchiveRaw(ctx context.Context, accountID, externalID string, raw map[string]json.RawMessage) (string, error)
}

// Deps wires the pipeline. Archive, Metrics, Tracer and Logger are optional.
type Deps struct {
	Source     Source
	Resolver   *Resolver
	Replacer   *Replacer
	Dispatcher *Dispatcher
	Notifier   Notifier
	Deals      repositories.DealRepository
	Archive    RawArchive
	Metrics    *metrics.Metrics
	Tracer     *tracing.Tracer
	Logger     *zap.Logger
	RunTimeout time.Duration
}

type service struct {
	source     Source
	resolver   *Resolver
	replacer   *Replacer
	dispatcher *Dispatcher
	notifier   Notifier
	deals      repositories.DealRepository
	archive    RawArchive
	metrics    *metrics.Metrics
	tracer     *tracing.Tracer
	logger     *zap.Logger
	runTimeout time.Duration
	now        func() time.Time
}

// NewService creates the ingestion pipeline
func NewService(deps Deps) Service {
	tracer := deps.Tracer
	if tracer == nil {
		tracer = tracing.NewTracer()
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &service{
		source:     deps.Source,
		resolver:   deps.Resolver,
		replacer:   deps.Replacer,
		dispatcher: deps.Dispatcher,
		notifier:   deps.Notifier,
		deals:      deps.Deals,
		archive:    deps.Archive,
		metrics:    deps.Metrics,
		tracer:     tracer,
		logger:     logger,
		runTimeout: deps.RunTimeout,
		now:        time.Now,
	}
}

// Sync fetches, reconciles, stores and announces one meeting. Only the
// fetch and reconcile steps can fail the run; later steps degrade it and
// leave warnings on the report.
func (s *service) Sync(ctx context.Context, accountID, externalID string) (*Report, error) {
	accountID = strings.TrimSpace(accountID)
	externalID = strings.TrimSpace(externalID)
	if accountID == "" || externalID == "" {
		return nil, &PipelineError{Step: StateFetching, AccountID: accountID, ExternalID: externalID, Err: ErrInvalidRef}
	}

	ctx, cancel := jobcontext.RunBegin(ctx, accountID, externalID, s.runTimeout)
	defer cancel()

	meta := jobcontext.GetRunMetadata(ctx)
	ctx, span := s.tracer.StartRunSpan(ctx, accountID, externalID, meta.Trigger)

	log := s.logger.With(
		zap.String("run_id", meta.RunID.String()),
		zap.String("account_id", accountID),
		zap.String("external_id", externalID),
		zap.String("trigger", meta.Trigger),
	)
	log.Info("meeting sync started")

	report := &Report{State: StateFetching}

	// Fetching
	var bundle *MeetingBundle
	err := s.step(ctx, StateFetching, func(ctx context.Context) error {
		var err error
		bundle, err = s.source.FetchMeetingBundle(ctx, externalID)
		return err
	})
	if err != nil {
		return nil, s.fail(span, log, report, StateFetching, accountID, externalID, err)
	}
	report.TranscriptSegmentsFetched = len(bundle.Segments)
	report.HighlightsFetched = len(bundle.Highlights)
	for _, w := range bundle.Warnings {
		s.warn(log, report, w)
	}

	if s.archive != nil {
		key, err := s.archive.ArchiveRaw(ctx, accountID, externalID, bundle.Raw)
		if err != nil {
			s.warn(log, report, fmt.Sprintf("archive raw payloads: %v", err))
		} else {
			report.ArchiveKey = key
		}
	}

	// Reconciling
	report.State = StateReconciling
	var res *Resolution
	err = s.step(ctx, StateReconciling, func(ctx context.Context) error {
		var err error
		res, err = s.resolver.Resolve(ctx, accountID, externalID, bundle.Metadata.Candidate)
		return err
	})
	if err != nil {
		return nil, s.fail(span, log, report, StateReconciling, accountID, externalID, err)
	}
	report.MeetingID = res.MeetingID
	report.DealID = res.DealID
	report.WasNewMeeting = res.WasCreated
	for _, w := range res.Warnings {
		s.warn(log, report, w)
	}
	span.SetAttributes(attribute.String(tracing.AttrMeetingID, res.MeetingID.String()))
	log = log.With(zap.String("meeting_id", res.MeetingID.String()), zap.String("deal_id", res.DealID))

	// Replacing
	report.State = StateReplacing
	var summaryOutcome SummaryOutcome
	_ = s.step(ctx, StateReplacing, func(ctx context.Context) error {
		tr, err := s.replacer.ReplaceTranscript(ctx, accountID, res.MeetingID, bundle.Segments)
		if err != nil {
			s.warn(log, report, err.Error())
		}
		report.TranscriptSegmentsStored = tr.Stored
		s.recordBatches(log, report, "transcript", tr)
		if s.metrics != nil {
			s.metrics.SegmentsStoredTotal.Add(float64(tr.Stored))
		}

		hl, err := s.replacer.ReplaceHighlights(ctx, accountID, res.MeetingID, bundle.Highlights)
		if err != nil {
			s.warn(log, report, err.Error())
		}
		report.HighlightsStored = hl.Stored
		s.recordBatches(log, report, "highlights", hl)

		// hasSummary reflects the meeting, so a placeholder keeps an earlier real summary
		summaryOutcome, err = s.replacer.StoreSummary(ctx, accountID, res.MeetingID, bundle.Summary)
		switch {
		case err != nil:
			s.warn(log, report, err.Error())
		case summaryOutcome == SummaryStored:
			report.HasSummary = true
		default:
			has, err := s.replacer.HasSummary(ctx, accountID, res.MeetingID)
			if err != nil {
				s.warn(log, report, err.Error())
			}
			report.HasSummary = has
		}
		return nil
	})

	s.updateDeal(ctx, log, report, accountID, bundle)

	// Dispatching
	report.State = StateDispatching
	_ = s.step(ctx, StateDispatching, func(ctx context.Context) error {
		report.JobDispatchReport = s.dispatcher.Dispatch(ctx, accountID, res.MeetingID)
		for _, entry := range report.JobDispatchReport {
			status := "created"
			if !entry.Success {
				status = "failed"
				s.warn(log, report, fmt.Sprintf("analysis job %s: %s", entry.JobType, entry.Error))
			}
			if s.metrics != nil {
				s.metrics.JobsDispatchedTotal.WithLabelValues(string(entry.JobType), status).Inc()
			}
		}
		return nil
	})

	// Notifying
	report.State = StateNotifying
	_ = s.step(ctx, StateNotifying, func(ctx context.Context) error {
		result := s.notifier.NotifyTranscriptReady(ctx, res.MeetingID, res.DealID, accountID)
		report.NotificationOutcome = result.Outcome
		if s.metrics != nil {
			s.metrics.NotificationsTotal.WithLabelValues(string(result.Outcome)).Inc()
		}
		switch result.Outcome {
		case notify.OutcomeFallbackDelivered:
			log.Warn("transcript webhook failed, analysis triggered directly",
				zap.Int("webhook_status", result.WebhookStatus),
				zap.String("webhook_error", result.WebhookError),
			)
		case notify.OutcomeFallbackFailed:
			s.warn(log, report, fmt.Sprintf("notification failed: webhook: %s; fallback: %s", result.WebhookError, result.FallbackError))
		}
		return nil
	})

	report.State = StateDone
	if s.metrics != nil {
		s.metrics.RunsTotal.WithLabelValues(string(StateDone), "").Inc()
	}
	tracing.EndSpan(span, nil)

	log.Info("meeting sync completed",
		zap.Bool("was_new_meeting", report.WasNewMeeting),
		zap.Int("segments_fetched", report.TranscriptSegmentsFetched),
		zap.Int("segments_stored", report.TranscriptSegmentsStored),
		zap.Int("highlights_stored", report.HighlightsStored),
		zap.Bool("has_summary", report.HasSummary),
		zap.Int("jobs_created", report.JobDispatchReport.Succeeded()),
		zap.String("notification", string(report.NotificationOutcome)),
		zap.Int("warnings", len(report.Warnings)),
		zap.Duration("duration", time.Since(meta.StartTime)),
	)
	return report, nil
}

// updateDeal reports the meeting date and summary to the deal. It never
// fails the run.
func (s *service) updateDeal(ctx context.Context, log *zap.Logger, report *Report, accountID string, bundle *MeetingBundle) {
	if s.deals == nil {
		return
	}

	date := s.now().UTC()
	if start := bundle.Metadata.Candidate.StartTime; start != nil {
		date = *start
	}
	update := entities.DealMeetingUpdate{
		AccountID:       accountID,
		DealID:          report.DealID,
		LastMeetingDate: date,
	}
	if report.HasSummary {
		summary := strings.TrimSpace(bundle.Summary)
		update.LastMeetingSummary = &summary
	}

	if err := s.deals.UpdateLastMeeting(ctx, update); err != nil {
		s.warn(log, report, fmt.Sprintf("update deal %s: %v", report.DealID, err))
		return
	}
	report.DealUpdated = true
}

func (s *service) step(ctx context.Context, step State, fn func(ctx context.Context) error) error {
	start := time.Now()
	ctx, span := s.tracer.StartStepSpan(ctx, string(step))
	err := fn(ctx)
	tracing.EndSpan(span, err)
	if s.metrics != nil {
		s.metrics.StepDuration.WithLabelValues(string(step)).Observe(time.Since(start).Seconds())
	}
	return err
}

func (s *service) fail(span trace.Span, log *zap.Logger, report *Report, step State, accountID, externalID string, err error) error {
	report.State = StateFailed
	perr := &PipelineError{Step: step, AccountID: accountID, ExternalID: externalID, Err: err}

	if s.metrics != nil {
		s.metrics.RunsTotal.WithLabelValues(string(StateFailed), string(step)).Inc()
	}
	tracing.EndSpan(span, perr)
	log.Error("meeting sync failed", zap.String("step", string(step)), zap.Error(err))
	return perr
}

func (s *service) recordBatches(log *zap.Logger, report *Report, collection string, res *ReplaceResult) {
	for _, f := range res.Failed {
		if s.metrics != nil {
			s.metrics.BatchFailuresTotal.WithLabelValues(collection).Inc()
		}
		s.warn(log, report, fmt.Sprintf("%s batch %d (%d rows) failed: %v", collection, f.Index, f.Size, f.Err))
	}
}

func (s *service) warn(log *zap.Logger, report *Report, msg string) {
	report.warn(msg)
	if s.metrics != nil {
		s.metrics.WarningsTotal.Inc()
	}
	log.Warn(msg)
}
