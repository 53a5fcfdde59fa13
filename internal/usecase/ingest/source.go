package ingest

import (
	"context"
	"encoding/json"
	stdErrors "errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/johnquangdev/meeting-sync/internal/domain/entities"
	"github.com/johnquangdev/meeting-sync/internal/infrastructure/external/transcription"
)

// UpstreamClient is the subset of the transcription service client the
// source needs. Not-yet-produced resources are reported by wrapping
// transcription.ErrNotReady.
type UpstreamClient interface {
	GetMeeting(ctx context.Context, externalID string) ([]byte, error)
	GetTranscript(ctx context.Context, externalID string) ([]byte, error)
	GetSummary(ctx context.Context, externalID string) ([]byte, error)
	GetHighlights(ctx context.Context, externalID string) ([]byte, error)
}

// ResourceStatus describes how one optional resource came back
type ResourceStatus string

const (
	ResourceReady    ResourceStatus = "ready"
	ResourceNotReady ResourceStatus = "not_ready"
	ResourceFailed   ResourceStatus = "failed"
)

// Raw payload keys in MeetingBundle.Raw
const (
	RawMetadata   = "metadata"
	RawTranscript = "transcript"
	RawSummary    = "summary"
	RawHighlights = "highlights"
)

// MeetingBundle is everything fetched for one meeting. Optional resources
// that were not ready or failed are left empty and noted in Warnings.
type MeetingBundle struct {
	ExternalID string
	Metadata   MeetingMetadata
	Segments   []entities.TranscriptSegment
	Highlights []string
	Summary    string

	TranscriptStatus ResourceStatus
	SummaryStatus    ResourceStatus
	HighlightsStatus ResourceStatus

	Warnings []string
	Raw      map[string]json.RawMessage
}

// Source fetches a meeting bundle from upstream
type Source interface {
	FetchMeetingBundle(ctx context.Context, externalID string) (*MeetingBundle, error)
}

// UpstreamSource fetches the four meeting resources concurrently
type UpstreamSource struct {
	client UpstreamClient
}

// NewUpstreamSource creates a source over client
func NewUpstreamSource(client UpstreamClient) *UpstreamSource {
	return &UpstreamSource{client: client}
}

type fetchResult struct {
	body []byte
	err  error
}

// FetchMeetingBundle fetches metadata, transcript, summary and highlights.
// Only a metadata failure is returned as an error.
func (s *UpstreamSource) FetchMeetingBundle(ctx context.Context, externalID string) (*MeetingBundle, error) {
	if externalID == "" {
		return nil, ErrInvalidRef
	}

	var (
		metadata   []byte
		transcript fetchResult
		summary    fetchResult
		highlights fetchResult
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		body, err := s.client.GetMeeting(gctx, externalID)
		if err != nil {
			if stdErrors.Is(err, transcription.ErrNotReady) {
				return fmt.Errorf("%w: %w", ErrMeetingNotReady, err)
			}
			return fmt.Errorf("%w: %w", ErrMetadataUnavailable, err)
		}
		metadata = body
		return nil
	})
	// Optional resources never fail the group.
	g.Go(func() error {
		transcript.body, transcript.err = s.client.GetTranscript(gctx, externalID)
		return nil
	})
	g.Go(func() error {
		summary.body, summary.err = s.client.GetSummary(gctx, externalID)
		return nil
	})
	g.Go(func() error {
		highlights.body, highlights.err = s.client.GetHighlights(gctx, externalID)
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	meta, err := ParseMetadata(metadata)
	if err != nil {
		return nil, fmt.Errorf("%w: decode metadata: %w", ErrMetadataUnavailable, err)
	}
	if meta.ExternalID == "" {
		meta.ExternalID = externalID
	}

	bundle := &MeetingBundle{
		ExternalID: externalID,
		Metadata:   *meta,
		Raw:        map[string]json.RawMessage{RawMetadata: rawJSON(metadata)},
	}

	bundle.TranscriptStatus = bundle.collect(RawTranscript, transcript, func(body []byte) error {
		segments, err := ParseTranscript(body)
		bundle.Segments = segments
		return err
	})
	bundle.SummaryStatus = bundle.collect(RawSummary, summary, func(body []byte) error {
		text, err := ParseSummary(body)
		bundle.Summary = text
		return err
	})
	bundle.HighlightsStatus = bundle.collect(RawHighlights, highlights, func(body []byte) error {
		items, err := ParseHighlights(body)
		bundle.Highlights = items
		return err
	})

	return bundle, nil
}

// collect decodes one optional resource, degrading it to empty on any
// failure.
func (b *MeetingBundle) collect(name string, res fetchResult, decode func([]byte) error) ResourceStatus {
	if res.err != nil {
		if stdErrors.Is(res.err, transcription.ErrNotReady) {
			b.Warnings = append(b.Warnings, name+" not ready")
			return ResourceNotReady
		}
		b.Warnings = append(b.Warnings, fmt.Sprintf("%s fetch failed: %v", name, res.err))
		return ResourceFailed
	}

	b.Raw[name] = rawJSON(res.body)
	if err := decode(res.body); err != nil {
		b.Warnings = append(b.Warnings, fmt.Sprintf("%s payload not usable: %v", name, err))
		return ResourceFailed
	}
	return ResourceReady
}

// rawJSON keeps a payload archivable even when it is not valid JSON
func rawJSON(body []byte) json.RawMessage {
	if json.Valid(body) {
		return json.RawMessage(body)
	}
	quoted, _ := json.Marshal(string(body))
	return quoted
}
