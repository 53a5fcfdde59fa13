package ingest

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/johnquangdev/meeting-sync/internal/domain/entities"
	"github.com/johnquangdev/meeting-sync/internal/domain/repositories"
)

// DefaultBatchSize is used when the configured batch size is not positive
const DefaultBatchSize = 100

// BatchFailure is one insert batch that was skipped
type BatchFailure struct {
	Index int
	Size  int
	Err   error
}

// ReplaceResult describes one collection replacement
type ReplaceResult struct {
	Incoming int
	Deleted  int64
	Stored   int
	Failed   []BatchFailure
	// Skipped is set when nothing came in and the stored set was kept.
	Skipped bool
}

// SummaryOutcome is what happened to the fetched summary text
type SummaryOutcome string

const (
	SummaryStored      SummaryOutcome = "stored"
	SummaryPlaceholder SummaryOutcome = "placeholder"
	SummaryEmpty       SummaryOutcome = "empty"
)

// Replacer swaps a meeting's derived artifacts for the freshly fetched
// ones. Empty input never deletes what is already stored.
type Replacer struct {
	artifacts    repositories.ArtifactRepository
	summaries    repositories.SummaryRepository
	batchSize    int
	placeholders map[string]struct{}
}

// NewReplacer creates a replacer. placeholders are the summary texts the
// transcription service returns while a real summary is pending.
func NewReplacer(
	artifacts repositories.ArtifactRepository,
	summaries repositories.SummaryRepository,
	batchSize int,
	placeholders []string,
) *Replacer {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	set := make(map[string]struct{}, len(placeholders))
	for _, p := range placeholders {
		if p = normalizePlaceholder(p); p != "" {
			set[p] = struct{}{}
		}
	}
	return &Replacer{artifacts: artifacts, summaries: summaries, batchSize: batchSize, placeholders: set}
}

// ReplaceTranscript replaces the meeting transcript with segments. The
// returned error means the replace unit failed as a whole and the old set
// is untouched; batch failures are reported on the result instead.
func (r *Replacer) ReplaceTranscript(ctx context.Context, accountID string, meetingID uuid.UUID, segments []entities.TranscriptSegment) (*ReplaceResult, error) {
	res := &ReplaceResult{Incoming: len(segments)}
	if len(segments) == 0 {
		res.Skipped = true
		return res, nil
	}

	rows := make([]entities.TranscriptSegment, len(segments))
	for i, seg := range segments {
		seg.ID = uuid.Nil
		seg.MeetingID = meetingID
		seg.AccountID = accountID
		seg.SequenceNumber = i
		rows[i] = seg
	}

	err := r.artifacts.Replace(ctx, accountID, meetingID, func(w repositories.ArtifactWriter) error {
		deleted, err := w.DeleteTranscript()
		if err != nil {
			return fmt.Errorf("delete transcript: %w", err)
		}
		res.Deleted = deleted

		for i, batch := range chunk(rows, r.batchSize) {
			if err := w.InsertTranscriptBatch(batch); err != nil {
				res.Failed = append(res.Failed, BatchFailure{Index: i, Size: len(batch), Err: err})
				continue
			}
			res.Stored += len(batch)
		}
		return nil
	})
	if err != nil {
		return &ReplaceResult{Incoming: len(segments)}, fmt.Errorf("replace transcript: %w", err)
	}
	return res, nil
}

// ReplaceHighlights replaces the meeting highlights, with the same rules
// as ReplaceTranscript.
func (r *Replacer) ReplaceHighlights(ctx context.Context, accountID string, meetingID uuid.UUID, texts []string) (*ReplaceResult, error) {
	res := &ReplaceResult{Incoming: len(texts)}
	if len(texts) == 0 {
		res.Skipped = true
		return res, nil
	}

	rows := make([]entities.Highlight, len(texts))
	for i, text := range texts {
		rows[i] = entities.Highlight{MeetingID: meetingID, AccountID: accountID, Position: i, Text: text}
	}

	err := r.artifacts.Replace(ctx, accountID, meetingID, func(w repositories.ArtifactWriter) error {
		deleted, err := w.DeleteHighlights()
		if err != nil {
			return fmt.Errorf("delete highlights: %w", err)
		}
		res.Deleted = deleted

		for i, batch := range chunk(rows, r.batchSize) {
			if err := w.InsertHighlightBatch(batch); err != nil {
				res.Failed = append(res.Failed, BatchFailure{Index: i, Size: len(batch), Err: err})
				continue
			}
			res.Stored += len(batch)
		}
		return nil
	})
	if err != nil {
		return &ReplaceResult{Incoming: len(texts)}, fmt.Errorf("replace highlights: %w", err)
	}
	return res, nil
}

// StoreSummary writes a real summary, parks a placeholder in the meeting
// notes, and ignores empty text. A stored summary is never overwritten by
// a placeholder.
func (r *Replacer) StoreSummary(ctx context.Context, accountID string, meetingID uuid.UUID, text string) (SummaryOutcome, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return SummaryEmpty, nil
	}

	if r.IsPlaceholder(text) {
		if err := r.summaries.UpdateNotes(ctx, accountID, meetingID, text); err != nil {
			return SummaryPlaceholder, fmt.Errorf("update notes: %w", err)
		}
		return SummaryPlaceholder, nil
	}

	if err := r.summaries.UpsertSummary(ctx, accountID, meetingID, text); err != nil {
		return SummaryStored, fmt.Errorf("upsert summary: %w", err)
	}
	return SummaryStored, nil
}

// HasSummary reports whether the meeting holds a real, non-placeholder summary
func (r *Replacer) HasSummary(ctx context.Context, accountID string, meetingID uuid.UUID) (bool, error) {
	row, err := r.summaries.FindSummary(ctx, accountID, meetingID)
	if err != nil {
		return false, fmt.Errorf("find summary: %w", err)
	}
	if row == nil || strings.TrimSpace(row.SummaryText) == "" {
		return false, nil
	}
	return !r.IsPlaceholder(row.SummaryText), nil
}

// IsPlaceholder reports whether text is a known pending-summary marker
func (r *Replacer) IsPlaceholder(text string) bool {
	_, ok := r.placeholders[normalizePlaceholder(text)]
	return ok
}

// normalizePlaceholder lowercases and drops trailing dots so "Processing..."
// matches "processing".
func normalizePlaceholder(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.TrimRight(s, ".…")
	return strings.TrimSpace(s)
}

func chunk[T any](items []T, size int) [][]T {
	if len(items) == 0 {
		return nil
	}
	if size <= 0 {
		size = len(items)
	}
	batches := make([][]T, 0, (len(items)+size-1)/size)
	for start := 0; start < len(items); start += size {
		end := start + size
		if end > len(items) {
			end = len(items)
		}
		batches = append(batches, items[start:end])
	}
	return batches
}
