package ingest

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/johnquangdev/meeting-sync/internal/domain/entities"
	"github.com/johnquangdev/meeting-sync/internal/testsupport"
)

var testPlaceholders = []string{"processing", "no summary available", "summary not available", "pending"}

func seededMeeting(t *testing.T, store *testsupport.Store, accountID string) uuid.UUID {
	t.Helper()
	m := entities.NewMeeting(accountID, "m-"+uuid.NewString()[:8], nil, kickoff())
	store.AddMeeting(*m)
	return m.ID
}

func segmentsOf(texts ...string) []entities.TranscriptSegment {
	out := make([]entities.TranscriptSegment, len(texts))
	for i, text := range texts {
		out[i] = entities.TranscriptSegment{SpeakerLabel: "S", Text: text, TimestampSeconds: float64(i)}
	}
	return out
}

func numbered(prefix string, n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("%s-%d", prefix, i)
	}
	return out
}

func TestReplaceTranscriptReplacesWholeSet(t *testing.T) {
	store := testsupport.NewStore()
	meetingID := seededMeeting(t, store, "a-1")
	replacer := NewReplacer(store.Artifacts(), store.Summaries(), 2, testPlaceholders)

	res, err := replacer.ReplaceTranscript(context.Background(), "a-1", meetingID, segmentsOf(numbered("old", 5)...))
	require.NoError(t, err)
	assert.Equal(t, 5, res.Stored)
	assert.Zero(t, res.Deleted)

	res, err = replacer.ReplaceTranscript(context.Background(), "a-1", meetingID, segmentsOf(numbered("new", 3)...))
	require.NoError(t, err)
	assert.Equal(t, 3, res.Stored)
	assert.EqualValues(t, 5, res.Deleted)

	stored := store.Segments("a-1", meetingID)
	require.Len(t, stored, 3)
	for i, seg := range stored {
		assert.Equal(t, fmt.Sprintf("new-%d", i), seg.Text)
		assert.Equal(t, i, seg.SequenceNumber)
		assert.Equal(t, meetingID, seg.MeetingID)
		assert.Equal(t, "a-1", seg.AccountID)
	}
}

func TestReplaceTranscriptKeepsStoredSetOnEmptyInput(t *testing.T) {
	store := testsupport.NewStore()
	meetingID := seededMeeting(t, store, "a-1")
	replacer := NewReplacer(store.Artifacts(), store.Summaries(), 100, testPlaceholders)

	_, err := replacer.ReplaceTranscript(context.Background(), "a-1", meetingID, segmentsOf("a", "b"))
	require.NoError(t, err)

	res, err := replacer.ReplaceTranscript(context.Background(), "a-1", meetingID, nil)
	require.NoError(t, err)
	assert.True(t, res.Skipped)
	assert.Zero(t, res.Stored)
	assert.Len(t, store.Segments("a-1", meetingID), 2)

	res, err = replacer.ReplaceHighlights(context.Background(), "a-1", meetingID, nil)
	require.NoError(t, err)
	assert.True(t, res.Skipped)
}

func TestReplaceTranscriptSkipsFailedBatch(t *testing.T) {
	store := testsupport.NewStore()
	meetingID := seededMeeting(t, store, "a-1")
	store.FailTranscriptBatch = func(index int) error {
		if index == 1 {
			return testsupport.ErrInjected
		}
		return nil
	}
	replacer := NewReplacer(store.Artifacts(), store.Summaries(), 2, testPlaceholders)

	res, err := replacer.ReplaceTranscript(context.Background(), "a-1", meetingID, segmentsOf(numbered("seg", 5)...))
	require.NoError(t, err)

	assert.Equal(t, 5, res.Incoming)
	assert.Equal(t, 3, res.Stored)
	require.Len(t, res.Failed, 1)
	assert.Equal(t, 1, res.Failed[0].Index)
	assert.Equal(t, 2, res.Failed[0].Size)
	assert.ErrorIs(t, res.Failed[0].Err, testsupport.ErrInjected)

	stored := store.Segments("a-1", meetingID)
	require.Len(t, stored, 3)
	assert.Equal(t, []int{0, 1, 4}, []int{stored[0].SequenceNumber, stored[1].SequenceNumber, stored[2].SequenceNumber})
}

func TestReplaceTranscriptUnknownMeeting(t *testing.T) {
	store := testsupport.NewStore()
	meetingID := seededMeeting(t, store, "a-1")
	replacer := NewReplacer(store.Artifacts(), store.Summaries(), 10, testPlaceholders)

	_, err := replacer.ReplaceTranscript(context.Background(), "a-2", meetingID, segmentsOf("x"))
	assert.ErrorIs(t, err, entities.ErrMeetingNotFound)
}

func TestReplaceHighlights(t *testing.T) {
	store := testsupport.NewStore()
	meetingID := seededMeeting(t, store, "a-1")
	replacer := NewReplacer(store.Artifacts(), store.Summaries(), 0, testPlaceholders)

	_, err := replacer.ReplaceHighlights(context.Background(), "a-1", meetingID, []string{"a", "b", "c"})
	require.NoError(t, err)
	res, err := replacer.ReplaceHighlights(context.Background(), "a-1", meetingID, []string{"z"})
	require.NoError(t, err)

	assert.EqualValues(t, 3, res.Deleted)
	stored := store.Highlights("a-1", meetingID)
	require.Len(t, stored, 1)
	assert.Equal(t, "z", stored[0].Text)
	assert.Equal(t, 0, stored[0].Position)
}

func TestStoreSummary(t *testing.T) {
	store := testsupport.NewStore()
	meetingID := seededMeeting(t, store, "a-1")
	replacer := NewReplacer(store.Artifacts(), store.Summaries(), 10, testPlaceholders)
	ctx := context.Background()

	outcome, err := replacer.StoreSummary(ctx, "a-1", meetingID, "We agreed on the budget.")
	require.NoError(t, err)
	assert.Equal(t, SummaryStored, outcome)

	outcome, err = replacer.StoreSummary(ctx, "a-1", meetingID, "Processing...")
	require.NoError(t, err)
	assert.Equal(t, SummaryPlaceholder, outcome)

	outcome, err = replacer.StoreSummary(ctx, "a-1", meetingID, "   ")
	require.NoError(t, err)
	assert.Equal(t, SummaryEmpty, outcome)

	meeting, _ := store.Meeting(meetingID)
	require.NotNil(t, meeting.Summary)
	assert.Equal(t, "We agreed on the budget.", *meeting.Summary)
	require.NotNil(t, meeting.Notes)
	assert.Equal(t, "Processing...", *meeting.Notes)

	row, err := store.Summaries().FindSummary(ctx, "a-1", meetingID)
	require.NoError(t, err)
	require.NotNil(t, row)
	assert.Equal(t, "We agreed on the budget.", row.SummaryText)
}

func TestIsPlaceholder(t *testing.T) {
	replacer := NewReplacer(nil, nil, 1, testPlaceholders)

	for _, text := range []string{"processing", "Processing...", " PENDING ", "No summary available."} {
		assert.True(t, replacer.IsPlaceholder(text), text)
	}
	for _, text := range []string{"", "Processing of invoices was discussed", "summary"} {
		assert.False(t, replacer.IsPlaceholder(text), text)
	}
}

func TestChunk(t *testing.T) {
	assert.Nil(t, chunk([]int{}, 3))
	assert.Equal(t, [][]int{{1, 2}, {3, 4}, {5}}, chunk([]int{1, 2, 3, 4, 5}, 2))
	assert.Equal(t, [][]int{{1, 2, 3}}, chunk([]int{1, 2, 3}, 0))
}
