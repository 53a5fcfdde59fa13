package notify

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/johnquangdev/meeting-sync/pkg/config"
	"github.com/johnquangdev/meeting-sync/pkg/signature"
)

type recordingTrigger struct {
	calls     int32
	meetingID uuid.UUID
	accountID string
	err       error
}

func (r *recordingTrigger) TriggerAnalysis(_ context.Context, meetingID uuid.UUID, accountID string) error {
	atomic.AddInt32(&r.calls, 1)
	r.meetingID = meetingID
	r.accountID = accountID
	return r.err
}

func webhookServer(t *testing.T, status int, got *TranscriptReadyEvent) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		assert.True(t, signature.VerifyHMAC("hook-secret", body, r.Header.Get(signature.Header)))
		if got != nil {
			require.NoError(t, json.Unmarshal(body, got))
		}
		w.WriteHeader(status)
	}))
	t.Cleanup(server.Close)
	return server
}

func TestNotifyWebhookDelivered(t *testing.T) {
	var event TranscriptReadyEvent
	server := webhookServer(t, http.StatusOK, &event)
	trigger := &recordingTrigger{}

	n := NewNotifier(&config.NotifyConfig{WebhookURL: server.URL, WebhookSecret: "hook-secret", Timeout: time.Second}, trigger)
	n.now = func() time.Time { return time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC) }

	meetingID := uuid.New()
	res := n.NotifyTranscriptReady(context.Background(), meetingID, "d-1", "a-1")

	assert.Equal(t, OutcomeWebhookDelivered, res.Outcome)
	assert.Equal(t, http.StatusOK, res.WebhookStatus)
	assert.Equal(t, []State{StateIdle, StateWebhookAttempted, StateDelivered}, res.Transitions)
	assert.Zero(t, atomic.LoadInt32(&trigger.calls))

	assert.Equal(t, meetingID.String(), event.MeetingID)
	assert.Equal(t, "d-1", event.DealID)
	assert.Equal(t, "a-1", event.AccountID)
	assert.Equal(t, EventTranscriptCreated, event.EventType)
	assert.Equal(t, "2024-03-01T12:00:00Z", event.Timestamp)
}

func TestNotifyFallsBackOnWebhookFailure(t *testing.T) {
	server := webhookServer(t, http.StatusInternalServerError, nil)
	trigger := &recordingTrigger{}

	n := NewNotifier(&config.NotifyConfig{WebhookURL: server.URL, WebhookSecret: "hook-secret", Timeout: time.Second}, trigger)

	meetingID := uuid.New()
	res := n.NotifyTranscriptReady(context.Background(), meetingID, "d-1", "a-1")

	assert.Equal(t, OutcomeFallbackDelivered, res.Outcome)
	assert.Equal(t, http.StatusInternalServerError, res.WebhookStatus)
	assert.Contains(t, res.WebhookError, "500")
	assert.Equal(t, []State{StateIdle, StateWebhookAttempted, StateWebhookFailed, StateFallbackAttempted, StateDelivered}, res.Transitions)
	assert.EqualValues(t, 1, atomic.LoadInt32(&trigger.calls))
	assert.Equal(t, meetingID, trigger.meetingID)
	assert.Equal(t, "a-1", trigger.accountID)
}

func TestNotifyFallbackFailure(t *testing.T) {
	server := webhookServer(t, http.StatusBadGateway, nil)
	trigger := &recordingTrigger{err: errors.New("analysis unavailable")}

	n := NewNotifier(&config.NotifyConfig{WebhookURL: server.URL, WebhookSecret: "hook-secret"}, trigger)
	res := n.NotifyTranscriptReady(context.Background(), uuid.New(), "d-1", "a-1")

	assert.Equal(t, OutcomeFallbackFailed, res.Outcome)
	assert.Equal(t, "analysis unavailable", res.FallbackError)
	assert.Equal(t, StateFallbackFailed, res.Transitions[len(res.Transitions)-1])
}

func TestNotifyWithoutWebhookURLUsesFallback(t *testing.T) {
	trigger := &recordingTrigger{}
	n := NewNotifier(&config.NotifyConfig{}, trigger)

	res := n.NotifyTranscriptReady(context.Background(), uuid.New(), "d-1", "a-1")

	assert.Equal(t, OutcomeFallbackDelivered, res.Outcome)
	assert.Zero(t, res.WebhookStatus)
	assert.EqualValues(t, 1, atomic.LoadInt32(&trigger.calls))
}

func TestNotifyWithoutFallback(t *testing.T) {
	n := NewNotifier(&config.NotifyConfig{WebhookURL: "http://127.0.0.1:1/unreachable", Timeout: 200 * time.Millisecond}, nil)

	res := n.NotifyTranscriptReady(context.Background(), uuid.New(), "d-1", "a-1")

	assert.Equal(t, OutcomeFallbackFailed, res.Outcome)
	assert.NotEmpty(t, res.WebhookError)
}

func TestHTTPTrigger(t *testing.T) {
	var got triggerRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		assert.True(t, signature.VerifyHMAC("s", body, r.Header.Get(signature.Header)))
		_ = json.Unmarshal(body, &got)
		if got.AccountID == "bad" {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	trigger := NewHTTPTrigger(server.URL, "s")
	meetingID := uuid.New()

	require.NoError(t, trigger.TriggerAnalysis(context.Background(), meetingID, "a-1"))
	assert.Equal(t, meetingID.String(), got.MeetingID)
	assert.Equal(t, "a-1", got.AccountID)

	err := trigger.TriggerAnalysis(context.Background(), meetingID, "bad")
	assert.ErrorContains(t, err, "503")
}
