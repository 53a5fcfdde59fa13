package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/johnquangdev/meeting-sync/pkg/config"
	"github.com/johnquangdev/meeting-sync/pkg/signature"
)

// Outcome is how a transcript-ready notification ended
type Outcome string

const (
	OutcomeWebhookDelivered  Outcome = "webhook_delivered"
	OutcomeFallbackDelivered Outcome = "fallback_delivered"
	OutcomeFallbackFailed    Outcome = "fallback_failed"
)

// State is a step of the notification state machine
type State string

const (
	StateIdle              State = "idle"
	StateWebhookAttempted  State = "webhook_attempted"
	StateDelivered         State = "delivered"
	StateWebhookFailed     State = "webhook_failed"
	StateFallbackAttempted State = "fallback_attempted"
	StateFallbackFailed    State = "fallback_failed"
)

// EventTranscriptCreated is the event_type of the outbound webhook
const EventTranscriptCreated = "transcript_created"

const defaultTimeout = 10 * time.Second

// AnalysisTrigger starts downstream analysis directly. It is the fallback
// when the webhook cannot be delivered.
type AnalysisTrigger interface {
	TriggerAnalysis(ctx context.Context, meetingID uuid.UUID, accountID string) error
}

// Result records the path a notification took
type Result struct {
	Outcome       Outcome
	WebhookStatus int
	WebhookError  string
	FallbackError string
	Transitions   []State
}

func (r *Result) enter(s State) {
	r.Transitions = append(r.Transitions, s)
}

// TranscriptReadyEvent is the outbound webhook body
type TranscriptReadyEvent struct {
	MeetingID string `json:"meeting_id"`
	DealID    string `json:"deal_id"`
	AccountID string `json:"account_id"`
	EventType string `json:"event_type"`
	Timestamp string `json:"timestamp"`
}

// Notifier tells downstream consumers a meeting transcript is stored.
// It tries the webhook once and falls back to triggering analysis
// directly; it never returns an error.
type Notifier struct {
	client     *http.Client
	webhookURL string
	secret     string
	timeout    time.Duration
	fallback   AnalysisTrigger
	now        func() time.Time
}

// NewNotifier creates a notifier. fallback may be nil, in which case a
// failed webhook ends in OutcomeFallbackFailed.
func NewNotifier(cfg *config.NotifyConfig, fallback AnalysisTrigger) *Notifier {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Notifier{
		client:     &http.Client{},
		webhookURL: strings.TrimSpace(cfg.WebhookURL),
		secret:     cfg.WebhookSecret,
		timeout:    timeout,
		fallback:   fallback,
		now:        time.Now,
	}
}

// NotifyTranscriptReady runs the webhook-then-fallback sequence
func (n *Notifier) NotifyTranscriptReady(ctx context.Context, meetingID uuid.UUID, dealID, accountID string) Result {
	res := Result{}
	res.enter(StateIdle)

	res.enter(StateWebhookAttempted)
	status, err := n.postWebhook(ctx, meetingID, dealID, accountID)
	res.WebhookStatus = status
	if err == nil {
		res.enter(StateDelivered)
		res.Outcome = OutcomeWebhookDelivered
		return res
	}
	res.WebhookError = err.Error()
	res.enter(StateWebhookFailed)

	res.enter(StateFallbackAttempted)
	if n.fallback == nil {
		res.FallbackError = "no fallback configured"
		res.enter(StateFallbackFailed)
		res.Outcome = OutcomeFallbackFailed
		return res
	}

	fctx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()
	if err := n.fallback.TriggerAnalysis(fctx, meetingID, accountID); err != nil {
		res.FallbackError = err.Error()
		res.enter(StateFallbackFailed)
		res.Outcome = OutcomeFallbackFailed
		return res
	}

	res.enter(StateDelivered)
	res.Outcome = OutcomeFallbackDelivered
	return res
}

func (n *Notifier) postWebhook(ctx context.Context, meetingID uuid.UUID, dealID, accountID string) (int, error) {
	if n.webhookURL == "" {
		return 0, fmt.Errorf("webhook url not configured")
	}

	body, err := json.Marshal(TranscriptReadyEvent{
		MeetingID: meetingID.String(),
		DealID:    dealID,
		AccountID: accountID,
		EventType: EventTranscriptCreated,
		Timestamp: n.now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return 0, fmt.Errorf("encode event: %w", err)
	}

	reqCtx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, n.webhookURL, bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if n.secret != "" {
		req.Header.Set(signature.Header, signature.Sign(n.secret, body))
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("post webhook: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp.StatusCode, fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return resp.StatusCode, nil
}
