package jobcontext

import (
	"context"
	stdErrors "errors"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

type KeyContext string

var (
	keyRunID        KeyContext = "run_id"
	keyAccountID    KeyContext = "account_id"
	keyExternalID   KeyContext = "external_id"
	keyTrigger      KeyContext = "trigger"
	keyRunStartTime KeyContext = "run_start_time"
)

// DefaultRunTimeout bounds a run when the caller passes a non-positive timeout
const DefaultRunTimeout = 2 * time.Minute

// Triggers recorded on a run
const (
	TriggerManual  = "manual"
	TriggerWebhook = "webhook"
	TriggerCLI     = "cli"
)

// RunMetadata holds metadata for one ingestion run
type RunMetadata struct {
	RunID      uuid.UUID
	AccountID  string
	ExternalID string
	Trigger    string
	StartTime  time.Time
}

// RunBegin derives a bounded context for one ingestion run and stamps it
// with the run metadata. The trigger already on parentCtx is kept.
func RunBegin(parentCtx context.Context, accountID, externalID string, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		timeout = DefaultRunTimeout
	}
	ctx, cancel := context.WithTimeout(parentCtx, timeout)

	ctx = context.WithValue(ctx, keyRunID, uuid.New())
	ctx = context.WithValue(ctx, keyAccountID, accountID)
	ctx = context.WithValue(ctx, keyExternalID, externalID)
	ctx = context.WithValue(ctx, keyRunStartTime, time.Now())

	return ctx, cancel
}

// WithTrigger records what started the run
func WithTrigger(ctx context.Context, trigger string) context.Context {
	return context.WithValue(ctx, keyTrigger, trigger)
}

// GetRunID extracts run ID from context
func GetRunID(ctx context.Context) (uuid.UUID, bool) {
	runID, ok := ctx.Value(keyRunID).(uuid.UUID)
	return runID, ok
}

// GetTrigger extracts the trigger from context, defaulting to manual
func GetTrigger(ctx context.Context) string {
	trigger, ok := ctx.Value(keyTrigger).(string)
	if !ok || trigger == "" {
		return TriggerManual
	}
	return trigger
}

// GetRunStartTime extracts run start time from context
func GetRunStartTime(ctx context.Context) (time.Time, bool) {
	startTime, ok := ctx.Value(keyRunStartTime).(time.Time)
	return startTime, ok
}

// GetRunMetadata extracts all run metadata from context
func GetRunMetadata(ctx context.Context) *RunMetadata {
	runID, _ := GetRunID(ctx)
	startTime, _ := GetRunStartTime(ctx)
	accountID, _ := ctx.Value(keyAccountID).(string)
	externalID, _ := ctx.Value(keyExternalID).(string)

	return &RunMetadata{
		RunID:      runID,
		AccountID:  accountID,
		ExternalID: externalID,
		Trigger:    GetTrigger(ctx),
		StartTime:  startTime,
	}
}

// HTTPStatusError is an error carrying the status of a failed HTTP response
type HTTPStatusError interface {
	error
	HTTPStatus() int
}

// IsRetryableError checks if an error should trigger a retry
// Retryable errors include: network errors, timeouts, rate limits, 5xx
func IsRetryableError(err error) bool {
	if err == nil {
		return false
	}

	// A cancelled parent is final; a per-attempt deadline is not.
	if stdErrors.Is(err, context.Canceled) {
		return false
	}
	if stdErrors.Is(err, context.DeadlineExceeded) {
		return true
	}

	// A status error is classified by its code alone
	var statusErr HTTPStatusError
	if stdErrors.As(err, &statusErr) {
		code := statusErr.HTTPStatus()
		return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
	}

	if stdErrors.Is(err, io.EOF) || stdErrors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}

	var netErr net.Error
	if stdErrors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	errStr := strings.ToLower(err.Error())

	// Network errors
	if strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "connection reset") ||
		strings.Contains(errStr, "network unreachable") ||
		strings.Contains(errStr, "no such host") ||
		strings.Contains(errStr, "i/o timeout") ||
		strings.Contains(errStr, "unexpected eof") {
		return true
	}

	// Database deadlock/lock errors (Postgres)
	if strings.Contains(errStr, "deadlock") ||
		strings.Contains(errStr, "40001") || // serialization_failure
		strings.Contains(errStr, "40p01") { // deadlock_detected
		return true
	}

	// API rate limiting
	if strings.Contains(errStr, "rate limit") ||
		strings.Contains(errStr, "too many requests") ||
		strings.Contains(errStr, "status 429") {
		return true
	}

	// Server errors (5xx)
	if strings.Contains(errStr, "status 5") ||
		strings.Contains(errStr, "internal server error") ||
		strings.Contains(errStr, "service unavailable") ||
		strings.Contains(errStr, "bad gateway") {
		return true
	}

	// Temporary failures
	if strings.Contains(errStr, "temporary failure") ||
		strings.Contains(errStr, "try again") {
		return true
	}

	return false
}
