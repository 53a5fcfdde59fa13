package jobcontext

import (
	"context"
	"errors"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunBeginStampsMetadata(t *testing.T) {
	parent := WithTrigger(context.Background(), TriggerWebhook)

	ctx, cancel := RunBegin(parent, "a-1", "m-1", time.Second)
	defer cancel()

	meta := GetRunMetadata(ctx)
	assert.Equal(t, "a-1", meta.AccountID)
	assert.Equal(t, "m-1", meta.ExternalID)
	assert.Equal(t, TriggerWebhook, meta.Trigger)
	assert.NotEqual(t, uuid.Nil, meta.RunID)
	assert.False(t, meta.StartTime.IsZero())

	deadline, ok := ctx.Deadline()
	require.True(t, ok)
	assert.WithinDuration(t, time.Now().Add(time.Second), deadline, 200*time.Millisecond)
}

func TestRunBeginDefaultsTimeout(t *testing.T) {
	ctx, cancel := RunBegin(context.Background(), "a-1", "m-1", 0)
	defer cancel()

	deadline, ok := ctx.Deadline()
	require.True(t, ok)
	assert.WithinDuration(t, time.Now().Add(DefaultRunTimeout), deadline, time.Second)
	assert.Equal(t, TriggerManual, GetTrigger(ctx))
}

func TestIsRetryableError(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"server error", fmt.Errorf("upstream returned status 503"), true},
		{"rate limited", fmt.Errorf("upstream returned status 429"), true},
		{"not found", fmt.Errorf("upstream returned status 404"), false},
		{"deadline", fmt.Errorf("get meeting: %w", context.DeadlineExceeded), true},
		{"cancelled", fmt.Errorf("get meeting: %w", context.Canceled), false},
		{"connection refused", errors.New("dial tcp 127.0.0.1:1: connect: connection refused"), true},
		{"decode", errors.New("invalid character '<' looking for beginning of value"), false},
		{"truncated body", fmt.Errorf("read body: %w", io.ErrUnexpectedEOF), true},
		{"unauthorized status", statusError{code: 401, path: "/meetings/geoffrey"}, false},
		{"forbidden status", fmt.Errorf("get: %w", statusError{code: 403, path: "/meetings/eof-sync"}), false},
		{"bad gateway status", statusError{code: 502, path: "/meetings/m-1"}, true},
		{"rate limited status", statusError{code: 429, path: "/meetings/m-1"}, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, IsRetryableError(tc.err))
		})
	}
}

type statusError struct {
	code int
	path string
}

func (e statusError) Error() string {
	return fmt.Sprintf("upstream %s returned status %d", e.path, e.code)
}

func (e statusError) HTTPStatus() int { return e.code }
