package transcription

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/johnquangdev/meeting-sync/pkg/config"
)

func newTestClient(url string) *Client {
	c := NewClient(&config.UpstreamConfig{
		BaseURL:        url,
		APIKey:         "test-key",
		RequestTimeout: time.Second,
		RetryWindow:    2 * time.Second,
	})
	c.initialBackoff = 5 * time.Millisecond
	return c
}

func TestGetMeetingSendsBearerToken(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/meetings/m-1", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		w.Write([]byte(`{"id":"m-1"}`))
	}))
	defer ts.Close()

	body, err := newTestClient(ts.URL).GetMeeting(context.Background(), "m-1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"m-1"}`, string(body))
}

func TestNotFoundIsNotReadyAndNotRetried(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer ts.Close()

	_, err := newTestClient(ts.URL).GetTranscript(context.Background(), "m-1")
	assert.ErrorIs(t, err, ErrNotReady)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestServerErrorIsRetried(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"summary":"ok"}`))
	}))
	defer ts.Close()

	body, err := newTestClient(ts.URL).GetSummary(context.Background(), "m-1")
	require.NoError(t, err)
	assert.Contains(t, string(body), "ok")
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestClientErrorIsPermanent(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`bad key`))
	}))
	defer ts.Close()

	_, err := newTestClient(ts.URL).GetHighlights(context.Background(), "m-1")

	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusUnauthorized, se.StatusCode)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestForbiddenIsPermanentWhateverTheExternalID(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusForbidden)
	}))
	defer ts.Close()

	_, err := newTestClient(ts.URL).GetMeeting(context.Background(), "geoffrey")

	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusForbidden, se.StatusCode)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestRequestTimeoutBoundsSlowUpstream(t *testing.T) {
	release := make(chan struct{})
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer ts.Close()
	defer close(release)

	c := NewClient(&config.UpstreamConfig{BaseURL: ts.URL, RequestTimeout: 50 * time.Millisecond})

	start := time.Now()
	_, err := c.GetMeeting(context.Background(), "m-1")
	require.Error(t, err)
	assert.Less(t, time.Since(start), time.Second)
}
