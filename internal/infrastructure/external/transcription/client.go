package transcription

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/oauth2"

	"github.com/johnquangdev/meeting-sync/pkg/config"
	"github.com/johnquangdev/meeting-sync/pkg/jobcontext"
)

// ErrNotReady is returned when the service answers 404 for a resource
// that has not been produced yet.
var ErrNotReady = errors.New("resource not ready")

// maxBodyBytes caps a single upstream response
const maxBodyBytes = 16 << 20

// StatusError is a non-2xx upstream response
type StatusError struct {
	StatusCode int
	Path       string
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("upstream %s returned status %d: %s", e.Path, e.StatusCode, e.Body)
}

// HTTPStatus reports the response status for retry classification
func (e *StatusError) HTTPStatus() int {
	return e.StatusCode
}

// Client talks to the transcription/bot service. Every request carries the
// API key as a bearer token, is bounded by the per-request timeout, and
// transient failures are retried within the retry window.
type Client struct {
	http           *http.Client
	baseURL        string
	requestTimeout time.Duration
	retryWindow    time.Duration
	initialBackoff time.Duration
}

// NewClient creates a transcription service client
func NewClient(cfg *config.UpstreamConfig) *Client {
	src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.APIKey, TokenType: "Bearer"})
	httpClient := oauth2.NewClient(context.Background(), src)

	return &Client{
		http:           httpClient,
		baseURL:        strings.TrimRight(cfg.BaseURL, "/"),
		requestTimeout: cfg.RequestTimeout,
		retryWindow:    cfg.RetryWindow,
		initialBackoff: 250 * time.Millisecond,
	}
}

// GetMeeting fetches meeting metadata
func (c *Client) GetMeeting(ctx context.Context, externalID string) ([]byte, error) {
	return c.get(ctx, "/meetings/"+url.PathEscape(externalID))
}

// GetTranscript fetches the transcript; ErrNotReady on 404
func (c *Client) GetTranscript(ctx context.Context, externalID string) ([]byte, error) {
	return c.get(ctx, "/meetings/"+url.PathEscape(externalID)+"/transcript")
}

// GetSummary fetches the summary; ErrNotReady on 404
func (c *Client) GetSummary(ctx context.Context, externalID string) ([]byte, error) {
	return c.get(ctx, "/meetings/"+url.PathEscape(externalID)+"/summary")
}

// GetHighlights fetches the highlights; ErrNotReady on 404
func (c *Client) GetHighlights(ctx context.Context, externalID string) ([]byte, error) {
	return c.get(ctx, "/meetings/"+url.PathEscape(externalID)+"/highlights")
}

func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	var body []byte

	fetchFn := func() error {
		b, err := c.getOnce(ctx, path)
		if err != nil {
			if errors.Is(err, ErrNotReady) || !jobcontext.IsRetryableError(err) || ctx.Err() != nil {
				return backoff.Permanent(err)
			}
			return err
		}
		body = b
		return nil
	}

	// Retry logic with exponential backoff
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = c.initialBackoff
	bo.MaxInterval = 2 * time.Second
	bo.MaxElapsedTime = c.retryWindow

	var policy backoff.BackOff = backoff.WithContext(bo, ctx)
	if c.retryWindow <= 0 {
		policy = backoff.WithContext(&backoff.StopBackOff{}, ctx)
	}

	if err := backoff.Retry(fetchFn, policy); err != nil {
		return nil, err
	}
	return body, nil
}

func (c *Client) getOnce(ctx context.Context, path string) ([]byte, error) {
	reqCtx := ctx
	if c.requestTimeout > 0 {
		var cancel context.CancelFunc
		reqCtx, cancel = context.WithTimeout(ctx, c.requestTimeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("build request %s: %w", path, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request %s: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%s: %w", path, ErrNotReady)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		snippet := string(body)
		if len(snippet) > 256 {
			snippet = snippet[:256]
		}
		return nil, &StatusError{StatusCode: resp.StatusCode, Path: path, Body: snippet}
	}
	return body, nil
}
