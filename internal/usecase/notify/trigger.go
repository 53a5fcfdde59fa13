package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"

	"github.com/johnquangdev/meeting-sync/pkg/signature"
)

// HTTPTrigger starts analysis by calling the analysis trigger endpoint of
// another deployment.
type HTTPTrigger struct {
	client *http.Client
	url    string
	secret string
}

// NewHTTPTrigger creates a trigger posting to url
func NewHTTPTrigger(url, secret string) *HTTPTrigger {
	return &HTTPTrigger{client: &http.Client{}, url: url, secret: secret}
}

type triggerRequest struct {
	MeetingID string `json:"meetingId"`
	AccountID string `json:"accountId"`
}

// TriggerAnalysis posts {meetingId, accountId}; any non-2xx is an error
func (t *HTTPTrigger) TriggerAnalysis(ctx context.Context, meetingID uuid.UUID, accountID string) error {
	body, err := json.Marshal(triggerRequest{MeetingID: meetingID.String(), AccountID: accountID})
	if err != nil {
		return fmt.Errorf("encode trigger: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build trigger request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if t.secret != "" {
		req.Header.Set(signature.Header, signature.Sign(t.secret, body))
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("post trigger: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("analysis trigger returned status %d", resp.StatusCode)
	}
	return nil
}
