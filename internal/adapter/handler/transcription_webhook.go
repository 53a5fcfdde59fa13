package handler

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/johnquangdev/meeting-sync/errors"
	"github.com/johnquangdev/meeting-sync/internal/adapter/dto/meeting"
	"github.com/johnquangdev/meeting-sync/internal/adapter/presenter"
	"github.com/johnquangdev/meeting-sync/internal/usecase/ingest"
	"github.com/johnquangdev/meeting-sync/pkg/jobcontext"
	"github.com/johnquangdev/meeting-sync/pkg/signature"
)

// completionEvents start an ingestion run; anything else is acknowledged
var completionEvents = map[string]bool{
	"transcription completed": true,
	"transcript.completed":    true,
	"meeting.completed":       true,
}

// TranscriptionWebhook receives meeting events from the transcription service
type TranscriptionWebhook struct {
	svc    ingest.Service
	secret string
	logger *zap.Logger
}

// NewTranscriptionWebhookHandler creates a new handler. An empty secret
// disables signature verification.
func NewTranscriptionWebhookHandler(svc ingest.Service, secret string, logger *zap.Logger) *TranscriptionWebhook {
	return &TranscriptionWebhook{svc: svc, secret: secret, logger: logger}
}

// Handle verifies the event and syncs the meeting it refers to
func (h *TranscriptionWebhook) Handle(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidPayload())
	}

	if h.secret != "" && !signature.VerifyHMAC(h.secret, body, c.Request().Header.Get(signature.Header)) {
		return HandleError(h.logger, c, errors.ErrInvalidSignature())
	}

	var req meeting.TranscriptionWebhookRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidPayload())
	}
	if err := c.Validate(&req); err != nil {
		return HandleError(h.logger, c, err)
	}

	if !completionEvents[strings.ToLower(strings.TrimSpace(req.EventType))] {
		if h.logger != nil {
			h.logger.Info("transcription webhook ignored",
				zap.String("event_type", req.EventType),
				zap.String("meeting_id", req.MeetingID),
			)
		}
		return HandleSuccess(h.logger, c, http.StatusOK, meeting.WebhookAckResponse{Status: "ignored", Event: req.EventType})
	}

	if strings.TrimSpace(req.ClientReferenceID) == "" {
		return HandleError(h.logger, c, errors.ErrInvalidArgument("client_reference_id is required"))
	}

	ctx := jobcontext.WithTrigger(c.Request().Context(), jobcontext.TriggerWebhook)
	report, err := h.svc.Sync(ctx, req.ClientReferenceID, req.MeetingID)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	return HandleSuccess(h.logger, c, http.StatusOK, meeting.WebhookAckResponse{
		Status: "processed",
		Event:  req.EventType,
		Report: presenter.ToSyncReportResponse(report),
	})
}
