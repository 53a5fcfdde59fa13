package handler

import (
	"encoding/json"
	stdErrors "errors"
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/johnquangdev/meeting-sync/errors"
	"github.com/johnquangdev/meeting-sync/internal/adapter/dto/analysis"
	"github.com/johnquangdev/meeting-sync/internal/adapter/presenter"
	"github.com/johnquangdev/meeting-sync/internal/domain/entities"
	analysisuc "github.com/johnquangdev/meeting-sync/internal/usecase/analysis"
	"github.com/johnquangdev/meeting-sync/pkg/signature"
)

// Analysis exposes the internal analysis endpoints used by the notifier
// fallback and the analysis workers
type Analysis struct {
	svc    analysisuc.Service
	secret string
	logger *zap.Logger
}

// NewAnalysisHandler creates a new analysis handler. When secret is set the
// trigger endpoint only accepts bodies signed with it.
func NewAnalysisHandler(svc analysisuc.Service, secret string, logger *zap.Logger) *Analysis {
	return &Analysis{svc: svc, secret: secret, logger: logger}
}

// Trigger queues analysis for a stored meeting
func (h *Analysis) Trigger(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidPayload())
	}

	if h.secret != "" && !signature.VerifyHMAC(h.secret, body, c.Request().Header.Get(signature.Header)) {
		return HandleError(h.logger, c, errors.ErrInvalidSignature())
	}

	var req analysis.TriggerRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidPayload())
	}
	if err := c.Validate(&req); err != nil {
		return HandleError(h.logger, c, err)
	}

	meetingID, err := uuid.Parse(req.MeetingID)
	if err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidArgument("meetingId must be a uuid"))
	}

	if err := h.svc.TriggerAnalysis(c.Request().Context(), meetingID, req.AccountID); err != nil {
		if stdErrors.Is(err, entities.ErrMeetingNotFound) || stdErrors.Is(err, entities.ErrInvalidRequest) {
			return HandleError(h.logger, c, err)
		}
		return HandleError(h.logger, c, errors.ErrAnalysisQueueFailed(err))
	}

	return HandleSuccess(h.logger, c, http.StatusAccepted, analysis.TriggerResponse{
		MeetingID: meetingID.String(),
		Status:    "queued",
	})
}

// CompleteJob records the outcome of an analysis job
func (h *Analysis) CompleteJob(c echo.Context) error {
	jobID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidArgument("job id must be a uuid"))
	}

	var req analysis.CompleteJobRequest
	if err := c.Bind(&req); err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidPayload())
	}
	if err := c.Validate(&req); err != nil {
		return HandleError(h.logger, c, err)
	}

	job, err := h.svc.CompleteJob(c.Request().Context(), req.AccountID, jobID, req.Succeeded, req.Error)
	if err != nil {
		if stdErrors.Is(err, entities.ErrAnalysisJobFinished) {
			return HandleError(h.logger, c, errors.ErrJobAlreadyFinished(jobID.String()))
		}
		return HandleError(h.logger, c, err)
	}

	return HandleSuccess(h.logger, c, http.StatusOK, presenter.ToJobResponse(job))
}

// ListJobs returns the analysis jobs of a meeting
func (h *Analysis) ListJobs(c echo.Context) error {
	meetingID, err := uuid.Parse(c.Param("meetingId"))
	if err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidArgument("meeting id must be a uuid"))
	}
	accountID := c.QueryParam("accountId")
	if accountID == "" {
		return HandleError(h.logger, c, errors.ErrInvalidArgument("accountId is required"))
	}

	jobs, err := h.svc.ListJobs(c.Request().Context(), accountID, meetingID)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	return HandleSuccess(h.logger, c, http.StatusOK, presenter.ToJobResponses(jobs))
}
