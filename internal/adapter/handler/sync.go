package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/johnquangdev/meeting-sync/errors"
	"github.com/johnquangdev/meeting-sync/internal/adapter/dto/meeting"
	"github.com/johnquangdev/meeting-sync/internal/adapter/presenter"
	"github.com/johnquangdev/meeting-sync/internal/usecase/ingest"
	"github.com/johnquangdev/meeting-sync/pkg/jobcontext"
)

// Sync runs the ingestion pipeline on demand
type Sync struct {
	svc    ingest.Service
	logger *zap.Logger
}

// NewSyncHandler creates a new sync handler
func NewSyncHandler(svc ingest.Service, logger *zap.Logger) *Sync {
	return &Sync{svc: svc, logger: logger}
}

// Sync ingests one upstream meeting and returns the run report
func (h *Sync) Sync(c echo.Context) error {
	var req meeting.SyncRequest
	if err := c.Bind(&req); err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidPayload())
	}
	if err := c.Validate(&req); err != nil {
		return HandleError(h.logger, c, err)
	}

	ctx := jobcontext.WithTrigger(c.Request().Context(), jobcontext.TriggerManual)
	report, err := h.svc.Sync(ctx, req.AccountID, req.ExternalID)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	return HandleSuccess(h.logger, c, http.StatusOK, presenter.ToSyncReportResponse(report))
}
