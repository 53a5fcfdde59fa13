package handler

import (
	"context"
	stdErrors "errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/johnquangdev/meeting-sync/errors"
	"github.com/johnquangdev/meeting-sync/internal/adapter/dto/common"
	"github.com/johnquangdev/meeting-sync/internal/domain/entities"
	"github.com/johnquangdev/meeting-sync/internal/usecase/ingest"
	"github.com/johnquangdev/meeting-sync/pkg/validator"
)

// getRequestID tries to read X-Request-ID from the request
func getRequestID(c echo.Context) string {
	if c == nil || c.Request() == nil {
		return ""
	}
	if id := c.Request().Header.Get(echo.HeaderXRequestID); id != "" {
		return id
	}
	return c.Response().Header().Get(echo.HeaderXRequestID)
}

// HandleSuccess writes data as the response body using provided logger
func HandleSuccess(logger *zap.Logger, c echo.Context, status int, data interface{}) error {
	if logger != nil {
		logger.Info("http.response.success",
			zap.String("request_id", getRequestID(c)),
			zap.String("path", c.Path()),
			zap.Int("status", status),
		)
	}

	return c.JSON(status, data)
}

// HandleError centralizes error handling and logging using provided logger.
// Domain and pipeline errors are mapped to an AppError first.
func HandleError(logger *zap.Logger, c echo.Context, err error) error {
	appErr := toAppError(err)

	if logger != nil {
		fields := []zap.Field{
			zap.String("request_id", getRequestID(c)),
			zap.String("path", c.Path()),
			zap.String("app_code", appErr.Code.String()),
			zap.Int("status", appErr.HTTPCode),
			zap.Error(err),
		}
		if appErr.HTTPCode >= http.StatusInternalServerError {
			logger.Error("http.response.error", fields...)
		} else {
			logger.Warn("http.response.error", fields...)
		}
	}

	body := common.ErrorResponse{
		Error: appErr.Message,
		Code:  appErr.Code.String(),
	}
	if len(appErr.Details) > 0 || appErr.Raw != nil {
		body.Details = make(map[string]interface{}, len(appErr.Details)+1)
		for k, v := range appErr.Details {
			body.Details[k] = v
		}
		if appErr.Raw != nil {
			body.Details["cause"] = appErr.Raw.Error()
		}
	}

	return c.JSON(appErr.HTTPCode, body)
}

// toAppError maps usecase errors onto the API error catalogue
func toAppError(err error) errors.AppError {
	var appErr errors.AppError
	if stdErrors.As(err, &appErr) {
		return appErr
	}

	if details := validator.Details(err); details != nil {
		out := errors.ErrInvalidArgument("Request validation failed")
		for field, rule := range details {
			out = out.WithDetail(field, rule)
		}
		return out
	}

	var pe *ingest.PipelineError
	if stdErrors.As(err, &pe) {
		return pipelineAppError(pe).WithDetail("step", string(pe.Step))
	}

	switch {
	case stdErrors.Is(err, entities.ErrInvalidRequest):
		return errors.ErrInvalidArgument(err.Error())
	case stdErrors.Is(err, entities.ErrMeetingNotFound):
		return errors.ErrNotFound("Meeting")
	case stdErrors.Is(err, entities.ErrAnalysisJobNotFound):
		return errors.ErrNotFound("Analysis job")
	case stdErrors.Is(err, entities.ErrAnalysisJobFinished):
		return errors.ErrJobAlreadyFinished("")
	}

	return errors.ErrInternal(err)
}

func pipelineAppError(pe *ingest.PipelineError) errors.AppError {
	switch {
	case stdErrors.Is(pe, ingest.ErrInvalidRef):
		return errors.ErrInvalidArgument("accountId and externalId are required")
	case stdErrors.Is(pe, ingest.ErrMeetingNotReady):
		return errors.ErrMeetingNotReady(pe.ExternalID)
	case stdErrors.Is(pe, ingest.ErrMetadataUnavailable):
		return errors.ErrUpstreamUnavailable(pe.Err).WithDetail("external_id", pe.ExternalID)
	case stdErrors.Is(pe, ingest.ErrNoLinkableDeal):
		return errors.ErrNoLinkableDeal(pe.AccountID)
	case stdErrors.Is(pe, ingest.ErrCrossAccountDeal):
		return errors.ErrCrossAccountDeal(pe.AccountID)
	case stdErrors.Is(pe, ingest.ErrReconcileInconsistent):
		return errors.ErrReconcileInconsistent(pe.Err)
	case stdErrors.Is(pe, context.DeadlineExceeded):
		return errors.ErrUpstreamUnavailable(pe.Err).WithDetail("external_id", pe.ExternalID)
	}
	return errors.ErrProcessingFailed(pe.Err)
}
