package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/johnquangdev/meeting-sync/pkg/config"
)

// Router holds all handlers
type Router struct {
	cfg             *config.Config
	syncHandler     *Sync
	webhookHandler  *TranscriptionWebhook
	analysisHandler *Analysis
	metricsHandler  http.Handler
}

// NewRouter creates a new router with all handlers. A nil metrics handler
// leaves /metrics unregistered.
func NewRouter(cfg *config.Config, syncHandler *Sync, webhookHandler *TranscriptionWebhook, analysisHandler *Analysis, metricsHandler http.Handler) *Router {
	return &Router{
		cfg:             cfg,
		syncHandler:     syncHandler,
		webhookHandler:  webhookHandler,
		analysisHandler: analysisHandler,
		metricsHandler:  metricsHandler,
	}
}

// Setup configures all application routes
func (rt *Router) Setup(e *echo.Echo) {
	e.GET("/health", rt.healthCheck)
	if rt.metricsHandler != nil {
		e.GET("/metrics", echo.WrapHandler(rt.metricsHandler))
	}

	e.POST("/sync", rt.syncHandler.Sync)

	v1 := e.Group("/v1")
	rt.setupWebhookRoutes(v1)
	rt.setupAnalysisRoutes(v1)
}

// setupWebhookRoutes configures inbound webhook routes
func (rt *Router) setupWebhookRoutes(g *echo.Group) {
	webhooks := g.Group("/webhooks")
	webhooks.POST("/transcription", rt.webhookHandler.Handle)
}

// setupAnalysisRoutes configures the internal analysis routes
func (rt *Router) setupAnalysisRoutes(g *echo.Group) {
	internal := g.Group("/internal/analysis")
	internal.POST("/trigger", rt.analysisHandler.Trigger)
	internal.POST("/jobs/:id/complete", rt.analysisHandler.CompleteJob)
	internal.GET("/meetings/:meetingId/jobs", rt.analysisHandler.ListJobs)
}

// healthCheck returns health status
func (rt *Router) healthCheck(c echo.Context) error {
	env := "development"
	if rt.cfg != nil {
		env = rt.cfg.Server.Environment
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":      "ok",
		"environment": env,
	})
}
