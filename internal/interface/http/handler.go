package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/disha/internal/domain/aid"
	"github.com/yanqian/disha/internal/domain/alerts"
	"github.com/yanqian/disha/internal/domain/directory"
	"github.com/yanqian/disha/internal/domain/geo"
	"github.com/yanqian/disha/internal/domain/nationwide"
	"github.com/yanqian/disha/internal/domain/prediction"
	"github.com/yanqian/disha/internal/domain/report"
	"github.com/yanqian/disha/internal/domain/session"
	"github.com/yanqian/disha/internal/domain/submission"
	"github.com/yanqian/disha/internal/infra/config"
	apperrors "github.com/yanqian/disha/pkg/errors"
)

// Handler wires the HTTP transport to domain services.
type Handler struct {
	alertsSvc     alerts.Service
	nationwideSvc nationwide.Service
	geoSvc        geo.Service
	predictionSvc prediction.Service
	sessionSvc    session.Service
	aidSvc        aid.Service
	reportSvc     report.Service
	submissionSvc submission.Service
	directory     directory.Directory
	uploads       config.ReportConfig
	logger        *slog.Logger
}

// NewHandler constructs the root HTTP handler.
func NewHandler(
	cfg *config.Config,
	alertsSvc alerts.Service,
	nationwideSvc nationwide.Service,
	geoSvc geo.Service,
	predictionSvc prediction.Service,
	sessionSvc session.Service,
	aidSvc aid.Service,
	reportSvc report.Service,
	submissionSvc submission.Service,
	dir directory.Directory,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		alertsSvc:     alertsSvc,
		nationwideSvc: nationwideSvc,
		geoSvc:        geoSvc,
		predictionSvc: predictionSvc,
		sessionSvc:    sessionSvc,
		aidSvc:        aidSvc,
		reportSvc:     reportSvc,
		submissionSvc: submissionSvc,
		directory:     dir,
		uploads:       cfg.Report,
		logger:        logger.With("component", "http.handler"),
	}
}

// Classify evaluates posted readings against the alert rules.
func (h *Handler) Classify(c *gin.Context) {
	var readings alerts.Readings
	if err := c.ShouldBindJSON(&readings); err != nil {
		badRequest(c, err)
		return
	}
	c.JSON(http.StatusOK, h.alertsSvc.Classify(c.Request.Context(), readings))
}

// LocalConditions returns the weather snapshot and alerts around a point.
func (h *Handler) LocalConditions(c *gin.Context) {
	var req alerts.LocalRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		badRequest(c, err)
		return
	}
	req.SessionID = sessionID(c)

	resp, err := h.alertsSvc.Local(c.Request.Context(), req)
	if err != nil {
		abortWithError(c, fromAppError(err))
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Handoff returns the last location and weather the caller fetched.
func (h *Handler) Handoff(c *gin.Context) {
	handoff, ok, err := h.alertsSvc.LastHandoff(c.Request.Context(), sessionID(c))
	if err != nil {
		abortWithError(c, fromAppError(err))
		return
	}
	if !ok {
		c.Status(http.StatusNoContent)
		return
	}
	c.JSON(http.StatusOK, handoff)
}

// Nationwide serves the cached nationwide summary.
func (h *Handler) Nationwide(c *gin.Context) {
	c.JSON(http.StatusOK, h.nationwideSvc.Current(c.Request.Context()))
}

// RefreshNationwide forces a summary regeneration.
func (h *Handler) RefreshNationwide(c *gin.Context) {
	items, ran := h.nationwideSvc.Refresh(c.Request.Context())
	if !ran {
		abortWithError(c, NewHTTPError(http.StatusConflict, apperrors.CodeRefreshInProgress, "a refresh is already running", nil))
		return
	}
	if items == nil {
		abortWithError(c, NewHTTPError(http.StatusBadGateway, apperrors.CodeLLM, "no fresh nationwide data was produced", nil))
		return
	}
	c.JSON(http.StatusAccepted, h.nationwideSvc.Current(c.Request.Context()))
}

// Autocomplete suggests places for a partial query.
func (h *Handler) Autocomplete(c *gin.Context) {
	var req geo.AutocompleteRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		badRequest(c, err)
		return
	}
	req.ClientID = autocompleteClient(c)

	resp, err := h.geoSvc.Autocomplete(c.Request.Context(), req)
	if err != nil {
		abortWithError(c, fromAppError(err))
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ReverseGeocode returns a readable address for a point.
func (h *Handler) ReverseGeocode(c *gin.Context) {
	var req geo.ReverseRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		badRequest(c, err)
		return
	}
	resp, err := h.geoSvc.Reverse(c.Request.Context(), req)
	if err != nil {
		abortWithError(c, fromAppError(err))
		return
	}
	c.JSON(http.StatusOK, resp)
}

// SafeRoute returns a directions link between a start and a destination.
func (h *Handler) SafeRoute(c *gin.Context) {
	var req geo.RouteRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		badRequest(c, err)
		return
	}
	resp, err := h.geoSvc.SafeRoute(c.Request.Context(), req)
	if err != nil {
		abortWithError(c, fromAppError(err))
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Predict lists possible secondary disasters around a point.
func (h *Handler) Predict(c *gin.Context) {
	var req prediction.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	resp, err := h.predictionSvc.Predict(c.Request.Context(), req)
	if err != nil {
		abortWithError(c, fromAppError(err))
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Services lists emergency helplines.
func (h *Handler) Services(c *gin.Context) {
	c.JSON(http.StatusOK, h.directory.Services(c.Request.Context()))
}

// Resources lists preparedness topics.
func (h *Handler) Resources(c *gin.Context) {
	c.JSON(http.StatusOK, h.directory.Resources(c.Request.Context()))
}

// ResourceGuide returns the safety tips of one preparedness topic.
func (h *Handler) ResourceGuide(c *gin.Context) {
	guide, err := h.directory.Guide(c.Request.Context(), c.Param("slug"))
	if err != nil {
		abortWithError(c, fromAppError(err))
		return
	}
	c.JSON(http.StatusOK, guide)
}

// Health reports liveness.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func autocompleteClient(c *gin.Context) string {
	if id := c.Query("clientId"); id != "" {
		return id
	}
	if id := sessionID(c); id != "" {
		return id
	}
	return c.ClientIP()
}
