package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yanqian/disha/internal/domain/session"
	"github.com/yanqian/disha/internal/infra/config"
)

// NewRouter wires up the HTTP handlers and returns a configured server.
func NewRouter(cfg *config.Config, handler *Handler, sessions session.Service, clock clockwork.Clock, logger *slog.Logger) *http.Server {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.MaxMultipartMemory = 8 << 20
	router.Use(
		gin.Recovery(),
		requestLogger(logger),
		corsMiddleware(cfg.HTTP.AllowedOrigins),
		errorHandlingMiddleware(logger),
	)

	router.GET("/healthz", handler.Health)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	requireSession := authMiddleware(sessions)
	optionalSession := optionalAuthMiddleware(sessions)

	api := router.Group("/api/v1")
	api.Use(rateLimitMiddleware(cfg.HTTP.RateLimit, clock, logger))
	{
		api.POST("/session/register", handler.Register)
		api.POST("/session/login", handler.Login)
		api.POST("/session/logout", requireSession, handler.Logout)
		api.GET("/session/me", requireSession, handler.Me)

		api.POST("/alerts/classify", handler.Classify)
		api.GET("/alerts/local", optionalSession, handler.LocalConditions)
		api.GET("/alerts/handoff", requireSession, handler.Handoff)
		api.GET("/alerts/nationwide", handler.Nationwide)
		api.POST("/alerts/nationwide/refresh", handler.RefreshNationwide)

		api.GET("/places/autocomplete", optionalSession, handler.Autocomplete)
		api.GET("/places/reverse", handler.ReverseGeocode)
		api.GET("/routes/safe", handler.SafeRoute)

		api.POST("/predictions", handler.Predict)

		api.POST("/aid/money", optionalSession, handler.MoneyDonation)
		api.POST("/aid/blood", optionalSession, handler.BloodDonation)
		api.POST("/volunteers", handler.Volunteer)
		api.POST("/reports", requireSession, handler.Report)
		api.GET("/submissions", requireSession, handler.Submissions)

		api.GET("/services", handler.Services)
		api.GET("/resources", handler.Resources)
		api.GET("/resources/:slug", handler.ResourceGuide)
	}

	return &http.Server{
		Addr:           cfg.HTTP.Address,
		Handler:        withRetry(router, cfg.HTTP.Retry, logger),
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		MaxHeaderBytes: 1 << 20,
	}
}
