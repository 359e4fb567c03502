package http

import (
	"log/slog"
	"net/http"

	"github.com/NYTimes/gziphandler"
	"github.com/gin-gonic/gin"

	"github.com/lassnet/powerdash/internal/infra/config"
	"github.com/lassnet/powerdash/pkg/metrics"
)

// NewRouter wires up the HTTP handlers and returns a configured server.
func NewRouter(cfg *config.Config, handler *Handler, logger *slog.Logger) *http.Server {
	gin.SetMode(gin.ReleaseMode)
	logger = logger.With("component", "http.router")

	router := gin.New()
	router.Use(
		gin.Recovery(),
		requestIDMiddleware(),
		requestLogger(logger),
		corsMiddleware(cfg.HTTP.AllowedOrigins),
		errorHandlingMiddleware(logger),
	)

	router.GET("/healthz", handler.Health)
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	api := router.Group("/api/v1")
	api.Use(rateLimitMiddleware(cfg.HTTP.RateLimit, logger))
	{
		api.GET("/dashboard", handler.Dashboard)
		api.GET("/series/:source", handler.Series)
		api.GET("/series/:source/export", handler.ExportSeries)
	}

	var root http.Handler = router
	if cfg.HTTP.Gzip {
		root = gziphandler.GzipHandler(router)
	}

	return &http.Server{
		Addr:           cfg.HTTP.Address,
		Handler:        root,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		MaxHeaderBytes: 1 << 20,
	}
}
