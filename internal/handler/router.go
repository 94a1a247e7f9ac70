package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/newswatch/youtube-newswatch-go/internal/middleware"
)

// NewRouter wires the API routes. Mutating and collection endpoints sit
// behind API-key auth; health probes and metrics do not.
func NewRouter(
	health *HealthHandler,
	ledgerHandler *LedgerHandler,
	collectHandler *CollectHandler,
	auth *middleware.APIKeyAuth,
) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/healthz", health.LivenessProbe)
	router.GET("/readyz", health.ReadinessProbe)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api/v1")
	api.Use(auth.Middleware())
	{
		api.GET("/topics", collectHandler.ListTopics)
		api.POST("/topics/:name/collect", collectHandler.Collect)
		api.GET("/ledger/status", ledgerHandler.Status)
		api.POST("/videos/processed", ledgerHandler.MarkProcessed)
	}

	return router
}
