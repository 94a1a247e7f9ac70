package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/newswatch/youtube-newswatch-go/internal/ledger"
	"github.com/newswatch/youtube-newswatch-go/internal/service"
)

// HealthHandler handles health check endpoints.
type HealthHandler struct {
	ledger    ledger.Ledger
	publisher *service.VideoPublisher
}

// NewHealthHandler creates a new HealthHandler instance. The publisher is
// optional; without one the readiness probe skips the RabbitMQ check.
func NewHealthHandler(led ledger.Ledger, publisher *service.VideoPublisher) *HealthHandler {
	return &HealthHandler{ledger: led, publisher: publisher}
}

// LivenessProbe checks if the application is running.
func (h *HealthHandler) LivenessProbe(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "UP",
		"time":   time.Now(),
	})
}

// ReadinessProbe checks if the application is ready to serve traffic.
func (h *HealthHandler) ReadinessProbe(c *gin.Context) {
	// Check ledger accessibility
	if _, err := h.ledger.Status(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "DOWN",
			"ledger": "unhealthy",
			"error":  err.Error(),
			"time":   time.Now(),
		})
		return
	}

	// Check RabbitMQ connectivity if configured
	if h.publisher != nil && !h.publisher.IsHealthy() {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":   "DOWN",
			"rabbitmq": "unhealthy",
			"time":     time.Now(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "UP",
		"ledger": "healthy",
		"time":   time.Now(),
	})
}
