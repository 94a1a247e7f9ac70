package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/newswatch/youtube-newswatch-go/internal/config"
	"github.com/newswatch/youtube-newswatch-go/internal/model"
	"github.com/newswatch/youtube-newswatch-go/internal/service"
	"github.com/newswatch/youtube-newswatch-go/pkg/logger"
)

// CollectHandler triggers on-demand collection runs for configured topics.
type CollectHandler struct {
	coordinator *service.Coordinator
	topics      []model.Topic
}

// NewCollectHandler creates a new CollectHandler instance.
func NewCollectHandler(coordinator *service.Coordinator, topics []model.Topic) *CollectHandler {
	return &CollectHandler{coordinator: coordinator, topics: topics}
}

// ListTopics returns the configured topics.
func (h *CollectHandler) ListTopics(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"topics": h.topics,
		"total":  len(h.topics),
	})
}

// Collect runs the collection pipeline for one topic and returns the
// unprocessed videos. Nothing is marked processed here; the synthesis
// layer confirms per video via the ledger endpoint.
func (h *CollectHandler) Collect(c *gin.Context) {
	name := c.Param("name")

	topic, ok := config.FindTopic(h.topics, name)
	if !ok {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Status:    http.StatusNotFound,
			Error:     "Not Found",
			Message:   "Unknown topic: " + name,
			Timestamp: time.Now(),
			Path:      c.Request.URL.Path,
		})
		return
	}

	result, err := h.coordinator.CollectNewVideos(c.Request.Context(), topic)
	if err != nil {
		logger.Log.Error("collection run failed",
			zap.Error(err),
			zap.String("topic", topic.Name),
		)
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Status:    http.StatusInternalServerError,
			Error:     "Internal Server Error",
			Message:   "Collection run failed",
			Timestamp: time.Now(),
			Path:      c.Request.URL.Path,
		})
		return
	}

	c.JSON(http.StatusOK, result)
}
