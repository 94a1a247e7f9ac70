// Package handler provides HTTP request handlers for the application.
package handler

import (
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/newswatch/youtube-newswatch-go/internal/ledger"
	"github.com/newswatch/youtube-newswatch-go/internal/model"
	"github.com/newswatch/youtube-newswatch-go/internal/service"
	"github.com/newswatch/youtube-newswatch-go/pkg/logger"
)

// ErrorResponse represents an error response.
//
//nolint:govet // fieldalignment: Accept minor memory overhead for better readability
type ErrorResponse struct {
	Timestamp time.Time `json:"timestamp"`
	Status    int       `json:"status"`
	Error     string    `json:"error"`
	Message   string    `json:"message"`
	Path      string    `json:"path"`
}

// LedgerHandler exposes ledger status and the mark-processed callback the
// synthesis layer uses to confirm a video.
type LedgerHandler struct {
	coordinator *service.Coordinator
	ledger      ledger.Ledger
}

// NewLedgerHandler creates a new LedgerHandler instance.
func NewLedgerHandler(coordinator *service.Coordinator, led ledger.Ledger) *LedgerHandler {
	return &LedgerHandler{coordinator: coordinator, ledger: led}
}

// DateStatus is one per-date entry of the status report.
type DateStatus struct {
	Date            string `json:"date"`
	ProcessedVideos int    `json:"processed_videos"`
}

// Status reports per-date processed counts, newest date first.
func (h *LedgerHandler) Status(c *gin.Context) {
	counts, err := h.ledger.Status(c.Request.Context())
	if err != nil {
		logger.Log.Error("ledger status failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Status:    http.StatusInternalServerError,
			Error:     "Internal Server Error",
			Message:   "Failed to read ledger status",
			Timestamp: time.Now(),
			Path:      c.Request.URL.Path,
		})
		return
	}

	dates := make([]string, 0, len(counts))
	for date := range counts {
		dates = append(dates, date)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(dates)))

	statuses := make([]DateStatus, 0, len(dates))
	for _, date := range dates {
		statuses = append(statuses, DateStatus{Date: date, ProcessedVideos: counts[date]})
	}

	c.JSON(http.StatusOK, gin.H{
		"dates": statuses,
		"total": len(statuses),
	})
}

// MarkProcessedRequest is the synthesis layer's confirmation for one video.
type MarkProcessedRequest struct {
	VideoID     string    `json:"video_id" binding:"required,max=50"`
	ChannelID   string    `json:"channel_id"`
	Title       string    `json:"title"`
	URL         string    `json:"url"`
	PublishedAt time.Time `json:"published_at" binding:"required"`
}

// MarkProcessed records a video as processed after the synthesis layer
// confirmed success for it. Idempotent: confirming twice is a no-op.
func (h *LedgerHandler) MarkProcessed(c *gin.Context) {
	var req MarkProcessedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Status:    http.StatusBadRequest,
			Error:     "Bad Request",
			Message:   "Invalid request payload: " + err.Error(),
			Timestamp: time.Now(),
			Path:      c.Request.URL.Path,
		})
		return
	}

	record := model.VideoRecord{
		VideoID:     req.VideoID,
		ChannelID:   req.ChannelID,
		Title:       req.Title,
		URL:         req.URL,
		PublishedAt: req.PublishedAt,
	}

	if err := h.coordinator.MarkProcessed(c.Request.Context(), record); err != nil {
		logger.Log.Error("mark processed failed",
			zap.Error(err),
			zap.String("videoId", req.VideoID),
		)
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Status:    http.StatusInternalServerError,
			Error:     "Internal Server Error",
			Message:   "Failed to record processed video",
			Timestamp: time.Now(),
			Path:      c.Request.URL.Path,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"video_id":  req.VideoID,
		"partition": record.PublishedDate(),
		"status":    "processed",
	})
}
