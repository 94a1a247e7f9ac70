// Package service provides the business logic of the collection pipeline.
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/newswatch/youtube-newswatch-go/internal/feed"
	"github.com/newswatch/youtube-newswatch-go/internal/ledger"
	"github.com/newswatch/youtube-newswatch-go/internal/metrics"
	"github.com/newswatch/youtube-newswatch-go/internal/model"
	"github.com/newswatch/youtube-newswatch-go/internal/resolver"
	"github.com/newswatch/youtube-newswatch-go/pkg/logger"
)

// Warning stages recorded by the coordinator.
const (
	StageResolve = "resolve"
	StageFetch   = "fetch"
)

// ChannelResolver maps a raw channel URL to a channel identifier.
type ChannelResolver interface {
	Resolve(ctx context.Context, rawURL string) (string, error)
}

// FeedFetcher retrieves video records for a resolved channel identifier.
type FeedFetcher interface {
	Fetch(ctx context.Context, channelID string) ([]model.VideoRecord, error)
}

// Coordinator runs the collection pipeline for a topic: resolve each
// configured channel, fetch its feed, filter by recency, and keep the
// videos the ledger has not seen. It never marks videos processed - that
// is the caller's move, after downstream synthesis succeeded.
type Coordinator struct {
	resolver ChannelResolver
	fetcher  FeedFetcher
	ledger   ledger.Ledger
	now      func() time.Time
}

// NewCoordinator creates a Coordinator. A nil now uses time.Now.
func NewCoordinator(res ChannelResolver, fetcher FeedFetcher, led ledger.Ledger, now func() time.Time) *Coordinator {
	if now == nil {
		now = time.Now
	}
	return &Coordinator{
		resolver: res,
		fetcher:  fetcher,
		ledger:   led,
		now:      now,
	}
}

// CollectNewVideos collects the unprocessed videos for one topic.
//
// Per-channel resolution and fetch failures are non-fatal: the channel is
// skipped and a warning recorded. A ledger failure aborts the topic -
// assuming "nothing processed yet" for an unreadable partition would
// reprocess everything in it.
func (c *Coordinator) CollectNewVideos(ctx context.Context, topic model.Topic) (*model.TopicResult, error) {
	start := c.now()
	result := &model.TopicResult{
		RunID:     uuid.New(),
		TopicName: topic.Name,
	}

	logger.Log.Info("collection run started",
		zap.String("runId", result.RunID.String()),
		zap.String("topic", topic.Name),
		zap.Int("channels", len(topic.Channels)),
		zap.Int("horizonDays", topic.HorizonDays),
	)

	seen := make(map[string]struct{})

	for _, rawURL := range topic.Channels {
		channelID, err := c.resolver.Resolve(ctx, rawURL)
		if err != nil {
			c.warn(result, rawURL, StageResolve, resolver.Reason(err), err)
			continue
		}

		records, err := c.fetcher.Fetch(ctx, channelID)
		if err != nil {
			c.warn(result, rawURL, StageFetch, feed.Reason(err), err)
			continue
		}

		recent := feed.FilterRecent(records, topic.HorizonDays, c.now())

		for _, rec := range recent {
			if _, dup := seen[rec.VideoID]; dup {
				continue
			}

			processed, err := c.ledger.HasProcessed(ctx, rec.VideoID, rec.PublishedAt)
			if err != nil {
				return nil, fmt.Errorf("consult ledger for topic %q: %w", topic.Name, err)
			}
			if processed {
				continue
			}

			seen[rec.VideoID] = struct{}{}
			result.NewVideos = append(result.NewVideos, rec)
		}
	}

	metrics.VideosDiscovered.WithLabelValues(topic.Name).Add(float64(len(result.NewVideos)))
	metrics.RunDuration.WithLabelValues(topic.Name).Observe(c.now().Sub(start).Seconds())

	logger.Log.Info("collection run finished",
		zap.String("runId", result.RunID.String()),
		zap.String("topic", topic.Name),
		zap.Int("newVideos", len(result.NewVideos)),
		zap.Int("warnings", len(result.Warnings)),
	)

	return result, nil
}

// MarkProcessed records a video in the ledger after the caller confirmed
// downstream synthesis succeeded.
func (c *Coordinator) MarkProcessed(ctx context.Context, record model.VideoRecord) error {
	if err := c.ledger.MarkProcessed(ctx, record); err != nil {
		return err
	}
	metrics.VideosMarked.Inc()
	return nil
}

func (c *Coordinator) warn(result *model.TopicResult, rawURL, stage, reason string, err error) {
	if reason == "" {
		reason = "unknown"
	}
	result.Warnings = append(result.Warnings, model.ChannelWarning{
		Channel: rawURL,
		Stage:   stage,
		Reason:  reason,
	})
	metrics.ChannelFailures.WithLabelValues(stage, reason).Inc()

	logger.Log.Warn("channel skipped",
		zap.String("topic", result.TopicName),
		zap.String("channel", resolver.ChannelName(rawURL)),
		zap.String("stage", stage),
		zap.String("reason", reason),
		zap.Error(err),
	)
}
