// Package model contains the core data types shared across the collection pipeline.
package model

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

// DateLayout is the calendar-date format used for ledger partition keys.
const DateLayout = "2006-01-02"

// VideoRecord is a single video surfaced by a channel feed.
// VideoID is globally unique and is the sole deduplication key.
type VideoRecord struct {
	VideoID     string    `json:"video_id"`
	ChannelID   string    `json:"channel_id"`
	Title       string    `json:"title"`
	URL         string    `json:"url"`
	PublishedAt time.Time `json:"published_at"`
}

// PublishedDate returns the calendar date of publication, which keys the
// ledger partition the record belongs to.
func (v VideoRecord) PublishedDate() string {
	return v.PublishedAt.Format(DateLayout)
}

// ChannelRef is a channel as configured by the user. ResolvedID is empty
// until resolution succeeds and is cached for the lifetime of one run.
type ChannelRef struct {
	RawURL     string `json:"raw_url"`
	ResolvedID string `json:"resolved_id,omitempty"`
}

// Topic is one monitored subject with its configured channels.
// Keywords and Volume are carried opaquely for the downstream synthesis
// layer; the collection core does not interpret them.
type Topic struct {
	Name        string   `mapstructure:"name" json:"name"`
	Keywords    []string `mapstructure:"keywords" json:"keywords"`
	Channels    []string `mapstructure:"youtube_channels" json:"youtube_channels"`
	Volume      int      `mapstructure:"volume" json:"volume"`
	HorizonDays int      `mapstructure:"horizon_days" json:"horizon_days,omitempty"`
}

// ChannelWarning records a non-fatal per-channel failure during a run.
type ChannelWarning struct {
	Channel string `json:"channel"`
	Stage   string `json:"stage"`
	Reason  string `json:"reason"`
}

// TopicResult is the outcome of one collection run for one topic. It is
// ephemeral: the caller consumes NewVideos and reports success per video
// back to the ledger.
type TopicResult struct {
	RunID     uuid.UUID        `json:"run_id"`
	TopicName string           `json:"topic_name"`
	NewVideos []VideoRecord    `json:"new_videos"`
	Warnings  []ChannelWarning `json:"warnings,omitempty"`
}

// GroupByDate partitions NewVideos by publication date. Dates returns the
// keys most-recent-first, matching the order the synthesis layer processes
// batches in.
func (r *TopicResult) GroupByDate() map[string][]VideoRecord {
	byDate := make(map[string][]VideoRecord)
	for _, v := range r.NewVideos {
		d := v.PublishedDate()
		byDate[d] = append(byDate[d], v)
	}
	return byDate
}

// Dates returns the publication dates present in NewVideos, newest first.
func (r *TopicResult) Dates() []string {
	seen := make(map[string]struct{})
	var dates []string
	for _, v := range r.NewVideos {
		d := v.PublishedDate()
		if _, ok := seen[d]; !ok {
			seen[d] = struct{}{}
			dates = append(dates, d)
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(dates)))
	return dates
}
