package feed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/newswatch/youtube-newswatch-go/internal/model"
	"github.com/newswatch/youtube-newswatch-go/pkg/logger"
)

// DefaultFeedURL is the YouTube channel syndication feed endpoint.
const DefaultFeedURL = "https://www.youtube.com/feeds/videos.xml"

// Fetch failure reasons.
const (
	ReasonUnreachable   = "unreachable"
	ReasonMalformedFeed = "malformed_feed"
)

// ErrMalformedFeed is returned when the feed body cannot be parsed at all.
var ErrMalformedFeed = errors.New("malformed feed")

// FetchError reports why a channel feed could not be fetched.
type FetchError struct {
	ChannelID string
	Reason    string
	Err       error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch feed for %s: %s: %v", e.ChannelID, e.Reason, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Reason extracts the fetch failure reason from an error, or "" if the
// error is not a FetchError.
func Reason(err error) string {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Reason
	}
	return ""
}

// HTTPClient defines the interface for making HTTP requests.
// This allows for easy mocking in tests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Fetcher retrieves the syndication feed for a resolved channel id and
// parses it into video records.
type Fetcher struct {
	client  HTTPClient
	feedURL string
}

// NewFetcher creates a Fetcher. An empty feedURL uses the public YouTube
// endpoint.
func NewFetcher(client HTTPClient, feedURL string) *Fetcher {
	if client == nil {
		client = &http.Client{}
	}
	if feedURL == "" {
		feedURL = DefaultFeedURL
	}
	return &Fetcher{client: client, feedURL: feedURL}
}

// Fetch retrieves the feed for channelID and returns its entries in feed
// order. Entries missing a video id or published timestamp are skipped;
// duplicate video ids within one fetch are dropped. The fetch fails as a
// whole only when the feed is unreachable or not parseable.
func (f *Fetcher) Fetch(ctx context.Context, channelID string) ([]model.VideoRecord, error) {
	feedURL := fmt.Sprintf("%s?channel_id=%s", f.feedURL, channelID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return nil, &FetchError{ChannelID: channelID, Reason: ReasonUnreachable, Err: err}
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &FetchError{ChannelID: channelID, Reason: ReasonUnreachable, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &FetchError{
			ChannelID: channelID,
			Reason:    ReasonUnreachable,
			Err:       fmt.Errorf("unexpected status %d", resp.StatusCode),
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &FetchError{ChannelID: channelID, Reason: ReasonUnreachable, Err: err}
	}

	atom, err := ParseAtomFeed(body)
	if err != nil {
		return nil, &FetchError{
			ChannelID: channelID,
			Reason:    ReasonMalformedFeed,
			Err:       fmt.Errorf("%w: %v", ErrMalformedFeed, err),
		}
	}

	records := make([]model.VideoRecord, 0, len(atom.Entries))
	seen := make(map[string]struct{}, len(atom.Entries))

	for _, entry := range atom.Entries {
		if entry.VideoID == "" || entry.Published.IsZero() {
			logger.Log.Warn("skipping malformed feed entry",
				zap.String("channelId", channelID),
				zap.String("title", entry.Title),
			)
			continue
		}
		if _, dup := seen[entry.VideoID]; dup {
			continue
		}
		seen[entry.VideoID] = struct{}{}

		entryChannel := entry.ChannelID
		if entryChannel == "" {
			entryChannel = channelID
		}

		records = append(records, model.VideoRecord{
			VideoID:     entry.VideoID,
			ChannelID:   entryChannel,
			Title:       entry.Title,
			URL:         entry.VideoURL(),
			PublishedAt: entry.Published,
		})
	}

	return records, nil
}
