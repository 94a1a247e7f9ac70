package feed

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/newswatch/youtube-newswatch-go/pkg/logger"
)

func TestMain(m *testing.M) {
	logger.Log = zap.NewNop()
	os.Exit(m.Run())
}

// Mock HTTP client
type mockHTTPClient struct {
	mock.Mock
}

func (m *mockHTTPClient) Do(req *http.Request) (*http.Response, error) {
	args := m.Called(req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*http.Response), args.Error(1)
}

func feedResponse(body string) *http.Response {
	return &http.Response{
		StatusCode: http.StatusOK,
		Body:       io.NopCloser(bytes.NewBufferString(body)),
	}
}

func TestFetch(t *testing.T) {
	t.Parallel()

	client := new(mockHTTPClient)
	f := NewFetcher(client, "")

	client.On("Do", mock.MatchedBy(func(req *http.Request) bool {
		return req.URL.String() == "https://www.youtube.com/feeds/videos.xml?channel_id=UCWedHT9RofuQRdmrFrTzmjg"
	})).Return(feedResponse(sampleFeed), nil)

	records, err := f.Fetch(context.Background(), "UCWedHT9RofuQRdmrFrTzmjg")

	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "dQw4w9WgXcQ", records[0].VideoID)
	assert.Equal(t, "UCWedHT9RofuQRdmrFrTzmjg", records[0].ChannelID)
	assert.Equal(t, "https://www.youtube.com/watch?v=dQw4w9WgXcQ", records[0].URL)
	assert.Equal(t, "abc123def45", records[1].VideoID)
	client.AssertExpectations(t)
}

func TestFetch_SkipsIncompleteEntries(t *testing.T) {
	t.Parallel()

	const feedWithBadEntries = `<?xml version="1.0"?>
<feed xmlns:yt="http://www.youtube.com/xml/schemas/2015"
      xmlns="http://www.w3.org/2005/Atom">
  <title>Mixed</title>
  <entry>
    <title>No video id</title>
    <published>2025-09-08T10:00:00+00:00</published>
  </entry>
  <entry>
    <yt:videoId>noPubDate01</yt:videoId>
    <title>No published date</title>
  </entry>
  <entry>
    <yt:videoId>goodVideo01</yt:videoId>
    <title>Valid entry</title>
    <published>2025-09-08T10:00:00+00:00</published>
  </entry>
</feed>`

	client := new(mockHTTPClient)
	f := NewFetcher(client, "")
	client.On("Do", mock.Anything).Return(feedResponse(feedWithBadEntries), nil)

	records, err := f.Fetch(context.Background(), "UCWedHT9RofuQRdmrFrTzmjg")

	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "goodVideo01", records[0].VideoID)
	// Missing link falls back to the canonical watch URL.
	assert.Equal(t, "https://www.youtube.com/watch?v=goodVideo01", records[0].URL)
}

func TestFetch_DropsDuplicateIDsWithinFeed(t *testing.T) {
	t.Parallel()

	const feedWithDup = `<?xml version="1.0"?>
<feed xmlns:yt="http://www.youtube.com/xml/schemas/2015"
      xmlns="http://www.w3.org/2005/Atom">
  <entry>
    <yt:videoId>sameVideo01</yt:videoId>
    <title>First occurrence</title>
    <published>2025-09-08T10:00:00+00:00</published>
  </entry>
  <entry>
    <yt:videoId>sameVideo01</yt:videoId>
    <title>Second occurrence</title>
    <published>2025-09-08T10:00:00+00:00</published>
  </entry>
</feed>`

	client := new(mockHTTPClient)
	f := NewFetcher(client, "")
	client.On("Do", mock.Anything).Return(feedResponse(feedWithDup), nil)

	records, err := f.Fetch(context.Background(), "UCWedHT9RofuQRdmrFrTzmjg")

	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "First occurrence", records[0].Title)
}

func TestFetch_Unreachable(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		resp    *http.Response
		respErr error
	}{
		{
			name:    "transport error",
			respErr: errors.New("dial tcp: connection refused"),
		},
		{
			name: "server error status",
			resp: &http.Response{
				StatusCode: http.StatusServiceUnavailable,
				Body:       io.NopCloser(bytes.NewBufferString("unavailable")),
			},
		},
		{
			name: "not found status",
			resp: &http.Response{
				StatusCode: http.StatusNotFound,
				Body:       io.NopCloser(bytes.NewBufferString("no such channel")),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			client := new(mockHTTPClient)
			f := NewFetcher(client, "")
			client.On("Do", mock.Anything).Return(tt.resp, tt.respErr)

			_, err := f.Fetch(context.Background(), "UCWedHT9RofuQRdmrFrTzmjg")

			require.Error(t, err)
			assert.Equal(t, ReasonUnreachable, Reason(err))
		})
	}
}

func TestFetch_MalformedFeed(t *testing.T) {
	t.Parallel()

	client := new(mockHTTPClient)
	f := NewFetcher(client, "")
	client.On("Do", mock.Anything).Return(feedResponse("<html>not a feed"), nil)

	_, err := f.Fetch(context.Background(), "UCWedHT9RofuQRdmrFrTzmjg")

	require.Error(t, err)
	assert.Equal(t, ReasonMalformedFeed, Reason(err))
	assert.ErrorIs(t, err, ErrMalformedFeed)
}
