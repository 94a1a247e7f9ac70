package resolver

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

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

const channelPageBody = `<html><head></head><body><script>
var ytInitialData = {"responseContext":{},"metadata":{"channelMetadataRenderer":
{"title":"Test Channel","externalId":"UCWedHT9RofuQRdmrFrTzmjg"}}};
</script></body></html>`

func TestResolve_DirectForms(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		rawURL string
		want   string
	}{
		{
			name:   "channel id URL",
			rawURL: "https://www.youtube.com/channel/UCWedHT9RofuQRdmrFrTzmjg",
			want:   "UCWedHT9RofuQRdmrFrTzmjg",
		},
		{
			name:   "channel id URL with trailing path",
			rawURL: "https://www.youtube.com/channel/UCWedHT9RofuQRdmrFrTzmjg/videos",
			want:   "UCWedHT9RofuQRdmrFrTzmjg",
		},
		{
			name:   "bare channel id",
			rawURL: "UCWedHT9RofuQRdmrFrTzmjg",
			want:   "UCWedHT9RofuQRdmrFrTzmjg",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			client := new(mockHTTPClient)
			r := New(client)

			got, err := r.Resolve(context.Background(), tt.rawURL)

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			// Direct forms never touch the network.
			client.AssertNotCalled(t, "Do", mock.Anything)
		})
	}
}

func TestResolve_ScrapedForms(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		rawURL string
	}{
		{
			name:   "handle form",
			rawURL: "https://www.youtube.com/@Underscore_",
		},
		{
			name:   "legacy custom form",
			rawURL: "https://www.youtube.com/c/Micode",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			client := new(mockHTTPClient)
			r := New(client)

			resp := &http.Response{
				StatusCode: http.StatusOK,
				Body:       io.NopCloser(bytes.NewBufferString(channelPageBody)),
			}
			client.On("Do", mock.MatchedBy(func(req *http.Request) bool {
				return req.Method == http.MethodGet && req.URL.String() == tt.rawURL
			})).Return(resp, nil)

			got, err := r.Resolve(context.Background(), tt.rawURL)

			require.NoError(t, err)
			assert.Equal(t, "UCWedHT9RofuQRdmrFrTzmjg", got)
			client.AssertExpectations(t)
		})
	}
}

func TestResolve_CachesWithinRun(t *testing.T) {
	t.Parallel()

	client := new(mockHTTPClient)
	r := New(client)

	resp := &http.Response{
		StatusCode: http.StatusOK,
		Body:       io.NopCloser(bytes.NewBufferString(channelPageBody)),
	}
	client.On("Do", mock.Anything).Return(resp, nil).Once()

	first, err := r.Resolve(context.Background(), "https://www.youtube.com/@Underscore_")
	require.NoError(t, err)

	second, err := r.Resolve(context.Background(), "https://www.youtube.com/@Underscore_")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	client.AssertExpectations(t)
}

func TestResolve_UnsupportedURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		rawURL string
	}{
		{
			name:   "watch URL",
			rawURL: "https://www.youtube.com/watch?v=dQw4w9WgXcQ",
		},
		{
			name:   "not a URL",
			rawURL: "just some text",
		},
		{
			name:   "channel path with invalid id",
			rawURL: "https://www.youtube.com/channel/notachannelid",
		},
		{
			name:   "empty",
			rawURL: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			client := new(mockHTTPClient)
			r := New(client)

			_, err := r.Resolve(context.Background(), tt.rawURL)

			require.Error(t, err)
			assert.Equal(t, ReasonUnsupportedURL, Reason(err))
			// Unsupported shapes fail without a network call.
			client.AssertNotCalled(t, "Do", mock.Anything)
		})
	}
}

func TestResolve_Unreachable(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		resp    *http.Response
		respErr error
	}{
		{
			name:    "transport error",
			respErr: errors.New("connection refused"),
		},
		{
			name: "server error status",
			resp: &http.Response{
				StatusCode: http.StatusInternalServerError,
				Body:       io.NopCloser(bytes.NewBufferString("boom")),
			},
		},
		{
			name: "gateway error status",
			resp: &http.Response{
				StatusCode: http.StatusServiceUnavailable,
				Body:       io.NopCloser(bytes.NewBufferString("unavailable")),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			client := new(mockHTTPClient)
			r := New(client)
			client.On("Do", mock.Anything).Return(tt.resp, tt.respErr)

			_, err := r.Resolve(context.Background(), "https://www.youtube.com/@Underscore_")

			require.Error(t, err)
			assert.Equal(t, ReasonUnreachable, Reason(err))
			assert.ErrorIs(t, err, ErrUnreachable)
		})
	}
}

func TestResolve_NotFound(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		statusCode int
		body       string
	}{
		{
			name:       "page without token",
			statusCode: http.StatusOK,
			body:       "<html><body>nothing to see here</body></html>",
		},
		{
			name:       "404 page",
			statusCode: http.StatusNotFound,
			body:       "not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			client := new(mockHTTPClient)
			r := New(client)

			resp := &http.Response{
				StatusCode: tt.statusCode,
				Body:       io.NopCloser(bytes.NewBufferString(tt.body)),
			}
			client.On("Do", mock.Anything).Return(resp, nil)

			_, err := r.Resolve(context.Background(), "https://www.youtube.com/c/Micode")

			require.Error(t, err)
			assert.Equal(t, ReasonNotFound, Reason(err))
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestChannelName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		rawURL string
		want   string
	}{
		{"https://www.youtube.com/@Underscore_", "Underscore_"},
		{"https://www.youtube.com/c/Micode", "Micode"},
		{"https://www.youtube.com/channel/UCWedHT9RofuQRdmrFrTzmjg", "UCWedHT9RofuQRdmrFrTzmjg"},
		{"UCWedHT9RofuQRdmrFrTzmjg", "UCWedHT9RofuQRdmrFrTzmjg"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ChannelName(tt.rawURL))
	}
}
