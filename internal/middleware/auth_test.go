package middleware

import (
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/newswatch/youtube-newswatch-go/pkg/logger"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	logger.Log = zap.NewNop()
	os.Exit(m.Run())
}

func protectedRouter(auth *APIKeyAuth) *gin.Engine {
	r := gin.New()
	r.GET("/protected", auth.Middleware(), func(c *gin.Context) {
		c.String(http.StatusOK, "success")
	})
	return r
}

func TestNewAPIKeyAuth_FiltersEmptyKeys(t *testing.T) {
	t.Parallel()

	auth := NewAPIKeyAuth([]string{"key1", "", "key2", ""})

	require.NotNil(t, auth)
	assert.Equal(t, []string{"key1", "key2"}, auth.apiKeys)
}

func TestAPIKeyAuth_Middleware_Success(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		headerName string
		apiKey     string
		validKeys  []string
	}{
		{
			name:       "valid X-API-Key header",
			headerName: headerAPIKey,
			apiKey:     "valid-key-123",
			validKeys:  []string{"valid-key-123"},
		},
		{
			name:       "valid Authorization Bearer header",
			headerName: headerAuth,
			apiKey:     "Bearer valid-key-456",
			validKeys:  []string{"valid-key-456"},
		},
		{
			name:       "matches one of multiple valid keys",
			headerName: headerAPIKey,
			apiKey:     "key2",
			validKeys:  []string{"key1", "key2", "key3"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			router := protectedRouter(NewAPIKeyAuth(tt.validKeys))

			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			req.Header.Set(tt.headerName, tt.apiKey)
			rec := httptest.NewRecorder()

			router.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, "success", rec.Body.String())
		})
	}
}

func TestAPIKeyAuth_Middleware_Unauthorized(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		headerName string
		apiKey     string
		validKeys  []string
	}{
		{
			name:      "missing API key",
			validKeys: []string{"valid-key"},
		},
		{
			name:       "invalid API key in X-API-Key header",
			headerName: headerAPIKey,
			apiKey:     "invalid-key",
			validKeys:  []string{"valid-key"},
		},
		{
			name:       "invalid API key in Authorization header",
			headerName: headerAuth,
			apiKey:     "Bearer invalid-key",
			validKeys:  []string{"valid-key"},
		},
		{
			name:       "no valid keys configured",
			headerName: headerAPIKey,
			apiKey:     "any-key",
			validKeys:  []string{},
		},
		{
			name:       "malformed Authorization header (missing Bearer)",
			headerName: headerAuth,
			apiKey:     "valid-key",
			validKeys:  []string{"valid-key"},
		},
		{
			name:       "partial key match",
			headerName: headerAPIKey,
			apiKey:     "valid",
			validKeys:  []string{"valid-key"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			router := protectedRouter(NewAPIKeyAuth(tt.validKeys))

			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			if tt.headerName != "" {
				req.Header.Set(tt.headerName, tt.apiKey)
			}
			rec := httptest.NewRecorder()

			router.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.JSONEq(t, `{"error":"Unauthorized"}`, rec.Body.String())
		})
	}
}

func TestAPIKeyAuth_ExtractAPIKey(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		headers map[string]string
		want    string
	}{
		{
			name:    "extracts from X-API-Key header",
			headers: map[string]string{headerAPIKey: "my-api-key"},
			want:    "my-api-key",
		},
		{
			name:    "extracts from Authorization Bearer header",
			headers: map[string]string{headerAuth: "Bearer my-bearer-token"},
			want:    "my-bearer-token",
		},
		{
			name: "prefers X-API-Key over Authorization",
			headers: map[string]string{
				headerAPIKey: "api-key",
				headerAuth:   "Bearer bearer-token",
			},
			want: "api-key",
		},
		{
			name:    "returns empty for missing headers",
			headers: map[string]string{},
			want:    "",
		},
		{
			name:    "returns empty for non-Bearer Authorization",
			headers: map[string]string{headerAuth: "Basic username:password"},
			want:    "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			auth := NewAPIKeyAuth([]string{"test-key"})

			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			c, _ := gin.CreateTestContext(httptest.NewRecorder())
			c.Request = req

			assert.Equal(t, tt.want, auth.extractAPIKey(c))
		})
	}
}

func TestAPIKeyAuth_IsValidAPIKey(t *testing.T) {
	t.Parallel()

	auth := NewAPIKeyAuth([]string{"key1", "key2"})

	assert.True(t, auth.isValidAPIKey("key1"))
	assert.True(t, auth.isValidAPIKey("key2"))
	assert.False(t, auth.isValidAPIKey("KEY1"))
	assert.False(t, auth.isValidAPIKey("key"))
	assert.False(t, auth.isValidAPIKey("key1-extra"))
	assert.False(t, auth.isValidAPIKey(""))

	empty := NewAPIKeyAuth(nil)
	assert.False(t, empty.isValidAPIKey("any-key"))
}
