// Package resolver maps configured YouTube channel URLs to stable channel
// identifiers.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
)

// Resolution failure reasons.
const (
	ReasonUnreachable    = "unreachable"
	ReasonNotFound       = "not_found"
	ReasonUnsupportedURL = "unsupported_url"
)

var (
	// ErrUnreachable is returned when the channel page cannot be fetched.
	ErrUnreachable = errors.New("channel page unreachable")

	// ErrNotFound is returned when no channel-id token is found in the page body.
	ErrNotFound = errors.New("channel id not found in page")

	// ErrUnsupportedURL is returned when the URL matches none of the supported shapes.
	ErrUnsupportedURL = errors.New("unsupported channel URL")
)

// channelIDPattern matches the embedded channel-id token on a channel
// landing page. YouTube emits it under several JSON keys.
var channelIDPattern = regexp.MustCompile(`"(?:channelId|externalId|ownerChannelId)":"(UC[-_0-9A-Za-z]{22})"`)

// directIDPattern matches a bare channel identifier.
var directIDPattern = regexp.MustCompile(`^UC[-_0-9A-Za-z]{22}$`)

// ResolutionError reports why a channel URL could not be resolved.
type ResolutionError struct {
	URL    string
	Reason string
	Err    error
}

func (e *ResolutionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("resolve %s: %s: %v", e.URL, e.Reason, e.Err)
	}
	return fmt.Sprintf("resolve %s: %s", e.URL, e.Reason)
}

func (e *ResolutionError) Unwrap() error { return e.Err }

// Reason extracts the resolution failure reason from an error, or "" if
// the error is not a ResolutionError.
func Reason(err error) string {
	var re *ResolutionError
	if errors.As(err, &re) {
		return re.Reason
	}
	return ""
}

// HTTPClient defines the interface for making HTTP requests.
// This allows for easy mocking in tests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Resolver resolves channel URLs to channel identifiers. Results are
// cached for the lifetime of the resolver, so resolving the same raw URL
// twice within one run is idempotent and costs one network call at most.
// Not safe for concurrent use; runs are single-threaded.
type Resolver struct {
	client HTTPClient
	cache  map[string]string
}

// New creates a Resolver. A nil client falls back to http.DefaultClient's
// behavior with a fresh client.
func New(client HTTPClient) *Resolver {
	if client == nil {
		client = &http.Client{}
	}
	return &Resolver{
		client: client,
		cache:  make(map[string]string),
	}
}

// Resolve maps a raw channel URL to its channel identifier.
//
// Supported shapes:
//   - https://www.youtube.com/channel/UC... (no network call)
//   - https://www.youtube.com/@handle
//   - https://www.youtube.com/c/name
//   - a bare UC... identifier (no network call)
func (r *Resolver) Resolve(ctx context.Context, rawURL string) (string, error) {
	if id, ok := r.cache[rawURL]; ok {
		return id, nil
	}

	// Bare channel identifier, nothing to resolve.
	if directIDPattern.MatchString(rawURL) {
		r.cache[rawURL] = rawURL
		return rawURL, nil
	}

	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return "", &ResolutionError{URL: rawURL, Reason: ReasonUnsupportedURL, Err: err}
	}

	path := strings.Trim(u.Path, "/")
	switch {
	case strings.HasPrefix(path, "channel/"):
		id := strings.SplitN(strings.TrimPrefix(path, "channel/"), "/", 2)[0]
		if !directIDPattern.MatchString(id) {
			return "", &ResolutionError{URL: rawURL, Reason: ReasonUnsupportedURL}
		}
		r.cache[rawURL] = id
		return id, nil

	case strings.HasPrefix(path, "@"), strings.HasPrefix(path, "c/"):
		id, err := r.scrapeChannelID(ctx, rawURL)
		if err != nil {
			return "", err
		}
		r.cache[rawURL] = id
		return id, nil

	default:
		return "", &ResolutionError{URL: rawURL, Reason: ReasonUnsupportedURL}
	}
}

// scrapeChannelID fetches the channel landing page and scans the body for
// the embedded channel-id token.
func (r *Resolver) scrapeChannelID(ctx context.Context, rawURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", &ResolutionError{URL: rawURL, Reason: ReasonUnsupportedURL, Err: err}
	}
	req.Header.Set("Accept-Language", "en")

	resp, err := r.client.Do(req)
	if err != nil {
		return "", &ResolutionError{URL: rawURL, Reason: ReasonUnreachable, Err: fmt.Errorf("%w: %v", ErrUnreachable, err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// Server-class failures are transient; only client-class
		// responses mean the channel page does not exist.
		if resp.StatusCode >= http.StatusInternalServerError {
			return "", &ResolutionError{
				URL:    rawURL,
				Reason: ReasonUnreachable,
				Err:    fmt.Errorf("%w: status %d", ErrUnreachable, resp.StatusCode),
			}
		}
		return "", &ResolutionError{
			URL:    rawURL,
			Reason: ReasonNotFound,
			Err:    fmt.Errorf("%w: status %d", ErrNotFound, resp.StatusCode),
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &ResolutionError{URL: rawURL, Reason: ReasonUnreachable, Err: fmt.Errorf("%w: %v", ErrUnreachable, err)}
	}

	m := channelIDPattern.FindSubmatch(body)
	if m == nil {
		return "", &ResolutionError{URL: rawURL, Reason: ReasonNotFound, Err: ErrNotFound}
	}

	return string(m[1]), nil
}

// ChannelName extracts a human-readable channel name from a configured
// URL, for display and warnings.
func ChannelName(rawURL string) string {
	switch {
	case strings.Contains(rawURL, "@"):
		parts := strings.Split(rawURL, "@")
		return parts[len(parts)-1]
	case strings.Contains(rawURL, "/c/"):
		parts := strings.Split(rawURL, "/c/")
		return parts[len(parts)-1]
	case strings.Contains(rawURL, "/channel/"):
		parts := strings.Split(rawURL, "/channel/")
		return parts[len(parts)-1]
	default:
		parts := strings.Split(rawURL, "/")
		return parts[len(parts)-1]
	}
}
