package version

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"runtime"
	"strconv"
	"strings"
	"time"
)

const (
	// DefaultBaseURL is the GitHub API root used for release checks.
	DefaultBaseURL = "https://api.github.com"

	defaultTimeout = 15 * time.Second
	maxBodySize    = 64 * 1024
)

// ErrReleaseCheck wraps GitHub API failures during a release check.
var ErrReleaseCheck = errors.New("release check failed")

// Release is the subset of a GitHub release the check needs.
type Release struct {
	TagName     string    `json:"tag_name"`
	Name        string    `json:"name"`
	Prerelease  bool      `json:"prerelease"`
	PublishedAt time.Time `json:"published_at"`
}

// Client fetches release metadata from the GitHub API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	userAgent  string
}

// ClientOptions configures a Client. Zero values use the defaults.
type ClientOptions struct {
	// BaseURL overrides the GitHub API root, for tests.
	BaseURL string
	// HTTPClient overrides the default client with its 15s timeout.
	HTTPClient *http.Client
}

// NewClient returns a release check client.
func NewClient(opts *ClientOptions) *Client {
	c := &Client{
		baseURL:    DefaultBaseURL,
		httpClient: &http.Client{Timeout: defaultTimeout},
		userAgent:  fmt.Sprintf("hivesnap/%s (%s/%s)", Version, runtime.GOOS, runtime.GOARCH),
	}
	if opts != nil {
		if opts.BaseURL != "" {
			c.baseURL = strings.TrimSuffix(opts.BaseURL, "/")
		}
		if opts.HTTPClient != nil {
			c.httpClient = opts.HTTPClient
		}
	}
	return c
}

// LatestRelease fetches the newest published release of owner/repo.
func (c *Client) LatestRelease(ctx context.Context, owner, repo string) (*Release, error) {
	url := fmt.Sprintf("%s/repos/%s/%s/releases/latest", c.baseURL, owner, repo)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/vnd.github.v3+json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrReleaseCheck, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrReleaseCheck, resp.StatusCode)
	}

	var release Release
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodySize)).Decode(&release); err != nil {
		return nil, fmt.Errorf("%w: decoding response: %w", ErrReleaseCheck, err)
	}
	return &release, nil
}

// IsNewer reports whether latest is a strictly newer release than
// current. Non-semver current versions (dev builds, bare commits) are
// always considered older than a tagged release.
func IsNewer(current, latest string) bool {
	latestParts, ok := parseSemver(latest)
	if !ok {
		return false
	}
	currentParts, ok := parseSemver(current)
	if !ok {
		return true
	}

	for i := range latestParts {
		if latestParts[i] != currentParts[i] {
			return latestParts[i] > currentParts[i]
		}
	}
	return false
}

// parseSemver extracts major.minor.patch, tolerating a "v" prefix and
// dropping pre-release or build suffixes. Missing segments are zero.
func parseSemver(v string) ([3]int, bool) {
	v = strings.TrimPrefix(strings.TrimSpace(v), "v")
	if idx := strings.IndexAny(v, "-+"); idx != -1 {
		v = v[:idx]
	}
	if v == "" {
		return [3]int{}, false
	}

	var parts [3]int
	for i, segment := range strings.SplitN(v, ".", 3) {
		n, err := strconv.Atoi(segment)
		if err != nil {
			return [3]int{}, false
		}
		parts[i] = n
	}
	return parts, true
}
