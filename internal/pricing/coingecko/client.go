// Package coingecko provides a minimal CoinGecko client for the reference
// currency quotes (HIVE, HBD and BTC against USD).
package coingecko

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/gadrian78/he-tokens-snapshot/internal/hive"
	snaperr "github.com/gadrian78/he-tokens-snapshot/pkg/errors"
)

const (
	// DefaultBaseURL is the CoinGecko API v3 base URL.
	DefaultBaseURL = "https://api.coingecko.com/api/v3"

	httpTimeout     = 15 * time.Second
	maxResponseBody = 64 << 10

	rateLimitKey = "coingecko"
)

// CoinGecko asset identifiers for the reference assets.
const (
	IDHive       = "hive"
	IDHiveDollar = "hive_dollar"
	IDBitcoin    = "bitcoin"
)

// Client queries the CoinGecko simple price API.
type Client struct {
	baseURL     string
	httpClient  *http.Client
	rateLimiter *hive.RateLimiter
	logger      *zap.Logger
}

// ClientOptions configures the CoinGecko client.
type ClientOptions struct {
	// BaseURL overrides the API base URL (useful for testing).
	BaseURL string
	// HTTPClient overrides the default HTTP client.
	HTTPClient *http.Client
	// RateLimiter overrides the default limiter. CoinGecko's free tier is
	// strict, so the default is deliberately slow.
	RateLimiter *hive.RateLimiter
	// Logger sets the logger; defaults to a no-op logger.
	Logger *zap.Logger
}

// NewClient creates a new CoinGecko client.
func NewClient(opts *ClientOptions) *Client {
	c := &Client{
		baseURL:     DefaultBaseURL,
		httpClient:  &http.Client{Timeout: httpTimeout},
		rateLimiter: hive.NewRateLimiter(0.5, 2),
		logger:      zap.NewNop(),
	}

	if opts != nil {
		if opts.BaseURL != "" {
			c.baseURL = opts.BaseURL
		}
		if opts.HTTPClient != nil {
			c.httpClient = opts.HTTPClient
		}
		if opts.RateLimiter != nil {
			c.rateLimiter = opts.RateLimiter
		}
		if opts.Logger != nil {
			c.logger = opts.Logger
		}
	}

	return c
}

// SimplePrice returns rates for asset ids against the given vs currencies.
// The result maps id -> currency -> rate.
func (c *Client) SimplePrice(ctx context.Context, ids, vsCurrencies []string) (map[string]map[string]decimal.Decimal, error) {
	if len(ids) == 0 || len(vsCurrencies) == 0 {
		return nil, snaperr.WithDetails(snaperr.ErrInvalidInput, map[string]string{
			"reason": "ids and vs currencies must be non-empty",
		})
	}

	if err := c.rateLimiter.Wait(ctx, rateLimitKey); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	params := url.Values{}
	params.Set("ids", strings.Join(ids, ","))
	params.Set("vs_currencies", strings.Join(vsCurrencies, ","))
	reqURL := fmt.Sprintf("%s/simple/price?%s", c.baseURL, params.Encode())

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, hive.WrapRetryable(fmt.Errorf("sending request: %w", err))
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return nil, hive.WrapRetryable(fmt.Errorf("reading response: %w", err))
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, snaperr.ErrRateLimited
	case resp.StatusCode >= http.StatusInternalServerError:
		return nil, hive.WrapRetryable(snaperr.WithDetails(snaperr.ErrAPIError, map[string]string{
			"status": fmt.Sprintf("%d", resp.StatusCode),
		}))
	case resp.StatusCode != http.StatusOK:
		return nil, snaperr.WithDetails(snaperr.ErrAPIError, map[string]string{
			"status": fmt.Sprintf("%d", resp.StatusCode),
		})
	}

	var rates map[string]map[string]decimal.Decimal
	if err := json.Unmarshal(body, &rates); err != nil {
		return nil, fmt.Errorf("parsing response: %w", err)
	}

	return rates, nil
}
