// Package condenser provides a client for the Hive layer-1 condenser_api:
// account balances, savings, and vesting (Hive Power) state.
package condenser

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/gadrian78/he-tokens-snapshot/internal/hive"
	snaperr "github.com/gadrian78/he-tokens-snapshot/pkg/errors"
)

// DefaultEndpoints are the public API nodes tried in order. The first
// healthy node serves the whole run; later nodes are fallbacks.
var DefaultEndpoints = []string{
	"https://api.hive.blog",
	"https://api.openhive.network",
	"https://anyx.io",
}

const (
	httpTimeout     = 15 * time.Second
	maxResponseBody = 1 << 20

	rateLimitKey = "condenser"
)

// Client queries layer-1 state over condenser_api.
type Client struct {
	endpoints   []string
	httpClient  *http.Client
	rateLimiter *hive.RateLimiter
	logger      *zap.Logger
}

// ClientOptions configures the condenser client.
type ClientOptions struct {
	// Endpoints overrides the default node list (useful for testing).
	Endpoints []string
	// HTTPClient overrides the default HTTP client.
	HTTPClient *http.Client
	// RateLimiter overrides the default limiter.
	RateLimiter *hive.RateLimiter
	// Logger sets the logger; defaults to a no-op logger.
	Logger *zap.Logger
}

// NewClient creates a new condenser_api client.
func NewClient(opts *ClientOptions) *Client {
	c := &Client{
		endpoints:   DefaultEndpoints,
		httpClient:  &http.Client{Timeout: httpTimeout},
		rateLimiter: hive.DefaultRateLimiter(),
		logger:      zap.NewNop(),
	}

	if opts != nil {
		if len(opts.Endpoints) > 0 {
			c.endpoints = opts.Endpoints
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

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	Params  any    `json:"params"`
	ID      int    `json:"id"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// call posts a JSON-RPC request, walking the endpoint list until one node
// answers. Per-endpoint failures are logged and the next node is tried;
// only when every node fails does the call surface a retryable error.
func (c *Client) call(ctx context.Context, method string, params, out any) error {
	if err := c.rateLimiter.Wait(ctx, rateLimitKey); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	reqBody, err := json.Marshal(rpcRequest{JSONRPC: "2.0", Method: method, Params: params, ID: 1})
	if err != nil {
		return fmt.Errorf("marshaling request: %w", err)
	}

	var lastErr error
	for _, endpoint := range c.endpoints {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := c.callEndpoint(ctx, endpoint, reqBody, out)
		if err == nil {
			return nil
		}
		lastErr = err
		c.logger.Debug("condenser endpoint failed, trying next",
			zap.String("endpoint", endpoint), zap.String("method", method), zap.Error(err))
	}

	return hive.WrapRetryable(fmt.Errorf("all %d endpoints failed for %s: %w",
		len(c.endpoints), method, lastErr))
}

func (c *Client) callEndpoint(ctx context.Context, endpoint string, reqBody []byte, out any) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(reqBody))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("sending request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return snaperr.WithDetails(snaperr.ErrAPIError, map[string]string{
			"endpoint": endpoint,
			"status":   fmt.Sprintf("%d", resp.StatusCode),
		})
	}

	var rpcResp rpcResponse
	if err := json.Unmarshal(body, &rpcResp); err != nil {
		return fmt.Errorf("parsing response: %w", err)
	}

	if rpcResp.Error != nil {
		return snaperr.WithDetails(snaperr.ErrAPIError, map[string]string{
			"endpoint": endpoint,
			"message":  rpcResp.Error.Message,
		})
	}

	if err := json.Unmarshal(rpcResp.Result, out); err != nil {
		return fmt.Errorf("decoding result: %w", err)
	}
	return nil
}

// Account returns the layer-1 account record, or nil if the account does
// not exist on chain.
func (c *Client) Account(ctx context.Context, account hive.Account) (*AccountInfo, error) {
	var accounts []AccountInfo
	err := c.call(ctx, "condenser_api.get_accounts", []any{[]string{account.String()}}, &accounts)
	if err != nil {
		return nil, fmt.Errorf("fetching account %s: %w", account, err)
	}
	if len(accounts) == 0 {
		return nil, nil
	}
	return &accounts[0], nil
}

// GlobalProperties returns the chain's dynamic global properties, needed
// to convert vesting shares into Hive Power.
func (c *Client) GlobalProperties(ctx context.Context) (*GlobalProperties, error) {
	var props GlobalProperties
	err := c.call(ctx, "condenser_api.get_dynamic_global_properties", []any{}, &props)
	if err != nil {
		return nil, fmt.Errorf("fetching global properties: %w", err)
	}
	return &props, nil
}
