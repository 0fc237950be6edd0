// Package engine provides a client for the Hive Engine token sidechain's
// contracts API: token balances, delegations, market metrics, and diesel
// pool state.
package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/gadrian78/he-tokens-snapshot/internal/hive"
	snaperr "github.com/gadrian78/he-tokens-snapshot/pkg/errors"
)

const (
	// DefaultBaseURL is the public Hive Engine contracts endpoint.
	DefaultBaseURL = "https://api.hive-engine.com/rpc/contracts"

	// httpTimeout is the default HTTP request timeout.
	httpTimeout = 30 * time.Second

	// maxResponseBody caps how much of a response is read (4 MB; a full
	// 1000-row page of pool or balance records fits comfortably).
	maxResponseBody = 4 << 20

	// pageLimit is the page size used for paginated table scans.
	pageLimit = 1000

	rateLimitKey = "engine"
)

// Client queries the token sidechain contracts API.
type Client struct {
	baseURL     string
	httpClient  *http.Client
	rateLimiter *hive.RateLimiter
	logger      *zap.Logger
}

// ClientOptions configures the engine client.
type ClientOptions struct {
	// BaseURL overrides the default contracts endpoint (useful for testing).
	BaseURL string
	// HTTPClient overrides the default HTTP client.
	HTTPClient *http.Client
	// RateLimiter overrides the default limiter.
	RateLimiter *hive.RateLimiter
	// Logger sets the logger; defaults to a no-op logger.
	Logger *zap.Logger
}

// NewClient creates a new contracts API client.
func NewClient(opts *ClientOptions) *Client {
	c := &Client{
		baseURL:     DefaultBaseURL,
		httpClient:  &http.Client{Timeout: httpTimeout},
		rateLimiter: hive.DefaultRateLimiter(),
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

// findParams is the parameter object of the contracts "find" method.
type findParams struct {
	Contract string         `json:"contract"`
	Table    string         `json:"table"`
	Query    map[string]any `json:"query"`
	Limit    int            `json:"limit"`
	Offset   int            `json:"offset"`
}

type rpcRequest struct {
	JSONRPC string     `json:"jsonrpc"`
	ID      int        `json:"id"`
	Method  string     `json:"method"`
	Params  findParams `json:"params"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// find runs a contracts query and decodes the result rows into out.
func (c *Client) find(ctx context.Context, contract, table string, query map[string]any, limit, offset int, out any) error {
	if err := c.rateLimiter.Wait(ctx, rateLimitKey); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	if query == nil {
		query = map[string]any{}
	}

	reqBody, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "find",
		Params:  findParams{Contract: contract, Table: table, Query: query, Limit: limit, Offset: offset},
	})
	if err != nil {
		return fmt.Errorf("marshaling request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(reqBody))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		// Transport failures (timeouts, refused connections) are worth a
		// retry at the adapter layer.
		return hive.WrapRetryable(fmt.Errorf("sending request: %w", err))
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return hive.WrapRetryable(fmt.Errorf("reading response: %w", err))
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return snaperr.WithDetails(snaperr.ErrRateLimited, map[string]string{
			"endpoint": c.baseURL,
		})
	case resp.StatusCode >= http.StatusInternalServerError:
		return hive.WrapRetryable(snaperr.WithDetails(snaperr.ErrAPIError, map[string]string{
			"status": fmt.Sprintf("%d", resp.StatusCode),
			"table":  contract + "/" + table,
		}))
	case resp.StatusCode != http.StatusOK:
		return snaperr.WithDetails(snaperr.ErrAPIError, map[string]string{
			"status": fmt.Sprintf("%d", resp.StatusCode),
			"table":  contract + "/" + table,
			"body":   truncate(string(body), 512),
		})
	}

	var rpcResp rpcResponse
	if err := json.Unmarshal(body, &rpcResp); err != nil {
		return fmt.Errorf("parsing response: %w", err)
	}

	if rpcResp.Error != nil {
		return snaperr.WithDetails(snaperr.ErrAPIError, map[string]string{
			"message": rpcResp.Error.Message,
			"table":   contract + "/" + table,
		})
	}

	// "find" returns null when no rows match; leave out at its zero value.
	if len(rpcResp.Result) == 0 || string(rpcResp.Result) == "null" {
		return nil
	}

	if err := json.Unmarshal(rpcResp.Result, out); err != nil {
		return fmt.Errorf("decoding %s/%s rows: %w", contract, table, err)
	}
	return nil
}

// Balances returns all token balance rows for an account.
func (c *Client) Balances(ctx context.Context, account hive.Account) ([]Balance, error) {
	var rows []Balance
	err := c.find(ctx, contractTokens, tableBalances,
		map[string]any{"account": account.String()}, pageLimit, 0, &rows)
	if err != nil {
		return nil, fmt.Errorf("fetching balances for %s: %w", account, err)
	}
	return rows, nil
}

// Delegations returns the account's outgoing token delegations.
func (c *Client) Delegations(ctx context.Context, account hive.Account) ([]Delegation, error) {
	var rows []Delegation
	err := c.find(ctx, contractTokens, tableDelegations,
		map[string]any{"from": account.String()}, pageLimit, 0, &rows)
	if err != nil {
		return nil, fmt.Errorf("fetching delegations for %s: %w", account, err)
	}
	return rows, nil
}

// Metrics returns the internal market metrics for one symbol, or nil if
// the symbol has no market.
func (c *Client) Metrics(ctx context.Context, symbol hive.Symbol) (*MarketMetrics, error) {
	var rows []MarketMetrics
	err := c.find(ctx, contractMarket, tableMetrics,
		map[string]any{"symbol": symbol.String()}, 1, 0, &rows)
	if err != nil {
		return nil, fmt.Errorf("fetching market metrics for %s: %w", symbol, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

// LiquidityPositions returns the account's diesel pool share positions.
func (c *Client) LiquidityPositions(ctx context.Context, account hive.Account) ([]LiquidityPosition, error) {
	var rows []LiquidityPosition
	err := c.find(ctx, contractMarketPools, tableLiquidityPositions,
		map[string]any{"account": account.String()}, pageLimit, 0, &rows)
	if err != nil {
		return nil, fmt.Errorf("fetching liquidity positions for %s: %w", account, err)
	}
	return rows, nil
}

// Pool returns reserve state for a pool identified by its token pair
// ("BASE:QUOTE"). When the tokenPair query comes back empty it falls back
// to a base/quote symbol query; some pools are only reachable that way.
func (c *Client) Pool(ctx context.Context, tokenPair string) (*Pool, error) {
	var rows []Pool
	err := c.find(ctx, contractMarketPools, tablePools,
		map[string]any{"tokenPair": tokenPair}, 1, 0, &rows)
	if err != nil {
		return nil, fmt.Errorf("fetching pool %s: %w", tokenPair, err)
	}
	if len(rows) > 0 {
		return &rows[0], nil
	}

	base, quote, ok := strings.Cut(tokenPair, ":")
	if !ok {
		return nil, snaperr.WithDetails(snaperr.ErrInvalidInput, map[string]string{
			"tokenPair": tokenPair,
			"reason":    "expected BASE:QUOTE",
		})
	}

	err = c.find(ctx, contractMarketPools, tablePools,
		map[string]any{"baseSymbol": base, "quoteSymbol": quote}, 1, 0, &rows)
	if err != nil {
		return nil, fmt.Errorf("fetching pool %s by symbols: %w", tokenPair, err)
	}
	if len(rows) == 0 {
		return nil, snaperr.WithDetails(snaperr.ErrPoolNotFound, map[string]string{
			"tokenPair": tokenPair,
		})
	}
	return &rows[0], nil
}

// Tokens returns every registered token symbol, paging through the full
// registry. Used to validate requested symbols before a run.
func (c *Client) Tokens(ctx context.Context) (map[hive.Symbol]struct{}, error) {
	symbols := make(map[hive.Symbol]struct{})

	for offset := 0; ; offset += pageLimit {
		var rows []Token
		err := c.find(ctx, contractTokens, tableTokens, nil, pageLimit, offset, &rows)
		if err != nil {
			return nil, fmt.Errorf("fetching token registry: %w", err)
		}
		if len(rows) == 0 {
			break
		}
		for _, row := range rows {
			symbols[hive.Symbol(row.Symbol)] = struct{}{}
		}
		if len(rows) < pageLimit {
			break
		}
	}

	return symbols, nil
}

// truncate shortens a string to maxLen characters.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
