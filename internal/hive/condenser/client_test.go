package condenser

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gadrian78/he-tokens-snapshot/internal/hive"
)

const aliceAccountJSON = `{
	"name": "alice",
	"balance": "52.161 HIVE",
	"savings_balance": "10.000 HIVE",
	"hbd_balance": "11.952 HBD",
	"savings_hbd_balance": "100.000 HBD",
	"vesting_shares": "119820.562157 VESTS",
	"delegated_vesting_shares": "0.000000 VESTS",
	"received_vesting_shares": "500.000000 VESTS"
}`

func condenserHandler(t *testing.T) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Method string `json:"method"`
			Params []any  `json:"params"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		switch req.Method {
		case "condenser_api.get_accounts":
			names, _ := req.Params[0].([]any)
			if len(names) == 1 && names[0] == "alice" {
				fmt.Fprintf(w, `{"jsonrpc":"2.0","id":1,"result":[%s]}`, aliceAccountJSON)
				return
			}
			fmt.Fprint(w, `{"jsonrpc":"2.0","id":1,"result":[]}`)
		case "condenser_api.get_dynamic_global_properties":
			fmt.Fprint(w, `{"jsonrpc":"2.0","id":1,"result":{
				"total_vesting_fund_hive": "180000000.000 HIVE",
				"total_vesting_shares": "300000000000.000000 VESTS"
			}}`)
		default:
			fmt.Fprint(w, `{"jsonrpc":"2.0","id":1,"error":{"code":-32601,"message":"unknown method"}}`)
		}
	}
}

func newTestClient(t *testing.T, endpoints ...string) *Client {
	t.Helper()
	return NewClient(&ClientOptions{
		Endpoints:   endpoints,
		RateLimiter: hive.NewRateLimiter(1000, 1000),
	})
}

func TestAccount(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(condenserHandler(t))
	t.Cleanup(srv.Close)
	c := newTestClient(t, srv.URL)

	t.Run("existing account", func(t *testing.T) {
		info, err := c.Account(context.Background(), "alice")
		require.NoError(t, err)
		require.NotNil(t, info)
		assert.Equal(t, "alice", info.Name)
		assert.True(t, info.SavingsBalance.Amount.Equal(decimal.NewFromInt(10)))
		assert.True(t, info.ReceivedVestingShares.Amount.Equal(decimal.NewFromInt(500)))
	})

	t.Run("unknown account is nil, not an error", func(t *testing.T) {
		info, err := c.Account(context.Background(), "bob")
		require.NoError(t, err)
		assert.Nil(t, info)
	})
}

func TestGlobalProperties(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(condenserHandler(t))
	t.Cleanup(srv.Close)
	c := newTestClient(t, srv.URL)

	props, err := c.GlobalProperties(context.Background())
	require.NoError(t, err)
	assert.True(t, props.TotalVestingFundHive.Amount.Equal(decimal.NewFromInt(180000000)))
}

func TestEndpointFallback(t *testing.T) {
	t.Parallel()

	var badCalls atomic.Int64
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		badCalls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	t.Cleanup(bad.Close)

	good := httptest.NewServer(condenserHandler(t))
	t.Cleanup(good.Close)

	c := newTestClient(t, bad.URL, good.URL)

	info, err := c.Account(context.Background(), "alice")
	require.NoError(t, err)
	require.NotNil(t, info)
	assert.Equal(t, int64(1), badCalls.Load())
}

func TestAllEndpointsFailing(t *testing.T) {
	t.Parallel()

	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	t.Cleanup(bad.Close)

	c := newTestClient(t, bad.URL, bad.URL)

	_, err := c.Account(context.Background(), "alice")
	require.Error(t, err)
	assert.True(t, hive.IsRetryable(err))
}
