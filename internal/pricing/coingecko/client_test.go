package coingecko

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gadrian78/he-tokens-snapshot/internal/hive"
	snaperr "github.com/gadrian78/he-tokens-snapshot/pkg/errors"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return NewClient(&ClientOptions{
		BaseURL:     server.URL,
		RateLimiter: hive.NewRateLimiter(1000, 1000),
	})
}

// TestSimplePrice verifies rate parsing and query construction.
func TestSimplePrice(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/simple/price", r.URL.Path)
		assert.Equal(t, "bitcoin,hive,hive_dollar", r.URL.Query().Get("ids"))
		assert.Equal(t, "usd", r.URL.Query().Get("vs_currencies"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"hive": {"usd": 0.2502},
			"hive_dollar": {"usd": 0.9981},
			"bitcoin": {"usd": 64123.55}
		}`))
	})

	rates, err := client.SimplePrice(context.Background(),
		[]string{IDBitcoin, IDHive, IDHiveDollar}, []string{"usd"})
	require.NoError(t, err)
	require.Len(t, rates, 3)
	assert.True(t, rates[IDHive]["usd"].Equal(decimal.RequireFromString("0.2502")))
	assert.True(t, rates[IDBitcoin]["usd"].Equal(decimal.RequireFromString("64123.55")))
}

// TestSimplePriceEmptyInput verifies input validation.
func TestSimplePriceEmptyInput(t *testing.T) {
	client := NewClient(nil)

	_, err := client.SimplePrice(context.Background(), nil, []string{"usd"})
	require.Error(t, err)
	assert.ErrorIs(t, err, snaperr.ErrInvalidInput)

	_, err = client.SimplePrice(context.Background(), []string{IDHive}, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, snaperr.ErrInvalidInput)
}

// TestSimplePriceErrorClassification verifies retryable vs terminal errors.
func TestSimplePriceErrorClassification(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		retryable bool
	}{
		{name: "rate limited", status: http.StatusTooManyRequests, retryable: true},
		{name: "server error", status: http.StatusServiceUnavailable, retryable: true},
		{name: "client error", status: http.StatusBadRequest, retryable: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
			})

			_, err := client.SimplePrice(context.Background(), []string{IDHive}, []string{"usd"})
			require.Error(t, err)
			assert.Equal(t, tt.retryable, hive.IsRetryable(err))
		})
	}
}

// TestSimplePriceMalformedBody verifies parse failures are terminal.
func TestSimplePriceMalformedBody(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	})

	_, err := client.SimplePrice(context.Background(), []string{IDHive}, []string{"usd"})
	require.Error(t, err)
	assert.False(t, hive.IsRetryable(err))
}
