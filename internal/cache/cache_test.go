package cache

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gadrian78/he-tokens-snapshot/internal/metrics"
)

var errCompute = errors.New("compute failed")

// fakeClock is a manually advanced time source.
type fakeClock struct {
	t time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2025, 7, 14, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

type balancePayload struct {
	Symbol string `json:"symbol"`
	Amount string `json:"amount"`
}

func TestLookupFreshEntrySkipsCompute(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	store := New(WithClock(clock.Now))
	ctx := context.Background()

	calls := 0
	compute := func(context.Context) (balancePayload, error) {
		calls++
		return balancePayload{Symbol: "LEO", Amount: "10.5"}, nil
	}

	first, err := Lookup(ctx, store, "balances:leo", 15*time.Minute, compute)
	require.NoError(t, err)
	assert.Equal(t, 1, calls)

	// 5 minutes later the entry is still fresh: compute must not run.
	clock.Advance(5 * time.Minute)
	second, err := Lookup(ctx, store, "balances:leo", 15*time.Minute, compute)
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, first, second)
}

func TestLookupExpiredEntryRecomputes(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	store := New(WithClock(clock.Now))
	ctx := context.Background()

	calls := 0
	compute := func(context.Context) (int, error) {
		calls++
		return calls, nil
	}

	v, err := Lookup(ctx, store, "k", 15*time.Minute, compute)
	require.NoError(t, err)
	assert.Equal(t, 1, v)

	// Past the TTL the stale value must not be reused.
	clock.Advance(16 * time.Minute)
	v, err = Lookup(ctx, store, "k", 15*time.Minute, compute)
	require.NoError(t, err)
	assert.Equal(t, 2, v)
	assert.Equal(t, 2, calls)
}

func TestLookupComputeFailureStoresNothing(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	store := New(WithClock(clock.Now))
	ctx := context.Background()

	_, err := Lookup(ctx, store, "k", time.Minute, func(context.Context) (int, error) {
		return 0, errCompute
	})
	require.ErrorIs(t, err, errCompute)
	assert.Zero(t, store.Size())

	// A stale entry is not served as a fallback when compute fails.
	_, err = Lookup(ctx, store, "k", time.Minute, func(context.Context) (int, error) {
		return 7, nil
	})
	require.NoError(t, err)
	clock.Advance(2 * time.Minute)
	_, err = Lookup(ctx, store, "k", time.Minute, func(context.Context) (int, error) {
		return 0, errCompute
	})
	require.ErrorIs(t, err, errCompute)
}

func TestLookupIndependentKeys(t *testing.T) {
	t.Parallel()

	store := New()
	ctx := context.Background()

	for _, key := range []string{"price:LEO", "price:SPS"} {
		key := key
		_, err := Lookup(ctx, store, key, time.Minute, func(context.Context) (string, error) {
			return key, nil
		})
		require.NoError(t, err)
	}
	assert.Equal(t, 2, store.Size())
}

func TestLookupRecordsMetrics(t *testing.T) {
	t.Parallel()

	m := metrics.New()
	store := New(WithMetrics(m))
	ctx := context.Background()

	compute := func(context.Context) (int, error) { return 1, nil }

	_, err := Lookup(ctx, store, "k", time.Minute, compute)
	require.NoError(t, err)
	_, err = Lookup(ctx, store, "k", time.Minute, compute)
	require.NoError(t, err)

	snap := m.Snapshot()
	assert.Equal(t, int64(1), snap.CacheMisses)
	assert.Equal(t, int64(1), snap.CacheHits)
}

func TestPruneExpired(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	store := New(WithClock(clock.Now))
	ctx := context.Background()

	_, err := Lookup(ctx, store, "short", time.Minute, func(context.Context) (int, error) { return 1, nil })
	require.NoError(t, err)
	_, err = Lookup(ctx, store, "long", time.Hour, func(context.Context) (int, error) { return 2, nil })
	require.NoError(t, err)

	clock.Advance(10 * time.Minute)
	assert.Equal(t, 1, store.PruneExpired())
	assert.Equal(t, 1, store.Size())
}

func TestOpenRoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "alice.json")
	clock := newFakeClock()
	ctx := context.Background()

	store := Open(path, WithClock(clock.Now))
	calls := 0
	compute := func(context.Context) (balancePayload, error) {
		calls++
		return balancePayload{Symbol: "SPS", Amount: "3"}, nil
	}

	_, err := Lookup(ctx, store, "balances:sps", 15*time.Minute, compute)
	require.NoError(t, err)
	require.Equal(t, 1, calls)

	// A fresh process sees the persisted entry and skips compute.
	reopened := Open(path, WithClock(clock.Now))
	got, err := Lookup(ctx, reopened, "balances:sps", 15*time.Minute, compute)
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, "SPS", got.Symbol)
}

func TestSymbolSetHash(t *testing.T) {
	t.Parallel()

	a := SymbolSetHash([]string{"LEO", "SPS", "DEC"})
	b := SymbolSetHash([]string{"SPS", "DEC", "LEO"})
	c := SymbolSetHash([]string{"LEO", "SPS"})

	assert.Equal(t, a, b, "order must not matter")
	assert.NotEqual(t, a, c)
	assert.Len(t, a, 16)
}

func TestKey(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "layer1", Key("layer1"))
	assert.Equal(t, "price:LEO", Key("price", "LEO"))
	assert.Equal(t, "balances:alice:abc", Key("balances", "alice", "abc"))
}
