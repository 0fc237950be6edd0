package hive

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimiterAllow(t *testing.T) {
	t.Parallel()

	rl := NewRateLimiter(1, 2)

	// Burst of 2 is available immediately, the third request is limited.
	assert.True(t, rl.Allow("engine"))
	assert.True(t, rl.Allow("engine"))
	assert.False(t, rl.Allow("engine"))

	// Endpoints have independent buckets.
	assert.True(t, rl.Allow("coingecko"))
}

func TestRateLimiterWait(t *testing.T) {
	t.Parallel()

	rl := NewRateLimiter(100, 1)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	require.NoError(t, rl.Wait(ctx, "engine"))
	require.NoError(t, rl.Wait(ctx, "engine"))
}

func TestRateLimiterWaitCanceled(t *testing.T) {
	t.Parallel()

	rl := NewRateLimiter(0.001, 1)
	assert.True(t, rl.Allow("engine"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Error(t, rl.Wait(ctx, "engine"))
}
