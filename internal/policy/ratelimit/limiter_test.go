package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLimiterWaitsBetweenRequests(t *testing.T) {
	l := New(Config{RPS: 10, Burst: 1})
	ctx := context.Background()

	require.NoError(t, l.Wait(ctx, "https://news.detik.com/a"))

	start := time.Now()
	require.NoError(t, l.Wait(ctx, "https://news.detik.com/b"))
	require.GreaterOrEqual(t, time.Since(start), 80*time.Millisecond)
}

func TestLimiterSeparatesHosts(t *testing.T) {
	l := New(Config{RPS: 1, Burst: 1})
	ctx := context.Background()

	require.NoError(t, l.Wait(ctx, "https://a.test/1"))
	start := time.Now()
	require.NoError(t, l.Wait(ctx, "https://b.test/1"))
	require.Less(t, time.Since(start), 50*time.Millisecond)
}

func TestLimiterDisabledWhenRateUnset(t *testing.T) {
	l := New(Config{})
	ctx := context.Background()
	start := time.Now()
	for range 20 {
		require.NoError(t, l.Wait(ctx, "https://a.test/x"))
	}
	require.Less(t, time.Since(start), 50*time.Millisecond)
}

func TestLimiterHonorsContext(t *testing.T) {
	l := New(Config{RPS: 0.1, Burst: 1})
	require.NoError(t, l.Wait(context.Background(), "https://a.test/x"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.Error(t, l.Wait(ctx, "https://a.test/y"))
}

func TestLimiterKeysBucketsByNormalizedHost(t *testing.T) {
	l := New(Config{RPS: 0.1, Burst: 1})
	ctx := context.Background()

	require.NoError(t, l.Wait(ctx, "https://News.Detik.com/a"))
	require.NoError(t, l.Wait(ctx, "https://other.test/a"))

	l.mu.Lock()
	_, mixedCase := l.limiters["News.Detik.com"]
	_, lower := l.limiters["news.detik.com"]
	count := len(l.limiters)
	l.mu.Unlock()
	require.False(t, mixedCase)
	require.True(t, lower)
	require.Equal(t, 2, count)

	// Same host in a different case shares the exhausted bucket.
	waitCtx, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
	defer cancel()
	require.Error(t, l.Wait(waitCtx, "https://news.detik.com/b"))
}
