package http_utils

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	DEFAULT_MAXTOKENS = 100.0
	DEFAULT_RATE      = 10.0
)

func TestTokenBucketInitialization(t *testing.T) {
	tb := NewTokenBucket(DEFAULT_RATE, DEFAULT_MAXTOKENS, 0) // Using 0 to get default minRate
	assert.Equal(t, float64(DEFAULT_MAXTOKENS), tb.tokens)
	assert.Equal(t, float64(MIN_RATE), tb.minRate)

	tbWithMinRate := NewTokenBucket(DEFAULT_RATE, DEFAULT_MAXTOKENS, 2.0)
	assert.Equal(t, float64(2.0), tbWithMinRate.minRate)
}

func TestTokenConsumption(t *testing.T) {
	tb := NewTokenBucket(DEFAULT_RATE, DEFAULT_MAXTOKENS, 0)
	assert.True(t, tb.HasToken())
	assert.InDelta(t, DEFAULT_MAXTOKENS-1, tb.tokens, 0.1)
}

func TestTokenBucketEmpty(t *testing.T) {
	tb := NewTokenBucket(1, 1, 0)
	assert.True(t, tb.HasToken())
	assert.False(t, tb.HasToken())
}

func TestRateAdjustment(t *testing.T) {
	tb := NewTokenBucket(DEFAULT_RATE, DEFAULT_MAXTOKENS, 0)

	tb.AdjustRate(5.0)
	assert.Equal(t, 5.0, tb.Rate())

	// Below minRate
	tb.AdjustRate(0.5)
	assert.Equal(t, tb.minRate, tb.Rate())
}

func TestTokenBucketWaitRefills(t *testing.T) {
	tb := NewTokenBucket(20, 1, 0)
	require.True(t, tb.HasToken())

	start := time.Now()
	require.NoError(t, tb.Wait(context.Background()))
	assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
}

func TestTokenBucketWaitHonoursContext(t *testing.T) {
	tb := NewTokenBucket(1, 1, 0)
	require.True(t, tb.HasToken())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := tb.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
