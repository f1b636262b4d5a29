package http_utils

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	UPPER_THRESHOLD = 2   // 2 seconds
	LOWER_THRESHOLD = 0.3 // 300 milliseconds
	MIN_RATE        = 1   // 1 request per second
)

// HostRateLimiter throttles the requests sent to a single host, slowing down when the
// host answers slowly and speeding up (up to the configured rate) when it is fast
type HostRateLimiter struct {
	hostName               string
	maxRate                float64
	tokenBucket            *TokenBucket
	rollingAvgResponseTime float64
	numResponses           int64
	mu                     sync.Mutex
}

func NewHostRateLimiter(hostName string, rate float64, maxTokens float64) *HostRateLimiter {
	return &HostRateLimiter{
		hostName:    hostName,
		maxRate:     rate,
		tokenBucket: NewTokenBucket(rate, maxTokens, MIN_RATE),
	}
}

// Wait blocks until the host accepts another request
func (h *HostRateLimiter) Wait(ctx context.Context) error {
	return h.tokenBucket.Wait(ctx)
}

// RecordResponseTime feeds the rolling average used to adapt the rate
func (h *HostRateLimiter) RecordResponseTime(responseTime float64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.rollingAvgResponseTime = (h.rollingAvgResponseTime*float64(h.numResponses) + responseTime) / float64(h.numResponses+1)
	h.numResponses++

	rate := h.tokenBucket.Rate()
	if h.rollingAvgResponseTime > UPPER_THRESHOLD {
		h.tokenBucket.AdjustRate(rate * 0.9)
		log.Debug().Float64("avg_response_time", h.rollingAvgResponseTime).Str("host", h.hostName).Float64("rate", h.tokenBucket.Rate()).Msg("Reducing request rate")
	} else if h.rollingAvgResponseTime < LOWER_THRESHOLD && rate < h.maxRate {
		newRate := rate * 1.1
		if newRate > h.maxRate {
			newRate = h.maxRate
		}
		h.tokenBucket.AdjustRate(newRate)
	}
}

// RateLimiter keeps one HostRateLimiter per host
type RateLimiter struct {
	rate  float64
	burst float64
	hosts map[string]*HostRateLimiter
	mu    sync.Mutex
}

// NewRateLimiter allows up to rate requests per second per host, with bursts of burst requests
func NewRateLimiter(rate float64, burst int) *RateLimiter {
	if burst < 1 {
		burst = 1
	}
	return &RateLimiter{
		rate:  rate,
		burst: float64(burst),
		hosts: make(map[string]*HostRateLimiter),
	}
}

func (r *RateLimiter) host(name string) *HostRateLimiter {
	r.mu.Lock()
	defer r.mu.Unlock()
	limiter, ok := r.hosts[name]
	if !ok {
		limiter = NewHostRateLimiter(name, r.rate, r.burst)
		r.hosts[name] = limiter
	}
	return limiter
}

// Wait blocks until a request to host can be sent
func (r *RateLimiter) Wait(ctx context.Context, host string) error {
	return r.host(host).Wait(ctx)
}

// Record registers how long host took to answer
func (r *RateLimiter) Record(host string, duration time.Duration) {
	r.host(host).RecordResponseTime(duration.Seconds())
}
