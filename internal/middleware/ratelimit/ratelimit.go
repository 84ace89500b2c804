// Package ratelimit throttles requests per client with token buckets.
package ratelimit

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

type Config struct {
	// RequestsPerMinute is the sustained rate; zero disables limiting.
	RequestsPerMinute int
	// Burst defaults to RequestsPerMinute.
	Burst int
	// IdleTTL is how long an idle client's bucket is kept.
	IdleTTL time.Duration
}

func DefaultConfig() Config {
	return Config{RequestsPerMinute: 120, IdleTTL: 10 * time.Minute}
}

// Limiter keeps one bucket per client key.
type Limiter struct {
	mu      sync.Mutex
	clients map[string]*client
	limit   rate.Limit
	burst   int
	idleTTL time.Duration
	now     func() time.Time
	hits    atomic.Int64
}

type client struct {
	bucket   *rate.Limiter
	lastSeen time.Time
}

func NewLimiter(config Config) *Limiter {
	if config.IdleTTL <= 0 {
		config.IdleTTL = 10 * time.Minute
	}
	if config.Burst <= 0 {
		config.Burst = config.RequestsPerMinute
	}
	l := &Limiter{
		clients: make(map[string]*client),
		limit:   rate.Inf,
		burst:   config.Burst,
		idleTTL: config.IdleTTL,
		now:     time.Now,
	}
	if config.RequestsPerMinute > 0 {
		l.limit = rate.Every(time.Minute / time.Duration(config.RequestsPerMinute))
	}
	return l
}

// Allow consumes one token for key.
func (l *Limiter) Allow(key string) bool {
	if l.limit == rate.Inf {
		return true
	}
	l.mu.Lock()
	now := l.now()
	c, ok := l.clients[key]
	if !ok {
		c = &client{bucket: rate.NewLimiter(l.limit, l.burst)}
		l.clients[key] = c
	}
	c.lastSeen = now
	l.mu.Unlock()

	if c.bucket.AllowN(now, 1) {
		return true
	}
	l.hits.Add(1)
	return false
}

// Cleanup drops buckets idle for longer than IdleTTL.
func (l *Limiter) Cleanup() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	cutoff := l.now().Add(-l.idleTTL)
	n := 0
	for key, c := range l.clients {
		if c.lastSeen.Before(cutoff) {
			delete(l.clients, key)
			n++
		}
	}
	return n
}

// Start runs Cleanup on interval until ctx is done.
func (l *Limiter) Start(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				l.Cleanup()
			case <-ctx.Done():
				return
			}
		}
	}()
}

func (l *Limiter) ActiveClients() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.clients)
}

// Hits is the number of rejected requests so far.
func (l *Limiter) Hits() int64 {
	return l.hits.Load()
}

// Middleware rejects over-limit requests with onLimit, or a plain 429.
func (l *Limiter) Middleware(extractKey func(*http.Request) string, onLimit func(http.ResponseWriter, *http.Request)) func(http.Handler) http.Handler {
	retryAfter := "1"
	if l.limit != rate.Inf && l.limit > 0 {
		retryAfter = strconv.Itoa(max(1, int(time.Duration(float64(time.Second)/float64(l.limit)).Seconds())))
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !l.Allow(extractKey(r)) {
				w.Header().Set("Retry-After", retryAfter)
				if onLimit != nil {
					onLimit(w, r)
				} else {
					http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
				}
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
