package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func newTestLimiter(rpm int) (*Limiter, *time.Time) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	l := NewLimiter(Config{RequestsPerMinute: rpm, IdleTTL: time.Minute})
	l.now = func() time.Time { return now }
	return l, &now
}

func TestLimiter_Allow(t *testing.T) {
	l, now := newTestLimiter(2)

	assert.True(t, l.Allow("a"))
	assert.True(t, l.Allow("a"))
	assert.False(t, l.Allow("a"), "burst exhausted")
	assert.True(t, l.Allow("b"), "clients are independent")
	assert.Equal(t, int64(1), l.Hits())

	*now = now.Add(30 * time.Second)
	assert.True(t, l.Allow("a"), "one token refilled after half a minute")
	assert.False(t, l.Allow("a"))
}

func TestLimiter_Disabled(t *testing.T) {
	l := NewLimiter(Config{})
	for i := 0; i < 1000; i++ {
		assert.True(t, l.Allow("a"))
	}
	assert.Zero(t, l.ActiveClients())
}

func TestLimiter_Cleanup(t *testing.T) {
	l, now := newTestLimiter(10)
	l.Allow("a")
	*now = now.Add(45 * time.Second)
	l.Allow("b")
	*now = now.Add(30 * time.Second)

	assert.Equal(t, 1, l.Cleanup())
	assert.Equal(t, 1, l.ActiveClients())
}

func TestLimiter_Middleware(t *testing.T) {
	l, _ := newTestLimiter(1)
	h := l.Middleware(func(*http.Request) string { return "k" }, nil)(
		http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNoContent) }))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
}
