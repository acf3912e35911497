package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeTime struct{ t time.Time }

func (f *fakeTime) now() time.Time { return f.t }

func TestTokenBucketRefill(t *testing.T) {
	clock := &fakeTime{t: time.Unix(1700000000, 0)}
	tb := newTokenBucket(2, 1, clock.now)

	assert.True(t, tb.Allow())
	assert.True(t, tb.Allow())
	assert.False(t, tb.Allow())

	clock.t = clock.t.Add(1500 * time.Millisecond)
	assert.True(t, tb.Allow())
	assert.False(t, tb.Allow())

	clock.t = clock.t.Add(time.Hour)
	assert.True(t, tb.Allow())
	assert.True(t, tb.Allow())
	assert.False(t, tb.Allow(), "refill is capped at capacity")
}

func TestRateLimitMiddlewarePerOwnerAndIP(t *testing.T) {
	rl := NewRateLimiter(1, 1)
	defer rl.Stop()
	clock := &fakeTime{t: time.Unix(1700000000, 0)}
	rl.now = clock.now

	h := RateLimitMiddleware(rl)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	do := func(owner, addr, path string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.RemoteAddr = addr
		req = req.WithContext(WithOwner(req.Context(), owner))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusNoContent, do("a", "10.0.0.1:5000", "/v1/homework").Code)
	// another port from the same host shares the bucket
	limited := do("a", "10.0.0.1:5001", "/v1/homework")
	assert.Equal(t, http.StatusTooManyRequests, limited.Code)
	assert.Equal(t, "1", limited.Header().Get("Retry-After"))

	assert.Equal(t, http.StatusNoContent, do("b", "10.0.0.1:5000", "/v1/homework").Code)
	assert.Equal(t, http.StatusNoContent, do("a", "10.0.0.2:5000", "/v1/homework").Code)
	assert.Equal(t, http.StatusNoContent, do("a", "10.0.0.1:5000", "/health").Code)
}

func TestRateLimiterCleanup(t *testing.T) {
	rl := NewRateLimiter(1, 1)
	defer rl.Stop()
	clock := &fakeTime{t: time.Unix(1700000000, 0)}
	rl.now = clock.now

	rl.Allow("old")
	clock.t = clock.t.Add(20 * time.Minute)
	rl.Allow("fresh")
	rl.cleanup(10 * time.Minute)

	rl.mu.RLock()
	defer rl.mu.RUnlock()
	assert.NotContains(t, rl.buckets, "old")
	assert.Contains(t, rl.buckets, "fresh")
}
