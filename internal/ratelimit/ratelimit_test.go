package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/CyberPidgi/rentiful/internal/config"
)

type fakeClock struct{ t time.Time }

func (f *fakeClock) now() time.Time          { return f.t }
func (f *fakeClock) advance(d time.Duration) { f.t = f.t.Add(d) }

func newLimiter(perMinute, perHour int) (*RateLimiter, *fakeClock) {
	clock := &fakeClock{t: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	rl := NewRateLimiter(config.RateLimitConfig{
		Enabled:           true,
		RequestsPerMinute: perMinute,
		RequestsPerHour:   perHour,
	})
	rl.now = clock.now
	return rl, clock
}

func TestAllowPerMinute(t *testing.T) {
	rl, clock := newLimiter(2, 0)

	assert.True(t, rl.Allow("a"))
	assert.True(t, rl.Allow("a"))
	assert.False(t, rl.Allow("a"))
	assert.True(t, rl.Allow("b"), "keys are independent")

	clock.advance(61 * time.Second)
	assert.True(t, rl.Allow("a"))
}

func TestAllowPerHour(t *testing.T) {
	rl, clock := newLimiter(10, 3)

	for i := 0; i < 3; i++ {
		assert.True(t, rl.Allow("a"))
		clock.advance(2 * time.Minute)
	}
	assert.False(t, rl.Allow("a"))

	stats := rl.GetStats("a")
	assert.Equal(t, 3, stats.RequestsLastHour)
	assert.Equal(t, 0, stats.RemainingThisHour)

	clock.advance(time.Hour)
	assert.True(t, rl.Allow("a"))
}

func TestResetUnblocksCallers(t *testing.T) {
	rl, _ := newLimiter(1, 0)

	assert.True(t, rl.Allow("a"))
	assert.True(t, rl.Allow("b"))
	assert.False(t, rl.Allow("a"))

	assert.Equal(t, 2, rl.Reset())
	assert.True(t, rl.Allow("a"))
	assert.Equal(t, 1, rl.GetStats("a").RequestsLastMinute)
}

func TestDisabledAllowsEverything(t *testing.T) {
	rl := NewRateLimiter(config.RateLimitConfig{Enabled: false, RequestsPerMinute: 1})
	for i := 0; i < 5; i++ {
		assert.True(t, rl.Allow("a"))
	}
	assert.False(t, rl.GetStats("a").Enabled)
}

func TestPrune(t *testing.T) {
	rl, clock := newLimiter(5, 0)
	rl.Allow("old")
	clock.advance(90 * time.Minute)
	rl.Allow("new")

	assert.Equal(t, 1, rl.Prune())
	assert.Equal(t, 1, rl.GetStats("new").TrackedCallers)
}

func TestMiddlewareReturns429(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rl, _ := newLimiter(1, 0)
	r := gin.New()
	r.POST("/", rl.Middleware(), func(c *gin.Context) { c.Status(http.StatusNoContent) })

	send := func() *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/", nil))
		return w
	}

	assert.Equal(t, http.StatusNoContent, send().Code)
	w := send()
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "60", w.Header().Get("Retry-After"))
}
