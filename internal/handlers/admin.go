package handlers

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/CyberPidgi/rentiful/internal/database"
	"github.com/CyberPidgi/rentiful/internal/middleware"
	"github.com/CyberPidgi/rentiful/internal/ratelimit"
)

// StatsStore provides the admin aggregates
type StatsStore interface {
	GetStats(ctx context.Context) (*database.Stats, error)
	GetPriceDistribution(ctx context.Context) ([]database.PriceBucket, error)
}

// Reindexer rebuilds the keyword index
type Reindexer interface {
	RunReindex(ctx context.Context) (int, error)
}

// AdminHandler handles admin-related requests
type AdminHandler struct {
	store     StatsStore
	reindexer Reindexer
	limiter   *ratelimit.RateLimiter
}

// NewAdminHandler creates a new admin handler. reindexer and limiter may be
// nil.
func NewAdminHandler(store StatsStore, reindexer Reindexer, limiter *ratelimit.RateLimiter) *AdminHandler {
	return &AdminHandler{store: store, reindexer: reindexer, limiter: limiter}
}

// GetStats returns system statistics
func (h *AdminHandler) GetStats(c *gin.Context) {
	stats, err := h.store.GetStats(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// GetPriceDistribution returns listing counts per rent range
func (h *AdminHandler) GetPriceDistribution(c *gin.Context) {
	buckets, err := h.store.GetPriceDistribution(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	var total int64
	for _, b := range buckets {
		total += b.Count
	}
	c.JSON(http.StatusOK, gin.H{
		"distribution": buckets,
		"total":        total,
	})
}

// Reindex rebuilds the keyword index synchronously
func (h *AdminHandler) Reindex(c *gin.Context) {
	if h.reindexer == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "keyword search is not enabled"})
		return
	}

	log.Println("[Admin] manual reindex requested")
	start := time.Now()
	n, err := h.reindexer.RunReindex(c.Request.Context())
	if err != nil {
		log.Printf("[Admin] reindex failed: %v", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "reindex failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":     "reindex completed",
		"indexed":     n,
		"duration_ms": time.Since(start).Milliseconds(),
	})
}

// GetRateLimitStats reports the caller's current rate limit usage
func (h *AdminHandler) GetRateLimitStats(c *gin.Context) {
	if h.limiter == nil {
		c.JSON(http.StatusOK, ratelimit.Stats{Enabled: false})
		return
	}
	caller := c.GetString(middleware.ContextUserID)
	c.JSON(http.StatusOK, h.limiter.GetStats("user:"+caller))
}

// ResetRateLimits clears every caller's rate limit windows
func (h *AdminHandler) ResetRateLimits(c *gin.Context) {
	if h.limiter == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "rate limiting is not enabled"})
		return
	}
	cleared := h.limiter.Reset()
	log.Printf("[Admin] rate limits reset by=%s callers=%d", c.GetString(middleware.ContextUserID), cleared)
	c.JSON(http.StatusOK, gin.H{"message": "rate limits reset", "cleared": cleared})
}
