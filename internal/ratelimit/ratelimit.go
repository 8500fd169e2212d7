package ratelimit

import (
	"fmt"
	"sync"
	"time"

	"github.com/upliftnews/uplift/internal/logger"
)

// Limiter tracks per-provider request budgets over a rolling window. Outbound
// API providers (summarizers, image search) share one limiter so a single run
// cannot burn through the daily quota of every service at once.
type Limiter struct {
	mu        sync.Mutex
	limits    map[string]int
	used      map[string]int
	maxTotal  int
	totalUsed int
	window    time.Duration
	resetTime time.Time
}

// New creates a limiter that resets its counters every window. maxTotal caps
// requests across all providers combined; 0 means unlimited.
func New(window time.Duration, maxTotal int) *Limiter {
	return &Limiter{
		limits:    make(map[string]int),
		used:      make(map[string]int),
		maxTotal:  maxTotal,
		window:    window,
		resetTime: time.Now().Add(window),
	}
}

// SetLimit caps requests for one provider within the window; 0 means unlimited.
func (l *Limiter) SetLimit(provider string, max int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.limits[provider] = max
}

// Allow reports whether the provider has budget left without consuming any.
func (l *Limiter) Allow(provider string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.checkReset()

	if max := l.limits[provider]; max > 0 && l.used[provider] >= max {
		logger.Warn("provider rate limit reached", "provider", provider, "used", l.used[provider], "limit", max)
		return false
	}

	if l.maxTotal > 0 && l.totalUsed >= l.maxTotal {
		logger.Warn("total rate limit reached", "used", l.totalUsed, "limit", l.maxTotal)
		return false
	}

	return true
}

// Use consumes one request from the provider's budget.
func (l *Limiter) Use(provider string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.checkReset()

	if max := l.limits[provider]; max > 0 && l.used[provider] >= max {
		return fmt.Errorf("%s rate limit exceeded", provider)
	}

	if l.maxTotal > 0 && l.totalUsed >= l.maxTotal {
		return fmt.Errorf("total rate limit exceeded")
	}

	l.used[provider]++
	l.totalUsed++

	return nil
}

// GetStats returns current usage counters.
func (l *Limiter) GetStats() map[string]interface{} {
	l.mu.Lock()
	defer l.mu.Unlock()

	stats := map[string]interface{}{
		"total_used":  l.totalUsed,
		"total_limit": l.maxTotal,
		"reset_time":  l.resetTime,
	}
	for provider, used := range l.used {
		stats[provider+"_used"] = used
		stats[provider+"_limit"] = l.limits[provider]
	}
	return stats
}

func (l *Limiter) checkReset() {
	if time.Now().After(l.resetTime) {
		logger.Debug("resetting rate limiter counters")
		l.used = make(map[string]int)
		l.totalUsed = 0
		l.resetTime = time.Now().Add(l.window)
	}
}
