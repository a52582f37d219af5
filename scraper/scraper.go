// Package scraper defines the contract every social source integration
// satisfies: Fetch never fails, it degrades. The aggregator relies on this
// and carries no per-source error handling.
package scraper

import (
	"context"
	"net/http"

	"golang.org/x/time/rate"

	"sentiflow/config"
	"sentiflow/models"
)

// Fallback identifies which degrade path, if any, produced a result.
type Fallback string

const (
	// FallbackNone means live provider data.
	FallbackNone Fallback = "none"
	// FallbackEmpty means the source degraded to an empty post list.
	FallbackEmpty Fallback = "empty"
	// FallbackPlaceholder means the source degraded to templated
	// synthetic posts.
	FallbackPlaceholder Fallback = "placeholder"
)

// Result is the outcome of one fetch. The Fallback marker makes the
// degrade path observable to callers and tests instead of being silently
// absorbed.
type Result struct {
	Posts    []models.SocialPost
	Fallback Fallback
}

// Degraded reports whether any fallback path produced this result. The
// zero value counts as live data.
func (r Result) Degraded() bool {
	return r.Fallback == FallbackEmpty || r.Fallback == FallbackPlaceholder
}

// Scraper fetches normalized posts mentioning a ticker. Implementations
// must never return an error: on any failure they apply their documented
// fallback policy and report it through Result.Fallback.
type Scraper interface {
	Name() string
	Fetch(ctx context.Context, ticker string, limit int) Result
}

// NewHTTPClient builds the bounded-timeout HTTP client shared by the
// scrapers. The timeout is the per-adapter stall bound: a provider that
// exceeds it fails that fetch and triggers the source's fallback policy
// without holding the whole aggregation open.
func NewHTTPClient(cfg config.ScraperConfig) *http.Client {
	return &http.Client{Timeout: cfg.Timeout()}
}

// NewLimiter builds the client-side rate limiter scrapers apply before
// each upstream call.
func NewLimiter(cfg config.RateLimitConfig) *rate.Limiter {
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 5
	}
	burst := cfg.BurstSize
	if burst <= 0 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(rps), burst)
}
