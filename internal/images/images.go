// Package images looks up a free illustration for a story. Providers are
// tried in configured order; a miss everywhere is reported as an error and
// the caller publishes without an image.
package images

import (
	"context"
	"time"

	"github.com/upliftnews/uplift/internal/cache"
	"github.com/upliftnews/uplift/internal/fallback"
	"github.com/upliftnews/uplift/internal/logger"
	"github.com/upliftnews/uplift/internal/metrics"
	"github.com/upliftnews/uplift/internal/ratelimit"
)

const cacheTTL = 12 * time.Hour

// Provider searches one image service and returns a direct image URL.
type Provider interface {
	Name() string
	Search(ctx context.Context, query string) (string, error)
}

// Finder chains image providers and caches their answers per query.
type Finder struct {
	providers []Provider
	limiter   *ratelimit.Limiter
	cache     *cache.Cache
}

// NewFinder builds a finder over the given providers. limiter may be nil.
func NewFinder(providers []Provider, limiter *ratelimit.Limiter) *Finder {
	return &Finder{
		providers: providers,
		limiter:   limiter,
		cache:     cache.New(),
	}
}

// Find returns an image URL for the query or an error when every provider
// came up empty.
func (f *Finder) Find(ctx context.Context, query string) (string, error) {
	key := cache.Key("image", query)
	if cached, ok := f.cache.Get(key); ok {
		return cached.(string), nil
	}

	steps := make([]fallback.Step[string], 0, len(f.providers))
	for _, p := range f.providers {
		p := p
		steps = append(steps, fallback.Step[string]{
			Name: p.Name(),
			Run: func(ctx context.Context) (string, error) {
				if f.limiter != nil {
					if err := f.limiter.Use(p.Name()); err != nil {
						return "", err
					}
				}
				return p.Search(ctx, query)
			},
		})
	}

	url, source, err := fallback.First(ctx, steps)
	if err != nil {
		return "", err
	}

	logger.Debug("image found", "provider", source, "query", query)
	metrics.Global.IncrementImagesFound()
	f.cache.Set(key, url, cacheTTL)
	return url, nil
}
