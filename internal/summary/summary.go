// Package summary turns article text into a short excerpt. AI providers
// are tried in configured order with a plain extractive summary as the
// final step, so an excerpt is always produced.
package summary

import (
	"context"
	"errors"
	"strings"

	"github.com/upliftnews/uplift/internal/fallback"
	"github.com/upliftnews/uplift/internal/logger"
	"github.com/upliftnews/uplift/internal/metrics"
	"github.com/upliftnews/uplift/internal/ratelimit"
)

// Provider produces an excerpt for one article.
type Provider interface {
	Name() string
	Summarize(ctx context.Context, title, body string) (string, error)
}

// Generator chains providers and caps excerpt length.
type Generator struct {
	providers []Provider
	limiter   *ratelimit.Limiter
	maxRunes  int
}

// NewGenerator builds a generator over the given providers. limiter may
// be nil, in which case provider calls are not budgeted.
func NewGenerator(providers []Provider, limiter *ratelimit.Limiter, maxRunes int) *Generator {
	if maxRunes <= 0 {
		maxRunes = 300
	}
	return &Generator{providers: providers, limiter: limiter, maxRunes: maxRunes}
}

// Excerpt returns a summary of the article. It never fails: when every
// AI provider is unavailable or over budget, the extractive step answers.
func (g *Generator) Excerpt(ctx context.Context, title, body string) string {
	steps := make([]fallback.Step[string], 0, len(g.providers)+1)

	for _, p := range g.providers {
		p := p
		steps = append(steps, fallback.Step[string]{
			Name: p.Name(),
			Run: func(ctx context.Context) (string, error) {
				if g.limiter != nil {
					if err := g.limiter.Use(p.Name()); err != nil {
						return "", err
					}
				}
				out, err := p.Summarize(ctx, title, body)
				if err != nil {
					return "", err
				}
				out = strings.TrimSpace(out)
				if out == "" {
					return "", errors.New("provider returned empty summary")
				}
				metrics.Global.IncrementAIRequests()
				return Truncate(out, g.maxRunes), nil
			},
		})
	}

	steps = append(steps, fallback.Step[string]{
		Name: "extractive",
		Run: func(ctx context.Context) (string, error) {
			return Extract(body, g.maxRunes), nil
		},
	})

	excerpt, source, err := fallback.First(ctx, steps)
	if err != nil {
		// Reachable only through context cancellation.
		return Extract(body, g.maxRunes)
	}

	logger.Debug("excerpt generated", "provider", source, "runes", len([]rune(excerpt)))
	return excerpt
}
