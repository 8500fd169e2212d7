package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/upliftnews/uplift/internal/app"
	"github.com/upliftnews/uplift/internal/config"
	"github.com/upliftnews/uplift/internal/images"
	"github.com/upliftnews/uplift/internal/logger"
	"github.com/upliftnews/uplift/internal/publish"
	"github.com/upliftnews/uplift/internal/ratelimit"
	"github.com/upliftnews/uplift/internal/rss"
	"github.com/upliftnews/uplift/internal/scraper"
	"github.com/upliftnews/uplift/internal/summary"
	"github.com/upliftnews/uplift/internal/telegram"
)

const runTimeout = 10 * time.Minute

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Error("configuration error", "error", err)
		os.Exit(1)
	}
	logger.Init(cfg.Debug)

	st, err := app.OpenStore(cfg)
	if err != nil {
		logger.Error("state store unavailable", "error", err)
		os.Exit(1)
	}

	a := &app.App{
		Config:     cfg,
		Store:      st,
		Fetcher:    rss.NewFetcher(cfg.RequestTimeout, cfg.FetchConcurrency),
		Scraper:    scraper.New(cfg.RequestTimeout),
		Summarizer: buildSummarizer(cfg),
		Images:     buildImageFinder(cfg),
		Publisher:  publish.NewClient(cfg.BlogAPIURL, cfg.BlogAPIToken, cfg.RequestTimeout),
	}

	if cfg.TelegramToken != "" {
		a.Notifier = telegram.New(cfg.TelegramToken, cfg.TelegramChatID)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	ctx, cancelTimeout := context.WithTimeout(ctx, runTimeout)
	defer cancelTimeout()

	if err := a.Run(ctx); err != nil {
		logger.Error("run failed", "error", err)
		os.Exit(1)
	}
}

func buildSummarizer(cfg *config.Config) *summary.Generator {
	limiter := ratelimit.New(24*time.Hour, 0)
	if cfg.MaxAIRequests > 0 {
		limiter.SetLimit("gemini", cfg.MaxAIRequests)
		limiter.SetLimit("openai", cfg.MaxAIRequests)
	}

	var providers []summary.Provider
	if cfg.GeminiAPIKey != "" {
		gemini, err := summary.NewGeminiProvider(cfg.GeminiAPIKey)
		if err != nil {
			logger.Warn("gemini unavailable, skipping provider", "error", err)
		} else {
			providers = append(providers, gemini)
		}
	}
	if cfg.OpenAIAPIKey != "" {
		providers = append(providers, summary.NewOpenAIProvider(cfg.OpenAIAPIKey))
	}

	return summary.NewGenerator(providers, limiter, cfg.ExcerptMaxRunes)
}

func buildImageFinder(cfg *config.Config) *images.Finder {
	names := cfg.ImageProviders
	if len(names) == 0 {
		names = []string{"openverse", "wikimedia"}
	}

	var providers []images.Provider
	for _, name := range names {
		switch name {
		case "openverse":
			providers = append(providers, images.NewOpenverse())
		case "wikimedia":
			providers = append(providers, images.NewWikimedia())
		default:
			logger.Warn("unknown image provider in config, skipping", "provider", name)
		}
	}

	return images.NewFinder(providers, nil)
}
