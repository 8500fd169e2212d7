// Package rss downloads the configured feeds and maps their entries to
// news items. One broken feed never takes the run down with it.
package rss

import (
	"context"
	"sync"
	"time"

	"github.com/mmcdole/gofeed"
	"golang.org/x/sync/errgroup"

	"github.com/upliftnews/uplift/internal/config"
	"github.com/upliftnews/uplift/internal/logger"
	"github.com/upliftnews/uplift/internal/metrics"
	"github.com/upliftnews/uplift/internal/news"
)

// Fetcher downloads feeds with a bounded number of parallel requests.
type Fetcher struct {
	timeout       time.Duration
	maxConcurrent int
}

func NewFetcher(timeout time.Duration, maxConcurrent int) *Fetcher {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	return &Fetcher{timeout: timeout, maxConcurrent: maxConcurrent}
}

// FetchAll downloads every source feed and returns the combined items.
// Feed failures are logged and counted but never returned: a source that
// is down contributes zero items and the run continues.
func (f *Fetcher) FetchAll(ctx context.Context, sources []config.Source) []news.Item {
	var (
		mu    sync.Mutex
		items []news.Item
	)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(f.maxConcurrent)

	for _, src := range sources {
		src := src
		g.Go(func() error {
			fetched, err := f.fetchOne(ctx, src)
			if err != nil {
				logger.Warn("feed fetch failed", "source", src.Name, "url", src.URL, "error", err)
				metrics.Global.IncrementFeedErrors()
				return nil
			}

			metrics.Global.IncrementFeedsFetched()
			logger.Debug("feed fetched", "source", src.Name, "items", len(fetched))

			mu.Lock()
			items = append(items, fetched...)
			mu.Unlock()
			return nil
		})
	}

	// Tasks return nil even on failure, so Wait cannot error here.
	g.Wait()

	metrics.Global.AddItemsCollected(len(items))
	logger.Info("feeds fetched", "sources", len(sources), "items", len(items))
	return items
}

func (f *Fetcher) fetchOne(ctx context.Context, src config.Source) ([]news.Item, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	parser := gofeed.NewParser()
	feed, err := parser.ParseURLWithContext(src.URL, ctx)
	if err != nil {
		return nil, err
	}

	items := make([]news.Item, 0, len(feed.Items))
	for _, entry := range feed.Items {
		if entry.Link == "" {
			continue
		}

		item := news.Item{
			ID:             news.ItemID(entry.Link),
			Title:          entry.Title,
			Description:    entry.Description,
			Link:           entry.Link,
			SourceName:     src.Name,
			SourcePriority: src.Priority,
			ToneBoost:      src.ToneBoost,
			Categories:     src.Categories,
		}
		if entry.PublishedParsed != nil {
			t := entry.PublishedParsed.UTC()
			item.Published = &t
		}
		items = append(items, item)
	}
	return items, nil
}
