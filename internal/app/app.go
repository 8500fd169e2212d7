// Package app wires the pipeline together: slot gate, fetch, dedup,
// scoring, selection, publish, announce, state save.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/upliftnews/uplift/internal/config"
	"github.com/upliftnews/uplift/internal/fallback"
	"github.com/upliftnews/uplift/internal/logger"
	"github.com/upliftnews/uplift/internal/metrics"
	"github.com/upliftnews/uplift/internal/news"
	"github.com/upliftnews/uplift/internal/publish"
	"github.com/upliftnews/uplift/internal/render"
	"github.com/upliftnews/uplift/internal/schedule"
	"github.com/upliftnews/uplift/internal/scraper"
	"github.com/upliftnews/uplift/internal/store"
)

// Fetcher downloads all configured feeds.
type Fetcher interface {
	FetchAll(ctx context.Context, sources []config.Source) []news.Item
}

// ArticleExtractor pulls the readable text from an article page.
type ArticleExtractor interface {
	Extract(ctx context.Context, pageURL string) (*scraper.Article, error)
}

// ExcerptGenerator produces a short excerpt for an article.
type ExcerptGenerator interface {
	Excerpt(ctx context.Context, title, body string) string
}

// ImageFinder looks up an illustration for a story.
type ImageFinder interface {
	Find(ctx context.Context, query string) (string, error)
}

// PostPublisher creates a post on the blog.
type PostPublisher interface {
	CreatePost(ctx context.Context, post publish.Post) (*publish.Result, error)
}

// Announcer notifies a channel about a published post.
type Announcer interface {
	Announce(ctx context.Context, text string) error
	AnnouncePhoto(ctx context.Context, photoURL, caption string) error
}

// App holds the wired pipeline. Scraper, Summarizer, Images and Notifier
// may be nil; the pipeline degrades without them.
type App struct {
	Config     *config.Config
	Store      StateStore
	Fetcher    Fetcher
	Scraper    ArticleExtractor
	Summarizer ExcerptGenerator
	Images     ImageFinder
	Publisher  PostPublisher
	Notifier   Announcer

	// Now is the clock used for the slot gate and audit timestamps.
	Now func() time.Time
}

type publishOutcome struct {
	item   news.ScoredItem
	post   publish.Post
	result *publish.Result
}

// Run executes one publishing cycle. It returns an error only for fatal
// conditions: a corrupt state store, a failed save or a broken dedup
// invariant. A run outside every slot or without publishable candidates
// finishes cleanly.
func (a *App) Run(ctx context.Context) error {
	start := time.Now()
	now := a.now()

	slot, ok := a.pickSlot(now)
	if !ok {
		logger.Info("outside every publish slot, nothing to do", "time", now.Format("15:04"))
		return nil
	}
	logger.Info("run started", "slot", slot)

	if err := a.Store.Load(); err != nil {
		return fmt.Errorf("load state: %w", err)
	}

	items := a.Fetcher.FetchAll(ctx, a.Config.Sources)
	fresh := a.filterSeen(items)
	scored := a.score(fresh)
	candidates := news.SelectBest(scored, a.Config.ShortlistSize, a.Config.Filter.MaxPerSource)

	logger.Info("selection done",
		"collected", len(items),
		"fresh", len(fresh),
		"candidates", len(candidates))

	if len(candidates) == 0 {
		a.Store.AddAudit(store.AuditEntry{
			Slot:      slot,
			Action:    store.ActionSkip,
			Error:     "no candidates passed selection",
			Timestamp: a.now().UTC(),
		})
		logger.Info("no publishable candidates this slot", "slot", slot)
		return a.finish(start, slot)
	}

	if a.Config.DryRun {
		for _, c := range candidates {
			logger.Info("dry run candidate",
				"title", c.Title,
				"source", c.SourceName,
				"score", c.Score)
		}
		return a.finish(start, slot)
	}

	outcome, err := a.publishFirst(ctx, slot, candidates)
	if err != nil {
		if errors.Is(err, fallback.ErrExhausted) {
			a.Store.AddAudit(store.AuditEntry{
				Slot:      slot,
				Action:    store.ActionSkip,
				Error:     "all candidates failed to publish",
				Timestamp: a.now().UTC(),
			})
			logger.Warn("every candidate failed to publish", "slot", slot, "error", err)
			return a.finish(start, slot)
		}
		// Context cancellation; keep what the run recorded so far.
		if saveErr := a.Store.Save(); saveErr != nil {
			logger.Error("state save failed during shutdown", "error", saveErr)
		}
		return err
	}

	if err := a.recordPublished(slot, outcome); err != nil {
		return err
	}
	a.announce(ctx, outcome)

	return a.finish(start, slot)
}

func (a *App) now() time.Time {
	if a.Now != nil {
		return a.Now()
	}
	return time.Now()
}

func (a *App) pickSlot(now time.Time) (string, bool) {
	if a.Config.ForceSlot != "" {
		logger.Warn("slot gate bypassed", "forced_slot", a.Config.ForceSlot)
		return a.Config.ForceSlot, true
	}
	return schedule.DetermineSlot(now, a.Config.Location(), a.Config.Slots, a.Config.LatenessTolerance)
}

// filterSeen drops items already published in an earlier run and items
// repeated across feeds within this run. Filtering happens before scoring
// so AI and scraping budgets are never spent on stale stories.
func (a *App) filterSeen(items []news.Item) []news.Item {
	seen := make(map[string]struct{}, len(items))
	fresh := make([]news.Item, 0, len(items))

	for _, item := range items {
		if _, dup := seen[item.Link]; dup {
			metrics.Global.IncrementDuplicatesFiltered()
			continue
		}
		seen[item.Link] = struct{}{}

		if a.Store.IsPublished(item.Link) {
			metrics.Global.IncrementDuplicatesFiltered()
			continue
		}
		fresh = append(fresh, item)
	}
	return fresh
}

func (a *App) score(items []news.Item) []news.ScoredItem {
	scored := news.ScoreAll(items, a.Config.Filter)
	for _, s := range scored {
		if s.Passed {
			metrics.Global.IncrementItemsPassed()
		} else {
			metrics.Global.IncrementItemsRejected()
			logger.Debug("item rejected", "title", s.Title, "reason", s.Reason)
		}
	}
	return scored
}

// publishFirst walks the shortlist in order and publishes the first
// candidate that goes through. Failed candidates get an audit entry and
// the walk moves on; the shared fallback chain provides the semantics.
func (a *App) publishFirst(ctx context.Context, slot string, candidates []news.ScoredItem) (publishOutcome, error) {
	steps := make([]fallback.Step[publishOutcome], 0, len(candidates))

	for _, candidate := range candidates {
		candidate := candidate
		steps = append(steps, fallback.Step[publishOutcome]{
			Name: candidate.SourceName + ": " + candidate.Title,
			Run: func(ctx context.Context) (publishOutcome, error) {
				outcome, err := a.publishOne(ctx, candidate)
				if err != nil {
					a.auditFailure(slot, candidate, err)
					return publishOutcome{}, err
				}
				return outcome, nil
			},
		})
	}

	outcome, _, err := fallback.First(ctx, steps)
	return outcome, err
}

func (a *App) publishOne(ctx context.Context, item news.ScoredItem) (publishOutcome, error) {
	body := item.Description
	if a.Scraper != nil {
		article, err := a.Scraper.Extract(ctx, item.Link)
		if err != nil {
			logger.Debug("article scrape failed, using feed description", "link", item.Link, "error", err)
		} else if article.Content != "" {
			body = article.Content
		}
	}

	excerpt := ""
	if a.Summarizer != nil {
		excerpt = a.Summarizer.Excerpt(ctx, item.Title, body)
	}

	imageURL := ""
	if a.Images != nil {
		url, err := a.Images.Find(ctx, item.Title)
		if err != nil {
			logger.Debug("no image found, publishing without one", "title", item.Title, "error", err)
		} else {
			imageURL = url
		}
	}

	post := render.BuildPost(item, body, excerpt, imageURL)

	metrics.Global.IncrementPublishAttempts()
	result, err := a.Publisher.CreatePost(ctx, post)
	if err != nil {
		if errors.Is(err, publish.ErrSlugConflict) {
			metrics.Global.IncrementPublishConflicts()
		} else {
			metrics.Global.IncrementPublishErrors()
		}
		return publishOutcome{}, err
	}

	return publishOutcome{item: item, post: post, result: result}, nil
}

func (a *App) auditFailure(slot string, item news.ScoredItem, err error) {
	a.Store.AddAudit(store.AuditEntry{
		Slot:      slot,
		Action:    store.ActionError,
		Title:     item.Title,
		Link:      item.Link,
		Error:     err.Error(),
		Timestamp: a.now().UTC(),
	})
}

// recordPublished writes the published record and its audit entry. The
// dedup filter ran before scoring, so a duplicate link here means the
// single-writer assumption was broken; that is fatal.
func (a *App) recordPublished(slot string, outcome publishOutcome) error {
	rec := store.PublishedRecord{
		Link:        outcome.item.Link,
		Title:       outcome.item.Title,
		PostID:      outcome.result.ID,
		PostURL:     outcome.result.URL,
		Slot:        slot,
		PublishedAt: a.now().UTC(),
	}
	if err := a.Store.AddPublished(rec); err != nil {
		return fmt.Errorf("record published post: %w", err)
	}

	a.Store.AddAudit(store.AuditEntry{
		Slot:      slot,
		Action:    store.ActionPublished,
		Title:     outcome.item.Title,
		Link:      outcome.item.Link,
		PostID:    outcome.result.ID,
		PostURL:   outcome.result.URL,
		Timestamp: a.now().UTC(),
	})

	metrics.Global.IncrementPostsPublished()
	logger.Info("post published",
		"title", outcome.item.Title,
		"source", outcome.item.SourceName,
		"score", outcome.item.Score,
		"post_url", outcome.result.URL)
	return nil
}

// announce tells the channel about the new post. A notification failure
// never rolls back a published post.
func (a *App) announce(ctx context.Context, outcome publishOutcome) {
	if a.Notifier == nil {
		return
	}

	msg := render.TelegramMessage(outcome.post, outcome.result.URL)

	var err error
	if outcome.post.ImageURL != "" {
		err = a.Notifier.AnnouncePhoto(ctx, outcome.post.ImageURL, msg)
	} else {
		err = a.Notifier.Announce(ctx, msg)
	}
	if err != nil {
		metrics.Global.IncrementNotificationErrors()
		logger.Warn("announcement failed, post stays published", "error", err)
		return
	}
	metrics.Global.IncrementNotificationsSent()
}

// finish persists the state and closes out run metrics. Save failures are
// fatal: without the new dedup entry the next run would publish the same
// story again.
func (a *App) finish(start time.Time, slot string) error {
	if err := a.Store.Save(); err != nil {
		metrics.Global.SetError(err.Error())
		return fmt.Errorf("save state: %w", err)
	}

	metrics.Global.RecordRunDuration(time.Since(start))
	metrics.Global.SetLastRun(slot)
	logger.Info("run finished", "slot", slot, "duration", time.Since(start).Round(time.Millisecond))
	return nil
}
