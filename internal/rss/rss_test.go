package rss

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/upliftnews/uplift/internal/config"
)

const feedTemplate = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
<channel>
<title>%s</title>
<item>
  <title>Volunteers plant a thousand trees</title>
  <link>https://example.com/%s/trees</link>
  <description>A community effort greened the old quarry.</description>
  <pubDate>Mon, 02 Jun 2025 08:30:00 GMT</pubDate>
</item>
<item>
  <title>No link here</title>
  <description>Entry without a link must be dropped.</description>
</item>
</channel>
</rss>`

func feedServer(t *testing.T, name string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		fmt.Fprintf(w, feedTemplate, name, name)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestFetchAll(t *testing.T) {
	alpha := feedServer(t, "alpha")
	beta := feedServer(t, "beta")

	sources := []config.Source{
		{Name: "Alpha", URL: alpha.URL, Priority: 5, ToneBoost: 2, Categories: []string{"community"}},
		{Name: "Beta", URL: beta.URL, Priority: 3},
	}

	fetcher := NewFetcher(5*time.Second, 2)
	items := fetcher.FetchAll(context.Background(), sources)

	if len(items) != 2 {
		t.Fatalf("FetchAll() = %d items, want 2 (entries without links dropped)", len(items))
	}

	bySource := map[string]int{}
	for _, item := range items {
		bySource[item.SourceName]++

		if item.ID == "" {
			t.Errorf("item %q has empty ID", item.Link)
		}
		if item.Published == nil {
			t.Errorf("item %q lost its publication date", item.Link)
		}
	}
	if bySource["Alpha"] != 1 || bySource["Beta"] != 1 {
		t.Errorf("items per source = %v, want one from each", bySource)
	}

	for _, item := range items {
		if item.SourceName == "Alpha" {
			if item.SourcePriority != 5 || item.ToneBoost != 2 {
				t.Errorf("source metadata not carried: priority=%d toneBoost=%d", item.SourcePriority, item.ToneBoost)
			}
			if len(item.Categories) != 1 || item.Categories[0] != "community" {
				t.Errorf("categories = %v, want [community]", item.Categories)
			}
		}
	}
}

func TestFetchAll_BrokenSourceIsIsolated(t *testing.T) {
	good := feedServer(t, "good")
	broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	t.Cleanup(broken.Close)

	sources := []config.Source{
		{Name: "Broken", URL: broken.URL, Priority: 9},
		{Name: "Good", URL: good.URL, Priority: 1},
	}

	fetcher := NewFetcher(5*time.Second, 2)
	items := fetcher.FetchAll(context.Background(), sources)

	if len(items) != 1 {
		t.Fatalf("FetchAll() = %d items, want 1 from the healthy source", len(items))
	}
	if items[0].SourceName != "Good" {
		t.Errorf("surviving item from %q, want Good", items[0].SourceName)
	}
}

func TestFetchAll_UnreachableHost(t *testing.T) {
	sources := []config.Source{
		{Name: "Nowhere", URL: "http://127.0.0.1:1/feed.xml", Priority: 1},
	}

	fetcher := NewFetcher(2*time.Second, 1)
	items := fetcher.FetchAll(context.Background(), sources)
	if len(items) != 0 {
		t.Errorf("FetchAll() = %d items from unreachable host, want 0", len(items))
	}
}

func TestFetchAll_SameIDForSameLink(t *testing.T) {
	srv := feedServer(t, "stable")
	sources := []config.Source{{Name: "Stable", URL: srv.URL, Priority: 1}}
	fetcher := NewFetcher(5*time.Second, 1)

	first := fetcher.FetchAll(context.Background(), sources)
	second := fetcher.FetchAll(context.Background(), sources)
	if len(first) != 1 || len(second) != 1 {
		t.Fatalf("unexpected item counts: %d, %d", len(first), len(second))
	}
	if first[0].ID != second[0].ID {
		t.Errorf("IDs differ between fetches for the same link: %q vs %q", first[0].ID, second[0].ID)
	}
}
