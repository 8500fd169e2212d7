// Package news holds the candidate item model, the uplift scoring rules and
// the shortlist selection.
package news

import (
	"time"

	"github.com/google/uuid"
)

// Item is one ingested candidate. Immutable once produced by ingestion; the
// link doubles as the dedup key across runs.
type Item struct {
	ID          string
	Title       string
	Description string
	Link        string
	Published   *time.Time

	SourceName     string
	SourcePriority int
	ToneBoost      int
	Categories     []string
}

// ScoredItem is an Item with its scoring verdict attached. Recomputed fresh
// on every run; never persisted.
type ScoredItem struct {
	Item

	Score  int
	Passed bool
	Reason string
}

// ItemID derives the item identifier from its canonical link. The same link
// always yields the same ID, which keeps publish slugs stable across runs.
func ItemID(link string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(link)).String()
}
