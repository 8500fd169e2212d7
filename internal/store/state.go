// Package store persists the publish history and audit trail. The link of a
// published record is the dedup key for the whole system: the store is the
// single place that enforces its uniqueness.
package store

import (
	"errors"
	"time"
)

// ErrDuplicateLink is returned when a published record's link already exists.
var ErrDuplicateLink = errors.New("link already published")

// Audit entry actions.
const (
	ActionPublished = "published"
	ActionSkip      = "skip"
	ActionError     = "error"
)

// PublishedRecord is one successful publish. Append-only; never mutated.
type PublishedRecord struct {
	Link        string    `json:"link"`
	Title       string    `json:"title"`
	PostID      string    `json:"post_id"`
	PostURL     string    `json:"post_url"`
	Slot        string    `json:"slot"`
	PublishedAt time.Time `json:"published_at"`
}

// AuditEntry records one attempt outcome, whether or not anything was
// published. The persisted log grows without bound; trimming happens only
// when entries are read back for display. Rotation of the underlying file is
// an operational concern, not something the publish path does.
type AuditEntry struct {
	Slot      string    `json:"slot"`
	Action    string    `json:"action"`
	Title     string    `json:"title,omitempty"`
	Link      string    `json:"link,omitempty"`
	PostID    string    `json:"post_id,omitempty"`
	PostURL   string    `json:"post_url,omitempty"`
	Error     string    `json:"error,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// State is the full persisted snapshot. Unknown fields in an existing file
// are ignored on load, so the schema can grow without migrations.
type State struct {
	Published []PublishedRecord `json:"published"`
	Audit     []AuditEntry      `json:"audit"`
}
