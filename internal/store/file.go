package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// FileStore keeps the state in a single JSON file.
//
// One publisher process mutates the store at a time; the scheduler guarantees
// runs never overlap, and the store itself takes no file lock. Concurrent
// readers (the dashboard) are safe because Save replaces the file atomically.
type FileStore struct {
	path string

	mu    sync.RWMutex
	state State
	links map[string]struct{}
}

func NewFileStore(path string) *FileStore {
	return &FileStore{
		path:  path,
		links: make(map[string]struct{}),
	}
}

// Load reads the state file. A missing file yields an empty, valid state; an
// unreadable or unparsable one is an error the caller must treat as fatal.
// Silently starting over would erase the dedup history and allow every old
// item to be published again.
func (fs *FileStore) Load() error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	fs.state = State{}
	fs.links = make(map[string]struct{})

	data, err := os.ReadFile(fs.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read state file: %w", err)
	}

	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		return fmt.Errorf("state file %s is corrupt: %w", fs.path, err)
	}

	links := make(map[string]struct{}, len(state.Published))
	for _, rec := range state.Published {
		if _, dup := links[rec.Link]; dup {
			return fmt.Errorf("state file %s is corrupt: duplicate link %s", fs.path, rec.Link)
		}
		links[rec.Link] = struct{}{}
	}

	fs.state = state
	fs.links = links
	return nil
}

// Save writes the full state to a temporary file and renames it over the
// target, so a concurrent reader never sees a half-written snapshot.
func (fs *FileStore) Save() error {
	fs.mu.RLock()
	data, err := json.MarshalIndent(fs.state, "", "  ")
	fs.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}

	if dir := filepath.Dir(fs.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create state directory: %w", err)
		}
	}

	tmp := fs.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write state file: %w", err)
	}
	if err := os.Rename(tmp, fs.path); err != nil {
		return fmt.Errorf("replace state file: %w", err)
	}
	return nil
}

// IsPublished reports whether the link was ever published.
func (fs *FileStore) IsPublished(link string) bool {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	_, ok := fs.links[link]
	return ok
}

// AddPublished appends a record after checking its link is new. This is the
// single point that enforces link uniqueness; callers rely on the returned
// ErrDuplicateLink instead of re-checking themselves.
func (fs *FileStore) AddPublished(rec PublishedRecord) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	if _, dup := fs.links[rec.Link]; dup {
		return fmt.Errorf("%w: %s", ErrDuplicateLink, rec.Link)
	}

	fs.links[rec.Link] = struct{}{}
	fs.state.Published = append(fs.state.Published, rec)
	return nil
}

// AddAudit appends an entry unconditionally.
func (fs *FileStore) AddAudit(entry AuditEntry) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.state.Audit = append(fs.state.Audit, entry)
}

// RecentAudit returns up to n entries, newest first. The trim happens here,
// at read time; the stored log keeps everything.
func (fs *FileStore) RecentAudit(n int) []AuditEntry {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	return recentAudit(fs.state.Audit, n)
}

// PublishedRecords returns up to n records, newest first.
func (fs *FileStore) PublishedRecords(n int) []PublishedRecord {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	return recentPublished(fs.state.Published, n)
}

// Stats returns store counters for the dashboard.
func (fs *FileStore) Stats() map[string]int {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	return map[string]int{
		"published_records": len(fs.state.Published),
		"audit_entries":     len(fs.state.Audit),
	}
}

func recentAudit(entries []AuditEntry, n int) []AuditEntry {
	if n <= 0 || len(entries) == 0 {
		return nil
	}
	if n > len(entries) {
		n = len(entries)
	}
	out := make([]AuditEntry, 0, n)
	for i := len(entries) - 1; i >= len(entries)-n; i-- {
		out = append(out, entries[i])
	}
	return out
}

func recentPublished(records []PublishedRecord, n int) []PublishedRecord {
	if n <= 0 || len(records) == 0 {
		return nil
	}
	if n > len(records) {
		n = len(records)
	}
	out := make([]PublishedRecord, 0, n)
	for i := len(records) - 1; i >= len(records)-n; i-- {
		out = append(out, records[i])
	}
	return out
}
