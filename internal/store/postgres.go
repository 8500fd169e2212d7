package store

import (
	"database/sql"
	"errors"
	"fmt"
	"sync"

	sq "github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"github.com/upliftnews/uplift/internal/logger"
)

const pqUniqueViolation = "23505"

// PostgresStore keeps the state in Postgres. Deployments that outgrow the
// single-host file store move here: the published.link primary key enforces
// dedup uniqueness even with more than one writer.
type PostgresStore struct {
	db *sql.DB
	sb sq.StatementBuilderType

	mu    sync.RWMutex
	state State
	links map[string]struct{}

	// High-water marks of already-persisted rows; Save inserts only beyond
	// them, so both tables stay append-only.
	savedPublished int
	savedAudit     int
}

func NewPostgresStore(connectionString string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", connectionString)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	ps := &PostgresStore{
		db:    db,
		sb:    sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
		links: make(map[string]struct{}),
	}

	if err := ps.initSchema(); err != nil {
		db.Close()
		return nil, err
	}

	logger.Debug("postgres state store connected")
	return ps, nil
}

func (ps *PostgresStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS published (
		link TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		post_id TEXT NOT NULL DEFAULT '',
		post_url TEXT NOT NULL DEFAULT '',
		slot TEXT NOT NULL DEFAULT '',
		published_at TIMESTAMPTZ NOT NULL
	);

	CREATE TABLE IF NOT EXISTS audit_log (
		id BIGSERIAL PRIMARY KEY,
		slot TEXT NOT NULL DEFAULT '',
		action TEXT NOT NULL,
		title TEXT NOT NULL DEFAULT '',
		link TEXT NOT NULL DEFAULT '',
		post_id TEXT NOT NULL DEFAULT '',
		post_url TEXT NOT NULL DEFAULT '',
		error TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_published_published_at ON published(published_at);
	CREATE INDEX IF NOT EXISTS idx_audit_log_created_at ON audit_log(created_at);
	`

	if _, err := ps.db.Exec(schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Load hydrates the in-memory state from the database. Connection or scan
// failures are fatal for the run, same as a corrupt state file.
func (ps *PostgresStore) Load() error {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	ps.state = State{}
	ps.links = make(map[string]struct{})

	query, args, err := ps.sb.
		Select("link", "title", "post_id", "post_url", "slot", "published_at").
		From("published").
		OrderBy("published_at ASC", "link ASC").
		ToSql()
	if err != nil {
		return fmt.Errorf("build published query: %w", err)
	}

	rows, err := ps.db.Query(query, args...)
	if err != nil {
		return fmt.Errorf("load published records: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var rec PublishedRecord
		if err := rows.Scan(&rec.Link, &rec.Title, &rec.PostID, &rec.PostURL, &rec.Slot, &rec.PublishedAt); err != nil {
			return fmt.Errorf("scan published record: %w", err)
		}
		ps.state.Published = append(ps.state.Published, rec)
		ps.links[rec.Link] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("load published records: %w", err)
	}

	query, args, err = ps.sb.
		Select("slot", "action", "title", "link", "post_id", "post_url", "error", "created_at").
		From("audit_log").
		OrderBy("id ASC").
		ToSql()
	if err != nil {
		return fmt.Errorf("build audit query: %w", err)
	}

	auditRows, err := ps.db.Query(query, args...)
	if err != nil {
		return fmt.Errorf("load audit log: %w", err)
	}
	defer auditRows.Close()

	for auditRows.Next() {
		var entry AuditEntry
		if err := auditRows.Scan(&entry.Slot, &entry.Action, &entry.Title, &entry.Link,
			&entry.PostID, &entry.PostURL, &entry.Error, &entry.Timestamp); err != nil {
			return fmt.Errorf("scan audit entry: %w", err)
		}
		ps.state.Audit = append(ps.state.Audit, entry)
	}
	if err := auditRows.Err(); err != nil {
		return fmt.Errorf("load audit log: %w", err)
	}

	ps.savedPublished = len(ps.state.Published)
	ps.savedAudit = len(ps.state.Audit)
	return nil
}

// Save inserts the records and audit entries added since Load in one
// transaction. Existing rows are never touched.
func (ps *PostgresStore) Save() error {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	newPublished := ps.state.Published[ps.savedPublished:]
	newAudit := ps.state.Audit[ps.savedAudit:]
	if len(newPublished) == 0 && len(newAudit) == 0 {
		return nil
	}

	tx, err := ps.db.Begin()
	if err != nil {
		return fmt.Errorf("begin save: %w", err)
	}
	defer tx.Rollback()

	for _, rec := range newPublished {
		query, args, err := ps.sb.
			Insert("published").
			Columns("link", "title", "post_id", "post_url", "slot", "published_at").
			Values(rec.Link, rec.Title, rec.PostID, rec.PostURL, rec.Slot, rec.PublishedAt).
			ToSql()
		if err != nil {
			return fmt.Errorf("build published insert: %w", err)
		}
		if _, err := tx.Exec(query, args...); err != nil {
			var pqErr *pq.Error
			if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation {
				return fmt.Errorf("%w: %s", ErrDuplicateLink, rec.Link)
			}
			return fmt.Errorf("insert published record: %w", err)
		}
	}

	for _, entry := range newAudit {
		query, args, err := ps.sb.
			Insert("audit_log").
			Columns("slot", "action", "title", "link", "post_id", "post_url", "error", "created_at").
			Values(entry.Slot, entry.Action, entry.Title, entry.Link,
				entry.PostID, entry.PostURL, entry.Error, entry.Timestamp).
			ToSql()
		if err != nil {
			return fmt.Errorf("build audit insert: %w", err)
		}
		if _, err := tx.Exec(query, args...); err != nil {
			return fmt.Errorf("insert audit entry: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save: %w", err)
	}

	ps.savedPublished = len(ps.state.Published)
	ps.savedAudit = len(ps.state.Audit)
	return nil
}

func (ps *PostgresStore) IsPublished(link string) bool {
	ps.mu.RLock()
	defer ps.mu.RUnlock()
	_, ok := ps.links[link]
	return ok
}

func (ps *PostgresStore) AddPublished(rec PublishedRecord) error {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	if _, dup := ps.links[rec.Link]; dup {
		return fmt.Errorf("%w: %s", ErrDuplicateLink, rec.Link)
	}

	ps.links[rec.Link] = struct{}{}
	ps.state.Published = append(ps.state.Published, rec)
	return nil
}

func (ps *PostgresStore) AddAudit(entry AuditEntry) {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	ps.state.Audit = append(ps.state.Audit, entry)
}

func (ps *PostgresStore) RecentAudit(n int) []AuditEntry {
	ps.mu.RLock()
	defer ps.mu.RUnlock()
	return recentAudit(ps.state.Audit, n)
}

func (ps *PostgresStore) PublishedRecords(n int) []PublishedRecord {
	ps.mu.RLock()
	defer ps.mu.RUnlock()
	return recentPublished(ps.state.Published, n)
}

func (ps *PostgresStore) Stats() map[string]int {
	ps.mu.RLock()
	defer ps.mu.RUnlock()
	return map[string]int{
		"published_records": len(ps.state.Published),
		"audit_entries":     len(ps.state.Audit),
	}
}

func (ps *PostgresStore) Close() error {
	return ps.db.Close()
}
