package app

import (
	"github.com/upliftnews/uplift/internal/config"
	"github.com/upliftnews/uplift/internal/logger"
	"github.com/upliftnews/uplift/internal/store"
)

// StateStore is the persistence surface the publisher works against. Both
// the file store and the Postgres store implement it.
type StateStore interface {
	Load() error
	Save() error
	IsPublished(link string) bool
	AddPublished(rec store.PublishedRecord) error
	AddAudit(entry store.AuditEntry)
	RecentAudit(n int) []store.AuditEntry
	PublishedRecords(n int) []store.PublishedRecord
	Stats() map[string]int
}

// OpenStore picks the Postgres store when DATABASE_URL is set and the
// single-host file store otherwise.
func OpenStore(cfg *config.Config) (StateStore, error) {
	if cfg.DatabaseURL != "" {
		ps, err := store.NewPostgresStore(cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		logger.Info("state store ready", "backend", "postgres")
		return ps, nil
	}

	logger.Info("state store ready", "backend", "file", "path", cfg.StatePath)
	return store.NewFileStore(cfg.StatePath), nil
}
