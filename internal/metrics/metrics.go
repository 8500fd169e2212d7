package metrics

import (
	"sync"
	"time"
)

type Metrics struct {
	mu sync.RWMutex

	// Counters
	FeedsFetched       int64
	FeedErrors         int64
	ItemsCollected     int64
	DuplicatesFiltered int64
	ItemsPassed        int64
	ItemsRejected      int64
	PublishAttempts    int64
	PublishConflicts   int64
	PublishErrors      int64
	PostsPublished     int64
	NotificationsSent  int64
	NotificationErrors int64
	ImagesFound        int64
	AIRequests         int64

	// Timings
	LastRunDuration    time.Duration
	AverageRunDuration time.Duration
	TotalRunDuration   time.Duration
	RunCount           int64

	// Status
	LastRunTime   time.Time
	LastSlot      string
	LastErrorTime time.Time
	LastError     string
	IsHealthy     bool
}

var Global = &Metrics{IsHealthy: true}

func (m *Metrics) IncrementFeedsFetched() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.FeedsFetched++
}

func (m *Metrics) IncrementFeedErrors() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.FeedErrors++
}

func (m *Metrics) AddItemsCollected(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ItemsCollected += int64(n)
}

func (m *Metrics) IncrementDuplicatesFiltered() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DuplicatesFiltered++
}

func (m *Metrics) IncrementItemsPassed() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ItemsPassed++
}

func (m *Metrics) IncrementItemsRejected() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ItemsRejected++
}

func (m *Metrics) IncrementPublishAttempts() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.PublishAttempts++
}

func (m *Metrics) IncrementPublishConflicts() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.PublishConflicts++
}

func (m *Metrics) IncrementPublishErrors() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.PublishErrors++
}

func (m *Metrics) IncrementPostsPublished() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.PostsPublished++
}

func (m *Metrics) IncrementNotificationsSent() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.NotificationsSent++
}

func (m *Metrics) IncrementNotificationErrors() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.NotificationErrors++
}

func (m *Metrics) IncrementImagesFound() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ImagesFound++
}

func (m *Metrics) IncrementAIRequests() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.AIRequests++
}

func (m *Metrics) RecordRunDuration(duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.LastRunDuration = duration
	m.TotalRunDuration += duration
	m.RunCount++

	if m.RunCount > 0 {
		m.AverageRunDuration = m.TotalRunDuration / time.Duration(m.RunCount)
	}
}

func (m *Metrics) SetLastRun(slot string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LastRunTime = time.Now()
	m.LastSlot = slot
	m.IsHealthy = true
}

func (m *Metrics) SetError(err string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LastError = err
	m.LastErrorTime = time.Now()
	m.IsHealthy = false
}

func (m *Metrics) GetStats() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return map[string]interface{}{
		"feeds_fetched":           m.FeedsFetched,
		"feed_errors":             m.FeedErrors,
		"items_collected":         m.ItemsCollected,
		"duplicates_filtered":     m.DuplicatesFiltered,
		"items_passed":            m.ItemsPassed,
		"items_rejected":          m.ItemsRejected,
		"publish_attempts":        m.PublishAttempts,
		"publish_conflicts":       m.PublishConflicts,
		"publish_errors":          m.PublishErrors,
		"posts_published":         m.PostsPublished,
		"notifications_sent":      m.NotificationsSent,
		"notification_errors":     m.NotificationErrors,
		"images_found":            m.ImagesFound,
		"ai_requests":             m.AIRequests,
		"last_run_duration_ms":    m.LastRunDuration.Milliseconds(),
		"average_run_duration_ms": m.AverageRunDuration.Milliseconds(),
		"last_run_time":           m.LastRunTime.Format(time.RFC3339),
		"last_slot":               m.LastSlot,
		"last_error_time":         m.LastErrorTime.Format(time.RFC3339),
		"last_error":              m.LastError,
		"is_healthy":              m.IsHealthy,
	}
}
