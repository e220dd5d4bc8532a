// Package cache holds the latest run's records and diffs in memory so the
// API can serve them without re-running extraction.
package cache

import (
	"sync"
	"time"

	"github.com/use-agent/docket/models"
)

// entry holds one entity's results with its creation timestamp.
type entry struct {
	record    *models.CanonicalRecord
	diff      models.EntityDiff
	createdAt time.Time
}

// Cache is a simple in-memory store keyed by entity ID.
// It is safe for concurrent use.
type Cache struct {
	mu         sync.RWMutex
	store      map[string]*entry
	report     *models.QAReport
	maxEntries int
}

// New creates a Cache with the given maximum number of entries.
// A background goroutine runs every 5 minutes to evict entries older
// than 24 hours — records go stale when the portal updates daily.
func New(maxEntries int) *Cache {
	c := &Cache{
		store:      make(map[string]*entry),
		maxEntries: maxEntries,
	}

	go c.cleanupLoop()
	return c
}

// PutRun stores a whole run's output, replacing previous results for the
// same entities and the run-level report.
func (c *Cache) PutRun(records map[string]*models.CanonicalRecord, report *models.QAReport) {
	diffs := make(map[string]models.EntityDiff, len(report.Entities))
	for _, e := range report.Entities {
		diffs[e.EntityID] = e
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	for id, rec := range records {
		// Evict one random entry if at capacity (map iteration is random in Go).
		if len(c.store) >= c.maxEntries {
			for k := range c.store {
				delete(c.store, k)
				break
			}
		}
		c.store[id] = &entry{record: rec, diff: diffs[id], createdAt: now}
	}
	c.report = report
}

// Record returns one entity's canonical record and whether it was present.
func (c *Cache) Record(entityID string) (*models.CanonicalRecord, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.store[entityID]
	if !ok {
		return nil, false
	}
	return e.record, true
}

// Diff returns one entity's QA diff and whether it was present.
func (c *Cache) Diff(entityID string) (models.EntityDiff, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.store[entityID]
	if !ok {
		return models.EntityDiff{}, false
	}
	return e.diff, true
}

// Report returns the latest run-level QA report, or nil when no run has
// completed yet.
func (c *Cache) Report() *models.QAReport {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.report
}

// Len reports the number of cached entities.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.store)
}

// cleanupLoop evicts entries older than 24 hours every 5 minutes.
func (c *Cache) cleanupLoop() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for range ticker.C {
		cutoff := time.Now().Add(-24 * time.Hour)
		c.mu.Lock()
		for k, e := range c.store {
			if e.createdAt.Before(cutoff) {
				delete(c.store, k)
			}
		}
		c.mu.Unlock()
	}
}
