package metrics

import (
	"sync"
	"time"

	"github.com/gottmail/toneguard/internal/core"
)

// Collector tracks pipeline counters for health and capacity reporting.
// Only counts and durations are recorded, never message content.
type Collector struct {
	mu sync.Mutex

	processed          int64
	actions            map[core.ProtectionAction]int64
	cacheHits          int64
	cacheMisses        int64
	escalations        int64
	fallbacks          int64
	sweptEntries       int64
	capacityRejections int64
	totalDuration      time.Duration
}

// Snapshot is a point-in-time copy of all counters.
type Snapshot struct {
	Processed          int64
	Actions            map[core.ProtectionAction]int64
	CacheHits          int64
	CacheMisses        int64
	Escalations        int64
	Fallbacks          int64
	SweptEntries       int64
	CapacityRejections int64
	TotalDuration      time.Duration
}

// NewCollector creates a new metrics collector
func NewCollector() *Collector {
	return &Collector{
		actions: make(map[core.ProtectionAction]int64),
	}
}

// RecordAction counts one processed message and its decided action.
func (c *Collector) RecordAction(action core.ProtectionAction, duration time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.processed++
	c.actions[action]++
	c.totalDuration += duration
}

// RecordCacheHit counts an analysis-cache hit.
func (c *Collector) RecordCacheHit() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.cacheHits++
}

// RecordCacheMiss counts an analysis-cache miss.
func (c *Collector) RecordCacheMiss() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.cacheMisses++
}

// RecordEscalation counts a model escalation for an ambiguous score.
func (c *Collector) RecordEscalation() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.escalations++
}

// RecordFallback counts a model failure that fell back to the local result.
func (c *Collector) RecordFallback() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.fallbacks++
}

// RecordSweep counts entries removed by a sweep pass.
func (c *Collector) RecordSweep(count int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.sweptEntries += int64(count)
}

// RecordCapacityRejection counts an intake rejected by a full store.
func (c *Collector) RecordCapacityRejection() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.capacityRejections++
}

// Snapshot returns a copy of all counters.
func (c *Collector) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	actions := make(map[core.ProtectionAction]int64, len(c.actions))
	for k, v := range c.actions {
		actions[k] = v
	}
	return Snapshot{
		Processed:          c.processed,
		Actions:            actions,
		CacheHits:          c.cacheHits,
		CacheMisses:        c.cacheMisses,
		Escalations:        c.escalations,
		Fallbacks:          c.fallbacks,
		SweptEntries:       c.sweptEntries,
		CapacityRejections: c.capacityRejections,
		TotalDuration:      c.totalDuration,
	}
}
