package metrics

import (
	"sync"
	"testing"
	"time"

	"github.com/gottmail/toneguard/internal/core"
	"github.com/stretchr/testify/assert"
)

func TestCollectorRecordsActions(t *testing.T) {
	c := NewCollector()

	c.RecordAction(core.ActionForwardClean, 10*time.Millisecond)
	c.RecordAction(core.ActionForwardClean, 20*time.Millisecond)
	c.RecordAction(core.ActionBlockEntirely, 5*time.Millisecond)

	snap := c.Snapshot()
	assert.Equal(t, int64(3), snap.Processed)
	assert.Equal(t, int64(2), snap.Actions[core.ActionForwardClean])
	assert.Equal(t, int64(1), snap.Actions[core.ActionBlockEntirely])
	assert.Equal(t, 35*time.Millisecond, snap.TotalDuration)
}

func TestCollectorCounters(t *testing.T) {
	c := NewCollector()

	c.RecordCacheHit()
	c.RecordCacheMiss()
	c.RecordCacheMiss()
	c.RecordEscalation()
	c.RecordFallback()
	c.RecordSweep(3)
	c.RecordCapacityRejection()

	snap := c.Snapshot()
	assert.Equal(t, int64(1), snap.CacheHits)
	assert.Equal(t, int64(2), snap.CacheMisses)
	assert.Equal(t, int64(1), snap.Escalations)
	assert.Equal(t, int64(1), snap.Fallbacks)
	assert.Equal(t, int64(3), snap.SweptEntries)
	assert.Equal(t, int64(1), snap.CapacityRejections)
}

func TestSnapshotIsACopy(t *testing.T) {
	c := NewCollector()
	c.RecordAction(core.ActionForwardClean, time.Millisecond)

	snap := c.Snapshot()
	snap.Actions[core.ActionForwardClean] = 99

	assert.Equal(t, int64(1), c.Snapshot().Actions[core.ActionForwardClean])
}

func TestCollectorConcurrentUse(t *testing.T) {
	c := NewCollector()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.RecordAction(core.ActionForwardClean, time.Millisecond)
			c.RecordCacheHit()
		}()
	}
	wg.Wait()

	snap := c.Snapshot()
	assert.Equal(t, int64(20), snap.Processed)
	assert.Equal(t, int64(20), snap.CacheHits)
}
