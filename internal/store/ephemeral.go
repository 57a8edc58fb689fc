package store

import (
	"errors"
	"sync"
	"time"

	"github.com/gottmail/toneguard/internal/core"
	"go.uber.org/zap"
)

var (
	// ErrCapacityExceeded is returned when Put is called on a full store.
	// Intake must surface this upstream as backpressure rather than evict
	// a live entry.
	ErrCapacityExceeded = errors.New("ephemeral store at capacity")
)

// EphemeralStore is the bounded, TTL-limited holding area for in-flight
// message content. Entries live here for at most their TTL; they are
// removed by the orchestrator when processing finishes or by the sweeper
// when the TTL lapses, whichever comes first.
type EphemeralStore struct {
	entries  map[string]*core.EphemeralMessage
	mu       sync.RWMutex
	capacity int
	ttl      time.Duration
	logger   *zap.Logger
}

// NewEphemeralStore creates a new ephemeral store
func NewEphemeralStore(capacity int, ttl time.Duration, logger *zap.Logger) *EphemeralStore {
	return &EphemeralStore{
		entries:  make(map[string]*core.EphemeralMessage),
		capacity: capacity,
		ttl:      ttl,
		logger:   logger,
	}
}

// Put inserts a message, stamping ReceivedAt and ExpiresAt. It fails fast
// with ErrCapacityExceeded on a full store. Re-inserting an existing ID
// replaces the entry but keeps the original expiry.
func (s *EphemeralStore) Put(msg *core.EphemeralMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.entries[msg.ID]
	if !ok && len(s.entries) >= s.capacity {
		s.logger.Warn("Ephemeral store full, rejecting intake",
			zap.Int("capacity", s.capacity),
			zap.String("message_id", msg.ID))
		return ErrCapacityExceeded
	}

	now := time.Now()
	msg.ReceivedAt = now
	if ok {
		// The expiry window was fixed at first insert
		msg.ReceivedAt = existing.ReceivedAt
		msg.ExpiresAt = existing.ExpiresAt
	} else {
		msg.ExpiresAt = now.Add(s.ttl)
	}
	s.entries[msg.ID] = msg

	return nil
}

// Get retrieves a message by ID. Expired entries are unreachable even if
// the sweeper has not collected them yet.
func (s *EphemeralStore) Get(id string) (*core.EphemeralMessage, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	msg, ok := s.entries[id]
	if !ok || msg.Expired(time.Now()) {
		return nil, false
	}
	return msg, true
}

// Remove deletes a message by ID. Removing an unknown or already-swept ID
// is a no-op, so the orchestrator and the sweeper can race freely.
func (s *EphemeralStore) Remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, id)
}

// Size returns the number of held entries, expired ones included until
// the next sweep.
func (s *EphemeralStore) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.entries)
}

// Capacity returns the configured entry limit.
func (s *EphemeralStore) Capacity() int {
	return s.capacity
}

// TTL returns the per-entry time to live.
func (s *EphemeralStore) TTL() time.Duration {
	return s.ttl
}

// SweepExpired atomically removes every entry whose expiry has passed and
// returns their IDs.
func (s *EphemeralStore) SweepExpired() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	var swept []string
	for id, msg := range s.entries {
		if msg.Expired(now) {
			delete(s.entries, id)
			swept = append(swept, id)
		}
	}
	return swept
}
