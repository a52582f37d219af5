// Package cache provides a time-boxed in-memory key/value store used to
// bound load on the upstream social sources. Entries expire lazily on read
// and eagerly through a periodic sweep.
package cache

import (
	"context"
	"sync"
	"time"

	"sentiflow/logger"
	"sentiflow/models"
)

type entry[V any] struct {
	value     V
	expiresAt time.Time
}

// Store is a TTL cache. The zero value is not usable; construct with New.
type Store[V any] struct {
	mu         sync.RWMutex
	entries    map[string]entry[V]
	defaultTTL time.Duration
	now        func() time.Time
	log        *logger.Log
}

// New creates a store whose entries live for defaultTTL unless SetTTL is
// used with an explicit duration.
func New[V any](defaultTTL time.Duration) *Store[V] {
	return &Store[V]{
		entries:    make(map[string]entry[V]),
		defaultTTL: defaultTTL,
		now:        time.Now,
		log:        logger.GetLogger(),
	}
}

// Set stores value under key with the default TTL, overwriting any
// existing entry.
func (s *Store[V]) Set(key string, value V) {
	s.SetTTL(key, value, s.defaultTTL)
}

// SetTTL stores value under key with an explicit TTL.
func (s *Store[V]) SetTTL(key string, value V, ttl time.Duration) {
	if ttl <= 0 {
		ttl = s.defaultTTL
	}
	s.mu.Lock()
	s.entries[key] = entry[V]{value: value, expiresAt: s.now().Add(ttl)}
	s.mu.Unlock()
}

// Get returns the stored value for key. Expired or missing entries report
// ok=false; expired entries are evicted on the way out. Reads never refresh
// an entry's TTL.
func (s *Store[V]) Get(key string) (V, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		var zero V
		return zero, false
	}
	if s.now().After(e.expiresAt) {
		delete(s.entries, key)
		var zero V
		return zero, false
	}
	return e.value, true
}

// Has reports whether key holds an unexpired entry, evicting it when
// expired.
func (s *Store[V]) Has(key string) bool {
	_, ok := s.Get(key)
	return ok
}

// Delete removes key if present.
func (s *Store[V]) Delete(key string) {
	s.mu.Lock()
	delete(s.entries, key)
	s.mu.Unlock()
}

// Clear removes every entry.
func (s *Store[V]) Clear() {
	s.mu.Lock()
	s.entries = make(map[string]entry[V])
	s.mu.Unlock()
}

// Sweep evicts all expired entries and returns how many were removed.
func (s *Store[V]) Sweep() int {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for key, e := range s.entries {
		if now.After(e.expiresAt) {
			delete(s.entries, key)
			removed++
		}
	}
	return removed
}

// Stats returns a diagnostic snapshot without mutating state.
func (s *Store[V]) Stats() models.CacheStats {
	now := s.now()
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := models.CacheStats{Total: len(s.entries)}
	for _, e := range s.entries {
		if now.After(e.expiresAt) {
			stats.Expired++
		} else {
			stats.Active++
		}
	}
	return stats
}

// StartSweeper runs Sweep on the given interval until ctx is cancelled,
// bounding worst-case memory from abandoned keys independent of request
// traffic.
func (s *Store[V]) StartSweeper(ctx context.Context, interval time.Duration) {
	log := s.log.WithComponent("cache")
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				removed := s.Sweep()
				log.WithFields(logger.Fields{"removed": removed}).Debug("cache sweep completed")
			}
		}
	}()
}
