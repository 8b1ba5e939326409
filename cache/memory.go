// Package cache provides membership caches for the tenancy Manager.
package cache

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/xraph/tenancy"
	"github.com/xraph/tenancy/id"
)

// Compile-time interface check.
var _ tenancy.Cache = (*Memory)(nil)

// Memory is an in-process membership cache with TTL-based expiration and a
// size bound.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]*entry
	ttl     time.Duration
	maxSize int
	now     func() time.Time
}

type entry struct {
	tenantIDs []string
	expiresAt time.Time
}

// MemoryOption configures the memory cache.
type MemoryOption func(*Memory)

// WithTTL sets the cache entry time-to-live.
func WithTTL(ttl time.Duration) MemoryOption {
	return func(m *Memory) { m.ttl = ttl }
}

// WithMaxSize sets the maximum number of cached users.
func WithMaxSize(n int) MemoryOption {
	return func(m *Memory) { m.maxSize = n }
}

// NewMemory creates a new in-memory cache.
func NewMemory(opts ...MemoryOption) *Memory {
	m := &Memory{
		entries: make(map[string]*entry),
		ttl:     5 * time.Minute,
		maxSize: 10000,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// GetMemberships returns the cached tenant IDs of a user.
func (m *Memory) GetMemberships(_ context.Context, userID id.UserID) ([]string, bool) {
	key := userID.String()
	m.mu.RLock()
	e, ok := m.entries[key]
	m.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if m.now().After(e.expiresAt) {
		m.mu.Lock()
		delete(m.entries, key)
		m.mu.Unlock()
		return nil, false
	}
	return slices.Clone(e.tenantIDs), true
}

// SetMemberships stores the tenant IDs of a user.
func (m *Memory) SetMemberships(_ context.Context, userID id.UserID, tenantIDs []string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.entries) >= m.maxSize {
		m.evictExpired()
		if len(m.entries) >= m.maxSize {
			m.evictOne()
		}
	}

	ids := slices.Clone(tenantIDs)
	if ids == nil {
		ids = []string{}
	}
	m.entries[userID.String()] = &entry{
		tenantIDs: ids,
		expiresAt: m.now().Add(m.ttl),
	}
}

// InvalidateUser removes the cached memberships of a user.
func (m *Memory) InvalidateUser(_ context.Context, userID id.UserID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, userID.String())
}

// Len returns the number of cached users, expired entries included.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// evictExpired removes all expired entries. Must hold write lock.
func (m *Memory) evictExpired() {
	now := m.now()
	for k, e := range m.entries {
		if now.After(e.expiresAt) {
			delete(m.entries, k)
		}
	}
}

// evictOne removes one arbitrary entry. Must hold write lock.
func (m *Memory) evictOne() {
	for k := range m.entries {
		delete(m.entries, k)
		return
	}
}
