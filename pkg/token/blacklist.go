package token

import (
	"context"
	"sync"
	"time"
)

// Blacklist records revoked token IDs (jti). Implementations must be safe for
// concurrent use. Revoking an already-revoked ID is a no-op.
type Blacklist interface {
	Revoke(ctx context.Context, jti string, ttl time.Duration) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// MemoryBlacklist is an in-memory Blacklist for development and tests.
// Entries expire lazily on lookup.
type MemoryBlacklist struct {
	mu      sync.RWMutex
	entries map[string]time.Time
}

// NewMemoryBlacklist creates an empty in-memory blacklist.
func NewMemoryBlacklist() *MemoryBlacklist {
	return &MemoryBlacklist{
		entries: make(map[string]time.Time),
	}
}

// Revoke records the jti until its TTL elapses.
func (b *MemoryBlacklist) Revoke(_ context.Context, jti string, ttl time.Duration) error {
	b.mu.Lock()
	b.entries[jti] = time.Now().Add(ttl)
	b.mu.Unlock()
	return nil
}

// IsRevoked reports whether the jti is currently revoked.
func (b *MemoryBlacklist) IsRevoked(_ context.Context, jti string) (bool, error) {
	b.mu.RLock()
	deadline, exists := b.entries[jti]
	b.mu.RUnlock()

	if !exists {
		return false, nil
	}

	if time.Now().After(deadline) {
		b.mu.Lock()
		delete(b.entries, jti)
		b.mu.Unlock()
		return false, nil
	}

	return true, nil
}

// Len returns the number of entries (including potentially expired ones).
func (b *MemoryBlacklist) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.entries)
}
