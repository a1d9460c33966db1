package cart

import (
	"context"
	"sync"
	"time"

	"medusa-storefront/internal/domain"
)

type memoryEntry struct {
	cartID    string
	expiresAt time.Time
}

// MemoryRepository keeps session pointers in process memory. A zero ttl
// keeps entries until cleared.
type MemoryRepository struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	ttl     time.Duration
	now     func() time.Time
}

func NewMemory(ttl time.Duration) *MemoryRepository {
	return &MemoryRepository{
		entries: make(map[string]memoryEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (r *MemoryRepository) Get(_ context.Context, sessionID string) (string, error) {
	r.mu.RLock()
	entry, ok := r.entries[sessionID]
	r.mu.RUnlock()
	if !ok {
		return "", domain.ErrNotFound
	}
	if !entry.expiresAt.IsZero() && !r.now().Before(entry.expiresAt) {
		r.mu.Lock()
		if current, ok := r.entries[sessionID]; ok && current == entry {
			delete(r.entries, sessionID)
		}
		r.mu.Unlock()
		return "", domain.ErrNotFound
	}
	return entry.cartID, nil
}

func (r *MemoryRepository) Set(_ context.Context, sessionID, cartID string) error {
	entry := memoryEntry{cartID: cartID}
	if r.ttl > 0 {
		entry.expiresAt = r.now().Add(r.ttl)
	}
	r.mu.Lock()
	r.entries[sessionID] = entry
	r.mu.Unlock()
	return nil
}

func (r *MemoryRepository) Clear(_ context.Context, sessionID string) error {
	r.mu.Lock()
	delete(r.entries, sessionID)
	r.mu.Unlock()
	return nil
}

func (r *MemoryRepository) Ping(context.Context) error {
	return nil
}
