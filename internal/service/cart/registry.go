package cart

import (
	"context"
	"sync"
	"time"

	"medusa-storefront/internal/logger"
	cartrepo "medusa-storefront/internal/repository/cart"
)

// DefaultMaxContainers bounds the containers a Registry keeps in memory.
const DefaultMaxContainers = 10000

// Registry keeps one Service per cart session so concurrent requests of the
// same shopper share a container and are serialised by it. Idle containers
// are dropped by Sweep and the least recently used one is evicted when the
// registry is full; the stored cart id survives either way and is restored
// on the next request.
type Registry struct {
	client        CommerceClient
	repo          cartrepo.Repository
	logg          *logger.Logger
	idleTTL       time.Duration
	maxContainers int
	now           func() time.Time

	mu      sync.Mutex
	entries map[string]*registryEntry
}

type registryEntry struct {
	svc      *Service
	lastUsed time.Time
}

type RegistryOption func(*Registry)

// WithMaxContainers caps the number of live containers. Values below one
// keep DefaultMaxContainers.
func WithMaxContainers(n int) RegistryOption {
	return func(r *Registry) {
		if n > 0 {
			r.maxContainers = n
		}
	}
}

func NewRegistry(client CommerceClient, repo cartrepo.Repository, logg *logger.Logger, idleTTL time.Duration, opts ...RegistryOption) *Registry {
	if logg == nil {
		logg = logger.Discard()
	}
	if idleTTL <= 0 {
		idleTTL = 15 * time.Minute
	}
	r := &Registry{
		client:        client,
		repo:          repo,
		logg:          logg,
		idleTTL:       idleTTL,
		maxContainers: DefaultMaxContainers,
		now:           time.Now,
		entries:       make(map[string]*registryEntry),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Get returns the container of sessionID, creating it on first use.
func (r *Registry) Get(sessionID string) *Service {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.entries[sessionID]
	if !ok {
		if len(r.entries) >= r.maxContainers {
			r.evictOldestLocked()
		}
		entry = &registryEntry{
			svc: New(r.client, cartrepo.Scoped(r.repo, sessionID), r.logg, WithSessionID(sessionID)),
		}
		r.entries[sessionID] = entry
	}
	entry.lastUsed = r.now()
	return entry.svc
}

func (r *Registry) evictOldestLocked() {
	var (
		oldestID string
		oldest   time.Time
	)
	for id, entry := range r.entries {
		if oldestID == "" || entry.lastUsed.Before(oldest) {
			oldestID, oldest = id, entry.lastUsed
		}
	}
	delete(r.entries, oldestID)
}

// Len reports the number of live containers.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Sweep drops containers idle for longer than the idle TTL and returns how
// many were dropped.
func (r *Registry) Sweep() int {
	cutoff := r.now().Add(-r.idleTTL)
	r.mu.Lock()
	defer r.mu.Unlock()

	dropped := 0
	for id, entry := range r.entries {
		if entry.lastUsed.Before(cutoff) {
			delete(r.entries, id)
			dropped++
		}
	}
	return dropped
}

// Run sweeps every interval until ctx is done.
func (r *Registry) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := r.Sweep(); n > 0 {
				r.logg.Debug(r.logg.WithField(ctx, "dropped", n), "swept idle cart containers")
			}
		}
	}
}
