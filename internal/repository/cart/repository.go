// Package cart persists the pointer from an anonymous cart session to the
// backend cart id. Only the id is stored; cart contents always come from the
// commerce backend.
package cart

import (
	"context"
	"errors"

	"medusa-storefront/internal/domain"
)

// Repository maps cart session ids to backend cart ids.
type Repository interface {
	// Get returns domain.ErrNotFound when the session holds no cart id.
	Get(ctx context.Context, sessionID string) (string, error)
	Set(ctx context.Context, sessionID, cartID string) error
	Clear(ctx context.Context, sessionID string) error
	Ping(ctx context.Context) error
}

// Store holds the cart id of a single cart state container.
type Store interface {
	// Load returns "" when no id is stored.
	Load(ctx context.Context) (string, error)
	Save(ctx context.Context, cartID string) error
	Clear(ctx context.Context) error
}

type scoped struct {
	repo      Repository
	sessionID string
}

// Scoped binds repo to one session.
func Scoped(repo Repository, sessionID string) Store {
	return &scoped{repo: repo, sessionID: sessionID}
}

func (s *scoped) Load(ctx context.Context) (string, error) {
	id, err := s.repo.Get(ctx, s.sessionID)
	if errors.Is(err, domain.ErrNotFound) {
		return "", nil
	}
	return id, err
}

func (s *scoped) Save(ctx context.Context, cartID string) error {
	return s.repo.Set(ctx, s.sessionID, cartID)
}

func (s *scoped) Clear(ctx context.Context) error {
	return s.repo.Clear(ctx, s.sessionID)
}
