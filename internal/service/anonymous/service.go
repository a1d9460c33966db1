// Package anonymous issues the opaque session ids that key anonymous carts.
package anonymous

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

var ErrInvalidSession = errors.New("invalid cart session")

type Service struct {
	ttl   time.Duration
	newID func() string
}

func New(ttl time.Duration) *Service {
	return &Service{
		ttl:   ttl,
		newID: uuid.NewString,
	}
}

// Issue mints a new session id.
func (s *Service) Issue() string {
	return s.newID()
}

// Validate returns the canonical form of a presented session id.
func (s *Service) Validate(id string) (string, error) {
	parsed, err := uuid.Parse(strings.TrimSpace(id))
	if err != nil || parsed == uuid.Nil {
		return "", ErrInvalidSession
	}
	return parsed.String(), nil
}

// Resolve keeps a valid presented id and otherwise issues a new one; issued
// reports whether the caller must set the cookie.
func (s *Service) Resolve(presented string) (id string, issued bool) {
	if id, err := s.Validate(presented); err == nil {
		return id, false
	}
	return s.Issue(), true
}

// TTLSeconds is the cookie Max-Age; zero means a browser-session cookie.
func (s *Service) TTLSeconds() int {
	return int(s.ttl.Seconds())
}
