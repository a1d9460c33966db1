// Package customer is the shopper's authentication session container. It
// talks to the gateway's /api/auth routes with a cookie jar, so the session
// cookie set by login or register is replayed on later calls.
package customer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"sync"
	"time"

	"golang.org/x/net/publicsuffix"

	"medusa-storefront/internal/domain"
	"medusa-storefront/internal/logger"
)

const (
	msgLoginRejected    = "Unable to sign in. Please check your credentials."
	msgLoginFailed      = "An error occurred while signing in."
	msgRegisterRejected = "Unable to create the account. Please check the information provided."
	msgRegisterFailed   = "An error occurred during registration."
)

// Result reports the outcome of a login or registration attempt.
type Result struct {
	Success bool
	Message string
}

// RegisterInput is the registration payload; optional fields are omitted
// when empty.
type RegisterInput struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	Phone     string `json:"phone,omitempty"`
}

type Option func(*Session)

// WithHTTPClient replaces the default client. Its Jar is replaced when nil.
func WithHTTPClient(c *http.Client) Option {
	return func(s *Session) {
		s.http = c
	}
}

type Session struct {
	baseURL string
	http    *http.Client
	logg    *logger.Logger

	mu       sync.RWMutex
	customer *domain.Customer
	loading  bool
}

// New builds a Session for the gateway at gatewayURL. IsLoading reports true
// until the first Refresh completes.
func New(gatewayURL string, logg *logger.Logger, opts ...Option) (*Session, error) {
	if logg == nil {
		logg = logger.Discard()
	}
	s := &Session{
		baseURL: strings.TrimRight(gatewayURL, "/"),
		logg:    logg,
		loading: true,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.http == nil {
		s.http = &http.Client{Timeout: 30 * time.Second}
	}
	if s.http.Jar == nil {
		jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
		if err != nil {
			return nil, fmt.Errorf("cookie jar: %w", err)
		}
		s.http.Jar = jar
	}
	return s, nil
}

// Customer returns a copy of the signed-in customer, or nil.
func (s *Session) Customer() *domain.Customer {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.customer == nil {
		return nil
	}
	c := *s.customer
	return &c
}

func (s *Session) IsLoading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

func (s *Session) setCustomer(c *domain.Customer) {
	s.mu.Lock()
	s.customer = c
	s.mu.Unlock()
}

func (s *Session) setLoading(v bool) {
	s.mu.Lock()
	s.loading = v
	s.mu.Unlock()
}

// Refresh reloads the customer from the current session. Any failure leaves
// the session signed out.
func (s *Session) Refresh(ctx context.Context) error {
	s.setLoading(true)
	defer s.setLoading(false)

	status, body, err := s.do(ctx, http.MethodGet, "/api/auth/me", nil)
	if err != nil {
		s.logg.Error(ctx, "refresh customer session", err)
		s.setCustomer(nil)
		return err
	}
	if status < 200 || status >= 300 {
		s.setCustomer(nil)
		return nil
	}
	customer, _ := customerFrom(body)
	s.setCustomer(customer)
	return nil
}

// Login signs in with email and password.
func (s *Session) Login(ctx context.Context, email, password string) Result {
	payload := map[string]string{"email": email, "password": password}
	return s.authenticate(ctx, "/api/auth/login", payload, msgLoginRejected, msgLoginFailed)
}

// Register creates an account and signs it in.
func (s *Session) Register(ctx context.Context, in RegisterInput) Result {
	return s.authenticate(ctx, "/api/auth/register", in, msgRegisterRejected, msgRegisterFailed)
}

func (s *Session) authenticate(ctx context.Context, path string, payload any, rejected, failed string) Result {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Result{Message: failed}
	}
	status, body, err := s.do(ctx, http.MethodPost, path, raw)
	if err != nil {
		s.logg.Error(s.logg.WithField(ctx, "path", path), "customer auth request failed", err)
		return Result{Message: failed}
	}
	if status < 200 || status >= 300 {
		msg := messageFrom(body)
		if msg == "" {
			msg = rejected
		}
		return Result{Message: msg}
	}

	if customer, ok := customerFrom(body); ok {
		s.setCustomer(customer)
	} else if err := s.Refresh(ctx); err != nil {
		s.logg.Warn(ctx, "refresh after sign-in failed")
	}
	return Result{Success: true}
}

// Logout ends the session. The local customer is cleared even when the
// gateway call fails.
func (s *Session) Logout(ctx context.Context) {
	defer s.setCustomer(nil)

	status, _, err := s.do(ctx, http.MethodPost, "/api/auth/logout", nil)
	if err != nil {
		s.logg.Error(ctx, "logout request failed", err)
		return
	}
	if status < 200 || status >= 300 {
		s.logg.Warn(s.logg.WithField(ctx, "status", status), "logout returned a non-ok response")
	}
}

func (s *Session) do(ctx context.Context, method, path string, payload []byte) (int, []byte, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, body)
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := s.http.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, err
	}
	return resp.StatusCode, raw, nil
}

// customerFrom reads the customer field of a JSON object. ok is false when
// the body is not an object or has no customer field.
func customerFrom(body []byte) (customer *domain.Customer, ok bool) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, false
	}
	raw, ok := fields["customer"]
	if !ok {
		return nil, false
	}
	if err := json.Unmarshal(raw, &customer); err != nil {
		return nil, true
	}
	return customer, true
}

func messageFrom(body []byte) string {
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	return payload.Message
}
