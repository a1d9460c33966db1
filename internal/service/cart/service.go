// Package cart is the server-side cart state container. One Service mirrors
// one shopper's backend cart: it restores the cart from the stored id,
// creates a cart on first use, and replaces its state with the backend's
// normalised cart after every mutation. Commands are serialised per Service.
package cart

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"

	"medusa-storefront/internal/domain"
	"medusa-storefront/internal/logger"
	"medusa-storefront/internal/medusa"
	cartrepo "medusa-storefront/internal/repository/cart"
)

// User-facing messages held in Snapshot.Error.
const (
	MsgCreateCart     = "Unable to create a shopping cart. Please try again."
	MsgUnavailable    = "This product is currently unavailable."
	MsgAddFailed      = "Unable to add the product to the cart."
	MsgRemoveFailed   = "Unable to remove the item."
	MsgUpdateFailed   = "Unable to update the quantity."
	MsgEmptyCart      = "Your cart is currently empty."
	MsgCheckoutFailed = "We could not finalise your order. Please try again in a moment."
)

const restoreFlightGroup = "restore"

// CommerceClient is the subset of the commerce backend the container needs.
type CommerceClient interface {
	CreateCart(ctx context.Context) (*domain.Cart, error)
	RetrieveCart(ctx context.Context, cartID string) (*domain.Cart, error)
	AddLineItem(ctx context.Context, cartID string, in medusa.LineItemInput) (*domain.Cart, error)
	UpdateLineItem(ctx context.Context, cartID, lineItemID string, quantity int) (*domain.Cart, error)
	DeleteLineItem(ctx context.Context, cartID, lineItemID string) (*domain.Cart, error)
	CompleteCart(ctx context.Context, cartID string) (*domain.Order, error)
}

type State string

const (
	StateUninitialized State = "uninitialized"
	StateLoading       State = "loading"
	StateReady         State = "ready"
)

// Snapshot is an immutable copy of the container state.
type Snapshot struct {
	State                State
	CartID               string
	Items                []domain.LineItem
	CurrencyCode         string
	Subtotal             decimal.Decimal
	Total                decimal.Decimal
	IsLoading            bool
	IsUpdating           bool
	IsProcessingCheckout bool
	Error                string
	LastOrder            *domain.Order
}

type state struct {
	phase                State
	cart                 *domain.Cart
	isLoading            bool
	isUpdating           bool
	isProcessingCheckout bool
	err                  string
	lastOrder            *domain.Order
}

func (st *state) snapshot() Snapshot {
	snap := Snapshot{
		State:                st.phase,
		CurrencyCode:         domain.DefaultCurrency,
		Items:                []domain.LineItem{},
		IsLoading:            st.isLoading,
		IsUpdating:           st.isUpdating,
		IsProcessingCheckout: st.isProcessingCheckout,
		Error:                st.err,
		LastOrder:            st.lastOrder,
	}
	if st.cart != nil {
		snap.CartID = st.cart.ID
		snap.Items = append(snap.Items, st.cart.Items...)
		snap.CurrencyCode = st.cart.CurrencyCode
		snap.Subtotal = st.cart.Subtotal
		snap.Total = st.cart.Total
	}
	return snap
}

// EmptySnapshot is the state of a loaded container that holds no cart.
func EmptySnapshot() Snapshot {
	st := state{phase: StateReady}
	return st.snapshot()
}

type Option func(*Service)

// WithSessionID tags log lines with the cart session.
func WithSessionID(id string) Option {
	return func(s *Service) {
		s.sessionID = id
	}
}

type Service struct {
	client    CommerceClient
	store     cartrepo.Store
	logg      *logger.Logger
	sessionID string

	// cmdMu serialises commands; mu guards st and subscribers.
	cmdMu  sync.Mutex
	mu     sync.RWMutex
	st     state
	subs   map[uint64]func(Snapshot)
	nextID uint64

	flight singleflight.Group
}

func New(client CommerceClient, store cartrepo.Store, logg *logger.Logger, opts ...Option) *Service {
	if logg == nil {
		logg = logger.Discard()
	}
	s := &Service{
		client: client,
		store:  store,
		logg:   logg,
		st:     state{phase: StateUninitialized},
		subs:   make(map[uint64]func(Snapshot)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Snapshot returns the current state.
func (s *Service) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.st.snapshot()
}

// Subscribe registers fn to receive a snapshot after every state change.
// Callbacks run synchronously on the goroutine that changed the state.
func (s *Service) Subscribe(fn func(Snapshot)) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
		})
	}
}

func (s *Service) update(fn func(*state)) {
	s.mu.Lock()
	fn(&s.st)
	snap := s.st.snapshot()
	subs := make([]func(Snapshot), 0, len(s.subs))
	for _, sub := range s.subs {
		subs = append(subs, sub)
	}
	s.mu.Unlock()

	for _, sub := range subs {
		sub(snap)
	}
}

func (s *Service) current() (State, *domain.Cart) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.st.phase, s.st.cart
}

func (s *Service) logCtx(ctx context.Context) context.Context {
	if s.sessionID == "" {
		return ctx
	}
	return s.logg.WithCartSession(ctx, s.sessionID)
}

func (s *Service) fail(ctx context.Context, msg string, err error) {
	s.logg.Error(s.logCtx(ctx), msg, err)
	s.update(func(st *state) { st.err = msg })
}

// Load restores the stored cart the first time it is called and returns the
// cart held afterwards. Concurrent first calls share one restore.
func (s *Service) Load(ctx context.Context) (*domain.Cart, error) {
	if phase, cart := s.current(); phase == StateReady {
		return cart, nil
	}
	v, err, _ := s.flight.Do(restoreFlightGroup, func() (any, error) {
		s.cmdMu.Lock()
		defer s.cmdMu.Unlock()
		return s.restoreLocked(ctx)
	})
	cart, _ := v.(*domain.Cart)
	return cart, err
}

// restoreLocked runs the uninitialized → loading → ready transition. A failed
// restore drops back to uninitialized so the next call retries it.
func (s *Service) restoreLocked(ctx context.Context) (*domain.Cart, error) {
	if phase, cart := s.current(); phase == StateReady {
		return cart, nil
	}
	s.update(func(st *state) {
		st.phase = StateLoading
		st.isLoading = true
	})
	cart, err := s.loadExistingLocked(ctx)
	s.update(func(st *state) {
		st.phase = StateReady
		if err != nil {
			st.phase = StateUninitialized
		}
		st.isLoading = false
	})
	return cart, err
}

// loadExistingLocked resolves the stored cart id. An id the backend no longer
// resolves is discarded; a transport failure keeps it for the next attempt.
func (s *Service) loadExistingLocked(ctx context.Context) (*domain.Cart, error) {
	storedID, err := s.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load stored cart id: %w", err)
	}
	if storedID == "" {
		s.update(func(st *state) { st.cart = nil })
		return nil, nil
	}

	cart, err := s.client.RetrieveCart(ctx, storedID)
	if err != nil {
		var fe *medusa.FetchError
		if errors.As(err, &fe) && fe.Kind == medusa.KindTransport {
			return nil, fmt.Errorf("restore cart %s: %w", storedID, err)
		}
		s.logg.Warn(s.logg.WithField(s.logCtx(ctx), "cart_id", storedID), "stored cart no longer resolves; discarding it")
		s.clearStoredID(ctx)
		s.update(func(st *state) { st.cart = nil })
		return nil, nil
	}

	s.saveStoredID(ctx, cart.ID)
	s.update(func(st *state) { st.cart = cart })
	return cart, nil
}

func (s *Service) saveStoredID(ctx context.Context, cartID string) {
	if err := s.store.Save(ctx, cartID); err != nil {
		s.logg.Error(s.logCtx(ctx), "persist cart id", err)
	}
}

func (s *Service) clearStoredID(ctx context.Context) {
	if err := s.store.Clear(ctx); err != nil {
		s.logg.Error(s.logCtx(ctx), "clear stored cart id", err)
	}
}

// EnsureCart returns the held cart, else the stored cart, else a new one.
func (s *Service) EnsureCart(ctx context.Context) (*domain.Cart, error) {
	s.cmdMu.Lock()
	defer s.cmdMu.Unlock()

	cart, err := s.ensureCartLocked(ctx)
	if err != nil {
		s.fail(ctx, MsgCreateCart, err)
		return nil, err
	}
	return cart, nil
}

func (s *Service) ensureCartLocked(ctx context.Context) (*domain.Cart, error) {
	s.update(func(st *state) { st.err = "" })

	// A stored id that failed to restore is never replaced by a new cart.
	phase, cart := s.current()
	switch {
	case phase != StateReady:
		restored, err := s.restoreLocked(ctx)
		if err != nil {
			return nil, err
		}
		if restored != nil {
			return restored, nil
		}
	case cart != nil:
		return cart, nil
	default:
		existing, err := s.loadExistingLocked(ctx)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return existing, nil
		}
	}

	created, err := s.client.CreateCart(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrNoCart, err)
	}
	s.saveStoredID(ctx, created.ID)
	s.update(func(st *state) { st.cart = created })
	return created, nil
}

// AddToCart adds quantity units of the product's first variant. A quantity
// below one adds a single unit.
func (s *Service) AddToCart(ctx context.Context, product domain.Product, quantity int) error {
	variantID := product.FirstVariantID()
	if variantID == "" {
		s.update(func(st *state) { st.err = MsgUnavailable })
		return domain.ErrNoVariant
	}
	if quantity < 1 {
		quantity = 1
	}

	s.cmdMu.Lock()
	defer s.cmdMu.Unlock()

	s.update(func(st *state) {
		st.isUpdating = true
		st.lastOrder = nil
	})
	defer s.update(func(st *state) { st.isUpdating = false })

	cart, err := s.ensureCartLocked(ctx)
	if err != nil {
		s.fail(ctx, MsgCreateCart, err)
		return err
	}

	updated, err := s.client.AddLineItem(ctx, cart.ID, medusa.LineItemInput{VariantID: variantID, Quantity: quantity})
	if err != nil {
		s.fail(ctx, MsgAddFailed, err)
		return err
	}
	s.saveStoredID(ctx, updated.ID)
	s.update(func(st *state) { st.cart = updated })
	return nil
}

// UpdateQuantity sets a line item's quantity. Zero removes the line item and
// a negative quantity is ignored.
func (s *Service) UpdateQuantity(ctx context.Context, lineItemID string, quantity int) error {
	if lineItemID == "" || quantity < 0 {
		return nil
	}
	if quantity == 0 {
		return s.RemoveFromCart(ctx, lineItemID)
	}

	s.cmdMu.Lock()
	defer s.cmdMu.Unlock()

	s.update(func(st *state) {
		st.isUpdating = true
		st.err = ""
	})
	defer s.update(func(st *state) { st.isUpdating = false })

	cart, err := s.heldCartLocked(ctx)
	if err != nil {
		s.fail(ctx, MsgUpdateFailed, err)
		return err
	}
	if cart == nil {
		return nil
	}

	updated, err := s.client.UpdateLineItem(ctx, cart.ID, lineItemID, quantity)
	if err != nil {
		s.fail(ctx, MsgUpdateFailed, err)
		return err
	}
	s.saveStoredID(ctx, updated.ID)
	s.update(func(st *state) { st.cart = updated })
	return nil
}

// RemoveFromCart deletes a line item. An emptied cart stays the active cart.
func (s *Service) RemoveFromCart(ctx context.Context, lineItemID string) error {
	s.cmdMu.Lock()
	defer s.cmdMu.Unlock()

	s.update(func(st *state) {
		st.isUpdating = true
		st.err = ""
	})
	defer s.update(func(st *state) { st.isUpdating = false })

	cart, err := s.heldCartLocked(ctx)
	if err != nil {
		s.fail(ctx, MsgRemoveFailed, err)
		return err
	}
	if cart == nil {
		return nil
	}

	updated, err := s.client.DeleteLineItem(ctx, cart.ID, lineItemID)
	if err != nil {
		s.fail(ctx, MsgRemoveFailed, err)
		return err
	}
	s.saveStoredID(ctx, updated.ID)
	s.update(func(st *state) { st.cart = updated })
	return nil
}

// heldCartLocked returns the cart in memory, restoring it first when the
// container has not been loaded yet. A nil cart means there is nothing to
// mutate.
func (s *Service) heldCartLocked(ctx context.Context) (*domain.Cart, error) {
	phase, cart := s.current()
	if phase == StateReady {
		return cart, nil
	}
	return s.restoreLocked(ctx)
}

// Checkout completes the held (or stored) cart. On success the cart is
// cleared and the order is kept as LastOrder.
func (s *Service) Checkout(ctx context.Context) (*domain.Order, error) {
	s.cmdMu.Lock()
	defer s.cmdMu.Unlock()

	s.update(func(st *state) { st.err = "" })

	active, err := s.heldCartLocked(ctx)
	if err == nil && active == nil {
		active, err = s.loadExistingLocked(ctx)
	}
	if err != nil {
		s.fail(ctx, MsgCheckoutFailed, err)
		return nil, err
	}
	if active.IsEmpty() {
		s.update(func(st *state) { st.err = MsgEmptyCart })
		return nil, domain.ErrEmptyCart
	}

	s.update(func(st *state) { st.isProcessingCheckout = true })
	defer s.update(func(st *state) { st.isProcessingCheckout = false })

	order, err := s.client.CompleteCart(ctx, active.ID)
	if err != nil {
		s.fail(ctx, MsgCheckoutFailed, err)
		return nil, err
	}
	if order == nil {
		s.fail(ctx, MsgCheckoutFailed, domain.ErrCheckoutIncomplete)
		return nil, domain.ErrCheckoutIncomplete
	}

	if err := s.clearLocked(ctx); err != nil {
		s.logg.Error(s.logCtx(ctx), "clear cart after checkout", err)
	}
	s.update(func(st *state) { st.lastOrder = order })
	return order, nil
}

// ClearCart forgets the cart and the last order and discards the stored id.
func (s *Service) ClearCart(ctx context.Context) error {
	s.cmdMu.Lock()
	defer s.cmdMu.Unlock()
	return s.clearLocked(ctx)
}

func (s *Service) clearLocked(ctx context.Context) error {
	s.update(func(st *state) {
		st.phase = StateReady
		st.cart = nil
		st.lastOrder = nil
	})
	if err := s.store.Clear(ctx); err != nil {
		return fmt.Errorf("clear stored cart id: %w", err)
	}
	return nil
}
