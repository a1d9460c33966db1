package cart

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"testing"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medusa-storefront/internal/domain"
	"medusa-storefront/internal/medusa"
	cartrepo "medusa-storefront/internal/repository/cart"
)

type stubClient struct {
	mu sync.Mutex

	createCart  *domain.Cart
	createErr   error
	createCalls int

	retrieveCart  *domain.Cart
	retrieveErr   error
	retrieveCalls int
	// retrieveFails is drained one error per call before retrieveErr applies.
	retrieveFails []error

	addCart   *domain.Cart
	addErr    error
	addCalls  int
	lastAddID string
	lastAddIn medusa.LineItemInput

	updateCart *domain.Cart
	updateErr  error
	lastUpdate [2]any

	deleteCart  *domain.Cart
	deleteErr   error
	deleteCalls int
	lastDelete  string

	order         *domain.Order
	completeErr   error
	completeCalls int
}

func (s *stubClient) CreateCart(context.Context) (*domain.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.createCalls++
	return s.createCart, s.createErr
}

func (s *stubClient) RetrieveCart(_ context.Context, _ string) (*domain.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.retrieveCalls++
	if len(s.retrieveFails) > 0 {
		err := s.retrieveFails[0]
		s.retrieveFails = s.retrieveFails[1:]
		return nil, err
	}
	return s.retrieveCart, s.retrieveErr
}

func (s *stubClient) AddLineItem(_ context.Context, cartID string, in medusa.LineItemInput) (*domain.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.addCalls++
	s.lastAddID = cartID
	s.lastAddIn = in
	return s.addCart, s.addErr
}

func (s *stubClient) UpdateLineItem(_ context.Context, _ string, lineItemID string, quantity int) (*domain.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastUpdate = [2]any{lineItemID, quantity}
	return s.updateCart, s.updateErr
}

func (s *stubClient) DeleteLineItem(_ context.Context, _ string, lineItemID string) (*domain.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleteCalls++
	s.lastDelete = lineItemID
	return s.deleteCart, s.deleteErr
}

func (s *stubClient) CompleteCart(context.Context, string) (*domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.completeCalls++
	return s.order, s.completeErr
}

func cartWith(id string, items ...domain.LineItem) *domain.Cart {
	return &domain.Cart{
		ID:           id,
		Items:        items,
		CurrencyCode: "usd",
		Subtotal:     domain.SumLineTotals(items),
		Total:        domain.SumLineTotals(items),
	}
}

func lineItem(id string, qty int, unit string) domain.LineItem {
	price := decimal.RequireFromString(unit)
	return domain.LineItem{
		ID:           id,
		Title:        gofakeit.ProductName(),
		Quantity:     qty,
		UnitPrice:    price,
		Total:        price.Mul(decimal.NewFromInt(int64(qty))),
		VariantID:    "v1",
		CurrencyCode: "usd",
	}
}

var purchasable = domain.Product{ID: "prod_1", Name: "Tee", Plans: []domain.ProductPlan{{ID: "v1", Name: "S"}}}

func newTestService(t *testing.T, client *stubClient, storedID string) (*Service, cartrepo.Store) {
	t.Helper()
	store := cartrepo.Scoped(cartrepo.NewMemory(0), gofakeit.UUID())
	if storedID != "" {
		require.NoError(t, store.Save(context.Background(), storedID))
	}
	return New(client, store, nil), store
}

func storedID(t *testing.T, store cartrepo.Store) string {
	t.Helper()
	id, err := store.Load(context.Background())
	require.NoError(t, err)
	return id
}

func TestLoad_WithoutStoredID(t *testing.T) {
	client := &stubClient{}
	svc, _ := newTestService(t, client, "")

	assert.Equal(t, StateUninitialized, svc.Snapshot().State)
	cart, err := svc.Load(context.Background())
	require.NoError(t, err)
	assert.Nil(t, cart)

	snap := svc.Snapshot()
	assert.Equal(t, StateReady, snap.State)
	assert.False(t, snap.IsLoading)
	assert.Empty(t, snap.Items)
	assert.Equal(t, domain.DefaultCurrency, snap.CurrencyCode)
	assert.Zero(t, client.retrieveCalls)
}

func TestLoad_RestoresStoredCartOnce(t *testing.T) {
	client := &stubClient{retrieveCart: cartWith("cart_1", lineItem("li_1", 1, "15"))}
	svc, _ := newTestService(t, client, "cart_1")

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			cart, err := svc.Load(context.Background())
			assert.NoError(t, err)
			assert.Equal(t, "cart_1", cart.ID)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, client.retrieveCalls)
	assert.Equal(t, "cart_1", svc.Snapshot().CartID)
}

func TestLoad_DiscardsUnresolvableCart(t *testing.T) {
	client := &stubClient{retrieveErr: &medusa.FetchError{Kind: medusa.KindStatus, Status: http.StatusNotFound}}
	svc, store := newTestService(t, client, "cart_gone")

	cart, err := svc.Load(context.Background())
	require.NoError(t, err)
	assert.Nil(t, cart)
	assert.Empty(t, storedID(t, store))
	assert.Equal(t, StateReady, svc.Snapshot().State)
}

var errRefused = &medusa.FetchError{Kind: medusa.KindTransport, Err: errors.New("dial tcp: refused")}

func TestLoad_TransportFailureKeepsStoredID(t *testing.T) {
	client := &stubClient{retrieveErr: errRefused}
	svc, store := newTestService(t, client, "cart_1")

	_, err := svc.Load(context.Background())
	require.Error(t, err)
	assert.Equal(t, "cart_1", storedID(t, store))
	assert.Equal(t, StateUninitialized, svc.Snapshot().State)
	assert.False(t, svc.Snapshot().IsLoading)
}

func TestLoad_RetriesAfterTransportFailure(t *testing.T) {
	client := &stubClient{
		retrieveFails: []error{errRefused},
		retrieveCart:  cartWith("cart_1", lineItem("li_1", 1, "15")),
	}
	svc, store := newTestService(t, client, "cart_1")

	_, err := svc.Load(context.Background())
	require.Error(t, err)

	cart, err := svc.Load(context.Background())
	require.NoError(t, err)
	require.NotNil(t, cart)
	assert.Equal(t, "cart_1", cart.ID)
	assert.Equal(t, 2, client.retrieveCalls)
	assert.Equal(t, "cart_1", storedID(t, store))

	snap := svc.Snapshot()
	assert.Equal(t, StateReady, snap.State)
	assert.Len(t, snap.Items, 1)
}

func TestAddToCart_TransportFailureNeverReplacesStoredCart(t *testing.T) {
	client := &stubClient{retrieveErr: errRefused, createCart: cartWith("cart_new")}
	svc, store := newTestService(t, client, "cart_1")

	err := svc.AddToCart(context.Background(), purchasable, 1)
	require.ErrorIs(t, err, errRefused)

	assert.Zero(t, client.createCalls)
	assert.Zero(t, client.addCalls)
	assert.Equal(t, "cart_1", storedID(t, store))
	assert.Equal(t, MsgCreateCart, svc.Snapshot().Error)
	assert.False(t, svc.Snapshot().IsUpdating)
}

func TestMutations_RestoreFailureSetsError(t *testing.T) {
	cases := []struct {
		name string
		run  func(*Service) error
		want string
	}{
		{
			name: "update",
			run:  func(svc *Service) error { return svc.UpdateQuantity(context.Background(), "li_1", 2) },
			want: MsgUpdateFailed,
		},
		{
			name: "remove",
			run:  func(svc *Service) error { return svc.RemoveFromCart(context.Background(), "li_1") },
			want: MsgRemoveFailed,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			client := &stubClient{retrieveErr: errRefused}
			svc, store := newTestService(t, client, "cart_1")

			require.ErrorIs(t, tc.run(svc), errRefused)

			snap := svc.Snapshot()
			assert.Equal(t, tc.want, snap.Error)
			assert.False(t, snap.IsUpdating)
			assert.Equal(t, StateUninitialized, snap.State)
			assert.Equal(t, "cart_1", storedID(t, store))
			assert.Nil(t, client.lastUpdate[0])
			assert.Zero(t, client.deleteCalls)
		})
	}
}

func TestAddToCart_NoVariant(t *testing.T) {
	client := &stubClient{}
	svc, _ := newTestService(t, client, "")

	err := svc.AddToCart(context.Background(), domain.Product{ID: "p"}, 1)
	assert.ErrorIs(t, err, domain.ErrNoVariant)
	assert.Equal(t, MsgUnavailable, svc.Snapshot().Error)
	assert.Zero(t, client.createCalls)
	assert.Zero(t, client.addCalls)
}

func TestAddToCart_CreatesCartAndStoresID(t *testing.T) {
	client := &stubClient{
		createCart: cartWith("cart_new"),
		addCart:    cartWith("cart_new", lineItem("li_1", 1, "15")),
	}
	svc, store := newTestService(t, client, "")

	require.NoError(t, svc.AddToCart(context.Background(), purchasable, 0))

	assert.Equal(t, 1, client.createCalls)
	assert.Equal(t, "cart_new", client.lastAddID)
	assert.Equal(t, medusa.LineItemInput{VariantID: "v1", Quantity: 1}, client.lastAddIn, "quantity below one adds a single unit")
	assert.Equal(t, "cart_new", storedID(t, store))

	snap := svc.Snapshot()
	assert.Equal(t, "cart_new", snap.CartID)
	assert.Len(t, snap.Items, 1)
	assert.False(t, snap.IsUpdating)
	assert.Empty(t, snap.Error)
}

func TestAddToCart_FailurePreservesState(t *testing.T) {
	existing := cartWith("cart_1", lineItem("li_1", 1, "15"))
	client := &stubClient{retrieveCart: existing, addErr: errors.New("boom")}
	svc, _ := newTestService(t, client, "cart_1")
	_, err := svc.Load(context.Background())
	require.NoError(t, err)

	err = svc.AddToCart(context.Background(), purchasable, 2)
	require.Error(t, err)

	snap := svc.Snapshot()
	assert.Equal(t, MsgAddFailed, snap.Error)
	assert.Equal(t, "cart_1", snap.CartID)
	assert.Len(t, snap.Items, 1)
	assert.False(t, snap.IsUpdating)
}

func TestAddToCart_CreateFailure(t *testing.T) {
	client := &stubClient{createErr: errors.New("backend down")}
	svc, _ := newTestService(t, client, "")

	err := svc.AddToCart(context.Background(), purchasable, 1)
	assert.ErrorIs(t, err, domain.ErrNoCart)
	assert.Equal(t, MsgCreateCart, svc.Snapshot().Error)
	assert.Zero(t, client.addCalls)
}

func TestAddToCart_ConcurrentCallsCreateOneCart(t *testing.T) {
	client := &stubClient{
		createCart: cartWith("cart_1"),
		addCart:    cartWith("cart_1", lineItem("li_1", 1, "15")),
	}
	svc, _ := newTestService(t, client, "")

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, svc.AddToCart(context.Background(), purchasable, 1))
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, client.createCalls)
	assert.Equal(t, 10, client.addCalls)
}

func TestUpdateQuantity(t *testing.T) {
	loaded := func(t *testing.T, client *stubClient) *Service {
		client.retrieveCart = cartWith("cart_1", lineItem("li_1", 2, "15"))
		svc, _ := newTestService(t, client, "cart_1")
		_, err := svc.Load(context.Background())
		require.NoError(t, err)
		return svc
	}

	t.Run("negative is ignored", func(t *testing.T) {
		client := &stubClient{}
		svc := loaded(t, client)
		before := svc.Snapshot()

		require.NoError(t, svc.UpdateQuantity(context.Background(), "li_1", -3))
		assert.Equal(t, before, svc.Snapshot())
		assert.Nil(t, client.lastUpdate[0])
	})

	t.Run("zero removes", func(t *testing.T) {
		client := &stubClient{deleteCart: cartWith("cart_1")}
		svc := loaded(t, client)

		require.NoError(t, svc.UpdateQuantity(context.Background(), "li_1", 0))
		assert.Equal(t, 1, client.deleteCalls)
		assert.Equal(t, "li_1", client.lastDelete)
		assert.Empty(t, svc.Snapshot().Items)
	})

	t.Run("positive updates", func(t *testing.T) {
		client := &stubClient{updateCart: cartWith("cart_1", lineItem("li_1", 1, "15"))}
		svc := loaded(t, client)

		require.NoError(t, svc.UpdateQuantity(context.Background(), "li_1", 1))
		assert.Equal(t, [2]any{"li_1", 1}, client.lastUpdate)
		assert.True(t, svc.Snapshot().Total.Equal(decimal.NewFromInt(15)))
	})

	t.Run("failure", func(t *testing.T) {
		client := &stubClient{updateErr: errors.New("boom")}
		svc := loaded(t, client)

		require.Error(t, svc.UpdateQuantity(context.Background(), "li_1", 5))
		snap := svc.Snapshot()
		assert.Equal(t, MsgUpdateFailed, snap.Error)
		assert.Equal(t, 2, snap.Items[0].Quantity)
	})

	t.Run("no cart is a no-op", func(t *testing.T) {
		client := &stubClient{}
		svc, _ := newTestService(t, client, "")

		require.NoError(t, svc.UpdateQuantity(context.Background(), "li_1", 4))
		assert.Nil(t, client.lastUpdate[0])
		assert.Empty(t, svc.Snapshot().Error)
	})
}

func TestRemoveFromCart_EmptyCartKeepsID(t *testing.T) {
	client := &stubClient{
		retrieveCart: cartWith("cart_1", lineItem("li_1", 1, "15")),
		deleteCart:   cartWith("cart_1"),
	}
	svc, store := newTestService(t, client, "cart_1")

	require.NoError(t, svc.RemoveFromCart(context.Background(), "li_1"))
	assert.Equal(t, "cart_1", storedID(t, store))
	assert.Equal(t, "cart_1", svc.Snapshot().CartID)
	assert.Empty(t, svc.Snapshot().Items)
}

func TestRemoveFromCart_Failure(t *testing.T) {
	client := &stubClient{
		retrieveCart: cartWith("cart_1", lineItem("li_1", 1, "15")),
		deleteErr:    errors.New("boom"),
	}
	svc, _ := newTestService(t, client, "cart_1")

	require.Error(t, svc.RemoveFromCart(context.Background(), "li_1"))
	assert.Equal(t, MsgRemoveFailed, svc.Snapshot().Error)
	assert.Len(t, svc.Snapshot().Items, 1)
}

func TestCheckout_EmptyCart(t *testing.T) {
	client := &stubClient{retrieveCart: cartWith("cart_1")}
	svc, _ := newTestService(t, client, "cart_1")

	order, err := svc.Checkout(context.Background())
	assert.Nil(t, order)
	assert.ErrorIs(t, err, domain.ErrEmptyCart)
	assert.Equal(t, MsgEmptyCart, svc.Snapshot().Error)
	assert.Zero(t, client.completeCalls)
}

func TestCheckout_NoCartAtAll(t *testing.T) {
	client := &stubClient{}
	svc, _ := newTestService(t, client, "")

	_, err := svc.Checkout(context.Background())
	assert.ErrorIs(t, err, domain.ErrEmptyCart)
	assert.Zero(t, client.completeCalls)
}

func TestCheckout_Success(t *testing.T) {
	order := &domain.Order{ID: "order_1", Status: domain.StatusPending, Total: decimal.NewFromInt(15)}
	client := &stubClient{
		retrieveCart: cartWith("cart_1", lineItem("li_1", 1, "15")),
		order:        order,
	}
	svc, store := newTestService(t, client, "cart_1")

	got, err := svc.Checkout(context.Background())
	require.NoError(t, err)
	assert.Same(t, order, got)

	snap := svc.Snapshot()
	assert.Empty(t, snap.Items)
	assert.Empty(t, snap.CartID)
	assert.Same(t, order, snap.LastOrder)
	assert.False(t, snap.IsProcessingCheckout)
	assert.Empty(t, storedID(t, store))
}

func TestCheckout_IncompleteKeepsCart(t *testing.T) {
	client := &stubClient{retrieveCart: cartWith("cart_1", lineItem("li_1", 1, "15"))}
	svc, store := newTestService(t, client, "cart_1")

	order, err := svc.Checkout(context.Background())
	assert.Nil(t, order)
	assert.ErrorIs(t, err, domain.ErrCheckoutIncomplete)

	snap := svc.Snapshot()
	assert.Equal(t, MsgCheckoutFailed, snap.Error)
	assert.Equal(t, "cart_1", snap.CartID)
	assert.Equal(t, "cart_1", storedID(t, store))
}

func TestAddToCart_ClearsLastOrder(t *testing.T) {
	client := &stubClient{
		retrieveCart: cartWith("cart_1", lineItem("li_1", 1, "15")),
		order:        &domain.Order{ID: "order_1"},
		createCart:   cartWith("cart_2"),
		addCart:      cartWith("cart_2", lineItem("li_2", 1, "15")),
	}
	svc, _ := newTestService(t, client, "cart_1")

	_, err := svc.Checkout(context.Background())
	require.NoError(t, err)
	require.NotNil(t, svc.Snapshot().LastOrder)

	require.NoError(t, svc.AddToCart(context.Background(), purchasable, 1))
	assert.Nil(t, svc.Snapshot().LastOrder)
	assert.Equal(t, "cart_2", svc.Snapshot().CartID)
}

func TestClearCart(t *testing.T) {
	client := &stubClient{retrieveCart: cartWith("cart_1", lineItem("li_1", 1, "15"))}
	svc, store := newTestService(t, client, "cart_1")
	_, err := svc.Load(context.Background())
	require.NoError(t, err)

	require.NoError(t, svc.ClearCart(context.Background()))
	assert.Empty(t, svc.Snapshot().CartID)
	assert.Empty(t, storedID(t, store))
}

func TestSubscribe(t *testing.T) {
	client := &stubClient{
		createCart: cartWith("cart_1"),
		addCart:    cartWith("cart_1", lineItem("li_1", 1, "15")),
	}
	svc, _ := newTestService(t, client, "")

	var seen []Snapshot
	unsubscribe := svc.Subscribe(func(s Snapshot) { seen = append(seen, s) })

	require.NoError(t, svc.AddToCart(context.Background(), purchasable, 1))
	require.NotEmpty(t, seen)

	sawUpdating := false
	for _, s := range seen {
		sawUpdating = sawUpdating || s.IsUpdating
	}
	assert.True(t, sawUpdating, "subscribers observe the updating flag")
	last := seen[len(seen)-1]
	assert.False(t, last.IsUpdating)
	assert.Equal(t, "cart_1", last.CartID)

	unsubscribe()
	unsubscribe()
	count := len(seen)
	require.NoError(t, svc.ClearCart(context.Background()))
	assert.Len(t, seen, count)
}

func TestEnsureCart_ReusesHeldCart(t *testing.T) {
	client := &stubClient{createCart: cartWith("cart_1")}
	svc, _ := newTestService(t, client, "")

	for i := 0; i < 3; i++ {
		cart, err := svc.EnsureCart(context.Background())
		require.NoError(t, err, fmt.Sprintf("call %d", i))
		assert.Equal(t, "cart_1", cart.ID)
	}
	assert.Equal(t, 1, client.createCalls)
}
