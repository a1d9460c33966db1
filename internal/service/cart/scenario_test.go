package cart

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medusa-storefront/internal/medusa"
	cartrepo "medusa-storefront/internal/repository/cart"
)

// fakeStore is an in-memory commerce backend serving the store cart routes.
type fakeStore struct {
	mu    sync.Mutex
	items map[string]map[string]any
	order int
}

func newFakeStore() *fakeStore {
	return &fakeStore{items: make(map[string]map[string]any)}
}

func (f *fakeStore) cartBody() map[string]any {
	items := make([]map[string]any, 0, len(f.items))
	for _, item := range f.items {
		items = append(items, item)
	}
	return map[string]any{"cart": map[string]any{
		"id":     "cart_1",
		"region": map[string]any{"currency_code": "usd"},
		"items":  items,
	}}
}

func (f *fakeStore) handler() http.Handler {
	mux := http.NewServeMux()
	write := func(w http.ResponseWriter, body any) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(body)
	}
	mux.HandleFunc("POST /store/carts", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		write(w, f.cartBody())
	})
	mux.HandleFunc("GET /store/carts/{id}", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		write(w, f.cartBody())
	})
	mux.HandleFunc("POST /store/carts/{id}/line-items", func(w http.ResponseWriter, r *http.Request) {
		var in struct {
			VariantID string `json:"variant_id"`
			Quantity  int    `json:"quantity"`
		}
		_ = json.NewDecoder(r.Body).Decode(&in)
		f.mu.Lock()
		defer f.mu.Unlock()
		f.items["li_1"] = map[string]any{
			"id":         "li_1",
			"title":      "Tee",
			"variant_id": in.VariantID,
			"quantity":   in.Quantity,
			"unit_price": 1500,
		}
		write(w, f.cartBody())
	})
	mux.HandleFunc("POST /store/carts/{id}/line-items/{line}", func(w http.ResponseWriter, r *http.Request) {
		var in struct {
			Quantity int `json:"quantity"`
		}
		_ = json.NewDecoder(r.Body).Decode(&in)
		f.mu.Lock()
		defer f.mu.Unlock()
		if item, ok := f.items[r.PathValue("line")]; ok {
			item["quantity"] = in.Quantity
		}
		write(w, f.cartBody())
	})
	mux.HandleFunc("DELETE /store/carts/{id}/line-items/{line}", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		delete(f.items, r.PathValue("line"))
		write(w, f.cartBody())
	})
	return mux
}

func TestScenario_AddUpdateRemove(t *testing.T) {
	backend := newFakeStore()
	srv := httptest.NewServer(backend.handler())
	transport := &http.Transport{}
	t.Cleanup(func() {
		transport.CloseIdleConnections()
		srv.Close()
	})

	client := medusa.New(medusa.Options{BaseURL: srv.URL, HTTPClient: &http.Client{Transport: transport}})
	store := cartrepo.Scoped(cartrepo.NewMemory(0), "session")
	svc := New(client, store, nil)
	ctx := context.Background()

	require.NoError(t, svc.AddToCart(ctx, purchasable, 2))
	snap := svc.Snapshot()
	require.Len(t, snap.Items, 1)
	assert.Equal(t, "cart_1", snap.CartID)
	assert.True(t, snap.Items[0].UnitPrice.Equal(decimal.NewFromInt(15)), "unit price %s", snap.Items[0].UnitPrice)
	assert.True(t, snap.Items[0].Total.Equal(decimal.NewFromInt(30)), "line total %s", snap.Items[0].Total)

	require.NoError(t, svc.UpdateQuantity(ctx, "li_1", 1))
	snap = svc.Snapshot()
	require.Len(t, snap.Items, 1)
	assert.True(t, snap.Items[0].Total.Equal(decimal.NewFromInt(15)))

	require.NoError(t, svc.RemoveFromCart(ctx, "li_1"))
	snap = svc.Snapshot()
	assert.Empty(t, snap.Items)
	assert.Equal(t, "cart_1", snap.CartID)

	id, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "cart_1", id)
}
