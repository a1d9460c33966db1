package medusa

import (
	"context"
	"errors"
	"io"
	"net/http"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medusa-storefront/internal/domain"
)

var decimalEqual = cmp.Comparer(func(a, b decimal.Decimal) bool { return a.Equal(b) })

const productsBody = `{"products":[{
	"id":"prod_1","title":"Hoodie","handle":"hoodie","description":"Warm",
	"thumbnail":"https://cdn/thumb.png",
	"variants":[
		{"id":"var_s","title":"S","prices":[{"amount":4500,"currency_code":"eur"},{"amount":5200,"currency_code":"USD"}]},
		{"id":"var_m","title":"M","prices":[{"amount":4900,"currency_code":"usd"}]}
	],
	"options":[
		{"id":"opt_1","title":"Size","values":[{"id":"a","value":"S"},{"id":"b","value":"M"}]},
		{"id":"opt_2","title":"Empty","values":[]}
	],
	"categories":[{"id":"cat_1","name":"Tops"}],
	"collections":[{"id":"col_1","title":"Winter","handle":"winter"}]
}]}`

func TestListProducts_Projection(t *testing.T) {
	var gotQuery map[string][]string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/store/products", r.URL.Path)
		gotQuery = r.URL.Query()
		_, _ = io.WriteString(w, productsBody)
	})

	products, err := client.ListProducts(context.Background())
	require.NoError(t, err)
	require.Len(t, products, 1)

	assert.Equal(t, []string{"50"}, gotQuery["limit"])
	assert.Equal(t, []string{productExpand}, gotQuery["expand"])

	p := products[0]
	assert.True(t, p.Price.Equal(dec("49")), "cheapest preferred-currency price, got %s", p.Price)
	assert.Equal(t, "USD", p.CurrencyCode)

	want := domain.Product{
		ID:           "prod_1",
		Name:         "Hoodie",
		Slug:         "hoodie",
		Description:  "Warm",
		Price:        dec("49"),
		CurrencyCode: "USD",
		Plans:        []domain.ProductPlan{{ID: "var_s", Name: "S"}, {ID: "var_m", Name: "M"}},
		Perks:        []domain.ProductPerk{{Text: "Size: S, M"}},
		Images:       []domain.ProductImage{{URL: "https://cdn/thumb.png"}},
		Categories:   []domain.ProductCategory{{ID: "cat_1", Name: "Tops"}},
		Collections:  []domain.ProductCollection{{ID: "col_1", Title: "Winter", Handle: "winter"}},
	}
	if diff := cmp.Diff(want, p, decimalEqual); diff != "" {
		t.Fatalf("product mismatch (-want +got):\n%s", diff)
	}
}

func TestExtractPrice_FallsBackToAnyCurrency(t *testing.T) {
	client := New(Options{BaseURL: "http://unused", PreferredCurrency: "usd"})
	price, currency := client.extractPrice(storeProduct{Variants: []storeVariant{
		{Prices: []storePrice{{Amount: dec("3000"), CurrencyCode: "eur"}, {Amount: dec("2500"), CurrencyCode: "gbp"}}},
	}})
	assert.True(t, price.Equal(dec("25")))
	assert.Equal(t, "eur", currency, "currency of the first relevant price is reported")

	price, currency = client.extractPrice(storeProduct{})
	assert.True(t, price.IsZero())
	assert.Equal(t, "usd", currency)
}

func TestProductByHandle(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "hoodie", r.URL.Query().Get("handle"))
			assert.Equal(t, "1", r.URL.Query().Get("limit"))
			_, _ = io.WriteString(w, productsBody)
		})
		p, err := client.ProductByHandle(context.Background(), "hoodie")
		require.NoError(t, err)
		assert.Equal(t, "prod_1", p.ID)
	})

	t.Run("not found", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, `{"products":[]}`)
		})
		_, err := client.ProductByHandle(context.Background(), "ghost")
		assert.True(t, errors.Is(err, domain.ErrNotFound))
	})
}

func TestListCollections(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/store/collections", r.URL.Path)
		_, _ = io.WriteString(w, `{"collections":[{"id":"c1","title":"Summer","handle":"summer"}]}`)
	})
	cols, err := client.ListCollections(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []domain.ProductCollection{{ID: "c1", Title: "Summer", Handle: "summer"}}, cols)
}
