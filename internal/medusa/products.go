package medusa

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"medusa-storefront/internal/domain"
)

const defaultProductLimit = 50

var productExpand = strings.Join([]string{
	"variants",
	"variants.prices",
	"images",
	"options",
	"categories",
	"collections",
}, ",")

// ListProducts returns display projections of up to 50 products.
func (c *Client) ListProducts(ctx context.Context) ([]domain.Product, error) {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(defaultProductLimit))
	q.Set("expand", productExpand)
	return c.listProducts(ctx, "products.list", q)
}

// ProductByHandle returns the product with the given handle, or
// domain.ErrNotFound when the backend has none.
func (c *Client) ProductByHandle(ctx context.Context, handle string) (*domain.Product, error) {
	q := url.Values{}
	q.Set("handle", handle)
	q.Set("limit", "1")
	q.Set("expand", productExpand)
	products, err := c.listProducts(ctx, "products.by_handle", q)
	if err != nil {
		return nil, err
	}
	if len(products) == 0 {
		return nil, domain.ErrNotFound
	}
	return &products[0], nil
}

func (c *Client) listProducts(ctx context.Context, op string, q url.Values) ([]domain.Product, error) {
	var resp productListResponse
	if err := c.storeFetch(ctx, op, http.MethodGet, "/store/products?"+q.Encode(), nil, &resp); err != nil {
		return nil, err
	}
	products := make([]domain.Product, 0, len(resp.Products))
	for _, p := range resp.Products {
		products = append(products, c.normalizeProduct(p))
	}
	return products, nil
}

// ListCollections returns the product collections of the store.
func (c *Client) ListCollections(ctx context.Context) ([]domain.ProductCollection, error) {
	var resp collectionListResponse
	if err := c.storeFetch(ctx, "collections.list", http.MethodGet, "/store/collections", nil, &resp); err != nil {
		return nil, err
	}
	return toCollections(resp.Collections), nil
}
