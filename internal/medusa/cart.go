package medusa

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"medusa-storefront/internal/domain"
)

// cartExpand is requested on every cart call so line items arrive with their
// variant, product, region and addresses.
var cartExpand = strings.Join([]string{
	"items",
	"items.variant",
	"items.variant.product",
	"region",
	"shipping_address",
	"billing_address",
}, ",")

var cartQuery = "?expand=" + url.QueryEscape(cartExpand)

func cartPath(cartID string, suffix ...string) string {
	parts := append([]string{"/store/carts", url.PathEscape(cartID)}, suffix...)
	return strings.Join(parts, "/")
}

// LineItemInput adds a variant to a cart.
type LineItemInput struct {
	VariantID string `json:"variant_id"`
	Quantity  int    `json:"quantity"`
}

type quantityInput struct {
	Quantity int `json:"quantity"`
}

func (c *Client) cartCall(ctx context.Context, op, method, path string, payload any) (*domain.Cart, error) {
	var resp cartResponse
	if err := c.storeFetch(ctx, op, method, path, payload, &resp); err != nil {
		return nil, err
	}
	if resp.Cart == nil {
		return nil, c.fail(ctx, &FetchError{Op: op, Kind: KindDecode, URL: c.buildURL(path), Status: http.StatusOK}, timeNone)
	}
	return c.normalizeCart(resp.Cart), nil
}

// CreateCart starts an empty cart.
func (c *Client) CreateCart(ctx context.Context) (*domain.Cart, error) {
	return c.cartCall(ctx, "cart.create", http.MethodPost, "/store/carts"+cartQuery, struct{}{})
}

// RetrieveCart fetches a cart by id.
func (c *Client) RetrieveCart(ctx context.Context, cartID string) (*domain.Cart, error) {
	return c.cartCall(ctx, "cart.retrieve", http.MethodGet, cartPath(cartID)+cartQuery, nil)
}

// AddLineItem adds quantity units of a variant and returns the updated cart.
func (c *Client) AddLineItem(ctx context.Context, cartID string, in LineItemInput) (*domain.Cart, error) {
	return c.cartCall(ctx, "cart.line_item.add", http.MethodPost, cartPath(cartID, "line-items")+cartQuery, in)
}

// UpdateLineItem sets the quantity of an existing line item.
func (c *Client) UpdateLineItem(ctx context.Context, cartID, lineItemID string, quantity int) (*domain.Cart, error) {
	path := cartPath(cartID, "line-items", url.PathEscape(lineItemID)) + cartQuery
	return c.cartCall(ctx, "cart.line_item.update", http.MethodPost, path, quantityInput{Quantity: quantity})
}

// DeleteLineItem removes a line item.
func (c *Client) DeleteLineItem(ctx context.Context, cartID, lineItemID string) (*domain.Cart, error) {
	path := cartPath(cartID, "line-items", url.PathEscape(lineItemID)) + cartQuery
	return c.cartCall(ctx, "cart.line_item.delete", http.MethodDelete, path, nil)
}

// CompleteCart checks the cart out. A nil order with a nil error means the
// backend answered but did not produce an order (for example when payment
// needs another step); an error means the call itself failed.
func (c *Client) CompleteCart(ctx context.Context, cartID string) (*domain.Order, error) {
	var resp completeCartResponse
	if err := c.storeFetch(ctx, "cart.complete", http.MethodPost, cartPath(cartID, "complete"), struct{}{}, &resp); err != nil {
		return nil, err
	}
	order := extractOrder(resp)
	if order == nil {
		c.logg.Warn(c.logg.WithField(ctx, "result_type", resp.Type), "cart completion returned no order")
		return nil, nil
	}
	return c.normalizeOrder(order), nil
}

func extractOrder(resp completeCartResponse) *storeOrder {
	if resp.Order != nil && resp.Order.ID != "" {
		return resp.Order
	}
	if resp.Type == "order" && len(resp.Data) > 0 {
		var order storeOrder
		if err := json.Unmarshal(resp.Data, &order); err == nil && order.ID != "" {
			return &order
		}
	}
	return nil
}
