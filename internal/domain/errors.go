package domain

import "errors"

var (
	// ErrNotFound indicates the requested entity was not found.
	ErrNotFound = errors.New("not found")
	// ErrNoCart is returned when no cart could be resolved or created.
	ErrNoCart = errors.New("cart unavailable")
	// ErrEmptyCart rejects checkout of a cart without line items.
	ErrEmptyCart = errors.New("cart is empty")
	// ErrNoVariant rejects add-to-cart for a product without purchasable variants.
	ErrNoVariant = errors.New("product has no purchasable variant")
	// ErrCheckoutIncomplete means the backend did not turn the cart into an order.
	ErrCheckoutIncomplete = errors.New("checkout did not complete")
)
