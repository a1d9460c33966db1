package domain

import "github.com/shopspring/decimal"

// StatusPending is reported for any order status the backend leaves blank.
const StatusPending = "pending"

// Order is the immutable snapshot taken when a cart completes.
type Order struct {
	ID                string
	DisplayID         *int
	Status            string
	PaymentStatus     string
	FulfillmentStatus string
	CreatedAt         string
	CurrencyCode      string
	Subtotal          decimal.Decimal
	Total             decimal.Decimal
	Items             []LineItem
	TrackingLinks     []TrackingLink
}

type TrackingLink struct {
	URL            string
	TrackingNumber string
}
