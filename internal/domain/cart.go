package domain

import "github.com/shopspring/decimal"

// DefaultCurrency is used when the backend omits a region or order currency.
const DefaultCurrency = "usd"

// Cart is the normalised mirror of a backend cart. All amounts are in major
// currency units.
type Cart struct {
	ID           string
	Items        []LineItem
	CurrencyCode string
	Subtotal     decimal.Decimal
	Total        decimal.Decimal
}

// IsEmpty reports whether the cart is missing or holds no line items.
func (c *Cart) IsEmpty() bool {
	return c == nil || len(c.Items) == 0
}

// LineItem is one variant-quantity entry of a cart or order.
type LineItem struct {
	ID           string
	Title        string
	Description  string
	Thumbnail    string
	Quantity     int
	UnitPrice    decimal.Decimal
	Total        decimal.Decimal
	VariantID    string
	ProductID    string
	CurrencyCode string
}

// SumLineTotals adds up line totals; used only when the backend omits cart totals.
func SumLineTotals(items []LineItem) decimal.Decimal {
	sum := decimal.Zero
	for _, item := range items {
		sum = sum.Add(item.Total)
	}
	return sum
}
