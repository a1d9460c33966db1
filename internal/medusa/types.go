package medusa

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// Wire shapes of the store API. Amounts stay raw until normalised.

type storeRegion struct {
	ID           string `json:"id"`
	CurrencyCode string `json:"currency_code"`
}

type storeLineItem struct {
	ID          string              `json:"id"`
	Title       string              `json:"title"`
	Description *string             `json:"description"`
	Thumbnail   *string             `json:"thumbnail"`
	Quantity    int                 `json:"quantity"`
	VariantID   string              `json:"variant_id"`
	ProductID   string              `json:"product_id"`
	UnitPrice   decimal.Decimal     `json:"unit_price"`
	Subtotal    decimal.NullDecimal `json:"subtotal"`
	Total       decimal.NullDecimal `json:"total"`
}

type storeCart struct {
	ID            string              `json:"id"`
	Items         []storeLineItem     `json:"items"`
	Region        *storeRegion        `json:"region"`
	Subtotal      decimal.NullDecimal `json:"subtotal"`
	Total         decimal.NullDecimal `json:"total"`
	TaxTotal      decimal.NullDecimal `json:"tax_total"`
	DiscountTotal decimal.NullDecimal `json:"discount_total"`
	CreatedAt     string              `json:"created_at"`
	UpdatedAt     string              `json:"updated_at"`
}

type storeTrackingLink struct {
	ID             string  `json:"id"`
	URL            *string `json:"url"`
	TrackingNumber *string `json:"tracking_number"`
}

type storeFulfillment struct {
	ID            string              `json:"id"`
	TrackingLinks []storeTrackingLink `json:"tracking_links"`
}

type storeOrder struct {
	ID                string              `json:"id"`
	DisplayID         *int                `json:"display_id"`
	Status            string              `json:"status"`
	PaymentStatus     string              `json:"payment_status"`
	FulfillmentStatus string              `json:"fulfillment_status"`
	CurrencyCode      string              `json:"currency_code"`
	Subtotal          decimal.NullDecimal `json:"subtotal"`
	Total             decimal.NullDecimal `json:"total"`
	CreatedAt         string              `json:"created_at"`
	Items             []storeLineItem     `json:"items"`
	Fulfillments      []storeFulfillment  `json:"fulfillments"`
}

type cartResponse struct {
	Cart *storeCart `json:"cart"`
}

// completeCartResponse is the tagged union returned by cart completion: Type
// is "order" or "cart" and Data holds the matching object.
type completeCartResponse struct {
	Type  string          `json:"type"`
	Data  json.RawMessage `json:"data"`
	Order *storeOrder     `json:"order"`
	Cart  *storeCart      `json:"cart"`
}

type storePrice struct {
	Amount       decimal.Decimal `json:"amount"`
	CurrencyCode string          `json:"currency_code"`
}

type storeVariant struct {
	ID     string       `json:"id"`
	Title  string       `json:"title"`
	Prices []storePrice `json:"prices"`
}

type storeOptionValue struct {
	ID    string `json:"id"`
	Value string `json:"value"`
}

type storeOption struct {
	ID     string             `json:"id"`
	Title  string             `json:"title"`
	Values []storeOptionValue `json:"values"`
}

type storeImage struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

type storeCategory struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type storeCollection struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Handle string `json:"handle"`
}

type storeProduct struct {
	ID          string            `json:"id"`
	Title       string            `json:"title"`
	Handle      string            `json:"handle"`
	Description *string           `json:"description"`
	Thumbnail   *string           `json:"thumbnail"`
	Images      []storeImage      `json:"images"`
	Variants    []storeVariant    `json:"variants"`
	Options     []storeOption     `json:"options"`
	Categories  []storeCategory   `json:"categories"`
	Collections []storeCollection `json:"collections"`
}

type productListResponse struct {
	Products []storeProduct `json:"products"`
}

type collectionListResponse struct {
	Collections []storeCollection `json:"collections"`
}
