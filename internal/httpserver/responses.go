package httpserver

import (
	"github.com/shopspring/decimal"

	"medusa-storefront/internal/domain"
	"medusa-storefront/internal/money"
	cartsvc "medusa-storefront/internal/service/cart"
)

// priceValue carries a major-unit amount together with its minor-unit form.
type priceValue struct {
	Amount         string `json:"amount"`
	CurrencyCode   string `json:"currency_code"`
	CentAmount     int64  `json:"cent_amount"`
	FractionDigits int    `json:"fraction_digits"`
}

func toPriceValue(amount decimal.Decimal, currencyCode string) priceValue {
	digits := money.MinorUnitExponent(currencyCode)
	return priceValue{
		Amount:         amount.StringFixed(int32(digits)),
		CurrencyCode:   currencyCode,
		CentAmount:     amount.Shift(int32(digits)).Round(0).IntPart(),
		FractionDigits: digits,
	}
}

type lineItemResponse struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Thumbnail   string     `json:"thumbnail,omitempty"`
	Quantity    int        `json:"quantity"`
	UnitPrice   priceValue `json:"unit_price"`
	Total       priceValue `json:"total"`
	VariantID   string     `json:"variant_id"`
	ProductID   string     `json:"product_id"`
}

type cartResponse struct {
	State                string             `json:"state"`
	CartID               *string            `json:"cart_id"`
	Items                []lineItemResponse `json:"items"`
	CurrencyCode         string             `json:"currency_code"`
	Subtotal             priceValue         `json:"subtotal"`
	Total                priceValue         `json:"total"`
	IsLoading            bool               `json:"is_loading"`
	IsUpdating           bool               `json:"is_updating"`
	IsProcessingCheckout bool               `json:"is_processing_checkout"`
	Error                *string            `json:"error"`
	LastOrder            *orderResponse     `json:"last_order"`
}

type trackingLinkResponse struct {
	URL            string  `json:"url"`
	TrackingNumber *string `json:"tracking_number"`
}

type orderResponse struct {
	ID                string                 `json:"id"`
	DisplayID         *int                   `json:"display_id,omitempty"`
	Status            string                 `json:"status"`
	PaymentStatus     string                 `json:"payment_status,omitempty"`
	FulfillmentStatus string                 `json:"fulfillment_status,omitempty"`
	CreatedAt         string                 `json:"created_at,omitempty"`
	CurrencyCode      string                 `json:"currency_code"`
	Subtotal          priceValue             `json:"subtotal"`
	Total             priceValue             `json:"total"`
	Items             []lineItemResponse     `json:"items"`
	TrackingLinks     []trackingLinkResponse `json:"tracking_links"`
}

func toLineItems(items []domain.LineItem) []lineItemResponse {
	out := make([]lineItemResponse, 0, len(items))
	for _, item := range items {
		out = append(out, lineItemResponse{
			ID:          item.ID,
			Title:       item.Title,
			Description: item.Description,
			Thumbnail:   item.Thumbnail,
			Quantity:    item.Quantity,
			UnitPrice:   toPriceValue(item.UnitPrice, item.CurrencyCode),
			Total:       toPriceValue(item.Total, item.CurrencyCode),
			VariantID:   item.VariantID,
			ProductID:   item.ProductID,
		})
	}
	return out
}

func toCartResponse(snap cartsvc.Snapshot) cartResponse {
	resp := cartResponse{
		State:                string(snap.State),
		Items:                toLineItems(snap.Items),
		CurrencyCode:         snap.CurrencyCode,
		Subtotal:             toPriceValue(snap.Subtotal, snap.CurrencyCode),
		Total:                toPriceValue(snap.Total, snap.CurrencyCode),
		IsLoading:            snap.IsLoading,
		IsUpdating:           snap.IsUpdating,
		IsProcessingCheckout: snap.IsProcessingCheckout,
	}
	if snap.CartID != "" {
		id := snap.CartID
		resp.CartID = &id
	}
	if snap.Error != "" {
		msg := snap.Error
		resp.Error = &msg
	}
	if snap.LastOrder != nil {
		order := toOrderResponse(*snap.LastOrder)
		resp.LastOrder = &order
	}
	return resp
}

func toOrderResponse(o domain.Order) orderResponse {
	links := make([]trackingLinkResponse, 0, len(o.TrackingLinks))
	for _, link := range o.TrackingLinks {
		entry := trackingLinkResponse{URL: link.URL}
		if link.TrackingNumber != "" {
			number := link.TrackingNumber
			entry.TrackingNumber = &number
		}
		links = append(links, entry)
	}
	return orderResponse{
		ID:                o.ID,
		DisplayID:         o.DisplayID,
		Status:            o.Status,
		PaymentStatus:     o.PaymentStatus,
		FulfillmentStatus: o.FulfillmentStatus,
		CreatedAt:         o.CreatedAt,
		CurrencyCode:      o.CurrencyCode,
		Subtotal:          toPriceValue(o.Subtotal, o.CurrencyCode),
		Total:             toPriceValue(o.Total, o.CurrencyCode),
		Items:             toLineItems(o.Items),
		TrackingLinks:     links,
	}
}

type productResponse struct {
	ID          string               `json:"id"`
	Name        string               `json:"name"`
	Slug        string               `json:"slug"`
	Description string               `json:"description"`
	Price       priceValue           `json:"price"`
	Plans       []planResponse       `json:"plans"`
	Perks       []perkResponse       `json:"perks"`
	Featured    bool                 `json:"featured"`
	Images      []imageResponse      `json:"images"`
	Categories  []categoryResponse   `json:"categories"`
	Collections []collectionResponse `json:"collections"`
}

type planResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type perkResponse struct {
	Text string `json:"text"`
}

type imageResponse struct {
	URL string `json:"url"`
}

type categoryResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type collectionResponse struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Handle string `json:"handle"`
}

func toProductResponse(p domain.Product) productResponse {
	currencyCode := p.CurrencyCode
	if currencyCode == "" {
		currencyCode = domain.DefaultCurrency
	}
	resp := productResponse{
		ID:          p.ID,
		Name:        p.Name,
		Slug:        p.Slug,
		Description: p.Description,
		Price:       toPriceValue(p.Price, currencyCode),
		Featured:    p.Featured,
		Plans:       make([]planResponse, 0, len(p.Plans)),
		Perks:       make([]perkResponse, 0, len(p.Perks)),
		Images:      make([]imageResponse, 0, len(p.Images)),
		Categories:  make([]categoryResponse, 0, len(p.Categories)),
		Collections: toCollections(p.Collections),
	}
	for _, plan := range p.Plans {
		resp.Plans = append(resp.Plans, planResponse{ID: plan.ID, Name: plan.Name})
	}
	for _, perk := range p.Perks {
		resp.Perks = append(resp.Perks, perkResponse{Text: perk.Text})
	}
	for _, img := range p.Images {
		resp.Images = append(resp.Images, imageResponse{URL: img.URL})
	}
	for _, cat := range p.Categories {
		resp.Categories = append(resp.Categories, categoryResponse{ID: cat.ID, Name: cat.Name})
	}
	return resp
}

func toProductResponses(products []domain.Product) []productResponse {
	out := make([]productResponse, 0, len(products))
	for _, p := range products {
		out = append(out, toProductResponse(p))
	}
	return out
}

func toCollections(collections []domain.ProductCollection) []collectionResponse {
	out := make([]collectionResponse, 0, len(collections))
	for _, col := range collections {
		out = append(out, collectionResponse{ID: col.ID, Title: col.Title, Handle: col.Handle})
	}
	return out
}
