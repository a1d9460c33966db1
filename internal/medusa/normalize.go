package medusa

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"medusa-storefront/internal/domain"
)

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func (c *Client) normalizeLineItem(item storeLineItem, currencyCode string) domain.LineItem {
	var lineTotal decimal.Decimal
	switch {
	case item.Total.Valid:
		lineTotal = item.Total.Decimal
	case item.Subtotal.Valid:
		lineTotal = item.Subtotal.Decimal
	default:
		lineTotal = item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity)))
	}
	return domain.LineItem{
		ID:           item.ID,
		Title:        item.Title,
		Description:  deref(item.Description),
		Thumbnail:    deref(item.Thumbnail),
		Quantity:     item.Quantity,
		UnitPrice:    c.money.Normalize(item.UnitPrice, currencyCode),
		Total:        c.money.Normalize(lineTotal, currencyCode),
		VariantID:    item.VariantID,
		ProductID:    item.ProductID,
		CurrencyCode: currencyCode,
	}
}

func (c *Client) normalizeLineItems(items []storeLineItem, currencyCode string) []domain.LineItem {
	out := make([]domain.LineItem, 0, len(items))
	for _, item := range items {
		out = append(out, c.normalizeLineItem(item, currencyCode))
	}
	return out
}

// amountOrSum normalises a backend aggregate, falling back to the sum of the
// line totals when the backend omits it or reports zero.
func (c *Client) amountOrSum(v decimal.NullDecimal, currencyCode string, items []domain.LineItem) decimal.Decimal {
	if v.Valid && !v.Decimal.IsZero() {
		return c.money.Normalize(v.Decimal, currencyCode)
	}
	return domain.SumLineTotals(items)
}

func (c *Client) normalizeCart(cart *storeCart) *domain.Cart {
	currencyCode := domain.DefaultCurrency
	if cart.Region != nil && cart.Region.CurrencyCode != "" {
		currencyCode = cart.Region.CurrencyCode
	}
	items := c.normalizeLineItems(cart.Items, currencyCode)
	return &domain.Cart{
		ID:           cart.ID,
		Items:        items,
		CurrencyCode: currencyCode,
		Subtotal:     c.amountOrSum(cart.Subtotal, currencyCode, items),
		Total:        c.amountOrSum(cart.Total, currencyCode, items),
	}
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}

func (c *Client) normalizeOrder(order *storeOrder) *domain.Order {
	currencyCode := orDefault(order.CurrencyCode, domain.DefaultCurrency)
	items := c.normalizeLineItems(order.Items, currencyCode)

	var links []domain.TrackingLink
	for _, f := range order.Fulfillments {
		for _, link := range f.TrackingLinks {
			if deref(link.URL) == "" {
				continue
			}
			links = append(links, domain.TrackingLink{
				URL:            *link.URL,
				TrackingNumber: deref(link.TrackingNumber),
			})
		}
	}

	return &domain.Order{
		ID:                order.ID,
		DisplayID:         order.DisplayID,
		Status:            orDefault(order.Status, domain.StatusPending),
		PaymentStatus:     orDefault(order.PaymentStatus, domain.StatusPending),
		FulfillmentStatus: orDefault(order.FulfillmentStatus, domain.StatusPending),
		CreatedAt:         order.CreatedAt,
		CurrencyCode:      currencyCode,
		Subtotal:          c.amountOrSum(order.Subtotal, currencyCode, items),
		Total:             c.amountOrSum(order.Total, currencyCode, items),
		Items:             items,
		TrackingLinks:     links,
	}
}

// extractPrice picks the cheapest price, restricted to the preferred currency
// when the product is priced in it.
func (c *Client) extractPrice(p storeProduct) (decimal.Decimal, string) {
	var all []storePrice
	for _, v := range p.Variants {
		all = append(all, v.Prices...)
	}
	if len(all) == 0 {
		return decimal.Zero, c.preferredCurrency
	}

	var preferred []storePrice
	for _, price := range all {
		if strings.EqualFold(price.CurrencyCode, c.preferredCurrency) {
			preferred = append(preferred, price)
		}
	}
	relevant := all
	if len(preferred) > 0 {
		relevant = preferred
	}

	lowest := relevant[0].Amount
	for _, price := range relevant[1:] {
		if price.Amount.LessThan(lowest) {
			lowest = price.Amount
		}
	}
	currencyCode := orDefault(relevant[0].CurrencyCode, c.preferredCurrency)
	return c.money.Normalize(lowest, currencyCode), currencyCode
}

func optionPerk(o storeOption) (domain.ProductPerk, bool) {
	values := make([]string, 0, len(o.Values))
	for _, v := range o.Values {
		if v.Value != "" {
			values = append(values, v.Value)
		}
	}
	if len(values) == 0 {
		return domain.ProductPerk{}, false
	}
	return domain.ProductPerk{Text: fmt.Sprintf("%s: %s", o.Title, strings.Join(values, ", "))}, true
}

func (c *Client) normalizeProduct(p storeProduct) domain.Product {
	price, currencyCode := c.extractPrice(p)

	images := make([]domain.ProductImage, 0, len(p.Images))
	for _, img := range p.Images {
		images = append(images, domain.ProductImage{URL: img.URL})
	}
	if len(images) == 0 && deref(p.Thumbnail) != "" {
		images = append(images, domain.ProductImage{URL: *p.Thumbnail})
	}

	var perks []domain.ProductPerk
	for _, o := range p.Options {
		if perk, ok := optionPerk(o); ok {
			perks = append(perks, perk)
		}
	}

	plans := make([]domain.ProductPlan, 0, len(p.Variants))
	for _, v := range p.Variants {
		plans = append(plans, domain.ProductPlan{ID: v.ID, Name: v.Title})
	}

	categories := make([]domain.ProductCategory, 0, len(p.Categories))
	for _, cat := range p.Categories {
		categories = append(categories, domain.ProductCategory{ID: cat.ID, Name: cat.Name})
	}

	return domain.Product{
		ID:           p.ID,
		Name:         p.Title,
		Slug:         p.Handle,
		Description:  deref(p.Description),
		Price:        price,
		CurrencyCode: currencyCode,
		Plans:        plans,
		Perks:        perks,
		Images:       images,
		Categories:   categories,
		Collections:  toCollections(p.Collections),
	}
}

func toCollections(in []storeCollection) []domain.ProductCollection {
	out := make([]domain.ProductCollection, 0, len(in))
	for _, col := range in {
		out = append(out, domain.ProductCollection{ID: col.ID, Title: col.Title, Handle: col.Handle})
	}
	return out
}
