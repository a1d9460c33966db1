package domain

import "github.com/shopspring/decimal"

// Product is a display projection of a backend product. It is rebuilt on every
// fetch and never mutated locally.
type Product struct {
	ID           string
	Name         string
	Slug         string
	Description  string
	Price        decimal.Decimal
	CurrencyCode string
	Plans        []ProductPlan
	Perks        []ProductPerk
	Featured     bool
	Images       []ProductImage
	Categories   []ProductCategory
	Collections  []ProductCollection
}

// ProductPlan is a purchasable variant.
type ProductPlan struct {
	ID   string
	Name string
}

type ProductPerk struct {
	Text string
}

type ProductImage struct {
	URL string
}

type ProductCategory struct {
	ID   string
	Name string
}

type ProductCollection struct {
	ID     string
	Title  string
	Handle string
}

// FirstVariantID returns the variant used by add-to-cart, or "" when the
// product has nothing purchasable.
func (p Product) FirstVariantID() string {
	if len(p.Plans) == 0 {
		return ""
	}
	return p.Plans[0].ID
}
