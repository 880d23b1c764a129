package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID          string    `json:"id"`
	Key         string    `json:"key"`
	SKU         string    `json:"sku"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	PriceCents  int64     `json:"priceCents"`
	Currency    string    `json:"currency"`
	Images      []string  `json:"images,omitempty"`
	Colors      []string  `json:"colors,omitempty"`
	AddOns      []AddOn   `json:"addOns,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Price returns the unit price in major currency units.
func (p Product) Price() decimal.Decimal {
	return decimal.New(p.PriceCents, -2)
}

// ImageRef is the first catalog image, used as the cart thumbnail.
func (p Product) ImageRef() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0]
}
