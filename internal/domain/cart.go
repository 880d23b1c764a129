package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	DiscountPercentage = "percentage"
	DiscountFixed      = "fixed"
)

var hundred = decimal.NewFromInt(100)

// AddOn is an optional purchase attached to a line item, e.g. an extended warranty.
type AddOn struct {
	ID    string          `json:"id"`
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
}

// LineItem is one buyable entry in a cart. Name, UnitPrice and ImageRef are
// captured when the item is added and never refreshed from the catalog.
type LineItem struct {
	ID        string          `json:"id"`
	ProductID string          `json:"productId"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	ImageRef  string          `json:"imageRef,omitempty"`
	Quantity  int             `json:"quantity"`
	Color     string          `json:"color,omitempty"`
	AddOn     *AddOn          `json:"addOn,omitempty"`
}

// MergeKey identifies the bucket a line item belongs to. An empty AddOnID
// means the line has no add-on.
type MergeKey struct {
	ProductID string
	Color     string
	AddOnID   string
}

func (l LineItem) Key() MergeKey {
	k := MergeKey{ProductID: l.ProductID, Color: l.Color}
	if l.AddOn != nil {
		k.AddOnID = l.AddOn.ID
	}
	return k
}

// LineTotal is (unit price + add-on price) * quantity.
func (l LineItem) LineTotal() decimal.Decimal {
	unit := l.UnitPrice
	if l.AddOn != nil {
		unit = unit.Add(l.AddOn.Price)
	}
	return unit.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

func (l LineItem) Clone() LineItem {
	out := l
	if l.AddOn != nil {
		addOn := *l.AddOn
		out.AddOn = &addOn
	}
	return out
}

// Equal compares line items by value.
func (l LineItem) Equal(o LineItem) bool {
	if l.ID != o.ID || l.ProductID != o.ProductID || l.Name != o.Name || l.ImageRef != o.ImageRef ||
		l.Quantity != o.Quantity || l.Color != o.Color || !l.UnitPrice.Equal(o.UnitPrice) {
		return false
	}
	switch {
	case l.AddOn == nil && o.AddOn == nil:
		return true
	case l.AddOn == nil || o.AddOn == nil:
		return false
	default:
		return l.AddOn.ID == o.AddOn.ID && l.AddOn.Name == o.AddOn.Name && l.AddOn.Price.Equal(o.AddOn.Price)
	}
}

// Shipping is a flat fee applied once to the cart total.
type Shipping struct {
	Price decimal.Decimal `json:"price"`
}

// Discount is applied once, after shipping has been added.
type Discount struct {
	Type   string          `json:"type"`
	Amount decimal.Decimal `json:"amount"`
}

// CartSnapshot is the serialised form of a cart, shared by local persistence
// and the remote per-shopper cart document.
type CartSnapshot struct {
	Items     []LineItem `json:"items"`
	Shipping  *Shipping  `json:"shipping,omitempty"`
	Discount  *Discount  `json:"discount,omitempty"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

func (s CartSnapshot) Clone() CartSnapshot {
	out := CartSnapshot{
		Items:     CloneItems(s.Items),
		UpdatedAt: s.UpdatedAt,
	}
	if s.Shipping != nil {
		sh := *s.Shipping
		out.Shipping = &sh
	}
	if s.Discount != nil {
		d := *s.Discount
		out.Discount = &d
	}
	return out
}

// SameContents reports whether both snapshots hold the same items, shipping
// and discount. UpdatedAt is ignored.
func (s CartSnapshot) SameContents(o CartSnapshot) bool {
	if len(s.Items) != len(o.Items) {
		return false
	}
	for i := range s.Items {
		if !s.Items[i].Equal(o.Items[i]) {
			return false
		}
	}
	switch {
	case s.Shipping == nil && o.Shipping == nil:
	case s.Shipping == nil || o.Shipping == nil:
		return false
	case !s.Shipping.Price.Equal(o.Shipping.Price):
		return false
	}
	switch {
	case s.Discount == nil && o.Discount == nil:
	case s.Discount == nil || o.Discount == nil:
		return false
	case s.Discount.Type != o.Discount.Type || !s.Discount.Amount.Equal(o.Discount.Amount):
		return false
	}
	return true
}

func (s CartSnapshot) Totals() Totals {
	return ComputeTotals(s.Items, s.Shipping, s.Discount)
}

func CloneItems(items []LineItem) []LineItem {
	out := make([]LineItem, 0, len(items))
	for _, it := range items {
		out = append(out, it.Clone())
	}
	return out
}

// Totals holds values derived from cart state. They are never stored.
type Totals struct {
	ItemCount int             `json:"totalItemCount"`
	Subtotal  decimal.Decimal `json:"subtotal"`
	Total     decimal.Decimal `json:"total"`
}

// ComputeTotals sums the lines, adds shipping, then applies the discount.
// The order matters: a percentage discount also reduces the shipping fee.
func ComputeTotals(items []LineItem, shipping *Shipping, discount *Discount) Totals {
	var t Totals
	t.Subtotal = decimal.Zero
	for _, it := range items {
		t.ItemCount += it.Quantity
		t.Subtotal = t.Subtotal.Add(it.LineTotal())
	}

	total := t.Subtotal
	if shipping != nil {
		total = total.Add(shipping.Price)
	}
	if discount != nil {
		switch discount.Type {
		case DiscountPercentage:
			factor := decimal.NewFromInt(1).Sub(discount.Amount.Div(hundred))
			total = total.Mul(factor)
		case DiscountFixed:
			total = total.Sub(discount.Amount)
			if total.IsNegative() {
				total = decimal.Zero
			}
		}
	}
	t.Total = total
	return t
}
