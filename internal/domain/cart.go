package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// CartTTL is how long a freshly created cart stays valid. Expiry is advisory.
const CartTTL = 30 * 24 * time.Hour

type Cart struct {
	ID        int64      `json:"id"`
	UserID    int64      `json:"userId"`
	IsActive  bool       `json:"isActive"`
	ExpiresAt time.Time  `json:"expiresAt"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
	Items     []CartItem `json:"-"`
}

type CartItem struct {
	ID        int64     `json:"id"`
	CartID    int64     `json:"cartId"`
	ProductID int64     `json:"productId"`
	Quantity  int       `json:"quantity"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	// Product is nil when the referenced row no longer exists.
	Product *Product `json:"product,omitempty"`
}

// Sellable reports whether the line still points at an active product.
func (i CartItem) Sellable() bool {
	return i.Product != nil && i.Product.IsActive
}

// CartSummary is the caller-facing view of a cart: only sellable lines, with totals.
type CartSummary struct {
	Cart        *Cart           `json:"cart"`
	Items       []CartItem      `json:"cartItems"`
	TotalItems  int             `json:"totalItems"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
}

// Summarize splits cart lines into sellable lines (with totals) and stale lines.
func Summarize(cart *Cart) (CartSummary, []CartItem) {
	summary := CartSummary{Cart: cart, Items: []CartItem{}, TotalAmount: decimal.Zero}
	if cart == nil {
		return summary, nil
	}
	var stale []CartItem
	for _, item := range cart.Items {
		if !item.Sellable() {
			stale = append(stale, item)
			continue
		}
		summary.Items = append(summary.Items, item)
		summary.TotalItems += item.Quantity
		summary.TotalAmount = summary.TotalAmount.Add(item.Product.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	summary.TotalAmount = summary.TotalAmount.Round(2)
	return summary, stale
}
