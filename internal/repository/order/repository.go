package order

import (
	"context"
	"time"

	"shopverse/internal/domain"
)

type ListFilter struct {
	// UserID scopes the listing to one customer; nil lists every order.
	UserID    *int64
	Status    domain.OrderStatus
	StartDate *time.Time
	EndDate   *time.Time
	Page      domain.Page
}

type Repository interface {
	GetByID(ctx context.Context, id int64) (*domain.Order, error)
	List(ctx context.Context, f ListFilter) ([]domain.Order, int, error)
	// UpdateStatus persists status, notes and the shipped/delivered stamps.
	UpdateStatus(ctx context.Context, o domain.Order) (*domain.Order, error)
	UpdatePaymentStatus(ctx context.Context, id int64, status domain.PaymentStatus) (*domain.Order, error)
	// WithinCheckoutTx runs fn in one transaction; any error rolls everything back.
	WithinCheckoutTx(ctx context.Context, fn func(CheckoutTx) error) error
}

// CheckoutTx is the set of statements checkout runs inside its transaction.
type CheckoutTx interface {
	// LoadActiveCart locks and returns the user's active cart with its lines in cart order.
	LoadActiveCart(ctx context.Context, userID int64) (*domain.Cart, error)
	// LockProducts row-locks the given products in id order and returns what exists.
	LockProducts(ctx context.Context, ids []int64) (map[int64]domain.Product, error)
	CreateOrder(ctx context.Context, o domain.Order) (*domain.Order, error)
	CreateOrderItem(ctx context.Context, item domain.OrderItem) (*domain.OrderItem, error)
	// DecrementStock subtracts quantity atomically and fails with
	// ErrInsufficientStock instead of driving stock negative.
	DecrementStock(ctx context.Context, productID int64, quantity int) error
	ClearCart(ctx context.Context, cartID int64) error
}
