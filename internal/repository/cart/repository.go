package cart

import (
	"context"
	"time"

	"shopverse/internal/domain"
)

type Repository interface {
	// GetActiveByUser returns the user's active cart with its lines and products.
	GetActiveByUser(ctx context.Context, userID int64) (*domain.Cart, error)
	// Create inserts an active cart; ErrAlreadyExists means one was created concurrently.
	Create(ctx context.Context, userID int64, expiresAt time.Time) (*domain.Cart, error)
	// GetItem returns a line together with the owning cart.
	GetItem(ctx context.Context, itemID int64) (*domain.CartItem, *domain.Cart, error)
	GetItemByProduct(ctx context.Context, cartID, productID int64) (*domain.CartItem, error)
	// AddItem merges quantity into an existing (cart, product) line or inserts one.
	AddItem(ctx context.Context, cartID, productID int64, quantity int) (*domain.CartItem, error)
	UpdateItemQuantity(ctx context.Context, itemID int64, quantity int) error
	DeleteItems(ctx context.Context, itemIDs ...int64) error
	// Clear removes every line and deactivates the cart.
	Clear(ctx context.Context, cartID int64) error
}
