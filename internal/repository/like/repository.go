package like

import (
	"context"

	"shopverse/internal/domain"
)

type Repository interface {
	Create(ctx context.Context, userID, productID int64) (*domain.Like, error)
	Delete(ctx context.Context, userID, productID int64) error
	Exists(ctx context.Context, userID, productID int64) (bool, error)
	// ListByUser returns the user's likes on active products, newest first.
	ListByUser(ctx context.Context, userID int64, page domain.Page) ([]domain.Like, int, error)
}
