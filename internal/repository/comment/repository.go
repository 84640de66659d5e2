package comment

import (
	"context"

	"github.com/shopspring/decimal"
	"shopverse/internal/domain"
)

type Repository interface {
	Create(ctx context.Context, c domain.Comment) (*domain.Comment, error)
	GetByID(ctx context.Context, id int64) (*domain.Comment, error)
	Update(ctx context.Context, c domain.Comment) (*domain.Comment, error)
	Delete(ctx context.Context, id int64) error
	// ListByProduct returns approved comments with their authors, newest first.
	ListByProduct(ctx context.Context, productID int64, page domain.Page) ([]domain.Comment, int, error)
	// ListByUser returns every comment the user wrote with its product.
	ListByUser(ctx context.Context, userID int64, page domain.Page) ([]domain.Comment, int, error)
	// RatingStats aggregates approved ratings for a product.
	RatingStats(ctx context.Context, productID int64) (decimal.Decimal, int, error)
}
