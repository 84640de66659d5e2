package product

import (
	"context"

	"github.com/shopspring/decimal"
	"shopverse/internal/domain"
)

// ListFilter drives catalog listing. Sort holds the client-facing field name;
// unknown values fall back to createdAt.
type ListFilter struct {
	Search     string
	CategoryID *int64
	MinPrice   *decimal.Decimal
	MaxPrice   *decimal.Decimal
	Featured   *bool
	ActiveOnly bool
	Sort       string
	Desc       bool
	Page       domain.Page
}

type Repository interface {
	Create(ctx context.Context, p domain.Product) (*domain.Product, error)
	GetByID(ctx context.Context, id int64) (*domain.Product, error)
	List(ctx context.Context, f ListFilter) ([]domain.Product, int, error)
	Update(ctx context.Context, p domain.Product) (*domain.Product, error)
	Delete(ctx context.Context, id int64) error
	UpdateRating(ctx context.Context, id int64, average decimal.Decimal, count int) error
	// UpsertBySKU inserts or refreshes a product keyed by SKU; used by seed and import.
	UpsertBySKU(ctx context.Context, p domain.Product) (*domain.Product, error)
}
