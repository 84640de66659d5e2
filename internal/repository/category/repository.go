package category

import (
	"context"

	"shopverse/internal/domain"
)

type ListFilter struct {
	Search   string
	IsActive *bool
	Page     domain.Page
}

type Repository interface {
	Create(ctx context.Context, c domain.Category) (*domain.Category, error)
	GetByID(ctx context.Context, id int64) (*domain.Category, error)
	GetByName(ctx context.Context, name string) (*domain.Category, error)
	List(ctx context.Context, f ListFilter) ([]domain.Category, int, error)
	Update(ctx context.Context, c domain.Category) (*domain.Category, error)
	Delete(ctx context.Context, id int64) error
	CountProducts(ctx context.Context, id int64, activeOnly bool) (int, error)
	// Upsert inserts or refreshes a category keyed by name; used by seed and import.
	Upsert(ctx context.Context, c domain.Category) (*domain.Category, error)
}
