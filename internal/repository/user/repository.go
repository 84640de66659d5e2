package user

import (
	"context"
	"time"

	"shopverse/internal/domain"
)

// ListFilter narrows the admin user listing.
type ListFilter struct {
	Search   string
	Role     domain.Role
	IsActive *bool
	Page     domain.Page
}

// Repository persists and fetches users.
type Repository interface {
	Create(ctx context.Context, u domain.User) (*domain.User, error)
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	List(ctx context.Context, f ListFilter) ([]domain.User, int, error)
	Update(ctx context.Context, u domain.User) (*domain.User, error)
	TouchLastLogin(ctx context.Context, id int64, at time.Time) error
	Delete(ctx context.Context, id int64) error
}
