package user

import (
	"context"
	"strings"

	"shopverse/internal/domain"
	userrepo "shopverse/internal/repository/user"
	"shopverse/internal/validation"
)

const defaultListLimit = 10

type userRepo interface {
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	List(ctx context.Context, f userrepo.ListFilter) ([]domain.User, int, error)
	Update(ctx context.Context, u domain.User) (*domain.User, error)
	Delete(ctx context.Context, id int64) error
}

type passwordHasher interface {
	Hash(password string) (string, error)
}

// Service manages accounts on behalf of admins and of the users themselves.
type Service struct {
	repo   userRepo
	hasher passwordHasher
}

func New(repo userRepo, hasher passwordHasher) *Service {
	return &Service{repo: repo, hasher: hasher}
}

type ListInput struct {
	Search   string
	Role     string
	IsActive *bool
	Page     int
	Limit    int
}

// List is admin only.
func (s *Service) List(ctx context.Context, actor domain.User, in ListInput) ([]domain.User, domain.Pagination, error) {
	if !actor.IsAdmin() {
		return nil, domain.Pagination{}, domain.Wrapf(domain.ErrForbidden, "Access denied. Admin privileges required.")
	}
	role := domain.Role(strings.TrimSpace(in.Role))
	if role != "" && !role.Valid() {
		return nil, domain.Pagination{}, domain.Validationf("role must be one of: customer admin")
	}
	page := domain.NewPage(in.Page, in.Limit, defaultListLimit)
	users, total, err := s.repo.List(ctx, userrepo.ListFilter{
		Search:   strings.TrimSpace(in.Search),
		Role:     role,
		IsActive: in.IsActive,
		Page:     page,
	})
	if err != nil {
		return nil, domain.Pagination{}, err
	}
	return users, page.Paginate(total), nil
}

// Get returns the account when actor is its owner or an admin.
func (s *Service) Get(ctx context.Context, actor domain.User, id int64) (*domain.User, error) {
	if !actor.CanAccess(id) {
		return nil, domain.Wrapf(domain.ErrForbidden, "Access denied")
	}
	return s.repo.GetByID(ctx, id)
}

// UpdateInput is a partial update; nil fields are left untouched.
type UpdateInput struct {
	FirstName *string      `json:"firstName" validate:"omitempty,trimmed_len=2-50"`
	LastName  *string      `json:"lastName" validate:"omitempty,trimmed_len=2-50"`
	Email     *string      `json:"email" validate:"omitempty,email"`
	Password  *string      `json:"password" validate:"omitempty,min=6"`
	Phone     *string      `json:"phone" validate:"omitempty,phone"`
	Address   *string      `json:"address" validate:"omitempty,trimmed_len=10-500"`
	Role      *domain.Role `json:"role" validate:"omitempty,oneof=customer admin"`
	IsActive  *bool        `json:"isActive"`
}

// Update applies in to the account. Role and isActive are only honoured
// for admins; other callers have them ignored.
func (s *Service) Update(ctx context.Context, actor domain.User, id int64, in UpdateInput) (*domain.User, error) {
	if !actor.CanAccess(id) {
		return nil, domain.Wrapf(domain.ErrForbidden, "Access denied")
	}
	if in.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*in.Email))
		in.Email = &email
	}
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.FirstName != nil {
		u.FirstName = strings.TrimSpace(*in.FirstName)
	}
	if in.LastName != nil {
		u.LastName = strings.TrimSpace(*in.LastName)
	}
	if in.Email != nil {
		u.Email = *in.Email
	}
	if in.Phone != nil {
		u.Phone = optional(*in.Phone)
	}
	if in.Address != nil {
		u.Address = optional(*in.Address)
	}
	if in.Password != nil {
		hashed, err := s.hasher.Hash(*in.Password)
		if err != nil {
			return nil, err
		}
		u.PasswordHash = hashed
	}
	if actor.IsAdmin() {
		if in.Role != nil {
			u.Role = *in.Role
		}
		if in.IsActive != nil {
			u.IsActive = *in.IsActive
		}
	}
	return s.repo.Update(ctx, *u)
}

// Delete is admin only and refuses to remove the acting admin.
func (s *Service) Delete(ctx context.Context, actor domain.User, id int64) error {
	if !actor.IsAdmin() {
		return domain.Wrapf(domain.ErrForbidden, "Access denied. Admin privileges required.")
	}
	if actor.ID == id {
		return domain.Validationf("Cannot delete your own account")
	}
	return s.repo.Delete(ctx, id)
}

func optional(v string) *string {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	return &v
}
