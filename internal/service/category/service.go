package category

import (
	"context"
	"strings"

	"shopverse/internal/domain"
	catrepo "shopverse/internal/repository/category"
	productrepo "shopverse/internal/repository/product"
	"shopverse/internal/validation"
)

const (
	defaultListLimit    = 20
	defaultProductLimit = 12
	invalidateBatch     = 100
)

var errNoSlug = domain.Validationf("name must contain letters or digits")

type categoryRepo interface {
	Create(ctx context.Context, c domain.Category) (*domain.Category, error)
	GetByID(ctx context.Context, id int64) (*domain.Category, error)
	List(ctx context.Context, f catrepo.ListFilter) ([]domain.Category, int, error)
	Update(ctx context.Context, c domain.Category) (*domain.Category, error)
	Delete(ctx context.Context, id int64) error
	CountProducts(ctx context.Context, id int64, activeOnly bool) (int, error)
}

type productLister interface {
	List(ctx context.Context, f productrepo.ListFilter) ([]domain.Product, int, error)
}

// detailInvalidator drops cached product details, which embed the category
// name and slug.
type detailInvalidator interface {
	Invalidate(ctx context.Context, ids ...int64)
}

type Service struct {
	repo     categoryRepo
	products productLister
	details  detailInvalidator
}

// New builds the service. details may be nil when product details are not
// cached.
func New(repo categoryRepo, products productLister, details detailInvalidator) *Service {
	return &Service{repo: repo, products: products, details: details}
}

type ListInput struct {
	Search   string
	IsActive *bool
	Page     int
	Limit    int
}

func (s *Service) List(ctx context.Context, in ListInput) ([]domain.Category, domain.Pagination, error) {
	page := domain.NewPage(in.Page, in.Limit, defaultListLimit)
	categories, total, err := s.repo.List(ctx, catrepo.ListFilter{
		Search:   strings.TrimSpace(in.Search),
		IsActive: in.IsActive,
		Page:     page,
	})
	if err != nil {
		return nil, domain.Pagination{}, err
	}
	return categories, page.Paginate(total), nil
}

// Detail is a category together with a page of its active products.
type Detail struct {
	Category     *domain.Category  `json:"category"`
	Products     []domain.Product  `json:"products"`
	ProductCount int               `json:"productCount"`
	Pagination   domain.Pagination `json:"pagination"`
}

func (s *Service) Get(ctx context.Context, id int64, page, limit int) (*Detail, error) {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	p := domain.NewPage(page, limit, defaultProductLimit)
	products, total, err := s.products.List(ctx, productrepo.ListFilter{
		CategoryID: &c.ID,
		ActiveOnly: true,
		Desc:       true,
		Page:       p,
	})
	if err != nil {
		return nil, err
	}
	return &Detail{Category: c, Products: products, ProductCount: total, Pagination: p.Paginate(total)}, nil
}

type CreateInput struct {
	Name        string  `json:"name" validate:"trimmed_len=2-100"`
	Slug        string  `json:"slug"`
	Description *string `json:"description" validate:"omitempty,trimmed_len=10-500"`
	ImageURL    *string `json:"imageUrl" validate:"omitempty,url"`
	IsActive    *bool   `json:"isActive"`
}

func (s *Service) Create(ctx context.Context, in CreateInput) (*domain.Category, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	c := domain.Category{
		Name:     strings.TrimSpace(in.Name),
		IsActive: true,
	}
	c.Slug = slugFor(in.Slug, c.Name)
	if c.Slug == "" {
		return nil, errNoSlug
	}
	if in.Description != nil {
		c.Description = strings.TrimSpace(*in.Description)
	}
	if in.ImageURL != nil {
		c.ImageURL = strings.TrimSpace(*in.ImageURL)
	}
	if in.IsActive != nil {
		c.IsActive = *in.IsActive
	}
	return s.repo.Create(ctx, c)
}

type UpdateInput struct {
	Name        *string `json:"name" validate:"omitempty,trimmed_len=2-100"`
	Slug        *string `json:"slug"`
	Description *string `json:"description" validate:"omitempty,trimmed_len=10-500"`
	ImageURL    *string `json:"imageUrl" validate:"omitempty,url"`
	IsActive    *bool   `json:"isActive"`
}

// Update applies a partial update. A rename re-derives the slug unless one
// is supplied explicitly.
func (s *Service) Update(ctx context.Context, id int64, in UpdateInput) (*domain.Category, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	name, slug := c.Name, c.Slug
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name != c.Name {
			c.Name = name
			c.Slug = domain.Slugify(name)
		}
	}
	if in.Slug != nil {
		c.Slug = slugFor(*in.Slug, c.Name)
	}
	if c.Slug == "" {
		return nil, errNoSlug
	}
	if in.Description != nil {
		c.Description = strings.TrimSpace(*in.Description)
	}
	if in.ImageURL != nil {
		c.ImageURL = strings.TrimSpace(*in.ImageURL)
	}
	if in.IsActive != nil {
		c.IsActive = *in.IsActive
	}
	updated, err := s.repo.Update(ctx, *c)
	if err != nil {
		return nil, err
	}
	if updated.Name != name || updated.Slug != slug {
		s.invalidateProducts(ctx, updated.ID)
	}
	return updated, nil
}

// invalidateProducts drops the cached details of the category's active
// products. Only active products are cached. A listing failure leaves the
// entries to expire with the cache TTL.
func (s *Service) invalidateProducts(ctx context.Context, id int64) {
	if s.details == nil {
		return
	}
	page := domain.Page{Page: 1, Limit: invalidateBatch}
	for {
		products, total, err := s.products.List(ctx, productrepo.ListFilter{CategoryID: &id, ActiveOnly: true, Page: page})
		if err != nil || len(products) == 0 {
			return
		}
		ids := make([]int64, len(products))
		for i, p := range products {
			ids[i] = p.ID
		}
		s.details.Invalidate(ctx, ids...)
		if page.Page*page.Limit >= total {
			return
		}
		page.Page++
	}
}

// Delete refuses while any product, active or not, references the category.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return err
	}
	n, err := s.repo.CountProducts(ctx, id, false)
	if err != nil {
		return err
	}
	if n > 0 {
		return domain.Wrapf(domain.ErrInvalidState, "Cannot delete category with existing products")
	}
	return s.repo.Delete(ctx, id)
}

func slugFor(explicit, name string) string {
	if slug := domain.Slugify(explicit); slug != "" {
		return slug
	}
	return domain.Slugify(name)
}
