package product

import (
	"context"
	"errors"
	"io"
	"log"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"
	"shopverse/internal/cache"
	"shopverse/internal/domain"
	"shopverse/internal/ident"
	productrepo "shopverse/internal/repository/product"
	"shopverse/internal/validation"
)

const (
	defaultListLimit    = 12
	detailCommentsLimit = 10
)

var errNoSlug = domain.Validationf("name must contain letters or digits")

type productRepo interface {
	Create(ctx context.Context, p domain.Product) (*domain.Product, error)
	GetByID(ctx context.Context, id int64) (*domain.Product, error)
	List(ctx context.Context, f productrepo.ListFilter) ([]domain.Product, int, error)
	Update(ctx context.Context, p domain.Product) (*domain.Product, error)
	Delete(ctx context.Context, id int64) error
}

type categoryReader interface {
	GetByID(ctx context.Context, id int64) (*domain.Category, error)
}

type commentLister interface {
	ListByProduct(ctx context.Context, productID int64, page domain.Page) ([]domain.Comment, int, error)
}

// DetailCache stores product detail payloads; *cache.Cache satisfies it.
type DetailCache interface {
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, value any) error
	Delete(ctx context.Context, keys ...string) error
}

type Service struct {
	repo       productRepo
	categories categoryReader
	comments   commentLister
	cache      DetailCache
	loads      singleflight.Group
	logger     *log.Logger
	now        func() time.Time
}

func New(repo productRepo, categories categoryReader, comments commentLister, detailCache DetailCache, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Service{
		repo:       repo,
		categories: categories,
		comments:   comments,
		cache:      detailCache,
		logger:     logger,
		now:        time.Now,
	}
}

type ListInput struct {
	Search     string
	CategoryID *int64
	MinPrice   *decimal.Decimal
	MaxPrice   *decimal.Decimal
	Featured   *bool
	SortBy     string
	SortOrder  string
	Page       int
	Limit      int
}

// List returns active products. Unknown sort fields fall back to createdAt
// and any order other than "asc" sorts descending.
func (s *Service) List(ctx context.Context, in ListInput) ([]domain.Product, domain.Pagination, error) {
	page := domain.NewPage(in.Page, in.Limit, defaultListLimit)
	products, total, err := s.repo.List(ctx, productrepo.ListFilter{
		Search:     strings.TrimSpace(in.Search),
		CategoryID: in.CategoryID,
		MinPrice:   in.MinPrice,
		MaxPrice:   in.MaxPrice,
		Featured:   in.Featured,
		ActiveOnly: true,
		Sort:       in.SortBy,
		Desc:       !strings.EqualFold(strings.TrimSpace(in.SortOrder), "asc"),
		Page:       page,
	})
	if err != nil {
		return nil, domain.Pagination{}, err
	}
	return products, page.Paginate(total), nil
}

// Detail is a product with its category and most recent approved comments.
type Detail struct {
	domain.Product
	Comments []domain.Comment `json:"comments"`
}

// Get returns the product detail. Inactive products are hidden unless
// includeInactive is set.
func (s *Service) Get(ctx context.Context, id int64, includeInactive bool) (*Detail, error) {
	var cached Detail
	if s.cache != nil {
		hit, err := s.cache.Get(ctx, cache.ProductKey(id), &cached)
		if err != nil {
			s.logger.Printf("product: cache get id=%d error=%v", id, err)
		} else if hit {
			return &cached, nil
		}
	}

	// Concurrent misses for the same product share one load, detached from
	// the cancellation of the caller that started it.
	loadCtx := context.WithoutCancel(ctx)
	v, err, _ := s.loads.Do(cache.ProductKey(id), func() (any, error) {
		return s.load(loadCtx, id)
	})
	if err != nil {
		return nil, err
	}
	detail := v.(Detail)
	if !detail.IsActive && !includeInactive {
		return nil, domain.Wrapf(domain.ErrNotFound, "Product not found")
	}
	return &detail, nil
}

func (s *Service) load(ctx context.Context, id int64) (Detail, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Detail{}, err
	}
	comments, _, err := s.comments.ListByProduct(ctx, id, domain.Page{Page: 1, Limit: detailCommentsLimit})
	if err != nil {
		return Detail{}, err
	}
	detail := Detail{Product: *p, Comments: comments}
	if s.cache != nil && p.IsActive {
		if err := s.cache.Set(ctx, cache.ProductKey(id), detail); err != nil {
			s.logger.Printf("product: cache set id=%d error=%v", id, err)
		}
	}
	return detail, nil
}

type CreateInput struct {
	Name        string             `json:"name" validate:"trimmed_len=2-200"`
	Description string             `json:"description" validate:"trimmed_len=10-2000"`
	Price       *decimal.Decimal   `json:"price"`
	SKU         string             `json:"sku" validate:"omitempty,max=100"`
	Stock       *int               `json:"stock" validate:"required,gte=0"`
	CategoryID  int64              `json:"categoryId" validate:"required,gt=0"`
	Images      []string           `json:"images" validate:"omitempty,dive,url"`
	IsActive    *bool              `json:"isActive"`
	IsFeatured  *bool              `json:"isFeatured"`
	Weight      *decimal.Decimal   `json:"weight"`
	Dimensions  *domain.Dimensions `json:"dimensions"`
}

func (s *Service) Create(ctx context.Context, in CreateInput) (*domain.Product, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	if in.Price == nil {
		return nil, domain.Validationf("price is required")
	}
	if err := checkMoney(*in.Price, in.Weight, in.Dimensions); err != nil {
		return nil, err
	}
	if err := s.requireCategory(ctx, in.CategoryID); err != nil {
		return nil, err
	}

	p := domain.Product{
		Name:        strings.TrimSpace(in.Name),
		Description: strings.TrimSpace(in.Description),
		Price:       in.Price.Round(2),
		SKU:         strings.TrimSpace(in.SKU),
		Stock:       *in.Stock,
		CategoryID:  in.CategoryID,
		Images:      in.Images,
		IsActive:    true,
		Dimensions:  in.Dimensions,
	}
	p.Slug = domain.Slugify(p.Name)
	if p.Slug == "" {
		return nil, errNoSlug
	}
	if p.SKU == "" {
		p.SKU = ident.SKU(s.now())
	}
	if in.IsActive != nil {
		p.IsActive = *in.IsActive
	}
	if in.IsFeatured != nil {
		p.IsFeatured = *in.IsFeatured
	}
	if in.Weight != nil {
		p.Weight = decimal.NewNullDecimal(*in.Weight)
	}
	return s.repo.Create(ctx, p)
}

// UpdateInput is a partial update; nil fields are left untouched.
type UpdateInput struct {
	Name        *string            `json:"name" validate:"omitempty,trimmed_len=2-200"`
	Description *string            `json:"description" validate:"omitempty,trimmed_len=10-2000"`
	Price       *decimal.Decimal   `json:"price"`
	SKU         *string            `json:"sku" validate:"omitempty,min=1,max=100"`
	Stock       *int               `json:"stock" validate:"omitempty,gte=0"`
	CategoryID  *int64             `json:"categoryId" validate:"omitempty,gt=0"`
	Images      []string           `json:"images" validate:"omitempty,dive,url"`
	IsActive    *bool              `json:"isActive"`
	IsFeatured  *bool              `json:"isFeatured"`
	Weight      *decimal.Decimal   `json:"weight"`
	Dimensions  *domain.Dimensions `json:"dimensions"`
}

func (s *Service) Update(ctx context.Context, id int64, in UpdateInput) (*domain.Product, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	price := decimal.Zero
	if in.Price != nil {
		price = *in.Price
	}
	if err := checkMoney(price, in.Weight, in.Dimensions); err != nil {
		return nil, err
	}
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.CategoryID != nil && *in.CategoryID != p.CategoryID {
		if err := s.requireCategory(ctx, *in.CategoryID); err != nil {
			return nil, err
		}
		p.CategoryID = *in.CategoryID
	}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name != p.Name {
			p.Name = name
			p.Slug = domain.Slugify(name)
			if p.Slug == "" {
				return nil, errNoSlug
			}
		}
	}
	if in.Description != nil {
		p.Description = strings.TrimSpace(*in.Description)
	}
	if in.Price != nil {
		p.Price = in.Price.Round(2)
	}
	if in.SKU != nil {
		p.SKU = strings.TrimSpace(*in.SKU)
	}
	if in.Stock != nil {
		p.Stock = *in.Stock
	}
	if in.Images != nil {
		p.Images = in.Images
	}
	if in.IsActive != nil {
		p.IsActive = *in.IsActive
	}
	if in.IsFeatured != nil {
		p.IsFeatured = *in.IsFeatured
	}
	if in.Weight != nil {
		p.Weight = decimal.NewNullDecimal(*in.Weight)
	}
	if in.Dimensions != nil {
		p.Dimensions = in.Dimensions
	}

	updated, err := s.repo.Update(ctx, *p)
	if err != nil {
		return nil, err
	}
	s.Invalidate(ctx, id)
	return updated, nil
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.Invalidate(ctx, id)
	return nil
}

// Invalidate drops cached detail payloads. Failures are logged only.
func (s *Service) Invalidate(ctx context.Context, ids ...int64) {
	if s.cache == nil || len(ids) == 0 {
		return
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = cache.ProductKey(id)
	}
	if err := s.cache.Delete(ctx, keys...); err != nil {
		s.logger.Printf("product: cache invalidate ids=%v error=%v", ids, err)
	}
}

func (s *Service) requireCategory(ctx context.Context, id int64) error {
	if _, err := s.categories.GetByID(ctx, id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Wrapf(domain.ErrNotFound, "Category not found")
		}
		return err
	}
	return nil
}

func checkMoney(price decimal.Decimal, weight *decimal.Decimal, dims *domain.Dimensions) error {
	if price.IsNegative() {
		return domain.Validationf("price must be a non-negative number")
	}
	if weight != nil && weight.IsNegative() {
		return domain.Validationf("weight must be a non-negative number")
	}
	if dims != nil && (dims.Length <= 0 || dims.Width <= 0 || dims.Height <= 0) {
		return domain.Validationf("dimensions must include length, width and height")
	}
	return nil
}
