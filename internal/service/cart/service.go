package cart

import (
	"context"
	"errors"
	"io"
	"log"
	"time"

	"shopverse/internal/domain"
	"shopverse/internal/validation"
)

type cartRepo interface {
	GetActiveByUser(ctx context.Context, userID int64) (*domain.Cart, error)
	Create(ctx context.Context, userID int64, expiresAt time.Time) (*domain.Cart, error)
	GetItem(ctx context.Context, itemID int64) (*domain.CartItem, *domain.Cart, error)
	GetItemByProduct(ctx context.Context, cartID, productID int64) (*domain.CartItem, error)
	AddItem(ctx context.Context, cartID, productID int64, quantity int) (*domain.CartItem, error)
	UpdateItemQuantity(ctx context.Context, itemID int64, quantity int) error
	DeleteItems(ctx context.Context, itemIDs ...int64) error
	Clear(ctx context.Context, cartID int64) error
}

type productReader interface {
	GetByID(ctx context.Context, id int64) (*domain.Product, error)
}

// Service keeps one active cart per user and its lines.
type Service struct {
	repo     cartRepo
	products productReader
	logger   *log.Logger
	now      func() time.Time
}

func New(repo cartRepo, products productReader, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Service{repo: repo, products: products, logger: logger, now: time.Now}
}

// GetOrCreate returns the user's active cart, creating one when absent.
// A concurrent creation loses on the unique index and re-reads the winner.
func (s *Service) GetOrCreate(ctx context.Context, userID int64) (*domain.Cart, error) {
	cart, err := s.repo.GetActiveByUser(ctx, userID)
	if err == nil {
		return cart, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	cart, err = s.repo.Create(ctx, userID, s.now().UTC().Add(domain.CartTTL))
	if errors.Is(err, domain.ErrAlreadyExists) {
		return s.repo.GetActiveByUser(ctx, userID)
	}
	return cart, err
}

type AddItemInput struct {
	ProductID int64 `json:"productId" validate:"required,gt=0"`
	Quantity  *int  `json:"quantity" validate:"omitempty,gte=1"`
}

// AddItem merges quantity into the line for the product or creates it.
func (s *Service) AddItem(ctx context.Context, userID int64, in AddItemInput) (*domain.CartItem, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	quantity := 1
	if in.Quantity != nil {
		quantity = *in.Quantity
	}
	product, err := s.products.GetByID(ctx, in.ProductID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.Wrapf(domain.ErrNotFound, "Product not found or inactive")
		}
		return nil, err
	}
	if !product.IsActive {
		return nil, domain.Wrapf(domain.ErrNotFound, "Product not found or inactive")
	}

	cart, err := s.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}
	requested := quantity
	existing, err := s.repo.GetItemByProduct(ctx, cart.ID, product.ID)
	switch {
	case err == nil:
		requested += existing.Quantity
	case !errors.Is(err, domain.ErrNotFound):
		return nil, err
	}
	if requested > product.Stock {
		return nil, insufficient(product)
	}
	return s.repo.AddItem(ctx, cart.ID, product.ID, quantity)
}

type UpdateItemInput struct {
	Quantity int `json:"quantity" validate:"required,gte=1"`
}

// UpdateItem sets the quantity of one of the caller's active cart lines. A
// line whose product went inactive is removed and reported as InvalidState.
func (s *Service) UpdateItem(ctx context.Context, userID, itemID int64, in UpdateItemInput) (*domain.CartItem, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	item, err := s.ownedItem(ctx, userID, itemID)
	if err != nil {
		return nil, err
	}
	if !item.Sellable() {
		if err := s.repo.DeleteItems(ctx, item.ID); err != nil && !errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		return nil, domain.Wrapf(domain.ErrInvalidState, "Product is no longer available and was removed from your cart")
	}
	if in.Quantity > item.Product.Stock {
		return nil, insufficient(item.Product)
	}
	if err := s.repo.UpdateItemQuantity(ctx, item.ID, in.Quantity); err != nil {
		return nil, err
	}
	item.Quantity = in.Quantity
	return item, nil
}

func (s *Service) RemoveItem(ctx context.Context, userID, itemID int64) error {
	item, err := s.ownedItem(ctx, userID, itemID)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteItems(ctx, item.ID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Wrapf(domain.ErrNotFound, "Cart item not found")
		}
		return err
	}
	return nil
}

// Get summarizes the active cart over sellable lines and purges the rest.
// The purge is best-effort. A user without a cart gets an empty summary
// whose Cart is nil.
func (s *Service) Get(ctx context.Context, userID int64) (domain.CartSummary, error) {
	cart, err := s.repo.GetActiveByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			summary, _ := domain.Summarize(nil)
			return summary, nil
		}
		return domain.CartSummary{}, err
	}
	summary, stale := domain.Summarize(cart)
	if len(stale) > 0 {
		ids := make([]int64, len(stale))
		for i, item := range stale {
			ids[i] = item.ID
		}
		if err := s.repo.DeleteItems(ctx, ids...); err != nil {
			s.logger.Printf("cart: purge stale lines cart_id=%d ids=%v error=%v", cart.ID, ids, err)
		}
	}
	return summary, nil
}

// Clear empties and deactivates the active cart; no cart is not an error.
func (s *Service) Clear(ctx context.Context, userID int64) error {
	cart, err := s.repo.GetActiveByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		return err
	}
	return s.repo.Clear(ctx, cart.ID)
}

func (s *Service) ownedItem(ctx context.Context, userID, itemID int64) (*domain.CartItem, error) {
	item, cart, err := s.repo.GetItem(ctx, itemID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.Wrapf(domain.ErrNotFound, "Cart item not found")
		}
		return nil, err
	}
	if cart.UserID != userID {
		return nil, domain.Wrapf(domain.ErrForbidden, "Access denied")
	}
	if !cart.IsActive {
		return nil, domain.Wrapf(domain.ErrNotFound, "Cart item not found")
	}
	return item, nil
}

func insufficient(p *domain.Product) error {
	return domain.Wrapf(domain.ErrInsufficientStock, "Insufficient stock. Available: %d", p.Stock)
}
