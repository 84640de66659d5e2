package order

import (
	"context"
	"errors"
	"io"
	"log"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"shopverse/internal/domain"
	"shopverse/internal/ident"
	orderrepo "shopverse/internal/repository/order"
	"shopverse/internal/validation"
)

const (
	defaultListLimit = 10
	orderNumberTries = 3
)

type orderRepo interface {
	GetByID(ctx context.Context, id int64) (*domain.Order, error)
	List(ctx context.Context, f orderrepo.ListFilter) ([]domain.Order, int, error)
	UpdateStatus(ctx context.Context, o domain.Order) (*domain.Order, error)
	UpdatePaymentStatus(ctx context.Context, id int64, status domain.PaymentStatus) (*domain.Order, error)
	WithinCheckoutTx(ctx context.Context, fn func(orderrepo.CheckoutTx) error) error
}

// productInvalidator drops cached product payloads whose stock changed.
type productInvalidator interface {
	Invalidate(ctx context.Context, ids ...int64)
}

type Service struct {
	repo     orderRepo
	products productInvalidator
	logger   *log.Logger
	now      func() time.Time
}

func New(repo orderRepo, products productInvalidator, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Service{repo: repo, products: products, logger: logger, now: time.Now}
}

type CheckoutInput struct {
	ShippingAddress *domain.Address `json:"shippingAddress" validate:"required"`
	BillingAddress  *domain.Address `json:"billingAddress" validate:"required"`
	PaymentMethod   string          `json:"paymentMethod" validate:"trimmed_len=2-50"`
	Notes           *string         `json:"notes" validate:"omitempty,max=500"`
}

// Checkout converts the user's active cart into an order. Everything from
// loading the cart to clearing it runs in one transaction; any failure
// leaves no order, no stock change and an untouched cart.
func (s *Service) Checkout(ctx context.Context, userID int64, in CheckoutInput) (*domain.Order, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	if err := in.ShippingAddress.Validate("shippingAddress"); err != nil {
		return nil, err
	}
	if err := in.BillingAddress.Validate("billingAddress"); err != nil {
		return nil, err
	}

	var (
		order     *domain.Order
		purchased []int64
		err       error
	)
	for attempt := 0; attempt < orderNumberTries; attempt++ {
		err = s.repo.WithinCheckoutTx(ctx, func(tx orderrepo.CheckoutTx) error {
			o, ids, err := s.placeOrder(ctx, tx, userID, in)
			if err != nil {
				return err
			}
			order, purchased = o, ids
			return nil
		})
		if !errors.Is(err, orderrepo.ErrOrderNumberTaken) {
			break
		}
		s.logger.Printf("order: order number collision user_id=%d attempt=%d", userID, attempt+1)
	}
	if err != nil {
		return nil, err
	}
	if s.products != nil {
		s.products.Invalidate(ctx, purchased...)
	}
	return order, nil
}

func (s *Service) placeOrder(ctx context.Context, tx orderrepo.CheckoutTx, userID int64, in CheckoutInput) (*domain.Order, []int64, error) {
	cart, err := tx.LoadActiveCart(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil, domain.Wrapf(domain.ErrEmptyCart, "Cart is empty")
		}
		return nil, nil, err
	}
	if len(cart.Items) == 0 {
		return nil, nil, domain.Wrapf(domain.ErrEmptyCart, "Cart is empty")
	}

	ids := make([]int64, 0, len(cart.Items))
	seen := make(map[int64]bool, len(cart.Items))
	for _, item := range cart.Items {
		if !seen[item.ProductID] {
			seen[item.ProductID] = true
			ids = append(ids, item.ProductID)
		}
	}
	products, err := tx.LockProducts(ctx, ids)
	if err != nil {
		return nil, nil, err
	}

	subtotal := decimal.Zero
	for _, item := range cart.Items {
		p, ok := products[item.ProductID]
		if !ok {
			return nil, nil, domain.Wrapf(domain.ErrProductUnavailable, "A product in your cart is no longer available")
		}
		if !p.IsActive {
			return nil, nil, domain.Wrapf(domain.ErrProductUnavailable, "Product %s is no longer available", p.Name)
		}
		if p.Stock < item.Quantity {
			return nil, nil, domain.Wrapf(domain.ErrInsufficientStock, "Insufficient stock for %s. Available: %d", p.Name, p.Stock)
		}
		subtotal = subtotal.Add(domain.LineTotal(p.Price, item.Quantity))
	}
	totals := domain.ComputeTotals(subtotal)

	o, err := tx.CreateOrder(ctx, domain.Order{
		OrderNumber:     ident.OrderNumber(s.now()),
		UserID:          userID,
		Status:          domain.OrderPending,
		PaymentStatus:   domain.PaymentPending,
		PaymentMethod:   strings.TrimSpace(in.PaymentMethod),
		Subtotal:        totals.Subtotal,
		TaxAmount:       totals.TaxAmount,
		ShippingAmount:  totals.ShippingAmount,
		DiscountAmount:  totals.DiscountAmount,
		TotalAmount:     totals.TotalAmount,
		ShippingAddress: *in.ShippingAddress,
		BillingAddress:  *in.BillingAddress,
		Notes:           optional(in.Notes),
	})
	if err != nil {
		return nil, nil, err
	}

	o.Items = make([]domain.OrderItem, 0, len(cart.Items))
	for _, item := range cart.Items {
		p := products[item.ProductID]
		productID := p.ID
		ref := p.Ref()
		line, err := tx.CreateOrderItem(ctx, domain.OrderItem{
			OrderID:         o.ID,
			ProductID:       &productID,
			Quantity:        item.Quantity,
			UnitPrice:       p.Price,
			TotalPrice:      domain.LineTotal(p.Price, item.Quantity).Round(2),
			ProductSnapshot: p.Snapshot(),
			Product:         &ref,
		})
		if err != nil {
			return nil, nil, err
		}
		if err := tx.DecrementStock(ctx, p.ID, item.Quantity); err != nil {
			return nil, nil, err
		}
		o.Items = append(o.Items, *line)
	}

	if err := tx.ClearCart(ctx, cart.ID); err != nil {
		return nil, nil, err
	}
	return o, ids, nil
}

// Get returns the order when actor owns it or is an admin.
func (s *Service) Get(ctx context.Context, actor domain.User, id int64) (*domain.Order, error) {
	o, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.Wrapf(domain.ErrNotFound, "Order not found")
		}
		return nil, err
	}
	if !actor.CanAccess(o.UserID) {
		return nil, domain.Wrapf(domain.ErrForbidden, "Access denied")
	}
	return o, nil
}

type ListInput struct {
	Status    string
	StartDate *time.Time
	EndDate   *time.Time
	Page      int
	Limit     int
}

// List returns the actor's own orders, or every order for admins.
func (s *Service) List(ctx context.Context, actor domain.User, in ListInput) ([]domain.Order, domain.Pagination, error) {
	status := domain.OrderStatus(strings.TrimSpace(in.Status))
	if status != "" && !status.Valid() {
		return nil, domain.Pagination{}, domain.Validationf("Invalid order status")
	}
	page := domain.NewPage(in.Page, in.Limit, defaultListLimit)
	f := orderrepo.ListFilter{
		Status:    status,
		StartDate: in.StartDate,
		EndDate:   in.EndDate,
		Page:      page,
	}
	if !actor.IsAdmin() {
		f.UserID = &actor.ID
	}
	orders, total, err := s.repo.List(ctx, f)
	if err != nil {
		return nil, domain.Pagination{}, err
	}
	return orders, page.Paginate(total), nil
}

type UpdateStatusInput struct {
	Status string  `json:"status" validate:"required,oneof=pending confirmed processing shipped delivered cancelled refunded"`
	Notes  *string `json:"notes" validate:"omitempty,max=500"`
}

// UpdateStatus overwrites the status; any status may follow any other.
// Notes are replaced only when supplied.
func (s *Service) UpdateStatus(ctx context.Context, actor domain.User, id int64, in UpdateStatusInput) (*domain.Order, error) {
	if !actor.IsAdmin() {
		return nil, domain.Wrapf(domain.ErrForbidden, "Access denied. Admin privileges required.")
	}
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	o, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.Wrapf(domain.ErrNotFound, "Order not found")
		}
		return nil, err
	}
	o.ApplyStatus(domain.OrderStatus(in.Status), s.now().UTC())
	if in.Notes != nil {
		o.Notes = optional(in.Notes)
	}
	return s.repo.UpdateStatus(ctx, *o)
}

type UpdatePaymentStatusInput struct {
	PaymentStatus string `json:"paymentStatus" validate:"required,oneof=pending paid failed refunded"`
}

func (s *Service) UpdatePaymentStatus(ctx context.Context, actor domain.User, id int64, in UpdatePaymentStatusInput) (*domain.Order, error) {
	if !actor.IsAdmin() {
		return nil, domain.Wrapf(domain.ErrForbidden, "Access denied. Admin privileges required.")
	}
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	o, err := s.repo.UpdatePaymentStatus(ctx, id, domain.PaymentStatus(in.PaymentStatus))
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.Wrapf(domain.ErrNotFound, "Order not found")
	}
	return o, err
}

func optional(v *string) *string {
	if v == nil {
		return nil
	}
	t := strings.TrimSpace(*v)
	if t == "" {
		return nil
	}
	return &t
}
