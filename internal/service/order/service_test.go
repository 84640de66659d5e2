package order

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"shopverse/internal/domain"
	orderrepo "shopverse/internal/repository/order"
)

// state is everything checkout may touch. Transactions work on a clone that
// replaces the committed state only when the closure succeeds.
type state struct {
	products map[int64]domain.Product
	carts    map[int64]domain.Cart
	orders   []domain.Order
	nextID   int64
}

func (s *state) clone() *state {
	out := &state{
		products: make(map[int64]domain.Product, len(s.products)),
		carts:    make(map[int64]domain.Cart, len(s.carts)),
		orders:   make([]domain.Order, len(s.orders)),
		nextID:   s.nextID,
	}
	for id, p := range s.products {
		out.products[id] = p
	}
	for id, c := range s.carts {
		c.Items = append([]domain.CartItem(nil), c.Items...)
		out.carts[id] = c
	}
	for i, o := range s.orders {
		o.Items = append([]domain.OrderItem(nil), o.Items...)
		out.orders[i] = o
	}
	return out
}

type memoryRepo struct {
	committed  *state
	attempts   int
	collisions int
	failStep   string
	failErr    error
	lastFilter orderrepo.ListFilter
}

func (r *memoryRepo) WithinCheckoutTx(_ context.Context, fn func(orderrepo.CheckoutTx) error) error {
	r.attempts++
	work := r.committed.clone()
	if err := fn(&memoryTx{s: work, repo: r}); err != nil {
		return err
	}
	r.committed = work
	return nil
}

func (r *memoryRepo) GetByID(_ context.Context, id int64) (*domain.Order, error) {
	for _, o := range r.committed.orders {
		if o.ID == id {
			return &o, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *memoryRepo) List(_ context.Context, f orderrepo.ListFilter) ([]domain.Order, int, error) {
	r.lastFilter = f
	var out []domain.Order
	for _, o := range r.committed.orders {
		if f.UserID != nil && o.UserID != *f.UserID {
			continue
		}
		out = append(out, o)
	}
	return out, len(out), nil
}

func (r *memoryRepo) UpdateStatus(_ context.Context, o domain.Order) (*domain.Order, error) {
	for i := range r.committed.orders {
		if r.committed.orders[i].ID == o.ID {
			r.committed.orders[i] = o
			return &o, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *memoryRepo) UpdatePaymentStatus(_ context.Context, id int64, status domain.PaymentStatus) (*domain.Order, error) {
	for i := range r.committed.orders {
		if r.committed.orders[i].ID == id {
			r.committed.orders[i].PaymentStatus = status
			o := r.committed.orders[i]
			return &o, nil
		}
	}
	return nil, domain.ErrNotFound
}

type memoryTx struct {
	s    *state
	repo *memoryRepo
}

func (t *memoryTx) LoadActiveCart(_ context.Context, userID int64) (*domain.Cart, error) {
	for _, c := range t.s.carts {
		if c.UserID == userID && c.IsActive {
			return &c, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (t *memoryTx) LockProducts(_ context.Context, ids []int64) (map[int64]domain.Product, error) {
	out := make(map[int64]domain.Product)
	for _, id := range ids {
		if p, ok := t.s.products[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

func (t *memoryTx) CreateOrder(_ context.Context, o domain.Order) (*domain.Order, error) {
	if t.repo.collisions > 0 {
		t.repo.collisions--
		return nil, orderrepo.ErrOrderNumberTaken
	}
	t.s.nextID++
	o.ID = t.s.nextID
	t.s.orders = append(t.s.orders, o)
	return &o, nil
}

func (t *memoryTx) CreateOrderItem(_ context.Context, item domain.OrderItem) (*domain.OrderItem, error) {
	if t.repo.failStep == "item" {
		return nil, t.repo.failErr
	}
	t.s.nextID++
	item.ID = t.s.nextID
	for i := range t.s.orders {
		if t.s.orders[i].ID == item.OrderID {
			t.s.orders[i].Items = append(t.s.orders[i].Items, item)
		}
	}
	return &item, nil
}

func (t *memoryTx) DecrementStock(_ context.Context, productID int64, quantity int) error {
	if t.repo.failStep == "decrement" {
		return t.repo.failErr
	}
	p := t.s.products[productID]
	if p.Stock < quantity {
		return domain.ErrInsufficientStock
	}
	p.Stock -= quantity
	t.s.products[productID] = p
	return nil
}

func (t *memoryTx) ClearCart(_ context.Context, cartID int64) error {
	c, ok := t.s.carts[cartID]
	if !ok {
		return domain.ErrNotFound
	}
	c.Items = nil
	c.IsActive = false
	t.s.carts[cartID] = c
	return nil
}

type recordingInvalidator struct {
	ids []int64
}

func (r *recordingInvalidator) Invalidate(_ context.Context, ids ...int64) {
	r.ids = append(r.ids, ids...)
}

var (
	customer = domain.User{ID: 10, Role: domain.RoleCustomer, IsActive: true}
	stranger = domain.User{ID: 11, Role: domain.RoleCustomer, IsActive: true}
	admin    = domain.User{ID: 1, Role: domain.RoleAdmin, IsActive: true}
)

func money(v string) decimal.Decimal { return decimal.RequireFromString(v) }

func address() *domain.Address {
	return &domain.Address{Street: "1 Main St", City: "Springfield", State: "IL", ZipCode: "62701", Country: "US"}
}

func checkoutInput() CheckoutInput {
	return CheckoutInput{ShippingAddress: address(), BillingAddress: address(), PaymentMethod: "card"}
}

// fixture seeds two products and an active cart for customer with lines
// (10.00 x qty1) and (5.00 x qty2).
func fixture(qty1, qty2 int) *memoryRepo {
	s := &state{
		products: map[int64]domain.Product{
			1: {ID: 1, Name: "Mug", SKU: "MUG-1", Price: money("10.00"), Stock: 5, IsActive: true, Images: []string{"https://x.io/mug.png"}},
			2: {ID: 2, Name: "Tea", SKU: "TEA-1", Price: money("5.00"), Stock: 5, IsActive: true},
		},
		carts:  map[int64]domain.Cart{},
		nextID: 100,
	}
	var items []domain.CartItem
	if qty1 > 0 {
		items = append(items, domain.CartItem{ID: 1, CartID: 50, ProductID: 1, Quantity: qty1})
	}
	if qty2 > 0 {
		items = append(items, domain.CartItem{ID: 2, CartID: 50, ProductID: 2, Quantity: qty2})
	}
	s.carts[50] = domain.Cart{ID: 50, UserID: customer.ID, IsActive: true, Items: items}
	return &memoryRepo{committed: s}
}

func fixedNow() time.Time { return time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC) }

func newTestService(repo *memoryRepo) (*Service, *recordingInvalidator) {
	inv := &recordingInvalidator{}
	svc := New(repo, inv, nil)
	svc.now = fixedNow
	return svc, inv
}

func assertUntouched(t *testing.T, repo *memoryRepo) {
	t.Helper()
	s := repo.committed
	if len(s.orders) != 0 {
		t.Fatalf("expected no orders, got %d", len(s.orders))
	}
	if s.products[1].Stock != 5 || s.products[2].Stock != 5 {
		t.Fatalf("expected stock unchanged, got %d/%d", s.products[1].Stock, s.products[2].Stock)
	}
	if c := s.carts[50]; !c.IsActive || len(c.Items) == 0 {
		t.Fatalf("expected cart untouched, got %+v", c)
	}
}

func TestCheckoutTotalsAndSideEffects(t *testing.T) {
	repo := fixture(2, 1)
	svc, inv := newTestService(repo)
	notes := "  leave at door "

	in := checkoutInput()
	in.Notes = &notes
	o, err := svc.Checkout(context.Background(), customer.ID, in)
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}
	if !o.Subtotal.Equal(money("25")) || !o.TaxAmount.Equal(money("2.5")) ||
		!o.ShippingAmount.Equal(money("10")) || !o.DiscountAmount.IsZero() || !o.TotalAmount.Equal(money("37.5")) {
		t.Fatalf("unexpected totals: %s %s %s %s %s", o.Subtotal, o.TaxAmount, o.ShippingAmount, o.DiscountAmount, o.TotalAmount)
	}
	if o.Status != domain.OrderPending || o.PaymentStatus != domain.PaymentPending {
		t.Fatalf("unexpected statuses: %s/%s", o.Status, o.PaymentStatus)
	}
	if !strings.HasPrefix(o.OrderNumber, "ORD-") {
		t.Fatalf("unexpected order number %s", o.OrderNumber)
	}
	if o.Notes == nil || *o.Notes != "leave at door" {
		t.Fatalf("unexpected notes %v", o.Notes)
	}
	if len(o.Items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(o.Items))
	}
	first := o.Items[0]
	if first.Quantity != 2 || !first.TotalPrice.Equal(money("20")) || first.ProductSnapshot.Name != "Mug" || len(first.ProductSnapshot.Images) != 1 {
		t.Fatalf("unexpected first item: %+v", first)
	}

	s := repo.committed
	if s.products[1].Stock != 3 || s.products[2].Stock != 4 {
		t.Fatalf("expected stock decremented, got %d/%d", s.products[1].Stock, s.products[2].Stock)
	}
	if c := s.carts[50]; c.IsActive || len(c.Items) != 0 {
		t.Fatalf("expected cart cleared and deactivated, got %+v", c)
	}
	if len(inv.ids) != 2 {
		t.Fatalf("expected cache invalidation for both products, got %v", inv.ids)
	}
}

func TestCheckoutFreeShipping(t *testing.T) {
	repo := fixture(5, 0)
	repo.committed.products[1] = domain.Product{ID: 1, Name: "Mug", Price: money("30.00"), Stock: 5, IsActive: true}
	svc, _ := newTestService(repo)
	o, err := svc.Checkout(context.Background(), customer.ID, checkoutInput())
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}
	if !o.Subtotal.Equal(money("150")) || !o.ShippingAmount.IsZero() || !o.TotalAmount.Equal(money("165")) {
		t.Fatalf("unexpected totals: subtotal=%s shipping=%s total=%s", o.Subtotal, o.ShippingAmount, o.TotalAmount)
	}
}

func TestCheckoutEmptyCart(t *testing.T) {
	repo := fixture(0, 0)
	svc, _ := newTestService(repo)
	if _, err := svc.Checkout(context.Background(), customer.ID, checkoutInput()); !errors.Is(err, domain.ErrEmptyCart) {
		t.Fatalf("expected empty cart, got %v", err)
	}
	if _, err := svc.Checkout(context.Background(), stranger.ID, checkoutInput()); !errors.Is(err, domain.ErrEmptyCart) {
		t.Fatalf("expected empty cart without any cart, got %v", err)
	}
}

func TestCheckoutInsufficientStockMutatesNothing(t *testing.T) {
	repo := fixture(1, 6)
	svc, inv := newTestService(repo)
	_, err := svc.Checkout(context.Background(), customer.ID, checkoutInput())
	if !errors.Is(err, domain.ErrInsufficientStock) {
		t.Fatalf("expected insufficient stock, got %v", err)
	}
	if !strings.Contains(domain.Detail(err), "Tea") {
		t.Fatalf("expected product named in message, got %q", domain.Detail(err))
	}
	assertUntouched(t, repo)
	if len(inv.ids) != 0 {
		t.Fatalf("no invalidation expected on failure")
	}
}

func TestCheckoutProductUnavailable(t *testing.T) {
	repo := fixture(1, 1)
	p := repo.committed.products[2]
	p.IsActive = false
	repo.committed.products[2] = p
	svc, _ := newTestService(repo)
	if _, err := svc.Checkout(context.Background(), customer.ID, checkoutInput()); !errors.Is(err, domain.ErrProductUnavailable) {
		t.Fatalf("expected product unavailable, got %v", err)
	}
	delete(repo.committed.products, 2)
	if _, err := svc.Checkout(context.Background(), customer.ID, checkoutInput()); !errors.Is(err, domain.ErrProductUnavailable) {
		t.Fatalf("expected product unavailable for missing product, got %v", err)
	}
}

func TestCheckoutRollsBackInjectedFailures(t *testing.T) {
	for _, step := range []string{"item", "decrement"} {
		repo := fixture(2, 1)
		repo.failStep = step
		repo.failErr = errors.New("injected failure")
		svc, _ := newTestService(repo)
		if _, err := svc.Checkout(context.Background(), customer.ID, checkoutInput()); !errors.Is(err, repo.failErr) {
			t.Fatalf("%s: expected injected failure, got %v", step, err)
		}
		assertUntouched(t, repo)
	}
}

func TestCheckoutRetriesOrderNumberCollision(t *testing.T) {
	repo := fixture(1, 0)
	repo.collisions = 1
	svc, _ := newTestService(repo)
	if _, err := svc.Checkout(context.Background(), customer.ID, checkoutInput()); err != nil {
		t.Fatalf("checkout: %v", err)
	}
	if repo.attempts != 2 || len(repo.committed.orders) != 1 {
		t.Fatalf("expected one retry and one order, got attempts=%d orders=%d", repo.attempts, len(repo.committed.orders))
	}
}

func TestCheckoutValidatesBeforeTransaction(t *testing.T) {
	repo := fixture(1, 1)
	svc, _ := newTestService(repo)

	in := checkoutInput()
	in.ShippingAddress.ZipCode = " "
	_, err := svc.Checkout(context.Background(), customer.ID, in)
	if !errors.Is(err, domain.ErrValidation) || !strings.Contains(domain.Detail(err), "zipCode") {
		t.Fatalf("expected address validation error, got %v", err)
	}
	in = checkoutInput()
	in.BillingAddress = nil
	if _, err := svc.Checkout(context.Background(), customer.ID, in); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error for missing billing address, got %v", err)
	}
	in = checkoutInput()
	in.PaymentMethod = "x"
	if _, err := svc.Checkout(context.Background(), customer.ID, in); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error for payment method, got %v", err)
	}
	if repo.attempts != 0 {
		t.Fatalf("validation failures must not open a transaction")
	}
}

func TestGetAndListScoping(t *testing.T) {
	repo := fixture(1, 0)
	svc, _ := newTestService(repo)
	ctx := context.Background()
	o, err := svc.Checkout(ctx, customer.ID, checkoutInput())
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}

	if _, err := svc.Get(ctx, customer, o.ID); err != nil {
		t.Fatalf("owner get: %v", err)
	}
	if _, err := svc.Get(ctx, admin, o.ID); err != nil {
		t.Fatalf("admin get: %v", err)
	}
	if _, err := svc.Get(ctx, stranger, o.ID); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
	if _, err := svc.Get(ctx, admin, 999); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	orders, _, err := svc.List(ctx, stranger, ListInput{})
	if err != nil || len(orders) != 0 {
		t.Fatalf("expected stranger to see no orders, got %d err=%v", len(orders), err)
	}
	if repo.lastFilter.UserID == nil || *repo.lastFilter.UserID != stranger.ID || repo.lastFilter.Page.Limit != defaultListLimit {
		t.Fatalf("unexpected filter: %+v", repo.lastFilter)
	}
	orders, _, err = svc.List(ctx, admin, ListInput{Status: "pending"})
	if err != nil || len(orders) != 1 || repo.lastFilter.UserID != nil {
		t.Fatalf("expected admin to list all orders, got %d err=%v", len(orders), err)
	}
	if _, _, err := svc.List(ctx, admin, ListInput{Status: "lost"}); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestUpdateStatus(t *testing.T) {
	repo := fixture(1, 0)
	svc, _ := newTestService(repo)
	ctx := context.Background()
	notes := "fragile"
	in := checkoutInput()
	in.Notes = &notes
	o, _ := svc.Checkout(ctx, customer.ID, in)

	if _, err := svc.UpdateStatus(ctx, customer, o.ID, UpdateStatusInput{Status: "shipped"}); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
	shipped, err := svc.UpdateStatus(ctx, admin, o.ID, UpdateStatusInput{Status: "shipped"})
	if err != nil {
		t.Fatalf("update status: %v", err)
	}
	if shipped.ShippedAt == nil || shipped.Notes == nil || *shipped.Notes != "fragile" {
		t.Fatalf("expected shippedAt stamped and notes kept, got %+v", shipped)
	}
	stamp := *shipped.ShippedAt

	svc.now = func() time.Time { return stamp.Add(time.Hour) }
	again, err := svc.UpdateStatus(ctx, admin, o.ID, UpdateStatusInput{Status: "shipped", Notes: strPtr("handed over")})
	if err != nil {
		t.Fatalf("update status: %v", err)
	}
	if !again.ShippedAt.Equal(stamp) || *again.Notes != "handed over" {
		t.Fatalf("expected original shippedAt and replaced notes, got %+v", again)
	}

	back, err := svc.UpdateStatus(ctx, admin, o.ID, UpdateStatusInput{Status: "pending"})
	if err != nil || back.Status != domain.OrderPending {
		t.Fatalf("expected free-form transition back to pending, got %+v err=%v", back, err)
	}
	if _, err := svc.UpdateStatus(ctx, admin, o.ID, UpdateStatusInput{Status: "teleported"}); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestUpdatePaymentStatus(t *testing.T) {
	repo := fixture(1, 0)
	svc, _ := newTestService(repo)
	ctx := context.Background()
	o, _ := svc.Checkout(ctx, customer.ID, checkoutInput())

	if _, err := svc.UpdatePaymentStatus(ctx, customer, o.ID, UpdatePaymentStatusInput{PaymentStatus: "paid"}); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
	paid, err := svc.UpdatePaymentStatus(ctx, admin, o.ID, UpdatePaymentStatusInput{PaymentStatus: "paid"})
	if err != nil || paid.PaymentStatus != domain.PaymentPaid {
		t.Fatalf("expected paid, got %+v err=%v", paid, err)
	}
	if _, err := svc.UpdatePaymentStatus(ctx, admin, o.ID, UpdatePaymentStatusInput{PaymentStatus: "free"}); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func strPtr(s string) *string { return &s }
