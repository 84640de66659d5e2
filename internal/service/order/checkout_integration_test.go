package order

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"shopverse/internal/domain"
	cartrepo "shopverse/internal/repository/cart"
	catrepo "shopverse/internal/repository/category"
	orderrepo "shopverse/internal/repository/order"
	productrepo "shopverse/internal/repository/product"
	userrepo "shopverse/internal/repository/user"
	"shopverse/internal/testdb"
)

func TestMain(m *testing.M) {
	testdb.Main(m)
}

// seedBuyers creates a product with the given stock and one active cart per
// buyer, each holding quantity 1 of it.
func seedBuyers(ctx context.Context, t *testing.T, pool *pgxpool.Pool, stock, buyers int) (int64, []int64) {
	t.Helper()
	users := userrepo.NewPostgres(pool, nil)
	categories := catrepo.NewPostgres(pool, nil)
	products := productrepo.NewPostgres(pool, nil)
	carts := cartrepo.NewPostgres(pool, nil)

	c, err := categories.Create(ctx, domain.Category{Name: "Lighting", Slug: "lighting", IsActive: true})
	if err != nil {
		t.Fatalf("create category: %v", err)
	}
	p, err := products.Create(ctx, domain.Product{
		Name: "Last Lamp", Slug: "last-lamp", Description: "Only one left in the warehouse",
		Price: decimal.RequireFromString("40.00"), SKU: "LAMP-LAST", Stock: stock, CategoryID: c.ID, IsActive: true,
	})
	if err != nil {
		t.Fatalf("create product: %v", err)
	}

	ids := make([]int64, 0, buyers)
	for i := 0; i < buyers; i++ {
		u, err := users.Create(ctx, domain.User{
			FirstName: "Buyer", LastName: "Number", Email: "buyer" + string(rune('a'+i)) + "@example.com",
			PasswordHash: "x", Role: domain.RoleCustomer, IsActive: true,
		})
		if err != nil {
			t.Fatalf("create user: %v", err)
		}
		cart, err := carts.Create(ctx, u.ID, fixedNow().Add(domain.CartTTL))
		if err != nil {
			t.Fatalf("create cart: %v", err)
		}
		if _, err := carts.AddItem(ctx, cart.ID, p.ID, 1); err != nil {
			t.Fatalf("add item: %v", err)
		}
		ids = append(ids, u.ID)
	}
	return p.ID, ids
}

func stockOf(ctx context.Context, t *testing.T, pool *pgxpool.Pool, productID int64) int {
	t.Helper()
	var stock int
	if err := pool.QueryRow(ctx, `SELECT stock FROM products WHERE id = $1`, productID).Scan(&stock); err != nil {
		t.Fatalf("read stock: %v", err)
	}
	return stock
}

func TestIntegration_ConcurrentCheckoutOfLastUnit(t *testing.T) {
	ctx := context.Background()
	pool := testdb.Pool(t)
	productID, buyers := seedBuyers(ctx, t, pool, 1, 2)
	svc := New(orderrepo.NewPostgres(pool, nil), nil, nil)

	var wg sync.WaitGroup
	errs := make([]error, len(buyers))
	start := make(chan struct{})
	for i, userID := range buyers {
		wg.Add(1)
		go func(i int, userID int64) {
			defer wg.Done()
			<-start
			_, errs[i] = svc.Checkout(ctx, userID, checkoutInput())
		}(i, userID)
	}
	close(start)
	wg.Wait()

	var ok, short int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, domain.ErrInsufficientStock):
			short++
		default:
			t.Fatalf("unexpected checkout error: %v", err)
		}
	}
	if ok != 1 || short != 1 {
		t.Fatalf("expected one success and one insufficient stock, got ok=%d short=%d", ok, short)
	}
	if stock := stockOf(ctx, t, pool, productID); stock != 0 {
		t.Fatalf("expected stock 0, got %d", stock)
	}
	var orders int
	if err := pool.QueryRow(ctx, `SELECT count(*) FROM orders`).Scan(&orders); err != nil {
		t.Fatalf("count orders: %v", err)
	}
	if orders != 1 {
		t.Fatalf("expected exactly one order, got %d", orders)
	}
}

// failingRepo injects an error between order item creation and the stock
// decrement of a real transaction.
type failingRepo struct {
	orderrepo.Repository
	err error
}

func (r failingRepo) WithinCheckoutTx(ctx context.Context, fn func(orderrepo.CheckoutTx) error) error {
	return r.Repository.WithinCheckoutTx(ctx, func(tx orderrepo.CheckoutTx) error {
		return fn(failingTx{CheckoutTx: tx, err: r.err})
	})
}

type failingTx struct {
	orderrepo.CheckoutTx
	err error
}

func (tx failingTx) DecrementStock(context.Context, int64, int) error {
	return tx.err
}

func TestIntegration_CheckoutRollsBackOnFailure(t *testing.T) {
	ctx := context.Background()
	pool := testdb.Pool(t)
	productID, buyers := seedBuyers(ctx, t, pool, 3, 1)
	injected := errors.New("injected failure")
	svc := New(failingRepo{Repository: orderrepo.NewPostgres(pool, nil), err: injected}, nil, nil)

	if _, err := svc.Checkout(ctx, buyers[0], checkoutInput()); !errors.Is(err, injected) {
		t.Fatalf("expected injected failure, got %v", err)
	}

	var orders, items int
	if err := pool.QueryRow(ctx, `SELECT (SELECT count(*) FROM orders), (SELECT count(*) FROM order_items)`).Scan(&orders, &items); err != nil {
		t.Fatalf("count orders: %v", err)
	}
	if orders != 0 || items != 0 {
		t.Fatalf("expected no order rows, got orders=%d items=%d", orders, items)
	}
	if stock := stockOf(ctx, t, pool, productID); stock != 3 {
		t.Fatalf("expected stock unchanged, got %d", stock)
	}
	cart, err := cartrepo.NewPostgres(pool, nil).GetActiveByUser(ctx, buyers[0])
	if err != nil {
		t.Fatalf("expected cart still active: %v", err)
	}
	if len(cart.Items) != 1 {
		t.Fatalf("expected cart lines untouched, got %d", len(cart.Items))
	}
}
