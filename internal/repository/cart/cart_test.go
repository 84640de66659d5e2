package cart

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"shopverse/internal/domain"
	"shopverse/internal/testdb"
)

func TestMain(m *testing.M) {
	testdb.Main(m)
}

func TestPostgres_SingleActiveCart(t *testing.T) {
	ctx := context.Background()
	pool := testdb.Pool(t)
	userID, _ := fixtures(ctx, t, pool)
	repo := NewPostgres(pool, nil)

	expires := time.Now().Add(domain.CartTTL)
	cart, err := repo.Create(ctx, userID, expires)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := repo.Create(ctx, userID, expires); !errors.Is(err, domain.ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists for second active cart, got %v", err)
	}

	if err := repo.Clear(ctx, cart.ID); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if _, err := repo.GetActiveByUser(ctx, userID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected no active cart after clear, got %v", err)
	}
	if _, err := repo.Create(ctx, userID, expires); err != nil {
		t.Fatalf("create after clear: %v", err)
	}
}

func TestPostgres_AddItemMerges(t *testing.T) {
	ctx := context.Background()
	pool := testdb.Pool(t)
	userID, productID := fixtures(ctx, t, pool)
	repo := NewPostgres(pool, nil)

	cart, err := repo.Create(ctx, userID, time.Now().Add(domain.CartTTL))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	first, err := repo.AddItem(ctx, cart.ID, productID, 2)
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	second, err := repo.AddItem(ctx, cart.ID, productID, 3)
	if err != nil {
		t.Fatalf("add again: %v", err)
	}
	if second.ID != first.ID || second.Quantity != 5 {
		t.Fatalf("expected merged line, got %+v", second)
	}
	if second.Product == nil || second.Product.Name != "Mug" {
		t.Fatalf("expected product on line, got %+v", second.Product)
	}

	loaded, err := repo.GetActiveByUser(ctx, userID)
	if err != nil {
		t.Fatalf("get active: %v", err)
	}
	if len(loaded.Items) != 1 {
		t.Fatalf("expected 1 line, got %d", len(loaded.Items))
	}

	item, owner, err := repo.GetItem(ctx, first.ID)
	if err != nil || owner.UserID != userID || item.Quantity != 5 {
		t.Fatalf("unexpected GetItem result item=%+v cart=%+v err=%v", item, owner, err)
	}

	if err := repo.UpdateItemQuantity(ctx, first.ID, 1); err != nil {
		t.Fatalf("update quantity: %v", err)
	}
	if err := repo.DeleteItems(ctx, first.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := repo.DeleteItems(ctx, first.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func fixtures(ctx context.Context, t *testing.T, pool *pgxpool.Pool) (int64, int64) {
	t.Helper()
	var userID, catID, productID int64
	if err := pool.QueryRow(ctx, `
INSERT INTO users (first_name, last_name, email, password_hash) VALUES ('Cart', 'Owner', 'cart@example.com', 'h') RETURNING id
`).Scan(&userID); err != nil {
		t.Fatalf("insert user: %v", err)
	}
	if err := pool.QueryRow(ctx, `INSERT INTO categories (name, slug) VALUES ('Kitchen', 'kitchen') RETURNING id`).Scan(&catID); err != nil {
		t.Fatalf("insert category: %v", err)
	}
	if err := pool.QueryRow(ctx, `
INSERT INTO products (name, slug, description, price, sku, stock, category_id)
VALUES ('Mug', 'mug', 'A ceramic mug', 8.00, 'SKU-MUG', 10, $1) RETURNING id
`, catID).Scan(&productID); err != nil {
		t.Fatalf("insert product: %v", err)
	}
	return userID, productID
}
