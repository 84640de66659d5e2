package cart

import (
	"context"
	"errors"
	"io"
	"log"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"shopverse/internal/db"
	"shopverse/internal/domain"
	productrepo "shopverse/internal/repository/product"
)

const cartColumns = `id, user_id, is_active, expires_at, created_at, updated_at`

const itemSelect = `
SELECT ci.id, ci.cart_id, ci.product_id, ci.quantity, ci.created_at, ci.updated_at, ` + productrepo.Columns + `
FROM cart_items ci
JOIN products p ON p.id = ci.product_id
JOIN categories c ON c.id = p.category_id
`

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger *log.Logger
}

func NewPostgres(pool *pgxpool.Pool, logger *log.Logger) Repository {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &postgresRepo{pool: pool, logger: logger}
}

func (r *postgresRepo) GetActiveByUser(ctx context.Context, userID int64) (*domain.Cart, error) {
	q := `SELECT ` + cartColumns + ` FROM carts WHERE user_id = $1 AND is_active ORDER BY created_at DESC LIMIT 1`
	cart, err := scanCart(r.pool.QueryRow(ctx, q, userID))
	if err != nil {
		return nil, err
	}
	items, err := r.listItems(ctx, cart.ID)
	if err != nil {
		r.logger.Printf("cart repo: list items cart_id=%d error=%v", cart.ID, err)
		return nil, err
	}
	cart.Items = items
	return cart, nil
}

func (r *postgresRepo) Create(ctx context.Context, userID int64, expiresAt time.Time) (*domain.Cart, error) {
	q := `INSERT INTO carts (user_id, is_active, expires_at) VALUES ($1, TRUE, $2) RETURNING ` + cartColumns
	cart, err := scanCart(r.pool.QueryRow(ctx, q, userID, expiresAt))
	if err != nil {
		if db.IsUniqueViolation(err) {
			return nil, domain.ErrAlreadyExists
		}
		r.logger.Printf("cart repo: create user_id=%d error=%v", userID, err)
		return nil, err
	}
	cart.Items = []domain.CartItem{}
	return cart, nil
}

func (r *postgresRepo) GetItem(ctx context.Context, itemID int64) (*domain.CartItem, *domain.Cart, error) {
	item, err := scanItem(r.pool.QueryRow(ctx, itemSelect+`WHERE ci.id = $1`, itemID))
	if err != nil {
		return nil, nil, err
	}
	cart, err := scanCart(r.pool.QueryRow(ctx, `SELECT `+cartColumns+` FROM carts WHERE id = $1`, item.CartID))
	if err != nil {
		return nil, nil, err
	}
	return item, cart, nil
}

func (r *postgresRepo) GetItemByProduct(ctx context.Context, cartID, productID int64) (*domain.CartItem, error) {
	q := itemSelect + `WHERE ci.cart_id = $1 AND ci.product_id = $2 ORDER BY ci.id LIMIT 1`
	return scanItem(r.pool.QueryRow(ctx, q, cartID, productID))
}

func (r *postgresRepo) AddItem(ctx context.Context, cartID, productID int64, quantity int) (*domain.CartItem, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	var itemID int64
	err = tx.QueryRow(ctx, `
SELECT id FROM cart_items WHERE cart_id = $1 AND product_id = $2 ORDER BY id LIMIT 1 FOR UPDATE
`, cartID, productID).Scan(&itemID)
	switch {
	case err == nil:
		if _, err := tx.Exec(ctx, `
UPDATE cart_items SET quantity = quantity + $2, updated_at = now() WHERE id = $1
`, itemID, quantity); err != nil {
			return nil, err
		}
	case errors.Is(err, pgx.ErrNoRows):
		if err := tx.QueryRow(ctx, `
INSERT INTO cart_items (cart_id, product_id, quantity) VALUES ($1, $2, $3) RETURNING id
`, cartID, productID, quantity).Scan(&itemID); err != nil {
			if db.IsForeignKeyViolation(err) {
				return nil, domain.ErrNotFound
			}
			return nil, err
		}
	default:
		return nil, err
	}

	if _, err := tx.Exec(ctx, `UPDATE carts SET updated_at = now() WHERE id = $1`, cartID); err != nil {
		return nil, err
	}
	item, err := scanItem(tx.QueryRow(ctx, itemSelect+`WHERE ci.id = $1`, itemID))
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		r.logger.Printf("cart repo: add item cart_id=%d product_id=%d error=%v", cartID, productID, err)
		return nil, err
	}
	return item, nil
}

func (r *postgresRepo) UpdateItemQuantity(ctx context.Context, itemID int64, quantity int) error {
	cmd, err := r.pool.Exec(ctx, `UPDATE cart_items SET quantity = $2, updated_at = now() WHERE id = $1`, itemID, quantity)
	if err != nil {
		r.logger.Printf("cart repo: update item id=%d error=%v", itemID, err)
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *postgresRepo) DeleteItems(ctx context.Context, itemIDs ...int64) error {
	if len(itemIDs) == 0 {
		return nil
	}
	cmd, err := r.pool.Exec(ctx, `DELETE FROM cart_items WHERE id = ANY($1)`, itemIDs)
	if err != nil {
		r.logger.Printf("cart repo: delete items ids=%v error=%v", itemIDs, err)
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *postgresRepo) Clear(ctx context.Context, cartID int64) error {
	return db.WithTx(ctx, r.pool, db.DefaultTxOptions(), func(tx pgx.Tx) error {
		return ClearTx(ctx, tx, cartID)
	})
}

// ClearTx deletes the cart's lines and deactivates it using q, which may be a
// transaction owned by the caller.
func ClearTx(ctx context.Context, q db.Querier, cartID int64) error {
	if _, err := q.Exec(ctx, `DELETE FROM cart_items WHERE cart_id = $1`, cartID); err != nil {
		return err
	}
	cmd, err := q.Exec(ctx, `UPDATE carts SET is_active = FALSE, updated_at = now() WHERE id = $1`, cartID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *postgresRepo) listItems(ctx context.Context, cartID int64) ([]domain.CartItem, error) {
	rows, err := r.pool.Query(ctx, itemSelect+`WHERE ci.cart_id = $1 ORDER BY ci.created_at ASC, ci.id ASC`, cartID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []domain.CartItem{}
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

func scanCart(row pgx.Row) (*domain.Cart, error) {
	var c domain.Cart
	if err := row.Scan(&c.ID, &c.UserID, &c.IsActive, &c.ExpiresAt, &c.CreatedAt, &c.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

func scanItem(row pgx.Row) (*domain.CartItem, error) {
	var item domain.CartItem
	var p domain.Product
	dest := append([]any{&item.ID, &item.CartID, &item.ProductID, &item.Quantity, &item.CreatedAt, &item.UpdatedAt}, productrepo.Targets(&p)...)
	if err := row.Scan(dest...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	productrepo.Finish(&p)
	item.Product = &p
	return &item, nil
}
