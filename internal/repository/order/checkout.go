package order

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"shopverse/internal/db"
	"shopverse/internal/domain"
	cartrepo "shopverse/internal/repository/cart"
	productrepo "shopverse/internal/repository/product"
)

// ErrOrderNumberTaken reports a unique violation on orders.order_number. The
// transaction is aborted, so callers retry the whole checkout.
var ErrOrderNumberTaken = domain.Wrapf(domain.ErrAlreadyExists, "order number collision")

type checkoutTx struct {
	tx pgx.Tx
}

func (c *checkoutTx) LoadActiveCart(ctx context.Context, userID int64) (*domain.Cart, error) {
	var cart domain.Cart
	err := c.tx.QueryRow(ctx, `
SELECT id, user_id, is_active, expires_at, created_at, updated_at
FROM carts
WHERE user_id = $1 AND is_active
ORDER BY created_at DESC
LIMIT 1
FOR UPDATE
`, userID).Scan(&cart.ID, &cart.UserID, &cart.IsActive, &cart.ExpiresAt, &cart.CreatedAt, &cart.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}

	rows, err := c.tx.Query(ctx, `
SELECT id, cart_id, product_id, quantity, created_at, updated_at
FROM cart_items
WHERE cart_id = $1
ORDER BY created_at ASC, id ASC
`, cart.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cart.Items = []domain.CartItem{}
	for rows.Next() {
		var item domain.CartItem
		if err := rows.Scan(&item.ID, &item.CartID, &item.ProductID, &item.Quantity, &item.CreatedAt, &item.UpdatedAt); err != nil {
			return nil, err
		}
		cart.Items = append(cart.Items, item)
	}
	return &cart, rows.Err()
}

func (c *checkoutTx) LockProducts(ctx context.Context, ids []int64) (map[int64]domain.Product, error) {
	rows, err := c.tx.Query(ctx, `
SELECT `+productrepo.Columns+`
FROM products p
JOIN categories c ON c.id = p.category_id
WHERE p.id = ANY($1)
ORDER BY p.id
FOR UPDATE OF p
`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	products := make(map[int64]domain.Product, len(ids))
	for rows.Next() {
		p, err := productrepo.ScanProduct(rows)
		if err != nil {
			return nil, err
		}
		products[p.ID] = *p
	}
	return products, rows.Err()
}

func (c *checkoutTx) CreateOrder(ctx context.Context, o domain.Order) (*domain.Order, error) {
	q := `
INSERT INTO orders (order_number, user_id, status, payment_status, payment_method, subtotal, tax_amount,
                    shipping_amount, discount_amount, total_amount, shipping_address, billing_address, notes)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
RETURNING ` + orderColumns
	created, err := scanOrder(c.tx.QueryRow(ctx, q,
		o.OrderNumber, o.UserID, o.Status, o.PaymentStatus, o.PaymentMethod,
		o.Subtotal, o.TaxAmount, o.ShippingAmount, o.DiscountAmount, o.TotalAmount,
		o.ShippingAddress, o.BillingAddress, o.Notes,
	))
	if err != nil {
		if db.IsUniqueViolation(err) {
			return nil, ErrOrderNumberTaken
		}
		return nil, err
	}
	created.Items = []domain.OrderItem{}
	return created, nil
}

func (c *checkoutTx) CreateOrderItem(ctx context.Context, item domain.OrderItem) (*domain.OrderItem, error) {
	var out domain.OrderItem
	err := c.tx.QueryRow(ctx, `
INSERT INTO order_items (order_id, product_id, quantity, unit_price, total_price, product_snapshot)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id, order_id, product_id, quantity, unit_price, total_price, product_snapshot, created_at
`, item.OrderID, item.ProductID, item.Quantity, item.UnitPrice, item.TotalPrice, item.ProductSnapshot).Scan(
		&out.ID, &out.OrderID, &out.ProductID, &out.Quantity, &out.UnitPrice, &out.TotalPrice, &out.ProductSnapshot, &out.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	out.Product = item.Product
	return &out, nil
}

func (c *checkoutTx) DecrementStock(ctx context.Context, productID int64, quantity int) error {
	cmd, err := c.tx.Exec(ctx, `
UPDATE products SET stock = stock - $1, updated_at = now() WHERE id = $2 AND stock >= $1
`, quantity, productID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.Wrapf(domain.ErrInsufficientStock, "Insufficient stock for product %d", productID)
	}
	return nil
}

func (c *checkoutTx) ClearCart(ctx context.Context, cartID int64) error {
	return cartrepo.ClearTx(ctx, c.tx, cartID)
}
