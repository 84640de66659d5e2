package order

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"shopverse/internal/db"
	"shopverse/internal/domain"
)

const orderColumns = `id, order_number, user_id, status, payment_status, payment_method, subtotal, tax_amount,
       shipping_amount, discount_amount, total_amount, shipping_address, billing_address, notes,
       shipped_at, delivered_at, created_at, updated_at`

const itemSelect = `
SELECT oi.id, oi.order_id, oi.product_id, oi.quantity, oi.unit_price, oi.total_price, oi.product_snapshot, oi.created_at,
       p.name, p.slug, p.price, p.images
FROM order_items oi
LEFT JOIN products p ON p.id = oi.product_id
`

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger *log.Logger
	txOpts db.TxOptions
}

func NewPostgres(pool *pgxpool.Pool, logger *log.Logger) Repository {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &postgresRepo{pool: pool, logger: logger, txOpts: db.DefaultTxOptions()}
}

func (r *postgresRepo) GetByID(ctx context.Context, id int64) (*domain.Order, error) {
	o, err := scanOrder(r.pool.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id))
	if err != nil {
		return nil, err
	}
	orders := []domain.Order{*o}
	if err := attachItems(ctx, r.pool, orders); err != nil {
		r.logger.Printf("order repo: load items id=%d error=%v", id, err)
		return nil, err
	}
	return &orders[0], nil
}

func (r *postgresRepo) List(ctx context.Context, f ListFilter) ([]domain.Order, int, error) {
	var where []string
	var args []any
	if f.UserID != nil {
		args = append(args, *f.UserID)
		where = append(where, fmt.Sprintf("user_id = $%d", len(args)))
	}
	if f.Status != "" {
		args = append(args, f.Status)
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	if f.StartDate != nil {
		args = append(args, *f.StartDate)
		where = append(where, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if f.EndDate != nil {
		args = append(args, *f.EndDate)
		where = append(where, fmt.Sprintf("created_at <= $%d", len(args)))
	}
	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM orders`+clause, args...).Scan(&total); err != nil {
		r.logger.Printf("order repo: count error=%v", err)
		return nil, 0, err
	}

	args = append(args, f.Page.Limit, f.Page.Offset())
	q := fmt.Sprintf(`SELECT %s FROM orders%s ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d`,
		orderColumns, clause, len(args)-1, len(args))
	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		r.logger.Printf("order repo: list error=%v", err)
		return nil, 0, err
	}
	orders := []domain.Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			rows.Close()
			return nil, 0, err
		}
		orders = append(orders, *o)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	if err := attachItems(ctx, r.pool, orders); err != nil {
		r.logger.Printf("order repo: list items error=%v", err)
		return nil, 0, err
	}
	return orders, total, nil
}

func (r *postgresRepo) UpdateStatus(ctx context.Context, o domain.Order) (*domain.Order, error) {
	q := `
UPDATE orders
SET status = $2, notes = $3, shipped_at = $4, delivered_at = $5, updated_at = now()
WHERE id = $1
RETURNING ` + orderColumns
	updated, err := scanOrder(r.pool.QueryRow(ctx, q, o.ID, o.Status, o.Notes, o.ShippedAt, o.DeliveredAt))
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			r.logger.Printf("order repo: update status id=%d error=%v", o.ID, err)
		}
		return nil, err
	}
	updated.Items = o.Items
	return updated, nil
}

func (r *postgresRepo) UpdatePaymentStatus(ctx context.Context, id int64, status domain.PaymentStatus) (*domain.Order, error) {
	q := `UPDATE orders SET payment_status = $2, updated_at = now() WHERE id = $1 RETURNING ` + orderColumns
	o, err := scanOrder(r.pool.QueryRow(ctx, q, id, status))
	if err != nil {
		return nil, err
	}
	orders := []domain.Order{*o}
	if err := attachItems(ctx, r.pool, orders); err != nil {
		return nil, err
	}
	return &orders[0], nil
}

func (r *postgresRepo) WithinCheckoutTx(ctx context.Context, fn func(CheckoutTx) error) error {
	return db.WithRetry(ctx, r.pool, r.txOpts, func(tx pgx.Tx) error {
		return fn(&checkoutTx{tx: tx})
	})
}

func attachItems(ctx context.Context, q db.Querier, orders []domain.Order) error {
	if len(orders) == 0 {
		return nil
	}
	ids := make([]int64, len(orders))
	index := make(map[int64]int, len(orders))
	for i := range orders {
		ids[i] = orders[i].ID
		index[orders[i].ID] = i
		orders[i].Items = []domain.OrderItem{}
	}

	rows, err := q.Query(ctx, itemSelect+`WHERE oi.order_id = ANY($1) ORDER BY oi.id`, ids)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return err
		}
		i := index[item.OrderID]
		orders[i].Items = append(orders[i].Items, *item)
	}
	return rows.Err()
}

func scanOrder(row pgx.Row) (*domain.Order, error) {
	var o domain.Order
	err := row.Scan(
		&o.ID, &o.OrderNumber, &o.UserID, &o.Status, &o.PaymentStatus, &o.PaymentMethod,
		&o.Subtotal, &o.TaxAmount, &o.ShippingAmount, &o.DiscountAmount, &o.TotalAmount,
		&o.ShippingAddress, &o.BillingAddress, &o.Notes, &o.ShippedAt, &o.DeliveredAt,
		&o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &o, nil
}

func scanItem(row pgx.Row) (*domain.OrderItem, error) {
	var item domain.OrderItem
	var name, slug *string
	var price decimal.NullDecimal
	var images []string
	err := row.Scan(
		&item.ID, &item.OrderID, &item.ProductID, &item.Quantity, &item.UnitPrice, &item.TotalPrice,
		&item.ProductSnapshot, &item.CreatedAt,
		&name, &slug, &price, &images,
	)
	if err != nil {
		return nil, err
	}
	if item.ProductID != nil && name != nil {
		if images == nil {
			images = []string{}
		}
		item.Product = &domain.ProductRef{ID: *item.ProductID, Name: *name, Slug: *slug, Price: price.Decimal, Images: images}
	}
	return &item, nil
}
