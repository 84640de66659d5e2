package product

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

// Columns is the product column list read by Targets; products are aliased p
// and their category c.
const Columns = `p.id, p.name, p.slug, p.description, p.price, p.sku, p.stock, p.category_id, c.name, c.slug,
       p.images, p.is_active, p.is_featured, p.weight, p.dimensions, p.average_rating, p.review_count,
       p.created_at, p.updated_at`

const productSelect = `
SELECT ` + Columns + `
`

var sortColumns = map[string]string{
	"name":          "p.name",
	"price":         "p.price",
	"createdAt":     "p.created_at",
	"averageRating": "p.average_rating",
}

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

func (r *postgresRepo) Create(ctx context.Context, p domain.Product) (*domain.Product, error) {
	q := `
WITH p AS (
    INSERT INTO products (name, slug, description, price, sku, stock, category_id, images, is_active, is_featured, weight, dimensions)
    VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
    RETURNING *
)` + productSelect + `FROM p JOIN categories c ON c.id = p.category_id`
	out, err := r.scan(r.pool.QueryRow(ctx, q,
		p.Name, p.Slug, p.Description, p.Price, p.SKU, p.Stock, p.CategoryID,
		imagesOrEmpty(p.Images), p.IsActive, p.IsFeatured, p.Weight, p.Dimensions,
	))
	if err != nil {
		r.logger.Printf("product repo: create sku=%s error=%v", p.SKU, err)
		return nil, err
	}
	return out, nil
}

func (r *postgresRepo) GetByID(ctx context.Context, id int64) (*domain.Product, error) {
	q := productSelect + `FROM products p JOIN categories c ON c.id = p.category_id WHERE p.id = $1`
	return r.scan(r.pool.QueryRow(ctx, q, id))
}

func (r *postgresRepo) List(ctx context.Context, f ListFilter) ([]domain.Product, int, error) {
	var where []string
	var args []any
	if f.ActiveOnly {
		where = append(where, "p.is_active")
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		args = append(args, "%"+s+"%")
		where = append(where, fmt.Sprintf("(p.name ILIKE $%d OR p.description ILIKE $%d)", len(args), len(args)))
	}
	if f.CategoryID != nil {
		args = append(args, *f.CategoryID)
		where = append(where, fmt.Sprintf("p.category_id = $%d", len(args)))
	}
	if f.MinPrice != nil {
		args = append(args, *f.MinPrice)
		where = append(where, fmt.Sprintf("p.price >= $%d", len(args)))
	}
	if f.MaxPrice != nil {
		args = append(args, *f.MaxPrice)
		where = append(where, fmt.Sprintf("p.price <= $%d", len(args)))
	}
	if f.Featured != nil {
		args = append(args, *f.Featured)
		where = append(where, fmt.Sprintf("p.is_featured = $%d", len(args)))
	}
	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM products p`+clause, args...).Scan(&total); err != nil {
		r.logger.Printf("product repo: count error=%v", err)
		return nil, 0, err
	}

	args = append(args, f.Page.Limit, f.Page.Offset())
	q := fmt.Sprintf(`%sFROM products p JOIN categories c ON c.id = p.category_id%s ORDER BY %s LIMIT $%d OFFSET $%d`,
		productSelect, clause, orderBy(f.Sort, f.Desc), len(args)-1, len(args))
	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		r.logger.Printf("product repo: list error=%v", err)
		return nil, 0, err
	}
	defer rows.Close()

	result := []domain.Product{}
	for rows.Next() {
		p, err := r.scan(rows)
		if err != nil {
			return nil, 0, err
		}
		result = append(result, *p)
	}
	if err := rows.Err(); err != nil {
		r.logger.Printf("product repo: list rows error=%v", err)
		return nil, 0, err
	}
	return result, total, nil
}

func (r *postgresRepo) Update(ctx context.Context, p domain.Product) (*domain.Product, error) {
	q := `
WITH p AS (
    UPDATE products
    SET name = $2, slug = $3, description = $4, price = $5, sku = $6, stock = $7, category_id = $8,
        images = $9, is_active = $10, is_featured = $11, weight = $12, dimensions = $13, updated_at = now()
    WHERE id = $1
    RETURNING *
)` + productSelect + `FROM p JOIN categories c ON c.id = p.category_id`
	out, err := r.scan(r.pool.QueryRow(ctx, q,
		p.ID, p.Name, p.Slug, p.Description, p.Price, p.SKU, p.Stock, p.CategoryID,
		imagesOrEmpty(p.Images), p.IsActive, p.IsFeatured, p.Weight, p.Dimensions,
	))
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		r.logger.Printf("product repo: update id=%d error=%v", p.ID, err)
	}
	return out, err
}

func (r *postgresRepo) Delete(ctx context.Context, id int64) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		r.logger.Printf("product repo: delete id=%d error=%v", id, err)
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *postgresRepo) UpdateRating(ctx context.Context, id int64, average decimal.Decimal, count int) error {
	cmd, err := r.pool.Exec(ctx, `
UPDATE products SET average_rating = $2, review_count = $3, updated_at = now() WHERE id = $1
`, id, average.Round(2), count)
	if err != nil {
		r.logger.Printf("product repo: update rating id=%d error=%v", id, err)
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *postgresRepo) UpsertBySKU(ctx context.Context, p domain.Product) (*domain.Product, error) {
	q := `
WITH p AS (
    INSERT INTO products (name, slug, description, price, sku, stock, category_id, images, is_active, is_featured, weight, dimensions)
    VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
    ON CONFLICT (sku) DO UPDATE SET
        name = EXCLUDED.name,
        description = EXCLUDED.description,
        price = EXCLUDED.price,
        stock = EXCLUDED.stock,
        category_id = EXCLUDED.category_id,
        images = EXCLUDED.images,
        is_featured = EXCLUDED.is_featured,
        updated_at = now()
    RETURNING *
)` + productSelect + `FROM p JOIN categories c ON c.id = p.category_id`
	out, err := r.scan(r.pool.QueryRow(ctx, q,
		p.Name, p.Slug, p.Description, p.Price, p.SKU, p.Stock, p.CategoryID,
		imagesOrEmpty(p.Images), p.IsActive, p.IsFeatured, p.Weight, p.Dimensions,
	))
	if err != nil {
		r.logger.Printf("product repo: upsert sku=%s error=%v", p.SKU, err)
		return nil, err
	}
	r.logger.Printf("product repo: upserted sku=%s id=%d", out.SKU, out.ID)
	return out, nil
}

func (r *postgresRepo) scan(row pgx.Row) (*domain.Product, error) {
	p, err := ScanProduct(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		if db.IsUniqueViolation(err) {
			return nil, domain.Wrapf(domain.ErrAlreadyExists, "Product with this %s already exists", constraintField(err))
		}
		if db.IsForeignKeyViolation(err) {
			return nil, domain.Wrapf(domain.ErrNotFound, "Category not found")
		}
		if db.IsCheckViolation(err) {
			return nil, domain.Validationf("Price and stock must not be negative")
		}
		return nil, err
	}
	return p, nil
}

// ScanProduct reads one row produced by the shared product SELECT list.
func ScanProduct(row pgx.Row) (*domain.Product, error) {
	var p domain.Product
	if err := row.Scan(Targets(&p)...); err != nil {
		return nil, err
	}
	Finish(&p)
	return &p, nil
}

// Targets returns scan destinations matching Columns. Call Finish after Scan.
func Targets(p *domain.Product) []any {
	p.Category = &domain.CategoryRef{}
	return []any{
		&p.ID, &p.Name, &p.Slug, &p.Description, &p.Price, &p.SKU, &p.Stock, &p.CategoryID, &p.Category.Name, &p.Category.Slug,
		&p.Images, &p.IsActive, &p.IsFeatured, &p.Weight, &p.Dimensions, &p.AverageRating, &p.ReviewCount,
		&p.CreatedAt, &p.UpdatedAt,
	}
}

func Finish(p *domain.Product) {
	if p.Category != nil {
		p.Category.ID = p.CategoryID
	}
	if p.Images == nil {
		p.Images = []string{}
	}
}

func orderBy(sort string, desc bool) string {
	col, ok := sortColumns[sort]
	if !ok {
		col = sortColumns["createdAt"]
	}
	dir := "ASC"
	if desc {
		dir = "DESC"
	}
	return fmt.Sprintf("%s %s, p.id %s", col, dir, dir)
}

func constraintField(err error) string {
	name := db.ConstraintName(err)
	switch {
	case strings.Contains(name, "sku"):
		return "SKU"
	case strings.Contains(name, "slug"):
		return "slug"
	}
	return "key"
}

func imagesOrEmpty(images []string) []string {
	if images == nil {
		return []string{}
	}
	return images
}
