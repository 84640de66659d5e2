package category

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"shopverse/internal/db"
	"shopverse/internal/domain"
)

const categoryColumns = `id, name, slug, COALESCE(description, ''), COALESCE(image_url, ''), is_active, created_at, updated_at`

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

func (r *postgresRepo) Create(ctx context.Context, c domain.Category) (*domain.Category, error) {
	q := `
INSERT INTO categories (name, slug, description, image_url, is_active)
VALUES ($1, $2, NULLIF($3, ''), NULLIF($4, ''), $5)
RETURNING ` + categoryColumns
	return r.scan(r.pool.QueryRow(ctx, q, c.Name, c.Slug, c.Description, c.ImageURL, c.IsActive))
}

func (r *postgresRepo) GetByID(ctx context.Context, id int64) (*domain.Category, error) {
	return r.scan(r.pool.QueryRow(ctx, `SELECT `+categoryColumns+` FROM categories WHERE id = $1`, id))
}

func (r *postgresRepo) GetByName(ctx context.Context, name string) (*domain.Category, error) {
	return r.scan(r.pool.QueryRow(ctx, `SELECT `+categoryColumns+` FROM categories WHERE lower(name) = lower($1)`, name))
}

func (r *postgresRepo) List(ctx context.Context, f ListFilter) ([]domain.Category, int, error) {
	var where []string
	var args []any
	if s := strings.TrimSpace(f.Search); s != "" {
		args = append(args, "%"+s+"%")
		where = append(where, fmt.Sprintf("(name ILIKE $%d OR description ILIKE $%d)", len(args), len(args)))
	}
	if f.IsActive != nil {
		args = append(args, *f.IsActive)
		where = append(where, fmt.Sprintf("is_active = $%d", len(args)))
	}
	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM categories`+clause, args...).Scan(&total); err != nil {
		r.logger.Printf("category repo: count error=%v", err)
		return nil, 0, err
	}

	args = append(args, f.Page.Limit, f.Page.Offset())
	q := fmt.Sprintf(`SELECT %s FROM categories%s ORDER BY name ASC LIMIT $%d OFFSET $%d`,
		categoryColumns, clause, len(args)-1, len(args))
	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		r.logger.Printf("category repo: list error=%v", err)
		return nil, 0, err
	}
	defer rows.Close()

	result := []domain.Category{}
	for rows.Next() {
		c, err := r.scan(rows)
		if err != nil {
			return nil, 0, err
		}
		result = append(result, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return result, total, nil
}

func (r *postgresRepo) Update(ctx context.Context, c domain.Category) (*domain.Category, error) {
	q := `
UPDATE categories
SET name = $2,
    slug = $3,
    description = NULLIF($4, ''),
    image_url = NULLIF($5, ''),
    is_active = $6,
    updated_at = now()
WHERE id = $1
RETURNING ` + categoryColumns
	return r.scan(r.pool.QueryRow(ctx, q, c.ID, c.Name, c.Slug, c.Description, c.ImageURL, c.IsActive))
}

func (r *postgresRepo) Delete(ctx context.Context, id int64) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		if db.IsForeignKeyViolation(err) {
			return domain.Wrapf(domain.ErrInvalidState, "Cannot delete category with existing products")
		}
		r.logger.Printf("category repo: delete id=%d error=%v", id, err)
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *postgresRepo) CountProducts(ctx context.Context, id int64, activeOnly bool) (int, error) {
	q := `SELECT count(*) FROM products WHERE category_id = $1`
	if activeOnly {
		q += ` AND is_active`
	}
	var n int
	if err := r.pool.QueryRow(ctx, q, id).Scan(&n); err != nil {
		r.logger.Printf("category repo: count products id=%d error=%v", id, err)
		return 0, err
	}
	return n, nil
}

func (r *postgresRepo) Upsert(ctx context.Context, c domain.Category) (*domain.Category, error) {
	q := `
INSERT INTO categories (name, slug, description, image_url, is_active)
VALUES ($1, $2, NULLIF($3, ''), NULLIF($4, ''), $5)
ON CONFLICT (name) DO UPDATE
SET description = COALESCE(NULLIF(EXCLUDED.description, ''), categories.description),
    image_url = COALESCE(NULLIF(EXCLUDED.image_url, ''), categories.image_url),
    updated_at = now()
RETURNING ` + categoryColumns
	return r.scan(r.pool.QueryRow(ctx, q, c.Name, c.Slug, c.Description, c.ImageURL, c.IsActive))
}

func (r *postgresRepo) scan(row pgx.Row) (*domain.Category, error) {
	var c domain.Category
	err := row.Scan(&c.ID, &c.Name, &c.Slug, &c.Description, &c.ImageURL, &c.IsActive, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		if db.IsUniqueViolation(err) {
			return nil, domain.Wrapf(domain.ErrAlreadyExists, "Category with this name already exists")
		}
		r.logger.Printf("category repo: scan error=%v", err)
		return nil, err
	}
	return &c, nil
}
