package like

import (
	"context"
	"errors"
	"io"
	"log"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"shopverse/internal/db"
	"shopverse/internal/domain"
)

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

func (r *postgresRepo) Create(ctx context.Context, userID, productID int64) (*domain.Like, error) {
	var l domain.Like
	err := r.pool.QueryRow(ctx, `
INSERT INTO likes (user_id, product_id) VALUES ($1, $2)
RETURNING id, user_id, product_id, created_at
`, userID, productID).Scan(&l.ID, &l.UserID, &l.ProductID, &l.CreatedAt)
	if err != nil {
		switch {
		case db.IsUniqueViolation(err):
			return nil, domain.Wrapf(domain.ErrAlreadyExists, "Product already liked")
		case db.IsForeignKeyViolation(err):
			return nil, domain.Wrapf(domain.ErrNotFound, "Product not found")
		}
		r.logger.Printf("like repo: create user_id=%d product_id=%d error=%v", userID, productID, err)
		return nil, err
	}
	return &l, nil
}

func (r *postgresRepo) Delete(ctx context.Context, userID, productID int64) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM likes WHERE user_id = $1 AND product_id = $2`, userID, productID)
	if err != nil {
		r.logger.Printf("like repo: delete user_id=%d product_id=%d error=%v", userID, productID, err)
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.Wrapf(domain.ErrNotFound, "Like not found")
	}
	return nil
}

func (r *postgresRepo) Exists(ctx context.Context, userID, productID int64) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM likes WHERE user_id = $1 AND product_id = $2)`, userID, productID).Scan(&exists)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return false, err
	}
	return exists, nil
}

func (r *postgresRepo) ListByUser(ctx context.Context, userID int64, page domain.Page) ([]domain.Like, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `
SELECT count(*) FROM likes l JOIN products p ON p.id = l.product_id
WHERE l.user_id = $1 AND p.is_active
`, userID).Scan(&total); err != nil {
		r.logger.Printf("like repo: count user_id=%d error=%v", userID, err)
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx, `
SELECT l.id, l.user_id, l.product_id, l.created_at, p.name, p.slug, p.price, p.images
FROM likes l
JOIN products p ON p.id = l.product_id
WHERE l.user_id = $1 AND p.is_active
ORDER BY l.created_at DESC, l.id DESC
LIMIT $2 OFFSET $3
`, userID, page.Limit, page.Offset())
	if err != nil {
		r.logger.Printf("like repo: list user_id=%d error=%v", userID, err)
		return nil, 0, err
	}
	defer rows.Close()

	likes := []domain.Like{}
	for rows.Next() {
		var l domain.Like
		var ref domain.ProductRef
		if err := rows.Scan(&l.ID, &l.UserID, &l.ProductID, &l.CreatedAt, &ref.Name, &ref.Slug, &ref.Price, &ref.Images); err != nil {
			return nil, 0, err
		}
		ref.ID = l.ProductID
		if ref.Images == nil {
			ref.Images = []string{}
		}
		l.Product = &ref
		likes = append(likes, l)
	}
	return likes, total, rows.Err()
}
