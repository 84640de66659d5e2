package comment

import (
	"context"
	"errors"
	"io"
	"log"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"shopverse/internal/db"
	"shopverse/internal/domain"
)

const commentColumns = `id, user_id, product_id, content, rating, is_approved, is_edited, edited_at, created_at, updated_at`

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

func (r *postgresRepo) Create(ctx context.Context, c domain.Comment) (*domain.Comment, error) {
	q := `
INSERT INTO comments (user_id, product_id, content, rating, is_approved)
VALUES ($1, $2, $3, $4, $5)
RETURNING ` + commentColumns
	out, err := scanComment(r.pool.QueryRow(ctx, q, c.UserID, c.ProductID, c.Content, c.Rating, c.IsApproved))
	if err != nil {
		switch {
		case db.IsUniqueViolation(err):
			return nil, domain.Wrapf(domain.ErrAlreadyExists, "You have already commented on this product")
		case db.IsForeignKeyViolation(err):
			return nil, domain.Wrapf(domain.ErrNotFound, "Product not found")
		}
		r.logger.Printf("comment repo: create user_id=%d product_id=%d error=%v", c.UserID, c.ProductID, err)
		return nil, err
	}
	return out, nil
}

func (r *postgresRepo) GetByID(ctx context.Context, id int64) (*domain.Comment, error) {
	return scanComment(r.pool.QueryRow(ctx, `SELECT `+commentColumns+` FROM comments WHERE id = $1`, id))
}

func (r *postgresRepo) Update(ctx context.Context, c domain.Comment) (*domain.Comment, error) {
	q := `
UPDATE comments
SET content = $2, rating = $3, is_edited = $4, edited_at = $5, updated_at = now()
WHERE id = $1
RETURNING ` + commentColumns
	out, err := scanComment(r.pool.QueryRow(ctx, q, c.ID, c.Content, c.Rating, c.IsEdited, c.EditedAt))
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		r.logger.Printf("comment repo: update id=%d error=%v", c.ID, err)
	}
	return out, err
}

func (r *postgresRepo) Delete(ctx context.Context, id int64) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM comments WHERE id = $1`, id)
	if err != nil {
		r.logger.Printf("comment repo: delete id=%d error=%v", id, err)
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *postgresRepo) ListByProduct(ctx context.Context, productID int64, page domain.Page) ([]domain.Comment, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM comments WHERE product_id = $1 AND is_approved`, productID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx, `
SELECT cm.id, cm.user_id, cm.product_id, cm.content, cm.rating, cm.is_approved, cm.is_edited, cm.edited_at,
       cm.created_at, cm.updated_at, u.first_name, u.last_name
FROM comments cm
JOIN users u ON u.id = cm.user_id
WHERE cm.product_id = $1 AND cm.is_approved
ORDER BY cm.created_at DESC, cm.id DESC
LIMIT $2 OFFSET $3
`, productID, page.Limit, page.Offset())
	if err != nil {
		r.logger.Printf("comment repo: list product_id=%d error=%v", productID, err)
		return nil, 0, err
	}
	defer rows.Close()

	comments := []domain.Comment{}
	for rows.Next() {
		var c domain.Comment
		var author domain.UserRef
		if err := rows.Scan(&c.ID, &c.UserID, &c.ProductID, &c.Content, &c.Rating, &c.IsApproved, &c.IsEdited, &c.EditedAt,
			&c.CreatedAt, &c.UpdatedAt, &author.FirstName, &author.LastName); err != nil {
			return nil, 0, err
		}
		author.ID = c.UserID
		c.User = &author
		comments = append(comments, c)
	}
	return comments, total, rows.Err()
}

func (r *postgresRepo) ListByUser(ctx context.Context, userID int64, page domain.Page) ([]domain.Comment, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM comments WHERE user_id = $1`, userID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx, `
SELECT cm.id, cm.user_id, cm.product_id, cm.content, cm.rating, cm.is_approved, cm.is_edited, cm.edited_at,
       cm.created_at, cm.updated_at, p.name, p.slug, p.price, p.images
FROM comments cm
JOIN products p ON p.id = cm.product_id
WHERE cm.user_id = $1
ORDER BY cm.created_at DESC, cm.id DESC
LIMIT $2 OFFSET $3
`, userID, page.Limit, page.Offset())
	if err != nil {
		r.logger.Printf("comment repo: list user_id=%d error=%v", userID, err)
		return nil, 0, err
	}
	defer rows.Close()

	comments := []domain.Comment{}
	for rows.Next() {
		var c domain.Comment
		var ref domain.ProductRef
		if err := rows.Scan(&c.ID, &c.UserID, &c.ProductID, &c.Content, &c.Rating, &c.IsApproved, &c.IsEdited, &c.EditedAt,
			&c.CreatedAt, &c.UpdatedAt, &ref.Name, &ref.Slug, &ref.Price, &ref.Images); err != nil {
			return nil, 0, err
		}
		ref.ID = c.ProductID
		if ref.Images == nil {
			ref.Images = []string{}
		}
		c.Product = &ref
		comments = append(comments, c)
	}
	return comments, total, rows.Err()
}

func (r *postgresRepo) RatingStats(ctx context.Context, productID int64) (decimal.Decimal, int, error) {
	var avg decimal.NullDecimal
	var count int
	err := r.pool.QueryRow(ctx, `
SELECT AVG(rating), COUNT(*) FROM comments WHERE product_id = $1 AND is_approved
`, productID).Scan(&avg, &count)
	if err != nil {
		r.logger.Printf("comment repo: rating stats product_id=%d error=%v", productID, err)
		return decimal.Zero, 0, err
	}
	if !avg.Valid {
		return decimal.Zero, 0, nil
	}
	return avg.Decimal.Round(2), count, nil
}

func scanComment(row pgx.Row) (*domain.Comment, error) {
	var c domain.Comment
	err := row.Scan(&c.ID, &c.UserID, &c.ProductID, &c.Content, &c.Rating, &c.IsApproved, &c.IsEdited, &c.EditedAt, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}
