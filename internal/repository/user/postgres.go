package user

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"shopverse/internal/db"
	"shopverse/internal/domain"
)

const userColumns = `id, first_name, last_name, email, password_hash, phone, address, role, is_active, last_login, created_at, updated_at`

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger *log.Logger
}

// NewPostgres returns a Repository backed by Postgres.
func NewPostgres(pool *pgxpool.Pool, logger *log.Logger) Repository {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &postgresRepo{pool: pool, logger: logger}
}

func (r *postgresRepo) Create(ctx context.Context, u domain.User) (*domain.User, error) {
	if u.Role == "" {
		u.Role = domain.RoleCustomer
	}
	q := `
INSERT INTO users (first_name, last_name, email, password_hash, phone, address, role, is_active, last_login)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
RETURNING ` + userColumns
	return r.scanUser(r.pool.QueryRow(ctx, q,
		u.FirstName,
		u.LastName,
		strings.ToLower(u.Email),
		u.PasswordHash,
		u.Phone,
		u.Address,
		u.Role,
		u.IsActive,
		u.LastLogin,
	))
}

func (r *postgresRepo) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	q := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return r.scanUser(r.pool.QueryRow(ctx, q, id))
}

func (r *postgresRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	q := `SELECT ` + userColumns + ` FROM users WHERE lower(email) = lower($1) LIMIT 1`
	return r.scanUser(r.pool.QueryRow(ctx, q, email))
}

func (r *postgresRepo) List(ctx context.Context, f ListFilter) ([]domain.User, int, error) {
	var where []string
	var args []any
	if s := strings.TrimSpace(f.Search); s != "" {
		args = append(args, "%"+s+"%")
		n := len(args)
		where = append(where, fmt.Sprintf("(first_name ILIKE $%d OR last_name ILIKE $%d OR email ILIKE $%d)", n, n, n))
	}
	if f.Role != "" {
		args = append(args, f.Role)
		where = append(where, fmt.Sprintf("role = $%d", len(args)))
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
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM users`+clause, args...).Scan(&total); err != nil {
		r.logger.Printf("user repo: count error=%v", err)
		return nil, 0, err
	}

	args = append(args, f.Page.Limit, f.Page.Offset())
	q := fmt.Sprintf(`SELECT %s FROM users%s ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d`,
		userColumns, clause, len(args)-1, len(args))
	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		r.logger.Printf("user repo: list error=%v", err)
		return nil, 0, err
	}
	defer rows.Close()

	result := []domain.User{}
	for rows.Next() {
		u, err := r.scanUser(rows)
		if err != nil {
			return nil, 0, err
		}
		result = append(result, *u)
	}
	if err := rows.Err(); err != nil {
		r.logger.Printf("user repo: list rows error=%v", err)
		return nil, 0, err
	}
	return result, total, nil
}

func (r *postgresRepo) Update(ctx context.Context, u domain.User) (*domain.User, error) {
	q := `
UPDATE users
SET first_name = $2,
    last_name = $3,
    email = $4,
    password_hash = $5,
    phone = $6,
    address = $7,
    role = $8,
    is_active = $9,
    updated_at = now()
WHERE id = $1
RETURNING ` + userColumns
	return r.scanUser(r.pool.QueryRow(ctx, q,
		u.ID,
		u.FirstName,
		u.LastName,
		strings.ToLower(u.Email),
		u.PasswordHash,
		u.Phone,
		u.Address,
		u.Role,
		u.IsActive,
	))
}

func (r *postgresRepo) TouchLastLogin(ctx context.Context, id int64, at time.Time) error {
	cmd, err := r.pool.Exec(ctx, `UPDATE users SET last_login = $2 WHERE id = $1`, id, at)
	if err != nil {
		r.logger.Printf("user repo: touch last login id=%d error=%v", id, err)
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *postgresRepo) Delete(ctx context.Context, id int64) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		if db.IsForeignKeyViolation(err) {
			return domain.Wrapf(domain.ErrInvalidState, "Cannot delete a user who has placed orders")
		}
		r.logger.Printf("user repo: delete id=%d error=%v", id, err)
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *postgresRepo) scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	err := row.Scan(
		&u.ID,
		&u.FirstName,
		&u.LastName,
		&u.Email,
		&u.PasswordHash,
		&u.Phone,
		&u.Address,
		&u.Role,
		&u.IsActive,
		&u.LastLogin,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		if db.IsUniqueViolation(err) {
			return nil, domain.Wrapf(domain.ErrAlreadyExists, "User with this email already exists")
		}
		r.logger.Printf("user repo: scan error=%v", err)
		return nil, err
	}
	return &u, nil
}
