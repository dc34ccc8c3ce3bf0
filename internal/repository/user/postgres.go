package user

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"skins-market/internal/db"
	"skins-market/internal/domain"
)

const columns = `id, email, username, first_name, last_name, photo_url, password_hash, cash,
       is_active, is_verified, is_staff, activation_code, friends, date_joined, last_login`

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// NewPostgres returns a Repository backed by Postgres.
func NewPostgres(pool *pgxpool.Pool, logger *zap.Logger) Repository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &postgresRepo{pool: pool, logger: logger}
}

func (r *postgresRepo) Create(ctx context.Context, u domain.User) (*domain.User, error) {
	const q = `
INSERT INTO users (email, username, first_name, last_name, photo_url, password_hash, cash, is_active, is_staff, activation_code)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
RETURNING ` + columns
	out, err := r.scanUser(r.pool.QueryRow(ctx, q,
		strings.ToLower(u.Email),
		u.Username,
		u.FirstName,
		u.LastName,
		u.PhotoURL,
		u.PasswordHash,
		u.Cash,
		u.IsActive,
		u.IsStaff,
		u.ActivationCode,
	))
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *postgresRepo) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	const q = `SELECT ` + columns + ` FROM users WHERE id = $1`
	return r.scanUser(r.pool.QueryRow(ctx, q, id))
}

func (r *postgresRepo) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	const q = `SELECT ` + columns + ` FROM users WHERE username = $1`
	return r.scanUser(r.pool.QueryRow(ctx, q, username))
}

func (r *postgresRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	const q = `SELECT ` + columns + ` FROM users WHERE lower(email) = lower($1) LIMIT 1`
	return r.scanUser(r.pool.QueryRow(ctx, q, email))
}

func (r *postgresRepo) GetByActivationCode(ctx context.Context, code string) (*domain.User, error) {
	if code == "" {
		return nil, domain.ErrNotFound
	}
	const q = `SELECT ` + columns + ` FROM users WHERE activation_code = $1 LIMIT 1`
	return r.scanUser(r.pool.QueryRow(ctx, q, code))
}

func (r *postgresRepo) Activate(ctx context.Context, id int64) error {
	const q = `
UPDATE users
SET is_active = TRUE, is_verified = TRUE, activation_code = ''
WHERE id = $1
`
	return r.exec(ctx, q, id)
}

func (r *postgresRepo) UpdatePassword(ctx context.Context, id int64, hash string) error {
	return r.exec(ctx, `UPDATE users SET password_hash = $2 WHERE id = $1`, id, hash)
}

func (r *postgresRepo) UpdateProfile(ctx context.Context, u domain.User) (*domain.User, error) {
	const q = `
UPDATE users
SET first_name = $2, last_name = $3, photo_url = $4
WHERE id = $1
RETURNING ` + columns
	return r.scanUser(r.pool.QueryRow(ctx, q, u.ID, u.FirstName, u.LastName, u.PhotoURL))
}

func (r *postgresRepo) TouchLastLogin(ctx context.Context, id int64) error {
	return r.exec(ctx, `UPDATE users SET last_login = now() WHERE id = $1`, id)
}

func (r *postgresRepo) ListByIDs(ctx context.Context, ids []int64) ([]domain.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	const q = `SELECT ` + columns + ` FROM users WHERE id = ANY($1) ORDER BY username ASC`
	rows, err := r.pool.Query(ctx, q, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.User
	for rows.Next() {
		u, err := r.scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *u)
	}
	return out, rows.Err()
}

func (r *postgresRepo) ActiveEmails(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT email FROM users WHERE is_active ORDER BY id ASC`)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

func (r *postgresRepo) Collection(ctx context.Context, userID int64) ([]domain.Ownership, error) {
	const q = `
SELECT o.user_id, o.quantity,
       i.id, i.name, i.title, i.grade, i.kind, i.content, i.category_id, i.icon_url, i.image_url,
       i.base_price, i.discount, i.real_price, i.rating, i.created_at
FROM ownerships o
JOIN items i ON i.id = o.item_id
WHERE o.user_id = $1
ORDER BY i.name ASC
`
	rows, err := r.pool.Query(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Ownership
	for rows.Next() {
		var o domain.Ownership
		it := &o.Item
		if err := rows.Scan(
			&o.UserID, &o.Quantity,
			&it.ID, &it.Name, &it.Title, &it.Grade, &it.Kind, &it.Content, &it.CategoryID,
			&it.IconURL, &it.ImageURL, &it.BasePrice, &it.Discount, &it.RealPrice, &it.Rating, &it.CreatedAt,
		); err != nil {
			return nil, err
		}
		o.ItemID = it.ID
		out = append(out, o)
	}
	return out, rows.Err()
}

func (r *postgresRepo) exec(ctx context.Context, q string, args ...any) error {
	cmd, err := r.pool.Exec(ctx, q, args...)
	if err != nil {
		r.logger.Error("user repo: exec", zap.Error(err))
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
		&u.Email,
		&u.Username,
		&u.FirstName,
		&u.LastName,
		&u.PhotoURL,
		&u.PasswordHash,
		&u.Cash,
		&u.IsActive,
		&u.IsVerified,
		&u.IsStaff,
		&u.ActivationCode,
		&u.Friends,
		&u.DateJoined,
		&u.LastLogin,
	)
	if err != nil {
		mapped := db.MapErr(err)
		if mapped == err {
			r.logger.Error("user repo: scan", zap.Error(err))
		}
		return nil, mapped
	}
	return &u, nil
}
