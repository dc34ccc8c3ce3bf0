package review

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"skins-market/internal/db"
	"skins-market/internal/domain"
)

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

func NewPostgres(pool *pgxpool.Pool, logger *zap.Logger) Repository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &postgresRepo{pool: pool, logger: logger}
}

func (r *postgresRepo) Upsert(ctx context.Context, in domain.Review) (*domain.Review, bool, error) {
	const q = `
INSERT INTO reviews (user_id, item_id, rating, body)
VALUES ($1, $2, $3, $4)
ON CONFLICT (user_id, item_id) DO UPDATE
SET rating = EXCLUDED.rating,
    body = EXCLUDED.body,
    updated_at = now()
RETURNING id, created_at, updated_at, (xmax = 0) AS inserted
`
	out := in
	var inserted bool
	err := r.pool.QueryRow(ctx, q, in.UserID, in.ItemID, in.Rating, in.Text).
		Scan(&out.ID, &out.CreatedAt, &out.UpdatedAt, &inserted)
	if err != nil {
		r.logger.Error("review repo: upsert", zap.Int64("user_id", in.UserID), zap.Int64("item_id", in.ItemID), zap.Error(err))
		return nil, false, db.MapErr(err)
	}
	return &out, inserted, nil
}

func (r *postgresRepo) Delete(ctx context.Context, userID, itemID int64) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM reviews WHERE user_id = $1 AND item_id = $2`, userID, itemID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *postgresRepo) ListByItem(ctx context.Context, itemID int64) ([]domain.Review, error) {
	const q = `
SELECT r.id, r.user_id, u.username, r.item_id, r.rating, r.body, r.created_at, r.updated_at
FROM reviews r
JOIN users u ON u.id = r.user_id
WHERE r.item_id = $1
ORDER BY r.created_at DESC
`
	rows, err := r.pool.Query(ctx, q, itemID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Review
	for rows.Next() {
		var rv domain.Review
		if err := rows.Scan(&rv.ID, &rv.UserID, &rv.Username, &rv.ItemID, &rv.Rating, &rv.Text, &rv.CreatedAt, &rv.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, rv)
	}
	return result, rows.Err()
}

func (r *postgresRepo) Ratings(ctx context.Context, itemID int64) ([]int, error) {
	rows, err := r.pool.Query(ctx, `SELECT rating FROM reviews WHERE item_id = $1`, itemID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []int
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}
