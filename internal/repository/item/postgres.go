package item

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"skins-market/internal/db"
	"skins-market/internal/domain"
)

const columns = `id, name, title, grade, kind, content, category_id, icon_url, image_url, base_price, discount, real_price, rating, created_at`

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

func (r *postgresRepo) Create(ctx context.Context, it domain.Item) (*domain.Item, error) {
	const q = `
INSERT INTO items (name, title, grade, kind, content, category_id, icon_url, image_url, base_price, discount, real_price)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
RETURNING ` + columns
	out, err := scanItem(r.pool.QueryRow(ctx, q,
		it.Name, it.Title, it.Grade, it.Kind, it.Content, it.CategoryID,
		it.IconURL, it.ImageURL, it.BasePrice, it.Discount, it.RealPrice,
	))
	if err != nil {
		r.logger.Error("item repo: create", zap.String("name", it.Name), zap.Error(err))
		return nil, db.MapErr(err)
	}
	return out, nil
}

func (r *postgresRepo) Upsert(ctx context.Context, it domain.Item) (*domain.Item, error) {
	const q = `
INSERT INTO items (name, title, grade, kind, content, category_id, icon_url, image_url, base_price, discount, real_price)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
ON CONFLICT (name) DO UPDATE SET
    title = EXCLUDED.title,
    grade = EXCLUDED.grade,
    kind = EXCLUDED.kind,
    content = EXCLUDED.content,
    category_id = COALESCE(EXCLUDED.category_id, items.category_id),
    icon_url = COALESCE(NULLIF(EXCLUDED.icon_url, ''), items.icon_url),
    image_url = COALESCE(NULLIF(EXCLUDED.image_url, ''), items.image_url),
    base_price = EXCLUDED.base_price,
    discount = EXCLUDED.discount,
    real_price = EXCLUDED.real_price
RETURNING ` + columns
	out, err := scanItem(r.pool.QueryRow(ctx, q,
		it.Name, it.Title, it.Grade, it.Kind, it.Content, it.CategoryID,
		it.IconURL, it.ImageURL, it.BasePrice, it.Discount, it.RealPrice,
	))
	if err != nil {
		r.logger.Error("item repo: upsert", zap.String("name", it.Name), zap.Error(err))
		return nil, db.MapErr(err)
	}
	return out, nil
}

func (r *postgresRepo) GetByID(ctx context.Context, id int64) (*domain.Item, error) {
	const q = `SELECT ` + columns + ` FROM items WHERE id = $1`
	it, err := scanItem(r.pool.QueryRow(ctx, q, id))
	if err != nil {
		return nil, db.MapErr(err)
	}
	return it, nil
}

func (r *postgresRepo) List(ctx context.Context) ([]domain.Item, error) {
	const q = `SELECT ` + columns + ` FROM items ORDER BY id ASC`
	return r.query(ctx, q)
}

func (r *postgresRepo) Update(ctx context.Context, it domain.Item) (*domain.Item, error) {
	const q = `
UPDATE items SET
    name = $2,
    title = $3,
    grade = $4,
    kind = $5,
    content = $6,
    category_id = $7,
    base_price = $8,
    discount = $9
WHERE id = $1
RETURNING ` + columns
	out, err := scanItem(r.pool.QueryRow(ctx, q,
		it.ID, it.Name, it.Title, it.Grade, it.Kind, it.Content, it.CategoryID, it.BasePrice, it.Discount,
	))
	if err != nil {
		return nil, db.MapErr(err)
	}
	return out, nil
}

func (r *postgresRepo) SetImage(ctx context.Context, id int64, kind, url string) error {
	var q string
	switch kind {
	case "icon":
		q = `UPDATE items SET icon_url = $2 WHERE id = $1`
	case "image":
		q = `UPDATE items SET image_url = $2 WHERE id = $1`
	default:
		return fmt.Errorf("item repo: unknown image kind %q", kind)
	}
	cmd, err := r.pool.Exec(ctx, q, id, url)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *postgresRepo) SetRealPrice(ctx context.Context, id, base int64, discount int, realPrice int64) (bool, error) {
	const q = `
UPDATE items
SET real_price = $4
WHERE id = $1 AND base_price = $2 AND discount = $3
`
	cmd, err := r.pool.Exec(ctx, q, id, base, discount, realPrice)
	if err != nil {
		r.logger.Error("item repo: set real price", zap.Int64("id", id), zap.Error(err))
		return false, err
	}
	return cmd.RowsAffected() == 1, nil
}

func (r *postgresRepo) SetRating(ctx context.Context, id int64, rating float64) error {
	cmd, err := r.pool.Exec(ctx, `UPDATE items SET rating = $2 WHERE id = $1`, id, rating)
	if err != nil {
		r.logger.Error("item repo: set rating", zap.Int64("id", id), zap.Error(err))
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *postgresRepo) RandomSample(ctx context.Context, n int) ([]domain.Item, error) {
	const q = `SELECT ` + columns + ` FROM items ORDER BY random() LIMIT $1`
	return r.query(ctx, q, n)
}

func (r *postgresRepo) CreatedBetween(ctx context.Context, from, to time.Time) ([]domain.Item, error) {
	const q = `SELECT ` + columns + ` FROM items WHERE created_at >= $1 AND created_at < $2 ORDER BY created_at ASC`
	return r.query(ctx, q, from, to)
}

func (r *postgresRepo) query(ctx context.Context, q string, args ...any) ([]domain.Item, error) {
	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Item
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *it)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	r.logger.Debug("item repo: query", zap.Int("count", len(result)))
	return result, nil
}

func scanItem(row pgx.Row) (*domain.Item, error) {
	var it domain.Item
	err := row.Scan(
		&it.ID,
		&it.Name,
		&it.Title,
		&it.Grade,
		&it.Kind,
		&it.Content,
		&it.CategoryID,
		&it.IconURL,
		&it.ImageURL,
		&it.BasePrice,
		&it.Discount,
		&it.RealPrice,
		&it.Rating,
		&it.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &it, nil
}
