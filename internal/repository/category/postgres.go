package category

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"skins-market/internal/db"
	"skins-market/internal/domain"
)

type postgresRepo struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) Repository {
	return &postgresRepo{pool: pool}
}

func (r *postgresRepo) List(ctx context.Context) ([]domain.Category, error) {
	const q = `
SELECT id, name, number, image_url
FROM categories
ORDER BY number ASC
`
	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Category
	for rows.Next() {
		var c domain.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Number, &c.ImageURL); err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *postgresRepo) GetByID(ctx context.Context, id int64) (*domain.Category, error) {
	const q = `SELECT id, name, number, image_url FROM categories WHERE id = $1`
	var c domain.Category
	if err := r.pool.QueryRow(ctx, q, id).Scan(&c.ID, &c.Name, &c.Number, &c.ImageURL); err != nil {
		return nil, db.MapErr(err)
	}
	return &c, nil
}

// Upsert keys categories by their display number.
func (r *postgresRepo) Upsert(ctx context.Context, c domain.Category) (*domain.Category, error) {
	const q = `
INSERT INTO categories (name, number, image_url)
VALUES ($1, $2, $3)
ON CONFLICT (number) DO UPDATE
SET name = EXCLUDED.name,
    image_url = COALESCE(NULLIF(EXCLUDED.image_url, ''), categories.image_url)
RETURNING id, image_url
`
	out := c
	if err := r.pool.QueryRow(ctx, q, c.Name, c.Number, c.ImageURL).Scan(&out.ID, &out.ImageURL); err != nil {
		return nil, err
	}
	return &out, nil
}
