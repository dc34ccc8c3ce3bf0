package message

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"skins-market/internal/db"
	"skins-market/internal/domain"
)

const columns = `id, sender_id, recipient_id, content, created_at, delivered, read`

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

func (r *postgresRepo) Create(ctx context.Context, m domain.Message) (*domain.Message, error) {
	const q = `
INSERT INTO messages (sender_id, recipient_id, content)
VALUES ($1, $2, $3)
RETURNING ` + columns
	out, err := scanMessage(r.pool.QueryRow(ctx, q, m.SenderID, m.RecipientID, m.Content))
	if err != nil {
		r.logger.Error("message repo: create", zap.Int64("sender_id", m.SenderID), zap.Error(err))
		return nil, db.MapErr(err)
	}
	return out, nil
}

func (r *postgresRepo) History(ctx context.Context, a, b int64, cursor domain.MessageCursor, limit int) ([]domain.Message, error) {
	const q = `
SELECT ` + columns + `
FROM messages
WHERE LEAST(sender_id, recipient_id) = LEAST($1::BIGINT, $2::BIGINT)
  AND GREATEST(sender_id, recipient_id) = GREATEST($1::BIGINT, $2::BIGINT)
  AND (created_at < $3 OR (created_at = $3 AND id < $4))
ORDER BY created_at DESC, id DESC
LIMIT $5
`
	rows, err := r.pool.Query(ctx, q, a, b, cursor.Before, cursor.BeforeID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Message
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *m)
	}
	return out, rows.Err()
}

func (r *postgresRepo) MarkRead(ctx context.Context, reader, sender int64) (int64, error) {
	cmd, err := r.pool.Exec(ctx, `
UPDATE messages
SET delivered = TRUE, read = TRUE
WHERE recipient_id = $1 AND sender_id = $2 AND NOT read
`, reader, sender)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}

func scanMessage(row pgx.Row) (*domain.Message, error) {
	var m domain.Message
	if err := row.Scan(&m.ID, &m.SenderID, &m.RecipientID, &m.Content, &m.CreatedAt, &m.Delivered, &m.Read); err != nil {
		return nil, err
	}
	return &m, nil
}
