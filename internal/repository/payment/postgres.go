package payment

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"skins-market/internal/db"
	"skins-market/internal/domain"
)

const columns = `id, user_id, amount, currency, status, intent_id, COALESCE(transaction_id, ''), created_at, completed_at`

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

func (r *postgresRepo) CreatePending(ctx context.Context, p domain.Payment) (*domain.Payment, error) {
	const q = `
INSERT INTO payments (user_id, amount, currency, intent_id)
VALUES ($1, $2, $3, $4)
RETURNING ` + columns
	out, err := scanPayment(r.pool.QueryRow(ctx, q, p.UserID, p.Amount, p.Currency, p.IntentID))
	if err != nil {
		return nil, db.MapErr(err)
	}
	return out, nil
}

func (r *postgresRepo) GetByIntent(ctx context.Context, intentID string) (*domain.Payment, error) {
	out, err := scanPayment(r.pool.QueryRow(ctx, `SELECT `+columns+` FROM payments WHERE intent_id = $1`, intentID))
	if err != nil {
		return nil, db.MapErr(err)
	}
	return out, nil
}

func (r *postgresRepo) Complete(ctx context.Context, p domain.Payment) (bool, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return false, err
	}
	defer tx.Rollback(ctx)

	// Intents created outside this service still credit the user named in their metadata.
	if _, err := tx.Exec(ctx, `
INSERT INTO payments (user_id, amount, currency, intent_id)
VALUES ($1, $2, $3, $4)
ON CONFLICT (intent_id) DO NOTHING
`, p.UserID, p.Amount, p.Currency, p.IntentID); err != nil {
		return false, db.MapErr(err)
	}

	current, err := scanPayment(tx.QueryRow(ctx, `SELECT `+columns+` FROM payments WHERE intent_id = $1 FOR UPDATE`, p.IntentID))
	if err != nil {
		return false, db.MapErr(err)
	}
	if current.Status == domain.PaymentSucceeded {
		return false, nil
	}

	if _, err := tx.Exec(ctx, `
UPDATE payments
SET status = 'succeeded', transaction_id = NULLIF($2, ''), amount = $3, completed_at = now()
WHERE id = $1
`, current.ID, p.TransactionID, p.Amount); err != nil {
		return false, db.MapErr(err)
	}

	userID := current.UserID
	if userID == nil {
		userID = p.UserID
	}
	if userID != nil {
		cmd, err := tx.Exec(ctx, `UPDATE users SET cash = cash + $2 WHERE id = $1`, *userID, p.Amount)
		if err != nil {
			return false, err
		}
		if cmd.RowsAffected() == 0 {
			r.logger.Warn("payment for unknown user", zap.String("intent_id", p.IntentID), zap.Int64("user_id", *userID))
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return false, err
	}
	return true, nil
}

func (r *postgresRepo) MarkFailed(ctx context.Context, intentID string) error {
	cmd, err := r.pool.Exec(ctx, `
UPDATE payments
SET status = 'failed', completed_at = now()
WHERE intent_id = $1 AND status = 'pending'
`, intentID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func scanPayment(row pgx.Row) (*domain.Payment, error) {
	var (
		p      domain.Payment
		status string
	)
	if err := row.Scan(
		&p.ID,
		&p.UserID,
		&p.Amount,
		&p.Currency,
		&status,
		&p.IntentID,
		&p.TransactionID,
		&p.CreatedAt,
		&p.CompletedAt,
	); err != nil {
		return nil, err
	}
	p.Status = domain.PaymentStatus(status)
	return &p, nil
}
