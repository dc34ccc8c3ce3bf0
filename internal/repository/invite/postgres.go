package invite

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"skins-market/internal/db"
	"skins-market/internal/domain"
)

const selectInvite = `
SELECT i.id, i.from_user_id, i.to_user_id, f.username, t.username, i.status, i.created_at, i.resolved_at
FROM invites i
JOIN users f ON f.id = i.from_user_id
JOIN users t ON t.id = i.to_user_id
`

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

func (r *postgresRepo) Create(ctx context.Context, fromUserID, toUserID int64) (*domain.Invite, error) {
	const q = `
INSERT INTO invites (from_user_id, to_user_id)
VALUES ($1, $2)
RETURNING id
`
	var id int64
	if err := r.pool.QueryRow(ctx, q, fromUserID, toUserID).Scan(&id); err != nil {
		if db.IsUniqueViolation(err) {
			return nil, domain.ErrInviteExists
		}
		return nil, db.MapErr(err)
	}
	return r.GetByID(ctx, id)
}

func (r *postgresRepo) GetByID(ctx context.Context, id int64) (*domain.Invite, error) {
	return scanInvite(r.pool.QueryRow(ctx, selectInvite+`WHERE i.id = $1`, id))
}

func (r *postgresRepo) GetByPair(ctx context.Context, fromUserID, toUserID int64) (*domain.Invite, error) {
	return scanInvite(r.pool.QueryRow(ctx, selectInvite+`WHERE i.from_user_id = $1 AND i.to_user_id = $2`, fromUserID, toUserID))
}

func (r *postgresRepo) ListPendingFor(ctx context.Context, toUserID int64) ([]domain.Invite, error) {
	rows, err := r.pool.Query(ctx, selectInvite+`WHERE i.to_user_id = $1 AND i.status = 'pending' ORDER BY i.created_at DESC`, toUserID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Invite
	for rows.Next() {
		inv, err := scanInvite(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *inv)
	}
	return out, rows.Err()
}

func (r *postgresRepo) Resolve(ctx context.Context, inv domain.Invite) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	cmd, err := tx.Exec(ctx, `
UPDATE invites
SET status = $2, resolved_at = $3
WHERE id = $1 AND status = 'pending'
`, inv.ID, string(inv.Status), inv.ResolvedAt)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrInviteResolved
	}

	if inv.Status == domain.InviteAccepted {
		// Lock rows in id order so concurrent accepts cannot deadlock.
		a, b := inv.FromUserID, inv.ToUserID
		if b < a {
			a, b = b, a
		}
		for _, pair := range [][2]int64{{a, b}, {b, a}} {
			if _, err := tx.Exec(ctx, `
UPDATE users
SET friends = array_append(friends, $2)
WHERE id = $1 AND NOT ($2 = ANY(friends))
`, pair[0], pair[1]); err != nil {
				return err
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}
	r.logger.Info("invite resolved", zap.Int64("invite_id", inv.ID), zap.String("status", string(inv.Status)))
	return nil
}

func (r *postgresRepo) RemoveFriend(ctx context.Context, userID, friendID int64) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	a, b := userID, friendID
	if b < a {
		a, b = b, a
	}
	var removed int64
	for _, pair := range [][2]int64{{a, b}, {b, a}} {
		cmd, err := tx.Exec(ctx, `
UPDATE users
SET friends = array_remove(friends, $2)
WHERE id = $1 AND $2 = ANY(friends)
`, pair[0], pair[1])
		if err != nil {
			return err
		}
		removed += cmd.RowsAffected()
	}
	if removed == 0 {
		return domain.ErrNotFriends
	}
	return tx.Commit(ctx)
}

func (r *postgresRepo) PurgeResolved(ctx context.Context) (int64, error) {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM invites WHERE status <> 'pending'`)
	if err != nil {
		r.logger.Error("invite repo: purge", zap.Error(err))
		return 0, err
	}
	return cmd.RowsAffected(), nil
}

func scanInvite(row pgx.Row) (*domain.Invite, error) {
	var (
		inv    domain.Invite
		status string
	)
	if err := row.Scan(
		&inv.ID,
		&inv.FromUserID,
		&inv.ToUserID,
		&inv.FromName,
		&inv.ToName,
		&status,
		&inv.CreatedAt,
		&inv.ResolvedAt,
	); err != nil {
		return nil, db.MapErr(err)
	}
	inv.Status = domain.InviteStatus(status)
	return &inv, nil
}
