package basket

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
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

func (r *postgresRepo) GetByUser(ctx context.Context, userID int64) (*domain.Basket, error) {
	const q = `
SELECT id, user_id, total_price, created_at
FROM baskets
WHERE user_id = $1
`
	var b domain.Basket
	if err := r.pool.QueryRow(ctx, q, userID).Scan(&b.ID, &b.UserID, &b.TotalPrice, &b.CreatedAt); err != nil {
		return nil, db.MapErr(err)
	}
	lines, err := fetchLines(ctx, r.pool, b.ID)
	if err != nil {
		return nil, err
	}
	b.Lines = lines
	return &b, nil
}

func (r *postgresRepo) AddItem(ctx context.Context, userID, itemID, unitPrice int64) (int64, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	var basketID int64
	err = tx.QueryRow(ctx, `
INSERT INTO baskets (user_id)
VALUES ($1)
ON CONFLICT (user_id) DO UPDATE SET user_id = EXCLUDED.user_id
RETURNING id
`, userID).Scan(&basketID)
	if err != nil {
		return 0, db.MapErr(err)
	}

	_, err = tx.Exec(ctx, `
INSERT INTO basket_lines (basket_id, item_id, quantity, unit_price, line_total)
VALUES ($1, $2, 1, $3, $3)
ON CONFLICT (basket_id, item_id) DO UPDATE
SET quantity = basket_lines.quantity + 1,
    line_total = basket_lines.unit_price * (basket_lines.quantity + 1)
`, basketID, itemID, unitPrice)
	if err != nil {
		return 0, db.MapErr(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return basketID, nil
}

func (r *postgresRepo) RemoveItem(ctx context.Context, userID, itemID int64) (int64, error) {
	const q = `
DELETE FROM basket_lines l
USING baskets b
WHERE l.basket_id = b.id AND b.user_id = $1 AND l.item_id = $2
RETURNING b.id
`
	var basketID int64
	if err := r.pool.QueryRow(ctx, q, userID, itemID).Scan(&basketID); err != nil {
		return 0, db.MapErr(err)
	}
	return basketID, nil
}

func (r *postgresRepo) DecreaseItem(ctx context.Context, userID, itemID int64) (int64, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	var (
		lineID, basketID int64
		line             domain.BasketLine
	)
	err = tx.QueryRow(ctx, `
SELECT l.id, l.basket_id, l.quantity, l.unit_price
FROM basket_lines l
JOIN baskets b ON b.id = l.basket_id
WHERE b.user_id = $1 AND l.item_id = $2
FOR UPDATE OF l
`, userID, itemID).Scan(&lineID, &basketID, &line.Quantity, &line.UnitPrice)
	if err != nil {
		return 0, db.MapErr(err)
	}

	if line.Quantity <= 1 {
		if _, err := tx.Exec(ctx, `DELETE FROM basket_lines WHERE id = $1`, lineID); err != nil {
			return 0, err
		}
	} else {
		line = line.WithQuantity(line.Quantity - 1)
		if _, err := tx.Exec(ctx, `
UPDATE basket_lines
SET quantity = $1, line_total = $2
WHERE id = $3
`, line.Quantity, line.LineTotal, lineID); err != nil {
			return 0, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return basketID, nil
}

func (r *postgresRepo) Clear(ctx context.Context, userID int64) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM baskets WHERE user_id = $1`, userID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *postgresRepo) RecomputeTotal(ctx context.Context, basketID int64) (int64, bool, error) {
	cmd, err := r.pool.Exec(ctx, `
DELETE FROM baskets b
WHERE b.id = $1 AND NOT EXISTS (SELECT 1 FROM basket_lines l WHERE l.basket_id = b.id)
`, basketID)
	if err != nil {
		return 0, false, err
	}
	if cmd.RowsAffected() == 1 {
		return 0, true, nil
	}

	var total int64
	err = r.pool.QueryRow(ctx, `
UPDATE baskets
SET total_price = COALESCE((
	SELECT SUM(line_total)
	FROM basket_lines
	WHERE basket_id = $1
), 0)
WHERE id = $1
RETURNING total_price
`, basketID).Scan(&total)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, true, nil
	}
	if err != nil {
		return 0, false, err
	}
	return total, false, nil
}

func (r *postgresRepo) Checkout(ctx context.Context, userID int64) (domain.CheckoutPlan, error) {
	var plan domain.CheckoutPlan
	err := db.Retry(ctx, func() error {
		var err error
		plan, err = r.checkout(ctx, userID)
		return err
	})
	return plan, err
}

func (r *postgresRepo) checkout(ctx context.Context, userID int64) (domain.CheckoutPlan, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return domain.CheckoutPlan{}, err
	}
	defer tx.Rollback(ctx)

	var cash int64
	if err := tx.QueryRow(ctx, `SELECT cash FROM users WHERE id = $1 FOR UPDATE`, userID).Scan(&cash); err != nil {
		return domain.CheckoutPlan{}, db.MapErr(err)
	}

	var basketID int64
	err = tx.QueryRow(ctx, `SELECT id FROM baskets WHERE user_id = $1 FOR UPDATE`, userID).Scan(&basketID)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.CheckoutPlan{}, domain.ErrEmptyBasket
	}
	if err != nil {
		return domain.CheckoutPlan{}, err
	}

	lines, err := fetchLines(ctx, tx, basketID)
	if err != nil {
		return domain.CheckoutPlan{}, err
	}
	plan, err := domain.PlanCheckout(cash, lines)
	if err != nil {
		return domain.CheckoutPlan{}, err
	}

	for itemID, qty := range plan.Increments {
		if _, err := tx.Exec(ctx, `
INSERT INTO ownerships (user_id, item_id, quantity)
VALUES ($1, $2, $3)
ON CONFLICT (user_id, item_id) DO UPDATE
SET quantity = ownerships.quantity + EXCLUDED.quantity
`, userID, itemID, qty); err != nil {
			return domain.CheckoutPlan{}, err
		}
	}
	if _, err := tx.Exec(ctx, `UPDATE users SET cash = $2 WHERE id = $1`, userID, plan.CashAfter); err != nil {
		return domain.CheckoutPlan{}, err
	}
	if _, err := tx.Exec(ctx, `DELETE FROM baskets WHERE id = $1`, basketID); err != nil {
		return domain.CheckoutPlan{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.CheckoutPlan{}, err
	}
	r.logger.Info("basket checked out", zap.Int64("user_id", userID), zap.Int64("total", plan.Total), zap.Int("lines", len(lines)))
	return plan, nil
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func fetchLines(ctx context.Context, q querier, basketID int64) ([]domain.BasketLine, error) {
	const linesQuery = `
SELECT l.id, l.basket_id, l.item_id, i.name, l.quantity, l.unit_price, l.line_total
FROM basket_lines l
JOIN items i ON i.id = l.item_id
WHERE l.basket_id = $1
ORDER BY l.created_at ASC, l.id ASC
`
	rows, err := q.Query(ctx, linesQuery, basketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lines []domain.BasketLine
	for rows.Next() {
		var line domain.BasketLine
		if err := rows.Scan(
			&line.ID,
			&line.BasketID,
			&line.ItemID,
			&line.ItemName,
			&line.Quantity,
			&line.UnitPrice,
			&line.LineTotal,
		); err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return lines, nil
}
