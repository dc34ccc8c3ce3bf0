package basket

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skins-market/internal/db/dbtest"
	"skins-market/internal/domain"
)

func TestPostgres_LinesAndTotal(t *testing.T) {
	pool := dbtest.Pool(t)
	ctx := context.Background()
	repo := NewPostgres(pool, nil)

	user := dbtest.InsertUser(t, pool, "alice", 1000)
	knife := dbtest.InsertItem(t, pool, "Karambit", 500, 0, 500)
	gloves := dbtest.InsertItem(t, pool, "Gloves", 300, 0, 300)

	_, err := repo.GetByUser(ctx, user)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	basketID, err := repo.AddItem(ctx, user, knife, 500)
	require.NoError(t, err)
	again, err := repo.AddItem(ctx, user, knife, 450)
	require.NoError(t, err)
	assert.Equal(t, basketID, again)
	_, err = repo.AddItem(ctx, user, gloves, 300)
	require.NoError(t, err)

	total, deleted, err := repo.RecomputeTotal(ctx, basketID)
	require.NoError(t, err)
	assert.False(t, deleted)
	assert.Equal(t, int64(1300), total, "existing line keeps its first unit price")

	b, err := repo.GetByUser(ctx, user)
	require.NoError(t, err)
	require.Len(t, b.Lines, 2)
	assert.Equal(t, 2, b.Lines[0].Quantity)
	assert.Equal(t, int64(1000), b.Lines[0].LineTotal)
	assert.Equal(t, domain.SumLineTotals(b.Lines), b.TotalPrice)

	_, err = repo.DecreaseItem(ctx, user, knife)
	require.NoError(t, err)
	_, err = repo.DecreaseItem(ctx, user, knife)
	require.NoError(t, err)
	_, err = repo.DecreaseItem(ctx, user, knife)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = repo.RemoveItem(ctx, user, gloves)
	require.NoError(t, err)
	_, deleted, err = repo.RecomputeTotal(ctx, basketID)
	require.NoError(t, err)
	assert.True(t, deleted, "basket without lines is removed")

	_, err = repo.GetByUser(ctx, user)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, repo.Clear(ctx, user), domain.ErrNotFound)
}

func TestPostgres_Checkout(t *testing.T) {
	pool := dbtest.Pool(t)
	ctx := context.Background()
	repo := NewPostgres(pool, nil)

	user := dbtest.InsertUser(t, pool, "bob", 2000)
	knife := dbtest.InsertItem(t, pool, "Butterfly", 2100, 0, 2100)

	_, err := repo.Checkout(ctx, user)
	assert.ErrorIs(t, err, domain.ErrEmptyBasket)

	_, err = repo.AddItem(ctx, user, knife, 2100)
	require.NoError(t, err)

	_, err = repo.Checkout(ctx, user)
	assert.ErrorIs(t, err, domain.ErrInsufficientFunds)

	var cash int64
	require.NoError(t, pool.QueryRow(ctx, `SELECT cash FROM users WHERE id = $1`, user).Scan(&cash))
	assert.Equal(t, int64(2000), cash, "failed checkout must leave cash untouched")

	_, err = pool.Exec(ctx, `UPDATE users SET cash = 2100 WHERE id = $1`, user)
	require.NoError(t, err)

	plan, err := repo.Checkout(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, int64(2100), plan.Total)
	assert.Equal(t, int64(0), plan.CashAfter)

	require.NoError(t, pool.QueryRow(ctx, `SELECT cash FROM users WHERE id = $1`, user).Scan(&cash))
	assert.Equal(t, int64(0), cash)

	var owned int
	require.NoError(t, pool.QueryRow(ctx, `SELECT quantity FROM ownerships WHERE user_id = $1 AND item_id = $2`, user, knife).Scan(&owned))
	assert.Equal(t, 1, owned)

	_, err = repo.GetByUser(ctx, user)
	assert.ErrorIs(t, err, domain.ErrNotFound, "basket is removed after checkout")
}

func TestPostgres_CheckoutSeveralLinesAndRepeat(t *testing.T) {
	pool := dbtest.Pool(t)
	ctx := context.Background()
	repo := NewPostgres(pool, nil)

	user := dbtest.InsertUser(t, pool, "carol", 2100)
	rifle := dbtest.InsertItem(t, pool, "AK-47 | Redline", 1000, 20, 800)
	pistol := dbtest.InsertItem(t, pool, "Glock-18 | Fade", 500, 0, 500)

	prices := map[int64]int64{rifle: 800, pistol: 500}
	for _, id := range []int64{rifle, rifle, pistol} {
		_, err := repo.AddItem(ctx, user, id, prices[id])
		require.NoError(t, err)
	}

	plan, err := repo.Checkout(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, int64(2100), plan.Total)
	assert.Equal(t, int64(0), plan.CashAfter)

	owned := func() map[int64]int {
		rows, err := pool.Query(ctx, `SELECT item_id, quantity FROM ownerships WHERE user_id = $1`, user)
		require.NoError(t, err)
		defer rows.Close()
		out := map[int64]int{}
		for rows.Next() {
			var id int64
			var qty int
			require.NoError(t, rows.Scan(&id, &qty))
			out[id] = qty
		}
		require.NoError(t, rows.Err())
		return out
	}
	assert.Equal(t, map[int64]int{rifle: 2, pistol: 1}, owned())

	var cash int64
	require.NoError(t, pool.QueryRow(ctx, `SELECT cash FROM users WHERE id = $1`, user).Scan(&cash))
	assert.Equal(t, int64(0), cash)

	_, err = pool.Exec(ctx, `UPDATE users SET cash = 800 WHERE id = $1`, user)
	require.NoError(t, err)
	_, err = repo.AddItem(ctx, user, rifle, 800)
	require.NoError(t, err)
	_, err = repo.Checkout(ctx, user)
	require.NoError(t, err)

	assert.Equal(t, map[int64]int{rifle: 3, pistol: 1}, owned(), "repeat purchase increments the existing record")
}
