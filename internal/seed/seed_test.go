package seed

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skins-market/internal/db/dbtest"
)

func TestApplyIsIdempotent(t *testing.T) {
	pool := dbtest.Pool(t)
	ctx := context.Background()
	opts := Options{StaffUsername: "admin", StaffEmail: "Admin@Example.com", StaffPassword: "Market!Staff1", StaffCash: 5000}

	require.NoError(t, Apply(ctx, pool, opts))
	require.NoError(t, Apply(ctx, pool, opts))

	var itemCount, catCount int
	require.NoError(t, pool.QueryRow(ctx, `SELECT count(*) FROM items`).Scan(&itemCount))
	require.NoError(t, pool.QueryRow(ctx, `SELECT count(*) FROM categories`).Scan(&catCount))
	assert.Equal(t, len(items), itemCount)
	assert.Equal(t, len(categories), catCount)

	var realPrice int64
	require.NoError(t, pool.QueryRow(ctx, `SELECT real_price FROM items WHERE name = 'AK-47 | Redline'`).Scan(&realPrice))
	assert.Equal(t, int64(1350), realPrice)

	var staff bool
	var email string
	require.NoError(t, pool.QueryRow(ctx, `SELECT is_staff, email FROM users WHERE username = 'admin'`).Scan(&staff, &email))
	assert.True(t, staff)
	assert.Equal(t, "admin@example.com", email)
}
