// Package dbtest provides a migrated Postgres pool for integration tests.
package dbtest

import (
	"context"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"

	"skins-market/internal/db"
	"skins-market/internal/migrate"
)

// Pool connects to TEST_DB_DSN, applies migrations and truncates all tables.
// The test is skipped when TEST_DB_DSN is unset.
func Pool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		t.Skip("TEST_DB_DSN not set")
	}
	ctx := context.Background()
	pool, err := db.Connect(ctx, dsn)
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	t.Cleanup(pool.Close)

	if err := migrate.Apply(ctx, pool); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	if _, err := pool.Exec(ctx, `TRUNCATE payments, messages, invites, ownerships, basket_lines, baskets, reviews, items, categories, users RESTART IDENTITY CASCADE`); err != nil {
		t.Fatalf("truncate tables: %v", err)
	}
	return pool
}

// InsertUser creates an active user with the given cash and returns its id.
func InsertUser(t *testing.T, pool *pgxpool.Pool, username string, cash int64) int64 {
	t.Helper()
	var id int64
	err := pool.QueryRow(context.Background(), `
INSERT INTO users (email, username, password_hash, cash, is_active)
VALUES ($1, $2, 'x', $3, TRUE)
RETURNING id
`, username+"@example.com", username, cash).Scan(&id)
	if err != nil {
		t.Fatalf("insert user: %v", err)
	}
	return id
}

// InsertItem creates an item with the given prices and returns its id.
func InsertItem(t *testing.T, pool *pgxpool.Pool, name string, base int64, discount int, realPrice int64) int64 {
	t.Helper()
	var id int64
	err := pool.QueryRow(context.Background(), `
INSERT INTO items (name, base_price, discount, real_price)
VALUES ($1, $2, $3, $4)
RETURNING id
`, name, base, discount, realPrice).Scan(&id)
	if err != nil {
		t.Fatalf("insert item: %v", err)
	}
	return id
}
