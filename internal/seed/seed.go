// Package seed inserts demo data for local development.
package seed

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"

	"skins-market/internal/pricing"
)

type categorySeed struct {
	Number int
	Name   string
}

type itemSeed struct {
	Name     string
	Title    string
	Grade    string
	Kind     string
	Category int
	Base     int64
	Discount int
}

var categories = []categorySeed{
	{Number: 1, Name: "Rifles"},
	{Number: 2, Name: "Pistols"},
	{Number: 3, Name: "Knives"},
}

var items = []itemSeed{
	{Name: "AK-47 | Redline", Title: "Redline", Grade: "Classified", Kind: "Rifle", Category: 1, Base: 1500, Discount: 10},
	{Name: "AWP | Asiimov", Title: "Asiimov", Grade: "Covert", Kind: "Sniper Rifle", Category: 1, Base: 9000},
	{Name: "Glock-18 | Fade", Title: "Fade", Grade: "Restricted", Kind: "Pistol", Category: 2, Base: 2500, Discount: 25},
	{Name: "Karambit | Doppler", Title: "Doppler", Grade: "Covert", Kind: "Knife", Category: 3, Base: 60000, Discount: 5},
}

type Options struct {
	StaffUsername string
	StaffEmail    string
	StaffPassword string
	StaffCash     int64
}

// Apply inserts demo categories, items and an active staff account. It is idempotent via ON CONFLICT.
func Apply(ctx context.Context, pool *pgxpool.Pool, opts Options) error {
	categoryIDs := make(map[int]int64, len(categories))
	for _, c := range categories {
		id, err := upsertCategory(ctx, pool, c)
		if err != nil {
			return fmt.Errorf("upsert category %s: %w", c.Name, err)
		}
		categoryIDs[c.Number] = id
	}

	for _, it := range items {
		if err := upsertItem(ctx, pool, it, categoryIDs[it.Category]); err != nil {
			return fmt.Errorf("upsert item %s: %w", it.Name, err)
		}
	}

	if opts.StaffUsername != "" {
		if err := ensureStaff(ctx, pool, opts); err != nil {
			return fmt.Errorf("ensure staff user: %w", err)
		}
	}
	return nil
}

func upsertCategory(ctx context.Context, pool *pgxpool.Pool, c categorySeed) (int64, error) {
	const q = `
INSERT INTO categories (name, number)
VALUES ($1, $2)
ON CONFLICT (number) DO UPDATE SET name = EXCLUDED.name
RETURNING id
`
	var id int64
	if err := pool.QueryRow(ctx, q, c.Name, c.Number).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

func upsertItem(ctx context.Context, pool *pgxpool.Pool, it itemSeed, categoryID int64) error {
	const q = `
INSERT INTO items (name, title, grade, kind, category_id, base_price, discount, real_price)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (name) DO UPDATE
SET title = EXCLUDED.title,
    grade = EXCLUDED.grade,
    kind = EXCLUDED.kind,
    category_id = EXCLUDED.category_id,
    base_price = EXCLUDED.base_price,
    discount = EXCLUDED.discount,
    real_price = EXCLUDED.real_price
`
	_, err := pool.Exec(ctx, q, it.Name, it.Title, it.Grade, it.Kind, categoryID,
		it.Base, it.Discount, pricing.RealPrice(it.Base, it.Discount))
	return err
}

func ensureStaff(ctx context.Context, pool *pgxpool.Pool, opts Options) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(opts.StaffPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	const q = `
INSERT INTO users (email, username, password_hash, cash, is_active, is_verified, is_staff)
VALUES (lower($1), $2, $3, $4, TRUE, TRUE, TRUE)
ON CONFLICT (username) DO UPDATE
SET is_staff = TRUE,
    is_active = TRUE
`
	_, err = pool.Exec(ctx, q, opts.StaffEmail, opts.StaffUsername, string(hash), opts.StaffCash)
	return err
}
