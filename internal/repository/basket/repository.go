package basket

import (
	"context"

	"skins-market/internal/domain"
)

type Repository interface {
	GetByUser(ctx context.Context, userID int64) (*domain.Basket, error)
	// AddItem creates the basket and line lazily; an existing line gains one unit
	// at the unit price it was first added with.
	AddItem(ctx context.Context, userID, itemID, unitPrice int64) (basketID int64, err error)
	RemoveItem(ctx context.Context, userID, itemID int64) (basketID int64, err error)
	// DecreaseItem removes one unit, deleting the line when none remain.
	DecreaseItem(ctx context.Context, userID, itemID int64) (basketID int64, err error)
	Clear(ctx context.Context, userID int64) error
	// RecomputeTotal stores the sum of line totals and deletes the basket when it has no lines.
	RecomputeTotal(ctx context.Context, basketID int64) (total int64, deleted bool, err error)
	// Checkout buys every line with the user's cash as one transaction.
	Checkout(ctx context.Context, userID int64) (domain.CheckoutPlan, error)
}
