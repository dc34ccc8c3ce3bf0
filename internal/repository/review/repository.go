package review

import (
	"context"

	"skins-market/internal/domain"
)

type Repository interface {
	// Upsert creates the (user, item) review or overwrites its rating and text.
	Upsert(ctx context.Context, r domain.Review) (*domain.Review, bool, error)
	Delete(ctx context.Context, userID, itemID int64) error
	ListByItem(ctx context.Context, itemID int64) ([]domain.Review, error)
	Ratings(ctx context.Context, itemID int64) ([]int, error)
}
