package item

import (
	"context"
	"time"

	"skins-market/internal/domain"
)

type Repository interface {
	Create(ctx context.Context, item domain.Item) (*domain.Item, error)
	Upsert(ctx context.Context, item domain.Item) (*domain.Item, error)
	GetByID(ctx context.Context, id int64) (*domain.Item, error)
	List(ctx context.Context) ([]domain.Item, error)
	Update(ctx context.Context, item domain.Item) (*domain.Item, error)
	SetImage(ctx context.Context, id int64, kind, url string) error
	// SetRealPrice stores realPrice only if base price and discount still
	// match the values it was computed from.
	SetRealPrice(ctx context.Context, id, base int64, discount int, realPrice int64) (bool, error)
	SetRating(ctx context.Context, id int64, rating float64) error
	RandomSample(ctx context.Context, n int) ([]domain.Item, error)
	CreatedBetween(ctx context.Context, from, to time.Time) ([]domain.Item, error)
}
