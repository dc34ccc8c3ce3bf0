package payment

import (
	"context"

	"skins-market/internal/domain"
)

type Repository interface {
	CreatePending(ctx context.Context, p domain.Payment) (*domain.Payment, error)
	// Complete marks the payment for intentID succeeded and credits the user's cash once.
	// It reports false when the payment was already completed.
	Complete(ctx context.Context, p domain.Payment) (bool, error)
	MarkFailed(ctx context.Context, intentID string) error
	GetByIntent(ctx context.Context, intentID string) (*domain.Payment, error)
}
