package user

import (
	"context"

	"skins-market/internal/domain"
)

// Repository persists and fetches users, their friends and owned items.
type Repository interface {
	Create(ctx context.Context, u domain.User) (*domain.User, error)
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByActivationCode(ctx context.Context, code string) (*domain.User, error)
	Activate(ctx context.Context, id int64) error
	UpdatePassword(ctx context.Context, id int64, hash string) error
	UpdateProfile(ctx context.Context, u domain.User) (*domain.User, error)
	TouchLastLogin(ctx context.Context, id int64) error
	ListByIDs(ctx context.Context, ids []int64) ([]domain.User, error)
	ActiveEmails(ctx context.Context) ([]string, error)
	Collection(ctx context.Context, userID int64) ([]domain.Ownership, error)
}
