package invite

import (
	"context"

	"skins-market/internal/domain"
)

type Repository interface {
	// Create stores a pending invite; a second invite for the same pair fails with ErrInviteExists.
	Create(ctx context.Context, fromUserID, toUserID int64) (*domain.Invite, error)
	GetByID(ctx context.Context, id int64) (*domain.Invite, error)
	GetByPair(ctx context.Context, fromUserID, toUserID int64) (*domain.Invite, error)
	ListPendingFor(ctx context.Context, toUserID int64) ([]domain.Invite, error)
	// Resolve persists an accepted or rejected invite. Accepting adds each user
	// to the other's friend list in the same transaction.
	Resolve(ctx context.Context, inv domain.Invite) error
	// RemoveFriend drops the friendship on both sides.
	RemoveFriend(ctx context.Context, userID, friendID int64) error
	PurgeResolved(ctx context.Context) (int64, error)
}
