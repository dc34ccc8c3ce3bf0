// Package friends manages invites and the symmetric friend relation.
package friends

import (
	"context"
	"errors"
	"slices"

	"go.uber.org/zap"

	"skins-market/internal/cache"
	"skins-market/internal/domain"
	"skins-market/internal/events"
)

type userRepo interface {
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	ListByIDs(ctx context.Context, ids []int64) ([]domain.User, error)
}

type inviteRepo interface {
	Create(ctx context.Context, fromUserID, toUserID int64) (*domain.Invite, error)
	GetByPair(ctx context.Context, fromUserID, toUserID int64) (*domain.Invite, error)
	ListPendingFor(ctx context.Context, toUserID int64) ([]domain.Invite, error)
	Resolve(ctx context.Context, inv domain.Invite) error
	RemoveFriend(ctx context.Context, userID, friendID int64) error
	PurgeResolved(ctx context.Context) (int64, error)
}

const (
	ActionAccept = "accept"
	ActionReject = "reject"
)

type Service struct {
	users   userRepo
	invites inviteRepo
	cache   cache.Cache
	events  events.Publisher
	log     *zap.Logger
}

func New(users userRepo, invites inviteRepo, c cache.Cache, pub events.Publisher, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{users: users, invites: invites, cache: c, events: pub, log: log}
}

// Invite sends a friend invite from fromID to the user named toUsername.
func (s *Service) Invite(ctx context.Context, fromID int64, toUsername string) (*domain.Invite, error) {
	to, err := s.users.GetByUsername(ctx, toUsername)
	if err != nil {
		return nil, err
	}
	if to.ID == fromID {
		return nil, domain.ErrSelfInvite
	}
	if slices.Contains(to.Friends, fromID) {
		return nil, domain.ErrAlreadyFriends
	}
	reverse, err := s.invites.GetByPair(ctx, to.ID, fromID)
	switch {
	case err == nil && reverse.Status == domain.InvitePending:
		return nil, domain.ErrReverseInvitePending
	case err != nil && !errors.Is(err, domain.ErrNotFound):
		return nil, err
	}

	inv, err := s.invites.Create(ctx, fromID, to.ID)
	if err != nil {
		return nil, err
	}
	cache.Invalidate(ctx, s.cache, s.log, cache.UserInvites(to.ID))
	s.events.Publish(ctx, domain.InviteCreated{InviteID: inv.ID})
	return inv, nil
}

// ListInvites returns pending invites addressed to userID.
func (s *Service) ListInvites(ctx context.Context, userID int64) ([]domain.Invite, error) {
	return cache.Fetch(ctx, s.cache, s.log, cache.UserInvites(userID), cache.EntityTTL, func(ctx context.Context) ([]domain.Invite, error) {
		return s.invites.ListPendingFor(ctx, userID)
	})
}

// Respond accepts or rejects the invite fromUsername sent to userID.
func (s *Service) Respond(ctx context.Context, userID int64, fromUsername, action string) (*domain.Invite, error) {
	if action != ActionAccept && action != ActionReject {
		return nil, domain.Invalid("action", "must be accept or reject")
	}
	from, err := s.users.GetByUsername(ctx, fromUsername)
	if err != nil {
		return nil, err
	}
	inv, err := s.invites.GetByPair(ctx, from.ID, userID)
	if err != nil {
		return nil, err
	}

	var resolved domain.Invite
	if action == ActionAccept {
		resolved, err = inv.Accept()
	} else {
		resolved, err = inv.Reject()
	}
	if err != nil {
		return nil, err
	}
	if err := s.invites.Resolve(ctx, resolved); err != nil {
		return nil, err
	}

	keys := []string{cache.UserInvites(userID), cache.UserInvites(from.ID)}
	if resolved.Status == domain.InviteAccepted {
		keys = append(keys,
			cache.UserFriends(userID), cache.UserFriends(from.ID),
			cache.UserInfo(userID), cache.UserInfo(from.ID),
		)
	}
	cache.Invalidate(ctx, s.cache, s.log, keys...)
	s.events.Publish(ctx, domain.InviteResolved{InviteID: resolved.ID, Status: resolved.Status})
	return &resolved, nil
}

func (s *Service) ListFriends(ctx context.Context, userID int64) ([]domain.PublicUser, error) {
	return cache.Fetch(ctx, s.cache, s.log, cache.UserFriends(userID), cache.EntityTTL, func(ctx context.Context) ([]domain.PublicUser, error) {
		u, err := s.users.GetByID(ctx, userID)
		if err != nil {
			return nil, err
		}
		friends, err := s.users.ListByIDs(ctx, u.Friends)
		if err != nil {
			return nil, err
		}
		out := make([]domain.PublicUser, 0, len(friends))
		for _, f := range friends {
			out = append(out, f.Public())
		}
		return out, nil
	})
}

// RemoveFriend drops the friendship on both sides.
func (s *Service) RemoveFriend(ctx context.Context, userID, friendID int64) error {
	if err := s.invites.RemoveFriend(ctx, userID, friendID); err != nil {
		return err
	}
	cache.Invalidate(ctx, s.cache, s.log,
		cache.UserFriends(userID), cache.UserFriends(friendID),
		cache.UserInfo(userID), cache.UserInfo(friendID),
	)
	return nil
}

// PurgeResolved deletes accepted and rejected invites.
func (s *Service) PurgeResolved(ctx context.Context) error {
	n, err := s.invites.PurgeResolved(ctx)
	if err != nil {
		return err
	}
	s.log.Info("resolved invites purged", zap.Int64("count", n))
	return nil
}
