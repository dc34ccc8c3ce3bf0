// Package basket aggregates a user's basket lines and runs checkout.
package basket

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"skins-market/internal/cache"
	"skins-market/internal/domain"
	"skins-market/internal/events"
)

type basketRepo interface {
	GetByUser(ctx context.Context, userID int64) (*domain.Basket, error)
	AddItem(ctx context.Context, userID, itemID, unitPrice int64) (int64, error)
	RemoveItem(ctx context.Context, userID, itemID int64) (int64, error)
	DecreaseItem(ctx context.Context, userID, itemID int64) (int64, error)
	Clear(ctx context.Context, userID int64) error
	RecomputeTotal(ctx context.Context, basketID int64) (int64, bool, error)
	Checkout(ctx context.Context, userID int64) (domain.CheckoutPlan, error)
}

type itemGetter interface {
	GetByID(ctx context.Context, id int64) (*domain.Item, error)
}

const (
	ActionRemove   = "remove"
	ActionDecrease = "decrease"
)

type Service struct {
	repo   basketRepo
	items  itemGetter
	cache  cache.Cache
	events events.Publisher
	log    *zap.Logger
}

func New(repo basketRepo, items itemGetter, c cache.Cache, pub events.Publisher, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{repo: repo, items: items, cache: c, events: pub, log: log}
}

// Get returns the user's basket or ErrNotFound when there is none.
func (s *Service) Get(ctx context.Context, userID int64) (*domain.Basket, error) {
	return cache.Fetch(ctx, s.cache, s.log, cache.UserBasket(userID), cache.EntityTTL, func(ctx context.Context) (*domain.Basket, error) {
		return s.repo.GetByUser(ctx, userID)
	})
}

// AddItem puts one unit of the item in the basket at its current real price.
func (s *Service) AddItem(ctx context.Context, userID, itemID int64) error {
	it, err := s.items.GetByID(ctx, itemID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Invalid("skin", "unknown item")
		}
		return err
	}
	basketID, err := s.repo.AddItem(ctx, userID, itemID, it.RealPrice)
	if err != nil {
		return err
	}
	s.lineChanged(ctx, userID, basketID)
	return nil
}

// Update applies a remove or decrease action to the item's line.
func (s *Service) Update(ctx context.Context, userID, itemID int64, action string) error {
	var (
		basketID int64
		err      error
	)
	switch action {
	case ActionRemove:
		basketID, err = s.repo.RemoveItem(ctx, userID, itemID)
	case ActionDecrease:
		basketID, err = s.repo.DecreaseItem(ctx, userID, itemID)
	default:
		return domain.Invalid("action", "must be remove or decrease")
	}
	if err != nil {
		return err
	}
	s.lineChanged(ctx, userID, basketID)
	return nil
}

func (s *Service) Clear(ctx context.Context, userID int64) error {
	if err := s.repo.Clear(ctx, userID); err != nil {
		return err
	}
	cache.Invalidate(ctx, s.cache, s.log, cache.UserBasket(userID))
	return nil
}

// Checkout buys the whole basket or nothing.
func (s *Service) Checkout(ctx context.Context, userID int64) (domain.CheckoutPlan, error) {
	plan, err := s.repo.Checkout(ctx, userID)
	if err != nil {
		var rule *domain.RuleError
		if errors.As(err, &rule) {
			s.log.Warn("checkout rejected", zap.Int64("user_id", userID), zap.String("code", rule.Code))
		}
		return domain.CheckoutPlan{}, err
	}
	cache.Invalidate(ctx, s.cache, s.log,
		cache.UserBasket(userID),
		cache.UserInfo(userID),
		cache.UserCollection(userID),
	)
	return plan, nil
}

// RecomputeTotal stores the sum of the basket's line totals.
func (s *Service) RecomputeTotal(ctx context.Context, userID, basketID int64) error {
	total, deleted, err := s.repo.RecomputeTotal(ctx, basketID)
	if err != nil {
		return fmt.Errorf("recompute basket %d: %w", basketID, err)
	}
	s.log.Debug("basket total recomputed",
		zap.Int64("basket_id", basketID),
		zap.Int64("total", total),
		zap.Bool("deleted", deleted),
	)
	cache.Invalidate(ctx, s.cache, s.log, cache.UserBasket(userID))
	return nil
}

func (s *Service) lineChanged(ctx context.Context, userID, basketID int64) {
	cache.Invalidate(ctx, s.cache, s.log, cache.UserBasket(userID))
	s.events.Publish(ctx, domain.BasketLineChanged{UserID: userID, BasketID: basketID})
}
