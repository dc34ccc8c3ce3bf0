// Package review manages item reviews. Item ratings follow asynchronously.
package review

import (
	"context"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"skins-market/internal/cache"
	"skins-market/internal/domain"
	"skins-market/internal/events"
)

type reviewRepo interface {
	Upsert(ctx context.Context, r domain.Review) (*domain.Review, bool, error)
	Delete(ctx context.Context, userID, itemID int64) error
	ListByItem(ctx context.Context, itemID int64) ([]domain.Review, error)
}

type Service struct {
	repo   reviewRepo
	cache  cache.Cache
	events events.Publisher
	log    *zap.Logger
}

func New(repo reviewRepo, c cache.Cache, pub events.Publisher, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{repo: repo, cache: c, events: pub, log: log}
}

type SubmitInput struct {
	ItemID int64  `json:"skin" binding:"required"`
	Rating int    `json:"rate" binding:"required,min=1,max=5"`
	Text   string `json:"text"`
}

func (s *Service) ListForItem(ctx context.Context, itemID int64) ([]domain.Review, error) {
	return cache.Fetch(ctx, s.cache, s.log, cache.ItemReviews(itemID), cache.EntityTTL, func(ctx context.Context) ([]domain.Review, error) {
		return s.repo.ListByItem(ctx, itemID)
	})
}

// Submit creates the user's review of an item or replaces it.
func (s *Service) Submit(ctx context.Context, userID int64, in SubmitInput) (*domain.Review, bool, error) {
	if in.ItemID <= 0 {
		return nil, false, domain.Invalid("skin", "required")
	}
	if in.Rating < domain.MinRating || in.Rating > domain.MaxRating {
		return nil, false, domain.Invalid("rate", "must be between 1 and 5")
	}
	text := strings.TrimSpace(in.Text)
	if utf8.RuneCountInString(text) > domain.MaxReviewText {
		return nil, false, domain.Invalid("text", "must be at most 2000 characters")
	}

	rev, created, err := s.repo.Upsert(ctx, domain.Review{UserID: userID, ItemID: in.ItemID, Rating: in.Rating, Text: text})
	if err != nil {
		return nil, false, err
	}
	s.changed(ctx, in.ItemID)
	return rev, created, nil
}

func (s *Service) Delete(ctx context.Context, userID, itemID int64) error {
	if err := s.repo.Delete(ctx, userID, itemID); err != nil {
		return err
	}
	s.changed(ctx, itemID)
	return nil
}

func (s *Service) changed(ctx context.Context, itemID int64) {
	cache.Invalidate(ctx, s.cache, s.log, cache.ItemReviews(itemID), cache.ItemInfo(itemID))
	s.events.Publish(ctx, domain.ReviewChanged{ItemID: itemID})
}
