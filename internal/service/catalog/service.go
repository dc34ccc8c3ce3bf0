// Package catalog serves items and categories and keeps derived item fields current.
package catalog

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"go.uber.org/zap"

	"skins-market/internal/cache"
	"skins-market/internal/domain"
	"skins-market/internal/events"
	"skins-market/internal/pricing"
)

const (
	DefaultPageSize = 25
	MaxPageSize     = 50
	RecommendedSize = 40
)

type itemRepo interface {
	Create(ctx context.Context, item domain.Item) (*domain.Item, error)
	GetByID(ctx context.Context, id int64) (*domain.Item, error)
	List(ctx context.Context) ([]domain.Item, error)
	Update(ctx context.Context, item domain.Item) (*domain.Item, error)
	SetImage(ctx context.Context, id int64, kind, url string) error
	SetRealPrice(ctx context.Context, id, base int64, discount int, realPrice int64) (bool, error)
	SetRating(ctx context.Context, id int64, rating float64) error
	RandomSample(ctx context.Context, n int) ([]domain.Item, error)
	CreatedBetween(ctx context.Context, from, to time.Time) ([]domain.Item, error)
}

type categoryRepo interface {
	List(ctx context.Context) ([]domain.Category, error)
	GetByID(ctx context.Context, id int64) (*domain.Category, error)
	Upsert(ctx context.Context, c domain.Category) (*domain.Category, error)
}

type ratingSource interface {
	Ratings(ctx context.Context, itemID int64) ([]int, error)
}

type imageStore interface {
	PutItemImage(ctx context.Context, itemID int64, kind, contentType string, r io.Reader, size int64) (string, error)
}

type Service struct {
	items      itemRepo
	categories categoryRepo
	ratings    ratingSource
	images     imageStore
	cache      cache.Cache
	events     events.Publisher
	log        *zap.Logger
}

func New(items itemRepo, categories categoryRepo, ratings ratingSource, c cache.Cache, pub events.Publisher, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{items: items, categories: categories, ratings: ratings, cache: c, events: pub, log: log}
}

// WithImages enables image uploads.
func (s *Service) WithImages(store imageStore) *Service {
	s.images = store
	return s
}

// ItemInput is the writable part of an item.
type ItemInput struct {
	Name       string `json:"name" binding:"required"`
	Title      string `json:"title"`
	Grade      string `json:"grade"`
	Kind       string `json:"type"`
	Content    string `json:"content"`
	CategoryID *int64 `json:"category"`
	BasePrice  int64  `json:"priceWithoutSale"`
	Discount   int    `json:"sale"`
}

// ItemPatch carries optional updates; nil fields are left unchanged.
type ItemPatch struct {
	Name       *string `json:"name"`
	Title      *string `json:"title"`
	Grade      *string `json:"grade"`
	Kind       *string `json:"type"`
	Content    *string `json:"content"`
	CategoryID *int64  `json:"category"`
	BasePrice  *int64  `json:"priceWithoutSale"`
	Discount   *int    `json:"sale"`
}

type Page struct {
	Items []domain.Item `json:"items"`
	Total int           `json:"total"`
	Page  int           `json:"page"`
	Size  int           `json:"size"`
}

// ListItems filters, sorts and paginates the cached listing.
func (s *Service) ListItems(ctx context.Context, f domain.ItemFilter, page, size int) (Page, error) {
	switch f.SortBy {
	case domain.SortNone, domain.SortRealPrice:
	default:
		return Page{}, domain.Invalid("sortBy", "unsupported sort field "+f.SortBy)
	}
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = DefaultPageSize
	}
	size = min(size, MaxPageSize)

	all, err := cache.Fetch(ctx, s.cache, s.log, cache.CatalogListing, cache.ListingTTL, s.items.List)
	if err != nil {
		return Page{}, err
	}

	search := strings.ToLower(strings.TrimSpace(f.Search))
	matched := make([]domain.Item, 0, len(all))
	for _, it := range all {
		if f.CategoryID != nil && (it.CategoryID == nil || *it.CategoryID != *f.CategoryID) {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(it.Name), search) && !strings.Contains(strings.ToLower(it.Title), search) {
			continue
		}
		matched = append(matched, it)
	}
	if f.SortBy == domain.SortRealPrice {
		slices.SortStableFunc(matched, func(a, b domain.Item) int {
			if f.Desc {
				return cmp.Compare(b.RealPrice, a.RealPrice)
			}
			return cmp.Compare(a.RealPrice, b.RealPrice)
		})
	}

	out := Page{Total: len(matched), Page: page, Size: size, Items: []domain.Item{}}
	start := (page - 1) * size
	if start < len(matched) {
		out.Items = matched[start:min(start+size, len(matched))]
	}
	return out, nil
}

func (s *Service) GetItem(ctx context.Context, id int64) (*domain.Item, error) {
	return cache.Fetch(ctx, s.cache, s.log, cache.ItemInfo(id), cache.EntityTTL, func(ctx context.Context) (*domain.Item, error) {
		return s.items.GetByID(ctx, id)
	})
}

// ListCategories returns ErrNotFound when no category exists.
func (s *Service) ListCategories(ctx context.Context) ([]domain.Category, error) {
	cats, err := cache.Fetch(ctx, s.cache, s.log, cache.CategoriesList, cache.CategoriesTTL, s.categories.List)
	if err != nil {
		return nil, err
	}
	if len(cats) == 0 {
		return nil, domain.ErrNotFound
	}
	return cats, nil
}

func (s *Service) UpsertCategory(ctx context.Context, c domain.Category) (*domain.Category, error) {
	c.Name = strings.TrimSpace(c.Name)
	if c.Name == "" {
		return nil, domain.Invalid("name", "required")
	}
	if c.Number < 0 {
		return nil, domain.Invalid("number", "must not be negative")
	}
	out, err := s.categories.Upsert(ctx, c)
	if err != nil {
		return nil, err
	}
	cache.Invalidate(ctx, s.cache, s.log, cache.CategoriesList)
	return out, nil
}

// CreateItem stores the item with its real price already derived and
// schedules a recompute as the authoritative pass.
func (s *Service) CreateItem(ctx context.Context, in ItemInput) (*domain.Item, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return nil, domain.Invalid("name", "required")
	}
	if err := pricing.Validate(in.BasePrice, in.Discount); err != nil {
		return nil, err
	}
	if err := s.checkCategory(ctx, in.CategoryID); err != nil {
		return nil, err
	}
	it, err := s.items.Create(ctx, domain.Item{
		Name:       in.Name,
		Title:      in.Title,
		Grade:      in.Grade,
		Kind:       in.Kind,
		Content:    in.Content,
		CategoryID: in.CategoryID,
		BasePrice:  in.BasePrice,
		Discount:   in.Discount,
		RealPrice:  pricing.RealPrice(in.BasePrice, in.Discount),
	})
	if err != nil {
		return nil, err
	}
	cache.Invalidate(ctx, s.cache, s.log, cache.CatalogListing)
	s.events.Publish(ctx, domain.ItemCreated{ItemID: it.ID})
	return it, nil
}

// UpdateItem applies patch. A price recompute is scheduled only when the base
// price or discount changed.
func (s *Service) UpdateItem(ctx context.Context, id int64, patch ItemPatch) (*domain.Item, error) {
	cur, err := s.items.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	next := *cur
	if patch.Name != nil {
		next.Name = strings.TrimSpace(*patch.Name)
		if next.Name == "" {
			return nil, domain.Invalid("name", "required")
		}
	}
	if patch.Title != nil {
		next.Title = *patch.Title
	}
	if patch.Grade != nil {
		next.Grade = *patch.Grade
	}
	if patch.Kind != nil {
		next.Kind = *patch.Kind
	}
	if patch.Content != nil {
		next.Content = *patch.Content
	}
	if patch.CategoryID != nil {
		if err := s.checkCategory(ctx, patch.CategoryID); err != nil {
			return nil, err
		}
		next.CategoryID = patch.CategoryID
	}
	if patch.BasePrice != nil {
		next.BasePrice = *patch.BasePrice
	}
	if patch.Discount != nil {
		next.Discount = *patch.Discount
	}
	if err := pricing.Validate(next.BasePrice, next.Discount); err != nil {
		return nil, err
	}

	updated, err := s.items.Update(ctx, next)
	if err != nil {
		return nil, err
	}
	cache.Invalidate(ctx, s.cache, s.log, cache.ItemInfo(id), cache.CatalogListing)
	if cur.BasePrice != updated.BasePrice || cur.Discount != updated.Discount {
		s.events.Publish(ctx, domain.ItemPriceChanged{ItemID: id})
	}
	return updated, nil
}

func (s *Service) SetItemImage(ctx context.Context, id int64, kind, contentType string, r io.Reader, size int64) (*domain.Item, error) {
	if s.images == nil {
		return nil, errors.New("image storage is not configured")
	}
	if _, err := s.items.GetByID(ctx, id); err != nil {
		return nil, err
	}
	url, err := s.images.PutItemImage(ctx, id, kind, contentType, r, size)
	if err != nil {
		return nil, err
	}
	if err := s.items.SetImage(ctx, id, kind, url); err != nil {
		return nil, err
	}
	cache.Invalidate(ctx, s.cache, s.log, cache.ItemInfo(id), cache.CatalogListing)
	return s.items.GetByID(ctx, id)
}

// Recommended returns up to n random items.
func (s *Service) Recommended(ctx context.Context, n int) ([]domain.Item, error) {
	if n <= 0 {
		n = RecommendedSize
	}
	return s.items.RandomSample(ctx, n)
}

// RecomputeRealPrice derives the real price from the item's current base price
// and discount. A concurrent price change makes the write a no-op; the event
// raised by that change schedules another pass.
func (s *Service) RecomputeRealPrice(ctx context.Context, id int64) error {
	it, err := s.items.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("load item %d: %w", id, err)
	}
	price := pricing.RealPrice(it.BasePrice, it.Discount)
	if price == it.RealPrice {
		return nil
	}
	applied, err := s.items.SetRealPrice(ctx, id, it.BasePrice, it.Discount, price)
	if err != nil {
		return fmt.Errorf("store real price for item %d: %w", id, err)
	}
	if !applied {
		s.log.Debug("real price inputs changed during recompute", zap.Int64("item_id", id))
		return nil
	}
	cache.Invalidate(ctx, s.cache, s.log, cache.ItemInfo(id), cache.CatalogListing)
	return nil
}

// RecomputeRating stores the mean of all review ratings for the item.
func (s *Service) RecomputeRating(ctx context.Context, id int64) error {
	ratings, err := s.ratings.Ratings(ctx, id)
	if err != nil {
		return fmt.Errorf("load ratings for item %d: %w", id, err)
	}
	if err := s.items.SetRating(ctx, id, domain.MeanRating(ratings)); err != nil {
		return fmt.Errorf("store rating for item %d: %w", id, err)
	}
	cache.Invalidate(ctx, s.cache, s.log, cache.ItemInfo(id), cache.CatalogListing)
	return nil
}

// NewItemsBetween lists items created in [from, to).
func (s *Service) NewItemsBetween(ctx context.Context, from, to time.Time) ([]domain.Item, error) {
	return s.items.CreatedBetween(ctx, from, to)
}

func (s *Service) checkCategory(ctx context.Context, id *int64) error {
	if id == nil {
		return nil
	}
	if _, err := s.categories.GetByID(ctx, *id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Invalid("category", "unknown category")
		}
		return err
	}
	return nil
}
