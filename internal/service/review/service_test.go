package review

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skins-market/internal/cache"
	"skins-market/internal/domain"
	"skins-market/internal/events"
)

type stubRepo struct {
	reviews   map[[2]int64]domain.Review
	listCalls int
}

func newStubRepo() *stubRepo { return &stubRepo{reviews: map[[2]int64]domain.Review{}} }

func (s *stubRepo) Upsert(_ context.Context, r domain.Review) (*domain.Review, bool, error) {
	k := [2]int64{r.UserID, r.ItemID}
	_, existed := s.reviews[k]
	s.reviews[k] = r
	return &r, !existed, nil
}

func (s *stubRepo) Delete(_ context.Context, userID, itemID int64) error {
	k := [2]int64{userID, itemID}
	if _, ok := s.reviews[k]; !ok {
		return domain.ErrNotFound
	}
	delete(s.reviews, k)
	return nil
}

func (s *stubRepo) ListByItem(_ context.Context, itemID int64) ([]domain.Review, error) {
	s.listCalls++
	var out []domain.Review
	for k, r := range s.reviews {
		if k[1] == itemID {
			out = append(out, r)
		}
	}
	return out, nil
}

func TestSubmit_Validation(t *testing.T) {
	svc := New(newStubRepo(), nil, &events.Recorder{}, nil)

	cases := []struct {
		name  string
		in    SubmitInput
		field string
	}{
		{"missing item", SubmitInput{Rating: 3}, "skin"},
		{"rating too low", SubmitInput{ItemID: 1, Rating: 0}, "rate"},
		{"rating too high", SubmitInput{ItemID: 1, Rating: 6}, "rate"},
		{"text too long", SubmitInput{ItemID: 1, Rating: 5, Text: strings.Repeat("a", domain.MaxReviewText+1)}, "text"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := svc.Submit(context.Background(), 1, tc.in)
			var verr *domain.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tc.field, verr.Field)
		})
	}
}

func TestSubmit_InvalidatesAndPublishes(t *testing.T) {
	repo := newStubRepo()
	mem := cache.NewMemory()
	rec := &events.Recorder{}
	svc := New(repo, mem, rec, nil)
	ctx := context.Background()

	_, err := svc.ListForItem(ctx, 7)
	require.NoError(t, err)
	require.NoError(t, mem.Set(ctx, cache.ItemInfo(7), domain.Item{ID: 7}, 0))

	_, created, err := svc.Submit(ctx, 1, SubmitInput{ItemID: 7, Rating: 4, Text: " nice "})
	require.NoError(t, err)
	assert.True(t, created)
	assert.False(t, mem.Has(cache.ItemReviews(7)))
	assert.False(t, mem.Has(cache.ItemInfo(7)))

	_, created, err = svc.Submit(ctx, 1, SubmitInput{ItemID: 7, Rating: 2})
	require.NoError(t, err)
	assert.False(t, created)

	reviews, err := svc.ListForItem(ctx, 7)
	require.NoError(t, err)
	require.Len(t, reviews, 1)
	assert.Equal(t, 2, reviews[0].Rating)

	require.NoError(t, svc.Delete(ctx, 1, 7))
	assert.ErrorIs(t, svc.Delete(ctx, 1, 7), domain.ErrNotFound)

	assert.Equal(t, []domain.Event{
		domain.ReviewChanged{ItemID: 7},
		domain.ReviewChanged{ItemID: 7},
		domain.ReviewChanged{ItemID: 7},
	}, rec.Events)
}
