package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type failingCache struct{}

func (failingCache) Get(context.Context, string, any) (bool, error) {
	return false, errors.New("connection refused")
}

func (failingCache) Set(context.Context, string, any, time.Duration) error {
	return errors.New("connection refused")
}

func (failingCache) Delete(context.Context, ...string) error {
	return errors.New("connection refused")
}

func TestFetch_ReadThrough(t *testing.T) {
	ctx := context.Background()
	c := NewMemory()
	calls := 0
	load := func(context.Context) ([]int, error) {
		calls++
		return []int{1, 2, 3}, nil
	}

	got, err := Fetch(ctx, c, zap.NewNop(), "k", 0, load)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, got)

	got, err = Fetch(ctx, c, zap.NewNop(), "k", 0, load)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, got)
	assert.Equal(t, 1, calls)

	Invalidate(ctx, c, zap.NewNop(), "k")
	_, err = Fetch(ctx, c, zap.NewNop(), "k", 0, load)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestFetch_LoadErrorNotCached(t *testing.T) {
	ctx := context.Background()
	c := NewMemory()
	_, err := Fetch(ctx, c, zap.NewNop(), "k", 0, func(context.Context) (int, error) {
		return 0, errors.New("db down")
	})
	assert.Error(t, err)
	assert.False(t, c.Has("k"))
}

func TestFetch_CacheFailureFallsBackToStore(t *testing.T) {
	got, err := Fetch(context.Background(), failingCache{}, zap.NewNop(), "k", 0, func(context.Context) (string, error) {
		return "fresh", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "fresh", got)

	Invalidate(context.Background(), failingCache{}, zap.NewNop(), "k")
}

func TestMemory_Expiry(t *testing.T) {
	ctx := context.Background()
	c := NewMemory()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	require.NoError(t, c.Set(ctx, CatalogListing, "v", ListingTTL))
	assert.True(t, c.Has(CatalogListing))

	now = now.Add(ListingTTL)
	assert.False(t, c.Has(CatalogListing))
}

func TestKeys(t *testing.T) {
	assert.Equal(t, "user-info:7", UserInfo(7))
	assert.Equal(t, "item-reviews:12", ItemReviews(12))
	assert.NotEqual(t, UserFriends(1), UserInvites(1))
}

func TestFetch_InvalidateDuringLoadDropsStaleValue(t *testing.T) {
	ctx := context.Background()
	c := NewMemory()
	log := zap.NewNop()
	store := "old"

	got, err := Fetch(ctx, c, log, UserInfo(1), 0, func(context.Context) (string, error) {
		read := store
		store = "new"
		Invalidate(ctx, c, log, UserInfo(1))
		return read, nil
	})
	require.NoError(t, err)
	assert.Equal(t, "old", got)
	assert.False(t, c.Has(UserInfo(1)))

	got, err = Fetch(ctx, c, log, UserInfo(1), 0, func(context.Context) (string, error) {
		return store, nil
	})
	require.NoError(t, err)
	assert.Equal(t, "new", got)
}

func TestFetch_LateSetAfterInvalidateIsRemoved(t *testing.T) {
	ctx := context.Background()
	c := NewMemory()
	log := zap.NewNop()

	// A load that snapshots the version, then an invalidation that lands
	// between its write and its version check.
	racing := &stampOnSet{Memory: c, key: ItemInfo(3)}
	got, err := Fetch(ctx, racing, log, ItemInfo(3), 0, func(context.Context) (int, error) {
		return 1, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, got)
	assert.False(t, c.Has(ItemInfo(3)))
}

func TestFetch_ZeroTTLIsBounded(t *testing.T) {
	ctx := context.Background()
	c := NewMemory()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	_, err := Fetch(ctx, c, zap.NewNop(), UserBasket(2), 0, func(context.Context) (int, error) {
		return 5, nil
	})
	require.NoError(t, err)
	assert.True(t, c.Has(UserBasket(2)))

	now = now.Add(EntityTTL)
	assert.False(t, c.Has(UserBasket(2)))
}

// stampOnSet restamps the version of key right after its first write, as a
// concurrent Invalidate would.
type stampOnSet struct {
	*Memory
	key  string
	done bool
}

func (s *stampOnSet) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	if err := s.Memory.Set(ctx, key, value, ttl); err != nil {
		return err
	}
	if key == s.key && !s.done {
		s.done = true
		return s.Memory.Set(ctx, versionKey(key), "raced", versionTTL)
	}
	return nil
}
