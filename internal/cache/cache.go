// Package cache is the read-through cache in front of the relational store.
// Values are JSON encoded. Writers invalidate by key set after committing.
package cache

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Cache is a key-value store with optional expiry.
type Cache interface {
	// Get decodes the value at key into dest. It reports false on a miss.
	Get(ctx context.Context, key string, dest any) (bool, error)
	// Set stores value at key. A zero ttl means no expiry.
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

const (
	ListingTTL    = 10 * time.Minute
	CategoriesTTL = time.Hour
	// EntityTTL bounds per-entity keys that are otherwise kept fresh by
	// invalidation.
	EntityTTL = 15 * time.Minute

	versionTTL = 24 * time.Hour
)

// versionKey holds a stamp rewritten by every Invalidate of key. A load that
// started under an older stamp must not leave its value behind.
func versionKey(key string) string { return "ver:" + key }

func version(ctx context.Context, c Cache, key string) (string, error) {
	var v string
	if _, err := c.Get(ctx, versionKey(key), &v); err != nil {
		return "", err
	}
	return v, nil
}

// Fetch returns the cached value at key, loading and populating it on a miss.
// Cache failures are logged and never fail the read.
func Fetch[T any](ctx context.Context, c Cache, log *zap.Logger, key string, ttl time.Duration, load func(context.Context) (T, error)) (T, error) {
	if c == nil {
		return load(ctx)
	}
	var cached T
	hit, err := c.Get(ctx, key, &cached)
	switch {
	case err != nil:
		log.Warn("cache read failed", zap.String("key", key), zap.Error(err))
	case hit:
		return cached, nil
	}

	if ttl <= 0 {
		ttl = EntityTTL
	}
	before, verr := version(ctx, c, key)
	v, err := load(ctx)
	if err != nil || verr != nil {
		return v, err
	}
	if err := c.Set(ctx, key, v, ttl); err != nil {
		log.Warn("cache write failed", zap.String("key", key), zap.Error(err))
		return v, nil
	}
	// An Invalidate that raced the load has stamped a new version; drop what
	// was just written. One that has not stamped yet will delete it itself.
	if after, err := version(ctx, c, key); err != nil || after != before {
		if err := c.Delete(ctx, key); err != nil {
			log.Warn("cache drop of raced value failed", zap.String("key", key), zap.Error(err))
		}
	}
	return v, nil
}

// Invalidate stamps a new version for each key, then deletes it. Failures are
// logged; stale entries then age out within their TTL.
func Invalidate(ctx context.Context, c Cache, log *zap.Logger, keys ...string) {
	if c == nil || len(keys) == 0 {
		return
	}
	stamp := uuid.NewString()
	for _, k := range keys {
		if err := c.Set(ctx, versionKey(k), stamp, versionTTL); err != nil {
			log.Error("cache version stamp failed", zap.String("key", k), zap.Error(err))
		}
	}
	if err := c.Delete(ctx, keys...); err != nil {
		log.Error("cache invalidation failed", zap.Strings("keys", keys), zap.Error(err))
	}
}
