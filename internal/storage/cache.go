package storage

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"
)

const (
	activeProductsKey = "products:active"
	activeHomeKey     = "home:active"
)

// Cache is the key-value store the cached decorator reads through.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
}

// CachedStorage serves the public product and homepage lists from cache and
// drops them on every write. Cache failures fall through to the store.
type CachedStorage struct {
	Storage
	cache  Cache
	ttl    time.Duration
	logger *zap.Logger
}

func NewCachedStorage(store Storage, cache Cache, ttl time.Duration, logger *zap.Logger) *CachedStorage {
	return &CachedStorage{Storage: store, cache: cache, ttl: ttl, logger: logger}
}

func cached[T any](ctx context.Context, s *CachedStorage, key string, load func() ([]T, error)) ([]T, error) {
	if data, err := s.cache.Get(ctx, key); err == nil {
		var items []T
		if err := json.Unmarshal(data, &items); err == nil {
			return items, nil
		}
	}

	items, err := load()
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(items); err == nil {
		if err := s.cache.Set(ctx, key, data, s.ttl); err != nil {
			s.logger.Debug("Cache set failed", zap.String("key", key), zap.Error(err))
		}
	}
	return items, nil
}

func (s *CachedStorage) invalidate(ctx context.Context, keys ...string) {
	if err := s.cache.Del(ctx, keys...); err != nil {
		s.logger.Warn("Cache invalidation failed", zap.Strings("keys", keys), zap.Error(err))
	}
}

func (s *CachedStorage) ListProducts(ctx context.Context, activeOnly bool) ([]Product, error) {
	if !activeOnly {
		return s.Storage.ListProducts(ctx, false)
	}
	return cached(ctx, s, activeProductsKey, func() ([]Product, error) {
		return s.Storage.ListProducts(ctx, true)
	})
}

func (s *CachedStorage) UpsertProduct(ctx context.Context, p Product) (Product, error) {
	defer s.invalidate(ctx, activeProductsKey)
	return s.Storage.UpsertProduct(ctx, p)
}

func (s *CachedStorage) UpdateProduct(ctx context.Context, id string, patch ProductPatch) (Product, error) {
	defer s.invalidate(ctx, activeProductsKey)
	return s.Storage.UpdateProduct(ctx, id, patch)
}

func (s *CachedStorage) DeleteProduct(ctx context.Context, id string) (Product, error) {
	defer s.invalidate(ctx, activeProductsKey)
	return s.Storage.DeleteProduct(ctx, id)
}

func (s *CachedStorage) ListHomeImages(ctx context.Context, activeOnly bool) ([]HomeImage, error) {
	if !activeOnly {
		return s.Storage.ListHomeImages(ctx, false)
	}
	return cached(ctx, s, activeHomeKey, func() ([]HomeImage, error) {
		return s.Storage.ListHomeImages(ctx, true)
	})
}

func (s *CachedStorage) CreateHomeImage(ctx context.Context, img HomeImage) (HomeImage, error) {
	defer s.invalidate(ctx, activeHomeKey)
	return s.Storage.CreateHomeImage(ctx, img)
}

func (s *CachedStorage) UpdateHomeImage(ctx context.Context, id string, patch HomeImagePatch) (HomeImage, error) {
	defer s.invalidate(ctx, activeHomeKey)
	return s.Storage.UpdateHomeImage(ctx, id, patch)
}

func (s *CachedStorage) DeleteHomeImage(ctx context.Context, id string) (HomeImage, error) {
	defer s.invalidate(ctx, activeHomeKey)
	return s.Storage.DeleteHomeImage(ctx, id)
}
