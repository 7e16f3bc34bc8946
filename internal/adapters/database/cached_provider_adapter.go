package database

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/docsched/backend/internal/domain/entities"
	"github.com/docsched/backend/internal/domain/providers"
	"github.com/docsched/backend/internal/domain/repositories"
	"github.com/docsched/backend/internal/infrastructure/observability"
)

// Cache TTLs (in seconds)
const (
	providerByIDTTL  = 300
	providersListTTL = 120
)

// CachedProviderAdapter wraps a ProviderRepository with caching. Profile
// reads dominate the provider table; rating writes go through the rating
// adapter, which invalidates through InvalidateProvider.
type CachedProviderAdapter struct {
	adapter repositories.ProviderRepository
	cache   providers.CacheProvider
	metrics *observability.Metrics
}

// NewCachedProviderAdapter creates a new cached provider adapter
func NewCachedProviderAdapter(adapter repositories.ProviderRepository, cache providers.CacheProvider, metrics *observability.Metrics) *CachedProviderAdapter {
	return &CachedProviderAdapter{
		adapter: adapter,
		cache:   cache,
		metrics: metrics,
	}
}

func providerCacheKey(id string) string {
	return fmt.Sprintf("provider:%s", id)
}

func providersListCacheKey(filter repositories.ProviderFilter) string {
	return fmt.Sprintf("providers:list:%s:%.1f:%d:%d", filter.Specialization, filter.MinRating, filter.Limit, filter.Offset)
}

// Create creates a provider and leaves list caches to expire naturally
func (a *CachedProviderAdapter) Create(ctx context.Context, provider *entities.Provider) error {
	return a.adapter.Create(ctx, provider)
}

// GetByID retrieves a provider by ID with caching
func (a *CachedProviderAdapter) GetByID(ctx context.Context, id string) (*entities.Provider, error) {
	cacheKey := providerCacheKey(id)

	if cached, err := a.cache.Get(ctx, cacheKey); err == nil {
		var provider entities.Provider
		if err := json.Unmarshal(cached, &provider); err == nil {
			observability.RecordCacheHit(ctx, a.metrics, "provider")
			return &provider, nil
		}
		log.Warn().Str("provider_id", id).Msg("failed to unmarshal cached provider")
	}
	observability.RecordCacheMiss(ctx, a.metrics, "provider")

	provider, err := a.adapter.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	// Update cache asynchronously to avoid blocking the response
	go func() {
		bgCtx := context.Background()
		if data, err := json.Marshal(provider); err == nil {
			if err := a.cache.Set(bgCtx, cacheKey, data, providerByIDTTL); err != nil {
				log.Warn().Err(err).Str("provider_id", id).Msg("failed to cache provider")
			}
		}
	}()

	return provider, nil
}

// Update updates the provider and drops its cache entry
func (a *CachedProviderAdapter) Update(ctx context.Context, provider *entities.Provider) error {
	if err := a.adapter.Update(ctx, provider); err != nil {
		return err
	}
	a.InvalidateProvider(ctx, provider.ID)
	return nil
}

// List retrieves providers matching the filter with caching
func (a *CachedProviderAdapter) List(ctx context.Context, filter repositories.ProviderFilter) ([]*entities.Provider, error) {
	cacheKey := providersListCacheKey(filter)

	if cached, err := a.cache.Get(ctx, cacheKey); err == nil {
		var result []*entities.Provider
		if err := json.Unmarshal(cached, &result); err == nil {
			observability.RecordCacheHit(ctx, a.metrics, "providers:list")
			return result, nil
		}
	}
	observability.RecordCacheMiss(ctx, a.metrics, "providers:list")

	result, err := a.adapter.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	go func() {
		bgCtx := context.Background()
		if data, err := json.Marshal(result); err == nil {
			if err := a.cache.Set(bgCtx, cacheKey, data, providersListTTL); err != nil {
				log.Warn().Err(err).Msg("failed to cache provider list")
			}
		}
	}()

	return result, nil
}

// InvalidateProvider drops the cache entry for one provider; called after
// rating updates so a stale mean never outlives the TTL window
func (a *CachedProviderAdapter) InvalidateProvider(ctx context.Context, id string) {
	if err := a.cache.Delete(ctx, providerCacheKey(id)); err != nil {
		log.Warn().Err(err).Str("provider_id", id).Msg("failed to invalidate provider cache")
	}
}
