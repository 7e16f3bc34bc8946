package database_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docsched/backend/internal/adapters/database"
	"github.com/docsched/backend/internal/domain/entities"
	"github.com/docsched/backend/internal/domain/repositories"
	"github.com/docsched/backend/internal/infrastructure/observability"
)

type fakeCache struct {
	entries map[string][]byte
	deleted []string
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: map[string][]byte{}}
}

func (c *fakeCache) Get(ctx context.Context, key string) ([]byte, error) {
	if value, ok := c.entries[key]; ok {
		return value, nil
	}
	return nil, errors.New("cache miss")
}

func (c *fakeCache) Set(ctx context.Context, key string, value []byte, expirationSeconds int) error {
	c.entries[key] = value
	return nil
}

func (c *fakeCache) Delete(ctx context.Context, key string) error {
	c.deleted = append(c.deleted, key)
	delete(c.entries, key)
	return nil
}

func (c *fakeCache) Exists(ctx context.Context, key string) (bool, error) {
	_, ok := c.entries[key]
	return ok, nil
}

type stubProviderRepo struct {
	provider *entities.Provider
	getCalls int
}

func (r *stubProviderRepo) Create(ctx context.Context, provider *entities.Provider) error {
	return nil
}

func (r *stubProviderRepo) GetByID(ctx context.Context, id string) (*entities.Provider, error) {
	r.getCalls++
	return r.provider, nil
}

func (r *stubProviderRepo) Update(ctx context.Context, provider *entities.Provider) error {
	return nil
}

func (r *stubProviderRepo) List(ctx context.Context, filter repositories.ProviderFilter) ([]*entities.Provider, error) {
	return []*entities.Provider{r.provider}, nil
}

func TestCachedProviderAdapter_GetByID(t *testing.T) {
	// The global meter provider is a no-op unless the OTLP pipeline is
	// configured, so real instruments are safe to exercise here.
	metrics, err := observability.InitMetrics()
	require.NoError(t, err)

	t.Run("serves a cached provider without touching the repository", func(t *testing.T) {
		cache := newFakeCache()
		repo := &stubProviderRepo{provider: &entities.Provider{ID: "prov-1", Name: "Dr. Amara Okafor"}}
		cached, err := json.Marshal(repo.provider)
		require.NoError(t, err)
		cache.entries["provider:prov-1"] = cached

		adapter := database.NewCachedProviderAdapter(repo, cache, metrics)

		provider, err := adapter.GetByID(context.Background(), "prov-1")
		require.NoError(t, err)
		assert.Equal(t, "Dr. Amara Okafor", provider.Name)
		assert.Equal(t, 0, repo.getCalls)
	})

	t.Run("falls through to the repository on a miss", func(t *testing.T) {
		cache := newFakeCache()
		repo := &stubProviderRepo{provider: &entities.Provider{ID: "prov-1", Name: "Dr. Amara Okafor"}}

		adapter := database.NewCachedProviderAdapter(repo, cache, metrics)

		provider, err := adapter.GetByID(context.Background(), "prov-1")
		require.NoError(t, err)
		assert.Equal(t, "prov-1", provider.ID)
		assert.Equal(t, 1, repo.getCalls)
	})

	t.Run("works without metrics wired", func(t *testing.T) {
		cache := newFakeCache()
		repo := &stubProviderRepo{provider: &entities.Provider{ID: "prov-1"}}

		adapter := database.NewCachedProviderAdapter(repo, cache, nil)

		_, err := adapter.GetByID(context.Background(), "prov-1")
		require.NoError(t, err)
	})
}

func TestCachedProviderAdapter_InvalidateProvider(t *testing.T) {
	cache := newFakeCache()
	cache.entries["provider:prov-1"] = []byte(`{}`)
	repo := &stubProviderRepo{provider: &entities.Provider{ID: "prov-1"}}

	adapter := database.NewCachedProviderAdapter(repo, cache, nil)
	adapter.InvalidateProvider(context.Background(), "prov-1")

	assert.Contains(t, cache.deleted, "provider:prov-1")
}
