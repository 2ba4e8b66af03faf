package repository_test

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/desantiago/gallery-shop/internal/model"
	"github.com/desantiago/gallery-shop/internal/repository"
	"github.com/desantiago/gallery-shop/internal/storage/db"
)

type memCache struct {
	items   map[string][]byte
	failGet bool
}

func newMemCache() *memCache {
	return &memCache{items: map[string][]byte{}}
}

func (c *memCache) Get(_ context.Context, key string, dest any) (bool, error) {
	if c.failGet {
		return false, errors.New("cache down")
	}
	data, ok := c.items[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(data, dest)
}

func (c *memCache) Set(_ context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.items[key] = data
	return nil
}

func (c *memCache) Delete(_ context.Context, key string) error {
	delete(c.items, key)
	return nil
}

type stubProductRepository struct {
	repository.ProductRepository
	products map[uuid.UUID]model.Product
	gets     int
}

func (r *stubProductRepository) WithDB(db.DB) repository.ProductRepository { return r }

func (r *stubProductRepository) GetProductByID(_ context.Context, id uuid.UUID) (model.Product, error) {
	r.gets++
	p, ok := r.products[id]
	if !ok {
		return model.Product{}, repository.ErrNotFound
	}
	return p, nil
}

func (r *stubProductRepository) MarkProductSold(_ context.Context, params repository.MarkProductSoldParams) (model.Product, error) {
	p, ok := r.products[params.ID]
	if !ok {
		return model.Product{}, repository.ErrNotFound
	}
	p.Sold = true
	r.products[params.ID] = p
	return p, nil
}

func TestCachedProductRepository(t *testing.T) {
	id := uuid.New()
	newRepo := func() (*stubProductRepository, *memCache, repository.ProductRepository) {
		inner := &stubProductRepository{products: map[uuid.UUID]model.Product{
			id: {ID: id, Name: "Vase", Price: 50},
		}}
		c := newMemCache()
		return inner, c, repository.NewCachedProductRepository(inner, c, slog.New(slog.DiscardHandler))
	}

	t.Run("Should read through once and then serve from cache", func(t *testing.T) {
		inner, _, repo := newRepo()
		ctx := context.Background()

		first, err := repo.GetProductByID(ctx, id)
		require.NoError(t, err)
		second, err := repo.GetProductByID(ctx, id)
		require.NoError(t, err)

		assert.Equal(t, first, second)
		assert.Equal(t, 1, inner.gets)
	})

	t.Run("Should not cache misses", func(t *testing.T) {
		inner, c, repo := newRepo()
		missing := uuid.New()

		_, err := repo.GetProductByID(context.Background(), missing)
		assert.ErrorIs(t, err, repository.ErrNotFound)
		_, err = repo.GetProductByID(context.Background(), missing)
		assert.ErrorIs(t, err, repository.ErrNotFound)

		assert.Equal(t, 2, inner.gets)
		assert.Empty(t, c.items)
	})

	t.Run("Should keep the entry until invalidated after commit", func(t *testing.T) {
		inner, c, repo := newRepo()
		ctx := context.Background()

		_, err := repo.GetProductByID(ctx, id)
		require.NoError(t, err)

		_, err = repo.WithDB(nil).MarkProductSold(ctx, repository.MarkProductSoldParams{ID: id})
		require.NoError(t, err)
		assert.Len(t, c.items, 1)

		inv, ok := repo.(repository.ProductInvalidator)
		require.True(t, ok)
		inv.InvalidateProduct(ctx, id)
		assert.Empty(t, c.items)

		product, err := repo.GetProductByID(ctx, id)
		require.NoError(t, err)
		assert.True(t, product.Sold)
		assert.Equal(t, 2, inner.gets)
	})

	t.Run("Should fall back to the store when the cache fails", func(t *testing.T) {
		inner, c, repo := newRepo()
		c.failGet = true

		product, err := repo.GetProductByID(context.Background(), id)
		require.NoError(t, err)
		assert.Equal(t, "Vase", product.Name)
		assert.Equal(t, 1, inner.gets)
	})
}
