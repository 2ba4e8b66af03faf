package repository

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/desantiago/gallery-shop/internal/model"
	"github.com/desantiago/gallery-shop/internal/storage/db"
)

// ProductCache is the subset of cache.Cache used for product lookups.
type ProductCache interface {
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, value any) error
	Delete(ctx context.Context, key string) error
}

// ProductInvalidator is implemented by repositories that keep product copies
// outside the database.
type ProductInvalidator interface {
	InvalidateProduct(ctx context.Context, id uuid.UUID)
}

var _ ProductInvalidator = (*cachedProductRepository)(nil)

// cachedProductRepository serves GetProductByID cache-aside. Writers evict
// through InvalidateProduct after commit. Cache failures fall through to the
// store.
type cachedProductRepository struct {
	ProductRepository
	cache  ProductCache
	logger *slog.Logger
}

func NewCachedProductRepository(inner ProductRepository, cache ProductCache, logger *slog.Logger) ProductRepository {
	return &cachedProductRepository{
		ProductRepository: inner,
		cache:             cache,
		logger:            logger.With(slog.String("component", "product_cache")),
	}
}

func (r cachedProductRepository) WithDB(db db.DB) ProductRepository {
	return &cachedProductRepository{
		ProductRepository: r.ProductRepository.WithDB(db),
		cache:             r.cache,
		logger:            r.logger,
	}
}

func (r cachedProductRepository) GetProductByID(ctx context.Context, id uuid.UUID) (model.Product, error) {
	key := productCacheKey(id)

	var cached model.Product
	found, err := r.cache.Get(ctx, key, &cached)
	if err != nil {
		r.logger.WarnContext(ctx, "error reading product from cache", slog.String("product_id", id.String()), slog.Any("error", err))
	}
	if found {
		return cached, nil
	}

	product, err := r.ProductRepository.GetProductByID(ctx, id)
	if err != nil {
		return model.Product{}, err
	}

	if err := r.cache.Set(ctx, key, product); err != nil {
		r.logger.WarnContext(ctx, "error writing product to cache", slog.String("product_id", id.String()), slog.Any("error", err))
	}

	return product, nil
}

// InvalidateProduct drops the cached entry. Call it once the write that
// changed the product has committed.
func (r cachedProductRepository) InvalidateProduct(ctx context.Context, id uuid.UUID) {
	if err := r.cache.Delete(ctx, productCacheKey(id)); err != nil {
		r.logger.WarnContext(ctx, "error evicting product from cache", slog.String("product_id", id.String()), slog.Any("error", err))
	}
}

func productCacheKey(id uuid.UUID) string {
	return "product:" + id.String()
}
