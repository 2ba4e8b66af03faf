package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/desantiago/gallery-shop/internal/apperr"
	"github.com/desantiago/gallery-shop/internal/event"
	"github.com/desantiago/gallery-shop/internal/model"
	"github.com/desantiago/gallery-shop/internal/repository"
	"github.com/desantiago/gallery-shop/internal/storage/db"
	"github.com/desantiago/gallery-shop/pkg/outbox"
	"github.com/desantiago/gallery-shop/pkg/validator"
)

type CreateProductParams struct {
	Name      string   `json:"name" validate:"required,notblank"`
	Technique *string  `json:"technique"`
	Img       *string  `json:"img"`
	Price     *float64 `json:"price" validate:"required,gte=0"`
	Measures  *string  `json:"measures"`
	Weight    *float64 `json:"weight" validate:"omitempty,gte=0"`
}

type ProductService interface {
	CreateProduct(ctx context.Context, params CreateProductParams) (model.Product, error)
	ListAllProducts(ctx context.Context) ([]model.Product, error)
	GetProduct(ctx context.Context, id uuid.UUID) (model.Product, error)
	// MarkProductSold is idempotent: selling a sold product returns it unchanged.
	MarkProductSold(ctx context.Context, id uuid.UUID) (model.Product, error)
}

type productService struct {
	db            db.DB
	validator     validator.Validator
	productRepo   repository.ProductRepository
	outboxMsgRepo repository.OutboxMsgRepository
}

func NewProductService(
	db db.DB,
	validator validator.Validator,
	productRepo repository.ProductRepository,
	outboxMsgRepo repository.OutboxMsgRepository,
) ProductService {
	return &productService{
		db:            db,
		validator:     validator,
		productRepo:   productRepo,
		outboxMsgRepo: outboxMsgRepo,
	}
}

func (s *productService) CreateProduct(ctx context.Context, params CreateProductParams) (model.Product, error) {
	if err := s.validator.Validate(params); err != nil {
		return model.Product{}, fmt.Errorf("validate create product params: %w", err)
	}

	id, err := uuid.NewV7()
	if err != nil {
		return model.Product{}, fmt.Errorf("generate uuid v7: %w", err)
	}

	now := storedTime(time.Now())
	product := model.Product{
		ID:        id,
		Name:      params.Name,
		Technique: params.Technique,
		Img:       params.Img,
		Price:     *params.Price,
		Sold:      false,
		Measures:  params.Measures,
		Weight:    params.Weight,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.db.WithTx(ctx, func(db db.DB) error {
		stored, err := s.productRepo.
			WithDB(db).
			CreateProduct(ctx, product)
		if err != nil {
			return fmt.Errorf("product repository create product: %w", err)
		}
		product = stored

		return s.publish(ctx, db, event.TopicProductCreated, product.ID, event.ProductCreatedEvent{
			ProductID: product.ID.String(),
			Name:      product.Name,
			Technique: product.Technique,
			Price:     product.Price,
			Weight:    product.Weight,
		})
	}); err != nil {
		return model.Product{}, fmt.Errorf("db with tx: %w", err)
	}

	return product, nil
}

func (s *productService) ListAllProducts(ctx context.Context) ([]model.Product, error) {
	products, err := s.productRepo.ListAllProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("product repository list all products: %w", err)
	}

	return products, nil
}

func (s *productService) GetProduct(ctx context.Context, id uuid.UUID) (model.Product, error) {
	product, err := s.productRepo.GetProductByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.Product{}, apperr.ProductNotFoundErr.WrapParent(err)
		}
		return model.Product{}, fmt.Errorf("product repository get product by id: %w", err)
	}

	return product, nil
}

func (s *productService) MarkProductSold(ctx context.Context, id uuid.UUID) (model.Product, error) {
	var product model.Product

	if err := s.db.WithTx(ctx, func(db db.DB) error {
		productRepo := s.productRepo.WithDB(db)

		current, err := productRepo.GetProductByIDForUpdate(ctx, id)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return apperr.ProductNotFoundErr.WrapParent(err)
			}
			return fmt.Errorf("product repository get product for update: %w", err)
		}

		if current.Sold {
			product = current
			return nil
		}

		product, err = productRepo.MarkProductSold(ctx, repository.MarkProductSoldParams{
			ID:        id,
			UpdatedAt: storedTime(time.Now()),
		})
		if err != nil {
			return fmt.Errorf("product repository mark product sold: %w", err)
		}

		return s.publish(ctx, db, event.TopicProductSold, product.ID, event.ProductSoldEvent{
			ProductID: product.ID.String(),
			Name:      product.Name,
			Price:     product.Price,
			SoldAt:    product.UpdatedAt,
		})
	}); err != nil {
		return model.Product{}, fmt.Errorf("db with tx: %w", err)
	}

	// Only after commit: a read racing the transaction would otherwise refill
	// the cache with the unsold row.
	if inv, ok := s.productRepo.(repository.ProductInvalidator); ok {
		inv.InvalidateProduct(ctx, id)
	}

	return product, nil
}

// storedTime drops the precision Postgres timestamps cannot hold.
func storedTime(t time.Time) time.Time {
	return t.Truncate(time.Microsecond)
}

// publish records ev in the outbox inside the caller's transaction, keyed by
// product so the relay keeps per-product ordering.
func (s *productService) publish(ctx context.Context, db db.DB, topic string, productID uuid.UUID, ev any) error {
	evBytes, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", topic, err)
	}

	key := productID.String()
	if err := s.outboxMsgRepo.
		WithDB(db).
		CreateOutboxMsg(ctx, repository.CreateOutboxMsgParams{
			Topic:        topic,
			Headers:      outbox.BuildHeaders(ctx),
			Payload:      evBytes,
			PartitionKey: &key,
		}); err != nil {
		return fmt.Errorf("outbox msg repository create outbox msg: %w", err)
	}

	return nil
}
