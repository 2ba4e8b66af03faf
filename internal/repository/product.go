package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/desantiago/gallery-shop/internal/model"
	"github.com/desantiago/gallery-shop/internal/storage/db"
)

// ErrNotFound is returned when no row matches the lookup.
var ErrNotFound = errors.New("not found")

type MarkProductSoldParams struct {
	ID        uuid.UUID
	UpdatedAt time.Time
}

type ProductRepository interface {
	WithDB(db db.DB) ProductRepository
	// CreateProduct returns the row as stored.
	CreateProduct(ctx context.Context, product model.Product) (model.Product, error)
	ListAllProducts(ctx context.Context) ([]model.Product, error)
	GetProductByID(ctx context.Context, id uuid.UUID) (model.Product, error)
	// GetProductByIDForUpdate locks the row until the surrounding transaction ends.
	GetProductByIDForUpdate(ctx context.Context, id uuid.UUID) (model.Product, error)
	MarkProductSold(ctx context.Context, params MarkProductSoldParams) (model.Product, error)
}

type productRepository struct {
	db db.DB
}

func NewProductRepository(db db.DB) ProductRepository {
	return &productRepository{
		db: db,
	}
}

func (r productRepository) WithDB(db db.DB) ProductRepository {
	return &productRepository{
		db: db,
	}
}

const productColumns = `id, name, technique, img, price, sold, measures, weight, created_at, updated_at`

type productRow struct {
	ID        uuid.UUID      `db:"id"`
	Name      string         `db:"name"`
	Technique *string        `db:"technique"`
	Img       *string        `db:"img"`
	Price     pgtype.Numeric `db:"price"`
	Sold      bool           `db:"sold"`
	Measures  *string        `db:"measures"`
	Weight    pgtype.Numeric `db:"weight"`
	CreatedAt time.Time      `db:"created_at"`
	UpdatedAt time.Time      `db:"updated_at"`
}

func (r productRepository) CreateProduct(ctx context.Context, product model.Product) (model.Product, error) {
	price, err := toNumeric(&product.Price)
	if err != nil {
		return model.Product{}, fmt.Errorf("convert price: %w", err)
	}

	weight, err := toNumeric(product.Weight)
	if err != nil {
		return model.Product{}, fmt.Errorf("convert weight: %w", err)
	}

	stored, err := r.getOne(ctx, `
		INSERT INTO products (`+productColumns+`)
		VALUES (@id, @name, @technique, @img, @price, @sold, @measures, @weight, @created_at, @updated_at)
		RETURNING `+productColumns,
		pgx.NamedArgs{
			"id":         product.ID,
			"name":       product.Name,
			"technique":  product.Technique,
			"img":        product.Img,
			"price":      price,
			"sold":       product.Sold,
			"measures":   product.Measures,
			"weight":     weight,
			"created_at": product.CreatedAt,
			"updated_at": product.UpdatedAt,
		},
	)
	if err != nil {
		return model.Product{}, fmt.Errorf("insert product: %w", err)
	}

	return stored, nil
}

func (r productRepository) ListAllProducts(ctx context.Context) ([]model.Product, error) {
	rows, err := r.db.Query(ctx, `SELECT `+productColumns+` FROM products ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}

	productRows, err := pgx.CollectRows(rows, pgx.RowToStructByName[productRow])
	if err != nil {
		return nil, fmt.Errorf("collect products: %w", err)
	}

	products := make([]model.Product, 0, len(productRows))
	for _, row := range productRows {
		product, err := productRowToModel(row)
		if err != nil {
			return nil, fmt.Errorf("convert product row: %w", err)
		}
		products = append(products, product)
	}

	return products, nil
}

func (r productRepository) GetProductByID(ctx context.Context, id uuid.UUID) (model.Product, error) {
	return r.getOne(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id)
}

func (r productRepository) GetProductByIDForUpdate(ctx context.Context, id uuid.UUID) (model.Product, error) {
	return r.getOne(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1 FOR UPDATE`, id)
}

func (r productRepository) MarkProductSold(ctx context.Context, params MarkProductSoldParams) (model.Product, error) {
	return r.getOne(ctx, `
		UPDATE products
		SET sold = TRUE, updated_at = $2
		WHERE id = $1
		RETURNING `+productColumns,
		params.ID, params.UpdatedAt,
	)
}

func (r productRepository) getOne(ctx context.Context, query string, args ...any) (model.Product, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return model.Product{}, fmt.Errorf("query product: %w", err)
	}

	row, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[productRow])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Product{}, ErrNotFound
		}
		return model.Product{}, fmt.Errorf("collect product: %w", err)
	}

	return productRowToModel(row)
}

func productRowToModel(row productRow) (model.Product, error) {
	price, err := row.Price.Float64Value()
	if err != nil {
		return model.Product{}, fmt.Errorf("convert price to float64: %w", err)
	}

	var weight *float64
	if row.Weight.Valid {
		w, err := row.Weight.Float64Value()
		if err != nil {
			return model.Product{}, fmt.Errorf("convert weight to float64: %w", err)
		}
		weight = &w.Float64
	}

	return model.Product{
		ID:        row.ID,
		Name:      row.Name,
		Technique: row.Technique,
		Img:       row.Img,
		Price:     price.Float64,
		Sold:      row.Sold,
		Measures:  row.Measures,
		Weight:    weight,
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}, nil
}

// toNumeric converts v to a numeric parameter; nil maps to SQL NULL.
func toNumeric(v *float64) (pgtype.Numeric, error) {
	var n pgtype.Numeric
	if v == nil {
		return n, nil
	}
	if err := n.Scan(strconv.FormatFloat(*v, 'f', -1, 64)); err != nil {
		return n, err
	}
	return n, nil
}
