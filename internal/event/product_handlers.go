package event

import (
	"context"
	"log/slog"
	"time"

	"github.com/desantiago/gallery-shop/pkg/ptr"
)

const (
	TopicProductCreated = "product.created"
	TopicProductSold    = "product.sold"
)

type ProductCreatedEvent struct {
	ProductID string   `json:"product_id"`
	Name      string   `json:"name"`
	Technique *string  `json:"technique,omitempty"`
	Price     float64  `json:"price"`
	Weight    *float64 `json:"weight,omitempty"`
}

type ProductSoldEvent struct {
	ProductID string    `json:"product_id"`
	Name      string    `json:"name"`
	Price     float64   `json:"price"`
	SoldAt    time.Time `json:"sold_at"`
}

func (s *Service) handleProductCreatedEvent(ctx context.Context, ev ProductCreatedEvent) error {
	s.logger.InfoContext(ctx, "handling product created event",
		slog.String("product_id", ev.ProductID),
		slog.String("name", ev.Name),
		slog.String("technique", ptr.Deref(ev.Technique, "")),
		slog.Float64("price", ev.Price),
	)
	return nil
}

func (s *Service) handleProductSoldEvent(ctx context.Context, ev ProductSoldEvent) error {
	s.logger.InfoContext(ctx, "handling product sold event",
		slog.String("product_id", ev.ProductID),
		slog.Float64("price", ev.Price),
		slog.Time("sold_at", ev.SoldAt),
	)
	return nil
}
