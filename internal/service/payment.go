package service

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/desantiago/gallery-shop/internal/apperr"
	"github.com/desantiago/gallery-shop/internal/payment"
)

type PaymentService interface {
	CreateCheckoutSession(ctx context.Context) (payment.CheckoutSession, error)
	// HandleWebhook verifies rawBody before interpreting it. Any verified
	// event is acknowledged, whatever its type.
	HandleWebhook(ctx context.Context, rawBody []byte, signature string) error
}

type paymentService struct {
	logger  *slog.Logger
	gateway payment.Gateway
}

func NewPaymentService(logger *slog.Logger, gateway payment.Gateway) PaymentService {
	return &paymentService{
		logger:  logger.With(slog.String("service", "payment")),
		gateway: gateway,
	}
}

func (s *paymentService) CreateCheckoutSession(ctx context.Context) (payment.CheckoutSession, error) {
	session, err := s.gateway.CreateCheckoutSession(ctx)
	if err != nil {
		return payment.CheckoutSession{}, apperr.PaymentProviderErr.WithMsg(err.Error()).WrapParent(err)
	}

	return session, nil
}

func (s *paymentService) HandleWebhook(ctx context.Context, rawBody []byte, signature string) error {
	ev, err := s.gateway.ConstructEvent(rawBody, signature)
	if err != nil {
		return apperr.WebhookSignatureErr.
			WithMsgf("webhook error: %v", err).
			WrapParent(err)
	}

	logger := s.logger.With(slog.String("event_id", ev.ID), slog.String("event_type", ev.Type))

	switch ev.Type {
	case payment.EventTypeCheckoutSessionCompleted:
		var session struct {
			ID string `json:"id"`
		}
		if err := json.Unmarshal(ev.Data, &session); err != nil {
			logger.WarnContext(ctx, "error decoding checkout session", slog.Any("error", err))
			return nil
		}
		logger.InfoContext(ctx, "payment completed", slog.String("session_id", session.ID))
	default:
		logger.DebugContext(ctx, "ignoring webhook event")
	}

	return nil
}
