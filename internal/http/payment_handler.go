package http

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/desantiago/gallery-shop/internal/http/middleware"
	"github.com/desantiago/gallery-shop/internal/payment"
	"github.com/desantiago/gallery-shop/internal/service"
)

type checkoutSessionResponse struct {
	URL string `json:"url"`
}

type webhookResponse struct {
	Received bool `json:"received"`
}

type paymentHandler struct {
	paymentSvc service.PaymentService
}

func newPaymentHandler(paymentSvc service.PaymentService) *paymentHandler {
	return &paymentHandler{
		paymentSvc: paymentSvc,
	}
}

func (h *paymentHandler) CreateCheckoutSession(w http.ResponseWriter, r *http.Request) error {
	session, err := h.paymentSvc.CreateCheckoutSession(r.Context())
	if err != nil {
		return fmt.Errorf("payment service create checkout session: %w", err)
	}

	return writeJSON(w, http.StatusOK, checkoutSessionResponse{URL: session.URL})
}

// Webhook must be mounted behind middleware.RawBody.
func (h *paymentHandler) Webhook(w http.ResponseWriter, r *http.Request) error {
	body, ok := middleware.RawBodyFromContext(r.Context())
	if !ok {
		return errors.New("webhook route mounted without raw body capture")
	}

	if err := h.paymentSvc.HandleWebhook(r.Context(), body, r.Header.Get(payment.SignatureHeader)); err != nil {
		return fmt.Errorf("payment service handle webhook: %w", err)
	}

	return writeJSON(w, http.StatusOK, webhookResponse{Received: true})
}
