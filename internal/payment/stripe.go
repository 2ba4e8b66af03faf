package payment

import (
	"context"
	"fmt"

	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/client"
	"github.com/stripe/stripe-go/v81/webhook"

	"github.com/desantiago/gallery-shop/internal/config"
)

// SignatureHeader carries the webhook signature.
const SignatureHeader = "Stripe-Signature"

var _ Gateway = (*StripeGateway)(nil)

type StripeGateway struct {
	api           *client.API
	webhookSecret string
	checkout      config.Checkout
}

func NewStripeGateway(cfg config.Stripe, checkout config.Checkout) *StripeGateway {
	return &StripeGateway{
		api:           client.New(cfg.SecretKey, nil),
		webhookSecret: cfg.WebhookSecret,
		checkout:      checkout,
	}
}

func (g *StripeGateway) CreateCheckoutSession(ctx context.Context) (CheckoutSession, error) {
	params := checkoutSessionParams(g.checkout)
	params.Context = ctx

	s, err := g.api.CheckoutSessions.New(params)
	if err != nil {
		return CheckoutSession{}, fmt.Errorf("stripe create checkout session: %w", err)
	}

	return CheckoutSession{
		ID:  s.ID,
		URL: s.URL,
	}, nil
}

func (g *StripeGateway) ConstructEvent(payload []byte, signature string) (Event, error) {
	ev, err := webhook.ConstructEventWithOptions(payload, signature, g.webhookSecret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return Event{}, err
	}

	e := Event{
		ID:   ev.ID,
		Type: string(ev.Type),
	}
	if ev.Data != nil {
		e.Data = ev.Data.Raw
	}

	return e, nil
}

// checkoutSessionParams builds a one-off payment for a single fixed line item.
func checkoutSessionParams(cfg config.Checkout) *stripe.CheckoutSessionParams {
	return &stripe.CheckoutSessionParams{
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency: stripe.String(cfg.Currency),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(cfg.ProductLabel),
					},
					UnitAmount: stripe.Int64(cfg.UnitAmount),
				},
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL: stripe.String(cfg.SuccessURL),
		CancelURL:  stripe.String(cfg.CancelURL),
	}
}
