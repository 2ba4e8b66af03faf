package config

type Stripe struct {
	SecretKey     string `env:"STRIPE_SECRET_KEY,required"`
	WebhookSecret string `env:"STRIPE_WEBHOOK_SECRET,required"`
}

// Checkout describes the single fixed line item sold through hosted checkout.
type Checkout struct {
	Currency     string `env:"CHECKOUT_CURRENCY" envDefault:"eur"`
	UnitAmount   int64  `env:"CHECKOUT_UNIT_AMOUNT" envDefault:"2000"`
	ProductLabel string `env:"CHECKOUT_PRODUCT_LABEL" envDefault:"Producto de ejemplo"`
	SuccessURL   string `env:"CHECKOUT_SUCCESS_URL" envDefault:"https://www.fernandodesantiago.com/success"`
	CancelURL    string `env:"CHECKOUT_CANCEL_URL" envDefault:"https://www.fernandodesantiago.com/cancel"`
}
