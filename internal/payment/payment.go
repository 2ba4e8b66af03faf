// Package payment talks to the hosted checkout provider.
package payment

import (
	"context"
	"encoding/json"
)

const EventTypeCheckoutSessionCompleted = "checkout.session.completed"

type CheckoutSession struct {
	ID  string
	URL string
}

// Event is a provider notification whose signature has already been verified.
type Event struct {
	ID   string
	Type string
	// Data is the raw JSON of the object the event refers to.
	Data json.RawMessage
}

type Gateway interface {
	CreateCheckoutSession(ctx context.Context) (CheckoutSession, error)
	// ConstructEvent verifies signature against the exact payload bytes
	// before decoding them.
	ConstructEvent(payload []byte, signature string) (Event, error)
}
