package payment

import (
	"context"

	"github.com/google/uuid"
)

// CheckoutItem is one priced line sent to the payment provider.
// UnitAmount is in minor units (cents).
type CheckoutItem struct {
	Name       string
	Quantity   int
	UnitAmount int64
}

// CreateSessionInput contains what the provider needs to open a session
type CreateSessionInput struct {
	UserID   uuid.UUID
	Currency string
	Items    []CheckoutItem
}

// CheckoutSession is the provider's handle for an in-flight payment
type CheckoutSession struct {
	SessionID string `json:"session_id"`
	URL       string `json:"url"`
}

// SessionStatus is the provider's view of a session when queried directly
type SessionStatus struct {
	SessionID string
	UserID    uuid.UUID
	Paid      bool
}

// WebhookEvent is a verified provider notification about a session
type WebhookEvent struct {
	EventID   string
	EventType string
	SessionID string
	UserID    uuid.UUID
	Paid      bool
}

// Gateway abstracts the external payment collaborator. The checkout flow
// treats it as authoritative: an order is recorded only after the gateway
// confirms payment.
type Gateway interface {
	// CreateCheckoutSession opens a payment session for the given items
	CreateCheckoutSession(ctx context.Context, input CreateSessionInput) (*CheckoutSession, error)

	// RetrieveSession asks the provider for the current state of a session.
	// Used by the confirm endpoint; the provider's answer is authoritative.
	RetrieveSession(ctx context.Context, sessionID string) (*SessionStatus, error)

	// VerifyWebhook checks the signature of a webhook delivery and decodes
	// it. An invalid signature is an error, never a silent accept.
	VerifyWebhook(payload []byte, signature string) (*WebhookEvent, error)
}
