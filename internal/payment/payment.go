// Package payment wraps the hosted-checkout provider behind small
// interfaces so the checkout orchestrator and the fulfillment webhook can
// be exercised without network calls.
package payment

import "context"

// LineItem is one price line of a checkout session. Amounts are in minor
// currency units (cents).
type LineItem struct {
	Name       string
	UnitAmount int64
	Quantity   int64
}

// SessionRequest describes a hosted-checkout session to create.
type SessionRequest struct {
	LineItems         []LineItem
	SuccessURL        string
	CancelURL         string
	CustomerEmail     string
	ClientReferenceID string
	Metadata          map[string]string
}

// Session is a created hosted-checkout session. URL is where the browser
// is redirected to pay.
type Session struct {
	ID  string
	URL string
}

// ChargedItem is a line item as recorded by the provider against a
// completed session. This, not the client-submitted cart, is the source of
// truth for what was charged.
type ChargedItem struct {
	Description string
	Quantity    int64
	UnitAmount  int64
}

// CompletedSession is the payload of a payment-completion event. Metadata
// is the opaque bag written at session creation, round-tripped back.
type CompletedSession struct {
	ID                string
	ClientReferenceID string
	CustomerEmail     string
	AmountTotal       int64
	Metadata          map[string]string
}

// Event is a verified webhook event.
type Event struct {
	ID   string
	Type string
	// Session is set when Type is EventCheckoutCompleted.
	Session *CompletedSession
}

const EventCheckoutCompleted = "checkout.session.completed"

// Gateway creates sessions and reads back what was charged.
type Gateway interface {
	CreateSession(ctx context.Context, req SessionRequest) (*Session, error)
	ListLineItems(ctx context.Context, sessionID string) ([]ChargedItem, error)
}

// Verifier authenticates a raw webhook payload against its signature
// header and decodes the event.
type Verifier interface {
	VerifyEvent(payload []byte, signatureHeader string) (*Event, error)
}
