package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	stripe "github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/client"
	"github.com/stripe/stripe-go/v82/webhook"
)

var ErrNoSessionURL = errors.New("checkout session has no URL")

// StripeGateway implements Gateway and Verifier against the Stripe API.
type StripeGateway struct {
	api           *client.API
	currency      string
	webhookSecret string
}

// NewStripeGateway builds a gateway for one account. currency is the
// ISO 4217 code used for all price data (the shop sells in "eur").
func NewStripeGateway(secretKey, webhookSecret, currency string) *StripeGateway {
	api := &client.API{}
	api.Init(secretKey, nil)
	return &StripeGateway{
		api:           api,
		currency:      currency,
		webhookSecret: webhookSecret,
	}
}

// CreateSession creates a hosted checkout session. Never retried blindly:
// a duplicate call would open a second payable session.
func (g *StripeGateway) CreateSession(ctx context.Context, req SessionRequest) (*Session, error) {
	params := &stripe.CheckoutSessionParams{
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		SuccessURL:         stripe.String(req.SuccessURL),
		CancelURL:          stripe.String(req.CancelURL),
	}
	params.Context = ctx
	if req.CustomerEmail != "" {
		params.CustomerEmail = stripe.String(req.CustomerEmail)
	}
	if req.ClientReferenceID != "" {
		params.ClientReferenceID = stripe.String(req.ClientReferenceID)
	}
	for _, li := range req.LineItems {
		params.LineItems = append(params.LineItems, &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:   stripe.String(g.currency),
				UnitAmount: stripe.Int64(li.UnitAmount),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(li.Name),
				},
			},
			Quantity: stripe.Int64(li.Quantity),
		})
	}
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}

	s, err := g.api.CheckoutSessions.New(params)
	if err != nil {
		return nil, fmt.Errorf("create checkout session: %w", err)
	}
	if s.URL == "" {
		return nil, ErrNoSessionURL
	}
	return &Session{ID: s.ID, URL: s.URL}, nil
}

// ListLineItems returns the line items Stripe recorded against a session.
func (g *StripeGateway) ListLineItems(ctx context.Context, sessionID string) ([]ChargedItem, error) {
	params := &stripe.CheckoutSessionListLineItemsParams{
		Session: stripe.String(sessionID),
	}
	params.Context = ctx

	var items []ChargedItem
	iter := g.api.CheckoutSessions.ListLineItems(params)
	for iter.Next() {
		li := iter.LineItem()
		item := ChargedItem{
			Description: li.Description,
			Quantity:    li.Quantity,
		}
		if li.Price != nil {
			item.UnitAmount = li.Price.UnitAmount
		}
		items = append(items, item)
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("list line items for %s: %w", sessionID, err)
	}
	return items, nil
}

// VerifyEvent checks the signature header against the shared webhook
// secret and decodes the event. An invalid signature returns an error and
// the event is dropped.
func (g *StripeGateway) VerifyEvent(payload []byte, signatureHeader string) (*Event, error) {
	ev, err := webhook.ConstructEvent(payload, signatureHeader, g.webhookSecret)
	if err != nil {
		return nil, fmt.Errorf("verify webhook signature: %w", err)
	}

	out := &Event{ID: ev.ID, Type: string(ev.Type)}
	if ev.Type == stripe.EventTypeCheckoutSessionCompleted {
		var cs stripe.CheckoutSession
		if err := json.Unmarshal(ev.Data.Raw, &cs); err != nil {
			return nil, fmt.Errorf("decode checkout session: %w", err)
		}
		email := cs.CustomerEmail
		if cs.CustomerDetails != nil && cs.CustomerDetails.Email != "" {
			email = cs.CustomerDetails.Email
		}
		out.Session = &CompletedSession{
			ID:                cs.ID,
			ClientReferenceID: cs.ClientReferenceID,
			CustomerEmail:     email,
			AmountTotal:       cs.AmountTotal,
			Metadata:          cs.Metadata,
		}
	}
	return out, nil
}
