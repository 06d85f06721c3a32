package checkout

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/example/leathershop/internal/auth"
	"github.com/example/leathershop/internal/cart"
	"github.com/example/leathershop/internal/payment"
)

var (
	ErrEmptyCart        = errors.New("cart is empty")
	ErrNotAuthenticated = errors.New("checkout requires an authenticated user")
	ErrNoAddress        = errors.New("a shipping address is required")
)

// ShippingAddress is the address snapshot carried by value into the
// payment session metadata. It is not a reference to the stored record.
type ShippingAddress struct {
	Street     string
	City       string
	PostalCode string
	Country    string
}

// Request is everything needed to open a hosted payment session.
type Request struct {
	Items    []cart.Item
	Address  ShippingAddress
	IsGift   bool
	User     auth.Identity
	Origin   string
	ClientIP string
}

// Orchestrator turns a cart plus shipping and identity into a payment
// session. It mutates no local state; on failure the cart is untouched and
// the operation is safely retryable by the user.
type Orchestrator struct {
	gateway       payment.Gateway
	shippingCost  float64
	shippingLabel string
}

func NewOrchestrator(gateway payment.Gateway, shippingCost float64) *Orchestrator {
	return &Orchestrator{
		gateway:       gateway,
		shippingCost:  shippingCost,
		shippingLabel: "Frais de livraison",
	}
}

// ShippingCost returns the fixed shipping cost in major units.
func (o *Orchestrator) ShippingCost() float64 {
	return o.shippingCost
}

// MinorUnits converts a major-unit price to provider minor units (cents).
// The rule is half-away-from-zero applied to the scaled float64 value;
// this single function is the authoritative monetary conversion, used for
// every charged amount, so display and charge cannot drift.
func MinorUnits(price float64) int64 {
	return int64(math.Round(price * 100))
}

// CreateSession validates the request, builds one price line per cart item
// plus a shipping line, and opens the hosted session. The returned string
// is the payment page URL. An empty cart is rejected before any network
// call is made.
func (o *Orchestrator) CreateSession(ctx context.Context, req Request) (string, error) {
	if len(req.Items) == 0 {
		return "", ErrEmptyCart
	}
	if !req.User.IsAuthenticated() {
		return "", ErrNotAuthenticated
	}
	if req.Address == (ShippingAddress{}) {
		return "", ErrNoAddress
	}

	lines := make([]payment.LineItem, 0, len(req.Items)+1)
	for _, it := range req.Items {
		lines = append(lines, payment.LineItem{
			Name:       it.Name,
			UnitAmount: MinorUnits(it.Price),
			Quantity:   int64(it.Quantity),
		})
	}
	if o.shippingCost > 0 {
		lines = append(lines, payment.LineItem{
			Name:       o.shippingLabel,
			UnitAmount: MinorUnits(o.shippingCost),
			Quantity:   1,
		})
	}

	session, err := o.gateway.CreateSession(ctx, payment.SessionRequest{
		LineItems:         lines,
		SuccessURL:        req.Origin + "/success?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:         req.Origin + "/panier",
		CustomerEmail:     req.User.Email,
		ClientReferenceID: req.User.UserID,
		Metadata:          metadataBag(req),
	})
	if err != nil {
		return "", fmt.Errorf("create payment session: %w", err)
	}
	if session.URL == "" {
		return "", payment.ErrNoSessionURL
	}
	return session.URL, nil
}

// metadataBag builds the opaque key-value payload round-tripped back on
// the completion event.
func metadataBag(req Request) map[string]string {
	isGift := "false"
	if req.IsGift {
		isGift = "true"
	}
	ip := req.ClientIP
	if ip == "" {
		ip = "N/A"
	}
	return map[string]string{
		"customer_ip":          ip,
		"shipping_street":      req.Address.Street,
		"shipping_city":        req.Address.City,
		"shipping_postal_code": req.Address.PostalCode,
		"shipping_country":     req.Address.Country,
		"is_gift":              isGift,
	}
}
