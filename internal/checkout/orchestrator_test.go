package checkout

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/leathershop/internal/auth"
	"github.com/example/leathershop/internal/cart"
	"github.com/example/leathershop/internal/payment"
)

// fakeGateway records session requests and returns a canned session.
type fakeGateway struct {
	createCalls []payment.SessionRequest
	session     *payment.Session
	err         error
}

func (f *fakeGateway) CreateSession(_ context.Context, req payment.SessionRequest) (*payment.Session, error) {
	f.createCalls = append(f.createCalls, req)
	if f.err != nil {
		return nil, f.err
	}
	return f.session, nil
}

func (f *fakeGateway) ListLineItems(context.Context, string) ([]payment.ChargedItem, error) {
	return nil, nil
}

func validRequest() Request {
	return Request{
		Items: []cart.Item{
			{ID: "a", Name: "Sac bandoulière", Price: 149.00, Quantity: 1},
			{ID: "b", Name: "Porte-cartes", Price: 35.50, Quantity: 2},
		},
		Address: ShippingAddress{
			Street:     "12 rue des Tanneurs",
			City:       "Lyon",
			PostalCode: "69005",
			Country:    "France",
		},
		User:     auth.Identity{UserID: "user-1", Email: "client@example.com", AuthMethod: auth.MethodPassword},
		Origin:   "https://shop.example.com",
		ClientIP: "203.0.113.7",
	}
}

func TestMinorUnits(t *testing.T) {
	tests := []struct {
		price float64
		want  int64
	}{
		{20.00, 2000},
		{9.99, 999},
		{0.01, 1},
		{5.00, 500},
		{149.00, 14900},
		{0, 0},
		// Boundary cases: the scaled float64 value sits just below .5, so
		// half-away-from-zero lands on the lower cent. Pinned here so the
		// charged amount can never drift from the displayed one.
		{19.995, 1999},
		{2.675, 267},
		{1.005, 100},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%v", tt.price), func(t *testing.T) {
			assert.Equal(t, tt.want, MinorUnits(tt.price))
		})
	}
}

func TestCreateSession_BuildsLineItems(t *testing.T) {
	gw := &fakeGateway{session: &payment.Session{ID: "cs_123", URL: "https://pay.example.com/cs_123"}}
	o := NewOrchestrator(gw, 5.00)

	url, err := o.CreateSession(context.Background(), validRequest())

	require.NoError(t, err)
	assert.Equal(t, "https://pay.example.com/cs_123", url)

	require.Len(t, gw.createCalls, 1)
	req := gw.createCalls[0]

	require.Len(t, req.LineItems, 3, "two products plus the shipping line")
	assert.Equal(t, payment.LineItem{Name: "Sac bandoulière", UnitAmount: 14900, Quantity: 1}, req.LineItems[0])
	assert.Equal(t, payment.LineItem{Name: "Porte-cartes", UnitAmount: 3550, Quantity: 2}, req.LineItems[1])
	assert.Equal(t, payment.LineItem{Name: "Frais de livraison", UnitAmount: 500, Quantity: 1}, req.LineItems[2])

	assert.Equal(t, "https://shop.example.com/success?session_id={CHECKOUT_SESSION_ID}", req.SuccessURL)
	assert.Equal(t, "https://shop.example.com/panier", req.CancelURL)
	assert.Equal(t, "client@example.com", req.CustomerEmail)
	assert.Equal(t, "user-1", req.ClientReferenceID)
}

func TestCreateSession_MetadataBag(t *testing.T) {
	gw := &fakeGateway{session: &payment.Session{ID: "cs_123", URL: "https://pay.example.com/cs_123"}}
	o := NewOrchestrator(gw, 5.00)

	req := validRequest()
	req.IsGift = true
	_, err := o.CreateSession(context.Background(), req)
	require.NoError(t, err)

	meta := gw.createCalls[0].Metadata
	assert.Equal(t, "203.0.113.7", meta["customer_ip"])
	assert.Equal(t, "12 rue des Tanneurs", meta["shipping_street"])
	assert.Equal(t, "Lyon", meta["shipping_city"])
	assert.Equal(t, "69005", meta["shipping_postal_code"])
	assert.Equal(t, "France", meta["shipping_country"])
	assert.Equal(t, "true", meta["is_gift"])
}

func TestCreateSession_NoShippingLineWhenFree(t *testing.T) {
	gw := &fakeGateway{session: &payment.Session{ID: "cs_123", URL: "https://pay.example.com/cs_123"}}
	o := NewOrchestrator(gw, 0)

	_, err := o.CreateSession(context.Background(), validRequest())

	require.NoError(t, err)
	assert.Len(t, gw.createCalls[0].LineItems, 2)
}

func TestCreateSession_EmptyCartRejectedBeforeNetworkCall(t *testing.T) {
	gw := &fakeGateway{session: &payment.Session{ID: "cs_123", URL: "https://pay.example.com/cs_123"}}
	o := NewOrchestrator(gw, 5.00)

	req := validRequest()
	req.Items = nil
	_, err := o.CreateSession(context.Background(), req)

	assert.ErrorIs(t, err, ErrEmptyCart)
	assert.Empty(t, gw.createCalls, "the gateway must not be called for an empty cart")
}

func TestCreateSession_AnonymousRejected(t *testing.T) {
	gw := &fakeGateway{session: &payment.Session{ID: "cs_123", URL: "https://pay.example.com/cs_123"}}
	o := NewOrchestrator(gw, 5.00)

	req := validRequest()
	req.User = auth.Anonymous()
	_, err := o.CreateSession(context.Background(), req)

	assert.ErrorIs(t, err, ErrNotAuthenticated)
	assert.Empty(t, gw.createCalls)
}

func TestCreateSession_MissingAddressRejected(t *testing.T) {
	gw := &fakeGateway{session: &payment.Session{ID: "cs_123", URL: "https://pay.example.com/cs_123"}}
	o := NewOrchestrator(gw, 5.00)

	req := validRequest()
	req.Address = ShippingAddress{}
	_, err := o.CreateSession(context.Background(), req)

	assert.ErrorIs(t, err, ErrNoAddress)
}

func TestCreateSession_GatewayErrorPropagates(t *testing.T) {
	gw := &fakeGateway{err: errors.New("stripe is down")}
	o := NewOrchestrator(gw, 5.00)

	_, err := o.CreateSession(context.Background(), validRequest())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "stripe is down")
}

func TestCreateSession_MissingSessionURL(t *testing.T) {
	gw := &fakeGateway{session: &payment.Session{ID: "cs_123"}}
	o := NewOrchestrator(gw, 5.00)

	_, err := o.CreateSession(context.Background(), validRequest())

	assert.ErrorIs(t, err, payment.ErrNoSessionURL)
}
