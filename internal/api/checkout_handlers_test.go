package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/leathershop/internal/api/middleware"
	"github.com/example/leathershop/internal/auth"
	"github.com/example/leathershop/internal/cart"
	"github.com/example/leathershop/internal/checkout"
	"github.com/example/leathershop/internal/payment"
	"github.com/example/leathershop/internal/store"
)

type stubGateway struct {
	req *payment.SessionRequest
	err error
}

func (s *stubGateway) CreateSession(ctx context.Context, req payment.SessionRequest) (*payment.Session, error) {
	s.req = &req
	if s.err != nil {
		return nil, s.err
	}
	return &payment.Session{ID: "cs_test_1", URL: "https://pay.example.com/cs_test_1"}, nil
}

func (s *stubGateway) ListLineItems(ctx context.Context, sessionID string) ([]payment.ChargedItem, error) {
	return nil, errors.New("not used")
}

type stubAddresses struct {
	byID      map[string]*store.Address
	addresses []store.Address
	listErr   error
}

func (s *stubAddresses) GetAddress(ctx context.Context, id, userID string) (*store.Address, error) {
	a, ok := s.byID[id]
	if !ok || a.UserID != userID {
		return nil, store.ErrNotFound
	}
	return a, nil
}

func (s *stubAddresses) ListAddresses(ctx context.Context, userID string) ([]store.Address, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	var out []store.Address
	for _, a := range s.addresses {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	return out, nil
}

func checkoutFixture(gateway *stubGateway, addresses *stubAddresses) (*CheckoutHandlers, *cart.Store) {
	carts := cart.NewStore(time.Hour)
	orchestrator := checkout.NewOrchestrator(gateway, 5.00)
	return NewCheckoutHandlers(carts, addresses, orchestrator), carts
}

func checkoutRequest(body string, identity auth.Identity) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/checkout_sessions", strings.NewReader(body))
	req.Host = "shop.example.com"
	req.AddCookie(&http.Cookie{Name: CartCookie, Value: "session-x"})
	ctx := context.WithValue(req.Context(), middleware.IdentityContextKey, identity)
	return req.WithContext(ctx)
}

func customerIdentity() auth.Identity {
	return auth.Identity{UserID: "user-1", Email: "camille@example.com", Role: store.RoleCustomer, AuthMethod: auth.MethodPassword}
}

func TestCreateCheckoutSession(t *testing.T) {
	defaultAddress := store.Address{ID: "addr-1", UserID: "user-1", Street: "12 rue des Tanneurs",
		City: "Lyon", PostalCode: "69001", Country: "France", IsDefault: true}

	t.Run("returns payment url", func(t *testing.T) {
		gateway := &stubGateway{}
		addresses := &stubAddresses{addresses: []store.Address{defaultAddress}}
		h, carts := checkoutFixture(gateway, addresses)
		carts.Do("session-x", func(c *cart.Cart) {
			c.Add(cart.Item{ID: "p1", Name: "Sac bandoulière", Price: 149.00})
		})

		w := httptest.NewRecorder()
		h.CreateSession(w, checkoutRequest(`{"is_gift":true}`, customerIdentity()))

		require.Equal(t, http.StatusOK, w.Code)

		var resp map[string]string
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "https://pay.example.com/cs_test_1", resp["url"])

		require.NotNil(t, gateway.req)
		assert.Equal(t, "user-1", gateway.req.ClientReferenceID)
		assert.Equal(t, "http://shop.example.com/success?session_id={CHECKOUT_SESSION_ID}", gateway.req.SuccessURL)
		assert.Equal(t, "true", gateway.req.Metadata["is_gift"])
		assert.Equal(t, "Lyon", gateway.req.Metadata["shipping_city"])
		// cart line plus shipping line
		require.Len(t, gateway.req.LineItems, 2)
		assert.Equal(t, int64(14900), gateway.req.LineItems[0].UnitAmount)
		assert.Equal(t, "Frais de livraison", gateway.req.LineItems[1].Name)
	})

	t.Run("explicit address id", func(t *testing.T) {
		other := store.Address{ID: "addr-2", UserID: "user-1", Street: "3 place Bellecour",
			City: "Lyon", PostalCode: "69002", Country: "France"}
		gateway := &stubGateway{}
		addresses := &stubAddresses{byID: map[string]*store.Address{"addr-2": &other}}
		h, carts := checkoutFixture(gateway, addresses)
		carts.Do("session-x", func(c *cart.Cart) {
			c.Add(cart.Item{ID: "p1", Name: "Ceinture", Price: 45.00})
		})

		w := httptest.NewRecorder()
		h.CreateSession(w, checkoutRequest(`{"address_id":"addr-2"}`, customerIdentity()))

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "3 place Bellecour", gateway.req.Metadata["shipping_street"])
	})

	t.Run("empty cart rejected before gateway", func(t *testing.T) {
		gateway := &stubGateway{}
		addresses := &stubAddresses{addresses: []store.Address{defaultAddress}}
		h, _ := checkoutFixture(gateway, addresses)

		w := httptest.NewRecorder()
		h.CreateSession(w, checkoutRequest(`{}`, customerIdentity()))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Nil(t, gateway.req)
	})

	t.Run("no address on file", func(t *testing.T) {
		gateway := &stubGateway{}
		addresses := &stubAddresses{}
		h, carts := checkoutFixture(gateway, addresses)
		carts.Do("session-x", func(c *cart.Cart) {
			c.Add(cart.Item{ID: "p1", Name: "Ceinture", Price: 45.00})
		})

		w := httptest.NewRecorder()
		h.CreateSession(w, checkoutRequest(`{}`, customerIdentity()))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Nil(t, gateway.req)
	})

	t.Run("another user's address is invisible", func(t *testing.T) {
		foreign := store.Address{ID: "addr-9", UserID: "user-2", Street: "x", City: "y", PostalCode: "z", Country: "FR"}
		gateway := &stubGateway{}
		addresses := &stubAddresses{byID: map[string]*store.Address{"addr-9": &foreign}}
		h, carts := checkoutFixture(gateway, addresses)
		carts.Do("session-x", func(c *cart.Cart) {
			c.Add(cart.Item{ID: "p1", Name: "Ceinture", Price: 45.00})
		})

		w := httptest.NewRecorder()
		h.CreateSession(w, checkoutRequest(`{"address_id":"addr-9"}`, customerIdentity()))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Nil(t, gateway.req)
	})

	t.Run("gateway failure maps to bad gateway", func(t *testing.T) {
		gateway := &stubGateway{err: errors.New("provider down")}
		addresses := &stubAddresses{addresses: []store.Address{defaultAddress}}
		h, carts := checkoutFixture(gateway, addresses)
		carts.Do("session-x", func(c *cart.Cart) {
			c.Add(cart.Item{ID: "p1", Name: "Ceinture", Price: 45.00})
		})

		w := httptest.NewRecorder()
		h.CreateSession(w, checkoutRequest(`{}`, customerIdentity()))

		assert.Equal(t, http.StatusBadGateway, w.Code)
	})

	t.Run("cart untouched after failure", func(t *testing.T) {
		gateway := &stubGateway{err: errors.New("provider down")}
		addresses := &stubAddresses{addresses: []store.Address{defaultAddress}}
		h, carts := checkoutFixture(gateway, addresses)
		carts.Do("session-x", func(c *cart.Cart) {
			c.Add(cart.Item{ID: "p1", Name: "Ceinture", Price: 45.00})
		})

		w := httptest.NewRecorder()
		h.CreateSession(w, checkoutRequest(`{}`, customerIdentity()))

		items, _, count := carts.Snapshot("session-x")
		require.Len(t, items, 1)
		assert.Equal(t, 1, count)
	})
}

func TestRequestOrigin(t *testing.T) {
	t.Run("plain host", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Host = "shop.example.com"
		assert.Equal(t, "http://shop.example.com", requestOrigin(r))
	})

	t.Run("forwarded proto and host", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("X-Forwarded-Proto", "https")
		r.Header.Set("X-Forwarded-Host", "www.kti-cuir.fr")
		assert.Equal(t, "https://www.kti-cuir.fr", requestOrigin(r))
	})
}
