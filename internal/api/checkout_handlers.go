package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/example/leathershop/internal/api/middleware"
	"github.com/example/leathershop/internal/cart"
	"github.com/example/leathershop/internal/checkout"
	"github.com/example/leathershop/internal/store"
)

// AddressReader resolves the shipping address for a checkout.
type AddressReader interface {
	GetAddress(ctx context.Context, id, userID string) (*store.Address, error)
	ListAddresses(ctx context.Context, userID string) ([]store.Address, error)
}

// CheckoutHandlers opens hosted payment sessions. The cart is read from
// the cart cookie server-side; the client never submits prices.
type CheckoutHandlers struct {
	carts        *cart.Store
	addresses    AddressReader
	orchestrator *checkout.Orchestrator
}

func NewCheckoutHandlers(carts *cart.Store, addresses AddressReader, orchestrator *checkout.Orchestrator) *CheckoutHandlers {
	return &CheckoutHandlers{carts: carts, addresses: addresses, orchestrator: orchestrator}
}

// CheckoutRequest selects the shipping address for the session. An empty
// AddressID means the default address.
type CheckoutRequest struct {
	AddressID string `json:"address_id"`
	IsGift    bool   `json:"is_gift"`
}

// CreateSession builds a payment session from the current cart and the
// chosen address and returns the payment page URL. On any failure the
// cart is untouched and the call can simply be retried.
func (h *CheckoutHandlers) CreateSession(w http.ResponseWriter, r *http.Request) {
	identity := middleware.GetIdentity(r.Context())

	var req CheckoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	token := ""
	if cookie, err := r.Cookie(CartCookie); err == nil {
		token = cookie.Value
	}
	items, _, _ := h.carts.Snapshot(token)
	if len(items) == 0 {
		respondJSONError(w, "Cart is empty", http.StatusBadRequest)
		return
	}

	address, err := h.resolveAddress(r.Context(), req.AddressID, identity.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondJSONError(w, "No shipping address on file", http.StatusBadRequest)
			return
		}
		respondJSONError(w, "Failed to load address", http.StatusInternalServerError)
		return
	}

	sessionURL, err := h.orchestrator.CreateSession(r.Context(), checkout.Request{
		Items: items,
		Address: checkout.ShippingAddress{
			Street:     address.Street,
			City:       address.City,
			PostalCode: address.PostalCode,
			Country:    address.Country,
		},
		IsGift:   req.IsGift,
		User:     identity,
		Origin:   requestOrigin(r),
		ClientIP: clientIP(r),
	})
	if err != nil {
		switch {
		case errors.Is(err, checkout.ErrEmptyCart), errors.Is(err, checkout.ErrNoAddress):
			respondJSONError(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, checkout.ErrNotAuthenticated):
			respondJSONError(w, "unauthorized", http.StatusUnauthorized)
		default:
			respondJSONError(w, "Payment session could not be created", http.StatusBadGateway)
		}
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"url": sessionURL})
}

// resolveAddress picks the requested address, or falls back to the
// default one (the list is sorted default-first).
func (h *CheckoutHandlers) resolveAddress(ctx context.Context, addressID, userID string) (*store.Address, error) {
	if addressID != "" {
		return h.addresses.GetAddress(ctx, addressID, userID)
	}

	addresses, err := h.addresses.ListAddresses(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(addresses) == 0 {
		return nil, store.ErrNotFound
	}
	return &addresses[0], nil
}

// requestOrigin reconstructs the scheme://host origin the browser used,
// honoring the proxy's forwarded headers.
func requestOrigin(r *http.Request) string {
	scheme := "http"
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	} else if r.TLS != nil {
		scheme = "https"
	}
	host := r.Header.Get("X-Forwarded-Host")
	if host == "" {
		host = r.Host
	}
	return scheme + "://" + host
}
