package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/example/leathershop/internal/api/middleware"
	"github.com/example/leathershop/internal/store"
)

// ProfileStore persists the user's display profile.
type ProfileStore interface {
	GetProfile(ctx context.Context, userID string) (*store.Profile, error)
	UpsertProfile(ctx context.Context, p store.Profile) error
}

// AddressStore persists shipping addresses, always scoped to their owner.
type AddressStore interface {
	ListAddresses(ctx context.Context, userID string) ([]store.Address, error)
	GetAddress(ctx context.Context, id, userID string) (*store.Address, error)
	CreateAddress(ctx context.Context, a store.Address) (*store.Address, error)
	UpdateAddress(ctx context.Context, a store.Address) error
	DeleteAddress(ctx context.Context, id, userID string) error
}

// OrderReader is the read-only order history view.
type OrderReader interface {
	ListOrdersByUser(ctx context.Context, userID string) ([]store.Order, error)
	GetOrder(ctx context.Context, id, userID string) (*store.Order, error)
}

// AccountHandlers serves the signed-in customer's own data: profile,
// addresses, order history. Every query is scoped by the authenticated
// user id, never by a client-supplied one.
type AccountHandlers struct {
	profiles  ProfileStore
	addresses AddressStore
	orders    OrderReader
}

func NewAccountHandlers(profiles ProfileStore, addresses AddressStore, orders OrderReader) *AccountHandlers {
	return &AccountHandlers{profiles: profiles, addresses: addresses, orders: orders}
}

// GetProfile returns the profile, or an empty one when none was saved yet.
func (h *AccountHandlers) GetProfile(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	profile, err := h.profiles.GetProfile(r.Context(), userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondJSON(w, http.StatusOK, store.Profile{UserID: userID})
			return
		}
		respondJSONError(w, "Failed to load profile", http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, profile)
}

// PutProfile creates or replaces the profile.
func (h *AccountHandlers) PutProfile(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req struct {
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
		Phone     string `json:"phone"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	profile := store.Profile{
		UserID:    userID,
		FirstName: strings.TrimSpace(req.FirstName),
		LastName:  strings.TrimSpace(req.LastName),
		Phone:     strings.TrimSpace(req.Phone),
	}
	if err := h.profiles.UpsertProfile(r.Context(), profile); err != nil {
		respondJSONError(w, "Failed to save profile", http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, profile)
}

// AddressRequest carries an address to create or update. All four fields
// are required.
type AddressRequest struct {
	Street     string `json:"street"`
	City       string `json:"city"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
	IsDefault  bool   `json:"is_default"`
}

func (req *AddressRequest) validate() error {
	req.Street = strings.TrimSpace(req.Street)
	req.City = strings.TrimSpace(req.City)
	req.PostalCode = strings.TrimSpace(req.PostalCode)
	req.Country = strings.TrimSpace(req.Country)
	if req.Street == "" || req.City == "" || req.PostalCode == "" || req.Country == "" {
		return errors.New("street, city, postal code and country are required")
	}
	return nil
}

func (h *AccountHandlers) ListAddresses(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	addresses, err := h.addresses.ListAddresses(r.Context(), userID)
	if err != nil {
		respondJSONError(w, "Failed to load addresses", http.StatusInternalServerError)
		return
	}
	if addresses == nil {
		addresses = []store.Address{}
	}
	respondJSON(w, http.StatusOK, addresses)
}

func (h *AccountHandlers) CreateAddress(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req AddressRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := req.validate(); err != nil {
		respondJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	created, err := h.addresses.CreateAddress(r.Context(), store.Address{
		UserID:     userID,
		Street:     req.Street,
		City:       req.City,
		PostalCode: req.PostalCode,
		Country:    req.Country,
		IsDefault:  req.IsDefault,
	})
	if err != nil {
		respondJSONError(w, "Failed to save address", http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusCreated, created)
}

func (h *AccountHandlers) UpdateAddress(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	id := chi.URLParam(r, "id")

	var req AddressRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := req.validate(); err != nil {
		respondJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	err := h.addresses.UpdateAddress(r.Context(), store.Address{
		ID:         id,
		UserID:     userID,
		Street:     req.Street,
		City:       req.City,
		PostalCode: req.PostalCode,
		Country:    req.Country,
		IsDefault:  req.IsDefault,
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondJSONError(w, "Address not found", http.StatusNotFound)
			return
		}
		respondJSONError(w, "Failed to save address", http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Address updated"})
}

func (h *AccountHandlers) DeleteAddress(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	id := chi.URLParam(r, "id")

	if err := h.addresses.DeleteAddress(r.Context(), id, userID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondJSONError(w, "Address not found", http.StatusNotFound)
			return
		}
		respondJSONError(w, "Failed to delete address", http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Address deleted"})
}

// ListOrders returns the user's order history, newest first.
func (h *AccountHandlers) ListOrders(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	orders, err := h.orders.ListOrdersByUser(r.Context(), userID)
	if err != nil {
		respondJSONError(w, "Failed to load orders", http.StatusInternalServerError)
		return
	}
	if orders == nil {
		orders = []store.Order{}
	}
	respondJSON(w, http.StatusOK, orders)
}

func (h *AccountHandlers) GetOrder(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	id := chi.URLParam(r, "id")

	order, err := h.orders.GetOrder(r.Context(), id, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondJSONError(w, "Order not found", http.StatusNotFound)
			return
		}
		respondJSONError(w, "Failed to load order", http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, order)
}
