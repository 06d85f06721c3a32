package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/example/leathershop/internal/cart"
)

// CartCookie is the cookie holding the opaque cart session token. It is
// separate from the auth session: an anonymous visitor has a cart too.
const CartCookie = "cart_session"

// CartHandlers exposes the session cart over HTTP.
type CartHandlers struct {
	carts *cart.Store
}

func NewCartHandlers(carts *cart.Store) *CartHandlers {
	return &CartHandlers{carts: carts}
}

// CartResponse is the cart snapshot returned after every cart operation,
// totals derived server-side.
type CartResponse struct {
	Items []cart.Item `json:"items"`
	Total float64     `json:"total"`
	Count int         `json:"count"`
}

// AddItemRequest carries the product snapshot to add. Quantity is always
// one per call; adding an already-present product increments it.
type AddItemRequest struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Image     string  `json:"image"`
	Reference string  `json:"reference"`
}

// GetCart returns the current snapshot without creating a session.
func (h *CartHandlers) GetCart(w http.ResponseWriter, r *http.Request) {
	token := h.sessionToken(w, r)
	items, total, count := h.carts.Snapshot(token)
	if items == nil {
		items = []cart.Item{}
	}
	respondJSON(w, http.StatusOK, CartResponse{Items: items, Total: total, Count: count})
}

// AddItem adds one unit of a product to the cart.
func (h *CartHandlers) AddItem(w http.ResponseWriter, r *http.Request) {
	var req AddItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.ID == "" || req.Name == "" || req.Price <= 0 {
		respondJSONError(w, "Product id, name and a positive price are required", http.StatusBadRequest)
		return
	}

	token := h.sessionToken(w, r)
	h.carts.Do(token, func(c *cart.Cart) {
		c.Add(cart.Item{
			ID:        req.ID,
			Name:      req.Name,
			Price:     req.Price,
			Image:     req.Image,
			Reference: req.Reference,
		})
	})
	h.respondSnapshot(w, token)
}

// UpdateItem sets the quantity of a line. A quantity of zero or less
// removes it.
func (h *CartHandlers) UpdateItem(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req struct {
		Quantity int `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	token := h.sessionToken(w, r)
	h.carts.Do(token, func(c *cart.Cart) {
		c.SetQuantity(id, req.Quantity)
	})
	h.respondSnapshot(w, token)
}

// RemoveItem deletes a line entirely. Removing an absent product is a
// no-op, not an error.
func (h *CartHandlers) RemoveItem(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	token := h.sessionToken(w, r)
	h.carts.Do(token, func(c *cart.Cart) {
		c.Remove(id)
	})
	h.respondSnapshot(w, token)
}

// ClearCart empties the cart, used by the post-payment success page.
func (h *CartHandlers) ClearCart(w http.ResponseWriter, r *http.Request) {
	token := h.sessionToken(w, r)
	h.carts.Do(token, func(c *cart.Cart) {
		c.Clear()
	})
	h.respondSnapshot(w, token)
}

func (h *CartHandlers) respondSnapshot(w http.ResponseWriter, token string) {
	items, total, count := h.carts.Snapshot(token)
	if items == nil {
		items = []cart.Item{}
	}
	respondJSON(w, http.StatusOK, CartResponse{Items: items, Total: total, Count: count})
}

// sessionToken returns the cart session token, issuing the cookie on
// first contact.
func (h *CartHandlers) sessionToken(w http.ResponseWriter, r *http.Request) string {
	if cookie, err := r.Cookie(CartCookie); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	token := uuid.New().String()
	http.SetCookie(w, &http.Cookie{
		Name:     CartCookie,
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(30 * 24 * time.Hour),
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
	return token
}
