package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/example/leathershop/internal/api/middleware"
	"github.com/example/leathershop/internal/auth"
	"github.com/example/leathershop/internal/metrics"
)

// Handlers bundles everything the router mounts.
type Handlers struct {
	Auth     *AuthHandlers
	Cart     *CartHandlers
	Catalog  *CatalogHandlers
	Account  *AccountHandlers
	Checkout *CheckoutHandlers
	Webhook  *WebhookHandlers
	Contact  *ContactHandlers
	Messages *MessageHandlers
}

func NewRouter(h *Handlers, jwtService *auth.JWTService, m *metrics.ServerMetrics) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	if m != nil {
		r.Use(metricsMiddleware(m))
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		// Public catalog
		r.Get("/products", h.Catalog.ListProducts)
		r.Get("/products/{slug}", h.Catalog.GetProduct)
		r.Get("/site-settings", h.Catalog.GetSiteSettings)

		// Session cart, anonymous allowed
		r.Get("/cart", h.Cart.GetCart)
		r.Post("/cart/items", h.Cart.AddItem)
		r.Patch("/cart/items/{id}", h.Cart.UpdateItem)
		r.Delete("/cart/items/{id}", h.Cart.RemoveItem)
		r.Post("/cart/clear", h.Cart.ClearCart)

		// Auth
		r.Post("/auth/register", h.Auth.Register)
		r.Post("/auth/login", h.Auth.Login)
		r.Post("/auth/logout", h.Auth.Logout)
		r.Post("/auth/forgot-password", h.Auth.ForgotPassword)
		r.With(middleware.OptionalAuth(jwtService)).Get("/auth/session", h.Auth.Session)
		r.With(middleware.RequireRecovery(jwtService)).Post("/auth/new-password", h.Auth.NewPassword)

		// Contact form, public
		r.Post("/send-email", h.Contact.SendEmail)

		// Payment provider callback; authenticated by signature, not session
		r.Post("/webhooks/stripe", h.Webhook.HandleStripe)

		// Everything below requires a signed-in user
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth(jwtService))

			r.Route("/me", func(r chi.Router) {
				r.Get("/profile", h.Account.GetProfile)
				r.Put("/profile", h.Account.PutProfile)

				r.Get("/addresses", h.Account.ListAddresses)
				r.Post("/addresses", h.Account.CreateAddress)
				r.Put("/addresses/{id}", h.Account.UpdateAddress)
				r.Delete("/addresses/{id}", h.Account.DeleteAddress)

				r.Get("/orders", h.Account.ListOrders)
				r.Get("/orders/{id}", h.Account.GetOrder)

				r.Get("/conversations", h.Messages.ListConversations)
				r.Post("/conversations", h.Messages.CreateConversation)
			})

			r.Post("/checkout_sessions", h.Checkout.CreateSession)

			r.Get("/conversations/{id}/messages", h.Messages.ListMessages)
			r.Post("/conversations/{id}/messages", h.Messages.PostMessage)
			r.Get("/conversations/{id}/events", h.Messages.StreamEvents)
		})
	})

	return r
}

func metricsMiddleware(m *metrics.ServerMetrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)

			pattern := chi.RouteContext(r.Context()).RoutePattern()
			if pattern == "" {
				pattern = "unmatched"
			}
			m.Requests.WithLabelValues(pattern, strconv.Itoa(ww.Status())).Inc()
			m.LatencyMS.WithLabelValues(pattern).Observe(float64(time.Since(start).Milliseconds()))
		})
	}
}
