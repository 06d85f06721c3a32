package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/leathershop/internal/catalog"
	"github.com/example/leathershop/internal/email"
)

type fakeCatalog struct {
	products []catalog.Product
	settings *catalog.SiteSettings
	err      error
}

func (f *fakeCatalog) Products(ctx context.Context) ([]catalog.Product, error) {
	return f.products, f.err
}

func (f *fakeCatalog) ProductBySlug(ctx context.Context, slug string) (*catalog.Product, error) {
	if f.err != nil {
		return nil, f.err
	}
	for i := range f.products {
		if f.products[i].Slug.Current == slug {
			return &f.products[i], nil
		}
	}
	return nil, catalog.ErrNotFound
}

func (f *fakeCatalog) SiteSettings(ctx context.Context) (*catalog.SiteSettings, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.settings == nil {
		return nil, catalog.ErrNotFound
	}
	return f.settings, nil
}

func catalogRouter(c Catalog) *chi.Mux {
	h := NewCatalogHandlers(c)
	r := chi.NewRouter()
	r.Get("/api/products", h.ListProducts)
	r.Get("/api/products/{slug}", h.GetProduct)
	r.Get("/api/site-settings", h.GetSiteSettings)
	return r
}

func TestListProducts(t *testing.T) {
	sac := catalog.Product{ID: "p1", Name: "Sac bandoulière", Price: 149.00}
	sac.Slug.Current = "sac-bandouliere"
	r := catalogRouter(&fakeCatalog{products: []catalog.Product{sac}})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/products", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Sac bandoulière")
}

func TestGetProduct(t *testing.T) {
	sac := catalog.Product{ID: "p1", Name: "Sac bandoulière", Price: 149.00}
	sac.Slug.Current = "sac-bandouliere"
	r := catalogRouter(&fakeCatalog{products: []catalog.Product{sac}})

	t.Run("found", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/products/sac-bandouliere", nil))

		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"p1"`)
	})

	t.Run("unknown slug", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/products/rien", nil))

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestCatalogUnavailable(t *testing.T) {
	r := catalogRouter(&fakeCatalog{err: errors.New("cms down")})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/products", nil))

	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestGetSiteSettings(t *testing.T) {
	r := catalogRouter(&fakeCatalog{settings: &catalog.SiteSettings{Title: "Kt'i", Tagline: "Cuir fait main"}})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/site-settings", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Cuir fait main")
}

func TestContactForm(t *testing.T) {
	newHandler := func(sender email.Sender) *ContactHandlers {
		return NewContactHandlers(email.NewServiceWithSender(sender, "Kt'i", "support@example.com", "rapport@example.com"))
	}

	t.Run("forwards to owner", func(t *testing.T) {
		sender := &silentSender{}
		h := newHandler(sender)

		body := `{"name":"Camille","email":"camille@example.com","message":"Bonjour !"}`
		req := httptest.NewRequest(http.MethodPost, "/api/send-email", strings.NewReader(body))
		w := httptest.NewRecorder()
		h.SendEmail(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, 1, sender.sent)
	})

	t.Run("all fields required", func(t *testing.T) {
		for _, body := range []string{
			`{"email":"a@b.c","message":"x"}`,
			`{"name":"A","message":"x"}`,
			`{"name":"A","email":"a@b.c"}`,
			`{"name":" ","email":"a@b.c","message":"x"}`,
		} {
			h := newHandler(&silentSender{})
			req := httptest.NewRequest(http.MethodPost, "/api/send-email", strings.NewReader(body))
			w := httptest.NewRecorder()
			h.SendEmail(w, req)

			assert.Equal(t, http.StatusBadRequest, w.Code, body)
		}
	})

	t.Run("delivery failure reported", func(t *testing.T) {
		h := NewContactHandlers(email.NewService("", "Kt'i", "support@example.com", "rapport@example.com"))

		body := `{"name":"Camille","email":"camille@example.com","message":"Bonjour !"}`
		req := httptest.NewRequest(http.MethodPost, "/api/send-email", strings.NewReader(body))
		w := httptest.NewRecorder()
		h.SendEmail(w, req)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}
