package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/example/leathershop/internal/catalog"
)

// Catalog is the read-only product source backing the public endpoints.
type Catalog interface {
	Products(ctx context.Context) ([]catalog.Product, error)
	ProductBySlug(ctx context.Context, slug string) (*catalog.Product, error)
	SiteSettings(ctx context.Context) (*catalog.SiteSettings, error)
}

// CatalogHandlers serves the public catalog read endpoints.
type CatalogHandlers struct {
	catalog Catalog
}

func NewCatalogHandlers(c Catalog) *CatalogHandlers {
	return &CatalogHandlers{catalog: c}
}

func (h *CatalogHandlers) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.catalog.Products(r.Context())
	if err != nil {
		respondJSONError(w, "Catalog unavailable", http.StatusBadGateway)
		return
	}
	if products == nil {
		products = []catalog.Product{}
	}
	respondJSON(w, http.StatusOK, products)
}

func (h *CatalogHandlers) GetProduct(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")

	product, err := h.catalog.ProductBySlug(r.Context(), slug)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			respondJSONError(w, "Product not found", http.StatusNotFound)
			return
		}
		respondJSONError(w, "Catalog unavailable", http.StatusBadGateway)
		return
	}
	respondJSON(w, http.StatusOK, product)
}

func (h *CatalogHandlers) GetSiteSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.catalog.SiteSettings(r.Context())
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			respondJSONError(w, "Site settings not found", http.StatusNotFound)
			return
		}
		respondJSONError(w, "Catalog unavailable", http.StatusBadGateway)
		return
	}
	respondJSON(w, http.StatusOK, settings)
}
