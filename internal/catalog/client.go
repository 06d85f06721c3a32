package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"sync"
	"time"
)

var ErrNotFound = errors.New("catalog: document not found")

const (
	productsQuery = `*[_type == "product"] | order(name asc){_id, name, reference, slug, description, dimensions, "materials": materials[]->{name, category}, images, price, stock, status}`
	settingsQuery = `*[_type == "siteSettings"][0]{title, tagline, callToActionText, callToActionLink}`

	requestTimeout = 10 * time.Second
)

// Client reads product and site-settings documents from the CMS query API.
// Results are cached for the revalidation window; the catalog is treated as
// eventually consistent, so a stale window is acceptable.
type Client struct {
	queryURL   string
	token      string
	httpClient *http.Client
	revalidate time.Duration

	mu          sync.Mutex
	products    []Product
	productsAt  time.Time
	settings    *SiteSettings
	settingsAt  time.Time
}

// NewClient builds a client for one project/dataset. token may be empty for
// public datasets.
func NewClient(projectID, dataset, apiVersion, token string, revalidate time.Duration) *Client {
	return &Client{
		queryURL:   fmt.Sprintf("https://%s.api.sanity.io/v%s/data/query/%s", projectID, apiVersion, dataset),
		token:      token,
		httpClient: &http.Client{Timeout: requestTimeout},
		revalidate: revalidate,
	}
}

// Products returns all catalog products, cached within the revalidation
// window.
func (c *Client) Products(ctx context.Context) ([]Product, error) {
	c.mu.Lock()
	if c.products != nil && time.Since(c.productsAt) < c.revalidate {
		cached := c.products
		c.mu.Unlock()
		return cached, nil
	}
	c.mu.Unlock()

	var products []Product
	if err := c.query(ctx, productsQuery, &products); err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.products = products
	c.productsAt = time.Now()
	c.mu.Unlock()

	return products, nil
}

// ProductBySlug returns the product whose slug matches, or ErrNotFound.
func (c *Client) ProductBySlug(ctx context.Context, slug string) (*Product, error) {
	products, err := c.Products(ctx)
	if err != nil {
		return nil, err
	}
	for i := range products {
		if products[i].Slug.Current == slug {
			return &products[i], nil
		}
	}
	return nil, ErrNotFound
}

// SiteSettings returns the singleton settings document, cached within the
// revalidation window.
func (c *Client) SiteSettings(ctx context.Context) (*SiteSettings, error) {
	c.mu.Lock()
	if c.settings != nil && time.Since(c.settingsAt) < c.revalidate {
		cached := c.settings
		c.mu.Unlock()
		return cached, nil
	}
	c.mu.Unlock()

	var settings SiteSettings
	if err := c.query(ctx, settingsQuery, &settings); err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.settings = &settings
	c.settingsAt = time.Now()
	c.mu.Unlock()

	return &settings, nil
}

// query runs one GROQ query and decodes the result envelope. Reads are
// idempotent, so a transport failure is retried exactly once.
func (c *Client) query(ctx context.Context, groq string, out any) error {
	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		if attempt > 0 {
			log.Printf("[Catalog] Retrying query after error: %v", lastErr)
		}
		if err := c.queryOnce(ctx, groq, out); err != nil {
			if errors.Is(err, ErrNotFound) {
				return err
			}
			lastErr = err
			if ctx.Err() != nil {
				return ctx.Err()
			}
			continue
		}
		return nil
	}
	return fmt.Errorf("catalog query failed: %w", lastErr)
}

func (c *Client) queryOnce(ctx context.Context, groq string, out any) error {
	u := c.queryURL + "?query=" + url.QueryEscape(groq)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("cms returned %d: %s", resp.StatusCode, body)
	}

	var envelope struct {
		Result json.RawMessage `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("decode cms response: %w", err)
	}
	if len(envelope.Result) == 0 || string(envelope.Result) == "null" {
		return ErrNotFound
	}
	return json.Unmarshal(envelope.Result, out)
}

// SetBaseURL overrides the query endpoint. Tests point the client at a
// local server.
func (c *Client) SetBaseURL(u string) {
	c.queryURL = u
}
