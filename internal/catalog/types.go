package catalog

// Product is a catalog document as delivered by the CMS read API. The CMS
// is the source of truth; nothing here is ever written back.
type Product struct {
	ID          string     `json:"_id"`
	Name        string     `json:"name"`
	Reference   string     `json:"reference"`
	Slug        Slug       `json:"slug"`
	Description string     `json:"description"`
	Dimensions  Dimensions `json:"dimensions"`
	Materials   []Material `json:"materials"`
	Images      []Image    `json:"images"`
	Price       float64    `json:"price"`
	Stock       int        `json:"stock"`
	Status      string     `json:"status"` // "unique" or "sur-commande"
}

type Slug struct {
	Current string `json:"current"`
}

// Dimensions in centimetres.
type Dimensions struct {
	Height float64 `json:"height"`
	Width  float64 `json:"width"`
	Depth  float64 `json:"depth"`
}

type Material struct {
	Name     string `json:"name"`
	Category string `json:"category"`
}

// Image carries the CMS asset reference; resolving it to a URL is the
// front end's concern.
type Image struct {
	Asset AssetRef `json:"asset"`
}

type AssetRef struct {
	Ref string `json:"_ref"`
}

// SiteSettings is the singleton settings document driving the storefront
// home page.
type SiteSettings struct {
	Title            string `json:"title"`
	Tagline          string `json:"tagline"`
	CallToActionText string `json:"callToActionText"`
	CallToActionLink string `json:"callToActionLink"`
}
