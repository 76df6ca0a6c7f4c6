// Package snapshot defines the pipeline's output records and the reconciler
// that merges DOM-derived and payload-derived sections into them.
package snapshot

import (
	"encoding/json"

	"github.com/BAODAU/whop-wss-streaming/schemaorg"
)

// FaqEntry is one flattened question/answer pair. Answer is nil when no
// answer text was recovered from any source.
type FaqEntry struct {
	Question string  `json:"question"`
	Answer   *string `json:"answer"`
}

// Flat is the normalized output record for one listing.
type Flat struct {
	FinalURL    string         `json:"final_url"`
	Name        *string        `json:"name"`
	Description *string        `json:"description"`
	Brand       *string        `json:"brand"`
	SKU         *string        `json:"sku"`
	Features    []string       `json:"features"`
	Faqs        []FaqEntry     `json:"faqs"`
	Pricing     []string       `json:"pricing"`
	Content     map[string]any `json:"content,omitempty"`
}

// Profile wraps the child snapshots of an aggregator page.
type Profile struct {
	RequestedURL    string   `json:"requested_url"`
	ProfileURL      string   `json:"profile_url"`
	ProfileUsername string   `json:"profile_username"`
	ProductCount    int      `json:"product_count"`
	ProductURLs     []string `json:"product_urls"`
	Products        []*Flat  `json:"products"`
}

// Result is the outcome of one pipeline invocation: a flat snapshot for a
// single listing, or a profile snapshot for an aggregator page.
type Result struct {
	Flat    *Flat
	Profile *Profile
}

// MarshalJSON serializes whichever snapshot the result holds.
func (r *Result) MarshalJSON() ([]byte, error) {
	if r.Profile != nil {
		return json.Marshal(r.Profile)
	}
	return json.Marshal(r.Flat)
}

// Simplified is the reduced CLI output shape: the flat snapshot without FAQ
// entries or the content map.
type Simplified struct {
	FinalURL    string   `json:"final_url"`
	Name        *string  `json:"name"`
	Description *string  `json:"description"`
	Brand       *string  `json:"brand"`
	SKU         *string  `json:"sku"`
	Features    []string `json:"features"`
	Pricing     []string `json:"pricing"`
}

// Simplify reduces a flat snapshot to the simplified shape.
func Simplify(flat *Flat) *Simplified {
	if flat == nil {
		return &Simplified{Features: []string{}, Pricing: []string{}}
	}
	return &Simplified{
		FinalURL:    flat.FinalURL,
		Name:        flat.Name,
		Description: flat.Description,
		Brand:       flat.Brand,
		SKU:         flat.SKU,
		Features:    flat.Features,
		Pricing:     flat.Pricing,
	}
}

// NewFlat assembles the final snapshot from the first recovered product and
// the flattened feature/FAQ/pricing lists. List fields are never nil.
func NewFlat(finalURL string, products []schemaorg.Product, features []string, faqs []FaqEntry, pricing []string) *Flat {
	flat := &Flat{
		FinalURL: finalURL,
		Features: features,
		Faqs:     faqs,
		Pricing:  pricing,
	}
	if flat.Features == nil {
		flat.Features = []string{}
	}
	if flat.Faqs == nil {
		flat.Faqs = []FaqEntry{}
	}
	if flat.Pricing == nil {
		flat.Pricing = []string{}
	}
	if len(products) > 0 {
		primary := products[0]
		flat.Name = optional(primary.Name)
		flat.Description = optional(primary.Description)
		flat.Brand = optional(primary.Brand)
		flat.SKU = optional(primary.SKU)
	}
	return flat
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
