// Package schemaorg summarizes structured-data blocks (JSON-LD) into product
// and organization records.
//
// Blocks are treated as untrusted, loosely shaped JSON: nodes are matched by
// @type anywhere in the structure, and every field is optional. Malformed
// blocks are skipped, never fatal.
package schemaorg

import (
	"encoding/json"
	"sort"
	"strings"

	"github.com/BAODAU/whop-wss-streaming/payload"
)

// Offer is one offer node attached to a product.
type Offer struct {
	Name            string `json:"name,omitempty"`
	Price           string `json:"price,omitempty"`
	Currency        string `json:"currency,omitempty"`
	Availability    string `json:"availability,omitempty"`
	URL             string `json:"url,omitempty"`
	BillingInterval string `json:"billing_interval,omitempty"`
	BillingDuration string `json:"billing_duration,omitempty"`
	PriceValidUntil string `json:"price_valid_until,omitempty"`
}

// Property is a name/value attribute attached to a product.
type Property struct {
	Name        string `json:"name,omitempty"`
	Value       string `json:"value,omitempty"`
	Description string `json:"description,omitempty"`
}

// Product is a summarized schema.org Product node.
type Product struct {
	Name        string     `json:"name,omitempty"`
	Description string     `json:"description,omitempty"`
	Category    string     `json:"category,omitempty"`
	Brand       string     `json:"brand,omitempty"`
	Seller      string     `json:"seller,omitempty"`
	SKU         string     `json:"sku,omitempty"`
	URL         string     `json:"url,omitempty"`
	Includes    []Property `json:"includes,omitempty"`
	Offers      []Offer    `json:"offers,omitempty"`
}

// Organization is a summarized schema.org Organization node.
type Organization struct {
	Name         string   `json:"name,omitempty"`
	URL          string   `json:"url,omitempty"`
	SameAs       []string `json:"sameAs,omitempty"`
	ContactPoint any      `json:"contactPoint,omitempty"`
}

// Parse decodes the raw JSON-LD blocks and summarizes every Product and
// Organization node found in them. A block that fails to parse does not
// prevent extraction from the others.
func Parse(blocks []string) (products []Product, orgs []Organization) {
	for _, block := range blocks {
		var parsed any
		if err := json.Unmarshal([]byte(block), &parsed); err != nil {
			continue
		}
		for _, node := range CollectByType(parsed, "Product") {
			products = append(products, summarizeProduct(node))
		}
		for _, node := range CollectByType(parsed, "Organization") {
			orgs = append(orgs, summarizeOrg(node))
		}
	}
	return products, orgs
}

// CollectByType walks the structure and returns every mapping whose @type
// matches (a string, or any member of a list of strings), case-insensitively.
func CollectByType(v any, typename string) []map[string]any {
	var results []map[string]any
	stack := []any{v}
	for len(stack) > 0 {
		current := stack[0]
		stack = stack[1:]
		switch node := current.(type) {
		case map[string]any:
			if typeMatches(node["@type"], typename) {
				results = append(results, node)
			}
			for _, key := range sortedKeys(node) {
				stack = append(stack, node[key])
			}
		case []any:
			stack = append(stack, node...)
		}
	}
	return results
}

func typeMatches(v any, expected string) bool {
	switch value := v.(type) {
	case string:
		return strings.EqualFold(value, expected)
	case []any:
		for _, item := range value {
			if typeMatches(item, expected) {
				return true
			}
		}
	}
	return false
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	// Insertion order is lost by JSON decoding; sorted order keeps the walk
	// deterministic.
	sort.Strings(keys)
	return keys
}

func summarizeProduct(node map[string]any) Product {
	var offers []Offer
	for _, offerNode := range CollectByType(node["offers"], "Offer") {
		offers = append(offers, summarizeOffer(offerNode))
	}
	return Product{
		Name:        payload.AsText(node["name"]),
		Description: asString(node["description"]),
		Category:    asString(node["category"]),
		Brand:       entityName(node["brand"]),
		Seller:      entityName(node["seller"]),
		SKU:         asString(node["sku"]),
		URL:         asString(node["url"]),
		Includes:    summarizeProperties(node["additionalProperty"]),
		Offers:      offers,
	}
}

func summarizeOffer(node map[string]any) Offer {
	offer := Offer{
		Name:            asString(node["name"]),
		Price:           asString(node["price"]),
		Currency:        asString(node["priceCurrency"]),
		Availability:    asString(node["availability"]),
		URL:             asString(node["url"]),
		PriceValidUntil: asString(node["priceValidUntil"]),
	}
	if spec, ok := node["priceSpecification"].(map[string]any); ok {
		offer.BillingInterval = firstAsString(spec, "billingInterval", "billingPeriod")
		offer.BillingDuration = firstAsString(spec, "billingDuration", "billingFrequency")
	}
	return offer
}

func summarizeProperties(v any) []Property {
	var props []Property
	for _, entry := range ensureList(v) {
		if node, ok := entry.(map[string]any); ok {
			props = append(props, Property{
				Name:        asString(node["name"]),
				Value:       asString(node["value"]),
				Description: asString(node["description"]),
			})
		}
	}
	return props
}

func summarizeOrg(node map[string]any) Organization {
	var sameAs []string
	for _, entry := range ensureList(node["sameAs"]) {
		if s := asString(entry); s != "" {
			sameAs = append(sameAs, s)
		}
	}
	return Organization{
		Name:         asString(node["name"]),
		URL:          asString(node["url"]),
		SameAs:       sameAs,
		ContactPoint: node["contactPoint"],
	}
}

// entityName resolves a brand/seller value that may be a bare string or an
// entity node carrying a name.
func entityName(v any) string {
	switch value := v.(type) {
	case string:
		return value
	case map[string]any:
		if name, ok := value["name"].(string); ok {
			return name
		}
	}
	return ""
}

func ensureList(v any) []any {
	switch value := v.(type) {
	case nil:
		return nil
	case []any:
		return value
	default:
		return []any{value}
	}
}

// asString renders scalar JSON values as strings; nested structures yield "".
func asString(v any) string {
	switch value := v.(type) {
	case string:
		return value
	case float64:
		return payload.AsText(value)
	case bool:
		if value {
			return "true"
		}
		return "false"
	}
	return ""
}

func firstAsString(node map[string]any, keys ...string) string {
	for _, key := range keys {
		if s := asString(node[key]); s != "" {
			return s
		}
	}
	return ""
}
