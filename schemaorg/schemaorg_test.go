package schemaorg

import "testing"

func TestParseProduct(t *testing.T) {
	blocks := []string{`{
		"@context": "https://schema.org",
		"@type": "Product",
		"name": "Widget",
		"description": "A fine widget.",
		"sku": "W-1",
		"brand": {"@type": "Brand", "name": "Acme"},
		"seller": "Alice",
		"additionalProperty": {"name": "Access", "value": "Lifetime"},
		"offers": {
			"@type": "Offer",
			"price": "9.99",
			"priceCurrency": "USD",
			"availability": "https://schema.org/InStock",
			"priceSpecification": {"billingPeriod": "month", "billingDuration": 3}
		}
	}`}

	products, orgs := Parse(blocks)
	if len(products) != 1 {
		t.Fatalf("products = %+v", products)
	}
	if len(orgs) != 0 {
		t.Errorf("orgs = %+v, want none", orgs)
	}
	p := products[0]
	if p.Name != "Widget" || p.SKU != "W-1" || p.Brand != "Acme" || p.Seller != "Alice" {
		t.Errorf("product = %+v", p)
	}
	if len(p.Includes) != 1 || p.Includes[0].Name != "Access" || p.Includes[0].Value != "Lifetime" {
		t.Errorf("includes = %+v", p.Includes)
	}
	if len(p.Offers) != 1 {
		t.Fatalf("offers = %+v", p.Offers)
	}
	offer := p.Offers[0]
	if offer.Price != "9.99" || offer.Currency != "USD" {
		t.Errorf("offer = %+v", offer)
	}
	if offer.BillingInterval != "month" || offer.BillingDuration != "3" {
		t.Errorf("billing = %q / %q", offer.BillingInterval, offer.BillingDuration)
	}
}

func TestParseMalformedBlockSkipped(t *testing.T) {
	blocks := []string{
		`{"@type": "Product", "name": "Broken"`,
		`{"@type": "Product", "name": "Intact"}`,
	}
	products, _ := Parse(blocks)
	if len(products) != 1 || products[0].Name != "Intact" {
		t.Errorf("products = %+v, want the intact block only", products)
	}
}

func TestParseOrganizationAndTypeList(t *testing.T) {
	blocks := []string{`{
		"@graph": [
			{"@type": ["Organization", "Brand"], "name": "Acme", "url": "https://acme.test",
			 "sameAs": ["https://x.test/acme", 42]}
		]
	}`}
	_, orgs := Parse(blocks)
	if len(orgs) != 1 {
		t.Fatalf("orgs = %+v", orgs)
	}
	if orgs[0].Name != "Acme" || orgs[0].URL != "https://acme.test" {
		t.Errorf("org = %+v", orgs[0])
	}
	if len(orgs[0].SameAs) != 2 || orgs[0].SameAs[1] != "42" {
		t.Errorf("sameAs = %v", orgs[0].SameAs)
	}
}

func TestCollectByTypeNested(t *testing.T) {
	blocks := []string{`{
		"top": {"@type": "product", "name": "Nested, lower-cased type"}
	}`}
	products, _ := Parse(blocks)
	if len(products) != 1 {
		t.Errorf("products = %+v, want nested case-insensitive match", products)
	}
}
