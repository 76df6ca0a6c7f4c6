// Package meta harvests head metadata and embedded script payloads from raw
// markup in a single pass over the tag stream.
//
// It captures the document title, a fixed set of meta name/property pairs,
// the first hydration payload script (id="__NEXT_DATA__"), and every
// structured-data block (type="application/ld+json").
package meta

import (
	"strings"

	"golang.org/x/net/html"
)

// Head is the metadata recovered from one document.
type Head struct {
	Title         string
	Description   string
	OGTitle       string
	OGDescription string
	OGURL         string

	// NextData is the raw text of the first __NEXT_DATA__ script, or "".
	NextData string
	// JSONLD holds the raw text of every ld+json script in document order.
	JSONLD []string
}

// Parse scans raw HTML and returns the harvested head metadata. Malformed
// markup ends the scan; whatever was captured up to that point is returned.
func Parse(rawHTML string) *Head {
	head := &Head{}
	z := html.NewTokenizer(strings.NewReader(rawHTML))

	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			return head
		}
		if tt != html.StartTagToken && tt != html.SelfClosingTagToken {
			continue
		}

		name, hasAttr := z.TagName()
		attrs := map[string]string{}
		for hasAttr {
			var key, val []byte
			key, val, hasAttr = z.TagAttr()
			attrs[strings.ToLower(string(key))] = string(val)
		}

		switch strings.ToLower(string(name)) {
		case "title":
			if head.Title == "" && tt == html.StartTagToken {
				if text := strings.TrimSpace(tagText(z)); text != "" {
					head.Title = text
				}
			}
		case "meta":
			captureMeta(head, attrs)
		case "script":
			if tt != html.StartTagToken {
				continue
			}
			id := attrs["id"]
			typ := strings.ToLower(attrs["type"])
			switch {
			case strings.EqualFold(id, "__NEXT_DATA__"):
				content := strings.TrimSpace(tagText(z))
				if content != "" && head.NextData == "" {
					head.NextData = content
				}
			case typ == "application/ld+json":
				if content := strings.TrimSpace(tagText(z)); content != "" {
					head.JSONLD = append(head.JSONLD, content)
				}
			}
		}
	}
}

// captureMeta records a meta tag when it maps to a known key and carries a
// non-empty content attribute.
func captureMeta(head *Head, attrs map[string]string) {
	content := strings.TrimSpace(attrs["content"])
	if content == "" {
		return
	}
	switch {
	case strings.EqualFold(attrs["name"], "description"):
		head.Description = content
	case strings.EqualFold(attrs["property"], "og:title"):
		head.OGTitle = content
	case strings.EqualFold(attrs["property"], "og:description"):
		head.OGDescription = content
	case strings.EqualFold(attrs["property"], "og:url"):
		head.OGURL = content
	}
}

// tagText consumes tokens until the current element closes and returns the
// accumulated text content.
func tagText(z *html.Tokenizer) string {
	var parts []string
	for {
		switch z.Next() {
		case html.TextToken:
			parts = append(parts, string(z.Text()))
		case html.EndTagToken, html.ErrorToken:
			return strings.Join(parts, "")
		}
	}
}
