// Package payload interprets a framework hydration payload — an arbitrary
// nested mapping/list structure decoded from JSON — and recovers hero text,
// feature sections, and long-form text chunks from it.
//
// Shape sniffing is driven by ordered key tables rather than fixed schemas:
// the payload has none.
package payload

import (
	"fmt"
	"sort"
	"strings"
)

// Ordered-priority key tables. First match wins.
var (
	titleKeys = []string{"title", "heading", "headline", "name", "label"}
	descKeys  = []string{"subtitle", "description", "body", "summary", "text", "copy", "details", "tagline"}
	ctaKeys   = []string{"cta", "ctaText", "ctaLabel", "ctaButton", "primaryCta", "ctaPrimary", "action"}
	chunkKeys = []string{"description", "body", "summary", "text", "copy", "details", "content"}

	featureKeys = map[string]bool{
		"features": true, "featurelist": true, "items": true, "perks": true,
		"benefits": true, "bullets": true, "sellingpoints": true,
		"highlights": true, "points": true, "listitems": true,
	}
)

const (
	featureSectionLimit = 6
	featureItemLimit    = 10
	chunkLimit          = 8
	chunkMinLen         = 40
)

// CTA is a call-to-action recovered from the payload.
type CTA struct {
	Text string `json:"text"`
	Href string `json:"href,omitempty"`
}

// Hero is the page's lead block: a title plus supporting copy.
type Hero struct {
	Title    string `json:"title"`
	Subtitle string `json:"subtitle,omitempty"`
	Badge    string `json:"badge,omitempty"`
	Rating   string `json:"rating,omitempty"`
	CTA      *CTA   `json:"cta,omitempty"`
}

// FeatureItem is one entry of a payload feature collection.
type FeatureItem struct {
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
}

// FeatureSection is a feature collection with its enclosing heading.
type FeatureSection struct {
	Heading string        `json:"heading"`
	Items   []FeatureItem `json:"items"`
}

// TextChunk is a long-form string found under a body-like key.
type TextChunk struct {
	Source string `json:"source"`
	Text   string `json:"text"`
}

// Summary is the interpreted hydration payload.
type Summary struct {
	Hero            *Hero            `json:"hero"`
	FeatureSections []FeatureSection `json:"feature_sections"`
	Descriptions    []TextChunk      `json:"descriptions"`
}

// Summarize walks the payload and recovers the hero, feature sections, and
// text chunks. A nil or scalar payload yields an empty summary.
func Summarize(v any) Summary {
	switch v.(type) {
	case map[string]any, []any:
	default:
		return Summary{}
	}
	return Summary{
		Hero:            extractHero(v),
		FeatureSections: collectFeatureSections(v),
		Descriptions:    collectTextChunks(v),
	}
}

// visitMappings visits every mapping node of the payload depth-first, in a
// deterministic order (map keys sorted). The walk stops when visit returns
// false.
func visitMappings(v any, visit func(map[string]any) bool) {
	walkValue(v, visit)
}

func walkValue(v any, visit func(map[string]any) bool) bool {
	switch node := v.(type) {
	case map[string]any:
		if !visit(node) {
			return false
		}
		for _, key := range sortedKeys(node) {
			if !walkValue(node[key], visit) {
				return false
			}
		}
	case []any:
		for _, item := range node {
			if !walkValue(item, visit) {
				return false
			}
		}
	}
	return true
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// AsText renders a scalar or a text-bearing mapping as a trimmed string, or
// "" when the value carries no usable text.
func AsText(v any) string {
	switch value := v.(type) {
	case string:
		return strings.TrimSpace(value)
	case float64:
		return trimFloat(value)
	case int:
		return fmt.Sprintf("%d", value)
	case map[string]any:
		for _, key := range []string{"text", "label", "title", "name", "value"} {
			if s, ok := value[key].(string); ok {
				if trimmed := strings.TrimSpace(s); trimmed != "" {
					return trimmed
				}
			}
		}
	}
	return ""
}

// trimFloat formats JSON numbers without a trailing ".0" for whole values.
func trimFloat(f float64) string {
	if f == float64(int64(f)) {
		return fmt.Sprintf("%d", int64(f))
	}
	return fmt.Sprintf("%g", f)
}

// FirstText returns the first non-empty text among the node's values for the
// given keys, in key-table order.
func FirstText(node map[string]any, keys []string) string {
	for _, key := range keys {
		if text := AsText(node[key]); text != "" {
			return text
		}
	}
	return ""
}

// extractCTA recovers a call to action: a string value, or a mapping carrying
// text and/or an href-like key.
func extractCTA(node map[string]any) *CTA {
	for _, key := range ctaKeys {
		switch value := node[key].(type) {
		case map[string]any:
			text := AsText(value)
			href := firstString(value, "href", "url", "link")
			if text != "" || href != "" {
				return &CTA{Text: text, Href: href}
			}
		case string:
			if text := strings.TrimSpace(value); text != "" {
				return &CTA{Text: text}
			}
		}
	}
	return nil
}

func firstString(node map[string]any, keys ...string) string {
	for _, key := range keys {
		if s, ok := node[key].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

// extractHero returns the first mapping exposing both a title-like key and
// either a description-like key or a call to action.
func extractHero(v any) *Hero {
	var hero *Hero
	visitMappings(v, func(node map[string]any) bool {
		title := FirstText(node, titleKeys)
		subtitle := FirstText(node, descKeys)
		cta := extractCTA(node)
		if title == "" || (subtitle == "" && cta == nil) {
			return true
		}
		rating := node["rating"]
		if rating == nil {
			rating = node["ratingValue"]
		}
		if rating == nil {
			rating = node["ratingText"]
		}
		badge := node["badge"]
		if badge == nil {
			badge = node["tag"]
		}
		hero = &Hero{
			Title:    title,
			Subtitle: subtitle,
			Badge:    AsText(badge),
			Rating:   AsText(rating),
			CTA:      cta,
		}
		return false
	})
	return hero
}

// collectFeatureSections yields a section for every mapping key matching a
// feature-collection name whose value is a list, deduplicated by a
// (heading, items) fingerprint.
func collectFeatureSections(v any) []FeatureSection {
	var out []FeatureSection
	seen := map[string]bool{}
	visitMappings(v, func(node map[string]any) bool {
		for _, key := range sortedKeys(node) {
			if !featureKeys[strings.ToLower(key)] {
				continue
			}
			list, ok := node[key].([]any)
			if !ok {
				continue
			}
			var items []FeatureItem
			for _, entry := range list {
				switch value := entry.(type) {
				case map[string]any:
					item := FeatureItem{
						Title:       FirstText(value, titleKeys),
						Description: FirstText(value, descKeys),
					}
					if item.Title != "" || item.Description != "" {
						items = append(items, item)
					}
				case string:
					if trimmed := strings.TrimSpace(value); trimmed != "" {
						items = append(items, FeatureItem{Title: trimmed})
					}
				}
			}
			if len(items) == 0 {
				continue
			}
			if len(items) > featureItemLimit {
				items = items[:featureItemLimit]
			}
			heading := FirstText(node, titleKeys)
			if heading == "" {
				heading = key
			}
			var fp strings.Builder
			fp.WriteString(heading)
			for _, item := range items {
				fp.WriteString("\x1f" + item.Title + "\x1e" + item.Description)
			}
			if seen[fp.String()] {
				continue
			}
			seen[fp.String()] = true
			out = append(out, FeatureSection{Heading: heading, Items: items})
			if len(out) >= featureSectionLimit {
				return false
			}
		}
		return true
	})
	return out
}

// collectTextChunks returns the first distinct long strings found under
// body/description-like keys, tagged with their source key.
func collectTextChunks(v any) []TextChunk {
	var chunks []TextChunk
	seen := map[string]bool{}
	visitMappings(v, func(node map[string]any) bool {
		for _, key := range chunkKeys {
			s, ok := node[key].(string)
			if !ok {
				continue
			}
			normalized := strings.Join(strings.Fields(s), " ")
			if len(normalized) < chunkMinLen || seen[normalized] {
				continue
			}
			seen[normalized] = true
			chunks = append(chunks, TextChunk{Source: key, Text: normalized})
			if len(chunks) >= chunkLimit {
				return false
			}
		}
		return true
	})
	return chunks
}
