// Package sections recovers page sections (features, FAQs, reviews, pricing)
// from the document tree by heading heuristics. Every extractor accepts a nil
// tree and returns empty results.
package sections

import (
	"strings"

	"github.com/BAODAU/whop-wss-streaming/dom"
)

var containerTags = map[string]bool{"section": true, "article": true, "div": true}

const (
	featureItemLimit      = 12
	featureParagraphLimit = 6
	featureSectionLimit   = 4
)

// FeatureSection is a heading plus the list items and paragraphs found in
// its container.
type FeatureSection struct {
	Heading    string   `json:"heading"`
	Items      []string `json:"items"`
	Paragraphs []string `json:"paragraphs"`
}

// Features extracts feature sections: one per h2 whose text contains
// "feature", deduplicated by a fingerprint of their content.
func Features(tree *dom.Tree) []FeatureSection {
	if tree == nil {
		return nil
	}
	var out []FeatureSection
	seen := map[string]bool{}
	for _, heading := range tree.ByTag("h2") {
		headingText := heading.Text()
		if headingText == "" || !strings.Contains(strings.ToLower(headingText), "feature") {
			continue
		}
		container := heading.Ancestor(containerTags)
		if container == nil {
			container = heading
		}
		items := collectTexts(container, "li", featureItemLimit)
		paragraphs := collectTexts(container, "p", featureParagraphLimit)
		fingerprint := strings.Join(items, "|") + "::" + strings.Join(paragraphs, "|")
		if seen[fingerprint] {
			continue
		}
		seen[fingerprint] = true
		out = append(out, FeatureSection{
			Heading:    headingText,
			Items:      items,
			Paragraphs: paragraphs,
		})
		if len(out) >= featureSectionLimit {
			break
		}
	}
	return out
}

// collectTexts gathers up to limit distinct non-empty texts from descendants
// with the given tag, in document order.
func collectTexts(container *dom.Node, tag string, limit int) []string {
	var texts []string
	seen := map[string]bool{}
	container.Descendants(map[string]bool{tag: true}, func(n *dom.Node) bool {
		text := n.Text()
		if text != "" && !seen[text] {
			seen[text] = true
			texts = append(texts, text)
		}
		return len(texts) < limit
	})
	return texts
}
