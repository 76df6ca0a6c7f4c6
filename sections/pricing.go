package sections

import (
	"strings"

	"github.com/BAODAU/whop-wss-streaming/dom"
)

// PricingOptions collects the normalized text of every div with an ARIA role
// of exactly "radio", deduplicated, in document order.
func PricingOptions(tree *dom.Tree) []string {
	if tree == nil {
		return nil
	}
	var options []string
	seen := map[string]bool{}
	for _, node := range tree.ByTag("div") {
		if !strings.EqualFold(node.Attr("role"), "radio") {
			continue
		}
		text := node.Text()
		if text == "" || seen[text] {
			continue
		}
		seen[text] = true
		options = append(options, text)
	}
	return options
}
