// Package pulse watches the marketplace's live wire feed: a headless browser
// session with a WebSocket hook that forwards binary frames, a schemaless
// decoder for the proprietary protobuf payloads, and a collector that turns
// decoded frames into priced product sightings.
package pulse

import (
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"google.golang.org/protobuf/encoding/protowire"
)

// MarketplaceBaseURL prefixes product slugs seen on the wire.
const MarketplaceBaseURL = "https://whop.com/marketplace/"

// doubleHints maps field paths (string field numbers from the root down,
// dot-joined) to fixed64 fields known to carry IEEE-754 doubles.
var doubleHints = map[string]bool{
	"11.1": true,
}

// productDetailFieldNames labels the known fields of a product detail
// message.
var productDetailFieldNames = map[string]string{
	"1": "product_id",
	"2": "slug",
	"3": "vendor_handle",
	"4": "title",
	"6": "store_name",
}

// DecodeFrame decodes one base64 binary frame into a schemaless payload:
// nested maps keyed by string field numbers, with repeated fields as lists.
// Known noise shapes normalize to nil. Frames that are not parseable
// protobuf return an error.
func DecodeFrame(b64 string) (any, error) {
	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(b64))
	if err != nil {
		return nil, fmt.Errorf("decoding base64 frame: %w", err)
	}
	decoded, err := decodeMessage(raw, nil)
	if err != nil {
		return nil, fmt.Errorf("decoding frame: %w", err)
	}
	return normalizeDecoded(decoded), nil
}

// decodeMessage decodes a protobuf message without a schema. Length-delimited
// fields decode to nested messages when parseable, printable strings
// otherwise, and a hex marker as a last resort. path tracks string field
// numbers from the root for type hints.
func decodeMessage(data []byte, path []string) (map[string]any, error) {
	out := map[string]any{}
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return nil, protowire.ParseError(n)
		}
		data = data[n:]
		key := strconv.FormatInt(int64(num), 10)
		fieldPath := strings.Join(append(append([]string{}, path...), key), ".")

		var value any
		switch typ {
		case protowire.VarintType:
			v, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return nil, protowire.ParseError(n)
			}
			data = data[n:]
			value = int64(v)
		case protowire.Fixed32Type:
			v, n := protowire.ConsumeFixed32(data)
			if n < 0 {
				return nil, protowire.ParseError(n)
			}
			data = data[n:]
			value = int64(v)
		case protowire.Fixed64Type:
			v, n := protowire.ConsumeFixed64(data)
			if n < 0 {
				return nil, protowire.ParseError(n)
			}
			data = data[n:]
			if doubleHints[fieldPath] {
				value = math.Float64frombits(v)
			} else {
				value = int64(v)
			}
		case protowire.BytesType:
			v, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return nil, protowire.ParseError(n)
			}
			data = data[n:]
			value = decodeBytes(v, append(append([]string{}, path...), key))
		default:
			return nil, fmt.Errorf("unsupported wire type %d for field %s", typ, key)
		}

		appendField(out, key, value)
	}
	return out, nil
}

// decodeBytes interprets a length-delimited field: a clean nested message
// decode wins, then printable UTF-8 text, then a hex marker. Natural-language
// text almost never parses as a whole protobuf message, so trying the nested
// decode first keeps wrapped messages with printable bytes from being
// mistaken for strings.
func decodeBytes(data []byte, path []string) any {
	if len(data) == 0 {
		return ""
	}
	if nested, err := decodeMessage(data, path); err == nil {
		return nested
	}
	if printableUTF8(data) {
		return string(data)
	}
	return "<BINARY_HEX: " + hex.EncodeToString(data) + ">"
}

func printableUTF8(data []byte) bool {
	if !utf8.Valid(data) {
		return false
	}
	for _, r := range string(data) {
		if !unicode.IsPrint(r) && !unicode.IsSpace(r) {
			return false
		}
	}
	return true
}

// appendField stores a decoded value, turning repeated occurrences of a field
// number into a list.
func appendField(out map[string]any, key string, value any) {
	existing, ok := out[key]
	if !ok {
		out[key] = value
		return
	}
	if list, ok := existing.([]any); ok {
		out[key] = append(list, value)
		return
	}
	out[key] = []any{existing, value}
}

// normalizeDecoded handles known payload shapes before they surface: ack and
// cursor frames (single field 10 or 13) and the heartbeat shape (single
// field 8 wrapping two integers) are dropped as nil; the search-query frame
// (single field 42 wrapping a string) becomes {"query": s}.
func normalizeDecoded(decoded map[string]any) any {
	if len(decoded) != 1 {
		return decoded
	}
	for fieldID, payload := range decoded {
		switch fieldID {
		case "10", "13":
			return nil
		case "8":
			if wrapper, ok := payload.(map[string]any); ok {
				if inner, ok := wrapper["1"].(map[string]any); ok {
					_, hasSeq := inner["1"].(int64)
					_, hasTime := inner["2"].(int64)
					if hasSeq && hasTime {
						return nil
					}
				}
			}
		case "42":
			if wrapper, ok := payload.(map[string]any); ok {
				if query, ok := wrapper["1"].(string); ok {
					return map[string]any{"query": query}
				}
			}
		}
	}
	return decoded
}

// PricedProduct is one product sighting recovered from a decoded frame.
type PricedProduct struct {
	Price    *float64       `json:"price"`
	Currency *string        `json:"currency"`
	Slug     string         `json:"slug"`
	Name     *string        `json:"name"`
	Vendor   *string        `json:"vendor"`
	URL      string         `json:"url"`
	Details  map[string]any `json:"details"`
}

// CollectPricedProducts walks a decoded payload and captures every node
// shaped like a listed product, even when the price is missing. Traversal is
// depth-first with sorted field numbers, so identical payloads collect in
// identical order.
func CollectPricedProducts(node any) []PricedProduct {
	var results []PricedProduct
	var visit func(node any)
	visit = func(node any) {
		if product, ok := extractProduct(node); ok {
			results = append(results, product)
		}
		switch typed := node.(type) {
		case map[string]any:
			keys := make([]string, 0, len(typed))
			for key := range typed {
				keys = append(keys, key)
			}
			sort.Strings(keys)
			for _, key := range keys {
				visit(typed[key])
			}
		case []any:
			for _, child := range typed {
				visit(child)
			}
		}
	}
	visit(node)
	return results
}

// extractProduct recognizes the product shape: a detail message under field 4
// whose field 2 is a slug string. Price (1), currency (2), and vendor (3)
// ride alongside on the wrapping node.
func extractProduct(node any) (PricedProduct, bool) {
	wrapper, ok := node.(map[string]any)
	if !ok {
		return PricedProduct{}, false
	}
	details, ok := wrapper["4"].(map[string]any)
	if !ok {
		return PricedProduct{}, false
	}
	slug, ok := details["2"].(string)
	if !ok {
		return PricedProduct{}, false
	}

	product := PricedProduct{
		Slug:    slug,
		URL:     MarketplaceBaseURL + slug,
		Details: formatProductDetails(details),
	}
	switch price := wrapper["1"].(type) {
	case float64:
		product.Price = &price
	case int64:
		value := float64(price)
		product.Price = &value
	}
	if currency, ok := wrapper["2"].(string); ok {
		product.Currency = &currency
	}
	if vendor, ok := wrapper["3"].(string); ok {
		product.Vendor = &vendor
	}
	if name, ok := details["3"].(string); ok {
		product.Name = &name
	}
	return product, true
}

// formatProductDetails returns a labeled view of the product detail fields,
// omitting the nested media field (image URLs).
func formatProductDetails(details map[string]any) map[string]any {
	formatted := map[string]any{}
	for fieldID, value := range details {
		if fieldID == "18" {
			continue
		}
		label, ok := productDetailFieldNames[fieldID]
		if !ok {
			label = "field_" + fieldID
		}
		formatted[label] = value
	}
	return formatted
}
