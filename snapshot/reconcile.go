package snapshot

import (
	"fmt"
	"strings"

	"github.com/BAODAU/whop-wss-streaming/flight"
	"github.com/BAODAU/whop-wss-streaming/payload"
	"github.com/BAODAU/whop-wss-streaming/sections"
)

const faqEntryLimit = 12

// MergeFaqSections reconciles DOM FAQ sections with scanner-sourced fallback
// entries, matched by normalized question text. DOM entries missing answers
// are filled from the fallback; with no DOM sections at all, one "FAQs"
// section is synthesized from the fallback entries.
func MergeFaqSections(domSections []sections.FaqSection, fallback []flight.Entry) []sections.FaqSection {
	if len(fallback) == 0 {
		return domSections
	}
	fallbackAnswers := map[string]string{}
	for _, entry := range fallback {
		normalized := flight.NormalizeQuestion(entry.Question)
		if normalized != "" && entry.Answer != "" {
			fallbackAnswers[normalized] = entry.Answer
		}
	}

	if len(domSections) == 0 {
		limit := len(fallback)
		if limit > faqEntryLimit {
			limit = faqEntryLimit
		}
		entries := make([]sections.FaqEntry, 0, limit)
		for _, entry := range fallback[:limit] {
			answer := strings.TrimSpace(entry.Answer)
			faq := sections.FaqEntry{Question: strings.TrimSpace(entry.Question)}
			if answer != "" {
				faq.Answer = &answer
			}
			entries = append(entries, faq)
		}
		if len(entries) == 0 {
			return domSections
		}
		return []sections.FaqSection{{Heading: "FAQs", Entries: entries}}
	}

	for si := range domSections {
		for ei := range domSections[si].Entries {
			entry := &domSections[si].Entries[ei]
			if entry.Answer != nil && *entry.Answer != "" {
				continue
			}
			if answer, ok := fallbackAnswers[flight.NormalizeQuestion(entry.Question)]; ok && answer != "" {
				filled := answer
				entry.Answer = &filled
			}
		}
	}
	return domSections
}

// sectionPayload is the promotable body of a DOM-extracted section: its
// fields minus the heading.
type sectionPayload struct {
	heading string
	fields  map[string]any
}

// PromoteFeatureSections prepares DOM feature sections for content-map
// promotion.
func PromoteFeatureSections(content map[string]any, secs []sections.FeatureSection) {
	payloads := make([]sectionPayload, 0, len(secs))
	for _, section := range secs {
		payloads = append(payloads, sectionPayload{
			heading: section.Heading,
			fields: map[string]any{
				"items":      section.Items,
				"paragraphs": section.Paragraphs,
			},
		})
	}
	promote(content, payloads)
}

// PromoteFaqSections prepares DOM FAQ sections for content-map promotion. A
// section whose only payload is its entries list is stored as the bare list.
func PromoteFaqSections(content map[string]any, secs []sections.FaqSection) {
	payloads := make([]sectionPayload, 0, len(secs))
	for _, section := range secs {
		payloads = append(payloads, sectionPayload{
			heading: section.Heading,
			fields:  map[string]any{"entries": section.Entries},
		})
	}
	promote(content, payloads)
}

// promote surfaces each section under its heading text as a direct key of
// the content map, suffixing colliding keys with a numeric marker.
func promote(content map[string]any, payloads []sectionPayload) {
	for idx, section := range payloads {
		heading := strings.TrimSpace(section.heading)
		if heading == "" {
			heading = fmt.Sprintf("dom_section_%d", idx+1)
		}
		if len(section.fields) == 0 {
			continue
		}
		key := heading
		for suffix := 2; ; suffix++ {
			if _, taken := content[key]; !taken {
				break
			}
			key = fmt.Sprintf("%s (%d)", heading, suffix)
		}
		if len(section.fields) == 1 {
			if entries, ok := section.fields["entries"]; ok {
				content[key] = entries
				continue
			}
		}
		content[key] = section.fields
	}
}

// FlattenFeatures merges structured-payload and DOM feature sections into
// one ordered list of plain strings, deduplicated by normalized text. For
// structured items the title wins, then the description.
func FlattenFeatures(structured []payload.FeatureSection, domSections []sections.FeatureSection) []string {
	var flattened []string
	seen := map[string]bool{}
	appendText := func(text string) {
		normalized := strings.Join(strings.Fields(text), " ")
		if normalized != "" && !seen[normalized] {
			seen[normalized] = true
			flattened = append(flattened, normalized)
		}
	}
	for _, section := range structured {
		for _, item := range section.Items {
			if item.Title != "" {
				appendText(item.Title)
			} else if item.Description != "" {
				appendText(item.Description)
			}
		}
	}
	for _, section := range domSections {
		for _, item := range section.Items {
			appendText(item)
		}
	}
	return flattened
}

// FlattenFaqs merges the content map's promoted FAQs entry with every DOM
// FAQ section into one list, deduplicated by normalized question. The first
// occurrence of a question wins.
func FlattenFaqs(content map[string]any, domSections []sections.FaqSection) []FaqEntry {
	var sources [][]sections.FaqEntry
	switch promoted := content["FAQs"].(type) {
	case []sections.FaqEntry:
		sources = append(sources, promoted)
	case map[string]any:
		if entries, ok := promoted["entries"].([]sections.FaqEntry); ok {
			sources = append(sources, entries)
		}
	}
	for _, section := range domSections {
		sources = append(sources, section.Entries)
	}

	var flattened []FaqEntry
	seen := map[string]bool{}
	for _, entries := range sources {
		for _, entry := range entries {
			question := strings.Join(strings.Fields(entry.Question), " ")
			if question == "" {
				continue
			}
			fingerprint := strings.ToLower(question)
			if seen[fingerprint] {
				continue
			}
			seen[fingerprint] = true
			flat := FaqEntry{Question: question}
			if entry.Answer != nil {
				if answer := strings.TrimSpace(*entry.Answer); answer != "" {
					flat.Answer = &answer
				}
			}
			flattened = append(flattened, flat)
		}
	}
	return flattened
}
