package sections

import (
	"strings"

	"github.com/BAODAU/whop-wss-streaming/dom"
)

var (
	faqQuestionTags = map[string]bool{
		"h3": true, "h4": true, "summary": true, "button": true, "dt": true,
	}
	faqAnswerTags = map[string]bool{
		"p": true, "div": true, "span": true, "li": true, "dd": true,
		"ul": true, "ol": true, "section": true, "article": true, "blockquote": true,
	}
)

const (
	faqAnswerFallbackMinLen = 24
	faqEntryLimit           = 12
	faqSectionLimit         = 3
)

// FaqEntry is one question with its accumulated answer. Answer is nil when
// no answer text was recovered.
type FaqEntry struct {
	Question string  `json:"question"`
	Answer   *string `json:"answer"`
}

// FaqSection is a heading plus its ordered entries.
type FaqSection struct {
	Heading string     `json:"heading"`
	Entries []FaqEntry `json:"entries"`
}

// faqState tags the explicit question/answer pairing state machine: the
// collector is either idle or accumulating answer text for a pending
// question.
type faqState int

const (
	faqIdle faqState = iota
	faqQuestionPending
)

// faqCollector walks a container's descendants pairing question-like nodes
// with the answer text that follows them.
type faqCollector struct {
	state        faqState
	question     string
	answers      []string
	answerSeen   map[string]bool
	entries      []FaqEntry
	fingerprints map[string]bool
	questionPool map[string]bool
}

func newFaqCollector(pool map[string]bool) *faqCollector {
	return &faqCollector{
		answerSeen:   map[string]bool{},
		fingerprints: map[string]bool{},
		questionPool: pool,
	}
}

// flush appends the pending (question, joined answer) pair, deduplicated by
// fingerprint, and returns the collector to the idle state.
func (c *faqCollector) flush() {
	if c.state != faqQuestionPending {
		return
	}
	answer := strings.TrimSpace(strings.Join(c.answers, "\n\n"))
	fingerprint := c.question + "::" + answer
	if !c.fingerprints[fingerprint] {
		c.fingerprints[fingerprint] = true
		entry := FaqEntry{Question: c.question}
		if answer != "" {
			entry.Answer = &answer
		}
		c.entries = append(c.entries, entry)
	}
	c.state = faqIdle
	c.question = ""
	c.answers = nil
	c.answerSeen = map[string]bool{}
}

// observeQuestion transitions to question-pending, flushing any prior pair.
func (c *faqCollector) observeQuestion(text string) {
	if c.state == faqQuestionPending {
		c.flush()
	}
	if text == "" || len(c.entries) >= faqEntryLimit {
		return
	}
	c.state = faqQuestionPending
	c.question = text
	c.answers = nil
	c.answerSeen = map[string]bool{}
}

// observeAnswer accumulates answer text while a question is pending.
func (c *faqCollector) observeAnswer(node *dom.Node, text string) {
	if c.state != faqQuestionPending || text == "" {
		return
	}
	if text == c.question || c.questionPool[text] {
		return
	}
	if !faqAnswerTags[node.Tag] && len(text) < faqAnswerFallbackMinLen {
		return
	}
	// Strip a leading copy of the question plus trailing punctuation.
	if strings.HasPrefix(strings.ToLower(text), strings.ToLower(c.question)) {
		trimmed := strings.TrimLeft(text[len(c.question):], " :.-\n\t")
		if trimmed != "" {
			text = trimmed
		}
	}
	if text == "" || c.answerSeen[text] {
		return
	}
	c.answers = append(c.answers, text)
	c.answerSeen[text] = true
}

// Faqs extracts FAQ sections: one per h2 whose text contains "faq". Entries
// are capped at 12 per section, sections at 3; sections with no entries or a
// repeated entries fingerprint are dropped. Running Faqs twice over the same
// tree yields identical results.
func Faqs(tree *dom.Tree) []FaqSection {
	if tree == nil {
		return nil
	}
	var out []FaqSection
	seen := map[string]bool{}
	for _, heading := range tree.ByTag("h2") {
		headingText := heading.Text()
		if headingText == "" || !strings.Contains(strings.ToLower(headingText), "faq") {
			continue
		}
		container := heading.Ancestor(containerTags)
		if container == nil {
			container = heading
		}

		pool := map[string]bool{}
		container.Descendants(faqQuestionTags, func(n *dom.Node) bool {
			if text := n.Text(); text != "" {
				pool[text] = true
			}
			return true
		})

		collector := newFaqCollector(pool)
		container.Descendants(nil, func(n *dom.Node) bool {
			if len(collector.entries) >= faqEntryLimit {
				return false
			}
			if faqQuestionTags[n.Tag] {
				collector.observeQuestion(n.Text())
			} else {
				collector.observeAnswer(n, n.Text())
			}
			return true
		})
		if len(collector.entries) < faqEntryLimit {
			collector.flush()
		}

		var parts []string
		for _, entry := range collector.entries {
			answer := ""
			if entry.Answer != nil {
				answer = *entry.Answer
			}
			parts = append(parts, entry.Question+"::"+answer)
		}
		fingerprint := strings.Join(parts, "|")
		if len(collector.entries) == 0 || fingerprint == "" || seen[fingerprint] {
			continue
		}
		seen[fingerprint] = true
		out = append(out, FaqSection{Heading: headingText, Entries: collector.entries})
		if len(out) >= faqSectionLimit {
			break
		}
	}
	return out
}
