// Package flight extracts data from a page framework's streamed script
// payloads: a sequence of push calls each carrying a JSON-encoded string
// literal of further rendering instructions.
//
// Both scanners here are instances of one primitive: a bracket-depth walk
// that skips over double-quoted string contents, honoring backslash escapes,
// until the opening bracket is balanced. Malformed or unterminated blocks
// stop the scan silently.
package flight

import (
	"encoding/json"
	"strings"
)

const (
	pushNeedle = "self.__next_f.push(["
	pushPrefix = "self.__next_f.push("
)

// skipString returns the index of the closing quote for the double-quoted
// string starting at s[start] == '"'. An escaped quote does not terminate
// the string. If unterminated, the last index of s is returned.
func skipString(s string, start int) int {
	for i := start + 1; i < len(s); i++ {
		switch s[i] {
		case '\\':
			i++
		case '"':
			return i
		}
	}
	return len(s) - 1
}

// balancedEnd walks from s[open], which must be the opening bracket, and
// returns the index of the bracket that returns the nesting depth to zero,
// or -1 when the block is unterminated. Quoted strings are skipped whole.
func balancedEnd(s string, open int, openCh, closeCh byte) int {
	depth := 0
	for i := open; i < len(s); i++ {
		switch s[i] {
		case '"':
			i = skipString(s, i)
		case openCh:
			depth++
		case closeCh:
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// Payloads yields the decoded string literal of every streamed push call in
// document order. Each literal is itself JSON-decoded; literals that do not
// decode to strings are skipped.
func Payloads(rawHTML string) []string {
	if !strings.Contains(rawHTML, pushNeedle) {
		return nil
	}
	var decoded []string
	pos := 0
	for {
		start := strings.Index(rawHTML[pos:], pushNeedle)
		if start == -1 {
			break
		}
		start += pos

		open := start + len(pushNeedle) - 1
		end := balancedEnd(rawHTML, open, '[', ']')
		if end == -1 {
			break
		}

		block := rawHTML[start+len(pushPrefix) : end+1]
		for j := 0; j < len(block); j++ {
			if block[j] != '"' {
				continue
			}
			lit := block[j : skipString(block, j)+1]
			var s string
			if err := json.Unmarshal([]byte(lit), &s); err == nil {
				decoded = append(decoded, s)
			}
			j += len(lit) - 1
		}
		pos = end + 1
	}
	return decoded
}

// ArraysAfterKey finds each occurrence of key in payload and extracts the
// first balanced [...] JSON array following it. This is the reusable
// "balanced value after a key marker" primitive.
func ArraysAfterKey(payload, key string) []string {
	var arrays []string
	idx := 0
	for {
		found := strings.Index(payload[idx:], key)
		if found == -1 {
			break
		}
		found += idx
		open := strings.IndexByte(payload[found+len(key):], '[')
		if open == -1 {
			break
		}
		open += found + len(key)
		end := balancedEnd(payload, open, '[', ']')
		if end == -1 {
			break
		}
		arrays = append(arrays, payload[open:end+1])
		idx = end + 1
	}
	return arrays
}

// Entry is a question/answer pair recovered from a streamed payload.
type Entry struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

const faqKey = `"faq":`

// FAQEntries scans the streamed push payloads for FAQ arrays and returns the
// recovered entries, deduplicated by normalized question text. Arrays that
// fail to parse are skipped.
func FAQEntries(rawHTML string) []Entry {
	var entries []Entry
	seen := map[string]bool{}
	for _, payload := range Payloads(rawHTML) {
		if !strings.Contains(payload, faqKey) {
			continue
		}
		for _, arrayText := range ArraysAfterKey(payload, faqKey) {
			var data []any
			if err := json.Unmarshal([]byte(arrayText), &data); err != nil {
				continue
			}
			for _, item := range data {
				raw, ok := item.(map[string]any)
				if !ok {
					continue
				}
				question, qok := raw["question"].(string)
				answer, aok := raw["answer"].(string)
				if !qok || !aok {
					continue
				}
				normalized := NormalizeQuestion(question)
				if normalized == "" || seen[normalized] {
					continue
				}
				seen[normalized] = true
				entries = append(entries, Entry{
					Question: strings.TrimSpace(question),
					Answer:   strings.TrimSpace(answer),
				})
			}
		}
	}
	return entries
}

// NormalizeQuestion collapses whitespace and lower-cases question text so
// equivalent questions from different sources compare equal.
func NormalizeQuestion(text string) string {
	return strings.ToLower(strings.Join(strings.Fields(text), " "))
}
