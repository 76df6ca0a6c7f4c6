package flight

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestPayloads(t *testing.T) {
	page := `<script>self.__next_f.push([1,"first chunk"])</script>` +
		`<script>self.__next_f.push([1,"second [chunk] with brackets"])</script>`
	got := Payloads(page)
	want := []string{"first chunk", "second [chunk] with brackets"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Payloads = %v, want %v", got, want)
	}
}

func TestPayloadsEscapedQuote(t *testing.T) {
	// Round-trip: a JSON array containing a string with an escaped quote,
	// embedded inside the push-call syntax, must survive unchanged.
	inner, err := json.Marshal([]string{`a"b`})
	if err != nil {
		t.Fatal(err)
	}
	literal, err := json.Marshal(`{"faq":` + string(inner) + `}`)
	if err != nil {
		t.Fatal(err)
	}
	page := `self.__next_f.push([1,` + string(literal) + `])`

	payloads := Payloads(page)
	if len(payloads) != 1 {
		t.Fatalf("expected 1 payload, got %d: %v", len(payloads), payloads)
	}
	arrays := ArraysAfterKey(payloads[0], `"faq":`)
	if len(arrays) != 1 {
		t.Fatalf("expected 1 array, got %d", len(arrays))
	}
	var roundTripped []string
	if err := json.Unmarshal([]byte(arrays[0]), &roundTripped); err != nil {
		t.Fatalf("recovered array does not parse: %v", err)
	}
	if !reflect.DeepEqual(roundTripped, []string{`a"b`}) {
		t.Errorf("round trip = %v, want [a\"b]", roundTripped)
	}
}

func TestPayloadsUnterminatedBlockFailsOpen(t *testing.T) {
	page := `self.__next_f.push([1,"ok"])self.__next_f.push([1,"unterminated`
	got := Payloads(page)
	if !reflect.DeepEqual(got, []string{"ok"}) {
		t.Errorf("Payloads = %v, want [ok]", got)
	}
}

func TestPayloadsNoNeedle(t *testing.T) {
	if got := Payloads("<html><body>nothing here</body></html>"); got != nil {
		t.Errorf("Payloads = %v, want nil", got)
	}
}

func TestArraysAfterKey(t *testing.T) {
	payload := `{"faq":[{"q":1}],"other":[2],"faq":[[3,4],5]}`
	got := ArraysAfterKey(payload, `"faq":`)
	want := []string{`[{"q":1}]`, `[[3,4],5]`}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ArraysAfterKey = %v, want %v", got, want)
	}
}

func TestFAQEntries(t *testing.T) {
	faqJSON := `{"faq":[{"question":"Is it good?","answer":"Yes."},` +
		`{"question":"is it  GOOD?","answer":"duplicate"},` +
		`{"question":"How fast?","answer":"Very."},` +
		`{"question":123,"answer":"skipped"}]}`
	literal, err := json.Marshal(faqJSON)
	if err != nil {
		t.Fatal(err)
	}
	page := `self.__next_f.push([1,` + string(literal) + `])`

	entries := FAQEntries(page)
	want := []Entry{
		{Question: "Is it good?", Answer: "Yes."},
		{Question: "How fast?", Answer: "Very."},
	}
	if !reflect.DeepEqual(entries, want) {
		t.Errorf("FAQEntries = %v, want %v", entries, want)
	}
}

func TestFAQEntriesMalformedArraySkipped(t *testing.T) {
	literal, _ := json.Marshal(`{"faq":[{"question":"broken"`)
	page := `self.__next_f.push([1,` + string(literal) + `])`
	if entries := FAQEntries(page); entries != nil {
		t.Errorf("FAQEntries = %v, want nil", entries)
	}
}

func TestNormalizeQuestion(t *testing.T) {
	if got := NormalizeQuestion("  Is   It\tGood? "); got != "is it good?" {
		t.Errorf("NormalizeQuestion = %q", got)
	}
}
