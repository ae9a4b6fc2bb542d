package keyterms

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// ErrMalformedOutput is returned when generated text is not a JSON array.
var ErrMalformedOutput = errors.New("malformed keyterm output")

// Parse extracts a keyterm list from raw model output. The output must be a
// JSON array, optionally wrapped in a markdown code fence. Elements that are
// not strings, are empty, or exceed maxLen runes are dropped; the result is
// truncated to maxTerms.
func Parse(raw string, maxTerms, maxLen int) ([]string, error) {
	body := stripCodeFence(raw)
	if body == "" {
		return nil, fmt.Errorf("%w: empty response", ErrMalformedOutput)
	}

	var elems []json.RawMessage
	if err := json.Unmarshal([]byte(body), &elems); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedOutput, err)
	}
	// "null" decodes into a nil slice without error.
	if elems == nil {
		return nil, fmt.Errorf("%w: not an array", ErrMalformedOutput)
	}

	terms := make([]string, 0, min(len(elems), maxTerms))
	for _, elem := range elems {
		if len(terms) == maxTerms {
			break
		}
		term, ok := decodeTerm(elem)
		if !ok || !Valid(term, maxLen) {
			continue
		}
		terms = append(terms, term)
	}
	return terms, nil
}

// decodeTerm accepts only JSON strings; numbers, objects, arrays, booleans
// and null are rejected rather than coerced.
func decodeTerm(elem json.RawMessage) (string, bool) {
	trimmed := strings.TrimSpace(string(elem))
	if !strings.HasPrefix(trimmed, `"`) {
		return "", false
	}
	var s string
	if err := json.Unmarshal(elem, &s); err != nil {
		return "", false
	}
	return s, true
}

// Valid reports whether term has between 1 and maxLen code points.
func Valid(term string, maxLen int) bool {
	n := utf8.RuneCountInString(term)
	return n > 0 && n <= maxLen
}

// stripCodeFence removes a leading ``` line (with or without a language tag)
// and everything from the last closing fence on.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	_, rest, found := strings.Cut(s, "\n")
	if !found {
		return ""
	}
	if i := strings.LastIndex(rest, "```"); i >= 0 {
		rest = rest[:i]
	}
	return strings.TrimSpace(rest)
}
