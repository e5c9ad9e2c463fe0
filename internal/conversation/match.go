package conversation

import "strings"

// Match resolves free-form speech against a list of named items. Strategies
// are tried in order, stopping at the first hit:
//
//  1. case-insensitive exact equality
//  2. case-insensitive substring containment in either direction
//  3. a shared token longer than 2 characters between input and name
//
// Ties resolve by list order; there is no similarity scoring.
func Match[T any](input string, items []T, name func(T) string) (T, bool) {
	var zero T
	in := strings.ToLower(strings.TrimSpace(input))
	if in == "" || len(items) == 0 {
		return zero, false
	}

	for _, item := range items {
		if strings.ToLower(name(item)) == in {
			return item, true
		}
	}

	for _, item := range items {
		n := strings.ToLower(name(item))
		if strings.Contains(n, in) || strings.Contains(in, n) {
			return item, true
		}
	}

	inputTokens := strings.Fields(in)
	for _, item := range items {
		itemTokens := strings.Fields(strings.ToLower(name(item)))
		for _, it := range inputTokens {
			if len(it) <= 2 {
				continue
			}
			for _, nt := range itemTokens {
				if it == nt {
					return item, true
				}
			}
		}
	}

	return zero, false
}

// nameStopWords are filler tokens stripped before picking out a caller's name.
var nameStopWords = map[string]bool{
	"my": true, "name": true, "is": true, "i'm": true, "im": true,
	"this": true, "it's": true, "its": true, "the": true, "a": true, "an": true,
}

// ExtractName pulls a patient name out of an utterance like "my name is John
// Smith": filler words are dropped and the first two remaining tokens kept.
// If nothing survives the filter, the raw trimmed input is used as-is.
func ExtractName(input string) string {
	var kept []string
	for _, word := range strings.Fields(input) {
		if len(word) < 2 {
			continue
		}
		if nameStopWords[strings.ToLower(word)] {
			continue
		}
		kept = append(kept, word)
		if len(kept) == 2 {
			break
		}
	}
	if len(kept) == 0 {
		return strings.TrimSpace(input)
	}
	return strings.Join(kept, " ")
}
