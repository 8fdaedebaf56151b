// Package strings normalizes configured string lists such as screening
// denylists and country-code sets.
package strings

import (
	"strings"
)

// DedupeAndTrim removes duplicates and blanks, trimming each element.
// Order is preserved.
func DedupeAndTrim(values []string) []string {
	return dedupe(values, func(s string) string { return s })
}

// DedupeAndTrimLower is DedupeAndTrim with lowercase folding, for
// case-insensitive name lists.
func DedupeAndTrimLower(values []string) []string {
	return dedupe(values, strings.ToLower)
}

// DedupeAndTrimUpper is DedupeAndTrim with uppercase folding, for ISO
// country codes.
func DedupeAndTrimUpper(values []string) []string {
	return dedupe(values, strings.ToUpper)
}

// SplitList parses a comma-separated configuration value.
func SplitList(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	return DedupeAndTrim(strings.Split(raw, ","))
}

// Set builds a membership set from already-normalized values.
func Set(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}

func dedupe(values []string, fold func(string) string) []string {
	if len(values) == 0 {
		return values
	}
	seen := make(map[string]struct{}, len(values))
	result := make([]string, 0, len(values))
	for _, v := range values {
		normalized := fold(strings.TrimSpace(v))
		if normalized == "" {
			continue
		}
		if _, ok := seen[normalized]; !ok {
			seen[normalized] = struct{}{}
			result = append(result, normalized)
		}
	}
	return result
}
