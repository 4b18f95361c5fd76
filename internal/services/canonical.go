package services

import (
	"sort"
	"strings"
)

// CanonicalKey dedupes parts, sorts them ascending and joins them with "-", so the same
// combination always maps to the same key regardless of order or repetition. Empty parts
// are ignored; no usable parts yields "".
func CanonicalKey(parts []string) string {
	seen := make(map[string]struct{}, len(parts))
	unique := make([]string, 0, len(parts))
	for _, p := range parts {
		if p == "" {
			continue
		}
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		unique = append(unique, p)
	}
	sort.Strings(unique)
	return strings.Join(unique, "-")
}
