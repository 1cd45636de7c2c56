// Package strings normalizes user-supplied string lists such as recommended
// species and target site references.
package strings

import (
	"strings"
)

// DedupeAndTrim trims each element and drops blanks and exact duplicates,
// keeping first-seen order. Used for identifiers, which are case-sensitive.
func DedupeAndTrim(values []string) []string {
	return dedupe(values, strings.TrimSpace, strings.TrimSpace)
}

// DedupeFold is DedupeAndTrim for free-text names: runs of inner whitespace
// collapse to one space and duplicates are matched case-insensitively. The
// first spelling wins, so "Quercus robur" and "quercus  ROBUR" keep the former.
func DedupeFold(values []string) []string {
	return dedupe(values, collapseSpace, func(s string) string {
		return strings.ToLower(collapseSpace(s))
	})
}

func dedupe(values []string, normalize, key func(string) string) []string {
	if len(values) == 0 {
		return []string{}
	}
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		n := normalize(v)
		if n == "" {
			continue
		}
		k := key(v)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, n)
	}
	return out
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
