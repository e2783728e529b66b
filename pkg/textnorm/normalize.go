// Package textnorm normalizes free-form owner and classification text:
// case-folding and stripping to alphanumeric runs, the way the teacher's
// classifier lower-cases and concatenates text fields before matching.
package textnorm

import "strings"

// OwnerKey is the normalization function used to collate owner names for
// grouping and ordering. It is a swappable function value rather than a
// hardcoded call so a future collation strategy (see spec.md §9's open
// question on AT&T/ATT collisions) can be substituted without touching
// call sites. The default is the documented strip-to-[a-z0-9]+ behavior.
var OwnerKey = stripAlnumLower

// stripAlnumLower case-folds s and removes every rune that isn't an ASCII
// letter or digit. Intentional collisions (e.g. "AT&T" and "ATT" both
// normalize to "att") are accepted per spec.md §9.
func stripAlnumLower(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r >= 'A' && r <= 'Z':
			b.WriteRune(r - 'A' + 'a')
		case r >= 'a' && r <= 'z':
			b.WriteRune(r)
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		}
	}
	return b.String()
}

// FoldConcat lower-cases and concatenates a set of free-text fields with a
// single space separator, the input the Classifier matches tokens against.
func FoldConcat(fields ...string) string {
	return strings.ToLower(strings.Join(fields, " "))
}

// HasToken reports whether needle appears anywhere in the already-folded
// haystack text.
func HasToken(haystack, needle string) bool {
	return strings.Contains(haystack, needle)
}
