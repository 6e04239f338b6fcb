package domain

import (
	"fmt"
	"regexp"
	"strings"
)

// NormalizeName strips the trailing dot from a zone or record name.
// "example.com" and "example.com." denote the same DNS name everywhere
// in the policy engine.
func NormalizeName(name string) string {
	return strings.TrimSuffix(name, ".")
}

// NamesEqual reports whether two zone or record names are equal, ignoring
// a trailing dot on either side.
func NamesEqual(a, b string) bool {
	return NormalizeName(a) == NormalizeName(b)
}

// IsSubzone reports whether zone is a dot-separated descendant of parent.
// The parent itself does not count; callers that want the non-strict check
// combine this with NamesEqual.
func IsSubzone(zone, parent string) bool {
	return strings.HasSuffix(NormalizeName(zone), "."+NormalizeName(parent))
}

// compileAnchored compiles a grant pattern anchored at the start of the input.
// Go's RE2 engine is non-backtracking, so pathological grant patterns cannot
// cause catastrophic matching times.
func compileAnchored(pattern string) (*regexp.Regexp, error) {
	re, err := regexp.Compile(`\A(?:` + pattern + `)`)
	if err != nil {
		return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
	}
	return re, nil
}
