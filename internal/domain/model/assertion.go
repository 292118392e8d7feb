package model

import (
	"regexp"
	"strings"
)

// Assertion is the parsed form of one declaration in a model section
// (e.g. p, p2, g, m, e).
type Assertion struct {
	// Key is the assertion's identifier within its section ("p", "g2", ...).
	Key string
	// Value is the raw declaration string for r/p, or the normalized
	// (comment-stripped, escaped) string for g/m/e.
	Value string
	// Tokens is the ordered list of qualified field names for r/p
	// assertions ("p_sub", "p_obj", ...); unused for g/m/e.
	Tokens []string
	// Policy is the ordered sequence of rules loaded for this assertion.
	// Each rule's length must match len(Tokens) for r/p assertions.
	Policy [][]string
}

// escapeRegex rewrites a leading "r." or "p." into "r_"/"p_" whenever it
// follows the start of the string or one of the operator-boundary
// characters, so that "r.sub" becomes "r_sub" while "r.attr.value"
// becomes "r_attr.value" (only the first, qualifying dot is rewritten).
var escapeRegex = regexp.MustCompile(`(^|[\s|&><+\-*/()!,=]+)([rp])(\.)`)

// EscapeAssertion normalizes dotted field access in a matcher/effect
// expression into the underscored identifiers the expression evaluator
// binds ("r.sub" -> "r_sub"), preserving nested attribute access
// ("r.attr.value" -> "r_attr.value").
func EscapeAssertion(s string) string {
	return escapeRegex.ReplaceAllString(s, "${1}${2}_")
}

// RemoveComments strips everything from the first "#" onward and trims
// surrounding whitespace from what remains.
func RemoveComments(s string) string {
	if i := strings.IndexByte(s, '#'); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}
