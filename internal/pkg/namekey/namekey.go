// Package namekey is the comparison policy for reference entity names:
// trim, collapse inner whitespace, Unicode case fold. Every place that
// decides whether two names denote the same entity uses it.
package namekey

import (
	"strings"

	"golang.org/x/text/cases"
)

// Key returns the canonical comparison form of name.
func Key(name string) string {
	collapsed := strings.Join(strings.Fields(name), " ")
	if collapsed == "" {
		return ""
	}
	// cases.Caser is stateful; build one per call.
	return cases.Fold().String(collapsed)
}

// Same reports whether a and b are the same name.
func Same(a, b string) bool { return Key(a) == Key(b) }
