// Package masterdata is the Master Data Cache: an immutable per-run snapshot
// of reference collections plus memoized, run-scoped lookups.
//
// Every master-data comparison in the engine goes through Key: names are
// trimmed, inner whitespace is collapsed and the result is Unicode case
// folded. "  Black &  White" and "black & white" are the same range.
package masterdata

import "github.com/ignite/gameplan-importer/internal/pkg/namekey"

// Key returns the canonical comparison form of a master-data name.
func Key(name string) string { return namekey.Key(name) }

// Same reports whether two names are equal under the comparison policy.
func Same(a, b string) bool { return namekey.Same(a, b) }
