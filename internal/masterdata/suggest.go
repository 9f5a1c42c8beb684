package masterdata

import (
	"sort"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// maxSuggestions caps the "did you mean" list attached to not-found issues.
const maxSuggestions = 3

// Suggest returns up to three known names of kind that are close to name,
// closest first.
func (s *Snapshot) Suggest(kind, name string) []string {
	if Key(name) == "" {
		return nil
	}
	names := s.Names(kind)
	ranks := fuzzy.RankFindNormalizedFold(name, names)
	// Also try the other direction so "Black White" finds "Black & White".
	for _, n := range names {
		if fuzzy.MatchNormalizedFold(Key(n), Key(name)) {
			ranks = append(ranks, fuzzy.Rank{Source: name, Target: n, Distance: len(name) - len(n)})
		}
	}
	sort.SliceStable(ranks, func(i, j int) bool { return ranks[i].Distance < ranks[j].Distance })

	seen := make(map[string]bool)
	var out []string
	for _, r := range ranks {
		if seen[r.Target] {
			continue
		}
		seen[r.Target] = true
		out = append(out, r.Target)
		if len(out) == maxSuggestions {
			break
		}
	}
	return out
}
