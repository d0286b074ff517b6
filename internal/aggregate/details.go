package aggregate

import (
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"mfdash/internal/core"
)

// Details lists the selected records ordered by date. A non-empty query
// keeps only records whose description or memo fuzzily contains it,
// ignoring case and width/diacritic differences.
func Details(expenses []core.Expense, f Filter, query string) ([]core.Expense, error) {
	selected, err := f.Select(expenses)
	if err != nil {
		return nil, err
	}

	query = strings.TrimSpace(query)
	out := make([]core.Expense, 0, len(selected))
	for _, e := range selected {
		if query != "" &&
			!fuzzy.MatchNormalizedFold(query, e.Description) &&
			!fuzzy.MatchNormalizedFold(query, e.Memo) {
			continue
		}
		out = append(out, e)
	}
	if len(out) == 0 {
		return nil, &core.EmptySelectionError{Selection: f.Describe() + " / " + query}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date.Time) })
	return out, nil
}

// Search ranks descriptions of records against query, closest first. It
// backs the description suggestions of the detail table.
func Search(expenses []core.Expense, query string, limit int) []string {
	seen := make(map[string]bool)
	var targets []string
	for _, e := range expenses {
		if e.Description != "" && !seen[e.Description] {
			seen[e.Description] = true
			targets = append(targets, e.Description)
		}
	}
	ranks := fuzzy.RankFindNormalizedFold(query, targets)
	sort.Sort(ranks)
	out := make([]string, 0, len(ranks))
	for _, r := range ranks {
		if limit > 0 && len(out) == limit {
			break
		}
		out = append(out, r.Target)
	}
	return out
}
