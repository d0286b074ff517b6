// Package aggregate groups expense records into chart-ready series and
// summaries.
package aggregate

import (
	"fmt"
	"sort"
	"strings"

	"mfdash/internal/core"
)

// AllMinor selects every minor category in a drill-down.
const AllMinor = "All"

// Filter selects the records a chart is built from. Empty Periods selects
// every period; empty Major and Minor select every category.
type Filter struct {
	Granularity core.Granularity
	Periods     []string
	Major       string
	Minor       string
}

func (f Filter) granularity() core.Granularity {
	if f.Granularity == "" {
		return core.Monthly
	}
	return f.Granularity
}

// Normalize sorts and de-duplicates the selected periods so that a period
// picked twice is counted once.
func (f Filter) Normalize() Filter {
	seen := make(map[string]bool, len(f.Periods))
	periods := make([]string, 0, len(f.Periods))
	for _, p := range f.Periods {
		p = strings.TrimSpace(p)
		if p == "" || seen[p] {
			continue
		}
		seen[p] = true
		periods = append(periods, p)
	}
	sort.Strings(periods)
	f.Periods = periods
	f.Granularity = f.granularity()
	if f.Minor == AllMinor {
		f.Minor = ""
	}
	return f
}

func (f Filter) match(e core.Expense, periods map[string]bool) bool {
	if len(periods) > 0 && !periods[e.Date.Bucket(f.Granularity)] {
		return false
	}
	if f.Major != "" && e.Major != f.Major {
		return false
	}
	if f.Minor != "" && e.Minor != f.Minor {
		return false
	}
	return true
}

// Apply returns the records matching f, in input order.
func (f Filter) Apply(records []core.Expense) []core.Expense {
	f = f.Normalize()
	periods := make(map[string]bool, len(f.Periods))
	for _, p := range f.Periods {
		periods[p] = true
	}
	var out []core.Expense
	for _, r := range records {
		if f.match(r, periods) {
			out = append(out, r)
		}
	}
	return out
}

// Select is Apply but reports an empty result as EmptySelectionError.
func (f Filter) Select(records []core.Expense) ([]core.Expense, error) {
	out := f.Apply(records)
	if len(out) == 0 {
		return nil, &core.EmptySelectionError{Selection: f.Describe()}
	}
	return out, nil
}

// Label is the selection label used in chart titles.
func (f Filter) Label() string {
	f = f.Normalize()
	return SelectionLabel(f.Granularity, f.Periods)
}

// Describe names the selection including category filters.
func (f Filter) Describe() string {
	f = f.Normalize()
	parts := []string{}
	if label := SelectionLabel(f.Granularity, f.Periods); label != "" {
		parts = append(parts, label)
	}
	if f.Major != "" {
		parts = append(parts, f.Major)
	}
	if f.Minor != "" {
		parts = append(parts, f.Minor)
	}
	return strings.Join(parts, " / ")
}

// SelectionLabel renders selected periods for titles: months are listed
// up to three, beyond that "<first> and others"; years collapse to a range.
func SelectionLabel(g core.Granularity, periods []string) string {
	switch {
	case len(periods) == 0:
		return "All periods"
	case g == core.Yearly:
		ys := append([]string(nil), periods...)
		sort.Strings(ys)
		if len(ys) == 1 {
			return ys[0]
		}
		return fmt.Sprintf("%s–%s", ys[0], ys[len(ys)-1])
	case len(periods) <= 3:
		return strings.Join(periods, ", ")
	default:
		return periods[0] + " and others"
	}
}

// Periods returns the sorted distinct buckets present in records.
func Periods(records []core.Expense, g core.Granularity) []string {
	seen := make(map[string]bool)
	var out []string
	for _, r := range records {
		b := r.Date.Bucket(g)
		if !seen[b] {
			seen[b] = true
			out = append(out, b)
		}
	}
	sort.Strings(out)
	return out
}

// Categories returns the sorted distinct labels at level.
func Categories(records []core.Expense, level core.CategoryLevel) []string {
	seen := make(map[string]bool)
	var out []string
	for _, r := range records {
		c := r.Category(level)
		if !seen[c] {
			seen[c] = true
			out = append(out, c)
		}
	}
	sort.Strings(out)
	return out
}
