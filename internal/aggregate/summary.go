package aggregate

import (
	"sort"

	"mfdash/internal/core"
)

// Summarize builds the category table for a selection: absolute spending
// per label at level, the refunds booked against the same labels, and each
// row's share and running share of the total. Rows without spending are
// dropped; refunds to labels with no spending are ignored.
func Summarize(expenses, refunds []core.Expense, f Filter, level core.CategoryLevel) (core.Summary, error) {
	selected, err := f.Select(expenses)
	if err != nil {
		return core.Summary{}, err
	}
	if level == "" {
		level = core.LevelMajor
	}

	spent := make(map[string]core.Money)
	for _, e := range selected {
		spent[e.Category(level)] = spent[e.Category(level)].Add(e.Amount)
	}
	refunded := make(map[string]core.Money)
	for _, r := range f.Apply(refunds) {
		refunded[r.Category(level)] = refunded[r.Category(level)].Add(r.Amount)
	}

	sum := core.Summary{Label: f.Label(), Level: level}
	for name, v := range spent {
		abs := v.Abs()
		if abs.IsZero() {
			continue
		}
		sum.Rows = append(sum.Rows, core.CategoryAmount{Name: name, Expense: abs, Refund: refunded[name]})
		sum.Total = sum.Total.Add(abs)
	}
	if len(sum.Rows) == 0 {
		return core.Summary{}, &core.EmptySelectionError{Selection: f.Describe()}
	}

	sort.Slice(sum.Rows, func(i, j int) bool {
		if c := sum.Rows[i].Expense.Cmp(sum.Rows[j].Expense.Decimal); c != 0 {
			return c > 0
		}
		return sum.Rows[i].Name < sum.Rows[j].Name
	})

	total := sum.Total.Float()
	var running float64
	for i := range sum.Rows {
		pct := sum.Rows[i].Expense.Float() / total * 100
		running += pct
		sum.Rows[i].Percent = pct
		sum.Rows[i].Cumulative = running
	}
	// Pin the last row so float drift never leaves the curve at 99.99.
	sum.Rows[len(sum.Rows)-1].Cumulative = 100
	return sum, nil
}

// Breakdown summarises the subcategories of category within f. An empty
// category resolves to the largest main category of the selection, the one
// the dashboard drills into by default. The resolved name is returned.
func Breakdown(expenses, refunds []core.Expense, f Filter, category string) (core.Summary, string, error) {
	f.Major = ""
	if category == "" {
		major, err := Summarize(expenses, refunds, f, core.LevelMajor)
		if err != nil {
			return core.Summary{}, "", err
		}
		category = major.Rows[0].Name
	}
	f.Major = category
	sum, err := Summarize(expenses, refunds, f, core.LevelMinor)
	if err != nil {
		return core.Summary{}, "", err
	}
	return sum, category, nil
}
