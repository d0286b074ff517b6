package aggregate

import (
	"sort"

	"mfdash/internal/core"
)

// Grouping configures Aggregate. Bucket defaults to the filter granularity
// and Level to the major category.
type Grouping struct {
	Filter
	Bucket core.Granularity
	Level  core.CategoryLevel
}

// Aggregate returns one Series per category label at g.Level, each point
// being the signed sum of amounts in one time bucket. Buckets are sorted;
// series are ordered by absolute total, largest first. The values of all
// series add up to the total of the selected records.
func Aggregate(records []core.Expense, g Grouping) ([]core.Series, error) {
	selected, err := g.Filter.Select(records)
	if err != nil {
		return nil, err
	}
	bucket := g.Bucket
	if bucket == "" {
		bucket = g.Filter.granularity()
	}
	level := g.Level
	if level == "" {
		level = core.LevelMajor
	}

	sums := make(map[string]map[string]core.Money)
	for _, r := range selected {
		label := r.Category(level)
		if sums[label] == nil {
			sums[label] = make(map[string]core.Money)
		}
		b := r.Date.Bucket(bucket)
		sums[label][b] = sums[label][b].Add(r.Amount)
	}

	series := make([]core.Series, 0, len(sums))
	for label, byBucket := range sums {
		s := core.Series{Name: label, Points: make([]core.Point, 0, len(byBucket))}
		for b, v := range byBucket {
			s.Points = append(s.Points, core.Point{Label: b, Value: v})
		}
		sort.Slice(s.Points, func(i, j int) bool { return s.Points[i].Label < s.Points[j].Label })
		series = append(series, s)
	}
	sortSeries(series)
	return series, nil
}

// Total sums record amounts.
func Total(records []core.Expense) core.Money {
	var t core.Money
	for _, r := range records {
		t = t.Add(r.Amount)
	}
	return t
}

func sortSeries(series []core.Series) {
	totals := make(map[string]core.Money, len(series))
	for _, s := range series {
		totals[s.Name] = s.Total().Abs()
	}
	sort.SliceStable(series, func(i, j int) bool {
		ti, tj := totals[series[i].Name], totals[series[j].Name]
		if c := ti.Cmp(tj.Decimal); c != 0 {
			return c > 0
		}
		return series[i].Name < series[j].Name
	})
}
