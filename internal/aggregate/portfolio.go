package aggregate

import (
	"sort"

	"mfdash/internal/core"
)

// Portfolio is a set of stacked series sharing the same buckets.
type Portfolio struct {
	Buckets []string
	Series  []core.Series
}

// BuildPortfolio sums absolute spending per bucket and category label.
// Every series carries a point for every bucket, zero-filled, so the
// series stack cleanly.
func BuildPortfolio(expenses []core.Expense, f Filter, bucket core.Granularity, level core.CategoryLevel) (Portfolio, error) {
	series, err := Aggregate(expenses, Grouping{Filter: f, Bucket: bucket, Level: level})
	if err != nil {
		return Portfolio{}, err
	}

	seen := make(map[string]bool)
	var buckets []string
	for _, s := range series {
		for _, p := range s.Points {
			if !seen[p.Label] {
				seen[p.Label] = true
				buckets = append(buckets, p.Label)
			}
		}
	}
	sort.Strings(buckets)

	out := Portfolio{Buckets: buckets, Series: make([]core.Series, len(series))}
	for i, s := range series {
		values := make(map[string]core.Money, len(s.Points))
		for _, p := range s.Points {
			values[p.Label] = p.Value.Abs()
		}
		filled := core.Series{Name: s.Name, Points: make([]core.Point, len(buckets))}
		for j, b := range buckets {
			filled.Points[j] = core.Point{Label: b, Value: values[b]}
		}
		out.Series[i] = filled
	}
	return out, nil
}

// PortfolioBucket picks the x-axis of the "monthly" portfolio: days when a
// month selection is shown, months when years are shown.
func PortfolioBucket(g core.Granularity) core.Granularity {
	if g == core.Yearly {
		return core.Monthly
	}
	return core.Daily
}
