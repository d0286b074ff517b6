package aggregate

import (
	"math"
	"sort"

	"mfdash/internal/core"
)

// Box computes distribution statistics of absolute amounts grouped by key.
// Groups are returned in descending order of median, then label.
func Box(expenses []core.Expense, f Filter, key func(core.Expense) string) ([]core.BoxStats, error) {
	selected, err := f.Select(expenses)
	if err != nil {
		return nil, err
	}

	groups := make(map[string][]float64)
	for _, e := range selected {
		k := key(e)
		groups[k] = append(groups[k], e.Amount.Abs().Float())
	}

	out := make([]core.BoxStats, 0, len(groups))
	for label, values := range groups {
		out = append(out, boxStats(label, values))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Median != out[j].Median {
			return out[i].Median > out[j].Median
		}
		return out[i].Label < out[j].Label
	})
	return out, nil
}

// ByCategory groups by the category label at level.
func ByCategory(level core.CategoryLevel) func(core.Expense) string {
	return func(e core.Expense) string { return e.Category(level) }
}

// ByDescription groups by description.
func ByDescription(e core.Expense) string { return e.Description }

func boxStats(label string, values []float64) core.BoxStats {
	v := append([]float64(nil), values...)
	sort.Float64s(v)

	s := core.BoxStats{
		Label:  label,
		Count:  len(v),
		Min:    v[0],
		Max:    v[len(v)-1],
		Q1:     quantile(v, 0.25),
		Median: quantile(v, 0.5),
		Q3:     quantile(v, 0.75),
		Values: v,
	}
	var sum float64
	for _, x := range v {
		sum += x
	}
	s.Mean = sum / float64(len(v))

	iqr := s.Q3 - s.Q1
	lo, hi := s.Q1-1.5*iqr, s.Q3+1.5*iqr
	s.WhiskerLow, s.WhiskerHigh = s.Max, s.Min
	for _, x := range v {
		if x < lo || x > hi {
			s.Outliers = append(s.Outliers, x)
			continue
		}
		s.WhiskerLow = math.Min(s.WhiskerLow, x)
		s.WhiskerHigh = math.Max(s.WhiskerHigh, x)
	}
	return s
}

// quantile interpolates linearly between closest ranks of sorted v.
func quantile(v []float64, q float64) float64 {
	if len(v) == 1 {
		return v[0]
	}
	pos := q * float64(len(v)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	return v[lo] + (v[hi]-v[lo])*(pos-float64(lo))
}
