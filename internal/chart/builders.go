package chart

import (
	"fmt"

	"mfdash/internal/aggregate"
	"mfdash/internal/core"
)

const (
	axisNetExpense = "Net expense (JPY)"
	axisExpense    = "Expense (JPY)"
	axisCumulative = "Cumulative %"
	paretoLine     = 80.0
)

func names(s core.Summary) []string {
	out := make([]string, len(s.Rows))
	for i, r := range s.Rows {
		out[i] = r.Name
	}
	return out
}

func expenses(s core.Summary) []float64 {
	out := make([]float64, len(s.Rows))
	for i, r := range s.Rows {
		out[i] = r.Expense.Float()
	}
	return out
}

// Pie is a doughnut with a 40% hole.
func Pie(title string, s core.Summary) Config {
	opts := baseOptions(title)
	opts.Cutout = "40%"
	opts.Plugins.Legend.Position = "right"
	return Config{
		Type: "doughnut",
		Data: Data{
			Labels: names(s),
			Datasets: []Dataset{{
				Label:           axisExpense,
				Data:            expenses(s),
				BackgroundColor: colors(len(s.Rows)),
			}},
		},
		Options: opts,
	}
}

// HorizontalBar ranks categories with their share printed beside each bar.
func HorizontalBar(title, axis string, s core.Summary) Config {
	labels := make([]string, len(s.Rows))
	for i, r := range s.Rows {
		labels[i] = fmt.Sprintf("%.1f%%", r.Percent)
	}
	opts := baseOptions(title)
	opts.IndexAxis = "y"
	opts.Plugins.Legend.Display = false
	opts.Plugins.ValueLabels = &ValueLabels{Labels: labels}
	opts.Scales = map[string]Scale{
		"x": {Title: axisTitle(axis), Min: ptr(0.0)},
		"y": {},
	}
	return Config{
		Type: "bar",
		Data: Data{
			Labels: names(s),
			Datasets: []Dataset{{
				Label:           axis,
				Data:            expenses(s),
				BackgroundColor: colors(len(s.Rows)),
			}},
		},
		Options: opts,
	}
}

// Pareto draws spending bars with the cumulative share as a line on a
// 0-100 secondary axis and a dashed reference line at 80%.
func Pareto(title, axis string, s core.Summary) Config {
	cumulative := make([]float64, len(s.Rows))
	reference := make([]float64, len(s.Rows))
	for i, r := range s.Rows {
		cumulative[i] = r.Cumulative
		reference[i] = paretoLine
	}
	opts := baseOptions(title)
	opts.Interaction = &Interaction{Mode: "index", Intersect: false}
	opts.Scales = map[string]Scale{
		"y": {Position: "left", Title: axisTitle(axis), Min: ptr(0.0)},
		"y2": {
			Position: "right",
			Min:      ptr(0.0),
			Max:      ptr(100.0),
			Title:    axisTitle(axisCumulative),
			Ticks:    &Ticks{StepSize: 20, Suffix: "%"},
			Grid:     &Grid{DrawOnChartArea: false},
		},
	}
	return Config{
		Type: "bar",
		Data: Data{
			Labels: names(s),
			Datasets: []Dataset{
				{
					Type:            "bar",
					Label:           axis,
					Data:            expenses(s),
					BackgroundColor: colors(len(s.Rows)),
					YAxisID:         "y",
					Order:           3,
				},
				{
					Type:        "line",
					Label:       axisCumulative,
					Data:        cumulative,
					BorderColor: "orange",
					BorderWidth: 2,
					YAxisID:     "y2",
					Order:       2,
				},
				{
					Type:        "line",
					Label:       "80%",
					Data:        reference,
					BorderColor: "red",
					BorderWidth: 2,
					BorderDash:  []int{6, 6},
					PointRadius: ptr(0),
					YAxisID:     "y2",
					Order:       1,
				},
			},
		},
		Options: opts,
	}
}

// StackedArea stacks one filled line per category over shared buckets.
func StackedArea(title, xAxis string, p aggregate.Portfolio) Config {
	datasets := make([]Dataset, len(p.Series))
	for i, s := range p.Series {
		values := make([]float64, len(s.Points))
		for j, pt := range s.Points {
			values[j] = pt.Value.Float()
		}
		fill := "-1"
		if i == 0 {
			fill = "origin"
		}
		datasets[i] = Dataset{
			Label:           s.Name,
			Data:            values,
			BackgroundColor: color(i),
			BorderColor:     color(i),
			BorderWidth:     1,
			Fill:            fill,
			PointRadius:     ptr(0),
			Tension:         0.2,
		}
	}
	opts := baseOptions(title)
	opts.Interaction = &Interaction{Mode: "index", Intersect: false}
	opts.Scales = map[string]Scale{
		"x": {Title: axisTitle(xAxis)},
		"y": {Stacked: true, Title: axisTitle(axisExpense), Min: ptr(0.0)},
	}
	return Config{Type: "line", Data: Data{Labels: p.Buckets, Datasets: datasets}, Options: opts}
}

// BoxPlot renders precomputed distribution statistics.
func BoxPlot(title, xAxis string, stats []core.BoxStats) Config {
	labels := make([]string, len(stats))
	items := make([]BoxItem, len(stats))
	for i, s := range stats {
		labels[i] = s.Label
		outliers := s.Outliers
		if outliers == nil {
			outliers = []float64{}
		}
		items[i] = BoxItem{
			Min:      s.WhiskerLow,
			Q1:       s.Q1,
			Median:   s.Median,
			Q3:       s.Q3,
			Max:      s.WhiskerHigh,
			Mean:     s.Mean,
			Outliers: outliers,
		}
	}
	opts := baseOptions(title)
	opts.Plugins.Legend.Display = false
	opts.Scales = map[string]Scale{
		"x": {Title: axisTitle(xAxis)},
		"y": {Title: axisTitle(axisExpense)},
	}
	return Config{
		Type: "boxplot",
		Data: Data{
			Labels: labels,
			Datasets: []Dataset{{
				Label:           axisExpense,
				Data:            items,
				BackgroundColor: "rgba(102, 197, 204, 0.5)",
				BorderColor:     "rgb(60, 120, 130)",
				BorderWidth:     1,
			}},
		},
		Options: opts,
	}
}
