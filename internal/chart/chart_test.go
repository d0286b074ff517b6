package chart

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"mfdash/internal/aggregate"
	"mfdash/internal/core"
)

func exp(m, d int, major, minor string, amount int64, desc string) core.Expense {
	return core.Expense{
		Date:        core.NewDate(2024, m, d),
		Major:       major,
		Minor:       minor,
		Amount:      core.NewMoney(amount),
		Description: desc,
		Include:     true,
	}
}

func fixture() []core.Expense {
	return []core.Expense{
		exp(1, 5, "Food", "Groceries", -50, "Market"),
		exp(1, 20, "Food", "Dining", -30, "Cafe"),
		exp(2, 1, "Food", "Groceries", -20, "Market"),
		exp(2, 3, "Housing", "Rent", -1000, "Landlord"),
		exp(2, 4, "Food", "Dining", -40, "Bistro"),
	}
}

func summary(t *testing.T) core.Summary {
	t.Helper()
	s, err := aggregate.Summarize(fixture(), nil, aggregate.Filter{Periods: []string{"2024-02"}}, core.LevelMajor)
	if err != nil {
		t.Fatalf("summarize: %v", err)
	}
	return s
}

func TestPie(t *testing.T) {
	c := Pie("Title", summary(t))
	if c.Type != "doughnut" || c.Options.Cutout != "40%" {
		t.Fatalf("unexpected pie config: %+v", c)
	}
	if c.Data.Labels[0] != "Housing" || c.Data.Datasets[0].Data.([]float64)[0] != 1000 {
		t.Fatalf("largest category must lead: %+v", c.Data)
	}
}

func TestHorizontalBarLabels(t *testing.T) {
	c := HorizontalBar("Title", axisNetExpense, summary(t))
	if c.Options.IndexAxis != "y" {
		t.Fatalf("bars must be horizontal")
	}
	labels := c.Options.Plugins.ValueLabels.Labels
	if len(labels) != 2 || labels[0] != "94.3%" || labels[1] != "5.7%" {
		t.Fatalf("unexpected value labels: %v", labels)
	}
}

func TestPareto(t *testing.T) {
	c := Pareto("Title", axisNetExpense, summary(t))
	if len(c.Data.Datasets) != 3 {
		t.Fatalf("expected bar, cumulative and reference datasets")
	}
	cumulative := c.Data.Datasets[1].Data.([]float64)
	if cumulative[len(cumulative)-1] != 100 {
		t.Fatalf("cumulative share must end at 100, got %v", cumulative)
	}
	ref := c.Data.Datasets[2]
	if ref.Data.([]float64)[0] != 80 || len(ref.BorderDash) == 0 || ref.YAxisID != "y2" {
		t.Fatalf("unexpected reference line: %+v", ref)
	}
	if y2 := c.Options.Scales["y2"]; *y2.Max != 100 || *y2.Min != 0 {
		t.Fatalf("secondary axis must span 0-100")
	}
}

func TestStackedArea(t *testing.T) {
	p, err := aggregate.BuildPortfolio(fixture(), aggregate.Filter{}, core.Monthly, core.LevelMajor)
	if err != nil {
		t.Fatalf("portfolio: %v", err)
	}
	c := StackedArea("Title", "Month", p)
	if !c.Options.Scales["y"].Stacked || c.Data.Datasets[0].Fill != "origin" || c.Data.Datasets[1].Fill != "-1" {
		t.Fatalf("unexpected stacking: %+v", c.Data.Datasets)
	}
	if len(c.Data.Labels) != 2 {
		t.Fatalf("expected two month buckets, got %v", c.Data.Labels)
	}
}

func TestBoxPlotJSON(t *testing.T) {
	stats, err := aggregate.Box(fixture(), aggregate.Filter{}, aggregate.ByCategory(core.LevelMajor))
	if err != nil {
		t.Fatalf("box: %v", err)
	}
	body, err := json.Marshal(BoxPlot("Title", "Category", stats))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	s := string(body)
	for _, want := range []string{`"type":"boxplot"`, `"q1":`, `"outliers":[]`, `"text":"Title"`} {
		if !strings.Contains(s, want) {
			t.Fatalf("expected %s in %s", want, s)
		}
	}
}

func TestBuild(t *testing.T) {
	d, err := Build(fixture(), nil, Selection{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Label != "2024-02" || d.Mode != core.Monthly {
		t.Fatalf("latest month must be the default selection, got %s %s", d.Mode, d.Label)
	}
	if len(d.Main) != 6 || len(d.Sub) != 6 {
		t.Fatalf("expected six tabs per section, got %d and %d", len(d.Main), len(d.Sub))
	}
	if got := d.Main[2].Chart.Options.Plugins.Title.Text; got != "Expense Pareto Analysis (By Main Category) - 2024-02" {
		t.Fatalf("unexpected pareto title %q", got)
	}
	if d.Category != "Housing" || d.Sub[0].Chart.Options.Plugins.Title.Text != "Housing Breakdown - 2024-02" {
		t.Fatalf("drill-down must default to the largest category, got %s", d.Category)
	}
	if d.Total != 1060 || len(d.Summary) != 2 {
		t.Fatalf("unexpected totals: %v %+v", d.Total, d.Summary)
	}
	if len(d.Available) != 2 || d.DescBox == nil {
		t.Fatalf("unexpected dashboard: %+v", d)
	}
}

func TestBuildDrillDown(t *testing.T) {
	d, err := Build(fixture(), nil, Selection{Mode: core.Yearly, Category: "Food", Minor: "Dining"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Label != "2024" || len(d.Minors) != 2 {
		t.Fatalf("unexpected drill-down: %s %v", d.Label, d.Minors)
	}
	if len(d.Details) != 2 || d.Details[0].Description != "Cafe" {
		t.Fatalf("details must list Dining rows by date: %+v", d.Details)
	}
	if got := d.Main[3].Chart.Options.Scales["x"].Title.Text; got != "Month" {
		t.Fatalf("yearly portfolio must bucket by month, got %s", got)
	}
}

func TestBuildEmptySelection(t *testing.T) {
	cases := []Selection{
		{Periods: []string{"2023-01"}},
		{Mode: core.Yearly, Periods: []string{"2023"}, Category: "Food"},
	}
	for _, sel := range cases {
		_, err := Build(fixture(), nil, sel)
		var empty *core.EmptySelectionError
		if !errors.As(err, &empty) {
			t.Fatalf("%+v: expected EmptySelectionError, got %v", sel, err)
		}
	}
}

func TestBuildStaleSelection(t *testing.T) {
	cases := []struct {
		name         string
		sel          Selection
		wantCategory string
		wantMinor    string
	}{
		{"category absent from period", Selection{Periods: []string{"2024-01"}, Category: "Housing"}, "Food", ""},
		{"category and minor absent", Selection{Periods: []string{"2024-01"}, Category: "Housing", Minor: "Rent"}, "Food", ""},
		{"minor absent from category", Selection{Periods: []string{"2024-02"}, Category: "Food", Minor: "Snacks"}, "Food", ""},
		{"unknown category", Selection{Category: "Travel"}, "Housing", ""},
		{"valid minor kept", Selection{Periods: []string{"2024-02"}, Category: "Food", Minor: "Dining"}, "Food", "Dining"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d, err := Build(fixture(), nil, tc.sel)
			if err != nil {
				t.Fatalf("stale selection must not fail the dashboard: %v", err)
			}
			if d.Category != tc.wantCategory || d.Minor != tc.wantMinor {
				t.Fatalf("got category %q minor %q, want %q %q", d.Category, d.Minor, tc.wantCategory, tc.wantMinor)
			}
			if len(d.Main) != 6 || len(d.Sub) != 6 || d.DescBox == nil {
				t.Fatalf("expected a complete dashboard, got %+v", d)
			}
		})
	}
}

func TestBuildQueryWithoutMatches(t *testing.T) {
	d, err := Build(fixture(), nil, Selection{Category: "Food", Query: "zzz"})
	if err != nil {
		t.Fatalf("unmatched query must not fail the dashboard: %v", err)
	}
	if len(d.Details) != 0 || len(d.Main) != 6 {
		t.Fatalf("expected empty detail table only, got %d rows", len(d.Details))
	}
}
