package chart

import (
	"errors"
	"fmt"

	"mfdash/internal/aggregate"
	"mfdash/internal/core"
)

// Selection is what the user picked on the dashboard.
type Selection struct {
	Mode     core.Granularity // core.Monthly or core.Yearly
	Periods  []string
	Category string
	Minor    string
	Query    string
}

type Tab struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Chart Config `json:"chart"`
}

type SummaryRow struct {
	Category   string  `json:"category"`
	Expense    float64 `json:"expense"`
	Refund     float64 `json:"refund"`
	Percent    float64 `json:"percent"`
	Cumulative float64 `json:"cumulative"`
}

type DetailRow struct {
	Date        string  `json:"date"`
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
	Major       string  `json:"major"`
	Minor       string  `json:"minor"`
	Memo        string  `json:"memo"`
}

// Dashboard is everything the page renders for one selection.
type Dashboard struct {
	Mode       core.Granularity `json:"mode"`
	Label      string           `json:"label"`
	Periods    []string         `json:"periods"`
	Available  []string         `json:"available"`
	Total      float64          `json:"total"`
	Summary    []SummaryRow     `json:"summary"`
	Main       []Tab            `json:"main"`
	Category   string           `json:"category"`
	Categories []string         `json:"categories"`
	Sub        []Tab            `json:"sub"`
	Minor      string           `json:"minor"`
	Minors     []string         `json:"minors"`
	Query      string           `json:"query,omitempty"`
	Details    []DetailRow      `json:"details"`
	DescBox    *Config          `json:"descriptionBox,omitempty"`
}

// Normalize fills selection defaults against the available records: the
// latest period when none is picked.
func (s Selection) Normalize(expenses []core.Expense) Selection {
	if s.Mode != core.Yearly {
		s.Mode = core.Monthly
	}
	if len(s.Periods) == 0 {
		if available := aggregate.Periods(expenses, s.Mode); len(available) > 0 {
			s.Periods = []string{available[len(available)-1]}
		}
	}
	if s.Minor == aggregate.AllMinor {
		s.Minor = ""
	}
	return s
}

// Build assembles the dashboard. The main section covers every category
// in the selected periods; the drill-down covers sel.Category, defaulting
// to the largest one.
func Build(expenses, refunds []core.Expense, sel Selection) (Dashboard, error) {
	sel = sel.Normalize(expenses)
	f := aggregate.Filter{Granularity: sel.Mode, Periods: sel.Periods}.Normalize()
	label := f.Label()

	summary, err := aggregate.Summarize(expenses, refunds, f, core.LevelMajor)
	if err != nil {
		return Dashboard{}, err
	}

	d := Dashboard{
		Mode:      sel.Mode,
		Label:     label,
		Periods:   f.Periods,
		Available: aggregate.Periods(expenses, sel.Mode),
		Total:     summary.Total.Float(),
		Summary:   summaryRows(summary),
		Query:     sel.Query,
	}
	for _, r := range summary.Rows {
		d.Categories = append(d.Categories, r.Name)
	}

	if d.Main, err = mainTabs(expenses, f, summary); err != nil {
		return Dashboard{}, err
	}

	// A category carried over from another period falls back to the largest.
	d.Category = sel.Category
	if !contains(d.Categories, d.Category) {
		d.Category = summary.Rows[0].Name
	}
	sub := f
	sub.Major = d.Category
	if d.Sub, err = subTabs(expenses, refunds, sub); err != nil {
		return Dashboard{}, err
	}

	d.Minors = aggregate.Categories(sub.Apply(expenses), core.LevelMinor)
	if !contains(d.Minors, sel.Minor) {
		sel.Minor = ""
	}
	d.Minor = sel.Minor
	detail := sub
	detail.Minor = sel.Minor
	rows, err := aggregate.Details(expenses, detail, sel.Query)
	var empty *core.EmptySelectionError
	if err != nil && !(sel.Query != "" && errors.As(err, &empty)) {
		return Dashboard{}, err
	}
	// A query matching nothing leaves the table empty, not the dashboard.
	d.Details = detailRows(rows)

	stats, err := aggregate.Box(expenses, detail, aggregate.ByDescription)
	if err != nil {
		return Dashboard{}, err
	}
	box := BoxPlot(fmt.Sprintf("%s Description Distribution - %s", d.Category, label), "Description", stats)
	d.DescBox = &box
	return d, nil
}

func mainTabs(expenses []core.Expense, f aggregate.Filter, summary core.Summary) ([]Tab, error) {
	label := summary.Label
	monthly, err := aggregate.BuildPortfolio(expenses, f, aggregate.PortfolioBucket(f.Granularity), core.LevelMajor)
	if err != nil {
		return nil, err
	}
	weekly, err := aggregate.BuildPortfolio(expenses, f, core.Weekly, core.LevelMajor)
	if err != nil {
		return nil, err
	}
	box, err := aggregate.Box(expenses, f, aggregate.ByCategory(core.LevelMajor))
	if err != nil {
		return nil, err
	}
	xMonthly := "Date"
	if f.Granularity == core.Yearly {
		xMonthly = "Month"
	}
	return []Tab{
		{"pie", "Pie Chart", Pie("Main Category Expense Composition - "+label, summary)},
		{"bar", "Horizontal Bar Chart", HorizontalBar("Main Category Expenses - "+label, axisNetExpense, summary)},
		{"pareto", "Pareto Chart", Pareto("Expense Pareto Analysis (By Main Category) - "+label, axisNetExpense, summary)},
		{"monthly", "Monthly Portfolio", StackedArea("Monthly Expense Portfolio - "+label, xMonthly, monthly)},
		{"weekly", "Weekly Portfolio", StackedArea("Weekly Expense Portfolio - "+label, "Week", weekly)},
		{"box", "Box Plot", BoxPlot("Expense Distribution (By Main Category) - "+label, "Category", box)},
	}, nil
}

func subTabs(expenses, refunds []core.Expense, f aggregate.Filter) ([]Tab, error) {
	label := f.Label()
	cat := f.Major
	summary, err := aggregate.Summarize(expenses, refunds, f, core.LevelMinor)
	if err != nil {
		return nil, err
	}
	monthly, err := aggregate.BuildPortfolio(expenses, f, core.Monthly, core.LevelMinor)
	if err != nil {
		return nil, err
	}
	weekly, err := aggregate.BuildPortfolio(expenses, f, core.Weekly, core.LevelMinor)
	if err != nil {
		return nil, err
	}
	box, err := aggregate.Box(expenses, f, aggregate.ByCategory(core.LevelMinor))
	if err != nil {
		return nil, err
	}
	return []Tab{
		{"sub-pie", "Pie Chart", Pie(fmt.Sprintf("%s Breakdown - %s", cat, label), summary)},
		{"sub-bar", "Horizontal Bar Chart", HorizontalBar(fmt.Sprintf("%s Subcategory Expenses - %s", cat, label), axisExpense, summary)},
		{"sub-pareto", "Pareto Chart", Pareto(fmt.Sprintf("%s Subcategory Pareto Chart - %s", cat, label), axisExpense, summary)},
		{"sub-monthly", "Monthly Portfolio", StackedArea(fmt.Sprintf("%s Monthly Subcategory Portfolio - %s", cat, label), "Month", monthly)},
		{"sub-weekly", "Weekly Portfolio", StackedArea(fmt.Sprintf("%s Weekly Subcategory Portfolio - %s", cat, label), "Week", weekly)},
		{"sub-box", "Box Plot", BoxPlot(fmt.Sprintf("%s Subcategory Distribution - %s", cat, label), "Subcategory", box)},
	}, nil
}

func summaryRows(s core.Summary) []SummaryRow {
	out := make([]SummaryRow, len(s.Rows))
	for i, r := range s.Rows {
		out[i] = SummaryRow{
			Category:   r.Name,
			Expense:    r.Expense.Float(),
			Refund:     r.Refund.Float(),
			Percent:    r.Percent,
			Cumulative: r.Cumulative,
		}
	}
	return out
}

func detailRows(rows []core.Expense) []DetailRow {
	out := make([]DetailRow, len(rows))
	for i, e := range rows {
		out[i] = DetailRow{
			Date:        e.Date.DayKey(),
			Description: e.Description,
			Amount:      e.Amount.Float(),
			Major:       e.Major,
			Minor:       e.Minor,
			Memo:        e.Memo,
		}
	}
	return out
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
