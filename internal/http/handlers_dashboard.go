package http

import (
	"bytes"
	"errors"
	"html/template"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"mfdash/internal/aggregate"
	"mfdash/internal/chart"
	"mfdash/internal/core"
	"mfdash/internal/export"
	"mfdash/internal/log"
	"mfdash/internal/session"
)

type dashboardPage struct {
	SessionID  string
	Files      []string
	Rows       int
	Cancelled  int
	Mode       string
	Selection  chart.Selection
	Available  []string
	Categories []string
	Minors     []string
	Dashboard  *chart.Dashboard
	Error      string
	Query      template.URL
}

// handleDashboard renders selectors, tables and chart canvases. The charts
// themselves are fetched from /api/charts with the same query.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	id := q.Get(paramSession)
	if id == "" {
		id = s.DefaultSession()
	}
	if id == "" {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	d, err := s.datasets.Get(id)
	if err != nil {
		http.Redirect(w, r, "/?expired=1", http.StatusSeeOther)
		return
	}
	sel, err := ParseSelection(q)
	if err != nil {
		s.renderError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	sel = sel.Normalize(d.Expenses)

	page := dashboardPage{
		SessionID:  id,
		Files:      d.Files,
		Rows:       d.Rows,
		Cancelled:  len(d.Pairs),
		Mode:       modeName(sel.Mode),
		Selection:  sel,
		Available:  aggregate.Periods(d.Expenses, sel.Mode),
		Categories: aggregate.Categories(d.Expenses, core.LevelMajor),
		Query:      template.URL(SelectionQuery(id, sel).Encode()),
	}

	dash, err := s.dashboard(id, d, sel)
	switch {
	case err == nil:
		page.Dashboard = &dash
		page.Categories = dash.Categories
		page.Minors = dash.Minors
		// Links and chart requests follow the category the dashboard
		// actually shows when a stale one was replaced.
		if sel.Category != "" || sel.Minor != "" {
			sel.Category, sel.Minor = dash.Category, dash.Minor
			page.Selection = sel
			page.Query = template.URL(SelectionQuery(id, sel).Encode())
		}
	case isEmptySelection(err):
		page.Error = "No data for this selection"
	default:
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Dashboard build failed", log.FieldSession, id, log.FieldError, err)
		s.renderError(w, r, http.StatusInternalServerError, "could not build the dashboard")
		return
	}
	s.render(w, r, http.StatusOK, "dashboard.html", page)
}

// handleCharts returns the dashboard as JSON Chart.js configurations.
func (s *Server) handleCharts(w http.ResponseWriter, r *http.Request) {
	id, d, ok := s.apiDataset(w, r)
	if !ok {
		return
	}
	sel, err := ParseSelection(r.URL.Query())
	if err != nil {
		s.apiError(w, r, err)
		return
	}
	sel = sel.Normalize(d.Expenses)
	dash, err := s.dashboard(id, d, sel)
	if err != nil {
		s.apiError(w, r, err)
		return
	}
	NewResponse().JSON(dash).Write(w)
}

type pointJSON struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

type seriesJSON struct {
	Name   string      `json:"name"`
	Total  float64     `json:"total"`
	Points []pointJSON `json:"points"`
}

// handleSeries exposes the raw aggregation: signed sums per category label
// per time bucket.
func (s *Server) handleSeries(w http.ResponseWriter, r *http.Request) {
	_, d, ok := s.apiDataset(w, r)
	if !ok {
		return
	}
	params, err := ParseSeriesParams(r.URL.Query())
	if err != nil {
		s.apiError(w, r, err)
		return
	}
	records := append(append([]core.Expense(nil), d.Expenses...), d.Refunds...)
	series, err := aggregate.Aggregate(records, params.Grouping)
	if err != nil {
		s.apiError(w, r, err)
		return
	}
	out := make([]seriesJSON, len(series))
	for i, sr := range series {
		out[i] = seriesJSON{Name: sr.Name, Total: sr.Total().Float(), Points: make([]pointJSON, len(sr.Points))}
		for j, p := range sr.Points {
			out[i].Points[j] = pointJSON{Label: p.Label, Value: p.Value.Float()}
		}
	}
	NewResponse().JSON(out).Write(w)
}

// handleSearch suggests descriptions for the detail table search box.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	_, d, ok := s.apiDataset(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	query := sanitizeInput(q.Get(paramQuery))
	results := []string{}
	if query != "" {
		results = aggregate.Search(d.Expenses, query, ParseLimit(q, 10, 50))
	}
	NewResponse().JSON(map[string]interface{}{"query": query, "results": results}).Write(w)
}

// handleExport downloads the category summary of the selection. level=minor
// summarises the subcategories of the selected category, or of the largest
// one when none is selected, matching the dashboard drill-down.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	format := chi.URLParam(r, "format")
	if export.ContentType(format) == "" {
		NotFoundError("unknown export format").Write(w)
		return
	}
	_, d, ok := s.apiDataset(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	sel, err := ParseSelection(q)
	if err != nil {
		s.apiError(w, r, err)
		return
	}
	level, err := core.ParseCategoryLevel(q.Get(paramLevel))
	if err != nil {
		s.apiError(w, r, err)
		return
	}
	sel = sel.Normalize(d.Expenses)
	f := aggregate.Filter{Granularity: sel.Mode, Periods: sel.Periods}.Normalize()
	var summary core.Summary
	title := "Expense Summary"
	if level == core.LevelMinor {
		var category string
		summary, category, err = aggregate.Breakdown(d.Expenses, d.Refunds, f, sel.Category)
		title = category + " Breakdown"
	} else {
		summary, err = aggregate.Summarize(d.Expenses, d.Refunds, f, level)
	}
	if err != nil {
		s.apiError(w, r, err)
		return
	}

	now := time.Now()
	report := export.Report{
		Title:     title + " - " + summary.Label,
		Generated: now,
		Summary:   summary,
		Cancelled: len(d.Pairs),
	}
	var buf bytes.Buffer
	if err := export.Write(&buf, format, report, s.opts.Export); err != nil {
		s.apiError(w, r, err)
		return
	}
	log.FromContext(r.Context()).InfoContext(r.Context(), "Summary exported",
		log.FieldFormat, format, log.FieldSelection, summary.Label, log.FieldRows, len(summary.Rows))

	w.Header().Set("Content-Type", export.ContentType(format))
	w.Header().Set("Content-Disposition", `attachment; filename="`+export.Filename("mfdash_summary", format, now)+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

func (s *Server) apiDataset(w http.ResponseWriter, r *http.Request) (string, *session.Dataset, bool) {
	id := r.URL.Query().Get(paramSession)
	if id == "" {
		id = s.DefaultSession()
	}
	d, err := s.datasets.Get(id)
	if err != nil {
		s.apiError(w, r, err)
		return "", nil, false
	}
	return id, d, true
}

func (s *Server) apiError(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := statusFor(err)
	if status >= http.StatusInternalServerError {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Request failed", log.FieldError, err)
	}
	JSONError(status, msg).Write(w)
}

// dashboard builds or reuses the dashboard for one selection. Datasets are
// immutable, so a cached dashboard stays valid for the session's lifetime.
func (s *Server) dashboard(id string, d *session.Dataset, sel chart.Selection) (chart.Dashboard, error) {
	key := SelectionQuery(id, sel).Encode()
	if dash, ok := s.dashCache.Get(key); ok {
		return dash, nil
	}
	dash, err := chart.Build(d.Expenses, d.Refunds, sel)
	if err != nil {
		return chart.Dashboard{}, err
	}
	s.dashCache.Set(key, dash)
	return dash, nil
}

func isEmptySelection(err error) bool {
	var empty *core.EmptySelectionError
	return errors.As(err, &empty)
}

func modeName(g core.Granularity) string {
	if g == core.Yearly {
		return "yearly"
	}
	return "monthly"
}
