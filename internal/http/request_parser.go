// Package http provides HTTP server and handler implementations.
//
// This file parses dashboard selections out of query strings so every
// handler reads the same parameters the same way.

package http

import (
	"net/url"
	"strconv"
	"strings"

	"mfdash/internal/aggregate"
	"mfdash/internal/chart"
	"mfdash/internal/core"
)

// Query parameter names shared by pages, API and exports.
const (
	paramSession     = "session"
	paramMode        = "mode"
	paramPeriod      = "period"
	paramCategory    = "category"
	paramMinor       = "sub"
	paramQuery       = "q"
	paramLevel       = "level"
	paramGranularity = "granularity"
	paramLimit       = "limit"
)

// ParseSelection reads mode, period (repeatable or comma separated),
// category, sub and q.
func ParseSelection(q url.Values) (chart.Selection, error) {
	mode, err := core.ParseGranularity(q.Get(paramMode))
	if err != nil {
		return chart.Selection{}, err
	}
	if mode != core.Yearly {
		mode = core.Monthly
	}
	return chart.Selection{
		Mode:     mode,
		Periods:  parseList(q[paramPeriod]),
		Category: sanitizeInput(q.Get(paramCategory)),
		Minor:    sanitizeInput(q.Get(paramMinor)),
		Query:    sanitizeInput(q.Get(paramQuery)),
	}, nil
}

// SeriesParams configures the raw aggregation endpoint.
type SeriesParams struct {
	Grouping aggregate.Grouping
}

// ParseSeriesParams reads the selection plus granularity and level. The
// selection's mode decides how periods are read; granularity decides the
// buckets of the returned points and defaults to the mode.
func ParseSeriesParams(q url.Values) (SeriesParams, error) {
	sel, err := ParseSelection(q)
	if err != nil {
		return SeriesParams{}, err
	}
	bucket := sel.Mode
	if v := q.Get(paramGranularity); v != "" {
		if bucket, err = core.ParseGranularity(v); err != nil {
			return SeriesParams{}, err
		}
	}
	level, err := core.ParseCategoryLevel(q.Get(paramLevel))
	if err != nil {
		return SeriesParams{}, err
	}
	return SeriesParams{Grouping: aggregate.Grouping{
		Filter: aggregate.Filter{
			Granularity: sel.Mode,
			Periods:     sel.Periods,
			Major:       sel.Category,
			Minor:       sel.Minor,
		}.Normalize(),
		Bucket: bucket,
		Level:  level,
	}}, nil
}

// ParseLimit reads a positive integer limit, falling back to def.
func ParseLimit(q url.Values, def, max int) int {
	n, err := strconv.Atoi(strings.TrimSpace(q.Get(paramLimit)))
	if err != nil || n <= 0 {
		return def
	}
	if n > max {
		return max
	}
	return n
}

// SelectionQuery encodes a selection back into query parameters.
func SelectionQuery(sessionID string, sel chart.Selection) url.Values {
	v := url.Values{}
	v.Set(paramSession, sessionID)
	if sel.Mode == core.Yearly {
		v.Set(paramMode, "yearly")
	} else {
		v.Set(paramMode, "monthly")
	}
	for _, p := range sel.Periods {
		v.Add(paramPeriod, p)
	}
	if sel.Category != "" {
		v.Set(paramCategory, sel.Category)
	}
	if sel.Minor != "" {
		v.Set(paramMinor, sel.Minor)
	}
	if sel.Query != "" {
		v.Set(paramQuery, sel.Query)
	}
	return v
}

func parseList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, p := range strings.Split(v, ",") {
			if p = sanitizeInput(p); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}
