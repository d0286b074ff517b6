package core

import (
	"fmt"
	"strings"
)

// ParseError reports an export that could not be turned into records.
// Row is 1-based over data rows; Row 0 means the header.
type ParseError struct {
	File   string
	Row    int
	Column string
	Value  string
	Err    error
}

func (e *ParseError) Error() string {
	var b strings.Builder
	b.WriteString("parse")
	if e.File != "" {
		b.WriteString(" " + e.File)
	}
	if e.Row > 0 {
		fmt.Fprintf(&b, " row %d", e.Row)
	}
	if e.Column != "" {
		fmt.Fprintf(&b, " column %q", e.Column)
	}
	if e.Value != "" {
		fmt.Fprintf(&b, " value %q", e.Value)
	}
	if e.Err != nil {
		b.WriteString(": " + e.Err.Error())
	}
	return b.String()
}

func (e *ParseError) Unwrap() error { return e.Err }

// EmptySelectionError is returned when a filter leaves no records.
type EmptySelectionError struct {
	Selection string
}

func (e *EmptySelectionError) Error() string {
	if e.Selection == "" {
		return "no data for this selection"
	}
	return "no data for this selection: " + e.Selection
}
