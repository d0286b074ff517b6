package http

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"mfdash/internal/console"
	"mfdash/internal/core"
	"mfdash/internal/services"
)

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

// formatYen formats an amount as "¥1,234", rounding to whole yen.
func formatYen(v float64) string { return console.Yen(v) }

func formatPercent(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64) + "%"
}

// statusFor maps domain errors onto HTTP status codes and user-facing
// messages. Unknown errors are 500 with a generic message.
func statusFor(err error) (int, string) {
	var parseErr *core.ParseError
	var empty *core.EmptySelectionError
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &parseErr):
		return http.StatusUnprocessableEntity, parseErr.Error()
	case errors.As(err, &empty):
		return http.StatusUnprocessableEntity, "no data for this selection"
	case errors.Is(err, core.ErrSessionNotFound):
		return http.StatusNotFound, "session not found"
	case errors.Is(err, core.ErrInvalidSelection):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, services.ErrNoInputs):
		return http.StatusBadRequest, "no files to load"
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge, "upload too large"
	}
	return http.StatusInternalServerError, "internal error"
}
