package google

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"
)

// valuesToCSV converts a values matrix (as returned by Sheets API) into CSV
// bytes. The API drops trailing empty cells, so rows are padded to the
// header width.
func valuesToCSV(values [][]interface{}) ([]byte, error) {
	width := 0
	for _, row := range values {
		if len(row) > width {
			width = len(row)
		}
	}
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	for _, row := range values {
		rec := toStrings(row)
		for len(rec) < width {
			rec = append(rec, "")
		}
		if err := w.Write(rec); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func toStrings(in []interface{}) []string {
	out := make([]string, len(in))
	for i, v := range in {
		if v == nil {
			continue
		}
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}
