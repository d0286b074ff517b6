package loader

import (
	"bytes"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/transform"
	"golang.org/x/text/width"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// decode returns data as UTF-8. Exports downloaded from the web UI are
// Shift_JIS; anything that is not valid UTF-8 is treated as such.
func decode(data []byte) ([]byte, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if utf8.Valid(data) {
		return data, nil
	}
	out, _, err := transform.Bytes(japanese.ShiftJIS.NewDecoder(), data)
	if err != nil {
		return nil, fmt.Errorf("decode shift_jis: %w", err)
	}
	return out, nil
}

// cleanText drops ideographic spaces before folding full-width ASCII to
// narrow form, so "スーパー　マルエツ" stays one word.
func cleanText(s string) string {
	s = strings.ReplaceAll(s, "\u3000", "")
	return strings.TrimSpace(width.Fold.String(s))
}
