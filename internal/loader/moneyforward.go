package loader

import (
	"strings"
	"time"

	"mfdash/internal/core"
)

type field int

const (
	fieldInclude field = iota
	fieldDate
	fieldDescription
	fieldAmount
	fieldInstitution
	fieldMajor
	fieldMinor
	fieldMemo
	fieldTransfer
	fieldID
)

// headerAliases maps accepted header names onto fields. The Japanese names
// are the ones written by the household book export.
var headerAliases = map[string]field{
	"計算対象":   fieldInclude,
	"日付":     fieldDate,
	"内容":     fieldDescription,
	"金額（円）":  fieldAmount,
	"金額(円)":  fieldAmount,
	"金額":     fieldAmount,
	"保有金融機関": fieldInstitution,
	"大項目":    fieldMajor,
	"中項目":    fieldMinor,
	"メモ":     fieldMemo,
	"振替":     fieldTransfer,

	"id":             fieldID,
	"include":        fieldInclude,
	"date":           fieldDate,
	"description":    fieldDescription,
	"amount":         fieldAmount,
	"institution":    fieldInstitution,
	"category_main":  fieldMajor,
	"category_major": fieldMajor,
	"major":          fieldMajor,
	"category_sub":   fieldMinor,
	"category_minor": fieldMinor,
	"minor":          fieldMinor,
	"memo":           fieldMemo,
	"transfer":       fieldTransfer,
}

// canonical names, used in error messages.
var fieldNames = map[field]string{
	fieldInclude:     "計算対象",
	fieldDate:        "日付",
	fieldDescription: "内容",
	fieldAmount:      "金額（円）",
	fieldInstitution: "保有金融機関",
	fieldMajor:       "大項目",
	fieldMinor:       "中項目",
	fieldMemo:        "メモ",
	fieldTransfer:    "振替",
	fieldID:          "ID",
}

var requiredFields = []field{fieldDate, fieldMajor, fieldMinor, fieldAmount, fieldDescription}

var dateLayouts = []string{"2006/01/02", "2006-01-02", "2006/1/2", "2006-1-2"}

// uncategorized is the label the export itself uses for rows with no category.
const uncategorized = "未分類"

type columns map[field]int

func mapHeader(header []string) columns {
	cols := make(columns, len(header))
	for i, h := range header {
		key := strings.ToLower(strings.TrimSpace(h))
		if f, ok := headerAliases[key]; ok {
			if _, seen := cols[f]; !seen {
				cols[f] = i
			}
		}
	}
	return cols
}

func (c columns) missing() []string {
	var out []string
	for _, f := range requiredFields {
		if _, ok := c[f]; !ok {
			out = append(out, fieldNames[f])
		}
	}
	return out
}

func (c columns) value(rec []string, f field) (string, bool) {
	i, ok := c[f]
	if !ok || i >= len(rec) {
		return "", false
	}
	return rec[i], true
}

func parseDate(s string) (core.Date, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return core.Date{Time: t}, nil
		}
	}
	return core.Date{}, core.ErrInvalidDate
}

// parseFlag reads 計算対象 and 振替 cells. Empty cells take def.
func parseFlag(s string, def bool) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return def
	case "1", "true", "yes", "○":
		return true
	default:
		return false
	}
}
