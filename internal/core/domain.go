package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	Monthly Granularity = "month"
	Yearly  Granularity = "year"
	Weekly  Granularity = "week"
	Daily   Granularity = "day"
)

const (
	LevelMajor CategoryLevel = "major"
	LevelMinor CategoryLevel = "minor"
)

type (
	// Granularity is the time bucket size used when grouping records.
	Granularity string

	// CategoryLevel selects which half of the two-level category is used.
	CategoryLevel string

	Date struct {
		time.Time
	}

	// Expense is one parsed row of an expense export. Amount is signed:
	// outflows are negative, refunds and income positive.
	Expense struct {
		ID          string
		Date        Date
		Description string
		Amount      Money
		Institution string
		Major       string // 大項目
		Minor       string // 中項目
		Memo        string
		Include     bool
		Transfer    bool
		SourceFile  string
		SourceRow   int
	}
)

var (
	ErrInvalidDate      = errors.New("invalid date")
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrEmptyMajor       = errors.New("empty major category")
	ErrSessionNotFound  = errors.New("session not found")
	ErrInvalidSelection = errors.New("invalid selection")
)

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// MonthKey returns the month bucket label, e.g. "2024-01".
func (d Date) MonthKey() string {
	return d.Format("2006-01")
}

// YearKey returns the year bucket label, e.g. "2024".
func (d Date) YearKey() string {
	return d.Format("2006")
}

// DayKey returns the day bucket label, e.g. "2024-01-05".
func (d Date) DayKey() string {
	return d.Format("2006-01-02")
}

// WeekKey returns the week bucket label "YYYY-WW" where weeks start on
// Sunday and days before the first Sunday of the year belong to week 00.
func (d Date) WeekKey() string {
	return fmt.Sprintf("%04d-%02d", d.Year(), d.SundayWeek())
}

// SundayWeek returns the Sunday-based week number of the year (00-53).
func (d Date) SundayWeek() int {
	return (d.YearDay() + 6 - int(d.Weekday())) / 7
}

// Bucket returns the label of the time bucket d belongs to.
func (d Date) Bucket(g Granularity) string {
	switch g {
	case Yearly:
		return d.YearKey()
	case Weekly:
		return d.WeekKey()
	case Daily:
		return d.DayKey()
	default:
		return d.MonthKey()
	}
}

// ParseGranularity normalises user input into a Granularity.
func ParseGranularity(s string) (Granularity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "month", "monthly":
		return Monthly, nil
	case "year", "yearly":
		return Yearly, nil
	case "week", "weekly":
		return Weekly, nil
	case "day", "daily":
		return Daily, nil
	}
	return "", fmt.Errorf("%w: unknown granularity %q", ErrInvalidSelection, s)
}

// ParseCategoryLevel normalises user input into a CategoryLevel.
func ParseCategoryLevel(s string) (CategoryLevel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "major", "main":
		return LevelMajor, nil
	case "minor", "sub":
		return LevelMinor, nil
	}
	return "", fmt.Errorf("%w: unknown category level %q", ErrInvalidSelection, s)
}

// Category returns the category label of e at the given level.
func (e Expense) Category(level CategoryLevel) string {
	if level == LevelMinor {
		return e.Minor
	}
	return e.Major
}

// IsExpense reports whether e counts as spending.
func (e Expense) IsExpense() bool {
	return e.Include && e.Amount.IsNegative()
}

// IsRefund reports whether e is an included inflow.
func (e Expense) IsRefund() bool {
	return e.Include && e.Amount.IsPositive()
}

func (e Expense) Validate() error {
	if err := e.Date.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(e.Major) == "" {
		return ErrEmptyMajor
	}
	return nil
}
