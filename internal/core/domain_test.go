package core

import (
	"errors"
	"testing"
)

func TestDateBuckets(t *testing.T) {
	cases := []struct {
		date  Date
		g     Granularity
		label string
	}{
		{NewDate(2024, 1, 5), Monthly, "2024-01"},
		{NewDate(2024, 1, 5), Yearly, "2024"},
		{NewDate(2024, 1, 5), Daily, "2024-01-05"},
		// 2024-01-01 is a Monday: before the first Sunday, week 00.
		{NewDate(2024, 1, 1), Weekly, "2024-00"},
		{NewDate(2024, 1, 6), Weekly, "2024-00"},
		{NewDate(2024, 1, 7), Weekly, "2024-01"},
		{NewDate(2024, 1, 13), Weekly, "2024-01"},
		{NewDate(2024, 1, 14), Weekly, "2024-02"},
		// 2023-01-01 is a Sunday.
		{NewDate(2023, 1, 1), Weekly, "2023-01"},
		{NewDate(2024, 12, 31), Weekly, "2024-52"},
	}
	for _, tc := range cases {
		if got := tc.date.Bucket(tc.g); got != tc.label {
			t.Fatalf("%s %s: expected %s, got %s", tc.date.DayKey(), tc.g, tc.label, got)
		}
	}
}

func TestParseGranularity(t *testing.T) {
	for in, want := range map[string]Granularity{
		"":        Monthly,
		"monthly": Monthly,
		"Year":    Yearly,
		"weekly":  Weekly,
		"day":     Daily,
	} {
		got, err := ParseGranularity(in)
		if err != nil || got != want {
			t.Fatalf("%q expected %s, got %s (err=%v)", in, want, got, err)
		}
	}
	if _, err := ParseGranularity("fortnight"); !errors.Is(err, ErrInvalidSelection) {
		t.Fatalf("expected ErrInvalidSelection, got %v", err)
	}
}

func TestParseCategoryLevel(t *testing.T) {
	if l, _ := ParseCategoryLevel("sub"); l != LevelMinor {
		t.Fatalf("sub should map to minor, got %s", l)
	}
	if l, _ := ParseCategoryLevel(""); l != LevelMajor {
		t.Fatalf("empty should map to major, got %s", l)
	}
	if _, err := ParseCategoryLevel("third"); err == nil {
		t.Fatalf("expected error")
	}
}

func TestExpenseClassification(t *testing.T) {
	e := Expense{Date: NewDate(2024, 1, 5), Major: "Food", Minor: "Groceries", Amount: NewMoney(-50), Include: true}
	if !e.IsExpense() || e.IsRefund() {
		t.Fatalf("negative included amount must be an expense")
	}
	if e.Category(LevelMinor) != "Groceries" || e.Category(LevelMajor) != "Food" {
		t.Fatalf("unexpected category lookup")
	}
	e.Include = false
	if e.IsExpense() {
		t.Fatalf("excluded rows are never expenses")
	}
	r := Expense{Amount: NewMoney(300), Include: true}
	if !r.IsRefund() {
		t.Fatalf("positive included amount must be a refund")
	}
	if err := (Expense{Major: "Food"}).Validate(); !errors.Is(err, ErrInvalidDate) {
		t.Fatalf("expected ErrInvalidDate, got %v", err)
	}
	if err := (Expense{Date: NewDate(2024, 1, 1)}).Validate(); !errors.Is(err, ErrEmptyMajor) {
		t.Fatalf("expected ErrEmptyMajor, got %v", err)
	}
}

func TestParseErrorMessage(t *testing.T) {
	err := &ParseError{File: "a.csv", Row: 3, Column: "金額（円）", Value: "x", Err: ErrInvalidAmount}
	want := `parse a.csv row 3 column "金額（円）" value "x": invalid amount`
	if err.Error() != want {
		t.Fatalf("expected %s, got %s", want, err.Error())
	}
	if !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("ParseError should unwrap to its cause")
	}
	var pe *ParseError
	if !errors.As(error(err), &pe) || pe.Row != 3 {
		t.Fatalf("errors.As failed")
	}
	if (&EmptySelectionError{}).Error() != "no data for this selection" {
		t.Fatalf("unexpected empty selection message")
	}
}
