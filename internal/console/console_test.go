package console

import (
	"bytes"
	"strings"
	"testing"

	"mfdash/internal/core"
)

func init() { Plain() }

func money(v int64) core.Money { return core.NewMoney(v) }

func TestPrintSummary(t *testing.T) {
	s := core.Summary{
		Label: "2024-02",
		Level: core.LevelMajor,
		Total: money(1060),
		Rows: []core.CategoryAmount{
			{Name: "住宅", Expense: money(1000), Percent: 94.34, Cumulative: 94.34},
			{Name: "食費", Expense: money(60), Refund: money(10), Percent: 5.66, Cumulative: 100},
		},
	}
	var buf bytes.Buffer
	if err := New(&buf).PrintSummary(s, 2); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"2024-02", "住宅", "¥1,000", "94.3%", "100.0%", "Total net expense: ¥1,060", "2 refunded purchase(s) excluded"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}
}

func TestTrendPoints(t *testing.T) {
	series := []core.Series{
		{Name: "Food", Points: []core.Point{{Label: "2024-02", Value: money(-20)}, {Label: "2024-01", Value: money(-80)}}},
		{Name: "Housing", Points: []core.Point{{Label: "2024-02", Value: money(-1000)}}},
	}
	got := TrendPoints(series)
	if len(got) != 2 || got[0].Label != "2024-01" || got[0].Amount != 80 || got[1].Amount != 1020 {
		t.Fatalf("unexpected points %+v", got)
	}
}

func TestBar(t *testing.T) {
	tests := []struct {
		v, max float64
		want   int
	}{
		{100, 100, 40}, {50, 100, 20}, {0.1, 100, 1}, {0, 100, 0}, {-5, 100, 0},
	}
	for _, tt := range tests {
		if got := len([]rune(Bar(tt.v, tt.max, 40))); got != tt.want {
			t.Fatalf("Bar(%v, %v): expected %d blocks, got %d", tt.v, tt.max, tt.want, got)
		}
	}
}

func TestChange(t *testing.T) {
	tests := []struct {
		prev, cur float64
		want      string
	}{
		{100, 150, "⬆ 50.0%"},
		{100, 75, "⬇ 25.0%"},
		{100, 100, "0%"},
		{0, 0, "0%"},
		{0, 10, "N/A"},
	}
	for _, tt := range tests {
		if got, _ := Change(tt.prev, tt.cur); got != tt.want {
			t.Fatalf("Change(%v, %v): expected %q, got %q", tt.prev, tt.cur, tt.want, got)
		}
	}
}

func TestPrintTrend(t *testing.T) {
	var buf bytes.Buffer
	New(&buf).PrintTrend([]TrendPoint{{"2024-01", 80}, {"2024-02", 1020}})
	out := buf.String()
	if !strings.Contains(out, "2024-01") || !strings.Contains(out, "⬆") || !strings.Contains(out, strings.Repeat("█", 40)) {
		t.Fatalf("unexpected trend output:\n%s", out)
	}

	buf.Reset()
	New(&buf).PrintTrend(nil)
	if !strings.Contains(buf.String(), "No spending") {
		t.Fatalf("empty trend must warn: %q", buf.String())
	}
}

func TestYen(t *testing.T) {
	if got := Yen(-1234567); got != "-¥1,234,567" {
		t.Fatalf("unexpected %q", got)
	}
}
