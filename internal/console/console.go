// Package console prints dataset summaries to a terminal: a category table
// and month-over-month trend bars.
package console

import (
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/pterm/pterm"

	"mfdash/internal/core"
)

const barWidth = 40

var (
	barUp      = color.New(color.FgRed).SprintFunc()
	barDown    = color.New(color.FgGreen).SprintFunc()
	barFlat    = color.New(color.FgYellow).SprintFunc()
	barFirst   = color.New(color.FgBlue).SprintFunc()
	boldAmount = color.New(color.FgRed, color.Bold).SprintFunc()
	heading    = color.New(color.FgMagenta, color.Bold).SprintFunc()
)

type Console struct {
	out io.Writer
}

// New returns a console writing to out, or stdout when out is nil.
func New(out io.Writer) *Console {
	if out == nil {
		out = os.Stdout
	}
	return &Console{out: out}
}

// Plain turns off colours and styling, for tests and non-terminal output.
func Plain() {
	color.NoColor = true
	pterm.DisableStyling()
}

func (c *Console) Info(format string, a ...interface{}) {
	fmt.Fprint(c.out, pterm.Info.Sprintfln(format, a...))
}

func (c *Console) Warn(format string, a ...interface{}) {
	fmt.Fprint(c.out, pterm.Warning.Sprintfln(format, a...))
}

func (c *Console) Success(format string, a ...interface{}) {
	fmt.Fprint(c.out, pterm.Success.Sprintfln(format, a...))
}

func (c *Console) Error(format string, a ...interface{}) {
	fmt.Fprint(c.out, pterm.Error.Sprintfln(format, a...))
}

// PrintSummary renders one row per category with share and cumulative
// share, followed by the total.
func (c *Console) PrintSummary(s core.Summary, cancelled int) error {
	fmt.Fprintln(c.out, heading(fmt.Sprintf("Expense summary (%s) - %s", s.Level, s.Label)))
	table, err := SummaryTable(s)
	if err != nil {
		return err
	}
	fmt.Fprintln(c.out, table)
	fmt.Fprintf(c.out, "Total net expense: %s\n", boldAmount(Yen(s.Total.Float())))
	if cancelled > 0 {
		fmt.Fprintf(c.out, "%d refunded purchase(s) excluded\n", cancelled)
	}
	return nil
}

// SummaryTable renders the summary rows as a boxed table.
func SummaryTable(s core.Summary) (string, error) {
	data := pterm.TableData{{"Category", "Expense", "Refund", "Share", "Cumulative"}}
	for _, r := range s.Rows {
		data = append(data, []string{
			r.Name,
			Yen(r.Expense.Float()),
			Yen(r.Refund.Float()),
			fmt.Sprintf("%.1f%%", r.Percent),
			fmt.Sprintf("%.1f%%", r.Cumulative),
		})
	}
	return pterm.DefaultTable.
		WithHasHeader().
		WithBoxed().
		WithRightAlignment().
		WithHeaderStyle(pterm.NewStyle(pterm.FgLightCyan)).
		WithData(data).
		Srender()
}

// TrendPoint is the net expense of one period.
type TrendPoint struct {
	Label  string
	Amount float64
}

// TrendPoints sums series per bucket label and flips the sign so spending
// is positive. Labels come out sorted.
func TrendPoints(series []core.Series) []TrendPoint {
	sums := make(map[string]core.Money)
	for _, s := range series {
		for _, p := range s.Points {
			sums[p.Label] = sums[p.Label].Add(p.Value)
		}
	}
	out := make([]TrendPoint, 0, len(sums))
	for label, v := range sums {
		out = append(out, TrendPoint{Label: label, Amount: -v.Float()})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Label < out[j].Label })
	return out
}

// PrintTrend draws one bar per period scaled to the largest, coloured by
// the change from the previous period.
func (c *Console) PrintTrend(points []TrendPoint) {
	max := 0.0
	for _, p := range points {
		max = math.Max(max, p.Amount)
	}
	if max <= 0 {
		c.Warn("No spending in the selected periods")
		return
	}

	fmt.Fprintln(c.out, heading("Monthly trend"))
	for i, p := range points {
		bar := Bar(p.Amount, max, barWidth)
		change := ""
		paint := barFirst
		if i > 0 {
			change, paint = Change(points[i-1].Amount, p.Amount)
		}
		fmt.Fprintf(c.out, "%-8s %12s  %s %s\n", p.Label, Yen(p.Amount), paint(padRight(bar, barWidth)), change)
	}
}

// Bar returns a run of blocks proportional to v/max.
func Bar(v, max float64, width int) string {
	if v <= 0 || max <= 0 {
		return ""
	}
	n := int(math.Round(v / max * float64(width)))
	if n == 0 {
		n = 1
	}
	return strings.Repeat("█", n)
}

// Change describes the move from prev to cur. More spending is red.
func Change(prev, cur float64) (string, func(a ...interface{}) string) {
	if math.Abs(prev) < 0.01 {
		if math.Abs(cur) < 0.01 {
			return barFlat("0%"), barFlat
		}
		return barUp("N/A"), barUp
	}
	pct := (cur - prev) / math.Abs(prev) * 100
	switch {
	case math.Abs(pct) < 0.01:
		return barFlat("0%"), barFlat
	case pct > 0:
		return barUp(fmt.Sprintf("⬆ %.1f%%", pct)), barUp
	default:
		return barDown(fmt.Sprintf("⬇ %.1f%%", -pct)), barDown
	}
}

func padRight(s string, width int) string {
	if n := width - len([]rune(s)); n > 0 {
		return s + strings.Repeat(" ", n)
	}
	return s
}

// Yen formats an amount as "¥1,234".
func Yen(v float64) string {
	n := int64(math.Round(v))
	sign := ""
	if n < 0 {
		sign, n = "-", -n
	}
	digits := fmt.Sprint(n)
	var b strings.Builder
	for i, d := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(d)
	}
	return sign + "¥" + b.String()
}
