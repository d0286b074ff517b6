// Package chart renders aggregates as Chart.js configurations. The browser
// only instantiates them; every number and title is decided here.
package chart

// Config is a complete Chart.js chart definition.
type Config struct {
	Type    string  `json:"type"`
	Data    Data    `json:"data"`
	Options Options `json:"options"`
}

type Data struct {
	Labels   []string  `json:"labels"`
	Datasets []Dataset `json:"datasets"`
}

// Dataset covers the fields used by the bar, line, doughnut and boxplot
// controllers. Data holds []float64 or []BoxItem.
type Dataset struct {
	Type            string  `json:"type,omitempty"`
	Label           string  `json:"label,omitempty"`
	Data            any     `json:"data"`
	BackgroundColor any     `json:"backgroundColor,omitempty"`
	BorderColor     any     `json:"borderColor,omitempty"`
	BorderWidth     int     `json:"borderWidth,omitempty"`
	BorderDash      []int   `json:"borderDash,omitempty"`
	Fill            any     `json:"fill,omitempty"`
	YAxisID         string  `json:"yAxisID,omitempty"`
	Order           int     `json:"order,omitempty"`
	PointRadius     *int    `json:"pointRadius,omitempty"`
	Tension         float64 `json:"tension,omitempty"`
}

// BoxItem is one box of the boxplot controller. Min and Max are the
// whisker ends; points beyond them are listed as outliers.
type BoxItem struct {
	Min      float64   `json:"min"`
	Q1       float64   `json:"q1"`
	Median   float64   `json:"median"`
	Q3       float64   `json:"q3"`
	Max      float64   `json:"max"`
	Mean     float64   `json:"mean"`
	Outliers []float64 `json:"outliers"`
}

type Options struct {
	Responsive          bool             `json:"responsive"`
	MaintainAspectRatio bool             `json:"maintainAspectRatio"`
	IndexAxis           string           `json:"indexAxis,omitempty"`
	Cutout              string           `json:"cutout,omitempty"`
	Plugins             Plugins          `json:"plugins"`
	Scales              map[string]Scale `json:"scales,omitempty"`
	Interaction         *Interaction     `json:"interaction,omitempty"`
}

type Plugins struct {
	Title       Title        `json:"title"`
	Legend      Legend       `json:"legend"`
	ValueLabels *ValueLabels `json:"valueLabels,omitempty"`
}

type Title struct {
	Display bool   `json:"display"`
	Text    string `json:"text"`
}

type Legend struct {
	Display  bool   `json:"display"`
	Position string `json:"position,omitempty"`
}

// ValueLabels are drawn next to bars by the page's valueLabels plugin.
type ValueLabels struct {
	Labels []string `json:"labels"`
}

type Interaction struct {
	Mode      string `json:"mode"`
	Intersect bool   `json:"intersect"`
}

type Scale struct {
	Type     string   `json:"type,omitempty"`
	Position string   `json:"position,omitempty"`
	Stacked  bool     `json:"stacked,omitempty"`
	Min      *float64 `json:"min,omitempty"`
	Max      *float64 `json:"max,omitempty"`
	Title    *Title   `json:"title,omitempty"`
	Ticks    *Ticks   `json:"ticks,omitempty"`
	Grid     *Grid    `json:"grid,omitempty"`
}

type Ticks struct {
	StepSize float64 `json:"stepSize,omitempty"`
	Suffix   string  `json:"suffix,omitempty"`
}

type Grid struct {
	DrawOnChartArea bool `json:"drawOnChartArea"`
}

// pastel is the qualitative palette used for categories.
var pastel = []string{
	"rgb(102, 197, 204)",
	"rgb(246, 207, 113)",
	"rgb(248, 156, 116)",
	"rgb(220, 176, 242)",
	"rgb(135, 197, 95)",
	"rgb(158, 185, 243)",
	"rgb(254, 136, 177)",
	"rgb(201, 219, 116)",
	"rgb(139, 224, 164)",
	"rgb(180, 151, 231)",
	"rgb(179, 179, 179)",
}

func color(i int) string {
	return pastel[i%len(pastel)]
}

func colors(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = color(i)
	}
	return out
}

func ptr[T any](v T) *T { return &v }

func axisTitle(text string) *Title {
	return &Title{Display: text != "", Text: text}
}

func baseOptions(title string) Options {
	return Options{
		Responsive:          true,
		MaintainAspectRatio: false,
		Plugins: Plugins{
			Title:  Title{Display: true, Text: title},
			Legend: Legend{Display: true, Position: "top"},
		},
	}
}
