package core

// Point is one (label, value) pair of a Series.
type Point struct {
	Label string
	Value Money
}

// Series is an ordered sequence of points feeding a chart.
type Series struct {
	Name   string
	Points []Point
}

// Total returns the sum of all point values.
func (s Series) Total() Money {
	var t Money
	for _, p := range s.Points {
		t = t.Add(p.Value)
	}
	return t
}

// CategoryAmount is one row of a category summary.
type CategoryAmount struct {
	Name       string
	Expense    Money // absolute spending
	Refund     Money
	Percent    float64
	Cumulative float64
}

// Summary is the category breakdown for a selection.
type Summary struct {
	Label string
	Level CategoryLevel
	Total Money
	Rows  []CategoryAmount
}

// BoxStats describes the distribution of absolute amounts in one group.
type BoxStats struct {
	Label       string
	Count       int
	Min         float64
	Q1          float64
	Median      float64
	Q3          float64
	Max         float64
	WhiskerLow  float64
	WhiskerHigh float64
	Mean        float64
	Outliers    []float64
	Values      []float64
}
