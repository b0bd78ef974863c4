package engine

import (
	"math"
	"salarymap/internal/models"
	"sort"
	"strconv"

	"github.com/aclements/go-moremath/scale"
	"github.com/aclements/go-moremath/stats"
)

// Bin is one histogram bucket: items whose value v satisfies X0 <= v < X1,
// except that the last bin also holds values equal to its X1.
type Bin[T any] struct {
	X0, X1 float64
	Items  []T
}

// Len returns the number of items in the bin.
func (b Bin[T]) Len() int { return len(b.Items) }

// BinSamples buckets samples into equal-width bins across their extent. The
// inner edges are round numbers chosen to give about thresholds bins, so the
// actual count may be off by one or two. The first and last bins are clipped
// to the sample extent.
func BinSamples[T any](samples []T, thresholds int, value func(T) float64) []Bin[T] {
	if len(samples) == 0 {
		return nil
	}
	xs := make([]float64, len(samples))
	for i, s := range samples {
		xs[i] = value(s)
	}
	x0, x1 := stats.Bounds(xs)

	// Inner edges strictly inside the extent.
	var edges []float64
	for _, t := range niceTicks(x0, x1, thresholds) {
		if t > x0 && t < x1 {
			edges = append(edges, t)
		}
	}

	bins := make([]Bin[T], len(edges)+1)
	for i := range bins {
		bins[i].X0, bins[i].X1 = x0, x1
		if i > 0 {
			bins[i].X0 = edges[i-1]
		}
		if i < len(edges) {
			bins[i].X1 = edges[i]
		}
	}
	for i, s := range samples {
		x := xs[i]
		if math.IsNaN(x) {
			continue
		}
		j := sort.Search(len(edges), func(k int) bool { return edges[k] > x })
		bins[j].Items = append(bins[j].Items, s)
	}
	return bins
}

// niceTicks returns round values spaced by 1, 2 or 5 times a power of ten
// covering [start, stop] in roughly count steps.
func niceTicks(start, stop float64, count int) []float64 {
	if count <= 0 || !(stop > start) {
		return nil
	}
	step := tickIncrement(start, stop, count)
	if step == 0 || math.IsInf(step, 0) || math.IsNaN(step) {
		return nil
	}
	var ticks []float64
	if step > 0 {
		lo, hi := math.Ceil(start/step), math.Floor(stop/step)
		for i := lo; i <= hi; i++ {
			ticks = append(ticks, i*step)
		}
	} else {
		inv := -step
		lo, hi := math.Ceil(start*inv), math.Floor(stop*inv)
		for i := lo; i <= hi; i++ {
			ticks = append(ticks, i/inv)
		}
	}
	return ticks
}

var (
	e10 = math.Sqrt(50)
	e5  = math.Sqrt(10)
	e2  = math.Sqrt(2)
)

// tickIncrement returns the tick step, or for steps below one the negated
// inverse step so that ticks stay exact decimal fractions.
func tickIncrement(start, stop float64, count int) float64 {
	step := (stop - start) / float64(count)
	power := math.Floor(math.Log10(step))
	err := step / math.Pow(10, power)
	f := 1.0
	switch {
	case err >= e10:
		f = 10
	case err >= e5:
		f = 5
	case err >= e2:
		f = 2
	}
	if power >= 0 {
		return f * math.Pow(10, power)
	}
	return -math.Pow(10, -power) / f
}

// HistogramGeometry is the drawing area of the histogram.
type HistogramGeometry struct {
	Width        float64
	Height       float64
	Y            float64 // top offset inside the chart
	AxisMargin   float64 // room left of the bars for the value axis
	BottomMargin float64
}

// Label thresholds in pixels of bar width.
const (
	labelNoPercentWidth = 20
	labelHiddenWidth    = 10
)

// HistogramScales are the two linear scales derived from a bin set.
type HistogramScales struct {
	magnitude scale.Linear // count -> [0, 1]
	position  scale.Linear // value -> [0, 1]
	width     float64
	height    float64
}

// NewHistogramScales derives the bar length scale, mapping [min count, max
// count] onto the available width, and the value axis scale, mapping
// [0, max X1] onto the available height.
func NewHistogramScales[T any](bins []Bin[T], g HistogramGeometry) HistogramScales {
	s := HistogramScales{
		width:  math.Max(0, g.Width-g.AxisMargin),
		height: math.Max(0, g.Height-g.Y-g.BottomMargin),
	}
	if len(bins) == 0 {
		return s
	}
	counts := make([]float64, len(bins))
	maxX1 := math.Inf(-1)
	for i, b := range bins {
		counts[i] = float64(b.Len())
		maxX1 = math.Max(maxX1, b.X1)
	}
	lo, hi := stats.Bounds(counts)
	s.magnitude = scale.Linear{Min: lo, Max: hi}
	s.position = scale.Linear{Min: 0, Max: maxX1}
	return s
}

// BarWidth maps a bin count to a bar length.
func (s *HistogramScales) BarWidth(count int) float64 {
	if s.magnitude.Min == s.magnitude.Max {
		// Every bin has the same count: draw them all at full length.
		return s.width
	}
	return s.magnitude.Map(float64(count)) * s.width
}

// Position maps a salary value onto the value axis.
func (s *HistogramScales) Position(v float64) float64 {
	if s.position.Max == s.position.Min {
		return 0
	}
	return s.position.Map(v) * s.height
}

// Layout converts bins into positioned bars. total is the number of samples
// percentages are relative to. A bar's height is the position scale applied
// to the bin's span, which places each bar flush against the next.
func Layout[T any](bins []Bin[T], total int, g HistogramGeometry) []models.HistogramBar {
	s := NewHistogramScales(bins, g)
	bars := make([]models.HistogramBar, 0, len(bins))
	for _, b := range bins {
		var percent float64
		if total > 0 {
			percent = float64(b.Len()) / float64(total) * 100
		}
		width := s.BarWidth(b.Len())
		bars = append(bars, models.HistogramBar{
			X0:      b.X0,
			X1:      b.X1,
			Count:   b.Len(),
			Percent: percent,
			X:       g.AxisMargin,
			Y:       s.Position(b.X0),
			Width:   width,
			Height:  s.Position(b.X1 - b.X0),
			Label:   BarLabel(percent, width),
		})
	}
	return bars
}

// BarLabel formats a bar's percentage: whole percents normally, two decimals
// below one percent, no percent sign on narrow bars and nothing at all on
// very narrow ones.
func BarLabel(percent, width float64) string {
	if width < labelHiddenWidth {
		return ""
	}
	prec := 0
	if percent < 1 {
		prec = 2
	}
	// Halves round up.
	pow := math.Pow(10, float64(prec))
	label := strconv.FormatFloat(math.Round(percent*pow)/pow, 'f', prec, 64)
	if width < labelNoPercentWidth {
		return label
	}
	return label + "%"
}

// HouseholdLine positions the household income marker on a value axis
// spanning [0, max salary]. A NaN baseline falls back to the salary median.
func HouseholdLine(salaries []float64, baseline float64, g HistogramGeometry) models.MedianLine {
	v := baseline
	if math.IsNaN(v) {
		v = median(salaries)
	}
	line := models.MedianLine{Value: models.Number(v)}
	if math.IsNaN(v) {
		return line
	}
	_, hi := stats.Bounds(salaries)
	height := math.Max(0, g.Height-g.Y-g.BottomMargin)
	if hi > 0 && !math.IsNaN(hi) {
		axis := scale.Linear{Min: 0, Max: hi}
		line.Y = axis.Map(v) * height
	}
	line.Label = "Median household: $" + FormatThousands(v)
	return line
}
