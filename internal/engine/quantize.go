package engine

import (
	"fmt"
	"image/color"
	"math"
	"slices"
	"sort"

	"github.com/aclements/go-gg/palette/brewer"
)

// Buckets is the number of choropleth color classes.
const Buckets = 9

// Default clip percentiles of the color domain. They cut off the sparse tails
// so the dense middle of the distribution gets most of the contrast.
const (
	DefaultLowQuantile  = 0.15
	DefaultHighQuantile = 0.85
)

// NoDataColor fills counties without a computed value.
var NoDataColor color.Color = color.RGBA{240, 240, 240, 255}

// choroplethColors is ColorBrewer Blues, darkest first.
var choroplethColors = func() []color.Color {
	src := brewer.Blues_9
	out := make([]color.Color, len(src))
	for i := range src {
		out[len(src)-1-i] = src[i]
	}
	return out
}()

// Quantizer maps county values onto Buckets discrete classes across a
// percentile-clipped domain.
type Quantizer struct {
	Low, High float64 // clip percentiles in [0, 1]

	lo, hi     float64
	thresholds []float64
	fitted     bool
}

// NewQuantizer returns a quantizer clipping at the default percentiles.
func NewQuantizer() *Quantizer {
	return &Quantizer{Low: DefaultLowQuantile, High: DefaultHighQuantile}
}

// Fit recomputes the domain from values. Fitting an empty set leaves the
// quantizer unfitted, so every Classify reports no data.
func (q *Quantizer) Fit(values []float64) {
	clean := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			clean = append(clean, v)
		}
	}
	if len(clean) == 0 {
		q.lo, q.hi, q.thresholds, q.fitted = 0, 0, nil, false
		return
	}
	sorted := sortedCopy(clean)
	q.lo = quantileSorted(sorted, q.Low)
	q.hi = quantileSorted(sorted, q.High)

	// Inner class edges split [lo, hi] evenly.
	n := float64(Buckets - 1)
	q.thresholds = make([]float64, Buckets-1)
	for i := range q.thresholds {
		k := float64(i)
		q.thresholds[i] = ((k+1)*q.hi - (k-n)*q.lo) / (n + 1)
		if q.lo == q.hi {
			q.thresholds[i] = q.lo
		}
	}
	q.fitted = true
}

// Domain returns the fitted [low, high] values, or NaNs when unfitted.
func (q *Quantizer) Domain() (lo, hi float64) {
	if !q.fitted {
		return math.NaN(), math.NaN()
	}
	return q.lo, q.hi
}

// Classify returns the bucket of v: the number of thresholds at or below v.
// Values below the low end land in bucket 0, values at or above the high end
// in bucket Buckets-1. ok is false for NaN or when nothing has been fitted.
func (q *Quantizer) Classify(v float64) (bucket int, ok bool) {
	if !q.fitted || math.IsNaN(v) {
		return 0, false
	}
	ts := q.thresholds
	return sort.Search(len(ts), func(i int) bool { return ts[i] > v }), true
}

// Thresholds returns the Buckets-1 inner class boundaries.
func (q *Quantizer) Thresholds() []float64 {
	if !q.fitted {
		return nil
	}
	return slices.Clone(q.thresholds)
}

// Color returns the fill for v, or NoDataColor if v cannot be classified.
func (q *Quantizer) Color(v float64) color.Color {
	b, ok := q.Classify(v)
	if !ok {
		return NoDataColor
	}
	return BucketColor(b)
}

// BucketColor returns the palette entry of a bucket.
func BucketColor(b int) color.Color {
	if b < 0 || b >= len(choroplethColors) {
		return NoDataColor
	}
	return choroplethColors[b]
}

// CSSColor formats c as an rgb() string.
func CSSColor(c color.Color) string {
	r, g, b, _ := c.RGBA()
	return fmt.Sprintf("rgb(%d,%d,%d)", r>>8, g>>8, b>>8)
}
