package engine

import (
	"math"

	"github.com/aclements/go-moremath/stats"
)

// sortedCopy returns xs sorted ascending without touching the caller's slice.
func sortedCopy(xs []float64) []float64 {
	s := stats.Sample{Xs: append([]float64(nil), xs...)}
	return s.Sort().Xs
}

// median is the textbook median: the middle value, or the mean of the two
// middle values for even-sized samples. NaN when xs is empty.
func median(xs []float64) float64 {
	if len(xs) == 0 {
		return math.NaN()
	}
	s := sortedCopy(xs)
	mid := len(s) / 2
	if len(s)%2 == 1 {
		return s[mid]
	}
	return (s[mid-1] + s[mid]) / 2
}

// quantileSorted is the inclusive linear-interpolation quantile (Hyndman and
// Fan type 7) of an ascending sample.
func quantileSorted(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return math.NaN()
	}
	if p <= 0 || n == 1 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[n-1]
	}
	h := float64(n-1) * p
	i := int(math.Floor(h))
	lo := sorted[i]
	if i+1 >= n {
		return lo
	}
	return lo + (h-float64(i))*(sorted[i+1]-lo)
}
