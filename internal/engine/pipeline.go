package engine

import (
	"salarymap/internal/models"
	"time"
)

// Options are the layout and tuning knobs of one recompute pass.
type Options struct {
	MapWidth, MapHeight float64
	HistogramBins       int
	Histogram           HistogramGeometry
	Zoom                ZoomFactors
	LowQuantile         float64
	HighQuantile        float64
}

// DefaultOptions matches the dashboard's 1100x500 canvas: a 500px map on the
// left and the histogram on the right.
func DefaultOptions() Options {
	return Options{
		MapWidth:      500,
		MapHeight:     500,
		HistogramBins: 10,
		Histogram: HistogramGeometry{
			Width:        500,
			Height:       500,
			Y:            10,
			AxisMargin:   83,
			BottomMargin: 5,
		},
		Zoom:         DefaultZoom,
		LowQuantile:  DefaultLowQuantile,
		HighQuantile: DefaultHighQuantile,
	}
}

// Recompute derives the full dashboard view for sel from scratch. The dataset
// is only read.
func (ds *Dataset) Recompute(sel models.FilterSelection, opts Options) *models.DashboardView {
	t0 := time.Now()
	defer func() { recomputeDuration.Observe(time.Since(t0).Seconds()) }()

	sel = sel.Normalized()

	// 1. Filter
	filtered := Filter(ds.Salaries, PredicateFor(sel))
	filteredRecords.Observe(float64(len(filtered)))

	// 2. County deltas and color classes
	values := CountyValues(filtered, ds.CountyIncome, ds.Counties)
	raw := make([]float64, len(values))
	for i, v := range values {
		raw[i] = v.Value
	}
	q := &Quantizer{Low: opts.LowQuantile, High: opts.HighQuantile}
	q.Fit(raw)

	shades := make([]models.CountyShade, 0, len(values))
	for _, v := range values {
		b, ok := q.Classify(v.Value)
		if !ok {
			continue
		}
		shades = append(shades, models.CountyShade{
			CountyID: v.CountyID,
			Value:    v.Value,
			Bucket:   b,
			Color:    CSSColor(BucketColor(b)),
		})
	}

	// 3. Histogram
	salaries := Salaries(filtered)
	bins := BinSamples(salaries, opts.HistogramBins, func(x float64) float64 { return x })
	bars := Layout(bins, len(salaries), opts.Histogram)

	// 4. Household comparison
	baseline, _ := HouseholdBaseline(ds.StateIncome, sel.USstate)
	summary := Summarize(filtered)

	view := &models.DashboardView{
		Selection:    sel,
		Token:        EncodeSelection(sel),
		Headline:     Headline(sel, summary),
		Summary:      summary,
		Household:    models.Number(baseline),
		CountyShades: shades,
		ColorScale:   colorScale(q),
		Histogram:    bars,
		MedianLine:   HouseholdLine(salaries, baseline, opts.Histogram),
	}

	// 5. Map focus
	var g Geography
	if ds.Atlas != nil {
		g = ds.Atlas
	}
	view.Projection = Project(opts.MapWidth, opts.MapHeight, sel.USstate, g, opts.Zoom)
	return view
}

func colorScale(q *Quantizer) models.ColorScale {
	lo, hi := q.Domain()
	cs := models.ColorScale{
		Domain:      [2]models.Number{models.Number(lo), models.Number(hi)},
		Thresholds:  q.Thresholds(),
		Colors:      make([]string, Buckets),
		NoDataColor: CSSColor(NoDataColor),
	}
	for i := range cs.Colors {
		cs.Colors[i] = CSSColor(BucketColor(i))
	}
	return cs
}
