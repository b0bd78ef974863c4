package geo

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/goccy/go-json"
)

// Point is an x, y pair in unit-projected coordinates: applying a projection
// of scale k and translation t maps it to (x*k + tx, y*k + ty).
type Point [2]float64

// Ring is a closed polygon boundary. The closing vertex may be omitted.
type Ring []Point

type Feature struct {
	Code     string `json:"code"`
	Name     string `json:"name"`
	Polygons []Ring `json:"polygons"`
}

// Atlas is the decoded state geography.
type Atlas struct {
	states map[string]*Feature
}

type atlasFile struct {
	States []Feature `json:"states"`
}

// NewAtlas indexes features by upper-cased state code.
func NewAtlas(features []Feature) *Atlas {
	a := &Atlas{states: make(map[string]*Feature, len(features))}
	for i := range features {
		f := &features[i]
		a.states[strings.ToUpper(f.Code)] = f
	}
	return a
}

// LoadAtlas decodes a geography document of the form
// {"states":[{"code":"CA","name":"California","polygons":[[[x,y],...]]}]}.
func LoadAtlas(r io.Reader) (*Atlas, error) {
	var doc atlasFile
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode geography: %w", err)
	}
	return NewAtlas(doc.States), nil
}

// Len returns the number of state features.
func (a *Atlas) Len() int {
	if a == nil {
		return 0
	}
	return len(a.states)
}

// Feature returns the feature for a state code.
func (a *Atlas) Feature(code string) (*Feature, bool) {
	if a == nil {
		return nil, false
	}
	f, ok := a.states[strings.ToUpper(code)]
	return f, ok
}

// Centroid returns the area-weighted centroid of a state's polygons after
// projecting them with the given scale and translation.
func (a *Atlas) Centroid(code string, scale, tx, ty float64) (x, y float64, ok bool) {
	f, found := a.Feature(code)
	if !found {
		return 0, 0, false
	}
	cx, cy, ok := f.centroid()
	if !ok {
		return 0, 0, false
	}
	return cx*scale + tx, cy*scale + ty, true
}

// centroid works in unit coordinates; projection is affine so the projected
// centroid is the projected unit centroid.
func (f *Feature) centroid() (x, y float64, ok bool) {
	var area, sx, sy float64
	var n int
	var vx, vy float64
	for _, ring := range f.Polygons {
		for i := range ring {
			p, q := ring[i], ring[(i+1)%len(ring)]
			cross := p[0]*q[1] - q[0]*p[1]
			area += cross
			sx += (p[0] + q[0]) * cross
			sy += (p[1] + q[1]) * cross
			vx += p[0]
			vy += p[1]
			n++
		}
	}
	if n == 0 {
		return 0, 0, false
	}
	// Degenerate geometry: fall back to the vertex mean.
	if math.Abs(area) < 1e-12 {
		return vx / float64(n), vy / float64(n), true
	}
	area *= 3
	return sx / area, sy / area, true
}
