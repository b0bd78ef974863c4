package engine

import (
	"salarymap/internal/models"
)

// Geography locates state centroids under a projection with the given scale
// and translation.
type Geography interface {
	Centroid(code string, scale, tx, ty float64) (x, y float64, ok bool)
}

// ZoomFactors are the map scale multipliers of the viewport width.
type ZoomFactors struct {
	National float64
	State    float64
}

// DefaultZoom are the factors the map was tuned with.
var DefaultZoom = ZoomFactors{National: 1.3, State: 4.5}

// Project returns the map transform for a viewport. Without a state (or when
// the state has no geometry) the whole country is centered; otherwise the
// map is zoomed in and shifted so the state's centroid sits at the viewport
// center.
func Project(width, height float64, state string, g Geography, z ZoomFactors) models.Projection {
	p := models.Projection{
		Scale:      width * z.National,
		TranslateX: width / 2,
		TranslateY: height / 2,
	}
	if state == "" || state == models.Any || g == nil {
		return p
	}

	scale := width * z.State
	cx, cy, ok := g.Centroid(state, scale, p.TranslateX, p.TranslateY)
	if !ok {
		return p
	}
	return models.Projection{
		Scale:      scale,
		TranslateX: p.TranslateX - cx + width/2,
		TranslateY: p.TranslateY - cy + height/2,
		Zoomed:     true,
	}
}
