package api

import (
	"salarymap/internal/models"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/zeebo/xxh3"
)

var viewCacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "salarymap_view_cache_lookups_total",
	Help: "View cache lookups by result",
}, []string{"result"})

// viewCache memoizes computed views by bookmark token. Views are never
// mutated after they are built, so cached pointers are shared freely.
type viewCache struct {
	mu    sync.Mutex
	max   int
	order []uint64
	views map[uint64]cachedView
}

type cachedView struct {
	token string
	view  *models.DashboardView
}

func newViewCache(max int) *viewCache {
	return &viewCache{max: max, views: make(map[uint64]cachedView)}
}

func (c *viewCache) get(token string) (*models.DashboardView, bool) {
	if c.max <= 0 {
		return nil, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.views[xxh3.HashString(token)]
	if !ok || v.token != token {
		viewCacheLookups.WithLabelValues("miss").Inc()
		return nil, false
	}
	viewCacheLookups.WithLabelValues("hit").Inc()
	return v.view, true
}

func (c *viewCache) put(token string, view *models.DashboardView) {
	if c.max <= 0 {
		return
	}
	key := xxh3.HashString(token)
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.views[key]; !ok {
		c.order = append(c.order, key)
	}
	c.views[key] = cachedView{token: token, view: view}
	for len(c.order) > c.max {
		delete(c.views, c.order[0])
		c.order = c.order[1:]
	}
}

func (c *viewCache) reset() {
	c.mu.Lock()
	c.order = nil
	c.views = make(map[uint64]cachedView)
	c.mu.Unlock()
}
