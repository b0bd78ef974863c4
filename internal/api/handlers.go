package api

import (
	"errors"
	"net/http"
	"salarymap/internal/engine"
	"salarymap/internal/models"
	"strconv"
	"strings"
	"sync"

	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"
)

// ErrNoDataset is returned while the startup load is still running.
var ErrNoDataset = errors.New("dataset loading")

type Handler struct {
	mu      sync.RWMutex
	data    *engine.Dataset
	opts    engine.Options
	filters *engine.Controller
	cache   *viewCache
}

func NewHandler(data *engine.Dataset, opts engine.Options, cacheSize int) *Handler {
	h := &Handler{
		data:    data,
		opts:    opts,
		filters: engine.NewController(),
		cache:   newViewCache(cacheSize),
	}
	h.filters.Subscribe(func(u engine.Update) {
		log.Debugf("selection changed: %s", engine.EncodeSelection(u.Selection))
	})
	return h
}

// SetData publishes a freshly loaded dataset and drops cached views.
func (h *Handler) SetData(data *engine.Dataset) {
	h.mu.Lock()
	h.data = data
	h.mu.Unlock()
	h.cache.reset()
}

func (h *Handler) dataset() (*engine.Dataset, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.data == nil {
		return nil, echo.NewHTTPError(http.StatusServiceUnavailable, ErrNoDataset.Error())
	}
	return h.data, nil
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	api := e.Group("/api")
	api.GET("/health", h.GetHealth)
	api.GET("/view", h.GetView)
	api.GET("/controls", h.GetControls)
	api.GET("/selection", h.GetSelection)
	api.PUT("/selection/:token", h.PutSelection)
	api.POST("/filters/:field", h.PostFilter)
	api.POST("/toggles/:field", h.PostToggle)
	api.GET("/counties", h.GetCounties)
}

// view returns the (possibly cached) view of sel.
func (h *Handler) view(ds *engine.Dataset, sel models.FilterSelection) *models.DashboardView {
	token := engine.EncodeSelection(sel)
	if v, ok := h.cache.get(token); ok {
		return v
	}
	v := ds.Recompute(sel, h.opts)
	h.cache.put(token, v)
	return v
}

// --- HANDLERS ---
func getPaginationParams(c echo.Context, defaultLimit int) (int, int) {
	limit, err := strconv.Atoi(c.QueryParam("limit"))
	if err != nil || limit <= 0 {
		limit = defaultLimit
	}
	offset, err := strconv.Atoi(c.QueryParam("offset"))
	if err != nil || offset < 0 {
		offset = 0
	}
	return limit, offset
}

func (h *Handler) GetHealth(c echo.Context) error {
	status := "ok"
	if _, err := h.dataset(); err != nil {
		status = "loading"
	}
	return c.JSON(http.StatusOK, map[string]string{"status": status})
}

// GetView computes a view without touching the shared filter state. The
// selection comes from a bookmark token or from year/state/jobTitle params.
func (h *Handler) GetView(c echo.Context) error {
	ds, err := h.dataset()
	if err != nil {
		return err
	}

	var sel models.FilterSelection
	if token := c.QueryParam("token"); token != "" {
		sel = engine.DecodeSelection(token, ds)
	} else {
		sel = models.AllSelection()
		if year, err := strconv.Atoi(c.QueryParam("year")); err == nil && year > 0 {
			sel.Year = year
		}
		if state := c.QueryParam("state"); state != "" {
			sel.USstate = strings.ToUpper(state)
		}
		if title := c.QueryParam("jobTitle"); title != "" {
			sel.JobTitle = title
		}
	}
	return c.JSON(http.StatusOK, h.view(ds, sel))
}

func (h *Handler) GetControls(c echo.Context) error {
	ds, err := h.dataset()
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"vocabulary": ds.Vocabulary(),
		"selection":  h.filters.Selection(),
	})
}

func (h *Handler) GetSelection(c echo.Context) error {
	sel := h.filters.Selection()
	return c.JSON(http.StatusOK, map[string]interface{}{
		"selection": sel,
		"token":     engine.EncodeSelection(sel),
	})
}

// PutSelection restores a bookmark into the shared filter state.
func (h *Handler) PutSelection(c echo.Context) error {
	ds, err := h.dataset()
	if err != nil {
		return err
	}
	u := h.filters.Apply(engine.DecodeSelection(c.Param("token"), ds))
	return c.JSON(http.StatusOK, h.view(ds, u.Selection))
}

type filterRequest struct {
	Value interface{} `json:"value"`
	Reset bool        `json:"reset"`
}

// valueString accepts JSON strings and numbers, so years may be sent either
// way.
func valueString(v interface{}) string {
	switch v := v.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return ""
}

func (h *Handler) PostFilter(c echo.Context) error {
	ds, err := h.dataset()
	if err != nil {
		return err
	}
	field, err := engine.ParseField(c.Param("field"))
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	}
	var req filterRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid filter body")
	}
	u, err := h.filters.SetField(field, valueString(req.Value), req.Reset)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, h.view(ds, u.Selection))
}

func (h *Handler) PostToggle(c echo.Context) error {
	ds, err := h.dataset()
	if err != nil {
		return err
	}
	field, err := engine.ParseField(c.Param("field"))
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	}
	var req filterRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid toggle body")
	}
	u, err := h.filters.Toggle(field, valueString(req.Value))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, h.view(ds, u.Selection))
}

// GetCounties pages through the shaded counties of the current selection.
func (h *Handler) GetCounties(c echo.Context) error {
	ds, err := h.dataset()
	if err != nil {
		return err
	}
	shades := h.view(ds, h.filters.Selection()).CountyShades
	total := len(shades)
	limit, offset := getPaginationParams(c, total)

	if offset >= total {
		return c.JSON(http.StatusOK, map[string]interface{}{
			"data":   []models.CountyShade{},
			"total":  total,
			"limit":  limit,
			"offset": offset,
		})
	}

	end := offset + limit
	if end > total {
		end = total
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"data":   shades[offset:end],
		"total":  total,
		"limit":  limit,
		"offset": offset,
	})
}
