package api

import (
	"net/http"
	"net/http/httptest"
	"salarymap/internal/engine"
	"salarymap/internal/models"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/labstack/echo/v4"
)

func testDataset() *engine.Dataset {
	day := func(year int) time.Time { return time.Date(year, time.June, 1, 0, 0, 0, 0, time.UTC) }
	salaries := []models.SalaryRecord{
		{CountyID: 1, USstate: "CA", JobTitle: "engineer", BaseSalary: 100000, SubmitDate: day(2013)},
		{CountyID: 2, USstate: "CA", JobTitle: "manager", BaseSalary: 90000, SubmitDate: day(2014)},
		{CountyID: 3, USstate: "WA", JobTitle: "engineer", BaseSalary: 120000, SubmitDate: day(2014)},
	}
	incomes := []models.CountyIncome{
		{CountyID: 1, USstate: "CA", MedianIncome: 70000},
		{CountyID: 2, USstate: "CA", MedianIncome: 60000},
		{CountyID: 3, USstate: "WA", MedianIncome: 75000},
		{CountyID: 0, USstate: "US", MedianIncome: 53000},
	}
	return engine.NewDataset(salaries, incomes, nil)
}

func newServer(h *Handler) *echo.Echo {
	e := echo.New()
	e.JSONSerializer = JSONSerializer{}
	h.RegisterRoutes(e)
	return e
}

func do(t *testing.T, e *echo.Echo, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

// viewResponse picks the fields the tests look at.
type viewResponse struct {
	Token    string `json:"token"`
	Headline string `json:"headline"`
	Summary  struct {
		Count int `json:"count"`
	} `json:"summary"`
	Household *float64             `json:"householdMedian"`
	Counties  []models.CountyShade `json:"counties"`
}

func decodeView(t *testing.T, rec *httptest.ResponseRecorder) viewResponse {
	t.Helper()
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var v viewResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatal(err)
	}
	return v
}

func TestLoadingState(t *testing.T) {
	h := NewHandler(nil, engine.DefaultOptions(), 16)
	e := newServer(h)

	rec := do(t, e, http.MethodGet, "/api/view", "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected 503 while loading, got %d", rec.Code)
	}
	rec = do(t, e, http.MethodGet, "/api/health", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "loading") {
		t.Errorf("Expected loading health, got %d %s", rec.Code, rec.Body.String())
	}

	// Publishing data brings the API up.
	h.SetData(testDataset())
	rec = do(t, e, http.MethodGet, "/api/view", "")
	if rec.Code != http.StatusOK {
		t.Errorf("Expected 200 after load, got %d", rec.Code)
	}
}

func TestGetView(t *testing.T) {
	e := newServer(NewHandler(testDataset(), engine.DefaultOptions(), 16))

	// 1. By token
	v := decodeView(t, do(t, e, http.MethodGet, "/api/view?token=2014-*-engineer", ""))
	if v.Token != "2014-*-engineer" || v.Summary.Count != 1 {
		t.Errorf("Token view: got token %q count %d", v.Token, v.Summary.Count)
	}

	// 2. By query params
	v = decodeView(t, do(t, e, http.MethodGet, "/api/view?state=ca", ""))
	if v.Token != "*-CA-*" || v.Summary.Count != 2 {
		t.Errorf("Param view: got token %q count %d", v.Token, v.Summary.Count)
	}
	if v.Household == nil || *v.Household != 65000 {
		t.Errorf("Expected CA household 65000, got %v", v.Household)
	}

	// 3. Unknown values fall back to the unconstrained view
	v = decodeView(t, do(t, e, http.MethodGet, "/api/view?token=1999-TX-janitor", ""))
	if v.Token != "*-*-*" || v.Summary.Count != 3 {
		t.Errorf("Fallback view: got token %q count %d", v.Token, v.Summary.Count)
	}
}

func TestFiltersAndToggles(t *testing.T) {
	e := newServer(NewHandler(testDataset(), engine.DefaultOptions(), 16))

	v := decodeView(t, do(t, e, http.MethodPost, "/api/filters/state", `{"value":"CA"}`))
	if v.Token != "*-CA-*" {
		t.Errorf("Expected *-CA-*, got %q", v.Token)
	}

	// State codes are case-insensitive.
	v = decodeView(t, do(t, e, http.MethodPost, "/api/filters/state", `{"value":"ca"}`))
	if v.Token != "*-CA-*" || v.Summary.Count != 2 {
		t.Errorf("Expected *-CA-* with 2 salaries, got %q with %d", v.Token, v.Summary.Count)
	}

	// Years may be sent as numbers.
	v = decodeView(t, do(t, e, http.MethodPost, "/api/filters/year", `{"value":2014}`))
	if v.Token != "2014-CA-*" || v.Summary.Count != 1 {
		t.Errorf("Expected 2014-CA-* with 1 salary, got %q with %d", v.Token, v.Summary.Count)
	}

	// Toggling the selected state clears it.
	v = decodeView(t, do(t, e, http.MethodPost, "/api/toggles/USstate", `{"value":"CA"}`))
	if v.Token != "2014-*-*" {
		t.Errorf("Expected 2014-*-*, got %q", v.Token)
	}

	v = decodeView(t, do(t, e, http.MethodPost, "/api/filters/year", `{"reset":true}`))
	if v.Token != "*-*-*" {
		t.Errorf("Expected *-*-*, got %q", v.Token)
	}

	rec := do(t, e, http.MethodPost, "/api/filters/county", `{"value":"1"}`)
	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for an unknown field, got %d", rec.Code)
	}
	rec = do(t, e, http.MethodPost, "/api/filters/year", `{"value":`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for a malformed body, got %d", rec.Code)
	}
}

func TestSelectionBookmark(t *testing.T) {
	e := newServer(NewHandler(testDataset(), engine.DefaultOptions(), 16))

	v := decodeView(t, do(t, e, http.MethodPut, "/api/selection/2013-CA-engineer", ""))
	if v.Token != "2013-CA-engineer" {
		t.Errorf("Expected restored token, got %q", v.Token)
	}

	rec := do(t, e, http.MethodGet, "/api/selection", "")
	var got struct {
		Selection models.FilterSelection `json:"selection"`
		Token     string                 `json:"token"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	want := models.FilterSelection{Year: 2013, USstate: "CA", JobTitle: "engineer"}
	if got.Selection != want || got.Token != "2013-CA-engineer" {
		t.Errorf("Expected %+v, got %+v (%q)", want, got.Selection, got.Token)
	}
}

func TestGetCountiesPagination(t *testing.T) {
	e := newServer(NewHandler(testDataset(), engine.DefaultOptions(), 16))

	rec := do(t, e, http.MethodGet, "/api/counties?limit=2&offset=1", "")
	var page struct {
		Data   []models.CountyShade `json:"data"`
		Total  int                  `json:"total"`
		Limit  int                  `json:"limit"`
		Offset int                  `json:"offset"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &page); err != nil {
		t.Fatal(err)
	}
	if page.Total != 3 || len(page.Data) != 2 || page.Data[0].CountyID != 2 {
		t.Errorf("Unexpected page %+v", page)
	}

	rec = do(t, e, http.MethodGet, "/api/counties?offset=10", "")
	if err := json.Unmarshal(rec.Body.Bytes(), &page); err != nil {
		t.Fatal(err)
	}
	if len(page.Data) != 0 || page.Total != 3 {
		t.Errorf("Expected an empty page past the end, got %+v", page)
	}
}

func TestGetControls(t *testing.T) {
	e := newServer(NewHandler(testDataset(), engine.DefaultOptions(), 16))

	rec := do(t, e, http.MethodGet, "/api/controls", "")
	var got struct {
		Vocabulary models.Vocabulary `json:"vocabulary"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if len(got.Vocabulary.Years) != 2 || len(got.Vocabulary.JobTitles) != 2 || len(got.Vocabulary.USstates) != 2 {
		t.Errorf("Unexpected vocabulary %+v", got.Vocabulary)
	}
}

func TestViewCache(t *testing.T) {
	c := newViewCache(2)
	a, b, d := &models.DashboardView{Token: "a"}, &models.DashboardView{Token: "b"}, &models.DashboardView{Token: "d"}
	c.put("a", a)
	c.put("b", b)
	c.put("d", d)

	if _, ok := c.get("a"); ok {
		t.Error("Expected the oldest entry to be evicted")
	}
	if v, ok := c.get("d"); !ok || v != d {
		t.Error("Expected the newest entry to be cached")
	}

	c.reset()
	if _, ok := c.get("b"); ok {
		t.Error("Expected reset to empty the cache")
	}

	off := newViewCache(0)
	off.put("a", a)
	if _, ok := off.get("a"); ok {
		t.Error("Zero-sized cache must not store views")
	}
}
