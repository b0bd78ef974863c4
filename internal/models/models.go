package models

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

// Any is the selection value meaning "no constraint on this field".
const Any = "*"

// NationalCode is the synthetic state code of the national income aggregate.
const NationalCode = "US"

type SalaryRecord struct {
	CountyID   int       `json:"countyID"`
	USstate    string    `json:"USstate"`
	JobTitle   string    `json:"jobTitle"`
	BaseSalary float64   `json:"baseSalary"`
	SubmitDate time.Time `json:"submitDate"`
}

// Year is the filing year used by the year filter.
func (r *SalaryRecord) Year() int { return r.SubmitDate.Year() }

type CountyIncome struct {
	CountyID     int     `json:"countyID"`
	USstate      string  `json:"USstate"`
	Name         string  `json:"name,omitempty"`
	MedianIncome float64 `json:"medianIncome"`
}

type County struct {
	ID      int    `json:"id"`
	Name    string `json:"name"`
	USstate string `json:"USstate"`
}

type CountyValue struct {
	CountyID int     `json:"countyID"`
	Value    float64 `json:"value"`
}

// FilterSelection is the serializable snapshot of the three filter fields.
// Year 0 and empty or "*" strings mean unconstrained.
type FilterSelection struct {
	Year     int
	USstate  string
	JobTitle string
}

// AllSelection returns the identity selection.
func AllSelection() FilterSelection {
	return FilterSelection{USstate: Any, JobTitle: Any}
}

func (s FilterSelection) AnyYear() bool     { return s.Year == 0 }
func (s FilterSelection) AnyUSstate() bool  { return s.USstate == "" || s.USstate == Any }
func (s FilterSelection) AnyJobTitle() bool { return s.JobTitle == "" || s.JobTitle == Any }

// YearLabel returns the display value of the year field.
func (s FilterSelection) YearLabel() string {
	if s.AnyYear() {
		return Any
	}
	return strconv.Itoa(s.Year)
}

// Normalized replaces empty string fields with "*" and upper-cases the
// state code.
func (s FilterSelection) Normalized() FilterSelection {
	if s.AnyUSstate() {
		s.USstate = Any
	} else {
		s.USstate = strings.ToUpper(s.USstate)
	}
	if s.AnyJobTitle() {
		s.JobTitle = Any
	}
	if s.Year < 0 {
		s.Year = 0
	}
	return s
}

type selectionJSON struct {
	Year     any    `json:"year"`
	USstate  string `json:"USstate"`
	JobTitle string `json:"jobTitle"`
}

func (s FilterSelection) MarshalJSON() ([]byte, error) {
	n := s.Normalized()
	out := selectionJSON{Year: Any, USstate: n.USstate, JobTitle: n.JobTitle}
	if !n.AnyYear() {
		out.Year = n.Year
	}
	return json.Marshal(out)
}

func (s *FilterSelection) UnmarshalJSON(b []byte) error {
	var in selectionJSON
	if err := json.Unmarshal(b, &in); err != nil {
		return err
	}
	*s = FilterSelection{USstate: in.USstate, JobTitle: in.JobTitle}
	switch y := in.Year.(type) {
	case float64:
		s.Year = int(y)
	case string:
		if n, err := strconv.Atoi(y); err == nil {
			s.Year = n
		}
	}
	*s = s.Normalized()
	return nil
}

// Number is a float64 that encodes NaN and infinities as JSON null.
type Number float64

func (n Number) MarshalJSON() ([]byte, error) {
	f := float64(n)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return []byte("null"), nil
	}
	return strconv.AppendFloat(nil, f, 'f', -1, 64), nil
}

// Valid reports whether n carries data.
func (n Number) Valid() bool {
	f := float64(n)
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

type Summary struct {
	Count  int    `json:"count"`
	Mean   Number `json:"mean"`
	Median Number `json:"median"`
	Min    Number `json:"min"`
	Max    Number `json:"max"`
}

type CountyShade struct {
	CountyID int     `json:"countyID"`
	Value    float64 `json:"value"`
	Bucket   int     `json:"bucket"`
	Color    string  `json:"color"`
}

type ColorScale struct {
	Domain      [2]Number `json:"domain"`
	Thresholds  []float64 `json:"thresholds"`
	Colors      []string  `json:"colors"`
	NoDataColor string    `json:"noDataColor"`
}

type HistogramBar struct {
	X0      float64 `json:"x0"`
	X1      float64 `json:"x1"`
	Count   int     `json:"count"`
	Percent float64 `json:"percent"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Width   float64 `json:"width"`
	Height  float64 `json:"height"`
	Label   string  `json:"label"`
}

type MedianLine struct {
	Value Number  `json:"value"`
	Y     float64 `json:"y"`
	Label string  `json:"label"`
}

type Projection struct {
	Scale      float64 `json:"scale"`
	TranslateX float64 `json:"translateX"`
	TranslateY float64 `json:"translateY"`
	Zoomed     bool    `json:"zoomed"`
}

// DashboardView is everything the renderer needs for one selection.
type DashboardView struct {
	Selection    FilterSelection `json:"selection"`
	Token        string          `json:"token"`
	Headline     string          `json:"headline"`
	Summary      Summary         `json:"summary"`
	Household    Number          `json:"householdMedian"`
	CountyShades []CountyShade   `json:"counties"`
	ColorScale   ColorScale      `json:"colorScale"`
	Histogram    []HistogramBar  `json:"histogram"`
	MedianLine   MedianLine      `json:"medianLine"`
	Projection   Projection      `json:"projection"`
}

type Vocabulary struct {
	Years     []int    `json:"years"`
	JobTitles []string `json:"jobTitles"`
	USstates  []string `json:"USstates"`
}
