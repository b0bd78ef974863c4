package engine

import (
	"cmp"
	"salarymap/internal/geo"
	"salarymap/internal/models"
	"slices"
	"strconv"
	"strings"

	"golang.org/x/exp/maps"
)

// Dataset holds everything loaded at startup. It is read-only once built and
// safe to share between goroutines.
type Dataset struct {
	// Rows
	Salaries []models.SalaryRecord

	// Income lookups
	CountyIncome map[int]models.CountyIncome      // countyID -> income
	StateIncome  map[string][]models.CountyIncome // state code (and "US") -> county incomes

	// Geography
	Counties []models.County
	Atlas    *geo.Atlas

	// Dictionaries (distinct toggle values)
	vocab models.Vocabulary
}

// NewDataset indexes raw inputs. Income entries coded "US" feed the national
// baseline only and never match a county.
func NewDataset(salaries []models.SalaryRecord, incomes []models.CountyIncome, atlas *geo.Atlas) *Dataset {
	ds := &Dataset{
		Salaries:     salaries,
		CountyIncome: make(map[int]models.CountyIncome, len(incomes)),
		StateIncome:  make(map[string][]models.CountyIncome),
		Counties:     make([]models.County, 0, len(incomes)),
		Atlas:        atlas,
	}

	for _, inc := range incomes {
		code := strings.ToUpper(inc.USstate)
		ds.StateIncome[code] = append(ds.StateIncome[code], inc)
		if code == models.NationalCode {
			continue
		}
		if _, dup := ds.CountyIncome[inc.CountyID]; dup {
			continue
		}
		ds.CountyIncome[inc.CountyID] = inc
		ds.Counties = append(ds.Counties, models.County{ID: inc.CountyID, Name: inc.Name, USstate: code})
	}
	slices.SortFunc(ds.Counties, func(a, b models.County) int { return cmp.Compare(a.ID, b.ID) })

	years := make(map[int]struct{})
	titles := make(map[string]struct{})
	states := make(map[string]struct{})
	for i := range salaries {
		r := &salaries[i]
		years[r.Year()] = struct{}{}
		if r.JobTitle != "" {
			titles[r.JobTitle] = struct{}{}
		}
		if r.USstate != "" {
			states[r.USstate] = struct{}{}
		}
	}
	ds.vocab = models.Vocabulary{Years: maps.Keys(years), JobTitles: maps.Keys(titles), USstates: maps.Keys(states)}
	slices.Sort(ds.vocab.Years)
	slices.Sort(ds.vocab.JobTitles)
	slices.Sort(ds.vocab.USstates)

	return ds
}

// Vocabulary returns the distinct years, job titles and states present in
// the salary data.
func (ds *Dataset) Vocabulary() models.Vocabulary {
	return models.Vocabulary{
		Years:     slices.Clone(ds.vocab.Years),
		JobTitles: slices.Clone(ds.vocab.JobTitles),
		USstates:  slices.Clone(ds.vocab.USstates),
	}
}

// Knows reports whether value occurs for field f in the salary data.
func (ds *Dataset) Knows(f Field, value string) bool {
	switch f {
	case FieldYear:
		for _, y := range ds.vocab.Years {
			if value == strconv.Itoa(y) {
				return true
			}
		}
	case FieldJobTitle:
		_, ok := slices.BinarySearch(ds.vocab.JobTitles, value)
		return ok
	case FieldUSstate:
		_, ok := slices.BinarySearch(ds.vocab.USstates, value)
		return ok
	}
	return false
}
