package engine

import (
	"math"
	"salarymap/internal/models"
	"strings"

	"github.com/aclements/go-moremath/stats"
)

// CountyValues returns, for each county that has both an income entry and at
// least one filtered salary, the median salary minus the county's median
// household income. Other counties are omitted. Output follows the order of
// counties.
func CountyValues(filtered []models.SalaryRecord, incomes map[int]models.CountyIncome, counties []models.County) []models.CountyValue {
	// 1. Group salaries by county
	groups := make(map[int][]float64)
	for i := range filtered {
		r := &filtered[i]
		groups[r.CountyID] = append(groups[r.CountyID], r.BaseSalary)
	}

	// 2. Delta per county
	values := make([]models.CountyValue, 0, len(groups))
	for _, c := range counties {
		income, ok := incomes[c.ID]
		if !ok {
			continue
		}
		salaries, ok := groups[c.ID]
		if !ok || len(salaries) == 0 {
			continue
		}
		values = append(values, models.CountyValue{
			CountyID: c.ID,
			Value:    median(salaries) - income.MedianIncome,
		})
	}
	return values
}

// HouseholdBaseline returns the median household income the salaries are
// compared against. With no state selected it is the national aggregate; for
// a state it is the arithmetic mean of the state's county medians. The
// second result is false when no income data covers the selection.
func HouseholdBaseline(stateIncome map[string][]models.CountyIncome, state string) (float64, bool) {
	if state == "" || state == models.Any {
		national := stateIncome[models.NationalCode]
		if len(national) == 0 {
			return math.NaN(), false
		}
		return national[0].MedianIncome, true
	}

	entries := stateIncome[strings.ToUpper(state)]
	if len(entries) == 0 {
		return math.NaN(), false
	}
	incomes := make([]float64, len(entries))
	for i, e := range entries {
		incomes[i] = e.MedianIncome
	}
	return stats.Mean(incomes), true
}

// Salaries extracts base salaries in record order.
func Salaries(records []models.SalaryRecord) []float64 {
	xs := make([]float64, len(records))
	for i := range records {
		xs[i] = records[i].BaseSalary
	}
	return xs
}

// Summarize computes the headline statistics of the filtered salaries. All
// statistics are NaN for an empty set.
func Summarize(filtered []models.SalaryRecord) models.Summary {
	if len(filtered) == 0 {
		nan := models.Number(math.NaN())
		return models.Summary{Mean: nan, Median: nan, Min: nan, Max: nan}
	}
	xs := Salaries(filtered)
	lo, hi := stats.Bounds(xs)
	return models.Summary{
		Count:  len(xs),
		Mean:   models.Number(stats.Mean(xs)),
		Median: models.Number(median(xs)),
		Min:    models.Number(lo),
		Max:    models.Number(hi),
	}
}
