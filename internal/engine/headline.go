package engine

import (
	"math"
	"salarymap/internal/geo"
	"salarymap/internal/models"
	"strconv"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

// FormatThousands renders v rounded to whole units with comma grouping.
func FormatThousands(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return ""
	}
	return printer.Sprintf("%d", int64(math.Round(v)))
}

// Headline builds the dashboard title for a selection, e.g.
// "In California, software engineers on an H1B made $105,000/year in 2014".
func Headline(sel models.FilterSelection, s models.Summary) string {
	sel = sel.Normalized()
	if s.Count == 0 || !s.Mean.Valid() {
		return "No data for this selection"
	}

	subject := jobTitleFragment(sel)
	mean := "$" + FormatThousands(float64(s.Mean)) + "/year"

	var years string
	if !sel.AnyYear() {
		years = " in " + strconv.Itoa(sel.Year)
	}
	state, hasState := "", false
	if !sel.AnyUSstate() {
		state, hasState = geo.StateName(sel.USstate)
		if !hasState {
			state, hasState = sel.USstate, true
		}
	}

	if hasState && !sel.AnyYear() {
		return "In " + state + ", " + lowerFirst(subject) + " " + mean + years
	}
	if hasState {
		return subject + " " + mean + " in " + state
	}
	return subject + " " + mean + years
}

func jobTitleFragment(sel models.FilterSelection) string {
	if sel.AnyJobTitle() {
		if sel.AnyYear() {
			return "The average H1B in tech pays"
		}
		return "The average tech H1B paid"
	}
	title := "Software " + sel.JobTitle + "s on an H1B"
	if sel.AnyYear() {
		return title + " make"
	}
	return title + " made"
}

func lowerFirst(s string) string {
	if s == "" || s[0] < 'A' || s[0] > 'Z' {
		return s
	}
	return string(s[0]+'a'-'A') + s[1:]
}
