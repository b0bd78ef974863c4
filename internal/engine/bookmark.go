package engine

import (
	"net/url"
	"salarymap/internal/geo"
	"salarymap/internal/models"
	"strconv"
	"strings"
)

// Vocab decides whether a decoded bookmark value is recognized. A nil Vocab
// accepts any syntactically valid value.
type Vocab interface {
	Knows(f Field, value string) bool
}

// EncodeSelection renders sel as a "year-state-jobTitle" bookmark token.
func EncodeSelection(sel models.FilterSelection) string {
	sel = sel.Normalized()
	title := sel.JobTitle
	if title != models.Any {
		title = url.PathEscape(title)
	}
	return strings.Join([]string{sel.YearLabel(), sel.USstate, title}, "-")
}

// DecodeSelection parses a bookmark token. It never fails: a missing,
// malformed or unrecognized segment leaves that field unconstrained.
func DecodeSelection(token string, vocab Vocab) models.FilterSelection {
	sel := models.AllSelection()
	token = strings.TrimPrefix(strings.TrimSpace(token), "#")
	if token == "" {
		return sel
	}
	parts := strings.SplitN(token, "-", 3)

	if year, err := strconv.Atoi(parts[0]); err == nil && year > 0 && known(vocab, FieldYear, parts[0]) {
		sel.Year = year
	}
	if len(parts) > 1 {
		if state := strings.ToUpper(parts[1]); geo.IsState(state) && known(vocab, FieldUSstate, state) {
			sel.USstate = state
		}
	}
	if len(parts) > 2 {
		title, err := url.PathUnescape(parts[2])
		if err == nil && title != "" && title != models.Any && known(vocab, FieldJobTitle, title) {
			sel.JobTitle = title
		}
	}
	return sel
}

func known(v Vocab, f Field, value string) bool {
	return v == nil || v.Knows(f, value)
}
