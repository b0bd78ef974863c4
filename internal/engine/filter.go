package engine

import (
	"errors"
	"salarymap/internal/models"
	"strconv"
	"strings"
	"sync"
)

// ErrUnknownField is returned for filter field names outside year, jobTitle
// and USstate.
var ErrUnknownField = errors.New("unknown filter field")

// Predicate reports whether a salary record passes a filter.
type Predicate func(r *models.SalaryRecord) bool

func acceptAll(*models.SalaryRecord) bool { return true }

// Field identifies one filterable dimension of a salary record.
type Field int

const (
	FieldYear Field = iota
	FieldJobTitle
	FieldUSstate
)

var fieldNames = [...]string{"year", "jobTitle", "USstate"}

func (f Field) String() string {
	if f < 0 || int(f) >= len(fieldNames) {
		return "Field(" + strconv.Itoa(int(f)) + ")"
	}
	return fieldNames[f]
}

// ParseField accepts the field names used in bookmarks and API paths.
func ParseField(name string) (Field, error) {
	switch strings.ToLower(name) {
	case "year":
		return FieldYear, nil
	case "jobtitle", "job_title", "title":
		return FieldJobTitle, nil
	case "usstate", "state":
		return FieldUSstate, nil
	}
	return 0, ErrUnknownField
}

// Extract returns the comparable value of field f in r.
func (f Field) Extract(r *models.SalaryRecord) string {
	switch f {
	case FieldYear:
		return strconv.Itoa(r.Year())
	case FieldJobTitle:
		return r.JobTitle
	case FieldUSstate:
		return r.USstate
	}
	return ""
}

func yearPredicate(year int) Predicate {
	if year <= 0 {
		return acceptAll
	}
	return func(r *models.SalaryRecord) bool { return r.Year() == year }
}

func jobTitlePredicate(title string) Predicate {
	if title == "" || title == models.Any {
		return acceptAll
	}
	return func(r *models.SalaryRecord) bool { return r.JobTitle == title }
}

func statePredicate(state string) Predicate {
	if state == "" || state == models.Any {
		return acceptAll
	}
	return func(r *models.SalaryRecord) bool { return r.USstate == state }
}

func conjoin(year, title, state Predicate) Predicate {
	return func(r *models.SalaryRecord) bool {
		return year(r) && title(r) && state(r)
	}
}

// PredicateFor builds the combined predicate for a selection.
func PredicateFor(sel models.FilterSelection) Predicate {
	sel = sel.Normalized()
	return conjoin(yearPredicate(sel.Year), jobTitlePredicate(sel.JobTitle), statePredicate(sel.USstate))
}

// Filter returns the records accepted by pred, in input order.
func Filter(records []models.SalaryRecord, pred Predicate) []models.SalaryRecord {
	out := make([]models.SalaryRecord, 0, len(records))
	for i := range records {
		if pred(&records[i]) {
			out = append(out, records[i])
		}
	}
	return out
}

// Update is emitted on every controller change.
type Update struct {
	Predicate Predicate
	Selection models.FilterSelection
}

// Controller owns the three independently selectable filter fields.
type Controller struct {
	mu        sync.Mutex
	sel       models.FilterSelection
	yearPred  Predicate
	titlePred Predicate
	statePred Predicate
	current   Predicate
	listeners []func(Update)
}

// NewController starts with every field unconstrained.
func NewController() *Controller {
	c := &Controller{
		sel:       models.AllSelection(),
		yearPred:  acceptAll,
		titlePred: acceptAll,
		statePred: acceptAll,
	}
	c.current = conjoin(c.yearPred, c.titlePred, c.statePred)
	return c
}

// Subscribe registers fn to receive every update. fn runs on the goroutine
// that made the change, after the controller lock is released.
func (c *Controller) Subscribe(fn func(Update)) {
	c.mu.Lock()
	c.listeners = append(c.listeners, fn)
	c.mu.Unlock()
}

// Current returns the combined predicate and selection.
func (c *Controller) Current() Update {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Update{Predicate: c.current, Selection: c.sel}
}

// Selection returns the current selection snapshot.
func (c *Controller) Selection() models.FilterSelection {
	return c.Current().Selection
}

// SetYear constrains the year field. A zero year resets it.
func (c *Controller) SetYear(year int, reset bool) Update {
	c.mu.Lock()
	c.setYear(year, reset)
	return c.commit()
}

// SetJobTitle constrains the job title field. An empty title resets it.
func (c *Controller) SetJobTitle(title string, reset bool) Update {
	c.mu.Lock()
	c.setJobTitle(title, reset)
	return c.commit()
}

// SetUSstate constrains the state field to an upper-cased state code. An
// empty state resets it.
func (c *Controller) SetUSstate(state string, reset bool) Update {
	c.mu.Lock()
	c.setUSstate(state, reset)
	return c.commit()
}

// SetField is the string-valued form used by toggles and HTTP handlers. A
// year that does not parse as a positive integer resets the field.
func (c *Controller) SetField(f Field, value string, reset bool) (Update, error) {
	c.mu.Lock()
	if err := c.setField(f, value, reset); err != nil {
		c.mu.Unlock()
		return Update{}, err
	}
	return c.commit(), nil
}

// Toggle mimics a toggle button click: picking the value that is already
// selected unselects it.
func (c *Controller) Toggle(f Field, value string) (Update, error) {
	c.mu.Lock()
	var picked string
	switch f {
	case FieldYear:
		picked = c.sel.YearLabel()
	case FieldJobTitle:
		picked = c.sel.JobTitle
	case FieldUSstate:
		picked = c.sel.USstate
		value = strings.ToUpper(value)
	default:
		c.mu.Unlock()
		return Update{}, ErrUnknownField
	}
	if err := c.setField(f, value, picked != models.Any && picked == value); err != nil {
		c.mu.Unlock()
		return Update{}, err
	}
	return c.commit(), nil
}

func (c *Controller) setField(f Field, value string, reset bool) error {
	switch f {
	case FieldYear:
		year, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			year = 0
		}
		c.setYear(year, reset)
	case FieldJobTitle:
		c.setJobTitle(value, reset)
	case FieldUSstate:
		c.setUSstate(value, reset)
	default:
		return ErrUnknownField
	}
	return nil
}

// Apply replaces all three fields at once, as when restoring a bookmark.
// Subscribers see one update carrying the complete selection.
func (c *Controller) Apply(sel models.FilterSelection) Update {
	sel = sel.Normalized()
	c.mu.Lock()
	c.setYear(sel.Year, false)
	c.setJobTitle(sel.JobTitle, false)
	c.setUSstate(sel.USstate, false)
	return c.commit()
}

func (c *Controller) setYear(year int, reset bool) {
	if reset || year <= 0 {
		c.yearPred, c.sel.Year = acceptAll, 0
		return
	}
	c.yearPred, c.sel.Year = yearPredicate(year), year
}

func (c *Controller) setJobTitle(title string, reset bool) {
	if reset || title == "" || title == models.Any {
		c.titlePred, c.sel.JobTitle = acceptAll, models.Any
		return
	}
	c.titlePred, c.sel.JobTitle = jobTitlePredicate(title), title
}

func (c *Controller) setUSstate(state string, reset bool) {
	state = strings.ToUpper(strings.TrimSpace(state))
	if reset || state == "" || state == models.Any {
		c.statePred, c.sel.USstate = acceptAll, models.Any
		return
	}
	c.statePred, c.sel.USstate = statePredicate(state), state
}

// commit must be called with c.mu held; it releases it.
func (c *Controller) commit() Update {
	c.current = conjoin(c.yearPred, c.titlePred, c.statePred)
	u := Update{Predicate: c.current, Selection: c.sel}
	listeners := append([]func(Update){}, c.listeners...)
	c.mu.Unlock()

	filterUpdates.Inc()
	for _, fn := range listeners {
		fn(u)
	}
	return u
}
