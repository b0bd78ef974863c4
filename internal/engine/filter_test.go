package engine

import (
	"salarymap/internal/models"
	"sync"
	"testing"
)

func TestPredicateFor(t *testing.T) {
	ds := fixture()

	cases := []struct {
		name string
		sel  models.FilterSelection
		want int
	}{
		{"all", models.AllSelection(), 5},
		{"year", models.FilterSelection{Year: 2013}, 4},
		{"state", models.FilterSelection{USstate: "CA"}, 4},
		{"title", models.FilterSelection{JobTitle: "engineer"}, 4},
		{"year and state", models.FilterSelection{Year: 2013, USstate: "CA", JobTitle: models.Any}, 3},
		{"no match", models.FilterSelection{Year: 2014, JobTitle: "engineer"}, 0},
	}
	for _, tc := range cases {
		got := Filter(ds.Salaries, PredicateFor(tc.sel))
		if len(got) != tc.want {
			t.Errorf("%s: expected %d records, got %d", tc.name, tc.want, len(got))
		}
	}
}

func TestParseField(t *testing.T) {
	for name, want := range map[string]Field{
		"year":     FieldYear,
		"jobTitle": FieldJobTitle,
		"title":    FieldJobTitle,
		"USstate":  FieldUSstate,
		"state":    FieldUSstate,
	} {
		got, err := ParseField(name)
		if err != nil || got != want {
			t.Errorf("ParseField(%q): expected %v, got %v (%v)", name, want, got, err)
		}
	}
	if _, err := ParseField("county"); err != ErrUnknownField {
		t.Errorf("Expected ErrUnknownField, got %v", err)
	}
}

func TestControllerUpdates(t *testing.T) {
	// 1. Setup
	c := NewController()
	var seen []models.FilterSelection
	c.Subscribe(func(u Update) { seen = append(seen, u.Selection) })

	// 2. Set each field in turn
	c.SetYear(2013, false)
	c.SetUSstate("CA", false)
	u := c.SetJobTitle("engineer", false)

	// 3. Assertions
	if len(seen) != 3 {
		t.Fatalf("Expected 3 updates, got %d", len(seen))
	}
	want := models.FilterSelection{Year: 2013, USstate: "CA", JobTitle: "engineer"}
	if u.Selection != want {
		t.Errorf("Expected selection %+v, got %+v", want, u.Selection)
	}
	if got := Filter(fixture().Salaries, u.Predicate); len(got) != 3 {
		t.Errorf("Expected 3 matching records, got %d", len(got))
	}

	// Resetting one field leaves the others alone.
	u = c.SetUSstate("NY", true)
	if u.Selection.USstate != models.Any || u.Selection.Year != 2013 {
		t.Errorf("Reset state: got %+v", u.Selection)
	}
}

func TestControllerToggle(t *testing.T) {
	c := NewController()

	u, err := c.Toggle(FieldYear, "2014")
	if err != nil {
		t.Fatal(err)
	}
	if u.Selection.Year != 2014 {
		t.Errorf("Expected year 2014, got %d", u.Selection.Year)
	}

	// Toggling a different value switches to it.
	u, _ = c.Toggle(FieldYear, "2013")
	if u.Selection.Year != 2013 {
		t.Errorf("Expected year 2013, got %d", u.Selection.Year)
	}

	// Toggling the selected value clears it.
	u, _ = c.Toggle(FieldYear, "2013")
	if !u.Selection.AnyYear() {
		t.Errorf("Expected year reset, got %d", u.Selection.Year)
	}

	u, _ = c.Toggle(FieldJobTitle, "manager")
	u, _ = c.Toggle(FieldJobTitle, "manager")
	if u.Selection.JobTitle != models.Any {
		t.Errorf("Expected job title reset, got %q", u.Selection.JobTitle)
	}

	if _, err := c.Toggle(Field(9), "x"); err != ErrUnknownField {
		t.Errorf("Expected ErrUnknownField, got %v", err)
	}
}

func TestControllerApply(t *testing.T) {
	c := NewController()
	calls := 0
	c.Subscribe(func(Update) { calls++ })

	u := c.Apply(models.FilterSelection{Year: 2013, USstate: "CA"})
	if calls != 1 {
		t.Errorf("Expected a single update, got %d", calls)
	}
	want := models.FilterSelection{Year: 2013, USstate: "CA", JobTitle: models.Any}
	if u.Selection != want || c.Selection() != want {
		t.Errorf("Expected %+v, got %+v", want, u.Selection)
	}

	// A year that doesn't parse resets the field.
	u, err := c.SetField(FieldYear, "soon", false)
	if err != nil || !u.Selection.AnyYear() {
		t.Errorf("Expected year reset, got %+v (%v)", u.Selection, err)
	}
}

func TestControllerStateCase(t *testing.T) {
	// 1. Setup
	ds := fixture()
	c := NewController()

	// 2. A lower-case state code is stored upper-cased
	u, err := c.SetField(FieldUSstate, "ca", false)
	if err != nil {
		t.Fatal(err)
	}
	if u.Selection.USstate != "CA" {
		t.Fatalf("Expected state CA, got %q", u.Selection.USstate)
	}

	// 3. Filter, baseline and token agree
	if got := Filter(ds.Salaries, u.Predicate); len(got) != 4 {
		t.Errorf("Expected 4 CA records, got %d", len(got))
	}
	view := ds.Recompute(u.Selection, DefaultOptions())
	if view.Token != "*-CA-*" || view.Summary.Count != 4 || float64(view.Household) != 70000 {
		t.Errorf("Unexpected view: token %q count %d household %v", view.Token, view.Summary.Count, float64(view.Household))
	}

	// Toggling the same state in another case clears it.
	u, _ = c.Toggle(FieldUSstate, "Ca")
	if u.Selection.USstate != models.Any {
		t.Errorf("Expected state reset, got %q", u.Selection.USstate)
	}

	// Recompute normalizes selections it is handed directly.
	view = ds.Recompute(models.FilterSelection{USstate: "ny"}, DefaultOptions())
	if view.Summary.Count != 1 || view.Token != "*-NY-*" {
		t.Errorf("Expected 1 NY record, got %d (%q)", view.Summary.Count, view.Token)
	}
}

func TestControllerConcurrentToggle(t *testing.T) {
	c := NewController()
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Toggle(FieldJobTitle, "engineer")
		}()
	}
	wg.Wait()

	// An even number of toggles of the same value leaves it unselected.
	if got := c.Selection().JobTitle; got != models.Any {
		t.Errorf("Expected job title reset after 100 toggles, got %q", got)
	}
}
