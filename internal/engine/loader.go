package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"salarymap/internal/geo"
	"salarymap/internal/models"
	"strings"
	"time"

	"github.com/apache/arrow/go/v18/arrow"
	"github.com/apache/arrow/go/v18/arrow/array"
	"github.com/apache/arrow/go/v18/arrow/csv"
	"github.com/apache/arrow/go/v18/arrow/memory"
	"github.com/goccy/go-json"
	"github.com/labstack/gommon/log"
	"golang.org/x/sync/errgroup"
)

// ErrBadSchema is returned when an input file's columns don't match what the
// loader expects.
var ErrBadSchema = errors.New("unexpected input schema")

// Paths locates the three startup inputs. Geography is optional.
type Paths struct {
	Salaries  string
	Incomes   string
	Geography string
}

// salarySchema is the column layout of the salaries CSV.
var salarySchema = arrow.NewSchema([]arrow.Field{
	{Name: "submit_date", Type: arrow.BinaryTypes.String, Nullable: true},
	{Name: "clean_job_title", Type: arrow.BinaryTypes.String, Nullable: true},
	{Name: "base_salary", Type: arrow.PrimitiveTypes.Float64, Nullable: true},
	{Name: "USstate", Type: arrow.BinaryTypes.String, Nullable: true},
	{Name: "countyID", Type: arrow.PrimitiveTypes.Int64, Nullable: true},
}, nil)

var dateLayouts = []string{"2006-01-02", "1/2/2006", "01/02/2006", "2006-01-02 15:04:05", "1/2/2006 15:04"}

func parseSubmitDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// LoadDataset reads all inputs concurrently and indexes them.
func LoadDataset(ctx context.Context, p Paths) (*Dataset, error) {
	start := time.Now()
	log.Infof("loading dataset (salaries=%s incomes=%s geography=%s)", p.Salaries, p.Incomes, p.Geography)

	var (
		salaries []models.SalaryRecord
		incomes  []models.CountyIncome
		atlas    *geo.Atlas
	)
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		salaries, err = loadFile(p.Salaries, func(r io.Reader) ([]models.SalaryRecord, error) {
			return ReadSalaries(ctx, r)
		})
		return err
	})
	g.Go(func() error {
		var err error
		incomes, err = loadFile(p.Incomes, ReadIncomes)
		return err
	})
	if p.Geography != "" {
		g.Go(func() error {
			var err error
			atlas, err = loadFile(p.Geography, geo.LoadAtlas)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	ds := NewDataset(salaries, incomes, atlas)
	loadedRecords.WithLabelValues("salaries").Set(float64(len(ds.Salaries)))
	loadedRecords.WithLabelValues("counties").Set(float64(len(ds.Counties)))
	loadedRecords.WithLabelValues("states").Set(float64(atlas.Len()))

	if _, ok := ds.StateIncome[models.NationalCode]; !ok {
		log.Warnf("income data has no %q entry; national baseline unavailable", models.NationalCode)
	}
	log.Infof("load complete: %d salaries, %d counties, %d states in %v",
		len(ds.Salaries), len(ds.Counties), atlas.Len(), time.Since(start))
	return ds, nil
}

func loadFile[T any](path string, read func(io.Reader) (T, error)) (T, error) {
	var zero T
	f, err := os.Open(path)
	if err != nil {
		return zero, err
	}
	defer f.Close()
	v, err := read(f)
	if err != nil {
		return zero, fmt.Errorf("%s: %w", path, err)
	}
	return v, nil
}

// ReadSalaries decodes the salaries CSV. The header row is required; rows
// with missing fields or an unparseable submit date are skipped.
func ReadSalaries(ctx context.Context, r io.Reader) ([]models.SalaryRecord, error) {
	rd := csv.NewReader(r, salarySchema,
		csv.WithHeader(true),
		csv.WithChunk(8192),
		csv.WithAllocator(memory.DefaultAllocator),
		csv.WithNullReader(true, ""),
	)
	defer rd.Release()

	var out []models.SalaryRecord
	skipped := 0
	for rd.Next() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rec := rd.Record()
		dates, ok1 := rec.Column(0).(*array.String)
		titles, ok2 := rec.Column(1).(*array.String)
		pay, ok3 := rec.Column(2).(*array.Float64)
		states, ok4 := rec.Column(3).(*array.String)
		counties, ok5 := rec.Column(4).(*array.Int64)
		if !ok1 || !ok2 || !ok3 || !ok4 || !ok5 {
			return nil, ErrBadSchema
		}

		for i := 0; i < int(rec.NumRows()); i++ {
			if dates.IsNull(i) || titles.IsNull(i) || pay.IsNull(i) || states.IsNull(i) || counties.IsNull(i) {
				skipped++
				continue
			}
			date, ok := parseSubmitDate(dates.Value(i))
			if !ok {
				skipped++
				continue
			}
			out = append(out, models.SalaryRecord{
				CountyID:   int(counties.Value(i)),
				USstate:    strings.Clone(strings.ToUpper(strings.TrimSpace(states.Value(i)))),
				JobTitle:   strings.Clone(strings.TrimSpace(titles.Value(i))),
				BaseSalary: pay.Value(i),
				SubmitDate: date,
			})
		}
	}
	if err := rd.Err(); err != nil {
		return nil, fmt.Errorf("read salaries: %w", err)
	}
	if skipped > 0 {
		skippedRows.Add(float64(skipped))
		log.Warnf("skipped %d salary rows with missing or malformed fields", skipped)
	}
	return out, nil
}

// ReadIncomes decodes a JSON array of county median household incomes. One
// entry with USstate "US" carries the national median.
func ReadIncomes(r io.Reader) ([]models.CountyIncome, error) {
	var incomes []models.CountyIncome
	if err := json.NewDecoder(r).Decode(&incomes); err != nil {
		return nil, fmt.Errorf("decode incomes: %w", err)
	}
	return incomes, nil
}
