package ingest

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/treeshoptech/treeshop-app-sub001/internal/model"
)

// Row is one parsed line of an actuals file.
type Row struct {
	Line   int             `json:"line"`
	JobID  string          `json:"job_id"`
	Actual model.JobActual `json:"actual"`
}

// RowError reports a line that could not be parsed.
type RowError struct {
	Line int
	Err  error
}

func (e RowError) Error() string {
	return "line " + strconv.Itoa(e.Line) + ": " + e.Err.Error()
}

func (e RowError) Unwrap() error { return e.Err }

// Result holds the parsed rows and the lines that were rejected.
type Result struct {
	Rows   []Row
	Errors []RowError
}

// Options controls ReadFile.
type Options struct {
	CSV  CSVOptions
	XLSX XLSXOptions
	// Now fills completed_at when the column is missing or blank.
	Now time.Time
}

// Required columns. Every other column is optional and defaults to zero.
var requiredColumns = []string{"job_id", "production_hours"}

// columnAliases maps spreadsheet headings to canonical column names.
var columnAliases = map[string]string{
	"job":             "job_id",
	"id":              "job_id",
	"units":           "units_completed",
	"hours":           "production_hours",
	"prod_hours":      "production_hours",
	"drive_hours":     "transport_hours",
	"travel_hours":    "transport_hours",
	"labor":           "labor_cost",
	"equipment":       "equipment_cost",
	"overhead":        "overhead_cost",
	"invoice_total":   "revenue",
	"invoiced":        "revenue",
	"completed":       "completed_at",
	"completion_date": "completed_at",
	"rework":          "rework_required",
	"incidents":       "safety_incidents",
	"satisfaction":    "customer_satisfaction",
}

// ReadFile parses the actuals in path. The format follows the extension:
// .csv, .tsv, or .xlsx.
func ReadFile(ctx context.Context, path string, opts Options) (*Result, error) {
	var (
		rows <-chan []string
		errs <-chan error
	)
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".csv", ".tsv":
		f, err := os.Open(path)
		if err != nil {
			return nil, eris.Wrapf(err, "ingest: open %s", path)
		}
		defer f.Close() //nolint:errcheck
		co := opts.CSV
		if ext == ".tsv" && co.Delimiter == 0 {
			co.Delimiter = '\t'
		}
		rows, errs = StreamCSV(ctx, f, co)
	case ".xlsx":
		rows, errs = StreamXLSX(ctx, path, opts.XLSX)
	default:
		return nil, eris.Errorf("ingest: unsupported file type %q", ext)
	}

	res, err := Parse(rows, opts.Now)
	if streamErr := <-errs; streamErr != nil {
		return nil, streamErr
	}
	if err != nil {
		return nil, err
	}

	zap.L().Info("ingest: read actuals",
		zap.String("path", path),
		zap.Int("rows", len(res.Rows)),
		zap.Int("rejected", len(res.Errors)),
	)
	return res, nil
}

// Parse consumes rows, the first of which is the header. Lines with
// unparseable values are collected in Result.Errors rather than aborting.
func Parse(rows <-chan []string, now time.Time) (*Result, error) {
	header, ok := <-rows
	if !ok {
		return nil, eris.New("ingest: empty file")
	}
	cols, err := indexColumns(header)
	if err != nil {
		// Drain so the producer can exit.
		for range rows {
		}
		return nil, err
	}

	res := &Result{}
	line := 1
	for rec := range rows {
		line++
		if blank(rec) {
			continue
		}
		row, err := parseRow(cols, rec, now)
		if err != nil {
			res.Errors = append(res.Errors, RowError{Line: line, Err: err})
			continue
		}
		row.Line = line
		res.Rows = append(res.Rows, row)
	}
	return res, nil
}

func normalizeHeader(h string) string {
	h = strings.ToLower(strings.TrimSpace(h))
	h = strings.TrimPrefix(h, "\ufeff")
	h = strings.NewReplacer(" ", "_", "-", "_", "($)", "", "(hrs)", "").Replace(h)
	h = strings.Trim(h, "_")
	if canon, ok := columnAliases[h]; ok {
		return canon
	}
	return h
}

func indexColumns(header []string) (map[string]int, error) {
	cols := make(map[string]int, len(header))
	for i, h := range header {
		name := normalizeHeader(h)
		if name == "" {
			continue
		}
		if _, dup := cols[name]; dup {
			return nil, eris.Errorf("ingest: duplicate column %q", name)
		}
		cols[name] = i
	}
	for _, req := range requiredColumns {
		if _, ok := cols[req]; !ok {
			return nil, eris.Errorf("ingest: missing required column %q", req)
		}
	}
	return cols, nil
}

func blank(rec []string) bool {
	for _, f := range rec {
		if f != "" {
			return false
		}
	}
	return true
}

type rowReader struct {
	cols map[string]int
	rec  []string
	err  error
}

func (r *rowReader) str(name string) string {
	i, ok := r.cols[name]
	if !ok || i >= len(r.rec) {
		return ""
	}
	return r.rec[i]
}

func (r *rowReader) num(name string) float64 {
	s := r.str(name)
	if s == "" || r.err != nil {
		return 0
	}
	s = strings.NewReplacer("$", "", ",", "").Replace(s)
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		r.err = eris.Errorf("%s: %q is not a number", name, r.str(name))
		return 0
	}
	if v < 0 {
		r.err = eris.Wrapf(model.ErrInvalidConfiguration, "%s: %v is negative", name, v)
		return 0
	}
	return v
}

func (r *rowReader) integer(name string) int {
	s := r.str(name)
	if s == "" || r.err != nil {
		return 0
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		r.err = eris.Errorf("%s: %q is not an integer", name, s)
	}
	return v
}

func (r *rowReader) flag(name string) bool {
	switch strings.ToLower(r.str(name)) {
	case "", "0", "n", "no", "false":
		return false
	case "1", "y", "yes", "true", "x":
		return true
	default:
		if r.err == nil {
			r.err = eris.Errorf("%s: %q is not yes/no", name, r.str(name))
		}
		return false
	}
}

var timeLayouts = []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02", "1/2/2006", "01/02/2006"}

func (r *rowReader) when(name string, fallback time.Time) time.Time {
	s := r.str(name)
	if s == "" || r.err != nil {
		return fallback
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	r.err = eris.Errorf("%s: %q is not a date", name, s)
	return fallback
}

func parseRow(cols map[string]int, rec []string, now time.Time) (Row, error) {
	r := &rowReader{cols: cols, rec: rec}
	id := r.str("job_id")
	if id == "" {
		return Row{}, eris.New("job_id is blank")
	}

	a := model.JobActual{
		UnitsCompleted:  r.num("units_completed"),
		ProductionHours: r.num("production_hours"),
		TransportHours:  r.num("transport_hours"),
		BufferHours:     r.num("buffer_hours"),
		LaborCost:       r.num("labor_cost"),
		EquipmentCost:   r.num("equipment_cost"),
		OverheadCost:    r.num("overhead_cost"),
		Revenue:         r.num("revenue"),
		Conditions: model.SiteConditions{
			Weather:          r.str("weather"),
			AccessDifficulty: r.str("access_difficulty"),
			GroundCondition:  r.str("ground_condition"),
		},
		Quality: model.QualityFlags{
			ReworkRequired:       r.flag("rework_required"),
			SafetyIncidents:      r.integer("safety_incidents"),
			CustomerSatisfaction: r.integer("customer_satisfaction"),
		},
		CompletedAt: r.when("completed_at", now),
	}
	if r.err != nil {
		return Row{}, r.err
	}
	if a.Quality.CustomerSatisfaction < 0 || a.Quality.CustomerSatisfaction > 5 {
		return Row{}, eris.Errorf("customer_satisfaction: %d is outside 1-5", a.Quality.CustomerSatisfaction)
	}
	return Row{JobID: id, Actual: a}, nil
}
