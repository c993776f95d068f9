package analysis

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Options controls how tabular files are read.
type Options struct {
	// MaxRows limits rows kept; values <= 0 or above MaxAcceptedRows are clamped
	// to MaxAcceptedRows. Every data row is still counted in Table.TotalRows.
	MaxRows int
	// Delimiter for CSV. If 0, picked from the file extension.
	Delimiter rune
	// Numeric parsing locale. When both are 0, cells parse as plain numbers
	// only ("1234.5", "-3", "1e6").
	DecimalSeparator   rune
	ThousandsSeparator rune
}

// DefaultOptions returns reasonable defaults for reading tabular files.
func DefaultOptions() Options {
	return Options{MaxRows: MaxAcceptedRows}
}

func (o Options) rowLimit() int {
	if o.MaxRows <= 0 || o.MaxRows > MaxAcceptedRows {
		return MaxAcceptedRows
	}
	return o.MaxRows
}

// Table is a typed tabular input ready for profiling.
type Table struct {
	Name      string   `json:"name,omitempty"`
	Headers   []string `json:"headers"`
	Rows      []Row    `json:"data"`
	TotalRows int      `json:"totalRows"`
}

// Bounded returns a copy holding at most MaxAcceptedRows rows. TotalRows
// is never less than the number of rows supplied.
func (t *Table) Bounded() *Table {
	if t == nil {
		return nil
	}
	out := *t
	if out.TotalRows < len(t.Rows) {
		out.TotalRows = len(t.Rows)
	}
	if len(out.Rows) > MaxAcceptedRows {
		out.Rows = out.Rows[:MaxAcceptedRows:MaxAcceptedRows]
	}
	return &out
}

// Profile summarizes the table.
func (t *Table) Profile() *DatasetProfile {
	if t == nil {
		return nil
	}
	return Summarize(t.Headers, t.Rows, t.TotalRows)
}

// LoadCSV reads a CSV/TSV file into a Table.
func LoadCSV(path string, opt Options) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()
	if opt.Delimiter == 0 {
		opt.Delimiter = sniffDelimiter(path)
	}
	return ReadCSV(f, filepath.Base(path), opt)
}

// ReadCSV reads delimited text from r. The first record is the header.
func ReadCSV(r io.Reader, name string, opt Options) (*Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	if opt.Delimiter != 0 {
		cr.Comma = opt.Delimiter
	}

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return &Table{Name: name}, nil
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	t := &Table{Name: name, Headers: cleanHeaders(header)}
	limit := opt.rowLimit()
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", t.TotalRows+2, err)
		}
		t.TotalRows++
		if len(t.Rows) < limit {
			t.Rows = append(t.Rows, typedRow(t.Headers, rec, opt))
		}
	}
	return t, nil
}

// LoadXLSX reads one worksheet of an XLSX workbook into a Table. An empty
// sheet name selects the first sheet.
func LoadXLSX(path, sheet string, opt Options) (*Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}
	if sheet == "" {
		sheet = sheets[0]
	} else if idx, _ := f.GetSheetIndex(sheet); idx < 0 {
		return nil, fmt.Errorf("sheet %q not found (have: %s)", sheet, strings.Join(sheets, ", "))
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}

	name := filepath.Base(path)
	if len(sheets) > 1 {
		name = fmt.Sprintf("%s (sheet: %s)", name, sheet)
	}
	t := &Table{Name: name}
	limit := opt.rowLimit()
	for _, rec := range rows {
		if blankRecord(rec) {
			continue
		}
		if t.Headers == nil {
			t.Headers = cleanHeaders(rec)
			continue
		}
		t.TotalRows++
		if len(t.Rows) < limit {
			t.Rows = append(t.Rows, typedRow(t.Headers, rec, opt))
		}
	}
	return t, nil
}

func sniffDelimiter(path string) rune {
	name := strings.ToLower(path)
	if strings.HasSuffix(name, ".tsv") {
		return '\t'
	}
	// Default to comma; using filename heuristic only to avoid reading twice.
	return ','
}

func cleanHeaders(rec []string) []string {
	out := make([]string, len(rec))
	seen := make(map[string]int, len(rec))
	for i, h := range rec {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if h == "" {
			h = fmt.Sprintf("column_%d", i+1)
		}
		if n := seen[h]; n > 0 {
			seen[h] = n + 1
			h = fmt.Sprintf("%s_%d", h, n+1)
		} else {
			seen[h] = 1
		}
		out[i] = h
	}
	return out
}

func blankRecord(rec []string) bool {
	for _, c := range rec {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// typedRow converts raw cells. Cells beyond the header are dropped; missing
// trailing cells stay absent and read as null.
func typedRow(headers []string, rec []string, opt Options) Row {
	row := make(Row, len(headers))
	for i, h := range headers {
		if i >= len(rec) {
			break
		}
		row[h] = typedCell(rec[i], opt)
	}
	return row
}

// typedCell applies dynamic typing: empty -> null, true/false -> bool,
// numeric text -> number, anything else stays a string.
func typedCell(s string, opt Options) Value {
	raw := strings.TrimSpace(s)
	if raw == "" {
		return NullValue()
	}
	switch strings.ToLower(raw) {
	case "true":
		return BoolValue(true)
	case "false":
		return BoolValue(false)
	}
	if f, ok := parseNumeric(raw, opt); ok {
		return NumberValue(f)
	}
	return StringValue(s)
}

func parseNumeric(raw string, opt Options) (float64, bool) {
	dec, thou := opt.DecimalSeparator, opt.ThousandsSeparator
	if dec != 0 || thou != 0 {
		raw = strings.ReplaceAll(raw, "\u00a0", " ")
		if thou != 0 && thou != dec {
			raw = strings.ReplaceAll(raw, string(thou), "")
		}
		if dec != 0 && dec != '.' {
			raw = strings.ReplaceAll(raw, string(dec), ".")
		}
	}
	// ParseFloat accepts "NaN", "Inf" and hex floats; none of those are data
	if strings.ContainsAny(raw, "xXnN") || strings.Contains(strings.ToLower(raw), "inf") {
		return 0, false
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, false
	}
	return f, true
}
