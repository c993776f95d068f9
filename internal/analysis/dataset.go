package analysis

import (
	"bytes"
	"encoding/json"
	"fmt"
)

const (
	// MaxAcceptedRows is the most rows any tabular source hands to the pipeline.
	MaxAcceptedRows = 100
	// MaxSampleRows is the most rows reproduced verbatim in the analysis context.
	MaxSampleRows = 50
)

// DatasetProfile summarizes a tabular input: one profile per header in order,
// the declared row count, and a verbatim sample of leading rows.
type DatasetProfile struct {
	Headers   []string        `json:"headers"`
	Columns   []ColumnProfile `json:"columns"`
	TotalRows int             `json:"totalRows"`
	Sample    []Row           `json:"sample"`
}

// Empty reports whether the profile carries nothing worth rendering.
func (p *DatasetProfile) Empty() bool {
	return p == nil || len(p.Columns) == 0
}

// Summarize profiles every header over all supplied rows and keeps the first
// MaxSampleRows rows as the sample. totalRows is carried as declared, which
// may exceed len(rows) when the caller truncated its input.
func Summarize(headers []string, rows []Row, totalRows int) *DatasetProfile {
	prof := &DatasetProfile{TotalRows: totalRows}
	if len(headers) == 0 || len(rows) == 0 {
		prof.Columns = []ColumnProfile{}
		prof.Sample = []Row{}
		return prof
	}
	prof.Headers = append([]string(nil), headers...)
	prof.Columns = make([]ColumnProfile, 0, len(headers))
	for _, h := range headers {
		prof.Columns = append(prof.Columns, ProfileColumn(h, rows))
	}
	n := len(rows)
	if n > MaxSampleRows {
		n = MaxSampleRows
	}
	prof.Sample = rows[:n:n]
	return prof
}

// SampleJSON renders the sample as indented JSON. Object keys follow header
// order, and a header missing from a row is omitted from that row.
func (p *DatasetProfile) SampleJSON() (string, error) {
	var buf bytes.Buffer
	if len(p.Sample) == 0 {
		return "[]", nil
	}
	buf.WriteString("[\n")
	for i, row := range p.Sample {
		buf.WriteString("  {")
		first := true
		for _, h := range p.Headers {
			v, ok := row[h]
			if !ok {
				continue
			}
			key, err := json.Marshal(h)
			if err != nil {
				return "", fmt.Errorf("encode column name: %w", err)
			}
			val, err := json.Marshal(v)
			if err != nil {
				return "", fmt.Errorf("encode cell %q: %w", h, err)
			}
			if !first {
				buf.WriteByte(',')
			}
			first = false
			buf.WriteString("\n    ")
			buf.Write(key)
			buf.WriteString(": ")
			buf.Write(val)
		}
		if !first {
			buf.WriteString("\n  ")
		}
		buf.WriteByte('}')
		if i < len(p.Sample)-1 {
			buf.WriteByte(',')
		}
		buf.WriteByte('\n')
	}
	buf.WriteByte(']')
	return buf.String(), nil
}
