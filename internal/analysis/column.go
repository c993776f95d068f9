package analysis

import (
	"fmt"
	"math"
	"strings"
)

// ColumnKind classifies a column as numeric or categorical.
type ColumnKind uint8

const (
	Categorical ColumnKind = iota
	Numeric
)

func (k ColumnKind) String() string {
	if k == Numeric {
		return "numeric"
	}
	return "categorical"
}

const (
	// examples are picked from this many leading non-null values
	categoricalScanLimit = 10
	// MaxSampleValues bounds the distinct examples kept per categorical column.
	MaxSampleValues = 5
)

// NumericStats holds min/max/mean over the numeric cells of a column, each
// rounded to two decimals.
type NumericStats struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
	Avg float64 `json:"avg"`
}

// ColumnProfile describes one column. Stats is set only for numeric columns;
// Samples only for categorical ones.
type ColumnProfile struct {
	Name    string        `json:"name"`
	Kind    ColumnKind    `json:"-"`
	Stats   *NumericStats `json:"stats,omitempty"`
	Samples []Value       `json:"samples,omitempty"`
}

// Describe renders the profile as one line of the analysis context, e.g.
// "revenue: numeric (min: 100.00, max: 200.00, avg: 150.00)".
func (p ColumnProfile) Describe() string {
	if p.Kind == Numeric && p.Stats != nil {
		return fmt.Sprintf("%s: numeric (min: %.2f, max: %.2f, avg: %.2f)", p.Name, p.Stats.Min, p.Stats.Max, p.Stats.Avg)
	}
	parts := make([]string, len(p.Samples))
	for i, s := range p.Samples {
		parts[i] = s.String()
	}
	return fmt.Sprintf("%s: categorical (examples: %s)", p.Name, strings.Join(parts, ", "))
}

// ProfileColumn classifies a column and computes its stats or examples.
// Null cells, including keys missing from a row, are ignored. A column is
// numeric when strictly more than half of its non-null cells are numbers.
func ProfileColumn(name string, rows []Row) ColumnProfile {
	var nonNull []Value
	for _, r := range rows {
		v, ok := r[name]
		if !ok || v.IsNull() {
			continue
		}
		nonNull = append(nonNull, v)
	}

	var nums []float64
	for _, v := range nonNull {
		if f, ok := v.Number(); ok && !math.IsNaN(f) && !math.IsInf(f, 0) {
			nums = append(nums, f)
		}
	}

	prof := ColumnProfile{Name: name}
	if len(nums) > 0 && 2*len(nums) > len(nonNull) {
		prof.Kind = Numeric
		prof.Stats = numericStats(nums)
		return prof
	}

	prof.Kind = Categorical
	scan := nonNull
	if len(scan) > categoricalScanLimit {
		scan = scan[:categoricalScanLimit]
	}
	seen := make(map[Value]struct{}, len(scan))
	for _, v := range scan {
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		prof.Samples = append(prof.Samples, v)
		if len(prof.Samples) == MaxSampleValues {
			break
		}
	}
	return prof
}

func numericStats(nums []float64) *NumericStats {
	lo, hi := math.Inf(1), math.Inf(-1)
	var sum float64
	for _, x := range nums {
		if x < lo {
			lo = x
		}
		if x > hi {
			hi = x
		}
		sum += x
	}
	return &NumericStats{
		Min: round2(lo),
		Max: round2(hi),
		Avg: round2(sum / float64(len(nums))),
	}
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}
