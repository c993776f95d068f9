package response

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/BitCodeHub/analytics-storyteller/internal/apperrors"
)

// Ceilings applied to a parsed result.
const (
	MaxInsights        = 7
	MaxRecommendations = 5
	MaxChartLabels     = 10
)

var compiledSchema = mustCompile(resultSchema)

func mustCompile(schema map[string]any) *gojsonschema.Schema {
	s, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(schema))
	if err != nil {
		panic(fmt.Sprintf("response: compile result schema: %v", err))
	}
	return s
}

// Extract locates the first top-level JSON object in text, validates it and
// applies the size ceilings. Failures wrap apperrors.ErrNoJSONFound,
// apperrors.ErrInvalidJSON or apperrors.ErrSchemaViolation.
func Extract(text string) (*AnalysisResult, error) {
	span, err := FindObject(text)
	if err != nil {
		return nil, err
	}

	var doc any
	if err := json.Unmarshal([]byte(span), &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrInvalidJSON, err)
	}
	result, err := compiledSchema.Validate(gojsonschema.NewGoLoader(doc))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrSchemaViolation, err)
	}
	if !result.Valid() {
		errs := make([]string, len(result.Errors()))
		for i, desc := range result.Errors() {
			errs[i] = desc.String()
		}
		return nil, fmt.Errorf("%w: %s", apperrors.ErrSchemaViolation, strings.Join(errs, "; "))
	}

	var out AnalysisResult
	if err := json.Unmarshal([]byte(span), &out); err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrSchemaViolation, err)
	}
	if err := out.normalize(); err != nil {
		return nil, err
	}
	return &out, nil
}

// FindObject returns the first top-level balanced {...} span in text that
// is valid JSON. Braces inside JSON strings are ignored while scanning, and
// objects nested inside a span that fails to parse are never considered. It returns
// apperrors.ErrNoJSONFound when no balanced span exists and
// apperrors.ErrInvalidJSON when balanced spans exist but none parse.
func FindObject(text string) (string, error) {
	var firstErr error
	pos := 0
	for pos < len(text) {
		i := strings.IndexByte(text[pos:], '{')
		if i < 0 {
			break
		}
		start := pos + i
		end, ok := matchBrace(text, start)
		if !ok {
			pos = start + 1
			continue
		}
		span := text[start : end+1]
		var raw json.RawMessage
		err := json.Unmarshal([]byte(span), &raw)
		if err == nil {
			return span, nil
		}
		if firstErr == nil {
			firstErr = err
		}
		pos = end + 1
	}
	if firstErr != nil {
		return "", fmt.Errorf("%w: %v", apperrors.ErrInvalidJSON, firstErr)
	}
	return "", apperrors.ErrNoJSONFound
}

// matchBrace returns the index of the brace closing the one at start.
func matchBrace(s string, start int) (int, bool) {
	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(s); i++ {
		c := s[i]

		if escaped {
			escaped = false
			continue
		}
		if c == '\\' && inString {
			escaped = true
			continue
		}
		if c == '"' {
			inString = !inString
			continue
		}
		if inString {
			continue
		}

		switch c {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i, true
			}
		}
	}
	return 0, false
}

// normalize caps list sizes and checks chart alignment. A result already
// within every ceiling is left unchanged.
func (r *AnalysisResult) normalize() error {
	if strings.TrimSpace(r.Story) == "" {
		return fmt.Errorf("%w: story is empty", apperrors.ErrSchemaViolation)
	}
	if r.Insights == nil {
		r.Insights = []string{}
	}
	if r.Recommendations == nil {
		r.Recommendations = []string{}
	}
	if len(r.Insights) > MaxInsights {
		r.Insights = r.Insights[:MaxInsights]
	}
	if len(r.Recommendations) > MaxRecommendations {
		r.Recommendations = r.Recommendations[:MaxRecommendations]
	}

	cd := r.ChartData
	if cd == nil {
		return nil
	}
	if len(cd.Labels) > MaxChartLabels {
		cd.Labels = cd.Labels[:MaxChartLabels]
	}
	for i := range cd.Datasets {
		ds := &cd.Datasets[i]
		if len(ds.Data) > MaxChartLabels {
			ds.Data = ds.Data[:MaxChartLabels]
		}
		if len(ds.Data) != len(cd.Labels) {
			return fmt.Errorf("%w: chart dataset %q has %d values for %d labels",
				apperrors.ErrSchemaViolation, ds.Label, len(ds.Data), len(cd.Labels))
		}
	}
	return nil
}
