// Package prompt assembles the instruction sent to the language model.
package prompt

import (
	"errors"
	"strings"
)

const preamble = `You are an expert data analyst and storyteller working for an enterprise company. Analyze all the provided data sources and create a comprehensive, compelling narrative.
`

const instructions = `
YOUR TASK:
1. Analyze ALL data sources thoroughly (GA4 analytics, spreadsheets, and any uploaded documents)
2. Cross-reference insights across different data sources when possible
3. Write a compelling 3-4 paragraph executive narrative that tells the complete story. Use vivid language, specific numbers, and make it engaging for C-level executives.
4. Identify 5-7 key insights (specific, data-driven findings from all sources), never more than 7
5. Provide 3-5 actionable recommendations based on the combined data, never more than 5
6. Suggest the best chart visualization to highlight key metrics

RESPOND IN THIS EXACT JSON FORMAT:
{
  "story": "Your 3-4 paragraph executive narrative here. Include specific numbers and percentages. Reference data from all available sources...",
  "insights": [
    "Insight 1 with specific numbers from GA4 or spreadsheet",
    "Insight 2 highlighting a trend or pattern",
    "Insight 3 cross-referencing multiple data sources",
    "Insight 4 about user behavior or performance",
    "Insight 5 about opportunities or concerns"
  ],
  "recommendations": [
    "Strategic recommendation 1 with expected impact",
    "Tactical recommendation 2 for immediate action",
    "Long-term recommendation 3 for growth"
  ],
  "chartData": {
    "labels": ["Label1", "Label2", "Label3", "Label4", "Label5"],
    "datasets": [
      {
        "label": "Primary Metric",
        "data": [100, 200, 150, 300, 250]
      }
    ]
  }
}

For chartData:
- If GA4 data is available, visualize key metrics like users, sessions, pageviews
- If spreadsheet data is available, pick the most insightful numeric columns
- Use at most 10 labels for readability
- Every dataset must have exactly one data value per label
- Include 1-2 relevant metrics as datasets

Return ONLY valid JSON, no markdown or explanation.`

// ErrEmptyContext is returned when Build is called without any context.
var ErrEmptyContext = errors.New("analysis context is empty")

// Build wraps the analysis context in the fixed analyst instructions. The
// output depends only on context.
func Build(context string) (string, error) {
	if strings.TrimSpace(context) == "" {
		return "", ErrEmptyContext
	}
	var b strings.Builder
	b.Grow(len(preamble) + len(context) + len(instructions) + 2)
	b.WriteString(preamble)
	b.WriteByte('\n')
	b.WriteString(context)
	if !strings.HasSuffix(context, "\n") {
		b.WriteByte('\n')
	}
	b.WriteString(instructions)
	return b.String(), nil
}
