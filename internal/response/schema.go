package response

// resultSchema is the JSON Schema every extracted object must satisfy before
// decoding. Size ceilings are applied afterwards by normalization.
var resultSchema = map[string]any{
	"type":     "object",
	"required": []any{"story", "insights", "recommendations"},
	"properties": map[string]any{
		"story": map[string]any{
			"type":      "string",
			"minLength": 1,
			"pattern":   `\S`,
		},
		"insights": map[string]any{
			"type":  "array",
			"items": map[string]any{"type": "string"},
		},
		"recommendations": map[string]any{
			"type":  "array",
			"items": map[string]any{"type": "string"},
		},
		"chartData": map[string]any{
			"type":     []any{"object", "null"},
			"required": []any{"labels", "datasets"},
			"properties": map[string]any{
				"labels": map[string]any{
					"type":  "array",
					"items": map[string]any{"type": "string"},
				},
				"datasets": map[string]any{
					"type": "array",
					"items": map[string]any{
						"type":     "object",
						"required": []any{"data"},
						"properties": map[string]any{
							"label": map[string]any{"type": "string"},
							"data": map[string]any{
								"type":  "array",
								"items": map[string]any{"type": "number"},
							},
						},
					},
				},
			},
		},
	},
}
