package llm

// BuildReceiptJSONSchema returns a JSON-Schema (draft 2020-12 subset) as a
// generic map. We pass this to the model as a structured output constraint
// and also use it locally to validate the response before normalizing.
func BuildReceiptJSONSchema() map[string]any {
	item := map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"name":       map[string]any{"type": "string"},
			"qty":        numberOrNull(),
			"price":      numberOrNull(),
			"line_total": numberOrNull(),
		},
		"required": []string{"name"},
	}

	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"merchant":          map[string]any{"type": "string"},
			"purchase_datetime": map[string]any{"type": "string"},
			"subtotal":          numberOrNull(),
			"tax":               numberOrNull(),
			"total":             numberOrNull(),
			"items": map[string]any{
				"type":  "array",
				"items": item,
			},
		},
		"required": []string{"items"},
	}
}

func numberOrNull() map[string]any {
	return map[string]any{"type": []string{"number", "null"}}
}
