package llm

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// NormalizeResponse validates and coerces an untrusted extraction response
// into ReceiptData. The response is schema-constrained at the API boundary,
// but it is still model-controlled text: declared types are checked at
// runtime, not trusted.
//
// Decode into a loose map, then map field by field: items with an
// empty/whitespace name are dropped, numeric fields that are not finite
// numbers become nil, top-level strings are kept only if non-empty after
// trimming. Any parse failure returns an empty result, never an error.
func NormalizeResponse(raw []byte) ReceiptData {
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return ReceiptData{}
	}

	out := ReceiptData{
		Merchant:         trimmedString(m["merchant"]),
		PurchaseDateTime: trimmedString(m["purchase_datetime"]),
		Subtotal:         finiteNumber(m["subtotal"]),
		Tax:              finiteNumber(m["tax"]),
		Total:            finiteNumber(m["total"]),
	}

	items, _ := m["items"].([]any)
	for _, it := range items {
		obj, ok := it.(map[string]any)
		if !ok {
			continue
		}
		name := trimmedString(obj["name"])
		if name == "" {
			continue
		}
		out.Items = append(out.Items, ReceiptItem{
			Description: name,
			Qty:         finiteNumber(obj["qty"]),
			UnitPrice:   finiteNumber(obj["price"]),
			LineTotal:   finiteNumber(obj["line_total"]),
		})
	}
	return out
}

func trimmedString(v any) string {
	s, ok := v.(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(s)
}

// finiteNumber accepts a finite JSON number, or a numeric string the model
// quoted anyway. Everything else coerces to nil.
func finiteNumber(v any) *float64 {
	switch t := v.(type) {
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return nil
		}
		return &t
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return nil
		}
		return &f
	default:
		return nil
	}
}
