package llm

import "context"

// ReceiptItem is a normalized line item from a cloud extraction, compatible
// with the heuristic parser's output shape.
type ReceiptItem struct {
	Description string   `json:"description"`
	Qty         *float64 `json:"qty,omitempty"`
	UnitPrice   *float64 `json:"unit_price,omitempty"`
	LineTotal   *float64 `json:"line_total,omitempty"`
}

// ReceiptData is the validated, normalized shape of a cloud extraction
// response: items plus optional receipt metadata.
type ReceiptData struct {
	Merchant         string        `json:"merchant,omitempty"`
	PurchaseDateTime string        `json:"purchase_datetime,omitempty"`
	Subtotal         *float64      `json:"subtotal,omitempty"`
	Tax              *float64      `json:"tax,omitempty"`
	Total            *float64      `json:"total,omitempty"`
	Items            []ReceiptItem `json:"items"`
}

// Empty reports whether the extraction produced nothing usable.
func (d ReceiptData) Empty() bool {
	return len(d.Items) == 0 && d.Merchant == "" && d.Total == nil
}

// ExtractRequest carries everything the extractor needs for one receipt.
type ExtractRequest struct {
	OCRText         string
	ImagePath       string // attached when OCR confidence is weak
	PrepConfidence  float32
	DefaultCurrency string
	Timezone        string
}

// Extractor is the interface the pipeline depends on.
type Extractor interface {
	Extract(ctx context.Context, req ExtractRequest) (ReceiptData, []byte /*rawJSON*/, error)
}
