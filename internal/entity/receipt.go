package entity

import (
	"time"

	"github.com/google/uuid"
)

// Receipt is a persisted receipt for data transfer between layers.
type Receipt struct {
	ID               uuid.UUID     `json:"id"`
	MerchantName     string        `json:"merchant_name,omitempty"`
	PurchaseDateTime string        `json:"purchase_datetime,omitempty"` // canonical "YYYY-MM-DD HH:MM:SS"
	Subtotal         *float64      `json:"subtotal,omitempty"`
	Tax              *float64      `json:"tax,omitempty"`
	Total            *float64      `json:"total,omitempty"`
	Items            []ReceiptItem `json:"items"`
	CreatedAt        time.Time     `json:"created_at"`
	UpdatedAt        time.Time     `json:"updated_at"`
}

// ReceiptItem is one persisted line item, ordered by Position.
type ReceiptItem struct {
	ID          uuid.UUID `json:"id"`
	ReceiptID   uuid.UUID `json:"receipt_id"`
	Position    int       `json:"position"`
	Description string    `json:"description"`
	Qty         *float64  `json:"qty,omitempty"`
	UnitPrice   *float64  `json:"unit_price,omitempty"`
	LineTotal   *float64  `json:"line_total,omitempty"`
}

// ReceiptCandidate is a receipt assembled from parser output and user edits,
// handed once to the persistence layer. The core never mutates it after
// creation; edits re-enter through the parse/reconcile pipeline.
type ReceiptCandidate struct {
	MerchantName     string          `json:"merchant_name,omitempty"`
	PurchaseDateTime string          `json:"purchase_datetime,omitempty"`
	Subtotal         *float64        `json:"subtotal,omitempty"`
	Tax              *float64        `json:"tax,omitempty"`
	Total            *float64        `json:"total,omitempty"`
	Items            []CandidateItem `json:"items"`
}

// CandidateItem mirrors parser.LineItem without importing it, keeping the
// entity layer free of parser internals.
type CandidateItem struct {
	Description string   `json:"description"`
	Qty         *float64 `json:"qty,omitempty"`
	UnitPrice   *float64 `json:"unit_price,omitempty"`
	LineTotal   *float64 `json:"line_total,omitempty"`
}
