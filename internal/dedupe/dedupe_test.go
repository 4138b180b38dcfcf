package dedupe

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func fptr(v float64) *float64 { return &v }

func TestIsDuplicateExactMatch(t *testing.T) {
	var d Detector
	existing := []StoredReceipt{{PurchaseDateTime: "2025-01-14 20:18:33", Total: fptr(42.10)}}

	assert.True(t, d.IsDuplicate("2025-01-14 20:18:33", fptr(42.10), existing))
}

func TestIsDuplicateWithinTolerance(t *testing.T) {
	var d Detector
	existing := []StoredReceipt{{PurchaseDateTime: "2025-01-14 20:18:33", Total: fptr(42.10)}}

	// 30s apart, default tolerance is a minute
	assert.True(t, d.IsDuplicate("2025-01-14 20:19:03", fptr(42.10), existing))
	// 2 minutes apart
	assert.False(t, d.IsDuplicate("2025-01-14 20:20:33", fptr(42.10), existing))
}

func TestIsDuplicateCustomTolerance(t *testing.T) {
	d := Detector{Tolerance: 5 * time.Minute}
	existing := []StoredReceipt{{PurchaseDateTime: "2025-01-14 20:18:33", Total: fptr(42.10)}}

	assert.True(t, d.IsDuplicate("2025-01-14 20:22:00", fptr(42.10), existing))
	assert.False(t, d.IsDuplicate("2025-01-14 20:24:00", fptr(42.10), existing))
}

func TestIsDuplicateTotalsDiffer(t *testing.T) {
	var d Detector
	existing := []StoredReceipt{{PurchaseDateTime: "2025-01-14 20:18:33", Total: fptr(42.10)}}

	assert.False(t, d.IsDuplicate("2025-01-14 20:18:33", fptr(43.10), existing))
	// a cent off is still the same receipt
	assert.True(t, d.IsDuplicate("2025-01-14 20:18:33", fptr(42.11), existing))
}

func TestIsDuplicateNilCandidateTotalMatchesOnDate(t *testing.T) {
	var d Detector
	existing := []StoredReceipt{{PurchaseDateTime: "2025-01-14 20:18:33", Total: fptr(42.10)}}

	assert.True(t, d.IsDuplicate("2025-01-14 20:18:33", nil, existing))
}

func TestIsDuplicateReconstructsTotalFromSubtotalAndTax(t *testing.T) {
	var d Detector
	existing := []StoredReceipt{{
		PurchaseDateTime: "2025-01-14 20:18:33",
		Subtotal:         fptr(37.26),
		Tax:              fptr(4.84),
	}}

	assert.True(t, d.IsDuplicate("2025-01-14 20:18:33", fptr(42.10), existing))
	assert.False(t, d.IsDuplicate("2025-01-14 20:18:33", fptr(40.00), existing))
}

func TestIsDuplicateUnparseableCandidate(t *testing.T) {
	var d Detector
	existing := []StoredReceipt{{PurchaseDateTime: "2025-01-14 20:18:33", Total: fptr(42.10)}}

	assert.False(t, d.IsDuplicate("not a date", fptr(42.10), existing))
}

func TestIsDuplicateUnparseableStoredSkipped(t *testing.T) {
	var d Detector
	existing := []StoredReceipt{
		{PurchaseDateTime: "garbled", Total: fptr(42.10)},
		{PurchaseDateTime: "2025-01-14 20:18:40", Total: fptr(42.10)},
	}

	assert.True(t, d.IsDuplicate("2025-01-14 20:18:33", fptr(42.10), existing))
}

func TestIsDuplicateNoStoredReceipts(t *testing.T) {
	var d Detector
	assert.False(t, d.IsDuplicate("2025-01-14 20:18:33", fptr(42.10), nil))
}
