// Package dedupe decides whether a receipt about to be saved is the same
// real-world purchase as one already stored.
package dedupe

import (
	"math"
	"time"

	"github.com/scanledger/scanledger/internal/timeparse"
)

// DefaultTolerance is how far apart two purchase times may be and still
// count as one purchase. OCR misreads the seconds digit often enough that
// exact equality is too strict.
const DefaultTolerance = time.Minute

// CentTolerance is the maximum difference between totals for a match.
const CentTolerance = 0.01

// StoredReceipt is the comparison shape fetched from the store.
type StoredReceipt struct {
	PurchaseDateTime string
	Subtotal         *float64
	Tax              *float64
	Total            *float64
}

// Detector compares a candidate against stored receipts.
type Detector struct {
	// Tolerance for the fuzzy time comparison; zero means DefaultTolerance.
	Tolerance time.Duration
}

// IsDuplicate reports whether a stored receipt matches the candidate's
// purchase datetime and total.
//
// Two phases: an exact string comparison on the stored datetime first (cheap,
// catches the common same-normalized-format case), then a fuzzy pass that
// parses both sides and allows the times to differ within the tolerance
// window. In both phases a candidate with no total matches on date alone,
// and a stored receipt missing its total falls back to subtotal+tax.
func (d Detector) IsDuplicate(dateTime string, total *float64, existing []StoredReceipt) bool {
	for _, r := range existing {
		if r.PurchaseDateTime == dateTime && totalsMatch(total, r) {
			return true
		}
	}

	candidate, ok := timeparse.Parse(dateTime, false)
	if !ok {
		return false
	}
	tolerance := d.Tolerance
	if tolerance <= 0 {
		tolerance = DefaultTolerance
	}
	for _, r := range existing {
		stored, ok := timeparse.Parse(r.PurchaseDateTime, false)
		if !ok {
			continue
		}
		delta := candidate.Sub(stored)
		if delta < 0 {
			delta = -delta
		}
		if delta <= tolerance && totalsMatch(total, r) {
			return true
		}
	}
	return false
}

// totalsMatch compares the candidate total against the stored one,
// reconstructing subtotal+tax when the stored total is absent. A missing
// total on either side never blocks the match.
func totalsMatch(candidate *float64, r StoredReceipt) bool {
	if candidate == nil {
		return true
	}
	stored := r.Total
	if stored == nil && r.Subtotal != nil && r.Tax != nil {
		sum := *r.Subtotal + *r.Tax
		stored = &sum
	}
	if stored == nil {
		return true
	}
	return math.Abs(*candidate-*stored) <= CentTolerance+1e-9
}
