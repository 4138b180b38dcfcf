// Package reconcile fills in the missing member of a quantity / unit price /
// line total triple using the other two.
package reconcile

import "github.com/scanledger/scanledger/internal/moneyutil"

// Reconcile returns a consistent triple. Only nil slots are filled, in this
// order: line total from qty x unit price, then unit price from line total /
// qty (qty nonzero). Values already present are never overwritten, so
// feeding a reconciled triple back through is a no-op. Derived currency
// values are rounded half up to two decimals.
func Reconcile(qty, unitPrice, lineTotal *float64) (q, u, t *float64) {
	q, u, t = qty, unitPrice, lineTotal

	if t == nil && q != nil && u != nil {
		v := moneyutil.Mul2(*q, *u)
		t = &v
	}
	if u == nil && t != nil && q != nil && *q != 0 {
		v := moneyutil.Div2(*t, *q)
		u = &v
	}
	return q, u, t
}
