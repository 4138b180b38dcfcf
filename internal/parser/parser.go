// Package parser converts raw, noisy OCR text from a retail receipt into
// structured line items.
//
// Receipts split one logical item across physical lines more often than not:
// the item name on one line, a weight/price fragment on the next, a tax code
// glued to the amount. The parser recovers those splits with a small state
// machine carried across lines (a pending description and a pending
// quantity/unit-price fragment) instead of treating each line in isolation.
package parser

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/scanledger/scanledger/constants"
	"github.com/scanledger/scanledger/internal/moneyutil"
)

// LineItem is one parsed receipt line. Description always contains at least
// one letter; at least one of UnitPrice/LineTotal is set for items emitted
// from a price-bearing line.
type LineItem struct {
	Description string   `json:"description"`
	Qty         *float64 `json:"qty,omitempty"`
	UnitPrice   *float64 `json:"unit_price,omitempty"`
	LineTotal   *float64 `json:"line_total,omitempty"`
}

var (
	// Currency amount: optional sign, 1-6 digits, dot or comma, exactly two
	// decimals. The LAST match on a line is the line total; receipts place
	// the charged amount rightmost and earlier numbers are weights or codes.
	reAmount = regexp.MustCompile(`-?\d{1,6}[.,]\d{2}`)

	// Category header like "21-GROCERY".
	reCategoryHeader = regexp.MustCompile(`^\d{2,}-[A-Za-z]`)

	// "2 @ $1.50" or "0.78 kg @ 2.16/kg": quantity or weight at a unit price.
	reUnitFragment = regexp.MustCompile(`(?i)(\d{1,4}(?:[.,]\d{1,3})?)\s*(kg|lb|lbs|g|oz|ea)?\s*@\s*\$?(\d{1,6}(?:[.,]\d{1,2})?)(?:\s*/\s*(?:kg|lb|lbs|g|oz|ea))?`)

	// Leading "(12) " or a bare 6+ digit item code in front of the name.
	reItemCodeParen = regexp.MustCompile(`^\(\d+\)\s*`)
	reItemCodeBare  = regexp.MustCompile(`^\d{6,}\s+`)

	// Trailing tax-code suffixes: GST/HST/PST/QST or short uppercase letter
	// codes printed after the name.
	reTrailingTaxCode = regexp.MustCompile(`\s+(?:GST|HST|PST|QST|[A-Z]{1,2})$`)

	reLetter     = regexp.MustCompile(`[A-Za-z]`)
	reLeadingQty = regexp.MustCompile(`^(\d{1,3})\s+`)
	reSpaces     = regexp.MustCompile(`\s+`)
)

// unitFragment is a dangling "qty @ price" read off a line, waiting to be
// attached to an item.
type unitFragment struct {
	qty       *float64
	unitPrice *float64
}

// accumulator is the parser state threaded through the fold over lines.
type accumulator struct {
	items       []LineItem
	pendingDesc string
	pendingUnit *unitFragment
}

// Parse converts free-form multi-line OCR text into line items, preserving
// input order. It never fails: lines that cannot be attributed to an item
// are dropped and the worst case is an empty slice.
func Parse(raw string) []LineItem {
	acc := accumulator{}
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(reSpaces.ReplaceAllString(line, " "))
		if line == "" || constants.ContainsIgnoreKeyword(line) {
			continue
		}
		if reCategoryHeader.MatchString(line) || isCodeOnly(line) {
			continue
		}
		acc.consume(line)
	}
	return acc.items
}

func (acc *accumulator) consume(line string) {
	amounts := reAmount.FindAllStringIndex(line, -1)
	fragLoc := reUnitFragment.FindStringSubmatchIndex(line)

	if len(amounts) == 0 {
		if fragLoc != nil {
			acc.attachOrBuffer(parseFragment(line, fragLoc))
			return
		}
		if reLetter.MatchString(line) {
			// Item name printed on its own line; the priced line follows.
			acc.pendingDesc = line
		}
		return
	}

	last := amounts[len(amounts)-1]

	// A fragment that swallows every amount on the line is a dangling
	// unit-price line belonging to an adjacent item.
	if fragLoc != nil && last[1] <= fragLoc[1] {
		acc.attachOrBuffer(parseFragment(line, fragLoc))
		return
	}

	acc.emit(line, last, fragLoc)
}

// emit resolves a priced item line: the last amount is the line total and
// everything before it is the description candidate.
func (acc *accumulator) emit(line string, lastAmount []int, fragLoc []int) {
	item := LineItem{LineTotal: parseAmount(line[lastAmount[0]:lastAmount[1]])}
	desc := strings.TrimSpace(line[:lastAmount[0]])
	rawDesc := desc

	if fragLoc != nil && fragLoc[1] <= lastAmount[0] {
		frag := parseFragment(line, fragLoc)
		item.Qty, item.UnitPrice = frag.qty, frag.unitPrice
		desc = strings.TrimSpace(line[:fragLoc[0]] + line[fragLoc[1]:lastAmount[0]])
	}

	desc = reItemCodeParen.ReplaceAllString(desc, "")
	desc = reItemCodeBare.ReplaceAllString(desc, "")
	for {
		stripped := reTrailingTaxCode.ReplaceAllString(desc, "")
		if stripped == desc {
			break
		}
		desc = stripped
	}
	desc = strings.TrimSpace(desc)

	if !reLetter.MatchString(desc) {
		switch {
		case acc.pendingDesc != "":
			desc = acc.pendingDesc
		case reLetter.MatchString(rawDesc):
			// Weighted line like "0.78 kg @ 2.16/kg  1.69" with no name of
			// its own: keep the fragment text rather than losing the item.
			desc = rawDesc
		default:
			// Nothing that could name an item. Treat the amount as a loose
			// unit price for an adjacent line.
			acc.attachOrBuffer(unitFragment{unitPrice: item.LineTotal})
			return
		}
	}

	if acc.pendingUnit != nil {
		if item.Qty == nil {
			item.Qty = acc.pendingUnit.qty
		}
		if item.UnitPrice == nil {
			item.UnitPrice = acc.pendingUnit.unitPrice
		}
		acc.pendingUnit = nil
	}

	if m := reLeadingQty.FindStringSubmatch(desc); m != nil {
		if item.Qty == nil {
			q, _ := strconv.ParseFloat(m[1], 64)
			item.Qty = &q
		}
		desc = strings.TrimSpace(desc[len(m[0]):])
	}

	if item.UnitPrice == nil && item.Qty != nil && *item.Qty > 0 && item.LineTotal != nil {
		up := moneyutil.Div2(*item.LineTotal, *item.Qty)
		item.UnitPrice = &up
	}

	item.Description = desc
	acc.items = append(acc.items, item)
	acc.pendingDesc = ""
}

// attachOrBuffer backfills the previous item's missing quantity and unit
// price, or holds the fragment for the next item when nothing was emitted
// yet.
func (acc *accumulator) attachOrBuffer(frag unitFragment) {
	if n := len(acc.items); n > 0 {
		prev := &acc.items[n-1]
		if prev.Qty == nil {
			prev.Qty = frag.qty
		}
		if prev.UnitPrice == nil {
			prev.UnitPrice = frag.unitPrice
		}
		return
	}
	acc.pendingUnit = &frag
}

func parseFragment(line string, loc []int) unitFragment {
	// Submatch indices: 1 = qty/weight, 3 = unit price.
	frag := unitFragment{}
	if loc[2] >= 0 {
		frag.qty = parseAmount(line[loc[2]:loc[3]])
	}
	if loc[6] >= 0 {
		frag.unitPrice = parseAmount(line[loc[6]:loc[7]])
	}
	return frag
}

func parseAmount(s string) *float64 {
	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64)
	if err != nil {
		return nil
	}
	return &v
}

// isCodeOnly reports whether the line is nothing but digits and parens once
// whitespace is removed (UPC lines, register codes).
func isCodeOnly(line string) bool {
	s := strings.Join(strings.Fields(line), "")
	if s == "" {
		return false
	}
	for _, r := range s {
		if (r < '0' || r > '9') && r != '(' && r != ')' {
			return false
		}
	}
	return true
}
