package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fptr(v float64) *float64 { return &v }

func TestParseDanglingUnitLineBackfillsNextItem(t *testing.T) {
	items := Parse("2 @ $1.50\nMilk 2L          3.00\n")

	require.Len(t, items, 1)
	assert.Equal(t, "Milk 2L", items[0].Description)
	assert.Equal(t, fptr(2.0), items[0].Qty)
	assert.Equal(t, fptr(1.50), items[0].UnitPrice)
	assert.Equal(t, fptr(3.00), items[0].LineTotal)
}

func TestParseDanglingUnitLineBackfillsPriorItem(t *testing.T) {
	items := Parse("Bananas          1.32\n0.78 kg @ 1.69/kg")

	require.Len(t, items, 1)
	assert.Equal(t, "Bananas", items[0].Description)
	assert.Equal(t, fptr(0.78), items[0].Qty)
	assert.Equal(t, fptr(1.69), items[0].UnitPrice)
	assert.Equal(t, fptr(1.32), items[0].LineTotal)
}

func TestParseIgnoreKeywordLines(t *testing.T) {
	items := Parse("SUBTOTAL 10.00\nTAX 1.30\nTOTAL 11.30")
	assert.Empty(t, items)
}

func TestParseWeightedLineLastAmountIsTotal(t *testing.T) {
	items := Parse("0.78 kg @ 2.16/kg          1.69")

	require.Len(t, items, 1)
	assert.Equal(t, fptr(0.78), items[0].Qty)
	assert.Equal(t, fptr(2.16), items[0].UnitPrice)
	assert.Equal(t, fptr(1.69), items[0].LineTotal)
}

func TestParseDescriptionOnOwnLine(t *testing.T) {
	items := Parse("GRN ONIONS\n(4068)          0.87")

	require.Len(t, items, 1)
	assert.Equal(t, "GRN ONIONS", items[0].Description)
	assert.Equal(t, fptr(0.87), items[0].LineTotal)
}

func TestParseSkipsCategoryHeadersAndCodeLines(t *testing.T) {
	items := Parse("21-GROCERY\n0123456789\nBread          2.49")

	require.Len(t, items, 1)
	assert.Equal(t, "Bread", items[0].Description)
}

func TestParseStripsItemCodes(t *testing.T) {
	items := Parse("(12) Eggs Large          4.29\n055742501234 Butter          5.99")

	require.Len(t, items, 2)
	assert.Equal(t, "Eggs Large", items[0].Description)
	assert.Equal(t, "Butter", items[1].Description)
}

func TestParseStripsTrailingTaxCodes(t *testing.T) {
	items := Parse("Paper Towels FP          7.99\nShampoo H          6.49")

	require.Len(t, items, 2)
	assert.Equal(t, "Paper Towels", items[0].Description)
	assert.Equal(t, "Shampoo", items[1].Description)
}

func TestParseLeadingIntegerIsQuantity(t *testing.T) {
	items := Parse("2 Croissant          5.00")

	require.Len(t, items, 1)
	assert.Equal(t, "Croissant", items[0].Description)
	assert.Equal(t, fptr(2.0), items[0].Qty)
	// derived from total/qty since no unit price was printed
	assert.Equal(t, fptr(2.50), items[0].UnitPrice)
	assert.Equal(t, fptr(5.00), items[0].LineTotal)
}

func TestParseCommaDecimalSeparator(t *testing.T) {
	items := Parse("Kaffee          4,50")

	require.Len(t, items, 1)
	assert.Equal(t, fptr(4.50), items[0].LineTotal)
}

func TestParseRejectsLinesWithoutLetters(t *testing.T) {
	// a priced line with no description and nothing buffered cannot be a
	// real item
	items := Parse("12345          9.99")
	assert.Empty(t, items)
}

func TestParseNeverFails(t *testing.T) {
	assert.Empty(t, Parse(""))
	assert.Empty(t, Parse("\n\n\n"))
	assert.Empty(t, Parse("garbage with no amounts at all"))
}

func TestParseMultiItemReceiptPreservesOrder(t *testing.T) {
	raw := `LOBLAWS
21-GROCERY
Milk 2L          3.00
GRN ONIONS
(4068)          0.87
0.78 kg @ 2.16/kg          1.69
SUBTOTAL 5.56
GST 0.28
TOTAL 5.84
VISA ************1234`

	items := Parse(raw)
	require.Len(t, items, 3)
	assert.Equal(t, "Milk 2L", items[0].Description)
	assert.Equal(t, "GRN ONIONS", items[1].Description)
	assert.Equal(t, fptr(0.78), items[2].Qty)
	assert.Equal(t, fptr(2.16), items[2].UnitPrice)
	assert.Equal(t, fptr(1.69), items[2].LineTotal)
}

func TestParsePendingDescriptionClearedAfterUse(t *testing.T) {
	items := Parse("GRN ONIONS\n(4068)          0.87\n(4011)          0.55")

	// the second code-only priced line has no name left to borrow
	require.Len(t, items, 1)
	assert.Equal(t, "GRN ONIONS", items[0].Description)
}
