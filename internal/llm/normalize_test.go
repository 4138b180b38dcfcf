package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fptr(v float64) *float64 { return &v }

func TestNormalizeResponseHappyPath(t *testing.T) {
	raw := []byte(`{
		"merchant": " Loblaws ",
		"purchase_datetime": "2025-01-14 20:18:33",
		"subtotal": 10.00,
		"tax": 1.30,
		"total": 11.30,
		"items": [
			{"name": "Milk 2L", "qty": 1, "price": 3.00, "line_total": 3.00}
		]
	}`)

	got := NormalizeResponse(raw)

	assert.Equal(t, "Loblaws", got.Merchant)
	assert.Equal(t, "2025-01-14 20:18:33", got.PurchaseDateTime)
	assert.Equal(t, fptr(11.30), got.Total)
	require.Len(t, got.Items, 1)
	assert.Equal(t, "Milk 2L", got.Items[0].Description)
	assert.Equal(t, fptr(3.00), got.Items[0].UnitPrice)
}

func TestNormalizeResponseDropsUnnamedItems(t *testing.T) {
	raw := []byte(`{"items": [
		{"name": "", "line_total": 1.00},
		{"name": "   ", "line_total": 2.00},
		{"qty": 1},
		{"name": "Bread", "line_total": 2.49},
		"not an object"
	]}`)

	got := NormalizeResponse(raw)

	require.Len(t, got.Items, 1)
	assert.Equal(t, "Bread", got.Items[0].Description)
}

func TestNormalizeResponseCoercesBadNumbers(t *testing.T) {
	raw := []byte(`{
		"subtotal": "10.00",
		"tax": "n/a",
		"total": true,
		"items": [{"name": "X", "qty": "2", "price": null}]
	}`)

	got := NormalizeResponse(raw)

	// quoted numerics are accepted, junk is not
	assert.Equal(t, fptr(10.00), got.Subtotal)
	assert.Nil(t, got.Tax)
	assert.Nil(t, got.Total)
	require.Len(t, got.Items, 1)
	assert.Equal(t, fptr(2.0), got.Items[0].Qty)
	assert.Nil(t, got.Items[0].UnitPrice)
}

func TestNormalizeResponseNonFiniteStrings(t *testing.T) {
	raw := []byte(`{"total": "Inf", "subtotal": "NaN"}`)

	got := NormalizeResponse(raw)

	assert.Nil(t, got.Total)
	assert.Nil(t, got.Subtotal)
}

func TestNormalizeResponseWrongTopLevelTypes(t *testing.T) {
	raw := []byte(`{"merchant": 42, "purchase_datetime": null, "items": {"name": "X"}}`)

	got := NormalizeResponse(raw)

	assert.Empty(t, got.Merchant)
	assert.Empty(t, got.PurchaseDateTime)
	assert.Empty(t, got.Items)
}

func TestNormalizeResponseInvalidJSON(t *testing.T) {
	got := NormalizeResponse([]byte("definitely not json"))
	assert.True(t, got.Empty())
}

func TestExtractJSONBlock(t *testing.T) {
	fenced := "```json\n{\"total\": 1.00}\n```"
	assert.JSONEq(t, `{"total": 1.00}`, ExtractJSONBlock(fenced))

	chatty := "Here is the receipt: {\"total\": 2.00} hope that helps!"
	assert.JSONEq(t, `{"total": 2.00}`, ExtractJSONBlock(chatty))

	assert.JSONEq(t, `{"total": 3.00}`, ExtractJSONBlock(`{"total": 3.00}`))
}
