package ocr

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeWhitespace(t *testing.T) {
	in := "MILK 2L\t\t3.00\r\nBREAD   2.49   \r\n\r\n\r\n\r\nTOTAL 5.49"
	want := "MILK 2L 3.00\nBREAD   2.49\n\nTOTAL 5.49"
	assert.Equal(t, want, Normalize(in))
}

func TestNormalizeFixesDigitOArtifacts(t *testing.T) {
	assert.Equal(t, "MILK 10.99", Normalize("MILK 1O.99"))
	assert.Equal(t, "KAFFEE 40,50", Normalize("KAFFEE 4O,50"))
	assert.Equal(t, "QTY 202", Normalize("QTY 2o2"))
	// dates stay intact
	assert.Equal(t, "2025-01-14 20:18:33", Normalize("2025-01-14 20:18:33"))
	// letters inside words are untouched
	assert.Equal(t, "ONIONS 0.87", Normalize("ONIONS 0.87"))
}

func TestNormalizeEmpty(t *testing.T) {
	assert.Equal(t, "", Normalize(""))
	assert.Equal(t, "", Normalize("   \n\n   "))
}

func TestHeuristicConfidence(t *testing.T) {
	rich := "LOBLAWS\n2025-01-14\nMILK $3.00\nTOTAL $11.30"
	poor := "%%%%@@@"
	assert.Greater(t, heuristicConfidence(rich), heuristicConfidence(poor))
	assert.LessOrEqual(t, heuristicConfidence(rich), float32(1.0))
}
