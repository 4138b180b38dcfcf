package ocr

import (
	"regexp"
	"strings"
)

var (
	reCRLF       = regexp.MustCompile(`\r\n?`)
	reTabs       = regexp.MustCompile(`\t+`)
	reMultiBlank = regexp.MustCompile(`\n{3,}`)
	reO0Artifact = regexp.MustCompile(`(\d)[Oo]([.,\d])`) // "1O.99" style misreads
)

// Normalize collapses noisy whitespace and fixes common OCR artifacts.
// Conservative: keeps line breaks and column gaps (the line parser reads
// amounts by position); collapses >2 newlines into a single blank line.
func Normalize(s string) string {
	if s == "" {
		return s
	}
	s = reCRLF.ReplaceAllString(s, "\n")
	s = reTabs.ReplaceAllString(s, " ")
	s = reMultiBlank.ReplaceAllString(s, "\n\n")
	// trim trailing spaces on lines
	lines := strings.Split(s, "\n")
	for i := range lines {
		lines[i] = strings.TrimRight(lines[i], " ")
	}
	s = strings.Join(lines, "\n")
	s = reO0Artifact.ReplaceAllString(s, "${1}0${2}")
	return strings.TrimSpace(s)
}
