// Package timeparse turns the loosely formatted date strings found on retail
// receipts into canonical timestamps.
//
// OCR output rarely agrees on a single format: the same printer may emit
// 25/01/14, 2025-01-14, or 14.01.2025 depending on locale. Parsing is
// attempted against a fixed pattern order so ambiguous input always resolves
// the same way.
package timeparse

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Canonical is the output layout for Normalize.
const Canonical = "2006-01-02 15:04:05"

var (
	// YY/MM/DD with the two-digit year anchored first. Only trusted when the
	// year matches the scan year; otherwise a day is too easily misread as a
	// year.
	reShortYearFirst = regexp.MustCompile(`^(\d{2})[/.\-](\d{1,2})[/.\-](\d{1,2})` + timeSuffix + `$`)

	// YYYY/M/D.
	reYMD = regexp.MustCompile(`^(\d{4})[/.\-](\d{1,2})[/.\-](\d{1,2})` + timeSuffix + `$`)

	// D/M/YY or D/M/YYYY. Day/month order is resolved after matching.
	reDMY = regexp.MustCompile(`^(\d{1,2})[/.\-](\d{1,2})[/.\-](\d{2,4})` + timeSuffix + `$`)
)

// Shared optional HH:MM[:SS][ AM|PM] suffix. Groups: hour, minute, second,
// meridiem.
const timeSuffix = `(?:[ T](\d{1,2}):(\d{2})(?::(\d{2}))?(?:\s*([AaPp])\.?[Mm]\.?)?)?`

// Generic layouts tried last, before giving up.
var fallbackLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"Jan 2, 2006",
	"January 2, 2006",
	"2 Jan 2006",
	"02 Jan 2006 15:04",
}

// Parse interprets text as a date, optionally with a time of day. When
// preferCurrentYear is set, a leading two-digit component equal to the
// current year (mod 100) is read as YY/MM/DD before the general patterns are
// tried; this matches receipts captured from a live scan, which are almost
// always dated in the current year.
func Parse(text string, preferCurrentYear bool) (time.Time, bool) {
	return parseAt(text, preferCurrentYear, time.Now())
}

// Normalize renders text as "YYYY-MM-DD HH:MM:SS", or reports false if it
// cannot be parsed.
func Normalize(text string, preferCurrentYear bool) (string, bool) {
	t, ok := Parse(text, preferCurrentYear)
	if !ok {
		return "", false
	}
	return t.Format(Canonical), true
}

// StartOfDay zeroes the time-of-day components, keeping the calendar date.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// EndOfDay maximizes the time-of-day components, keeping the calendar date.
// Used together with StartOfDay for inclusive range filtering.
func EndOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 999_999_999, t.Location())
}

// parseAt is Parse with an injectable reference time for the current-year
// check.
func parseAt(text string, preferCurrentYear bool, now time.Time) (time.Time, bool) {
	s := strings.TrimSpace(text)
	if s == "" {
		return time.Time{}, false
	}

	if preferCurrentYear {
		if m := reShortYearFirst.FindStringSubmatch(s); m != nil {
			yy, _ := strconv.Atoi(m[1])
			if yy == now.Year()%100 {
				month, _ := strconv.Atoi(m[2])
				day, _ := strconv.Atoi(m[3])
				if t, ok := buildDate(2000+yy, month, day, m[4], m[5], m[6], m[7]); ok {
					return t, true
				}
			}
		}
	}

	if m := reYMD.FindStringSubmatch(s); m != nil {
		year, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		day, _ := strconv.Atoi(m[3])
		if t, ok := buildDate(year, month, day, m[4], m[5], m[6], m[7]); ok {
			return t, true
		}
	}

	if m := reDMY.FindStringSubmatch(s); m != nil {
		first, _ := strconv.Atoi(m[1])
		second, _ := strconv.Atoi(m[2])
		year, _ := strconv.Atoi(m[3])
		if year < 100 {
			year += 2000
		}
		day, month := resolveDayMonth(first, second)
		if t, ok := buildDate(year, month, day, m[4], m[5], m[6], m[7]); ok {
			return t, true
		}
	}

	for _, layout := range fallbackLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// resolveDayMonth decides which of the first two components is the day. A
// component over 12 cannot be a month; when both are 12 or less the input is
// genuinely ambiguous and day-first wins. That default is a documented
// heuristic, not an inference.
func resolveDayMonth(first, second int) (day, month int) {
	switch {
	case first > 12 && second <= 12:
		return first, second
	case second > 12 && first <= 12:
		return second, first
	default:
		return first, second
	}
}

// buildDate assembles the timestamp and rejects components that do not
// survive a round trip through time.Date, so day 0 or month 13 come back as
// a failure instead of silently wrapping into an adjacent month.
func buildDate(year, month, day int, hourStr, minStr, secStr, meridiem string) (time.Time, bool) {
	hour, min, sec := 0, 0, 0
	if hourStr != "" {
		hour, _ = strconv.Atoi(hourStr)
		min, _ = strconv.Atoi(minStr)
		if secStr != "" {
			sec, _ = strconv.Atoi(secStr)
		}
		switch strings.ToLower(meridiem) {
		case "p":
			if hour < 12 {
				hour += 12
			}
		case "a":
			if hour == 12 {
				hour = 0
			}
		}
	}
	if hour > 23 || min > 59 || sec > 59 {
		return time.Time{}, false
	}
	t := time.Date(year, time.Month(month), day, hour, min, sec, 0, time.Local)
	if t.Year() != year || t.Month() != time.Month(month) || t.Day() != day {
		return time.Time{}, false
	}
	return t, true
}
