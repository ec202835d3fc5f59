// Package datefmt formats calendar dates the way Roam titles its daily
// note pages, e.g. "July 6th, 2024".
package datefmt

import (
	"fmt"
	"regexp"
	"time"
)

var isoRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// RoamDate renders t as a Roam daily-note page title.
func RoamDate(t time.Time) string {
	return fmt.Sprintf("%s %d%s, %d", t.Month(), t.Day(), ordinalSuffix(t.Day()), t.Year())
}

// ordinalSuffix returns the English ordinal suffix for a day of month.
// 11, 12, and 13 take "th" despite ending in 1, 2, 3.
func ordinalSuffix(day int) string {
	if day >= 11 && day <= 13 {
		return "th"
	}
	switch day % 10 {
	case 1:
		return "st"
	case 2:
		return "nd"
	case 3:
		return "rd"
	}
	return "th"
}

// IsISODate reports whether s looks like a YYYY-MM-DD date.
func IsISODate(s string) bool {
	return isoRe.MatchString(s)
}

// ParseISODate parses a YYYY-MM-DD date string.
func ParseISODate(s string) (time.Time, error) {
	return time.Parse("2006-01-02", s)
}
