package datefmt

import (
	"testing"
	"time"
)

func TestRoamDate(t *testing.T) {
	cases := []struct {
		date string
		want string
	}{
		{"2024-07-06", "July 6th, 2024"},
		{"2024-07-01", "July 1st, 2024"},
		{"2024-03-02", "March 2nd, 2024"},
		{"2024-03-03", "March 3rd, 2024"},
		{"2024-03-11", "March 11th, 2024"},
		{"2024-03-12", "March 12th, 2024"},
		{"2024-03-13", "March 13th, 2024"},
		{"2024-03-21", "March 21st, 2024"},
		{"2024-12-31", "December 31st, 2024"},
	}
	for _, c := range cases {
		d, err := ParseISODate(c.date)
		if err != nil {
			t.Fatalf("parse %s: %v", c.date, err)
		}
		if got := RoamDate(d); got != c.want {
			t.Errorf("RoamDate(%s) = %q, want %q", c.date, got, c.want)
		}
	}
}

func TestIsISODate(t *testing.T) {
	if !IsISODate("2024-07-06") {
		t.Error("2024-07-06 should be an ISO date")
	}
	for _, s := range []string{"July 6th, 2024", "2024-7-6", "20240706", ""} {
		if IsISODate(s) {
			t.Errorf("%q should not be an ISO date", s)
		}
	}
}

func TestRoamDate_UsesDateOnly(t *testing.T) {
	d := time.Date(2024, time.July, 6, 23, 59, 0, 0, time.UTC)
	if got := RoamDate(d); got != "July 6th, 2024" {
		t.Errorf("got %q", got)
	}
}
