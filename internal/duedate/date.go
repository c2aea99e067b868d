package duedate

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// Date is a calendar date without a time component.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

var canonicalRe = regexp.MustCompile(`^(\d{4})-(\d{2})-(\d{2})$`)

// FromTime returns the calendar date of t in its own location.
func FromTime(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// ParseCanonical parses a YYYY-MM-DD string as produced by String.
func ParseCanonical(s string) (Date, bool) {
	m := canonicalRe.FindStringSubmatch(s)
	if m == nil {
		return Date{}, false
	}
	y, _ := strconv.Atoi(m[1])
	mo, _ := strconv.Atoi(m[2])
	d, _ := strconv.Atoi(m[3])
	if mo < 1 || mo > 12 || d < 1 || d > 31 {
		return Date{}, false
	}
	return Date{Year: y, Month: time.Month(mo), Day: d}, true
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// Time returns midnight of d in loc.
func (d Date) Time(loc *time.Location) time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, loc)
}

// Int returns d as a YYYYMMDD integer.
func (d Date) Int() int {
	return d.Year*10000 + int(d.Month)*100 + d.Day
}

// IsZero reports whether d is the zero Date.
func (d Date) IsZero() bool {
	return d == Date{}
}

// daysSince returns the number of calendar days from ref to d.
func (d Date) daysSince(ref Date) int {
	a := d.Time(time.UTC)
	b := ref.Time(time.UTC)
	return int(a.Sub(b).Hours() / 24)
}

// DaysInMonth returns the number of days in month m of year y, or 0 for an
// invalid month. February is a leap month when (y-2000) is divisible by 4;
// this differs from the Gregorian rule outside 1901-2099 and is kept as is
// so stored dates stay stable.
func DaysInMonth(m time.Month, y int) int {
	switch m {
	case time.January, time.March, time.May, time.July, time.August, time.October, time.December:
		return 31
	case time.April, time.June, time.September, time.November:
		return 30
	case time.February:
		if (y-2000)%4 == 0 {
			return 29
		}
		return 28
	}
	return 0
}

func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Date) UnmarshalText(b []byte) error {
	v, ok := ParseCanonical(string(b))
	if !ok {
		return fmt.Errorf("duedate: invalid date %q", b)
	}
	*d = v
	return nil
}
