package duedate

import (
	"regexp"
	"strconv"
	"time"
)

var (
	isoRe        = regexp.MustCompile(`^(\d+)-(\d+)-(\d+)\b`)
	slashRe      = regexp.MustCompile(`^(\d+)/(\d+)/(\d+)\b`)
	dotRe        = regexp.MustCompile(`^(\d+)\.(\d+)\.(\d+)\b`)
	dotShortRe   = regexp.MustCompile(`^(\d+)\.(\d+)\b`)
	slashShortRe = regexp.MustCompile(`^(\d+)/(\d+)\b`)
	relativeRe   = regexp.MustCompile(`^(\d+)([dwmy])$`)
)

// maxYear is the last year Resolve can produce.
const maxYear = 2099

// maxRelative caps N per unit at about a century.
var maxRelative = map[string]int{"d": 36600, "w": 5300, "m": 1200, "y": 100}

// Resolver turns user-typed due dates into calendar dates.
type Resolver struct {
	// DayFirst reads A/B/C and A/B as day/month instead of month/day.
	DayFirst bool
}

// Resolve parses an absolute date in one of the accepted formats. The first
// matching format wins: Y-M-D, A/B/C, D.M.Y, D.M and A/B. Forms without a year
// fall on the next occurrence of that day counted from ref.
func (r Resolver) Resolve(input string, ref time.Time) (Date, bool) {
	var y, m, d int
	today := FromTime(ref)

	if ma := isoRe.FindStringSubmatch(input); ma != nil {
		y, m, d = atoiYear(ma[1]), atoi(ma[2]), atoi(ma[3])
	} else if ma := slashRe.FindStringSubmatch(input); ma != nil {
		m, d = r.order(atoi(ma[1]), atoi(ma[2]))
		y = atoiYear(ma[3])
	} else if ma := dotRe.FindStringSubmatch(input); ma != nil {
		d, m, y = atoi(ma[1]), atoi(ma[2]), atoiYear(ma[3])
	} else if ma := dotShortRe.FindStringSubmatch(input); ma != nil {
		d, m = atoi(ma[1]), atoi(ma[2])
		y = inferYear(m, d, today)
	} else if ma := slashShortRe.FindStringSubmatch(input); ma != nil {
		m, d = r.order(atoi(ma[1]), atoi(ma[2]))
		y = inferYear(m, d, today)
	} else {
		return Date{}, false
	}

	return normalize(y, m, d), true
}

// Relative parses the <N>d, <N>w, <N>m and <N>y shorthand counted from ref.
// Months and years keep the day of month, clamped to the target month length.
// Results past maxYear are rejected so the token stays plain text.
func (r Resolver) Relative(token string, ref time.Time) (Date, bool) {
	ma := relativeRe.FindStringSubmatch(token)
	if ma == nil {
		return Date{}, false
	}
	n, err := strconv.Atoi(ma[1])
	if err != nil || n > maxRelative[ma[2]] {
		return Date{}, false
	}
	today := FromTime(ref)

	var due Date
	switch ma[2] {
	case "d", "w":
		if ma[2] == "w" {
			n *= 7
		}
		due = FromTime(today.Time(time.UTC).AddDate(0, 0, n))
	default:
		if ma[2] == "y" {
			n *= 12
		}
		months := int(today.Month) - 1 + n
		y := today.Year + months/12
		m := time.Month(months%12 + 1)
		due = Date{Year: y, Month: m, Day: min(today.Day, DaysInMonth(m, y))}
	}
	if due.Year > maxYear {
		return Date{}, false
	}
	return due, true
}

// order maps the two leading numbers of a slash date to month and day.
func (r Resolver) order(a, b int) (month, day int) {
	if r.DayFirst {
		return b, a
	}
	return a, b
}

func inferYear(m, d int, today Date) int {
	if m < int(today.Month) || (m == int(today.Month) && d < today.Day) {
		return today.Year + 1
	}
	return today.Year
}

func normalize(y, m, d int) Date {
	if y < 100 {
		y += 2000
	} else if y < 1000 || y > maxYear {
		y = 2000 + y%100
	}
	m = max(1, min(m, 12))
	d = max(1, min(d, DaysInMonth(time.Month(m), y)))
	return Date{Year: y, Month: time.Month(m), Day: d}
}

func atoi(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		// only overflow gets here
		return 1<<31 - 1
	}
	return n
}

// atoiYear keeps the last two digits of a year too long for an int, which is
// all normalize uses of it.
func atoiYear(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 2000 + atoi(s[len(s)-2:])
	}
	return n
}
