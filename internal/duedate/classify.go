package duedate

import "time"

// Bucket is the coarse display class of a due date.
type Bucket string

const (
	BucketNone   Bucket = ""
	BucketPast   Bucket = "past"
	BucketToday  Bucket = "today"
	BucketSoon   Bucket = "soon"
	BucketFuture Bucket = "future"
)

// Hint tells the label collaborator which phrasing to use for a due date.
type Hint int

const (
	HintNone Hint = iota
	HintLongDate
	HintShortDate
	HintDaysAgo
	HintYesterday
	HintToday
	HintTomorrow
	HintInDays
)

const (
	day  = 86400
	week = 7 * day
)

// Classification is the result of Classify. Days is set for HintDaysAgo and
// HintInDays.
type Classification struct {
	Bucket Bucket
	Hint   Hint
	Days   int
}

// Classify places due relative to the calendar day of ref.
func Classify(due Date, ref time.Time) Classification {
	if due.IsZero() {
		return Classification{}
	}
	today := FromTime(ref)
	diff := due.daysSince(today) * day
	sameYear := due.Year == today.Year

	switch {
	case diff < -week && sameYear:
		return Classification{Bucket: BucketPast, Hint: HintShortDate}
	case diff < -week:
		return Classification{Bucket: BucketPast, Hint: HintLongDate}
	case diff < -day:
		return Classification{Bucket: BucketPast, Hint: HintDaysAgo, Days: ceilDays(-diff)}
	case diff < 0:
		return Classification{Bucket: BucketPast, Hint: HintYesterday}
	case diff < day:
		return Classification{Bucket: BucketToday, Hint: HintToday}
	case diff < 2*day:
		return Classification{Bucket: BucketToday, Hint: HintTomorrow}
	case diff < 8*day:
		return Classification{Bucket: BucketSoon, Hint: HintInDays, Days: ceilDays(diff)}
	case sameYear:
		return Classification{Bucket: BucketFuture, Hint: HintShortDate}
	default:
		return Classification{Bucket: BucketFuture, Hint: HintLongDate}
	}
}

func ceilDays(seconds int) int {
	return (seconds + day - 1) / day
}
