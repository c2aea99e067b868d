package model

import (
	"fmt"
	"strconv"
)

// SortKind selects the ordering of a task listing.
type SortKind int

const (
	SortManual SortKind = iota
	SortPriority
	SortDueDate
	SortCreated
	SortModified
	SortTitle
)

var sortKindNames = map[SortKind]string{
	SortManual:   "manual",
	SortPriority: "priority",
	SortDueDate:  "duedate",
	SortCreated:  "created",
	SortModified: "modified",
	SortTitle:    "title",
}

// SortMode is a sort kind with its direction. Reverse inverts every key of the
// kind's chain; incomplete tasks always come before completed ones.
type SortMode struct {
	Kind    SortKind
	Reverse bool
}

// SortModeFromCode decodes the stored numeric form: 0-5 ascending, 100-105
// reversed. Unknown codes fall back to manual order.
func SortModeFromCode(code int) SortMode {
	m := SortMode{Kind: SortKind(code % 100), Reverse: code >= 100}
	if code < 0 || code > 105 || (code > 5 && code < 100) {
		return SortMode{}
	}
	return m
}

func (m SortMode) Code() int {
	if m.Reverse {
		return 100 + int(m.Kind)
	}
	return int(m.Kind)
}

func (m SortMode) String() string {
	s := sortKindNames[m.Kind]
	if m.Reverse {
		s += "-desc"
	}
	return s
}

// ParseSortMode accepts either a numeric code or a name such as "duedate" or
// "title-desc".
func ParseSortMode(s string) (SortMode, error) {
	if n, err := strconv.Atoi(s); err == nil {
		return SortModeFromCode(n), nil
	}
	for kind, name := range sortKindNames {
		switch s {
		case name:
			return SortMode{Kind: kind}, nil
		case name + "-desc":
			return SortMode{Kind: kind, Reverse: true}, nil
		}
	}
	return SortMode{}, fmt.Errorf("unknown sort mode %q", s)
}

func (m SortMode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *SortMode) UnmarshalText(b []byte) error {
	v, err := ParseSortMode(string(b))
	if err != nil {
		return err
	}
	*m = v
	return nil
}

// TaskQuery is the storage-level description of a task listing. Tag filters
// are already resolved to ids.
type TaskQuery struct {
	ListIDs []int64
	// ShowCompleted includes completed tasks when true.
	ShowCompleted bool
	// IncludeGroups: a task must carry at least one tag of every group.
	IncludeGroups [][]int64
	// ExcludeTagIDs drops tasks carrying any of these tags.
	ExcludeTagIDs []int64
	// TaskID, when non-zero, matches one task exactly and replaces Search.
	TaskID int64
	// Search is a case-insensitive substring of title or note.
	Search string
	Sort   SortMode
}
