package model

import (
	"time"

	"github.com/google/uuid"

	"github.com/BuzzLyutic/tasklist/internal/duedate"
)

// Priority ranges from PriorityLow to PriorityHighest.
type Priority int

const (
	PriorityLow     Priority = -1
	PriorityNormal  Priority = 0
	PriorityHigh    Priority = 1
	PriorityHighest Priority = 2
)

func ClampPriority(n int) Priority {
	switch {
	case n < int(PriorityLow):
		return PriorityLow
	case n > int(PriorityHighest):
		return PriorityHighest
	}
	return Priority(n)
}

type Task struct {
	ID          int64         `json:"id"`
	UUID        uuid.UUID     `json:"uuid"`
	ListID      int64         `json:"list_id"`
	Title       string        `json:"title"`
	Note        string        `json:"note"`
	Priority    Priority      `json:"priority"`
	Completed   bool          `json:"completed"`
	CompletedAt *time.Time    `json:"completed_at,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
	EditedAt    time.Time     `json:"edited_at"`
	DueDate     *duedate.Date `json:"due_date,omitempty"`
	OW          int64         `json:"ow"`
	Tags        []Tag         `json:"tags"`
}

// TagNames returns the names of t's tags in stored order.
func (t Task) TagNames() []string {
	names := make([]string, 0, len(t.Tags))
	for _, tag := range t.Tags {
		names = append(names, tag.Name)
	}
	return names
}

// OrderDelta nudges the order-weight of one task by Delta.
type OrderDelta struct {
	TaskID int64 `json:"id"`
	Delta  int64 `json:"diff"`
}
