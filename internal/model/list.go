package model

import (
	"slices"
	"time"

	"github.com/google/uuid"
)

type List struct {
	ID            int64     `json:"id"`
	UUID          uuid.UUID `json:"uuid"`
	Owner         string    `json:"owner"`
	Name          string    `json:"name"`
	CreatedAt     time.Time `json:"created_at"`
	EditedAt      time.Time `json:"edited_at"`
	Sort          SortMode  `json:"sort"`
	ShowCompleted bool      `json:"show_completed"`
	Published     bool      `json:"published"`
	OW            int64     `json:"ow"`
}

// ListScope is the set of lists a query may read, already resolved by access
// control.
type ListScope struct {
	IDs []int64
}

func SingleList(id int64) ListScope {
	return ListScope{IDs: []int64{id}}
}

func (s ListScope) Contains(id int64) bool {
	return slices.Contains(s.IDs, id)
}
