package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/BuzzLyutic/tasklist/internal/model"
	"github.com/BuzzLyutic/tasklist/internal/repo"
)

// OrderWeights assigns the manual order ("ow") of tasks. Open and completed
// tasks of a list are ordered separately; a task entering either part goes to
// its end.
type OrderWeights struct{}

// Next returns the weight that places a task last in the (list, completed)
// partition. It must run in the same transaction as the write that uses it.
func (OrderWeights) Next(ctx context.Context, tasks repo.TaskRepository, listID int64, completed bool) (int64, error) {
	top, err := tasks.MaxOrderWeight(ctx, listID, completed)
	if err != nil {
		return 0, fmt.Errorf("max order weight of list %d: %w", listID, err)
	}
	return top + 1, nil
}

// Shift applies relative deltas, one update per distinct delta. Zero deltas
// are skipped. It returns the number of rows moved.
func (OrderWeights) Shift(ctx context.Context, tasks repo.TaskRepository, deltas []model.OrderDelta, at time.Time) (int64, error) {
	groups := make(map[int64][]int64)
	for _, d := range deltas {
		if d.Delta == 0 || d.TaskID <= 0 {
			continue
		}
		groups[d.Delta] = append(groups[d.Delta], d.TaskID)
	}

	keys := make([]int64, 0, len(groups))
	for delta := range groups {
		keys = append(keys, delta)
	}
	// ascending deltas, so the statements run in a fixed order
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	var moved int64
	for _, delta := range keys {
		n, err := tasks.ShiftOrderWeight(ctx, groups[delta], delta, at)
		if err != nil {
			return moved, fmt.Errorf("shift order weight by %d: %w", delta, err)
		}
		moved += n
	}
	return moved, nil
}
