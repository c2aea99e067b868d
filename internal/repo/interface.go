package repo

import (
	"context"
	"time"

	"github.com/BuzzLyutic/tasklist/internal/model"
)

// TaskRepository reads and writes task rows. Write methods return the number
// of affected rows so callers can tell a missing task from a failure.
type TaskRepository interface {
	Get(ctx context.Context, id int64) (model.Task, error)
	Find(ctx context.Context, q model.TaskQuery) ([]model.Task, error)
	Insert(ctx context.Context, t model.Task) (model.Task, error)
	Update(ctx context.Context, t model.Task) (int64, error)
	SetCompleted(ctx context.Context, id int64, completed bool, ow int64, at time.Time) (int64, error)
	SetNote(ctx context.Context, id int64, note string, at time.Time) (int64, error)
	SetPriority(ctx context.Context, id int64, prio model.Priority, at time.Time) (int64, error)
	SetList(ctx context.Context, id, listID, ow int64, at time.Time) (int64, error)
	Delete(ctx context.Context, id int64) (int64, error)
	MaxOrderWeight(ctx context.Context, listID int64, completed bool) (int64, error)
	ShiftOrderWeight(ctx context.Context, ids []int64, delta int64, at time.Time) (int64, error)
	CountCreatedSince(ctx context.Context, since map[int64]time.Time) (map[int64]int64, error)
	IDsCreatedSince(ctx context.Context, listID int64, since time.Time) ([]int64, error)
}

// TagRepository manages tags and task-to-tag links.
type TagRepository interface {
	FindByName(ctx context.Context, name string) ([]model.Tag, error)
	// Create inserts a tag unless one with the same normalized name exists.
	// created is false when the name was taken, including by a concurrent
	// transaction.
	Create(ctx context.Context, name string) (tag model.Tag, created bool, err error)
	Link(ctx context.Context, taskID, listID int64, tagIDs []int64) error
	Unlink(ctx context.Context, taskID int64) error
	Relink(ctx context.Context, taskID, listID int64) error
}

type ListRepository interface {
	Get(ctx context.Context, id int64) (model.List, error)
	Exists(ctx context.Context, id int64) (bool, error)
	Create(ctx context.Context, l model.List) (model.List, error)
	ByOwner(ctx context.Context, login string) ([]model.List, error)
	Published(ctx context.Context) ([]model.List, error)
	SetShowCompleted(ctx context.Context, id int64, show bool) error
	SetSort(ctx context.Context, id int64, sort model.SortMode) error
}

// Repos groups the repositories bound to one connection or transaction.
type Repos interface {
	Tasks() TaskRepository
	Tags() TagRepository
	Lists() ListRepository
}

// Store hands out repositories and runs units of work atomically.
type Store interface {
	Repos
	// InTx runs fn in a transaction, committing when fn returns nil.
	InTx(ctx context.Context, fn func(Repos) error) error
}
