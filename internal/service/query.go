package service

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/BuzzLyutic/tasklist/internal/model"
	"github.com/BuzzLyutic/tasklist/internal/repo"
)

var taskIDSearchRe = regexp.MustCompile(`^#(\d+)$`)

// QueryRequest describes a task listing. Scope must already be limited to
// lists the caller may read.
type QueryRequest struct {
	Scope         model.ListScope
	ShowCompleted bool
	Tags          TagFilter
	// IncludeGroups and ExcludeIDs add filters on resolved tag ids.
	IncludeGroups [][]int64
	ExcludeIDs    []int64
	Search        string
	Sort          model.SortMode
	// SaveShowCompleted and SaveSort store the choice on the list when the
	// scope is a single list.
	SaveShowCompleted bool
	SaveSort          bool
}

type TaskQueryBuilder struct {
	store repo.Store
	tags  TagResolver
}

func NewTaskQueryBuilder(store repo.Store) *TaskQueryBuilder {
	return &TaskQueryBuilder{store: store}
}

func (b *TaskQueryBuilder) Query(ctx context.Context, req QueryRequest) ([]model.Task, error) {
	q, ok, err := b.Build(ctx, req)
	if err != nil {
		return nil, err
	}

	tasks := make([]model.Task, 0)
	if ok {
		tasks, err = b.store.Tasks().Find(ctx, q)
		if err != nil {
			return nil, err
		}
	}

	if err := b.savePrefs(ctx, req); err != nil {
		return nil, err
	}
	return tasks, nil
}

// Build resolves req into a storage query. ok is false when the filter can
// match nothing, such as a tag name that does not exist.
func (b *TaskQueryBuilder) Build(ctx context.Context, req QueryRequest) (q model.TaskQuery, ok bool, err error) {
	q = model.TaskQuery{
		ListIDs:       req.Scope.IDs,
		ShowCompleted: req.ShowCompleted,
		Sort:          req.Sort,
		IncludeGroups: append([][]int64(nil), req.IncludeGroups...),
		ExcludeTagIDs: append([]int64(nil), req.ExcludeIDs...),
	}
	if len(q.ListIDs) == 0 {
		return q, false, nil
	}

	tags := b.store.Tags()
	for _, group := range req.Tags.Include {
		var ids []int64
		for _, name := range group {
			found, err := b.tags.IDsMatching(ctx, tags, name)
			if err != nil {
				return q, false, fmt.Errorf("resolve tag filter: %w", err)
			}
			ids = append(ids, found...)
		}
		if len(ids) == 0 {
			return q, false, nil
		}
		q.IncludeGroups = append(q.IncludeGroups, ids)
	}
	for _, name := range req.Tags.Exclude {
		found, err := b.tags.IDsMatching(ctx, tags, name)
		if err != nil {
			return q, false, fmt.Errorf("resolve tag filter: %w", err)
		}
		q.ExcludeTagIDs = append(q.ExcludeTagIDs, found...)
	}
	for _, group := range q.IncludeGroups {
		if len(group) == 0 {
			return q, false, nil
		}
	}

	search := strings.TrimSpace(req.Search)
	if m := taskIDSearchRe.FindStringSubmatch(search); m != nil {
		id, err := strconv.ParseInt(m[1], 10, 64)
		if err != nil {
			return q, false, nil
		}
		q.TaskID = id
	} else {
		q.Search = search
	}
	return q, true, nil
}

func (b *TaskQueryBuilder) savePrefs(ctx context.Context, req QueryRequest) error {
	if len(req.Scope.IDs) != 1 {
		return nil
	}
	listID := req.Scope.IDs[0]
	lists := b.store.Lists()

	if req.SaveShowCompleted {
		if err := lists.SetShowCompleted(ctx, listID, req.ShowCompleted); err != nil {
			return fmt.Errorf("save show-completed of list %d: %w", listID, err)
		}
	}
	if req.SaveSort {
		if err := lists.SetSort(ctx, listID, req.Sort); err != nil {
			return fmt.Errorf("save sort of list %d: %w", listID, err)
		}
	}
	return nil
}

// Get returns one task with its tags, or repo.ErrorNotFound.
func (b *TaskQueryBuilder) Get(ctx context.Context, id int64) (model.Task, error) {
	return b.store.Tasks().Get(ctx, id)
}

// NewCounts reports tasks created after a point in time.
type NewCounts struct {
	// Lists maps list id to the number of new tasks.
	Lists map[int64]int64 `json:"lists"`
	// Tasks holds the ids of new tasks in the list asked about in detail.
	Tasks []int64 `json:"tasks"`
}

// CountNew counts tasks created in each list after the given time; for
// detailList it also returns the ids. Lists outside scope are ignored.
func (b *TaskQueryBuilder) CountNew(ctx context.Context, scope model.ListScope, since map[int64]time.Time, detailList int64, detailSince time.Time) (NewCounts, error) {
	allowed := make(map[int64]bool, len(scope.IDs))
	for _, id := range scope.IDs {
		allowed[id] = true
	}

	filtered := make(map[int64]time.Time, len(since))
	for id, ts := range since {
		if allowed[id] && !ts.IsZero() {
			filtered[id] = ts
		}
	}

	counts, err := b.store.Tasks().CountCreatedSince(ctx, filtered)
	if err != nil {
		return NewCounts{}, err
	}
	res := NewCounts{Lists: counts, Tasks: []int64{}}

	if allowed[detailList] && !detailSince.IsZero() {
		res.Tasks, err = b.store.Tasks().IDsCreatedSince(ctx, detailList, detailSince)
		if err != nil {
			return NewCounts{}, err
		}
	}
	return res, nil
}
