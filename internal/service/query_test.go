package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/BuzzLyutic/tasklist/internal/model"
)

func TestTaskQueryBuilder_Build(t *testing.T) {
	store := newFakeStore()
	b := NewTaskQueryBuilder(store)
	ctx := context.Background()

	store.tags.On("FindByName", mock.Anything, "work").Return([]model.Tag{{ID: 1, Name: "work"}}, nil)
	store.tags.On("FindByName", mock.Anything, "home").Return([]model.Tag{{ID: 2, Name: "home"}}, nil)
	store.tags.On("FindByName", mock.Anything, "nowhere").Return([]model.Tag{}, nil)
	store.tags.On("FindByName", mock.Anything, "later").Return([]model.Tag{{ID: 3, Name: "later"}}, nil)

	t.Run("tag groups and exclusions", func(t *testing.T) {
		req := QueryRequest{
			Scope:         model.SingleList(1),
			Tags:          ParseTagFilter("work|nowhere,home,^later"),
			IncludeGroups: [][]int64{{9}},
			Search:        " milk ",
			Sort:          model.SortMode{Kind: model.SortDueDate},
		}
		q, ok, err := b.Build(ctx, req)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, [][]int64{{9}, {1}, {2}}, q.IncludeGroups)
		assert.Equal(t, []int64{3}, q.ExcludeTagIDs)
		assert.Equal(t, "milk", q.Search)
		assert.Equal(t, model.SortDueDate, q.Sort.Kind)
		assert.Equal(t, [][]int64{{9}}, req.IncludeGroups, "request must stay untouched")
	})

	t.Run("unknown include tag matches nothing", func(t *testing.T) {
		_, ok, err := b.Build(ctx, QueryRequest{Scope: model.SingleList(1), Tags: ParseTagFilter("nowhere")})
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("unknown exclude tag is ignored", func(t *testing.T) {
		q, ok, err := b.Build(ctx, QueryRequest{Scope: model.SingleList(1), Tags: ParseTagFilter("^nowhere")})
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Empty(t, q.ExcludeTagIDs)
	})

	t.Run("task id search", func(t *testing.T) {
		q, ok, err := b.Build(ctx, QueryRequest{Scope: model.SingleList(1), Search: "#42"})
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, int64(42), q.TaskID)
		assert.Empty(t, q.Search)
	})

	t.Run("empty scope", func(t *testing.T) {
		_, ok, err := b.Build(ctx, QueryRequest{})
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestTaskQueryBuilder_QuerySavesPreferences(t *testing.T) {
	store := newFakeStore()
	b := NewTaskQueryBuilder(store)
	sort := model.SortMode{Kind: model.SortTitle, Reverse: true}

	store.tasks.On("Find", mock.Anything, mock.MatchedBy(func(q model.TaskQuery) bool {
		return q.ShowCompleted && q.Sort == sort
	})).Return([]model.Task{{ID: 1}}, nil)
	store.lists.On("SetShowCompleted", mock.Anything, int64(1), true).Return(nil)
	store.lists.On("SetSort", mock.Anything, int64(1), sort).Return(nil)

	tasks, err := b.Query(context.Background(), QueryRequest{
		Scope:             model.SingleList(1),
		ShowCompleted:     true,
		Sort:              sort,
		SaveShowCompleted: true,
		SaveSort:          true,
	})
	require.NoError(t, err)
	assert.Len(t, tasks, 1)
	store.assertExpectations(t)
}

func TestTaskQueryBuilder_QueryAcrossListsSkipsPreferences(t *testing.T) {
	store := newFakeStore()
	b := NewTaskQueryBuilder(store)
	store.tasks.On("Find", mock.Anything, mock.Anything).Return([]model.Task{}, nil)

	tasks, err := b.Query(context.Background(), QueryRequest{
		Scope:    model.ListScope{IDs: []int64{1, 2}},
		SaveSort: true,
	})
	require.NoError(t, err)
	assert.NotNil(t, tasks)
	store.lists.AssertNotCalled(t, "SetSort", mock.Anything, mock.Anything, mock.Anything)
}

func TestTaskQueryBuilder_CountNew(t *testing.T) {
	store := newFakeStore()
	b := NewTaskQueryBuilder(store)
	since := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	store.tasks.On("CountCreatedSince", mock.Anything, map[int64]time.Time{1: since}).
		Return(map[int64]int64{1: 2}, nil)
	store.tasks.On("IDsCreatedSince", mock.Anything, int64(1), since).Return([]int64{5, 6}, nil)

	counts, err := b.CountNew(context.Background(), model.SingleList(1),
		map[int64]time.Time{1: since, 7: since, 2: {}}, 1, since)
	require.NoError(t, err)
	assert.Equal(t, map[int64]int64{1: 2}, counts.Lists)
	assert.Equal(t, []int64{5, 6}, counts.Tasks)
	store.assertExpectations(t)
}
