package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/BuzzLyutic/tasklist/internal/duedate"
	"github.com/BuzzLyutic/tasklist/internal/events"
	"github.com/BuzzLyutic/tasklist/internal/model"
	"github.com/BuzzLyutic/tasklist/internal/repo"
)

var fixedNow = time.Date(2024, time.March, 10, 9, 30, 0, 0, time.UTC)

func newTestService(store *fakeStore, rec *recorder, smart, autotag bool) *TaskService {
	return NewTaskService(store, nil, rec, Options{
		SmartSyntax: smart,
		AutoTag:     autotag,
		Now:         func() time.Time { return fixedNow },
	})
}

func TestTaskService_QuickAdd(t *testing.T) {
	store := newFakeStore()
	rec := &recorder{}
	svc := newTestService(store, rec, true, true)
	ctx := context.Background()

	store.lists.On("Exists", mock.Anything, int64(1)).Return(true, nil)
	store.tasks.On("MaxOrderWeight", mock.Anything, int64(1), false).Return(int64(4), nil)
	store.tasks.On("Insert", mock.Anything, mock.MatchedBy(func(t model.Task) bool {
		return t.Title == "Buy milk" && t.Priority == model.PriorityLow && t.OW == 5 &&
			t.DueDate != nil && t.DueDate.String() == "2024-03-13" && t.ListID == 1
	})).Return(model.Task{ID: 7, ListID: 1}, nil)
	store.tags.On("FindByName", mock.Anything, "errand").Return([]model.Tag{{ID: 3, Name: "errand"}}, nil)
	store.tags.On("FindByName", mock.Anything, "home").Return([]model.Tag{}, nil).Once()
	store.tags.On("Create", mock.Anything, "home").Return(model.Tag{ID: 9, Name: "home"}, true, nil)
	store.tags.On("Link", mock.Anything, int64(7), int64(1), []int64{3, 9}).Return(nil)
	store.tasks.On("Get", mock.Anything, int64(7)).Return(model.Task{ID: 7, ListID: 1, Title: "Buy milk"}, nil)

	res, err := svc.QuickAdd(ctx, model.SingleList(1), 1, "-1 Buy milk #errand @3d", TagFilter{Include: [][]string{{"home"}}})
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.Affected)
	require.NotNil(t, res.Task)
	assert.Equal(t, int64(7), res.Task.ID)

	require.Len(t, rec.posted, 1)
	assert.Equal(t, events.TaskCreated, rec.posted[0].Kind)
	store.assertExpectations(t)
}

func TestTaskService_QuickAddNoOps(t *testing.T) {
	tests := []struct {
		name  string
		scope model.ListScope
		raw   string
		setup func(*fakeStore)
	}{
		{
			name:  "blank title",
			scope: model.SingleList(1),
			raw:   "   ",
			setup: func(*fakeStore) {},
		},
		{
			name:  "only syntax",
			scope: model.SingleList(1),
			raw:   "#tag @2d",
			setup: func(*fakeStore) {},
		},
		{
			name:  "list outside scope",
			scope: model.SingleList(2),
			raw:   "task",
			setup: func(*fakeStore) {},
		},
		{
			name:  "missing list",
			scope: model.SingleList(1),
			raw:   "task",
			setup: func(s *fakeStore) {
				s.lists.On("Exists", mock.Anything, int64(1)).Return(false, nil)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newFakeStore()
			rec := &recorder{}
			tt.setup(store)

			res, err := newTestService(store, rec, true, false).QuickAdd(context.Background(), tt.scope, 1, tt.raw, TagFilter{})
			require.NoError(t, err)
			assert.Zero(t, res.Affected)
			assert.Nil(t, res.Task)
			assert.Empty(t, rec.posted)
			store.assertExpectations(t)
		})
	}
}

func TestTaskService_QuickAddWithoutSmartSyntax(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, &recorder{}, false, false)

	store.lists.On("Exists", mock.Anything, int64(1)).Return(true, nil)
	store.tasks.On("MaxOrderWeight", mock.Anything, int64(1), false).Return(int64(0), nil)
	store.tasks.On("Insert", mock.Anything, mock.MatchedBy(func(t model.Task) bool {
		return t.Title == "+2 literal #not @tag" && t.Priority == model.PriorityNormal && t.DueDate == nil && t.OW == 1
	})).Return(model.Task{ID: 1, ListID: 1}, nil)
	store.tags.On("Link", mock.Anything, int64(1), int64(1), []int64{}).Return(nil)
	store.tasks.On("Get", mock.Anything, int64(1)).Return(model.Task{ID: 1}, nil)

	res, err := svc.QuickAdd(context.Background(), model.SingleList(1), 1, "+2 literal #not @tag", TagFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.Affected)
	store.assertExpectations(t)
}

func TestTaskService_Add(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, &recorder{}, true, false)

	store.lists.On("Exists", mock.Anything, int64(1)).Return(true, nil)
	store.tasks.On("MaxOrderWeight", mock.Anything, int64(1), false).Return(int64(0), nil)
	store.tasks.On("Insert", mock.Anything, mock.MatchedBy(func(t model.Task) bool {
		return t.Title == "Report" && t.Note == "line1\nline2" && t.Priority == model.PriorityHigh &&
			t.DueDate != nil && *t.DueDate == (duedate.Date{Year: 2024, Month: time.April, Day: 1})
	})).Return(model.Task{ID: 2, ListID: 1}, nil)
	store.tags.On("FindByName", mock.Anything, "work").Return([]model.Tag{{ID: 5, Name: "Work"}}, nil)
	store.tags.On("FindByName", mock.Anything, "WORK").Return([]model.Tag{{ID: 5, Name: "Work"}}, nil)
	store.tags.On("Link", mock.Anything, int64(2), int64(1), []int64{5}).Return(nil)
	store.tasks.On("Get", mock.Anything, int64(2)).Return(model.Task{ID: 2}, nil)

	res, err := svc.Add(context.Background(), model.SingleList(1), 1, TaskInput{
		Title:    " Report ",
		Note:     "line1\r\nline2",
		Priority: 7,
		DueDate:  "2024-04-01",
		Tags:     "work, WORK",
	}, TagFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.Affected)
	store.assertExpectations(t)
}

func TestTaskService_Edit(t *testing.T) {
	store := newFakeStore()
	rec := &recorder{}
	svc := newTestService(store, rec, true, false)

	store.tasks.On("Get", mock.Anything, int64(4)).Return(model.Task{ID: 4, ListID: 1}, nil)
	store.tags.On("Unlink", mock.Anything, int64(4)).Return(nil)
	store.tags.On("Link", mock.Anything, int64(4), int64(1), []int64{}).Return(nil)
	store.tasks.On("Update", mock.Anything, mock.MatchedBy(func(t model.Task) bool {
		return t.ID == 4 && t.Title == "renamed" && t.DueDate == nil && t.Priority == model.PriorityLow
	})).Return(int64(1), nil)

	res, err := svc.Edit(context.Background(), model.SingleList(1), 4, TaskInput{Title: "renamed", Priority: -5, DueDate: "garbage"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.Affected)

	require.Len(t, rec.posted, 1)
	assert.Equal(t, events.TaskEdited, rec.posted[0].Kind)
	assert.Equal(t, events.PropertyAll, rec.posted[0].Property)
	store.assertExpectations(t)
}

func TestTaskService_EditNoOps(t *testing.T) {
	t.Run("blank title", func(t *testing.T) {
		store := newFakeStore()
		res, err := newTestService(store, &recorder{}, true, false).
			Edit(context.Background(), model.SingleList(1), 4, TaskInput{Title: " "})
		require.NoError(t, err)
		assert.Zero(t, res.Affected)
		assert.Zero(t, store.txs)
	})

	t.Run("missing task", func(t *testing.T) {
		store := newFakeStore()
		store.tasks.On("Get", mock.Anything, int64(4)).Return(model.Task{}, repo.ErrorNotFound)
		res, err := newTestService(store, &recorder{}, true, false).
			Edit(context.Background(), model.SingleList(1), 4, TaskInput{Title: "x"})
		require.NoError(t, err)
		assert.Zero(t, res.Affected)
	})

	t.Run("task in a list outside scope", func(t *testing.T) {
		store := newFakeStore()
		store.tasks.On("Get", mock.Anything, int64(4)).Return(model.Task{ID: 4, ListID: 9}, nil)
		rec := &recorder{}
		res, err := newTestService(store, rec, true, false).
			Edit(context.Background(), model.SingleList(1), 4, TaskInput{Title: "x"})
		require.NoError(t, err)
		assert.Zero(t, res.Affected)
		assert.Empty(t, rec.posted)
		store.assertExpectations(t)
	})
}

func TestTaskService_Complete(t *testing.T) {
	for _, done := range []bool{true, false} {
		store := newFakeStore()
		rec := &recorder{}
		svc := newTestService(store, rec, true, false)

		store.tasks.On("Get", mock.Anything, int64(3)).Return(model.Task{ID: 3, ListID: 2, Completed: !done}, nil)
		store.tasks.On("MaxOrderWeight", mock.Anything, int64(2), done).Return(int64(11), nil)
		store.tasks.On("SetCompleted", mock.Anything, int64(3), done, int64(12), fixedNow).Return(int64(1), nil)

		res, err := svc.Complete(context.Background(), model.SingleList(2), 3, done)
		require.NoError(t, err)
		assert.Equal(t, int64(1), res.Affected)
		require.Len(t, rec.posted, 1)
		assert.Equal(t, events.TaskCompleted, rec.posted[0].Kind)
		store.assertExpectations(t)
	}
}

func TestTaskService_SetNoteAndPriority(t *testing.T) {
	store := newFakeStore()
	rec := &recorder{}
	svc := newTestService(store, rec, true, false)
	ctx := context.Background()

	store.tasks.On("Get", mock.Anything, int64(3)).Return(model.Task{ID: 3, ListID: 1}, nil)
	store.tasks.On("SetNote", mock.Anything, int64(3), "a\nb", fixedNow).Return(int64(1), nil)
	store.tasks.On("SetPriority", mock.Anything, int64(3), model.PriorityHigh, fixedNow).Return(int64(1), nil)

	_, err := svc.SetNote(ctx, model.SingleList(1), 3, "a\r\nb")
	require.NoError(t, err)
	_, err = svc.SetPriority(ctx, model.SingleList(1), 3, 99)
	require.NoError(t, err)

	require.Len(t, rec.posted, 2)
	assert.Equal(t, events.PropertyNote, rec.posted[0].Property)
	assert.Equal(t, events.PropertyPriority, rec.posted[1].Property)
	store.assertExpectations(t)
}

func TestTaskService_Move(t *testing.T) {
	scope := model.ListScope{IDs: []int64{1, 2, 3}}

	t.Run("to another list", func(t *testing.T) {
		store := newFakeStore()
		rec := &recorder{}
		store.tasks.On("Get", mock.Anything, int64(5)).Return(model.Task{ID: 5, ListID: 1, Completed: true}, nil)
		store.lists.On("Exists", mock.Anything, int64(2)).Return(true, nil)
		store.tasks.On("MaxOrderWeight", mock.Anything, int64(2), true).Return(int64(0), nil)
		store.tags.On("Relink", mock.Anything, int64(5), int64(2)).Return(nil)
		store.tasks.On("SetList", mock.Anything, int64(5), int64(2), int64(1), fixedNow).Return(int64(1), nil)

		res, err := newTestService(store, rec, true, false).Move(context.Background(), scope, 5, 2)
		require.NoError(t, err)
		assert.Equal(t, int64(1), res.Affected)
		require.Len(t, rec.posted, 1)
		assert.Equal(t, events.PropertyList, rec.posted[0].Property)
		store.assertExpectations(t)
	})

	t.Run("to the same list", func(t *testing.T) {
		store := newFakeStore()
		store.tasks.On("Get", mock.Anything, int64(5)).Return(model.Task{ID: 5, ListID: 1}, nil)

		res, err := newTestService(store, &recorder{}, true, false).Move(context.Background(), scope, 5, 1)
		require.NoError(t, err)
		assert.Zero(t, res.Affected)
		store.assertExpectations(t)
	})

	t.Run("to a missing list", func(t *testing.T) {
		store := newFakeStore()
		store.tasks.On("Get", mock.Anything, int64(5)).Return(model.Task{ID: 5, ListID: 1}, nil)
		store.lists.On("Exists", mock.Anything, int64(3)).Return(false, nil)

		res, err := newTestService(store, &recorder{}, true, false).Move(context.Background(), scope, 5, 3)
		require.NoError(t, err)
		assert.Zero(t, res.Affected)
		store.assertExpectations(t)
	})

	t.Run("to a list outside scope", func(t *testing.T) {
		store := newFakeStore()
		res, err := newTestService(store, &recorder{}, true, false).Move(context.Background(), scope, 5, 42)
		require.NoError(t, err)
		assert.Zero(t, res.Affected)
		assert.Zero(t, store.txs)
	})
}

func TestTaskService_Delete(t *testing.T) {
	t.Run("snapshot for observers", func(t *testing.T) {
		store := newFakeStore()
		rec := &recorder{observed: map[events.Kind]bool{events.TaskDeleted: true}}
		store.tasks.On("Get", mock.Anything, int64(8)).Return(model.Task{ID: 8, ListID: 1, Title: "gone"}, nil)
		store.tags.On("Unlink", mock.Anything, int64(8)).Return(nil)
		store.tasks.On("Delete", mock.Anything, int64(8)).Return(int64(1), nil)

		res, err := newTestService(store, rec, true, false).Delete(context.Background(), model.SingleList(1), 8)
		require.NoError(t, err)
		assert.Equal(t, int64(1), res.Affected)
		require.Len(t, rec.posted, 1)
		assert.Equal(t, "gone", rec.posted[0].Task.Title)
		store.assertExpectations(t)
	})

	t.Run("no observers no event", func(t *testing.T) {
		store := newFakeStore()
		rec := &recorder{}
		store.tasks.On("Get", mock.Anything, int64(8)).Return(model.Task{ID: 8, ListID: 1}, nil)
		store.tags.On("Unlink", mock.Anything, int64(8)).Return(nil)
		store.tasks.On("Delete", mock.Anything, int64(8)).Return(int64(1), nil)

		res, err := newTestService(store, rec, true, false).Delete(context.Background(), model.SingleList(1), 8)
		require.NoError(t, err)
		assert.Equal(t, int64(1), res.Affected)
		assert.Empty(t, rec.posted)
	})

	t.Run("missing task", func(t *testing.T) {
		store := newFakeStore()
		rec := &recorder{observed: map[events.Kind]bool{events.TaskDeleted: true}}
		store.tasks.On("Get", mock.Anything, int64(8)).Return(model.Task{}, repo.ErrorNotFound)

		res, err := newTestService(store, rec, true, false).Delete(context.Background(), model.SingleList(1), 8)
		require.NoError(t, err)
		assert.Zero(t, res.Affected)
		assert.Empty(t, rec.posted)
	})
}

func TestTaskService_FailedCommitPostsNothing(t *testing.T) {
	store := newFakeStore()
	store.txErr = errors.New("commit failed")
	rec := &recorder{observed: map[events.Kind]bool{events.TaskDeleted: true}}
	store.tasks.On("Get", mock.Anything, int64(8)).Return(model.Task{ID: 8, ListID: 1}, nil)
	store.tags.On("Unlink", mock.Anything, int64(8)).Return(nil)
	store.tasks.On("Delete", mock.Anything, int64(8)).Return(int64(1), nil)

	res, err := newTestService(store, rec, true, false).Delete(context.Background(), model.SingleList(1), 8)
	require.Error(t, err)
	assert.Zero(t, res.Affected)
	assert.Empty(t, rec.posted)
}

func TestTaskService_StorageErrorPropagates(t *testing.T) {
	store := newFakeStore()
	boom := errors.New("connection reset")
	store.tasks.On("Get", mock.Anything, int64(3)).Return(model.Task{}, boom)

	_, err := newTestService(store, &recorder{}, true, false).Complete(context.Background(), model.SingleList(1), 3, true)
	assert.ErrorIs(t, err, boom)
}

func TestTaskService_Reorder(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, &recorder{}, true, false)

	store.tasks.On("Get", mock.Anything, int64(1)).Return(model.Task{ID: 1, ListID: 1}, nil)
	store.tasks.On("Get", mock.Anything, int64(2)).Return(model.Task{ID: 2, ListID: 1}, nil)
	store.tasks.On("Get", mock.Anything, int64(3)).Return(model.Task{ID: 3, ListID: 1}, nil)
	store.tasks.On("Get", mock.Anything, int64(4)).Return(model.Task{ID: 4, ListID: 9}, nil)
	store.tasks.On("Get", mock.Anything, int64(5)).Return(model.Task{}, repo.ErrorNotFound)
	store.tasks.On("ShiftOrderWeight", mock.Anything, []int64{3}, int64(-2), fixedNow).Return(int64(1), nil)
	store.tasks.On("ShiftOrderWeight", mock.Anything, []int64{1, 2}, int64(1), fixedNow).Return(int64(2), nil)

	res, err := svc.Reorder(context.Background(), model.SingleList(1), []model.OrderDelta{
		{TaskID: 1, Delta: 1},
		{TaskID: 2, Delta: 1},
		{TaskID: 3, Delta: -2},
		{TaskID: 4, Delta: 1},
		{TaskID: 5, Delta: 1},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(3), res.Affected)
	store.assertExpectations(t)
}

func TestTaskService_ParseTitle(t *testing.T) {
	svc := newTestService(newFakeStore(), &recorder{}, true, false)

	p := svc.ParseTitle("+1 Call mom #family @1d")
	assert.Equal(t, "Call mom", p.Title)
	assert.Equal(t, model.PriorityHigh, p.Priority)
	assert.Equal(t, "2024-03-11", p.DueDate)
	assert.Equal(t, []string{"family"}, p.Tags)

	plain := newTestService(newFakeStore(), &recorder{}, false, false).ParseTitle(" +1 x #y ")
	assert.Equal(t, "+1 x #y", plain.Title)
	assert.Empty(t, plain.Tags)
}
