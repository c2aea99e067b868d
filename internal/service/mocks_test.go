package service

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/BuzzLyutic/tasklist/internal/events"
	"github.com/BuzzLyutic/tasklist/internal/model"
	"github.com/BuzzLyutic/tasklist/internal/repo"
)

type MockTaskRepository struct {
	mock.Mock
}

func (m *MockTaskRepository) Get(ctx context.Context, id int64) (model.Task, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.Task), args.Error(1)
}

func (m *MockTaskRepository) Find(ctx context.Context, q model.TaskQuery) ([]model.Task, error) {
	args := m.Called(ctx, q)
	return args.Get(0).([]model.Task), args.Error(1)
}

func (m *MockTaskRepository) Insert(ctx context.Context, t model.Task) (model.Task, error) {
	args := m.Called(ctx, t)
	return args.Get(0).(model.Task), args.Error(1)
}

func (m *MockTaskRepository) Update(ctx context.Context, t model.Task) (int64, error) {
	args := m.Called(ctx, t)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockTaskRepository) SetCompleted(ctx context.Context, id int64, completed bool, ow int64, at time.Time) (int64, error) {
	args := m.Called(ctx, id, completed, ow, at)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockTaskRepository) SetNote(ctx context.Context, id int64, note string, at time.Time) (int64, error) {
	args := m.Called(ctx, id, note, at)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockTaskRepository) SetPriority(ctx context.Context, id int64, prio model.Priority, at time.Time) (int64, error) {
	args := m.Called(ctx, id, prio, at)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockTaskRepository) SetList(ctx context.Context, id, listID, ow int64, at time.Time) (int64, error) {
	args := m.Called(ctx, id, listID, ow, at)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockTaskRepository) Delete(ctx context.Context, id int64) (int64, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockTaskRepository) MaxOrderWeight(ctx context.Context, listID int64, completed bool) (int64, error) {
	args := m.Called(ctx, listID, completed)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockTaskRepository) ShiftOrderWeight(ctx context.Context, ids []int64, delta int64, at time.Time) (int64, error) {
	args := m.Called(ctx, ids, delta, at)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockTaskRepository) CountCreatedSince(ctx context.Context, since map[int64]time.Time) (map[int64]int64, error) {
	args := m.Called(ctx, since)
	return args.Get(0).(map[int64]int64), args.Error(1)
}

func (m *MockTaskRepository) IDsCreatedSince(ctx context.Context, listID int64, since time.Time) ([]int64, error) {
	args := m.Called(ctx, listID, since)
	return args.Get(0).([]int64), args.Error(1)
}

type MockTagRepository struct {
	mock.Mock
}

func (m *MockTagRepository) FindByName(ctx context.Context, name string) ([]model.Tag, error) {
	args := m.Called(ctx, name)
	return args.Get(0).([]model.Tag), args.Error(1)
}

func (m *MockTagRepository) Create(ctx context.Context, name string) (model.Tag, bool, error) {
	args := m.Called(ctx, name)
	return args.Get(0).(model.Tag), args.Bool(1), args.Error(2)
}

func (m *MockTagRepository) Link(ctx context.Context, taskID, listID int64, tagIDs []int64) error {
	return m.Called(ctx, taskID, listID, tagIDs).Error(0)
}

func (m *MockTagRepository) Unlink(ctx context.Context, taskID int64) error {
	return m.Called(ctx, taskID).Error(0)
}

func (m *MockTagRepository) Relink(ctx context.Context, taskID, listID int64) error {
	return m.Called(ctx, taskID, listID).Error(0)
}

type MockListRepository struct {
	mock.Mock
}

func (m *MockListRepository) Get(ctx context.Context, id int64) (model.List, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.List), args.Error(1)
}

func (m *MockListRepository) Exists(ctx context.Context, id int64) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockListRepository) Create(ctx context.Context, l model.List) (model.List, error) {
	args := m.Called(ctx, l)
	return args.Get(0).(model.List), args.Error(1)
}

func (m *MockListRepository) ByOwner(ctx context.Context, login string) ([]model.List, error) {
	args := m.Called(ctx, login)
	return args.Get(0).([]model.List), args.Error(1)
}

func (m *MockListRepository) Published(ctx context.Context) ([]model.List, error) {
	args := m.Called(ctx)
	return args.Get(0).([]model.List), args.Error(1)
}

func (m *MockListRepository) SetShowCompleted(ctx context.Context, id int64, show bool) error {
	return m.Called(ctx, id, show).Error(0)
}

func (m *MockListRepository) SetSort(ctx context.Context, id int64, sort model.SortMode) error {
	return m.Called(ctx, id, sort).Error(0)
}

// fakeStore runs InTx callbacks directly against the mocks. txErr, when set,
// replaces the callback's result the way a failed commit would.
type fakeStore struct {
	tasks *MockTaskRepository
	tags  *MockTagRepository
	lists *MockListRepository
	txErr error
	txs   int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		tasks: new(MockTaskRepository),
		tags:  new(MockTagRepository),
		lists: new(MockListRepository),
	}
}

func (s *fakeStore) Tasks() repo.TaskRepository { return s.tasks }
func (s *fakeStore) Tags() repo.TagRepository   { return s.tags }
func (s *fakeStore) Lists() repo.ListRepository { return s.lists }

func (s *fakeStore) InTx(ctx context.Context, fn func(repo.Repos) error) error {
	s.txs++
	if err := fn(s); err != nil {
		return err
	}
	return s.txErr
}

func (s *fakeStore) assertExpectations(t mock.TestingT) {
	s.tasks.AssertExpectations(t)
	s.tags.AssertExpectations(t)
	s.lists.AssertExpectations(t)
}

// recorder collects posted events.
type recorder struct {
	observed map[events.Kind]bool
	posted   []events.Event
}

func (r *recorder) HasObservers(kind events.Kind) bool { return r.observed[kind] }

func (r *recorder) Post(ctx context.Context, e events.Event) {
	r.posted = append(r.posted, e)
}
