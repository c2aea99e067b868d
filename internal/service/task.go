package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/BuzzLyutic/tasklist/internal/duedate"
	"github.com/BuzzLyutic/tasklist/internal/events"
	"github.com/BuzzLyutic/tasklist/internal/model"
	"github.com/BuzzLyutic/tasklist/internal/repo"
	"github.com/BuzzLyutic/tasklist/internal/smartsyntax"
)

// errSkip aborts a transaction whose operation turned out to be a no-op.
var errSkip = errors.New("nothing to do")

// Publisher is the event sink the service reports changes to.
type Publisher interface {
	HasObservers(kind events.Kind) bool
	Post(ctx context.Context, e events.Event)
}

type Options struct {
	// SmartSyntax enables shorthand parsing of quick-add titles.
	SmartSyntax bool
	// AutoTag adds the tags of the caller's current filter to new tasks.
	AutoTag bool
	// DayFirst reads A/B/C due dates as day/month/year.
	DayFirst bool
	Now      func() time.Time
}

// Result reports how many tasks an operation changed. Missing tasks, missing
// lists and blank titles give Affected == 0 and no error.
type Result struct {
	Affected int64
	Task     *model.Task
}

// TaskInput is the structured form of a task used by Add and Edit.
type TaskInput struct {
	Title    string
	Note     string
	Priority int
	// DueDate is parsed by duedate.Resolver; text it cannot read clears the
	// due date.
	DueDate string
	// Tags is a comma-separated list of tag names.
	Tags string
}

// TitleParse is the preview of a quick-add title.
type TitleParse struct {
	Title    string         `json:"title"`
	Priority model.Priority `json:"priority"`
	Tags     []string       `json:"tags"`
	DueDate  string         `json:"due_date"`
}

type TaskService struct {
	store  repo.Store
	parser *smartsyntax.Parser
	events Publisher
	dates  duedate.Resolver
	tags   TagResolver
	ow     OrderWeights
	opts   Options
}

func NewTaskService(store repo.Store, parser *smartsyntax.Parser, events Publisher, opts Options) *TaskService {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if parser == nil {
		parser = smartsyntax.New(duedate.Resolver{DayFirst: opts.DayFirst})
	}
	return &TaskService{
		store:  store,
		parser: parser,
		events: events,
		dates:  duedate.Resolver{DayFirst: opts.DayFirst},
		opts:   opts,
	}
}

// QuickAdd creates a task from a single line of text. With smart syntax on,
// the line may carry priority, tags and due date.
func (s *TaskService) QuickAdd(ctx context.Context, scope model.ListScope, listID int64, raw string, filter TagFilter) (Result, error) {
	now := s.opts.Now()
	t := model.Task{ListID: listID, Title: strings.TrimSpace(raw), CreatedAt: now, EditedAt: now}
	var tags []string

	if s.opts.SmartSyntax {
		res := s.parser.Parse(t.Title, now)
		t.Title = strings.TrimSpace(res.Title)
		t.Priority = model.ClampPriority(int(res.Priority))
		t.DueDate = res.DueDate
		tags = res.Tags
	}
	if t.Title == "" || !scope.Contains(listID) {
		return Result{}, nil
	}
	if s.opts.AutoTag {
		tags = append(tags, filter.Names()...)
	}
	return s.create(ctx, t, tags)
}

// Add creates a task from structured fields.
func (s *TaskService) Add(ctx context.Context, scope model.ListScope, listID int64, in TaskInput, filter TagFilter) (Result, error) {
	now := s.opts.Now()
	t, ok := s.fromInput(in, now)
	if !ok || !scope.Contains(listID) {
		return Result{}, nil
	}
	t.ListID = listID
	t.CreatedAt = now

	tags := SplitTags(in.Tags)
	if s.opts.AutoTag {
		tags = append(tags, filter.Names()...)
	}
	return s.create(ctx, t, tags)
}

func (s *TaskService) create(ctx context.Context, t model.Task, tags []string) (Result, error) {
	var created model.Task
	err := s.store.InTx(ctx, func(r repo.Repos) error {
		exists, err := r.Lists().Exists(ctx, t.ListID)
		if err != nil {
			return err
		}
		if !exists {
			return errSkip
		}

		if t.OW, err = s.ow.Next(ctx, r.Tasks(), t.ListID, false); err != nil {
			return err
		}
		if t, err = r.Tasks().Insert(ctx, t); err != nil {
			return fmt.Errorf("insert task: %w", err)
		}
		if err := s.linkTags(ctx, r, t.ID, t.ListID, tags); err != nil {
			return err
		}
		created, err = r.Tasks().Get(ctx, t.ID)
		return err
	})
	if err != nil {
		return s.skipped(err)
	}

	s.events.Post(ctx, events.Event{Kind: events.TaskCreated, Task: created})
	return Result{Affected: 1, Task: &created}, nil
}

// Edit replaces title, note, priority, due date and the whole tag set.
func (s *TaskService) Edit(ctx context.Context, scope model.ListScope, id int64, in TaskInput) (Result, error) {
	t, ok := s.fromInput(in, s.opts.Now())
	if !ok {
		return Result{}, nil
	}
	t.ID = id

	return s.mutate(ctx, scope, id, events.TaskEdited, events.PropertyAll, func(r repo.Repos, cur model.Task) error {
		if err := r.Tags().Unlink(ctx, id); err != nil {
			return err
		}
		if err := s.linkTags(ctx, r, id, cur.ListID, SplitTags(in.Tags)); err != nil {
			return err
		}
		_, err := r.Tasks().Update(ctx, t)
		return err
	})
}

// Complete marks a task done or open again. The task moves to the end of the
// part of its list it enters.
func (s *TaskService) Complete(ctx context.Context, scope model.ListScope, id int64, done bool) (Result, error) {
	now := s.opts.Now()
	return s.mutate(ctx, scope, id, events.TaskCompleted, events.PropertyAll, func(r repo.Repos, cur model.Task) error {
		ow, err := s.ow.Next(ctx, r.Tasks(), cur.ListID, done)
		if err != nil {
			return err
		}
		_, err = r.Tasks().SetCompleted(ctx, id, done, ow, now)
		return err
	})
}

func (s *TaskService) SetNote(ctx context.Context, scope model.ListScope, id int64, note string) (Result, error) {
	now := s.opts.Now()
	return s.mutate(ctx, scope, id, events.TaskEdited, events.PropertyNote, func(r repo.Repos, cur model.Task) error {
		_, err := r.Tasks().SetNote(ctx, id, normalizeNote(note), now)
		return err
	})
}

func (s *TaskService) SetPriority(ctx context.Context, scope model.ListScope, id int64, prio int) (Result, error) {
	now := s.opts.Now()
	return s.mutate(ctx, scope, id, events.TaskEdited, events.PropertyPriority, func(r repo.Repos, cur model.Task) error {
		_, err := r.Tasks().SetPriority(ctx, id, model.ClampPriority(prio), now)
		return err
	})
}

// Move puts a task at the end of another list, keeping its completion state.
// Moving to the same list or to a list that does not exist changes nothing.
func (s *TaskService) Move(ctx context.Context, scope model.ListScope, id, toList int64) (Result, error) {
	now := s.opts.Now()
	if !scope.Contains(toList) {
		return Result{}, nil
	}
	return s.mutate(ctx, scope, id, events.TaskEdited, events.PropertyList, func(r repo.Repos, cur model.Task) error {
		if cur.ListID == toList {
			return errSkip
		}
		exists, err := r.Lists().Exists(ctx, toList)
		if err != nil {
			return err
		}
		if !exists {
			return errSkip
		}

		ow, err := s.ow.Next(ctx, r.Tasks(), toList, cur.Completed)
		if err != nil {
			return err
		}
		if err := r.Tags().Relink(ctx, id, toList); err != nil {
			return err
		}
		_, err = r.Tasks().SetList(ctx, id, toList, ow, now)
		return err
	})
}

// Delete removes a task and its tag links. The event carries the task as it
// was; the snapshot is only loaded when someone listens.
func (s *TaskService) Delete(ctx context.Context, scope model.ListScope, id int64) (Result, error) {
	var snapshot model.Task
	err := s.store.InTx(ctx, func(r repo.Repos) error {
		cur, err := r.Tasks().Get(ctx, id)
		if errors.Is(err, repo.ErrorNotFound) {
			return errSkip
		}
		if err != nil {
			return err
		}
		if !scope.Contains(cur.ListID) {
			return errSkip
		}
		if s.events.HasObservers(events.TaskDeleted) {
			snapshot = cur
		}

		if err := r.Tags().Unlink(ctx, id); err != nil {
			return err
		}
		n, err := r.Tasks().Delete(ctx, id)
		if err != nil {
			return err
		}
		if n == 0 {
			return errSkip
		}
		return nil
	})
	if err != nil {
		return s.skipped(err)
	}

	if snapshot.ID != 0 {
		s.events.Post(ctx, events.Event{Kind: events.TaskDeleted, Task: snapshot})
	}
	return Result{Affected: 1, Task: &model.Task{ID: id}}, nil
}

// Reorder nudges the manual order of tasks by relative deltas, computed by the
// caller from the last order it saw. Tasks outside scope are left alone.
func (s *TaskService) Reorder(ctx context.Context, scope model.ListScope, deltas []model.OrderDelta) (Result, error) {
	if len(deltas) == 0 {
		return Result{}, nil
	}
	now := s.opts.Now()

	var moved int64
	err := s.store.InTx(ctx, func(r repo.Repos) error {
		allowed := make([]model.OrderDelta, 0, len(deltas))
		for _, d := range deltas {
			cur, err := r.Tasks().Get(ctx, d.TaskID)
			if errors.Is(err, repo.ErrorNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			if scope.Contains(cur.ListID) {
				allowed = append(allowed, d)
			}
		}

		var err error
		moved, err = s.ow.Shift(ctx, r.Tasks(), allowed, now)
		return err
	})
	if err != nil {
		return Result{}, fmt.Errorf("reorder tasks: %w", err)
	}
	return Result{Affected: moved}, nil
}

// ParseTitle previews how QuickAdd would read raw.
func (s *TaskService) ParseTitle(raw string) TitleParse {
	p := TitleParse{Title: strings.TrimSpace(raw), Tags: []string{}}
	if !s.opts.SmartSyntax {
		return p
	}

	res := s.parser.Parse(p.Title, s.opts.Now())
	p.Title = res.Title
	p.Priority = model.ClampPriority(int(res.Priority))
	if res.Tags != nil {
		p.Tags = res.Tags
	}
	if res.DueDate != nil {
		p.DueDate = res.DueDate.String()
	}
	return p
}

// mutate loads the task, applies fn and reloads it, all in one transaction,
// then posts an event of the given kind.
func (s *TaskService) mutate(ctx context.Context, scope model.ListScope, id int64, kind events.Kind, prop events.Property,
	fn func(r repo.Repos, cur model.Task) error) (Result, error) {
	var updated model.Task
	err := s.store.InTx(ctx, func(r repo.Repos) error {
		cur, err := r.Tasks().Get(ctx, id)
		if errors.Is(err, repo.ErrorNotFound) {
			return errSkip
		}
		if err != nil {
			return err
		}
		if !scope.Contains(cur.ListID) {
			return errSkip
		}

		if err := fn(r, cur); err != nil {
			return err
		}
		updated, err = r.Tasks().Get(ctx, id)
		return err
	})
	if err != nil {
		return s.skipped(err)
	}

	s.events.Post(ctx, events.Event{Kind: kind, Property: prop, Task: updated})
	return Result{Affected: 1, Task: &updated}, nil
}

func (s *TaskService) linkTags(ctx context.Context, r repo.Repos, taskID, listID int64, names []string) error {
	ids, _, err := s.tags.IDsForNames(ctx, r.Tags(), names)
	if err != nil {
		return fmt.Errorf("resolve tags: %w", err)
	}
	return r.Tags().Link(ctx, taskID, listID, ids)
}

// fromInput normalizes structured input. ok is false for a blank title.
func (s *TaskService) fromInput(in TaskInput, now time.Time) (model.Task, bool) {
	t := model.Task{
		Title:    strings.TrimSpace(in.Title),
		Note:     normalizeNote(in.Note),
		Priority: model.ClampPriority(in.Priority),
		EditedAt: now,
	}
	if t.Title == "" {
		return t, false
	}
	if d, ok := s.dates.Resolve(strings.TrimSpace(in.DueDate), now); ok {
		t.DueDate = &d
	}
	return t, true
}

func (s *TaskService) skipped(err error) (Result, error) {
	if errors.Is(err, errSkip) {
		return Result{}, nil
	}
	return Result{}, err
}

func normalizeNote(note string) string {
	return strings.ReplaceAll(note, "\r\n", "\n")
}
