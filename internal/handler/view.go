package handler

import (
	"time"

	"github.com/BuzzLyutic/tasklist/internal/duedate"
	"github.com/BuzzLyutic/tasklist/internal/i18n"
	"github.com/BuzzLyutic/tasklist/internal/model"
)

// noDueInt sorts tasks without a due date after every real date.
const noDueInt = 33330000

// TaskView is a task as the client renders it.
type TaskView struct {
	model.Task
	TagNames []string       `json:"tag_names"`
	DueClass duedate.Bucket `json:"due_class"`
	DueLabel string         `json:"due_label"`
	DueInt   int            `json:"due_int"`
}

func newTaskView(t model.Task, labels i18n.Labels, now time.Time) TaskView {
	v := TaskView{Task: t, TagNames: t.TagNames(), DueInt: noDueInt}
	if t.Tags == nil {
		v.Tags = []model.Tag{}
	}
	if t.DueDate != nil {
		c := duedate.Classify(*t.DueDate, now)
		v.DueClass = c.Bucket
		v.DueLabel = labels.Label(c, *t.DueDate)
		v.DueInt = t.DueDate.Int()
	}
	return v
}

func newTaskViews(tasks []model.Task, labels i18n.Labels, now time.Time) []TaskView {
	views := make([]TaskView, len(tasks))
	for i, t := range tasks {
		views[i] = newTaskView(t, labels, now)
	}
	return views
}
