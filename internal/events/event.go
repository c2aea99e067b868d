package events

import "github.com/BuzzLyutic/tasklist/internal/model"

type Kind string

const (
	TaskCreated   Kind = "created"
	TaskEdited    Kind = "edited"
	TaskCompleted Kind = "completed"
	TaskDeleted   Kind = "deleted"
)

// Property names the field an edit touched. Full edits leave it empty.
type Property string

const (
	PropertyAll      Property = ""
	PropertyNote     Property = "note"
	PropertyPriority Property = "priority"
	PropertyList     Property = "list"
)

// Event carries the task as it was after the change; for TaskDeleted, as it
// was before.
type Event struct {
	Kind     Kind
	Task     model.Task
	Property Property
}
