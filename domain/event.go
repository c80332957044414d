package domain

// EventType names a change published to the todo event channel.
type EventType string

const (
	TodoCreated EventType = "todo-created"
	TodoUpdated EventType = "todo-updated"
	TodoToggled EventType = "todo-toggled"
	TodoDeleted EventType = "todo-deleted"
)

// ChangeEvent describes a mutation applied to the store. Todo carries the
// record after the change and is empty for deletions.
type ChangeEvent struct {
	ID     string    `json:"id"`
	Type   EventType `json:"type"`
	TodoID int64     `json:"todoId"`
	Todo   *Todo     `json:"todo,omitempty"`
	Time   int64     `json:"time"`
}
