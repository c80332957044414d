package api

import "todo-api/domain"

// Store abstracts the todo collection for handlers.
type Store interface {
	List() []domain.Todo
	Get(id int64) (domain.Todo, bool)
	Create(title string, completed bool) domain.Todo
	Update(id int64, title string, completed bool) (domain.Todo, bool)
	Delete(id int64) bool
	Toggle(id int64) (domain.Todo, bool)
	Len() int
}

// Notifier receives change events after a mutation succeeded. Implementations
// must not block the request.
type Notifier interface {
	Notify(ev domain.ChangeEvent)
}

// NopNotifier discards events. It is used when no event channel is configured.
type NopNotifier struct{}

func (NopNotifier) Notify(domain.ChangeEvent) {}
