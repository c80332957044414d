package storage

import (
	"sync"
	"sync/atomic"

	"todo-api/domain"
)

// Memory holds todos for the lifetime of the process. It is safe for
// concurrent use. Values handed out are copies; callers never alias the
// records kept here.
type Memory struct {
	lastID atomic.Int64

	mu    sync.RWMutex
	todos []*domain.Todo
	index map[int64]int
}

// NewMemory returns an empty store whose first issued id is 1.
func NewMemory() *Memory {
	return &Memory{index: make(map[int64]int)}
}

// List returns a snapshot of all todos in insertion order.
func (m *Memory) List() []domain.Todo {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]domain.Todo, len(m.todos))
	for i, t := range m.todos {
		out[i] = *t
	}
	return out
}

// Len reports how many todos are held.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.todos)
}

// Get looks up a todo by id.
func (m *Memory) Get(id int64) (domain.Todo, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	t := m.lookup(id)
	if t == nil {
		return domain.Todo{}, false
	}
	return *t, true
}

// Create assigns the next id and appends a new todo.
func (m *Memory) Create(title string, completed bool) domain.Todo {
	m.mu.Lock()
	defer m.mu.Unlock()

	// issued under the write lock so list order follows id order
	t := &domain.Todo{
		ID:        m.lastID.Add(1),
		Title:     title,
		Completed: completed,
	}
	m.index[t.ID] = len(m.todos)
	m.todos = append(m.todos, t)
	return *t
}

// Update replaces title and completed of an existing todo. The id is never
// changed.
func (m *Memory) Update(id int64, title string, completed bool) (domain.Todo, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t := m.lookup(id)
	if t == nil {
		return domain.Todo{}, false
	}
	t.Title = title
	t.Completed = completed
	return *t, true
}

// Toggle flips the completed flag.
func (m *Memory) Toggle(id int64) (domain.Todo, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t := m.lookup(id)
	if t == nil {
		return domain.Todo{}, false
	}
	t.Completed = !t.Completed
	return *t, true
}

// Delete removes a todo and reports whether anything was removed.
func (m *Memory) Delete(id int64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	pos, ok := m.index[id]
	if !ok {
		return false
	}
	delete(m.index, id)
	copy(m.todos[pos:], m.todos[pos+1:])
	m.todos[len(m.todos)-1] = nil
	m.todos = m.todos[:len(m.todos)-1]
	for i := pos; i < len(m.todos); i++ {
		m.index[m.todos[i].ID] = i
	}
	return true
}

// lookup must be called with mu held.
func (m *Memory) lookup(id int64) *domain.Todo {
	pos, ok := m.index[id]
	if !ok {
		return nil
	}
	return m.todos[pos]
}
