package domain

// Todo is a single task held by the store.
type Todo struct {
	ID        int64  `json:"id"`
	Title     string `json:"title"`
	Completed bool   `json:"completed"`
}

// TodoInput is the body accepted by create and update. A client supplied id is
// read and discarded; the store owns identifiers.
type TodoInput struct {
	ID        *int64 `json:"id,omitempty"`
	Title     string `json:"title"`
	Completed bool   `json:"completed"`
}
