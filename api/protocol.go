package api

const (
	defaultMaxBodySize = 64 * 1024 // 64 KiB
	contentTypeJSON    = "application/json"
)

type errorResponse struct {
	Error string `json:"error"`
}

// GET /healthz response body
type healthResponse struct {
	Status string `json:"status"`
	Todos  int    `json:"todos"`
}
