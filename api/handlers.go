package api

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"

	"github.com/bytedance/sonic"
	log "github.com/sirupsen/logrus"

	"todo-api/domain"
	"todo-api/router"
)

var (
	errMalformedID = errors.New("malformed todo id")
	errInvalidBody = errors.New("invalid body")
)

// bodyAPI decodes request bodies. Unknown members are rejected.
var bodyAPI = sonic.Config{
	EscapeHTML:            true,
	SortMapKeys:           true,
	CompactMarshaler:      true,
	CopyString:            true,
	ValidateString:        true,
	DisallowUnknownFields: true,
}.Froze()

// Register wires up all todo routes on the provided router.
func Register(rt *router.Router, store Store, notifier Notifier, logger *log.Logger) {
	feed := newChangeFeed(notifier)
	rt.Register(http.MethodGet, "/todos", listTodos(store, logger))
	rt.Register(http.MethodPost, "/todos", createTodo(store, feed, logger))
	rt.Register(http.MethodGet, "/todos/:id", getTodo(store, logger))
	rt.Register(http.MethodPut, "/todos/:id", updateTodo(store, feed, logger))
	rt.Register(http.MethodDelete, "/todos/:id", deleteTodo(store, feed, logger))
	rt.Register(http.MethodPost, "/todos/:id/toggle", toggleTodo(store, feed, logger))
	rt.Register(http.MethodGet, "/healthz", healthz(store, logger))
}

func healthz(store Store, logger *log.Logger) router.Handler {
	return func(router.Request) router.Response {
		return jsonResponse(logger, http.StatusOK, healthResponse{Status: "ok", Todos: store.Len()})
	}
}

func listTodos(store Store, logger *log.Logger) router.Handler {
	return func(router.Request) router.Response {
		return jsonResponse(logger, http.StatusOK, store.List())
	}
}

func getTodo(store Store, logger *log.Logger) router.Handler {
	return func(req router.Request) router.Response {
		id, err := todoID(req)
		if err != nil {
			logger.Debugf("get todo: %v", err)
			return notFound(logger)
		}
		todo, ok := store.Get(id)
		if !ok {
			return notFound(logger)
		}
		return jsonResponse(logger, http.StatusOK, todo)
	}
}

func createTodo(store Store, feed *changeFeed, logger *log.Logger) router.Handler {
	return func(req router.Request) router.Response {
		in, err := decodeTodo(req)
		if err != nil {
			logger.Debugf("create todo: %v", err)
			if errors.Is(err, errBodyTooLarge) {
				return jsonResponse(logger, http.StatusRequestEntityTooLarge, errorResponse{Error: errBodyTooLarge.Error()})
			}
			return jsonResponse(logger, http.StatusBadRequest, errorResponse{Error: errInvalidBody.Error()})
		}
		todo := store.Create(in.Title, in.Completed)
		feed.emit(domain.TodoCreated, todo.ID, &todo)
		return jsonResponse(logger, http.StatusCreated, todo)
	}
}

// updateTodo checks the id before the body, so any body failure (unparsable,
// oversize, bad gzip) answers 404 like a missing todo does.
func updateTodo(store Store, feed *changeFeed, logger *log.Logger) router.Handler {
	return func(req router.Request) router.Response {
		id, err := todoID(req)
		if err != nil {
			logger.Debugf("update todo: %v", err)
			return notFound(logger)
		}
		if _, ok := store.Get(id); !ok {
			return notFound(logger)
		}
		in, err := decodeTodo(req)
		if err != nil {
			logger.Debugf("update todo %d: %v", id, err)
			return notFound(logger)
		}
		// the todo may have been deleted since the lookup above
		todo, ok := store.Update(id, in.Title, in.Completed)
		if !ok {
			return notFound(logger)
		}
		feed.emit(domain.TodoUpdated, todo.ID, &todo)
		return jsonResponse(logger, http.StatusOK, todo)
	}
}

func deleteTodo(store Store, feed *changeFeed, logger *log.Logger) router.Handler {
	return func(req router.Request) router.Response {
		id, err := todoID(req)
		if err != nil {
			logger.Debugf("delete todo: %v", err)
			return notFound(logger)
		}
		if !store.Delete(id) {
			return notFound(logger)
		}
		feed.emit(domain.TodoDeleted, id, nil)
		return router.Response{Status: http.StatusNoContent}
	}
}

func toggleTodo(store Store, feed *changeFeed, logger *log.Logger) router.Handler {
	return func(req router.Request) router.Response {
		id, err := todoID(req)
		if err != nil {
			logger.Debugf("toggle todo: %v", err)
			return notFound(logger)
		}
		todo, ok := store.Toggle(id)
		if !ok {
			return notFound(logger)
		}
		feed.emit(domain.TodoToggled, todo.ID, &todo)
		return jsonResponse(logger, http.StatusOK, todo)
	}
}

func todoID(req router.Request) (int64, error) {
	id, err := req.Params.Int64("id")
	if err != nil {
		return 0, fmt.Errorf("%w: %v", errMalformedID, err)
	}
	return id, nil
}

func decodeTodo(req router.Request) (domain.TodoInput, error) {
	var in domain.TodoInput
	if req.BodyErr != nil {
		return in, fmt.Errorf("%w: %w", errInvalidBody, req.BodyErr)
	}
	trimmed := bytes.TrimSpace(req.Body)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return in, fmt.Errorf("%w: empty", errInvalidBody)
	}
	if err := bodyAPI.Unmarshal(trimmed, &in); err != nil {
		return domain.TodoInput{}, fmt.Errorf("%w: %v", errInvalidBody, err)
	}
	return in, nil
}

func notFound(logger *log.Logger) router.Response {
	return jsonResponse(logger, http.StatusNotFound, errorResponse{Error: "not found"})
}

// jsonResponse encodes v. Encoding a well-formed value cannot fail, so a
// failure is logged as a bug and answered with 500.
func jsonResponse(logger *log.Logger, status int, v any) router.Response {
	data, err := sonic.Marshal(v)
	if err != nil {
		logger.Errorf("encode response: %v", err)
		return router.Response{
			Status:      http.StatusInternalServerError,
			Body:        []byte(`{"error":"internal error"}`),
			ContentType: contentTypeJSON,
		}
	}
	return router.Response{Status: status, Body: data, ContentType: contentTypeJSON}
}
