package api

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"todo-api/router"
)

var errBodyTooLarge = errors.New("request body too large")

// Dispatcher bridges echo and the route table. Echo owns the connection; the
// router decides which handler runs.
type Dispatcher struct {
	router  *router.Router
	logger  *log.Logger
	maxBody int64
}

// NewDispatcher returns a Dispatcher. maxBody <= 0 selects the 64 KiB default.
func NewDispatcher(rt *router.Router, logger *log.Logger, maxBody int64) *Dispatcher {
	if rt == nil {
		panic("router is required")
	}
	if logger == nil {
		panic("logger is required")
	}
	if maxBody <= 0 {
		maxBody = defaultMaxBodySize
	}
	return &Dispatcher{router: rt, logger: logger, maxBody: maxBody}
}

// Mount sends every request reaching e to d.
func Mount(e *echo.Echo, d *Dispatcher) {
	e.Any("/*", d.Handle)
}

// Handle resolves the request against the router, runs the handler and writes
// its response.
func (d *Dispatcher) Handle(c echo.Context) (err error) {
	req := c.Request()
	metrics, ctx := newRequestMetrics(req.Context(), d.logger, req.Method)
	defer func() {
		metrics.Log(c.Response().Status, err)
	}()
	metrics.SetRequestID(c.Response().Header().Get(echo.HeaderXRequestID))

	match, ok := d.router.Resolve(req.Method, req.URL.EscapedPath())
	if !ok {
		metrics.SetErrorStage("route")
		return c.JSON(http.StatusNotFound, errorResponse{Error: "not found"})
	}
	metrics.SetRoute(match.Route.Pattern)

	// read failures travel with the request; only the handler knows whether
	// the body matters for its outcome
	body, bodyErr := readBody(req.Body, d.maxBody)

	handleStart := time.Now()
	resp := match.Handler(router.Request{Context: ctx, Params: match.Params, Body: body, BodyErr: bodyErr})
	metrics.ObserveHandle(time.Since(handleStart))

	encodeStart := time.Now()
	if len(resp.Body) == 0 {
		err = c.NoContent(resp.Status)
	} else {
		err = c.Blob(resp.Status, resp.ContentType, resp.Body)
	}
	metrics.ObserveEncode(time.Since(encodeStart))
	switch {
	case err != nil:
		metrics.SetErrorStage("write_response")
	case bodyErr != nil && resp.Status >= http.StatusBadRequest:
		metrics.SetErrorStage("read_body")
	}
	return err
}

func readBody(body io.Reader, limit int64) ([]byte, error) {
	if body == nil || body == http.NoBody {
		return nil, nil
	}
	data, err := io.ReadAll(io.LimitReader(body, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, errBodyTooLarge
	}
	return data, nil
}
