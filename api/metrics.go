package api

import (
	"context"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	tracerName        = "todo-api/api"
	requestSpanName   = "todos.request"
	requestLogMessage = "todos.request.metrics"
	unmatchedRoute    = "unmatched"
)

type requestMetrics struct {
	logger         *log.Logger
	span           trace.Span
	start          time.Time
	method         string
	route          string
	requestID      string
	handleDuration time.Duration
	encodeDuration time.Duration
	errorStage     string
}

func newRequestMetrics(ctx context.Context, logger *log.Logger, method string) (*requestMetrics, context.Context) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, requestSpanName, trace.WithSpanKind(trace.SpanKindServer))
	return &requestMetrics{
		logger: logger,
		span:   span,
		start:  time.Now(),
		method: method,
		route:  unmatchedRoute,
	}, ctx
}

func (m *requestMetrics) SetRoute(route string) {
	if route == "" {
		return
	}
	m.route = route
}

func (m *requestMetrics) SetRequestID(id string) {
	m.requestID = id
}

func (m *requestMetrics) ObserveHandle(duration time.Duration) {
	if duration <= 0 {
		return
	}
	m.handleDuration = duration
}

func (m *requestMetrics) ObserveEncode(duration time.Duration) {
	if duration <= 0 {
		return
	}
	m.encodeDuration = duration
}

func (m *requestMetrics) SetErrorStage(stage string) {
	if stage == "" {
		return
	}
	m.errorStage = stage
}

// Log ends the request span and emits one structured log line.
func (m *requestMetrics) Log(status int, err error) {
	if m == nil {
		return
	}
	total := time.Since(m.start)
	severity, _ := severityForStatus(status, err)

	if m.span != nil {
		attrs := []attribute.KeyValue{
			attribute.String("http.route", m.route),
			attribute.String("http.method", m.method),
			attribute.Int("http.status_code", status),
			attribute.Float64("todos.total_ms", durationToMillis(total)),
		}
		if m.errorStage != "" {
			attrs = append(attrs, attribute.String("todos.error_stage", m.errorStage))
		}
		if m.requestID != "" {
			attrs = append(attrs, attribute.String("http.request_id", m.requestID))
		}
		m.span.SetAttributes(attrs...)
		switch {
		case err != nil:
			m.span.RecordError(err)
			m.span.SetStatus(codes.Error, err.Error())
		case status >= http.StatusInternalServerError:
			m.span.SetStatus(codes.Error, http.StatusText(status))
		default:
			m.span.SetStatus(codes.Ok, "")
		}
		m.span.End()
	}

	if m.logger == nil {
		return
	}

	fields := log.Fields{
		"route":         m.route,
		"method":        m.method,
		"status":        status,
		"total_ms":      durationToMillis(total),
		"severity_text": severity,
	}
	if m.handleDuration > 0 {
		fields["handle_ms"] = durationToMillis(m.handleDuration)
	}
	if m.encodeDuration > 0 {
		fields["encode_ms"] = durationToMillis(m.encodeDuration)
	}
	if m.errorStage != "" {
		fields["error_stage"] = m.errorStage
	}
	if m.requestID != "" {
		fields["request_id"] = m.requestID
	}
	if m.span != nil {
		if sc := m.span.SpanContext(); sc.HasTraceID() {
			fields["trace_id"] = sc.TraceID().String()
		}
	}
	if err != nil {
		fields["error"] = err.Error()
	}

	entry := m.logger.WithFields(fields)
	switch severity {
	case "ERROR":
		entry.Error(requestLogMessage)
	case "WARN":
		entry.Warn(requestLogMessage)
	default:
		entry.Info(requestLogMessage)
	}
}

// severityForStatus maps an outcome to OpenTelemetry log severity text and number.
func severityForStatus(status int, err error) (string, int) {
	switch {
	case err != nil || status >= http.StatusInternalServerError:
		return "ERROR", 17
	case status >= http.StatusBadRequest:
		return "WARN", 13
	default:
		return "INFO", 9
	}
}

func durationToMillis(d time.Duration) float64 {
	if d <= 0 {
		return 0
	}
	return float64(d) / float64(time.Millisecond)
}
