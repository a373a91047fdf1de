package observability

import (
	"context"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/kbukum/apicall/errors"
	"github.com/kbukum/apicall/httpclient"
	"github.com/kbukum/apicall/logger"
)

// InstrumentOption configures Instrument.
type InstrumentOption func(*instrumented)

// WithTracer sets the tracer. Nil disables tracing.
func WithTracer(t trace.Tracer) InstrumentOption {
	return func(i *instrumented) { i.tracer = t }
}

// WithMetrics sets the instruments. Nil disables metrics.
func WithMetrics(m *Metrics) InstrumentOption {
	return func(i *instrumented) { i.metrics = m }
}

type instrumented struct {
	next    httpclient.Backend
	tracer  trace.Tracer
	metrics *Metrics
}

// Instrument wraps next with tracing and metrics taken from the global
// providers unless overridden by opts.
func Instrument(next httpclient.Backend, opts ...InstrumentOption) httpclient.Backend {
	i := &instrumented{next: next, tracer: Tracer()}
	if m, err := NewMetrics(Meter()); err == nil {
		i.metrics = m
	} else {
		logger.Get("apicall.observability").Warn("metrics disabled", logger.ErrorFields("new_metrics", err))
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

func (i *instrumented) Name() string { return i.next.Name() }

func (i *instrumented) Do(ctx context.Context, req *httpclient.Request) (*httpclient.Response, error) {
	backend := i.next.Name()
	method := req.Method.String()
	start := time.Now()

	var span trace.Span
	if i.tracer != nil {
		ctx, span = i.tracer.Start(ctx, SpanHTTPRequest,
			trace.WithSpanKind(trace.SpanKindClient),
			trace.WithAttributes(
				attribute.String(AttrMethod, method),
				attribute.String(AttrURL, req.URL),
				attribute.String(AttrBackend, backend),
				attribute.String(AttrBodyKind, req.Kind.String()),
			),
		)
		defer span.End()
		req = withTraceHeaders(ctx, req)
	}
	if i.metrics != nil {
		i.metrics.RecordStart(ctx, backend)
	}

	resp, err := i.next.Do(ctx, req)

	status := 0
	if resp != nil {
		status = resp.StatusCode
	}
	outcome := outcomeOf(resp, err)

	if span != nil {
		if status > 0 {
			span.SetAttributes(attribute.Int(AttrStatusCode, status))
		}
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			if e, ok := errors.As(err); ok {
				span.SetAttributes(attribute.String(AttrErrorCode, string(e.Code)))
			}
		} else if status >= 500 {
			span.SetStatus(codes.Error, resp.StatusMessage)
		}
	}
	if i.metrics != nil {
		i.metrics.RecordEnd(ctx, backend, method, outcome, status, time.Since(start))
	}
	return resp, err
}

// withTraceHeaders returns a copy of req carrying the propagated context.
func withTraceHeaders(ctx context.Context, req *httpclient.Request) *httpclient.Request {
	carrier := propagation.MapCarrier{}
	otel.GetTextMapPropagator().Inject(ctx, carrier)
	if len(carrier) == 0 {
		return req
	}
	out := *req
	out.Headers = make(map[string]string, len(req.Headers)+len(carrier))
	for k, v := range req.Headers {
		out.Headers[k] = v
	}
	for k, v := range carrier {
		out.Headers[k] = v
	}
	return &out
}

func outcomeOf(resp *httpclient.Response, err error) string {
	if err != nil {
		if e, ok := errors.As(err); ok {
			if e.Code == errors.ErrCodeStatus {
				return "http_error"
			}
			return strings.ToLower(string(e.Code))
		}
		return "error"
	}
	if resp != nil && !resp.OK {
		return "http_error"
	}
	return "ok"
}
