package observability

import (
	"context"
	"testing"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/kbukum/apicall/errors"
	"github.com/kbukum/apicall/httpclient"
)

func stubBackend(status int, err error, seen *httpclient.Request) httpclient.Backend {
	return httpclient.BackendFunc{
		BackendName: "stub",
		Fn: func(_ context.Context, req *httpclient.Request) (*httpclient.Response, error) {
			if seen != nil {
				*seen = *req
			}
			if status == 0 {
				return nil, err
			}
			p := httpclient.NewPayload(status, "", map[string]string{}, nil, "")
			return httpclient.NewResponse(p), err
		},
	}
}

func newRequest(t *testing.T) *httpclient.Request {
	t.Helper()
	req, err := httpclient.Prepare("http://example.test/users", httpclient.DefaultOptions())
	if err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	return req
}

func spanAttr(span sdktrace.ReadOnlySpan, key string) (attribute.Value, bool) {
	for _, kv := range span.Attributes() {
		if string(kv.Key) == key {
			return kv.Value, true
		}
	}
	return attribute.Value{}, false
}

func TestConfigDefaults(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()
	if cfg.ServiceName != "apicall" {
		t.Errorf("ServiceName = %q", cfg.ServiceName)
	}
	if cfg.SampleRate != 1.0 {
		t.Errorf("SampleRate = %v", cfg.SampleRate)
	}
	if cfg.Interval != 15*time.Second {
		t.Errorf("Interval = %v", cfg.Interval)
	}
	if cfg.Enabled() {
		t.Error("zero config should not be enabled")
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		rate    float64
		wantErr bool
	}{
		{0, false},
		{0.5, false},
		{1, false},
		{-0.1, true},
		{1.5, true},
	}
	for _, tt := range tests {
		cfg := Config{SampleRate: tt.rate}
		if err := cfg.Validate(); (err != nil) != tt.wantErr {
			t.Errorf("Validate(%v) error = %v, wantErr %v", tt.rate, err, tt.wantErr)
		}
	}
}

func TestInstrumentSpan(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	defer tp.Shutdown(context.Background())

	b := Instrument(stubBackend(201, nil, nil),
		WithTracer(tp.Tracer("test")),
		WithMetrics(nil),
	)
	if b.Name() != "stub" {
		t.Errorf("Name() = %q", b.Name())
	}

	if _, err := b.Do(context.Background(), newRequest(t)); err != nil {
		t.Fatalf("Do: %v", err)
	}

	spans := exporter.GetSpans().Snapshots()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	span := spans[0]
	if span.Name() != SpanHTTPRequest {
		t.Errorf("span name = %q", span.Name())
	}
	if v, ok := spanAttr(span, AttrStatusCode); !ok || v.AsInt64() != 201 {
		t.Errorf("status attribute = %v, %v", v, ok)
	}
	if v, ok := spanAttr(span, AttrMethod); !ok || v.AsString() != "GET" {
		t.Errorf("method attribute = %v, %v", v, ok)
	}
	if v, ok := spanAttr(span, AttrBackend); !ok || v.AsString() != "stub" {
		t.Errorf("backend attribute = %v, %v", v, ok)
	}
	if span.Status().Code == codes.Error {
		t.Error("successful call should not mark the span as error")
	}
}

func TestInstrumentSpanError(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	defer tp.Shutdown(context.Background())

	b := Instrument(stubBackend(0, errors.Transport(context.Canceled), nil),
		WithTracer(tp.Tracer("test")),
		WithMetrics(nil),
	)
	if _, err := b.Do(context.Background(), newRequest(t)); !errors.IsTransport(err) {
		t.Fatalf("expected transport error, got %v", err)
	}

	span := exporter.GetSpans().Snapshots()[0]
	if span.Status().Code != codes.Error {
		t.Errorf("span status = %v, want Error", span.Status().Code)
	}
	if v, ok := spanAttr(span, AttrErrorCode); !ok || v.AsString() != string(errors.ErrCodeTransport) {
		t.Errorf("error code attribute = %v, %v", v, ok)
	}
	if len(span.Events()) == 0 {
		t.Error("expected a recorded error event")
	}
}

func TestInstrumentInjectsTraceContext(t *testing.T) {
	prev := otel.GetTextMapPropagator()
	otel.SetTextMapPropagator(propagation.TraceContext{})
	defer otel.SetTextMapPropagator(prev)

	tp := sdktrace.NewTracerProvider()
	defer tp.Shutdown(context.Background())

	var seen httpclient.Request
	b := Instrument(stubBackend(200, nil, &seen),
		WithTracer(tp.Tracer("test")),
		WithMetrics(nil),
	)
	req := newRequest(t)
	if _, err := b.Do(context.Background(), req); err != nil {
		t.Fatalf("Do: %v", err)
	}
	if seen.Headers["traceparent"] == "" {
		t.Errorf("traceparent not injected: %v", seen.Headers)
	}
	if _, ok := req.Headers["traceparent"]; ok {
		t.Error("caller request headers must not be modified")
	}
}

func TestInstrumentMetrics(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer mp.Shutdown(context.Background())

	m, err := NewMetrics(mp.Meter("test"))
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}

	ok := Instrument(stubBackend(200, nil, nil), WithTracer(nil), WithMetrics(m))
	notFound := Instrument(stubBackend(404, nil, nil), WithTracer(nil), WithMetrics(m))

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		if _, err := ok.Do(ctx, newRequest(t)); err != nil {
			t.Fatalf("Do: %v", err)
		}
	}
	if _, err := notFound.Do(ctx, newRequest(t)); err != nil {
		t.Fatalf("Do: %v", err)
	}

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(ctx, &rm); err != nil {
		t.Fatalf("Collect: %v", err)
	}

	outcomes := map[string]int64{}
	var active int64 = -1
	var histCount uint64
	for _, sm := range rm.ScopeMetrics {
		for _, md := range sm.Metrics {
			switch md.Name {
			case MetricRequestTotal:
				sum := md.Data.(metricdata.Sum[int64])
				for _, dp := range sum.DataPoints {
					v, _ := dp.Attributes.Value("outcome")
					outcomes[v.AsString()] += dp.Value
				}
			case MetricRequestActive:
				sum := md.Data.(metricdata.Sum[int64])
				active = 0
				for _, dp := range sum.DataPoints {
					active += dp.Value
				}
			case MetricRequestDuration:
				hist := md.Data.(metricdata.Histogram[float64])
				for _, dp := range hist.DataPoints {
					histCount += dp.Count
				}
			}
		}
	}

	if outcomes["ok"] != 2 || outcomes["http_error"] != 1 {
		t.Errorf("outcomes = %v", outcomes)
	}
	if active != 0 {
		t.Errorf("active = %d, want 0", active)
	}
	if histCount != 3 {
		t.Errorf("duration count = %d, want 3", histCount)
	}
}

func TestNewMetricsNoop(t *testing.T) {
	m, err := NewMetrics(noop.NewMeterProvider().Meter("test"))
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}
	m.RecordStart(context.Background(), "server")
	m.RecordEnd(context.Background(), "server", "GET", "ok", 200, time.Millisecond)
}

func TestOutcomeOf(t *testing.T) {
	ok := httpclient.NewResponse(httpclient.NewPayload(200, "OK", nil, nil, ""))
	bad := httpclient.NewResponse(httpclient.NewPayload(500, "", nil, nil, ""))
	tests := []struct {
		name string
		resp *httpclient.Response
		err  error
		want string
	}{
		{"ok", ok, nil, "ok"},
		{"non-2xx", bad, nil, "http_error"},
		{"status error", bad, errors.Status(500, "Internal Server Error"), "http_error"},
		{"timeout", nil, errors.Timeout(context.DeadlineExceeded), "timeout"},
		{"plain", nil, context.Canceled, "error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := outcomeOf(tt.resp, tt.err); got != tt.want {
				t.Errorf("outcomeOf = %q, want %q", got, tt.want)
			}
		})
	}
}
