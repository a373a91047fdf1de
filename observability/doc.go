// Package observability wires OpenTelemetry tracing and metrics into
// apicall backends.
//
// Instrument wraps any backend so every call runs inside an http.request
// span and feeds the apicall.request.* instruments:
//
//	tp, err := observability.InitTracer(ctx, cfg)
//	defer tp.Shutdown(ctx)
//
//	backend = observability.Instrument(backend)
//
// The active trace context is injected into the outgoing request headers
// with the global propagator.
package observability
