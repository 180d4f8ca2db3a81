// Package tracing provides OpenTelemetry spans for analysis runs.
//
// # Overview
//
// Every analysis run opens a root span and one child span per pipeline
// stage (load, roles, reconcile, compile, analyze, generate, merge, persist).
// Stage spans carry engine attributes such as the campaign id, guideline
// pack id, compile outcome and generation attempt count.
//
// # Sampling
//
// Runs are sampled by trace id ratio. A ratio of 1.0 records every run and
// 0.0 records none. Child spans follow the decision of their parent.
//
// # Exporters
//
// With exporter "otlp" spans are batched to an OTLP gRPC collector:
//
//	telemetry:
//	  tracing:
//	    enabled: true
//	    exporter: otlp
//	    endpoint: otel-collector:4317
//	    otlp:
//	      insecure: true
//
// Additional span processors, such as a tracetest recorder in tests, are
// attached through the variadic provider options of New:
//
//	tracer, err := tracing.New(&cfg.Telemetry.Tracing,
//	    sdktrace.WithSpanProcessor(recorder),
//	)
//	defer tracer.Shutdown(ctx)
//
// When tracing is disabled New returns a noop tracer, so instrumented code
// never needs to check whether tracing is on.
package tracing
