// Package telemetry groups the observability packages of the analysis
// engine.
//
// # Components
//
//   - logging: slog handlers with PII redaction for respondent free text
//   - metrics: Prometheus collectors for analyses, generation, guidelines and cache
//   - tracing: OpenTelemetry spans per pipeline stage, optionally exported over OTLP
//   - health: liveness, readiness and version endpoints
//
// # Usage
//
// Each component is built from its section of config.TelemetryConfig and
// injected where needed. Every component is optional: a nil metrics
// Collector and a nil or disabled Tracer record nothing.
//
//	logger, err := logging.New(cfg.Telemetry.Logging, os.Stderr)
//	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
//	tracer, err := tracing.New(&cfg.Telemetry.Tracing)
//	defer tracer.Shutdown(ctx)
//
//	eng, err := engine.New(source, cfg.Engine,
//	    engine.WithLogger(logger),
//	    engine.WithMetrics(collector),
//	    engine.WithTracer(tracer),
//	)
//
// # PII Protection
//
// Survey answers carry contact details. With redact_pii on (the default)
// log values are masked before they are written:
//
//   - API keys: sk-abc123 → sk-***
//   - Emails: user@example.com → ***@***
//   - Phone numbers: 010-1234-5678 → ***-****-****
//
// Custom redaction patterns can be configured.
package telemetry
