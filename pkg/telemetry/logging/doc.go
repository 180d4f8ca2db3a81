// Package logging builds the engine's structured logger.
//
// New returns a *slog.Logger whose handler is chosen by the configured
// format (json or text) and wrapped twice:
//
//   - a context handler that adds run_id and campaign_id from the context
//     to every record logged with a *Context method
//   - a redacting handler that masks respondent emails, phone numbers and
//     credentials in attribute values
//
// Survey answers carry free text ("call me at 010-1234-5678"), so redaction
// is on by default.
//
//	logger, err := logging.New(cfg.Telemetry.Logging, os.Stderr)
//	ctx = logging.WithRunID(ctx, runID)
//	logger.InfoContext(ctx, "analysis complete", "samples", 50)
package logging
