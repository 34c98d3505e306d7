// Package logging builds the structured loggers used throughout Beacon.
//
// Loggers are plain *slog.Logger values. New wraps the JSON or text handler
// with a handler that appends transaction fields found in the context and,
// when enabled, one that scrubs PII (DSN keys, API keys, emails, IPs, bearer
// tokens and passwords) from messages and attribute values.
//
//	logger, err := logging.New(logging.Config{
//	    Level:     "info",
//	    Format:    "json",
//	    RedactPII: true,
//	})
//
//	ctx = logging.WithTransaction(ctx, "checkout", traceID, spanID)
//	logger.InfoContext(ctx, "transaction finished", "spans", 3)
package logging
