// Package middleware provides the HTTP middleware wrapped around the
// analysis service endpoints.
//
// # Middleware Chain
//
//	handler = RequestID(Logging(Recovery(handler)))
//
// Order (innermost to outermost):
//  1. Recovery: turn handler panics into a 500 JSON response
//  2. Logging: log method, path, status and latency
//  3. RequestID: take X-Request-ID from the client or generate one
//
// Chain applies them in that order:
//
//	srv.Handler = middleware.Chain(mux, logger)
//
// The request id is stored with logging.WithRequestID, so every record
// logged through a logging.ContextHandler while serving the request carries
// a request_id attribute.
package middleware
