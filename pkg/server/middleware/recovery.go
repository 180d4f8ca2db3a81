package middleware

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"runtime/debug"
)

type errorResponse struct {
	Error string `json:"error"`
}

// Recovery turns a handler panic into a 500 response. The panic value and
// stack are logged; the client only sees a generic message.
func Recovery(logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default().With("component", "http")
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				// Aborted handlers are an intentional net/http signal.
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				logger.ErrorContext(r.Context(), "panic in handler",
					"error", rec,
					"method", r.Method,
					"path", r.URL.Path,
					"stack", string(debug.Stack()),
				)

				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusInternalServerError)
				_ = json.NewEncoder(w).Encode(errorResponse{Error: "internal server error"})
			}()

			next.ServeHTTP(w, r)
		})
	}
}

// Chain wraps h with Recovery, then Logging, then RequestID. The request
// id is outermost so the access log and panic records both carry it.
func Chain(h http.Handler, logger *slog.Logger) http.Handler {
	h = Recovery(logger)(h)
	h = Logging(logger)(h)
	return RequestID(h)
}
