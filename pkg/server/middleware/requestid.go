package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"ustudiopd/eventlive/pkg/telemetry/logging"
)

// RequestIDHeader is the HTTP header carrying the request id.
const RequestIDHeader = "X-Request-ID"

// maxRequestIDLength bounds client supplied ids.
const maxRequestIDLength = 128

// RequestID adds a request id to the request context and the response
// headers. A client supplied X-Request-ID is reused when it is short enough.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" || len(id) > maxRequestIDLength {
			id = uuid.NewString()
		}

		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(logging.WithRequestID(r.Context(), id)))
	})
}
