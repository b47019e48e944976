// Package middleware holds the chi middleware stack of the API: request
// correlation, access logging, panic recovery, security headers, CORS,
// rate limiting and path parameter validation.
package middleware

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
)

const (
	RequestIDHeader = "X-Request-ID"
	TraceIDHeader   = "X-Trace-ID"

	maxIncomingIDLength = 128
)

type correlationKey struct{}

// correlation is what RequestID stores in the request context.
type correlation struct {
	requestID string
	traceID   string
}

// RequestID tags every request with an id, reusing a well-formed
// X-Request-ID from the client and generating a UUID otherwise. A valid
// X-Trace-ID is propagated unchanged; an invalid one is dropped. Both are
// echoed on the response.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c := correlation{
			requestID: r.Header.Get(RequestIDHeader),
			traceID:   r.Header.Get(TraceIDHeader),
		}
		if !isPrintableID(c.requestID) {
			c.requestID = uuid.NewString()
		}
		if !isPrintableID(c.traceID) {
			c.traceID = ""
		}

		w.Header().Set(RequestIDHeader, c.requestID)
		if c.traceID != "" {
			w.Header().Set(TraceIDHeader, c.traceID)
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), correlationKey{}, c)))
	})
}

func correlationFrom(ctx context.Context) correlation {
	c, _ := ctx.Value(correlationKey{}).(correlation)
	return c
}

// GetRequestID returns the id assigned by RequestID, or "" outside it.
func GetRequestID(ctx context.Context) string { return correlationFrom(ctx).requestID }

// GetTraceID returns the propagated trace id, if any.
func GetTraceID(ctx context.Context) string { return correlationFrom(ctx).traceID }

// isPrintableID accepts 1..maxIncomingIDLength bytes of visible ASCII, which
// keeps client ids from smuggling newlines or escapes into log lines.
func isPrintableID(id string) bool {
	if id == "" || len(id) > maxIncomingIDLength {
		return false
	}
	for _, b := range []byte(id) {
		if b <= ' ' || b > '~' {
			return false
		}
	}
	return true
}

// writeError renders {"success":false,"message":...,"code":...}, the same
// envelope the handlers use.
func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
		Code    string `json:"code"`
	}{false, message, code})
}
