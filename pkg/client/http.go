package client

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/getsentry/sentry-go"
	"github.com/google/uuid"

	"mercator-hq/beacon/pkg/telemetry/tracing"
)

// RequestIDHeader carries the request ID echoed on every response.
const RequestIDHeader = "X-Request-ID"

// RecoverHandler wraps next so that a panicking handler is reported as an
// exception and answered with a 500. Panics with an error value keep their
// cause chain.
func (c *Client) RecoverHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, requestID)
		r = r.WithContext(tracing.Extract(r.Context(), r.Header))

		defer func() {
			v := recover()
			if v == nil {
				return
			}
			if v == http.ErrAbortHandler {
				panic(v)
			}

			id := c.CaptureException(v)
			c.logger.ErrorContext(r.Context(), "panic in handler",
				"error", fmt.Sprint(v),
				"request_id", requestID,
				"method", r.Method,
				"path", r.URL.Path,
				"event_id", eventIDString(id),
			)

			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusInternalServerError)
			_ = json.NewEncoder(w).Encode(map[string]string{
				"error":      "internal error",
				"request_id": requestID,
			})
		}()

		next.ServeHTTP(w, r)
	})
}

func eventIDString(id *sentry.EventID) string {
	if id == nil {
		return ""
	}
	return string(*id)
}
