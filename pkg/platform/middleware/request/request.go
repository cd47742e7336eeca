// Package request assigns each HTTP request a correlation ID.
package request

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"dicri/pkg/requestcontext"
)

const HeaderRequestID = "X-Request-ID"

const maxInboundIDLength = 128

// RequestID reuses a sane inbound X-Request-ID or generates a UUID, stores it
// in the context and echoes it on the response.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := strings.TrimSpace(r.Header.Get(HeaderRequestID))
		if requestID == "" || len(requestID) > maxInboundIDLength || strings.ContainsAny(requestID, "\r\n") {
			requestID = uuid.NewString()
		}
		w.Header().Set(HeaderRequestID, requestID)
		next.ServeHTTP(w, r.WithContext(requestcontext.WithRequestID(r.Context(), requestID)))
	})
}

// GetRequestID retrieves the request ID from the context.
func GetRequestID(ctx context.Context) string {
	return requestcontext.RequestID(ctx)
}
