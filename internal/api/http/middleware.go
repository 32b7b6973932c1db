package http

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"rentdesk-backend/internal/logger"
	"rentdesk-backend/internal/security"
)

type contextKey string

const (
	contextKeyPrincipal contextKey = "principal"
	contextKeyRequestID contextKey = "request_id"
)

// RequestLogging tags every request with a request id and logs method,
// path, status and duration.
func RequestLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := uuid.New().String()
		ctx := context.WithValue(r.Context(), contextKeyRequestID, requestID)
		w.Header().Set("X-Request-Id", requestID)

		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r.WithContext(ctx))

		logger.Info("http request",
			"request_id", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration_ms", time.Since(start).Milliseconds())
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Authentication extracts the acting user from the Authorization header
// when one is present. Tokens are issued and policed by the external auth
// collaborator; here they only decide created_by_id stamping, so a missing
// header is not an error.
func Authentication(verifier security.TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if strings.HasPrefix(header, "Bearer ") {
				principal, err := verifier.Verify(strings.TrimPrefix(header, "Bearer "))
				if err == nil {
					r = r.WithContext(context.WithValue(r.Context(), contextKeyPrincipal, principal))
				} else {
					logger.Debug("ignoring invalid bearer token", "error", err)
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// PrincipalFrom returns the authenticated principal, if any.
func PrincipalFrom(ctx context.Context) *security.Principal {
	p, _ := ctx.Value(contextKeyPrincipal).(*security.Principal)
	return p
}
