package middleware

import (
	"crypto/subtle"
	"net/http"

	"regwatch/internal/observability"
)

// AdminKeyHeader carries the static admin secret on privileged requests
const AdminKeyHeader = "X-Admin-Key"

// Admin guards a route behind the statically configured admin key. An
// empty server-side key is a misconfiguration and fails closed with 500
// rather than letting every request through.
func Admin(adminKey string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if adminKey == "" {
				observability.FromContext(r.Context()).Error("admin key is not configured")
				http.Error(w, `{"error":"Server misconfiguration"}`, http.StatusInternalServerError)
				return
			}

			supplied := r.Header.Get(AdminKeyHeader)
			if subtle.ConstantTimeCompare([]byte(supplied), []byte(adminKey)) != 1 {
				http.Error(w, `{"error":"Admin access denied"}`, http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
