package middleware

import (
	"net/http"
	"slices"
)

// RequireRole rejects requests whose claims, stored by [Guard] or
// [RequireAccess], lack role. Mount it inside one of them.
func RequireRole(role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := ClaimsFromContext(r.Context())
			if !ok {
				writeStatus(w, http.StatusUnauthorized, "token_invalid")
				return
			}
			if !slices.Contains(claims.Roles, role) {
				writeStatus(w, http.StatusForbidden, "forbidden")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
