package middleware

import (
	"context"
	"net/http"
)

type userIDKey struct{}

// UserIDHeader carries the caller identity injected by the API gateway.
const UserIDHeader = "X-User-ID"

// WithUserID returns a copy of ctx owned by userID.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey{}, userID)
}

// UserIDFromContext returns the cart owner of the request, or "".
func UserIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(userIDKey{}).(string)
	return id
}

// RequireUserID answers 401 to requests without an X-User-ID header.
func RequireUserID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		uid := r.Header.Get(UserIDHeader)
		if uid == "" {
			writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required")
			return
		}
		next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), uid)))
	})
}
