package middleware

import (
	"context"
	"net/http"
	"strings"

	"motorpool/pkg/logger"
)

const (
	UserIDKey  contextKey = "user_id"
	AdminKey   contextKey = "is_admin"
	UserHeader            = "X-User-ID"
	RoleHeader            = "X-User-Role"
)

// Identity copies the gateway-authenticated user identity into the request
// context. The services trust these headers; the gateway signature
// middleware is what makes that trust sound. Requests without a user id
// are rejected before any handler runs.
func Identity(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID := strings.TrimSpace(r.Header.Get(UserHeader))
			if userID == "" {
				log.Warn("Request without authenticated user",
					"request_id", requestIDFromContext(r.Context()),
					"path", r.URL.Path,
				)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"error":"Missing authenticated user identity"}`))
				return
			}

			ctx := context.WithValue(r.Context(), UserIDKey, userID)
			if strings.EqualFold(r.Header.Get(RoleHeader), "admin") {
				ctx = context.WithValue(ctx, AdminKey, true)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserID returns the authenticated user id carried by the context.
func UserID(ctx context.Context) string {
	if v := ctx.Value(UserIDKey); v != nil {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}

// IsAdmin reports whether the gateway marked the caller as an administrator.
func IsAdmin(ctx context.Context) bool {
	if v := ctx.Value(AdminKey); v != nil {
		if admin, ok := v.(bool); ok {
			return admin
		}
	}
	return false
}
