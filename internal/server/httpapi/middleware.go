package httpapi

import (
	"context"
	"net/http"
	"strings"

	"healthvault/internal/server/service"
)

type contextKey string

const sessionContextKey contextKey = "session"

func (r *Router) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		authz := req.Header.Get("Authorization")
		if authz == "" || !strings.HasPrefix(authz, "Bearer ") {
			writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "missing bearer token"})
			return
		}
		token := strings.TrimPrefix(authz, "Bearer ")
		sess, err := r.services.Auth.ParseToken(req.Context(), token)
		if err != nil {
			writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "invalid token"})
			return
		}
		ctx := context.WithValue(req.Context(), sessionContextKey, sess)
		next.ServeHTTP(w, req.WithContext(ctx))
	})
}

func getSession(ctx context.Context) service.Session {
	if v := ctx.Value(sessionContextKey); v != nil {
		if s, ok := v.(service.Session); ok {
			return s
		}
	}
	return service.Session{}
}

// deviceInfo is what goes into the access log for this request.
func deviceInfo(req *http.Request) string {
	if ua := req.UserAgent(); ua != "" {
		return ua
	}
	return "unknown"
}
