// intellichat/middlewares/session.go
package middlewares

import (
	"context"
	"net/http"

	"intellichat/intellichat/sessions"

	"github.com/go-chi/chi/v5"
)

type contextKey string

const sessionKey contextKey = "session"

// SessionMiddleware resolves the {session_id} URL parameter against the
// manager and stores the live session in the request context. Unknown
// sessions get a 404 before any handler runs.
func SessionMiddleware(manager *sessions.Manager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := chi.URLParam(r, "session_id")
			sess, ok := manager.Get(id)
			if !ok {
				http.Error(w, "session not found", http.StatusNotFound)
				return
			}
			ctx := context.WithValue(r.Context(), sessionKey, sess)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// SessionFromContext returns the session placed by SessionMiddleware.
func SessionFromContext(ctx context.Context) *sessions.Session {
	sess, _ := ctx.Value(sessionKey).(*sessions.Session)
	return sess
}
