// Package middleware provides HTTP middleware for session auth and telemetry.
package middleware

import (
	"context"
	"net/http"

	sessiondomain "openflow/backend/internal/session/domain"
)

// SessionCookieName is the cookie holding the opaque login session token.
const SessionCookieName = "openflow_session"

// SessionResolver resolves an opaque session token to a live session.
// Returns (nil, nil) when the token is unknown, expired, or revoked.
type SessionResolver interface {
	Resolve(ctx context.Context, token string) (*sessiondomain.Session, error)
}

// RequireSession returns middleware that authenticates requests via the
// session cookie. On success the user_id and session_id are set in the
// request context; otherwise the request is rejected with 401.
func RequireSession(sessions SessionResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if sessions == nil {
				unauthorized(w)
				return
			}
			cookie, err := r.Cookie(SessionCookieName)
			if err != nil || cookie.Value == "" {
				unauthorized(w)
				return
			}
			sess, err := sessions.Resolve(r.Context(), cookie.Value)
			if err != nil {
				http.Error(w, `{"error":"internal server error"}`, http.StatusInternalServerError)
				return
			}
			if sess == nil {
				unauthorized(w)
				return
			}
			ctx := WithIdentity(r.Context(), sess.UserID, sess.ID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"not authenticated"}`))
}
