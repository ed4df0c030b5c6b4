package middleware

import (
	"context"
	"net/http"

	"github.com/mcoot/greenlight/internal/model"
)

type contextKey string

const (
	sessionContextKey contextKey = "session"

	// SessionCookieName holds the id of the browser's game session
	SessionCookieName = "glgame_session"
)

// SessionLookup resolves a session id to a live session
type SessionLookup interface {
	GetSession(ctx context.Context, id model.SessionID) (*model.Session, error)
}

// GetSession retrieves the browser's session from the request context.
// Returns nil if the request has no live session.
func GetSession(ctx context.Context) *model.Session {
	session, _ := ctx.Value(sessionContextKey).(*model.Session)
	return session
}

// SetSessionCookie remembers the session in the browser
func SetSessionCookie(w http.ResponseWriter, id model.SessionID) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    string(id),
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// Session returns middleware that loads the session named by the cookie.
// A cookie naming a session that no longer exists is ignored.
func Session(sessions SessionLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var session *model.Session
			if cookie, err := r.Cookie(SessionCookieName); err == nil && cookie.Value != "" {
				session, _ = sessions.GetSession(r.Context(), model.SessionID(cookie.Value))
			}
			ctx := context.WithValue(r.Context(), sessionContextKey, session)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
