package middleware

import (
	"context"
	"errors"
	"net/http"

	"regwatch/internal/domain"
	"regwatch/internal/observability"
)

// SessionCookieName is the name of the session cookie
const SessionCookieName = "regwatch_session"

type contextKey string

const (
	UsernameKey contextKey = "username"
	SessionKey  contextKey = "session"
)

// Auth guards a route behind a valid session cookie. Validation slides the
// session's expiry forward; failures short-circuit with 401 and a reason.
func Auth(sessionRepo domain.SessionRepository) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(SessionCookieName)
			if err != nil || cookie.Value == "" {
				http.Error(w, `{"error":"Not logged in"}`, http.StatusUnauthorized)
				return
			}

			session, err := sessionRepo.GetByToken(r.Context(), cookie.Value)
			if err != nil {
				if errors.Is(err, domain.ErrSessionExpired) {
					http.Error(w, `{"error":"Session expired"}`, http.StatusUnauthorized)
					return
				}
				http.Error(w, `{"error":"Invalid session"}`, http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), UsernameKey, session.Username)
			ctx = context.WithValue(ctx, SessionKey, session)
			ctx = observability.WithUsername(ctx, session.Username)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func GetUsername(ctx context.Context) (string, bool) {
	username, ok := ctx.Value(UsernameKey).(string)
	return username, ok
}

func GetSession(ctx context.Context) (*domain.Session, bool) {
	session, ok := ctx.Value(SessionKey).(*domain.Session)
	return session, ok
}

func WithUsername(ctx context.Context, username string) context.Context {
	return context.WithValue(ctx, UsernameKey, username)
}

func WithSession(ctx context.Context, session *domain.Session) context.Context {
	return context.WithValue(ctx, SessionKey, session)
}
