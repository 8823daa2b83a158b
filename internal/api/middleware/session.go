package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/aaravmahajanofficial/juicebar-storefront/internal/errors"
	"github.com/aaravmahajanofficial/juicebar-storefront/internal/models"
	"github.com/aaravmahajanofficial/juicebar-storefront/internal/utils/response"
)

type contextKey string

const UserContextKey = contextKey("user")

// SessionReader is the view of the session the gate needs.
type SessionReader interface {
	Current(ctx context.Context) (*models.SessionView, error)
}

type SessionMiddleware struct {
	sessions SessionReader
}

func NewSessionMiddleware(sessions SessionReader) *SessionMiddleware {
	return &SessionMiddleware{sessions: sessions}
}

// RequireSession rejects requests while no user is logged in. The stored user, when
// known, is attached to the context.
func (m *SessionMiddleware) RequireSession(next http.Handler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := LoggerFromContext(r.Context())

		view, err := m.sessions.Current(r.Context())
		if err != nil {
			logger.Error("Failed to read session", slog.String("error", err.Error()))
			response.Error(w, err)
			return
		}

		if !view.Authenticated {
			logger.Warn("Request without a session")
			response.Error(w, errors.NotAuthenticatedError("Please login first"))
			return
		}

		ctx := r.Context()

		if view.User != nil {
			ctx = context.WithValue(ctx, UserContextKey, view.User)

			requestScopedLogger := logger.With(slog.String("user_id", view.User.ID.String()))
			ctx = context.WithValue(ctx, LoggerKey, requestScopedLogger)
		}

		next.ServeHTTP(w, r.WithContext(ctx))
	}
}

func UserFromContext(ctx context.Context) (*models.User, bool) {
	user, ok := ctx.Value(UserContextKey).(*models.User)
	return user, ok
}
