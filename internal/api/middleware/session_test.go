package middleware_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aaravmahajanofficial/juicebar-storefront/internal/api/middleware"
	appErrors "github.com/aaravmahajanofficial/juicebar-storefront/internal/errors"
	"github.com/aaravmahajanofficial/juicebar-storefront/internal/models"
	"github.com/aaravmahajanofficial/juicebar-storefront/internal/utils/response"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSessions struct {
	view *models.SessionView
	err  error
}

func (s stubSessions) Current(context.Context) (*models.SessionView, error) {
	return s.view, s.err
}

func TestRequireSession(t *testing.T) {
	tests := []struct {
		name       string
		sessions   stubSessions
		wantStatus int
		wantCode   string
		wantUser   bool
	}{
		{
			name:       "Success - logged in user reaches the handler",
			sessions:   stubSessions{view: &models.SessionView{Authenticated: true, User: &models.User{ID: "3"}}},
			wantStatus: http.StatusOK,
			wantUser:   true,
		},
		{
			name:       "Success - session without a stored user",
			sessions:   stubSessions{view: &models.SessionView{Authenticated: true}},
			wantStatus: http.StatusOK,
		},
		{
			name:       "Failure - no session",
			sessions:   stubSessions{view: &models.SessionView{}},
			wantStatus: http.StatusUnauthorized,
			wantCode:   appErrors.ErrCodeNotAuthenticated,
		},
		{
			name:       "Failure - session store unreadable",
			sessions:   stubSessions{err: appErrors.StorageError("Failed to read session").WithError(errors.New("redis down"))},
			wantStatus: http.StatusInternalServerError,
			wantCode:   appErrors.ErrCodeStorage,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			var gotUser bool
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, gotUser = middleware.UserFromContext(r.Context())
				w.WriteHeader(http.StatusOK)
			})

			gate := middleware.NewSessionMiddleware(tt.sessions)
			req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
			rr := httptest.NewRecorder()

			// Act
			gate.RequireSession(next)(rr, req)

			// Assert
			assert.Equal(t, tt.wantStatus, rr.Code)
			assert.Equal(t, tt.wantUser, gotUser)

			if tt.wantCode != "" {
				var resp response.APIResponse
				require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
				assert.False(t, resp.Success)
				assert.Equal(t, tt.wantCode, resp.Error.Code)
			}
		})
	}
}
