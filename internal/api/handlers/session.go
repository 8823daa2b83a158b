package handlers

import (
	"fmt"
	"log/slog"
	"math"
	"net/http"

	"github.com/aaravmahajanofficial/juicebar-storefront/internal/api/middleware"
	appErrors "github.com/aaravmahajanofficial/juicebar-storefront/internal/errors"
	"github.com/aaravmahajanofficial/juicebar-storefront/internal/models"
	repository "github.com/aaravmahajanofficial/juicebar-storefront/internal/repositories"
	service "github.com/aaravmahajanofficial/juicebar-storefront/internal/services"
	"github.com/aaravmahajanofficial/juicebar-storefront/internal/utils"
	"github.com/aaravmahajanofficial/juicebar-storefront/internal/utils/response"
	"github.com/go-playground/validator/v10"
)

type SessionHandler struct {
	sessions  *service.SessionService
	limiter   repository.LoginLimiter
	validator *validator.Validate
}

func NewSessionHandler(sessions *service.SessionService, limiter repository.LoginLimiter) *SessionHandler {
	return &SessionHandler{sessions: sessions, limiter: limiter, validator: utils.NewValidator()}
}

func (h *SessionHandler) Login() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		var req models.LoginRequest
		if !utils.ParseAndValidate(r, w, &req, h.validator) {
			logger.Warn("Invalid login input")
			return
		}

		attempt, err := h.limiter.Allow(r.Context(), req.EmailOrPhone)
		if err != nil {
			// the limiter is advisory; a storage outage must not lock everyone out
			logger.Error("Failed to record login attempt", slog.Any("error", err))
		} else if !attempt.Allowed {
			seconds := int(math.Ceil(attempt.RetryAfter.Seconds()))
			logger.Warn("Login attempts exhausted", slog.Int("retry_after_seconds", seconds))
			w.Header().Set("Retry-After", fmt.Sprint(seconds))
			response.Error(w, appErrors.TooManyAttemptsError(fmt.Sprintf("Too many login attempts. Try again in %d seconds", seconds)))
			return
		}

		view, err := h.sessions.Login(r.Context(), req)
		if err != nil {
			logger.Warn("Login failed", slog.Any("error", err))
			response.Error(w, err)
			return
		}

		if err := h.limiter.Reset(r.Context(), req.EmailOrPhone); err != nil {
			logger.Error("Failed to reset login attempts", slog.Any("error", err))
		}

		response.Success(w, http.StatusOK, view)
	}
}

func (h *SessionHandler) Current() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		view, err := h.sessions.Current(r.Context())
		if err != nil {
			middleware.LoggerFromContext(r.Context()).Error("Failed to read session", slog.Any("error", err))
			response.Error(w, err)
			return
		}

		response.Success(w, http.StatusOK, view)
	}
}

func (h *SessionHandler) Logout() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		if err := h.sessions.Logout(r.Context()); err != nil {
			logger.Error("Logout failed", slog.Any("error", err))
			response.Error(w, err)
			return
		}

		logger.Info("User logged out")
		response.Success(w, http.StatusOK, models.SessionView{Authenticated: false})
	}
}
