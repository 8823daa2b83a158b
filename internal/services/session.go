package service

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/aaravmahajanofficial/juicebar-storefront/internal/errors"
	"github.com/aaravmahajanofficial/juicebar-storefront/internal/events"
	"github.com/aaravmahajanofficial/juicebar-storefront/internal/models"
	repository "github.com/aaravmahajanofficial/juicebar-storefront/internal/repositories"
	"github.com/aaravmahajanofficial/juicebar-storefront/pkg/storefront"
)

var sessionKeys = []string{repository.KeyAccessToken, repository.KeyRefreshToken, repository.KeyUser}

// TokenVault keeps the session tokens in the key-value store. It is the backend
// client's view of the session.
type TokenVault struct {
	store  repository.KeyValueStore
	bus    *events.Bus
	logger *slog.Logger
}

var _ storefront.TokenStore = (*TokenVault)(nil)

func NewTokenVault(store repository.KeyValueStore, bus *events.Bus, logger *slog.Logger) *TokenVault {

	if logger == nil {
		logger = slog.Default()
	}

	return &TokenVault{store: store, bus: bus, logger: logger}
}

func (v *TokenVault) AccessToken(ctx context.Context) (string, error) {
	token, _, err := v.store.Get(ctx, repository.KeyAccessToken)
	return token, err
}

func (v *TokenVault) RefreshToken(ctx context.Context) (string, error) {
	token, _, err := v.store.Get(ctx, repository.KeyRefreshToken)
	return token, err
}

func (v *TokenVault) UpdateAccessToken(ctx context.Context, token string) error {
	return v.store.Set(ctx, repository.KeyAccessToken, token)
}

// ExpireSession clears the stored session and tells every consumer it has ended.
func (v *TokenVault) ExpireSession(ctx context.Context) error {
	return v.end(ctx, events.EndReasonExpired)
}

func (v *TokenVault) end(ctx context.Context, reason events.EndReason) error {

	err := v.store.MultiRemove(ctx, sessionKeys)
	if err != nil {
		v.logger.Error("Failed to clear session keys", slog.Any("error", err))
	}

	v.logger.Info("🔒 Session ended", slog.String("reason", string(reason)))

	if v.bus != nil {
		v.bus.Publish(ctx, events.SessionEnded{Reason: reason})
	}

	return err
}

// SessionService logs users in and out and restores a persisted session at startup.
type SessionService struct {
	backend AuthBackend
	vault   *TokenVault
	store   repository.KeyValueStore
	bus     *events.Bus
	logger  *slog.Logger
}

func NewSessionService(backend AuthBackend, vault *TokenVault, logger *slog.Logger) *SessionService {

	if logger == nil {
		logger = slog.Default()
	}

	return &SessionService{
		backend: backend,
		vault:   vault,
		store:   vault.store,
		bus:     vault.bus,
		logger:  logger,
	}
}

// Login authenticates and stores the token bundle in one atomic write.
func (s *SessionService) Login(ctx context.Context, req models.LoginRequest) (*models.SessionView, error) {

	identifier := strings.TrimSpace(req.EmailOrPhone)
	if identifier == "" || req.Password == "" {
		return nil, errors.InvalidInputError("Please enter your email or phone and password")
	}

	session, err := s.backend.Login(ctx, identifier, req.Password)
	if err != nil {
		return nil, err
	}

	userJSON := "null"
	if session.User != nil {
		data, err := json.Marshal(session.User)
		if err != nil {
			return nil, errors.InternalError("Failed to encode user").WithError(err)
		}
		userJSON = string(data)
	}

	if err := s.store.MultiSet(ctx, map[string]string{
		repository.KeyAccessToken:  session.AccessToken,
		repository.KeyRefreshToken: session.RefreshToken,
		repository.KeyUser:         userJSON,
	}); err != nil {
		return nil, errors.StorageError("Failed to save session").WithError(err)
	}

	s.logger.Info("🔓 User logged in", slog.String("user_id", userID(session.User)))

	if s.bus != nil {
		s.bus.Publish(ctx, events.SessionStarted{User: session.User})
	}

	return &models.SessionView{Authenticated: true, User: session.User}, nil
}

// Restore resumes a persisted session, announcing it so the cart loads.
func (s *SessionService) Restore(ctx context.Context) (*models.SessionView, error) {

	view, err := s.Current(ctx)
	if err != nil {
		return nil, err
	}

	if view.Authenticated {
		s.logger.Info("🔓 Session restored", slog.String("user_id", userID(view.User)))

		if s.bus != nil {
			s.bus.Publish(ctx, events.SessionStarted{User: view.User})
		}
	}

	return view, nil
}

// Current reads the stored session without side effects.
func (s *SessionService) Current(ctx context.Context) (*models.SessionView, error) {

	values, err := s.store.MultiGet(ctx, sessionKeys)
	if err != nil {
		return nil, errors.StorageError("Failed to read session").WithError(err)
	}

	if values[repository.KeyAccessToken] == "" {
		return &models.SessionView{Authenticated: false}, nil
	}

	view := &models.SessionView{Authenticated: true}

	if raw := values[repository.KeyUser]; raw != "" && raw != "null" {
		var user models.User
		if err := json.Unmarshal([]byte(raw), &user); err != nil {
			s.logger.Warn("⚠️ Stored user is unreadable", slog.Any("error", err))
		} else {
			view.User = &user
		}
	}

	return view, nil
}

func (s *SessionService) IsAuthenticated(ctx context.Context) bool {
	view, err := s.Current(ctx)
	return err == nil && view.Authenticated
}

func (s *SessionService) Logout(ctx context.Context) error {
	if err := s.vault.end(ctx, events.EndReasonLogout); err != nil {
		return errors.StorageError("Failed to clear session").WithError(err)
	}

	return nil
}

func userID(u *models.User) string {
	if u == nil {
		return ""
	}

	return u.ID.String()
}
