// Package storefront is the typed client for the juice storefront REST backend. It owns
// transport concerns: timeouts, bearer auth, token refresh and error normalisation.
// Every error it returns is an *errors.AppError.
package storefront

import (
	"bytes"
	"context"
	"encoding/json"
	stdErrors "errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/aaravmahajanofficial/juicebar-storefront/internal/errors"
	"github.com/aaravmahajanofficial/juicebar-storefront/internal/metrics"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/sync/singleflight"
)

const (
	MsgTimeout        = "Request timed out. Please try again."
	MsgNetwork        = "Network error. Please check your connection."
	MsgSessionExpired = "Your session has expired. Please login again."
	MsgServerError    = "Something went wrong. Please try again."

	refreshPath = "/users/token/refresh/"

	// Tokens this close to expiry are refreshed before use.
	expirySkew = 10 * time.Second
)

// TokenStore is the session side of the client. ExpireSession must clear persisted
// tokens and notify session consumers.
type TokenStore interface {
	AccessToken(ctx context.Context) (string, error)
	RefreshToken(ctx context.Context) (string, error)
	UpdateAccessToken(ctx context.Context, token string) error
	ExpireSession(ctx context.Context) error
}

type Config struct {
	BaseURL            string
	RequestTimeout     time.Duration
	RefreshTimeout     time.Duration
	BreakerMaxFailures uint32
	BreakerOpenTimeout time.Duration
	// Transport is wrapped with OpenTelemetry instrumentation. Nil means http.DefaultTransport.
	Transport http.RoundTripper
}

type Client struct {
	baseURL        string
	http           *http.Client
	refreshTimeout time.Duration
	tokens         TokenStore
	breaker        *gobreaker.CircuitBreaker[*http.Response]
	refreshGroup   singleflight.Group
	logger         *slog.Logger
	now            func() time.Time
}

func New(cfg Config, tokens TokenStore, logger *slog.Logger) *Client {

	if logger == nil {
		logger = slog.Default()
	}

	transport := cfg.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}

	maxFailures := cfg.BreakerMaxFailures
	if maxFailures == 0 {
		maxFailures = 5
	}

	breaker := gobreaker.NewCircuitBreaker[*http.Response](gobreaker.Settings{
		Name:        "storefront-backend",
		MaxRequests: 1,
		Timeout:     cfg.BreakerOpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		// Only transport failures trip the breaker; HTTP error statuses are answers.
		IsSuccessful: func(err error) bool {
			return err == nil || stdErrors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("⚠️ Backend circuit breaker changed state",
				slog.String("breaker", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()),
			)
		},
	})

	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http: &http.Client{
			Timeout:   cfg.RequestTimeout,
			Transport: otelhttp.NewTransport(transport),
		},
		refreshTimeout: cfg.RefreshTimeout,
		tokens:         tokens,
		breaker:        breaker,
		logger:         logger,
		now:            time.Now,
	}
}

type request struct {
	op     string
	method string
	path   string
	query  url.Values
	body   any
	authed bool
}

// do sends req and decodes a 2xx body into out. An authenticated request that gets a
// 401 refreshes the access token once and is retried once.
func (c *Client) do(ctx context.Context, req request, out any) error {

	start := c.now()
	err := c.doOnce(ctx, req, out)

	outcome := "ok"
	if appErr, ok := errors.IsAppError(err); ok {
		outcome = appErr.Code
		c.logger.Warn("Backend call failed",
			slog.String("operation", req.op),
			slog.String("code", appErr.Code),
			slog.Int("status", appErr.StatusCode),
			slog.Any("error", appErr.Err),
		)
	}

	metrics.ObserveBackendCall(req.op, outcome, c.now().Sub(start))

	return err
}

func (c *Client) doOnce(ctx context.Context, req request, out any) error {

	var payload []byte
	if req.body != nil {
		data, err := json.Marshal(req.body)
		if err != nil {
			return errors.InternalError("Failed to encode request").WithError(err)
		}
		payload = data
	}

	token := ""
	if req.authed {
		t, err := c.validAccessToken(ctx)
		if err != nil {
			return err
		}
		token = t
	}

	resp, err := c.send(ctx, req, payload, token)
	if err != nil {
		return err
	}

	if resp.StatusCode == http.StatusUnauthorized && req.authed {
		drain(resp)

		token, err = c.refresh(ctx)
		if err != nil {
			return err
		}

		resp, err = c.send(ctx, req, payload, token)
		if err != nil {
			return err
		}

		if resp.StatusCode == http.StatusUnauthorized {
			drain(resp)
			c.expire(ctx)
			return errors.SessionExpiredError(MsgSessionExpired)
		}
	}

	return decode(resp, out)
}

func (c *Client) send(ctx context.Context, req request, payload []byte, token string) (*http.Response, error) {

	target := c.baseURL + req.path
	if len(req.query) > 0 {
		target += "?" + req.query.Encode()
	}

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, target, body)
	if err != nil {
		return nil, errors.InternalError("Failed to build request").WithError(err)
	}

	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("X-Request-ID", uuid.NewString())
	if payload != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.breaker.Execute(func() (*http.Response, error) {
		return c.http.Do(httpReq)
	})
	if err != nil {
		return nil, transportError(err)
	}

	return resp, nil
}

// validAccessToken returns the stored token, refreshing first when it is a JWT that
// has already expired. Tokens that cannot be parsed are sent as they are.
func (c *Client) validAccessToken(ctx context.Context) (string, error) {

	token, err := c.tokens.AccessToken(ctx)
	if err != nil {
		return "", errors.StorageError("Failed to read session").WithError(err)
	}

	if token == "" {
		return "", errors.NotAuthenticatedError("Please login first")
	}

	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil || claims.ExpiresAt == nil {
		return token, nil
	}

	if claims.ExpiresAt.Time.After(c.now().Add(expirySkew)) {
		return token, nil
	}

	c.logger.Debug("Access token expired, refreshing before request")

	return c.refresh(ctx)
}

type refreshResponse struct {
	AccessToken string `json:"access_token"`
	Access      string `json:"access"`
}

// refresh exchanges the refresh token for a new access token. Concurrent callers share
// one backend call. Any failure ends the session.
func (c *Client) refresh(ctx context.Context) (string, error) {

	v, err, _ := c.refreshGroup.Do("refresh", func() (any, error) {

		refreshToken, err := c.tokens.RefreshToken(ctx)
		if err != nil || refreshToken == "" {
			c.expire(ctx)
			return "", errors.SessionExpiredError(MsgSessionExpired).WithError(err)
		}

		rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.refreshTimeout)
		defer cancel()

		payload, _ := json.Marshal(map[string]string{"refresh": refreshToken})

		resp, err := c.send(rctx, request{op: "refresh_token", method: http.MethodPost, path: refreshPath}, payload, "")
		if err != nil {
			c.expire(ctx)
			return "", errors.SessionExpiredError(MsgSessionExpired).WithError(err)
		}

		var out refreshResponse
		if err := decode(resp, &out); err != nil {
			c.expire(ctx)
			return "", errors.SessionExpiredError(MsgSessionExpired).WithError(err)
		}

		access := out.AccessToken
		if access == "" {
			access = out.Access
		}

		if access == "" {
			c.expire(ctx)
			return "", errors.SessionExpiredError(MsgSessionExpired).WithDetail("refresh response had no access token")
		}

		if err := c.tokens.UpdateAccessToken(ctx, access); err != nil {
			return "", errors.StorageError("Failed to store refreshed token").WithError(err)
		}

		c.logger.Info("🔄 Access token refreshed")

		return access, nil
	})

	if err != nil {
		return "", err
	}

	return v.(string), nil
}

func (c *Client) expire(ctx context.Context) {
	if err := c.tokens.ExpireSession(context.WithoutCancel(ctx)); err != nil {
		c.logger.Error("Failed to clear expired session", slog.Any("error", err))
	}
}

func transportError(err error) *errors.AppError {

	if stdErrors.Is(err, gobreaker.ErrOpenState) || stdErrors.Is(err, gobreaker.ErrTooManyRequests) {
		return errors.NetworkError(MsgNetwork).WithDetail("backend circuit open").WithError(err)
	}

	if stdErrors.Is(err, context.DeadlineExceeded) {
		return errors.TimeoutError(MsgTimeout).WithError(err)
	}

	var netErr net.Error
	if stdErrors.As(err, &netErr) && netErr.Timeout() {
		return errors.TimeoutError(MsgTimeout).WithError(err)
	}

	return errors.NetworkError(MsgNetwork).WithError(err)
}

type errorBody struct {
	Error   json.RawMessage `json:"error"`
	Message string          `json:"message"`
	Detail  string          `json:"detail"`
}

// serverMessage extracts the human readable reason from an error body, if any.
func serverMessage(data []byte) string {

	var body errorBody
	if err := json.Unmarshal(data, &body); err != nil {
		return ""
	}

	if len(body.Error) > 0 {
		var s string
		if err := json.Unmarshal(body.Error, &s); err == nil && s != "" {
			return s
		}

		var nested struct {
			Message string `json:"message"`
		}
		if err := json.Unmarshal(body.Error, &nested); err == nil && nested.Message != "" {
			return nested.Message
		}
	}

	if body.Detail != "" {
		return body.Detail
	}

	return body.Message
}

func decode(resp *http.Response, out any) error {

	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return transportError(err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		msg := serverMessage(data)
		if msg == "" {
			msg = MsgServerError
		}

		return errors.ServerRejectedError(resp.StatusCode, msg).WithError(fmt.Errorf("backend answered %d", resp.StatusCode))
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}

	if err := json.Unmarshal(data, out); err != nil {
		return errors.ServerRejectedError(http.StatusBadGateway, MsgServerError).
			WithDetail("unexpected response format").
			WithError(err)
	}

	return nil
}

// HasServerMessage reports whether err is a rejection that carries the backend's own
// explanation rather than the generic fallback.
func HasServerMessage(err error) bool {
	appErr, ok := errors.IsAppError(err)
	return ok && appErr.Code == errors.ErrCodeServerRejected && appErr.Message != MsgServerError
}

func drain(resp *http.Response) {
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
}
