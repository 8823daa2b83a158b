package errors

import (
	"errors"
	"fmt"
	"net/http"
)

type AppError struct {
	Code       string
	Message    string
	Detail     string
	StatusCode int
	Err        error
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NewAppError(code, message string, statusCode int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
	}
}

func (e *AppError) WithDetail(detail string) *AppError {
	e.Detail = detail

	return e
}

func (e *AppError) WithError(err error) *AppError {
	e.Err = err

	return e
}

// Failure kinds surfaced to the UI layer. The set is closed: callers switch on Code.
const (
	ErrCodeNotAuthenticated  = "NOT_AUTHENTICATED"
	ErrCodeInvalidInput      = "INVALID_INPUT"
	ErrCodeInvalidQuantity   = "INVALID_QUANTITY"
	ErrCodeCartLoading       = "CART_LOADING"
	ErrCodeNetwork           = "NETWORK_ERROR"
	ErrCodeTimeout           = "TIMEOUT"
	ErrCodeSessionExpired    = "SESSION_EXPIRED"
	ErrCodeServerRejected    = "SERVER_REJECTED"
	ErrCodeUnserviceableArea = "UNSERVICEABLE_AREA"
	ErrCodeNotFound          = "NOT_FOUND"
	ErrCodeInternal          = "INTERNAL_ERROR"
	ErrCodeStorage           = "STORAGE_ERROR"
	ErrCodeTooManyAttempts   = "TOO_MANY_ATTEMPTS"
)

func NotAuthenticatedError(message string) *AppError {
	return NewAppError(ErrCodeNotAuthenticated, message, http.StatusUnauthorized)
}

func InvalidInputError(message string) *AppError {
	return NewAppError(ErrCodeInvalidInput, message, http.StatusBadRequest)
}

func InvalidQuantityError(message string) *AppError {
	return NewAppError(ErrCodeInvalidQuantity, message, http.StatusUnprocessableEntity)
}

func CartLoadingError(message string) *AppError {
	return NewAppError(ErrCodeCartLoading, message, http.StatusConflict)
}

func NetworkError(message string) *AppError {
	return NewAppError(ErrCodeNetwork, message, http.StatusBadGateway)
}

func TimeoutError(message string) *AppError {
	return NewAppError(ErrCodeTimeout, message, http.StatusGatewayTimeout)
}

func SessionExpiredError(message string) *AppError {
	return NewAppError(ErrCodeSessionExpired, message, http.StatusUnauthorized)
}

// ServerRejectedError carries the backend's status code and, when present, its message verbatim.
func ServerRejectedError(statusCode int, message string) *AppError {
	return NewAppError(ErrCodeServerRejected, message, statusCode)
}

func UnserviceableAreaError(message string) *AppError {
	return NewAppError(ErrCodeUnserviceableArea, message, http.StatusUnprocessableEntity)
}

func NotFoundError(message string) *AppError {
	return NewAppError(ErrCodeNotFound, message, http.StatusNotFound)
}

func InternalError(message string) *AppError {
	return NewAppError(ErrCodeInternal, message, http.StatusInternalServerError)
}

func StorageError(message string) *AppError {
	return NewAppError(ErrCodeStorage, message, http.StatusInternalServerError)
}

func TooManyAttemptsError(message string) *AppError {
	return NewAppError(ErrCodeTooManyAttempts, message, http.StatusTooManyRequests)
}

func IsAppError(err error) (*AppError, bool) {
	var appError *AppError

	if errors.As(err, &appError) {
		return appError, true
	}

	return nil, false
}

// HasCode reports whether err is an AppError of the given kind.
func HasCode(err error, code string) bool {
	appErr, ok := IsAppError(err)
	return ok && appErr.Code == code
}

// IsTransient reports whether re-issuing the same action may succeed.
func IsTransient(err error) bool {
	return HasCode(err, ErrCodeNetwork) || HasCode(err, ErrCodeTimeout) || HasCode(err, ErrCodeCartLoading)
}

// field validation error.
func AddValidationError(field, reason string) *AppError {
	return InvalidInputError(fmt.Sprintf("Invalid field '%s': %s", field, reason))
}
