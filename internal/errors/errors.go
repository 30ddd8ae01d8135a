// Package errors defines the structured errors returned by services and rendered
// by the error middleware. Handlers never build responses from raw errors; every
// failure crossing the service boundary should be an *AppError so clients only
// ever see a stable code and a safe message.
package errors

import (
	stderrors "errors"
	"net/http"
)

// AppError represents a structured application error with an error code,
// human-readable message, HTTP status code, and optional internal error.
type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
	Internal   error  `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string { return e.Message }

// Unwrap returns the internal error for use with errors.Is/As.
func (e *AppError) Unwrap() error { return e.Internal }

// Is matches any AppError carrying the same code, so errors.Is works against
// sentinels even after Wrap or WithMessage produced a copy.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// Wrap copies the sentinel and attaches an internal cause.
func Wrap(sentinel *AppError, internal error) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    sentinel.Message,
		StatusCode: sentinel.StatusCode,
		Internal:   internal,
	}
}

// WithMessage copies the sentinel with a custom client-facing message.
func WithMessage(sentinel *AppError, message string) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    message,
		StatusCode: sentinel.StatusCode,
		Internal:   sentinel.Internal,
	}
}

// As extracts the first *AppError in err's chain.
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// Ensure returns err unchanged when it already carries an AppError and
// wraps it as an internal error otherwise.
func Ensure(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := As(err); ok {
		return err
	}
	return Wrap(ErrInternalServer, err)
}

// Authentication & authorization errors.
var (
	ErrUnauthorized       = &AppError{Code: "UNAUTHORIZED", Message: "Authentication required", StatusCode: http.StatusUnauthorized}
	ErrInvalidCredentials = &AppError{Code: "INVALID_CREDENTIALS", Message: "Invalid email or password", StatusCode: http.StatusUnauthorized}
	ErrInvalidToken       = &AppError{Code: "INVALID_TOKEN", Message: "Invalid or expired token", StatusCode: http.StatusUnauthorized}
	ErrForbidden          = &AppError{Code: "FORBIDDEN", Message: "Access denied", StatusCode: http.StatusForbidden}
	ErrAccountLocked      = &AppError{Code: "ACCOUNT_LOCKED", Message: "Account is temporarily locked", StatusCode: http.StatusLocked}
	ErrTooManyRequests    = &AppError{Code: "TOO_MANY_REQUESTS", Message: "Too many requests, please try again later", StatusCode: http.StatusTooManyRequests}
)

// General errors.
var (
	ErrInvalidInput        = &AppError{Code: "INVALID_INPUT", Message: "Invalid input", StatusCode: http.StatusBadRequest}
	ErrNotFound            = &AppError{Code: "NOT_FOUND", Message: "Resource not found", StatusCode: http.StatusNotFound}
	ErrConcurrentUpdate    = &AppError{Code: "CONCURRENT_UPDATE", Message: "The budget was modified concurrently, please retry", StatusCode: http.StatusConflict}
	ErrUpstreamUnavailable = &AppError{Code: "UPSTREAM_UNAVAILABLE", Message: "A dependent service is unavailable", StatusCode: http.StatusBadGateway}
	ErrInternalServer      = &AppError{Code: "INTERNAL_ERROR", Message: "An internal error occurred", StatusCode: http.StatusInternalServerError}
)

// User errors.
var (
	ErrUserNotFound   = &AppError{Code: "USER_NOT_FOUND", Message: "User not found", StatusCode: http.StatusNotFound}
	ErrDuplicateEmail = &AppError{Code: "DUPLICATE_EMAIL", Message: "A user with this email already exists", StatusCode: http.StatusConflict}
)

// Budget and section errors.
var (
	ErrBudgetNotFound   = &AppError{Code: "BUDGET_NOT_FOUND", Message: "Budget not found", StatusCode: http.StatusNotFound}
	ErrDuplicateBudget  = &AppError{Code: "DUPLICATE_BUDGET", Message: "A budget already exists for this month", StatusCode: http.StatusConflict}
	ErrSectionNotFound  = &AppError{Code: "SECTION_NOT_FOUND", Message: "Section not found", StatusCode: http.StatusNotFound}
	ErrDuplicateSection = &AppError{Code: "DUPLICATE_SECTION", Message: "A section with this name already exists in the budget", StatusCode: http.StatusBadRequest}
	ErrSectionNotEmpty  = &AppError{Code: "SECTION_NOT_EMPTY", Message: "Section still has categories", StatusCode: http.StatusConflict}
)

// Category errors.
var (
	ErrCategoryNotFound  = &AppError{Code: "CATEGORY_NOT_FOUND", Message: "Category not found", StatusCode: http.StatusNotFound}
	ErrDuplicateCategory = &AppError{Code: "DUPLICATE_CATEGORY", Message: "Category already exists in this section", StatusCode: http.StatusBadRequest}
)

// Expense errors.
var (
	ErrExpenseNotFound    = &AppError{Code: "EXPENSE_NOT_FOUND", Message: "Expense not found", StatusCode: http.StatusNotFound}
	ErrInvalidExpenseType = &AppError{Code: "INVALID_EXPENSE_TYPE", Message: "Unsupported expense type", StatusCode: http.StatusBadRequest}
)

// Reset snapshot errors.
var (
	ErrSnapshotNotFound        = &AppError{Code: "SNAPSHOT_NOT_FOUND", Message: "Reset snapshot not found", StatusCode: http.StatusNotFound}
	ErrUnsupportedExportFormat = &AppError{Code: "UNSUPPORTED_EXPORT_FORMAT", Message: "Export format must be xlsx or csv", StatusCode: http.StatusBadRequest}
)

// Feature flag errors.
var (
	ErrFeatureDisabled          = &AppError{Code: "FEATURE_DISABLED", Message: "This feature is not available", StatusCode: http.StatusNotFound}
	ErrFeatureFlagNotFound      = &AppError{Code: "FEATURE_FLAG_NOT_FOUND", Message: "Feature flag not found", StatusCode: http.StatusNotFound}
	ErrInvalidRolloutPercentage = &AppError{Code: "INVALID_ROLLOUT", Message: "Rollout percentage must be between 0 and 100", StatusCode: http.StatusBadRequest}
)

// Mobile exchange errors.
var (
	ErrInvalidExchangeCode = &AppError{Code: "INVALID_EXCHANGE_CODE", Message: "Invalid or already used exchange code", StatusCode: http.StatusBadRequest}
	ErrExchangeCodeExpired = &AppError{Code: "EXCHANGE_CODE_EXPIRED", Message: "Exchange code has expired", StatusCode: http.StatusBadRequest}
)
