// Package errors provides the structured error type shared by services,
// middleware and handlers. Every service-layer failure is an AppError so
// clients get a stable code and message and never see internal details.
package errors

import "net/http"

// AppError represents a structured application error with an error code,
// human-readable message, HTTP status code, and optional internal error.
// Details are merged into the top level of the JSON error body.
type AppError struct {
	Code       string         `json:"code"`
	Message    string         `json:"message"`
	StatusCode int            `json:"-"`
	Internal   error          `json:"-"`
	Details    map[string]any `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string { return e.Message }

// Unwrap returns the internal error for use with errors.Is/As.
func (e *AppError) Unwrap() error { return e.Internal }

// Is matches any AppError carrying the same code, so wrapped copies of
// a sentinel still satisfy errors.Is against it.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// Wrap creates a new AppError with the same code/message/status but wraps an internal error.
func Wrap(sentinel *AppError, internal error) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    sentinel.Message,
		StatusCode: sentinel.StatusCode,
		Internal:   internal,
		Details:    sentinel.Details,
	}
}

// WithMessage creates a new AppError with a custom message.
func WithMessage(sentinel *AppError, message string) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    message,
		StatusCode: sentinel.StatusCode,
		Internal:   sentinel.Internal,
		Details:    sentinel.Details,
	}
}

// WithDetails returns a copy of sentinel carrying extra response fields.
func WithDetails(sentinel *AppError, details map[string]any) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    sentinel.Message,
		StatusCode: sentinel.StatusCode,
		Internal:   sentinel.Internal,
		Details:    details,
	}
}

// Body renders the error as the JSON object written to clients.
func (e *AppError) Body() map[string]any {
	body := make(map[string]any, len(e.Details)+2)
	for k, v := range e.Details {
		body[k] = v
	}
	body["code"] = e.Code
	body["message"] = e.Message
	return body
}

// Authentication & authorization errors.
var (
	ErrUnauthorized    = &AppError{Code: "UNAUTHORIZED", Message: "Authentication required", StatusCode: http.StatusUnauthorized}
	ErrTokenExpired    = &AppError{Code: "TOKEN_EXPIRED", Message: "Token has expired", StatusCode: http.StatusUnauthorized}
	ErrInvalidToken    = &AppError{Code: "INVALID_TOKEN", Message: "Invalid token", StatusCode: http.StatusUnauthorized}
	ErrForbidden       = &AppError{Code: "FORBIDDEN", Message: "Access denied", StatusCode: http.StatusForbidden}
	ErrPremiumRequired = &AppError{Code: "PREMIUM_REQUIRED", Message: "This feature requires a premium subscription", StatusCode: http.StatusForbidden}
	ErrLimitExceeded   = &AppError{Code: "LIMIT_EXCEEDED", Message: "Free plan limit reached", StatusCode: http.StatusForbidden}
	ErrAdminDisabled   = &AppError{Code: "ADMIN_DISABLED", Message: "Admin endpoints are not configured", StatusCode: http.StatusServiceUnavailable}
)

// General errors.
var (
	ErrInvalidInput   = &AppError{Code: "INVALID_INPUT", Message: "Invalid input", StatusCode: http.StatusBadRequest}
	ErrNotFound       = &AppError{Code: "NOT_FOUND", Message: "Resource not found", StatusCode: http.StatusNotFound}
	ErrInternalServer = &AppError{Code: "INTERNAL_ERROR", Message: "An internal error occurred", StatusCode: http.StatusInternalServerError}
)

// User errors.
var (
	ErrUserNotFound = &AppError{Code: "USER_NOT_FOUND", Message: "User not found", StatusCode: http.StatusNotFound}
)

// Budget errors.
var (
	ErrBudgetNotFound      = &AppError{Code: "BUDGET_NOT_FOUND", Message: "Budget not found", StatusCode: http.StatusNotFound}
	ErrNoDefaultBudget     = &AppError{Code: "NO_DEFAULT_BUDGET", Message: "No default budget configured", StatusCode: http.StatusNotFound}
	ErrInvalidBudgetKind   = &AppError{Code: "INVALID_BUDGET_KIND", Message: "Invalid budget kind", StatusCode: http.StatusBadRequest}
	ErrInvalidBudgetStatus = &AppError{Code: "INVALID_BUDGET_STATUS", Message: "Invalid budget status", StatusCode: http.StatusBadRequest}
	ErrBudgetKindFixed     = &AppError{Code: "BUDGET_KIND_FIXED", Message: "The kind of a budget cannot be changed", StatusCode: http.StatusBadRequest}
	ErrBudgetReactivation  = &AppError{Code: "BUDGET_REACTIVATION", Message: "Archived budgets can only be reactivated by renewal", StatusCode: http.StatusBadRequest}
	ErrCustomNotRenewable  = &AppError{Code: "CUSTOM_NOT_RENEWABLE", Message: "Custom budgets cannot be renewed", StatusCode: http.StatusBadRequest}
	ErrBudgetNotExpired    = &AppError{Code: "BUDGET_NOT_EXPIRED", Message: "The budget has not expired yet", StatusCode: http.StatusBadRequest}
)

// Category errors.
var (
	ErrCategoryNotFound    = &AppError{Code: "CATEGORY_NOT_FOUND", Message: "Category not found", StatusCode: http.StatusNotFound}
	ErrInvalidCategoryType = &AppError{Code: "INVALID_CATEGORY_TYPE", Message: "Invalid category type", StatusCode: http.StatusBadRequest}
	ErrDuplicateCategory   = &AppError{Code: "DUPLICATE_CATEGORY", Message: "A category with this name already exists", StatusCode: http.StatusBadRequest}
	ErrCategoriesExist     = &AppError{Code: "CATEGORIES_EXIST", Message: "The user already has personal categories", StatusCode: http.StatusBadRequest}
)

// Transaction errors.
var (
	ErrTransactionNotFound    = &AppError{Code: "TRANSACTION_NOT_FOUND", Message: "Transaction not found", StatusCode: http.StatusNotFound}
	ErrInvalidTransactionType = &AppError{Code: "INVALID_TRANSACTION_TYPE", Message: "Invalid transaction type", StatusCode: http.StatusBadRequest}
	ErrInvalidAmount          = &AppError{Code: "INVALID_AMOUNT", Message: "Amount must be greater than 0", StatusCode: http.StatusBadRequest}
	ErrInvalidDate            = &AppError{Code: "INVALID_DATE", Message: "Invalid date", StatusCode: http.StatusBadRequest}
)

// Cycle summary errors.
var (
	ErrCycleSummaryNotFound   = &AppError{Code: "CYCLE_SUMMARY_NOT_FOUND", Message: "Cycle summary not found", StatusCode: http.StatusNotFound}
	ErrInvalidLeftoverAction  = &AppError{Code: "INVALID_LEFTOVER_ACTION", Message: "Invalid leftover action", StatusCode: http.StatusBadRequest}
	ErrNegativeLeftoverAmount = &AppError{Code: "NEGATIVE_LEFTOVER_AMOUNT", Message: "Leftover amount cannot be negative", StatusCode: http.StatusBadRequest}
	ErrInvalidCloseDate       = &AppError{Code: "INVALID_CLOSE_DATE", Message: "Invalid close date", StatusCode: http.StatusBadRequest}
)
