package handlers

import (
	"errors"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	apperrors "github.com/JohanDJ0/restapi-gastos/internal/errors"
	"github.com/JohanDJ0/restapi-gastos/internal/logger"
	"github.com/JohanDJ0/restapi-gastos/internal/services"
	"github.com/JohanDJ0/restapi-gastos/internal/validator"
)

// ErrorResponse is the JSON body of every failed request.
type ErrorResponse struct {
	Code    string `json:"code" example:"BUDGET_NOT_FOUND"`
	Message string `json:"message" example:"Budget not found"`
}

// MessageResponse wraps a confirmation message.
type MessageResponse struct {
	Message string `json:"message"`
}

// dateLayouts are the accepted date inputs, most specific first.
var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// getUserID extracts the authenticated user ID from the Gin context.
// Returns ErrUnauthorized if not present.
func getUserID(c *gin.Context) (string, error) {
	userID := c.GetString("userID")
	if userID == "" {
		return "", apperrors.ErrUnauthorized
	}
	return userID, nil
}

// getIdentity returns the verified identity-provider subject.
func getIdentity(c *gin.Context) (services.Identity, error) {
	v, exists := c.Get("identity")
	if !exists {
		return services.Identity{}, apperrors.ErrUnauthorized
	}
	identity, ok := v.(services.Identity)
	if !ok || identity.ExternalID == "" {
		return services.Identity{}, apperrors.ErrUnauthorized
	}
	return identity, nil
}

// parsePathID reads a UUID path parameter. A malformed id can never match
// a record, so it is reported as the resource's not-found error.
func parsePathID(c *gin.Context, param string, notFound *apperrors.AppError) (string, error) {
	id := c.Param(param)
	if _, err := uuid.Parse(id); err != nil {
		return "", notFound
	}
	return id, nil
}

// parseDate accepts RFC 3339 timestamps or zone-less dates, which are read
// in loc.
func parseDate(value string, loc *time.Location) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, apperrors.WithMessage(apperrors.ErrInvalidDate, "Invalid date "+value)
}

// parseOptionalDate is parseDate for optional fields and query params.
func parseOptionalDate(value *string, loc *time.Location) (*time.Time, error) {
	if value == nil || strings.TrimSpace(*value) == "" {
		return nil, nil
	}
	t, err := parseDate(*value, loc)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// queryPtr returns the query value or nil when absent.
func queryPtr(c *gin.Context, key string) *string {
	if v, ok := c.GetQuery(key); ok && v != "" {
		return &v
	}
	return nil
}

// bindError converts a binding failure into an invalid-input error.
func bindError(err error) error {
	return apperrors.WithMessage(apperrors.ErrInvalidInput, validator.Message(err))
}

// respondWithError writes a consistent JSON error response. If the error is an
// *AppError it uses the error's status code and body. Otherwise it logs the
// unexpected error and returns a generic internal server error.
func respondWithError(c *gin.Context, err error) {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		if appErr.Internal != nil {
			logger.Get().Errorw("app error",
				"code", appErr.Code,
				"internal", appErr.Internal.Error(),
				"path", c.Request.URL.Path,
			)
		}
		c.JSON(appErr.StatusCode, appErr.Body())
		return
	}

	logger.Get().Errorw("unexpected error",
		"error", err.Error(),
		"path", c.Request.URL.Path,
		"method", c.Request.Method,
	)
	c.JSON(apperrors.ErrInternalServer.StatusCode, apperrors.ErrInternalServer.Body())
}
