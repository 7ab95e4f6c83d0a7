// internal/utils/response.go
package utils

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/bricolage-backend/internal/i18n"
)

// Context keys set by the auth middleware
const (
	ContextKeyClaims   = "claims"
	ContextKeyUserID   = "user_id"
	ContextKeyUsername = "username"
	ContextKeyLang     = "lang"
)

type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *APIError   `json:"error,omitempty"`
	Meta    interface{} `json:"meta,omitempty"`
}

type APIError struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

func respond(c *gin.Context, status int, data, meta interface{}) {
	c.JSON(status, APIResponse{Success: true, Data: data, Meta: meta})
}

func SuccessResponse(c *gin.Context, data interface{}) {
	respond(c, http.StatusOK, data, nil)
}

func SuccessResponseWithMeta(c *gin.Context, data interface{}, meta interface{}) {
	respond(c, http.StatusOK, data, meta)
}

func CreatedResponse(c *gin.Context, data interface{}) {
	respond(c, http.StatusCreated, data, nil)
}

func ErrorResponse(c *gin.Context, statusCode int, code, message string, details interface{}) {
	c.JSON(statusCode, APIResponse{
		Error: &APIError{Code: code, Message: message, Details: details},
	})
}

// messageOr returns message, or the translation of key when message is empty.
func messageOr(c *gin.Context, message, key string, args ...interface{}) string {
	if message != "" {
		return message
	}
	return i18n.T(GetLangFromContext(c), key, args...)
}

func BadRequestResponse(c *gin.Context, message string, details interface{}) {
	ErrorResponse(c, http.StatusBadRequest, "BAD_REQUEST", messageOr(c, message, i18n.KeyValidationInvalid, "request"), details)
}

func UnauthorizedResponse(c *gin.Context, message string) {
	ErrorResponse(c, http.StatusUnauthorized, KindAuth.Code(), messageOr(c, message, i18n.KeyAuthRequired), nil)
}

func ForbiddenResponse(c *gin.Context, message string) {
	ErrorResponse(c, http.StatusForbidden, KindForbidden.Code(), messageOr(c, message, i18n.KeyAuthForbidden), nil)
}

func TooManyRequestsResponse(c *gin.Context) {
	ErrorResponse(c, http.StatusTooManyRequests, "RATE_LIMITED", messageOr(c, "", i18n.KeyRateLimited), nil)
}

// HandleError writes the response for a service error.
// Anything that is not an AppError is logged and answered with a generic 500.
func HandleError(c *gin.Context, err error) {
	lang := GetLangFromContext(c)

	var appErr *AppError
	if !errors.As(err, &appErr) || appErr.Kind == KindInternal {
		logrus.WithFields(logrus.Fields{
			"method": c.Request.Method,
			"path":   c.Request.URL.Path,
		}).WithError(err).Error("Request failed")
		ErrorResponse(c, http.StatusInternalServerError, KindInternal.Code(), i18n.T(lang, i18n.KeyInternalError), nil)
		return
	}

	if appErr.Kind == KindPayment && appErr.Err != nil {
		logrus.WithError(appErr.Err).Warn("Payment gateway error")
	}

	ErrorResponse(c, appErr.Kind.Status(), appErr.Kind.Code(), i18n.T(lang, appErr.Key, appErr.Args...), appErr.Details)
}

func PaginatedResponse(c *gin.Context, result PaginationResult) {
	SetPaginationHeaders(c, result)
	SuccessResponseWithMeta(c, result.Data, gin.H{
		"pagination": gin.H{
			"page":        result.Page,
			"limit":       result.Limit,
			"total":       result.Total,
			"total_pages": result.TotalPages,
		},
	})
}

func GetLangFromContext(c *gin.Context) string {
	if lang, exists := c.Get(ContextKeyLang); exists {
		if langStr, ok := lang.(string); ok {
			return langStr
		}
	}
	return i18n.DefaultLanguage
}

func GetUserIDFromContext(c *gin.Context) (string, bool) {
	if userID, exists := c.Get(ContextKeyUserID); exists {
		if userIDStr, ok := userID.(string); ok {
			return userIDStr, true
		}
	}
	return "", false
}

func GetClaimsFromContext(c *gin.Context) (*JWTClaims, bool) {
	if claims, exists := c.Get(ContextKeyClaims); exists {
		if typed, ok := claims.(*JWTClaims); ok {
			return typed, true
		}
	}
	return nil, false
}
